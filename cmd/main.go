/*
 * MQConnect - Copyright (C) 2022 Zane van Iperen.
 *    Contact: zane@zanevaniperen.com
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU General Public License version 2, and only
 * version 2 as published by the Free Software Foundation.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with this program; if not, write to the Free Software
 * Foundation, Inc., 59 Temple Place, Suite 330, Boston, MA  02111-1307  USA
 */

package cmd

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"github.com/vs49688/mqconnect/cmd/config"
	"github.com/vs49688/mqconnect/cmd/drain"
	"github.com/vs49688/mqconnect/cmd/ingest"
	"github.com/vs49688/mqconnect/cmd/menu"
	"github.com/vs49688/mqconnect/cmd/put"
)

func Main() {
	app := cli.App{
		Name:    "mqconnect",
		Usage:   os.Args[0],
		Version: config.Version,
		Description: `MQConnect puts and gets text messages on a single queue and
sends the files in a folder to it, one message per file.
`,
	}

	put.RegisterCommand(&app)
	drain.RegisterCommand(&app)
	ingest.RegisterCommand(&app)
	menu.RegisterCommand(&app)

	err := app.Run(os.Args)
	if err != nil {
		log.Fatal(err)
	}
}
