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

package menu

import (
	"bufio"
	"io"

	log "github.com/sirupsen/logrus"
	"github.com/vs49688/mqconnect/exchange"
	"github.com/vs49688/mqconnect/ingest"
)

const (
	choicePut      = "1"
	choiceDrain    = "2"
	choicePutDrain = "3"
	choiceIngest   = "4"
	choiceExit     = "5"
)

type Config struct {
	Opener exchange.QueueOpener
	Queue  string
	In     io.Reader
	Out    io.Writer
	Logger *log.Entry
	// Pipeline overrides the ingestion pipeline used by choice 4.
	Pipeline *ingest.Pipeline
}

type Menu struct {
	opener   exchange.QueueOpener
	queue    string
	in       *bufio.Scanner
	out      io.Writer
	logger   *log.Entry
	pipeline *ingest.Pipeline
}
