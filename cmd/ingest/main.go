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

package ingest

import (
	"context"
	"fmt"
	"io"

	"github.com/urfave/cli/v2"
	"github.com/vs49688/mqconnect/cmd/config"
	"github.com/vs49688/mqconnect/ingest"
	"github.com/vs49688/mqconnect/session"
)

// PrintSummary writes a one-line report of an ingestion pass.
func PrintSummary(w io.Writer, s *ingest.Summary) {
	_, _ = fmt.Fprintf(w, "%v: %v delivered, %v quarantined, %v skipped, %v stranded\n",
		s.Folder, s.Delivered, s.Quarantined, s.Skipped, s.Stranded)
}

func RegisterCommand(app *cli.App) *cli.App {
	cfg := config.DefaultConfig()
	var folder, extension string

	flags := append(cfg.Parameters(),
		&cli.StringFlag{
			Name:        "folder",
			Aliases:     []string{"f"},
			Usage:       "folder to read files from",
			EnvVars:     []string{"MQCONNECT_INGEST_FOLDER"},
			Destination: &folder,
			Required:    true,
		},
		&cli.StringFlag{
			Name:        "extension",
			Aliases:     []string{"e"},
			Usage:       "file extension to send (e.g. .txt)",
			EnvVars:     []string{"MQCONNECT_INGEST_EXTENSION"},
			Destination: &extension,
			Value:       ".txt",
		},
	)

	app.Commands = append(app.Commands, &cli.Command{
		Name:   "ingest",
		Usage:  "Send files from a folder to the queue",
		Flags:  flags,
		Before: cfg.Before,
		Action: func(c *cli.Context) error {
			ctx, cancel := config.SignalContext(c.Context)
			defer cancel()

			return cfg.WithSession(ctx, func(ctx context.Context, sess *session.Session) error {
				p := ingest.NewPipeline(&ingest.Config{
					Opener: sess,
					Queue:  cfg.Settings.QueueName,
				})

				summary, err := p.Ingest(ctx, folder, extension)
				if summary != nil {
					PrintSummary(c.App.Writer, summary)
				}
				return err
			})
		},
	})
	return app
}
