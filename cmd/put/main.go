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

package put

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"
	"github.com/vs49688/mqconnect/cmd/config"
	"github.com/vs49688/mqconnect/exchange"
	"github.com/vs49688/mqconnect/session"
)

func RegisterCommand(app *cli.App) *cli.App {
	cfg := config.DefaultConfig()
	var message string

	flags := append(cfg.Parameters(), &cli.StringFlag{
		Name:        "message",
		Aliases:     []string{"m"},
		Usage:       "message text",
		Destination: &message,
		Required:    true,
	})

	app.Commands = append(app.Commands, &cli.Command{
		Name:   "put",
		Usage:  "Put a message",
		Flags:  flags,
		Before: cfg.Before,
		Action: func(c *cli.Context) error {
			ctx, cancel := config.SignalContext(c.Context)
			defer cancel()

			return cfg.WithSession(ctx, func(ctx context.Context, sess *session.Session) error {
				ack, err := exchange.PutOne(ctx, sess, cfg.Settings.QueueName, message, nil)
				if err != nil {
					return err
				}

				if ack.Skipped {
					_, _ = fmt.Fprintln(c.App.Writer, "Message cannot be empty or whitespace. Nothing was sent.")
				}
				return nil
			})
		},
	})
	return app
}
