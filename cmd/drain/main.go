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

package drain

import (
	"context"
	"fmt"
	"io"

	"github.com/urfave/cli/v2"
	"github.com/vs49688/mqconnect/cmd/config"
	"github.com/vs49688/mqconnect/exchange"
	"github.com/vs49688/mqconnect/mq"
	"github.com/vs49688/mqconnect/session"
)

// Printer writes each message on its own line, numbered from 1.
func Printer(w io.Writer) func(*mq.Message) error {
	count := 0
	return func(m *mq.Message) error {
		count++
		_, err := fmt.Fprintf(w, "%v: %v\n", count, m.Text())
		return err
	}
}

func RegisterCommand(app *cli.App) *cli.App {
	drainCfg := config.DefaultConfig()
	app.Commands = append(app.Commands, &cli.Command{
		Name:   "drain",
		Usage:  "Get all messages currently on the queue",
		Flags:  drainCfg.Parameters(),
		Before: drainCfg.Before,
		Action: func(c *cli.Context) error {
			ctx, cancel := config.SignalContext(c.Context)
			defer cancel()

			return drainCfg.WithSession(ctx, func(ctx context.Context, sess *session.Session) error {
				_, err := exchange.DrainAll(ctx, sess, drainCfg.Settings.QueueName, Printer(c.App.Writer), nil)
				return err
			})
		},
	})

	putDrainCfg := config.DefaultConfig()
	var message string

	flags := append(putDrainCfg.Parameters(), &cli.StringFlag{
		Name:        "message",
		Aliases:     []string{"m"},
		Usage:       "message text",
		Destination: &message,
		Required:    true,
	})

	app.Commands = append(app.Commands, &cli.Command{
		Name:   "put-drain",
		Usage:  "Put a message, then get all messages",
		Flags:  flags,
		Before: putDrainCfg.Before,
		Action: func(c *cli.Context) error {
			ctx, cancel := config.SignalContext(c.Context)
			defer cancel()

			return putDrainCfg.WithSession(ctx, func(ctx context.Context, sess *session.Session) error {
				_, _, err := exchange.PutThenDrain(ctx, sess, putDrainCfg.Settings.QueueName, message, Printer(c.App.Writer), nil)
				return err
			})
		},
	})

	return app
}
