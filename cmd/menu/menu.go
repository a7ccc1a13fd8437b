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
	"context"
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"github.com/vs49688/mqconnect/cmd/config"
	"github.com/vs49688/mqconnect/cmd/drain"
	ingestcmd "github.com/vs49688/mqconnect/cmd/ingest"
	"github.com/vs49688/mqconnect/exchange"
	"github.com/vs49688/mqconnect/ingest"
	"github.com/vs49688/mqconnect/session"
)

const banner = `
========= MENU =========
1. Put a message
2. Get all messages
3. Put & Get message
4. Send files from folder to queue
5. Exit
==========================`

var errInputClosed = errors.New("input closed")

func New(cfg *Config) *Menu {
	m := &Menu{
		opener:   cfg.Opener,
		queue:    cfg.Queue,
		in:       bufio.NewScanner(cfg.In),
		out:      cfg.Out,
		logger:   cfg.Logger,
		pipeline: cfg.Pipeline,
	}

	if m.logger == nil {
		m.logger = log.NewEntry(log.StandardLogger())
	}

	if m.pipeline == nil {
		m.pipeline = ingest.NewPipeline(&ingest.Config{
			Opener: cfg.Opener,
			Queue:  cfg.Queue,
			Logger: m.logger,
		})
	}

	return m
}

func (m *Menu) prompt(text string) (string, error) {
	_, _ = fmt.Fprint(m.out, text)
	if !m.in.Scan() {
		if err := m.in.Err(); err != nil {
			return "", err
		}
		return "", errInputClosed
	}
	return m.in.Text(), nil
}

// Run shows the menu until the operator exits, the input ends or ctx is
// cancelled. A failed operation is reported and the menu is shown again.
func (m *Menu) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		_, _ = fmt.Fprintln(m.out, banner)
		choice, err := m.prompt("Enter your choice: ")
		if errors.Is(err, errInputClosed) {
			return nil
		} else if err != nil {
			return err
		}

		switch strings.TrimSpace(choice) {
		case choicePut:
			err = m.put(ctx)
		case choiceDrain:
			err = m.drain(ctx)
		case choicePutDrain:
			if err = m.put(ctx); err == nil {
				err = m.drain(ctx)
			}
		case choiceIngest:
			err = m.ingest(ctx)
		case choiceExit:
			return nil
		default:
			_, _ = fmt.Fprintln(m.out, "Invalid input. Please choose between 1 and 5.")
			continue
		}

		if errors.Is(err, errInputClosed) {
			return nil
		} else if err != nil {
			m.logger.WithError(err).WithField("choice", choice).Error("menu_operation_failed")
			_, _ = fmt.Fprintf(m.out, "Error: %v\n", err)
		}
	}
}

func (m *Menu) put(ctx context.Context) error {
	text, err := m.prompt("Enter message to send: ")
	if err != nil {
		return err
	}

	ack, err := exchange.PutOne(ctx, m.opener, m.queue, text, &exchange.Options{Logger: m.logger})
	if err != nil {
		return err
	}

	if ack.Skipped {
		_, _ = fmt.Fprintln(m.out, "Message cannot be empty or whitespace. Please enter valid content.")
		return nil
	}

	_, _ = fmt.Fprintf(m.out, "Message successfully sent to queue '%v'.\n", m.queue)
	return nil
}

func (m *Menu) drain(ctx context.Context) error {
	summary, err := exchange.DrainAll(ctx, m.opener, m.queue, drain.Printer(m.out), &exchange.Options{Logger: m.logger})
	if err != nil {
		return err
	}

	if summary.Count == 0 {
		_, _ = fmt.Fprintln(m.out, "No messages found in queue.")
	} else {
		_, _ = fmt.Fprintf(m.out, "Done. %v message(s) retrieved from queue '%v'.\n", summary.Count, m.queue)
	}
	return nil
}

func (m *Menu) ingest(ctx context.Context) error {
	folder, err := m.prompt("Enter folder path: ")
	if err != nil {
		return err
	}

	ext, err := m.prompt("Enter file extension (e.g., .txt): ")
	if err != nil {
		return err
	}

	summary, err := m.pipeline.Ingest(ctx, strings.TrimSpace(folder), ext)
	if summary != nil {
		ingestcmd.PrintSummary(m.out, summary)
	}
	return err
}

func RegisterCommand(app *cli.App) *cli.App {
	cfg := config.DefaultConfig()
	app.Commands = append(app.Commands, &cli.Command{
		Name:   "menu",
		Usage:  "Interactive menu",
		Flags:  cfg.Parameters(),
		Before: cfg.Before,
		Action: func(c *cli.Context) error {
			ctx, cancel := config.SignalContext(c.Context)
			defer cancel()

			return cfg.WithSession(ctx, func(ctx context.Context, sess *session.Session) error {
				return New(&Config{
					Opener: sess,
					Queue:  cfg.Settings.QueueName,
					In:     c.App.Reader,
					Out:    c.App.Writer,
				}).Run(ctx)
			})
		},
	})
	return app
}
