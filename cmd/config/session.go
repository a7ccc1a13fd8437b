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

package config

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/vs49688/mqconnect/metrics"
	"github.com/vs49688/mqconnect/session"
)

const serviceName = "mqconnect"

// Version is stamped at build time.
var Version = "dev"

// SignalContext is cancelled on the first SIGINT or SIGTERM. A second
// signal exits immediately. Calling the returned function stops signal
// handling.
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigchan := make(chan os.Signal, 10)
	signal.Notify(sigchan, syscall.SIGINT, syscall.SIGTERM)

	stopChan := make(chan struct{})
	var once sync.Once

	go func() {
		sigcount := 0
		for {
			select {
			case sig := <-sigchan:
				log.WithFields(log.Fields{"signal": sig, "count": sigcount}).Trace("caught_signal")

				sigcount += 1
				if sigcount > 1 {
					log.WithFields(log.Fields{"signal": sig}).Warn("received_interrupt_force_exit")
					os.Exit(1)
				}
				log.WithFields(log.Fields{"signal": sig}).Info("received_interrupt")
				cancel()
			case <-stopChan:
				signal.Stop(sigchan)
				return
			}
		}
	}()

	return ctx, func() {
		cancel()
		once.Do(func() { close(stopChan) })
	}
}

// WithSession connects a session, runs fn and closes the session on every
// path, including cancellation.
func (cfg *CliConfig) WithSession(ctx context.Context, fn func(ctx context.Context, sess *session.Session) error) error {
	if cfg.OTLPEndpoint != "" {
		shutdown, err := metrics.InitOTel(ctx, metrics.OTelConfig{
			ServiceName:    serviceName,
			ServiceVersion: Version,
			Environment:    cfg.Environment,
			OTLPEndpoint:   cfg.OTLPEndpoint,
		})
		if err != nil {
			return err
		}

		defer func() {
			if err := shutdown(context.Background()); err != nil {
				log.WithError(err).Warn("otel_shutdown_failed")
			}
		}()
	}

	factory, err := cfg.Factory()
	if err != nil {
		return err
	}

	logger := log.WithFields(log.Fields{"broker": cfg.Broker})
	sess := session.New(factory, logger)
	defer sess.CloseQuietly()

	if err := sess.Connect(ctx, cfg.ConnectionConfig()); err != nil {
		return err
	}

	return fn(ctx, sess)
}
