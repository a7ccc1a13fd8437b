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

package session

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/vs49688/mqconnect/mq"
)

func New(factory mq.Factory, logger *log.Entry) *Session {
	if logger == nil {
		logger = log.NewEntry(log.StandardLogger())
	}

	return &Session{
		factory: factory,
		state:   StateUnopened,
		logger:  logger,
	}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) QueueManager() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.qmgr
}

func (s *Session) log() *log.Entry {
	return s.logger.WithField("queue_manager", s.qmgr)
}

func (s *Session) transition(from State, to State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != from {
		return fmt.Errorf("%w: %v, expected %v", ErrSessionState, s.state, from)
	}

	s.state = to
	return nil
}

// Connect opens the session. Configuration problems are reported before the
// factory is touched, so no network attempt is made for an unusable config.
// Any failure leaves the session Unopened.
func (s *Session) Connect(ctx context.Context, cfg *mq.ConnectionConfig) error {
	if cfg == nil {
		return mq.ErrConfigMissing
	}

	params := mq.ResolveTransport(cfg)
	if params == nil {
		return &mq.ConfigError{Field: "MQTransportProperty", Reason: fmt.Sprintf("unsupported transport mode %v", cfg.Transport)}
	}

	if err := cfg.ValidateTLS(); err != nil {
		return err
	}

	if err := s.transition(StateUnopened, StateConnecting); err != nil {
		return err
	}

	s.mu.Lock()
	s.qmgr = cfg.QueueManager
	s.mu.Unlock()

	tls := cfg.TLS()

	s.log().WithFields(log.Fields{
		"host":        params.Host,
		"port":        params.Port,
		"channel":     params.Channel,
		"user_id":     params.UserID,
		"transport":   params.Mode,
		"tls":         tls != nil,
		"cipher_spec": cfg.CipherSpec,
	}).Info("session_connecting")

	conn, err := s.factory.Connect(ctx, cfg.QueueManager, params, tls)
	if err != nil {
		s.mu.Lock()
		s.state = StateUnopened
		s.mu.Unlock()

		cerr := mq.NewConnectionError(cfg.QueueManager, err)
		s.log().WithError(err).WithFields(log.Fields{
			"reason":          cerr.Reason,
			"completion_code": cerr.CompletionCode,
		}).Error("session_connect_failed")
		return cerr
	}

	s.mu.Lock()
	s.conn = conn
	s.state = StateOpen
	s.mu.Unlock()

	s.log().Info("session_connected")
	return nil
}

// Close disconnects the session. It is safe to call more than once, and on
// a session that never connected. The session ends up Closed even when the
// disconnect itself fails; that error is returned.
func (s *Session) Close() error {
	s.mu.Lock()
	switch s.state {
	case StateUnopened:
		s.state = StateClosed
		s.mu.Unlock()
		return nil
	case StateClosing, StateClosed:
		s.mu.Unlock()
		return nil
	case StateConnecting:
		s.mu.Unlock()
		return fmt.Errorf("%w: connect in progress", ErrSessionState)
	}

	s.state = StateClosing
	conn := s.conn
	s.mu.Unlock()

	err := conn.Close()

	s.mu.Lock()
	s.conn = nil
	s.state = StateClosed
	s.mu.Unlock()

	if err != nil {
		s.log().WithError(err).Error("session_close_failed")
		return err
	}

	s.log().Info("session_closed")
	return nil
}

// CloseQuietly is Close for shutdown paths; failures are logged only.
func (s *Session) CloseQuietly() {
	_ = s.Close()
}

// OpenQueue opens name for the given access. Opens fail fast when the queue
// manager is quiescing rather than blocking.
func (s *Session) OpenQueue(ctx context.Context, name string, mode mq.AccessMode) (mq.Queue, error) {
	s.mu.Lock()
	if s.state != StateOpen {
		state := s.state
		s.mu.Unlock()
		return nil, &mq.QueueAccessError{Queue: name, Mode: mode, Err: fmt.Errorf("%w: %v", ErrNotOpen, state)}
	}
	conn := s.conn
	s.mu.Unlock()

	q, err := conn.Open(ctx, name, mode)
	if err != nil {
		qerr := &mq.QueueAccessError{Queue: name, Mode: mode, Err: err}
		s.log().WithError(err).WithFields(log.Fields{
			"queue":     name,
			"mode":      mode,
			"quiescing": qerr.Quiescing(),
		}).Error("session_open_queue_failed")
		return nil, qerr
	}

	s.log().WithFields(log.Fields{"queue": name, "mode": mode}).Debug("session_open_queue")
	return q, nil
}
