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
	"errors"
	"sync"

	log "github.com/sirupsen/logrus"
	"github.com/vs49688/mqconnect/mq"
)

var (
	ErrSessionState = errors.New("invalid session state")
	ErrNotOpen      = errors.New("session not open")
)

type State int32

const (
	StateUnopened   State = 0
	StateConnecting State = 1
	StateOpen       State = 2
	StateClosing    State = 3
	StateClosed     State = 4
)

func (s State) String() string {
	switch s {
	case StateUnopened:
		return "unopened"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		panic("invalid_state")
	}
}

// Session is one connection to a queue manager. It is never reused after
// Close; reconnecting means creating a new Session.
type Session struct {
	mu      sync.Mutex
	factory mq.Factory
	conn    mq.Connection
	state   State
	qmgr    string
	logger  *log.Entry
}
