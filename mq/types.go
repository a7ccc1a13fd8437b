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

//go:generate mockgen -source=types.go -destination=mocks/mock_mq.go

package mq

import (
	"context"
)

// AccessMode selects how a queue is opened. A handle is either input-only
// or output-only, never both.
type AccessMode int

const (
	OutputOnly AccessMode = iota
	InputDefault
)

func (m AccessMode) String() string {
	switch m {
	case OutputOnly:
		return "output"
	case InputDefault:
		return "input"
	default:
		return "unknown"
	}
}

const (
	// FormatNone is the broker default format (MQFMT_NONE).
	FormatNone = ""
	// FormatString marks the payload as character data (MQFMT_STRING).
	FormatString = "MQSTR"

	// CCSIDDefault leaves the coded character set to the queue manager.
	CCSIDDefault int32 = 0
	// CCSIDUTF8 is the IBM code page for UTF-8.
	CCSIDUTF8 int32 = 1208
)

// Message is a payload plus the metadata the connector cares about.
// Message identity is left to the broker.
type Message struct {
	Data   []byte
	Format string
	CCSID  int32
}

func NewTextMessage(text string) *Message {
	return &Message{Data: []byte(text), Format: FormatNone, CCSID: CCSIDDefault}
}

func (m *Message) Text() string {
	return string(m.Data)
}

// TLSOptions is the TLS bundle applied before a connection handshake.
type TLSOptions struct {
	KeyRepository       string
	CipherSpec          string
	PeerName            string
	CertRevocationCheck bool
}

// Connection is an open connection to a queue manager. It is owned by
// exactly one session.
type Connection interface {
	Open(ctx context.Context, queue string, mode AccessMode) (Queue, error)

	Close() error
}

// Queue is a handle to a single queue opened for input or output.
type Queue interface {
	Name() string

	Put(ctx context.Context, msg *Message) error

	// Get returns the next available message without waiting. When the
	// queue is empty it fails with an *Error whose reason is
	// ReasonNoMsgAvailable.
	Get(ctx context.Context) (*Message, error)

	Close() error
}

// Factory establishes connections. Implementations must apply tls (when
// non-nil) before starting the handshake.
type Factory interface {
	Connect(ctx context.Context, queueManager string, params *TransportParams, tls *TLSOptions) (Connection, error)
}
