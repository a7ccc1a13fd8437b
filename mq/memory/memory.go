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

// Package memory is an in-process broker. Queues live for the lifetime of
// the Broker and are shared by every connection made through it.
package memory

import (
	"context"
	"sync"

	"github.com/vs49688/mqconnect/mq"
)

type queueState struct {
	messages  []*mq.Message
	maxDepth  int
	quiescing bool
}

type Broker struct {
	mu     sync.Mutex
	queues map[string]*queueState

	// Connects counts the connection attempts that reached the broker.
	Connects int
	// Opens counts the queue opens that reached the broker.
	Opens int
	// Closes counts the queue handles closed, repeated closes included.
	Closes int

	// ConnectError, when set, is returned by every Connect.
	ConnectError error
	// LastTLS is the TLS bundle handed to the most recent Connect.
	LastTLS *mq.TLSOptions
}

func New() *Broker {
	return &Broker{queues: map[string]*queueState{}}
}

// DefineQueue creates a queue. A maxDepth of zero means unbounded.
func (b *Broker) DefineQueue(name string, maxDepth int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.queues[name] = &queueState{maxDepth: maxDepth}
}

// Quiesce marks a queue as quiescing; subsequent opens fail.
func (b *Broker) Quiesce(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if q, ok := b.queues[name]; ok {
		q.quiescing = true
	}
}

// Messages returns a copy of the messages currently on a queue.
func (b *Broker) Messages(name string) []*mq.Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	q, ok := b.queues[name]
	if !ok {
		return nil
	}
	return append([]*mq.Message(nil), q.messages...)
}

func (b *Broker) Depth(name string) int {
	return len(b.Messages(name))
}

func (b *Broker) Connect(_ context.Context, queueManager string, params *mq.TransportParams, tls *mq.TLSOptions) (mq.Connection, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.Connects++
	b.LastTLS = tls

	if b.ConnectError != nil {
		return nil, b.ConnectError
	}

	if queueManager == "" {
		return nil, mq.NewError("MQCONNX", mq.CompletionFailed, mq.ReasonQMgrNameError)
	}

	return &connection{broker: b, qmgr: queueManager}, nil
}

type connection struct {
	broker *Broker
	qmgr   string
	closed bool
}

func (c *connection) Open(_ context.Context, name string, mode mq.AccessMode) (mq.Queue, error) {
	b := c.broker
	b.mu.Lock()
	defer b.mu.Unlock()

	b.Opens++

	if c.closed {
		return nil, mq.NewError("MQOPEN", mq.CompletionFailed, mq.ReasonConnectionBroken)
	}

	q, ok := b.queues[name]
	if !ok {
		return nil, mq.NewError("MQOPEN", mq.CompletionFailed, mq.ReasonUnknownObjectName)
	}

	if q.quiescing {
		return nil, mq.NewError("MQOPEN", mq.CompletionFailed, mq.ReasonQMgrQuiescing)
	}

	return &queue{conn: c, name: name, state: q, mode: mode}, nil
}

func (c *connection) Close() error {
	c.broker.mu.Lock()
	defer c.broker.mu.Unlock()
	c.closed = true
	return nil
}

type queue struct {
	conn   *connection
	name   string
	state  *queueState
	mode   mq.AccessMode
	closed bool
}

func (q *queue) Name() string {
	return q.name
}

func (q *queue) Put(_ context.Context, msg *mq.Message) error {
	b := q.conn.broker
	b.mu.Lock()
	defer b.mu.Unlock()

	if q.closed || q.conn.closed {
		return mq.NewError("MQPUT", mq.CompletionFailed, mq.ReasonConnectionBroken)
	}

	if q.mode != mq.OutputOnly {
		return mq.NewError("MQPUT", mq.CompletionFailed, mq.ReasonPutInhibited)
	}

	if q.state.maxDepth > 0 && len(q.state.messages) >= q.state.maxDepth {
		return mq.NewError("MQPUT", mq.CompletionFailed, mq.ReasonQueueFull)
	}

	cp := *msg
	cp.Data = append([]byte(nil), msg.Data...)
	q.state.messages = append(q.state.messages, &cp)
	return nil
}

func (q *queue) Get(_ context.Context) (*mq.Message, error) {
	b := q.conn.broker
	b.mu.Lock()
	defer b.mu.Unlock()

	if q.closed || q.conn.closed {
		return nil, mq.NewError("MQGET", mq.CompletionFailed, mq.ReasonConnectionBroken)
	}

	if q.mode != mq.InputDefault {
		return nil, mq.NewError("MQGET", mq.CompletionFailed, mq.ReasonGetInhibited)
	}

	if len(q.state.messages) == 0 {
		return nil, mq.NewError("MQGET", mq.CompletionFailed, mq.ReasonNoMsgAvailable)
	}

	msg := q.state.messages[0]
	q.state.messages = q.state.messages[1:]
	return msg, nil
}

func (q *queue) Close() error {
	q.conn.broker.mu.Lock()
	defer q.conn.broker.mu.Unlock()
	q.conn.broker.Closes++
	q.closed = true
	return nil
}
