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

package exchange

import (
	"context"

	log "github.com/sirupsen/logrus"
	"github.com/vs49688/mqconnect/metrics"
	"github.com/vs49688/mqconnect/mq"
)

// QueueOpener is satisfied by *session.Session.
type QueueOpener interface {
	OpenQueue(ctx context.Context, name string, mode mq.AccessMode) (mq.Queue, error)
}

// Ack confirms a put. Skipped is set when the payload was blank and nothing
// was sent.
type Ack struct {
	Queue   string
	Bytes   int
	Skipped bool
}

type Kind int

const (
	KindMessage Kind = iota
	KindEndOfQueue
	KindError
)

func (k Kind) String() string {
	switch k {
	case KindMessage:
		return "message"
	case KindEndOfQueue:
		return "end_of_queue"
	case KindError:
		return "error"
	default:
		panic("invalid_kind")
	}
}

// Result is one step of a drain: a message, the end of the queue, or an
// error. The last two are terminal.
type Result struct {
	Kind    Kind
	Message *mq.Message
	Err     error
}

func (r Result) Terminal() bool {
	return r.Kind != KindMessage
}

type DrainSummary struct {
	Queue string
	Count int
}

// Cursor walks the messages available on a queue. It owns an input handle
// that is released as soon as a terminal result is produced.
type Cursor struct {
	queue    mq.Queue
	name     string
	count    int
	terminal *Result
	metrics  *metrics.Metrics
	logger   *log.Entry
}

type Options struct {
	Logger  *log.Entry
	Metrics *metrics.Metrics
}

func (o *Options) resolve() Options {
	var r Options
	if o != nil {
		r = *o
	}

	if r.Logger == nil {
		r.Logger = log.NewEntry(log.StandardLogger())
	}

	if r.Metrics == nil {
		r.Metrics = metrics.Default()
	}

	return r
}
