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
	"errors"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/vs49688/mqconnect/mq"
)

func closeQueue(q mq.Queue, logger *log.Entry) {
	if err := q.Close(); err != nil {
		logger.WithError(err).WithField("queue", q.Name()).Warn("queue_close_failed")
	}
}

// PutOne puts a single text message. A blank payload is rejected locally:
// no queue is opened and the returned Ack is marked Skipped.
func PutOne(ctx context.Context, opener QueueOpener, queue string, payload string, opts *Options) (Ack, error) {
	o := opts.resolve()
	logger := o.Logger.WithField("queue", queue)

	if strings.TrimSpace(payload) == "" {
		logger.Warn("put_skipped_blank_message")
		return Ack{Queue: queue, Skipped: true}, nil
	}

	q, err := opener.OpenQueue(ctx, queue, mq.OutputOnly)
	if err != nil {
		return Ack{}, err
	}
	defer closeQueue(q, logger)

	msg := mq.NewTextMessage(payload)
	if err := q.Put(ctx, msg); err != nil {
		perr := &mq.PutError{Queue: queue, Err: err}
		o.Metrics.Error(ctx, queue, "put")
		entry := logger.WithError(err)
		if perr.Retryable() {
			entry.Warn("put_queue_full")
		} else {
			entry.Error("put_failed")
		}
		return Ack{}, perr
	}

	o.Metrics.Put(ctx, queue, len(msg.Data))
	logger.WithField("bytes", len(msg.Data)).Info("put_success")
	return Ack{Queue: queue, Bytes: len(msg.Data)}, nil
}

// Drain opens queue for input and returns a cursor over the messages
// currently available on it. The caller must Close the cursor if it stops
// before a terminal result.
func Drain(ctx context.Context, opener QueueOpener, queue string, opts *Options) (*Cursor, error) {
	o := opts.resolve()

	q, err := opener.OpenQueue(ctx, queue, mq.InputDefault)
	if err != nil {
		return nil, err
	}

	return &Cursor{
		queue:   q,
		name:    queue,
		metrics: o.Metrics,
		logger:  o.Logger.WithField("queue", queue),
	}, nil
}

// Next fetches the next message. "No message available" ends the walk with
// KindEndOfQueue; any other failure, including cancellation of ctx, ends
// it with KindError. Once terminal, Next keeps returning the same result.
func (c *Cursor) Next(ctx context.Context) Result {
	if c.terminal != nil {
		return *c.terminal
	}

	if err := ctx.Err(); err != nil {
		return c.finish(Result{Kind: KindError, Err: &mq.GetError{Queue: c.name, Count: c.count, Err: err}})
	}

	msg, err := c.queue.Get(ctx)
	if err != nil {
		if mq.IsNoMessage(err) {
			return c.finish(Result{Kind: KindEndOfQueue})
		}

		c.metrics.Error(ctx, c.name, "get")
		return c.finish(Result{Kind: KindError, Err: &mq.GetError{Queue: c.name, Count: c.count, Err: err}})
	}

	c.count++
	c.metrics.Got(ctx, c.name)
	c.logger.WithFields(log.Fields{"count": c.count, "bytes": len(msg.Data)}).Debug("get_message")
	return Result{Kind: KindMessage, Message: msg}
}

func (c *Cursor) finish(r Result) Result {
	c.terminal = &r
	closeQueue(c.queue, c.logger)

	entry := c.logger.WithField("count", c.count)
	switch {
	case r.Kind == KindEndOfQueue && c.count == 0:
		entry.Info("drain_queue_empty")
	case r.Kind == KindEndOfQueue:
		entry.Info("drain_complete")
	case errors.Is(r.Err, context.Canceled), errors.Is(r.Err, context.DeadlineExceeded):
		entry.WithError(r.Err).Warn("drain_cancelled")
	default:
		entry.WithError(r.Err).Error("drain_failed")
	}

	return r
}

// Count is the number of messages retrieved so far.
func (c *Cursor) Count() int {
	return c.count
}

// Close releases the input handle if the cursor has not already reached a
// terminal result.
func (c *Cursor) Close() {
	if c.terminal != nil {
		return
	}

	c.terminal = &Result{Kind: KindError, Err: &mq.GetError{Queue: c.name, Count: c.count, Err: errCursorClosed}}
	closeQueue(c.queue, c.logger)
}

var errCursorClosed = errors.New("cursor closed")

// DrainAll retrieves every available message, handing each to fn in
// delivery order. An empty queue is a successful drain with a count of
// zero. An error from fn stops the drain and is returned as is.
func DrainAll(ctx context.Context, opener QueueOpener, queue string, fn func(*mq.Message) error, opts *Options) (DrainSummary, error) {
	cur, err := Drain(ctx, opener, queue, opts)
	if err != nil {
		return DrainSummary{Queue: queue}, err
	}
	defer cur.Close()

	for {
		r := cur.Next(ctx)
		switch r.Kind {
		case KindMessage:
			if fn == nil {
				continue
			}
			if err := fn(r.Message); err != nil {
				return DrainSummary{Queue: queue, Count: cur.Count()}, err
			}
		case KindEndOfQueue:
			return DrainSummary{Queue: queue, Count: cur.Count()}, nil
		default:
			return DrainSummary{Queue: queue, Count: cur.Count()}, r.Err
		}
	}
}

// PutThenDrain puts payload and then drains the queue, as a round trip
// check. A blank payload still drains.
func PutThenDrain(ctx context.Context, opener QueueOpener, queue string, payload string, fn func(*mq.Message) error, opts *Options) (Ack, DrainSummary, error) {
	ack, err := PutOne(ctx, opener, queue, payload, opts)
	if err != nil {
		return ack, DrainSummary{Queue: queue}, err
	}

	summary, err := DrainAll(ctx, opener, queue, fn, opts)
	return ack, summary, err
}
