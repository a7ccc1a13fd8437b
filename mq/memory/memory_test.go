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

package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vs49688/mqconnect/mq"
)

func connect(t *testing.T, b *Broker) mq.Connection {
	conn, err := b.Connect(context.Background(), "QM1", &mq.TransportParams{Mode: mq.ClientTransport}, nil)
	require.NoError(t, err)
	return conn
}

func TestBrokerFIFO(t *testing.T) {
	ctx := context.Background()
	b := New()
	b.DefineQueue("Q", 0)
	conn := connect(t, b)

	out, err := conn.Open(ctx, "Q", mq.OutputOnly)
	require.NoError(t, err)
	assert.NoError(t, out.Put(ctx, mq.NewTextMessage("one")))
	assert.NoError(t, out.Put(ctx, mq.NewTextMessage("two")))
	assert.Equal(t, 2, b.Depth("Q"))

	in, err := conn.Open(ctx, "Q", mq.InputDefault)
	require.NoError(t, err)

	msg, err := in.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "one", msg.Text())

	msg, err = in.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "two", msg.Text())

	_, err = in.Get(ctx)
	assert.True(t, mq.IsNoMessage(err))

	assert.NoError(t, out.Close())
	assert.NoError(t, in.Close())
	assert.Equal(t, 2, b.Opens)
	assert.Equal(t, 2, b.Closes)
}

func TestBrokerAccessModes(t *testing.T) {
	ctx := context.Background()
	b := New()
	b.DefineQueue("Q", 0)
	conn := connect(t, b)

	in, err := conn.Open(ctx, "Q", mq.InputDefault)
	require.NoError(t, err)
	assert.True(t, mq.IsReason(in.Put(ctx, mq.NewTextMessage("x")), mq.ReasonPutInhibited))

	out, err := conn.Open(ctx, "Q", mq.OutputOnly)
	require.NoError(t, err)
	_, err = out.Get(ctx)
	assert.True(t, mq.IsReason(err, mq.ReasonGetInhibited))
}

func TestBrokerFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("queue_full", func(t *testing.T) {
		b := New()
		b.DefineQueue("Q", 1)
		q, err := connect(t, b).Open(ctx, "Q", mq.OutputOnly)
		require.NoError(t, err)

		assert.NoError(t, q.Put(ctx, mq.NewTextMessage("a")))
		assert.True(t, mq.IsReason(q.Put(ctx, mq.NewTextMessage("b")), mq.ReasonQueueFull))
	})

	t.Run("unknown_queue", func(t *testing.T) {
		b := New()
		_, err := connect(t, b).Open(ctx, "NOPE", mq.OutputOnly)
		assert.True(t, mq.IsReason(err, mq.ReasonUnknownObjectName))
	})

	t.Run("quiescing", func(t *testing.T) {
		b := New()
		b.DefineQueue("Q", 0)
		b.Quiesce("Q")
		_, err := connect(t, b).Open(ctx, "Q", mq.InputDefault)
		assert.True(t, mq.IsReason(err, mq.ReasonQMgrQuiescing))
	})

	t.Run("closed_connection", func(t *testing.T) {
		b := New()
		b.DefineQueue("Q", 0)
		conn := connect(t, b)
		q, err := conn.Open(ctx, "Q", mq.OutputOnly)
		require.NoError(t, err)

		assert.NoError(t, conn.Close())
		assert.True(t, mq.IsReason(q.Put(ctx, mq.NewTextMessage("x")), mq.ReasonConnectionBroken))

		_, err = conn.Open(ctx, "Q", mq.OutputOnly)
		assert.True(t, mq.IsReason(err, mq.ReasonConnectionBroken))
	})

	t.Run("blank_queue_manager", func(t *testing.T) {
		_, err := New().Connect(ctx, "", &mq.TransportParams{}, nil)
		assert.True(t, mq.IsReason(err, mq.ReasonQMgrNameError))
	})

	t.Run("connect_error", func(t *testing.T) {
		b := New()
		b.ConnectError = errors.New("refused")
		_, err := b.Connect(ctx, "QM1", &mq.TransportParams{}, &mq.TLSOptions{CipherSpec: "X"})
		assert.EqualError(t, err, "refused")
		assert.Equal(t, 1, b.Connects)
		assert.Equal(t, "X", b.LastTLS.CipherSpec)
	})
}

func TestBrokerCopiesPayload(t *testing.T) {
	ctx := context.Background()
	b := New()
	b.DefineQueue("Q", 0)
	q, err := connect(t, b).Open(ctx, "Q", mq.OutputOnly)
	require.NoError(t, err)

	msg := mq.NewTextMessage("abc")
	require.NoError(t, q.Put(ctx, msg))
	msg.Data[0] = 'z'

	assert.Equal(t, "abc", b.Messages("Q")[0].Text())
}
