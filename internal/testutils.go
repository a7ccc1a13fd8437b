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

package internal

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vs49688/mqconnect/mq"
	"github.com/vs49688/mqconnect/mq/memory"
	"github.com/vs49688/mqconnect/session"
)

const (
	TestQueueManager = "QM1"
	TestQueue        = "DEV.QUEUE.1"
)

func TestConnectionConfig() *mq.ConnectionConfig {
	return &mq.ConnectionConfig{
		QueueManager: TestQueueManager,
		QueueName:    TestQueue,
		Host:         "localhost",
		Port:         1414,
		Channel:      "DEV.APP.SVRCONN",
		UserID:       "app",
		Password:     "passw0rd",
		Transport:    mq.ClientTransport,
	}
}

// BuildTestSession returns an open session against an in-memory broker
// with TestQueue defined. The session is closed when the test ends.
func BuildTestSession(t *testing.T) (*session.Session, *memory.Broker) {
	broker := memory.New()
	broker.DefineQueue(TestQueue, 0)

	s := session.New(broker, nil)
	t.Cleanup(s.CloseQuietly)

	err := s.Connect(context.Background(), TestConnectionConfig())
	assert.NoError(t, err)
	if err != nil {
		t.FailNow()
	}

	return s, broker
}
