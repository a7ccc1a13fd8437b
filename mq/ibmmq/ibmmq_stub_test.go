//go:build !ibmmq

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

package ibmmq

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vs49688/mqconnect/mq"
)

func TestStubUnavailable(t *testing.T) {
	f := &Factory{}
	conn, err := f.Connect(context.Background(), "QM1", &mq.TransportParams{Mode: mq.ClientTransport}, nil)
	assert.Nil(t, conn)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.False(t, Available)
}
