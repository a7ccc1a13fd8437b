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

package menu

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vs49688/mqconnect/internal"
)

func runMenu(t *testing.T, input string) (string, error) {
	sess, _ := internal.BuildTestSession(t)

	var out bytes.Buffer
	m := New(&Config{
		Opener: sess,
		Queue:  internal.TestQueue,
		In:     strings.NewReader(input),
		Out:    &out,
	})

	err := m.Run(context.Background())
	return out.String(), err
}

func TestMenuPutAndDrain(t *testing.T) {
	out, err := runMenu(t, "1\nhello\n2\n5\n")
	require.NoError(t, err)

	assert.Contains(t, out, "1. Put a message")
	assert.Contains(t, out, "Message successfully sent to queue 'DEV.QUEUE.1'.")
	assert.Contains(t, out, "1: hello")
	assert.Contains(t, out, "Done. 1 message(s) retrieved from queue 'DEV.QUEUE.1'.")
}

func TestMenuPutDrain(t *testing.T) {
	out, err := runMenu(t, "3\nround trip\n5\n")
	require.NoError(t, err)

	assert.Contains(t, out, "1: round trip")
	assert.Contains(t, out, "Done. 1 message(s)")
}

func TestMenuEmptyQueue(t *testing.T) {
	out, err := runMenu(t, "2\n")
	require.NoError(t, err)
	assert.Contains(t, out, "No messages found in queue.")
}

func TestMenuBlankMessage(t *testing.T) {
	out, err := runMenu(t, "1\n   \n2\n5\n")
	require.NoError(t, err)

	assert.Contains(t, out, "Message cannot be empty or whitespace.")
	assert.Contains(t, out, "No messages found in queue.")
}

func TestMenuInvalidChoice(t *testing.T) {
	out, err := runMenu(t, "9\nabc\n5\n")
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(out, "Invalid input. Please choose between 1 and 5."))
}

func TestMenuIngest(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("file body"), 0o644))

	out, err := runMenu(t, "4\n"+dir+"\ntxt\n2\n5\n")
	require.NoError(t, err)

	assert.Contains(t, out, "1 delivered, 0 quarantined, 0 skipped, 0 stranded")
	assert.Contains(t, out, "1: file body")
	assert.NoFileExists(t, filepath.Join(dir, "a.txt"))
}

func TestMenuIngestMissingFolder(t *testing.T) {
	out, err := runMenu(t, "4\n/does/not/exist\ntxt\n5\n")
	require.NoError(t, err)
	assert.Contains(t, out, "Error: ingestion setup for /does/not/exist: folder does not exist")
}

func TestMenuCancelled(t *testing.T) {
	sess, _ := internal.BuildTestSession(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	err := New(&Config{Opener: sess, Queue: internal.TestQueue, In: strings.NewReader("1\n"), Out: &out}).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
