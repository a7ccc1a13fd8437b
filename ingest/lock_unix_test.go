//go:build linux || darwin || freebsd || netbsd || openbsd || dragonfly

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

package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vs49688/mqconnect/internal"
	"golang.org/x/sys/unix"
)

func TestIngestLockedSkipped(t *testing.T) {
	p, broker := buildTestPipeline(t)
	dir := t.TempDir()

	locked := writeFile(t, dir, "locked.txt", []byte("half written"))
	writeFile(t, dir, "open.txt", []byte("hello"))

	holder, err := os.OpenFile(locked, os.O_RDWR, 0)
	require.NoError(t, err)
	defer holder.Close()
	require.NoError(t, unix.Flock(int(holder.Fd()), unix.LOCK_EX|unix.LOCK_NB))

	summary, err := p.Ingest(context.Background(), dir, "txt")
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Delivered)
	assert.Equal(t, 1, summary.Skipped)
	if assert.Len(t, summary.Records, 2) {
		assert.Equal(t, OutcomeSkipped, summary.Records[0].Outcome)
		assert.ErrorIs(t, summary.Records[0].Err, ErrFileLocked)
	}

	if msgs := broker.Messages(internal.TestQueue); assert.Len(t, msgs, 1) {
		assert.Equal(t, "hello", msgs[0].Text())
	}

	assert.FileExists(t, locked)
	assert.NoFileExists(t, filepath.Join(dir, BackupDir, "locked_20240102_030405.txt"))
	assert.NoFileExists(t, filepath.Join(dir, UnprocessedDir, "locked_20240102_030405.txt"))

	// Once the writer lets go the file goes through on the next pass.
	require.NoError(t, unix.Flock(int(holder.Fd()), unix.LOCK_UN))

	summary, err = p.Ingest(context.Background(), dir, "txt")
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Delivered)
	assert.Equal(t, 0, summary.Skipped)
	assert.Equal(t, "half written", readFile(t, filepath.Join(dir, BackupDir, "locked_20240102_030405.txt")))
}
