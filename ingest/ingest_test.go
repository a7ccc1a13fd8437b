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
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vs49688/mqconnect/internal"
	"github.com/vs49688/mqconnect/metrics"
	"github.com/vs49688/mqconnect/mq"
	"github.com/vs49688/mqconnect/mq/memory"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

var testTime = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

func writeFile(t *testing.T, dir string, name string, content []byte) string {
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, content, 0o644))
	return path
}

func readFile(t *testing.T, path string) string {
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func buildTestPipeline(t *testing.T) (*Pipeline, *memory.Broker) {
	sess, broker := internal.BuildTestSession(t)
	return NewPipeline(&Config{
		Opener: sess,
		Queue:  internal.TestQueue,
		Now:    func() time.Time { return testTime },
	}), broker
}

func TestIngestDelivered(t *testing.T) {
	p, broker := buildTestPipeline(t)
	dir := t.TempDir()

	writeFile(t, dir, "a.txt", []byte("alpha"))
	writeFile(t, dir, "b.TXT", []byte("Привет!"))
	writeFile(t, dir, "c.log", []byte("not me"))

	summary, err := p.Ingest(context.Background(), dir, "txt")
	require.NoError(t, err)

	assert.Equal(t, ".txt", summary.Extension)
	assert.Equal(t, 2, summary.Delivered)
	assert.Equal(t, 0, summary.Quarantined)
	assert.Equal(t, 0, summary.Skipped)
	assert.Len(t, summary.Records, 2)

	msgs := broker.Messages(internal.TestQueue)
	if assert.Len(t, msgs, 2) {
		assert.Equal(t, "alpha", msgs[0].Text())
		assert.Equal(t, "Привет!", msgs[1].Text())
		for _, m := range msgs {
			assert.Equal(t, mq.FormatString, m.Format)
			assert.Equal(t, mq.CCSIDUTF8, m.CCSID)
		}
	}

	assert.Equal(t, "alpha", readFile(t, filepath.Join(dir, BackupDir, "a_20240102_030405.txt")))
	assert.Equal(t, "Привет!", readFile(t, filepath.Join(dir, BackupDir, "b_20240102_030405.TXT")))

	assert.NoFileExists(t, filepath.Join(dir, "a.txt"))
	assert.NoFileExists(t, filepath.Join(dir, "b.TXT"))
	assert.FileExists(t, filepath.Join(dir, "c.log"))

	// One output handle serves the whole pass.
	assert.Equal(t, 1, broker.Opens)
	assert.Equal(t, 1, broker.Closes)
}

func TestIngestQuarantine(t *testing.T) {
	t.Run("invalid_content", func(t *testing.T) {
		p, broker := buildTestPipeline(t)
		dir := t.TempDir()

		writeFile(t, dir, "bad.txt", []byte{0xff, 0xfe, 0x00})
		writeFile(t, dir, "good.txt", []byte("good"))

		summary, err := p.Ingest(context.Background(), dir, ".txt")
		require.NoError(t, err)

		assert.Equal(t, 1, summary.Delivered)
		assert.Equal(t, 1, summary.Quarantined)
		assert.Equal(t, 1, broker.Depth(internal.TestQueue))

		assert.FileExists(t, filepath.Join(dir, UnprocessedDir, "bad_20240102_030405.txt"))
		assert.FileExists(t, filepath.Join(dir, BackupDir, "good_20240102_030405.txt"))
		assert.NoFileExists(t, filepath.Join(dir, "bad.txt"))
	})

	t.Run("queue_full", func(t *testing.T) {
		sess, broker := internal.BuildTestSession(t)
		broker.DefineQueue("SMALL", 1)

		p := NewPipeline(&Config{
			Opener: sess,
			Queue:  "SMALL",
			Now:    func() time.Time { return testTime },
		})

		dir := t.TempDir()
		writeFile(t, dir, "1.txt", []byte("one"))
		writeFile(t, dir, "2.txt", []byte("two"))
		writeFile(t, dir, "3.txt", []byte("three"))

		summary, err := p.Ingest(context.Background(), dir, "txt")
		require.NoError(t, err)

		assert.Equal(t, 1, summary.Delivered)
		assert.Equal(t, 2, summary.Quarantined)

		for _, r := range summary.Records[1:] {
			assert.Equal(t, OutcomeQuarantined, r.Outcome)
			assert.ErrorIs(t, r.Err, mq.ErrQueueFull)
		}

		assert.FileExists(t, filepath.Join(dir, BackupDir, "1_20240102_030405.txt"))
		assert.FileExists(t, filepath.Join(dir, UnprocessedDir, "2_20240102_030405.txt"))
		assert.FileExists(t, filepath.Join(dir, UnprocessedDir, "3_20240102_030405.txt"))
	})
}

func TestIngestEveryFileRelocated(t *testing.T) {
	sess, broker := internal.BuildTestSession(t)
	broker.DefineQueue("SMALL", 3)

	p := NewPipeline(&Config{Opener: sess, Queue: "SMALL"})
	dir := t.TempDir()

	names := []string{"a.dat", "b.dat", "c.dat", "d.dat", "e.dat"}
	for _, n := range names {
		writeFile(t, dir, n, []byte(n))
	}

	summary, err := p.Ingest(context.Background(), dir, "dat")
	require.NoError(t, err)
	assert.Equal(t, len(names), summary.Delivered+summary.Quarantined)

	for _, r := range summary.Records {
		assert.NoFileExists(t, r.Source)
		assert.FileExists(t, r.Destination)

		var other string
		if r.Outcome == OutcomeDelivered {
			other = filepath.Join(dir, UnprocessedDir, filepath.Base(r.Destination))
		} else {
			other = filepath.Join(dir, BackupDir, filepath.Base(r.Destination))
		}
		assert.NoFileExists(t, other)
	}
}

func TestIngestOverwrite(t *testing.T) {
	p, _ := buildTestPipeline(t)
	dir := t.TempDir()

	require.NoError(t, os.MkdirAll(filepath.Join(dir, BackupDir), 0o755))
	writeFile(t, filepath.Join(dir, BackupDir), "a_20240102_030405.txt", []byte("old"))
	writeFile(t, dir, "a.txt", []byte("new"))

	summary, err := p.Ingest(context.Background(), dir, "txt")
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Delivered)

	assert.Equal(t, "new", readFile(t, filepath.Join(dir, BackupDir, "a_20240102_030405.txt")))
}

func TestIngestSetupIdempotent(t *testing.T) {
	p, _ := buildTestPipeline(t)
	dir := t.TempDir()

	require.NoError(t, os.MkdirAll(filepath.Join(dir, BackupDir), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, UnprocessedDir), 0o755))
	writeFile(t, filepath.Join(dir, BackupDir), "keep.bin", []byte("x"))
	writeFile(t, filepath.Join(dir, UnprocessedDir), "keep.bin", []byte("y"))

	for i := 0; i < 2; i++ {
		writeFile(t, dir, "f.txt", []byte("payload"))
		_, err := p.Ingest(context.Background(), dir, "txt")
		assert.NoError(t, err)
	}

	assert.Equal(t, "x", readFile(t, filepath.Join(dir, BackupDir, "keep.bin")))
	assert.Equal(t, "y", readFile(t, filepath.Join(dir, UnprocessedDir, "keep.bin")))
}

func TestIngestSetupErrors(t *testing.T) {
	p, broker := buildTestPipeline(t)
	dir := t.TempDir()
	file := writeFile(t, dir, "plain.txt", []byte("x"))

	t.Run("missing_folder", func(t *testing.T) {
		_, err := p.Ingest(context.Background(), filepath.Join(dir, "nope"), "txt")
		var setupErr *SetupError
		assert.True(t, errors.As(err, &setupErr))
		assert.ErrorIs(t, err, ErrFolderNotFound)
	})

	t.Run("not_a_folder", func(t *testing.T) {
		_, err := p.Ingest(context.Background(), file, "txt")
		assert.ErrorIs(t, err, ErrNotAFolder)
	})

	t.Run("blank_extension", func(t *testing.T) {
		_, err := p.Ingest(context.Background(), dir, "  ")
		assert.ErrorIs(t, err, ErrInvalidExtension)
		assert.NoDirExists(t, filepath.Join(dir, BackupDir))
	})

	assert.Equal(t, 0, broker.Opens)
	assert.FileExists(t, file)
}

func TestIngestNoFiles(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = mp.Shutdown(context.Background()) }()

	m, err := metrics.New(mp.Meter("test"))
	require.NoError(t, err)

	sess, broker := internal.BuildTestSession(t)
	p := NewPipeline(&Config{Opener: sess, Queue: internal.TestQueue, Metrics: m})

	dir := t.TempDir()
	writeFile(t, dir, "other.csv", []byte("x"))

	summary, err := p.Ingest(context.Background(), dir, "txt")
	require.NoError(t, err)

	assert.Equal(t, 0, summary.Total())
	assert.Equal(t, 0, broker.Opens)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	var passes uint64
	for _, sm := range rm.ScopeMetrics {
		for _, md := range sm.Metrics {
			if hist, ok := md.Data.(metricdata.Histogram[float64]); ok && md.Name == "mq_ingest_duration" {
				for _, dp := range hist.DataPoints {
					passes += dp.Count
				}
			}
		}
	}
	assert.Equal(t, uint64(1), passes)
	assert.DirExists(t, filepath.Join(dir, BackupDir))
	assert.DirExists(t, filepath.Join(dir, UnprocessedDir))
}

func TestIngestOpenQueueFailure(t *testing.T) {
	sess, _ := internal.BuildTestSession(t)
	p := NewPipeline(&Config{Opener: sess, Queue: "MISSING"})

	dir := t.TempDir()
	path := writeFile(t, dir, "a.txt", []byte("a"))

	summary, err := p.Ingest(context.Background(), dir, "txt")
	assert.Nil(t, summary)

	var qerr *mq.QueueAccessError
	if assert.True(t, errors.As(err, &qerr)) {
		assert.True(t, mq.IsReason(qerr, mq.ReasonUnknownObjectName))
	}

	assert.FileExists(t, path)
}

func TestIngestUnreadableSkipped(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced for root")
	}

	p, broker := buildTestPipeline(t)
	dir := t.TempDir()

	locked := writeFile(t, dir, "locked.txt", []byte("secret"))
	require.NoError(t, os.Chmod(locked, 0o000))
	t.Cleanup(func() { _ = os.Chmod(locked, 0o644) })

	writeFile(t, dir, "open.txt", []byte("hello"))

	summary, err := p.Ingest(context.Background(), dir, "txt")
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Delivered)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 1, broker.Depth(internal.TestQueue))

	assert.FileExists(t, locked)
	assert.NoFileExists(t, filepath.Join(dir, UnprocessedDir, "locked_20240102_030405.txt"))
}

func TestIngestCancelled(t *testing.T) {
	p, broker := buildTestPipeline(t)
	dir := t.TempDir()
	path := writeFile(t, dir, "a.txt", []byte("a"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := p.Ingest(ctx, dir, "txt")
	assert.ErrorIs(t, err, context.Canceled)
	if assert.NotNil(t, summary) {
		assert.Equal(t, 0, summary.Total())
	}

	assert.Equal(t, 0, broker.Depth(internal.TestQueue))
	assert.FileExists(t, path)
}

func TestNormalizeExtension(t *testing.T) {
	for in, want := range map[string]string{
		"txt":    ".txt",
		".txt":   ".txt",
		" xml ":  ".xml",
		"tar.gz": ".tar.gz",
	} {
		got, err := NormalizeExtension(in)
		assert.NoError(t, err)
		assert.Equal(t, want, got)
	}

	for _, in := range []string{"", ".", "*.txt", "a/b", "tar.", "tar..gz"} {
		_, err := NormalizeExtension(in)
		assert.ErrorIs(t, err, ErrInvalidExtension, in)
	}
}

func TestIngestCompoundExtension(t *testing.T) {
	p, broker := buildTestPipeline(t)
	dir := t.TempDir()

	writeFile(t, dir, "logs.tar.gz", []byte("archive"))
	writeFile(t, dir, "plain.gz", []byte("not me"))

	summary, err := p.Ingest(context.Background(), dir, "tar.gz")
	require.NoError(t, err)

	assert.Equal(t, ".tar.gz", summary.Extension)
	assert.Equal(t, 1, summary.Delivered)
	assert.Equal(t, 1, broker.Depth(internal.TestQueue))
	assert.FileExists(t, filepath.Join(dir, BackupDir, "logs.tar_20240102_030405.gz"))
	assert.FileExists(t, filepath.Join(dir, "plain.gz"))
}

func TestTimestampedName(t *testing.T) {
	assert.Equal(t, "report_20240102_030405.txt", TimestampedName("/in/report.txt", testTime))
	assert.Equal(t, "archive.tar_20240102_030405.gz", TimestampedName("archive.tar.gz", testTime))
	assert.Equal(t, "noext_20240102_030405", TimestampedName("noext", testTime))
}
