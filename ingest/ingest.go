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
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/vs49688/mqconnect/metrics"
	"github.com/vs49688/mqconnect/mq"
)

var errInvalidUTF8 = errors.New("content is not valid UTF-8")

func NewPipeline(cfg *Config) *Pipeline {
	p := &Pipeline{
		opener:  cfg.Opener,
		queue:   cfg.Queue,
		now:     cfg.Now,
		logger:  cfg.Logger,
		metrics: cfg.Metrics,
	}

	if p.now == nil {
		p.now = time.Now
	}

	if p.logger == nil {
		p.logger = log.NewEntry(log.StandardLogger())
	}

	if p.metrics == nil {
		p.metrics = metrics.Default()
	}

	return p
}

// NormalizeExtension gives ext a leading dot. A bare "txt" becomes ".txt".
// Compound extensions such as "tar.gz" are allowed.
func NormalizeExtension(ext string) (string, error) {
	ext = strings.TrimSpace(ext)
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}

	if ext == "." || strings.HasSuffix(ext, ".") || strings.Contains(ext, "..") || strings.ContainsAny(ext, `/\*?`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidExtension, ext)
	}

	return ext, nil
}

// TimestampedName renders {stem}_{yyyyMMdd_HHmmss}{ext} for path.
func TimestampedName(path string, t time.Time) string {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	return fmt.Sprintf("%v_%v%v", stem, t.Format(TimestampLayout), ext)
}

func (p *Pipeline) setup(folder string, extension string) (string, error) {
	fi, err := os.Stat(folder)
	if errors.Is(err, os.ErrNotExist) {
		return "", &SetupError{Folder: folder, Err: ErrFolderNotFound}
	} else if err != nil {
		return "", &SetupError{Folder: folder, Err: err}
	}

	if !fi.IsDir() {
		return "", &SetupError{Folder: folder, Err: ErrNotAFolder}
	}

	ext, err := NormalizeExtension(extension)
	if err != nil {
		return "", &SetupError{Folder: folder, Err: err}
	}

	for _, dir := range []string{BackupDir, UnprocessedDir} {
		if err := os.MkdirAll(filepath.Join(folder, dir), 0o755); err != nil {
			return "", &SetupError{Folder: folder, Err: err}
		}
	}

	return ext, nil
}

// enumerate lists the regular files directly under folder whose names end
// in ext, ignoring case, in name order.
func enumerate(folder string, ext string) ([]string, error) {
	entries, err := os.ReadDir(folder)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}

		if !strings.HasSuffix(strings.ToLower(e.Name()), strings.ToLower(ext)) {
			continue
		}

		files = append(files, filepath.Join(folder, e.Name()))
	}

	sort.Strings(files)
	return files, nil
}

// openLocked opens path for reading under a shared lock. It fails with
// ErrFileLocked while another process holds an exclusive lock on the file.
func openLocked(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	if err := lockShared(f); err != nil {
		_ = f.Close()
		return nil, err
	}

	return f, nil
}

// relocate moves src to dst, replacing anything already at dst.
func relocate(src string, dst string) error {
	if err := os.Remove(dst); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return os.Rename(src, dst)
}

func buildMessage(r io.Reader) (*mq.Message, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	if !utf8.Valid(data) {
		return nil, errInvalidUTF8
	}

	return &mq.Message{Data: data, Format: mq.FormatString, CCSID: mq.CCSIDUTF8}, nil
}

// Ingest sends every matching file in folder to the queue, one after the
// other, over a single output handle. Delivered files move to BACKUP,
// failures move to UNPROCESSED, unreadable files stay where they are. A
// failure on one file never stops the pass; setup failures stop it before
// any file is touched.
func (p *Pipeline) Ingest(ctx context.Context, folder string, extension string) (*Summary, error) {
	start := time.Now()
	summary := &Summary{
		PassID: uuid.New(),
		Folder: folder,
		Queue:  p.queue,
	}

	logger := p.logger.WithFields(log.Fields{
		"pass_id": summary.PassID,
		"folder":  folder,
		"queue":   p.queue,
	})

	ext, err := p.setup(folder, extension)
	if err != nil {
		logger.WithError(err).Error("ingest_setup_failed")
		return nil, err
	}
	summary.Extension = ext

	files, err := enumerate(folder, ext)
	if err != nil {
		logger.WithError(err).Error("ingest_setup_failed")
		return nil, &SetupError{Folder: folder, Err: err}
	}

	if len(files) == 0 {
		summary.Duration = time.Since(start)
		p.metrics.Ingested(ctx, p.queue, summary.Duration)
		logger.WithField("extension", ext).Warn("ingest_no_files")
		return summary, nil
	}

	logger.WithFields(log.Fields{"extension": ext, "count": len(files)}).Info("ingest_start")

	q, err := p.opener.OpenQueue(ctx, p.queue, mq.OutputOnly)
	if err != nil {
		logger.WithError(err).Error("ingest_open_queue_failed")
		return nil, err
	}

	defer func() {
		if err := q.Close(); err != nil {
			logger.WithError(err).Warn("queue_close_failed")
		}
	}()

	backupDir := filepath.Join(folder, BackupDir)
	unprocessedDir := filepath.Join(folder, UnprocessedDir)

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			logger.WithError(err).WithField("remaining", len(files)-summary.Total()).Warn("ingest_cancelled")
			summary.Duration = time.Since(start)
			return summary, err
		}

		r := p.processFile(ctx, q, path, backupDir, unprocessedDir, logger)
		p.metrics.File(ctx, p.queue, r.Outcome.String())
		summary.add(r)
	}

	summary.Duration = time.Since(start)
	p.metrics.Ingested(ctx, p.queue, summary.Duration)

	logger.WithFields(log.Fields{
		"delivered":   summary.Delivered,
		"quarantined": summary.Quarantined,
		"skipped":     summary.Skipped,
		"stranded":    summary.Stranded,
		"duration":    summary.Duration,
	}).Info("ingest_complete")

	return summary, nil
}

func (p *Pipeline) processFile(ctx context.Context, q mq.Queue, path string, backupDir string, unprocessedDir string, logger *log.Entry) Record {
	name := TimestampedName(path, p.now())
	entry := logger.WithFields(log.Fields{"file": filepath.Base(path), "renamed": name})

	// Unreadable and locked files are reported and left in place rather than
	// quarantined. The lock is held until the put has finished.
	f, err := openLocked(path)
	if err != nil {
		entry.WithError(err).Warn("ingest_file_unreadable")
		return Record{Source: path, Outcome: OutcomeSkipped, Err: err}
	}

	sendErr := p.send(ctx, q, f)
	_ = f.Close()
	if sendErr == nil {
		dst := filepath.Join(backupDir, name)
		if err := relocate(path, dst); err != nil {
			// The message was delivered; a delivered file is never quarantined.
			entry.WithError(err).Error("ingest_backup_move_failed")
			return Record{Source: path, Outcome: OutcomeStranded, Err: err}
		}

		entry.Info("ingest_file_delivered")
		return Record{Source: path, Destination: dst, Outcome: OutcomeDelivered}
	}

	dst := filepath.Join(unprocessedDir, name)
	if err := relocate(path, dst); err != nil {
		entry.WithError(err).WithField("cause", sendErr).Error("ingest_quarantine_move_failed")
		return Record{Source: path, Outcome: OutcomeStranded, Err: sendErr}
	}

	entry.WithError(sendErr).Warn("ingest_file_quarantined")
	return Record{Source: path, Destination: dst, Outcome: OutcomeQuarantined, Err: sendErr}
}

func (p *Pipeline) send(ctx context.Context, q mq.Queue, r io.Reader) error {
	msg, err := buildMessage(r)
	if err != nil {
		return err
	}

	if err := q.Put(ctx, msg); err != nil {
		p.metrics.Error(ctx, p.queue, "put")
		return &mq.PutError{Queue: p.queue, Err: err}
	}

	p.metrics.Put(ctx, p.queue, len(msg.Data))
	return nil
}
