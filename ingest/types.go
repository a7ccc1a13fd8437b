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
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/vs49688/mqconnect/metrics"
	"github.com/vs49688/mqconnect/mq"
)

const (
	BackupDir      = "BACKUP"
	UnprocessedDir = "UNPROCESSED"

	// TimestampLayout is yyyyMMdd_HHmmss.
	TimestampLayout = "20060102_150405"
)

var (
	ErrFolderNotFound   = errors.New("folder does not exist")
	ErrNotAFolder       = errors.New("not a folder")
	ErrInvalidExtension = errors.New("invalid extension")
	ErrFileLocked       = errors.New("file is locked by another process")
)

// SetupError aborts an ingestion pass before any file is touched.
type SetupError struct {
	Folder string
	Err    error
}

func (e *SetupError) Error() string {
	return fmt.Sprintf("ingestion setup for %v: %v", e.Folder, e.Err)
}

func (e *SetupError) Unwrap() error {
	return e.Err
}

// QueueOpener is satisfied by *session.Session.
type QueueOpener interface {
	OpenQueue(ctx context.Context, name string, mode mq.AccessMode) (mq.Queue, error)
}

type Outcome int

const (
	OutcomeDelivered Outcome = iota
	OutcomeQuarantined
	OutcomeSkipped
	// OutcomeStranded means the file could not be relocated at all and is
	// still in the input folder.
	OutcomeStranded
)

func (o Outcome) String() string {
	switch o {
	case OutcomeDelivered:
		return "delivered"
	case OutcomeQuarantined:
		return "quarantined"
	case OutcomeSkipped:
		return "skipped_unreadable"
	case OutcomeStranded:
		return "stranded"
	default:
		panic("invalid_outcome")
	}
}

// Record is the fate of one input file.
type Record struct {
	Source      string
	Destination string
	Outcome     Outcome
	Err         error
}

type Summary struct {
	PassID      uuid.UUID
	Folder      string
	Extension   string
	Queue       string
	Delivered   int
	Quarantined int
	Skipped     int
	Stranded    int
	Records     []Record
	Duration    time.Duration
}

func (s *Summary) Total() int {
	return s.Delivered + s.Quarantined + s.Skipped + s.Stranded
}

func (s *Summary) add(r Record) {
	switch r.Outcome {
	case OutcomeDelivered:
		s.Delivered++
	case OutcomeQuarantined:
		s.Quarantined++
	case OutcomeSkipped:
		s.Skipped++
	case OutcomeStranded:
		s.Stranded++
	}
	s.Records = append(s.Records, r)
}

type Config struct {
	Opener QueueOpener
	Queue  string
	// Now timestamps destination names. Defaults to time.Now.
	Now     func() time.Time
	Logger  *log.Entry
	Metrics *metrics.Metrics
}

type Pipeline struct {
	opener  QueueOpener
	queue   string
	now     func() time.Time
	logger  *log.Entry
	metrics *metrics.Metrics
}
