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

package mq

import (
	"errors"
	"fmt"
)

var (
	ErrConfigMissing = errors.New("configuration missing")
	ErrConfigInvalid = errors.New("configuration invalid")
	ErrQueueFull     = errors.New("queue full")
)

// ConfigError describes a setting that prevents a connection attempt.
// It always matches ErrConfigInvalid.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %v: %v", e.Field, e.Reason)
}

func (e *ConfigError) Is(target error) bool {
	return target == ErrConfigInvalid
}

// ConnectionError is a failed session attempt. Broker rejections carry a
// completion/reason pair; transport failures (DNS, refused, timeout) carry
// only Cause.
type ConnectionError struct {
	QueueManager   string
	CompletionCode CompletionCode
	Reason         Reason
	Cause          error
}

func (e *ConnectionError) Error() string {
	if e.Reason != ReasonNone {
		return fmt.Sprintf("connect to queue manager %v failed: reason=%v completion=%v", e.QueueManager, e.Reason, e.CompletionCode)
	}
	return fmt.Sprintf("connect to queue manager %v failed: %v", e.QueueManager, e.Cause)
}

func (e *ConnectionError) Unwrap() error {
	return e.Cause
}

// NewConnectionError classifies err as either a broker rejection or a
// transport failure.
func NewConnectionError(qmgr string, err error) *ConnectionError {
	ce := &ConnectionError{QueueManager: qmgr, Cause: err}
	var mqErr *Error
	if errors.As(err, &mqErr) {
		ce.CompletionCode = mqErr.CompletionCode
		ce.Reason = mqErr.Reason
	}
	return ce
}

// QueueAccessError is a failure to open a queue.
type QueueAccessError struct {
	Queue string
	Mode  AccessMode
	Err   error
}

func (e *QueueAccessError) Error() string {
	return fmt.Sprintf("open queue %v for %v: %v", e.Queue, e.Mode, e.Err)
}

func (e *QueueAccessError) Unwrap() error {
	return e.Err
}

// Quiescing reports whether the open was refused because the queue manager
// or connection is quiescing.
func (e *QueueAccessError) Quiescing() bool {
	var mqErr *Error
	return errors.As(e.Err, &mqErr) && mqErr.Reason.Quiescing()
}

// PutError is a failed put. A full queue is reported as retryable but is
// never retried here.
type PutError struct {
	Queue string
	Err   error
}

func (e *PutError) Error() string {
	return fmt.Sprintf("put to queue %v: %v", e.Queue, e.Err)
}

func (e *PutError) Unwrap() error {
	return e.Err
}

func (e *PutError) Is(target error) bool {
	return target == ErrQueueFull && IsReason(e.Err, ReasonQueueFull)
}

func (e *PutError) Retryable() bool {
	return IsReason(e.Err, ReasonQueueFull)
}

// GetError is any get failure other than the "no message available" signal.
type GetError struct {
	Queue string
	Count int
	Err   error
}

func (e *GetError) Error() string {
	return fmt.Sprintf("get from queue %v after %v message(s): %v", e.Queue, e.Count, e.Err)
}

func (e *GetError) Unwrap() error {
	return e.Err
}
