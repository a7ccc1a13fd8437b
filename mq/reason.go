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

// CompletionCode mirrors the MQCC_* values.
type CompletionCode int32

const (
	CompletionOK      CompletionCode = 0
	CompletionWarning CompletionCode = 1
	CompletionFailed  CompletionCode = 2
)

func (cc CompletionCode) String() string {
	switch cc {
	case CompletionOK:
		return "MQCC_OK"
	case CompletionWarning:
		return "MQCC_WARNING"
	case CompletionFailed:
		return "MQCC_FAILED"
	default:
		return fmt.Sprintf("MQCC(%d)", int32(cc))
	}
}

// Reason mirrors the MQRC_* values. Only the codes the connector acts on
// are named; every other code is carried through untouched.
type Reason int32

const (
	ReasonNone                Reason = 0
	ReasonNotAuthorized       Reason = 2035
	ReasonGetInhibited        Reason = 2016
	ReasonPutInhibited        Reason = 2051
	ReasonNoMsgAvailable      Reason = 2033
	ReasonQueueFull           Reason = 2053
	ReasonConnectionBroken    Reason = 2009
	ReasonHostNotAvailable    Reason = 2538
	ReasonQMgrNameError       Reason = 2058
	ReasonQMgrNotAvailable    Reason = 2059
	ReasonQMgrQuiescing       Reason = 2161
	ReasonQMgrStopping        Reason = 2162
	ReasonConnectionQuiescing Reason = 2202
	ReasonUnknownObjectName   Reason = 2085
	ReasonTruncatedMsgFailed  Reason = 2080
	ReasonNotConverted        Reason = 2119
	ReasonSSLInitError        Reason = 2393
)

var reasonNames = map[Reason]string{
	ReasonNone:                "MQRC_NONE",
	ReasonNotAuthorized:       "MQRC_NOT_AUTHORIZED",
	ReasonGetInhibited:        "MQRC_GET_INHIBITED",
	ReasonPutInhibited:        "MQRC_PUT_INHIBITED",
	ReasonNoMsgAvailable:      "MQRC_NO_MSG_AVAILABLE",
	ReasonQueueFull:           "MQRC_Q_FULL",
	ReasonConnectionBroken:    "MQRC_CONNECTION_BROKEN",
	ReasonHostNotAvailable:    "MQRC_HOST_NOT_AVAILABLE",
	ReasonQMgrNameError:       "MQRC_Q_MGR_NAME_ERROR",
	ReasonQMgrNotAvailable:    "MQRC_Q_MGR_NOT_AVAILABLE",
	ReasonQMgrQuiescing:       "MQRC_Q_MGR_QUIESCING",
	ReasonQMgrStopping:        "MQRC_Q_MGR_STOPPING",
	ReasonConnectionQuiescing: "MQRC_CONNECTION_QUIESCING",
	ReasonUnknownObjectName:   "MQRC_UNKNOWN_OBJECT_NAME",
	ReasonTruncatedMsgFailed:  "MQRC_TRUNCATED_MSG_FAILED",
	ReasonNotConverted:        "MQRC_NOT_CONVERTED",
	ReasonSSLInitError:        "MQRC_SSL_INITIALIZATION_ERROR",
}

func (r Reason) String() string {
	if name, ok := reasonNames[r]; ok {
		return name
	}
	return fmt.Sprintf("MQRC(%d)", int32(r))
}

// Quiescing reports whether the broker is shutting the object or the
// connection down.
func (r Reason) Quiescing() bool {
	switch r {
	case ReasonQMgrQuiescing, ReasonQMgrStopping, ReasonConnectionQuiescing:
		return true
	default:
		return false
	}
}

// Error is a broker-reported failure: a completion/reason code pair plus
// the verb that produced it.
type Error struct {
	Verb           string
	CompletionCode CompletionCode
	Reason         Reason
}

func (e *Error) Error() string {
	return fmt.Sprintf("%v: %v [%v]", e.Verb, e.Reason, e.CompletionCode)
}

func NewError(verb string, cc CompletionCode, rc Reason) *Error {
	return &Error{Verb: verb, CompletionCode: cc, Reason: rc}
}

// IsReason reports whether err carries a broker error with reason rc.
func IsReason(err error, rc Reason) bool {
	var mqErr *Error
	if !errors.As(err, &mqErr) {
		return false
	}
	return mqErr.Reason == rc
}

// IsNoMessage reports whether err is the "no message available" signal.
func IsNoMessage(err error) bool {
	return IsReason(err, ReasonNoMsgAvailable)
}
