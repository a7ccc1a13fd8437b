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

// Package ibmmq connects to IBM MQ queue managers through the MQ client
// libraries. Without the "ibmmq" build tag the package still compiles but
// every connection attempt fails.
package ibmmq

import (
	"errors"

	log "github.com/sirupsen/logrus"
	"github.com/vs49688/mqconnect/mq"
)

var ErrUnavailable = errors.New("ibmmq support not compiled in, rebuild with -tags ibmmq")

// Factory creates client connections to IBM MQ.
type Factory struct{}

// warnUnsupportedTLS logs the TLS settings the MQ client cannot honour.
// The validation policy on MQSCO governs chain checking only, so revocation
// checking is never turned on by the connector.
func warnUnsupportedTLS(tls *mq.TLSOptions) bool {
	if tls == nil || !tls.CertRevocationCheck {
		return false
	}

	log.WithField("key_repository", tls.KeyRepository).Warn("ibmmq_revocation_check_unsupported")
	return true
}

// deliveredWithWarning reports whether a destructive get that completed with
// a warning (MQRC_NOT_CONVERTED and friends) still removed the message. A
// truncated message that failed stays on the queue.
func deliveredWithWarning(cc mq.CompletionCode, reason mq.Reason) bool {
	return cc == mq.CompletionWarning && reason != mq.ReasonTruncatedMsgFailed
}
