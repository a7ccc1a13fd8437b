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

// Package amqp maps the connector's queue model onto an AMQP 0-9-1 broker
// such as RabbitMQ. The channel setting selects the virtual host, puts go
// through the default exchange and gets use basic.get so that an empty
// queue surfaces as "no message available".
package amqp

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	amqp "github.com/rabbitmq/amqp091-go"
	log "github.com/sirupsen/logrus"
	"github.com/vs49688/mqconnect/mq"
)

const (
	headerCCSID       = "x-mq-ccsid"
	contentTypeString = "text/plain"
)

type Factory struct {
	// Locale is sent in the connection handshake. Defaults to en_US.
	Locale string
}

// BuildURL renders the broker URL for params. The password is included, so
// the result must never be logged; use RedactedURL for that.
func BuildURL(params *mq.TransportParams, useTLS bool) *url.URL {
	u := &url.URL{
		Scheme: "amqp",
		Host:   params.HostPort(),
	}

	// An empty path selects the broker's default virtual host, "/".
	if params.Channel != "" {
		u.Path = "/" + params.Channel
	}

	if useTLS {
		u.Scheme = "amqps"
	}

	if params.UseCSPAuth && params.UserID != "" {
		u.User = url.UserPassword(params.UserID, params.Password)
	}

	return u
}

func RedactedURL(u *url.URL) string {
	return u.Redacted()
}

// BuildTLSConfig converts the TLS bundle into a client configuration. The
// key repository is read as a PEM bundle of trusted certificates, the peer
// name becomes the expected server name and the cipher spec is matched
// against Go's cipher suite names.
func BuildTLSConfig(opts *mq.TLSOptions) (*tls.Config, error) {
	cfg := &tls.Config{
		MinVersion: tls.VersionTLS12,
		ServerName: opts.PeerName,
	}

	pem, err := os.ReadFile(opts.KeyRepository)
	if err != nil {
		return nil, fmt.Errorf("read key repository: %w", err)
	}

	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, fmt.Errorf("key repository %v contains no PEM certificates", opts.KeyRepository)
	}
	cfg.RootCAs = pool

	suite, err := lookupCipherSuite(opts.CipherSpec)
	if err != nil {
		return nil, err
	}
	if suite != 0 {
		cfg.CipherSuites = []uint16{suite}
	}

	if opts.CertRevocationCheck {
		log.WithField("key_repository", opts.KeyRepository).Warn("amqp_revocation_check_unsupported")
	}

	return cfg, nil
}

// lookupCipherSuite returns 0 for the ANY_TLS* wildcards, which leave the
// choice to the TLS stack.
func lookupCipherSuite(spec string) (uint16, error) {
	spec = strings.ToUpper(strings.TrimSpace(spec))
	if strings.HasPrefix(spec, "ANY_TLS") {
		return 0, nil
	}

	for _, cs := range tls.CipherSuites() {
		if cs.Name == spec {
			return cs.ID, nil
		}
	}

	for _, cs := range tls.InsecureCipherSuites() {
		if cs.Name == spec {
			return cs.ID, nil
		}
	}

	return 0, fmt.Errorf("unsupported cipher spec %q", spec)
}

func (f *Factory) Connect(_ context.Context, queueManager string, params *mq.TransportParams, opts *mq.TLSOptions) (mq.Connection, error) {
	u := BuildURL(params, opts != nil)

	cfg := amqp.Config{
		Locale:     f.Locale,
		Properties: amqp.NewConnectionProperties(),
	}
	if cfg.Locale == "" {
		cfg.Locale = "en_US"
	}
	cfg.Properties.SetClientConnectionName(queueManager)

	if opts != nil {
		tlsConfig, err := BuildTLSConfig(opts)
		if err != nil {
			return nil, err
		}
		cfg.TLSClientConfig = tlsConfig
	}

	log.WithFields(log.Fields{
		"queue_manager": queueManager,
		"url":           RedactedURL(u),
		"transport":     params.Mode,
	}).Trace("amqp_dial")

	conn, err := amqp.DialConfig(u.String(), cfg)
	if err != nil {
		return nil, convertError("MQCONNX", err)
	}

	return &connection{conn: conn}, nil
}

type connection struct {
	conn *amqp.Connection
}

func (c *connection) Open(_ context.Context, name string, mode mq.AccessMode) (mq.Queue, error) {
	ch, err := c.conn.Channel()
	if err != nil {
		return nil, convertError("MQOPEN", err)
	}

	// A passive declare fails with 404 when the queue does not exist and
	// does not create it.
	if _, err := ch.QueueDeclarePassive(name, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		return nil, convertError("MQOPEN", err)
	}

	if mode == mq.OutputOnly {
		if err := ch.Confirm(false); err != nil {
			_ = ch.Close()
			return nil, convertError("MQOPEN", err)
		}
	}

	return &queue{ch: ch, name: name, mode: mode}, nil
}

func (c *connection) Close() error {
	if err := c.conn.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
		return convertError("MQDISC", err)
	}
	return nil
}

type queue struct {
	ch   *amqp.Channel
	name string
	mode mq.AccessMode
}

func (q *queue) Name() string {
	return q.name
}

func (q *queue) Put(ctx context.Context, msg *mq.Message) error {
	if q.mode != mq.OutputOnly {
		return mq.NewError("MQPUT", mq.CompletionFailed, mq.ReasonPutInhibited)
	}

	pub := amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		Body:         msg.Data,
		Headers:      amqp.Table{},
	}

	if msg.Format == mq.FormatString {
		pub.ContentType = contentTypeString
	}

	if msg.CCSID != mq.CCSIDDefault {
		pub.Headers[headerCCSID] = msg.CCSID
	}

	dc, err := q.ch.PublishWithDeferredConfirmWithContext(ctx, "", q.name, false, false, pub)
	if err != nil {
		return convertError("MQPUT", err)
	}

	acked, err := dc.WaitContext(ctx)
	if err != nil {
		return convertError("MQPUT", err)
	}

	// RabbitMQ nacks publishes to a queue that has hit its length limit
	// with overflow=reject-publish.
	if !acked {
		return mq.NewError("MQPUT", mq.CompletionFailed, mq.ReasonQueueFull)
	}

	return nil
}

func (q *queue) Get(_ context.Context) (*mq.Message, error) {
	if q.mode != mq.InputDefault {
		return nil, mq.NewError("MQGET", mq.CompletionFailed, mq.ReasonGetInhibited)
	}

	d, ok, err := q.ch.Get(q.name, true)
	if err != nil {
		return nil, convertError("MQGET", err)
	}

	if !ok {
		return nil, mq.NewError("MQGET", mq.CompletionFailed, mq.ReasonNoMsgAvailable)
	}

	msg := &mq.Message{Data: d.Body, Format: mq.FormatNone, CCSID: mq.CCSIDDefault}
	if d.ContentType == contentTypeString {
		msg.Format = mq.FormatString
	}

	if v, ok := d.Headers[headerCCSID].(int32); ok {
		msg.CCSID = v
	}

	return msg, nil
}

func (q *queue) Close() error {
	if err := q.ch.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
		return convertError("MQCLOSE", err)
	}
	return nil
}

// convertError maps AMQP channel and connection exceptions onto reason
// codes. Anything else, such as a dial failure, is returned unchanged.
func convertError(verb string, err error) error {
	if errors.Is(err, amqp.ErrClosed) {
		return mq.NewError(verb, mq.CompletionFailed, mq.ReasonConnectionBroken)
	}

	var amqpErr *amqp.Error
	if !errors.As(err, &amqpErr) {
		return err
	}

	switch amqpErr.Code {
	case amqp.NotFound:
		return mq.NewError(verb, mq.CompletionFailed, mq.ReasonUnknownObjectName)
	case amqp.AccessRefused:
		return mq.NewError(verb, mq.CompletionFailed, mq.ReasonNotAuthorized)
	case amqp.ConnectionForced:
		return mq.NewError(verb, mq.CompletionFailed, mq.ReasonConnectionQuiescing)
	case amqp.InvalidPath:
		return mq.NewError(verb, mq.CompletionFailed, mq.ReasonQMgrNameError)
	default:
		return err
	}
}
