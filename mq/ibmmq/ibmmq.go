//go:build ibmmq

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
	"errors"

	"github.com/ibm-messaging/mq-golang/v5/ibmmq"
	log "github.com/sirupsen/logrus"
	"github.com/vs49688/mqconnect/mq"
)

const (
	initialBufferSize = 64 * 1024
	maxBufferSize     = 100 * 1024 * 1024
)

// Available reports whether the binary was built against the MQ client
// libraries.
const Available = true

func (f *Factory) Connect(_ context.Context, queueManager string, params *mq.TransportParams, tls *mq.TLSOptions) (mq.Connection, error) {
	cd := ibmmq.NewMQCD()
	cd.ChannelName = params.Channel
	cd.ConnectionName = params.ConnectionName()

	cno := ibmmq.NewMQCNO()
	cno.Options = ibmmq.MQCNO_CLIENT_BINDING
	cno.ClientConn = cd

	// TLS goes on the connect options so it is in place before MQCONNX runs.
	if tls != nil {
		cd.SSLCipherSpec = tls.CipherSpec
		cd.SSLPeerName = tls.PeerName

		sco := ibmmq.NewMQSCO()
		sco.KeyRepository = tls.KeyRepository
		cno.SSLConfig = sco

		warnUnsupportedTLS(tls)
	}

	if params.UseCSPAuth && params.UserID != "" {
		csp := ibmmq.NewMQCSP()
		csp.AuthenticationType = ibmmq.MQCSP_AUTH_USER_ID_AND_PWD
		csp.UserId = params.UserID
		csp.Password = params.Password
		cno.SecurityParms = csp
	}

	log.WithFields(log.Fields{
		"queue_manager": queueManager,
		"conname":       cd.ConnectionName,
		"channel":       cd.ChannelName,
		"transport":     params.Mode,
		"tls":           tls != nil,
	}).Trace("ibmmq_connx")

	qmgr, err := ibmmq.Connx(queueManager, cno)
	if err != nil {
		return nil, convertError("MQCONNX", err)
	}

	return &connection{qmgr: qmgr}, nil
}

type connection struct {
	qmgr ibmmq.MQQueueManager
}

func (c *connection) Open(_ context.Context, name string, mode mq.AccessMode) (mq.Queue, error) {
	var openOptions int32
	switch mode {
	case mq.OutputOnly:
		openOptions = ibmmq.MQOO_OUTPUT | ibmmq.MQOO_FAIL_IF_QUIESCING
	case mq.InputDefault:
		openOptions = ibmmq.MQOO_INPUT_AS_Q_DEF | ibmmq.MQOO_FAIL_IF_QUIESCING
	default:
		return nil, errors.New("unsupported access mode")
	}

	od := ibmmq.NewMQOD()
	od.ObjectType = ibmmq.MQOT_Q
	od.ObjectName = name

	obj, err := c.qmgr.Open(od, openOptions)
	if err != nil {
		return nil, convertError("MQOPEN", err)
	}

	return &queue{obj: obj, name: name, buffer: make([]byte, initialBufferSize)}, nil
}

func (c *connection) Close() error {
	if err := c.qmgr.Disc(); err != nil {
		return convertError("MQDISC", err)
	}
	return nil
}

type queue struct {
	obj    ibmmq.MQObject
	name   string
	buffer []byte
}

func (q *queue) Name() string {
	return q.name
}

func (q *queue) Put(_ context.Context, msg *mq.Message) error {
	md := ibmmq.NewMQMD()
	if msg.Format != mq.FormatNone {
		md.Format = msg.Format
	}
	if msg.CCSID != mq.CCSIDDefault {
		md.CodedCharSetId = msg.CCSID
	}

	pmo := ibmmq.NewMQPMO()
	pmo.Options = ibmmq.MQPMO_NO_SYNCPOINT | ibmmq.MQPMO_FAIL_IF_QUIESCING

	if err := q.obj.Put(md, pmo, msg.Data); err != nil {
		return convertError("MQPUT", err)
	}
	return nil
}

func (q *queue) Get(_ context.Context) (*mq.Message, error) {
	for {
		md := ibmmq.NewMQMD()
		gmo := ibmmq.NewMQGMO()
		gmo.Options = ibmmq.MQGMO_NO_SYNCPOINT | ibmmq.MQGMO_NO_WAIT | ibmmq.MQGMO_FAIL_IF_QUIESCING | ibmmq.MQGMO_CONVERT

		datalen, err := q.obj.Get(md, gmo, q.buffer)
		if err != nil {
			// The message stays on the queue when it doesn't fit; grow and retry.
			var mqret *ibmmq.MQReturn
			if errors.As(err, &mqret) && mqret.MQRC == ibmmq.MQRC_TRUNCATED_MSG_FAILED && datalen > len(q.buffer) && datalen <= maxBufferSize {
				q.buffer = make([]byte, datalen)
				continue
			}

			// The get is destructive, so a warning still hands over the message.
			if mqret == nil || !deliveredWithWarning(mq.CompletionCode(mqret.MQCC), mq.Reason(mqret.MQRC)) {
				return nil, convertError("MQGET", err)
			}

			log.WithFields(log.Fields{
				"queue":  q.name,
				"reason": mq.Reason(mqret.MQRC),
			}).Warn("ibmmq_get_warning")
		}

		data := make([]byte, datalen)
		copy(data, q.buffer[:datalen])
		return &mq.Message{
			Data:   data,
			Format: md.Format,
			CCSID:  md.CodedCharSetId,
		}, nil
	}
}

func (q *queue) Close() error {
	if err := q.obj.Close(0); err != nil {
		return convertError("MQCLOSE", err)
	}
	return nil
}

func convertError(verb string, err error) error {
	var mqret *ibmmq.MQReturn
	if errors.As(err, &mqret) {
		return mq.NewError(verb, mq.CompletionCode(mqret.MQCC), mq.Reason(mqret.MQRC))
	}
	return err
}
