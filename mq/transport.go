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
	"fmt"
	"net"
	"strconv"
	"strings"
)

type TransportMode int

const (
	TransportUnset TransportMode = iota
	ClientTransport
	ManagedTransport
)

func (m TransportMode) String() string {
	switch m {
	case ClientTransport:
		return "TRANSPORT_MQSERIES_CLIENT"
	case ManagedTransport:
		return "TRANSPORT_MQSERIES_MANAGED"
	default:
		return "unset"
	}
}

// ParseTransportMode understands the settings-file literals as well as the
// short forms used on the command line. Anything else is TransportUnset.
func ParseTransportMode(s string) TransportMode {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TRANSPORT_MQSERIES_CLIENT", "CLIENT":
		return ClientTransport
	case "TRANSPORT_MQSERIES_MANAGED", "MANAGED":
		return ManagedTransport
	default:
		return TransportUnset
	}
}

// ConnectionConfig is the full set of connection settings. Password is
// secret and must never be logged.
type ConnectionConfig struct {
	QueueManager        string
	QueueName           string
	Host                string
	Port                int
	Channel             string
	UserID              string
	Password            string
	UseTLS              bool
	KeyRepository       string
	CipherSpec          string
	PeerName            string
	CertRevocationCheck bool
	Transport           TransportMode
}

// TLS returns the TLS bundle for the config, or nil when TLS is disabled.
func (cfg *ConnectionConfig) TLS() *TLSOptions {
	if !cfg.UseTLS {
		return nil
	}

	return &TLSOptions{
		KeyRepository:       cfg.KeyRepository,
		CipherSpec:          cfg.CipherSpec,
		PeerName:            cfg.PeerName,
		CertRevocationCheck: cfg.CertRevocationCheck,
	}
}

// TransportParams are the resolved connection properties handed to a
// Factory.
type TransportParams struct {
	Mode       TransportMode
	Host       string
	Port       int
	Channel    string
	UserID     string
	Password   string
	UseCSPAuth bool
}

// ConnectionName renders the IBM MQ CONNAME form, "host(port)".
func (p *TransportParams) ConnectionName() string {
	return fmt.Sprintf("%v(%v)", p.Host, p.Port)
}

func (p *TransportParams) HostPort() string {
	return net.JoinHostPort(p.Host, strconv.Itoa(p.Port))
}

// ResolveTransport maps cfg onto transport parameters. It returns nil when
// no transport mode is selected; callers must treat that as a
// configuration error rather than pick a default.
func ResolveTransport(cfg *ConnectionConfig) *TransportParams {
	switch cfg.Transport {
	case ClientTransport, ManagedTransport:
		return &TransportParams{
			Mode:       cfg.Transport,
			Host:       cfg.Host,
			Port:       cfg.Port,
			Channel:    cfg.Channel,
			UserID:     cfg.UserID,
			Password:   cfg.Password,
			UseCSPAuth: true,
		}
	default:
		return nil
	}
}

// ValidateTLS checks the settings that must be present before a TLS
// connection is attempted.
func (cfg *ConnectionConfig) ValidateTLS() error {
	if !cfg.UseTLS {
		return nil
	}

	if strings.TrimSpace(cfg.KeyRepository) == "" {
		return &ConfigError{Field: "SSLKeyRepository", Reason: "required when TLS is enabled"}
	}

	if strings.TrimSpace(cfg.CipherSpec) == "" {
		return &ConfigError{Field: "SSLCipherSpec", Reason: "required when TLS is enabled"}
	}

	return nil
}
