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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseTransportMode(t *testing.T) {
	tests := map[string]TransportMode{
		"TRANSPORT_MQSERIES_CLIENT":   ClientTransport,
		"client":                      ClientTransport,
		" Client ":                    ClientTransport,
		"TRANSPORT_MQSERIES_MANAGED":  ManagedTransport,
		"managed":                     ManagedTransport,
		"":                            TransportUnset,
		"TRANSPORT_MQSERIES_XACLIENT": TransportUnset,
		"bindings":                    TransportUnset,
	}

	for in, want := range tests {
		assert.Equal(t, want, ParseTransportMode(in), in)
	}
}

func TestResolveTransport(t *testing.T) {
	cfg := &ConnectionConfig{
		QueueManager: "QM1",
		Host:         "mq.example.com",
		Port:         1414,
		Channel:      "DEV.APP.SVRCONN",
		UserID:       "app",
		Password:     "secret",
	}

	t.Run("unset", func(t *testing.T) {
		assert.Nil(t, ResolveTransport(cfg))
	})

	for _, mode := range []TransportMode{ClientTransport, ManagedTransport} {
		t.Run(mode.String(), func(t *testing.T) {
			c := *cfg
			c.Transport = mode

			p := ResolveTransport(&c)
			if assert.NotNil(t, p) {
				assert.Equal(t, mode, p.Mode)
				assert.Equal(t, "mq.example.com", p.Host)
				assert.Equal(t, 1414, p.Port)
				assert.Equal(t, "DEV.APP.SVRCONN", p.Channel)
				assert.Equal(t, "app", p.UserID)
				assert.Equal(t, "secret", p.Password)
				assert.True(t, p.UseCSPAuth)
				assert.Equal(t, "mq.example.com(1414)", p.ConnectionName())
				assert.Equal(t, "mq.example.com:1414", p.HostPort())
			}
		})
	}
}

func TestValidateTLS(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		cfg := &ConnectionConfig{}
		assert.NoError(t, cfg.ValidateTLS())
		assert.Nil(t, cfg.TLS())
	})

	t.Run("missing_key_repository", func(t *testing.T) {
		cfg := &ConnectionConfig{UseTLS: true, CipherSpec: "ANY_TLS12_OR_HIGHER"}
		err := cfg.ValidateTLS()

		var cerr *ConfigError
		if assert.True(t, errors.As(err, &cerr)) {
			assert.Equal(t, "SSLKeyRepository", cerr.Field)
		}
		assert.ErrorIs(t, err, ErrConfigInvalid)
	})

	t.Run("missing_cipher_spec", func(t *testing.T) {
		cfg := &ConnectionConfig{UseTLS: true, KeyRepository: "/var/mqm/key"}
		err := cfg.ValidateTLS()

		var cerr *ConfigError
		if assert.True(t, errors.As(err, &cerr)) {
			assert.Equal(t, "SSLCipherSpec", cerr.Field)
		}
	})

	t.Run("complete", func(t *testing.T) {
		cfg := &ConnectionConfig{
			UseTLS:              true,
			KeyRepository:       "/var/mqm/key",
			CipherSpec:          "ANY_TLS12_OR_HIGHER",
			PeerName:            "CN=QM1",
			CertRevocationCheck: true,
		}
		assert.NoError(t, cfg.ValidateTLS())
		assert.Equal(t, &TLSOptions{
			KeyRepository:       "/var/mqm/key",
			CipherSpec:          "ANY_TLS12_OR_HIGHER",
			PeerName:            "CN=QM1",
			CertRevocationCheck: true,
		}, cfg.TLS())
	})
}
