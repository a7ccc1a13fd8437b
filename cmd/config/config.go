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

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"github.com/vs49688/mqconnect/mq"
	"github.com/vs49688/mqconnect/mq/amqp"
	"github.com/vs49688/mqconnect/mq/ibmmq"
	"github.com/vs49688/mqconnect/mq/memory"
)

func DefaultConfig() CliConfig {
	return CliConfig{
		ConfigPath: DefaultConfigPath,
		Broker:     DefaultBroker,
		LogLevel:   DefaultLogLevel,
		LogFormat:  DefaultLogFormat,
		Settings: Settings{
			Port: 1414,
		},
	}
}

func (cfg *CliConfig) Parameters() []cli.Flag {
	def := DefaultConfig()

	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "path to settings file, or '-' to read from stdin",
			EnvVars:     []string{"MQCONNECT_CONFIG"},
			Destination: &cfg.ConfigPath,
			Value:       def.ConfigPath,
		},
		&cli.StringFlag{
			Name:        "queue-manager",
			Usage:       "queue manager name",
			EnvVars:     []string{"MQCONNECT_QUEUE_MANAGER"},
			Destination: &cfg.Settings.QueueManager,
		},
		&cli.StringFlag{
			Name:        "queue",
			Usage:       "queue name",
			EnvVars:     []string{"MQCONNECT_QUEUE"},
			Destination: &cfg.Settings.QueueName,
		},
		&cli.StringFlag{
			Name:        "host",
			Usage:       "broker host",
			EnvVars:     []string{"MQCONNECT_HOST"},
			Destination: &cfg.Settings.Host,
		},
		&cli.IntFlag{
			Name:        "port",
			Usage:       "broker port",
			EnvVars:     []string{"MQCONNECT_PORT"},
			Destination: &cfg.Settings.Port,
			Value:       def.Settings.Port,
		},
		&cli.StringFlag{
			Name:        "channel",
			Usage:       "server connection channel (virtual host for amqp)",
			EnvVars:     []string{"MQCONNECT_CHANNEL"},
			Destination: &cfg.Settings.Channel,
		},
		&cli.StringFlag{
			Name:        "user",
			Usage:       "user id",
			EnvVars:     []string{"MQCONNECT_USER"},
			Destination: &cfg.Settings.UserID,
		},
		&cli.StringFlag{
			Name:        "password",
			Usage:       "password",
			EnvVars:     []string{"MQCONNECT_PASSWORD"},
			Destination: &cfg.Settings.Password,
		},
		&cli.StringFlag{
			Name:        "password-file",
			Usage:       "password file",
			EnvVars:     []string{"MQCONNECT_PASSWORD_FILE"},
			Destination: &cfg.PasswordFile,
		},
		&cli.BoolFlag{
			Name:        "tls",
			Usage:       "enable tls",
			EnvVars:     []string{"MQCONNECT_TLS"},
			Destination: &cfg.Settings.UseSSL,
		},
		&cli.StringFlag{
			Name:        "tls-key-repository",
			Usage:       "tls key repository (PEM bundle for amqp)",
			EnvVars:     []string{"MQCONNECT_TLS_KEY_REPOSITORY"},
			Destination: &cfg.Settings.SSLKeyRepository,
		},
		&cli.StringFlag{
			Name:        "tls-cipher-spec",
			Usage:       "tls cipher spec",
			EnvVars:     []string{"MQCONNECT_TLS_CIPHER_SPEC"},
			Destination: &cfg.Settings.SSLCipherSpec,
		},
		&cli.StringFlag{
			Name:        "tls-peer-name",
			Usage:       "expected tls peer name",
			EnvVars:     []string{"MQCONNECT_TLS_PEER_NAME"},
			Destination: &cfg.Settings.SSLPeerName,
		},
		&cli.BoolFlag{
			Name:        "tls-revocation-check",
			Usage:       "check certificate revocation",
			EnvVars:     []string{"MQCONNECT_TLS_REVOCATION_CHECK"},
			Destination: &cfg.Settings.SSLCertRevocationCheck,
		},
		&cli.StringFlag{
			Name:        "transport",
			Usage:       "transport mode (client, managed)",
			EnvVars:     []string{"MQCONNECT_TRANSPORT"},
			Destination: &cfg.Settings.MQTransportProperty,
		},
		&cli.StringFlag{
			Name:        "broker",
			Usage:       "broker backend (ibmmq, amqp, memory)",
			EnvVars:     []string{"MQCONNECT_BROKER"},
			Destination: &cfg.Broker,
			Value:       def.Broker,
		},
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "logging level",
			EnvVars:     []string{"MQCONNECT_LOG_LEVEL"},
			Destination: &cfg.LogLevel,
			Value:       def.LogLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "logging format (text/json)",
			EnvVars:     []string{"MQCONNECT_LOG_FORMAT"},
			Destination: &cfg.LogFormat,
			Value:       def.LogFormat,
		},
		&cli.StringFlag{
			Name:        "otlp-endpoint",
			Usage:       "export metrics to this OTLP/gRPC endpoint",
			EnvVars:     []string{"MQCONNECT_OTLP_ENDPOINT"},
			Destination: &cfg.OTLPEndpoint,
		},
		&cli.StringFlag{
			Name:        "environment",
			Usage:       "deployment environment reported with metrics",
			EnvVars:     []string{"MQCONNECT_ENVIRONMENT"},
			Destination: &cfg.Environment,
			Value:       "development",
			Hidden:      true,
		},
	}
}

func readSettings(path string) (*Settings, error) {
	var raw []byte
	var err error

	if path == "-" {
		raw, err = io.ReadAll(os.Stdin)
	} else {
		raw, err = os.ReadFile(path)
	}

	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %v", mq.ErrConfigMissing, path)
	} else if err != nil {
		return nil, err
	}

	var s Settings
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, &mq.ConfigError{Field: path, Reason: err.Error()}
	}

	return &s, nil
}

// merge fills every setting whose flag was not given from the settings
// file.
func (cfg *CliConfig) merge(file *Settings, isSet func(string) bool) {
	s := &cfg.Settings

	pick := func(flag string, dst *string, src string) {
		if !isSet(flag) {
			*dst = src
		}
	}

	pick("queue-manager", &s.QueueManager, file.QueueManager)
	pick("queue", &s.QueueName, file.QueueName)
	pick("host", &s.Host, file.Host)
	pick("channel", &s.Channel, file.Channel)
	pick("user", &s.UserID, file.UserID)
	pick("password", &s.Password, file.Password)
	pick("tls-key-repository", &s.SSLKeyRepository, file.SSLKeyRepository)
	pick("tls-cipher-spec", &s.SSLCipherSpec, file.SSLCipherSpec)
	pick("tls-peer-name", &s.SSLPeerName, file.SSLPeerName)
	pick("transport", &s.MQTransportProperty, file.MQTransportProperty)

	if !isSet("port") && file.Port != 0 {
		s.Port = file.Port
	}

	if !isSet("tls") {
		s.UseSSL = file.UseSSL
	}

	if !isSet("tls-revocation-check") {
		s.SSLCertRevocationCheck = file.SSLCertRevocationCheck
	}
}

// Resolve loads the settings file underneath the flags. A missing file is
// only an error when it was asked for explicitly, or when nothing else
// names a queue manager.
func (cfg *CliConfig) Resolve(isSet func(string) bool) error {
	if cfg.ConfigPath != "" {
		file, err := readSettings(cfg.ConfigPath)
		switch {
		case err == nil:
			cfg.merge(file, isSet)
		case errors.Is(err, mq.ErrConfigMissing) && !isSet("config"):
			log.WithField("path", cfg.ConfigPath).Debug("settings_file_not_found")
		default:
			return err
		}
	}

	if cfg.PasswordFile != "" && !isSet("password") {
		pass, err := os.ReadFile(cfg.PasswordFile)
		if err != nil {
			return err
		}

		cfg.Settings.Password = strings.TrimSpace(string(pass))
	}

	if cfg.Settings.QueueManager == "" || cfg.Settings.QueueName == "" {
		return fmt.Errorf("%w: queue manager and queue name are required", mq.ErrConfigMissing)
	}

	switch cfg.Broker {
	case BrokerIBMMQ, BrokerAMQP, BrokerMemory:
	default:
		return fmt.Errorf("%w: %v", errUnknownBroker, cfg.Broker)
	}

	return nil
}

// ConnectionConfig maps the resolved settings onto the connector's
// connection settings.
func (cfg *CliConfig) ConnectionConfig() *mq.ConnectionConfig {
	s := &cfg.Settings
	return &mq.ConnectionConfig{
		QueueManager:        s.QueueManager,
		QueueName:           s.QueueName,
		Host:                s.Host,
		Port:                s.Port,
		Channel:             s.Channel,
		UserID:              s.UserID,
		Password:            s.Password,
		UseTLS:              s.UseSSL,
		KeyRepository:       s.SSLKeyRepository,
		CipherSpec:          s.SSLCipherSpec,
		PeerName:            s.SSLPeerName,
		CertRevocationCheck: s.SSLCertRevocationCheck,
		Transport:           mq.ParseTransportMode(s.MQTransportProperty),
	}
}

func (cfg *CliConfig) Factory() (mq.Factory, error) {
	switch cfg.Broker {
	case BrokerIBMMQ:
		if !ibmmq.Available {
			return nil, ibmmq.ErrUnavailable
		}
		return &ibmmq.Factory{}, nil
	case BrokerAMQP:
		return &amqp.Factory{}, nil
	case BrokerMemory:
		b := memory.New()
		b.DefineQueue(cfg.Settings.QueueName, 0)
		return b, nil
	default:
		return nil, fmt.Errorf("%w: %v", errUnknownBroker, cfg.Broker)
	}
}

// ApplyLogging configures the standard logger.
func (cfg *CliConfig) ApplyLogging() {
	logLevel, err := log.ParseLevel(cfg.LogLevel)
	if err == nil {
		log.SetLevel(logLevel)
	}

	if cfg.LogFormat == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	}
}

// Before is the cli hook shared by every command.
func (cfg *CliConfig) Before(c *cli.Context) error {
	cfg.ApplyLogging()
	return cfg.Resolve(c.IsSet)
}
