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
	"errors"
)

const (
	DefaultConfigPath = "mqsettings.json"
	DefaultLogLevel   = "info"
	DefaultLogFormat  = "text"
	DefaultBroker     = BrokerIBMMQ

	BrokerIBMMQ  = "ibmmq"
	BrokerAMQP   = "amqp"
	BrokerMemory = "memory"
)

var (
	errUnknownBroker = errors.New("unknown broker")
)

// Settings is the on-disk settings file. Field names are those of the
// existing mqsettings.json files.
type Settings struct {
	QueueManager           string `json:"QueueManager"`
	QueueName              string `json:"QueueName"`
	Host                   string `json:"Host"`
	Port                   int    `json:"Port"`
	Channel                string `json:"Channel"`
	UserID                 string `json:"UserId"`
	Password               string `json:"Password"`
	UseSSL                 bool   `json:"UseSSL"`
	SSLKeyRepository       string `json:"SSLKeyRepository"`
	SSLCipherSpec          string `json:"SSLCipherSpec"`
	SSLPeerName            string `json:"SSLPeerName"`
	SSLCertRevocationCheck bool   `json:"SSLCertRevocationCheck"`
	MQTransportProperty    string `json:"MQTransportProperty"`
}

type CliConfig struct {
	ConfigPath   string
	Settings     Settings
	PasswordFile string
	Broker       string
	LogLevel     string
	LogFormat    string
	OTLPEndpoint string
	Environment  string
}
