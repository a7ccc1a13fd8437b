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

// Package metrics holds the OpenTelemetry instruments shared by the
// exchange and ingest packages. Instruments are created from the global
// meter provider, which is a no-op until InitOTel installs an exporter.
package metrics

import (
	"context"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

const instrumentationName = "github.com/vs49688/mqconnect"

type Metrics struct {
	MessagesPut    metric.Int64Counter
	MessagesGot    metric.Int64Counter
	BytesPut       metric.Int64Counter
	Files          metric.Int64Counter
	Errors         metric.Int64Counter
	IngestDuration metric.Float64Histogram
}

type OTelConfig struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	OTLPEndpoint   string
	Interval       time.Duration
}

var (
	defaultOnce    sync.Once
	defaultMetrics *Metrics
)

// New creates the instruments on meter.
func New(meter metric.Meter) (*Metrics, error) {
	var m Metrics
	var err error

	if m.MessagesPut, err = meter.Int64Counter(
		"mq_messages_put",
		metric.WithDescription("Messages put to a queue"),
		metric.WithUnit("{messages}"),
	); err != nil {
		return nil, err
	}

	if m.MessagesGot, err = meter.Int64Counter(
		"mq_messages_got",
		metric.WithDescription("Messages retrieved from a queue"),
		metric.WithUnit("{messages}"),
	); err != nil {
		return nil, err
	}

	if m.BytesPut, err = meter.Int64Counter(
		"mq_bytes_put",
		metric.WithDescription("Payload bytes put to a queue"),
		metric.WithUnit("By"),
	); err != nil {
		return nil, err
	}

	if m.Files, err = meter.Int64Counter(
		"mq_ingest_files",
		metric.WithDescription("Files handled by an ingestion pass, by outcome"),
		metric.WithUnit("{files}"),
	); err != nil {
		return nil, err
	}

	if m.Errors, err = meter.Int64Counter(
		"mq_errors",
		metric.WithDescription("Failed broker operations"),
		metric.WithUnit("{errors}"),
	); err != nil {
		return nil, err
	}

	if m.IngestDuration, err = meter.Float64Histogram(
		"mq_ingest_duration",
		metric.WithDescription("Duration of an ingestion pass"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, err
	}

	return &m, nil
}

// Default returns instruments bound to the global meter provider.
func Default() *Metrics {
	defaultOnce.Do(func() {
		m, err := New(otel.Meter(instrumentationName))
		if err != nil {
			// The global provider only fails on invalid instrument names.
			panic(err)
		}
		defaultMetrics = m
	})
	return defaultMetrics
}

func (m *Metrics) Put(ctx context.Context, queue string, bytes int) {
	attrs := metric.WithAttributes(attribute.String("queue", queue))
	m.MessagesPut.Add(ctx, 1, attrs)
	m.BytesPut.Add(ctx, int64(bytes), attrs)
}

func (m *Metrics) Got(ctx context.Context, queue string) {
	m.MessagesGot.Add(ctx, 1, metric.WithAttributes(attribute.String("queue", queue)))
}

func (m *Metrics) Error(ctx context.Context, queue string, op string) {
	m.Errors.Add(ctx, 1, metric.WithAttributes(
		attribute.String("queue", queue),
		attribute.String("op", op),
	))
}

func (m *Metrics) File(ctx context.Context, queue string, outcome string) {
	m.Files.Add(ctx, 1, metric.WithAttributes(
		attribute.String("queue", queue),
		attribute.String("outcome", outcome),
	))
}

func (m *Metrics) Ingested(ctx context.Context, queue string, d time.Duration) {
	m.IngestDuration.Record(ctx, float64(d.Milliseconds()), metric.WithAttributes(attribute.String("queue", queue)))
}

// InitOTel installs a global meter provider exporting over OTLP/gRPC. The
// returned function flushes and stops it.
func InitOTel(ctx context.Context, cfg OTelConfig) (func(context.Context) error, error) {
	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
		semconv.DeploymentEnvironment(cfg.Environment),
	)

	exp, err := otlpmetricgrpc.New(ctx,
		otlpmetricgrpc.WithEndpoint(cfg.OTLPEndpoint),
		otlpmetricgrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("create otlp exporter: %w", err)
	}

	interval := cfg.Interval
	if interval == 0 {
		interval = 10 * time.Second
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp, sdkmetric.WithInterval(interval))),
	)

	otel.SetMeterProvider(mp)

	log.WithFields(log.Fields{
		"endpoint": cfg.OTLPEndpoint,
		"interval": interval,
	}).Info("otel_initialised")

	return mp.Shutdown, nil
}
