// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

// Package jaeger builds the OpenTelemetry trace provider exporting spans
// over OTLP/HTTP.
package jaeger

import (
	"context"
	"errors"
	"net/url"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	tracesdk "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

var (
	errNoURL                     = errors.New("URL is empty")
	errNoSvcName                 = errors.New("service Name is empty")
	errUnsupportedTraceURLScheme = errors.New("unsupported tracing url scheme")
)

// NewProvider initializes the trace provider and registers it globally.
// fraction is the sampling ratio.
func NewProvider(ctx context.Context, svcName string, jaegerURL url.URL, instanceID string, fraction float64) (*tracesdk.TracerProvider, error) {
	if jaegerURL == (url.URL{}) {
		return nil, errNoURL
	}

	if svcName == "" {
		return nil, errNoSvcName
	}

	opts := []otlptracehttp.Option{
		otlptracehttp.WithEndpoint(jaegerURL.Host),
		otlptracehttp.WithURLPath(jaegerURL.Path),
	}
	switch jaegerURL.Scheme {
	case "http":
		opts = append(opts, otlptracehttp.WithInsecure())
	case "https":
	default:
		return nil, errUnsupportedTraceURLScheme
	}

	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, err
	}

	attributes := []attribute.KeyValue{
		semconv.ServiceNameKey.String(svcName),
		attribute.String("service.instance.id", instanceID),
	}

	hostAttr, err := resource.New(ctx, resource.WithHost(), resource.WithOSDescription(), resource.WithContainer())
	if err != nil {
		return nil, err
	}
	attributes = append(attributes, hostAttr.Attributes()...)

	tp := tracesdk.NewTracerProvider(
		tracesdk.WithSampler(tracesdk.TraceIDRatioBased(fraction)),
		tracesdk.WithBatcher(exporter),
		tracesdk.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			attributes...,
		)),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	return tp, nil
}
