// Copyright 2024 The spot Authors. All rights reserved.
// Use of this source code is governed by a MIT
// license that can be found in the LICENSE file.

package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/saucelabs/customerror"
	"github.com/saucelabs/spot/internal/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	stdout "go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

//////
// Const, and vars.
//////

const (
	// DefaultOTLPEndpoint is the standard OTLP gRPC collector address.
	DefaultOTLPEndpoint = "localhost:4317"

	globalTracerName = "global"

	// Upper bound on the synchronous span flush at shutdown.
	flushTimeout = 5 * time.Second
)

// ErrAlreadyShutdown indicates the pipeline was flushed, and released. The
// handle is single-owner; a second call means ownership got duplicated.
var ErrAlreadyShutdown = customerror.NewFailedToError("shutdown telemetry, pipeline already released")

var errorHandlerOnce sync.Once

//////
// Helpers.
//////

// registerErrorHandler installs the process-wide exporter-error callback. It
// MUST run before any exporter pipeline is constructed, otherwise early
// transmission failures are silently dropped. Failures are logged, never
// propagated: a flaky collector must not crash the service.
func registerErrorHandler() {
	errorHandlerOnce.Do(func() {
		otel.SetErrorHandler(otel.ErrorHandlerFunc(func(err error) {
			logger.Get().Errorlnf("opentelemetry error occurred: %v", err)
		}))
	})
}

// Initializes the built-in tracer which exports to `stdout`.
func initializeBuiltInTracer() (*sdktrace.TracerProvider, error) {
	exporter, err := stdout.New(stdout.WithPrettyPrint())
	if err != nil {
		return nil, err
	}

	builtInTracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithBatcher(exporter),
	)

	return builtInTracerProvider, nil
}

//////
// Interface.
//////

// ITelemetry defines what a Telemetry does.
type ITelemetry interface {
	// GetGlobalTracer returns the global tracer.
	GetGlobalTracer() trace.Tracer

	// GetTracer retrieves a tracer. If the retrieved tracer doesn't exist, the
	// global tracer is returned.
	GetTracer(name string) trace.Tracer

	// NewTracer creates a tracer from the current provider.
	NewTracer(name string) trace.Tracer

	// Shutdown flushes buffered spans, and releases the pipeline.
	Shutdown(ctx context.Context) error
}

//////
// Definition.
//////

// Telemetry is the handle over an active trace-exporter pipeline. It's
// created once at startup, owned by the server for the process lifetime, and
// flushed-and-released exactly once at shutdown.
type Telemetry struct {
	mu sync.Mutex

	// provider accesses/consumes instrumentation. `nil` after `Shutdown`.
	provider *sdktrace.TracerProvider

	// Contains a map of tracers. By default, a global tracer is provided.
	// A tracer creates Spans.
	tracers sync.Map
}

//////
// ITelemetry implementation.
//////

// NewTracer creates a tracer from the current provider.
func (t *Telemetry) NewTracer(name string) trace.Tracer {
	tracer := t.provider.Tracer(name)

	t.tracers.Store(name, tracer)

	return tracer
}

// GetTracer retrieves a tracer. If the retrieved tracer doesn't exist, the
// global tracer is returned.
func (t *Telemetry) GetTracer(name string) trace.Tracer {
	if tracer, ok := t.tracers.Load(name); ok {
		return tracer.(trace.Tracer)
	}

	return t.GetGlobalTracer()
}

// GetGlobalTracer returns the global tracer.
func (t *Telemetry) GetGlobalTracer() trace.Tracer {
	return t.GetTracer(globalTracerName)
}

// Shutdown synchronously flushes all buffered spans - waiting at most
// `flushTimeout` - then releases the handle. Calling it on a released handle
// fails with `ErrAlreadyShutdown`.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.provider == nil {
		return ErrAlreadyShutdown
	}

	ctx, cancel := context.WithTimeout(ctx, flushTimeout)
	defer cancel()

	err := t.provider.Shutdown(ctx)

	t.provider = nil

	return err
}

//////
// Factory.
//////

// New is Telemetry factory. The exporter-error handler is registered before
// the provider is wired as the global one.
func New(
	name string,
	provider *sdktrace.TracerProvider,
	textMapPropagators ...propagation.TextMapPropagator,
) (*Telemetry, error) {
	registerErrorHandler()

	telemetry := &Telemetry{
		provider: provider,
	}

	telemetry.tracers.Store(globalTracerName, otel.Tracer(name))

	otel.SetTracerProvider(provider)

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(textMapPropagators...))

	return telemetry, nil
}

// NewDefault returns a telemetry with the built-in tracer from the SDK which
// exports to `stdout`, and samples every trace. For development, and tests.
func NewDefault(name string) (*Telemetry, error) {
	registerErrorHandler()

	builtInTracerProvider, err := initializeBuiltInTracer()
	if err != nil {
		return nil, customerror.NewFailedToError("initialize telemetry", customerror.WithError(err))
	}

	return New(
		name,
		builtInTracerProvider,
		propagation.TraceContext{}, propagation.Baggage{},
	)
}

// NewOTLP returns a telemetry backed by a batched OTLP gRPC exporter
// targeting `endpoint`. Spans are buffered, and sent in grouped
// transmissions, not one-by-one.
func NewOTLP(ctx context.Context, name, version, endpoint string, insecureConn bool) (*Telemetry, error) {
	registerErrorHandler()

	if endpoint == "" {
		endpoint = DefaultOTLPEndpoint
	}

	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(endpoint)}

	if insecureConn {
		opts = append(opts,
			otlptracegrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
			otlptracegrpc.WithInsecure(),
		)
	}

	exporter, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return nil, customerror.NewFailedToError("initialize telemetry exporter", customerror.WithError(err))
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(name),
			semconv.ServiceVersion(version),
		),
		resource.WithHost(),
		resource.WithProcess(),
	)
	if err != nil {
		return nil, customerror.NewFailedToError("initialize telemetry resource", customerror.WithError(err))
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)

	return New(
		name,
		provider,
		propagation.TraceContext{}, propagation.Baggage{},
	)
}
