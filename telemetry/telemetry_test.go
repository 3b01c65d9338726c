// Copyright 2024 The spot Authors. All rights reserved.
// Use of this source code is governed by a MIT
// license that can be found in the LICENSE file.

package telemetry

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel"
)

func TestNewDefault(t *testing.T) {
	tel, err := NewDefault("test-telemetry")
	if err != nil {
		t.Fatal(err)
	}

	if tel.GetGlobalTracer() == nil {
		t.Fatal("Expect a global tracer")
	}

	// Unknown names fall back to the global tracer.
	if tel.GetTracer("unknown") != tel.GetGlobalTracer() {
		t.Fatal("Expect fallback to the global tracer")
	}

	tracer := tel.NewTracer("subsystem")

	if tel.GetTracer("subsystem") != tracer {
		t.Fatal("Expect the registered tracer to be retrievable")
	}

	if err := tel.Shutdown(context.Background()); err != nil {
		t.Fatal(err)
	}
}

func TestShutdownTwice(t *testing.T) {
	tel, err := NewDefault("test-telemetry")
	if err != nil {
		t.Fatal(err)
	}

	if err := tel.Shutdown(context.Background()); err != nil {
		t.Fatal(err)
	}

	// The handle is single-owner, a second flush means ownership leaked.
	if err := tel.Shutdown(context.Background()); !errors.Is(err, ErrAlreadyShutdown) {
		t.Fatalf("Expect %v got %v", ErrAlreadyShutdown, err)
	}
}

func TestErrorHandlerNeverPanics(t *testing.T) {
	tel, err := NewDefault("test-telemetry")
	if err != nil {
		t.Fatal(err)
	}

	defer tel.Shutdown(context.Background()) //nolint:errcheck

	// Exporter transmission failures are observable, never fatal.
	otel.Handle(errors.New("exporter transmission failed"))
	otel.Handle(nil)
}
