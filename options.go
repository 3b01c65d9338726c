// Copyright 2024 The spot Authors. All rights reserved.
// Use of this source code is governed by a MIT
// license that can be found in the LICENSE file.
//
// It follows Rob Spike, and Dave Cheney design pattern for options.
//
// - Sensible defaults.
// - Highly configurable.
// - Allows anyone to easily implement their own options.
// - Can grow over time.
// - Self-documenting.
// - Safe for newcomers.
// - Never requires `nil` or an `empty` value to keep the compiler happy.
//
// SEE: https://commandcenter.blogspot.com/2014/01/self-referential-functions-and-design.html
// SEE: https://dave.cheney.net/2014/10/17/functional-options-for-friendly-apis

package spot

import (
	"time"

	handler "github.com/saucelabs/spot/handler"
	"github.com/saucelabs/spot/internal/expvar"
	"github.com/saucelabs/spot/telemetry"
)

// Option allows to define options for the Server.
type Option func(s *Server)

// WithTimeout sets the maximum duration for each individual timeouts. A
// `drain` of `0` waits indefinitely for in-flight requests.
func WithTimeout(read, request, drain, flush, write time.Duration) Option {
	return func(s *Server) {
		s.Timeout.DrainTimeout = drain
		s.Timeout.FlushTimeout = flush
		s.Timeout.ReadTimeout = read
		s.Timeout.RequestTimeout = request
		s.Timeout.WriteTimeout = write
	}
}

// WithTelemetry hands the server an already-initialized telemetry handle. The
// server becomes the owner: it flushes, and releases the handle at shutdown.
//
// NOTE: Use `telemetry.New`, `telemetry.NewOTLP` to bring your own telemetry.
// SEE: https://opentelemetry.io/vendors
func WithTelemetry(t telemetry.ITelemetry) Option {
	return func(s *Server) {
		s.telemetry = t
	}
}

// WithoutTelemetry disables telemetry.
func WithoutTelemetry() Option {
	return func(s *Server) {
		s.EnableTelemetry = false
	}
}

// WithLoggingOptions fine-controls logging levels, and the optional log file.
func WithLoggingOptions(consoleLevel, requestLevel, filepath string) Option {
	return func(s *Server) {
		s.Logging.ConsoleLevel = consoleLevel
		s.Logging.RequestLevel = requestLevel
		s.Logging.Filepath = filepath
	}
}

// WithoutLogging disables logging.
func WithoutLogging() Option {
	return func(s *Server) {
		s.Logging.ConsoleLevel = "none"
		s.Logging.RequestLevel = "none"
		s.Logging.Filepath = ""
	}
}

// WithReadiness sets server readiness. Returning any non-nil error means
// server isn't ready.
func WithReadiness(readinessFunc handler.ReadinessFunc) Option {
	return func(s *Server) {
		s.preLoadedHandlers = append(s.preLoadedHandlers, handler.Readiness(readinessFunc))
	}
}

// WithPreLoadedHandlers adds handlers to the pre-loaded handlers.
//
// NOTE: Use `handler.New` to add handlers.
func WithPreLoadedHandlers(handlers ...handler.Handler) Option {
	return func(s *Server) {
		s.preLoadedHandlers = append(s.preLoadedHandlers, handlers...)
	}
}

// WithoutPreLoadedHandlers removes all pre-loaded handlers.
func WithoutPreLoadedHandlers() Option {
	return func(s *Server) {
		s.preLoadedHandlers = nil
	}
}

// WithHandlers registers handlers directly in the router.
//
// NOTE: Use `handler.New` to add handlers.
func WithHandlers(handlers ...handler.Handler) Option {
	return func(s *Server) {
		addHandler(s.GetRouter(), handlers...)
	}
}

// WithoutMetrics disables metrics.
func WithoutMetrics() Option {
	return func(s *Server) {
		s.EnableMetrics = false
	}
}

// WithMetricsRaw allows to publishes metrics based on exp vars. It's useful
// for cases such as counters. It gives full control over what's being
// exposed.
func WithMetricsRaw(name string, metrics expvar.Var) Option {
	return func(s *Server) {
		expvar.Publish(name, metrics)
	}
}

// WithMetrics provides a quick way to publish static metric values.
func WithMetrics(name string, v interface{}) Option {
	return func(s *Server) {
		expvar.Publish(name, expvar.Func(func() interface{} {
			return v
		}))
	}
}
