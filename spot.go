// Copyright 2024 The spot Authors. All rights reserved.
// Use of this source code is governed by a MIT
// license that can be found in the LICENSE file.

package spot

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/saucelabs/customerror"
	"github.com/saucelabs/sypl"
	"github.com/saucelabs/sypl/level"
	handler "github.com/saucelabs/spot/handler"
	"github.com/saucelabs/spot/internal/expvar"
	"github.com/saucelabs/spot/internal/logger"
	"github.com/saucelabs/spot/internal/middleware"
	"github.com/saucelabs/spot/internal/validation"
	"github.com/saucelabs/spot/metric"
	"github.com/saucelabs/spot/telemetry"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
)

//////
// Const, and vars.
//////

const (
	defaultTimeout        = 3 * time.Second
	defaultRequestTimeout = 1 * time.Second
	defaultFlushTimeout   = 10 * time.Second
	serviceName           = "spot"
)

// ErrRequestTimeout indicates a request failed to finish, it timed out.
var ErrRequestTimeout = customerror.NewFailedToError(
	"finish request, timed out",
	customerror.WithStatusCode(http.StatusRequestTimeout),
)

//////
// Lifecycle state.
//////

// State of the server lifecycle.
type State int32

// Available states. The only valid walk is
// Starting -> Serving -> Draining -> Stopped.
const (
	// Starting means the listener isn't bound yet.
	Starting State = iota

	// Serving means the listener is bound, and requests are being accepted.
	Serving

	// Draining means no new connections are accepted, in-flight requests are
	// being completed.
	Draining

	// Stopped means draining finished, and telemetry was flushed.
	Stopped
)

func (s State) String() string {
	switch s {
	case Starting:
		return "Starting"
	case Serving:
		return "Serving"
	case Draining:
		return "Draining"
	case Stopped:
		return "Stopped"
	default:
		return "Unknown"
	}
}

//////
// Interfaces.
//////

// IServer defines what a server does.
type IServer interface {
	// GetLogger returns the server logger.
	GetLogger() sypl.ISypl

	// GetRouter returns the server router.
	GetRouter() *mux.Router

	// GetState returns the current lifecycle state.
	GetState() State

	// GetTelemetry returns the telemetry handle.
	GetTelemetry() telemetry.ITelemetry

	// Start the server.
	Start() error
}

//////
// Definitions.
//////

// Logging definition.
type Logging struct {
	// ConsoleLevel defines the level for the `Console` output. Default: the
	// `SPOT_LOG_LEVEL` env var, or `debug`.
	ConsoleLevel string `json:"console_level" validate:"required,gte=3,oneof=none fatal error info warn debug trace"`

	// RequestLevel defines the level for logging requests.
	RequestLevel string `json:"request_level" validate:"required,gte=3,oneof=none fatal error info warn debug trace"`

	// Filepath is the file path to optionally write logs.
	Filepath string `json:"filepath" validate:"omitempty,gte=3"`
}

// Timeout definition.
type Timeout struct {
	// DrainTimeout max duration to WAIT FOR IN-FLIGHT REQUESTS once a
	// shutdown signal fires. `0` waits indefinitely, which is the default:
	// requests initiated before the signal are never dropped.
	DrainTimeout time.Duration `json:"drain_timeout"`

	// FlushTimeout max duration to WAIT FOR THE TELEMETRY FLUSH,
	// default: 10s.
	FlushTimeout time.Duration `json:"flush_timeout"`

	// ReadTimeout max duration for READING the entire request, including the
	// body, default: 3s.
	ReadTimeout time.Duration `json:"read_timeout"`

	// RequestTimeout max duration to WAIT BEFORE CANCELING A REQUEST,
	// default: 1s.
	//
	// NOTE: It's automatically validated against other timeouts, and needs to
	// be smaller.
	RequestTimeout time.Duration `json:"request_timeout" validate:"ltfield=ReadTimeout"`

	// WriteTimeout max duration for WRITING the response, default: 3s.
	WriteTimeout time.Duration `json:"write_timeout"`
}

// Server definition.
type Server struct {
	// Address is a TCP address to listen on, default: ":3000".
	Address string `json:"address" validate:"tcp_addr"`

	// Name of the server.
	Name string `json:"name" validate:"required,gte=3"`

	// EnableMetrics controls whether metrics are enabled, default: true.
	EnableMetrics bool `json:"enable_metrics"`

	// EnableTelemetry controls whether telemetry is enabled, default: true.
	EnableTelemetry bool `json:"enable_telemetry"`

	// Logging fine-control.
	*Logging `json:"logging" validate:"required"`

	// Timeouts fine-control.
	*Timeout `json:"timeout" validate:"required"`

	// Logger powered by Sypl.
	logger *sypl.Sypl `json:"-"`

	// Handlers added, and configured before the server starts.
	preLoadedHandlers []handler.Handler `json:"-"`

	// Router powered by Gorilla Mux.
	router *mux.Router `json:"-"`

	// HTTP server powered by Golang's built-in http server.
	server http.Server `json:"-"`

	// Lifecycle state, one of `State`. Atomic: read by metrics while the
	// coordinator writes it.
	state int32 `json:"-"`

	// Telemetry handle, single-owner: created once at startup, flushed, and
	// released exactly once by the shutdown sequence below. No other
	// component touches it.
	telemetry telemetry.ITelemetry `json:"-"`
}

//////
// IServer implementation.
//////

// GetLogger returns the server logger.
func (s *Server) GetLogger() sypl.ISypl {
	return s.logger
}

// GetRouter returns the server router.
func (s *Server) GetRouter() *mux.Router {
	return s.router
}

// GetState returns the current lifecycle state.
func (s *Server) GetState() State {
	return State(atomic.LoadInt32(&s.state))
}

// GetTelemetry returns the telemetry handle.
func (s *Server) GetTelemetry() telemetry.ITelemetry {
	return s.telemetry
}

func (s *Server) setState(state State) {
	atomic.StoreInt32(&s.state, int32(state))
}

// Start binds the listener, serves until a termination signal fires, then
// coordinates the shutdown: drain in-flight requests first, flush telemetry
// second, strictly in that order. Returns `http.ErrServerClosed` on a
// graceful stop, or the first fatal error.
func (s *Server) Start() error {
	s.setState(Starting)

	// Instantiate the underlying HTTP server.
	s.server = http.Server{
		Addr: s.Address,
		Handler: http.TimeoutHandler(
			s.GetRouter(),
			s.Timeout.RequestTimeout,
			ErrRequestTimeout.Error(),
		),

		// Best practice setting timeouts. It avoids "slowloris" attacks.
		ReadTimeout:  s.Timeout.ReadTimeout,
		WriteTimeout: s.Timeout.WriteTimeout,
	}

	// Bind before serving so address-in-use, and permission failures surface
	// as startup errors, not as late serve errors.
	listener, err := net.Listen("tcp", s.Address)
	if err != nil {
		return customerror.NewFailedToError(
			"bind listener address",
			customerror.WithError(err),
		)
	}

	s.setState(Serving)

	serverErr := make(chan error, 1)

	// Non-blocking server start up.
	go func() {
		s.GetLogger().Debuglnf("server is about to start @ %s", s.Address)

		serverErr <- s.server.Serve(listener)
	}()

	// Listen for "catchable" OS signals, forget SIGKILL... Interrupt, and
	// termination request trigger the identical sequence; whichever fires
	// first wins, later signals are ignored while shutdown runs.
	osSignals := make(chan os.Signal, 1)
	signal.Notify(osSignals, os.Interrupt, syscall.SIGTERM)

	// Block execution, and listen for any server errors (e.g.: "connection
	// closed"), or OS signals.
	select {
	// These errors don't require graceful shutdown.
	case err := <-serverErr:
		return err
	case sig := <-osSignals:
		s.GetLogger().Warnlnf("%s signal received, starting graceful shutdown", sig)

		s.setState(Draining)

		s.server.SetKeepAlivesEnabled(false)

		ctx := context.Background()

		if s.Timeout.DrainTimeout > 0 {
			var cancel context.CancelFunc

			ctx, cancel = context.WithTimeout(ctx, s.Timeout.DrainTimeout)
			defer cancel()
		}

		var shutdownErr error

		// Stop accepting new connections, wait the completion of all
		// in-flight requests.
		if err := s.server.Shutdown(ctx); err != nil {
			if isTimeoutError(err) {
				shutdownErr = customerror.NewFailedToError(
					"gracefully shutdown, timeout reached. Stopping hard...",
					customerror.WithError(err),
				)
			} else {
				shutdownErr = err
			}

			if err := s.server.Close(); err != nil {
				shutdownErr = customerror.NewFailedToError(
					"hardly shutdown the server",
					customerror.WithError(err),
				)
			}
		}

		// Telemetry is flushed only after the server stopped accepting
		// connections: spans from the drained requests make the last batch.
		if s.telemetry != nil {
			s.GetLogger().Debuglnf("flushing telemetry, waiting up to %s", s.Timeout.FlushTimeout)

			flushCtx, cancel := context.WithTimeout(context.Background(), s.Timeout.FlushTimeout)
			defer cancel()

			// Flush failures are observable, never fatal: the process still
			// exits gracefully.
			if err := s.telemetry.Shutdown(flushCtx); err != nil {
				s.GetLogger().Errorlnf("failed to flush telemetry: %v", err)
			}
		}

		s.setState(Stopped)

		if shutdownErr != nil {
			return shutdownErr
		}

		// If reaches here, error can be safely collected.
		return <-serverErr
	}
}

//////
// Helpers.
//////

// addHandler registers handlers in the router.
func addHandler(router *mux.Router, handlers ...handler.Handler) {
	for _, h := range handlers {
		router.HandleFunc(h.Path, h.Handler).Methods(h.Method)
	}
}

// isTimeoutError checks if the error is a deadline, or network timeout.
func isTimeoutError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error

	return errors.As(err, &netErr) && netErr.Timeout()
}

// publishServerMetrics publishes the server's information.
func publishServerMetrics(s *Server) {
	expvar.Publish("server", metric.Server(s.Address, s.Name, os.Getpid(), func() string {
		return s.GetState().String()
	}))
}

//////
// Factory.
//////

// New is the server factory. It returns a server with observability:
// - Metrics: `cmdline`, `memstats`, and `server`.
// - Telemetry: `stdout` exporter - use `WithTelemetry` to target a collector.
// - Logging: structured (JSON), leveled by `SPOT_LOG_LEVEL`.
// - Pre-loaded handlers (health at `/`, and `/health`, and Stop).
func New(
	name, address string,
	opts ...Option,
) (IServer, error) {
	s := &Server{
		Address:         address,
		EnableMetrics:   true,
		EnableTelemetry: true,
		Logging: &Logging{
			ConsoleLevel: logger.DefaultLevel(),
			RequestLevel: logger.DefaultLevel(),
			Filepath:     "",
		},
		Name: name,
		Timeout: &Timeout{
			DrainTimeout:   0,
			FlushTimeout:   defaultFlushTimeout,
			ReadTimeout:    defaultTimeout,
			RequestTimeout: defaultRequestTimeout,
			WriteTimeout:   defaultTimeout,
		},

		preLoadedHandlers: []handler.Handler{
			handler.Health("/"),
			handler.Health("/health"),
			handler.Stop(),
		},
		router: mux.NewRouter(),
		state:  int32(Starting),
	}

	//////
	// Options processing.
	//////

	for _, opt := range opts {
		opt(s)
	}

	//////
	// Logging.
	//////

	s.logger = logger.Setup(
		serviceName,
		s.Logging.ConsoleLevel,
		s.Logging.Filepath,
	).New(name)

	//////
	// Telemetry, and middleware.
	//////

	if s.EnableTelemetry {
		if s.GetTelemetry() == nil {
			defaultTelemetry, err := telemetry.NewDefault(name)
			if err != nil {
				return nil, err
			}

			s.telemetry = defaultTelemetry
		}

		// Outermost-first, and load-bearing: trace context has to exist
		// before the access log line is emitted, so lines correlate to spans.
		s.GetRouter().Use(otelmux.Middleware(name))
	}

	s.GetRouter().Use(middleware.Logger(s.logger, level.MustFromString(s.Logging.RequestLevel)))

	//////
	// Validation.
	//////

	if err := validation.ValidateStruct(s); err != nil {
		return nil, err
	}

	//////
	// Load handlers.
	//////

	addHandler(s.GetRouter(), s.preLoadedHandlers...)

	//////
	// Server metrics.
	//////

	if s.EnableMetrics {
		// Publish Golang's metrics: cmdline, and memstats.
		expvar.PublishCmdLine()
		expvar.PublishMemStats()

		// Publish specific server's information.
		publishServerMetrics(s)

		// Gorilla Mux exp var route registration.
		addHandler(s.GetRouter(), handler.ExpVar())
	}

	return s, nil
}

// NewBasic returns a basic server without observability:
// - Metrics
// - Telemetry
// - Pre-loaded handlers (health at `/`, and `/health`).
func NewBasic(name, address string, opts ...Option) (IServer, error) {
	// Merge default options with new ones (`opts`).
	finalOpts := append([]Option{
		WithoutMetrics(),
		WithoutTelemetry(),
		WithoutLogging(),
		WithoutPreLoadedHandlers(),
		WithPreLoadedHandlers(
			handler.Health("/"),
			handler.Health("/health"),
		),
	}, opts...)

	return New(name, address, finalOpts...)
}
