// Copyright 2024 The spot Authors. All rights reserved.
// Use of this source code is governed by a MIT
// license that can be found in the LICENSE file.

package middleware

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/saucelabs/sypl"
	"github.com/saucelabs/sypl/level"
	"go.opentelemetry.io/otel/trace"
)

// responseWriter captures the status code, and the amount of bytes written.
type responseWriter struct {
	http.ResponseWriter

	bytesWritten int
	statusCode   int
	wroteHeader  bool
}

func (rw *responseWriter) WriteHeader(statusCode int) {
	if !rw.wroteHeader {
		rw.statusCode = statusCode
		rw.wroteHeader = true
	}

	rw.ResponseWriter.WriteHeader(statusCode)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.wroteHeader {
		rw.WriteHeader(http.StatusOK)
	}

	n, err := rw.ResponseWriter.Write(b)

	rw.bytesWritten += n

	return n, err
}

// Logger returns a middleware which logs requests, and responses. It must run
// INSIDE the tracing middleware: the span has to exist when the access line is
// emitted, so `trace_id`/`span_id` correlate log, and span.
func Logger(l sypl.ISypl, lvl level.Level) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(rw, r)

			sc := trace.SpanFromContext(r.Context()).SpanContext()

			if sc.IsValid() {
				l.Printlnf(
					lvl,
					`method=%s path=%s status=%d bytes=%d duration=%s remote=%s trace_id=%s span_id=%s`,
					r.Method, r.URL.Path, rw.statusCode, rw.bytesWritten,
					time.Since(start), r.RemoteAddr,
					sc.TraceID(), sc.SpanID(),
				)

				return
			}

			l.Printlnf(
				lvl,
				`method=%s path=%s status=%d bytes=%d duration=%s remote=%s`,
				r.Method, r.URL.Path, rw.statusCode, rw.bytesWritten,
				time.Since(start), r.RemoteAddr,
			)
		})
	}
}
