// Copyright 2024 The spot Authors. All rights reserved.
// Use of this source code is governed by a MIT
// license that can be found in the LICENSE file.

package handler

import "net/http"

// HealthBody is the exact payload served by the health handler. Orchestration
// probes match on it verbatim, don't change the shape.
const HealthBody = `{"status":"UP"}`

// Health indicates the process is alive. It's side-effect free, always
// succeeds, and is registered under `path`. The same payload is served at `/`
// and `/health` so different infrastructure probes are covered.
func Health(path string) Handler {
	return Handler{
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json; charset=utf-8")

			w.WriteHeader(http.StatusOK)

			w.Write([]byte(HealthBody))
		}),
		Method: http.MethodGet,
		Path:   path,
	}
}
