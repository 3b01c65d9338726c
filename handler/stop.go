// Copyright 2024 The spot Authors. All rights reserved.
// Use of this source code is governed by a MIT
// license that can be found in the LICENSE file.

package handler

import (
	"fmt"
	"net/http"
	"syscall"
)

// Stop allows the server to be remotely, and gracefully stopped. It signals
// the process itself (SIGTERM), going through the exact same drain-then-flush
// sequence an operator-sent signal triggers.
func Stop() Handler {
	return Handler{
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")

			w.WriteHeader(http.StatusOK)

			fmt.Fprintln(w, http.StatusText(http.StatusOK))

			if err := syscall.Kill(syscall.Getpid(), syscall.SIGTERM); err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
			}
		}),
		Method: http.MethodGet,
		Path:   "/stop",
	}
}
