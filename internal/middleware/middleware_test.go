// Copyright 2024 The spot Authors. All rights reserved.
// Use of this source code is governed by a MIT
// license that can be found in the LICENSE file.

package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/saucelabs/sypl"
	"github.com/saucelabs/sypl/level"
)

func TestLogger(t *testing.T) {
	router := mux.NewRouter()

	router.Use(Logger(sypl.NewDefault("test-middleware", level.None), level.Info))

	router.HandleFunc("/teapot", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)

		fmt.Fprint(w, "short and stout")
	}).Methods(http.MethodGet)

	req := httptest.NewRequest(http.MethodGet, "/teapot", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	// The middleware observes, it must not alter the response.
	if rec.Code != http.StatusTeapot {
		t.Fatalf("Expect %d got %d", http.StatusTeapot, rec.Code)
	}

	if rec.Body.String() != "short and stout" {
		t.Fatalf("Expect body preserved got %q", rec.Body.String())
	}
}
