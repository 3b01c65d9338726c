// Copyright 2024 The spot Authors. All rights reserved.
// Use of this source code is governed by a MIT
// license that can be found in the LICENSE file.

package handler

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHealth(t *testing.T) {
	for _, path := range []string{"/", "/health"} {
		h := Health(path)

		if h.Method != http.MethodGet || h.Path != path {
			t.Fatalf("Expect GET %s got %s %s", path, h.Method, h.Path)
		}

		// Regardless of prior request history.
		for i := 0; i < 3; i++ {
			req := httptest.NewRequest(http.MethodGet, path, nil)
			rec := httptest.NewRecorder()

			h.Handler(rec, req)

			resp := rec.Result()

			if resp.StatusCode != http.StatusOK {
				t.Fatalf("Expect %d got %d", http.StatusOK, resp.StatusCode)
			}

			body, err := io.ReadAll(resp.Body)
			if err != nil {
				t.Fatal(err)
			}

			resp.Body.Close()

			if string(body) != HealthBody {
				t.Fatalf("Expect body exactly %q got %q", HealthBody, string(body))
			}

			if ct := resp.Header.Get("Content-Type"); ct != "application/json; charset=utf-8" {
				t.Fatalf("Expect JSON content type got %q", ct)
			}
		}
	}
}

func TestReadiness(t *testing.T) {
	tests := []struct {
		name         string
		readiness    ReadinessFunc
		expectedCode int
	}{
		{
			name:         "Should work - ready",
			readiness:    func() error { return nil },
			expectedCode: http.StatusOK,
		},
		{
			name:         "Should work - not ready",
			readiness:    func() error { return errors.New("warming up") },
			expectedCode: http.StatusServiceUnavailable,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := Readiness(tt.readiness)

			req := httptest.NewRequest(http.MethodGet, "/readiness", nil)
			rec := httptest.NewRecorder()

			h.Handler(rec, req)

			if rec.Code != tt.expectedCode {
				t.Fatalf("Expect %d got %d", tt.expectedCode, rec.Code)
			}
		})
	}
}
