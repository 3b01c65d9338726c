// Copyright 2024 The spot Authors. All rights reserved.
// Use of this source code is governed by a MIT
// license that can be found in the LICENSE file.

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// Writes a base settings source in `dir`.
func writeSource(t *testing.T, dir, content string) {
	t.Helper()

	if err := os.WriteFile(filepath.Join(dir, "spot.yaml"), []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestLoadOverrideWins(t *testing.T) {
	dir := t.TempDir()

	writeSource(t, dir, "PORT: 4000\nhost: 127.0.0.1\n")

	t.Setenv("SPOT_PORT", "5000")

	settings, err := Load("spot", dir)
	if err != nil {
		t.Fatal(err)
	}

	// Env source has higher precedence, matching is case-insensitive.
	if settings["port"] != "5000" {
		t.Fatalf(`Expect port "5000" got %q`, settings["port"])
	}

	// Keys only present in the base source survive the merge untouched.
	if settings["host"] != "127.0.0.1" {
		t.Fatalf(`Expect host "127.0.0.1" got %q`, settings["host"])
	}

	if settings.Address() != "127.0.0.1:5000" {
		t.Fatalf(`Expect address "127.0.0.1:5000" got %q`, settings.Address())
	}
}

func TestLoadEnvOnlyKey(t *testing.T) {
	dir := t.TempDir()

	writeSource(t, dir, "port: 4000\n")

	t.Setenv("SPOT_FEATURE_FLAG", "on")

	settings, err := Load("spot", dir)
	if err != nil {
		t.Fatal(err)
	}

	if settings["feature_flag"] != "on" {
		t.Fatalf(`Expect feature_flag "on" got %q`, settings["feature_flag"])
	}
}

func TestLoadMissingSource(t *testing.T) {
	settings, err := Load("does-not-exist", t.TempDir())

	if !errors.Is(err, ErrMissingSource) {
		t.Fatalf("Expect %v got %v", ErrMissingSource, err)
	}

	// Never partial: either a complete map, or nothing.
	if settings != nil {
		t.Fatalf("Expect no settings got %v", settings)
	}
}

func TestLoadUnparseableSource(t *testing.T) {
	dir := t.TempDir()

	writeSource(t, dir, "port: [4000\n")

	if _, err := Load("spot", dir); !errors.Is(err, ErrUnparseableSource) {
		t.Fatalf("Expect %v got %v", ErrUnparseableSource, err)
	}
}

func TestAddressDefaults(t *testing.T) {
	settings := Settings{}

	if settings.Address() != "0.0.0.0:3000" {
		t.Fatalf(`Expect address "0.0.0.0:3000" got %q`, settings.Address())
	}
}

func TestRedacted(t *testing.T) {
	settings := Settings{
		"api_token":   "super-secret",
		"db_password": "hunter2",
		"port":        "3000",
	}

	redacted := settings.Redacted()

	if redacted["api_token"] != "[REDACTED]" {
		t.Fatalf(`Expect api_token redacted got %q`, redacted["api_token"])
	}

	if redacted["db_password"] != "[REDACTED]" {
		t.Fatalf(`Expect db_password redacted got %q`, redacted["db_password"])
	}

	if redacted["port"] != "3000" {
		t.Fatalf(`Expect port "3000" got %q`, redacted["port"])
	}

	// The original map stays untouched.
	if settings["api_token"] != "super-secret" {
		t.Fatalf("Expect original settings untouched got %q", settings["api_token"])
	}
}
