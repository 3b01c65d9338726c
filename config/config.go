// Copyright 2024 The spot Authors. All rights reserved.
// Use of this source code is governed by a MIT
// license that can be found in the LICENSE file.

package config

import (
	"errors"
	"net"
	"os"
	"regexp"
	"strings"

	"github.com/saucelabs/customerror"
	"github.com/spf13/viper"
)

//////
// Const, and vars.
//////

const (
	// EnvPrefix scopes the environment variables overriding file settings,
	// e.g.: `SPOT_PORT` overrides the file's `port`.
	EnvPrefix = "SPOT"

	// DefaultSourceName is the base settings source, e.g.: `spot.yaml`.
	DefaultSourceName = "spot"

	defaultHost = "0.0.0.0"
	defaultPort = "3000"

	redactedValue = "[REDACTED]"
)

var (
	// ErrMissingSource indicates the required base settings source is absent.
	ErrMissingSource = customerror.NewMissingError("configuration source")

	// ErrUnparseableSource indicates the base settings source can't be read.
	ErrUnparseableSource = customerror.NewFailedToError("parse configuration source")
)

// Keys carrying values which must never hit the logs in cleartext.
var secretKeyRe = regexp.MustCompile(`(?i)(secret|password|token|credential|key)`)

//////
// Definition.
//////

// Settings is the resolved configuration: a flat key-value map produced by
// merging the base file source (lower precedence) with `SPOT_`-prefixed
// environment variables (higher precedence). Read-only after `Load`.
type Settings map[string]string

// Address resolves the TCP address to listen on from the `host`, and `port`
// keys. Default: all interfaces, port 3000.
func (s Settings) Address() string {
	host := s["host"]
	if host == "" {
		host = defaultHost
	}

	port := s["port"]
	if port == "" {
		port = defaultPort
	}

	return net.JoinHostPort(host, port)
}

// Redacted returns a copy safe to log: values of secret-looking keys
// (secret, password, token, credential, key) are masked.
func (s Settings) Redacted() Settings {
	redacted := make(Settings, len(s))

	for k, v := range s {
		if secretKeyRe.MatchString(k) {
			redacted[k] = redactedValue

			continue
		}

		redacted[k] = v
	}

	return redacted
}

//////
// Factory.
//////

// Load reads the named base source from `paths` (default: working directory),
// then overlays matching environment variables. The base source is required:
// a missing file fails with `ErrMissingSource` - the service must not run on
// partial or absent configuration. Either the whole merge succeeds, or the
// whole load fails.
func Load(name string, paths ...string) (Settings, error) {
	v := viper.New()

	v.SetConfigName(name)

	if len(paths) == 0 {
		paths = []string{"."}
	}

	for _, p := range paths {
		v.AddConfigPath(p)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError

		if errors.As(err, &notFound) || os.IsNotExist(err) {
			return nil, ErrMissingSource
		}

		return nil, ErrUnparseableSource
	}

	settings := Settings{}

	// Base source. Viper already consults the environment per-key, the
	// explicit overlay below keeps the precedence rule independent of that.
	for _, key := range v.AllKeys() {
		settings[key] = v.GetString(key)
	}

	// Environment overlay: strip the prefix, match case-insensitively
	// against base keys. Later source wins on identical keys.
	for _, kv := range os.Environ() {
		name, value, found := strings.Cut(kv, "=")
		if !found || !strings.HasPrefix(name, EnvPrefix+"_") {
			continue
		}

		key := strings.ToLower(strings.TrimPrefix(name, EnvPrefix+"_"))
		if key == "" {
			continue
		}

		settings[key] = value
	}

	return settings, nil
}
