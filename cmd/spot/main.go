// Copyright 2024 The spot Authors. All rights reserved.
// Use of this source code is governed by a MIT
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"net/http"
	"os"

	spot "github.com/saucelabs/spot"
	"github.com/saucelabs/spot/config"
	"github.com/saucelabs/spot/internal/logger"
	"github.com/saucelabs/spot/secret"
	"github.com/saucelabs/spot/telemetry"
	"github.com/spf13/cobra"
)

const name = "spot"

// Set at build time.
var version = "dev"

var (
	configName   string
	otlpEndpoint string
	otlpInsecure bool
)

var rootCmd = &cobra.Command{
	Use:   name,
	Short: "Minimal network service shell: liveness, telemetry, graceful shutdown",
	// Don't double-print: fatal causes are logged with structure below.
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd)
	},
}

// run follows a strict sequence. Reordering introduces silent telemetry loss,
// or unlabeled errors:
//  1. Telemetry pipeline (registers the exporter-error handler before the
//     exporter is constructed).
//  2. Structured logging.
//  3. Configuration (missing source is fatal).
//  4. Secret-store client (construction failure is fatal).
//  5. Server build, bind, and serve until a termination signal.
func run(cmd *cobra.Command) error {
	tel, err := telemetry.NewOTLP(cmd.Context(), name, version, otlpEndpoint, otlpInsecure)
	if err != nil {
		return err
	}

	l := logger.Setup(name, logger.DefaultLevel(), "")

	settings, err := config.Load(configName)
	if err != nil {
		return err
	}

	// Operability: resolved keys are visible, secret values aren't.
	l.Infolnf("settings %v", settings.Redacted())

	if _, err := secret.NewClient(settings); err != nil {
		return err
	}

	server, err := spot.New(name, settings.Address(), spot.WithTelemetry(tel))
	if err != nil {
		return err
	}

	l.Warnlnf("listening on %s", settings.Address())

	if err := server.Start(); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			l.Infoln("server stopped")

			return nil
		}

		return err
	}

	return nil
}

func main() {
	rootCmd.Flags().StringVar(&configName, "config", config.DefaultSourceName, "name of the base configuration source")
	rootCmd.Flags().StringVar(&otlpEndpoint, "otlp-endpoint", telemetry.DefaultOTLPEndpoint, "OTLP gRPC collector endpoint")
	rootCmd.Flags().BoolVar(&otlpInsecure, "otlp-insecure", true, "use an insecure (non-TLS) collector connection")

	if err := rootCmd.Execute(); err != nil {
		logger.Get().Errorlnf("fatal: %v", err)

		os.Exit(1)
	}
}
