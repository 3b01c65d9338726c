// Package spot is a minimal network service shell in which:
// - Liveness is exposed at `/`, and `/health` (`{"status":"UP"}`)
// - Configuration is layered: base file source + `SPOT_` env overrides
// - Logging is structured (JSON), powered by Sypl
// - Tracing is batched, powered by OpenTelemetry (OTLP)
// - Shutdown is graceful: drain in-flight requests, then flush telemetry.
package spot
