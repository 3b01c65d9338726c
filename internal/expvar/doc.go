// Package expvar is the standard Golang's expvar package with one modification:
// it removes the bad practice of using `init()`, instead exposes:
// - `Publish`: publishes a var, safely skipping duplicates
// - `PublishCmdLine`: publishes command line information
// - `PublishMemStats`: publishes memory statistics.
package expvar
