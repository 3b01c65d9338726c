// Copyright 2024 The spot Authors. All rights reserved.
// Use of this source code is governed by a MIT
// license that can be found in the LICENSE file.

package expvar

import (
	"expvar"
	"os"
	"runtime"
	"sync"
)

// Re-exported so consumers don't import both packages.
type (
	// Func implements expvar.Var by calling the function.
	Func = expvar.Func

	// Int is a 64-bit integer variable.
	Int = expvar.Int

	// Var is the abstract type for all exported variables.
	Var = expvar.Var
)

var (
	cmdLineOnce  sync.Once
	memStatsOnce sync.Once
)

// NewInt publishes a new `Int` under `name`. If `name` is already published,
// the existing var is returned instead.
func NewInt(name string) *expvar.Int {
	if v, ok := expvar.Get(name).(*expvar.Int); ok {
		return v
	}

	return expvar.NewInt(name)
}

// Publish declares a named exported variable. Contrary to the standard
// package, publishing a duplicate name is a no-op, not a crash. Servers are
// re-created in tests; metrics registration shouldn't be the thing that
// brings them down.
func Publish(name string, v expvar.Var) {
	if expvar.Get(name) != nil {
		return
	}

	expvar.Publish(name, v)
}

// PublishCmdLine publishes command line information (`cmdline`).
func PublishCmdLine() {
	cmdLineOnce.Do(func() {
		Publish("cmdline", expvar.Func(func() interface{} {
			return os.Args
		}))
	})
}

// PublishMemStats publishes memory statistics (`memstats`).
func PublishMemStats() {
	memStatsOnce.Do(func() {
		Publish("memstats", expvar.Func(func() interface{} {
			stats := new(runtime.MemStats)
			runtime.ReadMemStats(stats)

			return *stats
		}))
	})
}
