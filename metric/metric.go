package metric

import (
	"github.com/saucelabs/spot/internal/expvar"
	"github.com/saucelabs/spot/internal/validation"
)

//////
// Consts, and vars.
//////

var (
	// CommandLine metric.
	CommandLine = expvar.PublishCmdLine

	// MemoryStats metric.
	MemoryStats = expvar.PublishMemStats
)

//////
// Definition.
//////

// Metric definition.
type Metric struct {
	// Name of the metric.
	Name string `json:"name" validate:"required"`

	// Var is a valid ExpVar.
	Var expvar.Var `json:"var" validate:"required"`
}

//////
// Metrics.
//////

// Server information, including the live lifecycle state.
func Server(address, name string, pid int, state func() string) expvar.Func {
	return func() interface{} {
		return struct {
			// Server address.
			Address string `json:"Address"`

			// Server name.
			Name string `json:"Name"`

			// Server PID.
			PID int `json:"PID"`

			// Lifecycle state: Starting, Serving, Draining, or Stopped.
			State string `json:"State"`
		}{
			address, name, pid, state(),
		}
	}
}

//////
// Factory.
//////

// New is the Metric factory.
func New(name string, v expvar.Var) (*Metric, error) {
	m := &Metric{
		Name: name,
		Var:  v,
	}

	if err := validation.ValidateStruct(m); err != nil {
		return nil, err
	}

	return m, nil
}
