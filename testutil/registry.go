package testutil

import (
	"log/slog"
	"testing"
	"time"

	"github.com/skosovsky/toolsrv"
)

// NewTestDispatcher seals reg and returns a Dispatcher with a long timeout, panic recovery
// and a discarding logger, suitable for tests.
func NewTestDispatcher(reg *toolsrv.Registry) *toolsrv.Dispatcher {
	reg.Seal()
	return toolsrv.NewDispatcher(reg,
		toolsrv.WithDefaultTimeout(30*time.Second),
		toolsrv.WithRecoverPanics(true),
		toolsrv.WithLogger(slog.New(slog.DiscardHandler)),
	)
}

// MustRegister builds a registry with register and fails the test on error.
func MustRegister(t testing.TB, register func(*toolsrv.Registry) error) *toolsrv.Registry {
	t.Helper()
	reg := toolsrv.NewRegistry()
	if err := register(reg); err != nil {
		t.Fatalf("register tools: %v", err)
	}
	return reg
}
