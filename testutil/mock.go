// Package testutil provides test helpers for toolsrv (e.g. MockHandler).
package testutil

import (
	"context"
	"sync"

	"github.com/skosovsky/toolsrv"
)

// MockHandler is a configurable Handler for tests. It records every call.
type MockHandler struct {
	Value any
	Err   error
	Fn    func(ctx context.Context, args toolsrv.Args) (any, error)

	mu    sync.Mutex
	calls []toolsrv.Args
}

// Handle implements toolsrv.Handler. Fn wins over Value/Err when set.
func (m *MockHandler) Handle(ctx context.Context, args toolsrv.Args) (any, error) {
	m.mu.Lock()
	m.calls = append(m.calls, args)
	m.mu.Unlock()
	if m.Fn != nil {
		return m.Fn(ctx, args)
	}
	return m.Value, m.Err
}

// Calls returns the arguments of every call so far.
func (m *MockHandler) Calls() []toolsrv.Args {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]toolsrv.Args, len(m.calls))
	copy(out, m.calls)
	return out
}

// Ensure Handle has the Handler signature.
var _ toolsrv.Handler = (*MockHandler)(nil).Handle
