// Package pgtool exposes read-only PostgreSQL tools (list_tables, get_table_schema,
// execute_query, count_rows) over one lazily opened connection.
package pgtool

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jackc/pgx/v5"
)

// ErrClosed is returned when a tool runs after the operator was closed.
var ErrClosed = errors.New("database connection closed")

// Conn is the subset of *pgx.Conn used by the tools.
type Conn interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close(ctx context.Context) error
}

// Dialer opens a connection for a connection string.
type Dialer func(ctx context.Context, dsn string) (Conn, error)

// DialPgx opens a single pgx connection.
func DialPgx(ctx context.Context, dsn string) (Conn, error) {
	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// Option configures an Operator.
type Option func(*Operator)

// WithDialer replaces the pgx dialer (used by tests).
func WithDialer(d Dialer) Option {
	return func(o *Operator) {
		o.dial = d
	}
}

// WithLogger sets the operator logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Operator) {
		o.logger = logger
	}
}

// Operator owns the single database connection shared by all invocations.
// The connection is opened on first use and access is serialized, since a pgx.Conn
// cannot run two queries at once.
type Operator struct {
	dsn    string
	dial   Dialer
	logger *slog.Logger

	mu     sync.Mutex
	conn   Conn
	closed bool
}

// New creates an Operator for dsn. No connection is opened until a tool runs.
func New(dsn string, opts ...Option) *Operator {
	o := &Operator{dsn: dsn, dial: DialPgx}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	o.logger.Info("PostgreSQL operator initialized")
	return o
}

// withConn runs fn with exclusive use of the connection, dialing it if needed.
// A connection left closed by fn (e.g. by context cancellation mid-query) is dropped so the
// next invocation redials instead of reusing it.
func (o *Operator) withConn(ctx context.Context, fn func(Conn) error) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return ErrClosed
	}
	if o.conn == nil {
		o.logger.InfoContext(ctx, "connecting to PostgreSQL database")
		conn, err := o.dial(ctx, o.dsn)
		if err != nil {
			return fmt.Errorf("connect: %w", err)
		}
		o.conn = conn
	}
	err := fn(o.conn)
	if err != nil && (ctx.Err() != nil || isClosed(o.conn)) {
		o.logger.WarnContext(ctx, "dropping PostgreSQL connection after interrupted query", "error", err)
		_ = o.conn.Close(context.WithoutCancel(ctx))
		o.conn = nil
	}
	return err
}

func isClosed(c Conn) bool {
	cc, ok := c.(interface{ IsClosed() bool })
	return ok && cc.IsClosed()
}

// Close closes the connection once. Later calls and later tool runs see ErrClosed / nil.
func (o *Operator) Close(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return nil
	}
	o.closed = true
	if o.conn == nil {
		return nil
	}
	o.logger.InfoContext(ctx, "closing PostgreSQL connection")
	err := o.conn.Close(ctx)
	o.conn = nil
	return err
}
