package toolsrv

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Dispatcher resolves invocations against a Registry, validates and coerces arguments,
// runs handlers with timeout, semaphore and optional panic recovery, and normalizes every
// outcome into a Result. It never returns a Go error: failures are Failure results.
type Dispatcher struct {
	reg     *Registry
	sem     chan struct{}
	opts    dispatcherOptions
	done    chan struct{}
	running sync.WaitGroup
	mu      sync.Mutex
}

// NewDispatcher creates a Dispatcher over reg with the given options.
func NewDispatcher(reg *Registry, opts ...DispatcherOption) *Dispatcher {
	o := dispatcherOptions{
		timeout:        5 * time.Second,
		maxConcurrency: 10,
		recoverPanics:  true,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	var sem chan struct{}
	if o.maxConcurrency > 0 {
		sem = make(chan struct{}, o.maxConcurrency)
	}
	return &Dispatcher{
		reg:  reg,
		sem:  sem,
		opts: o,
		done: make(chan struct{}),
	}
}

// Registry returns the registry the dispatcher resolves tools from.
func (d *Dispatcher) Registry() *Registry { return d.reg }

// Invoke runs the named tool with a raw argument map (as decoded from a transport).
func (d *Dispatcher) Invoke(ctx context.Context, toolName string, rawArgs map[string]any) Result {
	return d.invoke(ctx, ToolCall{ID: uuid.NewString(), ToolName: toolName}, rawArgs)
}

// Execute runs one ToolCall whose Args is a JSON object. An empty ID is replaced by a UUID.
func (d *Dispatcher) Execute(ctx context.Context, call ToolCall) Result {
	if call.ID == "" {
		call.ID = uuid.NewString()
	}
	raw, err := decodeArgs(call.Args)
	if err != nil {
		res := Failure(err)
		res.CallID, res.ToolName = call.ID, call.ToolName
		return res
	}
	return d.invoke(ctx, call, raw)
}

func (d *Dispatcher) invoke(ctx context.Context, call ToolCall, rawArgs map[string]any) (res Result) {
	start := time.Now()
	defer func() {
		res.CallID = call.ID
		res.ToolName = call.ToolName
		res.Duration = time.Since(start)
		if res.Err != nil {
			d.opts.logger.WarnContext(ctx, "tool invocation failed",
				"tool", call.ToolName, "call_id", call.ID, "kind", KindOf(res.Err), "error", res.Err)
		}
		if d.opts.onAfter != nil {
			d.opts.onAfter(ctx, call, InvocationSummary{
				CallID:   call.ID,
				ToolName: call.ToolName,
				Error:    res.Err,
				Duration: res.Duration,
			})
		}
	}()

	d.mu.Lock()
	select {
	case <-d.done:
		d.mu.Unlock()
		return Failure(ErrShutdown)
	default:
	}
	d.running.Add(1)
	d.mu.Unlock()
	defer d.running.Done()

	tool, err := d.reg.Lookup(call.ToolName)
	if err != nil {
		return Failure(err)
	}
	args, err := extract(tool.desc, tool.schema, rawArgs)
	if err != nil {
		return Failure(err)
	}

	timeout := d.opts.timeout
	if tool.opts.timeout > 0 {
		timeout = tool.opts.timeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	if err := d.acquireSemaphore(ctx); err != nil {
		return Failure(timeoutError(call.ToolName, timeout, err))
	}
	defer d.releaseSemaphore()

	if d.opts.onBefore != nil {
		d.opts.onBefore(ctx, call)
	}
	val, err := d.run(ctx, tool, args)
	if err != nil {
		return Failure(timeoutError(call.ToolName, timeout, err))
	}
	return Success(val)
}

// run calls the handler, converting a panic into a SystemError when recovery is enabled.
func (d *Dispatcher) run(ctx context.Context, tool *Tool, args Args) (val any, err error) {
	if d.opts.recoverPanics {
		defer func() {
			if p := recover(); p != nil {
				val = nil
				err = &SystemError{Err: &panicError{p: p}}
			}
		}()
	}
	return tool.handler(ctx, args)
}

// timeoutError maps a deadline hit by the dispatcher-owned context to ErrTimeout.
func timeoutError(toolName string, timeout time.Duration, err error) error {
	if errors.Is(err, context.DeadlineExceeded) && !IsClientError(err) && !IsDownstreamError(err) {
		return &DownstreamError{Op: toolName, Err: fmt.Errorf("%w after %s", ErrTimeout, timeout)}
	}
	return err
}

func (d *Dispatcher) acquireSemaphore(ctx context.Context) error {
	if d.sem == nil {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	select {
	case d.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) releaseSemaphore() {
	if d.sem != nil {
		<-d.sem
	}
}

// Shutdown refuses new invocations and waits for in-flight ones or ctx to cancel.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	select {
	case <-d.done:
		d.mu.Unlock()
		return nil
	default:
		close(d.done)
	}
	d.mu.Unlock()
	done := make(chan struct{})
	go func() {
		d.running.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
