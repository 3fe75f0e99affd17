// Package toolsrv provides the tool registration and invocation contract shared by the
// calculator, PostgreSQL, RDS and S3 tool servers.
//
// # Overview
//
// A tool is a ToolDescriptor (name, description, ordered ParameterSpec list) bound to a
// Handler. Callers send loosely-typed argument maps; the Dispatcher validates them against
// the descriptor, coerces them to the declared primitive types, runs the handler and returns
// a Result that is either a Success value or a Failure message.
//
// Pipeline: ToolDescriptor + Handler → Registry.Register (schema compile) → Dispatcher.Invoke
// (lookup, presence/coercion checks, closed-world check, JSON Schema check, handler) → Result.
//
// # Key concepts
//
//   - Closed world: arguments not declared by the descriptor are rejected, so typos never
//     silently fall back to defaults.
//   - No silent truncation: integer parameters refuse fractional input; float parameters
//     widen integers exactly.
//   - Failures are values: validation errors, policy violations, downstream faults and handler
//     panics all become Failure results; the process never crashes on a bad invocation.
//
// # Example
//
//	reg := toolsrv.NewRegistry()
//	err := toolsrv.RegisterFunc(reg, toolsrv.ToolDescriptor{
//	    Name: "sum",
//	    Parameters: []toolsrv.ParameterSpec{
//	        {Name: "a", Type: toolsrv.TypeInteger, Required: true},
//	        {Name: "b", Type: toolsrv.TypeInteger, Required: true},
//	    },
//	}, func(_ context.Context, args toolsrv.Args) (int64, error) {
//	    return args.Int("a") + args.Int("b"), nil
//	})
//	if err != nil { ... }
//	reg.Seal()
//	res := toolsrv.NewDispatcher(reg).Invoke(ctx, "sum", map[string]any{"a": 5, "b": 3})
package toolsrv
