// Package calc provides the calculator tools: sum, sub, multiply and divide.
package calc

import (
	"context"
	"errors"
	"math"

	"github.com/skosovsky/toolsrv"
)

// ErrDivisionByZero is returned by divide when the divisor is exactly zero.
var ErrDivisionByZero = errors.New("cannot divide by zero")

// ErrOverflow is returned by the integer tools when the exact result does not fit in an int64.
var ErrOverflow = errors.New("integer overflow")

func intOperands() []toolsrv.ParameterSpec {
	return []toolsrv.ParameterSpec{
		{Name: "a", Type: toolsrv.TypeInteger, Required: true, Description: "The first number"},
		{Name: "b", Type: toolsrv.TypeInteger, Required: true, Description: "The second number"},
	}
}

// Register adds the calculator tools to reg.
func Register(reg *toolsrv.Registry) error {
	intTools := []struct {
		name, description string
		op                func(a, b int64) (int64, bool)
	}{
		{"sum", "Calculate the sum of two numbers", add},
		{"sub", "Calculate the difference between two numbers", subtract},
		{"multiply", "Calculate the product of two numbers", multiply},
	}
	for _, it := range intTools {
		op := it.op
		err := toolsrv.RegisterFunc(reg, toolsrv.ToolDescriptor{
			Name:        it.name,
			Description: it.description,
			Parameters:  intOperands(),
		}, func(_ context.Context, args toolsrv.Args) (int64, error) {
			r, ok := op(args.Int("a"), args.Int("b"))
			if !ok {
				return 0, &toolsrv.ClientError{Reason: ErrOverflow.Error(), Err: ErrOverflow}
			}
			return r, nil
		}, toolsrv.WithTags("calculator"))
		if err != nil {
			return err
		}
	}
	return toolsrv.RegisterFunc(reg, toolsrv.ToolDescriptor{
		Name:        "divide",
		Description: "Calculate the quotient of two numbers",
		Parameters: []toolsrv.ParameterSpec{
			{Name: "a", Type: toolsrv.TypeFloat, Required: true, Description: "The dividend"},
			{Name: "b", Type: toolsrv.TypeFloat, Required: true, Description: "The divisor"},
		},
	}, divide, toolsrv.WithTags("calculator"))
}

func divide(_ context.Context, args toolsrv.Args) (float64, error) {
	b := args.Float("b")
	if b == 0 {
		return 0, &toolsrv.ClientError{Reason: ErrDivisionByZero.Error(), Err: ErrDivisionByZero}
	}
	return args.Float("a") / b, nil
}

func add(a, b int64) (int64, bool) {
	r := a + b
	return r, (r > a) == (b > 0)
}

func subtract(a, b int64) (int64, bool) {
	r := a - b
	return r, (r < a) == (b > 0)
}

func multiply(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	if (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) {
		return 0, false
	}
	r := a * b
	return r, r/b == a
}
