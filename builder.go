package toolsrv

import (
	"context"
	"reflect"

	invjs "github.com/invopop/jsonschema"
)

// RegisterFunc registers a handler with a typed result. The result type R is reflected into
// the tool's output schema; the handler itself is adapted to Handler.
func RegisterFunc[R any](
	r *Registry,
	desc ToolDescriptor,
	fn func(ctx context.Context, args Args) (R, error),
	opts ...ToolOption,
) error {
	if fn == nil {
		return r.Register(desc, nil, opts...)
	}
	if schema, err := outputSchemaFor[R](); err == nil && schema != nil {
		opts = append([]ToolOption{WithOutputSchema(schema)}, opts...)
	}
	h := func(ctx context.Context, args Args) (any, error) {
		res, err := fn(ctx, args)
		if err != nil {
			return nil, err
		}
		return res, nil
	}
	return r.Register(desc, h, opts...)
}

// outputSchemaFor reflects R into a JSON Schema map. Interface types have no useful schema.
func outputSchemaFor[R any]() (map[string]any, error) {
	typ := reflect.TypeFor[R]()
	if typ.Kind() == reflect.Interface {
		return nil, nil
	}
	reflector := &invjs.Reflector{
		DoNotReference: true,
		Anonymous:      true,
	}
	schema := reflector.ReflectFromType(typ)
	m, err := schemaToMap(schema)
	if err != nil {
		return nil, err
	}
	delete(m, "$schema")
	return m, nil
}
