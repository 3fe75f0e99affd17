package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/skosovsky/toolsrv"
)

var errInvocationFailed = errors.New("invocation failed")

func newInvokeCmd() *cobra.Command {
	var rawJSON string
	cmd := &cobra.Command{
		Use:   "invoke <server> <tool> [key=value ...]",
		Short: "Invoke one tool in-process and print the JSON result",
		Example: `  toolsrv invoke calculator sum a=5 b=3
  toolsrv invoke postgres count_rows table_name=users condition="age > 30" --postgres-dsn postgres://localhost/app
  toolsrv invoke s3 list_objects --json '{"bucket": "logs", "limit": 10}'`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			kind, err := lookupKind(args[0])
			if err != nil {
				return err
			}
			payload, err := invocationArgs(rawJSON, args[2:])
			if err != nil {
				return err
			}
			logger, err := loggerFromViper()
			if err != nil {
				return err
			}
			d, closer, err := buildDispatcher(kind, buildEnv{logger: logger})
			if err != nil {
				return err
			}
			defer func() {
				err = errors.Join(err, d.Shutdown(cmd.Context()), closer(cmd.Context()))
			}()

			res := d.Execute(cmd.Context(), toolsrv.ToolCall{ID: uuid.NewString(), ToolName: args[1], Args: payload})
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(res); err != nil {
				return err
			}
			if !res.OK() {
				return fmt.Errorf("%w: %s (%s)", errInvocationFailed, res.Message(), toolsrv.KindOf(res.Err))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&rawJSON, "json", "", "Arguments as a JSON object (instead of key=value pairs).")
	return cmd
}

// invocationArgs builds the JSON argument payload. key=value values stay strings; the tool's
// schema coerces them to the declared parameter types.
func invocationArgs(rawJSON string, pairs []string) (json.RawMessage, error) {
	if rawJSON != "" {
		if len(pairs) > 0 {
			return nil, errors.New("use either --json or key=value arguments, not both")
		}
		return json.RawMessage(rawJSON), nil
	}
	args := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid argument %q: want key=value", pair)
		}
		args[key] = value
	}
	return json.Marshal(args)
}
