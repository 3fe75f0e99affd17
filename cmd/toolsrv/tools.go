package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/skosovsky/toolsrv"
)

func newToolsCmd() *cobra.Command {
	var showSchema bool
	cmd := &cobra.Command{
		Use:   "tools <server>",
		Short: "List the tools of a server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := lookupKind(args[0])
			if err != nil {
				return err
			}
			logger, err := loggerFromViper()
			if err != nil {
				return err
			}
			d, closer, err := buildDispatcher(kind, buildEnv{logger: logger, listOnly: true})
			if err != nil {
				return err
			}
			defer func() { _ = closer(cmd.Context()) }()

			tools := d.Registry().Tools()
			if showSchema {
				return printSchemas(cmd, tools)
			}
			table := uitable.New()
			table.MaxColWidth = 60
			table.Wrap = true
			table.AddRow("NAME", "PARAMETERS", "TAGS", "DESCRIPTION")
			for _, tool := range tools {
				table.AddRow(tool.Name(), formatParams(tool.Descriptor().Parameters), strings.Join(tool.Tags(), ","), tool.Description())
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), table)
			return err
		},
	}
	cmd.Flags().BoolVar(&showSchema, "schema", false, "Print the JSON input and output schemas.")
	return cmd
}

// formatParams renders parameters as "name:type" with "*" for required and "=default" otherwise.
func formatParams(params []toolsrv.ParameterSpec) string {
	if len(params) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(params))
	for _, p := range params {
		s := p.Name + ":" + string(p.Type)
		if p.Required {
			s += "*"
		} else {
			s += fmt.Sprintf("=%v", p.Default)
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, " ")
}

type toolSchema struct {
	Name         string         `json:"name"`
	Description  string         `json:"description"`
	InputSchema  map[string]any `json:"input_schema"`
	OutputSchema map[string]any `json:"output_schema,omitempty"`
}

func printSchemas(cmd *cobra.Command, tools []*toolsrv.Tool) error {
	out := make([]toolSchema, 0, len(tools))
	for _, tool := range tools {
		out = append(out, toolSchema{
			Name:         tool.Name(),
			Description:  tool.Description(),
			InputSchema:  tool.InputSchema(),
			OutputSchema: tool.OutputSchema(),
		})
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
