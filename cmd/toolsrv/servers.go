package main

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/spf13/viper"

	"github.com/skosovsky/toolsrv"
	"github.com/skosovsky/toolsrv/calc"
	"github.com/skosovsky/toolsrv/pgtool"
	"github.com/skosovsky/toolsrv/rdstool"
	"github.com/skosovsky/toolsrv/s3tool"
)

// serverKind is one of the tool sets the binary can serve.
type serverKind struct {
	name  string
	title string
	short string
	usage string
	// register adds the tool set to reg. The returned closer releases external resources.
	register func(reg *toolsrv.Registry, env buildEnv) (closer func(context.Context) error, err error)
}

type buildEnv struct {
	args     []string
	logger   *slog.Logger
	listOnly bool
}

func noClose(context.Context) error { return nil }

var serverKinds = []serverKind{
	{
		name:  "calculator",
		title: "Calculator Server",
		short: "Serve the calculator tools",
		usage: "calculator",
		register: func(reg *toolsrv.Registry, _ buildEnv) (func(context.Context) error, error) {
			return noClose, calc.Register(reg)
		},
	},
	{
		name:  "postgres",
		title: "PostgreSQL Server",
		short: "Serve the read-only PostgreSQL tools",
		usage: "postgres <connection_string>",
		register: func(reg *toolsrv.Registry, env buildEnv) (func(context.Context) error, error) {
			dsn := viper.GetString("postgres.dsn")
			if len(env.args) > 0 {
				dsn = env.args[0]
			}
			if dsn == "" && !env.listOnly {
				return nil, fmt.Errorf("%w: usage: toolsrv postgres <connection_string>", toolsrv.ErrConfiguration)
			}
			op := pgtool.New(dsn, pgtool.WithLogger(env.logger.With("server", "postgres")))
			if err := pgtool.Register(reg, op); err != nil {
				_ = op.Close(context.Background())
				return nil, err
			}
			return op.Close, nil
		},
	},
	{
		name:  "rds",
		title: "RDS Server",
		short: "Serve the AWS RDS tools",
		usage: "rds",
		register: func(reg *toolsrv.Registry, env buildEnv) (func(context.Context) error, error) {
			op := rdstool.New(awsSettings(), rdstool.WithLogger(env.logger.With("server", "rds")))
			return noClose, rdstool.Register(reg, op)
		},
	},
	{
		name:  "s3",
		title: "S3 Server",
		short: "Serve the AWS S3 tools",
		usage: "s3",
		register: func(reg *toolsrv.Registry, env buildEnv) (func(context.Context) error, error) {
			op := s3tool.New(awsSettings(), s3tool.WithLogger(env.logger.With("server", "s3")))
			return noClose, s3tool.Register(reg, op)
		},
	},
}

func kindNames() []string {
	names := make([]string, 0, len(serverKinds))
	for _, k := range serverKinds {
		names = append(names, k.name)
	}
	return names
}

func lookupKind(name string) (serverKind, error) {
	i := slices.IndexFunc(serverKinds, func(k serverKind) bool { return k.name == name })
	if i < 0 {
		return serverKind{}, fmt.Errorf("%w: unknown server %q (want one of %s)",
			toolsrv.ErrConfiguration, name, strings.Join(kindNames(), ", "))
	}
	return serverKinds[i], nil
}

// buildDispatcher registers kind's tools behind the logging middleware and seals the registry.
func buildDispatcher(kind serverKind, env buildEnv) (*toolsrv.Dispatcher, func(context.Context) error, error) {
	reg := toolsrv.NewRegistry()
	closer, err := kind.register(reg, env)
	if err != nil {
		return nil, nil, err
	}
	reg.Use(toolsrv.WithLogging(env.logger))
	reg.Seal()
	opts := append(dispatcherOptions(), toolsrv.WithLogger(env.logger))
	return toolsrv.NewDispatcher(reg, opts...), closer, nil
}
