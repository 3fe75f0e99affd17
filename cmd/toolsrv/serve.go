package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/skosovsky/toolsrv/mcpserver"
)

const shutdownTimeout = 10 * time.Second

func newServeCmds() []*cobra.Command {
	cmds := make([]*cobra.Command, 0, len(serverKinds))
	for _, kind := range serverKinds {
		args := cobra.NoArgs
		if kind.name == "postgres" {
			args = cobra.MaximumNArgs(1)
		}
		cmds = append(cmds, &cobra.Command{
			Use:   kind.usage,
			Short: kind.short,
			Args:  args,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runServer(cmd.Context(), kind, args)
			},
		})
	}
	return cmds
}

func runServer(ctx context.Context, kind serverKind, args []string) (err error) {
	if err := validate(); err != nil {
		return err
	}
	logger, err := loggerFromViper()
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	d, closer, err := buildDispatcher(kind, buildEnv{args: args, logger: logger})
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		err = errors.Join(err, d.Shutdown(shutdownCtx), closer(shutdownCtx))
	}()

	srv, err := mcpserver.New(kind.title, version, d, mcpserver.WithLogger(logger))
	if err != nil {
		return err
	}
	logger.InfoContext(ctx, "starting server", "server", kind.title, "tools", d.Registry().Len())
	return srv.Serve(ctx, viper.GetString("server.transport"), viper.GetString("server.addr"))
}
