package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	envPrefix = "TOOLSRV"
	version   = "0.1.0"
)

func newRootCmd() *cobra.Command {
	opts := newOptions()
	cmd := &cobra.Command{
		Use:           "toolsrv",
		Short:         "Calculator, PostgreSQL, RDS and S3 tools over the Model Context Protocol",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return initConfig()
		},
	}

	fs := cmd.PersistentFlags()
	fs.String("config", "", "Config file path (optional).")
	_ = viper.BindPFlag("config", fs.Lookup("config"))
	opts.AddFlags(fs)
	opts.bind(fs)

	cmd.AddCommand(newServeCmds()...)
	cmd.AddCommand(newToolsCmd())
	cmd.AddCommand(newInvokeCmd())
	return cmd
}

func initConfig() error {
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	cfgFile := strings.TrimSpace(viper.GetString("config"))
	if cfgFile == "" {
		return nil
	}
	viper.SetConfigFile(cfgFile)
	if err := viper.ReadInConfig(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to read config: %v\n", err)
		return fmt.Errorf("read config %s: %w", cfgFile, err)
	}
	return nil
}
