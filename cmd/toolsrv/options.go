package main

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/skosovsky/toolsrv"
	"github.com/skosovsky/toolsrv/internal/awsutil"
	"github.com/skosovsky/toolsrv/mcpserver"
)

// options holds the flag defaults; effective values are read back through viper so that
// config files and TOOLSRV_* variables apply too.
type options struct {
	Transport      string
	Addr           string
	Timeout        time.Duration
	MaxConcurrency int
	LogLevel       string
	LogFormat      string
	LogAddSource   bool
	PostgresDSN    string
	AWSRegion      string
	AWSProfile     string
}

func newOptions() *options {
	return &options{
		Transport:      mcpserver.TransportStdio,
		Addr:           "127.0.0.1:8080",
		Timeout:        30 * time.Second,
		MaxConcurrency: 10,
		LogLevel:       "info",
		LogFormat:      "text",
	}
}

// AddFlags adds the server flags to fs.
func (o *options) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.Transport, "transport", o.Transport, "MCP transport: stdio, sse or http.")
	fs.StringVar(&o.Addr, "addr", o.Addr, "Listen address for the sse and http transports.")
	fs.DurationVar(&o.Timeout, "timeout", o.Timeout, "Default per-invocation timeout.")
	fs.IntVar(&o.MaxConcurrency, "max-concurrency", o.MaxConcurrency, "Maximum concurrent invocations (<=0 for unlimited).")
	fs.StringVar(&o.LogLevel, "log-level", o.LogLevel, "Log level: debug, info, warn or error.")
	fs.StringVar(&o.LogFormat, "log-format", o.LogFormat, "Log format: text or json.")
	fs.BoolVar(&o.LogAddSource, "log-add-source", o.LogAddSource, "Include source locations in logs.")
	fs.StringVar(&o.PostgresDSN, "postgres-dsn", o.PostgresDSN, "PostgreSQL connection string.")
	fs.StringVar(&o.AWSRegion, "aws-region", o.AWSRegion, "Default AWS region.")
	fs.StringVar(&o.AWSProfile, "aws-profile", o.AWSProfile, "AWS shared config profile.")
}

var flagKeys = map[string]string{
	"transport":       "server.transport",
	"addr":            "server.addr",
	"timeout":         "registry.timeout",
	"max-concurrency": "registry.max_concurrency",
	"log-level":       "logging.level",
	"log-format":      "logging.format",
	"log-add-source":  "logging.add_source",
	"postgres-dsn":    "postgres.dsn",
	"aws-region":      "aws.region",
	"aws-profile":     "aws.profile",
}

func (o *options) bind(fs *pflag.FlagSet) {
	for flag, key := range flagKeys {
		_ = viper.BindPFlag(key, fs.Lookup(flag))
	}
}

// validate checks the effective configuration.
func validate() error {
	switch t := viper.GetString("server.transport"); t {
	case mcpserver.TransportStdio, mcpserver.TransportSSE, mcpserver.TransportHTTP:
	default:
		return fmt.Errorf("%w: unknown server.transport %q", toolsrv.ErrConfiguration, t)
	}
	if viper.GetDuration("registry.timeout") <= 0 {
		return fmt.Errorf("%w: registry.timeout must be positive", toolsrv.ErrConfiguration)
	}
	return nil
}

func dispatcherOptions() []toolsrv.DispatcherOption {
	return []toolsrv.DispatcherOption{
		toolsrv.WithDefaultTimeout(viper.GetDuration("registry.timeout")),
		toolsrv.WithMaxConcurrency(viper.GetInt("registry.max_concurrency")),
	}
}

func awsSettings() awsutil.Settings {
	return awsutil.Settings{
		Region:  viper.GetString("aws.region"),
		Profile: viper.GetString("aws.profile"),
	}
}
