// Package awsutil loads AWS SDK configuration and normalizes provider errors for the
// RDS and S3 tools.
package awsutil

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/smithy-go"

	"github.com/skosovsky/toolsrv"
)

// Settings selects the default region and shared-config profile. Empty values defer to the
// SDK default chain (environment, shared config, instance metadata).
type Settings struct {
	Region  string
	Profile string
}

// Load resolves an aws.Config. A non-empty region overrides s.Region.
func (s Settings) Load(ctx context.Context, region string) (aws.Config, error) {
	var opts []func(*config.LoadOptions) error
	if region == "" {
		region = s.Region
	}
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}
	if s.Profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(s.Profile))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("load aws config: %w", err)
	}
	return cfg, nil
}

// ClientFactory returns a client bound to region ("" selects the default region).
type ClientFactory[C any] func(ctx context.Context, region string) (C, error)

// NewClientFactory builds a ClientFactory that loads a fresh configuration per call and hands it
// to build (e.g. rds.NewFromConfig wrapped to return an interface).
func NewClientFactory[C any](s Settings, service string, logger *slog.Logger, build func(aws.Config) C) ClientFactory[C] {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, region string) (C, error) {
		if region != "" {
			logger.InfoContext(ctx, "creating client for region", "service", service, "region", region)
		} else {
			logger.InfoContext(ctx, "creating client with default region", "service", service)
		}
		cfg, err := s.Load(ctx, region)
		if err != nil {
			var zero C
			return zero, err
		}
		return build(cfg), nil
	}
}

// ProviderError is an AWS API error reduced to its code and message.
type ProviderError struct {
	Code    string
	Message string
	Err     error
}

func (e *ProviderError) Error() string {
	if e.Message == "" {
		return e.Code
	}
	return e.Code + ": " + e.Message
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Normalize wraps err as a toolsrv.DownstreamError for op. API errors are rendered as
// "<op>: <code>: <message>" without the SDK's request metadata.
func Normalize(op string, err error) error {
	if err == nil {
		return nil
	}
	if toolsrv.IsClientError(err) || toolsrv.IsDownstreamError(err) {
		return err
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return &toolsrv.DownstreamError{Op: op, Err: &ProviderError{
			Code:    apiErr.ErrorCode(),
			Message: apiErr.ErrorMessage(),
			Err:     err,
		}}
	}
	return toolsrv.Downstream(op, err)
}

// HasCode reports whether err carries the API error code.
func HasCode(err error, code string) bool {
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode() == code
}

// NotFound returns a DownstreamError marking a missing resource, e.g. "bucket x not found".
func NotFound(kind, name string) error {
	return &toolsrv.DownstreamError{Err: fmt.Errorf("%s %s %w", kind, name, toolsrv.ErrNotFound)}
}
