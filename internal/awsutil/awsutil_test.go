package awsutil

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skosovsky/toolsrv"
)

func TestNormalize_APIError(t *testing.T) {
	api := &smithy.GenericAPIError{Code: "AccessDenied", Message: "not authorized"}
	err := Normalize("list buckets", fmt.Errorf("operation error S3: ListBuckets, %w", api))
	require.Error(t, err)
	assert.Equal(t, "list buckets: AccessDenied: not authorized", err.Error())
	assert.Equal(t, toolsrv.KindDownstream, toolsrv.KindOf(err))
	assert.True(t, HasCode(err, "AccessDenied"))
	assert.ErrorIs(t, err, api)
}

func TestNormalize_PassThrough(t *testing.T) {
	assert.NoError(t, Normalize("op", nil))

	client := toolsrv.Validationf("bad limit")
	assert.Same(t, client, Normalize("op", client))

	err := Normalize("op", errors.New("dial tcp: timeout"))
	assert.Equal(t, "op: dial tcp: timeout", err.Error())
}

func TestNotFound(t *testing.T) {
	err := NotFound("bucket", "missing-bucket")
	assert.Equal(t, "bucket missing-bucket not found", err.Error())
	assert.ErrorIs(t, err, toolsrv.ErrNotFound)
	assert.True(t, toolsrv.IsDownstreamError(err))
}

func TestProviderError_NoMessage(t *testing.T) {
	assert.Equal(t, "Throttling", (&ProviderError{Code: "Throttling"}).Error())
}

func TestNewClientFactory(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")
	t.Setenv("AWS_CONFIG_FILE", t.TempDir()+"/config")
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", t.TempDir()+"/credentials")

	factory := NewClientFactory(Settings{Region: "eu-west-1"}, "rds", slog.New(slog.DiscardHandler),
		func(cfg aws.Config) string { return cfg.Region })

	region, err := factory(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "eu-west-1", region)

	region, err = factory(context.Background(), "ap-south-1")
	require.NoError(t, err)
	assert.Equal(t, "ap-south-1", region)
}
