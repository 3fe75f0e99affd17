// Package s3tool exposes AWS S3 bucket and object listing as tools.
package s3tool

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/skosovsky/toolsrv"
	"github.com/skosovsky/toolsrv/internal/awsutil"
)

const (
	// DefaultRegion is reported for buckets without a location constraint.
	DefaultRegion = "us-east-1"
	// DefaultObjectLimit caps list_objects when no limit is given.
	DefaultObjectLimit = 1000
	maxKeysPerPage     = 1000
)

// API is the subset of *s3.Client used by the tools.
type API interface {
	ListBuckets(ctx context.Context, in *s3.ListBucketsInput, optFns ...func(*s3.Options)) (*s3.ListBucketsOutput, error)
	GetBucketLocation(ctx context.Context, in *s3.GetBucketLocationInput, optFns ...func(*s3.Options)) (*s3.GetBucketLocationOutput, error)
	s3.ListObjectsV2APIClient
}

// Option configures an Operator.
type Option func(*Operator)

// WithClientFactory replaces the SDK client factory (used by tests).
func WithClientFactory(f awsutil.ClientFactory[API]) Option {
	return func(o *Operator) {
		o.newClient = f
	}
}

// WithLogger sets the operator logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Operator) {
		o.logger = logger
	}
}

// Operator creates a region-scoped S3 client for every call.
type Operator struct {
	newClient awsutil.ClientFactory[API]
	logger    *slog.Logger
}

// New creates an Operator using the SDK default credential chain and settings.
func New(settings awsutil.Settings, opts ...Option) *Operator {
	o := &Operator{}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.newClient == nil {
		o.newClient = awsutil.NewClientFactory(settings, "s3", o.logger, func(cfg aws.Config) API {
			return s3.NewFromConfig(cfg)
		})
	}
	o.logger.Info("S3 operator initialized")
	return o
}

// BucketsResult is returned by list_buckets.
type BucketsResult struct {
	Buckets []string `json:"buckets"`
}

// Object is one entry of list_objects.
type Object struct {
	Key          string `json:"key"`
	Size         int64  `json:"size"`
	LastModified string `json:"last_modified"`
}

// ObjectsResult is returned by list_objects.
type ObjectsResult struct {
	Objects []Object `json:"objects"`
}

// LocationResult is returned by get_bucket_location.
type LocationResult struct {
	Region string `json:"region"`
}

// ListBuckets lists the buckets owned by the caller.
func (o *Operator) ListBuckets(ctx context.Context, region string) (BucketsResult, error) {
	client, err := o.newClient(ctx, region)
	if err != nil {
		return BucketsResult{}, toolsrv.Downstream("list buckets", err)
	}
	resp, err := client.ListBuckets(ctx, &s3.ListBucketsInput{})
	if err != nil {
		o.logger.ErrorContext(ctx, "error listing buckets", "error", err)
		return BucketsResult{}, awsutil.Normalize("list buckets", err)
	}
	out := BucketsResult{Buckets: make([]string, 0, len(resp.Buckets))}
	for _, b := range resp.Buckets {
		out.Buckets = append(out.Buckets, aws.ToString(b.Name))
	}
	o.logger.InfoContext(ctx, "listed buckets", "count", len(out.Buckets))
	return out, nil
}

// ListObjects lists up to limit objects of bucket whose keys start with prefix.
func (o *Operator) ListObjects(ctx context.Context, bucket, prefix, region string, limit int64) (ObjectsResult, error) {
	if limit <= 0 {
		return ObjectsResult{}, toolsrv.Validationf("limit must be positive, got %d", limit)
	}
	client, err := o.newClient(ctx, region)
	if err != nil {
		return ObjectsResult{}, toolsrv.Downstream("list objects", err)
	}
	in := &s3.ListObjectsV2Input{
		Bucket:  aws.String(bucket),
		MaxKeys: aws.Int32(int32(min(limit, maxKeysPerPage))),
	}
	if prefix != "" {
		in.Prefix = aws.String(prefix)
	}
	out := ObjectsResult{Objects: []Object{}}
	pages := s3.NewListObjectsV2Paginator(client, in)
	for pages.HasMorePages() && int64(len(out.Objects)) < limit {
		page, err := pages.NextPage(ctx)
		if err != nil {
			o.logger.ErrorContext(ctx, "error listing objects", "bucket", bucket, "error", err)
			return ObjectsResult{}, bucketError("list objects", bucket, err)
		}
		for _, obj := range page.Contents {
			if int64(len(out.Objects)) == limit {
				break
			}
			out.Objects = append(out.Objects, toObject(obj))
		}
	}
	o.logger.InfoContext(ctx, "listed objects", "bucket", bucket, "count", len(out.Objects))
	return out, nil
}

func toObject(obj types.Object) Object {
	var modified string
	if obj.LastModified != nil {
		modified = obj.LastModified.UTC().Format(time.RFC3339)
	}
	return Object{
		Key:          aws.ToString(obj.Key),
		Size:         aws.ToInt64(obj.Size),
		LastModified: modified,
	}
}

// BucketLocation reports the region of bucket, using the default-region client.
func (o *Operator) BucketLocation(ctx context.Context, bucket string) (LocationResult, error) {
	client, err := o.newClient(ctx, "")
	if err != nil {
		return LocationResult{}, toolsrv.Downstream("get bucket location", err)
	}
	resp, err := client.GetBucketLocation(ctx, &s3.GetBucketLocationInput{Bucket: aws.String(bucket)})
	if err != nil {
		o.logger.ErrorContext(ctx, "error getting bucket location", "bucket", bucket, "error", err)
		return LocationResult{}, bucketError("get bucket location", bucket, err)
	}
	region := string(resp.LocationConstraint)
	if region == "" {
		region = DefaultRegion
	}
	o.logger.InfoContext(ctx, "resolved bucket location", "bucket", bucket, "region", region)
	return LocationResult{Region: region}, nil
}

func bucketError(op, bucket string, err error) error {
	var noSuch *types.NoSuchBucket
	if errors.As(err, &noSuch) || awsutil.HasCode(err, "NoSuchBucket") {
		return awsutil.NotFound("bucket", bucket)
	}
	return awsutil.Normalize(op, err)
}

var regionParam = toolsrv.ParameterSpec{
	Name: "region", Type: toolsrv.TypeString, Default: "", Description: "AWS region (optional)",
}

// Register adds the S3 tools backed by op to reg.
func Register(reg *toolsrv.Registry, op *Operator) error {
	tag := toolsrv.WithTags("aws", "s3")
	bucketParam := toolsrv.ParameterSpec{
		Name: "bucket", Type: toolsrv.TypeString, Required: true, Description: "S3 bucket name",
	}
	if err := toolsrv.RegisterFunc(reg, toolsrv.ToolDescriptor{
		Name:        "list_buckets",
		Description: "List S3 buckets in the specified region",
		Parameters:  []toolsrv.ParameterSpec{regionParam},
	}, func(ctx context.Context, args toolsrv.Args) (BucketsResult, error) {
		return op.ListBuckets(ctx, args.String("region"))
	}, tag); err != nil {
		return err
	}
	if err := toolsrv.RegisterFunc(reg, toolsrv.ToolDescriptor{
		Name:        "list_objects",
		Description: "List objects in an S3 bucket with optional prefix",
		Parameters: []toolsrv.ParameterSpec{
			bucketParam,
			{Name: "prefix", Type: toolsrv.TypeString, Default: "", Description: "Object prefix (optional)"},
			regionParam,
			{Name: "limit", Type: toolsrv.TypeInteger, Default: DefaultObjectLimit, Description: "Maximum number of objects to return"},
		},
	}, func(ctx context.Context, args toolsrv.Args) (ObjectsResult, error) {
		return op.ListObjects(ctx, args.String("bucket"), args.String("prefix"), args.String("region"), args.Int("limit"))
	}, tag); err != nil {
		return err
	}
	return toolsrv.RegisterFunc(reg, toolsrv.ToolDescriptor{
		Name:        "get_bucket_location",
		Description: "Get the region where an S3 bucket is located",
		Parameters:  []toolsrv.ParameterSpec{bucketParam},
	}, func(ctx context.Context, args toolsrv.Args) (LocationResult, error) {
		return op.BucketLocation(ctx, args.String("bucket"))
	}, tag)
}
