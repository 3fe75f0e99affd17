// Package rdstool exposes AWS RDS metadata lookups as tools.
package rdstool

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rds"
	"github.com/aws/aws-sdk-go-v2/service/rds/types"

	"github.com/skosovsky/toolsrv"
	"github.com/skosovsky/toolsrv/internal/awsutil"
)

const notAvailable = "N/A"

// API is the subset of *rds.Client used by the tools.
type API interface {
	rds.DescribeDBInstancesAPIClient
	rds.DescribeDBEngineVersionsAPIClient
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

// Operator creates a region-scoped RDS client for every call.
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
		o.newClient = awsutil.NewClientFactory(settings, "rds", o.logger, func(cfg aws.Config) API {
			return rds.NewFromConfig(cfg)
		})
	}
	o.logger.Info("RDS operator initialized")
	return o
}

// InstanceSummary is one entry of list_db_instances.
type InstanceSummary struct {
	Identifier string `json:"identifier"`
	Engine     string `json:"engine"`
	Status     string `json:"status"`
	Endpoint   string `json:"endpoint"`
	Port       *int32 `json:"port"`
}

// InstancesResult is returned by list_db_instances.
type InstancesResult struct {
	Instances []InstanceSummary `json:"instances"`
}

// InstanceDetail is the instance returned by describe_db_instance.
type InstanceDetail struct {
	Identifier         string `json:"identifier"`
	Engine             string `json:"engine"`
	EngineVersion      string `json:"engine_version"`
	Status             string `json:"status"`
	InstanceClass      string `json:"instance_class"`
	AllocatedStorage   int32  `json:"allocated_storage"`
	Endpoint           string `json:"endpoint"`
	Port               *int32 `json:"port"`
	MultiAZ            bool   `json:"multi_az"`
	PubliclyAccessible bool   `json:"publicly_accessible"`
	StorageType        string `json:"storage_type"`
	VpcID              string `json:"vpc_id"`
}

// DescribeResult is returned by describe_db_instance.
type DescribeResult struct {
	Instance InstanceDetail `json:"instance"`
}

// EngineVersion is one entry of list_db_engine_versions.
type EngineVersion struct {
	Engine                 string `json:"engine"`
	Version                string `json:"version"`
	Description            string `json:"description"`
	DefaultParameterFamily string `json:"default_parameter_family"`
}

// VersionsResult is returned by list_db_engine_versions.
type VersionsResult struct {
	Versions []EngineVersion `json:"versions"`
}

func orNA(s *string) string {
	if s == nil || *s == "" {
		return notAvailable
	}
	return *s
}

func endpoint(in types.DBInstance) (string, *int32) {
	if in.Endpoint == nil {
		return notAvailable, nil
	}
	return orNA(in.Endpoint.Address), in.Endpoint.Port
}

func summarize(in types.DBInstance) InstanceSummary {
	addr, port := endpoint(in)
	return InstanceSummary{
		Identifier: aws.ToString(in.DBInstanceIdentifier),
		Engine:     aws.ToString(in.Engine),
		Status:     aws.ToString(in.DBInstanceStatus),
		Endpoint:   addr,
		Port:       port,
	}
}

func detail(in types.DBInstance) InstanceDetail {
	addr, port := endpoint(in)
	vpc := notAvailable
	if in.DBSubnetGroup != nil {
		vpc = orNA(in.DBSubnetGroup.VpcId)
	}
	return InstanceDetail{
		Identifier:         aws.ToString(in.DBInstanceIdentifier),
		Engine:             aws.ToString(in.Engine),
		EngineVersion:      aws.ToString(in.EngineVersion),
		Status:             aws.ToString(in.DBInstanceStatus),
		InstanceClass:      aws.ToString(in.DBInstanceClass),
		AllocatedStorage:   aws.ToInt32(in.AllocatedStorage),
		Endpoint:           addr,
		Port:               port,
		MultiAZ:            aws.ToBool(in.MultiAZ),
		PubliclyAccessible: aws.ToBool(in.PubliclyAccessible),
		StorageType:        aws.ToString(in.StorageType),
		VpcID:              vpc,
	}
}

// ListInstances lists every DB instance visible in region.
func (o *Operator) ListInstances(ctx context.Context, region string) (InstancesResult, error) {
	client, err := o.newClient(ctx, region)
	if err != nil {
		return InstancesResult{}, toolsrv.Downstream("list db instances", err)
	}
	out := InstancesResult{Instances: []InstanceSummary{}}
	pages := rds.NewDescribeDBInstancesPaginator(client, &rds.DescribeDBInstancesInput{})
	for pages.HasMorePages() {
		page, err := pages.NextPage(ctx)
		if err != nil {
			o.logger.ErrorContext(ctx, "error listing RDS instances", "error", err)
			return InstancesResult{}, awsutil.Normalize("list db instances", err)
		}
		for _, in := range page.DBInstances {
			out.Instances = append(out.Instances, summarize(in))
		}
	}
	o.logger.InfoContext(ctx, "listed RDS instances", "count", len(out.Instances))
	return out, nil
}

// DescribeInstance returns the details of one DB instance.
func (o *Operator) DescribeInstance(ctx context.Context, id, region string) (DescribeResult, error) {
	client, err := o.newClient(ctx, region)
	if err != nil {
		return DescribeResult{}, toolsrv.Downstream("describe db instance", err)
	}
	resp, err := client.DescribeDBInstances(ctx, &rds.DescribeDBInstancesInput{
		DBInstanceIdentifier: aws.String(id),
	})
	var notFound *types.DBInstanceNotFoundFault
	switch {
	case errors.As(err, &notFound):
		o.logger.ErrorContext(ctx, "RDS instance not found", "instance_id", id)
		return DescribeResult{}, awsutil.NotFound("instance", id)
	case err != nil:
		o.logger.ErrorContext(ctx, "error describing RDS instance", "instance_id", id, "error", err)
		return DescribeResult{}, awsutil.Normalize("describe db instance", err)
	case len(resp.DBInstances) == 0:
		return DescribeResult{}, awsutil.NotFound("instance", id)
	}
	o.logger.InfoContext(ctx, "retrieved RDS instance details", "instance_id", id)
	return DescribeResult{Instance: detail(resp.DBInstances[0])}, nil
}

// ListEngineVersions lists the available versions of engine.
func (o *Operator) ListEngineVersions(ctx context.Context, engine, region string) (VersionsResult, error) {
	client, err := o.newClient(ctx, region)
	if err != nil {
		return VersionsResult{}, toolsrv.Downstream("list db engine versions", err)
	}
	out := VersionsResult{Versions: []EngineVersion{}}
	pages := rds.NewDescribeDBEngineVersionsPaginator(client, &rds.DescribeDBEngineVersionsInput{
		Engine: aws.String(engine),
	})
	for pages.HasMorePages() {
		page, err := pages.NextPage(ctx)
		if err != nil {
			o.logger.ErrorContext(ctx, "error listing engine versions", "engine", engine, "error", err)
			return VersionsResult{}, awsutil.Normalize("list db engine versions", err)
		}
		for _, v := range page.DBEngineVersions {
			out.Versions = append(out.Versions, EngineVersion{
				Engine:                 aws.ToString(v.Engine),
				Version:                aws.ToString(v.EngineVersion),
				Description:            orNA(v.DBEngineVersionDescription),
				DefaultParameterFamily: orNA(v.DBParameterGroupFamily),
			})
		}
	}
	o.logger.InfoContext(ctx, "listed engine versions", "engine", engine, "count", len(out.Versions))
	return out, nil
}

var regionParam = toolsrv.ParameterSpec{
	Name: "region", Type: toolsrv.TypeString, Default: "", Description: "AWS region (optional)",
}

// Register adds the RDS tools backed by op to reg.
func Register(reg *toolsrv.Registry, op *Operator) error {
	tag := toolsrv.WithTags("aws", "rds")
	if err := toolsrv.RegisterFunc(reg, toolsrv.ToolDescriptor{
		Name:        "list_db_instances",
		Description: "List RDS instances in the specified region",
		Parameters:  []toolsrv.ParameterSpec{regionParam},
	}, func(ctx context.Context, args toolsrv.Args) (InstancesResult, error) {
		return op.ListInstances(ctx, args.String("region"))
	}, tag); err != nil {
		return err
	}
	if err := toolsrv.RegisterFunc(reg, toolsrv.ToolDescriptor{
		Name:        "describe_db_instance",
		Description: "Get detailed information about an RDS instance",
		Parameters: []toolsrv.ParameterSpec{
			{Name: "instance_id", Type: toolsrv.TypeString, Required: true, Description: "RDS instance identifier"},
			regionParam,
		},
	}, func(ctx context.Context, args toolsrv.Args) (DescribeResult, error) {
		return op.DescribeInstance(ctx, args.String("instance_id"), args.String("region"))
	}, tag); err != nil {
		return err
	}
	return toolsrv.RegisterFunc(reg, toolsrv.ToolDescriptor{
		Name:        "list_db_engine_versions",
		Description: "List available engine versions for a specific database engine",
		Parameters: []toolsrv.ParameterSpec{
			{Name: "engine", Type: toolsrv.TypeString, Required: true, Description: "Database engine (e.g., mysql, postgres)"},
			regionParam,
		},
	}, func(ctx context.Context, args toolsrv.Args) (VersionsResult, error) {
		return op.ListEngineVersions(ctx, args.String("engine"), args.String("region"))
	}, tag)
}
