package cloud

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	aws_config "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/cloudtrail"
	"github.com/aws/aws-sdk-go-v2/service/glue"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type Config struct {
	Region          string
	S3Endpoint      string
	AccessKeyID     string
	SecretAccessKey string
}

// Clients are built once in main and handed to the components that need them.
type Clients struct {
	S3         *s3.Client
	Glue       *glue.Client
	CloudTrail *cloudtrail.Client
}

func LoadAWSConfig(ctx context.Context, cfg Config) (aws.Config, error) {
	opts := []func(*aws_config.LoadOptions) error{}

	if cfg.Region != "" {
		opts = append(opts, aws_config.WithRegion(cfg.Region))
	}

	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, aws_config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := aws_config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load aws config: %w", err)
	}
	return awsCfg, nil
}

func NewS3Client(awsCfg aws.Config, endpoint string) *s3.Client {
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			// Only S3 is redirected; Glue and CloudTrail always talk to AWS.
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true // Needed for MinIO
		}
	})
}

func NewClients(ctx context.Context, cfg Config) (*Clients, error) {
	awsCfg, err := LoadAWSConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return &Clients{
		S3:         NewS3Client(awsCfg, cfg.S3Endpoint),
		Glue:       glue.NewFromConfig(awsCfg),
		CloudTrail: cloudtrail.NewFromConfig(awsCfg),
	}, nil
}
