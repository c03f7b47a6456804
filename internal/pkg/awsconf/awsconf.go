// Package awsconf builds the aws.Config shared by the Bedrock, S3 and DynamoDB clients.
package awsconf

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"

	appconfig "github.com/ignite/insight-engine/internal/config"
)

// Load resolves region, profile and optional static keys into an aws.Config.
// Static keys win over a profile; with neither, the default credential chain
// (env, shared files, IAM role) applies.
func Load(ctx context.Context, cfg appconfig.AWSConfig) (aws.Config, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}
	switch {
	case cfg.AccessKey != "" && cfg.SecretKey != "":
		creds := credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")
		opts = append(opts, config.WithCredentialsProvider(creds))
	case cfg.GetProfile() != "":
		opts = append(opts, config.WithSharedConfigProfile(cfg.GetProfile()))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("loading AWS config: %w", err)
	}
	return awsCfg, nil
}

// HasCredentials reports whether the config can produce credentials right now.
func HasCredentials(ctx context.Context, awsCfg aws.Config) bool {
	if awsCfg.Credentials == nil {
		return false
	}
	creds, err := awsCfg.Credentials.Retrieve(ctx)
	return err == nil && creds.HasKeys()
}
