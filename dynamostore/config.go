package dynamostore

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

const DefaultPKName = "pk"

type Config struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	// Endpoint overrides the DynamoDB endpoint, e.g. for DynamoDB Local.
	Endpoint string

	TableName string
	PKName    string
	SKName    string
	// Sequence is the counter id used to generate partition keys on create.
	// Empty disables generated keys.
	Sequence string
}

// ConfigFromEnv reads TXUTIL_* variables.
func ConfigFromEnv() Config {
	return Config{
		Region:          env("TXUTIL_REGION", ""),
		AccessKeyID:     env("TXUTIL_ACCESS_KEY_ID", ""),
		SecretAccessKey: env("TXUTIL_SECRET_ACCESS_KEY", ""),
		Endpoint:        env("TXUTIL_ENDPOINT", ""),
		TableName:       env("TXUTIL_TABLE", ""),
		PKName:          env("TXUTIL_PK", DefaultPKName),
		SKName:          env("TXUTIL_SK", ""),
		Sequence:        env("TXUTIL_SEQUENCE", ""),
	}
}

func (c Config) withDefaults() Config {
	if c.PKName == "" {
		c.PKName = DefaultPKName
	}
	return c
}

func (c Config) Validate() error {
	if c.TableName == "" {
		return fmt.Errorf("dynamostore: table name is empty")
	}
	if (c.AccessKeyID == "") != (c.SecretAccessKey == "") {
		return fmt.Errorf("dynamostore: access key id and secret access key must be set together")
	}
	return nil
}

// NewClient loads the default AWS config, overridden by whatever cfg sets.
func NewClient(ctx context.Context, cfg Config) (*dynamodb.Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var opts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(
				cfg.AccessKeyID,
				cfg.SecretAccessKey,
				"")))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("LoadDefaultConfig failed: %w", err)
	}

	return dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	}), nil
}

func env(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}
