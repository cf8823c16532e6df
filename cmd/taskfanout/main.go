package main

import (
	"context"
	"log"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"taskline/internal/archive"
	"taskline/internal/config"
	"taskline/internal/fanout"
	"taskline/internal/logging"
	"taskline/internal/store"
)

func main() {
	cfg := config.Load()
	if err := cfg.Require("DYNAMODB_TABLE_NAME", "S3_BUCKET_NAME"); err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.New(cfg.LogLevel)
	defer logger.Sync()

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background())
	if err != nil {
		log.Fatalf("load aws config: %v", err)
	}

	p := &fanout.Pipeline{
		Store: store.New(dynamodb.NewFromConfig(awsCfg), cfg.TableName, cfg.GSIName),
		Archive: &archive.Archive{
			Client: s3.NewFromConfig(awsCfg),
			Bucket: cfg.ArchiveBucket,
		},
		Log: logger,
	}
	lambda.Start(func(ctx context.Context, env fanout.Envelope) (fanout.Summary, error) {
		return p.Process(ctx, env), nil
	})
}
