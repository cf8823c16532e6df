package main

import (
	"context"
	"log"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"taskline/internal/config"
	"taskline/internal/handler"
	"taskline/internal/logging"
	"taskline/internal/store"
)

func main() {
	cfg := config.Load()
	if err := cfg.Require("DYNAMODB_TABLE_NAME"); err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.New(cfg.LogLevel)
	defer logger.Sync()

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background())
	if err != nil {
		log.Fatalf("load aws config: %v", err)
	}

	h := &handler.Handlers{
		Store: store.New(dynamodb.NewFromConfig(awsCfg), cfg.TableName, cfg.GSIName),
		Log:   logger,
	}
	lambda.Start(func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		return h.Delete(ctx, req), nil
	})
}
