package main

import (
	"context"
	"log"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"taskline/internal/auth"
	"taskline/internal/config"
)

func main() {
	cfg := config.Load()
	if err := cfg.Require("USER_POOL_ID"); err != nil {
		log.Fatalf("config: %v", err)
	}

	verifier := &auth.Verifier{
		Keys: &auth.KeySet{
			URL: cfg.JWKSURL(),
			TTL: cfg.JWKSTTL,
		},
	}
	lambda.Start(func(ctx context.Context, req events.APIGatewayCustomAuthorizerRequest) (events.APIGatewayCustomAuthorizerResponse, error) {
		return auth.Authorize(ctx, verifier, req), nil
	})
}
