package main

import (
	"context"
	"errors"
	"log"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"

	"github.com/noobzero/security-monkey/internal/handlers"
)

func handler(ctx context.Context, event events.ConfigEvent) error {
	log.Printf("incoming event : [%+v]\n", event)

	cfg, err := config.LoadDefaultConfig(context.Background(),
		config.WithRetryMode(aws.RetryModeStandard),
		config.WithRetryMaxAttempts(3))
	if err != nil {
		return errors.New("failed to load aws config : " + err.Error())
	}

	auditHandler, err := handlers.NewResourcePolicyAuditHandler(cfg)
	if err != nil {
		log.Printf("error : [%v]\n", err.Error())
		return err
	}

	err = auditHandler.Handle(ctx, handlers.ResourcePolicyAuditEvent{
		ConfigEvent: event,
	})
	if err != nil {
		log.Printf("error : [%v]\n", err.Error())
	}

	return nil
}

func main() {
	lambda.Start(handler)
}
