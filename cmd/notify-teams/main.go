// Package main is the entrypoint for the Microsoft Teams notification
// Lambda.
//
// Identical pipeline to the Slack function but renders Adaptive Card
// payloads and expects the Teams workflow webhook's 202 on success.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"awsnotify/internal/app"
	"awsnotify/internal/dispatch"
	"awsnotify/internal/render"
)

func main() {
	rt, err := app.Bootstrap(context.Background())
	if err != nil {
		slog.Error("bootstrap failed", "error", err.Error())
		os.Exit(1)
	}

	cfg := rt.Config
	renderer := render.NewTeams()
	sender := dispatch.NewWebhookSender(rt.WebhookURL, cfg.Webhook.Timeout, cfg.Webhook.UserAgent)
	dispatcher := dispatch.New(rt.Parser, renderer, sender, rt.Metrics, rt.Logger, cfg.LogEvents)

	lambda.Start(func(ctx context.Context, event events.SNSEvent) error {
		if cfg.LogEvents {
			rt.Logger.Info("received batch", "records", len(event.Records))
		}
		if !dispatcher.Process(ctx, event.Records) {
			return errors.New("one or more records failed delivery")
		}
		return nil
	})
}
