// Package dispatch drives the per-batch pipeline: classify and extract each
// record, render it for the configured vendor, deliver it, and aggregate the
// per-record outcomes into one batch result.
package dispatch

import (
	"context"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"

	"awsnotify/internal/metrics"
	"awsnotify/internal/parse"
	"awsnotify/internal/render"
	"awsnotify/internal/types"
)

// Dispatcher processes one SNS batch. Records are independent: a parse or
// delivery failure marks that record failed and moves on, so one poison
// message cannot starve the rest of the batch.
type Dispatcher struct {
	parser    *parse.Parser
	renderer  render.Renderer
	sender    Sender
	metrics   metrics.Recorder
	logger    types.Logger
	logEvents bool
}

// New creates a Dispatcher.
func New(parser *parse.Parser, renderer render.Renderer, sender Sender, rec metrics.Recorder, logger types.Logger, logEvents bool) *Dispatcher {
	return &Dispatcher{
		parser:    parser,
		renderer:  renderer,
		sender:    sender,
		metrics:   rec,
		logger:    logger,
		logEvents: logEvents,
	}
}

// Process handles every record in order and reports whether all of them
// succeeded. Failure detail is log-only; the caller turns the aggregate
// boolean into the invocation outcome.
func (d *Dispatcher) Process(ctx context.Context, records []events.SNSEventRecord) bool {
	ok := true
	for _, record := range records {
		if !d.processRecord(ctx, record) {
			ok = false
		}
	}
	return ok
}

func (d *Dispatcher) processRecord(ctx context.Context, record events.SNSEventRecord) bool {
	logger := d.logger.With("record_id", uuid.NewString(), "message_id", record.SNS.MessageID)

	topicRegion, err := topicARNRegion(record.SNS.TopicArn)
	if err != nil {
		logger.Error("record has malformed topic ARN",
			"topic_arn", record.SNS.TopicArn,
			"error", err.Error(),
		)
		d.metrics.RecordProcessed(ctx, types.ActionUnknown, metrics.ResultParseFailed)
		return false
	}

	result, err := d.parser.Parse(record.SNS.Message, topicRegion, record.SNS.MessageAttributes, record.SNS.Subject)
	if err != nil {
		logger.Error("failed to parse record",
			"subject", record.SNS.Subject,
			"error", err.Error(),
		)
		d.metrics.RecordProcessed(ctx, types.ActionUnknown, metrics.ResultParseFailed)
		return false
	}
	logger = logger.With("action", string(result.Action))

	if result.Action == types.ActionUnknown {
		// Still delivered via the fallback card, but worth a distinct
		// signal from a delivery failure.
		logger.Warn("unrecognized event shape, using fallback card",
			"subject", record.SNS.Subject,
		)
	}

	payload, err := d.renderer.Render(result.Fact, result.Original, record.SNS.Subject)
	if err != nil {
		logger.Error("failed to render record", "error", err.Error())
		d.metrics.RecordProcessed(ctx, result.Action, metrics.ResultParseFailed)
		return false
	}
	if d.logEvents {
		logger.Info("rendered webhook payload", "payload", string(payload))
	}

	start := time.Now()
	resp, err := d.sender.Send(ctx, payload)
	d.metrics.RecordLatency(ctx, d.renderer.Vendor(), time.Since(start))
	if err != nil {
		logger.Error("webhook delivery failed", "error", err.Error())
		d.metrics.RecordProcessed(ctx, result.Action, metrics.ResultSendFailed)
		return false
	}

	if resp.Code != d.renderer.SuccessCode() {
		logger.Error("webhook returned unexpected status",
			"status", resp.Code,
			"expected", d.renderer.SuccessCode(),
			"info", resp.Info,
		)
		d.metrics.RecordProcessed(ctx, result.Action, metrics.ResultSendFailed)
		return false
	}

	d.metrics.RecordProcessed(ctx, result.Action, metrics.ResultDelivered)
	return true
}

// topicARNRegion pulls the region out of an SNS topic ARN
// (arn:aws:sns:<region>:<account>:<topic>).
func topicARNRegion(topicARN string) (string, error) {
	parts := strings.Split(topicARN, ":")
	if len(parts) < 4 {
		return "", types.NewAppError(types.ErrCodeParseBadEnvelope,
			"topic ARN has too few segments", nil)
	}
	return parts[3], nil
}
