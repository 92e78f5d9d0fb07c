// Package metrics emits operational counters for the notification pipeline
// to CloudWatch.
package metrics

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"awsnotify/internal/types"
)

// Metric and dimension names.
const (
	MetricRecordProcessed = "RecordProcessed"
	MetricDeliveryLatency = "DeliveryLatency"

	DimAction = "Action"
	DimVendor = "Vendor"
	DimResult = "Result"
)

// Result labels a processed record's outcome on the RecordProcessed metric.
type Result string

const (
	ResultDelivered   Result = "delivered"
	ResultParseFailed Result = "parse_failed"
	ResultSendFailed  Result = "send_failed"
)

// Recorder emits pipeline metrics. Emission is fire-and-forget: failures are
// logged and never propagate into record processing.
type Recorder interface {
	RecordProcessed(ctx context.Context, action types.Action, result Result)
	RecordLatency(ctx context.Context, vendor types.Vendor, d time.Duration)
}

// CloudWatchClient abstracts the PutMetricData operation for testability.
type CloudWatchClient interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

var _ Recorder = (*CloudWatchRecorder)(nil)

// CloudWatchRecorder implements Recorder against CloudWatch PutMetricData.
type CloudWatchRecorder struct {
	client    CloudWatchClient
	namespace string
	logger    types.Logger
}

// NewCloudWatchRecorder creates a Recorder publishing to the given
// namespace.
func NewCloudWatchRecorder(client CloudWatchClient, namespace string, logger types.Logger) *CloudWatchRecorder {
	return &CloudWatchRecorder{client: client, namespace: namespace, logger: logger}
}

// RecordProcessed emits one RecordProcessed count with Action and Result
// dimensions.
func (m *CloudWatchRecorder) RecordProcessed(ctx context.Context, action types.Action, result Result) {
	input := &cloudwatch.PutMetricDataInput{
		Namespace: aws.String(m.namespace),
		MetricData: []cwtypes.MetricDatum{
			{
				MetricName: aws.String(MetricRecordProcessed),
				Value:      aws.Float64(1),
				Unit:       cwtypes.StandardUnitCount,
				Dimensions: []cwtypes.Dimension{
					{Name: aws.String(DimAction), Value: aws.String(string(action))},
					{Name: aws.String(DimResult), Value: aws.String(string(result))},
				},
			},
		},
	}

	if _, err := m.client.PutMetricData(ctx, input); err != nil {
		m.logger.Error("failed to record processed metric",
			"error", err.Error(),
			"action", string(action),
			"result", string(result),
		)
	}
}

// RecordLatency emits the webhook delivery latency in milliseconds with the
// Vendor dimension.
func (m *CloudWatchRecorder) RecordLatency(ctx context.Context, vendor types.Vendor, d time.Duration) {
	input := &cloudwatch.PutMetricDataInput{
		Namespace: aws.String(m.namespace),
		MetricData: []cwtypes.MetricDatum{
			{
				MetricName: aws.String(MetricDeliveryLatency),
				Value:      aws.Float64(float64(d.Milliseconds())),
				Unit:       cwtypes.StandardUnitMilliseconds,
				Dimensions: []cwtypes.Dimension{
					{Name: aws.String(DimVendor), Value: aws.String(string(vendor))},
				},
			},
		},
	}

	if _, err := m.client.PutMetricData(ctx, input); err != nil {
		m.logger.Error("failed to record latency metric",
			"error", err.Error(),
			"vendor", string(vendor),
		)
	}
}

// NopRecorder discards all metrics. Used when metric emission is disabled.
type NopRecorder struct{}

var _ Recorder = NopRecorder{}

func (NopRecorder) RecordProcessed(context.Context, types.Action, Result)      {}
func (NopRecorder) RecordLatency(context.Context, types.Vendor, time.Duration) {}
