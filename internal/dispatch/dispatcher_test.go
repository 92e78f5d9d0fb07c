package dispatch

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"awsnotify/internal/accounts"
	"awsnotify/internal/metrics"
	"awsnotify/internal/parse"
	"awsnotify/internal/render"
	"awsnotify/internal/types"
)

// fakeSender records every payload and returns a scripted status code per
// call.
type fakeSender struct {
	codes    []int
	payloads [][]byte
}

func (f *fakeSender) Send(_ context.Context, payload []byte) (*types.DeliveryResponse, error) {
	f.payloads = append(f.payloads, payload)
	code := 200
	if len(f.codes) >= len(f.payloads) {
		code = f.codes[len(f.payloads)-1]
	}
	return &types.DeliveryResponse{Code: code}, nil
}

func testDispatcher(sender Sender) *Dispatcher {
	parser := parse.NewParser(accounts.FromMap(nil), parse.NewURLBuilder("", ""))
	renderer := render.NewSlack("#alerts", "notifier", "")
	return New(parser, renderer, sender, metrics.NopRecorder{}, types.NopLogger{}, false)
}

func cloudWatchRecord(t *testing.T, name string) events.SNSEventRecord {
	t.Helper()
	message, err := json.Marshal(map[string]any{
		"AlarmName":        name,
		"AlarmDescription": "CPU above 90%",
		"AWSAccountId":     "111122223333",
		"NewStateValue":    "ALARM",
		"OldStateValue":    "OK",
		"NewStateReason":   "Threshold Crossed",
		"StateChangeTime":  "2024-03-01T12:00:00.000+0000",
		"Region":           "EU (Ireland)",
		"AlarmArn":         "arn:aws:cloudwatch:eu-west-1:111122223333:alarm:" + name,
	})
	require.NoError(t, err)

	return events.SNSEventRecord{
		SNS: events.SNSEntity{
			MessageID: "msg-" + name,
			TopicArn:  "arn:aws:sns:eu-west-1:111122223333:ops-notifications",
			Message:   string(message),
		},
	}
}

func TestProcessAllRecordsSucceed(t *testing.T) {
	sender := &fakeSender{}
	d := testDispatcher(sender)

	records := []events.SNSEventRecord{
		cloudWatchRecord(t, "alarm-1"),
		cloudWatchRecord(t, "alarm-2"),
	}

	assert.True(t, d.Process(context.Background(), records))
	assert.Len(t, sender.payloads, 2)
}

func TestProcessPartialFailureIsolation(t *testing.T) {
	// Record 2's delivery fails; 1 and 3 must still be delivered and the
	// batch as a whole must report failure.
	sender := &fakeSender{codes: []int{200, 500, 200}}
	d := testDispatcher(sender)

	records := []events.SNSEventRecord{
		cloudWatchRecord(t, "alarm-1"),
		cloudWatchRecord(t, "alarm-2"),
		cloudWatchRecord(t, "alarm-3"),
	}

	assert.False(t, d.Process(context.Background(), records))
	assert.Len(t, sender.payloads, 3)
}

func TestProcessUnknownRecordStillDelivered(t *testing.T) {
	sender := &fakeSender{}
	d := testDispatcher(sender)

	records := []events.SNSEventRecord{
		{
			SNS: events.SNSEntity{
				TopicArn: "arn:aws:sns:eu-west-1:111122223333:ops-notifications",
				Subject:  "Something new from AWS",
				Message:  `{"greeting":"hello"}`,
			},
		},
	}

	assert.True(t, d.Process(context.Background(), records))
	require.Len(t, sender.payloads, 1)
	assert.Contains(t, string(sender.payloads[0]), "Something new from AWS")
}

func TestProcessParseFailureDoesNotStopBatch(t *testing.T) {
	sender := &fakeSender{}
	d := testDispatcher(sender)

	// A recognized CloudWatch shape missing a required field fails that
	// record; the following record is still processed.
	broken := events.SNSEventRecord{
		SNS: events.SNSEntity{
			TopicArn: "arn:aws:sns:eu-west-1:111122223333:ops-notifications",
			Message:  `{"AlarmName":"half-an-alarm"}`,
		},
	}
	records := []events.SNSEventRecord{broken, cloudWatchRecord(t, "alarm-2")}

	assert.False(t, d.Process(context.Background(), records))
	assert.Len(t, sender.payloads, 1)
}

func TestProcessMalformedTopicARN(t *testing.T) {
	sender := &fakeSender{}
	d := testDispatcher(sender)

	records := []events.SNSEventRecord{
		{SNS: events.SNSEntity{TopicArn: "not-an-arn", Message: "{}"}},
	}

	assert.False(t, d.Process(context.Background(), records))
	assert.Empty(t, sender.payloads)
}

func TestProcessEmptyBatch(t *testing.T) {
	d := testDispatcher(&fakeSender{})
	assert.True(t, d.Process(context.Background(), nil))
}

func TestTopicARNRegion(t *testing.T) {
	region, err := topicARNRegion("arn:aws:sns:us-gov-west-1:111122223333:topic")
	require.NoError(t, err)
	assert.Equal(t, "us-gov-west-1", region)

	_, err = topicARNRegion("arn:aws")
	assert.Error(t, err)
}
