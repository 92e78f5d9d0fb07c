package dispatch

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"

	"awsnotify/internal/types"
)

// maxResponseInfo caps how much of a webhook response body is carried into
// logs and DeliveryResponse.Info.
const maxResponseInfo = 4 << 10

// Sender delivers one rendered payload and reports the response status. A
// record gets exactly one delivery attempt; there is no retry queue.
type Sender interface {
	Send(ctx context.Context, payload []byte) (*types.DeliveryResponse, error)
}

// WebhookSender posts JSON payloads to a single webhook URL. A circuit
// breaker guards the endpoint so a dead webhook fails batches fast instead
// of burning the invocation timeout one record at a time.
type WebhookSender struct {
	client    *http.Client
	breaker   *gobreaker.CircuitBreaker[*http.Response]
	url       types.SecretString
	userAgent string
}

// NewWebhookSender creates a WebhookSender for the given webhook URL.
func NewWebhookSender(url types.SecretString, timeout time.Duration, userAgent string) *WebhookSender {
	cb := gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        "webhook",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil
		},
	})

	return &WebhookSender{
		client:    &http.Client{Timeout: timeout},
		breaker:   cb,
		url:       url,
		userAgent: userAgent,
	}
}

// Send posts the payload. A transport-level failure (network error, open
// breaker) returns an error; any HTTP response, success or not, returns a
// DeliveryResponse for the caller to judge against the vendor's expected
// status code.
func (s *WebhookSender) Send(ctx context.Context, payload []byte) (*types.DeliveryResponse, error) {
	resp, err := s.breaker.Execute(func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url.Unmask(), bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		if s.userAgent != "" {
			req.Header.Set("User-Agent", s.userAgent)
		}
		return s.client.Do(req)
	})
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeDeliveryRequestFailed,
			"webhook request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseInfo))
	if err != nil {
		body = nil
	}

	return &types.DeliveryResponse{
		Code: resp.StatusCode,
		Info: string(body),
	}, nil
}
