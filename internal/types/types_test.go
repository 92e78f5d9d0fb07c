package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriorityTier(t *testing.T) {
	tests := []struct {
		priority Priority
		want     Tier
	}{
		{PriorityError, TierError},
		{PriorityHigh, TierError},
		{PriorityCritical, TierError},
		{PriorityWarning, TierWarning},
		{PriorityMedium, TierWarning},
		{PriorityLow, TierLow},
		{PriorityAdvisory, TierLow},
		{PriorityNoError, TierGood},
		{PriorityGood, TierGood},
		{PriorityInfo, TierGood},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.priority.Tier(), "priority %s", tt.priority)
	}
}

func TestSecretStringRedaction(t *testing.T) {
	secret := SecretString("https://hooks.slack.com/services/T000/B000/XXX")

	assert.NotContains(t, secret.String(), "hooks.slack.com")
	assert.NotContains(t, fmt.Sprintf("%v", secret), "hooks.slack.com")

	data, err := json.Marshal(struct {
		URL SecretString `json:"url"`
	}{URL: secret})
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hooks.slack.com")

	assert.Equal(t, "https://hooks.slack.com/services/T000/B000/XXX", secret.Unmask())
}

func TestAppError(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewAppError(ErrCodeDeliveryRequestFailed, "webhook request failed", cause)

	assert.Equal(t, "delivery_request_failed: webhook request failed", err.Error())
	assert.True(t, errors.Is(err, cause))
}

func TestNewMissingFieldError(t *testing.T) {
	err := NewMissingFieldError(ActionCloudWatch, "AlarmArn")
	assert.Equal(t, ErrCodeParseMissingField, err.Code)
	assert.Contains(t, err.Message, "AlarmArn")
	assert.Equal(t, "CloudWatch", err.Details["action"])
}
