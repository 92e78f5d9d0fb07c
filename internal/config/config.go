// Package config defines the configuration for the notification pipeline.
// Configuration is loaded once at process initialization (Lambda cold start)
// and is immutable thereafter. It follows 12-Factor principles: everything
// comes from the environment, with a .env file honored for local runs.
package config

import (
	"time"

	"awsnotify/internal/types"
)

// SecretString is an alias for types.SecretString, the redacted secret type
// used to keep the webhook URL out of logs and config dumps.
type SecretString = types.SecretString

// Config is the top-level configuration struct. It is populated once during
// process initialization and never modified. Components receive only the
// sub-structs they require.
type Config struct {
	Service  string `envconfig:"SERVICE_NAME" default:"aws-notify"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`

	// LogEvents enables raw event and payload logging. Off by default
	// because payloads may carry sensitive resource identifiers.
	LogEvents bool `envconfig:"LOG_EVENTS" default:"false"`

	AWS      AWSConfig
	Webhook  WebhookConfig
	Accounts AccountsConfig
	Broker   BrokerConfig
	Slack    SlackConfig
	Metrics  MetricsConfig
}

// AWSConfig holds regional configuration for the SDK clients.
type AWSConfig struct {
	Region string `envconfig:"AWS_REGION" default:"us-east-1"`
}

// WebhookConfig holds settings for the outbound webhook delivery client.
// URL may be either a plaintext https URL or a base64 KMS ciphertext; the
// secrets package resolves it at cold start.
type WebhookConfig struct {
	URL       SecretString  `envconfig:"WEBHOOK_URL" validate:"required"`
	Timeout   time.Duration `envconfig:"WEBHOOK_TIMEOUT" default:"10s"`
	UserAgent string        `envconfig:"WEBHOOK_USER_AGENT" default:"aws-notify/1.0"`
}

// AccountsConfig holds the account directory bootstrap settings. The SSM
// parameter holds a JSON object mapping account ids to display names. An
// empty ARN disables the directory (all lookups resolve to "").
type AccountsConfig struct {
	ParameterARN     string        `envconfig:"ACCOUNT_NAMES_PARAMETER_ARN"`
	BootstrapTimeout time.Duration `envconfig:"ACCOUNT_NAMES_TIMEOUT" default:"3s"`
}

// BrokerConfig holds the optional identity-broker redirect settings. When
// URL is set, console deep-links are rewritten through the broker's
// console-access flow using the given role.
type BrokerConfig struct {
	URL  string `envconfig:"IDENTITY_CENTER_URL"`
	Role string `envconfig:"IDENTITY_CENTER_ROLE"`
}

// SlackConfig holds the Slack message header fields. Only used by the Slack
// renderer; the Teams renderer ignores it.
type SlackConfig struct {
	Channel  string `envconfig:"SLACK_CHANNEL"`
	Username string `envconfig:"SLACK_USERNAME"`
	Emoji    string `envconfig:"SLACK_EMOJI"`
}

// MetricsConfig holds the CloudWatch metric emission settings.
type MetricsConfig struct {
	Namespace string `envconfig:"METRIC_NAMESPACE" default:"aws-notify"`
	Enabled   bool   `envconfig:"METRICS_ENABLED" default:"true"`
}
