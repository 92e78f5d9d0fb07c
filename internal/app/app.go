// Package app wires the cold-start bootstrap shared by the notification
// Lambda entrypoints: configuration, logging, AWS clients, the account
// directory and the webhook URL secret.
package app

import (
	"context"
	"log/slog"
	"os"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/aws/aws-sdk-go-v2/service/ssm"

	"awsnotify/internal/accounts"
	"awsnotify/internal/config"
	"awsnotify/internal/metrics"
	"awsnotify/internal/parse"
	"awsnotify/internal/secrets"
	"awsnotify/internal/types"
)

// slogAdapter wraps *slog.Logger to implement the types.Logger interface.
// slog satisfies Info, Warn and Error directly but its With returns
// *slog.Logger, so an adapter is necessary.
type slogAdapter struct {
	logger *slog.Logger
}

func (a *slogAdapter) Info(msg string, args ...any)  { a.logger.Info(msg, args...) }
func (a *slogAdapter) Warn(msg string, args ...any)  { a.logger.Warn(msg, args...) }
func (a *slogAdapter) Error(msg string, args ...any) { a.logger.Error(msg, args...) }
func (a *slogAdapter) With(args ...any) types.Logger {
	return &slogAdapter{logger: a.logger.With(args...)}
}

var _ types.Logger = (*slogAdapter)(nil)

// NewLogger builds the process-wide structured JSON logger.
func NewLogger(level, service string) types.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
	return &slogAdapter{logger: logger.With("service", service)}
}

// Runtime holds the cold-start-initialized dependencies a handler needs.
// Everything here is read-only after Bootstrap returns.
type Runtime struct {
	Config     *config.Config
	Logger     types.Logger
	Accounts   *accounts.Directory
	WebhookURL types.SecretString
	Metrics    metrics.Recorder
	Parser     *parse.Parser
}

// Bootstrap performs the cold-start initialization sequence. The account
// directory load degrades to an empty directory on failure; an unresolvable
// webhook URL is fatal because nothing can be delivered without it.
func Bootstrap(ctx context.Context) (*Runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := NewLogger(cfg.LogLevel, cfg.Service)
	logger.Info("initializing (cold start)")

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWS.Region))
	if err != nil {
		return nil, err
	}

	bootstrapCtx, cancel := context.WithTimeout(ctx, cfg.Accounts.BootstrapTimeout)
	defer cancel()
	dir := accounts.Load(bootstrapCtx, ssm.NewFromConfig(awsCfg), cfg.Accounts.ParameterARN, logger)

	webhookURL, err := secrets.ResolveWebhookURL(ctx, kms.NewFromConfig(awsCfg), cfg.Webhook.URL)
	if err != nil {
		return nil, err
	}

	var rec metrics.Recorder = metrics.NopRecorder{}
	if cfg.Metrics.Enabled {
		rec = metrics.NewCloudWatchRecorder(cloudwatch.NewFromConfig(awsCfg), cfg.Metrics.Namespace, logger)
	}

	parser := parse.NewParser(dir, parse.NewURLBuilder(cfg.Broker.URL, cfg.Broker.Role))

	logger.Info("initialized",
		"accounts", dir.Len(),
		"metrics_enabled", cfg.Metrics.Enabled,
		"broker_configured", cfg.Broker.URL != "",
	)

	return &Runtime{
		Config:     cfg,
		Logger:     logger,
		Accounts:   dir,
		WebhookURL: webhookURL,
		Metrics:    rec,
		Parser:     parser,
	}, nil
}
