// Package accounts provides the process-wide account directory: a read-only
// mapping from AWS account id to a human-readable account name, sourced once
// per cold start from a single SSM parameter.
//
// The directory is deliberately best-effort. A missing parameter ARN, an SSM
// API failure, or a malformed parameter value all degrade to an empty
// directory (every lookup resolves to ""): account names are presentation
// sugar and must never fail the pipeline.
package accounts

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"

	"awsnotify/internal/types"
)

// ssmClient is the subset of the SSM SDK client used by Load. The interface
// enables testing with a mock client.
type ssmClient interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// Directory maps account ids to display names. It is populated at most once
// per process lifetime and read-only thereafter, so no locking is needed:
// the single initialization in main happens-before every lookup.
type Directory struct {
	names map[string]string
}

// Empty returns a Directory with no entries.
func Empty() *Directory {
	return &Directory{names: map[string]string{}}
}

// FromMap builds a Directory from an existing mapping. Used by tests and by
// the preview tool.
func FromMap(names map[string]string) *Directory {
	if names == nil {
		names = map[string]string{}
	}
	return &Directory{names: names}
}

// Load fetches the id-to-name mapping from the SSM parameter identified by
// parameterARN. The parameter value must be a JSON object of string pairs.
// Every failure path logs and returns an empty directory; the caller bounds
// the fetch with its context deadline.
func Load(ctx context.Context, client ssmClient, parameterARN string, logger types.Logger) *Directory {
	if parameterARN == "" {
		logger.Warn("account directory disabled: no parameter ARN configured")
		return Empty()
	}

	out, err := client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(parameterARN),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		logger.Error("account directory bootstrap failed, continuing with empty mapping",
			"parameter_arn", parameterARN,
			"error", err.Error(),
		)
		return Empty()
	}

	if out.Parameter == nil || out.Parameter.Value == nil {
		logger.Error("account directory parameter has no value, continuing with empty mapping",
			"parameter_arn", parameterARN,
		)
		return Empty()
	}

	var names map[string]string
	if err := json.Unmarshal([]byte(*out.Parameter.Value), &names); err != nil {
		logger.Error("account directory parameter is not a JSON string map, continuing with empty mapping",
			"parameter_arn", parameterARN,
			"error", err.Error(),
		)
		return Empty()
	}

	logger.Info("account directory loaded", "entries", len(names))
	return FromMap(names)
}

// Name resolves an account id to its display name. Unknown ids resolve to
// the empty string, never an error.
func (d *Directory) Name(accountID string) string {
	return d.names[accountID]
}

// Len reports the number of entries, mainly for bootstrap logging.
func (d *Directory) Len() int {
	return len(d.names)
}
