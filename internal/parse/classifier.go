// Package parse implements the classification and normalization half of the
// notification pipeline: deciding which AWS event family a raw SNS message
// belongs to and extracting a strongly typed Fact from it.
//
// The raw, loosely typed message never travels past this package. Everything
// downstream works with types.Fact variants.
package parse

import (
	"encoding/json"
	"strings"

	"awsnotify/internal/types"
)

// DecodeMessage best-effort decodes a raw message body. A string that parses
// as JSON becomes a structured value; a string that does not stays a string
// (plain-text bodies are valid for Budget, SavingsPlan and Backup events).
// Already-structured values pass through unchanged.
func DecodeMessage(message any) any {
	s, ok := message.(string)
	if !ok {
		return message
	}
	var decoded any
	if err := json.Unmarshal([]byte(s), &decoded); err != nil {
		return s
	}
	// JSON scalars (a bare number or quoted string) are not event shapes;
	// keep the original text for those.
	switch decoded.(type) {
	case map[string]any, []any:
		return decoded
	default:
		return s
	}
}

// Classify decides which event family a decoded message represents.
//
// The rules run in a fixed priority order and the first match wins. Order
// matters: several shapes share marker fields, so e.g. a message carrying
// both AlarmName and a Security Hub subject is a CloudWatch alarm. A missing
// subject is treated as the empty string. Classification never fails; an
// unmatched message is ActionUnknown.
func Classify(message any, subject string) types.Action {
	msgMap, _ := message.(map[string]any)

	switch {
	case msgMap != nil && hasKey(msgMap, "AlarmName"):
		return types.ActionCloudWatch
	case subject == "Security Hub Finding":
		return types.ActionSecurityHub
	case subject == "DMS Notification Message":
		return types.ActionDMS
	case msgMap != nil && stringValue(msgMap, "detail-type") == "GuardDuty Finding":
		return types.ActionGuardDuty
	case msgMap != nil && stringValue(msgMap, "detail-type") == "AWS Health Event":
		return types.ActionHealth
	case subject == "Notification from AWS Backup":
		return types.ActionBackup
	case strings.HasPrefix(subject, "AWS Budgets:"):
		return types.ActionBudget
	case strings.HasPrefix(subject, "Savings Plans Coverage Alert:"):
		return types.ActionSavingsPlan
	case strings.HasPrefix(subject, "AWS Cost Management:"):
		return types.ActionCostAnomaly
	default:
		return types.ActionUnknown
	}
}

func hasKey(m map[string]any, key string) bool {
	_, ok := m[key]
	return ok
}

func stringValue(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}
