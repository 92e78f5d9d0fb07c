package parse

import (
	"regexp"
	"strings"

	"awsnotify/internal/types"
)

// backupFieldPatterns are the field extractors for the AWS Backup plain-text
// message body, applied in order with each matched span removed from the
// working string before the next pattern runs.
//
// The order is a correctness invariant, not an implementation detail. The
// patterns run in reverse of field first-appearance in the canonical Backup
// message template so that the broad, greedy "Resource ARN" pattern cannot
// re-match inside a span that belongs to a later-listed field. Swapping the
// order silently corrupts extracted values.
var backupFieldPatterns = []struct {
	name string
	re   *regexp.Regexp
}{
	{"BackupJob ID", regexp.MustCompile(`BackupJob ID : \S+`)},
	{"Resource ARN", regexp.MustCompile(`Resource ARN : .*[.]`)},
	{"Recovery point ARN", regexp.MustCompile(`Recovery point ARN: .*[.]`)},
}

// ParseBackupFields mines the named fields out of a Backup message body.
// Each value is the last space-separated token of its match with a trailing
// period stripped. Fields absent from the body are simply skipped; the
// result preserves pattern order.
func ParseBackupFields(message string) []types.BackupField {
	var fields []types.BackupField

	for _, p := range backupFieldPatterns {
		match := p.re.FindString(message)
		if match == "" {
			continue
		}

		tokens := strings.Split(match, " ")
		value := strings.TrimSuffix(tokens[len(tokens)-1], ".")
		fields = append(fields, types.BackupField{Title: p.name, Value: value})

		// Remove the matched span so the next, broader pattern cannot
		// re-match inside it.
		message = strings.ReplaceAll(message, match, "")
	}

	return fields
}

// backupFieldValue looks up a mined field by name.
func backupFieldValue(fields []types.BackupField, name string) (string, bool) {
	for _, f := range fields {
		if f.Title == name {
			return f.Value, true
		}
	}
	return "", false
}
