package parse

import (
	"fmt"
	"strings"
	"time"

	"awsnotify/internal/types"
)

// requireString reads a required string field out of a decoded payload.
// A missing or non-string value fails the record with a typed error.
func requireString(action types.Action, m map[string]any, key string) (string, error) {
	v, ok := m[key]
	if !ok {
		return "", types.NewMissingFieldError(action, key)
	}
	s, ok := v.(string)
	if !ok {
		return "", types.NewAppError(types.ErrCodeParseInvalidValue,
			fmt.Sprintf("%s field %q is not a string", action, key), nil)
	}
	return s, nil
}

// nullableString reads a required field that sources emit as either a
// string or JSON null. Null maps to the empty string; a missing key still
// fails the record.
func nullableString(action types.Action, m map[string]any, key string) (string, error) {
	v, ok := m[key]
	if !ok {
		return "", types.NewMissingFieldError(action, key)
	}
	if v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", types.NewAppError(types.ErrCodeParseInvalidValue,
			fmt.Sprintf("%s field %q is not a string", action, key), nil)
	}
	return s, nil
}

// requireMap reads a required nested object.
func requireMap(action types.Action, m map[string]any, key string) (map[string]any, error) {
	v, ok := m[key]
	if !ok {
		return nil, types.NewMissingFieldError(action, key)
	}
	nested, ok := v.(map[string]any)
	if !ok {
		return nil, types.NewAppError(types.ErrCodeParseInvalidValue,
			fmt.Sprintf("%s field %q is not an object", action, key), nil)
	}
	return nested, nil
}

// requireNumber reads a required numeric field. JSON numbers decode as
// float64, which is what every caller wants anyway.
func requireNumber(action types.Action, m map[string]any, key string) (float64, error) {
	v, ok := m[key]
	if !ok {
		return 0, types.NewMissingFieldError(action, key)
	}
	f, ok := v.(float64)
	if !ok {
		return 0, types.NewAppError(types.ErrCodeParseInvalidValue,
			fmt.Sprintf("%s field %q is not a number", action, key), nil)
	}
	return f, nil
}

// optionalString reads a string field, returning def when absent or not a
// string.
func optionalString(m map[string]any, key, def string) string {
	if s, ok := m[key].(string); ok {
		return s
	}
	return def
}

// isoTimeLayouts are the timestamp shapes the supported sources emit.
// CloudWatch uses a "+0000"-style offset without a colon, which RFC 3339
// parsing rejects, and DMS separates date and time with a space, so both
// get their own layouts.
var isoTimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999-0700",
	"2006-01-02T15:04:05-0700",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// epochSeconds converts an ISO-8601 timestamp to epoch seconds, floored to
// the integer second. Layouts without a zone are interpreted as UTC.
func epochSeconds(iso string) (int64, error) {
	for _, layout := range isoTimeLayouts {
		if t, err := time.ParseInLocation(layout, iso, time.UTC); err == nil {
			return t.Unix(), nil
		}
	}
	return 0, types.NewAppError(types.ErrCodeParseBadTimestamp,
		fmt.Sprintf("unparseable timestamp %q", iso), nil)
}

// arnSegment returns the idx-th colon-delimited segment of an ARN. AWS
// encodes the region and account into fixed positions; a short ARN fails
// the record explicitly instead of panicking.
func arnSegment(action types.Action, arn string, idx int) (string, error) {
	parts := strings.Split(arn, ":")
	if idx >= len(parts) {
		return "", types.NewAppError(types.ErrCodeParseMalformedARN,
			fmt.Sprintf("%s ARN %q has %d segments, need index %d", action, arn, len(parts), idx), nil)
	}
	return parts[idx], nil
}

// slashSegment returns the idx-th slash-delimited part of an ARN suffix,
// with the same explicit bounds handling as arnSegment.
func slashSegment(action types.Action, s string, idx int) (string, error) {
	parts := strings.Split(s, "/")
	if idx >= len(parts) {
		return "", types.NewAppError(types.ErrCodeParseMalformedARN,
			fmt.Sprintf("%s ARN suffix %q has %d parts, need index %d", action, s, len(parts), idx), nil)
	}
	return parts[idx], nil
}

// attributeString reads the Value of a named SNS message attribute. SNS
// delivers attributes as {"Type": ..., "Value": ...} objects.
func attributeString(action types.Action, attrs map[string]any, key string) (string, error) {
	raw, ok := attrs[key]
	if !ok {
		return "", types.NewAppError(types.ErrCodeParseBadAttribute,
			fmt.Sprintf("%s message attribute %q is missing", action, key), nil)
	}
	attr, ok := raw.(map[string]any)
	if !ok {
		return "", types.NewAppError(types.ErrCodeParseBadAttribute,
			fmt.Sprintf("%s message attribute %q is malformed", action, key), nil)
	}
	value, ok := attr["Value"].(string)
	if !ok {
		return "", types.NewAppError(types.ErrCodeParseBadAttribute,
			fmt.Sprintf("%s message attribute %q has no string Value", action, key), nil)
	}
	return value, nil
}
