// Package render maps normalized Facts onto vendor-specific card payloads.
// One Renderer exists per chat vendor; both share the same dispatch contract
// and differ only in payload shape. Renderers are pure: the same fact and
// configuration always produce byte-identical output.
package render

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"awsnotify/internal/types"
)

// Renderer turns one parsed record into the payload body for a webhook POST.
// original carries the decoded message for the Unknown fallback path, which
// renders raw key/value pairs rather than a Fact variant.
type Renderer interface {
	Render(fact *types.Fact, original any, subject string) ([]byte, error)
	SuccessCode() int
	Vendor() types.Vendor
}

// missingVariant is the shared invariant failure for a Fact whose tagged
// variant pointer is nil. It means the extractor and renderer disagree and
// is a bug, not bad input.
func missingVariant(vendor types.Vendor, action types.Action) error {
	return types.NewAppError(types.ErrCodeRenderMissingVariant,
		fmt.Sprintf("%s renderer: fact tagged %s has no %s variant", vendor, action, action), nil)
}

// formatFloat renders a float the shortest way that round-trips, keeping
// one decimal on whole numbers so a severity of 8 reads "8.0".
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// flattenValue renders an arbitrary decoded JSON value as a single line for
// the Unknown/default card: nested structures become their JSON text, and
// scalars their natural string form.
func flattenValue(v any) string {
	switch v.(type) {
	case map[string]any, []any:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(data)
	case string:
		return v.(string)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// sortedKeys returns a map's keys in a stable order so default-rendered
// cards are deterministic.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// defaultTitle is the card title for an unrecognized message.
func defaultTitle(subject string) string {
	if subject != "" {
		return subject
	}
	return "Message"
}
