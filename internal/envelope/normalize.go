package envelope

import (
	"encoding/json"
	"fmt"
	"strings"
)

// excludedKeys are transport plumbing dropped when merging a generic map.
var excludedKeys = map[string]struct{}{
	"type":       {},
	"textResult": {},
	ReservedKey:  {},
}

// Normalize projects raw into the canonical envelope for capabilityName.
func Normalize(capabilityName string, raw any) Envelope {
	return NormalizeResult(capabilityName, Classify(raw))
}

// NormalizeResult projects an already classified result.
func NormalizeResult(capabilityName string, result Result) Envelope {
	env := New(capabilityName)

	switch r := result.(type) {
	case TypedResult:
		for k, v := range r.Fields {
			env.Set(k, v)
		}
	case ContentList:
		mergeContent(env, r.Items)
	case GenericMap:
		mergeGeneric(env, r.Fields)
	case Scalar:
		env.Set("result", stringify(r.Value))
	default:
		env.Set("message", NoResultMessage)
	}
	return env
}

func mergeContent(env Envelope, items []ContentItem) {
	if len(items) == 0 {
		env.Set("message", NoResultMessage)
		return
	}
	first := items[0]
	if !first.IsText() {
		env.Set("message", fmt.Sprintf("[%s content]", first.Type))
		return
	}
	if data, ok := structuredData(first.Text); ok {
		env.Merge(data)
		return
	}
	env.Set("message", first.Text)
}

func mergeGeneric(env Envelope, fields map[string]any) {
	if text, ok := firstContentText(fields["content"]); ok {
		if data, ok := structuredData(text); ok {
			env.Merge(data)
			return
		}
		env.Set("result", text)
		return
	}
	for k, v := range fields {
		if _, skip := excludedKeys[k]; skip {
			continue
		}
		env.Set(k, v)
	}
}

// firstContentText extracts the text of the first item of an MCP-style
// content array.
func firstContentText(content any) (string, bool) {
	var first any
	switch items := content.(type) {
	case []any:
		if len(items) == 0 {
			return "", false
		}
		first = items[0]
	case []map[string]any:
		if len(items) == 0 {
			return "", false
		}
		first = items[0]
	default:
		return "", false
	}
	item, ok := first.(map[string]any)
	if !ok {
		return "", false
	}
	text, ok := item["text"].(string)
	return text, ok
}

// structuredData parses a sentinel-prefixed JSON object.
func structuredData(text string) (map[string]any, bool) {
	payload, ok := strings.CutPrefix(text, StructuredDataPrefix)
	if !ok {
		return nil, false
	}
	var data map[string]any
	if err := json.Unmarshal([]byte(payload), &data); err != nil || data == nil {
		return nil, false
	}
	return data, true
}

func stringify(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case error:
		return v.Error()
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}
