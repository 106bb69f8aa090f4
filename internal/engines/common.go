package engines

import (
	"strings"

	"github.com/tidwall/gjson"
)

// parseGjsonStringArrayAt extracts a JSON array of strings living at path
// in a suggestion-API response shaped as a top-level JSON array, where path
// addresses an element by index (gjson's array-index syntax).
func parseGjsonStringArrayAt(body []byte, path string) []string {
	result := gjson.GetBytes(body, path)
	if !result.IsArray() {
		return nil
	}
	var out []string
	for _, item := range result.Array() {
		if s := item.String(); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// headerLookup does a case-insensitive lookup in the request-headers map
// threaded through SearchQuery, since HTTP header names arrive
// case-preserved but should compare case-insensitively.
func headerLookup(headers map[string]string, name string) (string, bool) {
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return "", false
}
