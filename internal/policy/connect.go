package policy

import (
	"encoding/json"
	"strings"

	"cspHTTP/internal/parser"
)

// resolveConnectSrc collects endpoints a page may talk to at runtime:
// URLs held in any attribute except href, including JSON and serialized
// payloads in data attributes, and absolute URLs in inline scripts.
func resolveConnectSrc(doc *parser.Document) []string {
	set := newTokenSet()

	for _, attr := range doc.Attributes() {
		if attr.Name == "href" {
			continue
		}

		value := strings.TrimSpace(attr.Value)
		if value == "" {
			continue
		}

		if parser.IsAbsoluteURL(value) {
			set.addURL(value)
			continue
		}

		if looksLikeJSON(value) {
			var decoded any
			if err := json.Unmarshal([]byte(value), &decoded); err == nil {
				walkJSON(decoded, set.addURL)
			}
		}

		// Also covers PHP serialized arrays, whose strings are stored verbatim.
		for _, u := range embeddedURLs(value) {
			set.addURL(u)
		}
	}

	for _, u := range doc.ScriptURLs() {
		set.addURL(u)
	}

	return set.list()
}

func looksLikeJSON(value string) bool {
	if len(value) < 2 {
		return false
	}
	first, last := value[0], value[len(value)-1]
	return (first == '{' && last == '}') || (first == '[' && last == ']')
}

// walkJSON calls fn for every string in a decoded JSON value that is an
// absolute URL.
func walkJSON(v any, fn func(string)) {
	switch val := v.(type) {
	case string:
		if parser.IsAbsoluteURL(val) {
			fn(val)
		}
	case []any:
		for _, item := range val {
			walkJSON(item, fn)
		}
	case map[string]any:
		for _, item := range val {
			walkJSON(item, fn)
		}
	}
}
