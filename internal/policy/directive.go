package policy

import "strings"

// Directive is a CSP directive derived from markup.
type Directive string

const (
	ScriptSrc  Directive = "script-src"
	StyleSrc   Directive = "style-src"
	ImgSrc     Directive = "img-src"
	MediaSrc   Directive = "media-src"
	FrameSrc   Directive = "frame-src"
	ObjectSrc  Directive = "object-src"
	FormAction Directive = "form-action"
	FontSrc    Directive = "font-src"
	ConnectSrc Directive = "connect-src"
)

// Directives lists every derived directive in serialization order.
var Directives = []Directive{
	ScriptSrc,
	StyleSrc,
	ImgSrc,
	MediaSrc,
	FrameSrc,
	ObjectSrc,
	FormAction,
	FontSrc,
	ConnectSrc,
}

// ParseDirective maps a directive name to a known Directive.
func ParseDirective(name string) (Directive, bool) {
	d := Directive(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Directives {
		if d == known {
			return d, true
		}
	}
	return "", false
}

// Source keywords emitted by the resolvers.
const (
	Self         = "'self'"
	UnsafeInline = "'unsafe-inline'"
	UnsafeEval   = "'unsafe-eval'"
	None         = "'none'"
	Data         = "data:"
	Blob         = "blob:"
)

// cspKeywords are CSP source values that are not domains.
var cspKeywords = map[string]bool{
	"'self'":             true,
	"'unsafe-inline'":    true,
	"'unsafe-eval'":      true,
	"'unsafe-hashes'":    true,
	"'strict-dynamic'":   true,
	"'report-sample'":    true,
	"'none'":             true,
	"'wasm-unsafe-eval'": true,
	"data:":              true,
	"blob:":              true,
	"mediastream:":       true,
	"filesystem:":        true,
	"https:":             true,
	"http:":              true,
	"wss:":               true,
	"ws:":                true,
	"*":                  true,
}

// keywordOrder fixes where keywords appear after the host sources of a
// directive. Keywords not listed sort after these.
var keywordOrder = []string{
	Self,
	UnsafeInline,
	UnsafeEval,
	Data,
	Blob,
	None,
}

// IsKeyword reports whether a source token is a CSP keyword, scheme
// source, nonce or hash rather than a host.
func IsKeyword(source string) bool {
	lower := strings.ToLower(source)
	if cspKeywords[lower] {
		return true
	}
	return strings.HasPrefix(lower, "'")
}

func keywordRank(source string) int {
	for i, k := range keywordOrder {
		if source == k {
			return i
		}
	}
	return len(keywordOrder)
}
