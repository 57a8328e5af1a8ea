package policy

import "cspHTTP/internal/parser"

// resolveScriptSrc allows the hosts of external scripts and of absolute
// URLs referenced from inline script bodies. Inline scripts add
// 'unsafe-inline'; 'unsafe-eval' is always present.
func resolveScriptSrc(doc *parser.Document) []string {
	set := newTokenSet(UnsafeEval)

	addAttr(set, doc.Query("script[src]"), "src")

	if len(doc.InlineScripts()) > 0 {
		set.add(UnsafeInline)
		for _, u := range doc.ScriptURLs() {
			set.addURL(u)
		}
	}

	return set.list()
}
