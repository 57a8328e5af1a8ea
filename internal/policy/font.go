package policy

import (
	"regexp"
	"strings"

	"cspHTTP/internal/parser"
)

// url(...) format(...) pairs from @font-face src descriptors. RE2 has no
// back-references, so the optional quotes are matched independently.
var fontFaceRegex = regexp.MustCompile(`(?i)url\(\s*["']?([^"')\s]+)["']?\s*\)\s*format\(\s*["']?([^"')]+)["']?\s*\)`)

var fontExtensions = map[string]bool{
	"woff":  true,
	"woff2": true,
	"ttf":   true,
	"otf":   true,
	"eot":   true,
	"svg":   true,
}

var fontFormats = []string{"woff", "truetype", "opentype", "embedded-opentype", "svg", "font"}

func isFont(rawURL, format string) bool {
	if fontExtensions[parser.Extension(rawURL)] {
		return true
	}
	format = strings.ToLower(format)
	for _, f := range fontFormats {
		if strings.Contains(format, f) {
			return true
		}
	}
	return false
}

// resolveFontSrc allows the hosts of fonts declared in inline stylesheets.
// data: is always allowed.
func resolveFontSrc(doc *parser.Document) []string {
	set := newTokenSet(Data)

	for _, css := range doc.InlineStyles() {
		for _, m := range fontFaceRegex.FindAllStringSubmatch(css, -1) {
			if isFont(m[1], m[2]) {
				set.addReference(m[1])
			}
		}
	}

	return set.list()
}
