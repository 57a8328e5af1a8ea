package policy

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"cspHTTP/internal/parser"
)

// Resolver computes the source tokens of one directive from a parsed
// document. Resolvers only read the document and return a unique list.
type Resolver func(doc *parser.Document) []string

// Absolute URLs embedded in attribute values after "\/" was unescaped.
var embeddedURLRegex = regexp.MustCompile("(?i)https?://[^\\s\"'`<>\\\\]+")

// Resolvers returns the resolver table for every known directive.
func Resolvers() map[Directive]Resolver {
	return map[Directive]Resolver{
		ScriptSrc:  resolveScriptSrc,
		StyleSrc:   resolveStyleSrc,
		ImgSrc:     resolveImgSrc,
		MediaSrc:   resolveMediaSrc,
		FrameSrc:   resolveFrameSrc,
		ObjectSrc:  resolveObjectSrc,
		FormAction: resolveFormAction,
		FontSrc:    resolveFontSrc,
		ConnectSrc: resolveConnectSrc,
	}
}

// embeddedURLs returns the absolute URLs contained anywhere in value.
func embeddedURLs(value string) []string {
	value = strings.ReplaceAll(value, `\/`, "/")
	matches := embeddedURLRegex.FindAllString(value, -1)
	for i, u := range matches {
		matches[i] = parser.TrimURL(u)
	}
	return matches
}

// addAttr adds the reference held in attr of every selected element.
func addAttr(set tokenSet, sel *goquery.Selection, attr string) {
	sel.Each(func(_ int, s *goquery.Selection) {
		if v, ok := s.Attr(attr); ok {
			set.addReference(v)
		}
	})
}

// srcsetURLs returns the URL of every candidate in a srcset value:
// "a.webp 1x, b.webp 2x" yields [a.webp b.webp].
func srcsetURLs(srcset string) []string {
	var urls []string
	for _, candidate := range strings.Split(srcset, ",") {
		fields := strings.Fields(candidate)
		if len(fields) == 0 {
			continue
		}
		urls = append(urls, fields[0])
	}
	return urls
}
