package policy

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"cspHTTP/internal/parser"
)

// resolveStyleSrc allows the hosts of linked stylesheets. Any <style>
// element or style attribute adds 'unsafe-inline'.
func resolveStyleSrc(doc *parser.Document) []string {
	set := newTokenSet()

	doc.Query("link[rel][href]").Each(func(_ int, s *goquery.Selection) {
		rel, _ := s.Attr("rel")
		if hasToken(rel, "stylesheet") {
			href, _ := s.Attr("href")
			set.addReference(href)
		}
	})

	if doc.Query("style, [style]").Length() > 0 {
		set.add(UnsafeInline)
	}

	return set.list()
}

// hasToken reports whether the space separated list contains token,
// ignoring ASCII case as rel matching does.
func hasToken(list, token string) bool {
	for _, f := range strings.Fields(list) {
		if strings.EqualFold(f, token) {
			return true
		}
	}
	return false
}
