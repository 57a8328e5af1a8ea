package policy

import (
	"github.com/PuerkitoBio/goquery"

	"cspHTTP/internal/parser"
)

// resolveFrameSrc allows the hosts of embedded frames. 'self' is always allowed.
func resolveFrameSrc(doc *parser.Document) []string {
	set := newTokenSet(Self)
	addAttr(set, doc.Query("iframe[src], frame[src]"), "src")
	return set.list()
}

// resolveObjectSrc allows the hosts of plugin content. An element
// carrying a data attribute uses it in preference to src.
func resolveObjectSrc(doc *parser.Document) []string {
	set := newTokenSet()
	doc.Query("object[data], embed[src]").Each(func(_ int, s *goquery.Selection) {
		if v, ok := s.Attr("data"); ok {
			set.addReference(v)
			return
		}
		v, _ := s.Attr("src")
		set.addReference(v)
	})
	return set.list()
}
