package policy

import (
	"github.com/PuerkitoBio/goquery"

	"cspHTTP/internal/parser"
)

// imageExtensions are the file extensions treated as images when a URL is
// found outside an <img> element.
var imageExtensions = map[string]bool{
	"png":  true,
	"jpg":  true,
	"jpeg": true,
	"gif":  true,
	"webp": true,
	"svg":  true,
	"avif": true,
	"bmp":  true,
	"ico":  true,
}

func isImageURL(raw string) bool {
	return imageExtensions[parser.Extension(raw)]
}

// resolveImgSrc allows image hosts from <img>, <picture> sources and
// image URLs referenced from inline scripts. data: is always allowed.
func resolveImgSrc(doc *parser.Document) []string {
	set := newTokenSet(Data)

	addAttr(set, doc.Query("img[src]"), "src")

	doc.Query("img[srcset], picture > source[srcset]").Each(func(_ int, s *goquery.Selection) {
		srcset, _ := s.Attr("srcset")
		for _, u := range srcsetURLs(srcset) {
			if isImageURL(u) {
				set.addReference(u)
			}
		}
	})

	for _, u := range doc.ScriptURLs() {
		if isImageURL(u) {
			set.addURL(u)
		}
	}

	return set.list()
}
