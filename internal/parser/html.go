package parser

import (
	"bufio"
	"fmt"
	"html"
	"regexp"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	htmlparser "golang.org/x/net/html"
)

// Compiled once at package level, shared by every document.
var (
	unicodeEscapeRegex = regexp.MustCompile(`\\u([0-9a-fA-F]{4})`)

	// Absolute URLs in script text, tolerating JSON escaped slashes
	// ("https:\/\/host\/path") at any escaping depth. Backslashes are kept
	// in the match and removed by Normalize.
	scriptURLRegex = regexp.MustCompile("(?i)https?:\\\\*/\\\\*/[^\\s\"'`<>]+")
)

// DecodeEscapes decodes \uXXXX escapes and HTML entities in a string.
// Inline scripts commonly carry JSON with "\u002F" for "/" and "&amp;"
// inside URLs; decoding first lets the URL scanners see plain text.
func DecodeEscapes(s string) string {
	if strings.Contains(s, `\u`) {
		s = unicodeEscapeRegex.ReplaceAllStringFunc(s, func(match string) string {
			hex := strings.TrimPrefix(match, `\u`)
			var r rune
			fmt.Sscanf(hex, "%x", &r)
			if utf8.ValidRune(r) {
				return string(r)
			}
			return match
		})
	}

	if strings.Contains(s, "&") {
		s = html.UnescapeString(s)
	}

	return s
}

// Attribute is a single attribute of an element in document order.
type Attribute struct {
	Element string
	Name    string
	Value   string
}

// Document is a parsed, read-only HTML document. It is built once per
// markup payload and may be shared between concurrent readers.
type Document struct {
	root *htmlparser.Node
	doc  *goquery.Document

	scriptsOnce sync.Once
	scripts     []string
	urlsOnce    sync.Once
	urls        []string
}

// ParseDocument parses markup leniently. It never fails: the HTML5
// parser recovers from malformed input, and an unreadable payload
// yields an empty document.
func ParseDocument(markup string) *Document {
	root, err := htmlparser.Parse(strings.NewReader(markup))
	if err != nil {
		root = &htmlparser.Node{Type: htmlparser.DocumentNode}
	}
	return &Document{
		root: root,
		doc:  goquery.NewDocumentFromNode(root),
	}
}

// Query returns the elements matching a CSS selector such as
// "script[src]" or "picture > source[srcset]". An invalid selector
// matches nothing.
func (d *Document) Query(selector string) *goquery.Selection {
	return d.doc.Find(selector)
}

// InlineStyles returns the text of every <style> element in document order.
func (d *Document) InlineStyles() []string {
	var styles []string
	d.doc.Find("style").Each(func(_ int, s *goquery.Selection) {
		styles = append(styles, s.Text())
	})
	return styles
}

// InlineScripts returns the body of every <script> without a src
// attribute whose text is not blank. The slice is shared; do not modify it.
func (d *Document) InlineScripts() []string {
	d.scriptsOnce.Do(func() {
		d.doc.Find("script:not([src])").Each(func(_ int, s *goquery.Selection) {
			text := s.Text()
			if strings.TrimSpace(text) != "" {
				d.scripts = append(d.scripts, text)
			}
		})
	})
	return d.scripts
}

// ScriptURLs returns every absolute URL found in inline script bodies
// after escape decoding, in document order. The scan runs once per
// document; the slice is shared and must not be modified.
func (d *Document) ScriptURLs() []string {
	d.urlsOnce.Do(func() {
		for _, body := range d.InlineScripts() {
			for _, u := range scriptURLRegex.FindAllString(DecodeEscapes(body), -1) {
				d.urls = append(d.urls, TrimURL(u))
			}
		}
	})
	return d.urls
}

// TrimURL drops punctuation that ends the surrounding code rather than the URL.
func TrimURL(u string) string {
	return strings.TrimRight(u, ").,;:}]")
}

// Attributes returns every attribute on every element in document order.
func (d *Document) Attributes() []Attribute {
	var attrs []Attribute

	var traverse func(*htmlparser.Node)
	traverse = func(n *htmlparser.Node) {
		if n.Type == htmlparser.ElementNode {
			for _, attr := range n.Attr {
				attrs = append(attrs, Attribute{
					Element: n.Data,
					Name:    attr.Key,
					Value:   attr.Val,
				})
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
		}
	}
	traverse(d.root)

	return attrs
}

// CountWordsAndLines counts words and lines in the text
func CountWordsAndLines(text string) (words int, lines int) {
	lines = strings.Count(text, "\n") + 1
	if text == "" {
		lines = 0
	}

	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Split(bufio.ScanWords)
	for scanner.Scan() {
		words++
	}

	return words, lines
}
