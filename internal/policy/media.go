package policy

import "cspHTTP/internal/parser"

// resolveMediaSrc allows the hosts of <video> and <audio> sources.
// 'self' and blob: are always allowed.
func resolveMediaSrc(doc *parser.Document) []string {
	set := newTokenSet(Self, Blob)
	addAttr(set, doc.Query("video[src], video > source[src], audio[src], audio > source[src]"), "src")
	return set.list()
}
