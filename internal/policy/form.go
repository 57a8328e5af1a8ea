package policy

import "cspHTTP/internal/parser"

// resolveFormAction allows the hosts forms submit to, including per-button
// overrides. 'self' is always allowed.
func resolveFormAction(doc *parser.Document) []string {
	set := newTokenSet(Self)
	addAttr(set, doc.Query("form[action]"), "action")
	addAttr(set, doc.Query("button[formaction], input[formaction]"), "formaction")
	return set.list()
}
