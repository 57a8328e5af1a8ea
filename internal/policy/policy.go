package policy

import (
	"log/slog"

	"cspHTTP/internal/hash"
	"cspHTTP/internal/parser"
)

// Map holds the source tokens of every derived directive.
type Map map[Directive][]string

// Clone returns a deep copy of m.
func (m Map) Clone() Map {
	out := make(Map, len(m))
	for d, tokens := range m {
		out[d] = append([]string(nil), tokens...)
	}
	return out
}

// Assembler runs every resolver against a document and merges in the
// externally configured sources. It holds no per-request state and is
// safe for concurrent use.
type Assembler struct {
	resolvers map[Directive]Resolver
	domains   DomainSource
	content   ContentSource
	cache     *Cache
	logger    *slog.Logger
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithDomainSource merges statically configured domains into the policy.
func WithDomainSource(src DomainSource) Option {
	return func(a *Assembler) { a.domains = src }
}

// WithContentSource folds the site's own asset hosts into the policy.
func WithContentSource(src ContentSource) Option {
	return func(a *Assembler) { a.content = src }
}

// WithCache reuses resolver output for markup seen before.
func WithCache(c *Cache) Option {
	return func(a *Assembler) { a.cache = c }
}

// WithLogger sets the logger used for recovered resolver failures and
// rejected configuration.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Assembler) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithResolver replaces the resolver of a single directive.
func WithResolver(d Directive, r Resolver) Option {
	return func(a *Assembler) {
		if _, ok := a.resolvers[d]; ok && r != nil {
			a.resolvers[d] = r
		}
	}
}

// NewAssembler creates an Assembler with the default resolver table.
func NewAssembler(opts ...Option) *Assembler {
	a := &Assembler{
		resolvers: Resolvers(),
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Assemble derives the policy for a parsed document. Every directive is
// present in the result; a directive without sources holds 'none'.
func (a *Assembler) Assemble(doc *parser.Document) Map {
	return a.merge(a.resolveAll(doc))
}

// Policy parses markup and returns the serialized header value.
func (a *Assembler) Policy(markup string) string {
	return Serialize(a.PolicyMap(markup))
}

// PolicyMap parses markup and returns the assembled policy, consulting the
// cache when one is configured.
func (a *Assembler) PolicyMap(markup string) Map {
	if a.cache == nil {
		return a.Assemble(parser.ParseDocument(markup))
	}

	key := hash.Fingerprint([]byte(markup))
	resolved, ok := a.cache.Get(key)
	if !ok {
		resolved = a.resolveAll(parser.ParseDocument(markup))
		a.cache.Put(key, resolved)
	}
	return a.merge(resolved)
}

// resolveAll runs every resolver. The result depends only on the markup.
func (a *Assembler) resolveAll(doc *parser.Document) Map {
	resolved := make(Map, len(Directives))
	for _, d := range Directives {
		resolved[d] = a.resolve(d, doc)
	}
	return resolved
}

// resolve runs one resolver, turning a panic into an empty result so a
// single bad element never breaks the response.
func (a *Assembler) resolve(d Directive, doc *parser.Document) (tokens []string) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Warn("resolver failed", "directive", string(d), "panic", r)
			tokens = nil
		}
	}()

	r, ok := a.resolvers[d]
	if !ok {
		return nil
	}
	return r(doc)
}

// merge combines resolver output with configured and content sources.
func (a *Assembler) merge(resolved Map) Map {
	sets := make(map[Directive]tokenSet, len(Directives))
	for _, d := range Directives {
		sets[d] = newTokenSet(resolved[d]...)
	}

	if a.domains != nil {
		for _, rule := range a.domains.ConfiguredDomains() {
			d, ok := ParseDirective(rule.Directive)
			if !ok {
				a.logger.Warn("ignoring configured domain for unknown directive",
					"directive", rule.Directive,
					"domain", rule.Domain,
				)
				continue
			}
			if token := SanitizeDomain(rule.Domain); token != "" {
				sets[d].add(token)
			}
		}
	}

	if a.content != nil {
		for _, raw := range a.content.ContentBaseURLs() {
			host, ok := parser.HostWithPort(raw)
			if !ok {
				continue
			}
			for _, d := range contentDirectives {
				sets[d].add(host)
			}
		}
	}

	m := make(Map, len(Directives))
	for _, d := range Directives {
		tokens := sets[d].list()
		if len(tokens) == 0 {
			tokens = []string{None}
		}
		m[d] = tokens
	}
	return m
}
