// Package parser turns a raw full-text search query into an ast.ParsedQuery:
// cleanups, namespace header, keyword tagging, tokenization and boolean
// grouping, then classification.
package parser

import (
	"fmt"
	"sort"
	"unicode/utf8"

	"github.com/Adithya-Monish-Kumar-K/Search-Query-Parser/internal/searcher/ast"
	"github.com/Adithya-Monish-Kumar-K/Search-Query-Parser/internal/searcher/classifier"
	"github.com/Adithya-Monish-Kumar-K/Search-Query-Parser/internal/searcher/keyword"
)

const featureNamespaceHeader = "namespace_header"

// Parser is immutable once built and safe for concurrent use.
type Parser struct {
	cfg          Config
	registry     *keyword.Registry
	keywords     *keyword.Parser
	resolver     NamespaceResolver
	classifiers  *classifier.Repository
	lengthExempt map[string]bool
}

// Option customizes a Parser built by New.
type Option func(*Parser)

// WithNamespaceResolver enables the namespace header. Without it a
// leading "name:" is never read as a namespace.
func WithNamespaceResolver(r NamespaceResolver) Option {
	return func(p *Parser) { p.resolver = r }
}

// WithClassifiers replaces the default classifier repository.
func WithClassifiers(r *classifier.Repository) Option {
	return func(p *Parser) { p.classifiers = r }
}

// New validates cfg and builds a Parser. A nil registry means no keywords.
func New(cfg Config, registry *keyword.Registry, opts ...Option) (*Parser, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.QuestionMarkStripLevel == "" {
		cfg.QuestionMarkStripLevel = StripNone
	}
	if registry == nil {
		registry = keyword.NewBuilder().MustBuild()
	}
	p := &Parser{
		cfg:          cfg,
		registry:     registry,
		keywords:     keyword.NewParser(registry),
		lengthExempt: make(map[string]bool, len(cfg.LengthExemptKeywords)),
	}
	for _, kw := range cfg.LengthExemptKeywords {
		p.lengthExempt[kw] = true
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.classifiers == nil {
		repo, err := classifier.DefaultRepository(registry)
		if err != nil {
			return nil, fmt.Errorf("building default classifiers: %w", err)
		}
		p.classifiers = repo
	}
	return p, nil
}

// Parse is a shorthand for New(cfg, registry) followed by Parse(query).
func Parse(query string, cfg Config, registry *keyword.Registry) (*ast.ParsedQuery, error) {
	p, err := New(cfg, registry)
	if err != nil {
		return nil, err
	}
	return p.Parse(query)
}

func (p *Parser) Config() Config                      { return p.cfg }
func (p *Parser) Registry() *keyword.Registry         { return p.registry }
func (p *Parser) Classifiers() *classifier.Repository { return p.classifiers }

// parseState is the per-call state of Parse. Offsets are relative to the
// cleaned query until translate runs.
type parseState struct {
	p        *Parser
	query    string
	warnings ast.Warnings
	tokens   []token
}

// Parse never fails on malformed syntax; problems are reported as warnings
// on the result. Errors are only returned for queries over a length limit.
func (p *Parser) Parse(raw string) (*ast.ParsedQuery, error) {
	if n := utf8.RuneCountInString(raw); n > HardLimit {
		return nil, &QueryTooLongError{Length: n, Limit: HardLimit}
	}
	c := p.cleanup(raw)
	s := &parseState{p: p, query: c.query}

	header, bodyStart := s.parseNamespaceHeader()
	pretagged := p.keywords.Parse(s.query, bodyStart, &s.warnings)
	if err := p.checkLength(s.query, pretagged); err != nil {
		return nil, err
	}
	s.tokenize(bodyStart, pretagged)
	root := translateNode(c.offsets, s.expression())

	var headerNode *ast.NamespaceHeaderNode
	features := newFeatureSet()
	if header != nil {
		headerNode = translateNode(c.offsets, header).(*ast.NamespaceHeaderNode)
		features.add(featureNamespaceHeader)
	}
	required := collectKeywords(root, features)

	pq := ast.NewParsedQuery(ast.ParsedQueryParams{
		Root:               root,
		Query:              c.query,
		RawQuery:           raw,
		Cleanups:           c.cleanups,
		NamespaceHeader:    headerNode,
		RequiredNamespaces: required,
		Warnings:           translateWarnings(c.offsets, s.warnings.List()),
		FeaturesUsed:       features.list,
	})
	return pq.WithClasses(p.classifiers.Classify(pq)), nil
}

func (p *Parser) checkLength(q string, pretagged []ast.ParsedNode) error {
	if p.cfg.MaxQueryLength <= 0 {
		return nil
	}
	limit := p.cfg.MaxQueryLength
	for _, n := range pretagged {
		kw := n
		if neg, ok := n.(*ast.NegatedNode); ok {
			kw = neg.Child()
		}
		if k, ok := kw.(*ast.KeywordFeatureNode); ok && p.lengthExempt[k.Key()] {
			limit += utf8.RuneCountInString(q[n.StartOffset():n.EndOffset()])
		}
	}
	if n := utf8.RuneCountInString(q); n > limit {
		return &QueryTooLongError{Length: n, Limit: limit}
	}
	return nil
}

type connector int

const (
	connImplicit connector = iota
	connAnd
	connOr
)

type operand struct {
	node ast.ParsedNode
	conn connector
}

// operands folds the token stream into terms joined by connectors,
// recovering from misplaced operators.
func (s *parseState) operands() []operand {
	var out []operand
	pending := connImplicit
	push := func(n ast.ParsedNode) {
		out = append(out, operand{node: n, conn: pending})
		pending = connImplicit
	}
	asWord := func(t token) ast.ParsedNode {
		return ast.NewWordsQueryNode(t.start, t.end, t.image)
	}

	toks := s.tokens
	for i := 0; i < len(toks); i++ {
		t := toks[i]
		switch t.kind {
		case tokNode:
			push(t.node)
		case tokNot:
			if i+1 >= len(toks) {
				s.warnings.Add(ast.WarnUnexpectedEnd, t.start, t.end, tokNode.label())
				push(asWord(t))
				continue
			}
			i++
			next := toks[i]
			if next.kind != tokNode {
				s.warnings.Add(ast.WarnUnexpectedToken, next.start, next.end, tokNode.label(), next.kind.label())
				push(ast.NewNegatedNode(t.start, next.end, asWord(next), "NOT"))
				continue
			}
			if neg, ok := next.node.(*ast.NegatedNode); ok {
				s.warnings.Add(ast.WarnDoubleNegation, t.start, next.end)
				push(neg.Child())
				continue
			}
			push(ast.NewNegatedNode(t.start, next.end, next.node, "NOT"))
		case tokAnd, tokOr:
			switch {
			case len(out) == 0 || pending != connImplicit:
				s.warnings.Add(ast.WarnUnexpectedToken, t.start, t.end, tokNode.label(), t.kind.label())
				push(asWord(t))
			case i+1 >= len(toks):
				s.warnings.Add(ast.WarnUnexpectedEnd, t.start, t.end, tokNode.label())
				push(asWord(t))
			case t.kind == tokOr:
				pending = connOr
			default:
				pending = connAnd
			}
		}
	}
	return out
}

// expression groups operands: OR chains become SHOULD groups, everything
// else is ANDed as MUST, negations as MUST_NOT.
func (s *parseState) expression() ast.ParsedNode {
	ops := s.operands()
	if len(ops) == 0 {
		return ast.NewEmptyQueryNode(0, len(s.query))
	}

	var groups [][]operand
	for i, o := range ops {
		if i > 0 && o.conn == connOr {
			groups[len(groups)-1] = append(groups[len(groups)-1], o)
			continue
		}
		groups = append(groups, []operand{o})
	}

	if len(groups) == 1 {
		g := groups[0]
		if len(g) > 1 {
			return orGroup(g)
		}
		if _, negated := g[0].node.(*ast.NegatedNode); !negated {
			return g[0].node
		}
		return boolNode([]ast.BooleanClause{clause(g[0], ast.Must, false)})
	}

	clauses := make([]ast.BooleanClause, 0, len(groups))
	for _, g := range groups {
		if len(g) == 1 {
			clauses = append(clauses, clause(g[0], ast.Must, g[0].conn == connAnd))
			continue
		}
		clauses = append(clauses, ast.NewBooleanClause(orGroup(g), ast.Must, g[0].conn == connAnd))
	}
	return boolNode(clauses)
}

func orGroup(g []operand) *ast.ParsedBooleanNode {
	clauses := make([]ast.BooleanClause, 0, len(g))
	for _, o := range g {
		clauses = append(clauses, clause(o, ast.Should, true))
	}
	return boolNode(clauses)
}

// clause forces negated operands to MUST_NOT; there is no SHOULD_NOT.
func clause(o operand, occur ast.Occur, explicit bool) ast.BooleanClause {
	if neg, ok := o.node.(*ast.NegatedNode); ok {
		return ast.NewBooleanClause(neg, ast.MustNot, explicit || neg.NegationType() == "NOT")
	}
	return ast.NewBooleanClause(o.node, occur, explicit)
}

func boolNode(clauses []ast.BooleanClause) *ast.ParsedBooleanNode {
	start := clauses[0].Node().StartOffset()
	end := clauses[len(clauses)-1].Node().EndOffset()
	return ast.NewParsedBooleanNode(start, end, clauses)
}

type featureSet struct {
	seen map[string]bool
	list []string
}

func newFeatureSet() *featureSet {
	return &featureSet{seen: map[string]bool{}}
}

func (f *featureSet) add(name string) {
	if f.seen[name] {
		return
	}
	f.seen[name] = true
	f.list = append(f.list, name)
}

// collectKeywords records the features used by root and merges the
// namespace requirements of its non-negated keywords.
func collectKeywords(root ast.ParsedNode, features *featureSet) ast.RequiredNamespaces {
	var required ast.RequiredNamespaces
	ids := map[int]bool{}
	ast.Inspect(root, func(n ast.ParsedNode, negated bool) bool {
		kw, ok := n.(*ast.KeywordFeatureNode)
		if !ok {
			return true
		}
		features.add(keyword.UsedName(kw.Feature(), kw.KeywordValue()))
		req, ok := kw.ParsedValue().(keyword.NamespaceRequirer)
		if !ok || negated {
			return true
		}
		ns := req.RequiredNamespaces()
		if ns.All {
			required.All = true
		}
		for _, id := range ns.IDs {
			if !ids[id] {
				ids[id] = true
				required.IDs = append(required.IDs, id)
			}
		}
		return true
	})
	if required.All {
		required.IDs = nil
	}
	sort.Ints(required.IDs)
	return required
}
