// Package fixer finds the part of a parsed query that a typo corrector may
// rewrite and splices a correction back into the raw query.
package fixer

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/Adithya-Monish-Kumar-K/Search-Query-Parser/internal/searcher/ast"
)

var ErrNotFixable = errors.New("query has no fixable part")

const titleKeyword = "intitle"

// target is the chosen span of the raw query. For keywords the span covers
// the value only.
type target struct {
	start, end int
	text       string
	size       int
}

// Fixer is computed once per query and is safe for concurrent use.
type Fixer struct {
	query  *ast.ParsedQuery
	target *target
}

// New inspects q. Queries with phrases, fuzzy, prefix or wildcard terms,
// explicit operators, or negated non-keyword clauses are not fixable.
func New(q *ast.ParsedQuery) *Fixer {
	s := &scan{raw: q.RawQuery()}
	s.node(q.Root(), false)
	f := &Fixer{query: q}
	if !s.complex && s.best != nil {
		f.target = s.best
	}
	return f
}

// FixablePart returns the text a corrector should look at.
func (f *Fixer) FixablePart() (string, bool) {
	if f.target == nil {
		return "", false
	}
	return f.target.text, true
}

// Fix replaces the fixable part of the raw query with replacement, escaping
// characters the parser would interpret.
func (f *Fixer) Fix(replacement string) (string, error) {
	if f.target == nil {
		return "", ErrNotFixable
	}
	raw := f.query.RawQuery()
	var b strings.Builder
	b.Grow(len(raw) + len(replacement))
	b.WriteString(raw[:f.target.start])
	b.WriteString(Escape(replacement))
	b.WriteString(raw[f.target.end:])
	return b.String(), nil
}

// Escape backslash-escapes ~ ? * " and \.
func Escape(s string) string {
	if !strings.ContainsAny(s, `~?*"\`) {
		return s
	}
	var b strings.Builder
	for _, r := range s {
		if strings.ContainsRune(`~?*"\`, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func acceptable(s string) bool {
	return !strings.ContainsAny(s, `*?"\`)
}

type scan struct {
	raw     string
	best    *target
	complex bool
}

func (s *scan) offer(start, end int) {
	text := s.raw[start:end]
	size := utf8.RuneCountInString(text)
	if s.best != nil && size <= s.best.size {
		return
	}
	if !acceptable(text) {
		return
	}
	s.best = &target{start: start, end: end, text: text, size: size}
}

func (s *scan) node(n ast.ParsedNode, negated bool) {
	switch t := n.(type) {
	case *ast.WordsQueryNode:
		if !negated {
			s.offer(t.StartOffset(), t.EndOffset())
		}
	case *ast.KeywordFeatureNode:
		s.keyword(t, negated)
	case *ast.NegatedNode:
		if _, ok := t.Child().(*ast.KeywordFeatureNode); !ok {
			s.complex = true
		}
		s.node(t.Child(), !negated)
	case *ast.ParsedBooleanNode:
		s.boolean(t, negated)
	case *ast.EmptyQueryNode, *ast.NamespaceHeaderNode:
	case *ast.WildcardNode, *ast.PhraseQueryNode, *ast.PhrasePrefixNode, *ast.PrefixNode, *ast.FuzzyNode:
		s.complex = true
	}
}

func (s *scan) keyword(n *ast.KeywordFeatureNode, negated bool) {
	if n.Key() != titleKeyword || n.Delimiter() != "" {
		return
	}
	if !acceptable(n.Value()) {
		s.complex = true
		return
	}
	// the value is the tail of the node's span
	start := n.EndOffset() - len(n.Value())
	if start < n.StartOffset() || s.raw[start:n.EndOffset()] != n.Value() {
		s.complex = true
		return
	}
	if !negated {
		s.offer(start, n.EndOffset())
	}
}

// boolean merges consecutive MUST word clauses into a single run. When the
// run as a whole is not acceptable its words are still offered one by one.
func (s *scan) boolean(n *ast.ParsedBooleanNode, negated bool) {
	var run []*ast.WordsQueryNode
	flush := func() {
		if len(run) > 0 && !negated {
			s.offer(run[0].StartOffset(), run[len(run)-1].EndOffset())
			for _, w := range run {
				s.offer(w.StartOffset(), w.EndOffset())
			}
		}
		run = run[:0]
	}
	for _, c := range n.Clauses() {
		if c.Explicit() {
			s.complex = true
		}
		if c.Occur() == ast.MustNot {
			flush()
			s.node(c.Node(), negated)
			continue
		}
		if w, ok := c.Node().(*ast.WordsQueryNode); ok && c.Occur() == ast.Must {
			run = append(run, w)
			continue
		}
		flush()
		s.node(c.Node(), negated)
	}
	flush()
}
