package classifier

import (
	"fmt"

	"github.com/Adithya-Monish-Kumar-K/Search-Query-Parser/internal/searcher/ast"
	"github.com/Adithya-Monish-Kumar-K/Search-Query-Parser/internal/searcher/keyword"
)

const (
	HasKeyword      = "has_keyword"
	ExplicitBoolean = "explicit_boolean"
	HasNegation     = "has_negation"

	StructuralKeywords     = "structural_keywords"
	DecorativeKeywordsOnly = "decorative_keywords_only"
)

// Syntax flags the presence of keywords, explicit operators and negations.
type Syntax struct{}

func (Syntax) Classes() []string {
	return []string{HasKeyword, ExplicitBoolean, HasNegation}
}

func (Syntax) Classify(q *ast.ParsedQuery) []string {
	var kw, explicit, negation bool
	ast.Inspect(q.Root(), func(n ast.ParsedNode, _ bool) bool {
		switch t := n.(type) {
		case *ast.KeywordFeatureNode:
			kw = true
		case *ast.NegatedNode:
			negation = true
			if t.NegationType() == "NOT" {
				explicit = true
			}
		case *ast.ParsedBooleanNode:
			for _, c := range t.Clauses() {
				if c.Explicit() {
					explicit = true
				}
			}
		}
		return true
	})

	var out []string
	if kw {
		out = append(out, HasKeyword)
	}
	if explicit {
		out = append(out, ExplicitBoolean)
	}
	if negation {
		out = append(out, HasNegation)
	}
	return out
}

// Keyword tells structural keywords (restricting the result set) from
// decorative ones (only tuning ranking), using the registry's syntax flags.
type Keyword struct {
	registry *keyword.Registry
}

func NewKeyword(registry *keyword.Registry) (*Keyword, error) {
	if registry == nil {
		return nil, fmt.Errorf("%w: keyword classifier needs a registry", ErrClassifierConfig)
	}
	return &Keyword{registry: registry}, nil
}

func (*Keyword) Classes() []string {
	return []string{StructuralKeywords, DecorativeKeywordsOnly}
}

func (c *Keyword) Classify(q *ast.ParsedQuery) []string {
	structural, decorative := false, false
	q.Root().Accept(&ast.KeywordVisitor{OnKeyword: func(n *ast.KeywordFeatureNode, _ bool) {
		f, ok := c.registry.Lookup(n.Key())
		if ok && f.Syntax().Decorative {
			decorative = true
			return
		}
		structural = true
	}})
	switch {
	case structural:
		return []string{StructuralKeywords}
	case decorative:
		return []string{DecorativeKeywordsOnly}
	}
	return nil
}
