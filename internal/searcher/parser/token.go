package parser

import (
	"strings"

	"github.com/Adithya-Monish-Kumar-K/Search-Query-Parser/internal/searcher/ast"
	"github.com/Adithya-Monish-Kumar-K/Search-Query-Parser/internal/searcher/lexutil"
)

type tokenKind int

const (
	tokNode tokenKind = iota
	tokAnd
	tokOr
	tokNot
)

func (k tokenKind) label() string {
	switch k {
	case tokAnd:
		return "AND"
	case tokOr:
		return "OR"
	case tokNot:
		return "NOT"
	default:
		return "term"
	}
}

type token struct {
	kind       tokenKind
	start, end int
	image      string
	node       ast.ParsedNode
}

var operators = []struct {
	image    string
	kind     tokenKind
	foldCase bool
}{
	{"AND", tokAnd, false},
	{"&&", tokAnd, false},
	{"OR", tokOr, false},
	{"||", tokOr, false},
	{"NOT", tokNot, true},
}

// matchOperator recognises a boolean operator at i. Operators are whole
// tokens: they must be followed by whitespace, a quote or the end.
func matchOperator(q string, i, max int) (tokenKind, int, bool) {
	for _, op := range operators {
		end := i + len(op.image)
		if end > max {
			continue
		}
		if op.foldCase {
			if !strings.EqualFold(q[i:end], op.image) {
				continue
			}
		} else if q[i:end] != op.image {
			continue
		}
		if end < len(q) && q[end] != '"' {
			if ws, _ := lexutil.WhitespaceAt(q, end); !ws {
				continue
			}
		}
		return op.kind, end, true
	}
	return 0, 0, false
}

// tokenize splits the working query into operators and nodes. Keyword nodes
// found beforehand are emitted as is; the gaps between them are parsed.
func (s *parseState) tokenize(from int, pretagged []ast.ParsedNode) {
	q := s.query
	next := 0
	i := from
	for {
		i = lexutil.SkipWhitespace(q, i, len(q))
		if i >= len(q) {
			return
		}
		limit := len(q)
		if next < len(pretagged) {
			kw := pretagged[next]
			if kw.StartOffset() <= i {
				s.emitNode(kw)
				i = kw.EndOffset()
				next++
				continue
			}
			limit = kw.StartOffset()
		}

		if kind, end, ok := matchOperator(q, i, limit); ok {
			s.tokens = append(s.tokens, token{kind: kind, start: i, end: end, image: q[i:end]})
			i = end
			continue
		}
		if node, end, ok := parsePhrase(q, i, limit); ok {
			s.emitNode(node)
			i = end
			continue
		}
		if node, end, ok := parseUnbalancedPhrase(q, i, limit); ok {
			s.warnings.Add(ast.WarnUnbalancedQuotes, i, end)
			s.emitNode(node)
			i = end
			continue
		}
		// Not whitespace and not a quote: a word always takes at least one byte.
		node, end, _ := parseWord(q, i, limit)
		s.emitNode(node)
		i = end
	}
}

func (s *parseState) emitNode(n ast.ParsedNode) {
	s.tokens = append(s.tokens, token{
		kind:  tokNode,
		start: n.StartOffset(),
		end:   n.EndOffset(),
		image: s.query[n.StartOffset():n.EndOffset()],
		node:  n,
	})
}
