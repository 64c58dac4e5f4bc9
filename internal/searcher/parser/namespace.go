package parser

import (
	"strings"

	"github.com/Adithya-Monish-Kumar-K/Search-Query-Parser/internal/searcher/ast"
	"github.com/Adithya-Monish-Kumar-K/Search-Query-Parser/internal/searcher/lexutil"
)

// NamespaceResolver maps a namespace name typed in a query to its id.
type NamespaceResolver interface {
	Resolve(name string, foldCase bool) (id int, ok bool)
}

const (
	allNamespaces   = "all"
	explicitNsLabel = "ns"
)

// parseNamespaceHeader recognises "name:" (or "ns:name") at the head of
// the query. It returns the header node, if any, and the offset the query
// body starts at.
func (s *parseState) parseNamespaceHeader() (*ast.NamespaceHeaderNode, int) {
	if s.p.resolver == nil {
		return nil, 0
	}
	q := s.query
	i := lexutil.SkipWhitespace(q, 0, len(q))

	if s.explicitNsForm(q[i:]) {
		nameStart := i + len(explicitNsLabel) + 1
		end := nameStart
		for end < len(q) {
			if ws, _ := lexutil.WhitespaceAt(q, end); ws {
				break
			}
			end++
		}
		name := q[nameStart:end]
		if name == "" {
			return nil, 0
		}
		if header, ok := s.resolveHeader(name, i, end); ok {
			return header, end
		}
		s.warnings.Add(ast.WarnUnknownNamespace, i, end, name)
		return nil, end
	}

	end := i
	for end < len(q) && q[end] != ':' && q[end] != '"' {
		if ws, _ := lexutil.WhitespaceAt(q, end); ws {
			return nil, 0
		}
		end++
	}
	if end == i || end >= len(q) || q[end] != ':' {
		return nil, 0
	}
	name := q[i:end]
	if _, isKeyword := s.p.registry.Lookup(name); isKeyword {
		return nil, 0
	}
	if header, ok := s.resolveHeader(name, i, end+1); ok {
		return header, end + 1
	}
	return nil, 0
}

func (s *parseState) explicitNsForm(q string) bool {
	if !strings.HasPrefix(q, explicitNsLabel+":") {
		return false
	}
	_, isKeyword := s.p.registry.Lookup(explicitNsLabel)
	return !isKeyword
}

func (s *parseState) resolveHeader(name string, start, end int) (*ast.NamespaceHeaderNode, bool) {
	if strings.EqualFold(name, allNamespaces) {
		return ast.NewNamespaceHeaderNode(start, end, name, nil, true), true
	}
	id, ok := s.p.resolver.Resolve(name, s.p.cfg.CaseInsensitiveNamespaces)
	if !ok {
		return nil, false
	}
	return ast.NewNamespaceHeaderNode(start, end, name, []int{id}, false), true
}
