package parser

import (
	"github.com/Adithya-Monish-Kumar-K/Search-Query-Parser/internal/searcher/ast"
)

// translateNode rebuilds n with offsets mapped back to the raw query.
func translateNode(c offsetChain, n ast.ParsedNode) ast.ParsedNode {
	if len(c) == 0 {
		return n
	}
	start, end := c.start(n.StartOffset()), c.end(n.EndOffset())
	if end < start {
		end = start
	}
	switch t := n.(type) {
	case *ast.WordsQueryNode:
		return ast.NewWordsQueryNode(start, end, t.Words())
	case *ast.PhraseQueryNode:
		return ast.NewPhraseQueryNode(start, end, t.Phrase(), t.Slop(), t.Stem(), t.Unbalanced())
	case *ast.PhrasePrefixNode:
		return ast.NewPhrasePrefixNode(start, end, t.Phrase())
	case *ast.PrefixNode:
		return ast.NewPrefixNode(start, end, t.Prefix())
	case *ast.WildcardNode:
		return ast.NewWildcardNode(start, end, t.Wildcard())
	case *ast.FuzzyNode:
		return ast.NewFuzzyNode(start, end, t.Word(), t.Fuzziness())
	case *ast.NegatedNode:
		return ast.NewNegatedNode(start, end, translateNode(c, t.Child()), t.NegationType())
	case *ast.KeywordFeatureNode:
		return ast.NewKeywordFeatureNode(start, end, t.Feature(), t.KeywordValue(), t.ParsedValue())
	case *ast.NamespaceHeaderNode:
		return ast.NewNamespaceHeaderNode(start, end, t.Name(), t.Namespaces(), t.All())
	case *ast.ParsedBooleanNode:
		clauses := t.Clauses()
		for i, cl := range clauses {
			clauses[i] = ast.NewBooleanClause(translateNode(c, cl.Node()), cl.Occur(), cl.Explicit())
		}
		return ast.NewParsedBooleanNode(start, end, clauses)
	case *ast.EmptyQueryNode:
		return ast.NewEmptyQueryNode(start, end)
	}
	return n
}

func translateWarnings(c offsetChain, warnings []ast.ParseWarning) []ast.ParseWarning {
	if len(c) == 0 {
		return warnings
	}
	out := make([]ast.ParseWarning, len(warnings))
	for i, w := range warnings {
		w.Start = c.start(w.Start)
		w.End = c.end(w.End)
		if w.End < w.Start {
			w.End = w.Start
		}
		out[i] = w
	}
	return out
}
