package classifier

import (
	"strings"

	"github.com/Adithya-Monish-Kumar-K/Search-Query-Parser/internal/searcher/ast"
	"github.com/Adithya-Monish-Kumar-K/Search-Query-Parser/internal/searcher/lexutil"
)

const (
	SimpleBagOfWords     = "simple_bag_of_words"
	SimplePhrase         = "simple_phrase"
	BagOfWordsWithPhrase = "bag_of_words_with_phrase"
	ComplexQuery         = "complex_query"
	BogusQuery           = "bogus_query"
	SingleWord           = "single_word"
)

// Basic sorts queries by shape. A query with warnings is only bogus_query.
type Basic struct{}

func (Basic) Classes() []string {
	return []string{SimpleBagOfWords, SimplePhrase, BagOfWordsWithPhrase, ComplexQuery, BogusQuery, SingleWord}
}

func (Basic) Classify(q *ast.ParsedQuery) []string {
	if q.HasWarnings() {
		return []string{BogusQuery}
	}
	words, phrases, complex := 0, 0, false
	ast.Inspect(q.Root(), func(n ast.ParsedNode, _ bool) bool {
		switch t := n.(type) {
		case *ast.WordsQueryNode:
			words++
		case *ast.PhraseQueryNode:
			phrases++
		case *ast.ParsedBooleanNode:
			for _, c := range t.Clauses() {
				if c.Occur() != ast.Must || c.Explicit() {
					complex = true
				}
			}
		case *ast.EmptyQueryNode:
		default:
			complex = true
		}
		return !complex
	})

	switch {
	case complex:
		return []string{ComplexQuery}
	case words > 0 && phrases > 0:
		return []string{BagOfWordsWithPhrase}
	case phrases == 1 && words == 0:
		return []string{SimplePhrase}
	case phrases > 1:
		return []string{BagOfWordsWithPhrase}
	case words == 1:
		if w, ok := q.Root().(*ast.WordsQueryNode); ok && !containsWhitespace(w.Words()) {
			return []string{SimpleBagOfWords, SingleWord}
		}
		return []string{SimpleBagOfWords}
	case words > 1:
		return []string{SimpleBagOfWords}
	}
	return nil
}

func containsWhitespace(s string) bool {
	return strings.IndexFunc(s, lexutil.IsWhitespace) >= 0
}
