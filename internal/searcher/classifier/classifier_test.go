package classifier_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/Search-Query-Parser/internal/searcher/ast"
	"github.com/Adithya-Monish-Kumar-K/Search-Query-Parser/internal/searcher/classifier"
	"github.com/Adithya-Monish-Kumar-K/Search-Query-Parser/internal/searcher/features"
	"github.com/Adithya-Monish-Kumar-K/Search-Query-Parser/internal/searcher/parser"
)

func parse(t *testing.T, q string) *ast.ParsedQuery {
	t.Helper()
	registry, err := features.Registry(nil, nil)
	require.NoError(t, err)
	pq, err := parser.Parse(q, parser.DefaultConfig(), registry)
	require.NoError(t, err)
	return pq
}

func TestBasic(t *testing.T) {
	testCases := map[string]struct {
		query    string
		expected []string
	}{
		"single word":      {query: "foo", expected: []string{classifier.SimpleBagOfWords, classifier.SingleWord}},
		"bag of words":     {query: "foo bar baz", expected: []string{classifier.SimpleBagOfWords}},
		"simple phrase":    {query: `"foo bar"`, expected: []string{classifier.SimplePhrase}},
		"words and phrase": {query: `foo "bar baz"`, expected: []string{classifier.BagOfWordsWithPhrase}},
		"two phrases":      {query: `"foo" "bar"`, expected: []string{classifier.BagOfWordsWithPhrase}},
		"negation":         {query: "foo -bar", expected: []string{classifier.ComplexQuery}},
		"or":               {query: "foo OR bar", expected: []string{classifier.ComplexQuery}},
		"explicit and":     {query: "foo AND bar", expected: []string{classifier.ComplexQuery}},
		"keyword":          {query: "intitle:foo", expected: []string{classifier.ComplexQuery}},
		"wildcard":         {query: "fo*o", expected: []string{classifier.ComplexQuery}},
		"warnings":         {query: `"foo`, expected: []string{classifier.BogusQuery}},
		"empty":            {query: "", expected: nil},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.expected, classifier.Basic{}.Classify(parse(t, tc.query)))
		})
	}
}

func TestSyntax(t *testing.T) {
	testCases := map[string]struct {
		query    string
		expected []string
	}{
		"plain":         {query: "foo bar"},
		"keyword":       {query: "intitle:foo", expected: []string{classifier.HasKeyword}},
		"dash negation": {query: "-foo", expected: []string{classifier.HasNegation}},
		"not":           {query: "NOT foo", expected: []string{classifier.ExplicitBoolean, classifier.HasNegation}},
		"or":            {query: "a OR b", expected: []string{classifier.ExplicitBoolean}},
		"negated keyword": {
			query:    "-intitle:foo bar",
			expected: []string{classifier.HasKeyword, classifier.HasNegation},
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.expected, classifier.Syntax{}.Classify(parse(t, tc.query)))
		})
	}
}

func TestKeyword(t *testing.T) {
	_, err := classifier.NewKeyword(nil)
	assert.ErrorIs(t, err, classifier.ErrClassifierConfig)

	registry, err := features.Registry(nil, nil)
	require.NoError(t, err)
	kw, err := classifier.NewKeyword(registry)
	require.NoError(t, err)

	assert.Equal(t, []string{classifier.StructuralKeywords}, kw.Classify(parse(t, "intitle:foo prefer-recent:")))
	assert.Equal(t, []string{classifier.DecorativeKeywordsOnly}, kw.Classify(parse(t, "foo prefer-recent:")))
	assert.Nil(t, kw.Classify(parse(t, "foo")))
}

type fixedClassifier struct {
	classes []string
}

func (f fixedClassifier) Classes() []string                  { return f.classes }
func (f fixedClassifier) Classify(*ast.ParsedQuery) []string { return f.classes }

func TestRepository(t *testing.T) {
	r := classifier.NewRepository()
	require.NoError(t, r.Register(fixedClassifier{classes: []string{"always"}}))

	err := r.Register(fixedClassifier{classes: []string{"other", "always"}})
	assert.ErrorIs(t, err, classifier.ErrClassifierConfig)
	assert.Equal(t, []string{"always"}, r.Known(), "failed registration leaves no trace")

	assert.ErrorIs(t, r.Register(nil), classifier.ErrClassifierConfig)
	assert.ErrorIs(t, r.Register(fixedClassifier{}), classifier.ErrClassifierConfig)

	c, err := r.Classifier("always")
	require.NoError(t, err)
	assert.Equal(t, []string{"always"}, c.Classes())

	_, err = r.Classifier("never")
	assert.ErrorIs(t, err, classifier.ErrUnknownClassifier)

	assert.Equal(t, map[string]bool{"always": true}, r.Classify(parse(t, "foo")))
}

func TestDefaultRepository(t *testing.T) {
	r, err := classifier.DefaultRepository(nil)
	require.NoError(t, err)
	_, err = r.Classifier(classifier.StructuralKeywords)
	assert.ErrorIs(t, err, classifier.ErrUnknownClassifier)

	registry, err := features.Registry(nil, nil)
	require.NoError(t, err)
	r, err = classifier.DefaultRepository(registry)
	require.NoError(t, err)
	assert.Contains(t, r.Known(), classifier.StructuralKeywords)
	assert.Contains(t, r.Known(), classifier.BogusQuery)
}
