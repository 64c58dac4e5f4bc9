package keyword

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/Search-Query-Parser/internal/searcher/ast"
)

type testFeature struct {
	name     string
	keywords []string
	syntax   Syntax
	reject   bool
}

func (f testFeature) Name() string       { return f.name }
func (f testFeature) Keywords() []string { return f.keywords }
func (f testFeature) Syntax() Syntax     { return f.syntax }

func (f testFeature) ParseValue(v ast.KeywordValue, w *ast.Warnings) (any, bool) {
	if f.reject {
		w.Warn("rejected", v.Key)
		return nil, false
	}
	return nil, true
}

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := NewBuilder().Register(
		testFeature{name: "intitle", keywords: []string{"intitle"}},
		testFeature{name: "insource", keywords: []string{"insource"}, syntax: Syntax{Delimiters: []Delimiter{Quote, Regex}}},
		testFeature{name: "prefix", keywords: []string{"prefix"}, syntax: Syntax{Greedy: true}},
		testFeature{name: "local", keywords: []string{"local"}, syntax: Syntax{QueryHeader: true, NoValue: true}},
		testFeature{name: "prefer-recent", keywords: []string{"prefer-recent"}, syntax: Syntax{AllowEmptyValue: true}},
		testFeature{name: "never", keywords: []string{"never"}, reject: true},
	).Build()
	require.NoError(t, err)
	return r
}

type expectedNode struct {
	start, end int
	negated    bool
	key        string
	value      string
	suffix     string
}

func TestParserKeywords(t *testing.T) {
	testCases := map[string]struct {
		query    string
		expected []expectedNode
		warnings []string
	}{
		"unquoted value": {
			query:    "intitle:test",
			expected: []expectedNode{{start: 0, end: 12, key: "intitle", value: "test"}},
		},
		"quoted value": {
			query:    `intitle:"foo bar" baz`,
			expected: []expectedNode{{start: 0, end: 17, key: "intitle", value: "foo bar"}},
		},
		"escaped quote": {
			query:    `intitle:"foo \"bar\""`,
			expected: []expectedNode{{start: 0, end: 21, key: "intitle", value: `foo "bar"`}},
		},
		"negated": {
			query:    "foo -intitle:bar",
			expected: []expectedNode{{start: 4, end: 16, negated: true, key: "intitle", value: "bar"}},
		},
		"whitespace before value": {
			query:    "intitle: bar",
			expected: []expectedNode{{start: 0, end: 12, key: "intitle", value: "bar"}},
		},
		"glued to a word": {
			query: "foointitle:bar",
		},
		"missing value": {
			query:    "foo intitle:",
			warnings: []string{ast.WarnKeywordMissingValue},
		},
		"unterminated quote": {
			query:    `intitle:"foo`,
			warnings: []string{ast.WarnKeywordMissingValue},
		},
		"greedy runs to the end": {
			query:    ` prefix:"test foo " bar `,
			expected: []expectedNode{{start: 1, end: 24, key: "prefix", value: `"test foo " bar `}},
		},
		"greedy wins over later keywords": {
			query:    "prefix:foo intitle:bar",
			expected: []expectedNode{{start: 0, end: 22, key: "prefix", value: "foo intitle:bar"}},
		},
		"headers repeat": {
			query: ` local:local:intitle:x`,
			expected: []expectedNode{
				{start: 1, end: 7, key: "local"},
				{start: 7, end: 13, key: "local"},
				{start: 13, end: 22, key: "intitle", value: "x"},
			},
		},
		"header only at the head": {
			query: "foo local:",
		},
		"regex with suffix": {
			query:    `insource:/fo\/o/i bar`,
			expected: []expectedNode{{start: 0, end: 17, key: "insource", value: "fo/o", suffix: "i"}},
		},
		"allow empty": {
			query:    "prefer-recent: foo",
			expected: []expectedNode{{start: 0, end: 14, key: "prefer-recent", value: ""}},
		},
		"keyword inside a phrase": {
			query: `"foo intitle:bar" baz`,
		},
		"escaped quote inside a phrase": {
			query: `"a \" intitle:b" c`,
		},
		"quoted value then phrase": {
			query:    `intitle:"a b" "c intitle:d"`,
			expected: []expectedNode{{start: 0, end: 13, key: "intitle", value: "a b"}},
		},
		"keyword after a phrase": {
			query:    `"foo bar" intitle:baz`,
			expected: []expectedNode{{start: 10, end: 21, key: "intitle", value: "baz"}},
		},
		"unbalanced quote does not hide keywords": {
			query:    `"foo intitle:bar`,
			expected: []expectedNode{{start: 5, end: 16, key: "intitle", value: "bar"}},
		},
		"rejected value": {
			query:    "never:x",
			warnings: []string{"rejected"},
		},
	}

	p := NewParser(testRegistry(t))
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			var w ast.Warnings
			nodes := p.Parse(tc.query, 0, &w)

			var codes []string
			for _, warning := range w.List() {
				codes = append(codes, warning.Code)
			}
			assert.Equal(t, tc.warnings, codes)

			require.Len(t, nodes, len(tc.expected))
			for i, exp := range tc.expected {
				node := nodes[i]
				assert.Equal(t, exp.start, node.StartOffset())
				assert.Equal(t, exp.end, node.EndOffset())
				if exp.negated {
					neg, ok := node.(*ast.NegatedNode)
					require.True(t, ok)
					node = neg.Child()
					assert.Equal(t, exp.start+1, node.StartOffset())
				}
				kw, ok := node.(*ast.KeywordFeatureNode)
				require.True(t, ok)
				assert.Equal(t, exp.key, kw.Key())
				assert.Equal(t, exp.value, kw.Value())
				assert.Equal(t, exp.suffix, kw.Suffix())
			}
		})
	}
}

func TestParserSkipsHeaderRange(t *testing.T) {
	p := NewParser(testRegistry(t))
	var w ast.Warnings
	nodes := p.Parse("talk:intitle:x", 5, &w)
	require.Len(t, nodes, 1)
	assert.Equal(t, 5, nodes[0].StartOffset())
}

func TestBuilderErrors(t *testing.T) {
	testCases := map[string]struct {
		features []Feature
		err      error
	}{
		"duplicate keyword": {
			features: []Feature{
				testFeature{name: "a", keywords: []string{"intitle"}},
				testFeature{name: "b", keywords: []string{"intitle"}},
			},
			err: ErrDuplicateKeyword,
		},
		"no keywords": {
			features: []Feature{testFeature{name: "a"}},
			err:      ErrInvalidFeature,
		},
		"greedy allow empty": {
			features: []Feature{testFeature{name: "a", keywords: []string{"a"}, syntax: Syntax{Greedy: true, AllowEmptyValue: true}}},
			err:      ErrInvalidFeature,
		},
		"colon in keyword": {
			features: []Feature{testFeature{name: "a", keywords: []string{"a:b"}}},
			err:      ErrInvalidFeature,
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			_, err := NewBuilder().Register(tc.features...).Build()
			assert.ErrorIs(t, err, tc.err)
		})
	}
}

func TestRegistryOrderAndLookup(t *testing.T) {
	r := testRegistry(t)

	var names []string
	for _, f := range r.Features() {
		names = append(names, f.Name())
	}
	assert.Equal(t, []string{"local", "prefix", "prefer-recent", "intitle", "insource", "never"}, names)

	f, ok := r.Lookup("intitle")
	require.True(t, ok)
	assert.Equal(t, "intitle", f.Name())

	_, ok = r.Lookup("InTitle")
	assert.False(t, ok)
}

func TestSpanSet(t *testing.T) {
	var s spanSet
	s.Add(10, 15)
	s.Add(0, 4)

	assert.True(t, s.Overlaps(3, 6))
	assert.False(t, s.Overlaps(4, 10))
	assert.True(t, s.Overlaps(12, 12))
	assert.True(t, s.EndsAt(15))
	assert.False(t, s.EndsAt(14))
	assert.Equal(t, 10, s.nextStart(5, 100))
	assert.Equal(t, 8, s.nextStart(5, 8))
}
