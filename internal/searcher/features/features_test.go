package features

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/Search-Query-Parser/internal/searcher/ast"
	"github.com/Adithya-Monish-Kumar-K/Search-Query-Parser/internal/searcher/keyword"
)

type nsLookup map[string]int

func (m nsLookup) Resolve(name string, foldCase bool) (int, bool) {
	if foldCase {
		name = strings.ToLower(name)
	}
	id, ok := m[name]
	return id, ok
}

func TestRegistry(t *testing.T) {
	r, err := Registry(nil, nil)
	require.NoError(t, err)
	assert.Len(t, r.Features(), len(Names()))

	r, err = Registry([]string{"intitle", "prefix"}, nil)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"intitle", "prefix"}, r.Keywords())

	_, err = Registry([]string{"nope"}, nil)
	assert.ErrorIs(t, err, ErrUnknownFeature)
}

func TestListFeatures(t *testing.T) {
	var w ast.Warnings

	v, ok := InCategory{}.ParseValue(ast.KeywordValue{Key: "incategory", Value: "A| B ||C"}, &w)
	require.True(t, ok)
	assert.Equal(t, map[string]any{"categories": []string{"A", "B", "C"}}, v)

	_, ok = InCategory{}.ParseValue(ast.KeywordValue{Key: "incategory", Value: "|"}, &w)
	assert.False(t, ok)
	require.Equal(t, 1, w.Len())
	assert.Equal(t, WarnInvalidValue, w.List()[0].Code)

	v, ok = HasTemplate{}.ParseValue(ast.KeywordValue{Key: "hastemplate", Value: "Foo|:Bar|User:Baz"}, &w)
	require.True(t, ok)
	assert.Equal(t, map[string]any{"templates": []string{"Template:Foo", "Bar", "User:Baz"}}, v)
}

func TestTooManyValues(t *testing.T) {
	var w ast.Warnings
	parts := make([]string, MaxListValues+5)
	for i := range parts {
		parts[i] = "c"
	}
	v, ok := InCategory{}.ParseValue(ast.KeywordValue{Key: "incategory", Value: strings.Join(parts, "|")}, &w)
	require.True(t, ok)
	assert.Len(t, v.(map[string]any)["categories"], MaxListValues)
	require.Equal(t, 1, w.Len())
	assert.Equal(t, WarnTooManyValues, w.List()[0].Code)
}

func TestBoostTemplates(t *testing.T) {
	var w ast.Warnings
	v, ok := BoostTemplates{}.ParseValue(ast.KeywordValue{Key: "boost-templates", Value: "Template:Good|150% Bad|x"}, &w)
	require.True(t, ok)
	assert.Equal(t, map[string]any{"boosts": map[string]float64{"Template:Good": 1.5}}, v)
	assert.Equal(t, 1, w.Len())

	_, ok = BoostTemplates{}.ParseValue(ast.KeywordValue{Key: "boost-templates", Value: "nothing"}, &w)
	assert.False(t, ok)
}

func TestPreferRecent(t *testing.T) {
	testCases := map[string]struct {
		value    string
		decay    float64
		halfLife float64
		warnings int
	}{
		"empty":         {value: "", decay: 0.6, halfLife: 160},
		"decay":         {value: "0.5", decay: 0.5, halfLife: 160},
		"both":          {value: "0.3,14", decay: 0.3, halfLife: 14},
		"bad decay":     {value: "2", decay: 0.6, halfLife: 160, warnings: 1},
		"bad half life": {value: "0.3,-1", decay: 0.3, halfLife: 160, warnings: 1},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			var w ast.Warnings
			v, ok := PreferRecent{}.ParseValue(ast.KeywordValue{Key: "prefer-recent", Value: tc.value}, &w)
			require.True(t, ok)
			assert.Equal(t, map[string]any{"decay": tc.decay, "halfLife": tc.halfLife}, v)
			assert.Equal(t, tc.warnings, w.Len())
		})
	}
}

func TestRegexFeatures(t *testing.T) {
	var w ast.Warnings
	regex := ast.KeywordValue{Key: "insource", Value: "a.c", Delimiter: "/", Suffix: "i"}

	v, ok := InSource{}.ParseValue(regex, &w)
	require.True(t, ok)
	assert.Equal(t, map[string]any{"pattern": "a.c", "caseInsensitive": true}, v)
	assert.Equal(t, "regex", keyword.UsedName(InSource{}, regex))

	plain := ast.KeywordValue{Key: "insource", Value: "foo"}
	v, ok = InSource{}.ParseValue(plain, &w)
	require.True(t, ok)
	assert.Nil(t, v)
	assert.Equal(t, "insource", keyword.UsedName(InSource{}, plain))

	_, ok = InSource{}.ParseValue(ast.KeywordValue{Key: "insource", Delimiter: "/"}, &w)
	assert.False(t, ok)
	assert.Equal(t, 1, w.Len())

	assert.Equal(t, "regex", keyword.UsedName(InTitle{}, ast.KeywordValue{Delimiter: "/"}))
}

func TestMoreLike(t *testing.T) {
	var w ast.Warnings
	v, ok := MoreLike{}.ParseValue(ast.KeywordValue{Key: "morelike", Value: "Foo|Bar baz"}, &w)
	require.True(t, ok)
	assert.Equal(t, map[string]any{"titles": []string{"Foo", "Bar baz"}}, v)
}

func TestPrefix(t *testing.T) {
	p := Prefix{Namespaces: nsLookup{"talk": 1}}
	testCases := map[string]struct {
		value    string
		expected PrefixValue
		required ast.RequiredNamespaces
		json     string
	}{
		"plain": {
			value:    "Foo",
			expected: PrefixValue{Prefix: "Foo"},
			json:     `{"prefix":"Foo","namespace":null}`,
		},
		"namespace": {
			value:    "Talk:Foo",
			expected: PrefixValue{Prefix: "Foo", Namespace: 1, HasNs: true},
			required: ast.RequiredNamespaces{IDs: []int{1}},
			json:     `{"prefix":"Foo","namespace":1}`,
		},
		"all": {
			value:    "all:Foo",
			expected: PrefixValue{Prefix: "Foo", AllNs: true},
			required: ast.RequiredNamespaces{All: true},
			json:     `{"prefix":"Foo","namespace":"all"}`,
		},
		"unknown namespace": {
			value:    "Nope:Foo",
			expected: PrefixValue{Prefix: "Nope:Foo"},
			json:     `{"prefix":"Nope:Foo","namespace":null}`,
		},
		"quoted": {
			value:    `"a \"b\""`,
			expected: PrefixValue{Prefix: `a "b"`},
			json:     `{"prefix":"a \"b\"","namespace":null}`,
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			v, ok := p.ParseValue(ast.KeywordValue{Key: "prefix", Value: tc.value}, &ast.Warnings{})
			require.True(t, ok)
			pv := v.(PrefixValue)
			assert.Equal(t, tc.expected, pv)
			assert.Equal(t, tc.required, pv.RequiredNamespaces())

			raw, err := json.Marshal(pv)
			require.NoError(t, err)
			assert.JSONEq(t, tc.json, string(raw))
		})
	}
}
