package features

import (
	"github.com/Adithya-Monish-Kumar-K/Search-Query-Parser/internal/searcher/ast"
	"github.com/Adithya-Monish-Kumar-K/Search-Query-Parser/internal/searcher/keyword"
)

// InTitle restricts matches to page titles: intitle:foo, intitle:"foo bar",
// intitle:/regex/.
type InTitle struct{}

func (InTitle) Name() string       { return "intitle" }
func (InTitle) Keywords() []string { return []string{"intitle"} }
func (InTitle) Syntax() keyword.Syntax {
	return keyword.Syntax{Delimiters: []keyword.Delimiter{keyword.Quote, keyword.Regex}}
}

func (InTitle) ParseValue(v ast.KeywordValue, _ *ast.Warnings) (any, bool) {
	if v.Delimiter == "/" {
		return regexValue(v), true
	}
	return nil, true
}

func (InTitle) FeatureName(v ast.KeywordValue) string {
	if v.Delimiter == "/" {
		return "regex"
	}
	return "intitle"
}

// InSource searches the page source, with a regex form.
type InSource struct{}

func (InSource) Name() string       { return "insource" }
func (InSource) Keywords() []string { return []string{"insource"} }
func (InSource) Syntax() keyword.Syntax {
	return keyword.Syntax{Delimiters: []keyword.Delimiter{keyword.Quote, keyword.Regex}}
}

func (InSource) ParseValue(v ast.KeywordValue, w *ast.Warnings) (any, bool) {
	if v.Delimiter != "/" {
		return nil, true
	}
	if v.Value == "" {
		w.Warn(WarnInvalidValue, v.Key)
		return nil, false
	}
	return regexValue(v), true
}

func (InSource) FeatureName(v ast.KeywordValue) string {
	if v.Delimiter == "/" {
		return "regex"
	}
	return "insource"
}

func regexValue(v ast.KeywordValue) map[string]any {
	return map[string]any{
		"pattern":         v.Value,
		"caseInsensitive": v.Suffix == "i",
	}
}

// MoreLike finds pages similar to the listed titles. It consumes the rest of
// the query.
type MoreLike struct{}

func (MoreLike) Name() string           { return "morelike" }
func (MoreLike) Keywords() []string     { return []string{"morelike"} }
func (MoreLike) Syntax() keyword.Syntax { return keyword.Syntax{Greedy: true} }

func (MoreLike) ParseValue(v ast.KeywordValue, w *ast.Warnings) (any, bool) {
	titles := splitList(v.Value, w)
	if len(titles) == 0 {
		w.Warn(WarnInvalidValue, v.Key)
		return nil, false
	}
	return map[string]any{"titles": titles}, true
}

// Local limits the search to the local wiki. Header only, no value.
type Local struct{}

func (Local) Name() string       { return "local" }
func (Local) Keywords() []string { return []string{"local"} }
func (Local) Syntax() keyword.Syntax {
	return keyword.Syntax{QueryHeader: true, NoValue: true}
}

func (Local) ParseValue(ast.KeywordValue, *ast.Warnings) (any, bool) { return nil, true }
