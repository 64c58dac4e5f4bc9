package features

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/Search-Query-Parser/internal/searcher/ast"
	"github.com/Adithya-Monish-Kumar-K/Search-Query-Parser/internal/searcher/keyword"
)

var listDelimiters = []keyword.Delimiter{keyword.Quote, keyword.Brackets}

// InCategory filters on categories: incategory:A|B or incategory:[A|B].
type InCategory struct{}

func (InCategory) Name() string       { return "incategory" }
func (InCategory) Keywords() []string { return []string{"incategory"} }
func (InCategory) Syntax() keyword.Syntax {
	return keyword.Syntax{Delimiters: listDelimiters}
}

func (InCategory) ParseValue(v ast.KeywordValue, w *ast.Warnings) (any, bool) {
	categories := splitList(v.Value, w)
	if len(categories) == 0 {
		w.Warn(WarnInvalidValue, v.Key)
		return nil, false
	}
	return map[string]any{"categories": categories}, true
}

// HasTemplate filters on transcluded templates. Names without a namespace
// are templates; a leading ":" means the main namespace.
type HasTemplate struct{}

func (HasTemplate) Name() string       { return "hastemplate" }
func (HasTemplate) Keywords() []string { return []string{"hastemplate"} }
func (HasTemplate) Syntax() keyword.Syntax {
	return keyword.Syntax{Delimiters: listDelimiters}
}

func (HasTemplate) ParseValue(v ast.KeywordValue, w *ast.Warnings) (any, bool) {
	names := splitList(v.Value, w)
	if len(names) == 0 {
		w.Warn(WarnInvalidValue, v.Key)
		return nil, false
	}
	templates := make([]string, 0, len(names))
	for _, n := range names {
		switch {
		case strings.HasPrefix(n, ":"):
			templates = append(templates, strings.TrimPrefix(n, ":"))
		case strings.Contains(n, ":"):
			templates = append(templates, n)
		default:
			templates = append(templates, "Template:"+n)
		}
	}
	return map[string]any{"templates": templates}, true
}

// BoostTemplates reweights results transcluding templates:
// boost-templates:"Template:Featured|150%".
type BoostTemplates struct{}

func (BoostTemplates) Name() string       { return "boost-templates" }
func (BoostTemplates) Keywords() []string { return []string{"boost-templates"} }
func (BoostTemplates) Syntax() keyword.Syntax {
	return keyword.Syntax{Decorative: true}
}

func (BoostTemplates) ParseValue(v ast.KeywordValue, w *ast.Warnings) (any, bool) {
	fields := strings.Fields(v.Value)
	boosts := make(map[string]float64, len(fields))
	for _, f := range fields {
		name, pct, ok := strings.Cut(f, "|")
		if !ok || name == "" || !strings.HasSuffix(pct, "%") {
			w.Warn(WarnInvalidValue, v.Key, f)
			continue
		}
		n, err := strconv.ParseFloat(strings.TrimSuffix(pct, "%"), 64)
		if err != nil || n < 0 {
			w.Warn(WarnInvalidValue, v.Key, f)
			continue
		}
		boosts[name] = n / 100
	}
	if len(boosts) == 0 {
		return nil, false
	}
	return map[string]any{"boosts": boosts}, true
}

// PreferRecent boosts recently edited pages: prefer-recent:[decay,halflife].
// The value may be empty.
type PreferRecent struct{}

const (
	defaultRecentDecay    = 0.6
	defaultRecentHalfLife = 160.0
)

func (PreferRecent) Name() string       { return "prefer-recent" }
func (PreferRecent) Keywords() []string { return []string{"prefer-recent"} }
func (PreferRecent) Syntax() keyword.Syntax {
	return keyword.Syntax{AllowEmptyValue: true, Decorative: true}
}

func (PreferRecent) ParseValue(v ast.KeywordValue, w *ast.Warnings) (any, bool) {
	decay, halfLife := defaultRecentDecay, defaultRecentHalfLife
	if v.Value != "" {
		parts := strings.Split(v.Value, ",")
		d, err := strconv.ParseFloat(parts[0], 64)
		if err != nil || d < 0 || d > 1 {
			w.Warn(WarnInvalidValue, v.Key, v.Value)
		} else {
			decay = d
		}
		if len(parts) > 1 {
			h, err := strconv.ParseFloat(parts[1], 64)
			if err != nil || h <= 0 {
				w.Warn(WarnInvalidValue, v.Key, v.Value)
			} else {
				halfLife = h
			}
		}
	}
	return map[string]any{"decay": decay, "halfLife": halfLife}, true
}

// Prefix matches titles starting with the value. It takes the rest of the
// query; a namespace prefix ("Talk:Foo", "all:Foo") restricts namespaces.
type Prefix struct {
	Namespaces NamespaceLookup
}

// PrefixValue is the parsed value of prefix:.
type PrefixValue struct {
	Prefix    string
	Namespace int
	HasNs     bool
	AllNs     bool
}

func (v PrefixValue) RequiredNamespaces() ast.RequiredNamespaces {
	switch {
	case v.AllNs:
		return ast.RequiredNamespaces{All: true}
	case v.HasNs:
		return ast.RequiredNamespaces{IDs: []int{v.Namespace}}
	}
	return ast.RequiredNamespaces{}
}

func (v PrefixValue) MarshalJSON() ([]byte, error) {
	ns := "null"
	switch {
	case v.AllNs:
		ns = `"all"`
	case v.HasNs:
		ns = strconv.Itoa(v.Namespace)
	}
	return []byte(fmt.Sprintf(`{"prefix":%s,"namespace":%s}`, strconv.Quote(v.Prefix), ns)), nil
}

func (Prefix) Name() string           { return "prefix" }
func (Prefix) Keywords() []string     { return []string{"prefix"} }
func (Prefix) Syntax() keyword.Syntax { return keyword.Syntax{Greedy: true} }

func (p Prefix) ParseValue(v ast.KeywordValue, _ *ast.Warnings) (any, bool) {
	value := strings.TrimSpace(v.Value)
	if len(value) >= 2 && value[0] == '"' && value[len(value)-1] == '"' {
		value = strings.ReplaceAll(value[1:len(value)-1], `\"`, `"`)
	}
	out := PrefixValue{Prefix: value}
	name, rest, ok := strings.Cut(value, ":")
	if !ok {
		return out, true
	}
	if strings.EqualFold(name, "all") {
		out.AllNs = true
		out.Prefix = rest
		return out, true
	}
	if p.Namespaces != nil {
		if id, found := p.Namespaces.Resolve(name, true); found {
			out.HasNs = true
			out.Namespace = id
			out.Prefix = rest
		}
	}
	return out, true
}
