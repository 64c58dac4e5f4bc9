// Package features holds the built-in keyword features and assembles them
// into a keyword.Registry by name.
package features

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/Search-Query-Parser/internal/searcher/ast"
	"github.com/Adithya-Monish-Kumar-K/Search-Query-Parser/internal/searcher/keyword"
)

// Warning codes recorded while parsing keyword values.
const (
	WarnInvalidValue  = "invalid-value"
	WarnTooManyValues = "too-many-values"
)

// MaxListValues caps incategory and hastemplate value lists.
const MaxListValues = 256

var ErrUnknownFeature = errors.New("unknown keyword feature")

// NamespaceLookup resolves namespace names, as the parser's resolver does.
type NamespaceLookup interface {
	Resolve(name string, foldCase bool) (int, bool)
}

type constructor func(ns NamespaceLookup) keyword.Feature

var builtins = map[string]constructor{
	"intitle":         func(NamespaceLookup) keyword.Feature { return InTitle{} },
	"insource":        func(NamespaceLookup) keyword.Feature { return InSource{} },
	"incategory":      func(NamespaceLookup) keyword.Feature { return InCategory{} },
	"hastemplate":     func(NamespaceLookup) keyword.Feature { return HasTemplate{} },
	"prefix":          func(ns NamespaceLookup) keyword.Feature { return Prefix{Namespaces: ns} },
	"prefer-recent":   func(NamespaceLookup) keyword.Feature { return PreferRecent{} },
	"local":           func(NamespaceLookup) keyword.Feature { return Local{} },
	"morelike":        func(NamespaceLookup) keyword.Feature { return MoreLike{} },
	"boost-templates": func(NamespaceLookup) keyword.Feature { return BoostTemplates{} },
}

// Names lists the built-in features, sorted.
func Names() []string {
	out := make([]string, 0, len(builtins))
	for name := range builtins {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Registry builds a registry of the named built-in features. An empty list
// enables all of them. ns may be nil, prefix: then only understands "all".
func Registry(names []string, ns NamespaceLookup) (*keyword.Registry, error) {
	if len(names) == 0 {
		names = Names()
	}
	b := keyword.NewBuilder()
	for _, name := range names {
		ctor, ok := builtins[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownFeature, name)
		}
		b.Register(ctor(ns))
	}
	return b.Build()
}

// splitList splits a|b|c, dropping empty entries.
func splitList(v string, w *ast.Warnings) []string {
	var out []string
	for _, part := range strings.Split(v, "|") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if len(out) == MaxListValues {
			w.Warn(WarnTooManyValues, fmt.Sprint(MaxListValues))
			break
		}
		out = append(out, part)
	}
	return out
}
