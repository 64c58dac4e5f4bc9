package keyword

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode"
)

var (
	ErrDuplicateKeyword = errors.New("duplicate keyword")
	ErrInvalidFeature   = errors.New("invalid keyword feature")
)

// Registry is an immutable set of features. Safe for concurrent use.
type Registry struct {
	byKeyword map[string]Feature
	ordered   []Feature
}

// Builder collects features for a Registry.
type Builder struct {
	features []Feature
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Register queues features for Build. Errors are reported by Build.
func (b *Builder) Register(features ...Feature) *Builder {
	b.features = append(b.features, features...)
	return b
}

// Build validates the queued features and orders them for tagging. Duplicate
// keywords and conflicting syntax options are errors.
func (b *Builder) Build() (*Registry, error) {
	r := &Registry{byKeyword: make(map[string]Feature)}
	for i, f := range b.features {
		if err := validate(f); err != nil {
			return nil, fmt.Errorf("feature #%d: %w", i, err)
		}
		for _, kw := range f.Keywords() {
			if prev, ok := r.byKeyword[kw]; ok {
				return nil, fmt.Errorf("%w: %q claimed by %s and %s", ErrDuplicateKeyword, kw, prev.Name(), f.Name())
			}
			r.byKeyword[kw] = f
		}
		r.ordered = append(r.ordered, f)
	}
	sort.SliceStable(r.ordered, func(i, j int) bool {
		return priority(r.ordered[i].Syntax()) < priority(r.ordered[j].Syntax())
	})
	return r, nil
}

// MustBuild is Build for static registries; it panics on error.
func (b *Builder) MustBuild() *Registry {
	r, err := b.Build()
	if err != nil {
		panic(err)
	}
	return r
}

func validate(f Feature) error {
	if f == nil {
		return fmt.Errorf("%w: nil feature", ErrInvalidFeature)
	}
	if f.Name() == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidFeature)
	}
	kws := f.Keywords()
	if len(kws) == 0 {
		return fmt.Errorf("%w: %s has no keywords", ErrInvalidFeature, f.Name())
	}
	for _, kw := range kws {
		if kw == "" || strings.ContainsAny(kw, `:"`) || strings.IndexFunc(kw, unicode.IsSpace) >= 0 {
			return fmt.Errorf("%w: %s has malformed keyword %q", ErrInvalidFeature, f.Name(), kw)
		}
	}
	s := f.Syntax()
	if s.Greedy && s.AllowEmptyValue {
		return fmt.Errorf("%w: %s is greedy and allows empty values", ErrInvalidFeature, f.Name())
	}
	if s.NoValue && (s.Greedy || s.AllowEmptyValue) {
		return fmt.Errorf("%w: %s takes no value but sets value options", ErrInvalidFeature, f.Name())
	}
	return nil
}

// priority orders features for tagging: non-greedy headers, greedy headers,
// greedy, allow-empty, then everything else.
func priority(s Syntax) int {
	switch {
	case s.QueryHeader && !s.Greedy:
		return 0
	case s.QueryHeader:
		return 1
	case s.Greedy:
		return 2
	case s.AllowEmptyValue:
		return 3
	default:
		return 4
	}
}

// Lookup finds the feature owning keyword name. Matching is case-sensitive.
func (r *Registry) Lookup(name string) (Feature, bool) {
	if r == nil {
		return nil, false
	}
	f, ok := r.byKeyword[name]
	return f, ok
}

// Features returns the features in tagging order.
func (r *Registry) Features() []Feature {
	if r == nil {
		return nil
	}
	return append([]Feature(nil), r.ordered...)
}

// Keywords returns every registered keyword, sorted.
func (r *Registry) Keywords() []string {
	if r == nil {
		return nil
	}
	out := make([]string, 0, len(r.byKeyword))
	for kw := range r.byKeyword {
		out = append(out, kw)
	}
	sort.Strings(out)
	return out
}
