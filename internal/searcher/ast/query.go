package ast

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownClass is returned when asking for a query class no registered
// classifier produces.
var ErrUnknownClass = errors.New("unknown query class")

// Cleanup names a rewrite applied to the raw query before parsing.
type Cleanup string

const (
	CleanupStrippedQuestionMarks Cleanup = "stripped_qmark"
	CleanupGershayimQuirks       Cleanup = "gershayim_quirks"
	CleanupTildeHeader           Cleanup = "tilde_header"
)

// RequiredNamespaces is the namespace restriction implied by keywords.
// A zero value means no restriction.
type RequiredNamespaces struct {
	All bool
	IDs []int
}

func (r RequiredNamespaces) IsEmpty() bool { return !r.All && len(r.IDs) == 0 }

func (r RequiredNamespaces) toArray() any {
	if r.All {
		return "all"
	}
	ids := r.IDs
	if ids == nil {
		ids = []int{}
	}
	return ids
}

// ParsedQueryParams is the input of NewParsedQuery.
type ParsedQueryParams struct {
	Root               ParsedNode
	Query              string
	RawQuery           string
	Cleanups           []Cleanup
	NamespaceHeader    *NamespaceHeaderNode
	RequiredNamespaces RequiredNamespaces
	Warnings           []ParseWarning
	FeaturesUsed       []string
}

// ParsedQuery is the immutable result of a parse.
type ParsedQuery struct {
	root               ParsedNode
	query              string
	rawQuery           string
	cleanups           map[Cleanup]bool
	namespaceHeader    *NamespaceHeaderNode
	requiredNamespaces RequiredNamespaces
	warnings           []ParseWarning
	featuresUsed       []string
	classes            map[string]bool
}

// NewParsedQuery copies p into an immutable ParsedQuery.
func NewParsedQuery(p ParsedQueryParams) *ParsedQuery {
	root := p.Root
	if root == nil {
		root = NewEmptyQueryNode(0, len(p.RawQuery))
	}
	cleanups := make(map[Cleanup]bool, len(p.Cleanups))
	for _, c := range p.Cleanups {
		cleanups[c] = true
	}
	return &ParsedQuery{
		root:            root,
		query:           p.Query,
		rawQuery:        p.RawQuery,
		cleanups:        cleanups,
		namespaceHeader: p.NamespaceHeader,
		requiredNamespaces: RequiredNamespaces{
			All: p.RequiredNamespaces.All,
			IDs: append([]int(nil), p.RequiredNamespaces.IDs...),
		},
		warnings:     append([]ParseWarning(nil), p.Warnings...),
		featuresUsed: append([]string(nil), p.FeaturesUsed...),
		classes:      map[string]bool{},
	}
}

// WithClasses returns a copy carrying the given class memberships. Every
// class known to the classifiers must be present, true or false.
func (q *ParsedQuery) WithClasses(classes map[string]bool) *ParsedQuery {
	cp := *q
	cp.classes = make(map[string]bool, len(classes))
	for k, v := range classes {
		cp.classes[k] = v
	}
	return &cp
}

func (q *ParsedQuery) Root() ParsedNode { return q.root }

// Query is the cleaned query the nodes were parsed from.
func (q *ParsedQuery) Query() string { return q.query }

func (q *ParsedQuery) RawQuery() string { return q.rawQuery }

func (q *ParsedQuery) HasCleanup(c Cleanup) bool { return q.cleanups[c] }

func (q *ParsedQuery) Cleanups() []Cleanup {
	out := make([]Cleanup, 0, len(q.cleanups))
	for c := range q.cleanups {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (q *ParsedQuery) NamespaceHeader() *NamespaceHeaderNode { return q.namespaceHeader }

func (q *ParsedQuery) RequiredNamespaces() RequiredNamespaces {
	return RequiredNamespaces{All: q.requiredNamespaces.All, IDs: append([]int(nil), q.requiredNamespaces.IDs...)}
}

func (q *ParsedQuery) Warnings() []ParseWarning {
	return append([]ParseWarning(nil), q.warnings...)
}

func (q *ParsedQuery) HasWarnings() bool { return len(q.warnings) > 0 }

func (q *ParsedQuery) FeaturesUsed() []string {
	return append([]string(nil), q.featuresUsed...)
}

// Clauses returns the top-level clauses. A single-node root is a lone MUST
// clause.
func (q *ParsedQuery) Clauses() []BooleanClause {
	if b, ok := q.root.(*ParsedBooleanNode); ok {
		return b.Clauses()
	}
	return []BooleanClause{NewBooleanClause(q.root, Must, false)}
}

// IsQueryOfClass reports a precomputed class membership.
func (q *ParsedQuery) IsQueryOfClass(class string) (bool, error) {
	v, ok := q.classes[class]
	if !ok {
		return false, fmt.Errorf("%w: %q", ErrUnknownClass, class)
	}
	return v, nil
}

// Classes returns the sorted classes the query belongs to.
func (q *ParsedQuery) Classes() []string {
	out := make([]string, 0, len(q.classes))
	for c, v := range q.classes {
		if v {
			out = append(out, c)
		}
	}
	sort.Strings(out)
	return out
}

// ToArray renders the query as the JSON document served by the API.
func (q *ParsedQuery) ToArray() map[string]any {
	warnings := make([]map[string]any, 0, len(q.warnings))
	for _, w := range q.warnings {
		warnings = append(warnings, w.ToArray())
	}
	cleanups := make([]string, 0, len(q.cleanups))
	for _, c := range q.Cleanups() {
		cleanups = append(cleanups, string(c))
	}
	features := q.featuresUsed
	if features == nil {
		features = []string{}
	}
	out := map[string]any{
		"query":              q.query,
		"rawQuery":           q.rawQuery,
		"root":               q.root.ToArray(),
		"queryCleanups":      cleanups,
		"requiredNamespaces": q.requiredNamespaces.toArray(),
		"warnings":           warnings,
		"featuresUsed":       features,
		"queryClasses":       q.Classes(),
	}
	if q.namespaceHeader != nil {
		out["namespaceHeader"] = q.namespaceHeader.ToArray()
	}
	return out
}
