// Package namespace maps namespace names ("Talk", "User_talk") to their
// numeric ids for the parser's namespace header and the prefix: keyword.
package namespace

import (
	"maps"
	"sort"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/text/cases"
)

// Resolver is a name to id table that can be replaced at runtime by a
// Refresher. Lookups are safe for concurrent use.
type Resolver struct {
	mu     sync.RWMutex
	exact  map[string]int
	folded map[string]int
}

// NewStatic builds a resolver from a fixed table. Underscores in names are
// read as spaces.
func NewStatic(names map[string]int) *Resolver {
	r := &Resolver{}
	r.Replace(names)
	return r
}

// Replace swaps the whole table and reports whether it changed.
func (r *Resolver) Replace(names map[string]int) bool {
	exact := make(map[string]int, len(names))
	folded := make(map[string]int, len(names))
	fold := cases.Fold()
	for name, id := range names {
		n := normalize(name)
		if n == "" {
			continue
		}
		exact[n] = id
		folded[fold.String(n)] = id
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	changed := !maps.Equal(r.exact, exact)
	r.exact, r.folded = exact, folded
	return changed
}

// Resolve returns the id of name. With foldCase, "TALK" and "talk" both
// match "Talk".
func (r *Resolver) Resolve(name string, foldCase bool) (int, bool) {
	n := normalize(name)
	if n == "" {
		return 0, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if id, ok := r.exact[n]; ok {
		return id, true
	}
	if !foldCase {
		return 0, false
	}
	id, ok := r.folded[cases.Fold().String(n)]
	return id, ok
}

// Names returns the known names, sorted.
func (r *Resolver) Names() []string {
	r.mu.RLock()
	out := make([]string, 0, len(r.exact))
	for n := range r.exact {
		out = append(out, n)
	}
	r.mu.RUnlock()
	sort.Strings(out)
	return out
}

// Digest is a stable rendering of the table ("name=id" lines in name
// order). Equal tables give equal digests.
func (r *Resolver) Digest() string {
	r.mu.RLock()
	lines := make([]string, 0, len(r.exact))
	for n, id := range r.exact {
		lines = append(lines, n+"="+strconv.Itoa(id))
	}
	r.mu.RUnlock()
	sort.Strings(lines)
	return strings.Join(lines, "\n")
}

func (r *Resolver) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.exact)
}

func normalize(name string) string {
	return strings.TrimSpace(strings.ReplaceAll(name, "_", " "))
}
