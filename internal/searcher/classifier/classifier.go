// Package classifier answers category questions about a parsed query so
// callers can pick a query execution strategy.
package classifier

import (
	"errors"
	"fmt"
	"sort"

	"github.com/Adithya-Monish-Kumar-K/Search-Query-Parser/internal/searcher/ast"
	"github.com/Adithya-Monish-Kumar-K/Search-Query-Parser/internal/searcher/keyword"
)

var (
	ErrClassifierConfig  = errors.New("invalid classifier configuration")
	ErrUnknownClassifier = ast.ErrUnknownClass
)

// Classifier is a pure function over a ParsedQuery. Classify returns the
// subset of Classes the query belongs to.
type Classifier interface {
	Classes() []string
	Classify(q *ast.ParsedQuery) []string
}

// Repository maps class names to the classifier producing them. Register
// everything before sharing it between goroutines.
type Repository struct {
	byClass     map[string]Classifier
	classifiers []Classifier
}

// NewRepository returns an empty repository.
func NewRepository() *Repository {
	return &Repository{byClass: make(map[string]Classifier)}
}

// DefaultRepository holds Basic, Syntax and, with a registry, Keyword.
func DefaultRepository(registry *keyword.Registry) (*Repository, error) {
	r := NewRepository()
	if err := r.Register(Basic{}); err != nil {
		return nil, err
	}
	if err := r.Register(Syntax{}); err != nil {
		return nil, err
	}
	if registry != nil {
		kw, err := NewKeyword(registry)
		if err != nil {
			return nil, err
		}
		if err := r.Register(kw); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds c. Two classifiers may not claim the same class.
func (r *Repository) Register(c Classifier) error {
	if c == nil {
		return fmt.Errorf("%w: nil classifier", ErrClassifierConfig)
	}
	classes := c.Classes()
	if len(classes) == 0 {
		return fmt.Errorf("%w: classifier %T declares no class", ErrClassifierConfig, c)
	}
	for _, class := range classes {
		if _, ok := r.byClass[class]; ok {
			return fmt.Errorf("%w: class %q registered twice", ErrClassifierConfig, class)
		}
	}
	for _, class := range classes {
		r.byClass[class] = c
	}
	r.classifiers = append(r.classifiers, c)
	return nil
}

func (r *Repository) Classifier(class string) (Classifier, error) {
	c, ok := r.byClass[class]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownClassifier, class)
	}
	return c, nil
}

// Known returns every class name, sorted.
func (r *Repository) Known() []string {
	out := make([]string, 0, len(r.byClass))
	for class := range r.byClass {
		out = append(out, class)
	}
	sort.Strings(out)
	return out
}

// Classify runs every classifier. The result has an entry for each known
// class.
func (r *Repository) Classify(q *ast.ParsedQuery) map[string]bool {
	out := make(map[string]bool, len(r.byClass))
	for class := range r.byClass {
		out[class] = false
	}
	for _, c := range r.classifiers {
		for _, class := range c.Classify(q) {
			out[class] = true
		}
	}
	return out
}
