// Package keyword implements keyword features (intitle:, insource:, ...):
// the Feature contract, an immutable Registry and the Parser that tags
// keyword invocations in a query before the rest is tokenized.
package keyword

import (
	"github.com/Adithya-Monish-Kumar-K/Search-Query-Parser/internal/searcher/ast"
)

// Delimiter describes a quoting style accepted around a keyword value.
// Suffixes lists the bytes allowed right after the closing delimiter.
type Delimiter struct {
	Open     byte
	Close    byte
	Suffixes string
}

var (
	Quote    = Delimiter{Open: '"', Close: '"'}
	Regex    = Delimiter{Open: '/', Close: '/', Suffixes: "i"}
	Brackets = Delimiter{Open: '[', Close: ']'}
)

// Syntax controls how the value of a keyword is matched.
type Syntax struct {
	// Greedy values run to the end of the query (or the next keyword).
	Greedy bool
	// QueryHeader keywords are only recognised at the head of the query.
	QueryHeader bool
	// AllowEmptyValue accepts "name:" with nothing after it.
	AllowEmptyValue bool
	// NoValue keywords take no value at all ("local:").
	NoValue bool
	// Decorative keywords tune ranking without restricting the result set.
	Decorative bool
	// Delimiters defaults to Quote.
	Delimiters []Delimiter
}

func (s Syntax) delimiters() []Delimiter {
	if len(s.Delimiters) == 0 {
		return []Delimiter{Quote}
	}
	return s.Delimiters
}

// Feature is a keyword the parser recognises. ParseValue validates and
// converts the textual value; returning accept=false leaves the text to the
// word parser. It may record warnings through w.
type Feature interface {
	Name() string
	Keywords() []string
	Syntax() Syntax
	ParseValue(v ast.KeywordValue, w *ast.Warnings) (parsed any, accept bool)
}

// NamespaceRequirer is implemented by parsed values that restrict the
// namespaces a query may search.
type NamespaceRequirer interface {
	RequiredNamespaces() ast.RequiredNamespaces
}

// FeatureNamer lets a feature report a more specific name for the features
// used list, e.g. "regex" for insource:/.../.
type FeatureNamer interface {
	FeatureName(v ast.KeywordValue) string
}

// UsedName returns the name f reports for an invocation with value v.
func UsedName(f ast.Keyword, v ast.KeywordValue) string {
	if n, ok := f.(FeatureNamer); ok {
		return n.FeatureName(v)
	}
	return f.Name()
}
