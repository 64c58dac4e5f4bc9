// Package ast defines the parsed representation of a search query: a closed
// set of node types, boolean clauses, parse warnings and the ParsedQuery
// envelope returned by the parser.
package ast

// NodeType names a node variant. It is also the key used by ToArray.
type NodeType string

const (
	TypeWords           NodeType = "words"
	TypePhrase          NodeType = "phrase"
	TypePhrasePrefix    NodeType = "phrase_prefix"
	TypePrefix          NodeType = "prefix"
	TypeWildcard        NodeType = "wildcard"
	TypeFuzzy           NodeType = "fuzzy"
	TypeNegated         NodeType = "not"
	TypeKeyword         NodeType = "keyword"
	TypeNamespaceHeader NodeType = "namespace_header"
	TypeBoolean         NodeType = "bool"
	TypeEmpty           NodeType = "empty"
)

// ParsedNode is implemented only by the node types of this package.
// Offsets are byte offsets into the raw query, end exclusive.
type ParsedNode interface {
	StartOffset() int
	EndOffset() int
	Type() NodeType
	ToArray() map[string]any
	Accept(v Visitor)

	parsedNode()
}

type span struct {
	start int
	end   int
}

func (s span) StartOffset() int { return s.start }
func (s span) EndOffset() int   { return s.end }
func (span) parsedNode()        {}

func (s span) payload() map[string]any {
	return map[string]any{
		"startOffset": s.start,
		"endOffset":   s.end,
	}
}

func wrap(t NodeType, payload map[string]any) map[string]any {
	return map[string]any{string(t): payload}
}

// Occur is the boolean role of a clause.
type Occur string

const (
	Must    Occur = "MUST"
	MustNot Occur = "MUST_NOT"
	Should  Occur = "SHOULD"
)

// BooleanClause ties a node to its occur. Explicit is set when the role came
// from an operator typed by the user (AND, OR, NOT) rather than adjacency.
type BooleanClause struct {
	node     ParsedNode
	occur    Occur
	explicit bool
}

func NewBooleanClause(node ParsedNode, occur Occur, explicit bool) BooleanClause {
	return BooleanClause{node: node, occur: occur, explicit: explicit}
}

func (c BooleanClause) Node() ParsedNode { return c.node }
func (c BooleanClause) Occur() Occur     { return c.occur }
func (c BooleanClause) Explicit() bool   { return c.explicit }

func (c BooleanClause) ToArray() map[string]any {
	return map[string]any{
		"occur":    string(c.occur),
		"explicit": c.explicit,
		"node":     c.node.ToArray(),
	}
}
