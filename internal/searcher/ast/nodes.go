package ast

import (
	"strings"

	"github.com/Adithya-Monish-Kumar-K/Search-Query-Parser/internal/searcher/lexutil"
)

// WordsQueryNode is plain text. The value has its backslash escapes removed.
type WordsQueryNode struct {
	span
	words string
}

func NewWordsQueryNode(start, end int, words string) *WordsQueryNode {
	return &WordsQueryNode{span: span{start, end}, words: words}
}

func (n *WordsQueryNode) Words() string  { return n.words }
func (n *WordsQueryNode) Type() NodeType { return TypeWords }
func (n *WordsQueryNode) Accept(v Visitor) {
	v.VisitWordsQueryNode(n)
}

func (n *WordsQueryNode) ToArray() map[string]any {
	p := n.payload()
	p["words"] = n.words
	return wrap(TypeWords, p)
}

// PhraseQueryNode is a quoted phrase. Slop is -1 when no ~N suffix was given.
type PhraseQueryNode struct {
	span
	phrase     string
	slop       int
	stem       bool
	unbalanced bool
}

func NewPhraseQueryNode(start, end int, phrase string, slop int, stem, unbalanced bool) *PhraseQueryNode {
	return &PhraseQueryNode{
		span:       span{start, end},
		phrase:     phrase,
		slop:       slop,
		stem:       stem,
		unbalanced: unbalanced,
	}
}

func (n *PhraseQueryNode) Phrase() string   { return n.phrase }
func (n *PhraseQueryNode) Slop() int        { return n.slop }
func (n *PhraseQueryNode) Stem() bool       { return n.stem }
func (n *PhraseQueryNode) Unbalanced() bool { return n.unbalanced }
func (n *PhraseQueryNode) Type() NodeType   { return TypePhrase }
func (n *PhraseQueryNode) Accept(v Visitor) {
	v.VisitPhraseQueryNode(n)
}

// Terms splits the phrase on whitespace. An empty phrase has no terms.
func (n *PhraseQueryNode) Terms() []string {
	return strings.FieldsFunc(n.phrase, lexutil.IsWhitespace)
}

func (n *PhraseQueryNode) ToArray() map[string]any {
	p := n.payload()
	p["phrase"] = n.phrase
	if n.slop >= 0 {
		p["slop"] = n.slop
	} else {
		p["slop"] = nil
	}
	p["stem"] = n.stem
	p["unbalanced"] = n.unbalanced
	return wrap(TypePhrase, p)
}

// PhrasePrefixNode is a phrase whose last term is a prefix: "foo ba*".
type PhrasePrefixNode struct {
	span
	phrase string
}

func NewPhrasePrefixNode(start, end int, phrase string) *PhrasePrefixNode {
	return &PhrasePrefixNode{span: span{start, end}, phrase: phrase}
}

func (n *PhrasePrefixNode) Phrase() string { return n.phrase }
func (n *PhrasePrefixNode) Type() NodeType { return TypePhrasePrefix }
func (n *PhrasePrefixNode) Accept(v Visitor) {
	v.VisitPhrasePrefixNode(n)
}

func (n *PhrasePrefixNode) ToArray() map[string]any {
	p := n.payload()
	p["phrase"] = n.phrase
	return wrap(TypePhrasePrefix, p)
}

// PrefixNode is a word with a single trailing wildcard. The prefix excludes
// the star.
type PrefixNode struct {
	span
	prefix string
}

func NewPrefixNode(start, end int, prefix string) *PrefixNode {
	return &PrefixNode{span: span{start, end}, prefix: prefix}
}

func (n *PrefixNode) Prefix() string { return n.prefix }
func (n *PrefixNode) Type() NodeType { return TypePrefix }
func (n *PrefixNode) Accept(v Visitor) {
	v.VisitPrefixNode(n)
}

func (n *PrefixNode) ToArray() map[string]any {
	p := n.payload()
	p["prefix"] = n.prefix
	return wrap(TypePrefix, p)
}

// WildcardNode keeps its pattern verbatim, escapes included.
type WildcardNode struct {
	span
	wildcard string
}

func NewWildcardNode(start, end int, wildcard string) *WildcardNode {
	return &WildcardNode{span: span{start, end}, wildcard: wildcard}
}

func (n *WildcardNode) Wildcard() string { return n.wildcard }
func (n *WildcardNode) Type() NodeType   { return TypeWildcard }
func (n *WildcardNode) Accept(v Visitor) {
	v.VisitWildcardNode(n)
}

func (n *WildcardNode) ToArray() map[string]any {
	p := n.payload()
	p["wildcard"] = n.wildcard
	return wrap(TypeWildcard, p)
}

// FuzzyNode is word~ or word~N. Fuzziness is -1 when N is omitted.
type FuzzyNode struct {
	span
	word      string
	fuzziness int
}

func NewFuzzyNode(start, end int, word string, fuzziness int) *FuzzyNode {
	return &FuzzyNode{span: span{start, end}, word: word, fuzziness: fuzziness}
}

func (n *FuzzyNode) Word() string   { return n.word }
func (n *FuzzyNode) Fuzziness() int { return n.fuzziness }
func (n *FuzzyNode) Type() NodeType { return TypeFuzzy }
func (n *FuzzyNode) Accept(v Visitor) {
	v.VisitFuzzyNode(n)
}

func (n *FuzzyNode) ToArray() map[string]any {
	p := n.payload()
	p["word"] = n.word
	p["fuzziness"] = n.fuzziness
	return wrap(TypeFuzzy, p)
}

// NegatedNode wraps a child negated with "-", "!" or "NOT".
type NegatedNode struct {
	span
	child        ParsedNode
	negationType string
}

func NewNegatedNode(start, end int, child ParsedNode, negationType string) *NegatedNode {
	return &NegatedNode{span: span{start, end}, child: child, negationType: negationType}
}

func (n *NegatedNode) Child() ParsedNode    { return n.child }
func (n *NegatedNode) NegationType() string { return n.negationType }
func (n *NegatedNode) Type() NodeType       { return TypeNegated }
func (n *NegatedNode) Accept(v Visitor) {
	v.VisitNegatedNode(n)
}

func (n *NegatedNode) ToArray() map[string]any {
	p := n.payload()
	p["type"] = n.negationType
	p["child"] = n.child.ToArray()
	return wrap(TypeNegated, p)
}

// Keyword is the view of a keyword feature the AST depends on.
type Keyword interface {
	Name() string
}

// KeywordFeatureNode is a recognised keyword invocation such as
// intitle:"foo bar". Value is the unescaped value without delimiters,
// QuotedValue the value as typed including delimiters.
type KeywordFeatureNode struct {
	span
	feature     Keyword
	key         string
	value       string
	quotedValue string
	delimiter   string
	suffix      string
	parsedValue any
}

// KeywordValue carries the textual parts of a keyword invocation.
type KeywordValue struct {
	Key         string
	Value       string
	QuotedValue string
	Delimiter   string
	Suffix      string
}

func NewKeywordFeatureNode(start, end int, feature Keyword, v KeywordValue, parsedValue any) *KeywordFeatureNode {
	return &KeywordFeatureNode{
		span:        span{start, end},
		feature:     feature,
		key:         v.Key,
		value:       v.Value,
		quotedValue: v.QuotedValue,
		delimiter:   v.Delimiter,
		suffix:      v.Suffix,
		parsedValue: parsedValue,
	}
}

func (n *KeywordFeatureNode) Feature() Keyword    { return n.feature }
func (n *KeywordFeatureNode) Key() string         { return n.key }
func (n *KeywordFeatureNode) Value() string       { return n.value }
func (n *KeywordFeatureNode) QuotedValue() string { return n.quotedValue }
func (n *KeywordFeatureNode) Delimiter() string   { return n.delimiter }
func (n *KeywordFeatureNode) Suffix() string      { return n.suffix }
func (n *KeywordFeatureNode) ParsedValue() any    { return n.parsedValue }
func (n *KeywordFeatureNode) Type() NodeType      { return TypeKeyword }
func (n *KeywordFeatureNode) Accept(v Visitor) {
	v.VisitKeywordFeatureNode(n)
}

// KeywordValue returns the textual parts of the invocation.
func (n *KeywordFeatureNode) KeywordValue() KeywordValue {
	return KeywordValue{
		Key:         n.key,
		Value:       n.value,
		QuotedValue: n.quotedValue,
		Delimiter:   n.delimiter,
		Suffix:      n.suffix,
	}
}

func (n *KeywordFeatureNode) ToArray() map[string]any {
	p := n.payload()
	p["feature"] = n.feature.Name()
	p["key"] = n.key
	p["value"] = n.value
	p["quotedValue"] = n.quotedValue
	p["delimiter"] = n.delimiter
	p["suffix"] = n.suffix
	if n.parsedValue != nil {
		p["parsedValue"] = n.parsedValue
	}
	return wrap(TypeKeyword, p)
}

// NamespaceHeaderNode restricts the search to namespaces named at the head
// of the query ("talk:foo", "all:foo").
type NamespaceHeaderNode struct {
	span
	name       string
	namespaces []int
	all        bool
}

func NewNamespaceHeaderNode(start, end int, name string, namespaces []int, all bool) *NamespaceHeaderNode {
	return &NamespaceHeaderNode{
		span:       span{start, end},
		name:       name,
		namespaces: append([]int(nil), namespaces...),
		all:        all,
	}
}

func (n *NamespaceHeaderNode) Name() string { return n.name }
func (n *NamespaceHeaderNode) Namespaces() []int {
	return append([]int(nil), n.namespaces...)
}
func (n *NamespaceHeaderNode) All() bool      { return n.all }
func (n *NamespaceHeaderNode) Type() NodeType { return TypeNamespaceHeader }
func (n *NamespaceHeaderNode) Accept(v Visitor) {
	v.VisitNamespaceHeaderNode(n)
}

func (n *NamespaceHeaderNode) ToArray() map[string]any {
	p := n.payload()
	p["name"] = n.name
	if n.all {
		p["namespaces"] = "all"
	} else {
		p["namespaces"] = n.Namespaces()
	}
	return wrap(TypeNamespaceHeader, p)
}

// ParsedBooleanNode groups clauses. It is the root of any query with more
// than one top-level operand and the container of OR groups.
type ParsedBooleanNode struct {
	span
	clauses []BooleanClause
}

func NewParsedBooleanNode(start, end int, clauses []BooleanClause) *ParsedBooleanNode {
	return &ParsedBooleanNode{span: span{start, end}, clauses: append([]BooleanClause(nil), clauses...)}
}

func (n *ParsedBooleanNode) Clauses() []BooleanClause {
	return append([]BooleanClause(nil), n.clauses...)
}
func (n *ParsedBooleanNode) Type() NodeType { return TypeBoolean }
func (n *ParsedBooleanNode) Accept(v Visitor) {
	v.VisitParsedBooleanNode(n)
}

func (n *ParsedBooleanNode) ToArray() map[string]any {
	p := n.payload()
	clauses := make([]map[string]any, 0, len(n.clauses))
	for _, c := range n.clauses {
		clauses = append(clauses, c.ToArray())
	}
	p["clauses"] = clauses
	return wrap(TypeBoolean, p)
}

// EmptyQueryNode is the root of a query without any term.
type EmptyQueryNode struct {
	span
}

func NewEmptyQueryNode(start, end int) *EmptyQueryNode {
	return &EmptyQueryNode{span: span{start, end}}
}

func (n *EmptyQueryNode) Type() NodeType { return TypeEmpty }
func (n *EmptyQueryNode) Accept(v Visitor) {
	v.VisitEmptyQueryNode(n)
}

func (n *EmptyQueryNode) ToArray() map[string]any {
	return wrap(TypeEmpty, n.payload())
}
