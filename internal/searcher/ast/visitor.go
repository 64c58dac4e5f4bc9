package ast

// Visitor receives one call per node via ParsedNode.Accept. Recursion into
// children is up to the implementation.
type Visitor interface {
	VisitWordsQueryNode(n *WordsQueryNode)
	VisitPhraseQueryNode(n *PhraseQueryNode)
	VisitPhrasePrefixNode(n *PhrasePrefixNode)
	VisitPrefixNode(n *PrefixNode)
	VisitWildcardNode(n *WildcardNode)
	VisitFuzzyNode(n *FuzzyNode)
	VisitNegatedNode(n *NegatedNode)
	VisitKeywordFeatureNode(n *KeywordFeatureNode)
	VisitNamespaceHeaderNode(n *NamespaceHeaderNode)
	VisitParsedBooleanNode(n *ParsedBooleanNode)
	VisitEmptyQueryNode(n *EmptyQueryNode)
}

// LeafVisitor descends through boolean and negated nodes and hands every
// other node to OnLeaf, along with whether it sits under a negation.
type LeafVisitor struct {
	OnLeaf func(n ParsedNode, negated bool)

	negated bool
}

func (v *LeafVisitor) leaf(n ParsedNode) {
	if v.OnLeaf != nil {
		v.OnLeaf(n, v.negated)
	}
}

func (v *LeafVisitor) VisitWordsQueryNode(n *WordsQueryNode)           { v.leaf(n) }
func (v *LeafVisitor) VisitPhraseQueryNode(n *PhraseQueryNode)         { v.leaf(n) }
func (v *LeafVisitor) VisitPhrasePrefixNode(n *PhrasePrefixNode)       { v.leaf(n) }
func (v *LeafVisitor) VisitPrefixNode(n *PrefixNode)                   { v.leaf(n) }
func (v *LeafVisitor) VisitWildcardNode(n *WildcardNode)               { v.leaf(n) }
func (v *LeafVisitor) VisitFuzzyNode(n *FuzzyNode)                     { v.leaf(n) }
func (v *LeafVisitor) VisitKeywordFeatureNode(n *KeywordFeatureNode)   { v.leaf(n) }
func (v *LeafVisitor) VisitNamespaceHeaderNode(n *NamespaceHeaderNode) { v.leaf(n) }
func (v *LeafVisitor) VisitEmptyQueryNode(n *EmptyQueryNode)           { v.leaf(n) }

func (v *LeafVisitor) VisitNegatedNode(n *NegatedNode) {
	v.negated = !v.negated
	n.Child().Accept(v)
	v.negated = !v.negated
}

func (v *LeafVisitor) VisitParsedBooleanNode(n *ParsedBooleanNode) {
	for _, c := range n.clauses {
		c.node.Accept(v)
	}
}

// KeywordVisitor calls OnKeyword for every keyword node reachable from the
// visited node. With ExcludeNegated, keywords under a negation are skipped.
type KeywordVisitor struct {
	OnKeyword      func(n *KeywordFeatureNode, negated bool)
	ExcludeNegated bool
}

func (v *KeywordVisitor) visit(n ParsedNode) {
	leaves := &LeafVisitor{OnLeaf: func(leaf ParsedNode, negated bool) {
		kw, ok := leaf.(*KeywordFeatureNode)
		if !ok || (negated && v.ExcludeNegated) || v.OnKeyword == nil {
			return
		}
		v.OnKeyword(kw, negated)
	}}
	n.Accept(leaves)
}

func (v *KeywordVisitor) VisitWordsQueryNode(*WordsQueryNode)           {}
func (v *KeywordVisitor) VisitPhraseQueryNode(*PhraseQueryNode)         {}
func (v *KeywordVisitor) VisitPhrasePrefixNode(*PhrasePrefixNode)       {}
func (v *KeywordVisitor) VisitPrefixNode(*PrefixNode)                   {}
func (v *KeywordVisitor) VisitWildcardNode(*WildcardNode)               {}
func (v *KeywordVisitor) VisitFuzzyNode(*FuzzyNode)                     {}
func (v *KeywordVisitor) VisitNamespaceHeaderNode(*NamespaceHeaderNode) {}
func (v *KeywordVisitor) VisitEmptyQueryNode(*EmptyQueryNode)           {}
func (v *KeywordVisitor) VisitNegatedNode(n *NegatedNode)               { v.visit(n) }
func (v *KeywordVisitor) VisitKeywordFeatureNode(n *KeywordFeatureNode) { v.visit(n) }
func (v *KeywordVisitor) VisitParsedBooleanNode(n *ParsedBooleanNode)   { v.visit(n) }

// Inspect walks the tree depth-first. fn is called for every node with its
// negation state; returning false skips the node's children.
func Inspect(n ParsedNode, fn func(n ParsedNode, negated bool) bool) {
	inspect(n, false, fn)
}

func inspect(n ParsedNode, negated bool, fn func(ParsedNode, bool) bool) {
	if !fn(n, negated) {
		return
	}
	switch t := n.(type) {
	case *NegatedNode:
		inspect(t.child, !negated, fn)
	case *ParsedBooleanNode:
		for _, c := range t.clauses {
			inspect(c.node, negated, fn)
		}
	}
}
