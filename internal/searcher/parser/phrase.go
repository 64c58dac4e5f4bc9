package parser

import (
	"strconv"

	"github.com/Adithya-Monish-Kumar-K/Search-Query-Parser/internal/searcher/ast"
	"github.com/Adithya-Monish-Kumar-K/Search-Query-Parser/internal/searcher/lexutil"
)

func isNegation(c byte) bool { return c == '-' || c == '!' }

// parsePhrase reads [-!]?"..." with its optional suffix (~N, ~, *) from
// q[i:max]. It fails when the quote is not closed before max.
func parsePhrase(q string, i, max int) (ast.ParsedNode, int, bool) {
	start := i
	negation := ""
	if isNegation(q[i]) && i+1 < max && q[i+1] == '"' {
		negation = q[i : i+1]
		i++
	}
	if q[i] != '"' {
		return nil, 0, false
	}
	closing := -1
	for j := i + 1; j < max; j++ {
		if q[j] == '\\' {
			j++
			continue
		}
		if q[j] == '"' {
			closing = j
			break
		}
	}
	if closing < 0 {
		return nil, 0, false
	}

	inner := q[i+1 : closing]
	end := closing + 1
	prefix := false
	if n := len(inner); n > 0 && inner[n-1] == '*' && !lexutil.IsEscaped(inner, n-1) {
		inner = inner[:n-1]
		prefix = true
	}
	slop, stem := -1, false
	if !prefix && end < max {
		switch q[end] {
		case '~':
			digits := end + 1
			for digits < max && q[digits] >= '0' && q[digits] <= '9' {
				digits++
			}
			if digits > end+1 {
				slop, _ = strconv.Atoi(q[end+1 : digits])
				end = digits
				if end < max && q[end] == '~' {
					stem = true
					end++
				}
			} else {
				stem = true
				end++
			}
		case '*':
			prefix = true
			end++
		}
	}

	phrase := lexutil.UnescapeByte(inner, '"')
	var node ast.ParsedNode
	if prefix {
		node = ast.NewPhrasePrefixNode(i, end, phrase)
	} else {
		node = ast.NewPhraseQueryNode(i, end, phrase, slop, stem, false)
	}
	if negation != "" {
		node = ast.NewNegatedNode(start, end, node, negation)
	}
	return node, end, true
}

// parseUnbalancedPhrase turns [-!]?" without a closing quote into a phrase
// running up to max.
func parseUnbalancedPhrase(q string, i, max int) (ast.ParsedNode, int, bool) {
	start := i
	negation := ""
	if isNegation(q[i]) && i+1 < max && q[i+1] == '"' {
		negation = q[i : i+1]
		i++
	}
	if q[i] != '"' {
		return nil, 0, false
	}
	phrase := ""
	if max > i+1 {
		phrase = lexutil.UnescapeByte(q[i+1:max], '"')
	}
	var node ast.ParsedNode = ast.NewPhraseQueryNode(i, max, phrase, -1, false, true)
	if negation != "" {
		node = ast.NewNegatedNode(start, max, node, negation)
	}
	return node, max, true
}
