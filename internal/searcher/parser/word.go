package parser

import (
	"strconv"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/Search-Query-Parser/internal/searcher/ast"
	"github.com/Adithya-Monish-Kumar-K/Search-Query-Parser/internal/searcher/lexutil"
)

// parseWord reads a run of non-whitespace, non-quote characters from
// q[i:max], with an optional leading negation. The run is classified as a
// fuzzy, prefix, wildcard or plain word.
func parseWord(q string, i, max int) (ast.ParsedNode, int, bool) {
	start := i
	negation := ""
	if isNegation(q[i]) && i+1 < max {
		next := q[i+1]
		if next == '"' {
			return nil, 0, false
		}
		if ws, _ := lexutil.WhitespaceAt(q, i+1); !ws && !isNegation(next) {
			negation = q[i : i+1]
			i++
		}
	}
	end := i
	for end < max {
		c := q[end]
		if c == '\\' && end+1 < max {
			end += 2
			continue
		}
		if c == '"' {
			break
		}
		if ws, _ := lexutil.WhitespaceAt(q, end); ws {
			break
		}
		end++
	}
	if end == i {
		return nil, 0, false
	}

	node := classifyWord(q[i:end], i, end)
	if negation != "" {
		node = ast.NewNegatedNode(start, end, node, negation)
	}
	return node, end, true
}

func classifyWord(image string, start, end int) ast.ParsedNode {
	if word, fuzziness, ok := splitFuzzy(image); ok {
		return ast.NewFuzzyNode(start, end, lexutil.Unescape(word), fuzziness)
	}

	wildcards := 0
	last := -1
	for i := 0; i < len(image); i++ {
		switch image[i] {
		case '\\':
			i++
		case '*', '?':
			wildcards++
			last = i
		}
	}
	switch {
	case wildcards == 0:
		return ast.NewWordsQueryNode(start, end, lexutil.Unescape(image))
	case wildcards == 1 && last == len(image)-1 && image[last] == '*' && last > 0:
		return ast.NewPrefixNode(start, end, lexutil.Unescape(image[:last]))
	default:
		return ast.NewWildcardNode(start, end, image)
	}
}

// splitFuzzy recognises word~ and word~N. A ~ followed by anything but
// digits is ordinary text.
func splitFuzzy(image string) (string, int, bool) {
	t := strings.LastIndexByte(image, '~')
	if t <= 0 || lexutil.IsEscaped(image, t) {
		return "", 0, false
	}
	digits := image[t+1:]
	if digits == "" {
		return image[:t], -1, true
	}
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return "", 0, false
		}
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return "", 0, false
	}
	return image[:t], n, true
}
