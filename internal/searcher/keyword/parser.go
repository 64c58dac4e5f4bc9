package keyword

import (
	"sort"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/Search-Query-Parser/internal/searcher/ast"
	"github.com/Adithya-Monish-Kumar-K/Search-Query-Parser/internal/searcher/lexutil"
)

// Parser tags keyword invocations ([-!]name:value) in a query. Offsets are
// relative to the string handed to Parse.
type Parser struct {
	registry *Registry
}

// NewParser tags the keywords of r.
func NewParser(r *Registry) *Parser {
	return &Parser{registry: r}
}

// Parse returns the keyword nodes of query sorted by offset. Text before
// from (a namespace header) and text inside closed quoted phrases is never
// tagged. Negated invocations are returned wrapped in an ast.NegatedNode.
func (p *Parser) Parse(query string, from int, w *ast.Warnings) []ast.ParsedNode {
	claimed := &spanSet{}
	if from > 0 {
		claimed.Add(0, from)
	}
	phrases := p.phraseSpans(query, from)
	var nodes []ast.ParsedNode
	for _, f := range p.registry.Features() {
		nodes = append(nodes, p.parseFeature(query, from, f, claimed, phrases, w)...)
	}
	sort.SliceStable(nodes, func(i, j int) bool {
		return nodes[i].StartOffset() < nodes[j].StartOffset()
	})
	return nodes
}

func (p *Parser) parseFeature(q string, from int, f Feature, claimed, phrases *spanSet, w *ast.Warnings) []ast.ParsedNode {
	syntax := f.Syntax()
	var out []ast.ParsedNode
	i := from
	for i < len(q) {
		if syntax.QueryHeader {
			i = head(q, from, claimed)
			if i >= len(q) {
				break
			}
		} else if sp, ok := claimed.containing(i); ok {
			i = sp.end
			continue
		} else if sp, ok := phrases.containing(i); ok {
			i = sp.end
			continue
		}
		if lexutil.PrecededByWhitespace(q, i) || claimed.EndsAt(i) {
			if node, end, ok := p.matchAt(q, i, f, syntax, claimed, w); ok {
				claimed.Add(i, end)
				out = append(out, node)
				i = end
				continue
			}
		}
		if syntax.QueryHeader {
			break
		}
		i = nextCandidate(q, i)
	}
	return out
}

// phraseSpans returns the closed "..." phrases of q after from. Keyword
// invocations are stepped over whole so a quoted keyword value is not read
// as a phrase. Scanning stops at an unbalanced quote.
func (p *Parser) phraseSpans(q string, from int) *spanSet {
	phrases := &spanSet{}
	i := from
	tokenStart := true
	for i < len(q) {
		if tokenStart || lexutil.PrecededByWhitespace(q, i) {
			if end, ok := p.invocationEnd(q, i); ok {
				i = end
				tokenStart = true
				continue
			}
		}
		tokenStart = false
		switch q[i] {
		case '\\':
			i += 2
		case '"':
			closing := closingQuote(q, i+1)
			if closing < 0 {
				return phrases
			}
			phrases.Add(i, closing+1)
			i = closing + 1
		default:
			i++
		}
	}
	return phrases
}

// invocationEnd reports the end of a keyword invocation starting at i, as
// far as its value would be read. Keywords always end a token, so the
// caller treats the end as a token start again.
func (p *Parser) invocationEnd(q string, i int) (int, bool) {
	start := i
	if q[i] == '-' || q[i] == '!' {
		start++
	}
	for _, f := range p.registry.Features() {
		for _, kw := range f.Keywords() {
			if !strings.HasPrefix(q[start:], kw+":") {
				continue
			}
			valueStart := start + len(kw) + 1
			if _, end, ok := readValue(q, valueStart, len(q), f.Syntax()); ok {
				return end, true
			}
			return valueStart, true
		}
	}
	return 0, false
}

func closingQuote(q string, i int) int {
	for ; i < len(q); i++ {
		switch q[i] {
		case '\\':
			i++
		case '"':
			return i
		}
	}
	return -1
}

// head skips whitespace and already-claimed header ranges from the start of
// the query body.
func head(q string, from int, claimed *spanSet) int {
	i := from
	for i < len(q) {
		i = lexutil.SkipWhitespace(q, i, len(q))
		sp, ok := claimed.containing(i)
		if !ok || sp.start != i {
			break
		}
		i = sp.end
	}
	return i
}

// nextCandidate moves past the current token to the next offset a keyword
// could start at.
func nextCandidate(q string, i int) int {
	for i < len(q) {
		ws, width := lexutil.WhitespaceAt(q, i)
		if ws {
			return i + width
		}
		i++
	}
	return i
}

func (p *Parser) matchAt(q string, i int, f Feature, syntax Syntax, claimed *spanSet, w *ast.Warnings) (ast.ParsedNode, int, bool) {
	start := i
	negation := ""
	if q[i] == '-' || q[i] == '!' {
		negation = q[i : i+1]
		start++
	}
	for _, kw := range f.Keywords() {
		if !strings.HasPrefix(q[start:], kw+":") {
			continue
		}
		valueStart := start + len(kw) + 1
		limit := claimed.nextStart(valueStart, len(q))
		v, end, ok := readValue(q, valueStart, limit, syntax)
		if !ok {
			w.Add(ast.WarnKeywordMissingValue, i, valueStart, kw)
			return nil, 0, false
		}
		if claimed.Overlaps(i, end) {
			return nil, 0, false
		}
		v.Key = kw

		restore := w.Scope(i, end)
		parsed, accept := f.ParseValue(v, w)
		restore()
		if !accept {
			return nil, 0, false
		}

		var node ast.ParsedNode = ast.NewKeywordFeatureNode(start, end, f, v, parsed)
		if negation != "" {
			node = ast.NewNegatedNode(i, end, node, negation)
		}
		return node, end, true
	}
	return nil, 0, false
}

// readValue matches the value of a keyword starting at i, never reading past
// limit. It returns the exclusive end of the invocation.
func readValue(q string, i, limit int, syntax Syntax) (ast.KeywordValue, int, bool) {
	if syntax.NoValue {
		return ast.KeywordValue{}, i, true
	}
	if syntax.Greedy {
		k := lexutil.SkipWhitespace(q, i, limit)
		if k >= limit {
			return ast.KeywordValue{}, 0, false
		}
		raw := q[k:limit]
		return ast.KeywordValue{Value: raw, QuotedValue: raw}, limit, true
	}

	k := i
	if !syntax.AllowEmptyValue {
		k = lexutil.SkipWhitespace(q, i, limit)
	}
	if k < limit {
		for _, d := range syntax.delimiters() {
			if q[k] != d.Open {
				continue
			}
			if v, end, ok := readDelimited(q, k, limit, d); ok {
				return v, end, true
			}
		}
	}

	end := k
	for end < limit && q[end] != '"' {
		if ws, _ := lexutil.WhitespaceAt(q, end); ws {
			break
		}
		end++
	}
	if end > k {
		raw := q[k:end]
		return ast.KeywordValue{Value: raw, QuotedValue: raw}, end, true
	}
	if syntax.AllowEmptyValue {
		return ast.KeywordValue{}, i, true
	}
	return ast.KeywordValue{}, 0, false
}

func readDelimited(q string, k, limit int, d Delimiter) (ast.KeywordValue, int, bool) {
	for j := k + 1; j < limit; j++ {
		if q[j] == '\\' && j+1 < limit && q[j+1] == d.Close {
			j++
			continue
		}
		if q[j] != d.Close {
			continue
		}
		end := j + 1
		for end < limit && strings.IndexByte(d.Suffixes, q[end]) >= 0 {
			end++
		}
		return ast.KeywordValue{
			Value:       lexutil.UnescapeByte(q[k+1:j], d.Close),
			QuotedValue: q[k : j+1],
			Delimiter:   string(d.Open),
			Suffix:      q[j+1 : end],
		}, end, true
	}
	return ast.KeywordValue{}, 0, false
}
