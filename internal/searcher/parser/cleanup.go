package parser

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/Adithya-Monish-Kumar-K/Search-Query-Parser/internal/searcher/ast"
	"github.com/Adithya-Monish-Kumar-K/Search-Query-Parser/internal/searcher/lexutil"
)

// rewriter builds a working query while recording how it maps to its input.
type rewriter struct {
	out     strings.Builder
	tracker OffsetTracker
	changed bool
}

func (r *rewriter) keep(s string) {
	r.out.WriteString(s)
	r.tracker.RecordConsumed(len(s), len(s))
}

func (r *rewriter) replace(raw, with string) {
	r.out.WriteString(with)
	r.tracker.RecordConsumed(len(raw), len(with))
	if raw != with {
		r.changed = true
	}
}

// cleaned is the result of the cleanup pipeline.
type cleaned struct {
	query    string
	offsets  offsetChain
	cleanups []ast.Cleanup
}

func (p *Parser) cleanup(raw string) cleaned {
	c := cleaned{query: raw}
	apply := func(name ast.Cleanup, fn func(string) *rewriter) {
		r := fn(c.query)
		if r == nil || !r.changed {
			return
		}
		c.query = r.out.String()
		c.offsets = append(c.offsets, &r.tracker)
		c.cleanups = append(c.cleanups, name)
	}

	if p.cfg.QuestionMarkStripLevel != StripNone && !p.qmarkExempt(raw) {
		apply(ast.CleanupStrippedQuestionMarks, func(q string) *rewriter {
			return stripQuestionMarks(q, p.cfg.QuestionMarkStripLevel)
		})
	}
	if p.cfg.Language == "he" {
		apply(ast.CleanupGershayimQuirks, escapeGershayim)
	}
	apply(ast.CleanupTildeHeader, stripTildeHeader)
	return c
}

func (p *Parser) qmarkExempt(q string) bool {
	for _, prefix := range p.cfg.QMarkExemptPrefixes {
		if strings.Contains(q, prefix) {
			return true
		}
	}
	return isPunctuationOnly(q)
}

func isPunctuationOnly(q string) bool {
	if q == "" {
		return false
	}
	for _, r := range q {
		if r == '¿' || lexutil.IsWhitespace(r) {
			continue
		}
		if r > unicode.MaxASCII || !unicode.IsPunct(r) && !unicode.IsSymbol(r) {
			return false
		}
	}
	return true
}

// stripQuestionMarks removes unescaped question marks:
//   - final: trailing ones (with trailing whitespace)
//   - break: runs not followed by a letter
//   - all: every run, replaced by a space
//
// Escaped \? always becomes a literal ?.
func stripQuestionMarks(q string, level StripLevel) *rewriter {
	r := &rewriter{}
	cut := len(q)
	if level == StripFinal {
		cut = trailingQuestionMarks(q)
	}
	for i := 0; i < cut; {
		switch {
		case q[i] == '\\' && i+1 < cut && q[i+1] == '?':
			r.replace(`\?`, "?")
			i += 2
		case q[i] == '?':
			j := i
			for j < cut && q[j] == '?' {
				j++
			}
			switch level {
			case StripAll:
				r.replace(q[i:j], " ")
			case StripBreak:
				if next, _ := utf8.DecodeRuneInString(q[j:]); j < len(q) && unicode.IsLetter(next) {
					r.keep(q[i:j])
				} else {
					r.replace(q[i:j], "")
				}
			default:
				r.keep(q[i:j])
			}
			i = j
		default:
			_, w := utf8.DecodeRuneInString(q[i:])
			r.keep(q[i : i+w])
			i += w
		}
	}
	if cut < len(q) {
		r.replace(q[cut:], "")
	}
	return r
}

// trailingQuestionMarks returns where the trailing run of whitespace and
// unescaped question marks starts. Without any question mark in the run the
// query is left whole.
func trailingQuestionMarks(q string) int {
	i := len(q)
	sawQmark := false
	for i > 0 {
		r, w := utf8.DecodeLastRuneInString(q[:i])
		switch {
		case r == '?' && !lexutil.IsEscaped(q, i-1):
			sawQmark = true
		case lexutil.IsWhitespace(r):
		default:
			if !sawQmark {
				return len(q)
			}
			return i
		}
		i -= w
	}
	if !sawQmark {
		return len(q)
	}
	return 0
}

// escapeGershayim escapes the double quote of Hebrew acronyms (צה"ל) so it
// is not read as a phrase delimiter.
func escapeGershayim(q string) *rewriter {
	r := &rewriter{}
	last := 0
	for i := 0; i < len(q); i++ {
		if q[i] != '"' || !isGershayim(q, i) {
			continue
		}
		r.keep(q[last:i])
		r.replace(`"`, `\"`)
		last = i + 1
	}
	r.keep(q[last:])
	return r
}

func isGershayim(q string, i int) bool {
	letters := 0
	for j := i; j > 0 && letters < 2; {
		c, w := utf8.DecodeLastRuneInString(q[:j])
		if !unicode.IsLetter(c) {
			break
		}
		letters++
		j -= w
	}
	if letters < 2 {
		return false
	}
	next, w := utf8.DecodeRuneInString(q[i+1:])
	if i+1 >= len(q) || !unicode.IsLetter(next) {
		return false
	}
	after, _ := utf8.DecodeRuneInString(q[i+1+w:])
	return i+1+w >= len(q) || !unicode.IsLetter(after)
}

func stripTildeHeader(q string) *rewriter {
	if !strings.HasPrefix(q, "~") {
		return nil
	}
	r := &rewriter{}
	r.replace("~", "")
	r.keep(q[1:])
	return r
}
