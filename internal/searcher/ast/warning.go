package ast

// Warning codes emitted by the parser.
const (
	WarnUnexpectedToken     = "unexpected-token"
	WarnUnexpectedEnd       = "unexpected-end"
	WarnDoubleNegation      = "double-negation"
	WarnUnbalancedQuotes    = "unbalanced-quotes"
	WarnUnknownNamespace    = "unknown-namespace"
	WarnKeywordMissingValue = "keyword-missing-value"
)

// ParseWarning is a non-fatal problem found while parsing. Start and End are
// raw query offsets.
type ParseWarning struct {
	Code   string
	Start  int
	End    int
	Params []string
}

func (w ParseWarning) ToArray() map[string]any {
	params := w.Params
	if params == nil {
		params = []string{}
	}
	return map[string]any{
		"message": w.Code,
		"start":   w.Start,
		"end":     w.End,
		"params":  params,
	}
}

// Warnings accumulates ParseWarnings during a single parse.
type Warnings struct {
	list       []ParseWarning
	start, end int
}

// Add records a warning spanning [start, end).
func (w *Warnings) Add(code string, start, end int, params ...string) {
	w.list = append(w.list, ParseWarning{Code: code, Start: start, End: end, Params: params})
}

// Warn records a warning on the current scope set by Scope.
func (w *Warnings) Warn(code string, params ...string) {
	w.Add(code, w.start, w.end, params...)
}

// Scope makes Warn report [start, end) until the returned func is called.
func (w *Warnings) Scope(start, end int) (restore func()) {
	prevStart, prevEnd := w.start, w.end
	w.start, w.end = start, end
	return func() {
		w.start, w.end = prevStart, prevEnd
	}
}

func (w *Warnings) Len() int { return len(w.list) }

// List returns a copy of the recorded warnings.
func (w *Warnings) List() []ParseWarning {
	return append([]ParseWarning(nil), w.list...)
}
