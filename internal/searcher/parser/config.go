package parser

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidConfig = errors.New("invalid parser config")
	ErrQueryTooLong  = errors.New("query too long")
)

// HardLimit is the maximum raw query length in runes, whatever the config.
const HardLimit = 2048

// StripLevel selects which question marks are removed before parsing.
type StripLevel string

const (
	StripNone  StripLevel = "none"
	StripFinal StripLevel = "final"
	StripBreak StripLevel = "break"
	StripAll   StripLevel = "all"
)

// Config holds the parser options that change parse output.
type Config struct {
	QuestionMarkStripLevel StripLevel
	// QMarkExemptPrefixes disable question mark stripping when found
	// anywhere in the query (regex searches).
	QMarkExemptPrefixes       []string
	CaseInsensitiveNamespaces bool
	// Language enables language specific cleanups ("he").
	Language string
	// MaxQueryLength in runes; 0 disables the check. Keywords of
	// LengthExemptKeywords do not count.
	MaxQueryLength       int
	LengthExemptKeywords []string
}

// DefaultConfig strips a final question mark and caps queries at 300 runes.
func DefaultConfig() Config {
	return Config{
		QuestionMarkStripLevel: StripFinal,
		QMarkExemptPrefixes:    []string{"insource:/", "intitle:/"},
		MaxQueryLength:         300,
		LengthExemptKeywords:   []string{"incategory", "articletopic"},
	}
}

// Validate rejects unknown strip levels, negative limits and empty exempt
// prefixes.
func (c Config) Validate() error {
	switch c.QuestionMarkStripLevel {
	case "", StripNone, StripFinal, StripBreak, StripAll:
	default:
		return fmt.Errorf("%w: unknown question mark strip level %q", ErrInvalidConfig, c.QuestionMarkStripLevel)
	}
	if c.MaxQueryLength < 0 {
		return fmt.Errorf("%w: negative max query length %d", ErrInvalidConfig, c.MaxQueryLength)
	}
	for _, p := range c.QMarkExemptPrefixes {
		if p == "" {
			return fmt.Errorf("%w: empty question mark exempt prefix", ErrInvalidConfig)
		}
	}
	return nil
}

// QueryTooLongError reports a query over a length limit. It matches
// ErrQueryTooLong with errors.Is.
type QueryTooLongError struct {
	Length int
	Limit  int
}

func (e *QueryTooLongError) Error() string {
	return fmt.Sprintf("query too long: %d runes, limit %d", e.Length, e.Limit)
}

func (e *QueryTooLongError) Unwrap() error { return ErrQueryTooLong }
