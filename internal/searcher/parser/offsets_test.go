package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOffsetTracker(t *testing.T) {
	// raw "ab\?cd??" -> working "ab?cd"
	var tr OffsetTracker
	tr.RecordConsumed(2, 2)
	tr.RecordConsumed(2, 1)
	tr.RecordConsumed(2, 2)
	tr.RecordConsumed(2, 0)

	testCases := []struct {
		working, start, end int
	}{
		{working: 0, start: 0, end: 0},
		{working: 1, start: 1, end: 1},
		{working: 2, start: 2, end: 2},
		{working: 3, start: 4, end: 4},
		{working: 5, start: 8, end: 6},
		{working: 9, start: 8, end: 8},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.start, tr.Translate(tc.working), "start of %d", tc.working)
		assert.Equal(t, tc.end, tr.TranslateEnd(tc.working), "end of %d", tc.working)
	}
}

func TestOffsetTrackerIsMonotonic(t *testing.T) {
	var tr OffsetTracker
	tr.RecordConsumed(1, 0)
	tr.RecordConsumed(3, 3)
	tr.RecordConsumed(2, 4)
	prev := 0
	for i := 0; i <= 8; i++ {
		got := tr.Translate(i)
		assert.GreaterOrEqual(t, got, prev)
		assert.LessOrEqual(t, got, 6)
		prev = got
	}
}

func TestOffsetChain(t *testing.T) {
	// "~foo?" -> "~foo" -> "foo"
	first := &OffsetTracker{}
	first.RecordConsumed(4, 4)
	first.RecordConsumed(1, 0)
	second := &OffsetTracker{}
	second.RecordConsumed(1, 0)
	second.RecordConsumed(3, 3)

	chain := offsetChain{first, second}
	assert.Equal(t, 1, chain.start(0))
	assert.Equal(t, 4, chain.end(3))
}
