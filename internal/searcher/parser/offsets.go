package parser

// OffsetTracker maps offsets of a rewritten (working) query back to the raw
// query it was produced from. Rewrites record consumed segments in order;
// unchanged text is a segment of equal lengths.
type OffsetTracker struct {
	segments []segment
	rawLen   int
	workLen  int
}

type segment struct {
	rawStart, rawLen   int
	workStart, workLen int
}

func (s segment) identity() bool { return s.rawLen == s.workLen }

// RecordConsumed appends a segment: rawLength bytes of the raw query became
// workingLength bytes of the working query.
func (t *OffsetTracker) RecordConsumed(rawLength, workingLength int) {
	if rawLength == 0 && workingLength == 0 {
		return
	}
	next := segment{rawStart: t.rawLen, rawLen: rawLength, workStart: t.workLen, workLen: workingLength}
	t.rawLen += rawLength
	t.workLen += workingLength
	if n := len(t.segments); n > 0 && next.identity() && t.segments[n-1].identity() {
		t.segments[n-1].rawLen += rawLength
		t.segments[n-1].workLen += workingLength
		return
	}
	t.segments = append(t.segments, next)
}

// Translate maps the start of something at workingOffset to the raw query.
// Translation is monotonic and clamped to the raw length.
func (t *OffsetTracker) Translate(workingOffset int) int {
	for _, s := range t.segments {
		if s.workLen == 0 || workingOffset >= s.workStart+s.workLen {
			continue
		}
		if workingOffset < s.workStart {
			return s.rawStart
		}
		return s.rawStart + min(workingOffset-s.workStart, s.rawLen)
	}
	return t.rawLen
}

// TranslateEnd maps an exclusive end offset. A segment ending exactly at
// workingOffset is covered entirely, so rewritten characters map to their
// whole raw source.
func (t *OffsetTracker) TranslateEnd(workingOffset int) int {
	if workingOffset <= 0 {
		return t.Translate(0)
	}
	for _, s := range t.segments {
		if s.workLen == 0 || workingOffset > s.workStart+s.workLen {
			continue
		}
		if workingOffset == s.workStart+s.workLen {
			return s.rawStart + s.rawLen
		}
		return s.rawStart + min(workingOffset-s.workStart, s.rawLen)
	}
	return t.rawLen
}

// offsetChain translates through successive rewrites, last one first.
type offsetChain []*OffsetTracker

func (c offsetChain) start(offset int) int {
	for i := len(c) - 1; i >= 0; i-- {
		offset = c[i].Translate(offset)
	}
	return offset
}

func (c offsetChain) end(offset int) int {
	for i := len(c) - 1; i >= 0; i-- {
		offset = c[i].TranslateEnd(offset)
	}
	return offset
}
