package tracing

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpanTree(t *testing.T) {
	ctx, root := StartSpan(context.Background(), "request", "trace-1")
	childCtx, child := StartSpan(ctx, "parse", "ignored")
	child.SetAttr("cache", "miss")
	child.End()
	root.End()

	assert.Same(t, child, FromContext(childCtx))
	assert.Equal(t, "trace-1", child.TraceID, "children inherit the trace id")
	require.Len(t, root.Children(), 1)
	assert.Empty(t, child.Children())
}

func TestLog(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	ctx, root := StartSpan(context.Background(), "request", "trace-2")
	_, child := StartSpan(ctx, "serialize", "")
	child.End()
	root.End()
	root.Log(ctx, logger)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "span=request")
	assert.Contains(t, lines[1], "span=serialize")
	assert.Contains(t, lines[1], "depth=1")

	buf.Reset()
	root.Log(ctx, slog.New(slog.NewTextHandler(&buf, nil)))
	assert.Empty(t, buf.String(), "nothing below debug")
}

func TestNilSpanAttr(t *testing.T) {
	var s *Span
	assert.NotPanics(t, func() { s.SetAttr("k", "v") })
}
