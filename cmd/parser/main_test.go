package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Adithya-Monish-Kumar-K/Search-Query-Parser/internal/namespace"
	"github.com/Adithya-Monish-Kumar-K/Search-Query-Parser/pkg/config"
)

func TestFingerprintCoversNamespaceTable(t *testing.T) {
	cfg := config.ParserConfig{QuestionMarkStripLevel: "all", MaxQueryLength: 300}
	before := namespace.NewStatic(map[string]int{"Talk": 1, "User": 2})
	same := namespace.NewStatic(map[string]int{"User": 2, "Talk": 1})
	renumbered := namespace.NewStatic(map[string]int{"Talk": 1, "User": 3})
	added := namespace.NewStatic(map[string]int{"Talk": 1, "User": 2, "Project": 4})

	base := fingerprint(cfg, before.Digest())
	assert.Equal(t, base, fingerprint(cfg, same.Digest()))
	assert.NotEqual(t, base, fingerprint(cfg, renumbered.Digest()))
	assert.NotEqual(t, base, fingerprint(cfg, added.Digest()))

	cfg.MaxQueryLength = 400
	assert.NotEqual(t, base, fingerprint(cfg, before.Digest()))
}
