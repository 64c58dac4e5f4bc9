package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "final", cfg.Parser.QuestionMarkStripLevel)
	assert.Equal(t, 300, cfg.Parser.MaxQueryLength)
	assert.Equal(t, 1, cfg.Namespaces.Names["Talk"])
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
parser:
  questionMarkStripLevel: all
  language: he
  features: [intitle, prefix]
namespaces:
  names:
    Portal: 100
rateLimit:
  enabled: true
  requests: 10
  window: 1s
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "all", cfg.Parser.QuestionMarkStripLevel)
	assert.Equal(t, "he", cfg.Parser.Language)
	assert.Equal(t, []string{"intitle", "prefix"}, cfg.Parser.Features)
	assert.Equal(t, 100, cfg.Namespaces.Names["Portal"])
	assert.Equal(t, 1, cfg.Namespaces.Names["Talk"], "yaml names merge into the defaults")
	assert.Equal(t, time.Second, cfg.RateLimit.Window)
	assert.Equal(t, 300, cfg.Parser.MaxQueryLength, "unset fields keep defaults")
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SP_SERVER_PORT", "9000")
	t.Setenv("SP_PARSER_QMARK_STRIP_LEVEL", "break")
	t.Setenv("SP_PARSER_CASE_INSENSITIVE_NAMESPACES", "true")
	t.Setenv("SP_PARSER_FEATURES", "intitle, insource")
	t.Setenv("SP_KAFKA_BROKERS", "a:9092,b:9092")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "break", cfg.Parser.QuestionMarkStripLevel)
	assert.True(t, cfg.Parser.CaseInsensitiveNamespaces)
	assert.Equal(t, []string{"intitle", "insource"}, cfg.Parser.Features)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Kafka.Brokers)
}

func TestValidate(t *testing.T) {
	testCases := map[string]func(c *Config){
		"strip level": func(c *Config) { c.Parser.QuestionMarkStripLevel = "sometimes" },
		"max length":  func(c *Config) { c.Parser.MaxQueryLength = -1 },
		"port":        func(c *Config) { c.Server.Port = 0 },
		"rate limit":  func(c *Config) { c.RateLimit = RateLimitConfig{Enabled: true} },
		"kafka":       func(c *Config) { c.Kafka = KafkaConfig{Enabled: true} },
		"namespace":   func(c *Config) { c.Namespaces.Names = map[string]int{" ": 1} },
	}

	for name, mutate := range testCases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalid)
		})
	}
}
