package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromYAML(t *testing.T) {
	yamlContent := `
storage:
  database_path: test_dedup.db
openai:
  api_key: ${TEST_OPENAI_KEY}
  model: gpt-4o
dedup:
  window_days: 3
  candidate_cap: 4
server:
  port: 9090
observability:
  logging:
    level: debug
    format: json
`
	os.Setenv("TEST_OPENAI_KEY", "expanded-key")
	defer os.Unsetenv("TEST_OPENAI_KEY")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yamlContent), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "test_dedup.db", cfg.Storage.DatabasePath)
	assert.Equal(t, "expanded-key", cfg.OpenAI.APIKey, "env vars in YAML are expanded")
	assert.Equal(t, 3, cfg.Dedup.WindowDays)
	assert.Equal(t, 4, cfg.Dedup.CandidateCap)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Observability.Logging.Level)
}

func TestLoadFromEnv(t *testing.T) {
	os.Setenv("DEDUP_DB_PATH", "env.db")
	os.Setenv("OPENAI_API_KEY", "test-key")
	os.Setenv("DEDUP_WINDOW_DAYS", "4")
	defer func() {
		os.Unsetenv("DEDUP_DB_PATH")
		os.Unsetenv("OPENAI_API_KEY")
		os.Unsetenv("DEDUP_WINDOW_DAYS")
	}()

	cfg := LoadFromEnv()
	assert.Equal(t, "env.db", cfg.Storage.DatabasePath)
	assert.Equal(t, "test-key", cfg.OpenAI.APIKey)
	assert.Equal(t, 4, cfg.Dedup.WindowDays)
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	os.Unsetenv("DEDUP_DB_PATH")
	os.Unsetenv("OPENAI_MODEL")
	os.Unsetenv("DEDUP_WINDOW_DAYS")

	cfg := LoadFromEnv()
	assert.Equal(t, "dedup.db", cfg.Storage.DatabasePath)
	assert.Equal(t, "gpt-4o", cfg.OpenAI.Model)
	assert.Equal(t, 2, cfg.Dedup.WindowDays)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoadOrEnvWithPath_MissingFileFallsBack(t *testing.T) {
	cfg := LoadOrEnvWithPath(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.NotNil(t, cfg)
	assert.NotEmpty(t, cfg.Storage.DatabasePath)
}
