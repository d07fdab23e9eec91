package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 72*time.Hour, cfg.Lookback())
	assert.Equal(t, DefaultWorkers, cfg.Pipeline.Workers)
	assert.Equal(t, DefaultMaxAttempts, cfg.Classifier.MaxAttempts)
	assert.Equal(t, DefaultModel, cfg.OpenAI.Model)
	assert.Equal(t, BackendFile, cfg.State.Backend)
}

func TestLoad_File(t *testing.T) {
	t.Setenv("TEST_OPENAI_KEY", "sk-from-env")
	path := writeConfig(t, `
data_dir: /tmp/applytrack
gmail:
  lookback_days: 7
  request_timeout: 5s
openai:
  api_key: ${TEST_OPENAI_KEY}
  model: gpt-4o
pipeline:
  workers: 1
google:
  client_secret: ${TEST_UNSET_VARIABLE}
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/applytrack", cfg.DataDir)
	assert.Equal(t, 7, cfg.Gmail.LookbackDays)
	assert.Equal(t, 5*time.Second, cfg.Gmail.RequestTimeout)
	assert.Equal(t, "sk-from-env", cfg.OpenAI.APIKey)
	assert.Equal(t, "gpt-4o", cfg.OpenAI.Model)
	assert.Equal(t, 1, cfg.Pipeline.Workers)
	assert.Equal(t, "${TEST_UNSET_VARIABLE}", cfg.Google.ClientSecret, "unset variables stay as written")
	// Untouched keys keep their defaults.
	assert.Equal(t, DefaultMaxAttempts, cfg.Classifier.MaxAttempts)
	assert.Equal(t, "/tmp/applytrack/emails", cfg.Path("emails"))
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "data_dir: /from/file\npipeline:\n  workers: 2\n")
	t.Setenv("APPLYTRACK_DATA_DIR", "/from/env")
	t.Setenv("APPLYTRACK_WORKERS", "6")
	t.Setenv("OPENAI_API_KEY", "sk-env")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/from/env", cfg.DataDir)
	assert.Equal(t, 6, cfg.Pipeline.Workers)
	assert.Equal(t, "sk-env", cfg.OpenAI.APIKey)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		env     map[string]string
	}{
		{name: "bad yaml", content: "pipeline: [unclosed"},
		{name: "zero workers", content: "pipeline:\n  workers: 0\n"},
		{name: "valkey without addr", content: "state:\n  backend: valkey\n"},
		{name: "unknown backend", content: "state:\n  backend: etcd\n"},
		{name: "unknown transport", content: "server:\n  transport: sse\n"},
		{name: "bad env int", content: "", env: map[string]string{"APPLYTRACK_WORKERS": "many"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_MissingDefaultFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultWorkers, cfg.Pipeline.Workers)
}
