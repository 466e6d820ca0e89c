package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"OPENAI_API_KEY", "GEMINI_API_KEY", "OPENAI_BASE_URL", "MODEL_NAME",
		"DUET_ENDPOINT", "DUET_ADDR", "DUET_KNOWLEDGE",
	} {
		t.Setenv(key, "")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Name != "duet" {
		t.Errorf("expected Name=duet, got %s", cfg.Name)
	}
	if cfg.Client.Endpoint != "http://127.0.0.1:8000/api/chat" {
		t.Errorf("unexpected endpoint %s", cfg.Client.Endpoint)
	}
	if cfg.GetCheckerDelay() != 500*time.Millisecond {
		t.Errorf("expected 500ms checker delay, got %v", cfg.GetCheckerDelay())
	}
	if cfg.GetRequestTimeout() != 0 {
		t.Errorf("expected no request timeout by default, got %v", cfg.GetRequestTimeout())
	}
}

func TestConfig_SaveLoad(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.LLM.Provider = "gemini"
	cfg.LLM.APIKey = "sk-test"
	cfg.Client.CheckerDelay = "1s"

	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "gemini", loaded.LLM.Provider)
	assert.Equal(t, "sk-test", loaded.LLM.APIKey)
	assert.Equal(t, time.Second, loaded.GetCheckerDelay())
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("client: [unterminated"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("client:\n  endpoint: http://tutor:9000/api/chat\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://tutor:9000/api/chat", cfg.Client.Endpoint)
	assert.Equal(t, "qwen3-max", cfg.LLM.Model)
}

func TestDurations_Fallbacks(t *testing.T) {
	cfg := &Config{}
	cfg.Client.CheckerDelay = "soon"
	cfg.Client.RequestTimeout = "-3s"
	cfg.LLM.Timeout = ""

	assert.Equal(t, 500*time.Millisecond, cfg.GetCheckerDelay())
	assert.Equal(t, time.Duration(0), cfg.GetRequestTimeout())
	assert.Equal(t, 120*time.Second, cfg.GetLLMTimeout())
	assert.Equal(t, 10*time.Second, cfg.GetShutdownTimeout())
}

func TestConfig_Validate(t *testing.T) {
	cfg := DefaultConfig()
	assert.Error(t, cfg.Validate(), "default config has no API key")

	cfg.LLM.APIKey = "key"
	assert.NoError(t, cfg.Validate())

	cfg.LLM.Provider = "mystery"
	assert.Error(t, cfg.Validate())

	cfg.LLM.Provider = "qwen"
	cfg.Server.Addr = ""
	assert.Error(t, cfg.Validate())
}

func TestLoadDotEnv(t *testing.T) {
	t.Run("missing file is ignored", func(t *testing.T) {
		assert.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), ".env")))
	})

	t.Run("does not override existing variables", func(t *testing.T) {
		t.Setenv("MODEL_NAME", "from-shell")
		t.Setenv("DUET_ADDR", "")
		os.Unsetenv("DUET_ADDR")

		path := filepath.Join(t.TempDir(), ".env")
		require.NoError(t, os.WriteFile(path, []byte("MODEL_NAME=from-file\nDUET_ADDR=127.0.0.1:9999\n"), 0644))

		require.NoError(t, LoadDotEnv(path))
		assert.Equal(t, "from-shell", os.Getenv("MODEL_NAME"))
		assert.Equal(t, "127.0.0.1:9999", os.Getenv("DUET_ADDR"))
	})
}
