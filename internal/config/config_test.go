package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, `{
		"port": 8080,
		"jwt_secret": "s",
		"db": {"host": "localhost"}
	}`))
	require.NoError(t, err)
	require.Equal(t, 72, cfg.JWTTTLHours)
	require.Equal(t, "ollama", cfg.AI.Provider)
	require.Equal(t, "ollama", cfg.AI.EmbedProvider)
	require.Equal(t, "llama3.2:3b", cfg.AI.LLMModel)
	require.Equal(t, "llama3.2:3b", cfg.AI.FallbackModel)
	require.Equal(t, "nomic-embed-text", cfg.AI.EmbedModel)
	require.Equal(t, 768, cfg.AI.Dimension)
	require.Equal(t, "whisper-1", cfg.Voice.Model)
}

func TestLoadFallbackModelOverride(t *testing.T) {
	cfg, err := Load(writeConfig(t, `{
		"port": 8080,
		"jwt_secret": "s",
		"db": {"host": "localhost"},
		"ai": {"provider": "glm", "fallback_model": "mistral:7b"}
	}`))
	require.NoError(t, err)
	require.Equal(t, "glm", cfg.AI.Provider)
	require.Equal(t, "mistral:7b", cfg.AI.FallbackModel)
}

func TestLoadRequiredFields(t *testing.T) {
	_, err := Load(writeConfig(t, `{"jwt_secret": "s", "db": {"host": "h"}}`))
	require.Error(t, err)

	_, err = Load(writeConfig(t, `{"port": 8080, "db": {"host": "h"}}`))
	require.Error(t, err)

	_, err = Load(writeConfig(t, `{"port": 8080, "jwt_secret": "s"}`))
	require.Error(t, err)
}
