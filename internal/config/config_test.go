package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		t.Setenv("POSTFORME_API_KEY", "")
		t.Setenv("POSTFORME_BASE_URL", "")
		t.Setenv("POSTFORME_TIMEOUT", "")

		cfg, err := Load("")
		require.NoError(t, err)

		assert.Equal(t, "", cfg.APIKey)
		assert.Equal(t, "https://api.postforme.dev", cfg.BaseURL)
		assert.Equal(t, 30*time.Second, cfg.Timeout)
		assert.False(t, cfg.Verbose)
	})

	t.Run("environment", func(t *testing.T) {
		t.Setenv("POSTFORME_API_KEY", "pfm-test")
		t.Setenv("POSTFORME_BASE_URL", "http://localhost:3000")
		t.Setenv("POSTFORME_TIMEOUT", "5s")
		t.Setenv("POSTFORME_VERBOSE", "true")

		cfg, err := Load("")
		require.NoError(t, err)

		assert.Equal(t, "pfm-test", cfg.APIKey)
		assert.Equal(t, "http://localhost:3000", cfg.BaseURL)
		assert.Equal(t, 5*time.Second, cfg.Timeout)
		assert.True(t, cfg.Verbose)
	})

	t.Run("config file", func(t *testing.T) {
		t.Setenv("POSTFORME_API_KEY", "")
		t.Setenv("POSTFORME_TIMEOUT", "")

		path := filepath.Join(t.TempDir(), "postforme.yaml")
		require.NoError(t, os.WriteFile(path, []byte("api_key: from-file\ntimeout: 1m\n"), 0o600))

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "from-file", cfg.APIKey)
		assert.Equal(t, time.Minute, cfg.Timeout)
	})

	t.Run("environment beats file", func(t *testing.T) {
		t.Setenv("POSTFORME_API_KEY", "from-env")

		path := filepath.Join(t.TempDir(), "postforme.yaml")
		require.NoError(t, os.WriteFile(path, []byte("api_key: from-file\n"), 0o600))

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "from-env", cfg.APIKey)
	})

	t.Run("missing config file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("invalid duration", func(t *testing.T) {
		t.Setenv("POSTFORME_TIMEOUT", "invalid")

		_, err := Load("")
		assert.Error(t, err)
	})

	t.Run("non-positive duration", func(t *testing.T) {
		t.Setenv("POSTFORME_TIMEOUT", "0s")

		_, err := Load("")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "POSTFORME_TIMEOUT")
	})
}

func TestConfig_ValidateForAPI(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		cfg := &Config{APIKey: "key", BaseURL: "https://api.postforme.dev"}
		assert.NoError(t, cfg.ValidateForAPI())
	})

	t.Run("missing api key", func(t *testing.T) {
		cfg := &Config{BaseURL: "https://api.postforme.dev"}
		err := cfg.ValidateForAPI()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "POSTFORME_API_KEY")
	})

	t.Run("missing base url", func(t *testing.T) {
		cfg := &Config{APIKey: "key"}
		err := cfg.ValidateForAPI()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "POSTFORME_BASE_URL")
	})
}
