package bluesky

import (
	"testing"

	"github.com/blacktop/postforme/internal/postforme"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Run("missing credentials", func(t *testing.T) {
		t.Setenv(envHandle, "")
		t.Setenv(envAppPassword, "")

		_, err := loadConfig(Config{})
		var envErr postforme.MissingEnvError
		require.ErrorAs(t, err, &envErr)
		assert.Equal(t, []string{envHandle, envAppPassword}, envErr.Variables)
	})

	t.Run("default pds", func(t *testing.T) {
		t.Setenv(envHandle, "acme.bsky.social")
		t.Setenv(envAppPassword, "xxxx")
		t.Setenv(envPDSURL, "")

		cfg, err := loadConfig(Config{})
		require.NoError(t, err)
		assert.Equal(t, DefaultPDSURL, cfg.PDSURL)
	})

	t.Run("caller pds", func(t *testing.T) {
		t.Setenv(envHandle, "acme.bsky.social")
		t.Setenv(envAppPassword, "xxxx")
		t.Setenv(envPDSURL, "")

		cfg, err := loadConfig(Config{PDSURL: "https://pds.example.com"})
		require.NoError(t, err)
		assert.Equal(t, "https://pds.example.com", cfg.PDSURL)
	})

	t.Run("environment pds wins", func(t *testing.T) {
		t.Setenv(envHandle, "acme.bsky.social")
		t.Setenv(envAppPassword, "xxxx")
		t.Setenv(envPDSURL, "https://env.example.com")

		cfg, err := loadConfig(Config{PDSURL: "https://pds.example.com"})
		require.NoError(t, err)
		assert.Equal(t, "https://env.example.com", cfg.PDSURL)
	})
}

func TestClient_PublishRejectsTooManyImages(t *testing.T) {
	c := &Client{}
	post := postforme.EffectivePost{
		Account: postforme.AccountRef{ID: "sa_bluesky-1", Platform: postforme.PlatformBluesky},
		Media: []postforme.MediaRef{
			{URL: "https://example.com/1.png"}, {URL: "https://example.com/2.png"},
			{URL: "https://example.com/3.png"}, {URL: "https://example.com/4.png"},
			{URL: "https://example.com/5.png"},
		},
	}

	err := c.Publish(t.Context(), post)
	var vErr postforme.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Reason, "at most 4 images")
	assert.Equal(t, "bluesky", c.Name())
}
