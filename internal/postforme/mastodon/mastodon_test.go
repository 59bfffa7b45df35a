package mastodon

import (
	"testing"

	"github.com/blacktop/postforme/internal/postforme"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv(envServer, "")
	t.Setenv(envAccessToken, "")

	_, err := loadConfigFromEnv()
	var envErr postforme.MissingEnvError
	require.ErrorAs(t, err, &envErr)
	assert.Equal(t, []string{envServer, envAccessToken}, envErr.Variables)

	t.Setenv(envServer, "https://mastodon.social")
	t.Setenv(envAccessToken, "token")
	cfg, err := loadConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "https://mastodon.social", cfg.Server)
}

func TestBuildToot(t *testing.T) {
	post := postforme.EffectivePost{
		Account: postforme.AccountRef{ID: "sa_mastodon-1", Platform: postforme.PlatformMastodon},
		Caption: "hello fediverse",
		ExtraFields: postforme.Configuration{
			"visibility":   "Unlisted",
			"spoiler_text": "launch",
			"sensitive":    true,
			"language":     "en",
			"alt_text":     "a rocket",
		},
	}

	toot, opts, err := buildToot(post)
	require.NoError(t, err)
	assert.Equal(t, "hello fediverse", toot.Status)
	assert.Equal(t, "unlisted", toot.Visibility)
	assert.Equal(t, "launch", toot.SpoilerText)
	assert.True(t, toot.Sensitive)
	assert.Equal(t, "en", toot.Language)
	assert.Equal(t, "a rocket", opts.AltText)
}

func TestBuildToot_InvalidVisibility(t *testing.T) {
	post := postforme.EffectivePost{
		Account:     postforme.AccountRef{ID: "sa_mastodon-1", Platform: postforme.PlatformMastodon},
		ExtraFields: postforme.Configuration{"visibility": "everyone"},
	}

	_, _, err := buildToot(post)
	var vErr postforme.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Reason, "everyone")
}
