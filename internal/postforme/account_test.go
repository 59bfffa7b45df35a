package postforme

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAccountRef(t *testing.T) {
	tests := []struct {
		id       string
		platform Platform
	}{
		{id: "sa_instagram-xyz", platform: PlatformInstagram},
		{id: "sa_pinterest-abc-123", platform: PlatformPinterest},
		{id: "sa_TikTok-1", platform: PlatformTikTok},
		{id: "sa_x-1", platform: PlatformX},
		{id: "sa_google_business-9", platform: Platform("google_business")},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			ref, err := ParseAccountRef(tt.id)
			require.NoError(t, err)
			assert.Equal(t, tt.id, ref.ID)
			assert.Equal(t, tt.platform, ref.Platform)
			assert.Equal(t, tt.id, ref.String())
		})
	}
}

func TestParseAccountRef_Invalid(t *testing.T) {
	tests := []struct {
		id     string
		reason string
	}{
		{id: "", reason: "missing sa_ prefix"},
		{id: "instagram-xyz", reason: "missing sa_ prefix"},
		{id: "sa_instagram", reason: "missing platform separator"},
		{id: "sa_-xyz", reason: "empty platform"},
		{id: "sa_instagram-", reason: "empty account suffix"},
		{id: "sa_insta gram-xyz", reason: "platform contains invalid characters"},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			_, err := ParseAccountRef(tt.id)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidAccountRef))

			var refErr InvalidAccountRefError
			require.True(t, errors.As(err, &refErr))
			assert.Equal(t, tt.id, refErr.Ref)
			assert.Equal(t, tt.reason, refErr.Reason)
		})
	}
}
