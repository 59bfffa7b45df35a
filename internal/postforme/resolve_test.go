package postforme

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const defaultCaption = "Just launched our new product! 🚀 Excited to share this with everyone."

func captions(posts []EffectivePost) map[string]string {
	out := make(map[string]string, len(posts))
	for _, p := range posts {
		out[p.Account.ID] = p.Caption
	}
	return out
}

func TestResolve_SimplePost(t *testing.T) {
	req := PostRequest{
		Caption:        defaultCaption,
		SocialAccounts: []string{"sa_instagram-xyz", "sa_facebook-xyz", "sa_pinterest-xyz"},
		ExternalID:     "unique-post-id",
		Media: []MediaRef{
			{URL: "https://example.com/image.jpg"},
			{URL: "https://example.com/video.mp4"},
		},
	}

	posts, err := Resolve(req)
	require.NoError(t, err)
	require.Len(t, posts, 3)

	for i, p := range posts {
		assert.Equal(t, req.SocialAccounts[i], p.Account.ID)
		assert.Equal(t, defaultCaption, p.Caption)
		assert.Equal(t, req.Media, p.Media)
		assert.Empty(t, p.ExtraFields)
	}
	assert.Equal(t, PlatformInstagram, posts[0].Account.Platform)
	assert.Equal(t, PlatformFacebook, posts[1].Account.Platform)
	assert.Equal(t, PlatformPinterest, posts[2].Account.Platform)
}

func TestResolve_PlatformConfigurations(t *testing.T) {
	req := PostRequest{
		Caption:        defaultCaption,
		SocialAccounts: []string{"sa_instagram-xyz", "sa_facebook-xyz", "sa_pinterest-xyz"},
		Media:          []MediaRef{{URL: "https://example.com/image.jpg"}},
		PlatformConfigurations: map[string]Configuration{
			"instagram": {"caption": "Hi Instagram! Check out our new product! 🚀"},
			"facebook":  {"caption": "Hi Facebook! Check out our new product! 🚀"},
			"pinterest": {"board_ids": []string{"pinterest-board-id"}},
		},
	}

	posts, err := Resolve(req)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"sa_instagram-xyz": "Hi Instagram! Check out our new product! 🚀",
		"sa_facebook-xyz":  "Hi Facebook! Check out our new product! 🚀",
		"sa_pinterest-xyz": defaultCaption,
	}, captions(posts))

	assert.Empty(t, posts[0].ExtraFields)
	assert.Empty(t, posts[1].ExtraFields)
	assert.Equal(t, Configuration{"board_ids": []string{"pinterest-board-id"}}, posts[2].ExtraFields)
	for _, p := range posts {
		assert.Equal(t, req.Media, p.Media)
	}
}

func TestResolve_AccountConfigurations(t *testing.T) {
	req := PostRequest{
		Caption:        defaultCaption,
		SocialAccounts: []string{"sa_instagram-xyz", "sa_instagram-abc", "sa_pinterest-xyz"},
		Media:          []MediaRef{{URL: "https://example.com/image-a.jpg"}},
		PlatformConfigurations: map[string]Configuration{
			"instagram": {"caption": "Hi Instagram! Check out our new product! 🚀"},
		},
		AccountConfigurations: []AccountConfiguration{
			{SocialAccountID: "sa_instagram-xyz", Configuration: Configuration{"caption": "Check out our new product! 🚀"}},
			{SocialAccountID: "sa_pinterest-xyz", Configuration: Configuration{"board_ids": []string{"pinterest-board-id"}}},
		},
	}

	posts, err := Resolve(req)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"sa_instagram-xyz": "Check out our new product! 🚀",
		"sa_instagram-abc": "Hi Instagram! Check out our new product! 🚀",
		"sa_pinterest-xyz": defaultCaption,
	}, captions(posts))
	assert.Equal(t, Configuration{"board_ids": []string{"pinterest-board-id"}}, posts[2].ExtraFields)
}

func TestResolve_ShallowMerge(t *testing.T) {
	req := PostRequest{
		Caption:        "default",
		SocialAccounts: []string{"sa_tiktok-a", "sa_tiktok-b"},
		PlatformConfigurations: map[string]Configuration{
			"tiktok": {"title": "platform title", "privacy_status": "public", "allow_duet": false},
		},
		AccountConfigurations: []AccountConfiguration{
			{SocialAccountID: "sa_tiktok-a", Configuration: Configuration{"title": "account title", "is_draft": true}},
			{SocialAccountID: "sa_tiktok-a", Configuration: Configuration{"privacy_status": "private"}},
		},
	}

	posts, err := Resolve(req)
	require.NoError(t, err)
	require.Len(t, posts, 2)

	assert.Equal(t, Configuration{
		"title":          "account title",
		"privacy_status": "private",
		"allow_duet":     false,
		"is_draft":       true,
	}, posts[0].ExtraFields)
	assert.Equal(t, Configuration{
		"title":          "platform title",
		"privacy_status": "public",
		"allow_duet":     false,
	}, posts[1].ExtraFields)
	assert.Equal(t, "default", posts[0].Caption)
}

func TestResolve_WholeValueReplacement(t *testing.T) {
	req := PostRequest{
		SocialAccounts: []string{"sa_pinterest-a"},
		PlatformConfigurations: map[string]Configuration{
			"pinterest": {"board_ids": []string{"one", "two"}},
		},
		AccountConfigurations: []AccountConfiguration{
			{SocialAccountID: "sa_pinterest-a", Configuration: Configuration{"board_ids": []string{"three"}}},
		},
	}

	posts, err := Resolve(req)
	require.NoError(t, err)
	assert.Equal(t, []string{"three"}, posts[0].ExtraFields["board_ids"])
}

func TestResolve_DuplicateAccounts(t *testing.T) {
	req := PostRequest{
		Caption:        "hello",
		SocialAccounts: []string{"sa_x-1", "sa_facebook-2", "sa_x-1", "sa_facebook-2", "sa_x-3"},
	}

	posts, err := Resolve(req)
	require.NoError(t, err)
	require.Len(t, posts, 3)
	assert.Equal(t, "sa_x-1", posts[0].Account.ID)
	assert.Equal(t, "sa_facebook-2", posts[1].Account.ID)
	assert.Equal(t, "sa_x-3", posts[2].Account.ID)
}

func TestResolve_Errors(t *testing.T) {
	t.Run("dangling account configuration", func(t *testing.T) {
		posts, err := Resolve(PostRequest{
			SocialAccounts: []string{"sa_instagram-xyz"},
			AccountConfigurations: []AccountConfiguration{
				{SocialAccountID: "sa_facebook-abc", Configuration: Configuration{"caption": "x"}},
			},
		})
		require.Error(t, err)
		assert.Nil(t, posts)
		assert.True(t, errors.Is(err, ErrInvalidReference))

		var refErr InvalidReferenceError
		require.True(t, errors.As(err, &refErr))
		assert.Equal(t, 0, refErr.Index)
		assert.Equal(t, "sa_facebook-abc", refErr.AccountID)
	})

	t.Run("missing account id", func(t *testing.T) {
		_, err := Resolve(PostRequest{
			SocialAccounts:        []string{"sa_instagram-xyz"},
			AccountConfigurations: []AccountConfiguration{{Configuration: Configuration{"caption": "x"}}},
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidReference)
		assert.Contains(t, err.Error(), "social_account_id is required")
	})

	t.Run("malformed account ref", func(t *testing.T) {
		posts, err := Resolve(PostRequest{
			SocialAccounts: []string{"sa_instagram-xyz", "instagram"},
		})
		require.Error(t, err)
		assert.Nil(t, posts)
		assert.ErrorIs(t, err, ErrInvalidAccountRef)
	})

	t.Run("no accounts", func(t *testing.T) {
		posts, err := Resolve(PostRequest{Caption: "x"})
		assert.Nil(t, posts)
		var vErr ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Contains(t, vErr.Reason, "social_accounts")
	})

	t.Run("all problems reported", func(t *testing.T) {
		_, err := Resolve(PostRequest{
			SocialAccounts: []string{"bogus", "sa_x-1"},
			AccountConfigurations: []AccountConfiguration{
				{SocialAccountID: "sa_x-2"},
			},
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidAccountRef)
		assert.ErrorIs(t, err, ErrInvalidReference)
	})
}

func TestResolve_CaptionValues(t *testing.T) {
	req := PostRequest{
		Caption:        "default",
		SocialAccounts: []string{"sa_x-1", "sa_facebook-1"},
		PlatformConfigurations: map[string]Configuration{
			"x":        {"caption": nil},
			"facebook": {"caption": 42},
		},
	}

	posts, err := Resolve(req)
	require.NoError(t, err)
	assert.Equal(t, "default", posts[0].Caption)
	assert.Equal(t, "42", posts[1].Caption)
	assert.NotContains(t, posts[0].ExtraFields, "caption")
}

func TestResolve_MediaKeyIsNotAnOverride(t *testing.T) {
	media := []MediaRef{{URL: "https://example.com/a.jpg"}}
	req := PostRequest{
		SocialAccounts: []string{"sa_instagram-1"},
		Media:          media,
		PlatformConfigurations: map[string]Configuration{
			"instagram": {"media": []any{map[string]any{"url": "https://example.com/b.jpg"}}},
		},
	}

	posts, err := Resolve(req)
	require.NoError(t, err)
	assert.Equal(t, media, posts[0].Media)
	assert.Contains(t, posts[0].ExtraFields, "media")
}

func TestResolve_OutputDoesNotAliasInput(t *testing.T) {
	req := PostRequest{
		SocialAccounts: []string{"sa_x-1", "sa_x-2"},
		Media:          []MediaRef{{URL: "https://example.com/a.jpg"}},
		PlatformConfigurations: map[string]Configuration{
			"x": {"reply_settings": "following"},
		},
	}

	posts, err := Resolve(req)
	require.NoError(t, err)

	posts[0].Media[0].URL = "changed"
	posts[0].ExtraFields["reply_settings"] = "changed"

	assert.Equal(t, "https://example.com/a.jpg", req.Media[0].URL)
	assert.Equal(t, "https://example.com/a.jpg", posts[1].Media[0].URL)
	assert.Equal(t, "following", posts[1].ExtraFields["reply_settings"])
	assert.Equal(t, "following", req.PlatformConfigurations["x"]["reply_settings"])
}

func TestResolve_Deterministic(t *testing.T) {
	req := PostRequest{
		Caption:        defaultCaption,
		SocialAccounts: []string{"sa_instagram-xyz", "sa_instagram-abc", "sa_pinterest-xyz"},
		PlatformConfigurations: map[string]Configuration{
			"instagram": {"caption": "platform", "placement": "reels"},
		},
		AccountConfigurations: []AccountConfiguration{
			{SocialAccountID: "sa_instagram-abc", Configuration: Configuration{"placement": "stories"}},
		},
	}

	first, err := Resolve(req)
	require.NoError(t, err)
	second, err := Resolve(req)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestResolve_NoMedia(t *testing.T) {
	posts, err := Resolve(PostRequest{Caption: "text only", SocialAccounts: []string{"sa_x-1"}})
	require.NoError(t, err)
	assert.NotNil(t, posts[0].Media)
	assert.Empty(t, posts[0].Media)
}

func TestResolve_PlatformKeysIgnoreCase(t *testing.T) {
	posts, err := Resolve(PostRequest{
		Caption:        "default",
		SocialAccounts: []string{"sa_instagram-1", "sa_x-1"},
		PlatformConfigurations: map[string]Configuration{
			"Instagram": {"caption": "ig"},
			"X":         {"caption": "folded"},
			"x":         {"caption": "exact"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "ig", posts[0].Caption)
	assert.Equal(t, "exact", posts[1].Caption)
}
