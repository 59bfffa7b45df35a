package postforme

import (
	"fmt"
	"sort"

	"github.com/mitchellh/mapstructure"
	"github.com/samber/lo"
)

// Platform names a social network.
type Platform string

const (
	PlatformInstagram Platform = "instagram"
	PlatformFacebook  Platform = "facebook"
	PlatformPinterest Platform = "pinterest"
	PlatformTikTok    Platform = "tiktok"
	PlatformYouTube   Platform = "youtube"
	PlatformX         Platform = "x"
	PlatformTwitter   Platform = "twitter"
	PlatformThreads   Platform = "threads"
	PlatformLinkedIn  Platform = "linkedin"
	PlatformBluesky   Platform = "bluesky"
	PlatformMastodon  Platform = "mastodon"
)

// InstagramOptions are the instagram keys understood by the API.
type InstagramOptions struct {
	Placement     string   `mapstructure:"placement"`
	Collaborators []string `mapstructure:"collaborators"`
	ShareToFeed   *bool    `mapstructure:"share_to_feed"`
}

type FacebookOptions struct {
	Placement string `mapstructure:"placement"`
}

type ThreadsOptions struct {
	Placement string `mapstructure:"placement"`
}

type PinterestOptions struct {
	BoardIDs []string `mapstructure:"board_ids"`
	Link     string   `mapstructure:"link"`
}

type TikTokOptions struct {
	Title                  string `mapstructure:"title"`
	PrivacyStatus          string `mapstructure:"privacy_status"`
	AllowComment           *bool  `mapstructure:"allow_comment"`
	AllowDuet              *bool  `mapstructure:"allow_duet"`
	AllowStitch            *bool  `mapstructure:"allow_stitch"`
	DiscloseYourBrand      *bool  `mapstructure:"disclose_your_brand"`
	DiscloseBrandedContent *bool  `mapstructure:"disclose_branded_content"`
	IsAIGenerated          *bool  `mapstructure:"is_ai_generated"`
	IsDraft                *bool  `mapstructure:"is_draft"`
}

type YouTubeOptions struct {
	Title         string `mapstructure:"title"`
	PrivacyStatus string `mapstructure:"privacy_status"`
}

// XOptions also applies to accounts tagged twitter.
type XOptions struct {
	ReplySettings string `mapstructure:"reply_settings"`
	CommunityID   string `mapstructure:"community_id"`
	QuoteTweetID  string `mapstructure:"quote_tweet_id"`
	AltText       string `mapstructure:"alt_text"`
}

type BlueskyOptions struct {
	Langs   []string `mapstructure:"langs"`
	AltText string   `mapstructure:"alt_text"`
}

type MastodonOptions struct {
	Visibility  string `mapstructure:"visibility"`
	SpoilerText string `mapstructure:"spoiler_text"`
	Sensitive   bool   `mapstructure:"sensitive"`
	Language    string `mapstructure:"language"`
	AltText     string `mapstructure:"alt_text"`
}

var platformOptions = map[Platform]any{
	PlatformInstagram: InstagramOptions{},
	PlatformFacebook:  FacebookOptions{},
	PlatformThreads:   ThreadsOptions{},
	PlatformPinterest: PinterestOptions{},
	PlatformTikTok:    TikTokOptions{},
	PlatformYouTube:   YouTubeOptions{},
	PlatformX:         XOptions{},
	PlatformTwitter:   XOptions{},
	PlatformLinkedIn:  struct{}{},
	PlatformBluesky:   BlueskyOptions{},
	PlatformMastodon:  MastodonOptions{},
}

// KnownPlatforms lists every platform with a documented schema, sorted by name.
func KnownPlatforms() []Platform {
	platforms := lo.Keys(platformOptions)
	sort.Slice(platforms, func(i, j int) bool { return platforms[i] < platforms[j] })
	return platforms
}

// PlatformKeys returns the configuration keys a platform understands, sorted.
// The second result is false for platforms without a documented schema.
func PlatformKeys(platform Platform) ([]string, bool) {
	opts, ok := platformOptions[platform]
	if !ok {
		return nil, false
	}

	var fields map[string]any
	if err := mapstructure.Decode(opts, &fields); err != nil {
		return nil, false
	}
	keys := append(lo.Keys(fields), captionKey)
	sort.Strings(keys)
	return keys, true
}

// UnknownKeys reports extra fields that the post's platform does not document.
// Every key is unknown for an undocumented platform.
func UnknownKeys(post EffectivePost) []string {
	known, _ := PlatformKeys(post.Account.Platform)
	unknown := lo.Filter(lo.Keys(post.ExtraFields), func(key string, _ int) bool {
		return !lo.Contains(known, key)
	})
	sort.Strings(unknown)
	return unknown
}

// DecodeOptions decodes a post's extra fields into a typed options struct.
// Keys the struct does not declare are ignored.
func DecodeOptions(post EffectivePost, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("create decoder: %w", err)
	}
	if err := decoder.Decode(map[string]any(post.ExtraFields)); err != nil {
		return ValidationError{Provider: string(post.Account.Platform), Reason: err.Error()}
	}
	return nil
}
