package postforme

import (
	"context"
	"time"
)

// Configuration is an open set of platform-specific settings keyed by API field name.
type Configuration map[string]any

// MediaRef points at a publicly fetchable media file.
type MediaRef struct {
	URL string `json:"url" yaml:"url" validate:"required,url"`
}

// AccountConfiguration overrides settings for a single social account.
type AccountConfiguration struct {
	SocialAccountID string        `json:"social_account_id" yaml:"social_account_id"`
	Configuration   Configuration `json:"configuration" yaml:"configuration"`
}

// PostRequest is the payload accepted by the social posts endpoint.
type PostRequest struct {
	Caption                string                   `json:"caption" yaml:"caption" validate:"max=63206"`
	Media                  []MediaRef               `json:"media,omitempty" yaml:"media,omitempty" validate:"dive"`
	SocialAccounts         []string                 `json:"social_accounts" yaml:"social_accounts" validate:"required,min=1,dive,required"`
	ExternalID             string                   `json:"external_id,omitempty" yaml:"external_id,omitempty"`
	PlatformConfigurations map[string]Configuration `json:"platform_configurations,omitempty" yaml:"platform_configurations,omitempty"`
	AccountConfigurations  []AccountConfiguration   `json:"account_configurations,omitempty" yaml:"account_configurations,omitempty"`
	// ScheduledAt nil means post immediately.
	ScheduledAt *time.Time `json:"scheduled_at,omitempty" yaml:"scheduled_at,omitempty"`
}

// EffectivePost is the content a single account receives after overrides are applied.
type EffectivePost struct {
	Account     AccountRef    `json:"account"`
	Caption     string        `json:"caption"`
	Media       []MediaRef    `json:"media"`
	ExtraFields Configuration `json:"extra_fields"`
}

// Publisher delivers a resolved post to a single platform.
type Publisher interface {
	Name() string
	Publish(ctx context.Context, post EffectivePost) error
}
