package mastodon

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/blacktop/postforme/internal/logutil"
	"github.com/blacktop/postforme/internal/postforme"
	"github.com/blacktop/postforme/internal/postforme/media"
	mastodonapi "github.com/mattn/go-mastodon"
)

const (
	envServer       = "POSTFORME_MASTODON_SERVER"
	envAccessToken  = "POSTFORME_MASTODON_ACCESS_TOKEN"
	envClientID     = "POSTFORME_MASTODON_CLIENT_ID"
	envClientSecret = "POSTFORME_MASTODON_CLIENT_SECRET"

	providerName   = "mastodon"
	requestTimeout = 30 * time.Second
)

var visibilities = map[string]struct{}{
	"":         {},
	"public":   {},
	"unlisted": {},
	"private":  {},
	"direct":   {},
}

// Config contains the settings needed to reach a Mastodon server.
type Config struct {
	Server       string
	AccessToken  string
	ClientID     string
	ClientSecret string
}

// Client publishes resolved posts as Mastodon statuses.
type Client struct {
	client *mastodonapi.Client
	http   *http.Client
}

// New constructs a Mastodon publisher based on environment configuration.
func New(ctx context.Context) (postforme.Publisher, error) {
	cfg, err := loadConfigFromEnv()
	if err != nil {
		return nil, err
	}

	mastodonClient := mastodonapi.NewClient(&mastodonapi.Config{
		Server:       cfg.Server,
		AccessToken:  cfg.AccessToken,
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
	})
	mastodonClient.Timeout = requestTimeout

	return &Client{client: mastodonClient, http: &http.Client{Timeout: requestTimeout}}, nil
}

func (c *Client) Name() string { return providerName }

// Publish posts the caption as a status with every media file attached.
func (c *Client) Publish(ctx context.Context, post postforme.EffectivePost) error {
	toot, opts, err := buildToot(post)
	if err != nil {
		return err
	}

	for _, ref := range post.Media {
		attachment, err := c.uploadMedia(ctx, ref.URL, opts.AltText)
		if err != nil {
			return err
		}
		toot.MediaIDs = append(toot.MediaIDs, attachment.ID)
	}

	status, err := c.client.PostStatus(ctx, toot)
	if err != nil {
		return fmt.Errorf("post status: %w", err)
	}
	logutil.Debugf("mastodon status posted: account=%s url=%s", post.Account, status.URL)

	return nil
}

func buildToot(post postforme.EffectivePost) (*mastodonapi.Toot, postforme.MastodonOptions, error) {
	var opts postforme.MastodonOptions
	if err := postforme.DecodeOptions(post, &opts); err != nil {
		return nil, opts, err
	}
	opts.Visibility = strings.ToLower(strings.TrimSpace(opts.Visibility))
	if _, ok := visibilities[opts.Visibility]; !ok {
		return nil, opts, postforme.ValidationError{Provider: providerName, Reason: fmt.Sprintf("unknown visibility %q", opts.Visibility)}
	}

	return &mastodonapi.Toot{
		Status:      post.Caption,
		Visibility:  opts.Visibility,
		SpoilerText: opts.SpoilerText,
		Sensitive:   opts.Sensitive,
		Language:    opts.Language,
	}, opts, nil
}

func (c *Client) uploadMedia(ctx context.Context, ref, alt string) (*mastodonapi.Attachment, error) {
	payload, err := media.Fetch(ctx, c.http, ref)
	if err != nil {
		return nil, err
	}

	attachment, err := c.client.UploadMediaFromMedia(ctx, &mastodonapi.Media{
		File:        bytes.NewReader(payload.Data),
		Description: alt,
	})
	if err != nil {
		return nil, fmt.Errorf("upload media: %w", err)
	}

	return attachment, nil
}

func loadConfigFromEnv() (Config, error) {
	cfg := Config{
		Server:       strings.TrimSpace(os.Getenv(envServer)),
		AccessToken:  strings.TrimSpace(os.Getenv(envAccessToken)),
		ClientID:     strings.TrimSpace(os.Getenv(envClientID)),
		ClientSecret: strings.TrimSpace(os.Getenv(envClientSecret)),
	}

	var missing []string
	if cfg.Server == "" {
		missing = append(missing, envServer)
	}
	if cfg.AccessToken == "" {
		missing = append(missing, envAccessToken)
	}

	if len(missing) > 0 {
		return Config{}, postforme.MissingEnvError{Provider: providerName, Variables: missing}
	}

	return cfg, nil
}
