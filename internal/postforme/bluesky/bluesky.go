package bluesky

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
	"github.com/bluesky-social/indigo/api/atproto"
	"github.com/bluesky-social/indigo/api/bsky"
	"github.com/bluesky-social/indigo/lex/util"
	"github.com/bluesky-social/indigo/xrpc"
)

const (
	envHandle      = "POSTFORME_BLUESKY_HANDLE"
	envAppPassword = "POSTFORME_BLUESKY_APP_PASSWORD"
	envPDSURL      = "POSTFORME_BLUESKY_PDS_URL"

	providerName   = "bluesky"
	requestTimeout = 30 * time.Second

	// maxImages is the embed limit of app.bsky.embed.images.
	maxImages = 4
)

// DefaultPDSURL is used when neither the caller nor the environment names a PDS.
const DefaultPDSURL = "https://bsky.social"

// Config allows the caller to supply defaults prior to reading environment variables.
type Config struct {
	PDSURL string
}

// Client publishes resolved posts to Bluesky.
type Client struct {
	client *xrpc.Client
	http   *http.Client
}

// New logs in and returns a Bluesky publisher.
func New(ctx context.Context, base Config) (postforme.Publisher, error) {
	cfg, err := loadConfig(base)
	if err != nil {
		return nil, err
	}

	httpClient := &http.Client{Timeout: requestTimeout}
	userAgent := "postforme/1"
	xrpcClient := &xrpc.Client{
		Client:    httpClient,
		Host:      cfg.PDSURL,
		UserAgent: &userAgent,
	}

	session, err := atproto.ServerCreateSession(ctx, xrpcClient, &atproto.ServerCreateSession_Input{
		Identifier: cfg.Handle,
		Password:   cfg.AppPassword,
	})
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	xrpcClient.Auth = &xrpc.AuthInfo{
		AccessJwt:  session.AccessJwt,
		RefreshJwt: session.RefreshJwt,
		Handle:     session.Handle,
		Did:        session.Did,
	}
	logutil.Debugf("bluesky session created: handle=%s", session.Handle)

	return &Client{client: xrpcClient, http: httpClient}, nil
}

func (c *Client) Name() string { return providerName }

// Publish creates a feed post carrying the caption and up to four images.
func (c *Client) Publish(ctx context.Context, post postforme.EffectivePost) error {
	var opts postforme.BlueskyOptions
	if err := postforme.DecodeOptions(post, &opts); err != nil {
		return err
	}
	if len(post.Media) > maxImages {
		return postforme.ValidationError{Provider: providerName, Reason: fmt.Sprintf("at most %d images per post, got %d", maxImages, len(post.Media))}
	}

	record := &bsky.FeedPost{
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Text:      post.Caption,
		Langs:     opts.Langs,
	}

	if len(post.Media) > 0 {
		images := make([]*bsky.EmbedImages_Image, 0, len(post.Media))
		for _, ref := range post.Media {
			blob, err := c.uploadImage(ctx, ref.URL)
			if err != nil {
				return err
			}
			images = append(images, &bsky.EmbedImages_Image{Alt: opts.AltText, Image: blob})
		}
		record.Embed = &bsky.FeedPost_Embed{
			EmbedImages: &bsky.EmbedImages{Images: images},
		}
	}

	out, err := atproto.RepoCreateRecord(ctx, c.client, &atproto.RepoCreateRecord_Input{
		Collection: "app.bsky.feed.post",
		Repo:       c.client.Auth.Did,
		Record: &util.LexiconTypeDecoder{
			Val: record,
		},
	})
	if err != nil {
		return fmt.Errorf("create record: %w", err)
	}
	logutil.Debugf("bluesky record created: account=%s uri=%s", post.Account, out.Uri)

	return nil
}

func (c *Client) uploadImage(ctx context.Context, ref string) (*util.LexBlob, error) {
	payload, err := media.Fetch(ctx, c.http, ref)
	if err != nil {
		return nil, err
	}
	if !payload.IsImage() {
		return nil, postforme.ValidationError{Provider: providerName, Reason: fmt.Sprintf("%s is %s, only images are supported", ref, payload.ContentType)}
	}

	resp, err := atproto.RepoUploadBlob(ctx, c.client, bytes.NewReader(payload.Data))
	if err != nil {
		return nil, fmt.Errorf("upload blob: %w", err)
	}
	if resp.Blob == nil {
		return nil, fmt.Errorf("upload blob: empty response")
	}

	return resp.Blob, nil
}

// ProviderConfig merges defaults with environment-defined values.
type ProviderConfig struct {
	Handle      string
	AppPassword string
	PDSURL      string
}

func loadConfig(base Config) (ProviderConfig, error) {
	cfg := ProviderConfig{
		Handle:      strings.TrimSpace(os.Getenv(envHandle)),
		AppPassword: strings.TrimSpace(os.Getenv(envAppPassword)),
		PDSURL:      strings.TrimSpace(os.Getenv(envPDSURL)),
	}

	if cfg.PDSURL == "" {
		cfg.PDSURL = strings.TrimSpace(base.PDSURL)
	}
	if cfg.PDSURL == "" {
		cfg.PDSURL = DefaultPDSURL
	}

	var missing []string
	if cfg.Handle == "" {
		missing = append(missing, envHandle)
	}
	if cfg.AppPassword == "" {
		missing = append(missing, envAppPassword)
	}

	if len(missing) > 0 {
		return ProviderConfig{}, postforme.MissingEnvError{Provider: providerName, Variables: missing}
	}

	return cfg, nil
}
