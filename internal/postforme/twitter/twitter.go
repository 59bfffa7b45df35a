package twitter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/blacktop/postforme/internal/logutil"
	"github.com/blacktop/postforme/internal/postforme"
	"github.com/blacktop/postforme/internal/postforme/media"
	jsoniter "github.com/json-iterator/go"
	"github.com/michimani/gotwi"
	"github.com/michimani/gotwi/media/upload"
	uploadtypes "github.com/michimani/gotwi/media/upload/types"
	"github.com/michimani/gotwi/resources"
	"github.com/michimani/gotwi/tweet/managetweet"
	managetweettypes "github.com/michimani/gotwi/tweet/managetweet/types"
	"github.com/samber/lo"
)

const (
	envAPIKey       = "POSTFORME_TWITTER_CONSUMER_KEY"
	envAPISecret    = "POSTFORME_TWITTER_CONSUMER_SECRET"
	envAccessToken  = "POSTFORME_TWITTER_ACCESS_TOKEN"
	envAccessSecret = "POSTFORME_TWITTER_ACCESS_TOKEN_SECRET"

	providerName = "twitter"

	metadataEndpoint = "https://upload.twitter.com/1.1/media/metadata/create.json"

	maxImages = 4
	chunkSize = 4 << 20
)

var (
	httpTimeout = 30 * time.Second

	json = jsoniter.ConfigCompatibleWithStandardLibrary
)

// Config captures the credentials required for OAuth 1.0a user-context requests.
type Config struct {
	APIKey       string
	APISecret    string
	AccessToken  string
	AccessSecret string
}

// Client publishes resolved posts to X.
type Client struct {
	api  *gotwi.Client
	http *http.Client
}

// New constructs an X publisher using gotwi and OAuth 1.0a credentials.
func New(ctx context.Context) (postforme.Publisher, error) {
	cfg, err := loadConfigFromEnv()
	if err != nil {
		return nil, err
	}

	httpClient := &http.Client{Timeout: httpTimeout}
	client, err := gotwi.NewClient(&gotwi.NewClientInput{
		HTTPClient:           httpClient,
		AuthenticationMethod: gotwi.AuthenMethodOAuth1UserContext,
		OAuthToken:           cfg.AccessToken,
		OAuthTokenSecret:     cfg.AccessSecret,
		APIKey:               cfg.APIKey,
		APIKeySecret:         cfg.APISecret,
		Debug:                logutil.Verbose(),
	})
	if err != nil {
		return nil, fmt.Errorf("create X client: %w", err)
	}

	if !client.IsReady() {
		return nil, fmt.Errorf("twitter client not ready")
	}

	return &Client{api: client, http: httpClient}, nil
}

func (c *Client) Name() string { return providerName }

// Publish posts the caption with the post's media attached.
func (c *Client) Publish(ctx context.Context, post postforme.EffectivePost) error {
	var opts postforme.XOptions
	if err := postforme.DecodeOptions(post, &opts); err != nil {
		return err
	}

	payloads := make([]*media.Payload, 0, len(post.Media))
	for _, ref := range post.Media {
		payload, err := media.Fetch(ctx, c.http, ref.URL)
		if err != nil {
			return err
		}
		payloads = append(payloads, payload)
	}
	if err := checkAttachments(payloads); err != nil {
		return err
	}

	mediaIDs := make([]string, 0, len(payloads))
	for _, payload := range payloads {
		logutil.Debugf("uploading media: name=%s", payload.Name)
		mediaID, err := c.uploadMedia(ctx, payload, opts.AltText)
		if err != nil {
			return err
		}
		mediaIDs = append(mediaIDs, mediaID)
		logutil.Debugf("media uploaded: media_id=%s", mediaID)
	}

	input := buildInput(post, opts, mediaIDs)

	logutil.Debugf("posting tweet: account=%s media_count=%d", post.Account, len(mediaIDs))
	if _, err := managetweet.Create(ctx, c.api, input); err != nil {
		return fmt.Errorf("post tweet: %w", unwrapGotwiError(err))
	}
	logutil.Debugf("tweet posted successfully")

	return nil
}

func buildInput(post postforme.EffectivePost, opts postforme.XOptions, mediaIDs []string) *managetweettypes.CreateInput {
	input := &managetweettypes.CreateInput{
		Text: gotwi.String(post.Caption),
	}
	if len(mediaIDs) > 0 {
		input.Media = &managetweettypes.CreateInputMedia{MediaIDs: mediaIDs}
	}
	if opts.QuoteTweetID != "" {
		input.QuoteTweetID = gotwi.String(opts.QuoteTweetID)
	}
	if opts.ReplySettings != "" {
		input.ReplySettings = gotwi.String(opts.ReplySettings)
	}
	return input
}

// checkAttachments enforces the X limits: up to four images, or a single GIF or video.
func checkAttachments(payloads []*media.Payload) error {
	for _, p := range payloads {
		_, category, err := resolveMediaType(p)
		if err != nil {
			return err
		}
		if category != uploadtypes.MediaCategoryTweetImage && len(payloads) > 1 {
			return postforme.ValidationError{Provider: providerName, Reason: "a GIF or video must be the only attachment"}
		}
	}
	if len(payloads) > maxImages {
		return postforme.ValidationError{Provider: providerName, Reason: fmt.Sprintf("at most %d images per post, got %d", maxImages, len(payloads))}
	}
	return nil
}

func (c *Client) uploadMedia(ctx context.Context, payload *media.Payload, altText string) (string, error) {
	mediaType, category, err := resolveMediaType(payload)
	if err != nil {
		return "", err
	}

	initRes, err := upload.Initialize(ctx, c.api, &uploadtypes.InitializeInput{
		MediaType:     mediaType,
		TotalBytes:    len(payload.Data),
		MediaCategory: category,
	})
	if err != nil {
		return "", fmt.Errorf("initialize upload %s: %w", payload.Name, unwrapGotwiError(err))
	}
	if err := partialError(initRes.Errors); err != nil {
		return "", fmt.Errorf("initialize upload %s: %w", payload.Name, err)
	}
	mediaID := initRes.Data.MediaID
	logutil.Debugf("upload initialized: media_id=%s type=%s bytes=%d", mediaID, mediaType, len(payload.Data))

	if err := c.appendChunks(ctx, mediaID, payload.Data); err != nil {
		return "", err
	}

	finalizeRes, err := upload.Finalize(ctx, c.api, &uploadtypes.FinalizeInput{MediaID: mediaID})
	if err != nil {
		return "", fmt.Errorf("finalize upload %s: %w", payload.Name, unwrapGotwiError(err))
	}
	if err := partialError(finalizeRes.Errors); err != nil {
		return "", fmt.Errorf("finalize upload %s: %w", payload.Name, err)
	}
	info := finalizeRes.Data.ProcessingInfo
	if err := awaitProcessing(ctx, string(info.State), time.Duration(info.CheckAfterSecs)*time.Second); err != nil {
		return "", fmt.Errorf("media %s: %w", payload.Name, err)
	}

	// Alt text is only accepted for images.
	if alt := strings.TrimSpace(altText); alt != "" && category == uploadtypes.MediaCategoryTweetImage {
		if err := c.setAltText(ctx, mediaID, alt); err != nil {
			return "", err
		}
	}

	return mediaID, nil
}

// appendChunks sends data in chunkSize segments.
func (c *Client) appendChunks(ctx context.Context, mediaID string, data []byte) error {
	for segment, chunk := range lo.Chunk(data, chunkSize) {
		in := &uploadtypes.AppendInput{
			MediaID:      mediaID,
			Media:        bytes.NewReader(chunk),
			SegmentIndex: segment,
		}
		in.GenerateBoundary()

		res, err := upload.Append(ctx, c.api, in)
		if err != nil {
			return fmt.Errorf("append segment %d: %w", segment, unwrapGotwiError(err))
		}
		if err := partialError(res.Errors); err != nil {
			return fmt.Errorf("append segment %d: %w", segment, err)
		}
		logutil.Debugf("segment appended: media_id=%s segment=%d bytes=%d", mediaID, segment, len(chunk))
	}
	return nil
}

// awaitProcessing waits out the delay X asks for before processed media can be attached.
func awaitProcessing(ctx context.Context, state string, wait time.Duration) error {
	switch state {
	case "", string(resources.ProcessingInfoStateSucceeded):
		return nil
	case string(resources.ProcessingInfoStateInProgress), string(resources.ProcessingInfoStatePending):
	default:
		return fmt.Errorf("processing failed: state=%s", state)
	}

	// TODO: poll the STATUS command until processing succeeds; long videos outlast one wait.
	logutil.Debugf("media processing: state=%s wait=%s", state, wait)
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (c *Client) setAltText(ctx context.Context, mediaID, altText string) error {
	ctx = context.WithValue(ctx, "Content-Type", "application/json;charset=UTF-8")
	params := &altTextParams{MediaID: mediaID}
	params.AltText.Text = altText

	if err := c.api.CallAPI(ctx, metadataEndpoint, http.MethodPost, params, &altTextResponse{}); err != nil {
		return fmt.Errorf("set alt text: %w", unwrapGotwiError(err))
	}
	logutil.Debugf("alt text set: media_id=%s", mediaID)
	return nil
}

func loadConfigFromEnv() (Config, error) {
	cfg := Config{
		APIKey:       strings.TrimSpace(os.Getenv(envAPIKey)),
		APISecret:    strings.TrimSpace(os.Getenv(envAPISecret)),
		AccessToken:  strings.TrimSpace(os.Getenv(envAccessToken)),
		AccessSecret: strings.TrimSpace(os.Getenv(envAccessSecret)),
	}

	var missing []string
	if cfg.APIKey == "" {
		missing = append(missing, envAPIKey)
	}
	if cfg.APISecret == "" {
		missing = append(missing, envAPISecret)
	}
	if cfg.AccessToken == "" {
		missing = append(missing, envAccessToken)
	}
	if cfg.AccessSecret == "" {
		missing = append(missing, envAccessSecret)
	}

	if len(missing) > 0 {
		return Config{}, postforme.MissingEnvError{Provider: providerName, Variables: missing}
	}

	return cfg, nil
}

func resolveMediaType(p *media.Payload) (uploadtypes.MediaType, uploadtypes.MediaCategory, error) {
	switch p.ContentType {
	case "image/jpeg":
		return uploadtypes.MediaTypeJPEG, uploadtypes.MediaCategoryTweetImage, nil
	case "image/png":
		return uploadtypes.MediaTypePNG, uploadtypes.MediaCategoryTweetImage, nil
	case "image/webp":
		return uploadtypes.MediaTypeWebP, uploadtypes.MediaCategoryTweetImage, nil
	case "image/gif":
		return uploadtypes.MediaTypeGIF, uploadtypes.MediaCategoryTweetGIF, nil
	case "video/mp4", "video/quicktime":
		return uploadtypes.MediaType(p.ContentType), uploadtypes.MediaCategory("tweet_video"), nil
	}

	return "", "", postforme.ValidationError{Provider: providerName, Reason: fmt.Sprintf("unsupported media type %s for %q", p.ContentType, p.Name)}
}

func partialError(partials []resources.PartialError) error {
	msgs := lo.FilterMap(partials, func(pe resources.PartialError, _ int) (string, bool) {
		switch {
		case pe.Detail != nil && *pe.Detail != "":
			return *pe.Detail, true
		case pe.Title != nil && *pe.Title != "":
			return *pe.Title, true
		case pe.ResourceType != nil:
			return fmt.Sprint(*pe.ResourceType), true
		}
		return "", false
	})
	if len(partials) == 0 {
		return nil
	}
	if len(msgs) == 0 {
		return errors.New("unknown error")
	}
	return errors.New(strings.Join(msgs, "; "))
}

func unwrapGotwiError(err error) error {
	var gwErr *gotwi.GotwiError
	if !errors.As(err, &gwErr) || gwErr == nil {
		return err
	}

	parts := []string{gwErr.Title, gwErr.Detail}
	for _, apiErr := range gwErr.APIErrors {
		parts = append(parts, apiErr.Message)
	}
	parts = lo.Compact(parts)
	if len(parts) == 0 {
		return errors.New("X API request failed")
	}
	return errors.New(strings.Join(parts, "; "))
}

// altTextParams implements gotwi.IParameters for the media metadata endpoint.
type altTextParams struct {
	MediaID string `json:"media_id"`
	AltText struct {
		Text string `json:"text"`
	} `json:"alt_text"`

	accessToken string
}

func (p *altTextParams) SetAccessToken(token string) { p.accessToken = token }
func (p *altTextParams) AccessToken() string { return p.accessToken }
func (p *altTextParams) ResolveEndpoint(endpointBase string) string { return endpointBase }
func (p *altTextParams) ParameterMap() map[string]string { return map[string]string{} }

func (p *altTextParams) Body() (io.Reader, error) {
	buf, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(buf), nil
}

type altTextResponse struct{}

func (altTextResponse) HasPartialError() bool { return false }
