package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/blacktop/postforme/internal/logutil"
	"github.com/blacktop/postforme/internal/postforme"
	jsoniter "github.com/json-iterator/go"
	"github.com/samber/lo"
)

const (
	// EnvAPIKey names the variable holding the API key.
	EnvAPIKey = "POSTFORME_API_KEY"

	DefaultBaseURL = "https://api.postforme.dev"

	providerName   = "postforme"
	requestTimeout = 30 * time.Second
	userAgent      = "postforme-cli/1"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Config holds the settings needed to reach the API.
type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
	// HTTPClient overrides the default client, mostly for tests.
	HTTPClient *http.Client
}

// Client talks to the Post for Me API.
type Client struct {
	http    *http.Client
	baseURL string
	apiKey  string
}

// New constructs an API client.
func New(cfg Config) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, postforme.MissingEnvError{Provider: providerName, Variables: []string{EnvAPIKey}}
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, postforme.ValidationError{Provider: providerName, Reason: fmt.Sprintf("invalid base URL %q", cfg.BaseURL)}
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = requestTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{http: httpClient, baseURL: baseURL, apiKey: apiKey}, nil
}

// CreatePost resolves and validates the request locally, then submits it.
// Nothing is sent when the request would not resolve. Duplicate account ids are dropped before
// sending so the server publishes exactly the posts Resolve produced.
func (c *Client) CreatePost(ctx context.Context, req postforme.PostRequest) (*SocialPost, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	posts, err := postforme.Resolve(req)
	if err != nil {
		return nil, err
	}
	req.SocialAccounts = lo.Map(posts, func(p postforme.EffectivePost, _ int) string { return p.Account.ID })

	var created SocialPost
	if err := c.do(ctx, http.MethodPost, "/v1/social-posts", req, &created); err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	logutil.Debugf("post created: id=%s accounts=%d", created.ID, len(posts))

	return &created, nil
}

// GetPost looks up a post by id.
func (c *Client) GetPost(ctx context.Context, id string) (*SocialPost, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, postforme.ValidationError{Provider: providerName, Reason: "post id is required"}
	}

	var post SocialPost
	if err := c.do(ctx, http.MethodGet, "/v1/social-posts/"+url.PathEscape(id), nil, &post); err != nil {
		return nil, fmt.Errorf("get post: %w", err)
	}
	return &post, nil
}

// ListSocialAccounts returns the connected accounts, optionally limited to one platform.
func (c *Client) ListSocialAccounts(ctx context.Context, platform string) ([]SocialAccount, error) {
	endpoint := "/v1/social-accounts"
	if platform = strings.TrimSpace(strings.ToLower(platform)); platform != "" {
		endpoint += "?" + url.Values{"platform": {platform}}.Encode()
	}

	var resp listResponse[SocialAccount]
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &resp); err != nil {
		return nil, fmt.Errorf("list social accounts: %w", err)
	}
	return resp.Data, nil
}

// CreateUploadURL requests a signed storage location for a new media file.
func (c *Client) CreateUploadURL(ctx context.Context) (*UploadURL, error) {
	var resp UploadURL
	if err := c.do(ctx, http.MethodPost, "/v1/media/create-upload-url", nil, &resp); err != nil {
		return nil, fmt.Errorf("create upload url: %w", err)
	}
	if resp.UploadURL == "" || resp.MediaURL == "" {
		return nil, fmt.Errorf("create upload url: empty response")
	}
	return &resp, nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	logutil.Debugf("%s %s", method, req.URL.Redacted())
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	logutil.Debugf("%s %s -> %d (%d bytes)", method, endpoint, resp.StatusCode, len(respBody))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return postforme.APIError{Status: resp.StatusCode, Message: errorMessage(respBody)}
	}

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

func errorMessage(body []byte) string {
	var parsed errorResponse
	if err := json.Unmarshal(body, &parsed); err == nil {
		switch msg := parsed.Message.(type) {
		case string:
			if msg != "" {
				return msg
			}
		case []any:
			parts := make([]string, 0, len(msg))
			for _, m := range msg {
				parts = append(parts, fmt.Sprint(m))
			}
			if len(parts) > 0 {
				return strings.Join(parts, "; ")
			}
		}
		if parsed.Error != "" {
			return parsed.Error
		}
	}
	return strings.TrimSpace(string(body))
}
