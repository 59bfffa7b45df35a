package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/blacktop/postforme/internal/logutil"
	"github.com/blacktop/postforme/internal/postforme"
	"github.com/blacktop/postforme/internal/postforme/media"
)

// Upload stores raw bytes at a signed upload URL. The API key is not sent to storage.
func (c *Client) Upload(ctx context.Context, uploadURL, contentType string, body io.Reader, size int64) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if size >= 0 {
		req.ContentLength = size
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("send upload: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return postforme.UploadError{Status: resp.StatusCode, StatusText: statusText(resp)}
	}
	return nil
}

// UploadFile runs the two-step upload flow for a local file and returns its public media URL.
func (c *Client) UploadFile(ctx context.Context, path string) (string, error) {
	f, err := media.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	dest, err := c.CreateUploadURL(ctx)
	if err != nil {
		return "", err
	}

	logutil.Debugf("uploading %s: content_type=%s bytes=%d", f.Name, f.ContentType, f.Size)
	if err := c.Upload(ctx, dest.UploadURL, f.ContentType, f, f.Size); err != nil {
		return "", err
	}
	logutil.Debugf("uploaded %s: media_url=%s", f.Name, dest.MediaURL)

	return dest.MediaURL, nil
}

// statusText mirrors the reason phrase of the response, e.g. "Forbidden".
func statusText(resp *http.Response) string {
	if text := strings.TrimSpace(strings.TrimPrefix(resp.Status, fmt.Sprint(resp.StatusCode))); text != "" {
		return text
	}
	return http.StatusText(resp.StatusCode)
}
