package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/blacktop/postforme/internal/postforme"
	"github.com/gabriel-vasile/mimetype"
)

const (
	providerName = "media"

	// MaxFetchBytes bounds remote downloads held in memory.
	MaxFetchBytes = 512 << 20
)

// File is an opened local file ready to be streamed to storage.
type File struct {
	*os.File
	Name        string
	Size        int64
	ContentType string
}

// Payload is a fully buffered media file.
type Payload struct {
	Name        string
	ContentType string
	Data        []byte
}

// IsRemote reports whether ref is an http(s) URL rather than a local path.
func IsRemote(ref string) bool {
	u, err := url.Parse(ref)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Open opens a local file and detects its content type. The caller closes the file.
func Open(p string) (*File, error) {
	f, err := os.Open(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, postforme.ValidationError{Provider: providerName, Reason: fmt.Sprintf("file %q not found", p)}
		}
		return nil, fmt.Errorf("open file: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat file: %w", err)
	}
	if info.IsDir() {
		f.Close()
		return nil, postforme.ValidationError{Provider: providerName, Reason: fmt.Sprintf("%q is a directory", p)}
	}

	mtype, err := mimetype.DetectReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("detect content type: %w", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		return nil, fmt.Errorf("rewind file: %w", err)
	}

	return &File{
		File:        f,
		Name:        filepath.Base(p),
		Size:        info.Size(),
		ContentType: mtype.String(),
	}, nil
}

// Fetch loads a media reference into memory. Remote references are downloaded with client;
// anything else is read from the local filesystem.
func Fetch(ctx context.Context, client *http.Client, ref string) (*Payload, error) {
	if !IsRemote(ref) {
		data, err := os.ReadFile(ref)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, postforme.ValidationError{Provider: providerName, Reason: fmt.Sprintf("file %q not found", ref)}
			}
			return nil, fmt.Errorf("read file: %w", err)
		}
		return newPayload(filepath.Base(ref), data), nil
	}

	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", ref, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("download %s: %s", ref, resp.Status)
	}

	buf := &bytes.Buffer{}
	n, err := io.Copy(buf, io.LimitReader(resp.Body, MaxFetchBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", ref, err)
	}
	if n > MaxFetchBytes {
		return nil, postforme.ValidationError{Provider: providerName, Reason: fmt.Sprintf("%s exceeds %d bytes", ref, MaxFetchBytes)}
	}

	name := "media"
	if u, err := url.Parse(ref); err == nil && path.Base(u.Path) != "/" && path.Base(u.Path) != "." {
		name = path.Base(u.Path)
	}
	return newPayload(name, buf.Bytes()), nil
}

func newPayload(name string, data []byte) *Payload {
	return &Payload{
		Name:        name,
		ContentType: mimetype.Detect(data).String(),
		Data:        data,
	}
}

// IsImage reports whether the payload's detected type is an image.
func (p *Payload) IsImage() bool {
	return strings.HasPrefix(p.ContentType, "image/")
}

// IsVideo reports whether the payload's detected type is a video.
func (p *Payload) IsVideo() bool {
	return strings.HasPrefix(p.ContentType, "video/")
}
