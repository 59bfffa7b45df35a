package api

import "time"

// SocialPost is a post as returned by the API.
type SocialPost struct {
	ID          string     `json:"id"`
	Caption     string     `json:"caption"`
	Status      string     `json:"status"`
	ExternalID  string     `json:"external_id,omitempty"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// SocialAccount is a connected destination account.
type SocialAccount struct {
	ID       string `json:"id"`
	Platform string `json:"platform"`
	Username string `json:"username"`
	Status   string `json:"status"`
}

// UploadURL is the signed destination for a media upload.
type UploadURL struct {
	// UploadURL receives the file bytes via PUT.
	UploadURL string `json:"upload_url"`
	// MediaURL is the public reference used in posts.
	MediaURL string `json:"media_url"`
}

type listResponse[T any] struct {
	Data []T `json:"data"`
}

type errorResponse struct {
	Message any    `json:"message"`
	Error   string `json:"error"`
}
