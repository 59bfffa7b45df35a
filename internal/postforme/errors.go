package postforme

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidAccountRef matches every InvalidAccountRefError.
	ErrInvalidAccountRef = errors.New("invalid account reference")
	// ErrInvalidReference matches every InvalidReferenceError.
	ErrInvalidReference = errors.New("invalid account configuration reference")
	// ErrUploadFailed matches every UploadError.
	ErrUploadFailed = errors.New("upload failed")
)

// MissingEnvError is returned when required configuration is missing.
type MissingEnvError struct {
	Provider  string
	Variables []string
}

func (e MissingEnvError) Error() string {
	if len(e.Variables) == 0 {
		return fmt.Sprintf("%s credentials not configured", e.Provider)
	}
	return fmt.Sprintf("%s credentials not configured (missing %s)", e.Provider, strings.Join(e.Variables, ", "))
}

// ValidationError captures provider-specific validation issues.
type ValidationError struct {
	Provider string
	Reason   string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s validation failed: %s", e.Provider, e.Reason)
}

// InvalidAccountRefError reports an account reference whose platform cannot be derived.
type InvalidAccountRefError struct {
	Ref    string
	Reason string
}

func (e InvalidAccountRefError) Error() string {
	return fmt.Sprintf("invalid account reference %q: %s", e.Ref, e.Reason)
}

func (e InvalidAccountRefError) Is(target error) bool { return target == ErrInvalidAccountRef }

// InvalidReferenceError reports an account configuration that targets no listed account.
type InvalidReferenceError struct {
	// Index is the position of the offending entry in account_configurations.
	Index     int
	AccountID string
}

func (e InvalidReferenceError) Error() string {
	if e.AccountID == "" {
		return fmt.Sprintf("account_configurations[%d]: social_account_id is required", e.Index)
	}
	return fmt.Sprintf("account_configurations[%d]: %q is not listed in social_accounts", e.Index, e.AccountID)
}

func (e InvalidReferenceError) Is(target error) bool { return target == ErrInvalidReference }

// UploadError is returned when storage rejects an uploaded file.
type UploadError struct {
	Status     int
	StatusText string
}

func (e UploadError) Error() string {
	return fmt.Sprintf("failed to upload file: %s", e.StatusText)
}

func (e UploadError) Is(target error) bool { return target == ErrUploadFailed }

// APIError is a non-success response from the posting API.
type APIError struct {
	Status  int
	Message string
}

func (e APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api request failed (status %d)", e.Status)
	}
	return fmt.Sprintf("api request failed (status %d): %s", e.Status, e.Message)
}
