package socialmuse

import (
	"errors"
	"fmt"
	"strings"
)

// Messages shown to the user. Technical detail only goes to the log.
const (
	msgGenerationFailed = "Failed to generate campaign drafts. Please try again."
	msgImageFailed      = "Image generation failed. Reload the post to try again."
	msgCredentialFailed = "The selected API key was rejected. Select a paid API key and try again."
)

var (
	// ErrEmptyIdea is returned when the idea is blank after trimming.
	ErrEmptyIdea = errors.New("idea is required")
	// ErrEmptyResponse is returned when the text model answers with no text.
	ErrEmptyResponse = errors.New("empty response from model")
	// ErrNoImageData is returned when no response part carries inline image bytes.
	ErrNoImageData = errors.New("no image data in response")
	// ErrSuperseded is returned by Generate when a newer generation was
	// submitted while this one was in flight. The result is stored but not shown.
	ErrSuperseded = errors.New("generation superseded by a newer submission")
	// ErrNoActiveCampaign is returned by operations on the displayed result
	// when nothing is displayed.
	ErrNoActiveCampaign = errors.New("no active campaign")
	// ErrCampaignNotFound is returned when a campaign id is not in the store.
	ErrCampaignNotFound = errors.New("campaign not found")
	// ErrNoAPIKey is returned when generation is attempted behind a closed gate.
	ErrNoAPIKey = errors.New("no API key selected")
)

// ParseError reports a model response that does not match the campaign schema.
type ParseError struct {
	Field string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("parse campaign response: %v", e.Err)
	}
	return fmt.Sprintf("parse campaign response: %s: %v", e.Field, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// GenerationError wraps any failure of the text generation step.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string { return "generate campaign: " + e.Err.Error() }

func (e *GenerationError) Unwrap() error { return e.Err }

// UserMessage is the text shown in place of the campaign.
func (e *GenerationError) UserMessage() string { return msgGenerationFailed }

// ImageError wraps a failed image for one post. Credential is set when the
// provider rejected the API key.
type ImageError struct {
	Platform   Platform
	Credential bool
	Err        error
}

func (e *ImageError) Error() string {
	return fmt.Sprintf("generate %s image: %v", e.Platform, e.Err)
}

func (e *ImageError) Unwrap() error { return e.Err }

// UserMessage is the text shown on the post in place of the image.
func (e *ImageError) UserMessage() string {
	if e.Credential {
		return msgCredentialFailed
	}
	return msgImageFailed
}

// AuthError is a non-fatal failure of the authentication form.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string { return e.Message }

var (
	ErrDuplicateEmail     = &AuthError{Message: "Email already exists"}
	ErrInvalidCredentials = &AuthError{Message: "Invalid credentials"}
	ErrTooManyAttempts    = &AuthError{Message: "Too many attempts. Try again later."}
	ErrMissingAuthFields  = &AuthError{Message: "Email and password are required"}
)

// credentialSignature is the provider's answer for an unknown or revoked key.
const credentialSignature = "requested entity was not found"

// IsCredentialError reports whether err carries the provider's stale-key signature.
func IsCredentialError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(strings.ToLower(err.Error()), credentialSignature)
}

// UserMessage converts any error into the opaque text shown in the UI.
func UserMessage(err error) string {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr.Message
	}
	var imgErr *ImageError
	if errors.As(err, &imgErr) {
		return imgErr.UserMessage()
	}
	return msgGenerationFailed
}
