package socialmuse

import (
	"fmt"
	"time"
)

// Tone is the stylistic directive applied to every post of a campaign.
type Tone string

const (
	ToneProfessional  Tone = "Professional"
	ToneWitty         Tone = "Witty"
	ToneUrgent        Tone = "Urgent"
	ToneInspirational Tone = "Inspirational"
	ToneInformative   Tone = "Informative"
)

// Tones lists every tone in the order the form offers them.
var Tones = []Tone{ToneProfessional, ToneWitty, ToneUrgent, ToneInspirational, ToneInformative}

// ParseTone validates a tone label.
func ParseTone(s string) (Tone, error) {
	for _, t := range Tones {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown tone %q", s)
}

// Platform is a social network a campaign drafts a post for.
type Platform string

const (
	LinkedIn  Platform = "LinkedIn"
	Twitter   Platform = "Twitter"
	Instagram Platform = "Instagram"
)

// ParsePlatform validates a platform name.
func ParsePlatform(s string) (Platform, error) {
	for _, spec := range platformSpecs {
		if string(spec.platform) == s {
			return spec.platform, nil
		}
	}
	return "", fmt.Errorf("unknown platform %q", s)
}

// AspectRatio is the width:height of a generated image.
type AspectRatio string

const (
	Ratio1x1  AspectRatio = "1:1"
	Ratio3x4  AspectRatio = "3:4"
	Ratio4x3  AspectRatio = "4:3"
	Ratio9x16 AspectRatio = "9:16"
	Ratio16x9 AspectRatio = "16:9"
)

// ImageSize is the resolution tier requested from the image model.
type ImageSize string

const (
	Size1K ImageSize = "1K"
	Size2K ImageSize = "2K"
	Size4K ImageSize = "4K"
)

// ImageSizes lists the size tiers in ascending order.
var ImageSizes = []ImageSize{Size1K, Size2K, Size4K}

// ParseImageSize validates a size tier. An empty string selects 1K.
func ParseImageSize(s string) (ImageSize, error) {
	if s == "" {
		return Size1K, nil
	}
	for _, size := range ImageSizes {
		if string(size) == s {
			return size, nil
		}
	}
	return "", fmt.Errorf("unknown image size %q", s)
}

// platformSpec ties a platform to its key in the model response and its
// fixed image aspect ratio. The order of platformSpecs is the order of posts
// in every campaign.
type platformSpec struct {
	platform Platform
	key      string
	ratio    AspectRatio
}

var platformSpecs = []platformSpec{
	{platform: LinkedIn, key: "linkedIn", ratio: Ratio4x3},
	{platform: Twitter, key: "twitter", ratio: Ratio16x9},
	{platform: Instagram, key: "instagram", ratio: Ratio1x1},
}

// Platforms returns the platforms of a campaign in post order.
func Platforms() []Platform {
	out := make([]Platform, len(platformSpecs))
	for i, spec := range platformSpecs {
		out[i] = spec.platform
	}
	return out
}

// CampaignData is the form input for one generation.
type CampaignData struct {
	Idea      string
	Tone      Tone
	ImageSize ImageSize
}

// SocialPost is one platform's draft.
type SocialPost struct {
	Platform    Platform    `json:"platform"`
	Content     string      `json:"content"`
	Hashtags    []string    `json:"hashtags"`
	Prompt      string      `json:"prompt,omitempty"`
	AspectRatio AspectRatio `json:"aspectRatio,omitempty"`
	// ImageURI is resolved per display and never persisted.
	ImageURI string `json:"-"`
}

// CampaignResult is a stored generation: exactly one post per platform.
type CampaignResult struct {
	ID        string       `json:"id"`
	Idea      string       `json:"idea"`
	Tone      Tone         `json:"tone"`
	Posts     []SocialPost `json:"posts"`
	Timestamp int64        `json:"timestamp"` // Unix milliseconds
	UserID    *string      `json:"userId"`
}

// CreatedAt returns the creation time of the campaign.
func (r CampaignResult) CreatedAt() time.Time {
	return time.UnixMilli(r.Timestamp)
}

// Post returns the campaign's post for platform.
func (r CampaignResult) Post(p Platform) (SocialPost, bool) {
	for _, post := range r.Posts {
		if post.Platform == p {
			return post, true
		}
	}
	return SocialPost{}, false
}

// OwnedBy reports whether the campaign belongs to the bucket of userID.
// A nil userID selects the anonymous bucket.
func (r CampaignResult) OwnedBy(userID *string) bool {
	if userID == nil {
		return r.UserID == nil
	}
	return r.UserID != nil && *r.UserID == *userID
}

// User is an account in a workspace.
type User struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash string `json:"passwordHash,omitempty"`
}
