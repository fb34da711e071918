package socialmuse

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// ContentModel is the slice of the genai Models service the generators use.
// *genai.Models satisfies it.
type ContentModel interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// ModelSource hands out a ContentModel authenticated with apiKey.
type ModelSource interface {
	Models(ctx context.Context, apiKey string) (ContentModel, error)
}

const campaignInstruction = `You are an expert social media strategist.
Given a core idea and tone, generate tailored content for LinkedIn, Twitter, and Instagram.

Guidelines:
- LinkedIn: Professional, long-form, networking-focused, value-driven.
- Twitter: Short (under 280 characters), punchy, engaging, includes tags.
- Instagram: Visual-first, conversational but concise, heavy on hashtags.

For every platform also write "prompt": a detailed description of a single
photorealistic image that would accompany the post. Do not put text in the image.
Return hashtags without the leading '#'.`

// CampaignGenerator drafts the three posts of a campaign with one structured
// request to the text model.
type CampaignGenerator struct {
	models ModelSource
	model  string
}

// NewCampaignGenerator returns a generator that calls model through models.
func NewCampaignGenerator(models ModelSource, model string) *CampaignGenerator {
	return &CampaignGenerator{models: models, model: model}
}

// Draft returns exactly one post per platform, in platform order, or an error.
func (g *CampaignGenerator) Draft(ctx context.Context, apiKey string, data CampaignData) ([]SocialPost, error) {
	idea := strings.TrimSpace(data.Idea)
	if idea == "" {
		return nil, ErrEmptyIdea
	}
	if _, err := ParseTone(string(data.Tone)); err != nil {
		return nil, err
	}
	models, err := g.models.Models(ctx, apiKey)
	if err != nil {
		return nil, err
	}

	prompt := fmt.Sprintf("Generate a social media campaign for the following idea: %q.\nThe tone should be: %s.", idea, data.Tone)
	resp, err := models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(campaignInstruction, genai.RoleUser),
		ResponseMIMEType:  "application/json",
		ResponseSchema:    campaignSchema(),
	})
	if err != nil {
		return nil, fmt.Errorf("text model %s: %w", g.model, err)
	}
	return parseCampaign(resp.Text())
}

func campaignSchema() *genai.Schema {
	props := make(map[string]*genai.Schema, len(platformSpecs))
	required := make([]string, 0, len(platformSpecs))
	for _, spec := range platformSpecs {
		props[spec.key] = &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"content":  {Type: genai.TypeString},
				"hashtags": {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
				"prompt":   {Type: genai.TypeString},
			},
			Required: []string{"content", "hashtags", "prompt"},
		}
		required = append(required, spec.key)
	}
	return &genai.Schema{
		Type:             genai.TypeObject,
		Properties:       props,
		Required:         required,
		PropertyOrdering: required,
	}
}

type draftedPost struct {
	Content  *string   `json:"content"`
	Hashtags *[]string `json:"hashtags"`
	Prompt   *string   `json:"prompt"`
}

// parseCampaign maps the model's JSON onto posts by walking the fixed
// platform table. Any missing key or field rejects the whole response.
func parseCampaign(text string) ([]SocialPost, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &ParseError{Err: ErrEmptyResponse}
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, &ParseError{Err: err}
	}

	posts := make([]SocialPost, 0, len(platformSpecs))
	for _, spec := range platformSpecs {
		msg, ok := raw[spec.key]
		if !ok || string(msg) == "null" {
			return nil, &ParseError{Field: spec.key, Err: errors.New("missing")}
		}
		var d draftedPost
		if err := json.Unmarshal(msg, &d); err != nil {
			return nil, &ParseError{Field: spec.key, Err: err}
		}
		switch {
		case d.Content == nil:
			return nil, &ParseError{Field: spec.key + ".content", Err: errors.New("missing")}
		case d.Hashtags == nil:
			return nil, &ParseError{Field: spec.key + ".hashtags", Err: errors.New("missing")}
		case d.Prompt == nil:
			return nil, &ParseError{Field: spec.key + ".prompt", Err: errors.New("missing")}
		}
		content := strings.TrimSpace(*d.Content)
		if content == "" {
			return nil, &ParseError{Field: spec.key + ".content", Err: errors.New("empty")}
		}
		tags := normalizeHashtags(*d.Hashtags)
		if len(tags) == 0 {
			return nil, &ParseError{Field: spec.key + ".hashtags", Err: errors.New("empty")}
		}
		posts = append(posts, SocialPost{
			Platform:    spec.platform,
			Content:     content,
			Hashtags:    tags,
			Prompt:      strings.TrimSpace(*d.Prompt),
			AspectRatio: spec.ratio,
		})
	}
	return posts, nil
}

// normalizeHashtags strips the leading '#' and surrounding space and drops
// empty tags, keeping the model's order.
func normalizeHashtags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(t), "#"))
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}
