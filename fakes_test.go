package socialmuse

import (
	"context"
	"errors"
	"sync"

	"google.golang.org/genai"
)

// fakeModel answers GenerateContent from a function and records the calls.
type fakeModel struct {
	mu      sync.Mutex
	calls   []fakeCall
	respond func(ctx context.Context, model string, prompt string, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type fakeCall struct {
	Model  string
	Prompt string
	Config *genai.GenerateContentConfig
}

func (f *fakeModel) GenerateContent(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	prompt := ""
	if len(contents) > 0 && len(contents[0].Parts) > 0 {
		prompt = contents[0].Parts[0].Text
	}
	f.mu.Lock()
	f.calls = append(f.calls, fakeCall{Model: model, Prompt: prompt, Config: cfg})
	f.mu.Unlock()
	return f.respond(ctx, model, prompt, cfg)
}

func (f *fakeModel) Calls() []fakeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]fakeCall(nil), f.calls...)
}

// fakeSource hands out the same fakeModel for every non-empty key.
type fakeSource struct {
	model *fakeModel
	keys  []string
	mu    sync.Mutex
}

func (s *fakeSource) Models(_ context.Context, apiKey string) (ContentModel, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	s.mu.Lock()
	s.keys = append(s.keys, apiKey)
	s.mu.Unlock()
	return s.model, nil
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Role: genai.RoleModel, Parts: []*genai.Part{{Text: text}}},
		}},
	}
}

func imageResponse(data []byte, mimeType string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Role: genai.RoleModel, Parts: []*genai.Part{
				{Text: "Here is your image."},
				{InlineData: &genai.Blob{Data: data, MIMEType: mimeType}},
			}},
		}},
	}
}

const validCampaignJSON = `{
  "linkedIn": {"content": "Meet the bottle that keeps water cold for 24 hours.", "hashtags": ["#Sustainability", "Innovation"], "prompt": "A steel bottle on a desk"},
  "twitter": {"content": "Plastic? Never heard of her.", "hashtags": ["EcoLife", " #Hydrate "], "prompt": "A bottle on a mountain"},
  "instagram": {"content": "Sip sustainably.", "hashtags": ["eco", "", "bottle"], "prompt": "A bottle at the beach"}
}`

var errModelDown = errors.New("model unavailable")
