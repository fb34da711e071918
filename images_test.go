package socialmuse

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"

	"google.golang.org/genai"
)

func testImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return buf.Bytes()
}

func encodeJPEG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("jpeg.Encode: %v", err)
	}
	return buf.Bytes()
}

func newTestImageGenerator(maxWidth int, respond func(context.Context, string, string, *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)) (*ImageGenerator, *fakeModel) {
	model := &fakeModel{respond: respond}
	return NewImageGenerator(&fakeSource{model: model}, "image-model", maxWidth), model
}

func TestRenderPNGPassesThrough(t *testing.T) {
	raw := encodePNG(t, testImage(8, 6))
	g, model := newTestImageGenerator(0, func(context.Context, string, string, *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
		return imageResponse(raw, "image/png"), nil
	})

	uri, err := g.Render(context.Background(), "key", "a bottle", Ratio16x9, Size2K)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.HasPrefix(uri, "data:image/png;base64,") {
		t.Fatal("uri is not a PNG data URI")
	}
	data, err := DecodeDataURI(uri)
	if err != nil {
		t.Fatalf("DecodeDataURI: %v", err)
	}
	if !bytes.Equal(data, raw) {
		t.Error("PNG payload was re-encoded")
	}

	call := model.Calls()[0]
	if call.Model != "image-model" || call.Prompt != "a bottle" {
		t.Errorf("call = %+v", call)
	}
	if call.Config.ImageConfig.AspectRatio != "16:9" || call.Config.ImageConfig.ImageSize != "2K" {
		t.Errorf("ImageConfig = %+v", call.Config.ImageConfig)
	}
}

func TestRenderConvertsJPEG(t *testing.T) {
	raw := encodeJPEG(t, testImage(16, 16))
	g, _ := newTestImageGenerator(0, func(context.Context, string, string, *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
		return imageResponse(raw, "image/jpeg"), nil
	})
	uri, err := g.Render(context.Background(), "key", "p", Ratio1x1, Size1K)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	data, _ := DecodeDataURI(uri)
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil || format != "png" {
		t.Fatalf("decoded format %q, err %v; want png", format, err)
	}
	if img.Bounds().Dx() != 16 {
		t.Errorf("width = %d, want 16", img.Bounds().Dx())
	}
}

func TestRenderScalesDown(t *testing.T) {
	raw := encodePNG(t, testImage(40, 20))
	g, _ := newTestImageGenerator(10, func(context.Context, string, string, *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
		return imageResponse(raw, "image/png"), nil
	})
	uri, err := g.Render(context.Background(), "key", "p", Ratio4x3, Size1K)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	data, _ := DecodeDataURI(uri)
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("DecodeConfig: %v", err)
	}
	if cfg.Width != 10 || cfg.Height != 5 {
		t.Errorf("scaled size = %dx%d, want 10x5", cfg.Width, cfg.Height)
	}
}

func TestRenderWithoutImageData(t *testing.T) {
	g, _ := newTestImageGenerator(0, func(context.Context, string, string, *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
		return textResponse("I cannot draw that."), nil
	})
	if _, err := g.Render(context.Background(), "key", "p", Ratio1x1, Size1K); !errors.Is(err, ErrNoImageData) {
		t.Fatalf("error = %v, want ErrNoImageData", err)
	}
}

func TestFirstInlineImageScansCandidates(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			nil,
			{Content: nil},
			{Content: &genai.Content{Parts: []*genai.Part{{Text: "no image"}, {InlineData: &genai.Blob{}}}}},
			{Content: &genai.Content{Parts: []*genai.Part{{InlineData: &genai.Blob{Data: []byte{1}, MIMEType: "image/png"}}}}},
		},
	}
	blob := firstInlineImage(resp)
	if blob == nil || !bytes.Equal(blob.Data, []byte{1}) {
		t.Fatalf("firstInlineImage = %+v", blob)
	}
	if firstInlineImage(nil) != nil {
		t.Error("firstInlineImage(nil) != nil")
	}
}

func TestIsCredentialError(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{errors.New("Error 404, Message: Requested entity was not found., Status: NOT_FOUND"), true},
		{errors.New("image model x: requested entity was not found"), true},
		{errors.New("quota exceeded"), false},
		{nil, false},
	}
	for _, tt := range tests {
		if got := IsCredentialError(tt.err); got != tt.want {
			t.Errorf("IsCredentialError(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestDecodeDataURIRejectsOtherSchemes(t *testing.T) {
	if _, err := DecodeDataURI("data:image/jpeg;base64,AAAA"); err == nil {
		t.Error("expected error for a non-PNG data URI")
	}
}
