package socialmuse

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"strings"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
	"google.golang.org/genai"
)

const pngDataURIPrefix = "data:image/png;base64,"

// ImageGenerator renders one post visual per request.
type ImageGenerator struct {
	models   ModelSource
	model    string
	maxWidth int // 0 keeps the model's resolution
}

// NewImageGenerator returns an ImageGenerator calling model through models.
// Images wider than maxWidth are scaled down; 0 disables scaling.
func NewImageGenerator(models ModelSource, model string, maxWidth int) *ImageGenerator {
	return &ImageGenerator{models: models, model: model, maxWidth: maxWidth}
}

// Render asks the image model for one picture and returns it as a PNG data URI.
func (g *ImageGenerator) Render(ctx context.Context, apiKey, prompt string, ratio AspectRatio, size ImageSize) (string, error) {
	models, err := g.models.Models(ctx, apiKey)
	if err != nil {
		return "", err
	}
	resp, err := models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		ImageConfig: &genai.ImageConfig{
			AspectRatio: string(ratio),
			ImageSize:   string(size),
		},
	})
	if err != nil {
		return "", fmt.Errorf("image model %s: %w", g.model, err)
	}
	blob := firstInlineImage(resp)
	if blob == nil {
		return "", ErrNoImageData
	}
	data, err := toPNG(blob.Data, blob.MIMEType, g.maxWidth)
	if err != nil {
		return "", err
	}
	return pngDataURIPrefix + base64.StdEncoding.EncodeToString(data), nil
}

// firstInlineImage returns the first part carrying inline bytes, scanning
// candidates in order.
func firstInlineImage(resp *genai.GenerateContentResponse) *genai.Blob {
	if resp == nil {
		return nil
	}
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part != nil && part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return part.InlineData
			}
		}
	}
	return nil
}

// toPNG returns data as PNG bytes. PNG input within maxWidth passes through
// untouched; anything else is decoded, scaled down if wider than maxWidth,
// and re-encoded.
func toPNG(data []byte, mimeType string, maxWidth int) ([]byte, error) {
	if mimeType == "image/png" && maxWidth <= 0 {
		return data, nil
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	if mimeType == "image/png" && img.Bounds().Dx() <= maxWidth {
		return data, nil
	}
	img = scaleToWidth(img, maxWidth)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// scaleToWidth shrinks img to maxWidth keeping its aspect ratio.
func scaleToWidth(img image.Image, maxWidth int) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if maxWidth <= 0 || w <= maxWidth {
		return img
	}
	newH := h * maxWidth / w
	if newH < 1 {
		newH = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, maxWidth, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}

// DecodeDataURI returns the PNG bytes of a data URI produced by Render.
func DecodeDataURI(uri string) ([]byte, error) {
	if !strings.HasPrefix(uri, pngDataURIPrefix) {
		return nil, fmt.Errorf("not a PNG data URI")
	}
	return base64.StdEncoding.DecodeString(uri[len(pngDataURIPrefix):])
}
