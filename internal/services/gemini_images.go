package services

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"google.golang.org/genai"
)

// ---------------------------------------------------------------------------
// Gemini Image Generation Service
// Uses the Google Gen AI SDK (Imagen) to generate scene backgrounds from the
// scene keywords. Selected with IMAGE_PROVIDER=gemini; the same API key works
// for the whole Gemini family.
// ---------------------------------------------------------------------------

const defaultImagenModel = "imagen-4.0-generate-001"

type GeminiImageProvider struct {
	apiKey string
	model  string
}

var _ ImageProvider = (*GeminiImageProvider)(nil)

// NewGeminiImageProvider creates an Imagen-backed provider.
// model: empty string defaults to imagen-4.0-generate-001.
func NewGeminiImageProvider(apiKey, model string) *GeminiImageProvider {
	if model == "" {
		model = defaultImagenModel
	}
	return &GeminiImageProvider{
		apiKey: apiKey,
		model:  model,
	}
}

func (p *GeminiImageProvider) FetchImage(ctx context.Context, keywords []string, width, height int, destPath string) error {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  p.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return fmt.Errorf("failed to create genai client: %w", err)
	}

	prompt := buildImagePrompt(keywords)

	config := &genai.GenerateImagesConfig{
		NumberOfImages: 1,
		AspectRatio:    aspectRatioFor(width, height),
	}

	log.Printf("[Gemini] Generating image (model=%s, prompt=%q)", p.model, prompt)

	resp, err := client.Models.GenerateImages(ctx, p.model, prompt, config)
	if err != nil {
		return fmt.Errorf("image generation failed: %w", err)
	}

	if len(resp.GeneratedImages) == 0 || resp.GeneratedImages[0].Image == nil {
		return fmt.Errorf("no images in response")
	}

	data := resp.GeneratedImages[0].Image.ImageBytes
	if len(data) == 0 {
		return fmt.Errorf("generated image is empty")
	}

	if err := os.WriteFile(destPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write generated image: %w", err)
	}

	log.Printf("[Gemini] Image generated (%d bytes)", len(data))
	return nil
}

// buildImagePrompt turns scene keywords into a background-style prompt. The
// image sits behind burned-in text, so busy foreground subjects are steered
// away from.
func buildImagePrompt(keywords []string) string {
	subject := "abstract shapes"
	if len(keywords) > 0 {
		subject = strings.Join(keywords, ", ")
	}
	return fmt.Sprintf("A cinematic background image of %s. Soft focus, muted tones, no text, no watermarks. Composed to leave visual breathing room in the center for overlaid captions.", subject)
}

// aspectRatioFor picks the closest supported Imagen aspect ratio.
func aspectRatioFor(width, height int) string {
	if height <= 0 {
		return "16:9"
	}
	ratio := float64(width) / float64(height)
	switch {
	case ratio > 1.5:
		return "16:9"
	case ratio > 1.1:
		return "4:3"
	case ratio > 0.9:
		return "1:1"
	case ratio > 0.65:
		return "3:4"
	default:
		return "9:16"
	}
}
