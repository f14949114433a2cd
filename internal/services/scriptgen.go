package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/ydssx/ai-video-maker/internal/models"
)

// ---------------------------------------------------------------------------
// Script Generation Service
// Turns a topic into a renderable Script using OpenAI structured output
// (JSON mode). Without an API key the service degrades to a deterministic
// template script so the rest of the pipeline stays usable offline.
// ---------------------------------------------------------------------------

const scriptGenModel = "gpt-4o-mini"

// scriptDurations maps the request duration label to a target in seconds and
// a scene count hint for the prompt.
var scriptDurations = map[string]struct {
	Seconds int
	Scenes  int
}{
	"15s": {15, 3},
	"30s": {30, 5},
	"60s": {60, 8},
}

type ScriptGenService struct {
	client *openai.Client
}

// NewScriptGenService creates a script generator. apiKey may be empty; the
// generator then serves template scripts only.
func NewScriptGenService(apiKey string) *ScriptGenService {
	svc := &ScriptGenService{}
	if apiKey != "" {
		svc.client = openai.NewClient(apiKey)
	}
	return svc
}

// GenerateScript produces a script for the topic. The result always passes
// models.Script.Validate.
func (s *ScriptGenService) GenerateScript(ctx context.Context, req models.GenerateScriptRequest) (*models.Script, error) {
	style := req.Style
	if style == "" {
		style = models.StyleEducational
	}
	target, ok := scriptDurations[req.Duration]
	if !ok {
		target = scriptDurations["30s"]
	}

	if s.client == nil {
		log.Printf("[ScriptGen] No API key configured, serving template script for %q", req.Topic)
		return fallbackScript(req.Topic, style, target.Seconds), nil
	}

	script, err := s.generateWithOpenAI(ctx, req.Topic, style, req.Language, target.Seconds, target.Scenes)
	if err != nil {
		log.Printf("[ScriptGen] OpenAI generation failed, falling back to template: %v", err)
		return fallbackScript(req.Topic, style, target.Seconds), nil
	}
	return script, nil
}

func (s *ScriptGenService) generateWithOpenAI(ctx context.Context, topic string, style models.ScriptStyle, language string, seconds, sceneCount int) (*models.Script, error) {
	if language == "" {
		language = "en"
	}

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: scriptGenModel,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: buildScriptSystemPrompt(style, language, seconds, sceneCount),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: fmt.Sprintf("Write a video script about: %q. Total narration time: %d seconds.", topic, seconds),
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.8,
	})
	if err != nil {
		return nil, fmt.Errorf("openai request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from openai")
	}

	rawContent := resp.Choices[0].Message.Content

	var script models.Script
	if err := json.Unmarshal([]byte(rawContent), &script); err != nil {
		log.Printf("[ScriptGen] parse failed: %v", err)
		return nil, fmt.Errorf("failed to parse script: %w", err)
	}

	script.Style = style
	if script.TotalDuration == 0 {
		script.TotalDuration = script.SceneDurationSum()
	}
	if err := script.Validate(); err != nil {
		log.Printf("[ScriptGen] generated script invalid: %v (raw: %s)", err, truncateForLog(rawContent, 500))
		return nil, fmt.Errorf("generated script invalid: %w", err)
	}

	log.Printf("[ScriptGen] Script generated: %q (%d scenes, %.1fs)", script.Title, len(script.Scenes), script.SceneDurationSum())
	return &script, nil
}

func buildScriptSystemPrompt(style models.ScriptStyle, language string, seconds, sceneCount int) string {
	toneLines := map[models.ScriptStyle]string{
		models.StyleEducational:   "Explain clearly and build understanding step by step. Curious, warm, never condescending.",
		models.StyleEntertainment: "Playful and energetic. Hook fast, keep momentum, land a punchline or payoff at the end.",
		models.StyleCommercial:    "Persuasive and benefit-led. Open on the problem, present the product as the answer, close with a call to action.",
		models.StyleNews:          "Factual and brisk. Lead with the headline, then the essential context. No editorializing.",
	}

	return fmt.Sprintf(`You are a short-form video scriptwriter.

TONE: %s

LANGUAGE: write all scene text in "%s".

Produce roughly %d scenes totaling about %d seconds of narration. Each scene is
one spoken thought of 2-6 seconds. Scene text is read aloud by text-to-speech
and also shown on screen, so keep sentences short and free of jargon.

For each scene also pick:
- image_keywords: 1-3 concrete nouns describing a background image for the scene
- transition: one of fade, slide_left, slide_right, slide_up, slide_down, zoom_in, zoom_out, dissolve

Respond with JSON only, matching this shape exactly:
{
  "title": "...",
  "scenes": [
    {"text": "...", "duration": 4.0, "image_keywords": ["..."], "transition": "fade"}
  ],
  "total_duration": %d
}

Every scene must have non-empty text and duration > 0.`, toneLines[style], language, sceneCount, seconds, seconds)
}

// fallbackScript is the deterministic offline script. Three scenes that scale
// to the requested duration, keyed off the topic so output is stable.
func fallbackScript(topic string, style models.ScriptStyle, seconds int) *models.Script {
	if topic == "" {
		topic = "an interesting idea"
	}
	per := float64(seconds) / 3.0

	return &models.Script{
		Title: fmt.Sprintf("About %s", strings.TrimSpace(topic)),
		Scenes: []models.Scene{
			{
				Text:          fmt.Sprintf("Let's talk about %s.", topic),
				Duration:      per,
				ImageKeywords: []string{topic},
				Transition:    models.TransitionFade,
			},
			{
				Text:          fmt.Sprintf("Here is what makes %s worth your attention.", topic),
				Duration:      per,
				ImageKeywords: []string{topic, "detail"},
				Transition:    models.TransitionSlideLeft,
			},
			{
				Text:          "Thanks for watching.",
				Duration:      per,
				ImageKeywords: []string{"sunset"},
				Transition:    models.TransitionFade,
			},
		},
		TotalDuration: float64(seconds),
		Style:         style,
	}
}

func truncateForLog(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
