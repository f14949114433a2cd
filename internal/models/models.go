package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Enums

// JobStatus tracks a render job through its lifecycle. Completed, failed and
// cancelled are terminal — once set, the job record never changes again.
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusCancelled  JobStatus = "cancelled"
)

// Terminal reports whether the status is absorbing.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed || s == JobStatusCancelled
}

// Cancellable reports whether a cancel request can still be acknowledged.
func (s JobStatus) Cancellable() bool {
	return s == JobStatusPending || s == JobStatusProcessing
}

type ScriptStyle string

const (
	StyleEducational   ScriptStyle = "educational"
	StyleEntertainment ScriptStyle = "entertainment"
	StyleCommercial    ScriptStyle = "commercial"
	StyleNews          ScriptStyle = "news"
)

// TransitionKind names the visual effect across a scene boundary.
type TransitionKind string

const (
	TransitionFade       TransitionKind = "fade"
	TransitionSlideLeft  TransitionKind = "slide_left"
	TransitionSlideRight TransitionKind = "slide_right"
	TransitionSlideUp    TransitionKind = "slide_up"
	TransitionSlideDown  TransitionKind = "slide_down"
	TransitionZoomIn     TransitionKind = "zoom_in"
	TransitionZoomOut    TransitionKind = "zoom_out"
	TransitionDissolve   TransitionKind = "dissolve"
)

var knownTransitions = map[TransitionKind]bool{
	TransitionFade:       true,
	TransitionSlideLeft:  true,
	TransitionSlideRight: true,
	TransitionSlideUp:    true,
	TransitionSlideDown:  true,
	TransitionZoomIn:     true,
	TransitionZoomOut:    true,
	TransitionDissolve:   true,
}

// Normalize maps unknown or empty transition names to fade. Scripts arrive
// from an LLM collaborator, so unrecognized values are expected input, not
// an error.
func (t TransitionKind) Normalize() TransitionKind {
	if knownTransitions[t] {
		return t
	}
	return TransitionFade
}

// ResolutionSizes maps the enumerated presets to pixel dimensions.
var ResolutionSizes = map[string][2]int{
	"360p":  {640, 360},
	"480p":  {854, 480},
	"720p":  {1280, 720},
	"1080p": {1920, 1080},
	"1440p": {2560, 1440},
	"4k":    {3840, 2160},
}

// ContainerFormats is the set of supported output containers.
var ContainerFormats = map[string]bool{
	"mp4":  true,
	"webm": true,
	"avi":  true,
	"mov":  true,
}

const (
	MinFPS = 15
	MaxFPS = 60
)

// Models

// Scene is one timed unit of a Script.
type Scene struct {
	Text          string         `json:"text"`
	Duration      float64        `json:"duration"`
	ImageKeywords []string       `json:"image_keywords,omitempty"`
	Transition    TransitionKind `json:"transition,omitempty"`
}

// Script is an ordered sequence of scenes. TotalDuration is the producer's
// advisory estimate; the rendered timeline is governed by scene durations.
type Script struct {
	Title         string      `json:"title"`
	Scenes        []Scene     `json:"scenes"`
	TotalDuration float64     `json:"total_duration,omitempty"`
	Style         ScriptStyle `json:"style,omitempty"`
}

// SceneDurationSum returns the authoritative timeline length in seconds.
func (s *Script) SceneDurationSum() float64 {
	var total float64
	for _, scene := range s.Scenes {
		total += scene.Duration
	}
	return total
}

// NarrationText joins every scene's text into the single string sent to the
// TTS collaborator. Whole-script synthesis, one request per job.
func (s *Script) NarrationText() string {
	parts := make([]string, 0, len(s.Scenes))
	for _, scene := range s.Scenes {
		if t := strings.TrimSpace(scene.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

// VoiceConfig selects the TTS collaborator settings for a render.
type VoiceConfig struct {
	Enabled  bool    `json:"enabled"`
	Provider string  `json:"provider,omitempty"` // "gtts" or "openai"
	Voice    string  `json:"voice,omitempty"`
	Speed    float64 `json:"speed,omitempty"`
}

// RenderConfig carries the output settings validated before job creation.
type RenderConfig struct {
	TemplateID  string      `json:"template_id,omitempty"`
	Resolution  string      `json:"resolution,omitempty"`
	FPS         int         `json:"fps,omitempty"`
	Format      string      `json:"format,omitempty"`
	VoiceConfig VoiceConfig `json:"voice_config"`
}

// ApplyDefaults fills zero-valued fields with the same defaults the API
// applied at submission time.
func (c *RenderConfig) ApplyDefaults() {
	if c.TemplateID == "" {
		c.TemplateID = "default"
	}
	if c.Resolution == "" {
		c.Resolution = "720p"
	}
	if c.FPS == 0 {
		c.FPS = 30
	}
	if c.Format == "" {
		c.Format = "mp4"
	}
	if c.VoiceConfig.Speed == 0 {
		c.VoiceConfig.Speed = 1.0
	}
	if c.VoiceConfig.Provider == "" {
		c.VoiceConfig.Provider = "gtts"
	}
}

// ValidationError rejects a malformed script or config before a Job exists.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Validate checks structural constraints on the script. Transition kinds are
// not validated here — unknown kinds degrade to fade during stitching.
func (s *Script) Validate() error {
	if len(s.Scenes) == 0 {
		return &ValidationError{Field: "script.scenes", Reason: "at least one scene is required"}
	}
	for i, scene := range s.Scenes {
		if scene.Duration <= 0 {
			return &ValidationError{
				Field:  fmt.Sprintf("script.scenes[%d].duration", i),
				Reason: "must be greater than zero",
			}
		}
	}
	return nil
}

// Validate checks the enumerated output settings. Call ApplyDefaults first.
func (c *RenderConfig) Validate() error {
	if _, ok := ResolutionSizes[c.Resolution]; !ok {
		return &ValidationError{Field: "resolution", Reason: fmt.Sprintf("unknown preset %q", c.Resolution)}
	}
	if c.FPS < MinFPS || c.FPS > MaxFPS {
		return &ValidationError{Field: "fps", Reason: fmt.Sprintf("must be between %d and %d", MinFPS, MaxFPS)}
	}
	if !ContainerFormats[c.Format] {
		return &ValidationError{Field: "format", Reason: fmt.Sprintf("unknown container %q", c.Format)}
	}
	if c.VoiceConfig.Enabled && c.VoiceConfig.Speed <= 0 {
		return &ValidationError{Field: "voice_config.speed", Reason: "must be greater than zero"}
	}
	return nil
}

// Job is one render execution instance of a Script + RenderConfig pair.
// Fields are mutated exclusively by the job controller; callers only ever
// see snapshot copies.
type Job struct {
	ID            uuid.UUID `json:"id"`
	Status        JobStatus `json:"status"`
	Progress      int       `json:"progress"` // 0-100, or -1 after a failure
	Message       string    `json:"message,omitempty"`
	OutputPath    string    `json:"output_path,omitempty"`
	ThumbnailPath string    `json:"thumbnail_path,omitempty"`
	Duration      float64   `json:"duration,omitempty"` // actual, measured after export
	Error         string    `json:"error,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// ProgressEvent is the ephemeral payload pushed to progress subscribers.
// It is not persisted anywhere.
type ProgressEvent struct {
	JobID     uuid.UUID `json:"job_id"`
	Progress  int       `json:"progress"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// DTOs for API responses

type CreateVideoRequest struct {
	Script      Script       `json:"script"`
	TemplateID  string       `json:"template_id,omitempty"`
	Resolution  string       `json:"resolution,omitempty"`
	FPS         int          `json:"fps,omitempty"`
	Format      string       `json:"format,omitempty"`
	VoiceConfig *VoiceConfig `json:"voice_config,omitempty"`
}

// RenderConfig assembles the request's output settings with defaults applied.
func (r *CreateVideoRequest) RenderConfig() RenderConfig {
	cfg := RenderConfig{
		TemplateID: r.TemplateID,
		Resolution: r.Resolution,
		FPS:        r.FPS,
		Format:     r.Format,
	}
	if r.VoiceConfig != nil {
		cfg.VoiceConfig = *r.VoiceConfig
	}
	cfg.ApplyDefaults()
	return cfg
}

type CreateVideoResponse struct {
	VideoID uuid.UUID `json:"video_id"`
	Status  JobStatus `json:"status"`
}

type VideoStatusResponse struct {
	VideoID       uuid.UUID `json:"video_id"`
	Status        JobStatus `json:"status"`
	Progress      int       `json:"progress"`
	Message       string    `json:"message,omitempty"`
	OutputPath    string    `json:"output_path,omitempty"`
	ThumbnailPath string    `json:"thumbnail_path,omitempty"`
	Duration      float64   `json:"duration,omitempty"`
	Error         string    `json:"error,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

type GenerateScriptRequest struct {
	Topic    string      `json:"topic"`
	Style    ScriptStyle `json:"style,omitempty"`
	Duration string      `json:"duration,omitempty"` // "15s", "30s" or "60s"
	Language string      `json:"language,omitempty"`
}
