package render

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/ydssx/ai-video-maker/internal/media"
	"github.com/ydssx/ai-video-maker/internal/models"
	"github.com/ydssx/ai-video-maker/internal/services"
)

// ---------------------------------------------------------------------------
// Narrator — synthesizes the whole script's narration in one TTS request and
// muxes it under the stitched timeline. TTS failure is absorbed: the job
// continues and ships a silent video.
// ---------------------------------------------------------------------------

type Narrator struct {
	engine media.Engine
	tts    services.TTSService
}

func NewNarrator(engine media.Engine, tts services.TTSService) *Narrator {
	return &Narrator{engine: engine, tts: tts}
}

// AddNarration returns the timeline with audio attached, or the original
// timeline unchanged when voice is disabled or synthesis fails.
func (n *Narrator) AddNarration(ctx context.Context, script *models.Script, cfg models.VoiceConfig, timeline media.Clip, workDir string) media.Clip {
	if !cfg.Enabled || n.tts == nil {
		return timeline
	}

	text := script.NarrationText()
	if text == "" {
		return timeline
	}

	resp, err := n.tts.Synthesize(ctx, text, cfg)
	if err != nil {
		log.Printf("[Render] Narration unavailable, continuing silent: %v", err)
		return timeline
	}

	audioPath := filepath.Join(workDir, fmt.Sprintf("narration.%s", resp.Format))
	if err := os.WriteFile(audioPath, resp.AudioData, 0o644); err != nil {
		log.Printf("[Render] Failed to write narration audio, continuing silent: %v", err)
		return timeline
	}

	muxed, err := n.engine.Mux(ctx, timeline, audioPath, filepath.Join(workDir, "timeline_audio.mp4"))
	if err != nil {
		log.Printf("[Render] Failed to mux narration, continuing silent: %v", err)
		return timeline
	}
	return muxed
}
