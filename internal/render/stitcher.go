package render

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/ydssx/ai-video-maker/internal/media"
	"github.com/ydssx/ai-video-maker/internal/models"
)

// ---------------------------------------------------------------------------
// TransitionStitcher — applies scene-boundary transitions and joins clips.
//
// Every transition kind renders as crossed fades baked inside the clips that
// meet at the boundary: the outgoing clip fades out over its last half-window
// and the incoming clip fades in over its first half-window. Fades never
// extend a clip, so the stitched timeline is exactly the sum of the scene
// durations. Slide/zoom/dissolve kinds degrade to the same fade treatment;
// the kind is accepted and normalized rather than rejected.
// ---------------------------------------------------------------------------

// transitionDuration is the full boundary window in seconds, split evenly
// between the two adjacent clips.
const transitionDuration = 0.5

// transitionStrategy returns the boundary window for one scene transition.
// Strategies are looked up by kind; today every kind shares the fade window,
// but the registry is where a slide or zoom rendering would hook in.
type transitionStrategy func() float64

func fadeWindow() float64 { return transitionDuration }

var transitionStrategies = map[models.TransitionKind]transitionStrategy{
	models.TransitionFade:       fadeWindow,
	models.TransitionSlideLeft:  fadeWindow,
	models.TransitionSlideRight: fadeWindow,
	models.TransitionSlideUp:    fadeWindow,
	models.TransitionSlideDown:  fadeWindow,
	models.TransitionZoomIn:     fadeWindow,
	models.TransitionZoomOut:    fadeWindow,
	models.TransitionDissolve:   fadeWindow,
}

type TransitionStitcher struct {
	engine media.Engine
}

func NewTransitionStitcher(engine media.Engine) *TransitionStitcher {
	return &TransitionStitcher{engine: engine}
}

// fadeSpecs computes the per-clip fade windows from the scene transitions.
// Scene i's transition governs the boundary between clip i-1 and clip i; the
// first scene's transition has no preceding clip and is ignored.
func fadeSpecs(scenes []models.Scene, clips []media.Clip) []media.FadeSpec {
	specs := make([]media.FadeSpec, len(clips))

	for i := 1; i < len(clips); i++ {
		strategy := transitionStrategies[scenes[i].Transition.Normalize()]
		half := strategy() / 2

		out := half
		if m := clips[i-1].Duration / 2; out > m {
			out = m
		}
		in := half
		if m := clips[i].Duration / 2; in > m {
			in = m
		}

		specs[i-1].Out = out
		specs[i].In = in
	}
	return specs
}

// Stitch applies boundary fades to each clip then concatenates them into a
// single silent timeline in workDir.
func (s *TransitionStitcher) Stitch(ctx context.Context, scenes []models.Scene, clips []media.Clip, workDir string) (media.Clip, error) {
	if len(clips) == 0 {
		return media.Clip{}, fmt.Errorf("no clips to stitch")
	}
	if len(scenes) != len(clips) {
		return media.Clip{}, fmt.Errorf("scene/clip count mismatch: %d vs %d", len(scenes), len(clips))
	}

	specs := fadeSpecs(scenes, clips)

	faded := make([]media.Clip, len(clips))
	for i, clip := range clips {
		if specs[i].In == 0 && specs[i].Out == 0 {
			faded[i] = clip
			continue
		}
		outPath := filepath.Join(workDir, fmt.Sprintf("faded_%03d.mp4", i))
		fc, err := s.engine.ApplyFades(ctx, clip, specs[i], outPath)
		if err != nil {
			return media.Clip{}, fmt.Errorf("fade clip %d: %w", i, err)
		}
		faded[i] = fc
	}

	timeline, err := s.engine.Concatenate(ctx, faded, filepath.Join(workDir, "timeline.mp4"))
	if err != nil {
		return media.Clip{}, fmt.Errorf("concatenate timeline: %w", err)
	}
	return timeline, nil
}
