package render

import (
	"context"
	"testing"

	"github.com/ydssx/ai-video-maker/internal/media"
	"github.com/ydssx/ai-video-maker/internal/models"
)

func TestFadeSpecs(t *testing.T) {
	scenes := []models.Scene{
		{Duration: 4},
		{Duration: 4, Transition: models.TransitionSlideLeft},
		{Duration: 4, Transition: models.TransitionFade},
	}
	clips := []media.Clip{
		{Path: "a", Duration: 4},
		{Path: "b", Duration: 4},
		{Path: "c", Duration: 4},
	}

	specs := fadeSpecs(scenes, clips)

	if specs[0].In != 0 {
		t.Errorf("first clip should have no fade-in, got %v", specs[0].In)
	}
	if specs[0].Out != 0.25 {
		t.Errorf("first clip fade-out: expected 0.25, got %v", specs[0].Out)
	}
	if specs[1].In != 0.25 || specs[1].Out != 0.25 {
		t.Errorf("middle clip: expected 0.25/0.25, got %v/%v", specs[1].In, specs[1].Out)
	}
	if specs[2].In != 0.25 {
		t.Errorf("last clip fade-in: expected 0.25, got %v", specs[2].In)
	}
	if specs[2].Out != 0 {
		t.Errorf("last clip should have no fade-out, got %v", specs[2].Out)
	}
}

func TestFadeSpecsShortClips(t *testing.T) {
	scenes := []models.Scene{
		{Duration: 0.2},
		{Duration: 0.3, Transition: models.TransitionZoomIn},
	}
	clips := []media.Clip{
		{Path: "a", Duration: 0.2},
		{Path: "b", Duration: 0.3},
	}

	specs := fadeSpecs(scenes, clips)

	// Fades are capped at half the clip so they never cover the whole clip.
	if specs[0].Out > 0.1 {
		t.Errorf("fade-out should be capped at half the clip, got %v", specs[0].Out)
	}
	if specs[1].In > 0.15 {
		t.Errorf("fade-in should be capped at half the clip, got %v", specs[1].In)
	}
}

func TestStitchPreservesTotalDuration(t *testing.T) {
	engine := &fakeEngine{}
	stitcher := NewTransitionStitcher(engine)

	scenes := []models.Scene{
		{Duration: 3},
		{Duration: 5, Transition: models.TransitionDissolve},
		{Duration: 2, Transition: models.TransitionSlideUp},
	}
	clips := []media.Clip{
		{Path: "a", Duration: 3},
		{Path: "b", Duration: 5},
		{Path: "c", Duration: 2},
	}

	timeline, err := stitcher.Stitch(context.Background(), scenes, clips, t.TempDir())
	if err != nil {
		t.Fatalf("stitch failed: %v", err)
	}
	if timeline.Duration != 10 {
		t.Errorf("transitions must not change total duration: expected 10, got %v", timeline.Duration)
	}
}

func TestStitchRejectsMismatch(t *testing.T) {
	stitcher := NewTransitionStitcher(&fakeEngine{})

	_, err := stitcher.Stitch(context.Background(), []models.Scene{{Duration: 1}}, nil, t.TempDir())
	if err == nil {
		t.Error("expected error for empty clip list")
	}

	_, err = stitcher.Stitch(context.Background(),
		[]models.Scene{{Duration: 1}},
		[]media.Clip{{Duration: 1}, {Duration: 2}},
		t.TempDir())
	if err == nil {
		t.Error("expected error for scene/clip count mismatch")
	}
}
