package render

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ydssx/ai-video-maker/internal/media"
	"github.com/ydssx/ai-video-maker/internal/models"
	"github.com/ydssx/ai-video-maker/internal/services"
)

// ---------------------------------------------------------------------------
// Fakes
// ---------------------------------------------------------------------------

type fakeEngine struct {
	composeErr   error
	encodeErr    error
	thumbnailErr error
	muxCalls     int32

	// When set, Compose signals composeStarted then blocks on composeRelease;
	// Encode behaves the same with its own pair.
	composeStarted chan struct{}
	composeRelease chan struct{}
	encodeStarted  chan struct{}
	encodeRelease  chan struct{}
}

func (e *fakeEngine) Compose(ctx context.Context, bg media.Background, overlay media.TextOverlay, duration float64, width, height, fps int, outPath string) (media.Clip, error) {
	if e.composeStarted != nil {
		select {
		case e.composeStarted <- struct{}{}:
		default:
		}
		<-e.composeRelease
	}
	if e.composeErr != nil {
		return media.Clip{}, e.composeErr
	}
	return media.Clip{Path: outPath, Duration: duration}, nil
}

func (e *fakeEngine) ApplyFades(ctx context.Context, clip media.Clip, fades media.FadeSpec, outPath string) (media.Clip, error) {
	return media.Clip{Path: outPath, Duration: clip.Duration}, nil
}

func (e *fakeEngine) Concatenate(ctx context.Context, clips []media.Clip, outPath string) (media.Clip, error) {
	var total float64
	for _, c := range clips {
		total += c.Duration
	}
	return media.Clip{Path: outPath, Duration: total}, nil
}

func (e *fakeEngine) Mux(ctx context.Context, video media.Clip, audioPath string, outPath string) (media.Clip, error) {
	atomic.AddInt32(&e.muxCalls, 1)
	return media.Clip{Path: outPath, Duration: video.Duration}, nil
}

func (e *fakeEngine) Encode(ctx context.Context, clip media.Clip, spec media.EncodeSpec, outPath string) (string, error) {
	if e.encodeStarted != nil {
		select {
		case e.encodeStarted <- struct{}{}:
		default:
		}
		<-e.encodeRelease
	}
	if e.encodeErr != nil {
		return "", e.encodeErr
	}
	if err := os.WriteFile(outPath, []byte("video"), 0o644); err != nil {
		return "", err
	}
	return outPath, nil
}

func (e *fakeEngine) Thumbnail(ctx context.Context, clip media.Clip, outPath string) error {
	if e.thumbnailErr != nil {
		return e.thumbnailErr
	}
	return os.WriteFile(outPath, []byte("thumb"), 0o644)
}

func (e *fakeEngine) DurationOf(ctx context.Context, path string) (float64, error) {
	return 9, nil
}

type fakeImages struct {
	err   error
	calls int32
}

func (f *fakeImages) FetchImage(ctx context.Context, keywords []string, width, height int, destPath string) error {
	atomic.AddInt32(&f.calls, 1)
	if f.err != nil {
		return f.err
	}
	return os.WriteFile(destPath, []byte("img"), 0o644)
}

type fakeTTS struct {
	err error
}

func (f *fakeTTS) Synthesize(ctx context.Context, text string, cfg models.VoiceConfig) (*services.TTSResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &services.TTSResponse{AudioData: []byte("audio"), Format: "mp3"}, nil
}

type recordingSink struct {
	mu     sync.Mutex
	events []models.ProgressEvent
}

func (r *recordingSink) Publish(event models.ProgressEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingSink) snapshot() []models.ProgressEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.ProgressEvent, len(r.events))
	copy(out, r.events)
	return out
}

// ---------------------------------------------------------------------------
// Harness
// ---------------------------------------------------------------------------

type testPipeline struct {
	controller *JobController
	engine     *fakeEngine
	images     *fakeImages
	tts        *fakeTTS
	sink       *recordingSink
	tempDir    string
	outputDir  string
}

func newTestPipeline(t *testing.T) *testPipeline {
	t.Helper()

	p := &testPipeline{
		engine:    &fakeEngine{},
		images:    &fakeImages{},
		tts:       &fakeTTS{},
		sink:      &recordingSink{},
		tempDir:   t.TempDir(),
		outputDir: t.TempDir(),
	}

	p.controller = NewJobController(
		NewSceneComposer(p.engine, p.images, "/fonts/test.ttf"),
		NewTransitionStitcher(p.engine),
		NewNarrator(p.engine, p.tts),
		NewExporter(p.engine, p.outputDir),
		ControllerOptions{
			TempDir:  p.tempDir,
			Progress: p.sink,
		},
	)
	return p
}

func renderScript() models.Script {
	return models.Script{
		Title: "Render test",
		Scenes: []models.Scene{
			{Text: "Scene one.", Duration: 3, ImageKeywords: []string{"ocean"}},
			{Text: "Scene two.", Duration: 4, Transition: models.TransitionSlideLeft},
			{Text: "Scene three.", Duration: 2, Transition: models.TransitionDissolve},
		},
	}
}

func voicedConfig() models.RenderConfig {
	cfg := models.RenderConfig{
		VoiceConfig: models.VoiceConfig{Enabled: true, Provider: "gtts"},
	}
	cfg.ApplyDefaults()
	return cfg
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestRenderCompletes(t *testing.T) {
	p := newTestPipeline(t)

	job, err := p.controller.Submit(renderScript(), voicedConfig())
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if job.Status != models.JobStatusPending {
		t.Fatalf("expected pending, got %s", job.Status)
	}

	p.controller.Execute(context.Background(), job.ID)

	got, err := p.controller.GetStatus(job.ID)
	if err != nil {
		t.Fatalf("get status: %v", err)
	}
	if got.Status != models.JobStatusCompleted {
		t.Fatalf("expected completed, got %s (error: %s)", got.Status, got.Error)
	}
	if got.Progress != 100 {
		t.Errorf("expected progress 100, got %d", got.Progress)
	}

	wantOut := filepath.Join(p.outputDir, fmt.Sprintf("%s.mp4", job.ID))
	if got.OutputPath != wantOut {
		t.Errorf("expected output %s, got %s", wantOut, got.OutputPath)
	}
	wantThumb := filepath.Join(p.outputDir, fmt.Sprintf("%s_thumbnail.jpg", job.ID))
	if got.ThumbnailPath != wantThumb {
		t.Errorf("expected thumbnail %s, got %s", wantThumb, got.ThumbnailPath)
	}
	if got.Duration != 9 {
		t.Errorf("expected probed duration 9, got %v", got.Duration)
	}

	// Intermediates must be gone on completion.
	if _, err := os.Stat(filepath.Join(p.tempDir, job.ID.String())); !os.IsNotExist(err) {
		t.Errorf("work dir should be removed after completion")
	}
}

func TestRenderProgressMonotonic(t *testing.T) {
	p := newTestPipeline(t)

	job, err := p.controller.Submit(renderScript(), voicedConfig())
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	p.controller.Execute(context.Background(), job.ID)

	events := p.sink.snapshot()
	if len(events) == 0 {
		t.Fatal("expected progress events")
	}
	last := -1
	for i, ev := range events {
		if ev.JobID != job.ID {
			t.Errorf("event %d has wrong job id", i)
		}
		if ev.Progress < last {
			t.Errorf("progress decreased at event %d: %d -> %d", i, last, ev.Progress)
		}
		last = ev.Progress
	}
	if last != 100 {
		t.Errorf("expected final progress 100, got %d", last)
	}
}

func TestRenderSurvivesImageFailure(t *testing.T) {
	p := newTestPipeline(t)
	p.images.err = errors.New("image service down")

	job, err := p.controller.Submit(renderScript(), voicedConfig())
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	p.controller.Execute(context.Background(), job.ID)

	got, _ := p.controller.GetStatus(job.ID)
	if got.Status != models.JobStatusCompleted {
		t.Fatalf("image failure must not fail the job, got %s (error: %s)", got.Status, got.Error)
	}
}

func TestRenderSurvivesTTSFailure(t *testing.T) {
	p := newTestPipeline(t)
	p.tts.err = errors.New("tts unavailable")

	job, err := p.controller.Submit(renderScript(), voicedConfig())
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	p.controller.Execute(context.Background(), job.ID)

	got, _ := p.controller.GetStatus(job.ID)
	if got.Status != models.JobStatusCompleted {
		t.Fatalf("tts failure must not fail the job, got %s (error: %s)", got.Status, got.Error)
	}
	if atomic.LoadInt32(&p.engine.muxCalls) != 0 {
		t.Error("audio should not have been muxed after tts failure")
	}
}

func TestRenderFailureSetsSentinelProgress(t *testing.T) {
	p := newTestPipeline(t)
	p.engine.encodeErr = errors.New("encoder exploded")

	job, err := p.controller.Submit(renderScript(), voicedConfig())
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	p.controller.Execute(context.Background(), job.ID)

	got, _ := p.controller.GetStatus(job.ID)
	if got.Status != models.JobStatusFailed {
		t.Fatalf("expected failed, got %s", got.Status)
	}
	if got.Progress != -1 {
		t.Errorf("expected progress -1 after failure, got %d", got.Progress)
	}
	if got.Error == "" {
		t.Error("expected error message on failed job")
	}

	events := p.sink.snapshot()
	if len(events) == 0 || events[len(events)-1].Progress != -1 {
		t.Error("expected final progress event of -1")
	}

	// Intermediates must be gone on failure too.
	if _, err := os.Stat(filepath.Join(p.tempDir, job.ID.String())); !os.IsNotExist(err) {
		t.Errorf("work dir should be removed after failure")
	}
}

func TestCancelPendingJob(t *testing.T) {
	p := newTestPipeline(t)

	job, err := p.controller.Submit(renderScript(), voicedConfig())
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	acked, err := p.controller.Cancel(job.ID)
	if err != nil || !acked {
		t.Fatalf("expected cancel ack, got acked=%v err=%v", acked, err)
	}

	got, _ := p.controller.GetStatus(job.ID)
	if got.Status != models.JobStatusCancelled {
		t.Fatalf("expected cancelled, got %s", got.Status)
	}

	// A worker arriving late must not resurrect the job.
	p.controller.Execute(context.Background(), job.ID)
	got, _ = p.controller.GetStatus(job.ID)
	if got.Status != models.JobStatusCancelled {
		t.Errorf("late execute changed status to %s", got.Status)
	}

	// Cancelling a terminal job is a no-op.
	acked, err = p.controller.Cancel(job.ID)
	if err != nil {
		t.Fatalf("cancel on terminal job errored: %v", err)
	}
	if acked {
		t.Error("cancel on terminal job should not be acknowledged")
	}
}

func TestCancelRunningJob(t *testing.T) {
	p := newTestPipeline(t)
	p.engine.composeStarted = make(chan struct{}, 1)
	p.engine.composeRelease = make(chan struct{})

	job, err := p.controller.Submit(renderScript(), voicedConfig())
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	done := make(chan struct{})
	go func() {
		p.controller.Execute(context.Background(), job.ID)
		close(done)
	}()

	select {
	case <-p.engine.composeStarted:
	case <-time.After(5 * time.Second):
		t.Fatal("compose never started")
	}

	acked, err := p.controller.Cancel(job.ID)
	if err != nil || !acked {
		t.Fatalf("expected cancel ack, got acked=%v err=%v", acked, err)
	}
	close(p.engine.composeRelease)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("execute did not finish")
	}

	got, _ := p.controller.GetStatus(job.ID)
	if got.Status != models.JobStatusCancelled {
		t.Fatalf("expected cancelled, got %s", got.Status)
	}
	if _, err := os.Stat(filepath.Join(p.tempDir, job.ID.String())); !os.IsNotExist(err) {
		t.Errorf("work dir should be removed after cancellation")
	}
}

func TestCancelDuringExportDiscardsOutput(t *testing.T) {
	p := newTestPipeline(t)
	p.engine.encodeStarted = make(chan struct{}, 1)
	p.engine.encodeRelease = make(chan struct{})

	job, err := p.controller.Submit(renderScript(), voicedConfig())
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	done := make(chan struct{})
	go func() {
		p.controller.Execute(context.Background(), job.ID)
		close(done)
	}()

	select {
	case <-p.engine.encodeStarted:
	case <-time.After(5 * time.Second):
		t.Fatal("encode never started")
	}

	// Cancel while the final encode is in flight; the encode is not
	// aborted, but its output must never be shipped.
	acked, err := p.controller.Cancel(job.ID)
	if err != nil || !acked {
		t.Fatalf("expected cancel ack, got acked=%v err=%v", acked, err)
	}
	close(p.engine.encodeRelease)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("execute did not finish")
	}

	got, _ := p.controller.GetStatus(job.ID)
	if got.Status != models.JobStatusCancelled {
		t.Fatalf("expected cancelled, got %s", got.Status)
	}
	if got.OutputPath != "" {
		t.Errorf("cancelled job must not carry an output path, got %q", got.OutputPath)
	}

	outPath := filepath.Join(p.outputDir, fmt.Sprintf("%s.mp4", job.ID))
	if _, err := os.Stat(outPath); !os.IsNotExist(err) {
		t.Errorf("encoded file should be discarded after cancellation")
	}
	thumbPath := filepath.Join(p.outputDir, fmt.Sprintf("%s_thumbnail.jpg", job.ID))
	if _, err := os.Stat(thumbPath); !os.IsNotExist(err) {
		t.Errorf("thumbnail should be discarded after cancellation")
	}
}

func TestRenderProgressMonotonicParallelScenes(t *testing.T) {
	engine := &fakeEngine{}
	sink := &recordingSink{}
	tempDir := t.TempDir()

	controller := NewJobController(
		NewSceneComposer(engine, &fakeImages{}, "/fonts/test.ttf"),
		NewTransitionStitcher(engine),
		NewNarrator(engine, &fakeTTS{}),
		NewExporter(engine, t.TempDir()),
		ControllerOptions{
			TempDir:          tempDir,
			SceneParallelism: 8,
			Progress:         sink,
		},
	)

	script := models.Script{Title: "Parallel"}
	for i := 0; i < 48; i++ {
		script.Scenes = append(script.Scenes, models.Scene{
			Text:     fmt.Sprintf("Scene %d.", i),
			Duration: 1,
		})
	}

	job, err := controller.Submit(script, voicedConfig())
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	controller.Execute(context.Background(), job.ID)

	got, _ := controller.GetStatus(job.ID)
	if got.Status != models.JobStatusCompleted {
		t.Fatalf("expected completed, got %s (error: %s)", got.Status, got.Error)
	}

	events := sink.snapshot()
	last := -1
	for i, ev := range events {
		if ev.Progress < last {
			t.Fatalf("delivery order regressed at event %d: %d after %d", i, ev.Progress, last)
		}
		last = ev.Progress
	}
	if last != 100 {
		t.Errorf("expected final progress 100, got %d", last)
	}
}

func TestThumbnailFailureDiscardsEncodedFile(t *testing.T) {
	p := newTestPipeline(t)
	p.engine.thumbnailErr = errors.New("frame grab failed")

	job, err := p.controller.Submit(renderScript(), voicedConfig())
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	p.controller.Execute(context.Background(), job.ID)

	got, _ := p.controller.GetStatus(job.ID)
	if got.Status != models.JobStatusFailed {
		t.Fatalf("expected failed, got %s", got.Status)
	}
	if got.OutputPath != "" {
		t.Errorf("failed job must not carry an output path, got %q", got.OutputPath)
	}

	outPath := filepath.Join(p.outputDir, fmt.Sprintf("%s.mp4", job.ID))
	if _, err := os.Stat(outPath); !os.IsNotExist(err) {
		t.Errorf("encoded file should be removed when the thumbnail fails")
	}
}

func TestSubmitAssignsDistinctIDs(t *testing.T) {
	p := newTestPipeline(t)

	a, err := p.controller.Submit(renderScript(), voicedConfig())
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	b, err := p.controller.Submit(renderScript(), voicedConfig())
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if a.ID == b.ID {
		t.Error("two submissions shared a job ID")
	}
}

func TestSubmitRejectsInvalidInput(t *testing.T) {
	p := newTestPipeline(t)

	_, err := p.controller.Submit(models.Script{Title: "empty"}, voicedConfig())
	var verr *models.ValidationError
	if !errors.As(err, &verr) {
		t.Errorf("expected validation error for empty script, got %v", err)
	}

	cfg := voicedConfig()
	cfg.Resolution = "900p"
	_, err = p.controller.Submit(renderScript(), cfg)
	if !errors.As(err, &verr) {
		t.Errorf("expected validation error for bad resolution, got %v", err)
	}
}

func TestUnknownJobID(t *testing.T) {
	p := newTestPipeline(t)

	if _, err := p.controller.GetStatus(uuid.New()); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("expected ErrJobNotFound, got %v", err)
	}
	if _, err := p.controller.Cancel(uuid.New()); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("expected ErrJobNotFound, got %v", err)
	}
}
