package render

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ydssx/ai-video-maker/internal/media"
	"github.com/ydssx/ai-video-maker/internal/models"
)

// ---------------------------------------------------------------------------
// JobController — owns the job registry and drives the render pipeline:
// compose scenes → transitions → concat → narration → export → thumbnail.
//
// The in-memory registry is the source of truth for job state; persistence
// and progress broadcasting are best-effort side channels. Cancellation is
// cooperative: a flag checked at stage boundaries and between scenes, so an
// in-flight encode is never killed mid-write.
// ---------------------------------------------------------------------------

// ProgressSink receives live progress events. Implementations must not block.
type ProgressSink interface {
	Publish(event models.ProgressEvent)
}

// Store persists job records. All controller writes through it are
// best-effort; a nil Store disables persistence entirely.
type Store interface {
	SaveVideo(ctx context.Context, job models.Job, title string) error
	UpdateVideo(ctx context.Context, job models.Job) error
}

type jobEntry struct {
	job       models.Job
	script    models.Script
	config    models.RenderConfig
	cancelled atomic.Bool
}

type JobController struct {
	composer *SceneComposer
	stitcher *TransitionStitcher
	narrator *Narrator
	exporter *Exporter

	progress ProgressSink
	store    Store
	tempDir  string

	// sceneParallelism bounds concurrent scene composition per job. 1 means
	// strictly sequential.
	sceneParallelism int

	mu   sync.Mutex
	jobs map[uuid.UUID]*jobEntry
}

type ControllerOptions struct {
	TempDir          string
	SceneParallelism int
	Progress         ProgressSink
	Store            Store
}

func NewJobController(composer *SceneComposer, stitcher *TransitionStitcher, narrator *Narrator, exporter *Exporter, opts ControllerOptions) *JobController {
	if opts.SceneParallelism < 1 {
		opts.SceneParallelism = 1
	}
	return &JobController{
		composer:         composer,
		stitcher:         stitcher,
		narrator:         narrator,
		exporter:         exporter,
		progress:         opts.Progress,
		store:            opts.Store,
		tempDir:          opts.TempDir,
		sceneParallelism: opts.SceneParallelism,
		jobs:             make(map[uuid.UUID]*jobEntry),
	}
}

// Submit validates the inputs and registers a new pending job. It does not
// start execution; the caller hands the returned job to the work queue.
func (c *JobController) Submit(script models.Script, cfg models.RenderConfig) (models.Job, error) {
	cfg.ApplyDefaults()
	if err := script.Validate(); err != nil {
		return models.Job{}, err
	}
	if err := cfg.Validate(); err != nil {
		return models.Job{}, err
	}

	entry := &jobEntry{
		job: models.Job{
			ID:        uuid.New(),
			Status:    models.JobStatusPending,
			Progress:  0,
			Message:   "queued",
			CreatedAt: time.Now().UTC(),
		},
		script: script,
		config: cfg,
	}

	c.mu.Lock()
	c.jobs[entry.job.ID] = entry
	c.mu.Unlock()

	if c.store != nil {
		if err := c.store.SaveVideo(context.Background(), entry.job, script.Title); err != nil {
			log.Printf("[Jobs] Persist failed for %s: %v", entry.job.ID, err)
		}
	}

	log.Printf("[Jobs] Job %s queued (%d scenes, %s/%s/%dfps)", entry.job.ID, len(script.Scenes), cfg.Resolution, cfg.Format, cfg.FPS)
	return entry.job, nil
}

// GetStatus returns a snapshot of the job record.
func (c *JobController) GetStatus(id uuid.UUID) (models.Job, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.jobs[id]
	if !ok {
		return models.Job{}, ErrJobNotFound
	}
	return entry.job, nil
}

// Cancel requests cooperative cancellation. It returns true when the request
// was acknowledged (job still pending or processing), false when the job had
// already reached a terminal state.
func (c *JobController) Cancel(id uuid.UUID) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.jobs[id]
	if !ok {
		return false, ErrJobNotFound
	}
	if !entry.job.Status.Cancellable() {
		return false, nil
	}
	entry.cancelled.Store(true)
	if entry.job.Status == models.JobStatusPending {
		// Never started; finalize immediately rather than waiting for a
		// worker that may be far behind.
		entry.job.Status = models.JobStatusCancelled
		entry.job.Message = "cancelled before start"
		c.persistLocked(entry)
	}
	return true, nil
}

// Execute runs the full pipeline for a previously submitted job. It is called
// from a worker goroutine; errors are recorded on the job, not returned.
func (c *JobController) Execute(ctx context.Context, id uuid.UUID) {
	c.mu.Lock()
	entry, ok := c.jobs[id]
	if !ok {
		c.mu.Unlock()
		log.Printf("[Jobs] Execute called for unknown job %s", id)
		return
	}
	if entry.job.Status.Terminal() {
		c.mu.Unlock()
		return
	}
	if entry.cancelled.Load() {
		entry.job.Status = models.JobStatusCancelled
		entry.job.Message = "cancelled before start"
		c.persistLocked(entry)
		c.mu.Unlock()
		return
	}
	entry.job.Status = models.JobStatusProcessing
	script := entry.script
	cfg := entry.config
	c.mu.Unlock()

	workDir := filepath.Join(c.tempDir, id.String())
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		c.fail(entry, fmt.Errorf("create work dir: %w", err))
		return
	}
	// Intermediates never outlive the job, whatever the exit path.
	defer os.RemoveAll(workDir)

	c.publish(entry, 0, "starting render")

	result, err := c.runPipeline(ctx, entry, &script, cfg, workDir)
	if err != nil {
		if entry.cancelled.Load() {
			c.finishCancelled(entry)
			return
		}
		c.fail(entry, err)
		return
	}
	if result == nil {
		// Pipeline observed the cancel flag at a stage boundary.
		c.finishCancelled(entry)
		return
	}

	c.mu.Lock()
	if entry.cancelled.Load() {
		// Cancel landed after the export finished; the deliverables are
		// discarded, never shipped.
		c.mu.Unlock()
		discardExport(result)
		c.finishCancelled(entry)
		return
	}
	entry.job.Status = models.JobStatusCompleted
	entry.job.OutputPath = result.OutputPath
	entry.job.ThumbnailPath = result.ThumbnailPath
	entry.job.Duration = result.Duration
	c.persistLocked(entry)
	c.mu.Unlock()

	c.publish(entry, 100, "render complete")
	log.Printf("[Jobs] Job %s completed (%.1fs, %s)", id, result.Duration, result.OutputPath)
}

// runPipeline executes the stages in order. A nil result with nil error means
// cancellation was observed.
func (c *JobController) runPipeline(ctx context.Context, entry *jobEntry, script *models.Script, cfg models.RenderConfig, workDir string) (*ExportResult, error) {
	tmpl := TemplateByID(cfg.TemplateID)
	size := models.ResolutionSizes[cfg.Resolution]
	total := len(script.Scenes)

	// Stage 1: compose scene clips. Progress advances to 80 across scenes.
	clips := make([]media.Clip, total)
	var done atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.sceneParallelism)

	for i, scene := range script.Scenes {
		i, scene := i, scene
		g.Go(func() error {
			if entry.cancelled.Load() {
				return nil
			}
			clip, err := c.composer.ComposeScene(gctx, scene, i, tmpl, size[0], size[1], cfg.FPS, workDir)
			if err != nil {
				return err
			}
			clips[i] = clip
			n := done.Add(1)
			c.publish(entry, int(float64(n)/float64(total)*80), fmt.Sprintf("composed scene %d/%d", n, total))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if entry.cancelled.Load() {
		return nil, nil
	}

	// Stage 2: transitions and concatenation.
	c.publish(entry, 85, "applying transitions")
	timeline, err := c.stitcher.Stitch(ctx, script.Scenes, clips, workDir)
	if err != nil {
		return nil, err
	}
	c.publish(entry, 90, "timeline assembled")
	if entry.cancelled.Load() {
		return nil, nil
	}

	// Stage 3: narration. Failure inside is absorbed by the narrator.
	if cfg.VoiceConfig.Enabled {
		timeline = c.narrator.AddNarration(ctx, script, cfg.VoiceConfig, timeline, workDir)
		c.publish(entry, 95, "narration attached")
	}
	if entry.cancelled.Load() {
		return nil, nil
	}

	// Stage 4: final encode and thumbnail.
	c.publish(entry, 98, "encoding output")
	result, err := c.exporter.Export(ctx, entry.job.ID, timeline, cfg)
	if err != nil {
		return nil, err
	}
	if entry.cancelled.Load() {
		// Cancelled mid-encode. The encode itself was never aborted, but
		// its output is not a deliverable.
		discardExport(result)
		return nil, nil
	}
	return result, nil
}

// discardExport removes finished deliverables for a job that will not
// complete.
func discardExport(result *ExportResult) {
	os.Remove(result.OutputPath)
	os.Remove(result.ThumbnailPath)
}

// publish updates the job's progress and fans the event out. Progress never
// decreases; a stale or out-of-order value is clamped to the current one.
// Delivery to the sink happens under the lock so parallel scene goroutines
// cannot reorder events; the sink contract requires non-blocking Publish.
func (c *JobController) publish(entry *jobEntry, progress int, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if progress < entry.job.Progress {
		progress = entry.job.Progress
	}
	entry.job.Progress = progress
	entry.job.Message = message

	if c.progress != nil {
		c.progress.Publish(models.ProgressEvent{
			JobID:     entry.job.ID,
			Progress:  progress,
			Message:   message,
			Timestamp: time.Now().UTC(),
		})
	}
}

func (c *JobController) fail(entry *jobEntry, err error) {
	log.Printf("[Jobs] Job %s failed: %v", entry.job.ID, err)

	message := "render failed: " + err.Error()

	c.mu.Lock()
	entry.job.Status = models.JobStatusFailed
	entry.job.Progress = -1
	entry.job.Message = message
	entry.job.Error = err.Error()
	c.persistLocked(entry)
	if c.progress != nil {
		c.progress.Publish(models.ProgressEvent{
			JobID:     entry.job.ID,
			Progress:  -1,
			Message:   message,
			Timestamp: time.Now().UTC(),
		})
	}
	c.mu.Unlock()
}

func (c *JobController) finishCancelled(entry *jobEntry) {
	log.Printf("[Jobs] Job %s cancelled", entry.job.ID)

	c.mu.Lock()
	entry.job.Status = models.JobStatusCancelled
	entry.job.Message = "cancelled"
	c.persistLocked(entry)
	c.mu.Unlock()
}

// persistLocked mirrors the job record to the store. Caller holds c.mu.
func (c *JobController) persistLocked(entry *jobEntry) {
	if c.store == nil {
		return
	}
	if err := c.store.UpdateVideo(context.Background(), entry.job); err != nil {
		log.Printf("[Jobs] Persist failed for %s: %v", entry.job.ID, err)
	}
}
