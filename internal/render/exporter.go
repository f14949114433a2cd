package render

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/ydssx/ai-video-maker/internal/media"
	"github.com/ydssx/ai-video-maker/internal/models"
)

// ---------------------------------------------------------------------------
// Exporter — final encode into the output directory plus thumbnail and
// duration probe. Output naming is fixed: {output_dir}/{job_id}.{format} and
// {output_dir}/{job_id}_thumbnail.jpg.
// ---------------------------------------------------------------------------

type Exporter struct {
	engine    media.Engine
	outputDir string
}

func NewExporter(engine media.Engine, outputDir string) *Exporter {
	return &Exporter{engine: engine, outputDir: outputDir}
}

// ExportResult carries the deliverable paths and the measured duration.
type ExportResult struct {
	OutputPath    string
	ThumbnailPath string
	Duration      float64
}

// Export encodes the timeline to its final container and extracts the
// thumbnail. The thumbnail is part of the deliverable, so its failure fails
// the export.
func (e *Exporter) Export(ctx context.Context, jobID uuid.UUID, timeline media.Clip, cfg models.RenderConfig) (*ExportResult, error) {
	size := models.ResolutionSizes[cfg.Resolution]

	outPath := filepath.Join(e.outputDir, fmt.Sprintf("%s.%s", jobID, cfg.Format))
	spec := media.EncodeSpec{
		Width:  size[0],
		Height: size[1],
		FPS:    cfg.FPS,
		Format: cfg.Format,
	}

	finalPath, err := e.engine.Encode(ctx, timeline, spec, outPath)
	if err != nil {
		return nil, err
	}

	final := media.Clip{Path: finalPath, Duration: timeline.Duration}
	if probed, err := e.engine.DurationOf(ctx, finalPath); err == nil && probed > 0 {
		final.Duration = probed
	}

	thumbPath := filepath.Join(e.outputDir, fmt.Sprintf("%s_thumbnail.jpg", jobID))
	if err := e.engine.Thumbnail(ctx, final, thumbPath); err != nil {
		// The job is failing; an encoded file without its thumbnail must
		// not linger as a deliverable.
		os.Remove(finalPath)
		return nil, fmt.Errorf("thumbnail: %w", err)
	}

	return &ExportResult{
		OutputPath:    finalPath,
		ThumbnailPath: thumbPath,
		Duration:      final.Duration,
	}, nil
}
