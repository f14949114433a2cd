package media

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ---------------------------------------------------------------------------
// FFmpegEngine — Engine implementation backed by the ffmpeg/ffprobe binaries.
// ---------------------------------------------------------------------------

// codecSettings is the fixed container→codec mapping.
var codecSettings = map[string]struct {
	Video string
	Audio string
}{
	"mp4":  {"libx264", "aac"},
	"webm": {"libvpx-vp9", "libvorbis"},
	"avi":  {"libxvid", "libmp3lame"},
	"mov":  {"libx264", "aac"},
}

// thumbnailMaxDim bounds the longer edge of extracted thumbnails.
const thumbnailMaxDim = 300

type FFmpegEngine struct {
	ffmpegPath  string
	ffprobePath string
}

func NewFFmpegEngine() *FFmpegEngine {
	return &FFmpegEngine{
		ffmpegPath:  "ffmpeg",
		ffprobePath: "ffprobe",
	}
}

func (e *FFmpegEngine) run(ctx context.Context, args ...string) error {
	cmd := exec.CommandContext(ctx, e.ffmpegPath, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg %s failed: %w", args[len(args)-1], err)
	}
	return nil
}

// Compose renders one scene clip. With an image background the picture is
// scaled up to cover the frame and center-cropped; without one a solid color
// source fills the frame. Text lines are burned in with drawtext.
func (e *FFmpegEngine) Compose(ctx context.Context, bg Background, overlay TextOverlay, duration float64, width, height, fps int, outPath string) (Clip, error) {
	var args []string
	filters := []string{}

	if bg.ImagePath != "" {
		args = append(args,
			"-loop", "1",
			"-t", formatSeconds(duration),
			"-i", bg.ImagePath,
		)
		filters = append(filters,
			fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=increase", width, height),
			fmt.Sprintf("crop=%d:%d", width, height),
		)
	} else {
		args = append(args,
			"-f", "lavfi",
			"-i", fmt.Sprintf("color=c=%s:s=%dx%d:d=%s", ffmpegColor(bg.Color), width, height, formatSeconds(duration)),
		)
	}

	filters = append(filters, buildDrawTextFilters(overlay, width, height)...)
	filters = append(filters, fmt.Sprintf("fps=%d", fps))

	args = append(args,
		"-vf", strings.Join(filters, ","),
		"-t", formatSeconds(duration),
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		"-an",
		"-y",
		outPath,
	)

	if err := e.run(ctx, args...); err != nil {
		return Clip{}, fmt.Errorf("compose scene clip: %w", err)
	}

	return Clip{Path: outPath, Duration: duration}, nil
}

// ApplyFades bakes head/tail fades into a clip without changing its length.
func (e *FFmpegEngine) ApplyFades(ctx context.Context, clip Clip, fades FadeSpec, outPath string) (Clip, error) {
	var filters []string
	if fades.In > 0 {
		filters = append(filters, fmt.Sprintf("fade=t=in:st=0:d=%s", formatSeconds(fades.In)))
	}
	if fades.Out > 0 {
		start := clip.Duration - fades.Out
		if start < 0 {
			start = 0
		}
		filters = append(filters, fmt.Sprintf("fade=t=out:st=%s:d=%s", formatSeconds(start), formatSeconds(fades.Out)))
	}

	if len(filters) == 0 {
		// Nothing to do — hand the clip back untouched.
		return clip, nil
	}

	args := []string{
		"-i", clip.Path,
		"-vf", strings.Join(filters, ","),
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		"-an",
		"-y",
		outPath,
	}

	if err := e.run(ctx, args...); err != nil {
		return Clip{}, fmt.Errorf("apply fades: %w", err)
	}

	return Clip{Path: outPath, Duration: clip.Duration}, nil
}

// Concatenate joins clips with the concat demuxer. Scene clips share one
// encode profile, so stream copy is safe and fast.
func (e *FFmpegEngine) Concatenate(ctx context.Context, clips []Clip, outPath string) (Clip, error) {
	if len(clips) == 0 {
		return Clip{}, fmt.Errorf("no clips to concatenate")
	}

	listPath := outPath + ".txt"
	f, err := os.Create(listPath)
	if err != nil {
		return Clip{}, fmt.Errorf("failed to create concat list: %w", err)
	}

	var total float64
	for _, clip := range clips {
		fmt.Fprintf(f, "file '%s'\n", clip.Path)
		total += clip.Duration
	}
	f.Close()
	defer os.Remove(listPath)

	args := []string{
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-c", "copy",
		"-y",
		outPath,
	}

	if err := e.run(ctx, args...); err != nil {
		return Clip{}, fmt.Errorf("concatenate clips: %w", err)
	}

	return Clip{Path: outPath, Duration: total}, nil
}

// Mux attaches narration audio starting at t=0. The -t cap truncates audio
// that outruns the video; shorter audio simply ends early, which is the
// documented behavior, not a defect.
func (e *FFmpegEngine) Mux(ctx context.Context, video Clip, audioPath string, outPath string) (Clip, error) {
	args := []string{
		"-i", video.Path,
		"-i", audioPath,
		"-map", "0:v",
		"-map", "1:a",
		"-c:v", "copy",
		"-c:a", "aac",
		"-b:a", "192k",
		"-t", formatSeconds(video.Duration),
		"-y",
		outPath,
	}

	if err := e.run(ctx, args...); err != nil {
		return Clip{}, fmt.Errorf("mux audio: %w", err)
	}

	return Clip{Path: outPath, Duration: video.Duration}, nil
}

// Encode transcodes the final timeline to the requested container/codec
// pairing at the requested resolution and frame rate.
func (e *FFmpegEngine) Encode(ctx context.Context, clip Clip, spec EncodeSpec, outPath string) (string, error) {
	codecs, ok := codecSettings[spec.Format]
	if !ok {
		codecs = codecSettings["mp4"]
	}

	log.Printf("[FFmpeg] Encoding %s (%dx%d@%dfps, %s/%s)", outPath, spec.Width, spec.Height, spec.FPS, codecs.Video, codecs.Audio)

	args := []string{
		"-i", clip.Path,
		"-vf", fmt.Sprintf("scale=%d:%d", spec.Width, spec.Height),
		"-r", fmt.Sprintf("%d", spec.FPS),
		"-c:v", codecs.Video,
		"-c:a", codecs.Audio,
		"-pix_fmt", "yuv420p",
		"-y",
		outPath,
	}

	if err := e.run(ctx, args...); err != nil {
		// A partially written container is never a deliverable.
		os.Remove(outPath)
		return "", fmt.Errorf("encode final video: %w", err)
	}

	return outPath, nil
}

// Thumbnail grabs one frame at the temporal midpoint, scaled so the longer
// edge fits thumbnailMaxDim.
func (e *FFmpegEngine) Thumbnail(ctx context.Context, clip Clip, outPath string) error {
	midpoint := clip.Duration / 2

	args := []string{
		"-ss", formatSeconds(midpoint),
		"-i", clip.Path,
		"-frames:v", "1",
		"-vf", fmt.Sprintf("scale='min(%d,iw)':'min(%d,ih)':force_original_aspect_ratio=decrease", thumbnailMaxDim, thumbnailMaxDim),
		"-y",
		outPath,
	}

	if err := e.run(ctx, args...); err != nil {
		return fmt.Errorf("extract thumbnail: %w", err)
	}
	return nil
}

// DurationOf returns the duration of a media file in seconds using ffprobe.
func (e *FFmpegEngine) DurationOf(ctx context.Context, path string) (float64, error) {
	args := []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	}

	cmd := exec.CommandContext(ctx, e.ffprobePath, args...)
	output, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe failed for %s: %w", filepath.Base(path), err)
	}

	var seconds float64
	if _, err := fmt.Sscanf(strings.TrimSpace(string(output)), "%f", &seconds); err != nil {
		return 0, fmt.Errorf("failed to parse duration: %w", err)
	}

	return seconds, nil
}

// ---------------------------------------------------------------------------
// Filter helpers
// ---------------------------------------------------------------------------

// buildDrawTextFilters emits one drawtext filter per wrapped line, with a
// shadow pass offset by 2px under each. Empty overlays emit nothing.
func buildDrawTextFilters(overlay TextOverlay, width, height int) []string {
	if len(overlay.Lines) == 0 {
		return nil
	}

	lineHeight := int(float64(overlay.FontSize) * 1.2)
	totalHeight := len(overlay.Lines) * lineHeight

	var yStart string
	switch overlay.Position {
	case "top":
		yStart = "50"
	case "bottom":
		yStart = fmt.Sprintf("%d", height-totalHeight-50)
	default: // center
		yStart = fmt.Sprintf("%d", (height-totalHeight)/2)
	}

	var filters []string
	for i, line := range overlay.Lines {
		text := escapeDrawText(line)
		y := fmt.Sprintf("%s+%d", yStart, i*lineHeight)

		if overlay.ShadowColor != "" {
			filters = append(filters, fmt.Sprintf(
				"drawtext=fontfile='%s':text='%s':fontsize=%d:fontcolor=%s:x=(w-text_w)/2+2:y=%s+2",
				overlay.FontFile, text, overlay.FontSize, ffmpegColor(overlay.ShadowColor), y,
			))
		}
		filters = append(filters, fmt.Sprintf(
			"drawtext=fontfile='%s':text='%s':fontsize=%d:fontcolor=%s:x=(w-text_w)/2:y=%s",
			overlay.FontFile, text, overlay.FontSize, ffmpegColor(overlay.FontColor), y,
		))
	}
	return filters
}

// escapeDrawText escapes the characters that drawtext treats specially.
func escapeDrawText(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `\'`)
	s = strings.ReplaceAll(s, `:`, `\:`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	return s
}

// ffmpegColor converts CSS-style "#rrggbb" to ffmpeg's "0xrrggbb"; named
// colors pass through.
func ffmpegColor(c string) string {
	if c == "" {
		return "black"
	}
	if strings.HasPrefix(c, "#") {
		return "0x" + strings.TrimPrefix(c, "#")
	}
	return c
}

// formatSeconds renders a duration with millisecond precision, the form
// ffmpeg option parsing expects.
func formatSeconds(s float64) string {
	return fmt.Sprintf("%.3f", s)
}
