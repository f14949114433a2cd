package media

import "context"

// ---------------------------------------------------------------------------
// Engine — narrow media-composition capability used by the render pipeline.
// The pipeline never touches a concrete media library; any backend that can
// compose, fade, concatenate, mux and encode clips can implement this.
// ---------------------------------------------------------------------------

// Clip is one media artifact on disk with a known play length.
type Clip struct {
	Path     string
	Duration float64 // seconds
}

// Background describes the visual base of a scene clip. ImagePath empty means
// a solid color fill.
type Background struct {
	ImagePath string
	Color     string // CSS-style hex ("#1e3a8a") or named color, used when ImagePath is empty
}

// TextOverlay is a pre-wrapped block of text drawn over the background.
// An empty Lines slice renders no glyphs at all.
type TextOverlay struct {
	Lines       []string
	FontFile    string
	FontSize    int
	FontColor   string
	ShadowColor string
	Position    string // "top", "center" or "bottom"
}

// FadeSpec describes fades applied inside a clip's own boundaries. Zero
// durations mean no fade on that end.
type FadeSpec struct {
	In  float64 // seconds faded in from the clip head
	Out float64 // seconds faded out at the clip tail
}

// EncodeSpec is the final export target.
type EncodeSpec struct {
	Width  int
	Height int
	FPS    int
	Format string // container: mp4, webm, avi, mov
}

// Engine is the media backend contract. All paths passed in are owned by the
// caller; implementations write to the given output paths and never delete
// inputs.
type Engine interface {
	// Compose renders one scene clip: background plus text overlay, at the
	// target dimensions and fps, for exactly the given duration.
	Compose(ctx context.Context, bg Background, overlay TextOverlay, duration float64, width, height, fps int, outPath string) (Clip, error)

	// ApplyFades re-renders a clip with head/tail fades baked in. The clip's
	// duration is unchanged — fades overlap existing content.
	ApplyFades(ctx context.Context, clip Clip, fades FadeSpec, outPath string) (Clip, error)

	// Concatenate joins clips in order into a single timeline.
	Concatenate(ctx context.Context, clips []Clip, outPath string) (Clip, error)

	// Mux attaches an audio track to a video clip, aligned at t=0. Audio
	// longer than the video is truncated; shorter audio is left as-is.
	Mux(ctx context.Context, video Clip, audioPath string, outPath string) (Clip, error)

	// Encode transcodes the timeline to the requested container/codec pairing
	// and returns the output path.
	Encode(ctx context.Context, clip Clip, spec EncodeSpec, outPath string) (string, error)

	// Thumbnail extracts one frame at the clip's temporal midpoint, scaled
	// down to a bounded size.
	Thumbnail(ctx context.Context, clip Clip, outPath string) error

	// DurationOf probes the real duration of a media file in seconds.
	DurationOf(ctx context.Context, path string) (float64, error)
}
