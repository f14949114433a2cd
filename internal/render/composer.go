package render

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"github.com/ydssx/ai-video-maker/internal/media"
	"github.com/ydssx/ai-video-maker/internal/models"
	"github.com/ydssx/ai-video-maker/internal/services"
)

// ---------------------------------------------------------------------------
// SceneComposer — renders one scene into a standalone clip: background image
// (or template color when the image collaborator has nothing), plus the
// scene's wrapped text burned in per the template.
// ---------------------------------------------------------------------------

type SceneComposer struct {
	engine   media.Engine
	images   services.ImageProvider
	fontFile string
}

func NewSceneComposer(engine media.Engine, images services.ImageProvider, fontFile string) *SceneComposer {
	return &SceneComposer{
		engine:   engine,
		images:   images,
		fontFile: fontFile,
	}
}

// ComposeScene renders scene index idx into workDir. An image fetch failure
// is absorbed: the clip falls back to the template's background color.
func (c *SceneComposer) ComposeScene(ctx context.Context, scene models.Scene, idx int, tmpl Template, width, height, fps int, workDir string) (media.Clip, error) {
	bg := media.Background{Color: tmpl.BackgroundColor}

	if c.images != nil && len(scene.ImageKeywords) > 0 {
		imgPath := filepath.Join(workDir, fmt.Sprintf("scene_%03d_bg.jpg", idx))
		if err := c.images.FetchImage(ctx, scene.ImageKeywords, width, height, imgPath); err != nil {
			log.Printf("[Render] Scene %d image unavailable, using color background: %v", idx, err)
		} else {
			bg.ImagePath = imgPath
		}
	}

	overlay := media.TextOverlay{
		Lines:       wrapText(scene.Text, maxCharsPerLine(width, tmpl.FontSize)),
		FontFile:    c.fontFile,
		FontSize:    tmpl.FontSize,
		FontColor:   tmpl.FontColor,
		ShadowColor: tmpl.ShadowColor,
		Position:    tmpl.Position,
	}

	outPath := filepath.Join(workDir, fmt.Sprintf("scene_%03d.mp4", idx))
	clip, err := c.engine.Compose(ctx, bg, overlay, scene.Duration, width, height, fps, outPath)
	if err != nil {
		return media.Clip{}, fmt.Errorf("scene %d: %w", idx, err)
	}
	return clip, nil
}

// maxCharsPerLine estimates how many characters fit across the frame with a
// 50px margin on each side, assuming average glyph width ~0.55em.
func maxCharsPerLine(width, fontSize int) int {
	usable := width - 100
	if usable <= 0 {
		usable = width
	}
	max := int(float64(usable) / (float64(fontSize) * 0.55))
	if max < 1 {
		max = 1
	}
	return max
}

// wrapText breaks text into lines at whitespace only. A single word longer
// than the limit becomes its own overlong line rather than being split.
func wrapText(text string, maxChars int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var lines []string
	var current strings.Builder

	for _, word := range words {
		candidate := current.Len() + len(word)
		if current.Len() > 0 {
			candidate++
		}
		if candidate > maxChars && current.Len() > 0 {
			lines = append(lines, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteByte(' ')
		}
		current.WriteString(word)
	}
	if current.Len() > 0 {
		lines = append(lines, current.String())
	}
	return lines
}
