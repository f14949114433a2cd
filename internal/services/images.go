package services

import (
	"context"
	"fmt"
	"hash/fnv"
	"io"
	"log"
	"net/http"
	"os"
	"time"
)

// ---------------------------------------------------------------------------
// ImageProvider — external image collaborator for scene backgrounds.
// An unreachable provider or missing result is never a pipeline failure;
// the scene composer falls back to a template color background.
// ---------------------------------------------------------------------------

// ImageProvider fetches one background image for a scene and writes it to
// destPath. Implementations return an error only when no image could be
// produced; the caller treats that as "no image", not as a job error.
type ImageProvider interface {
	FetchImage(ctx context.Context, keywords []string, width, height int, destPath string) error
}

// PicsumProvider pulls stock photography from picsum.photos, seeded by the
// first keyword so the same keyword maps to a stable image.
type PicsumProvider struct {
	client *http.Client
}

var _ ImageProvider = (*PicsumProvider)(nil)

func NewPicsumProvider() *PicsumProvider {
	return &PicsumProvider{
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

func (p *PicsumProvider) FetchImage(ctx context.Context, keywords []string, width, height int, destPath string) error {
	keyword := "abstract"
	if len(keywords) > 0 && keywords[0] != "" {
		keyword = keywords[0]
	}

	url := fmt.Sprintf("https://picsum.photos/%d/%d?random=%d", width, height, keywordSeed(keyword))

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return fmt.Errorf("failed to create image request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("image fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("image fetch returned status %d", resp.StatusCode)
	}

	f, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("failed to create image file: %w", err)
	}
	defer f.Close()

	n, err := io.Copy(f, resp.Body)
	if err != nil {
		return fmt.Errorf("failed to write image file: %w", err)
	}

	log.Printf("[Images] Fetched background for %q (%d bytes)", keyword, n)
	return nil
}

// keywordSeed maps a keyword to a stable seed in [0, 1000).
func keywordSeed(keyword string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(keyword))
	return h.Sum32() % 1000
}
