package debug

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"time"
)

// Snapshots saves framebuffer captures as PNG files named
// <prefix>_<tag>_<timestamp>.png, where tag is usually the quality tier.
type Snapshots struct {
	dir    string
	prefix string
	now    func() time.Time
}

// NewSnapshots writes into dir. An empty dir means the working directory.
func NewSnapshots(dir, prefix string) *Snapshots {
	return &Snapshots{dir: dir, prefix: prefix, now: time.Now}
}

// Filename returns the path the next capture with tag would use.
func (s *Snapshots) Filename(tag string) string {
	name := fmt.Sprintf("%s_%s_%s.png", s.prefix, tag, s.now().Format("2006-01-02_15-04-05"))
	if s.dir != "" {
		name = filepath.Join(s.dir, name)
	}
	return name
}

// Save writes RGBA pixels read back from OpenGL. Rows are flipped since
// OpenGL has its origin at the bottom-left.
func (s *Snapshots) Save(pixels []byte, width, height int, tag string) (string, error) {
	img, err := FlipRGBA(pixels, width, height)
	if err != nil {
		return "", err
	}

	if s.dir != "" {
		if err := os.MkdirAll(s.dir, 0o755); err != nil {
			return "", fmt.Errorf("creating output dir: %w", err)
		}
	}
	filename := s.Filename(tag)

	f, err := os.Create(filename)
	if err != nil {
		return "", fmt.Errorf("creating file: %w", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		return "", fmt.Errorf("encoding PNG: %w", err)
	}
	return filename, nil
}

// FlipRGBA copies bottom-up RGBA rows into a top-down image.
func FlipRGBA(pixels []byte, width, height int) (*image.RGBA, error) {
	if len(pixels) != width*height*4 {
		return nil, fmt.Errorf("pixel data size mismatch: expected %d, got %d", width*height*4, len(pixels))
	}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	row := width * 4
	for y := 0; y < height; y++ {
		src := (height - 1 - y) * row
		copy(img.Pix[y*img.Stride:y*img.Stride+row], pixels[src:src+row])
	}
	return img, nil
}
