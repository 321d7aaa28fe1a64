package ocr

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
)

// enhanceForOCR writes an enhanced copy of a photo into the artifact dir and
// returns its path plus a cleanup func. Part labels are usually small print
// on reflective packaging; grayscale, a contrast push and a sharpen pass
// recover noticeably more characters from phone photos.
func enhanceForOCR(path, artifactDir string) (string, func(), error) {
	src, err := imaging.Open(path)
	if err != nil {
		return "", nil, fmt.Errorf("open image: %w", err)
	}

	img := imaging.Grayscale(src)
	img = imaging.AdjustContrast(img, 30)
	img = imaging.Sharpen(img, 1.5)
	img = imaging.AdjustBrightness(img, 10)
	img = imaging.AdjustGamma(img, 1.2)

	if err := os.MkdirAll(artifactDir, 0o755); err != nil {
		return "", nil, err
	}
	tmp, err := os.MkdirTemp(artifactDir, "enh-*")
	if err != nil {
		return "", nil, err
	}
	cleanup := func() { _ = os.RemoveAll(tmp) }

	out := filepath.Join(tmp, "enhanced.png")
	if err := imaging.Save(img, out); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("save enhanced image: %w", err)
	}
	return out, cleanup, nil
}

// Thumbnail returns a PNG-encodable thumbnail fitted into size×size,
// for the result grid in the web UI.
func Thumbnail(path string, size int) ([]byte, error) {
	src, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	thumb := imaging.Fit(src, size, size, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}
