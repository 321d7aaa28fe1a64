package ocr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// convertHEICtoPNG converts a HEIC/HEIF photo to a temporary PNG using the
// chosen converter: "heif-convert" | "magick" | "sips".
//
// Returns (outPath, cleanup, err). Call cleanup() to remove temp files.
func convertHEICtoPNG(ctx context.Context, r Runner, converter, in string) (string, func(), error) {
	tmpDir, err := os.MkdirTemp("", "mpn-heic-*")
	if err != nil {
		return "", nil, err
	}
	cleanup := func() { _ = os.RemoveAll(tmpDir) }
	out := filepath.Join(tmpDir, "photo.png")

	switch converter {
	case "heif-convert":
		if _, _, err2 := r.Run(ctx, "heif-convert", in, out); err2 != nil {
			return "", cleanup, fmt.Errorf("heif-convert failed: %w", err2)
		}
	case "magick":
		if _, _, err2 := r.Run(ctx, "magick", in, out); err2 != nil {
			return "", cleanup, fmt.Errorf("magick convert failed: %w", err2)
		}
	case "sips":
		if _, _, err2 := r.Run(ctx, "sips", "-s", "format", "png", in, "--out", out); err2 != nil {
			return "", cleanup, fmt.Errorf("sips convert failed: %w", err2)
		}
	default:
		return "", cleanup, fmt.Errorf("HEIC not supported: set ocr.Config.HeicConverter to one of: heif-convert | magick | sips")
	}

	if _, statErr := os.Stat(out); statErr != nil {
		return "", cleanup, fmt.Errorf("HEIC conversion produced no output: %v", statErr)
	}
	return out, cleanup, nil
}
