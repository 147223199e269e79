package main

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"

	"loupe/internal/manifest"
)

// sampleImage generates a gallery entry when no manifest is configured: a
// 400x300 inline gradient and a 1600x1200 replacement, written under the
// loupe data directory once.
func sampleImage(dir string) (manifest.Image, error) {
	small := filepath.Join(dir, "sample.png")
	full := filepath.Join(dir, "sample_full.png")

	if err := writeGradient(small, 400, 300); err != nil {
		return manifest.Image{}, err
	}
	if err := writeGradient(full, 1600, 1200); err != nil {
		return manifest.Image{}, err
	}

	return manifest.Image{
		Source:      small,
		Alt:         "Generated sample gradient",
		Kind:        "image",
		Replacement: &manifest.Replacement{Source: full},
	}, nil
}

func writeGradient(path string, w, h int) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create sample dir: %w", err)
	}

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{
				R: uint8(255 * x / w),
				G: uint8(255 * y / h),
				B: 0x90,
				A: 0xFF,
			})
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create sample image: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode sample image: %w", err)
	}
	return f.Close()
}
