package ui

import (
	"image"

	"golang.org/x/image/draw"
)

// ScaleToFit downscales img to fit within maxW by maxH, preserving aspect.
// Images that already fit are returned unchanged.
func ScaleToFit(img image.Image, maxW, maxH int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 || maxW <= 0 || maxH <= 0 {
		return img
	}
	if w <= maxW && h <= maxH {
		return img
	}

	sw := float64(maxW) / float64(w)
	sh := float64(maxH) / float64(h)
	s := sw
	if sh < s {
		s = sh
	}
	dst := image.NewRGBA(image.Rect(0, 0, int(float64(w)*s), int(float64(h)*s)))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}
