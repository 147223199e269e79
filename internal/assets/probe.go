package assets

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"net/http"
	"os"
	"strings"

	// Decoders for the formats the probe understands.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"loupe/internal/geometry"
)

// Probe is one decoded image.
type Probe struct {
	Source string
	Image  image.Image
	Width  int
	Height int
}

// Size returns the probe's pixel resolution.
func (p *Probe) Size() geometry.Size {
	return geometry.Size{Width: float64(p.Width), Height: float64(p.Height)}
}

// isRemote reports whether the source is fetched over HTTP.
func isRemote(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

// localPath maps a non-remote source to a filesystem path.
func localPath(source string) string {
	return strings.TrimPrefix(source, "file://")
}

// fetch reads the raw bytes behind a source.
func fetch(client *http.Client, source string) ([]byte, error) {
	if isRemote(source) {
		resp, err := client.Get(source)
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", source, err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("fetch %s: status %d", source, resp.StatusCode)
		}
		return io.ReadAll(resp.Body)
	}

	data, err := os.ReadFile(localPath(source))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", source, err)
	}
	return data, nil
}

// decodeProbe decodes image bytes into a probe.
func decodeProbe(source string, data []byte) (*Probe, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", source, err)
	}
	b := img.Bounds()
	return &Probe{
		Source: source,
		Image:  img,
		Width:  b.Dx(),
		Height: b.Dy(),
	}, nil
}
