package assets

import (
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loupe/internal/store"
)

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), A: 255})
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func waitReady(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for loader signal")
	}
}

func TestLoadNaturalFromFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "photo.png")
	writePNG(t, src, 40, 30)

	loaded := make(chan struct{}, 4)
	l := NewLoader(Config{OnNaturalLoaded: func(*Probe) { loaded <- struct{}{} }})
	defer l.Close()

	l.LoadNatural(src)
	waitReady(t, loaded)

	size, ok := l.NaturalSize()
	require.True(t, ok)
	assert.Equal(t, 40.0, size.Width)
	assert.Equal(t, 30.0, size.Height)

	_, ok = l.NaturalImage()
	assert.True(t, ok)
}

func TestLoadReplacementSignalsReadyOnce(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "big.png")
	writePNG(t, src, 160, 120)

	ready := make(chan struct{}, 4)
	l := NewLoader(Config{OnReplacementReady: func() { ready <- struct{}{} }})
	defer l.Close()

	assert.False(t, l.ReplacementReady())
	l.LoadReplacement(Descriptor{Source: src})
	waitReady(t, ready)

	require.True(t, l.ReplacementReady())
	size, ok := l.ReplacementSize()
	require.True(t, ok)
	assert.Equal(t, 160.0, size.Width)
	assert.Equal(t, 120.0, size.Height)

	// A duplicate late decode for the same source never re-signals.
	l.loadReplacement(src)
	select {
	case <-ready:
		t.Fatal("readiness signaled twice for one session")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestLoadReplacementFailureNeverReady(t *testing.T) {
	l := NewLoader(Config{})
	defer l.Close()

	l.LoadReplacement(Descriptor{Source: filepath.Join(t.TempDir(), "missing.png")})
	time.Sleep(100 * time.Millisecond)
	assert.False(t, l.ReplacementReady())
	_, ok := l.ReplacementSize()
	assert.False(t, ok)
}

func TestResetClearsSessionReadiness(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "big.png")
	writePNG(t, src, 16, 16)

	ready := make(chan struct{}, 4)
	l := NewLoader(Config{OnReplacementReady: func() { ready <- struct{}{} }})
	defer l.Close()

	l.LoadReplacement(Descriptor{Source: src})
	waitReady(t, ready)
	require.True(t, l.ReplacementReady())

	l.Reset()
	assert.False(t, l.ReplacementReady())
	_, ok := l.ReplacementImage()
	assert.False(t, ok)
}

func TestStaleNaturalResultIgnored(t *testing.T) {
	dir := t.TempDir()
	oldSrc := filepath.Join(dir, "old.png")
	newSrc := filepath.Join(dir, "new.png")
	writePNG(t, oldSrc, 10, 10)
	writePNG(t, newSrc, 20, 20)

	loaded := make(chan struct{}, 4)
	l := NewLoader(Config{OnNaturalLoaded: func(*Probe) { loaded <- struct{}{} }})
	defer l.Close()

	l.LoadNatural(newSrc)
	waitReady(t, loaded)

	// A decode that finishes late, for a source that is no longer current,
	// must not overwrite the fresh result.
	l.loadNatural(oldSrc)
	size, ok := l.NaturalSize()
	require.True(t, ok)
	assert.Equal(t, 20.0, size.Width)
}

func TestNaturalReloadOnFileRewrite(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "live.png")
	writePNG(t, src, 10, 10)

	loaded := make(chan struct{}, 8)
	l := NewLoader(Config{
		OnNaturalLoaded: func(*Probe) { loaded <- struct{}{} },
		WatchFiles:      true,
	})
	defer l.Close()

	l.LoadNatural(src)
	waitReady(t, loaded)

	writePNG(t, src, 50, 60)
	waitReady(t, loaded)

	// The rewrite may be observed more than once; the final size must win.
	deadline := time.Now().Add(5 * time.Second)
	for {
		size, ok := l.NaturalSize()
		if ok && size.Width == 50.0 && size.Height == 60.0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("natural size never refreshed, got %+v", size)
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestLoadRemoteWithCache(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		img := image.NewRGBA(image.Rect(0, 0, 8, 6))
		png.Encode(w, img)
	}))
	defer srv.Close()

	cache, err := store.Open(filepath.Join(t.TempDir(), "probes.db"))
	require.NoError(t, err)
	defer cache.Close()

	ready := make(chan struct{}, 4)
	l := NewLoader(Config{
		Cache:              cache,
		OnReplacementReady: func() { ready <- struct{}{} },
	})
	l.LoadReplacement(Descriptor{Source: srv.URL + "/img.png"})
	waitReady(t, ready)
	require.NoError(t, l.Close())
	assert.Equal(t, 1, hits)

	// A fresh loader resolves the same source from the cache.
	ready2 := make(chan struct{}, 4)
	l2 := NewLoader(Config{
		Cache:              cache,
		OnReplacementReady: func() { ready2 <- struct{}{} },
	})
	defer l2.Close()
	l2.LoadReplacement(Descriptor{Source: srv.URL + "/img.png"})
	waitReady(t, ready2)

	size, ok := l2.ReplacementSize()
	require.True(t, ok)
	assert.Equal(t, 8.0, size.Width)
	assert.Equal(t, 1, hits, "second load must come from the cache")
}

func TestDescriptorBestSource(t *testing.T) {
	tests := []struct {
		name string
		d    Descriptor
		want string
	}{
		{"plain source", Descriptor{Source: "a.jpg"}, "a.jpg"},
		{"widest srcset wins", Descriptor{Source: "a.jpg", SourceSet: "s.jpg 480w, l.jpg 1600w, m.jpg 800w"}, "l.jpg"},
		{"srcset without widths", Descriptor{SourceSet: "x.jpg, y.jpg"}, "x.jpg"},
		{"density descriptors ignored", Descriptor{Source: "a.jpg", SourceSet: "b.jpg 2x, c.jpg 900w"}, "c.jpg"},
		{"empty", Descriptor{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.d.BestSource())
		})
	}
}

func TestDescriptorIsZero(t *testing.T) {
	assert.True(t, Descriptor{}.IsZero())
	assert.False(t, Descriptor{Source: "a.png"}.IsZero())
	assert.False(t, Descriptor{SourceSet: "a.png 100w"}.IsZero())
}
