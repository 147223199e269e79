package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"gioui.org/app"
	"gioui.org/op"
	"gioui.org/unit"
	"gioui.org/widget/material"

	"loupe/cmd/loupe/internal/theme"
	"loupe/cmd/loupe/internal/ui"
	"loupe/internal/assets"
	"loupe/internal/config"
	"loupe/internal/geometry"
	"loupe/internal/logging"
	"loupe/internal/manifest"
	"loupe/internal/store"
	"loupe/internal/target"
	"loupe/pkg/loupe"
)

func main() {
	configPath := flag.String("config", "", "config file path (default: ~/.loupe/config.toml)")
	manifestPath := flag.String("manifest", "", "gallery manifest path override")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "loupe: %v\n", err)
		os.Exit(1)
	}
	if *manifestPath != "" {
		cfg.Gallery.ManifestPath = *manifestPath
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "loupe: invalid config: %v\n", err)
		os.Exit(1)
	}

	log, err := logging.Setup(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Component: "loupe",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "loupe: %v\n", err)
		os.Exit(1)
	}

	var cache *store.Cache
	if cfg.Cache.Enabled {
		cache, err = store.Open(cfg.Cache.Path)
		if err != nil {
			log.Warn("probe cache unavailable", "path", cfg.Cache.Path, "error", err)
		} else if cfg.Cache.MaxAgeHours > 0 {
			cutoff := time.Now().Add(-time.Duration(cfg.Cache.MaxAgeHours) * time.Hour)
			if n, err := cache.Prune(cutoff); err != nil {
				log.Warn("probe cache prune failed", "error", err)
			} else if n > 0 {
				log.Debug("pruned stale probes", "count", n)
			}
		}
	}

	img, err := galleryImage(cfg.Gallery.ManifestPath)
	if err != nil {
		log.Warn("manifest unavailable, using generated sample", "path", cfg.Gallery.ManifestPath, "error", err)
		img, err = sampleImage(config.LoupeDir())
		if err != nil {
			fmt.Fprintf(os.Stderr, "loupe: %v\n", err)
			os.Exit(1)
		}
	}

	go func() {
		w := new(app.Window)
		w.Option(app.Title("Loupe"))
		w.Option(app.Size(unit.Dp(1024), unit.Dp(768)))

		if err := loop(w, cfg, cache, log, img); err != nil {
			fmt.Fprintf(os.Stderr, "loupe: %v\n", err)
			os.Exit(1)
		}
		if cache != nil {
			cache.Close()
		}
		os.Exit(0)
	}()
	app.Main()
}

func loop(w *app.Window, cfg *config.Config, cache *store.Cache, log *slog.Logger, img manifest.Image) error {
	t := theme.NewTheme(material.NewTheme())
	sched := ui.NewFrameScheduler(w.Invalidate)
	input := ui.NewInputSource()
	entry := ui.NewImageEntry()

	var replacement *assets.Descriptor
	if img.Replacement != nil {
		replacement = &assets.Descriptor{
			Source:    img.Replacement.Source,
			SourceSet: img.Replacement.SourceSet,
			Sizes:     img.Replacement.Sizes,
		}
	}

	zoomer, err := loupe.New(loupe.Options{
		Region:        entry,
		Events:        input,
		Scheduler:     sched,
		Replacement:   replacement,
		Margin:        cfg.Zoom.MarginPx,
		LabelZoomIn:   cfg.Labels.ZoomIn,
		LabelZoomOut:  cfg.Labels.ZoomOut,
		OnChange:      func(zoomed bool) { log.Debug("zoom changed", "zoomed", zoomed) },
		OnAssetLoaded: w.Invalidate,
		Cache:         cache,
		WatchFiles:    cfg.Zoom.WatchFiles,
		Logger:        log,
	})
	if err != nil {
		return err
	}
	defer zoomer.Teardown()

	entry.Show(kindOf(img.Kind), img.Source, img.Alt, geometry.Size{})

	gallery := ui.NewGallery(t, zoomer, sched, input, entry,
		time.Duration(cfg.Zoom.TransitionMs)*time.Millisecond)

	var ops op.Ops
	for {
		switch e := w.Event().(type) {
		case app.DestroyEvent:
			return e.Err
		case app.FrameEvent:
			gtx := app.NewContext(&ops, e)
			gallery.Layout(gtx)
			e.Frame(gtx.Ops)
		}
	}
}

// galleryImage loads the manifest and picks its first entry.
func galleryImage(path string) (manifest.Image, error) {
	m, err := manifest.Load(path)
	if err != nil {
		return manifest.Image{}, err
	}
	return m.Images[0], nil
}

func kindOf(s string) target.Kind {
	switch s {
	case "vector":
		return target.KindVector
	case "container":
		return target.KindContainer
	case "image-role":
		return target.KindImageRole
	default:
		return target.KindImage
	}
}
