package assets

import (
	"image"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"loupe/internal/geometry"
	"loupe/internal/store"
)

// Config configures a Loader.
type Config struct {
	Logger *slog.Logger

	// Client fetches remote sources. Defaults to a client with a timeout.
	Client *http.Client

	// Cache, when set, short-circuits repeat fetches of the same source.
	Cache *store.Cache

	// OnReplacementReady fires once per zoom session when the replacement
	// asset finishes decoding.
	OnReplacementReady func()

	// OnNaturalLoaded fires whenever a natural-asset decode completes and
	// is still current.
	OnNaturalLoaded func(*Probe)

	// WatchFiles re-triggers the natural load when a file-backed source is
	// rewritten on disk.
	WatchFiles bool
}

// Loader runs the two independent asynchronous loads of the zoom view.
//
// Loads are attempted exactly once per triggering event and are never
// retried: a failed decode leaves the corresponding readiness unset, which
// downstream components treat as "keep showing the lower-resolution asset".
// Late results are dropped when the source they were started for is no
// longer the current one.
type Loader struct {
	log        *slog.Logger
	client     *http.Client
	cache      *store.Cache
	onReady    func()
	onNatural  func(*Probe)
	watchFiles bool

	mu          sync.Mutex
	replacement struct {
		src   string
		ready bool
		probe *Probe
	}
	natural struct {
		src   string
		probe *Probe
	}

	watcher *fsnotify.Watcher
	watched string

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewLoader returns a loader with nothing in flight.
func NewLoader(cfg Config) *Loader {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Loader{
		log:        log.With("component", "assets"),
		client:     client,
		cache:      cfg.Cache,
		onReady:    cfg.OnReplacementReady,
		onNatural:  cfg.OnNaturalLoaded,
		watchFiles: cfg.WatchFiles,
		done:       make(chan struct{}),
	}
}

// LoadReplacement starts the one-shot decode of the replacement asset.
func (l *Loader) LoadReplacement(d Descriptor) {
	src := d.BestSource()
	if src == "" {
		return
	}

	l.mu.Lock()
	l.replacement.src = src
	l.replacement.ready = false
	l.replacement.probe = nil
	l.mu.Unlock()

	l.spawn(func() { l.loadReplacement(src) })
}

// ReplacementReady reports whether the replacement asset decoded.
func (l *Loader) ReplacementReady() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.replacement.ready
}

// ReplacementSize returns the replacement's natural resolution once ready.
func (l *Loader) ReplacementSize() (geometry.Size, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.replacement.ready {
		return geometry.Size{}, false
	}
	return l.replacement.probe.Size(), true
}

// ReplacementImage returns the decoded replacement image once ready.
func (l *Loader) ReplacementImage() (image.Image, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.replacement.ready {
		return nil, false
	}
	return l.replacement.probe.Image, true
}

// Reset clears replacement readiness when a zoom session ends.
func (l *Loader) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.replacement.src = ""
	l.replacement.ready = false
	l.replacement.probe = nil
}

// LoadNatural starts a background decode of the inline image's own source,
// replacing any previous natural asset. For file-backed sources the loader
// keeps the decode fresh across rewrites when watching is enabled.
func (l *Loader) LoadNatural(source string) {
	l.mu.Lock()
	l.natural.src = source
	l.mu.Unlock()

	if source == "" {
		return
	}
	if l.watchFiles && !isRemote(source) {
		l.watchFile(localPath(source))
	}

	l.spawn(func() { l.loadNatural(source) })
}

// Reload re-triggers the natural decode for the current source. This is the
// "source reported a fresh load" path.
func (l *Loader) Reload() {
	l.mu.Lock()
	src := l.natural.src
	l.mu.Unlock()
	if src == "" {
		return
	}

	l.spawn(func() { l.loadNatural(src) })
}

// NaturalSize returns the inline image's true resolution once decoded.
func (l *Loader) NaturalSize() (geometry.Size, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.natural.probe == nil {
		return geometry.Size{}, false
	}
	return l.natural.probe.Size(), true
}

// NaturalImage returns the decoded natural image, if any.
func (l *Loader) NaturalImage() (image.Image, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.natural.probe == nil {
		return nil, false
	}
	return l.natural.probe.Image, true
}

// Close stops the file watcher and waits for in-flight decodes.
// It is safe to call more than once.
func (l *Loader) Close() error {
	var err error
	l.closeOnce.Do(func() {
		close(l.done)
		l.wg.Wait()

		l.mu.Lock()
		w := l.watcher
		l.watcher = nil
		l.mu.Unlock()
		if w != nil {
			err = w.Close()
		}
	})
	return err
}

// spawn runs fn on its own goroutine unless the loader is closing.
func (l *Loader) spawn(fn func()) {
	select {
	case <-l.done:
		return
	default:
	}
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		fn()
	}()
}

func (l *Loader) loadReplacement(src string) {
	probe, err := l.probeSource(src)
	if err != nil {
		// No retry: the zoom view keeps the original-resolution asset.
		l.log.Debug("replacement load failed", "source", src, "error", err)
		return
	}

	l.mu.Lock()
	if l.replacement.src != src || l.replacement.ready {
		l.mu.Unlock()
		return
	}
	l.replacement.ready = true
	l.replacement.probe = probe
	cb := l.onReady
	l.mu.Unlock()

	if cb != nil {
		cb()
	}
}

func (l *Loader) loadNatural(src string) {
	probe, err := l.probeSource(src)
	if err != nil {
		l.log.Debug("natural load failed", "source", src, "error", err)
		return
	}

	l.mu.Lock()
	if l.natural.src != src {
		// Superseded while decoding; the late result is ignored.
		l.mu.Unlock()
		return
	}
	l.natural.probe = probe
	cb := l.onNatural
	l.mu.Unlock()

	if cb != nil {
		cb(probe)
	}
}

// probeSource fetches and decodes one source, consulting the cache for
// remote sources. Cache failures are logged, never fatal.
func (l *Loader) probeSource(src string) (*Probe, error) {
	if l.cache != nil && isRemote(src) {
		if e, ok, err := l.cache.Get(src); err != nil {
			l.log.Warn("cache lookup failed", "source", src, "error", err)
		} else if ok && len(e.Payload) > 0 {
			if probe, err := decodeProbe(src, e.Payload); err == nil {
				return probe, nil
			}
		}
	}

	data, err := fetch(l.client, src)
	if err != nil {
		return nil, err
	}
	probe, err := decodeProbe(src, data)
	if err != nil {
		return nil, err
	}

	if l.cache != nil && isRemote(src) {
		err := l.cache.Put(&store.Entry{
			Source:  src,
			Width:   probe.Width,
			Height:  probe.Height,
			Payload: data,
		})
		if err != nil {
			l.log.Warn("cache store failed", "source", src, "error", err)
		}
	}

	return probe, nil
}

// watchFile points the freshness watcher at a new file-backed source.
func (l *Loader) watchFile(path string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.watcher == nil {
		w, err := fsnotify.NewWatcher()
		if err != nil {
			l.log.Warn("file watching unavailable", "error", err)
			l.watchFiles = false
			return
		}
		l.watcher = w
		l.spawn(func() { l.watchLoop(w) })
	}

	if l.watched == path {
		return
	}
	if l.watched != "" {
		l.watcher.Remove(l.watched)
	}
	if err := l.watcher.Add(path); err != nil {
		l.log.Debug("watch add failed", "path", path, "error", err)
		return
	}
	l.watched = path
}

func (l *Loader) watchLoop(w *fsnotify.Watcher) {
	for {
		select {
		case <-l.done:
			return
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			l.Reload()
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			l.log.Debug("watch error", "error", err)
		}
	}
}
