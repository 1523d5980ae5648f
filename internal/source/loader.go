package source

import (
	"context"
	"image"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/semaphore"
)

// Result is delivered once per requested background.
type Result struct {
	Index  int
	Ref    string
	Width  float64
	Height float64
	Err    error
}

// OpenFunc decodes a reference. Tests swap it for an in-memory table.
type OpenFunc func(ref string, dpi int) (image.Image, error)

// Loader decodes backgrounds in the background with bounded concurrency and
// posts results on a channel the host drains from its own loop.
type Loader struct {
	log     *log.Logger
	open    OpenFunc
	dpi     int
	sem     *semaphore.Weighted
	results chan Result

	mu       sync.RWMutex
	images   map[int]image.Image
	inflight map[int]bool
	wg       sync.WaitGroup
}

type LoaderOption func(*Loader)

func WithOpenFunc(fn OpenFunc) LoaderOption {
	return func(l *Loader) { l.open = fn }
}

// WithDPI sets the resolution PDF pages are rendered at. Non-positive values
// keep DefaultDPI.
func WithDPI(dpi int) LoaderOption {
	return func(l *Loader) {
		if dpi > 0 {
			l.dpi = dpi
		}
	}
}

func WithLogger(logger *log.Logger) LoaderOption {
	return func(l *Loader) { l.log = logger }
}

// NewLoader allows up to concurrency decodes at once.
func NewLoader(concurrency int, opts ...LoaderOption) *Loader {
	if concurrency < 1 {
		concurrency = 1
	}
	l := &Loader{
		log:      log.Default(),
		open:     Open,
		dpi:      DefaultDPI,
		sem:      semaphore.NewWeighted(int64(concurrency)),
		results:  make(chan Result, 64),
		images:   make(map[int]image.Image),
		inflight: make(map[int]bool),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Results is the channel completed loads arrive on.
func (l *Loader) Results() <-chan Result { return l.results }

// Request starts loading ref for section index unless it is already loaded
// or loading. It never blocks the caller.
func (l *Loader) Request(ctx context.Context, index int, ref string) {
	l.mu.Lock()
	if l.inflight[index] || l.images[index] != nil {
		l.mu.Unlock()
		return
	}
	l.inflight[index] = true
	l.mu.Unlock()

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		res := l.load(ctx, index, ref)
		select {
		case l.results <- res:
		case <-ctx.Done():
		}
	}()
}

func (l *Loader) load(ctx context.Context, index int, ref string) Result {
	res := Result{Index: index, Ref: ref}
	defer func() {
		l.mu.Lock()
		delete(l.inflight, index)
		l.mu.Unlock()
	}()

	if err := l.sem.Acquire(ctx, 1); err != nil {
		res.Err = err
		return res
	}
	defer l.sem.Release(1)

	img, err := l.open(ref, l.dpi)
	if err != nil {
		res.Err = err
		return res
	}

	b := img.Bounds()
	res.Width, res.Height = float64(b.Dx()), float64(b.Dy())

	l.mu.Lock()
	l.images[index] = img
	l.mu.Unlock()
	l.log.Debug("background loaded", "section", index, "ref", ref, "size", b.Size())
	return res
}

// Image returns the decoded background for index, nil while not loaded.
func (l *Loader) Image(index int) image.Image {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.images[index]
}

// Wait blocks until every requested load has posted its result. Results must
// be drained concurrently or the channel buffer must be large enough.
func (l *Loader) Wait() {
	l.wg.Wait()
}
