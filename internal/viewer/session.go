// Package viewer drives a stage from live input: background loads arrive
// asynchronously, scroll input is applied per tick, frames are composed only
// when something changed, and the position is remembered between runs.
package viewer

import (
	"context"
	"image"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/image/draw"

	"github.com/ivlev/scrollreel/internal/config"
	"github.com/ivlev/scrollreel/internal/renderer"
	"github.com/ivlev/scrollreel/internal/source"
	"github.com/ivlev/scrollreel/internal/stage"
)

const (
	WheelStep = 60.0
	KeyStep   = 12.0
	// PageFraction of the viewport is scrolled by PageUp/PageDown.
	PageFraction = 0.9
)

type Options struct {
	Width, Height int
	ReducedMotion bool
	StaticText    bool
	Debounce      float64
	DPI           int
	// Resume restores and saves the position when set.
	Resume *ResumeStore
	Open   source.OpenFunc
	Logger *log.Logger
}

// Input is one tick's worth of user intent.
type Input struct {
	Wheel    float64 // positive scrolls up
	Up       bool
	Down     bool
	PageUp   bool
	PageDown bool
	Home     bool
	End      bool
	Quit     bool
}

type Session struct {
	log       *log.Logger
	storyPath string

	stage    *stage.Stage
	loader   *source.Loader
	composer *renderer.Composer
	resume   *ResumeStore

	frame  *image.RGBA
	dirty  bool
	closed bool
}

func New(ctx context.Context, story *config.Story, storyPath string, opts Options) (*Session, error) {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	loaderOpts := []source.LoaderOption{source.WithLogger(opts.Logger)}
	if opts.DPI > 0 {
		loaderOpts = append(loaderOpts, source.WithDPI(opts.DPI))
	}
	if opts.Open != nil {
		loaderOpts = append(loaderOpts, source.WithOpenFunc(opts.Open))
	}

	s := &Session{
		log:       opts.Logger,
		storyPath: storyPath,
		loader:    source.NewLoader(2, loaderOpts...),
		resume:    opts.Resume,
		dirty:     true,
	}

	stg, err := stage.New(story, stage.Options{
		Width:         float64(opts.Width),
		Height:        float64(opts.Height),
		ReducedMotion: opts.ReducedMotion,
		NoAnimation:   opts.StaticText,
		Debounce:      opts.Debounce,
		Logger:        opts.Logger,
		Preload: func(index int) {
			s.loader.Request(ctx, index, story.ResolvePath(story.Sections[index].Background))
		},
	})
	if err != nil {
		return nil, err
	}
	s.stage = stg
	s.composer = renderer.NewComposer(s.loader, nil)
	s.composer.Interpolator = draw.ApproxBiLinear

	stg.Start()
	s.restore()
	return s, nil
}

func (s *Session) restore() {
	if s.resume == nil {
		return
	}
	res, ok := s.resume.Load(s.storyPath)
	if !ok {
		return
	}
	s.stage.Scroll(res.Progress * s.stage.MaxScroll())
	s.log.Debug("resumed", "story", s.storyPath, "offset", s.stage.Offset())
}

func (s *Session) Stage() *stage.Stage { return s.stage }

// Step applies one tick of input and advances the engine clock by dt. It
// reports false once the user asked to quit.
func (s *Session) Step(in Input, dt float64) bool {
	s.Drain()

	if in.Quit {
		s.Close()
		return false
	}

	before := s.stage.Offset()
	_, vh := s.stage.Viewport()
	switch {
	case in.Home:
		s.stage.Scroll(0)
	case in.End:
		s.stage.Scroll(s.stage.MaxScroll())
	case in.PageDown:
		s.stage.ScrollBy(vh * PageFraction)
	case in.PageUp:
		s.stage.ScrollBy(-vh * PageFraction)
	}
	if in.Wheel != 0 {
		s.stage.ScrollBy(-in.Wheel * WheelStep)
	}
	if in.Down {
		s.stage.ScrollBy(KeyStep)
	}
	if in.Up {
		s.stage.ScrollBy(-KeyStep)
	}

	if s.stage.Offset() != before || !s.stage.Idle() {
		s.dirty = true
	}
	s.stage.Update(dt)
	return true
}

// Drain feeds finished background loads into the stage without blocking.
func (s *Session) Drain() {
	for {
		select {
		case res := <-s.loader.Results():
			if res.Err != nil {
				s.stage.ImageFailed(res.Index, res.Err)
			} else {
				s.stage.ImageReady(res.Index, res.Width, res.Height)
			}
			s.dirty = true
		default:
			return
		}
	}
}

// Resize forwards a viewport change to the stage's debounced rebuild.
func (s *Session) Resize(w, h int) {
	s.stage.Resize(float64(w), float64(h))
	s.dirty = true
}

// Frame returns the current frame and whether it changed since the last call.
func (s *Session) Frame() (*image.RGBA, bool) {
	snap := s.stage.Snapshot()
	rect := image.Rect(0, 0, int(snap.Width), int(snap.Height))
	if s.frame == nil || s.frame.Rect != rect {
		s.frame = image.NewRGBA(rect)
		s.dirty = true
	}
	if !s.dirty {
		return s.frame, false
	}
	s.composer.ComposeInto(s.frame, snap)
	s.dirty = false
	return s.frame, true
}

// Close saves the resume position. It is safe to call more than once.
func (s *Session) Close() {
	if s.closed {
		return
	}
	s.closed = true
	if s.resume == nil {
		return
	}

	res := Resume{Offset: s.stage.Offset(), SavedAt: time.Now()}
	if m := s.stage.MaxScroll(); m > 0 {
		res.Progress = res.Offset / m
	}
	if err := s.resume.Save(s.storyPath, res); err != nil {
		s.log.Warn("could not save resume position", "err", err)
	}
}
