// Package stage owns the choreography of one page: section layout, the
// per-section binding arena, the crossfade controller and the reveal
// timelines. A Stage is driven from a single goroutine; hosts feed it scroll,
// resize and image events and read Snapshot for output.
package stage

import (
	"errors"
	"math"

	"github.com/charmbracelet/log"

	"github.com/ivlev/scrollreel/internal/config"
	"github.com/ivlev/scrollreel/internal/crossfade"
	"github.com/ivlev/scrollreel/internal/effects"
	"github.com/ivlev/scrollreel/internal/geometry"
	"github.com/ivlev/scrollreel/internal/reveal"
	"github.com/ivlev/scrollreel/internal/scroll"
)

const (
	DefaultDebounce = 0.15
	// RevealLine is where a section's top must reach (fraction of viewport
	// height from the top) before its text starts revealing.
	RevealLine = 0.68
	// PreloadThreshold is the visible fraction that requests a background.
	PreloadThreshold = 0.15
)

// LoadStatus of a section background.
type LoadStatus int

const (
	Pending LoadStatus = iota
	Ready
	Failed
)

func (s LoadStatus) String() string {
	switch s {
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return "pending"
	}
}

// Options configures a Stage.
type Options struct {
	Width, Height float64

	// ReducedMotion is sampled once at construction.
	ReducedMotion bool
	// NoAnimation marks the animation capability as unavailable; text is
	// shown statically while backgrounds still scrub.
	NoAnimation bool

	Debounce float64
	FadeIn   float64
	FadeOut  float64
	Reveal   reveal.Options

	// Preload is called at most once per section when its background should
	// start loading.
	Preload func(index int)

	Logger *log.Logger
}

// Section is the runtime state of one page section.
type Section struct {
	Index   int
	Config  config.Section
	Effect  effects.Effect
	Top     float64
	Height  float64
	Status  LoadStatus
	ImageW  float64
	ImageH  float64
	Fit     geometry.Fit
	Spec    effects.Spec
	HasSpec bool
	Current effects.Transform
	// Drift is the vertical sink applied on top of Current.
	Drift    float64
	Timeline *reveal.Timeline

	requested bool
}

// slot is the arena entry for one section. Every handle in it must be
// released before the slot is refilled.
type slot struct {
	scrub  *scroll.Binding
	fade   *scroll.Binding
	reveal *scroll.Binding
}

func (s *slot) releaseScrub() {
	s.scrub.Release()
	s.scrub = nil
}

func (s *slot) release() {
	s.releaseScrub()
	s.fade.Release()
	s.reveal.Release()
	s.fade, s.reveal = nil, nil
}

// fadeDispatch collects the activations fired by a single scroll. A jump may
// cross several fade ranges at once; the one a continuous scroll would have
// crossed last wins.
type fadeDispatch struct {
	up    bool
	index int
	fired bool
}

func (d *fadeDispatch) propose(i int) {
	if !d.fired || (d.up && i < d.index) || (!d.up && i > d.index) {
		d.index, d.fired = i, true
	}
}

type pendingResize struct {
	w, h  float64
	quiet float64
}

// Stage is the explicitly owned controller for a page.
type Stage struct {
	log  *log.Logger
	opts Options

	sections []*Section
	arena    []slot

	vw, vh float64

	driver   *scroll.Driver
	fader    *crossfade.TweenFader
	fade     *crossfade.Controller
	observer *scroll.Observer
	dispatch *fadeDispatch

	generation int
	resize     *pendingResize
	started    bool
}

// New builds a stage for story. Nothing is bound until Start.
func New(story *config.Story, opts Options) (*Stage, error) {
	if story == nil || len(story.Sections) == 0 {
		return nil, errors.New("stage: story has no sections")
	}
	if !(opts.Width > 0) || !(opts.Height > 0) {
		return nil, errors.New("stage: viewport must be positive")
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	pacing := opts.Reveal
	if pacing == (reveal.Options{}) {
		pacing = reveal.Options{
			SecondsPerWord:  story.Reveal.SecondsPerWord,
			SpeedMultiplier: story.Reveal.SpeedMultiplier,
			MinHold:         story.Reveal.MinHold,
			MaxHold:         story.Reveal.MaxHold,
		}
	}

	n := len(story.Sections)
	s := &Stage{
		log:      opts.Logger,
		opts:     opts,
		sections: make([]*Section, n),
		arena:    make([]slot, n),
		vw:       opts.Width,
		vh:       opts.Height,
		driver:   scroll.NewDriver(),
		fader:    crossfade.NewTweenFader(n),
	}

	fadeOpts := []crossfade.Option{crossfade.WithReducedMotion(opts.ReducedMotion)}
	if opts.FadeIn > 0 || opts.FadeOut > 0 {
		fadeOpts = append([]crossfade.Option{crossfade.WithDurations(opts.FadeIn, opts.FadeOut)}, fadeOpts...)
	}
	s.fade = crossfade.New(n, s.fader, fadeOpts...)
	s.observer = scroll.NewObserver(PreloadThreshold, s.onVisibility)

	for i, sc := range story.Sections {
		e, ok := effects.Parse(sc.Effect)
		if !ok && sc.Effect != "" {
			s.log.Debug("unknown effect, using default", "section", i, "effect", sc.Effect, "default", e)
		}
		s.sections[i] = &Section{
			Index:    i,
			Config:   sc,
			Effect:   e,
			Current:  effects.Identity,
			Timeline: reveal.New(elementsOf(sc), pacing),
		}
	}
	s.layout()
	return s, nil
}

func elementsOf(sc config.Section) []reveal.Element {
	var els []reveal.Element
	if sc.HasContent() {
		els = append(els, reveal.Element{Kind: reveal.Content, Text: sc.Title})
	}
	for _, line := range sc.Lines {
		els = append(els, reveal.Element{Kind: reveal.Line, Text: line})
	}
	if sc.CTA != nil {
		els = append(els, reveal.Element{Kind: reveal.CallToAction, Text: sc.CTA.Label})
	}
	return els
}

func (s *Stage) layout() {
	top := 0.0
	for _, sec := range s.sections {
		sec.Top = top
		sec.Height = sec.Config.Height * s.vh
		if !(sec.Height > 0) {
			sec.Height = s.vh
		}
		top += sec.Height
	}
}

// Start performs the first build: the first background is requested, every
// binding is installed and sections already in view start revealing.
func (s *Stage) Start() {
	if s.started {
		return
	}
	s.started = true
	s.request(0)
	s.rebuild()
}

// Rebuild recomputes every section's geometry and bindings for the current
// viewport. It is idempotent.
func (s *Stage) Rebuild() {
	s.rebuild()
}

func (s *Stage) rebuild() {
	s.generation++

	s.Release()
	s.layout()

	// resizing may shrink the document under the current offset
	y := s.clamp(s.driver.Offset())
	s.driver.Scroll(y)

	for i := range s.sections {
		s.bindSection(i)
	}

	s.fade.Activate(s.activeAt(y))
	s.observer.Reset()
	s.observe(y)

	s.log.Debug("rebuilt bindings",
		"generation", s.generation,
		"viewport", []float64{s.vw, s.vh},
		"listeners", s.driver.Len(),
		"active", s.fade.Active())
}

func (s *Stage) bindSection(i int) {
	sec := s.sections[i]
	sl := &s.arena[i]
	sl.release()

	s.bindScrub(i)

	fadeStart := scroll.EdgeOffset(sec.Top, sec.Height, s.vh, 0.5, 0.5)
	fadeEnd := scroll.EdgeOffset(sec.Top, sec.Height, s.vh, 1, 0.5)
	sl.fade = s.driver.Bind(scroll.Trigger{
		Start:       fadeStart,
		End:         fadeEnd,
		OnEnter:     func() { s.proposeActive(i) },
		OnEnterBack: func() { s.proposeActive(i) },
	})

	if s.staticText() {
		sec.Timeline.ShowAll()
		return
	}
	tl := sec.Timeline
	sl.reveal = s.driver.Bind(scroll.Trigger{
		Start:       scroll.EdgeOffset(sec.Top, sec.Height, s.vh, 0, RevealLine),
		End:         scroll.EdgeOffset(sec.Top, sec.Height, s.vh, 1, 0),
		OnEnter:     tl.Play,
		OnEnterBack: tl.Play,
		OnLeave:     tl.Reset,
		OnLeaveBack: tl.Reset,
	})
	s.syncReveal(tl, sl.reveal.Region())
}

// syncReveal brings a timeline in line with the region its fresh trigger was
// bound in: inside plays from the start, anywhere else is reset.
func (s *Stage) syncReveal(tl *reveal.Timeline, region scroll.Region) {
	switch {
	case region == scroll.Inside && tl.State() == reveal.Reset:
		tl.Play()
	case region != scroll.Inside && tl.State() != reveal.Reset:
		tl.Reset()
	}
}

// bindScrub recomputes the effect spec of section i and installs a fresh
// scrub binding. Sections still waiting for their image stay unbound.
func (s *Stage) bindScrub(i int) {
	sec := s.sections[i]
	sl := &s.arena[i]
	sl.releaseScrub()

	sec.Drift = 0
	if sec.Status == Pending {
		sec.HasSpec = false
		sec.Current = effects.Identity
		return
	}

	iw, ih := sec.ImageW, sec.ImageH
	sec.Fit = geometry.Compute(iw, ih, s.vw, s.vh)
	sec.Spec = effects.Select(sec.Effect, effects.Multiplier(sec.Config.IntensityAmount()), sec.Fit)
	sec.HasSpec = true

	if s.opts.ReducedMotion {
		sec.Current = sec.Spec.To
		return
	}

	start, end := scroll.SectionRange(sec.Top, sec.Height, s.vh)
	spec, vh := sec.Spec, s.vh
	sl.scrub = s.driver.Bind(scroll.Trigger{
		Start: start,
		End:   end,
		Scrub: func(p float64) {
			sec.Current = spec.At(p)
			sec.Drift = effects.Drift(p, vh)
		},
	})
}

func (s *Stage) staticText() bool {
	return s.opts.ReducedMotion || s.opts.NoAnimation
}

// activeAt is the last section whose activation boundary lies at or above y.
func (s *Stage) activeAt(y float64) int {
	active := 0
	for i, sec := range s.sections {
		if scroll.EdgeOffset(sec.Top, sec.Height, s.vh, 0.5, 0.5) <= y {
			active = i
		}
	}
	return active
}

// Activate makes section index the dominant background.
func (s *Stage) Activate(index int) {
	if s.fade.Activate(index) {
		s.log.Debug("background activated", "section", index)
	}
}

func (s *Stage) proposeActive(i int) {
	if s.dispatch == nil {
		s.Activate(i)
		return
	}
	s.dispatch.propose(i)
}

// Release detaches every binding held by the arena.
func (s *Stage) Release() {
	for i := range s.arena {
		s.arena[i].release()
	}
}

// Scroll moves the document offset. Offsets are clamped to the scrollable range.
func (s *Stage) Scroll(y float64) {
	y = s.clamp(y)
	d := &fadeDispatch{up: y < s.driver.Offset()}
	s.dispatch = d
	s.driver.Scroll(y)
	s.dispatch = nil
	if d.fired {
		s.Activate(d.index)
	}
	s.observe(y)
}

// ScrollBy moves the offset relative to its current value.
func (s *Stage) ScrollBy(dy float64) {
	s.Scroll(s.driver.Offset() + dy)
}

// Resize schedules a rebuild for a new viewport once resizing has been quiet
// for the debounce period. A later call replaces an earlier pending one.
func (s *Stage) Resize(w, h float64) {
	if !(w > 0) || !(h > 0) {
		return
	}
	s.resize = &pendingResize{w: w, h: h, quiet: s.opts.Debounce}
}

// ResizePending reports whether a debounced rebuild is waiting.
func (s *Stage) ResizePending() bool { return s.resize != nil }

// Update advances the engine clock by dt seconds.
func (s *Stage) Update(dt float64) {
	if dt < 0 || math.IsNaN(dt) {
		dt = 0
	}
	if r := s.resize; r != nil {
		r.quiet -= dt
		if r.quiet <= 0 {
			s.resize = nil
			s.applyResize(r.w, r.h)
		}
	}
	s.fader.Update(dt)
	for _, sec := range s.sections {
		sec.Timeline.Update(dt)
	}
}

func (s *Stage) applyResize(w, h float64) {
	if w == s.vw && h == s.vh {
		s.log.Debug("resize settled on current viewport", "width", w, "height", h)
	}
	s.vw, s.vh = w, h
	if s.started {
		s.rebuild()
	} else {
		s.layout()
	}
}

// ImageReady records the natural size of section index's background and
// binds that section alone.
func (s *Stage) ImageReady(index int, w, h float64) {
	sec := s.section(index)
	if sec == nil {
		return
	}
	sec.Status = Ready
	sec.ImageW, sec.ImageH = w, h
	if !(w > 0) || !(h > 0) {
		s.log.Warn("background reported no size, using viewport", "section", index)
	}
	if s.started {
		s.bindScrub(index)
	}
}

// ImageFailed marks a background as failed. The section falls back to
// neutral geometry so its neighbours are unaffected.
func (s *Stage) ImageFailed(index int, err error) {
	sec := s.section(index)
	if sec == nil {
		return
	}
	s.log.Warn("background failed to load", "section", index, "ref", sec.Config.Background, "err", err)
	sec.Status = Failed
	sec.ImageW, sec.ImageH = 0, 0
	if s.started {
		s.bindScrub(index)
	}
}

func (s *Stage) section(index int) *Section {
	if index < 0 || index >= len(s.sections) {
		return nil
	}
	return s.sections[index]
}

func (s *Stage) onVisibility(index int, intersecting bool) {
	if intersecting {
		s.request(index)
	}
}

func (s *Stage) request(index int) {
	sec := s.section(index)
	if sec == nil || sec.requested || sec.Status != Pending {
		return
	}
	sec.requested = true
	if s.opts.Preload != nil {
		s.opts.Preload(index)
	}
}

func (s *Stage) observe(y float64) {
	for i, sec := range s.sections {
		s.observer.Observe(i, y, s.vh, sec.Top, sec.Height)
	}
}

func (s *Stage) clamp(y float64) float64 {
	if math.IsNaN(y) || y < 0 {
		return 0
	}
	if m := s.MaxScroll(); y > m {
		return m
	}
	return y
}

// DocumentHeight is the total height of every section.
func (s *Stage) DocumentHeight() float64 {
	last := s.sections[len(s.sections)-1]
	return last.Top + last.Height
}

// MaxScroll is the largest reachable offset.
func (s *Stage) MaxScroll() float64 {
	return max(0, s.DocumentHeight()-s.vh)
}

func (s *Stage) Offset() float64            { return s.driver.Offset() }
func (s *Stage) Viewport() (w, h float64)   { return s.vw, s.vh }
func (s *Stage) Active() int                { return s.fade.Active() }
func (s *Stage) Generation() int            { return s.generation }
func (s *Stage) Listeners() int             { return s.driver.Len() }
func (s *Stage) Len() int                   { return len(s.sections) }
func (s *Stage) Section(index int) *Section { return s.section(index) }

// ScrubBound reports whether section index currently has a scrub binding.
func (s *Stage) ScrubBound(index int) bool {
	if index < 0 || index >= len(s.arena) {
		return false
	}
	return s.arena[index].scrub.Active()
}

// Opacity of section index's background.
func (s *Stage) Opacity(index int) float64 { return s.fader.Opacity(index) }

// Idle reports whether nothing is animating on the clock.
func (s *Stage) Idle() bool {
	if s.resize != nil || s.fader.Fading() {
		return false
	}
	for _, sec := range s.sections {
		if sec.Timeline.State() == reveal.Playing {
			return false
		}
	}
	return true
}
