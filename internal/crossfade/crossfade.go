// Package crossfade keeps exactly one section background dominant at a time.
package crossfade

const (
	DefaultFadeIn  = 1.2
	DefaultFadeOut = 1.0
)

// Fader applies an opacity change to one background over duration seconds.
// A zero duration means the change is instant.
type Fader interface {
	FadeTo(index int, target, duration float64)
}

// Controller is the only writer of the active section index.
type Controller struct {
	count   int
	active  int
	fadeIn  float64
	fadeOut float64
	fader   Fader
}

// Option configures a Controller.
type Option func(*Controller)

// WithDurations overrides the fade durations. fadeIn is raised to fadeOut when
// shorter so the incoming background never lags behind the outgoing one.
func WithDurations(fadeIn, fadeOut float64) Option {
	return func(c *Controller) {
		c.fadeIn = max(fadeIn, 0)
		c.fadeOut = max(fadeOut, 0)
		if c.fadeIn < c.fadeOut {
			c.fadeIn = c.fadeOut
		}
	}
}

// WithReducedMotion makes every opacity change instant.
func WithReducedMotion(reduced bool) Option {
	return func(c *Controller) {
		if reduced {
			c.fadeIn, c.fadeOut = 0, 0
		}
	}
}

func New(count int, fader Fader, opts ...Option) *Controller {
	c := &Controller{
		count:   count,
		active:  -1,
		fadeIn:  DefaultFadeIn,
		fadeOut: DefaultFadeOut,
		fader:   fader,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Active returns the dominant index, -1 before the first activation.
func (c *Controller) Active() int { return c.active }

// Durations returns the effective fade-in and fade-out durations.
func (c *Controller) Durations() (fadeIn, fadeOut float64) { return c.fadeIn, c.fadeOut }

// Activate makes index the dominant background. It fades index to 1 and every
// other background to 0. Re-activating the current index is a no-op.
func (c *Controller) Activate(index int) bool {
	if index < 0 || index >= c.count || index == c.active {
		return false
	}
	c.active = index
	for i := 0; i < c.count; i++ {
		if i == index {
			continue
		}
		c.fader.FadeTo(i, 0, c.fadeOut)
	}
	c.fader.FadeTo(index, 1, c.fadeIn)
	return true
}
