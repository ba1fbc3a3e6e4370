// Package player owns one video element's transport state and exposes
// imperative control usable from outside the render tree, so asynchronous
// chat events can drive playback the same way direct user actions do.
package player

import (
	"math"
	"sync"
)

// State is the read model, updated from the element's own event stream.
type State struct {
	Playing     bool
	CurrentTime float64
	Duration    float64
	Volume      float64
	Muted       bool
	Fullscreen  bool
	Rate        float64
}

// Coordinator drives a single Element. Lifecycle:
// Idle → Loading (source set, metadata pending) → Ready (duration known)
// → Playing ⇄ Paused → Ended. Seeks are accepted in any state but only
// clamp authoritatively once the current source's metadata is known; a seek
// requested alongside a source change is deferred until then.
type Coordinator struct {
	el Element

	mu          sync.Mutex
	state       State
	src         string
	pendingSeek *float64
	closed      chan struct{}
}

func NewCoordinator(el Element) *Coordinator {
	c := &Coordinator{
		el:     el,
		state:  State{Volume: 1, Rate: 1},
		closed: make(chan struct{}),
	}
	go c.consumeEvents()
	return c
}

func (c *Coordinator) consumeEvents() {
	for {
		select {
		case <-c.closed:
			return
		case ev, ok := <-c.el.Events():
			if !ok {
				return
			}
			c.apply(ev)
		}
	}
}

func (c *Coordinator) apply(ev Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch ev.Kind {
	case EventTimeUpdate:
		c.state.CurrentTime = ev.Time
		if ev.Duration > 0 {
			c.state.Duration = ev.Duration
		}
	case EventMetadataLoaded, EventDurationChange:
		c.state.Duration = ev.Duration
		if c.pendingSeek != nil {
			// The clamp must use the new source's metadata, never the
			// previous source's stale duration.
			t := clamp(*c.pendingSeek, 0, ev.Duration)
			c.pendingSeek = nil
			c.el.Seek(t)
			c.state.CurrentTime = t
		}
	case EventEnded:
		c.state.Playing = false
		c.state.CurrentTime = c.state.Duration
	}
}

// State returns a snapshot of the read model.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Source returns the currently loaded source locator.
func (c *Coordinator) Source() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.src
}

func (c *Coordinator) Play() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.el.Play(); err != nil {
		return
	}
	c.state.Playing = true
}

func (c *Coordinator) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.el.Pause()
	c.state.Playing = false
}

// SeekTo clamps to [0, duration]. Non-finite input is a no-op.
func (c *Coordinator) SeekTo(seconds float64) {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	t := clamp(seconds, 0, c.state.Duration)
	c.el.Seek(t)
	c.state.CurrentTime = t
}

// ChangeSource swaps the source and resets position to startTime once the
// new source's metadata is ready. The previous source's position and
// duration never leak into the new one.
func (c *Coordinator) ChangeSource(src string, startTime float64) {
	if math.IsNaN(startTime) || math.IsInf(startTime, 0) || startTime < 0 {
		startTime = 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.src = src
	c.state.Playing = false
	c.state.CurrentTime = 0
	c.state.Duration = 0
	st := startTime
	c.pendingSeek = &st
	c.el.Load(src)
}

// JumpTo seeks within the current source, or switches source first when the
// locator differs. This is the entry point for both timestamp clicks and
// proactive playback driven by chat answers.
func (c *Coordinator) JumpTo(src string, seconds float64) {
	c.mu.Lock()
	same := c.src == src
	c.mu.Unlock()
	if same {
		c.SeekTo(seconds)
		return
	}
	c.ChangeSource(src, seconds)
}

// SetVolume clamps to [0, 1]. Mute state is untouched.
func (c *Coordinator) SetVolume(v float64) {
	if math.IsNaN(v) {
		return
	}
	v = clamp(v, 0, 1)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.el.SetVolume(v)
	c.state.Volume = v
}

func (c *Coordinator) ToggleMute() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Muted = !c.state.Muted
	c.el.SetMuted(c.state.Muted)
}

func (c *Coordinator) SetPlaybackRate(rate float64) {
	if math.IsNaN(rate) || rate <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.el.SetRate(rate)
	c.state.Rate = rate
}

// ToggleFullscreen enters or leaves fullscreen. Entry failure is non-fatal
// and leaves the flag false.
func (c *Coordinator) ToggleFullscreen() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Fullscreen {
		c.el.ExitFullscreen()
		c.state.Fullscreen = false
		return
	}
	if err := c.el.EnterFullscreen(); err != nil {
		c.state.Fullscreen = false
		return
	}
	c.state.Fullscreen = true
}

// Close stops consuming element events. The element itself is owned by the
// host and disposed there.
func (c *Coordinator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	select {
	case <-c.closed:
	default:
		close(c.closed)
	}
}

func clamp(v, lo, hi float64) float64 {
	if hi < lo {
		hi = lo
	}
	return math.Max(lo, math.Min(v, hi))
}
