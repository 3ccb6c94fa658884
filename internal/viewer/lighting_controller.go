package viewer

import (
	"sync"

	"go.uber.org/zap"

	"github.com/Faultbox/glbviewer/internal/debounce"
)

// LightingController turns slider input into SetLighting calls: edits are
// coalesced by a trailing debounce and the surviving value is applied on
// the render thread.
type LightingController struct {
	session  *Session
	poster   Poster
	debounce *debounce.Debouncer

	mu      sync.Mutex
	current LightConfig
}

// NewLightingController starts from the session's current light, or its
// configured default.
func NewLightingController(s *Session, poster Poster, d *debounce.Debouncer) *LightingController {
	cur, ok := s.Light()
	if !ok {
		cur = s.opts.Light
	}
	return &LightingController{session: s, poster: poster, debounce: d, current: cur}
}

// Current returns the most recent requested configuration.
func (c *LightingController) Current() LightConfig {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Set requests a full configuration.
func (c *LightingController) Set(cfg LightConfig) {
	c.update(func(l *LightConfig) { *l = cfg })
}

// SetIntensity requests a new intensity.
func (c *LightingController) SetIntensity(lux float32) {
	c.update(func(l *LightConfig) { l.Intensity = lux })
}

// SetKelvin requests a new color temperature.
func (c *LightingController) SetKelvin(kelvin int) {
	c.update(func(l *LightConfig) { l.Kelvin = kelvin })
}

// SetDirection requests a new direction.
func (c *LightingController) SetDirection(dir [3]float32) {
	c.update(func(l *LightConfig) { l.Direction = dir })
}

// Flush applies a pending change without waiting for the delay.
func (c *LightingController) Flush() {
	c.debounce.Flush()
}

// Stop discards a pending change.
func (c *LightingController) Stop() {
	c.debounce.Stop()
}

func (c *LightingController) update(edit func(*LightConfig)) {
	c.mu.Lock()
	edit(&c.current)
	c.mu.Unlock()

	c.debounce.Trigger(func() {
		cfg := c.Current()
		c.poster.Post(func() {
			d := cfg.Direction
			if err := c.session.SetLighting(cfg.Intensity, cfg.Kelvin, d[0], d[1], d[2]); err != nil {
				c.session.log.Warn("applying light", zap.Error(err))
			}
		})
	})
}
