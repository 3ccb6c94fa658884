package lighting

import "math"

// DirectionalLight is the single sun-style light of a scene.
type DirectionalLight struct {
	Color        [3]float32
	Intensity    float32 // lux
	Direction    [3]float32
	CastsShadows bool
}

// Option configures a DirectionalLight.
type Option func(*DirectionalLight)

// WithColor sets the linear RGB color.
func WithColor(rgb [3]float32) Option {
	return func(l *DirectionalLight) {
		l.Color = rgb
	}
}

// WithKelvin sets the color from a color temperature.
func WithKelvin(kelvin int) Option {
	return func(l *DirectionalLight) {
		l.Color = CCT(kelvin)
	}
}

// WithIntensity sets the illuminance in lux.
func WithIntensity(lux float32) Option {
	return func(l *DirectionalLight) {
		l.Intensity = lux
	}
}

// WithDirection sets the travel direction. It is normalized; a zero vector
// falls back to straight down.
func WithDirection(dir [3]float32) Option {
	return func(l *DirectionalLight) {
		l.Direction = Normalize(dir)
	}
}

// WithCastsShadows toggles shadow casting.
func WithCastsShadows(on bool) Option {
	return func(l *DirectionalLight) {
		l.CastsShadows = on
	}
}

// NewDirectional returns a white, downward, shadow-casting light with the
// given options applied.
func NewDirectional(opts ...Option) DirectionalLight {
	l := DirectionalLight{
		Color:        [3]float32{1, 1, 1},
		Intensity:    100000,
		Direction:    [3]float32{0, -1, 0},
		CastsShadows: true,
	}
	for _, opt := range opts {
		opt(&l)
	}
	return l
}

// Radiance is Color scaled by Intensity and exposure.
func (l DirectionalLight) Radiance(exposure float32) [3]float32 {
	s := l.Intensity * exposure
	return [3]float32{l.Color[0] * s, l.Color[1] * s, l.Color[2] * s}
}

// Normalize returns dir scaled to unit length, or (0, -1, 0) for a zero vector.
func Normalize(dir [3]float32) [3]float32 {
	l := math.Sqrt(float64(dir[0]*dir[0] + dir[1]*dir[1] + dir[2]*dir[2]))
	if l == 0 {
		return [3]float32{0, -1, 0}
	}
	inv := float32(1 / l)
	return [3]float32{dir[0] * inv, dir[1] * inv, dir[2] * inv}
}
