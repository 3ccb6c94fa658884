package glb

import (
	"fmt"
	"math"
	"sort"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	vm "github.com/Faultbox/glbviewer/pkg/math"
)

// Path is the node property an animation channel drives.
type Path int

const (
	PathTranslation Path = iota
	PathRotation
	PathScale
)

// Interpolation selects how values between keyframes are computed.
type Interpolation int

const (
	InterpolationLinear Interpolation = iota
	InterpolationStep
)

// Channel animates one property of one node. Values hold xyz in the first
// three components for translation and scale, xyzw for rotation.
type Channel struct {
	Node          int
	Path          Path
	Interpolation Interpolation
	Times         []float32
	Values        [][4]float32
}

// Animation is a named set of channels sharing one timeline.
type Animation struct {
	Name     string
	Channels []Channel
	Duration float32
}

func (d *decoder) animations() error {
	for ai, src := range d.doc.Animations {
		anim := Animation{Name: src.Name}
		for ci, ch := range src.Channels {
			c, ok, err := d.channel(src, ch)
			if err != nil {
				return fmt.Errorf("glb: animation %d channel %d: %w", ai, ci, err)
			}
			if !ok {
				continue
			}
			if last := c.Times[len(c.Times)-1]; last > anim.Duration {
				anim.Duration = last
			}
			anim.Channels = append(anim.Channels, c)
		}
		if len(anim.Channels) > 0 {
			d.model.Animations = append(d.model.Animations, anim)
		}
	}
	return nil
}

// channel converts one glTF channel. Morph-target weights and channels with
// missing targets are skipped.
func (d *decoder) channel(anim *gltf.Animation, ch *gltf.AnimationChannel) (Channel, bool, error) {
	var c Channel
	node, ok := ref(ch.Target.Node)
	if !ok || node < 0 || node >= len(d.model.Nodes) {
		return c, false, nil
	}
	c.Node = node

	switch ch.Target.Path {
	case gltf.TRSTranslation:
		c.Path = PathTranslation
	case gltf.TRSRotation:
		c.Path = PathRotation
	case gltf.TRSScale:
		c.Path = PathScale
	default:
		return c, false, nil
	}

	si, ok := ref(ch.Sampler)
	if !ok || si < 0 || si >= len(anim.Samplers) {
		return c, false, fmt.Errorf("sampler out of range")
	}
	sampler := anim.Samplers[si]

	in, _ := ref(sampler.Input)
	acr, err := d.accessor(in)
	if err != nil {
		return c, false, err
	}
	raw, err := modeler.ReadAccessor(d.doc, acr, nil)
	if err != nil {
		return c, false, fmt.Errorf("input: %w", err)
	}
	times, ok := raw.([]float32)
	if !ok || len(times) == 0 {
		return c, false, fmt.Errorf("input has type %T", raw)
	}
	c.Times = times

	out, _ := ref(sampler.Output)
	if acr, err = d.accessor(out); err != nil {
		return c, false, err
	}
	if raw, err = modeler.ReadAccessor(d.doc, acr, nil); err != nil {
		return c, false, fmt.Errorf("output: %w", err)
	}
	values, err := toVec4(raw)
	if err != nil {
		return c, false, err
	}

	switch sampler.Interpolation {
	case gltf.InterpolationStep:
		c.Interpolation = InterpolationStep
	case gltf.InterpolationCubicSpline:
		// Keep the value element of each in-tangent/value/out-tangent triplet.
		keep := make([][4]float32, 0, len(values)/3)
		for i := 1; i < len(values); i += 3 {
			keep = append(keep, values[i])
		}
		values = keep
	}
	if len(values) < len(times) {
		return c, false, fmt.Errorf("%d keyframes but %d values", len(times), len(values))
	}
	c.Values = values[:len(times)]
	return c, true, nil
}

// toVec4 widens output values, decoding normalized integer rotations.
func toVec4(raw any) ([][4]float32, error) {
	switch v := raw.(type) {
	case [][3]float32:
		out := make([][4]float32, len(v))
		for i, x := range v {
			out[i] = [4]float32{x[0], x[1], x[2], 0}
		}
		return out, nil
	case [][4]float32:
		return v, nil
	case [][4]int8:
		out := make([][4]float32, len(v))
		for i, x := range v {
			for k := range x {
				out[i][k] = max(float32(x[k])/127, -1)
			}
		}
		return out, nil
	case [][4]int16:
		out := make([][4]float32, len(v))
		for i, x := range v {
			for k := range x {
				out[i][k] = max(float32(x[k])/32767, -1)
			}
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported output type %T", raw)
}

// Sample poses the model at seconds into animation index. Time wraps at the
// animation's duration. Out of range indices are ignored.
func (m *Model) Sample(index int, seconds float32) {
	if index < 0 || index >= len(m.Animations) {
		return
	}
	anim := &m.Animations[index]
	t := wrap(seconds, anim.Duration)

	for i := range anim.Channels {
		c := &anim.Channels[i]
		n := &m.Nodes[c.Node]
		n.Matrix = nil

		v := c.sample(t)
		switch c.Path {
		case PathTranslation:
			n.Translation = vm.Vec3{X: v[0], Y: v[1], Z: v[2]}
		case PathScale:
			n.Scale = vm.Vec3{X: v[0], Y: v[1], Z: v[2]}
		case PathRotation:
			n.Rotation = vm.Q4(v).Normalize()
		}
	}
}

func wrap(t, duration float32) float32 {
	if duration <= 0 {
		return 0
	}
	t = float32(math.Mod(float64(t), float64(duration)))
	if t < 0 {
		t += duration
	}
	return t
}

func (c *Channel) sample(t float32) [4]float32 {
	last := len(c.Times) - 1
	if t <= c.Times[0] {
		return c.Values[0]
	}
	if t >= c.Times[last] {
		return c.Values[last]
	}

	// First keyframe strictly after t.
	hi := sort.Search(len(c.Times), func(i int) bool { return c.Times[i] > t })
	lo := hi - 1
	if c.Interpolation == InterpolationStep {
		return c.Values[lo]
	}

	span := c.Times[hi] - c.Times[lo]
	f := float32(0)
	if span > 0 {
		f = (t - c.Times[lo]) / span
	}
	a, b := c.Values[lo], c.Values[hi]
	if c.Path == PathRotation {
		q := vm.Q4(a).Slerp(vm.Q4(b), f)
		return [4]float32{q.X, q.Y, q.Z, q.W}
	}
	return [4]float32{
		a[0] + (b[0]-a[0])*f,
		a[1] + (b[1]-a[1])*f,
		a[2] + (b[2]-a[2])*f,
		0,
	}
}
