package glb

import (
	"math"
	"testing"

	vm "github.com/Faultbox/glbviewer/pkg/math"
)

func animatedFixture(t *testing.T) []byte {
	t.Helper()
	b := &glbBuilder{}
	pos, idx := triangle(b, t, [3][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}})

	linTimes := b.add(t, []float32{0, 1, 2}, compFloat, "SCALAR", 3)
	linValues := b.add(t, [][3]float32{{0, 0, 0}, {2, 0, 0}, {4, 0, 0}}, compFloat, "VEC3", 3)
	stepTimes := b.add(t, []float32{0, 1}, compFloat, "SCALAR", 2)
	stepValues := b.add(t, [][3]float32{{1, 1, 1}, {2, 2, 2}}, compFloat, "VEC3", 2)
	half := float32(math.Sqrt2 / 2)
	rotValues := b.add(t, [][4]float32{{0, 0, 0, 1}, {0, half, 0, half}}, compFloat, "VEC4", 2)

	return b.build(t, map[string]any{
		"meshes": []any{map[string]any{"primitives": []any{map[string]any{
			"attributes": map[string]int{"POSITION": pos},
			"indices":    idx,
		}}}},
		"nodes": []any{
			map[string]any{"name": "mover", "mesh": 0},
			map[string]any{"name": "spinner"},
		},
		"scenes": []any{map[string]any{"nodes": []int{0, 1}}},
		"scene":  0,
		"animations": []any{map[string]any{
			"name": "move",
			"samplers": []any{
				map[string]any{"input": linTimes, "output": linValues},
				map[string]any{"input": stepTimes, "output": stepValues, "interpolation": "STEP"},
				map[string]any{"input": stepTimes, "output": rotValues},
			},
			"channels": []any{
				map[string]any{"sampler": 0, "target": map[string]any{"node": 0, "path": "translation"}},
				map[string]any{"sampler": 1, "target": map[string]any{"node": 0, "path": "scale"}},
				map[string]any{"sampler": 2, "target": map[string]any{"node": 1, "path": "rotation"}},
				map[string]any{"sampler": 0, "target": map[string]any{"path": "translation"}},
			},
		}},
	})
}

func TestDecodeAnimation(t *testing.T) {
	m, err := Decode(animatedFixture(t))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(m.Animations) != 1 {
		t.Fatalf("got %d animations, want 1", len(m.Animations))
	}
	a := m.Animations[0]
	if a.Name != "move" || a.Duration != 2 {
		t.Errorf("animation = %q, duration %v", a.Name, a.Duration)
	}
	if len(a.Channels) != 3 {
		t.Errorf("got %d channels, want 3 (targetless channel skipped)", len(a.Channels))
	}
}

func TestSample(t *testing.T) {
	m, err := Decode(animatedFixture(t))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	tests := []struct {
		name     string
		seconds  float32
		wantX    float32
		wantS    float32
		wantTurn float32 // rotation angle about Y, radians
	}{
		{"start", 0, 0, 1, 0},
		{"mid first segment", 0.5, 1, 1, math.Pi / 4},
		{"step switches at key", 1, 2, 2, math.Pi / 2},
		{"second segment", 1.5, 3, 2, math.Pi / 2},
		{"wraps at duration", 2.5, 1, 1, math.Pi / 4},
		{"negative wraps", -0.5, 3, 2, math.Pi / 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m.Sample(0, tt.seconds)
			mover := m.Nodes[0]
			if math.Abs(float64(mover.Translation.X-tt.wantX)) > 1e-5 {
				t.Errorf("translation.x = %v, want %v", mover.Translation.X, tt.wantX)
			}
			if mover.Scale.X != tt.wantS {
				t.Errorf("scale.x = %v, want %v", mover.Scale.X, tt.wantS)
			}
			got := m.Nodes[1].Rotation
			want := vm.QuatFromAxisAngle(vm.Vec3{Y: 1}, tt.wantTurn)
			if math.Abs(float64(got.Dot(want))) < 0.9999 {
				t.Errorf("rotation = %v, want %v", got, want)
			}
		})
	}
}

func TestSampleOutOfRangeAndReset(t *testing.T) {
	m, err := Decode(animatedFixture(t))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	m.Sample(5, 1)
	if m.Nodes[0].Translation != (vm.Vec3{}) {
		t.Error("out of range animation changed the pose")
	}

	m.Sample(0, 1.5)
	m.ResetPose()
	if m.Nodes[0].Translation != (vm.Vec3{}) || m.Nodes[0].Scale != (vm.Vec3{X: 1, Y: 1, Z: 1}) {
		t.Errorf("ResetPose left %v / %v", m.Nodes[0].Translation, m.Nodes[0].Scale)
	}
}

func TestJointMatrices(t *testing.T) {
	b := &glbBuilder{}
	pos := b.add(t, [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}, compFloat, "VEC3", 3)
	idx := b.add(t, []uint32{0, 1, 2}, compUInt, "SCALAR", 3)
	joints := b.add(t, [][4]uint16{{0, 1, 0, 0}, {0, 1, 0, 0}, {1, 0, 0, 0}}, compUShort, "VEC4", 3)
	weights := b.add(t, [][4]float32{{0.5, 0.5, 0, 0}, {1, 0, 0, 0}, {1, 0, 0, 0}}, compFloat, "VEC4", 3)
	ibm := b.add(t, [][16]float32{
		vm.Identity(),
		vm.Translate(vm.Vec3{Y: -1}),
	}, compFloat, "MAT4", 2)

	data := b.build(t, map[string]any{
		"materials": []any{map[string]any{"name": "skin"}},
		"meshes": []any{map[string]any{"primitives": []any{map[string]any{
			"attributes": map[string]int{"POSITION": pos, "JOINTS_0": joints, "WEIGHTS_0": weights},
			"indices":    idx,
			"material":   0,
		}}}},
		"nodes": []any{
			map[string]any{"name": "root", "children": []int{1}},
			map[string]any{"name": "tip", "translation": []float32{0, 1, 0}},
			map[string]any{"name": "body", "mesh": 0, "skin": 0},
		},
		"skins":  []any{map[string]any{"joints": []int{0, 1}, "inverseBindMatrices": ibm}},
		"scenes": []any{map[string]any{"nodes": []int{0, 2}}},
		"scene":  0,
	})

	m, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !m.Material(0).Skinned {
		t.Error("material used by a skinned primitive should be marked skinned")
	}
	if p := m.Meshes[0].Primitives[0]; !p.Skinned() {
		t.Error("primitive should be skinned")
	}
	if m.Nodes[2].Skin != 0 {
		t.Errorf("body skin = %d, want 0", m.Nodes[2].Skin)
	}

	rest := m.JointMatrices(0, nil)
	if len(rest) != 2 {
		t.Fatalf("got %d joint matrices, want 2", len(rest))
	}
	for i, j := range rest {
		if !j.ApproxEqual(vm.Identity(), 1e-5) {
			t.Errorf("rest joint %d = %v, want identity", i, j)
		}
	}

	m.Nodes[1].Translation = vm.Vec3{X: 1, Y: 1}
	moved := m.JointMatrices(0, nil)
	if !moved[1].ApproxEqual(vm.Translate(vm.Vec3{X: 1}), 1e-5) {
		t.Errorf("moved joint = %v, want translate(1, 0, 0)", moved[1])
	}
	if m.JointMatrices(3, nil) != nil {
		t.Error("unknown skin should yield nil")
	}
}

func TestSkinWithMissingJointRejected(t *testing.T) {
	b := &glbBuilder{}
	pos, idx := triangle(b, t, [3][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}})
	data := b.build(t, map[string]any{
		"meshes": []any{map[string]any{"primitives": []any{map[string]any{
			"attributes": map[string]int{"POSITION": pos},
			"indices":    idx,
		}}}},
		"nodes": []any{
			map[string]any{"name": "root"},
			map[string]any{"name": "body", "mesh": 0, "skin": 0},
		},
		// Joint 1 names a node that does not exist; joint 2 would shift
		// into its slot if it were dropped.
		"skins":  []any{map[string]any{"joints": []int{0, 7, 1}}},
		"scenes": []any{map[string]any{"nodes": []int{0, 1}}},
		"scene":  0,
	})

	if _, err := Decode(data); err == nil {
		t.Fatal("Decode accepted a skin with a missing joint node")
	}
}
