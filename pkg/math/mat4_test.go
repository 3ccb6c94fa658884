package math

import (
	"math"
	"testing"
)

func TestIdentity(t *testing.T) {
	m := Identity()
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			want := float32(0)
			if r == c {
				want = 1
			}
			if got := m.At(r, c); got != want {
				t.Errorf("Identity().At(%d, %d) = %v, want %v", r, c, got, want)
			}
		}
	}
}

func TestMulIdentity(t *testing.T) {
	m := Translate(Vec3{1, 2, 3})
	if got := m.Mul(Identity()); got != m {
		t.Errorf("M * I = %v, want %v", got, m)
	}
	if got := Identity().Mul(m); got != m {
		t.Errorf("I * M = %v, want %v", got, m)
	}
}

func TestTranslateColumn(t *testing.T) {
	m := Translate(Vec3{5, 10, 15})
	if m[12] != 5 || m[13] != 10 || m[14] != 15 {
		t.Errorf("translation column = (%v, %v, %v), want (5, 10, 15)", m[12], m[13], m[14])
	}
}

func TestTransformPoint(t *testing.T) {
	tests := []struct {
		name string
		m    Mat4
		in   Vec3
		want Vec3
	}{
		{"identity", Identity(), Vec3{1, 2, 3}, Vec3{1, 2, 3}},
		{"translate", Translate(Vec3{1, 0, -1}), Vec3{1, 1, 1}, Vec3{2, 1, 0}},
		{"scale", Scale(Vec3{2, 3, 4}), Vec3{1, 1, 1}, Vec3{2, 3, 4}},
		{"scale then translate", Translate(Vec3{1, 1, 1}).Mul(Scale(Vec3{2, 2, 2})), Vec3{1, 0, 0}, Vec3{3, 1, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.m.TransformPoint(tt.in)
			if got.Sub(tt.want).Length() > 1e-5 {
				t.Errorf("TransformPoint(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestFromTRSMatchesProduct(t *testing.T) {
	tr := Vec3{1, -2, 3}
	rot := QuatFromAxisAngle(Vec3{0, 1, 0}, math.Pi/3)
	sc := Vec3{2, 0.5, 1.5}

	want := Translate(tr).Mul(rot.ToMat4()).Mul(Scale(sc))
	got := FromTRS(tr, rot, sc)
	if !got.ApproxEqual(want, 1e-5) {
		t.Errorf("FromTRS = %v, want %v", got, want)
	}
}

func TestLookAtMovesEyeToOrigin(t *testing.T) {
	eye := Vec3{0, 0, 5}
	v := LookAt(eye, Vec3{}, Vec3{0, 1, 0})
	got := v.TransformPoint(eye)
	if got.Length() > 1e-5 {
		t.Errorf("eye in view space = %v, want origin", got)
	}
	target := v.TransformPoint(Vec3{})
	if target.Z >= 0 {
		t.Errorf("target in view space = %v, want negative Z", target)
	}
}

func TestPerspectiveDepthRange(t *testing.T) {
	p := Perspective(math.Pi/4, 1, 1, 10)
	near := p.TransformPoint(Vec3{0, 0, -1})
	far := p.TransformPoint(Vec3{0, 0, -10})
	if math.Abs(float64(near.Z+1)) > 1e-4 {
		t.Errorf("near plane depth = %v, want -1", near.Z)
	}
	if math.Abs(float64(far.Z-1)) > 1e-4 {
		t.Errorf("far plane depth = %v, want 1", far.Z)
	}
}
