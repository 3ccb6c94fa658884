package math

import "testing"

func TestAABBExtend(t *testing.T) {
	b := EmptyAABB()
	if b.Valid() {
		t.Fatal("empty box should not be valid")
	}
	b = b.Extend(Vec3{1, 2, 3}).Extend(Vec3{-1, 4, 0})
	if !b.Valid() {
		t.Fatal("box should be valid after Extend")
	}
	if b.Min != (Vec3{-1, 2, 0}) || b.Max != (Vec3{1, 4, 3}) {
		t.Errorf("bounds = %v..%v", b.Min, b.Max)
	}
	if c := b.Center(); c != (Vec3{0, 3, 1.5}) {
		t.Errorf("Center() = %v", c)
	}
	if s := b.Size(); s != (Vec3{2, 2, 3}) {
		t.Errorf("Size() = %v", s)
	}
}

func TestAABBUnionWithEmpty(t *testing.T) {
	b := EmptyAABB().Extend(Vec3{1, 1, 1})
	if got := b.Union(EmptyAABB()); got != b {
		t.Errorf("Union(empty) = %v, want %v", got, b)
	}
	if got := EmptyAABB().Union(b); got != b {
		t.Errorf("empty.Union(b) = %v, want %v", got, b)
	}
}

func TestAABBTransform(t *testing.T) {
	b := EmptyAABB().Extend(Vec3{-1, -1, -1}).Extend(Vec3{1, 1, 1})
	got := b.Transform(Translate(Vec3{2, 0, 0}).Mul(Scale(Vec3{2, 1, 1})))
	if got.Min != (Vec3{0, -1, -1}) || got.Max != (Vec3{4, 1, 1}) {
		t.Errorf("transformed bounds = %v..%v", got.Min, got.Max)
	}
}
