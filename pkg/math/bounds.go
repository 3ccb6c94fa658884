package math

// AABB is an axis-aligned bounding box. The zero value is not a valid box;
// start from EmptyAABB and Extend it.
type AABB struct {
	Min, Max Vec3
	valid    bool
}

// EmptyAABB returns a box that contains nothing.
func EmptyAABB() AABB {
	return AABB{}
}

// Valid reports whether at least one point has been added.
func (b AABB) Valid() bool {
	return b.valid
}

// Extend returns the box grown to include p.
func (b AABB) Extend(p Vec3) AABB {
	if !b.valid {
		return AABB{Min: p, Max: p, valid: true}
	}
	b.Min = b.Min.Min(p)
	b.Max = b.Max.Max(p)
	return b
}

// Union returns the smallest box containing both boxes.
func (b AABB) Union(other AABB) AABB {
	if !other.valid {
		return b
	}
	return b.Extend(other.Min).Extend(other.Max)
}

// Center returns the midpoint of the box.
func (b AABB) Center() Vec3 {
	return b.Min.Add(b.Max).Scale(0.5)
}

// Size returns the box extent along each axis.
func (b AABB) Size() Vec3 {
	return b.Max.Sub(b.Min)
}

// Transform returns the bounds of the box after applying m to its corners.
func (b AABB) Transform(m Mat4) AABB {
	if !b.valid {
		return b
	}
	out := EmptyAABB()
	for i := 0; i < 8; i++ {
		c := b.Min
		if i&1 != 0 {
			c.X = b.Max.X
		}
		if i&2 != 0 {
			c.Y = b.Max.Y
		}
		if i&4 != 0 {
			c.Z = b.Max.Z
		}
		out = out.Extend(m.TransformPoint(c))
	}
	return out
}
