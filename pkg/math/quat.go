package math

import "math"

// Quat is a rotation quaternion with W as the scalar part, matching the
// [x, y, z, w] order glTF stores rotations in.
type Quat struct {
	X, Y, Z, W float32
}

// QuatIdentity returns the identity rotation.
func QuatIdentity() Quat {
	return Quat{W: 1}
}

// Q4 builds a Quat from glTF [x, y, z, w] order.
func Q4(a [4]float32) Quat {
	return Quat{a[0], a[1], a[2], a[3]}
}

// QuatFromAxisAngle returns a rotation of angle radians about a unit axis.
func QuatFromAxisAngle(axis Vec3, angle float32) Quat {
	s, c := math.Sincos(float64(angle) / 2)
	return Quat{axis.X * float32(s), axis.Y * float32(s), axis.Z * float32(s), float32(c)}
}

// Dot returns the four-component dot product.
func (q Quat) Dot(other Quat) float32 {
	return q.X*other.X + q.Y*other.Y + q.Z*other.Z + q.W*other.W
}

// Normalize returns a unit quaternion, falling back to identity for
// near-zero input.
func (q Quat) Normalize() Quat {
	l := float32(math.Sqrt(float64(q.Dot(q))))
	if l < 1e-6 {
		return QuatIdentity()
	}
	return Quat{q.X / l, q.Y / l, q.Z / l, q.W / l}
}

// Slerp interpolates along the shorter arc between q and other.
func (q Quat) Slerp(other Quat, t float32) Quat {
	d := q.Dot(other)
	if d < 0 {
		other = Quat{-other.X, -other.Y, -other.Z, -other.W}
		d = -d
	}
	if d > 0.9995 {
		return Quat{
			q.X + t*(other.X-q.X),
			q.Y + t*(other.Y-q.Y),
			q.Z + t*(other.Z-q.Z),
			q.W + t*(other.W-q.W),
		}.Normalize()
	}

	theta := math.Acos(float64(d))
	sin := math.Sin(theta)
	a := float32(math.Sin((1-float64(t))*theta) / sin)
	b := float32(math.Sin(float64(t)*theta) / sin)
	return Quat{
		a*q.X + b*other.X,
		a*q.Y + b*other.Y,
		a*q.Z + b*other.Z,
		a*q.W + b*other.W,
	}
}

// ToMat4 returns the rotation matrix for q.
func (q Quat) ToMat4() Mat4 {
	q = q.Normalize()
	x, y, z, w := q.X, q.Y, q.Z, q.W

	return Mat4{
		1 - 2*(y*y+z*z), 2 * (x*y + z*w), 2 * (x*z - y*w), 0,
		2 * (x*y - z*w), 1 - 2*(x*x+z*z), 2 * (y*z + x*w), 0,
		2 * (x*z + y*w), 2 * (y*z - x*w), 1 - 2*(x*x+y*y), 0,
		0, 0, 0, 1,
	}
}
