package lighting

import "math"

// SunDirection converts slider angles into the direction light travels:
// from the sun towards the scene. azimuth rotates about +Y starting at +Z,
// elevation is measured up from the horizon. Both are in degrees.
func SunDirection(azimuth, elevation float32) [3]float32 {
	az := float64(azimuth) * math.Pi / 180
	el := float64(elevation) * math.Pi / 180

	x := math.Cos(el) * math.Sin(az)
	y := math.Sin(el)
	z := math.Cos(el) * math.Cos(az)

	return [3]float32{float32(-x), float32(-y), float32(-z)}
}

// SunAngles is the inverse of SunDirection. A zero direction yields (0, 90).
func SunAngles(dir [3]float32) (azimuth, elevation float32) {
	x, y, z := -float64(dir[0]), -float64(dir[1]), -float64(dir[2])
	l := math.Sqrt(x*x + y*y + z*z)
	if l == 0 {
		return 0, 90
	}
	x, y, z = x/l, y/l, z/l

	el := math.Asin(y) * 180 / math.Pi
	az := math.Atan2(x, z) * 180 / math.Pi
	if az < 0 {
		az += 360
	}
	return float32(az), float32(el)
}
