// Package lighting converts light parameters into values the shaders consume.
package lighting

// CCT returns the linear sRGB tint of a black-body radiator at kelvin,
// normalized so the brightest channel is 1.
//
// The chromaticity comes from Krystek's rational approximation of the
// Planckian locus in CIE 1960 UCS, valid from 1000K to 15000K. Out of range
// temperatures are clamped.
func CCT(kelvin int) [3]float32 {
	k := float64(min(max(kelvin, 1000), 15000))
	k2 := k * k

	u := (0.860117757 + 1.54118254e-4*k + 1.28641212e-7*k2) /
		(1 + 8.42420235e-4*k + 7.08145163e-7*k2)
	v := (0.317398726 + 4.22806245e-5*k + 4.20481691e-8*k2) /
		(1 - 2.89741816e-5*k + 1.61456053e-7*k2)

	// uv to xy.
	d := 2*u - 8*v + 4
	x := 3 * u / d
	y := 2 * v / d

	// xyY with Y=1 to XYZ.
	X := x / y
	Z := (1 - x - y) / y

	r := 3.2404542*X - 1.5371385 - 0.4985314*Z
	g := -0.9692660*X + 1.8760108 + 0.0415560*Z
	b := 0.0556434*X - 0.2040259 + 1.0572252*Z

	r, g, b = max(r, 0), max(g, 0), max(b, 0)
	m := max(r, g, b)
	if m == 0 {
		return [3]float32{1, 1, 1}
	}
	return [3]float32{float32(r / m), float32(g / m), float32(b / m)}
}
