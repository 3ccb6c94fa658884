// Package ibl reads image-based lighting environments baked by cmgen.
//
// Only the diffuse part is used: the nine spherical-harmonics coefficients
// cmgen stores under the "sh" metadata key. Files without them still load,
// with an ambient term derived from the pixel data when it is plain 8-bit
// color and a neutral ambient otherwise.
package ibl

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrNotKTX    = errors.New("ibl: not a KTX 1.1 file")
	ErrTruncated = errors.New("ibl: truncated KTX file")
)

var identifier = [12]byte{0xAB, 'K', 'T', 'X', ' ', '1', '1', 0xBB, '\r', '\n', 0x1A, '\n'}

const endianMarker = 0x04030201

// GL enums the ambient fallback understands.
const (
	glUnsignedByte = 0x1401
	glRGB          = 0x1907
	glRGBA         = 0x1908
)

// NeutralAmbient is the flat irradiance used when a file carries nothing
// usable.
const NeutralAmbient = 0.25

// Header is the fixed part of a KTX 1.1 file.
type Header struct {
	GLType                uint32
	GLTypeSize            uint32
	GLFormat              uint32
	GLInternalFormat      uint32
	GLBaseInternalFormat  uint32
	PixelWidth            uint32
	PixelHeight           uint32
	PixelDepth            uint32
	NumberOfArrayElements uint32
	NumberOfFaces         uint32
	NumberOfMipmapLevels  uint32
	BytesOfKeyValueData   uint32
}

var headerSize = binary.Size(Header{})

// Environment is a decoded lighting environment.
type Environment struct {
	Header   Header
	Metadata map[string]string
	// SH holds pre-convolved irradiance coefficients in cmgen order.
	SH [9][3]float32
	// FromSH is false when SH was synthesized from pixels or the neutral value.
	FromSH bool
}

// ReadKTX parses a KTX 1.1 container.
func ReadKTX(data []byte) (*Environment, error) {
	if len(data) < len(identifier)+4 || !bytes.Equal(data[:12], identifier[:]) {
		return nil, ErrNotKTX
	}

	var order binary.ByteOrder = binary.LittleEndian
	switch binary.LittleEndian.Uint32(data[12:16]) {
	case endianMarker:
	case 0x01020304:
		order = binary.BigEndian
	default:
		return nil, fmt.Errorf("%w: bad endianness marker", ErrNotKTX)
	}

	r := bytes.NewReader(data[16:])
	env := &Environment{Metadata: map[string]string{}}
	if err := binary.Read(r, order, &env.Header); err != nil {
		return nil, ErrTruncated
	}

	kvStart := 16 + headerSize
	kvEnd := kvStart + int(env.Header.BytesOfKeyValueData)
	if kvEnd > len(data) {
		return nil, ErrTruncated
	}
	if err := readMetadata(data[kvStart:kvEnd], order, env.Metadata); err != nil {
		return nil, err
	}

	if sh, ok := env.Metadata["sh"]; ok {
		if err := parseSH(sh, &env.SH); err != nil {
			return nil, err
		}
		env.FromSH = true
		return env, nil
	}

	mean, ok := meanColor(data[kvEnd:], order, env.Header)
	if !ok {
		mean = [3]float32{NeutralAmbient, NeutralAmbient, NeutralAmbient}
	}
	env.SH[0] = mean
	return env, nil
}

func readMetadata(kv []byte, order binary.ByteOrder, out map[string]string) error {
	for len(kv) > 0 {
		if len(kv) < 4 {
			return ErrTruncated
		}
		size := int(order.Uint32(kv))
		kv = kv[4:]
		if size > len(kv) {
			return ErrTruncated
		}
		pair := kv[:size]
		if k, v, ok := bytes.Cut(pair, []byte{0}); ok {
			out[string(k)] = strings.TrimRight(string(v), "\x00")
		}
		pad := (size + 3) &^ 3
		if pad > len(kv) {
			pad = len(kv)
		}
		kv = kv[pad:]
	}
	return nil
}

func parseSH(text string, sh *[9][3]float32) error {
	fields := strings.Fields(text)
	if len(fields) < 27 {
		return fmt.Errorf("ibl: sh metadata has %d values, want 27", len(fields))
	}
	for i := 0; i < 27; i++ {
		v, err := strconv.ParseFloat(fields[i], 32)
		if err != nil {
			return fmt.Errorf("ibl: sh value %d: %w", i, err)
		}
		sh[i/3][i%3] = float32(v)
	}
	return nil
}

// meanColor averages the first face of the first mip level for 8-bit
// RGB(A) payloads.
func meanColor(images []byte, order binary.ByteOrder, h Header) ([3]float32, bool) {
	if h.GLType != glUnsignedByte || (h.GLFormat != glRGB && h.GLFormat != glRGBA) {
		return [3]float32{}, false
	}
	if len(images) < 4 {
		return [3]float32{}, false
	}
	size := int(order.Uint32(images))
	images = images[4:]

	channels := 3
	if h.GLFormat == glRGBA {
		channels = 4
	}
	faces := max(int(h.NumberOfFaces), 1)
	if h.NumberOfFaces == 6 && h.NumberOfArrayElements == 0 {
		// For non-array cubemaps imageSize covers one face.
		faces = 1
	}
	face := size / faces
	if face <= 0 || face > len(images) {
		return [3]float32{}, false
	}

	pixels := int(h.PixelWidth) * max(int(h.PixelHeight), 1)
	if pixels == 0 {
		return [3]float32{}, false
	}
	row := int(h.PixelWidth) * channels
	stride := (row + 3) &^ 3
	var sum [3]float64
	n := 0
	for y := 0; y < max(int(h.PixelHeight), 1); y++ {
		start := y * stride
		if start+row > face {
			break
		}
		for x := 0; x < row; x += channels {
			p := images[start+x:]
			sum[0] += float64(p[0])
			sum[1] += float64(p[1])
			sum[2] += float64(p[2])
			n++
		}
	}
	if n == 0 {
		return [3]float32{}, false
	}
	return [3]float32{
		float32(sum[0] / float64(n) / 255),
		float32(sum[1] / float64(n) / 255),
		float32(sum[2] / float64(n) / 255),
	}, true
}

// Irradiance evaluates the SH for a unit normal. Negative results clamp to 0.
func (e *Environment) Irradiance(n [3]float32) [3]float32 {
	x, y, z := n[0], n[1], n[2]
	basis := [9]float32{
		1,
		y,
		z,
		x,
		y * x,
		y * z,
		3*z*z - 1,
		z * x,
		x*x - y*y,
	}
	var out [3]float32
	for i, b := range basis {
		for c := 0; c < 3; c++ {
			out[c] += e.SH[i][c] * b
		}
	}
	for c := range out {
		out[c] = max(out[c], 0)
	}
	return out
}

// Flat returns an environment with a constant ambient term.
func Flat(rgb [3]float32) *Environment {
	env := &Environment{Metadata: map[string]string{}}
	env.SH[0] = rgb
	return env
}
