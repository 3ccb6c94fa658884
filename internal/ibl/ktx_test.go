package ibl

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"
)

type ktxFixture struct {
	order    binary.ByteOrder
	header   Header
	metadata [][2]string
	images   []byte
}

func (f ktxFixture) bytes() []byte {
	order := f.order
	if order == nil {
		order = binary.LittleEndian
	}

	var kv bytes.Buffer
	for _, p := range f.metadata {
		pair := append([]byte(p[0]+"\x00"), p[1]...)
		_ = binary.Write(&kv, order, uint32(len(pair)))
		kv.Write(pair)
		for kv.Len()%4 != 0 {
			kv.WriteByte(0)
		}
	}
	h := f.header
	h.BytesOfKeyValueData = uint32(kv.Len())

	var out bytes.Buffer
	out.Write(identifier[:])
	_ = binary.Write(&out, order, uint32(endianMarker))
	_ = binary.Write(&out, order, h)
	out.Write(kv.Bytes())
	if f.images != nil {
		_ = binary.Write(&out, order, uint32(len(f.images)))
		out.Write(f.images)
	}
	return out.Bytes()
}

func shText(coeffs [9][3]float32) string {
	var b strings.Builder
	for _, c := range coeffs {
		fmt.Fprintf(&b, "%g %g %g\n", c[0], c[1], c[2])
	}
	return b.String()
}

func TestReadKTXRejects(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"empty", nil, ErrNotKTX},
		{"png", []byte("\x89PNG\r\n\x1a\n0000000000"), ErrNotKTX},
		{"bad endianness", append(append([]byte{}, identifier[:]...), 9, 9, 9, 9), ErrNotKTX},
		{"truncated header", append(append([]byte{}, identifier[:]...), 1, 2, 3, 4, 0, 0), ErrTruncated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ReadKTX(tt.data); !errors.Is(err, tt.want) {
				t.Errorf("ReadKTX() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestReadKTXSphericalHarmonics(t *testing.T) {
	var want [9][3]float32
	for i := range want {
		want[i] = [3]float32{float32(i) * 0.5, float32(i) * 0.25, -float32(i)}
	}

	for _, order := range []binary.ByteOrder{binary.LittleEndian, binary.BigEndian} {
		t.Run(order.String(), func(t *testing.T) {
			data := ktxFixture{
				order:    order,
				header:   Header{NumberOfFaces: 6, NumberOfMipmapLevels: 1, PixelWidth: 16, PixelHeight: 16},
				metadata: [][2]string{{"GL_ORIENTATION", "r"}, {"sh", shText(want)}},
			}.bytes()

			env, err := ReadKTX(data)
			if err != nil {
				t.Fatalf("ReadKTX: %v", err)
			}
			if !env.FromSH {
				t.Error("FromSH should be set")
			}
			if env.SH != want {
				t.Errorf("SH = %v, want %v", env.SH, want)
			}
			if env.Metadata["GL_ORIENTATION"] != "r" {
				t.Errorf("metadata = %v", env.Metadata)
			}
			if env.Header.NumberOfFaces != 6 || env.Header.PixelWidth != 16 {
				t.Errorf("header = %+v", env.Header)
			}
		})
	}
}

func TestReadKTXShortSH(t *testing.T) {
	data := ktxFixture{metadata: [][2]string{{"sh", "1 2 3"}}}.bytes()
	if _, err := ReadKTX(data); err == nil {
		t.Error("expected error for short sh metadata")
	}
}

func TestReadKTXMeanColorFallback(t *testing.T) {
	// 2x2 RGB image, rows padded to 4 bytes.
	images := []byte{
		255, 0, 0, 255, 0, 0, 0, 0,
		0, 0, 255, 0, 0, 255, 0, 0,
	}
	data := ktxFixture{
		header: Header{
			GLType:               glUnsignedByte,
			GLTypeSize:           1,
			GLFormat:             glRGB,
			PixelWidth:           2,
			PixelHeight:          2,
			NumberOfFaces:        1,
			NumberOfMipmapLevels: 1,
		},
		images: images,
	}.bytes()

	env, err := ReadKTX(data)
	if err != nil {
		t.Fatalf("ReadKTX: %v", err)
	}
	if env.FromSH {
		t.Error("FromSH should be false for the pixel fallback")
	}
	if env.SH[0] != [3]float32{0.5, 0, 0.5} {
		t.Errorf("ambient = %v, want (0.5, 0, 0.5)", env.SH[0])
	}
}

func TestReadKTXNeutralFallback(t *testing.T) {
	data := ktxFixture{header: Header{GLType: 0x140B, GLFormat: glRGBA, PixelWidth: 1, PixelHeight: 1, NumberOfFaces: 1}}.bytes()
	env, err := ReadKTX(data)
	if err != nil {
		t.Fatalf("ReadKTX: %v", err)
	}
	want := [3]float32{NeutralAmbient, NeutralAmbient, NeutralAmbient}
	if env.SH[0] != want {
		t.Errorf("ambient = %v, want %v", env.SH[0], want)
	}
}

func TestIrradiance(t *testing.T) {
	env := Flat([3]float32{0.2, 0.4, 0.6})
	if got := env.Irradiance([3]float32{0, 1, 0}); got != [3]float32{0.2, 0.4, 0.6} {
		t.Errorf("flat irradiance = %v", got)
	}

	var sky Environment
	sky.SH[0] = [3]float32{1, 1, 1}
	sky.SH[1] = [3]float32{1, 1, 1}
	up := sky.Irradiance([3]float32{0, 1, 0})
	down := sky.Irradiance([3]float32{0, -1, 0})
	if up[0] != 2 || down[0] != 0 {
		t.Errorf("up = %v, down = %v", up, down)
	}
	for _, c := range sky.Irradiance([3]float32{0, float32(-math.Sqrt2 / 2), float32(math.Sqrt2 / 2)}) {
		if c < 0 {
			t.Errorf("irradiance should clamp at 0, got %v", c)
		}
	}
}
