package glb

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	vm "github.com/Faultbox/glbviewer/pkg/math"
)

// writeBox encodes an axis-aligned box spanning lo..hi under a node
// translated by offset.
func writeBox(t *testing.T, lo, hi, offset [3]float32) []byte {
	t.Helper()
	doc := gltf.NewDocument()

	var corners [][3]float32
	for i := 0; i < 8; i++ {
		c := lo
		if i&1 != 0 {
			c[0] = hi[0]
		}
		if i&2 != 0 {
			c[1] = hi[1]
		}
		if i&4 != 0 {
			c[2] = hi[2]
		}
		corners = append(corners, c)
	}
	indices := []uint16{
		0, 1, 3, 0, 3, 2,
		4, 6, 7, 4, 7, 5,
		0, 4, 5, 0, 5, 1,
		2, 3, 7, 2, 7, 6,
		0, 2, 6, 0, 6, 4,
		1, 5, 7, 1, 7, 3,
	}

	pos := modeler.WritePosition(doc, corners)
	idx := modeler.WriteIndices(doc, indices)
	doc.Materials = []*gltf.Material{{
		Name:        "red",
		DoubleSided: true,
		AlphaMode:   gltf.AlphaBlend,
		PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
			BaseColorFactor: &[4]float64{1, 0, 0, 0.5},
			MetallicFactor:  gltf.Float(0.25),
			RoughnessFactor: gltf.Float(0.75),
		},
	}}
	doc.Meshes = []*gltf.Mesh{{
		Name: "box",
		Primitives: []*gltf.Primitive{{
			Indices:    gltf.Index(idx),
			Material:   gltf.Index(0),
			Attributes: map[string]int{gltf.POSITION: pos},
		}},
	}}
	doc.Nodes = []*gltf.Node{{
		Name:        "box",
		Mesh:        gltf.Index(0),
		Translation: [3]float64{float64(offset[0]), float64(offset[1]), float64(offset[2])},
	}}
	doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, 0)

	path := filepath.Join(t.TempDir(), "box.glb")
	if err := gltf.SaveBinary(doc, path); err != nil {
		t.Fatalf("SaveBinary: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	return data
}

func header(magicV, versionV, length uint32) []byte {
	var buf bytes.Buffer
	_ = binary.Write(&buf, binary.LittleEndian, [3]uint32{magicV, versionV, length})
	return buf.Bytes()
}

func TestCheckHeader(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"empty", nil, ErrInvalidMagic},
		{"short", []byte("glT"), ErrInvalidMagic},
		{"wrong magic", header(0x12345678, 2, 12), ErrInvalidMagic},
		{"gltf json", []byte(`{"asset":{"version":"2.0"}}`), ErrInvalidMagic},
		{"version 1", header(magic, 1, 12), ErrUnsupportedVersion},
		{"truncated", header(magic, 2, 64), ErrTruncated},
		{"length below header", header(magic, 2, 4), ErrTruncated},
		{"ok", header(magic, 2, 12), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckHeader(tt.data)
			if !errors.Is(err, tt.want) {
				t.Errorf("CheckHeader() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestReadHeader(t *testing.T) {
	h, err := ReadHeader(bytes.NewReader(header(magic, 2, 100)))
	if err != nil {
		t.Fatalf("ReadHeader: %v", err)
	}
	if h.Length != 100 {
		t.Errorf("Length = %d, want 100", h.Length)
	}
	if _, err := ReadHeader(bytes.NewReader([]byte("PK"))); !errors.Is(err, ErrInvalidMagic) {
		t.Errorf("short reader: err = %v, want ErrInvalidMagic", err)
	}
}

func TestDecodeBox(t *testing.T) {
	m, err := Decode(writeBox(t, [3]float32{0, 0, 0}, [3]float32{1, 2, 3}, [3]float32{}))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	st := m.Stats()
	if st.Meshes != 1 || st.Primitives != 1 || st.Vertices != 8 || st.Triangles != 12 {
		t.Errorf("Stats() = %+v", st)
	}
	if len(m.Roots) != 1 || m.Roots[0] != 0 {
		t.Errorf("Roots = %v, want [0]", m.Roots)
	}

	mat := m.Material(0)
	if mat.Name != "red" || mat.AlphaMode != AlphaBlend || !mat.DoubleSided {
		t.Errorf("material = %+v", mat)
	}
	if mat.BaseColor != [4]float32{1, 0, 0, 0.5} || mat.Metallic != 0.25 || mat.Roughness != 0.75 {
		t.Errorf("pbr = %v / %v / %v", mat.BaseColor, mat.Metallic, mat.Roughness)
	}
	if m.Material(7).Name != "default" {
		t.Error("out of range material should fall back to default")
	}
}

func TestDecodeRejects(t *testing.T) {
	if _, err := Decode([]byte("not a glb at all")); !errors.Is(err, ErrInvalidMagic) {
		t.Errorf("garbage: err = %v, want ErrInvalidMagic", err)
	}

	doc := gltf.NewDocument()
	path := filepath.Join(t.TempDir(), "empty.glb")
	if err := gltf.SaveBinary(doc, path); err != nil {
		t.Fatalf("SaveBinary: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Decode(data); !errors.Is(err, ErrNoMeshes) {
		t.Errorf("empty scene: err = %v, want ErrNoMeshes", err)
	}
}

func TestBoundsAndUnitCube(t *testing.T) {
	m, err := Decode(writeBox(t, [3]float32{1, 1, 1}, [3]float32{3, 5, 2}, [3]float32{1, 0, 0}))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	b := m.Bounds()
	if b.Min != (vm.Vec3{X: 2, Y: 1, Z: 1}) || b.Max != (vm.Vec3{X: 4, Y: 5, Z: 2}) {
		t.Fatalf("Bounds() = %v..%v", b.Min, b.Max)
	}

	fitted := b.Transform(m.UnitCubeTransform())
	const eps = 1e-5
	for _, v := range []float32{fitted.Min.X, fitted.Min.Y, fitted.Min.Z, fitted.Max.X, fitted.Max.Y, fitted.Max.Z} {
		if v < -1-eps || v > 1+eps {
			t.Errorf("fitted bounds %v..%v leave the unit cube", fitted.Min, fitted.Max)
			break
		}
	}
	if math.Abs(float64(fitted.Min.Y+1)) > eps || math.Abs(float64(fitted.Max.Y-1)) > eps {
		t.Errorf("largest axis should span [-1, 1], got %v..%v", fitted.Min.Y, fitted.Max.Y)
	}
	if c := fitted.Center(); c.Length() > eps {
		t.Errorf("fitted center = %v, want origin", c)
	}
}

func TestUnitCubeDegenerate(t *testing.T) {
	b := &glbBuilder{}
	p := [3]float32{2, 2, 2}
	pos, idx := triangle(b, t, [3][3]float32{p, p, p})
	data := b.build(t, map[string]any{
		"meshes": []any{map[string]any{"primitives": []any{map[string]any{
			"attributes": map[string]int{"POSITION": pos},
			"indices":    idx,
		}}}},
		"nodes":  []any{map[string]any{"mesh": 0}},
		"scenes": []any{map[string]any{"nodes": []int{0}}},
		"scene":  0,
	})

	m, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got := m.UnitCubeTransform(); got != vm.Identity() {
		t.Errorf("UnitCubeTransform() = %v, want identity", got)
	}
}

func TestDecodeWithoutSceneUsesParentlessNodes(t *testing.T) {
	b := &glbBuilder{}
	pos, idx := triangle(b, t, [3][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}})
	data := b.build(t, map[string]any{
		"meshes": []any{map[string]any{"primitives": []any{map[string]any{
			"attributes": map[string]int{"POSITION": pos},
			"indices":    idx,
		}}}},
		"nodes": []any{
			map[string]any{"children": []int{1}},
			map[string]any{"mesh": 0, "translation": []float32{0, 0, 5}},
		},
	})

	m, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(m.Roots) != 1 || m.Roots[0] != 0 {
		t.Fatalf("Roots = %v, want [0]", m.Roots)
	}
	inst := m.Instances()
	if len(inst) != 1 || inst[0].World[14] != 5 {
		t.Errorf("Instances() = %+v", inst)
	}
}
