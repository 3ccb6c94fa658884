// Package glb decodes binary glTF 2.0 files into the mesh, material,
// scene-graph, skin and animation data the renderer uploads.
package glb

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	vm "github.com/Faultbox/glbviewer/pkg/math"
)

const (
	headerSize = 12
	magic      = 0x46546C67 // "glTF"
	version    = 2
)

var (
	ErrInvalidMagic       = errors.New("glb: not a binary glTF file")
	ErrUnsupportedVersion = errors.New("glb: unsupported container version")
	ErrTruncated          = errors.New("glb: file shorter than its header declares")
	ErrNoMeshes           = errors.New("glb: file contains no triangle meshes")
)

// Header is the 12-byte GLB preamble.
type Header struct {
	Magic   uint32
	Version uint32
	Length  uint32
}

// ReadHeader reads and validates the GLB preamble from r.
func ReadHeader(r io.Reader) (Header, error) {
	var h Header
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return h, ErrInvalidMagic
		}
		return h, err
	}
	if h.Magic != magic {
		return h, ErrInvalidMagic
	}
	if h.Version != version {
		return h, fmt.Errorf("%w: %d", ErrUnsupportedVersion, h.Version)
	}
	if h.Length < headerSize {
		return h, ErrTruncated
	}
	return h, nil
}

// CheckHeader validates the preamble of an in-memory payload, including
// that the payload is as long as declared.
func CheckHeader(data []byte) error {
	if len(data) < headerSize {
		return ErrInvalidMagic
	}
	h := Header{
		Magic:   binary.LittleEndian.Uint32(data[0:4]),
		Version: binary.LittleEndian.Uint32(data[4:8]),
		Length:  binary.LittleEndian.Uint32(data[8:12]),
	}
	if h.Magic != magic {
		return ErrInvalidMagic
	}
	if h.Version != version {
		return fmt.Errorf("%w: %d", ErrUnsupportedVersion, h.Version)
	}
	if int(h.Length) > len(data) || h.Length < headerSize {
		return fmt.Errorf("%w: header says %d bytes, have %d", ErrTruncated, h.Length, len(data))
	}
	return nil
}

// AlphaMode is the material blending mode.
type AlphaMode int

const (
	AlphaOpaque AlphaMode = iota
	AlphaMask
	AlphaBlend
)

func (m AlphaMode) String() string {
	switch m {
	case AlphaMask:
		return "MASK"
	case AlphaBlend:
		return "BLEND"
	default:
		return "OPAQUE"
	}
}

// Material is the metallic-roughness subset the viewer shades with.
type Material struct {
	Name        string
	BaseColor   [4]float32
	Metallic    float32
	Roughness   float32
	Emissive    [3]float32
	AlphaMode   AlphaMode
	AlphaCutoff float32
	DoubleSided bool
	// Skinned is set when any primitive using the material has joints.
	Skinned bool
}

// DefaultMaterial is used by primitives without a material.
func DefaultMaterial() Material {
	return Material{
		Name:        "default",
		BaseColor:   [4]float32{1, 1, 1, 1},
		Metallic:    1,
		Roughness:   1,
		AlphaCutoff: 0.5,
	}
}

// Primitive is one indexed triangle list.
type Primitive struct {
	Positions [][3]float32
	Normals   [][3]float32
	UVs       [][2]float32
	Joints    [][4]uint16
	Weights   [][4]float32
	Indices   []uint32
	// Material indexes Model.Materials; -1 selects DefaultMaterial.
	Material int
	Bounds   vm.AABB
}

// Skinned reports whether the primitive carries joint influences.
func (p *Primitive) Skinned() bool {
	return len(p.Joints) > 0 && len(p.Joints) == len(p.Weights)
}

// Mesh groups primitives drawn with one node transform.
type Mesh struct {
	Name       string
	Primitives []Primitive
}

// Node is a scene-graph node with its rest and current local transform.
type Node struct {
	Name     string
	Parent   int
	Children []int
	Mesh     int // -1 when absent
	Skin     int // -1 when absent

	Translation vm.Vec3
	Rotation    vm.Quat
	Scale       vm.Vec3
	// Matrix is set for nodes that use a baked matrix instead of TRS.
	// Animated nodes always use TRS.
	Matrix *vm.Mat4

	rest struct {
		t vm.Vec3
		r vm.Quat
		s vm.Vec3
		m *vm.Mat4
	}
}

// Local returns the node's current local transform.
func (n *Node) Local() vm.Mat4 {
	if n.Matrix != nil {
		return *n.Matrix
	}
	return vm.FromTRS(n.Translation, n.Rotation, n.Scale)
}

// Skin binds a set of joint nodes to skinned primitives.
type Skin struct {
	Name        string
	Joints      []int
	InverseBind []vm.Mat4
}

// Model is a decoded GLB file.
type Model struct {
	Meshes     []Mesh
	Materials  []Material
	Nodes      []Node
	Skins      []Skin
	Animations []Animation
	// Roots are the nodes of the default scene.
	Roots []int
}

// Material returns the material at i, or DefaultMaterial when i is out of range.
func (m *Model) Material(i int) Material {
	if i < 0 || i >= len(m.Materials) {
		return DefaultMaterial()
	}
	return m.Materials[i]
}

// Stats summarizes a model for logs and detail views.
type Stats struct {
	Meshes     int
	Primitives int
	Vertices   int
	Triangles  int
	Materials  int
	Skins      int
	Animations int
}

// Stats counts the model's contents.
func (m *Model) Stats() Stats {
	s := Stats{
		Meshes:     len(m.Meshes),
		Materials:  len(m.Materials),
		Skins:      len(m.Skins),
		Animations: len(m.Animations),
	}
	for _, mesh := range m.Meshes {
		s.Primitives += len(mesh.Primitives)
		for _, p := range mesh.Primitives {
			s.Vertices += len(p.Positions)
			s.Triangles += len(p.Indices) / 3
		}
	}
	return s
}
