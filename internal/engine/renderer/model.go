package renderer

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Faultbox/glbviewer/internal/glb"
	vm "github.com/Faultbox/glbviewer/pkg/math"
)

// position(3) normal(3) uv(2) joints(4) weights(4)
const floatsPerVertex = 16

// maxJoints matches MAX_JOINTS in model.vert.
const maxJoints = 128

// gpuPrimitive is one uploaded draw call.
type gpuPrimitive struct {
	vao        uint32
	vbo        uint32
	ebo        uint32
	indexCount int32
	material   int // index into gpuModel.materials
	key        programKey
}

// gpuMaterial pairs a material with the handle the session sees.
type gpuMaterial struct {
	handle uint64
	mat    glb.Material
	// keys are the distinct programs this material's primitives draw with.
	keys []programKey
}

// gpuModel is the uploaded form of a decoded glTF model.
type gpuModel struct {
	src       *glb.Model
	meshes    [][]gpuPrimitive
	materials []gpuMaterial
	fit       vm.Mat4
	// joints holds each skin's packed joint matrices for the current pose.
	joints [][]float32
}

// sceneMaterials returns the handles of materials used by primitives that a
// scene node instances, in first-use order. Meshes no node references are
// skipped.
func (m *gpuModel) sceneMaterials() []uint64 {
	var out []uint64
	seen := make(map[uint64]bool)
	for _, inst := range m.src.Instances() {
		if inst.Mesh >= len(m.meshes) {
			continue
		}
		for _, p := range m.meshes[inst.Mesh] {
			h := m.materials[p.material].handle
			if !seen[h] {
				seen[h] = true
				out = append(out, h)
			}
		}
	}
	return out
}

// interleave packs a primitive's attributes into the vertex layout.
func interleave(p *glb.Primitive) []float32 {
	out := make([]float32, 0, len(p.Positions)*floatsPerVertex)
	for i, pos := range p.Positions {
		n := [3]float32{0, 1, 0}
		if i < len(p.Normals) {
			n = p.Normals[i]
		}
		var uv [2]float32
		if i < len(p.UVs) {
			uv = p.UVs[i]
		}
		var j [4]float32
		w := [4]float32{1, 0, 0, 0}
		if i < len(p.Joints) && i < len(p.Weights) {
			for k := range 4 {
				j[k] = float32(p.Joints[i][k])
			}
			w = p.Weights[i]
		}
		out = append(out, pos[0], pos[1], pos[2], n[0], n[1], n[2], uv[0], uv[1])
		out = append(out, j[:]...)
		out = append(out, w[:]...)
	}
	return out
}

// upload creates GL buffers for every primitive of m. Materials get handles
// from next, which is advanced past the last one used.
func upload(m *glb.Model, next *uint64) (*gpuModel, error) {
	g := &gpuModel{src: m, fit: vm.Identity()}

	// One entry per glTF material plus a trailing default for primitives
	// without one.
	g.materials = make([]gpuMaterial, len(m.Materials)+1)
	for i := range g.materials {
		*next++
		g.materials[i].handle = *next
		if i < len(m.Materials) {
			g.materials[i].mat = m.Materials[i]
		} else {
			g.materials[i].mat = glb.DefaultMaterial()
		}
	}

	g.meshes = make([][]gpuPrimitive, len(m.Meshes))
	for mi := range m.Meshes {
		for pi := range m.Meshes[mi].Primitives {
			p := &m.Meshes[mi].Primitives[pi]
			gp, err := uploadPrimitive(p)
			if err != nil {
				g.destroy()
				return nil, fmt.Errorf("mesh %d primitive %d: %w", mi, pi, err)
			}
			gp.material = len(m.Materials)
			if p.Material >= 0 && p.Material < len(m.Materials) {
				gp.material = p.Material
			}
			gp.key = keyFor(g.materials[gp.material].mat, p.Skinned())
			g.materials[gp.material].addKey(gp.key)
			g.meshes[mi] = append(g.meshes[mi], gp)
		}
	}

	g.joints = make([][]float32, len(m.Skins))
	g.updateJoints()
	return g, nil
}

func (gm *gpuMaterial) addKey(k programKey) {
	for _, have := range gm.keys {
		if have == k {
			return
		}
	}
	gm.keys = append(gm.keys, k)
}

func uploadPrimitive(p *glb.Primitive) (gpuPrimitive, error) {
	var gp gpuPrimitive
	if len(p.Positions) == 0 {
		return gp, fmt.Errorf("no positions")
	}
	vertices := interleave(p)
	indices := p.Indices
	if len(indices) == 0 {
		indices = make([]uint32, len(p.Positions))
		for i := range indices {
			indices[i] = uint32(i)
		}
	}

	gl.GenVertexArrays(1, &gp.vao)
	gl.BindVertexArray(gp.vao)

	gl.GenBuffers(1, &gp.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, gp.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(vertices)*4, gl.Ptr(vertices), gl.STATIC_DRAW)

	gl.GenBuffers(1, &gp.ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, gp.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(indices)*4, gl.Ptr(indices), gl.STATIC_DRAW)

	stride := int32(floatsPerVertex * 4)
	attribs := []struct {
		size   int32
		offset uintptr
	}{
		{3, 0},
		{3, 3 * 4},
		{2, 6 * 4},
		{4, 8 * 4},
		{4, 12 * 4},
	}
	for i, a := range attribs {
		gl.VertexAttribPointerWithOffset(uint32(i), a.size, gl.FLOAT, false, stride, a.offset)
		gl.EnableVertexAttribArray(uint32(i))
	}
	gl.BindVertexArray(0)

	gp.indexCount = int32(len(indices))
	return gp, nil
}

// updateJoints recomputes every skin's joint palette from the current pose.
func (g *gpuModel) updateJoints() {
	if len(g.src.Skins) == 0 {
		return
	}
	world := g.src.WorldMatrices()
	for s := range g.src.Skins {
		mats := g.src.JointMatrices(s, world)
		if len(mats) > maxJoints {
			mats = mats[:maxJoints]
		}
		packed := g.joints[s][:0]
		for i := range mats {
			packed = append(packed, mats[i][:]...)
		}
		g.joints[s] = packed
	}
}

func (g *gpuModel) destroy() {
	for _, prims := range g.meshes {
		for i := range prims {
			p := &prims[i]
			gl.DeleteVertexArrays(1, &p.vao)
			gl.DeleteBuffers(1, &p.vbo)
			gl.DeleteBuffers(1, &p.ebo)
		}
	}
	g.meshes = nil
}

// material returns the material behind handle, if it belongs to g.
func (g *gpuModel) material(handle uint64) (*gpuMaterial, bool) {
	if len(g.materials) == 0 {
		return nil, false
	}
	i := handle - g.materials[0].handle
	if handle < g.materials[0].handle || i >= uint64(len(g.materials)) {
		return nil, false
	}
	return &g.materials[i], true
}
