package glb

import (
	"bytes"
	"fmt"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	vm "github.com/Faultbox/glbviewer/pkg/math"
)

// Decode parses a GLB payload. Only the default scene's node tree is
// treated as the model root; meshes referenced by no scene are ignored.
func Decode(data []byte) (*Model, error) {
	if err := CheckHeader(data); err != nil {
		return nil, err
	}

	doc := new(gltf.Document)
	if err := gltf.NewDecoder(bytes.NewReader(data)).Decode(doc); err != nil {
		return nil, fmt.Errorf("glb: decode: %w", err)
	}

	m := &Model{}
	d := decoder{doc: doc, model: m}
	if err := d.materials(); err != nil {
		return nil, err
	}
	if err := d.meshes(); err != nil {
		return nil, err
	}
	d.nodes()
	if err := d.skins(); err != nil {
		return nil, err
	}
	if err := d.animations(); err != nil {
		return nil, err
	}
	d.roots()

	if m.Stats().Triangles == 0 {
		return nil, ErrNoMeshes
	}
	return m, nil
}

type decoder struct {
	doc   *gltf.Document
	model *Model
}

// ref unwraps glTF index fields, which are *int when optional and int when
// required.
func ref[T int | *int](v T) (int, bool) {
	switch x := any(v).(type) {
	case int:
		return x, true
	case *int:
		if x == nil {
			return 0, false
		}
		return *x, true
	}
	return 0, false
}

func (d *decoder) accessor(i int) (*gltf.Accessor, error) {
	if i < 0 || i >= len(d.doc.Accessors) {
		return nil, fmt.Errorf("glb: accessor %d out of range", i)
	}
	return d.doc.Accessors[i], nil
}

func (d *decoder) materials() error {
	for _, src := range d.doc.Materials {
		mat := DefaultMaterial()
		mat.Name = src.Name
		mat.DoubleSided = src.DoubleSided
		mat.Emissive = f32x3(src.EmissiveFactor)

		if pbr := src.PBRMetallicRoughness; pbr != nil {
			mat.BaseColor = f32x4(pbr.BaseColorFactorOrDefault())
			mat.Metallic = float32(pbr.MetallicFactorOrDefault())
			mat.Roughness = float32(pbr.RoughnessFactorOrDefault())
		}

		switch src.AlphaMode {
		case gltf.AlphaMask:
			mat.AlphaMode = AlphaMask
		case gltf.AlphaBlend:
			mat.AlphaMode = AlphaBlend
		}
		mat.AlphaCutoff = float32(src.AlphaCutoffOrDefault())

		d.model.Materials = append(d.model.Materials, mat)
	}
	return nil
}

func (d *decoder) meshes() error {
	for mi, src := range d.doc.Meshes {
		mesh := Mesh{Name: src.Name}
		for pi, prim := range src.Primitives {
			if prim.Mode != gltf.PrimitiveTriangles {
				continue
			}
			p, err := d.primitive(prim)
			if err != nil {
				return fmt.Errorf("glb: mesh %d primitive %d: %w", mi, pi, err)
			}
			if p.Skinned() && p.Material >= 0 && p.Material < len(d.model.Materials) {
				d.model.Materials[p.Material].Skinned = true
			}
			mesh.Primitives = append(mesh.Primitives, p)
		}
		d.model.Meshes = append(d.model.Meshes, mesh)
	}
	return nil
}

func (d *decoder) primitive(prim *gltf.Primitive) (Primitive, error) {
	p := Primitive{Material: -1}
	if i, ok := ref(prim.Material); ok {
		p.Material = i
	}

	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return p, fmt.Errorf("missing POSITION")
	}
	acr, err := d.accessor(posIdx)
	if err != nil {
		return p, err
	}
	if p.Positions, err = modeler.ReadPosition(d.doc, acr, nil); err != nil {
		return p, fmt.Errorf("positions: %w", err)
	}
	n := len(p.Positions)

	if i, ok := prim.Attributes[gltf.NORMAL]; ok {
		if acr, err = d.accessor(i); err != nil {
			return p, err
		}
		if p.Normals, err = modeler.ReadNormal(d.doc, acr, nil); err != nil {
			return p, fmt.Errorf("normals: %w", err)
		}
	}
	if i, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
		if acr, err = d.accessor(i); err != nil {
			return p, err
		}
		if p.UVs, err = modeler.ReadTextureCoord(d.doc, acr, nil); err != nil {
			return p, fmt.Errorf("uvs: %w", err)
		}
	}
	ji, hasJ := prim.Attributes[gltf.JOINTS_0]
	wi, hasW := prim.Attributes[gltf.WEIGHTS_0]
	if hasJ && hasW {
		if acr, err = d.accessor(ji); err != nil {
			return p, err
		}
		if p.Joints, err = modeler.ReadJoints(d.doc, acr, nil); err != nil {
			return p, fmt.Errorf("joints: %w", err)
		}
		if acr, err = d.accessor(wi); err != nil {
			return p, err
		}
		if p.Weights, err = modeler.ReadWeights(d.doc, acr, nil); err != nil {
			return p, fmt.Errorf("weights: %w", err)
		}
	}

	if i, ok := ref(prim.Indices); ok {
		if acr, err = d.accessor(i); err != nil {
			return p, err
		}
		if p.Indices, err = modeler.ReadIndices(d.doc, acr, nil); err != nil {
			return p, fmt.Errorf("indices: %w", err)
		}
	} else {
		p.Indices = make([]uint32, n)
		for i := range p.Indices {
			p.Indices[i] = uint32(i)
		}
	}
	for _, idx := range p.Indices {
		if int(idx) >= n {
			return p, fmt.Errorf("index %d out of %d vertices", idx, n)
		}
	}

	// Drop attributes whose counts disagree with positions.
	if len(p.Normals) != n {
		p.Normals = nil
	}
	if len(p.UVs) != n {
		p.UVs = nil
	}
	if len(p.Joints) != n || len(p.Weights) != n {
		p.Joints, p.Weights = nil, nil
	}

	b := vm.EmptyAABB()
	for _, pos := range p.Positions {
		b = b.Extend(vm.V3(pos))
	}
	p.Bounds = b
	return p, nil
}

func (d *decoder) nodes() {
	m := d.model
	m.Nodes = make([]Node, len(d.doc.Nodes))
	for i := range m.Nodes {
		m.Nodes[i].Parent = -1
	}
	for i, src := range d.doc.Nodes {
		n := &m.Nodes[i]
		n.Name = src.Name
		n.Mesh, n.Skin = -1, -1
		if mi, ok := ref(src.Mesh); ok && mi >= 0 && mi < len(d.doc.Meshes) {
			n.Mesh = mi
		}
		if si, ok := ref(src.Skin); ok && si >= 0 && si < len(d.doc.Skins) {
			n.Skin = si
		}

		n.Translation = vm.V3(f32x3(src.TranslationOrDefault()))
		n.Rotation = vm.Q4(f32x4(src.RotationOrDefault()))
		n.Scale = vm.V3(f32x3(src.ScaleOrDefault()))
		if mat := src.MatrixOrDefault(); mat != identity64 {
			var mm vm.Mat4
			for k, v := range mat {
				mm[k] = float32(v)
			}
			n.Matrix = &mm
		}
		n.rest.t, n.rest.r, n.rest.s, n.rest.m = n.Translation, n.Rotation, n.Scale, n.Matrix

		for _, c := range src.Children {
			if c < 0 || c >= len(m.Nodes) || c == i {
				continue
			}
			n.Children = append(n.Children, c)
			m.Nodes[c].Parent = i
		}
	}
}

var identity64 = [16]float64{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}

func (d *decoder) skins() error {
	for si, src := range d.doc.Skins {
		skin := Skin{Name: src.Name}
		// JOINTS_0 indexes this list, so a bad entry cannot just be dropped.
		for k, j := range src.Joints {
			if j < 0 || j >= len(d.model.Nodes) {
				return fmt.Errorf("glb: skin %d joint %d references missing node %d", si, k, j)
			}
			skin.Joints = append(skin.Joints, j)
		}
		skin.InverseBind = make([]vm.Mat4, len(skin.Joints))
		for i := range skin.InverseBind {
			skin.InverseBind[i] = vm.Identity()
		}

		if i, ok := ref(src.InverseBindMatrices); ok {
			acr, err := d.accessor(i)
			if err != nil {
				return err
			}
			raw, err := modeler.ReadAccessor(d.doc, acr, nil)
			if err != nil {
				return fmt.Errorf("glb: skin %d inverse bind matrices: %w", si, err)
			}
			mats, ok := raw.([][4][4]float32)
			if !ok {
				return fmt.Errorf("glb: skin %d inverse bind matrices have type %T", si, raw)
			}
			for k := 0; k < len(mats) && k < len(skin.InverseBind); k++ {
				// The accessor is indexed [row][col]; Mat4 is column-major.
				for c := 0; c < 4; c++ {
					for r := 0; r < 4; r++ {
						skin.InverseBind[k][c*4+r] = mats[k][r][c]
					}
				}
			}
		}
		d.model.Skins = append(d.model.Skins, skin)
	}
	return nil
}

func (d *decoder) roots() {
	m := d.model
	if si, ok := ref(d.doc.Scene); ok && si >= 0 && si < len(d.doc.Scenes) {
		for _, n := range d.doc.Scenes[si].Nodes {
			if n >= 0 && n < len(m.Nodes) {
				m.Roots = append(m.Roots, n)
			}
		}
		if len(m.Roots) > 0 {
			return
		}
	}
	for i := range m.Nodes {
		if m.Nodes[i].Parent < 0 {
			m.Roots = append(m.Roots, i)
		}
	}
}

func f32x3(v [3]float64) [3]float32 {
	return [3]float32{float32(v[0]), float32(v[1]), float32(v[2])}
}

func f32x4(v [4]float64) [4]float32 {
	return [4]float32{float32(v[0]), float32(v[1]), float32(v[2]), float32(v[3])}
}
