package glb

import (
	vm "github.com/Faultbox/glbviewer/pkg/math"
)

// WorldMatrices returns every node's world transform for the current pose.
// Nodes outside the default scene get their own subtree's transform.
func (m *Model) WorldMatrices() []vm.Mat4 {
	world := make([]vm.Mat4, len(m.Nodes))
	done := make([]bool, len(m.Nodes))

	var visit func(i int, parent vm.Mat4)
	visit = func(i int, parent vm.Mat4) {
		if done[i] {
			return
		}
		done[i] = true
		world[i] = parent.Mul(m.Nodes[i].Local())
		for _, c := range m.Nodes[i].Children {
			visit(c, world[i])
		}
	}
	for i := range m.Nodes {
		if m.Nodes[i].Parent < 0 {
			visit(i, vm.Identity())
		}
	}
	// Cycles leave nodes unreached; give them their local transform.
	for i := range m.Nodes {
		if !done[i] {
			visit(i, vm.Identity())
		}
	}
	return world
}

// sceneNodes lists the default scene's nodes depth first.
func (m *Model) sceneNodes() []int {
	var out []int
	seen := make([]bool, len(m.Nodes))
	var walk func(int)
	walk = func(i int) {
		if seen[i] {
			return
		}
		seen[i] = true
		out = append(out, i)
		for _, c := range m.Nodes[i].Children {
			walk(c)
		}
	}
	for _, r := range m.Roots {
		walk(r)
	}
	return out
}

// Instance is one mesh placed in the scene.
type Instance struct {
	Node  int
	Mesh  int
	World vm.Mat4
}

// Instances returns the mesh nodes of the default scene with their world
// transforms for the current pose.
func (m *Model) Instances() []Instance {
	world := m.WorldMatrices()
	var out []Instance
	for _, n := range m.sceneNodes() {
		if mi := m.Nodes[n].Mesh; mi >= 0 {
			out = append(out, Instance{Node: n, Mesh: mi, World: world[n]})
		}
	}
	return out
}

// Bounds returns the world-space bounds of the default scene in its current pose.
func (m *Model) Bounds() vm.AABB {
	b := vm.EmptyAABB()
	for _, inst := range m.Instances() {
		for _, p := range m.Meshes[inst.Mesh].Primitives {
			b = b.Union(p.Bounds.Transform(inst.World))
		}
	}
	return b
}

// UnitCubeTransform centers the model at the origin and scales its largest
// extent to 2 so it fits [-1, 1] on every axis. Empty or flat-to-a-point
// bounds yield the identity.
func (m *Model) UnitCubeTransform() vm.Mat4 {
	b := m.Bounds()
	if !b.Valid() {
		return vm.Identity()
	}
	extent := b.Size().MaxComponent()
	if extent <= 0 {
		return vm.Identity()
	}
	s := 2 / extent
	return vm.Scale(vm.Vec3{X: s, Y: s, Z: s}).Mul(vm.Translate(b.Center().Scale(-1)))
}

// JointMatrices returns world(joint) * inverseBind for every joint of skin,
// in the order the vertex JOINTS_0 attribute indexes them.
func (m *Model) JointMatrices(skin int, world []vm.Mat4) []vm.Mat4 {
	if skin < 0 || skin >= len(m.Skins) {
		return nil
	}
	if world == nil {
		world = m.WorldMatrices()
	}
	s := &m.Skins[skin]
	out := make([]vm.Mat4, len(s.Joints))
	for i, j := range s.Joints {
		out[i] = world[j].Mul(s.InverseBind[i])
	}
	return out
}

// ResetPose restores every node's rest transform.
func (m *Model) ResetPose() {
	for i := range m.Nodes {
		n := &m.Nodes[i]
		n.Translation, n.Rotation, n.Scale, n.Matrix = n.rest.t, n.rest.r, n.rest.s, n.rest.m
	}
}
