package renderer

import (
	"testing"

	"github.com/Faultbox/glbviewer/internal/glb"
	"github.com/Faultbox/glbviewer/internal/viewer"
	vm "github.com/Faultbox/glbviewer/pkg/math"
)

func TestSunFollowsNewestLight(t *testing.T) {
	e := New(Options{})

	if _, rad := e.sunRadiance(); rad != [3]float32{} {
		t.Fatalf("radiance without lights = %v, want black", rad)
	}

	first, _ := e.CreateDirectionalLight([3]float32{1, 0, 0}, 1000, [3]float32{0, -2, 0})
	second, _ := e.CreateDirectionalLight([3]float32{0, 1, 0}, 1000, [3]float32{1, 0, 0})

	dir, rad := e.sunRadiance()
	if dir != [3]float32{1, 0, 0} || rad[1] == 0 || rad[0] != 0 {
		t.Errorf("sun = %v %v, want the second light", dir, rad)
	}

	e.RemoveLight(second)
	dir, rad = e.sunRadiance()
	if dir != [3]float32{0, -1, 0} || rad[0] == 0 {
		t.Errorf("after removal sun = %v %v, want the first light normalized", dir, rad)
	}

	e.RemoveLight(first)
	e.RemoveLight(first)
	if _, rad := e.sunRadiance(); rad != [3]float32{} {
		t.Errorf("radiance after removing all = %v", rad)
	}
}

func TestManipulateDrivesCamera(t *testing.T) {
	e := New(Options{})
	yaw, dist := e.camera.Yaw, e.camera.Distance

	e.Manipulate(viewer.TouchEvent{Action: viewer.TouchDown, X: 10, Y: 10})
	e.Manipulate(viewer.TouchEvent{Action: viewer.TouchMove, X: 60, Y: 10})
	if e.camera.Yaw == yaw {
		t.Error("drag did not orbit the camera")
	}
	e.Manipulate(viewer.TouchEvent{Action: viewer.TouchUp, X: 60, Y: 10})
	if e.camera.Dragging() {
		t.Error("camera still dragging after up")
	}

	e.Manipulate(viewer.TouchEvent{Action: viewer.TouchScroll, Scroll: 1})
	if e.camera.Distance == dist {
		t.Error("scroll did not zoom")
	}
}

func TestUnboundEngine(t *testing.T) {
	e := New(Options{})
	if err := e.Render(1); err != errNotBound {
		t.Errorf("Render = %v, want errNotBound", err)
	}
	if _, err := e.LoadGLB(nil); err != errNotBound {
		t.Errorf("LoadGLB = %v, want errNotBound", err)
	}
	if e.HasModel() || e.Animator() != nil || e.Materials() != nil {
		t.Error("unbound engine reports a model")
	}
	if err := e.CompileMaterial(1, viewer.PriorityHigh, viewer.HighPriorityVariants); err == nil {
		t.Error("CompileMaterial without a model succeeded")
	}
	if id, w, h := e.Texture(); id != 0 || w != 0 || h != 0 {
		t.Error("Texture before Bind is not empty")
	}
	e.Destroy()
}

func TestSceneMaterialsSkipUninstancedMeshes(t *testing.T) {
	src := &glb.Model{
		Meshes: make([]glb.Mesh, 3),
		Nodes: []glb.Node{
			{Parent: -1, Mesh: -1, Skin: -1, Children: []int{1, 2}, Scale: vm.Vec3{X: 1, Y: 1, Z: 1}, Rotation: vm.QuatIdentity()},
			{Parent: 0, Mesh: 2, Skin: -1, Scale: vm.Vec3{X: 1, Y: 1, Z: 1}, Rotation: vm.QuatIdentity()},
			{Parent: 0, Mesh: 2, Skin: -1, Scale: vm.Vec3{X: 1, Y: 1, Z: 1}, Rotation: vm.QuatIdentity()},
			// Not part of the default scene.
			{Parent: -1, Mesh: 0, Skin: -1, Scale: vm.Vec3{X: 1, Y: 1, Z: 1}, Rotation: vm.QuatIdentity()},
		},
		Roots: []int{0},
	}
	m := &gpuModel{
		src: src,
		meshes: [][]gpuPrimitive{
			{{material: 0}},
			{{material: 1}},
			{{material: 2}, {material: 3}, {material: 2}},
		},
		materials: []gpuMaterial{{handle: 10}, {handle: 11}, {handle: 12}, {handle: 13}},
	}

	got := m.sceneMaterials()
	want := []uint64{12, 13}
	if len(got) != len(want) {
		t.Fatalf("sceneMaterials() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sceneMaterials() = %v, want %v", got, want)
			break
		}
	}
}
