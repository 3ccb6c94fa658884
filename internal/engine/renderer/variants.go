package renderer

import (
	"github.com/Faultbox/glbviewer/internal/glb"
	"github.com/Faultbox/glbviewer/internal/viewer"
)

// baseVariants are the lighting paths every program of this backend carries.
const baseVariants = viewer.VariantDirectionalLighting | viewer.VariantDynamicLighting

// supportedVariants are the mask bits that map to shader defines. The rest
// (shadow receiving, fog, VSM, SSR) have no implementation here and are
// ignored when selecting programs.
const supportedVariants = baseVariants | viewer.VariantSkinning

// programKey identifies one compiled shader program.
type programKey struct {
	variants viewer.VariantMask
	masked   bool
}

// keyFor returns the program a primitive draws with.
func keyFor(mat glb.Material, skinned bool) programKey {
	k := programKey{variants: baseVariants, masked: mat.AlphaMode == glb.AlphaMask}
	if skinned {
		k.variants |= viewer.VariantSkinning
	}
	return k
}

// selects reports whether a compile request for mask covers k. A program
// with variants beyond the base set is selected by those extra bits; a base
// program by any base bit.
func selects(mask viewer.VariantMask, k programKey) bool {
	if extra := k.variants &^ baseVariants; extra != 0 {
		return mask&extra != 0
	}
	return mask&baseVariants != 0
}

// defines returns the preprocessor symbols for k.
func (k programKey) defines() []string {
	var out []string
	if k.variants&viewer.VariantDirectionalLighting != 0 {
		out = append(out, "DIRECTIONAL_LIGHTING")
	}
	if k.variants&viewer.VariantDynamicLighting != 0 {
		out = append(out, "DYNAMIC_LIGHTING")
	}
	if k.variants&viewer.VariantSkinning != 0 {
		out = append(out, "SKINNING")
	}
	if k.masked {
		out = append(out, "ALPHA_MASK")
	}
	return out
}
