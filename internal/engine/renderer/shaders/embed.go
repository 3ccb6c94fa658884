// Package shaders provides embedded GLSL shader sources.
package shaders

import _ "embed"

// ModelVertexShader transforms glTF primitives, optionally skinned.
//
//go:embed model.vert
var ModelVertexShader string

// ModelFragmentShader shades glTF metallic-roughness materials.
//
//go:embed model.frag
var ModelFragmentShader string
