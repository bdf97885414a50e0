// Package tile binds a generated primitive mesh to per-face textures.
package tile

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/tileforge/pkg/geom"
)

// Binding assigns a texture and its placement to one face.
type Binding struct {
	Texture        string
	Offset         mgl32.Vec2
	Scale          mgl32.Vec2
	RotationDeg    float32
	UseFullTexture bool
}

// DefaultBinding returns a binding with no texture and an identity placement.
func DefaultBinding() Binding {
	return Binding{Scale: mgl32.Vec2{1, 1}}
}

// FaceTransform returns the UV placement part of the binding.
func (b Binding) FaceTransform() geom.FaceTransform {
	return geom.FaceTransform{
		Offset:         b.Offset,
		Scale:          b.Scale,
		RotationDeg:    b.RotationDeg,
		UseFullTexture: b.UseFullTexture,
	}
}

// Asset is a named tile: a mesh plus the textures bound to its faces.
type Asset struct {
	Name     string
	Params   geom.Params
	Mesh     geom.Mesh
	Bindings map[geom.FaceID]Binding
}

// New generates the mesh for params and returns an asset without bindings.
func New(name string, params geom.Params) *Asset {
	return &Asset{
		Name:     name,
		Params:   params,
		Mesh:     geom.Generate(params),
		Bindings: make(map[geom.FaceID]Binding),
	}
}

// Regenerate rebuilds the mesh after a parameter change. Bindings for faces
// the new primitive does not have are dropped.
func (a *Asset) Regenerate(params geom.Params) {
	a.Params = params
	a.Mesh = geom.Generate(params)
	for f := range a.Bindings {
		if _, ok := a.Mesh.FaceVertices[f]; !ok {
			delete(a.Bindings, f)
		}
	}
}

// HasFace reports whether the mesh has face f.
func (a *Asset) HasFace(f geom.FaceID) bool {
	_, ok := a.Mesh.FaceVertices[f]
	return ok
}

// Bind sets the binding for a face. Faces the mesh lacks are ignored.
func (a *Asset) Bind(f geom.FaceID, b Binding) bool {
	if !a.HasFace(f) {
		return false
	}
	if b.Scale == (mgl32.Vec2{}) {
		b.Scale = mgl32.Vec2{1, 1}
	}
	a.Bindings[f] = b
	return true
}

// SetTexture binds a texture to a face, keeping any existing placement.
func (a *Asset) SetTexture(f geom.FaceID, texture string) bool {
	b, ok := a.Bindings[f]
	if !ok {
		b = DefaultBinding()
	}
	b.Texture = texture
	return a.Bind(f, b)
}

// ResetFace restores the default placement of a face, keeping its texture.
func (a *Asset) ResetFace(f geom.FaceID) {
	b, ok := a.Bindings[f]
	if !ok {
		return
	}
	tex := b.Texture
	b = DefaultBinding()
	b.Texture = tex
	a.Bindings[f] = b
}

// ResetAll restores the default placement of every bound face.
func (a *Asset) ResetAll() {
	for f := range a.Bindings {
		a.ResetFace(f)
	}
}

// Textures returns the bound texture paths in canonical face order, without
// duplicates or blanks.
func (a *Asset) Textures() []string {
	var out []string
	seen := make(map[string]bool)
	for _, f := range a.Mesh.Faces {
		b, ok := a.Bindings[f]
		if !ok || b.Texture == "" || seen[b.Texture] {
			continue
		}
		seen[b.Texture] = true
		out = append(out, b.Texture)
	}
	return out
}

// ExportMesh returns the mesh with every binding's UV transform applied.
func (a *Asset) ExportMesh() geom.Mesh {
	fts := make(map[geom.FaceID]geom.FaceTransform, len(a.Bindings))
	for f, b := range a.Bindings {
		fts[f] = b.FaceTransform()
	}
	return a.Mesh.WithFaceTransforms(fts)
}
