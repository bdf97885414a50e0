package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// FaceTransform is a texture placement applied to one face's UVs.
type FaceTransform struct {
	Offset         mgl32.Vec2
	Scale          mgl32.Vec2
	RotationDeg    float32
	UseFullTexture bool
}

// DefaultFaceTransform leaves face UVs unchanged.
func DefaultFaceTransform() FaceTransform {
	return FaceTransform{Scale: mgl32.Vec2{1, 1}}
}

// IsIdentity reports whether applying ft is a no-op on in-range UVs.
func (ft FaceTransform) IsIdentity() bool {
	return ft.Offset == (mgl32.Vec2{}) && ft.Scale == (mgl32.Vec2{1, 1}) && ft.RotationDeg == 0
}

// Apply maps a face-local uv through the transform: centre, rotate, scale,
// offset, then optionally clamp to [0,1]².
func (ft FaceTransform) Apply(uv mgl32.Vec2) mgl32.Vec2 {
	c := uv.Sub(mgl32.Vec2{0.5, 0.5})
	if ft.RotationDeg != 0 {
		rad := float64(mgl32.DegToRad(ft.RotationDeg))
		cos, sin := float32(math.Cos(rad)), float32(math.Sin(rad))
		c = mgl32.Vec2{c[0]*cos - c[1]*sin, c[0]*sin + c[1]*cos}
	}
	out := mgl32.Vec2{
		c[0]*ft.Scale[0] + ft.Offset[0] + 0.5,
		c[1]*ft.Scale[1] + ft.Offset[1] + 0.5,
	}
	if !ft.UseFullTexture {
		out[0] = mgl32.Clamp(out[0], 0, 1)
		out[1] = mgl32.Clamp(out[1], 0, 1)
	}
	return out
}

// ToLocal maps a global uv into the rectangle's [0,1]² frame.
func (r Rect) ToLocal(uv mgl32.Vec2) mgl32.Vec2 {
	w, h := r.Width(), r.Height()
	if w == 0 || h == 0 {
		return mgl32.Vec2{}
	}
	return mgl32.Vec2{(uv[0] - r.UMin) / w, (uv[1] - r.VMin) / h}
}

// ToGlobal maps a local uv back into the rectangle.
func (r Rect) ToGlobal(uv mgl32.Vec2) mgl32.Vec2 {
	return mgl32.Vec2{r.UMin + uv[0]*r.Width(), r.VMin + uv[1]*r.Height()}
}

// WithFaceTransform returns a copy of the mesh with ft applied to every
// vertex of face. Other faces are untouched.
func (m Mesh) WithFaceTransform(face FaceID, ft FaceTransform) Mesh {
	out := m.Clone()
	out.applyFaceTransform(face, ft)
	return out
}

// WithFaceTransforms applies several face transforms in canonical face order.
func (m Mesh) WithFaceTransforms(fts map[FaceID]FaceTransform) Mesh {
	out := m.Clone()
	for _, f := range out.Faces {
		if ft, ok := fts[f]; ok {
			out.applyFaceTransform(f, ft)
		}
	}
	return out
}

func (m *Mesh) applyFaceTransform(face FaceID, ft FaceTransform) {
	region, ok := m.FaceRegions[face]
	if !ok {
		return
	}
	for _, vi := range m.FaceVertices[face] {
		if int(vi) >= len(m.Vertices) {
			continue
		}
		local := region.ToLocal(m.Vertices[vi].UV)
		m.Vertices[vi].UV = region.ToGlobal(ft.Apply(local))
	}
}
