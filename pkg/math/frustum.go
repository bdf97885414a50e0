package math

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Frustum holds six normalized planes (Ax + By + Cz + D = 0) with normals
// pointing inside: Left, Right, Bottom, Top, Near, Far.
type Frustum [6]mgl32.Vec4

// ExtractFrustum extracts the clip planes from a view-projection matrix
// using the OpenGL depth convention.
func ExtractFrustum(vp mgl32.Mat4) Frustum {
	var f Frustum
	row := func(r int) mgl32.Vec4 {
		return mgl32.Vec4{vp.At(r, 0), vp.At(r, 1), vp.At(r, 2), vp.At(r, 3)}
	}
	w := row(3)
	f[0] = w.Add(row(0))
	f[1] = w.Sub(row(0))
	f[2] = w.Add(row(1))
	f[3] = w.Sub(row(1))
	f[4] = w.Add(row(2))
	f[5] = w.Sub(row(2))

	for i := range f {
		l := float32(math.Sqrt(float64(f[i][0]*f[i][0] + f[i][1]*f[i][1] + f[i][2]*f[i][2])))
		if l > 0 {
			f[i] = f[i].Mul(1 / l)
		}
	}
	return f
}

// ContainsAABB reports whether the box [min, max] is at least partly inside.
// For each plane the corner furthest along the normal is tested; if even that
// corner is behind the plane the whole box is outside.
func (f Frustum) ContainsAABB(min, max mgl32.Vec3) bool {
	for _, p := range f {
		var c mgl32.Vec3
		for axis := 0; axis < 3; axis++ {
			if p[axis] > 0 {
				c[axis] = max[axis]
			} else {
				c[axis] = min[axis]
			}
		}
		if p[0]*c[0]+p[1]*c[1]+p[2]*c[2]+p[3] < 0 {
			return false
		}
	}
	return true
}
