// Package math provides transform, interpolation and culling helpers on top of mgl32.
package math

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Epsilon is the default tolerance for float comparisons.
const Epsilon = 1e-4

// Transform is a translation/rotation/scale triple.
// The composed matrix is T * R * S.
type Transform struct {
	Translation mgl32.Vec3
	Rotation    mgl32.Quat
	Scale       mgl32.Vec3
}

// Identity returns the identity transform.
func Identity() Transform {
	return Transform{
		Rotation: mgl32.QuatIdent(),
		Scale:    mgl32.Vec3{1, 1, 1},
	}
}

// Translated returns an identity transform moved to p.
func Translated(p mgl32.Vec3) Transform {
	t := Identity()
	t.Translation = p
	return t
}

// Mat4 composes the transform into a column-major matrix.
func (t Transform) Mat4() mgl32.Mat4 {
	m := mgl32.Translate3D(t.Translation[0], t.Translation[1], t.Translation[2])
	m = m.Mul4(t.Rotation.Normalize().Mat4())
	return m.Mul4(mgl32.Scale3D(t.Scale[0], t.Scale[1], t.Scale[2]))
}

// Mul returns the transform equivalent to applying o first and then t.
func (t Transform) Mul(o Transform) Transform {
	return Decompose(t.Mat4().Mul4(o.Mat4()))
}

// TransformPoint applies the transform to a point.
func (t Transform) TransformPoint(p mgl32.Vec3) mgl32.Vec3 {
	return t.Mat4().Mul4x1(p.Vec4(1)).Vec3()
}

// ApproxEqual compares two transforms component-wise with tolerance eps.
// Rotations q and -q are considered equal.
func (t Transform) ApproxEqual(o Transform, eps float32) bool {
	return t.Translation.ApproxEqualThreshold(o.Translation, eps) &&
		t.Scale.ApproxEqualThreshold(o.Scale, eps) &&
		t.Rotation.OrientationEqualThreshold(o.Rotation, eps)
}

// Decompose splits an affine matrix without shear into T, R and S.
func Decompose(m mgl32.Mat4) Transform {
	out := Transform{
		Translation: m.Col(3).Vec3(),
		Rotation:    mgl32.QuatIdent(),
	}

	c0, c1, c2 := m.Col(0).Vec3(), m.Col(1).Vec3(), m.Col(2).Vec3()
	out.Scale = mgl32.Vec3{c0.Len(), c1.Len(), c2.Len()}
	if out.Scale[0] == 0 || out.Scale[1] == 0 || out.Scale[2] == 0 {
		return out
	}

	// Keep a right-handed basis; fold a mirror into the X scale.
	if c0.Cross(c1).Dot(c2) < 0 {
		out.Scale[0] = -out.Scale[0]
	}

	rot := mgl32.Ident4()
	rot.SetCol(0, c0.Mul(1/out.Scale[0]).Vec4(0))
	rot.SetCol(1, c1.Mul(1/out.Scale[1]).Vec4(0))
	rot.SetCol(2, c2.Mul(1/out.Scale[2]).Vec4(0))
	out.Rotation = mgl32.Mat4ToQuat(rot).Normalize()
	return out
}

// QuatFromEulerDeg builds a rotation from XYZ Euler angles in degrees.
func QuatFromEulerDeg(e mgl32.Vec3) mgl32.Quat {
	return mgl32.AnglesToQuat(
		mgl32.DegToRad(e[0]),
		mgl32.DegToRad(e[1]),
		mgl32.DegToRad(e[2]),
		mgl32.XYZ,
	)
}

// FloatEqual reports whether a and b differ by at most eps.
func FloatEqual(a, b, eps float32) bool {
	return float32(math.Abs(float64(a-b))) <= eps
}
