package math

import "github.com/go-gl/mathgl/mgl32"

// LerpVec3 linearly interpolates between two vectors.
func LerpVec3(a, b mgl32.Vec3, t float32) mgl32.Vec3 {
	return a.Add(b.Sub(a).Mul(t))
}

// Slerp spherically interpolates between two rotations along the shortest arc.
func Slerp(a, b mgl32.Quat, t float32) mgl32.Quat {
	if t <= 0 {
		return a.Normalize()
	}
	if t >= 1 {
		return b.Normalize()
	}
	return mgl32.QuatSlerp(a, b, t)
}

// LerpTransform interpolates translation and scale linearly and rotation with Slerp.
func LerpTransform(a, b Transform, t float32) Transform {
	return Transform{
		Translation: LerpVec3(a.Translation, b.Translation, t),
		Rotation:    Slerp(a.Rotation, b.Rotation, t),
		Scale:       LerpVec3(a.Scale, b.Scale, t),
	}
}

// Clamp01 clamps t into [0, 1].
func Clamp01(t float32) float32 {
	return mgl32.Clamp(t, 0, 1)
}
