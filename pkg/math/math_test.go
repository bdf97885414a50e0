package math

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestTransformMat4_Identity(t *testing.T) {
	m := Identity().Mat4()
	if !m.ApproxEqualThreshold(mgl32.Ident4(), 1e-6) {
		t.Errorf("identity transform should compose to identity matrix, got %v", m)
	}
}

func TestTransformPoint_TRSOrder(t *testing.T) {
	tr := Transform{
		Translation: mgl32.Vec3{10, 0, 0},
		Rotation:    mgl32.QuatRotate(mgl32.DegToRad(90), mgl32.Vec3{0, 0, 1}),
		Scale:       mgl32.Vec3{2, 2, 2},
	}

	// Scale first, then rotate, then translate.
	got := tr.TransformPoint(mgl32.Vec3{1, 0, 0})
	want := mgl32.Vec3{10, 2, 0}
	if !got.ApproxEqualThreshold(want, 1e-5) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestDecompose_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		tr   Transform
	}{
		{"identity", Identity()},
		{"translated", Translated(mgl32.Vec3{1, 2, 3})},
		{"rotated", Transform{
			Rotation: mgl32.QuatRotate(0.7, mgl32.Vec3{1, 1, 0}.Normalize()),
			Scale:    mgl32.Vec3{1, 1, 1},
		}},
		{"full", Transform{
			Translation: mgl32.Vec3{-4, 0.5, 9},
			Rotation:    QuatFromEulerDeg(mgl32.Vec3{30, 45, 60}),
			Scale:       mgl32.Vec3{2, 0.5, 3},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decompose(tt.tr.Mat4())
			if !got.ApproxEqual(tt.tr, 1e-4) {
				t.Errorf("expected %+v, got %+v", tt.tr, got)
			}
		})
	}
}

func TestTransformMul(t *testing.T) {
	parent := Transform{
		Translation: mgl32.Vec3{0, 1, 0},
		Rotation:    mgl32.QuatRotate(mgl32.DegToRad(90), mgl32.Vec3{0, 0, 1}),
		Scale:       mgl32.Vec3{1, 1, 1},
	}
	child := Translated(mgl32.Vec3{0, 1, 0})

	world := parent.Mul(child)
	assert.True(t, world.Translation.ApproxEqualThreshold(mgl32.Vec3{-1, 1, 0}, 1e-5), "got %v", world.Translation)
	assert.True(t, world.Rotation.OrientationEqualThreshold(parent.Rotation, 1e-5))
}

func TestLerpTransform_Midpoint(t *testing.T) {
	a := Transform{
		Translation: mgl32.Vec3{0, 0, 0},
		Rotation:    mgl32.QuatIdent(),
		Scale:       mgl32.Vec3{1, 1, 1},
	}
	b := Transform{
		Translation: mgl32.Vec3{2, 4, -6},
		Rotation:    mgl32.QuatRotate(mgl32.DegToRad(90), mgl32.Vec3{0, 1, 0}),
		Scale:       mgl32.Vec3{3, 3, 3},
	}

	mid := LerpTransform(a, b, 0.5)
	assert.True(t, mid.Translation.ApproxEqualThreshold(mgl32.Vec3{1, 2, -3}, 1e-6))
	assert.True(t, mid.Scale.ApproxEqualThreshold(mgl32.Vec3{2, 2, 2}, 1e-6))

	want := mgl32.QuatRotate(mgl32.DegToRad(45), mgl32.Vec3{0, 1, 0})
	assert.True(t, mid.Rotation.OrientationEqualThreshold(want, 1e-5), "got %v", mid.Rotation)
}

func TestSlerp_Endpoints(t *testing.T) {
	a := mgl32.QuatIdent()
	b := mgl32.QuatRotate(1.2, mgl32.Vec3{1, 0, 0})

	assert.True(t, Slerp(a, b, -1).ApproxEqualThreshold(a, 1e-6))
	assert.True(t, Slerp(a, b, 2).ApproxEqualThreshold(b, 1e-6))
}

func TestClamp01(t *testing.T) {
	assert.Equal(t, float32(0), Clamp01(-3))
	assert.Equal(t, float32(0.25), Clamp01(0.25))
	assert.Equal(t, float32(1), Clamp01(7))
}

func TestFrustum_ContainsAABB(t *testing.T) {
	proj := mgl32.Perspective(mgl32.DegToRad(60), 1, 0.1, 100)
	view := mgl32.LookAtV(mgl32.Vec3{0, 0, 10}, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 1, 0})
	f := ExtractFrustum(proj.Mul4(view))

	for i, p := range f {
		n := float32(math.Sqrt(float64(p[0]*p[0] + p[1]*p[1] + p[2]*p[2])))
		if !FloatEqual(n, 1, 1e-4) {
			t.Errorf("plane %d not normalized: |n|=%f", i, n)
		}
	}

	tests := []struct {
		name     string
		min, max mgl32.Vec3
		want     bool
	}{
		{"origin box", mgl32.Vec3{-1, -1, -1}, mgl32.Vec3{1, 1, 1}, true},
		{"behind camera", mgl32.Vec3{-1, -1, 20}, mgl32.Vec3{1, 1, 22}, false},
		{"far left", mgl32.Vec3{-200, -1, -1}, mgl32.Vec3{-100, 1, 1}, false},
		{"beyond far plane", mgl32.Vec3{-1, -1, -200}, mgl32.Vec3{1, 1, -150}, false},
		{"straddles near plane", mgl32.Vec3{-1, -1, 5}, mgl32.Vec3{1, 1, 15}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := f.ContainsAABB(tt.min, tt.max); got != tt.want {
				t.Errorf("ContainsAABB(%v, %v) = %v, want %v", tt.min, tt.max, got, tt.want)
			}
		})
	}
}
