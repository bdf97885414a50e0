package geom

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

// ErrInvalidParams is returned by Validate for unusable primitive parameters.
var ErrInvalidParams = errors.New("invalid primitive parameters")

// PrimitiveType selects a generator.
type PrimitiveType int

// Primitive types.
const (
	Cube PrimitiveType = iota
	Rectangle
	TriangularPyramid
	Pyramid
	Cone
	Sphere
	CylinderOpen
	CylinderClosed
)

var primitiveNames = map[PrimitiveType]string{
	Cube:              "cube",
	Rectangle:         "rectangle",
	TriangularPyramid: "triangular_pyramid",
	Pyramid:           "pyramid",
	Cone:              "cone",
	Sphere:            "sphere",
	CylinderOpen:      "cylinder_open",
	CylinderClosed:    "cylinder_closed",
}

// String returns the snake_case name of the primitive.
func (t PrimitiveType) String() string {
	if s, ok := primitiveNames[t]; ok {
		return s
	}
	return fmt.Sprintf("Unknown(%d)", int(t))
}

// ParsePrimitiveType resolves a primitive name. Dashes and case are ignored.
func ParsePrimitiveType(s string) (PrimitiveType, error) {
	s = strings.ReplaceAll(strings.ToLower(s), "-", "_")
	for t, name := range primitiveNames {
		if name == s {
			return t, nil
		}
	}
	if s == "cylinder" {
		return CylinderClosed, nil
	}
	return 0, fmt.Errorf("unknown primitive %q", s)
}

// IsRound reports whether the primitive is tessellated by Subdivisions.
func (t PrimitiveType) IsRound() bool {
	return t == Cone || t == Sphere || t == CylinderOpen || t == CylinderClosed
}

// Params controls primitive generation.
type Params struct {
	Type         PrimitiveType
	Dimensions   mgl32.Vec3
	Subdivisions int
	Radius       float32
	Height       float32
	Closed       bool
	GenerateUVs  bool
	// UVScale multiplies face-local uvs before they are placed in the
	// face's region. Scaled values are clamped to the region, so a scale
	// above 1 never samples a neighbouring face.
	UVScale      float32
}

// DefaultParams returns a unit-sized primitive of the given type.
func DefaultParams(t PrimitiveType) Params {
	return Params{
		Type:         t,
		Dimensions:   mgl32.Vec3{1, 1, 1},
		Subdivisions: 16,
		Radius:       0.5,
		Height:       1,
		Closed:       t == CylinderClosed,
		GenerateUVs:  true,
		UVScale:      1,
	}
}

// Validate reports whether the parameters describe a renderable primitive.
func (p Params) Validate() error {
	if _, ok := generators[p.Type]; !ok {
		return fmt.Errorf("%w: unknown type %d", ErrInvalidParams, int(p.Type))
	}
	switch p.Type {
	case Cube, Rectangle, TriangularPyramid, Pyramid:
		if p.Dimensions[0] <= 0 || p.Dimensions[1] <= 0 || p.Dimensions[2] <= 0 {
			return fmt.Errorf("%w: dimensions must be positive, got %v", ErrInvalidParams, p.Dimensions)
		}
	default:
		if p.Radius <= 0 {
			return fmt.Errorf("%w: radius must be positive, got %g", ErrInvalidParams, p.Radius)
		}
		if p.Type != Sphere && p.Height <= 0 {
			return fmt.Errorf("%w: height must be positive, got %g", ErrInvalidParams, p.Height)
		}
		if p.Subdivisions < 3 {
			return fmt.Errorf("%w: subdivisions must be at least 3, got %d", ErrInvalidParams, p.Subdivisions)
		}
	}
	if p.GenerateUVs && p.UVScale <= 0 {
		return fmt.Errorf("%w: uv scale must be positive, got %g", ErrInvalidParams, p.UVScale)
	}
	return nil
}
