package geom

import "fmt"

// FaceID names a texturable surface region of a primitive.
type FaceID string

// Face identifiers.
const (
	FaceFront  FaceID = "Front"
	FaceBack   FaceID = "Back"
	FaceLeft   FaceID = "Left"
	FaceRight  FaceID = "Right"
	FaceTop    FaceID = "Top"
	FaceBottom FaceID = "Bottom"
	FaceBase   FaceID = "Base"
	FaceSide   FaceID = "Side"
	FaceNorth  FaceID = "North"
	FaceSouth  FaceID = "South"
	FaceEast   FaceID = "East"
	FaceWest   FaceID = "West"
)

// ParseFaceID converts a face name to a FaceID.
func ParseFaceID(s string) (FaceID, error) {
	switch f := FaceID(s); f {
	case FaceFront, FaceBack, FaceLeft, FaceRight, FaceTop, FaceBottom,
		FaceBase, FaceSide, FaceNorth, FaceSouth, FaceEast, FaceWest:
		return f, nil
	}
	return "", fmt.Errorf("unknown face %q", s)
}

// Rect is an axis-aligned rectangle in UV space.
type Rect struct {
	UMin, VMin, UMax, VMax float32
}

// Width returns the horizontal extent.
func (r Rect) Width() float32 { return r.UMax - r.UMin }

// Height returns the vertical extent.
func (r Rect) Height() float32 { return r.VMax - r.VMin }

// Overlaps reports whether two rectangles share interior area.
func (r Rect) Overlaps(o Rect) bool {
	const eps = 1e-6
	return r.UMin < o.UMax-eps && o.UMin < r.UMax-eps &&
		r.VMin < o.VMax-eps && o.VMin < r.VMax-eps
}

// InUnitSquare reports whether the rectangle lies within [0,1]².
func (r Rect) InUnitSquare() bool {
	return r.UMin >= 0 && r.VMin >= 0 && r.UMax <= 1 && r.VMax <= 1 &&
		r.UMin < r.UMax && r.VMin < r.VMax
}

// AvailableFaces returns the faces of a primitive in canonical order.
func AvailableFaces(t PrimitiveType) []FaceID {
	switch t {
	case Cube, Rectangle:
		return []FaceID{FaceFront, FaceBack, FaceLeft, FaceRight, FaceTop, FaceBottom}
	case TriangularPyramid:
		return []FaceID{FaceBase, FaceFront, FaceLeft, FaceRight}
	case Pyramid:
		return []FaceID{FaceBase, FaceFront, FaceBack, FaceLeft, FaceRight}
	case Cone:
		return []FaceID{FaceSide, FaceBase}
	case Sphere:
		return []FaceID{FaceNorth, FaceSouth, FaceEast, FaceWest}
	case CylinderOpen:
		return []FaceID{FaceSide}
	case CylinderClosed:
		return []FaceID{FaceSide, FaceTop, FaceBottom}
	default:
		return nil
	}
}

// RegionLayout allocates non-overlapping UV rectangles for a face set.
//
//	6 faces: [Left][Front][Right] / [Back][Bottom][Top]
//	5 faces: cross with Base on top, Back at the bottom
//	4 faces: 2x2 grid filled in the given order
//	3 faces: Side on the left two thirds, Top and Bottom stacked on the right
//	2 faces: first face on the top half, second on the bottom half
//	1 face:  the full square
func RegionLayout(faces []FaceID) map[FaceID]Rect {
	out := make(map[FaceID]Rect, len(faces))
	const third = float32(1) / 3

	switch len(faces) {
	case 0:
	case 6:
		out[FaceLeft] = Rect{0, 0, third, 0.5}
		out[FaceFront] = Rect{third, 0, 2 * third, 0.5}
		out[FaceRight] = Rect{2 * third, 0, 1, 0.5}
		out[FaceBack] = Rect{0, 0.5, third, 1}
		out[FaceBottom] = Rect{third, 0.5, 2 * third, 1}
		out[FaceTop] = Rect{2 * third, 0.5, 1, 1}
	case 5:
		out[FaceBase] = Rect{third, 0, 2 * third, third}
		out[FaceFront] = Rect{third, third, 2 * third, 2 * third}
		out[FaceLeft] = Rect{0, third, third, 2 * third}
		out[FaceRight] = Rect{2 * third, third, 1, 2 * third}
		out[FaceBack] = Rect{third, 2 * third, 2 * third, 1}
	case 4:
		cells := [4]Rect{{0, 0, 0.5, 0.5}, {0.5, 0, 1, 0.5}, {0, 0.5, 0.5, 1}, {0.5, 0.5, 1, 1}}
		for i, f := range faces {
			out[f] = cells[i]
		}
	case 3:
		out[FaceSide] = Rect{0, 0, 2 * third, 1}
		out[FaceTop] = Rect{2 * third, 0, 1, 0.5}
		out[FaceBottom] = Rect{2 * third, 0.5, 1, 1}
	case 2:
		out[faces[0]] = Rect{0, 0, 1, 0.5}
		out[faces[1]] = Rect{0, 0.5, 1, 1}
	case 1:
		out[faces[0]] = Rect{0, 0, 1, 1}
	default:
		// Fall back to horizontal strips.
		h := 1 / float32(len(faces))
		for i, f := range faces {
			out[f] = Rect{0, float32(i) * h, 1, float32(i+1) * h}
		}
	}
	return out
}
