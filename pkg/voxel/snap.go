package voxel

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// SnapMode selects how a raw cursor position becomes a voxel slot.
type SnapMode int

// Snap modes.
const (
	SnapGrid SnapMode = iota
	SnapFace
	SnapFree
)

// String returns the mode name.
func (m SnapMode) String() string {
	switch m {
	case SnapGrid:
		return "grid"
	case SnapFace:
		return "face"
	case SnapFree:
		return "free"
	}
	return fmt.Sprintf("SnapMode(%d)", int(m))
}

// ParseSnapMode parses "grid", "face" or "free".
func ParseSnapMode(s string) (SnapMode, error) {
	switch s {
	case "grid":
		return SnapGrid, nil
	case "face":
		return SnapFace, nil
	case "free":
		return SnapFree, nil
	}
	return SnapGrid, fmt.Errorf("unknown snap mode %q", s)
}

// Face is one of the six axial directions used by face snapping.
type Face int

// Faces in +X, -X, +Y, -Y, +Z, -Z order.
const (
	FacePosX Face = iota
	FaceNegX
	FacePosY
	FaceNegY
	FacePosZ
	FaceNegZ
)

var faceNormals = [6]mgl32.Vec3{
	{1, 0, 0}, {-1, 0, 0},
	{0, 1, 0}, {0, -1, 0},
	{0, 0, 1}, {0, 0, -1},
}

// Faces lists the six faces in order.
var Faces = [6]Face{FacePosX, FaceNegX, FacePosY, FaceNegY, FacePosZ, FaceNegZ}

// Normal returns the unit normal of the face.
func (f Face) Normal() mgl32.Vec3 {
	if f < 0 || int(f) >= len(faceNormals) {
		return mgl32.Vec3{}
	}
	return faceNormals[f]
}

// Snapper converts raw positions to voxel slots.
type Snapper struct {
	Mode     SnapMode
	GridSize float32
	BaseY    float32
	// Face is the direction used by SnapFace. It is ignored by other modes.
	Face Face
}

// DefaultSnapper snaps to a unit grid on y=0.
func DefaultSnapper() Snapper {
	return Snapper{Mode: SnapGrid, GridSize: 1, Face: FacePosY}
}

// SnapToGrid rounds pos to the nearest grid slot; y is offset by BaseY.
func (s Snapper) SnapToGrid(pos mgl32.Vec3) mgl32.Vec3 {
	g := s.GridSize
	if g <= 0 {
		g = 1
	}
	round := func(v float32) float32 { return float32(math.Round(float64(v/g))) * g }
	return mgl32.Vec3{round(pos[0]), round(pos[1]-s.BaseY) + s.BaseY, round(pos[2])}
}

// Snap converts pos according to the mode. Face snapping returns the slot
// adjacent to the nearest voxel in the Face direction, or a grid slot when
// the grid is empty.
func (s Snapper) Snap(pos mgl32.Vec3, g *Grid) mgl32.Vec3 {
	switch s.Mode {
	case SnapFree:
		return pos
	case SnapFace:
		if g == nil || g.Len() == 0 {
			return s.SnapToGrid(pos)
		}
		nearest := -1
		best := float32(math.MaxFloat32)
		for i, v := range g.voxels {
			if d := v.Position.Sub(pos).Len(); d < best {
				best, nearest = d, i
			}
		}
		step := s.GridSize
		if step <= 0 {
			step = 1
		}
		return g.voxels[nearest].Position.Add(s.Face.Normal().Mul(step))
	default:
		return s.SnapToGrid(pos)
	}
}
