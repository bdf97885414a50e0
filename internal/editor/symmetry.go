package editor

import (
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

// SymmetryMode selects the axes mirrored by placement tools.
type SymmetryMode int

const (
	SymmetryNone SymmetryMode = iota
	SymmetryX
	SymmetryY
	SymmetryZ
	SymmetryXY
	SymmetryXZ
	SymmetryYZ
	SymmetryXYZ
)

var symmetryNames = [...]string{"none", "x", "y", "z", "xy", "xz", "yz", "xyz"}

func (m SymmetryMode) String() string {
	if m < 0 || int(m) >= len(symmetryNames) {
		return fmt.Sprintf("SymmetryMode(%d)", int(m))
	}
	return symmetryNames[m]
}

// ParseSymmetryMode parses "none", "x", ..., "xyz". Case is ignored.
func ParseSymmetryMode(s string) (SymmetryMode, error) {
	for i, n := range symmetryNames {
		if strings.EqualFold(s, n) {
			return SymmetryMode(i), nil
		}
	}
	return SymmetryNone, fmt.Errorf("unknown symmetry mode %q", s)
}

// axes returns which components the mode flips.
func (m SymmetryMode) axes() [3]bool {
	s := m.String()
	if m == SymmetryNone {
		return [3]bool{}
	}
	return [3]bool{strings.Contains(s, "x"), strings.Contains(s, "y"), strings.Contains(s, "z")}
}

// Symmetry mirrors positions about Center.
type Symmetry struct {
	Mode   SymmetryMode
	Center mgl32.Vec3
}

// Mirrors returns the images of pos under every non-identity combination
// of the mode's axis flips: 1 for a single axis, 3 for two and 7 for XYZ.
func (s Symmetry) Mirrors(pos mgl32.Vec3) []mgl32.Vec3 {
	ax := s.Mode.axes()
	var flips []int
	for i, on := range ax {
		if on {
			flips = append(flips, i)
		}
	}
	if len(flips) == 0 {
		return nil
	}

	off := pos.Sub(s.Center)
	out := make([]mgl32.Vec3, 0, 1<<len(flips)-1)
	for mask := 1; mask < 1<<len(flips); mask++ {
		m := off
		for bit, axis := range flips {
			if mask&(1<<bit) != 0 {
				m[axis] = -m[axis]
			}
		}
		out = append(out, s.Center.Add(m))
	}
	return out
}

// Orbit returns pos followed by its mirrors.
func (s Symmetry) Orbit(pos mgl32.Vec3) []mgl32.Vec3 {
	return append([]mgl32.Vec3{pos}, s.Mirrors(pos)...)
}
