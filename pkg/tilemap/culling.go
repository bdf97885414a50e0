package tilemap

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	tfmath "github.com/Faultbox/tileforge/pkg/math"
)

// VisibleRange returns the inclusive cell range within Culling.MaxDistance
// of the camera. A non-positive distance selects the whole grid. ok is false
// when the range is empty.
func (m *Map) VisibleRange(camera mgl32.Vec3) (lo, hi [3]int, ok bool) {
	if m.Len() == 0 {
		return lo, hi, false
	}
	full := [3]int{m.Size[0] - 1, m.Size[1] - 1, m.Size[2] - 1}
	d := m.Culling.MaxDistance
	if d <= 0 {
		return [3]int{}, full, true
	}

	// Bound the distance sphere by its world AABB, then map the corners to
	// cell space.
	r := mgl32.Vec3{d, d, d}
	wlo, whi := camera.Sub(r), camera.Add(r)
	var clo, chi mgl32.Vec3
	for i := 0; i < 8; i++ {
		c := wlo
		if i&1 != 0 {
			c[0] = whi[0]
		}
		if i&2 != 0 {
			c[1] = whi[1]
		}
		if i&4 != 0 {
			c[2] = whi[2]
		}
		cell, valid := m.worldToCell(c)
		if !valid {
			return [3]int{}, full, true
		}
		if i == 0 {
			clo, chi = cell, cell
			continue
		}
		for k := 0; k < 3; k++ {
			clo[k] = min(clo[k], cell[k])
			chi[k] = max(chi[k], cell[k])
		}
	}

	for k := 0; k < 3; k++ {
		lo[k] = max(0, int(math.Floor(float64(clo[k]))))
		hi[k] = min(full[k], int(math.Ceil(float64(chi[k]))))
		if lo[k] > hi[k] {
			return lo, hi, false
		}
	}
	return lo, hi, true
}

// VisibleCells lists the occupied cells to render: those in VisibleRange
// whose centre lies within MaxDistance and, when Culling.Frustum is set,
// whose bounds intersect the view frustum of viewProj.
func (m *Map) VisibleCells(camera mgl32.Vec3, viewProj mgl32.Mat4) [][3]int {
	lo, hi, ok := m.VisibleRange(camera)
	if !ok {
		return nil
	}

	var frustum tfmath.Frustum
	if m.Culling.Frustum {
		frustum = tfmath.ExtractFrustum(viewProj)
	}

	var out [][3]int
	for z := lo[2]; z <= hi[2]; z++ {
		for y := lo[1]; y <= hi[1]; y++ {
			for x := lo[0]; x <= hi[0]; x++ {
				if m.Tile(x, y, z) == Empty {
					continue
				}
				bmin, bmax := m.cellAABB(x, y, z)
				if m.Culling.MaxDistance > 0 {
					centre := bmin.Add(bmax).Mul(0.5)
					if centre.Sub(camera).Len() > m.Culling.MaxDistance {
						continue
					}
				}
				if m.Culling.Frustum && !frustum.ContainsAABB(bmin, bmax) {
					continue
				}
				out = append(out, [3]int{x, y, z})
			}
		}
	}
	return out
}
