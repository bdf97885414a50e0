package tilemap

import (
	"github.com/go-gl/mathgl/mgl32"

	tfmath "github.com/Faultbox/tileforge/pkg/math"
)

// MapToLocal returns the local-space origin of a cell.
func (m *Map) MapToLocal(x, y, z int) mgl32.Vec3 {
	return mgl32.Vec3{float32(x) * m.TileSize[0], float32(y) * m.TileSize[1], float32(z) * m.TileSize[2]}
}

// LocalToMap returns the cell containing a local-space point. Coordinates
// truncate toward zero.
func (m *Map) LocalToMap(p mgl32.Vec3) (x, y, z int) {
	return int(p[0] / m.TileSize[0]), int(p[1] / m.TileSize[1]), int(p[2] / m.TileSize[2])
}

// CellWorld returns Transform · diag(TileSize) · (x,y,z,1).
func (m *Map) CellWorld(x, y, z int) mgl32.Vec3 {
	return mgl32.TransformCoordinate(m.MapToLocal(x, y, z), m.Transform)
}

// TileTransform returns the world matrix used to place the tile mesh at a
// cell, including the catalog entry's default transform when one is known.
func (m *Map) TileTransform(x, y, z int) mgl32.Mat4 {
	mat := m.Transform.
		Mul4(mgl32.Translate3D(m.MapToLocal(x, y, z).Elem())).
		Mul4(mgl32.Scale3D(m.TileSize.Elem()))

	if m.Catalog != nil {
		if e, ok := m.Catalog.Tile(m.Tile(x, y, z)); ok {
			mat = mat.Mul4(e.DefaultTransform.Mat4())
		}
	}
	return mat
}

// WorldBounds returns the world-space AABB of the whole grid.
func (m *Map) WorldBounds() (lo, hi mgl32.Vec3) {
	ext := m.MapToLocal(m.Size[0], m.Size[1], m.Size[2])
	return aabb(m.Transform, mgl32.Vec3{}, ext)
}

// cellAABB returns the world AABB of one cell.
func (m *Map) cellAABB(x, y, z int) (lo, hi mgl32.Vec3) {
	return aabb(m.Transform, m.MapToLocal(x, y, z), m.MapToLocal(x+1, y+1, z+1))
}

// aabb transforms the eight corners of a local box and bounds them.
func aabb(t mgl32.Mat4, a, b mgl32.Vec3) (lo, hi mgl32.Vec3) {
	for i := 0; i < 8; i++ {
		c := mgl32.Vec3{a[0], a[1], a[2]}
		if i&1 != 0 {
			c[0] = b[0]
		}
		if i&2 != 0 {
			c[1] = b[1]
		}
		if i&4 != 0 {
			c[2] = b[2]
		}
		w := mgl32.TransformCoordinate(c, t)
		if i == 0 {
			lo, hi = w, w
			continue
		}
		for k := 0; k < 3; k++ {
			lo[k] = min(lo[k], w[k])
			hi[k] = max(hi[k], w[k])
		}
	}
	return lo, hi
}

// worldToCell converts a world point to fractional cell coordinates.
func (m *Map) worldToCell(p mgl32.Vec3) (mgl32.Vec3, bool) {
	if tfmath.FloatEqual(m.Transform.Det(), 0, 1e-9) {
		return mgl32.Vec3{}, false
	}
	local := mgl32.TransformCoordinate(p, m.Transform.Inv())
	return mgl32.Vec3{local[0] / m.TileSize[0], local[1] / m.TileSize[1], local[2] / m.TileSize[2]}, true
}
