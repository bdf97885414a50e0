// Package tilemap implements the dense 3D tile grid: cell access, bulk fills,
// flood fill, world transforms and visibility culling.
package tilemap

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/tileforge/pkg/catalog"
)

// Empty marks an unoccupied cell.
const Empty = -1

// MaxCells bounds sx·sy·sz for every map.
const MaxCells = 1 << 26

// Tilemap errors.
var (
	ErrOutOfRange = errors.New("cell out of range")
	ErrParse      = errors.New("tilemap parse error")
	ErrBadSize    = errors.New("invalid tilemap size")
)

// CullingConfig controls VisibleRange and VisibleCells.
type CullingConfig struct {
	MaxDistance float32
	Frustum     bool
}

// LODConfig is stored for renderers; the grid itself does not use it.
type LODConfig struct {
	Enabled  bool
	Distance float32
}

// Map is a dense sx×sy×sz grid of tile ids. Cell (x,y,z) lives at
// index z·sx·sy + y·sx + x.
type Map struct {
	Size  [3]int
	Tiles []int32

	TileSize       mgl32.Vec3
	Modulate       [4]float32
	CastShadows    bool
	ReceiveShadows bool
	Culling        CullingConfig
	LOD            LODConfig
	Collision      bool

	// Transform is the owner's global transform.
	Transform mgl32.Mat4
	Catalog   *catalog.Catalog

	modified bool
}

// New creates an empty map of the given size.
func New(sx, sy, sz int) (*Map, error) {
	n, ok := cellCount(sx, sy, sz)
	if !ok {
		return nil, fmt.Errorf("%w: %dx%dx%d", ErrBadSize, sx, sy, sz)
	}
	m := &Map{
		Size:           [3]int{sx, sy, sz},
		TileSize:       mgl32.Vec3{1, 1, 1},
		Modulate:       [4]float32{1, 1, 1, 1},
		CastShadows:    true,
		ReceiveShadows: true,
		Culling:        CullingConfig{MaxDistance: 100, Frustum: true},
		LOD:            LODConfig{Enabled: false, Distance: 50},
		Transform:      mgl32.Ident4(),
	}
	m.Tiles = newCells(n)
	return m, nil
}

// Default returns a 10×1×10 map.
func Default() *Map {
	m, _ := New(10, 1, 10)
	return m
}

// cellCount returns sx·sy·sz, or false when a side is negative or the
// product exceeds MaxCells.
func cellCount(sx, sy, sz int) (int, bool) {
	if sx < 0 || sy < 0 || sz < 0 {
		return 0, false
	}
	n := 1
	for _, d := range [3]int{sx, sy, sz} {
		if d == 0 {
			return 0, true
		}
		if d > MaxCells/n {
			return 0, false
		}
		n *= d
	}
	return n, true
}

func newCells(n int) []int32 {
	cells := make([]int32, n)
	for i := range cells {
		cells[i] = Empty
	}
	return cells
}

// Modified reports unsaved changes.
func (m *Map) Modified() bool { return m.modified }

// ClearModified marks the map as saved.
func (m *Map) ClearModified() { m.modified = false }

// Len returns sx·sy·sz.
func (m *Map) Len() int { return m.Size[0] * m.Size[1] * m.Size[2] }

// InBounds reports whether (x,y,z) is a valid cell.
func (m *Map) InBounds(x, y, z int) bool {
	return x >= 0 && y >= 0 && z >= 0 && x < m.Size[0] && y < m.Size[1] && z < m.Size[2]
}

// Index returns the flat index of (x,y,z), or -1 when out of range.
func (m *Map) Index(x, y, z int) int {
	if !m.InBounds(x, y, z) {
		return -1
	}
	return z*m.Size[0]*m.Size[1] + y*m.Size[0] + x
}

// Coords is the inverse of Index.
func (m *Map) Coords(i int) (x, y, z int) {
	layer := m.Size[0] * m.Size[1]
	z = i / layer
	rem := i % layer
	return rem % m.Size[0], rem / m.Size[0], z
}

// Tile returns the id at (x,y,z), or Empty when out of range.
func (m *Map) Tile(x, y, z int) int {
	i := m.Index(x, y, z)
	if i < 0 {
		return Empty
	}
	return int(m.Tiles[i])
}

// SetTile stores id at (x,y,z). Out-of-range writes leave the map unchanged.
func (m *Map) SetTile(x, y, z, id int) error {
	i := m.Index(x, y, z)
	if i < 0 {
		return fmt.Errorf("%w: (%d,%d,%d) in %v", ErrOutOfRange, x, y, z, m.Size)
	}
	if m.Tiles[i] != int32(id) {
		m.Tiles[i] = int32(id)
		m.modified = true
	}
	return nil
}

// Fill sets every cell to id.
func (m *Map) Fill(id int) {
	for i := range m.Tiles {
		m.Tiles[i] = int32(id)
	}
	m.modified = true
}

// FillLayer sets every cell of layer y to id.
func (m *Map) FillLayer(y, id int) error {
	if y < 0 || y >= m.Size[1] {
		return fmt.Errorf("%w: layer %d", ErrOutOfRange, y)
	}
	for z := 0; z < m.Size[2]; z++ {
		for x := 0; x < m.Size[0]; x++ {
			m.Tiles[m.Index(x, y, z)] = int32(id)
		}
	}
	m.modified = true
	return nil
}

// Clear empties every cell.
func (m *Map) Clear() { m.Fill(Empty) }

var neighbours = [6][3]int{
	{1, 0, 0}, {-1, 0, 0},
	{0, 1, 0}, {0, -1, 0},
	{0, 0, 1}, {0, 0, -1},
}

// FloodFill replaces the 6-connected region around the seed whose cells
// hold the seed's value with id. It returns the number of cells changed.
func (m *Map) FloodFill(x, y, z, id int) (int, error) {
	seed := m.Index(x, y, z)
	if seed < 0 {
		return 0, fmt.Errorf("%w: (%d,%d,%d)", ErrOutOfRange, x, y, z)
	}
	target := m.Tiles[seed]
	if target == int32(id) {
		return 0, nil
	}

	filled := 0
	stack := [][3]int{{x, y, z}}
	for len(stack) > 0 {
		c := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		i := m.Index(c[0], c[1], c[2])
		if i < 0 || m.Tiles[i] != target {
			continue
		}
		m.Tiles[i] = int32(id)
		filled++

		for _, d := range neighbours {
			stack = append(stack, [3]int{c[0] + d[0], c[1] + d[1], c[2] + d[2]})
		}
	}
	m.modified = true
	return filled, nil
}

// Resize changes the grid size, keeping the overlapping cells.
func (m *Map) Resize(sx, sy, sz int) error {
	n, ok := cellCount(sx, sy, sz)
	if !ok {
		return fmt.Errorf("%w: %dx%dx%d", ErrBadSize, sx, sy, sz)
	}
	next := newCells(n)
	for z := 0; z < min(sz, m.Size[2]); z++ {
		for y := 0; y < min(sy, m.Size[1]); y++ {
			for x := 0; x < min(sx, m.Size[0]); x++ {
				next[z*sx*sy+y*sx+x] = m.Tiles[m.Index(x, y, z)]
			}
		}
	}
	m.Size = [3]int{sx, sy, sz}
	m.Tiles = next
	m.modified = true
	return nil
}

// Count returns the number of occupied cells.
func (m *Map) Count() int {
	n := 0
	for _, t := range m.Tiles {
		if t != Empty {
			n++
		}
	}
	return n
}

// OccupiedBounds returns the min and max occupied cells.
func (m *Map) OccupiedBounds() (lo, hi [3]int, ok bool) {
	for i, t := range m.Tiles {
		if t == Empty {
			continue
		}
		x, y, z := m.Coords(i)
		c := [3]int{x, y, z}
		if !ok {
			lo, hi, ok = c, c, true
			continue
		}
		for k := 0; k < 3; k++ {
			lo[k] = min(lo[k], c[k])
			hi[k] = max(hi[k], c[k])
		}
	}
	return lo, hi, ok
}
