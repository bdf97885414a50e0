package tilemap

import (
	"encoding/json"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/tileforge/pkg/formats"
	tfmath "github.com/Faultbox/tileforge/pkg/math"
)

type denseJSON struct {
	Size  [3]int  `json:"size"`
	Tiles []int32 `json:"tiles"`
}

// MarshalJSON writes the dense form {"size":[sx,sy,sz],"tiles":[...]}.
func (m *Map) MarshalJSON() ([]byte, error) {
	tiles := m.Tiles
	if tiles == nil {
		tiles = []int32{}
	}
	return json.Marshal(denseJSON{Size: m.Size, Tiles: tiles})
}

// UnmarshalJSON reads the dense form. The tile list is padded with Empty or
// truncated to sx·sy·sz. On error the map is unchanged.
func (m *Map) UnmarshalJSON(data []byte) error {
	var d denseJSON
	if err := json.Unmarshal(data, &d); err != nil {
		return fmt.Errorf("%w: %v", ErrParse, err)
	}
	n, ok := cellCount(d.Size[0], d.Size[1], d.Size[2])
	if !ok {
		return fmt.Errorf("%w: bad size %v", ErrParse, d.Size)
	}
	tiles := newCells(n)
	copy(tiles, d.Tiles)

	if m.TileSize == (mgl32.Vec3{}) {
		*m = *Default()
	}
	m.Size = d.Size
	m.Tiles = tiles
	return nil
}

// ToSparse converts the occupied cells into a .3dtilemap document with zero
// rotation and unit scale.
func (m *Map) ToSparse(tilesetPath string) *formats.SparseTilemap {
	doc := formats.NewSparseTilemap(tilesetPath, m.TileSize[0])
	for i, t := range m.Tiles {
		if t == Empty {
			continue
		}
		x, y, z := m.Coords(i)
		doc.Tiles = append(doc.Tiles, formats.SparseTile{
			ID:       int(t),
			Position: [3]int{x, y, z},
			Scale:    [3]float32{1, 1, 1},
		})
	}
	return doc
}

// FromSparse builds a map sized to fit every tile of a sparse document.
// Tiles at negative positions are rejected.
func FromSparse(doc *formats.SparseTilemap) (*Map, error) {
	var size [3]int
	for _, t := range doc.Tiles {
		for k := 0; k < 3; k++ {
			if t.Position[k] < 0 {
				return nil, fmt.Errorf("%w: tile %d at %v", ErrOutOfRange, t.ID, t.Position)
			}
			size[k] = max(size[k], t.Position[k]+1)
		}
	}
	m, err := New(size[0], size[1], size[2])
	if err != nil {
		return nil, err
	}
	if doc.GridSize > 0 {
		m.TileSize = mgl32.Vec3{doc.GridSize, doc.GridSize, doc.GridSize}
	}
	for _, t := range doc.Tiles {
		m.Tiles[m.Index(t.Position[0], t.Position[1], t.Position[2])] = int32(t.ID)
	}
	return m, nil
}

// SparseTileTransform returns the local transform of a sparse tile, with
// rotation given in Euler degrees.
func SparseTileTransform(t formats.SparseTile, gridSize float32) tfmath.Transform {
	return tfmath.Transform{
		Translation: mgl32.Vec3{float32(t.Position[0]), float32(t.Position[1]), float32(t.Position[2])}.Mul(gridSize),
		Rotation:    tfmath.QuatFromEulerDeg(t.Rotation),
		Scale:       t.Scale,
	}
}

// LoadSparse reads a .3dtilemap file into a dense map.
func LoadSparse(path string) (*Map, error) {
	doc, err := formats.LoadSparseTilemap(path)
	if err != nil {
		return nil, err
	}
	return FromSparse(doc)
}

// SaveSparse writes the occupied cells to a .3dtilemap file.
func (m *Map) SaveSparse(path, tilesetPath string) error {
	if err := m.ToSparse(tilesetPath).Save(path); err != nil {
		return err
	}
	m.modified = false
	return nil
}
