package formats

import "fmt"

// SparseTilemapType tags a sparse .3dtilemap document.
const SparseTilemapType = "3DTilemap"

// SparseTile is one placed tile in a sparse tilemap.
type SparseTile struct {
	ID       int        `json:"id"`
	Position [3]int     `json:"position"`
	Rotation [3]float32 `json:"rotation"`
	Scale    [3]float32 `json:"scale"`
}

// SparseTilemap is the .3dtilemap document: a tileset reference plus only
// the occupied cells.
type SparseTilemap struct {
	Type        string       `json:"type"`
	Version     string       `json:"version"`
	GridSize    float32      `json:"grid_size"`
	TilesetPath string       `json:"tileset_path"`
	Tiles       []SparseTile `json:"tiles"`
}

// NewSparseTilemap returns an empty document.
func NewSparseTilemap(tilesetPath string, gridSize float32) *SparseTilemap {
	return &SparseTilemap{
		Type:        SparseTilemapType,
		Version:     Version,
		GridSize:    gridSize,
		TilesetPath: tilesetPath,
		Tiles:       []SparseTile{},
	}
}

// ParseSparseTilemap decodes a .3dtilemap document.
func ParseSparseTilemap(data []byte) (*SparseTilemap, error) {
	var m SparseTilemap
	if err := decodeJSON(data, &m); err != nil {
		return nil, err
	}
	if m.Type != "" && m.Type != SparseTilemapType {
		return nil, fmt.Errorf("%w: unexpected type %q", ErrParse, m.Type)
	}
	if m.GridSize <= 0 {
		m.GridSize = 1
	}
	for i := range m.Tiles {
		if m.Tiles[i].Scale == ([3]float32{}) {
			m.Tiles[i].Scale = [3]float32{1, 1, 1}
		}
	}
	return &m, nil
}

// LoadSparseTilemap reads a .3dtilemap file.
func LoadSparseTilemap(path string) (*SparseTilemap, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	return ParseSparseTilemap(data)
}

// Save writes the document to path.
func (m *SparseTilemap) Save(path string) error {
	if m.Type == "" {
		m.Type = SparseTilemapType
	}
	if m.Version == "" {
		m.Version = Version
	}
	return writeJSONFile(path, m)
}
