package tilemap

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/tileforge/pkg/catalog"
	"github.com/Faultbox/tileforge/pkg/formats"
	tfmath "github.com/Faultbox/tileforge/pkg/math"
)

func mustNew(t *testing.T, sx, sy, sz int) *Map {
	t.Helper()
	m, err := New(sx, sy, sz)
	require.NoError(t, err)
	return m
}

func TestMap_Defaults(t *testing.T) {
	m := Default()
	assert.Equal(t, [3]int{10, 1, 10}, m.Size)
	assert.Len(t, m.Tiles, 100)
	assert.Equal(t, mgl32.Vec3{1, 1, 1}, m.TileSize)
	assert.True(t, m.CastShadows)
	assert.True(t, m.ReceiveShadows)
	assert.Equal(t, CullingConfig{MaxDistance: 100, Frustum: true}, m.Culling)
	assert.Equal(t, LODConfig{Enabled: false, Distance: 50}, m.LOD)
	assert.False(t, m.Collision)
	assert.Equal(t, 0, m.Count())
}

// Scenario: size (2,1,2) with two cells set serialises to [5,-1,-1,5].
func TestMap_SerializeScenario(t *testing.T) {
	m := mustNew(t, 2, 1, 2)
	require.NoError(t, m.SetTile(0, 0, 0, 5))
	require.NoError(t, m.SetTile(1, 0, 1, 5))

	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{"size":[2,1,2],"tiles":[5,-1,-1,5]}`, string(data))

	var back Map
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, m.Size, back.Size)
	assert.Equal(t, m.Tiles, back.Tiles)
	assert.Equal(t, mgl32.Vec3{1, 1, 1}, back.TileSize)
}

func TestMap_IndexCoords(t *testing.T) {
	m := mustNew(t, 3, 4, 5)
	for i := 0; i < m.Len(); i++ {
		x, y, z := m.Coords(i)
		if got := m.Index(x, y, z); got != i {
			t.Fatalf("Index(Coords(%d)) = %d", i, got)
		}
	}
	assert.Equal(t, -1, m.Index(3, 0, 0))
	assert.Equal(t, 1*3*4+2*3+1, m.Index(1, 2, 1))
}

func TestMap_OutOfRange(t *testing.T) {
	m := mustNew(t, 2, 2, 2)
	tests := [][3]int{{-1, 0, 0}, {2, 0, 0}, {0, 2, 0}, {0, 0, 2}}
	for _, c := range tests {
		if got := m.Tile(c[0], c[1], c[2]); got != Empty {
			t.Errorf("Tile(%v) = %d, want %d", c, got, Empty)
		}
		if err := m.SetTile(c[0], c[1], c[2], 3); !errors.Is(err, ErrOutOfRange) {
			t.Errorf("SetTile(%v) error = %v, want ErrOutOfRange", c, err)
		}
	}
	assert.Equal(t, 0, m.Count())
	assert.False(t, m.Modified())
}

func TestMap_FillLayerAndClear(t *testing.T) {
	m := mustNew(t, 3, 3, 3)
	require.NoError(t, m.FillLayer(1, 4))
	for z := 0; z < 3; z++ {
		for y := 0; y < 3; y++ {
			for x := 0; x < 3; x++ {
				want := Empty
				if y == 1 {
					want = 4
				}
				if got := m.Tile(x, y, z); got != want {
					t.Errorf("Tile(%d,%d,%d) = %d, want %d", x, y, z, got, want)
				}
			}
		}
	}
	assert.ErrorIs(t, m.FillLayer(3, 1), ErrOutOfRange)

	m.Fill(2)
	assert.Equal(t, 27, m.Count())
	m.Clear()
	assert.Equal(t, 0, m.Count())
}

func TestMap_FloodFill(t *testing.T) {
	m := mustNew(t, 5, 5, 5)
	// wall at x=2 splits the grid in two
	for z := 0; z < 5; z++ {
		for y := 0; y < 5; y++ {
			require.NoError(t, m.SetTile(2, y, z, 1))
		}
	}

	n, err := m.FloodFill(0, 0, 0, 7)
	require.NoError(t, err)
	assert.Equal(t, 50, n)

	for i, v := range m.Tiles {
		x, y, z := m.Coords(i)
		switch {
		case x < 2:
			assert.Equal(t, int32(7), v)
		case x == 2:
			assert.Equal(t, int32(1), v)
		default:
			assert.Equal(t, int32(Empty), v)
		}
		if v != 7 {
			continue
		}
		// every neighbour of the region is outside the grid or differs from
		// the seed's original value
		for _, d := range neighbours {
			nx, ny, nz := x+d[0], y+d[1], z+d[2]
			if m.InBounds(nx, ny, nz) && m.Tile(nx, ny, nz) != 7 {
				assert.NotEqual(t, Empty, m.Tile(nx, ny, nz), "border cell (%d,%d,%d)", nx, ny, nz)
			}
		}
	}
}

func TestMap_FloodFillSameValue(t *testing.T) {
	m := mustNew(t, 2, 2, 2)
	m.ClearModified()
	n, err := m.FloodFill(0, 0, 0, Empty)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.False(t, m.Modified())

	_, err = m.FloodFill(5, 0, 0, 1)
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestMap_Resize(t *testing.T) {
	m := mustNew(t, 3, 1, 3)
	require.NoError(t, m.SetTile(0, 0, 0, 1))
	require.NoError(t, m.SetTile(2, 0, 2, 2))
	require.NoError(t, m.SetTile(1, 0, 1, 3))

	require.NoError(t, m.Resize(2, 2, 2))
	assert.Equal(t, [3]int{2, 2, 2}, m.Size)
	assert.Len(t, m.Tiles, 8)
	assert.Equal(t, 1, m.Tile(0, 0, 0))
	assert.Equal(t, 3, m.Tile(1, 0, 1))
	assert.Equal(t, Empty, m.Tile(1, 1, 1))
	assert.Equal(t, 2, m.Count())

	assert.ErrorIs(t, m.Resize(-1, 1, 1), ErrBadSize)
}

func TestMap_UnmarshalPadsAndTruncates(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want []int32
	}{
		{"pad", `{"size":[2,1,2],"tiles":[3]}`, []int32{3, -1, -1, -1}},
		{"truncate", `{"size":[1,1,2],"tiles":[1,2,3,4]}`, []int32{1, 2}},
		{"empty", `{"size":[0,0,0],"tiles":[]}`, []int32{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var m Map
			require.NoError(t, json.Unmarshal([]byte(tt.doc), &m))
			assert.Equal(t, tt.want, m.Tiles)
		})
	}
}

func TestMap_UnmarshalErrorLeavesMap(t *testing.T) {
	m := mustNew(t, 1, 1, 1)
	require.NoError(t, m.SetTile(0, 0, 0, 9))
	for _, doc := range []string{`{"size":[-1,1,1],"tiles":[]}`, `{"size":`, `[]`} {
		err := m.UnmarshalJSON([]byte(doc))
		assert.ErrorIs(t, err, ErrParse, doc)
		assert.Equal(t, 9, m.Tile(0, 0, 0))
	}
}

func TestMap_OversizedDimensionsRejected(t *testing.T) {
	for _, size := range []string{`[1048576,1048576,1048576]`, `[4294967296,4294967296,1]`} {
		m := mustNew(t, 1, 1, 1)
		require.NoError(t, m.SetTile(0, 0, 0, 9))
		err := m.UnmarshalJSON([]byte(`{"size":` + size + `,"tiles":[]}`))
		assert.ErrorIs(t, err, ErrParse, size)
		assert.Equal(t, [3]int{1, 1, 1}, m.Size)
		assert.Len(t, m.Tiles, 1)
	}

	_, err := New(1<<20, 1<<20, 1<<20)
	assert.ErrorIs(t, err, ErrBadSize)
	_, err = New(1<<32, 1<<32, 1)
	assert.ErrorIs(t, err, ErrBadSize)

	m := mustNew(t, 2, 2, 2)
	assert.ErrorIs(t, m.Resize(1<<32, 1<<32, 1), ErrBadSize)
	assert.Equal(t, [3]int{2, 2, 2}, m.Size)

	_, err = New(MaxCells, 1, 1)
	assert.NoError(t, err)
	_, err = New(MaxCells, 2, 1)
	assert.ErrorIs(t, err, ErrBadSize)
}

func TestMap_CellWorld(t *testing.T) {
	m := mustNew(t, 4, 4, 4)
	m.TileSize = mgl32.Vec3{2, 1, 0.5}
	m.Transform = mgl32.Translate3D(10, 0, 0)

	got := m.CellWorld(1, 2, 3)
	assert.InDeltaSlice(t, []float32{12, 2, 1.5}, got[:], 1e-5)

	x, y, z := m.LocalToMap(mgl32.Vec3{3.9, 2.5, 1.2})
	assert.Equal(t, [3]int{1, 2, 2}, [3]int{x, y, z})
}

func TestMap_TileTransformUsesCatalog(t *testing.T) {
	cat := catalog.New("c")
	e := catalog.NewEntry(4, "raised")
	e.DefaultTransform = tfmath.Translated(mgl32.Vec3{0, 0.5, 0})
	require.NoError(t, cat.AddTile(e))

	m := mustNew(t, 2, 1, 2)
	m.Catalog = cat
	m.TileSize = mgl32.Vec3{2, 2, 2}
	require.NoError(t, m.SetTile(1, 0, 0, 4))

	origin := mgl32.TransformCoordinate(mgl32.Vec3{}, m.TileTransform(1, 0, 0))
	assert.InDeltaSlice(t, []float32{2, 1, 0}, origin[:], 1e-5)

	plain := mgl32.TransformCoordinate(mgl32.Vec3{}, m.TileTransform(0, 0, 0))
	assert.InDeltaSlice(t, []float32{0, 0, 0}, plain[:], 1e-5)
}

func TestMap_VisibleRange(t *testing.T) {
	m := Default()
	m.Culling.MaxDistance = 2.5

	lo, hi, ok := m.VisibleRange(mgl32.Vec3{0, 0, 0})
	require.True(t, ok)
	assert.Equal(t, [3]int{0, 0, 0}, lo)
	assert.Equal(t, [3]int{3, 0, 3}, hi)

	_, _, ok = m.VisibleRange(mgl32.Vec3{100, 0, 100})
	assert.False(t, ok)

	m.Culling.MaxDistance = 0
	lo, hi, ok = m.VisibleRange(mgl32.Vec3{100, 0, 100})
	require.True(t, ok)
	assert.Equal(t, [3]int{0, 0, 0}, lo)
	assert.Equal(t, [3]int{9, 0, 9}, hi)
}

func TestMap_VisibleCellsFrustum(t *testing.T) {
	m := Default()
	m.Fill(1)
	proj := mgl32.Perspective(mgl32.DegToRad(60), 1, 0.1, 200)
	eye := mgl32.Vec3{-5, 0.5, 5}

	away := proj.Mul4(mgl32.LookAtV(eye, mgl32.Vec3{-10, 0.5, 5}, mgl32.Vec3{0, 1, 0}))
	assert.Empty(t, m.VisibleCells(eye, away))

	m.Culling.Frustum = false
	assert.Len(t, m.VisibleCells(eye, away), 100)

	m.Culling.Frustum = true
	toward := proj.Mul4(mgl32.LookAtV(eye, mgl32.Vec3{5, 0.5, 5}, mgl32.Vec3{0, 1, 0}))
	cells := m.VisibleCells(eye, toward)
	assert.Contains(t, cells, [3]int{5, 0, 5})
	assert.NotContains(t, cells, [3]int{0, 0, 0})
}

func TestMap_SparseRoundTrip(t *testing.T) {
	m := mustNew(t, 3, 2, 3)
	require.NoError(t, m.SetTile(2, 1, 0, 6))
	require.NoError(t, m.SetTile(0, 0, 2, 1))

	path := filepath.Join(t.TempDir(), "level.3dtilemap")
	require.NoError(t, m.SaveSparse(path, "dungeon.tileset3d"))

	back, err := LoadSparse(path)
	require.NoError(t, err)
	assert.Equal(t, [3]int{3, 2, 3}, back.Size)
	assert.Equal(t, 6, back.Tile(2, 1, 0))
	assert.Equal(t, 1, back.Tile(0, 0, 2))
	assert.Equal(t, 2, back.Count())
}

func TestFromSparse_OversizedRejected(t *testing.T) {
	doc := formats.NewSparseTilemap("big.tileset3d", 1)
	doc.Tiles = []formats.SparseTile{{ID: 1, Position: [3]int{1 << 20, 1 << 20, 1 << 20}, Scale: [3]float32{1, 1, 1}}}
	_, err := FromSparse(doc)
	assert.ErrorIs(t, err, ErrBadSize)
}
