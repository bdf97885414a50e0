package voxel

import (
	"image/color"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	red   = color.RGBA{R: 255, A: 255}
	green = color.RGBA{G: 255, A: 255}
	blue  = color.RGBA{B: 255, A: 255}
)

func gridOf(t *testing.T, ps ...mgl32.Vec3) *Grid {
	t.Helper()
	g := NewGrid()
	for _, p := range ps {
		require.True(t, g.Add(p, red, 1), "Add(%v)", p)
	}
	return g
}

func TestGrid_AddRejectsOccupied(t *testing.T) {
	g := NewGrid()
	assert.True(t, g.Add(mgl32.Vec3{1, 2, 3}, red, 1))
	assert.False(t, g.Add(mgl32.Vec3{1.005, 2, 3}, blue, 1))
	assert.True(t, g.Add(mgl32.Vec3{1.02, 2, 3}, blue, 1))
	assert.Equal(t, 2, g.Len())

	v, _ := g.Voxel(0)
	assert.Equal(t, NoBone, v.BoneID)
	assert.Equal(t, v.Position, v.RestPosition)
}

func TestGrid_Remove(t *testing.T) {
	g := gridOf(t, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{1, 0, 0})
	assert.True(t, g.Remove(mgl32.Vec3{0.001, 0, 0}))
	assert.False(t, g.Remove(mgl32.Vec3{0, 0, 0}))
	assert.Equal(t, 1, g.Len())
}

func TestGrid_Selection(t *testing.T) {
	g := gridOf(t, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{2, 0, 0})

	require.True(t, g.Select(mgl32.Vec3{1, 0, 0}))
	assert.Equal(t, []int{1}, g.Selected())
	assert.Equal(t, 1, g.Primary())

	require.True(t, g.AddToSelection(mgl32.Vec3{2, 0, 0}))
	assert.Equal(t, 2, g.Primary())
	assert.False(t, g.AddToSelection(mgl32.Vec3{2, 0, 0}))

	require.True(t, g.RemoveFromSelection(mgl32.Vec3{2, 0, 0}))
	assert.Equal(t, 1, g.Primary())

	g.InvertSelection()
	assert.Equal(t, []int{0, 2}, g.Selected())
	assert.Equal(t, 0, g.Primary())

	g.ClearSelection()
	assert.Empty(t, g.Selected())
	assert.Equal(t, -1, g.Primary())

	n := g.SelectInBox(mgl32.Vec3{0.5, -1, -1}, mgl32.Vec3{3, 1, 1})
	assert.Equal(t, 2, n)
	assert.Equal(t, 1, g.Primary())

	g.SelectAll()
	assert.Len(t, g.Selected(), 3)
}

func TestGrid_MoveSelected(t *testing.T) {
	g := gridOf(t, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{1, 0, 0})
	g.Select(mgl32.Vec3{0, 0, 0})

	assert.False(t, g.MoveSelected(mgl32.Vec3{1, 0, 0}), "move onto unselected voxel")
	_, ok := g.At(mgl32.Vec3{0, 0, 0})
	assert.True(t, ok)

	assert.True(t, g.MoveSelected(mgl32.Vec3{0, 2, 0}))
	_, ok = g.At(mgl32.Vec3{0, 2, 0})
	assert.True(t, ok)

	g.SelectAll()
	assert.True(t, g.MoveSelected(mgl32.Vec3{1, 0, 0}), "moving the whole selection over itself is fine")
}

func TestGrid_DeleteAndRecolourSelected(t *testing.T) {
	g := gridOf(t, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{2, 0, 0})
	g.SelectInBox(mgl32.Vec3{0.5, 0, 0}, mgl32.Vec3{2.5, 0, 0})
	assert.Equal(t, 2, g.SetSelectedColor(blue))
	assert.Equal(t, []color.RGBA{red, blue}, g.UniqueColors())
	assert.Equal(t, 2, g.DeleteSelected())
	assert.Equal(t, 1, g.Len())
	assert.Equal(t, -1, g.Primary())
}

func TestGrid_Binding(t *testing.T) {
	g := gridOf(t, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{1, 0, 0})
	g.SelectAll()
	assert.Equal(t, 2, g.BindSelected(3))
	g.Select(mgl32.Vec3{0, 0, 0})
	assert.Equal(t, 1, g.UnbindSelected())
	assert.Equal(t, 1, g.UnbindBone(3))

	g.SelectAll()
	g.BindSelected(3)
	assert.Equal(t, 2, g.UnbindBone(3))
	for _, v := range g.Voxels() {
		assert.Equal(t, NoBone, v.BoneID)
	}
}

func TestGrid_FloodColor(t *testing.T) {
	g := NewGrid()
	for x := 0; x < 4; x++ {
		g.Add(mgl32.Vec3{float32(x), 0, 0}, red, 1)
	}
	g.Add(mgl32.Vec3{0, 1, 0}, red, 1)
	g.Add(mgl32.Vec3{5, 0, 0}, red, 1) // not connected
	g.SetColor(mgl32.Vec3{2, 0, 0}, green)

	n := g.FloodColor(mgl32.Vec3{0, 0, 0}, 1, blue)
	assert.Equal(t, 3, n)

	colourAt := func(p mgl32.Vec3) color.RGBA {
		i, ok := g.At(p)
		require.True(t, ok)
		v, _ := g.Voxel(i)
		return v.Color
	}
	assert.Equal(t, blue, colourAt(mgl32.Vec3{1, 0, 0}))
	assert.Equal(t, blue, colourAt(mgl32.Vec3{0, 1, 0}))
	assert.Equal(t, green, colourAt(mgl32.Vec3{2, 0, 0}))
	assert.Equal(t, red, colourAt(mgl32.Vec3{3, 0, 0}))
	assert.Equal(t, red, colourAt(mgl32.Vec3{5, 0, 0}))

	assert.Equal(t, 0, g.FloodColor(mgl32.Vec3{0, 0, 0}, 1, blue))
	assert.Equal(t, 0, g.FloodColor(mgl32.Vec3{9, 9, 9}, 1, blue))
}

func TestIndex_FindAcrossBucketEdge(t *testing.T) {
	vs := []Voxel{{Position: mgl32.Vec3{0.004, 0, 0}}, {Position: mgl32.Vec3{3, 3, 3}}}
	idx := NewIndex(vs)
	i, ok := idx.Find(mgl32.Vec3{0.0115, 0, 0})
	require.True(t, ok)
	assert.Equal(t, 0, i)
	assert.False(t, idx.Has(mgl32.Vec3{0.02, 0, 0}))
	assert.True(t, idx.Has(mgl32.Vec3{3, 3, 3}))
}

func TestSnapper(t *testing.T) {
	g := gridOf(t, mgl32.Vec3{2, 0, 0}, mgl32.Vec3{10, 0, 0})

	tests := []struct {
		name string
		s    Snapper
		in   mgl32.Vec3
		want mgl32.Vec3
	}{
		{"grid", Snapper{Mode: SnapGrid, GridSize: 1}, mgl32.Vec3{1.4, 0.6, -2.5}, mgl32.Vec3{1, 1, -3}},
		{"grid half", Snapper{Mode: SnapGrid, GridSize: 0.5}, mgl32.Vec3{1.3, 0.2, 0.76}, mgl32.Vec3{1.5, 0, 1}},
		{"grid base", Snapper{Mode: SnapGrid, GridSize: 1, BaseY: 0.5}, mgl32.Vec3{0, 0.9, 0}, mgl32.Vec3{0, 0.5, 0}},
		{"face +y", Snapper{Mode: SnapFace, GridSize: 1, Face: FacePosY}, mgl32.Vec3{2.4, 0.3, 0}, mgl32.Vec3{2, 1, 0}},
		{"face -x", Snapper{Mode: SnapFace, GridSize: 1, Face: FaceNegX}, mgl32.Vec3{9, 0, 0}, mgl32.Vec3{9, 0, 0}},
		{"free ignores face", Snapper{Mode: SnapFree, GridSize: 1, Face: FacePosZ}, mgl32.Vec3{0.3, 0.2, 0.1}, mgl32.Vec3{0.3, 0.2, 0.1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.s.Snap(tt.in, g)
			assert.InDeltaSlice(t, tt.want[:], got[:], 1e-5)
		})
	}

	empty := Snapper{Mode: SnapFace, GridSize: 1, Face: FacePosY}
	got := empty.Snap(mgl32.Vec3{0.4, 0.4, 0.4}, NewGrid())
	assert.Equal(t, mgl32.Vec3{0, 0, 0}, got)
}

func TestGrid_SceneRoundTrip(t *testing.T) {
	g := NewGrid()
	g.Add(mgl32.Vec3{0, 0, 0}, red, 1)
	g.Add(mgl32.Vec3{1, 0.5, -2}, color.RGBA{R: 10, G: 20, B: 30, A: 255}, 0.5)

	path := filepath.Join(t.TempDir(), "scene.voxels")
	require.NoError(t, g.Save(path))
	back, err := Load(path)
	require.NoError(t, err)

	assert.ElementsMatch(t, g.Voxels(), back.Voxels())
}

func TestGrid_Bounds(t *testing.T) {
	g := gridOf(t, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{2, 1, 0})
	lo, hi, ok := g.Bounds()
	require.True(t, ok)
	assert.Equal(t, mgl32.Vec3{-0.5, -0.5, -0.5}, lo)
	assert.Equal(t, mgl32.Vec3{2.5, 1.5, 0.5}, hi)
	_, _, ok = NewGrid().Bounds()
	assert.False(t, ok)
}
