package voxel

import (
	"image/color"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/tileforge/pkg/formats"
)

// ToScene converts the grid to a .voxels document. Bone bindings and
// selection are not part of the format.
func (g *Grid) ToScene() *formats.VoxelScene {
	s := &formats.VoxelScene{Voxels: make([]formats.VoxelRecord, 0, len(g.voxels))}
	for _, v := range g.voxels {
		p := v.RestPosition
		if v.BoneID == NoBone {
			p = v.Position
		}
		s.Voxels = append(s.Voxels, formats.VoxelRecord{
			X: p[0], Y: p[1], Z: p[2],
			R: v.Color.R, G: v.Color.G, B: v.Color.B,
			Size: v.Size,
		})
	}
	return s
}

// FromScene builds a grid from a .voxels document. Records that land on an
// occupied slot are dropped; the count of dropped records is returned.
func FromScene(s *formats.VoxelScene) (*Grid, int) {
	g := NewGrid()
	dropped := 0
	for _, r := range s.Voxels {
		c := color.RGBA{R: r.R, G: r.G, B: r.B, A: 255}
		if !g.Add(mgl32.Vec3{r.X, r.Y, r.Z}, c, r.Size) {
			dropped++
		}
	}
	return g, dropped
}

// Load reads a .voxels file.
func Load(path string) (*Grid, error) {
	s, err := formats.LoadVoxelScene(path)
	if err != nil {
		return nil, err
	}
	g, _ := FromScene(s)
	return g, nil
}

// Save writes the grid to a .voxels file.
func (g *Grid) Save(path string) error {
	return g.ToScene().Save(path)
}
