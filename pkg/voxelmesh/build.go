// Package voxelmesh turns voxels into quad meshes for export.
//
// Three regimes are available: every face of every voxel, only the faces
// whose neighbouring cell is empty, and those external faces merged into
// larger rectangles. Output is either vertex-coloured or mapped onto a
// colour atlas.
package voxelmesh

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/tileforge/pkg/atlas"
	"github.com/Faultbox/tileforge/pkg/voxel"
)

// Regime selects which faces are emitted.
type Regime int

const (
	// PerVoxel emits all six faces of every voxel.
	PerVoxel Regime = iota
	// External emits faces whose neighbour cell is empty.
	External
	// Merged emits external faces merged into maximal rectangles.
	Merged
)

var regimeNames = [...]string{"per-voxel", "external", "merged"}

func (r Regime) String() string {
	if r < 0 || int(r) >= len(regimeNames) {
		return fmt.Sprintf("Regime(%d)", int(r))
	}
	return regimeNames[r]
}

// ParseRegime parses a regime name as printed by String.
func ParseRegime(s string) (Regime, error) {
	for i, n := range regimeNames {
		if strings.EqualFold(s, n) {
			return Regime(i), nil
		}
	}
	return 0, fmt.Errorf("unknown regime %q", s)
}

// Options controls Build.
type Options struct {
	Regime   Regime
	UseAtlas bool
	CellSize int // atlas cell edge in pixels

	// TicksPerSecond scales animation times in rigged exports. Zero uses
	// scene.TicksPerSecond.
	TicksPerSecond float32
}

// DefaultOptions merges external faces onto a colour atlas.
func DefaultOptions() Options {
	return Options{Regime: Merged, UseAtlas: true, CellSize: atlas.DefaultCellSize}
}

// Quad is one output face. Corners run counter-clockwise seen from the side
// Normal points to, starting at the (min u, min v) corner of the face plane.
type Quad struct {
	Corners [4]mgl32.Vec3
	Normal  mgl32.Vec3
	Color   color.RGBA
	BoneID  int
}

// Result is a built voxel mesh.
type Result struct {
	Options       Options
	Quads         []Quad
	Atlas         *atlas.ColorAtlas // nil unless Options.UseAtlas
	ExternalCount int               // faces before merging; all faces for PerVoxel
	VoxelCount    int
}

// UVs returns the atlas corners for q, or zeros when no atlas was built.
func (r Result) UVs(q Quad) [4]mgl32.Vec2 {
	if r.Atlas == nil {
		return [4]mgl32.Vec2{}
	}
	return r.Atlas.QuadUVs(q.Color)
}

// Build emits the faces of voxels according to opts.
func Build(voxels []voxel.Voxel, opts Options) Result {
	res := Result{Options: opts, VoxelCount: len(voxels)}

	var idx *voxel.Index
	if opts.Regime != PerVoxel {
		idx = voxel.NewIndex(voxels)
	}

	rects := make([]rect, 0, len(voxels)*6)
	for _, v := range voxels {
		size := v.Size
		if size <= 0 {
			size = 1
		}
		for _, f := range voxel.Faces {
			if idx != nil && idx.Has(v.Position.Add(f.Normal().Mul(size))) {
				continue
			}
			rects = append(rects, faceRect(v, f, size))
		}
	}
	res.ExternalCount = len(rects)

	if opts.Regime == Merged {
		rects = mergeRects(rects)
	}

	res.Quads = make([]Quad, len(rects))
	for i, r := range rects {
		res.Quads[i] = r.quad()
	}

	if opts.UseAtlas {
		res.Atlas = atlas.NewColorAtlas(voxel.UniqueColors(voxels), opts.CellSize)
	}
	return res
}

// BuildGrid is Build over the voxels of g.
func BuildGrid(g *voxel.Grid, opts Options) Result {
	return Build(g.Voxels(), opts)
}
