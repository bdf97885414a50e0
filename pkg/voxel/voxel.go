// Package voxel holds the voxel grid model: voxels, selection, bone binding
// and placement snapping.
package voxel

import (
	"image/color"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/samber/lo"
)

// Epsilon is the distance under which two positions are the same slot.
const Epsilon = 0.01

// NoBone marks a voxel that is not bound to a bone.
const NoBone = -1

// Voxel is one coloured cube.
type Voxel struct {
	Position     mgl32.Vec3
	RestPosition mgl32.Vec3
	Color        color.RGBA
	Size         float32
	Selected     bool
	BoneID       int
}

// SamePosition reports whether a and b are within Epsilon.
func SamePosition(a, b mgl32.Vec3) bool {
	return a.Sub(b).Len() < Epsilon
}

// Grid is an unordered set of voxels with unique positions.
type Grid struct {
	voxels  []Voxel
	primary int
}

// NewGrid returns an empty grid.
func NewGrid() *Grid {
	return &Grid{primary: -1}
}

// Len returns the number of voxels.
func (g *Grid) Len() int { return len(g.voxels) }

// Voxels returns a copy of the voxels.
func (g *Grid) Voxels() []Voxel {
	out := make([]Voxel, len(g.voxels))
	copy(out, g.voxels)
	return out
}

// Voxel returns the voxel at index i.
func (g *Grid) Voxel(i int) (Voxel, bool) {
	if i < 0 || i >= len(g.voxels) {
		return Voxel{}, false
	}
	return g.voxels[i], true
}

// SetVoxels replaces the contents and clears the primary selection. Used
// when restoring snapshots or loading files.
func (g *Grid) SetVoxels(vs []Voxel) {
	g.voxels = make([]Voxel, len(vs))
	copy(g.voxels, vs)
	g.primary = -1
}

// ForEach calls fn with a pointer to every voxel.
func (g *Grid) ForEach(fn func(i int, v *Voxel)) {
	for i := range g.voxels {
		fn(i, &g.voxels[i])
	}
}

// At returns the index of the voxel at pos.
func (g *Grid) At(pos mgl32.Vec3) (int, bool) {
	for i := range g.voxels {
		if SamePosition(g.voxels[i].Position, pos) {
			return i, true
		}
	}
	return -1, false
}

// Add inserts a voxel. It returns false when the slot is occupied.
func (g *Grid) Add(pos mgl32.Vec3, c color.RGBA, size float32) bool {
	if _, ok := g.At(pos); ok {
		return false
	}
	if size <= 0 {
		size = 1
	}
	g.voxels = append(g.voxels, Voxel{
		Position:     pos,
		RestPosition: pos,
		Color:        c,
		Size:         size,
		BoneID:       NoBone,
	})
	return true
}

// Remove deletes the voxel at pos.
func (g *Grid) Remove(pos mgl32.Vec3) bool {
	i, ok := g.At(pos)
	if !ok {
		return false
	}
	g.removeIndex(i)
	return true
}

func (g *Grid) removeIndex(i int) {
	g.voxels = append(g.voxels[:i], g.voxels[i+1:]...)
	switch {
	case g.primary == i:
		g.primary = g.firstSelected()
	case g.primary > i:
		g.primary--
	}
}

// SetColor recolours the voxel at pos.
func (g *Grid) SetColor(pos mgl32.Vec3, c color.RGBA) bool {
	i, ok := g.At(pos)
	if !ok || g.voxels[i].Color == c {
		return false
	}
	g.voxels[i].Color = c
	return true
}

// Clear removes every voxel.
func (g *Grid) Clear() {
	g.voxels = nil
	g.primary = -1
}

// Bounds returns the extent of all voxel cubes.
func (g *Grid) Bounds() (minP, maxP mgl32.Vec3, ok bool) {
	for i, v := range g.voxels {
		h := v.Size / 2
		a := v.Position.Sub(mgl32.Vec3{h, h, h})
		b := v.Position.Add(mgl32.Vec3{h, h, h})
		if i == 0 {
			minP, maxP = a, b
			continue
		}
		for k := 0; k < 3; k++ {
			minP[k] = min(minP[k], a[k])
			maxP[k] = max(maxP[k], b[k])
		}
	}
	return minP, maxP, len(g.voxels) > 0
}

// UniqueColors returns the distinct colours in first-seen order.
func (g *Grid) UniqueColors() []color.RGBA {
	return UniqueColors(g.voxels)
}

// UniqueColors returns the distinct colours of vs in first-seen order.
func UniqueColors(vs []Voxel) []color.RGBA {
	return lo.Uniq(lo.Map(vs, func(v Voxel, _ int) color.RGBA { return v.Color }))
}

// Bind attaches the voxel at index i to a bone, taking its current position
// as the rest position.
func (g *Grid) Bind(i, bone int) bool {
	if i < 0 || i >= len(g.voxels) {
		return false
	}
	g.voxels[i].BoneID = bone
	g.voxels[i].RestPosition = g.voxels[i].Position
	return true
}

// BindSelected attaches every selected voxel to bone and returns the count.
// Rest positions are reset to the current positions.
func (g *Grid) BindSelected(bone int) int {
	n := 0
	for i := range g.voxels {
		if g.voxels[i].Selected {
			g.voxels[i].BoneID = bone
			g.voxels[i].RestPosition = g.voxels[i].Position
			n++
		}
	}
	return n
}

// UnbindSelected detaches every selected voxel.
func (g *Grid) UnbindSelected() int {
	n := 0
	for i := range g.voxels {
		if g.voxels[i].Selected && g.voxels[i].BoneID != NoBone {
			g.voxels[i].BoneID = NoBone
			n++
		}
	}
	return n
}

// UnbindBone detaches every voxel bound to bone.
func (g *Grid) UnbindBone(bone int) int {
	n := 0
	for i := range g.voxels {
		if g.voxels[i].BoneID == bone {
			g.voxels[i].BoneID = NoBone
			n++
		}
	}
	return n
}

// FloodColor recolours the 6-connected region of voxels that share the start
// voxel's colour. Neighbours are step apart along each axis. It returns the
// number of voxels recoloured.
func (g *Grid) FloodColor(start mgl32.Vec3, step float32, c color.RGBA) int {
	idx := NewIndex(g.voxels)
	first, ok := idx.Find(start)
	if !ok {
		return 0
	}
	original := g.voxels[first].Color
	if original == c {
		return 0
	}
	if step <= 0 {
		step = g.voxels[first].Size
	}

	visited := map[int]bool{first: true}
	queue := []int{first}
	n := 0
	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]
		g.voxels[i].Color = c
		n++
		for _, dir := range faceNormals {
			j, ok := idx.Find(g.voxels[i].Position.Add(dir.Mul(step)))
			if !ok || visited[j] || g.voxels[j].Color != original {
				continue
			}
			visited[j] = true
			queue = append(queue, j)
		}
	}
	return n
}
