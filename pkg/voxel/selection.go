package voxel

import (
	"image/color"

	"github.com/go-gl/mathgl/mgl32"
)

// Primary returns the index of the primary selected voxel, or -1.
func (g *Grid) Primary() int { return g.primary }

// Selected returns the indices of selected voxels.
func (g *Grid) Selected() []int {
	var out []int
	for i := range g.voxels {
		if g.voxels[i].Selected {
			out = append(out, i)
		}
	}
	return out
}

// SelectedVoxels returns copies of the selected voxels.
func (g *Grid) SelectedVoxels() []Voxel {
	var out []Voxel
	for _, v := range g.voxels {
		if v.Selected {
			out = append(out, v)
		}
	}
	return out
}

func (g *Grid) firstSelected() int {
	for i := range g.voxels {
		if g.voxels[i].Selected {
			return i
		}
	}
	return -1
}

// ClearSelection deselects every voxel.
func (g *Grid) ClearSelection() bool {
	changed := false
	for i := range g.voxels {
		if g.voxels[i].Selected {
			g.voxels[i].Selected = false
			changed = true
		}
	}
	g.primary = -1
	return changed
}

// Select makes the voxel at pos the only selection.
func (g *Grid) Select(pos mgl32.Vec3) bool {
	i, ok := g.At(pos)
	if !ok {
		return false
	}
	g.ClearSelection()
	g.voxels[i].Selected = true
	g.primary = i
	return true
}

// AddToSelection selects the voxel at pos and makes it primary.
func (g *Grid) AddToSelection(pos mgl32.Vec3) bool {
	i, ok := g.At(pos)
	if !ok || g.voxels[i].Selected {
		return false
	}
	g.voxels[i].Selected = true
	g.primary = i
	return true
}

// RemoveFromSelection deselects the voxel at pos. When it was primary, the
// first remaining selected voxel becomes primary.
func (g *Grid) RemoveFromSelection(pos mgl32.Vec3) bool {
	i, ok := g.At(pos)
	if !ok || !g.voxels[i].Selected {
		return false
	}
	g.voxels[i].Selected = false
	if g.primary == i {
		g.primary = g.firstSelected()
	}
	return true
}

// InvertSelection flips every selection flag.
func (g *Grid) InvertSelection() {
	for i := range g.voxels {
		g.voxels[i].Selected = !g.voxels[i].Selected
	}
	g.primary = g.firstSelected()
}

// SelectAll selects every voxel.
func (g *Grid) SelectAll() {
	for i := range g.voxels {
		g.voxels[i].Selected = true
	}
	g.primary = g.firstSelected()
}

// SelectInBox adds every voxel whose position lies in [min,max] to the
// selection and returns how many matched.
func (g *Grid) SelectInBox(min, max mgl32.Vec3) int {
	n := 0
	first := -1
	for i := range g.voxels {
		p := g.voxels[i].Position
		if p[0] < min[0] || p[0] > max[0] || p[1] < min[1] || p[1] > max[1] || p[2] < min[2] || p[2] > max[2] {
			continue
		}
		g.voxels[i].Selected = true
		if first < 0 {
			first = i
		}
		n++
	}
	if first >= 0 {
		g.primary = first
	}
	return n
}

// MoveSelected translates the selection. The move is refused when a moved
// voxel would land on an unselected one.
func (g *Grid) MoveSelected(delta mgl32.Vec3) bool {
	sel := g.Selected()
	if len(sel) == 0 {
		return false
	}
	for _, i := range sel {
		target := g.voxels[i].Position.Add(delta)
		for j := range g.voxels {
			if !g.voxels[j].Selected && SamePosition(g.voxels[j].Position, target) {
				return false
			}
		}
	}
	for _, i := range sel {
		g.voxels[i].Position = g.voxels[i].Position.Add(delta)
		g.voxels[i].RestPosition = g.voxels[i].RestPosition.Add(delta)
	}
	return true
}

// DeleteSelected removes every selected voxel and returns the count.
func (g *Grid) DeleteSelected() int {
	kept := g.voxels[:0]
	n := 0
	for _, v := range g.voxels {
		if v.Selected {
			n++
			continue
		}
		kept = append(kept, v)
	}
	g.voxels = kept
	g.primary = -1
	return n
}

// SetSelectedColor recolours the selection and returns the count.
func (g *Grid) SetSelectedColor(c color.RGBA) int {
	n := 0
	for i := range g.voxels {
		if g.voxels[i].Selected {
			g.voxels[i].Color = c
			n++
		}
	}
	return n
}
