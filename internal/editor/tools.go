package editor

import (
	"fmt"
	"image/color"
	"math"
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/tileforge/pkg/voxel"
)

// ToolKind identifies a voxel tool.
type ToolKind int

// Tools.
const (
	ToolPlace ToolKind = iota
	ToolErase
	ToolPaint
	ToolSelect
	ToolAddSelect
	ToolRemoveSelect
	ToolInvertSelect
	ToolSelectAll
	ToolSelectBox
	ToolBrushPaint
	ToolBrushErase
	ToolLine
	ToolRectangle
	ToolSphere
	ToolFloodFill
	ToolCopy
	ToolPaste
)

var toolNames = [...]string{
	"place", "erase", "paint", "select", "add-select", "remove-select",
	"invert-select", "select-all", "select-box", "brush-paint", "brush-erase",
	"line", "rectangle", "sphere", "flood-fill", "copy", "paste",
}

func (k ToolKind) String() string {
	if k < 0 || int(k) >= len(toolNames) {
		return fmt.Sprintf("ToolKind(%d)", int(k))
	}
	return toolNames[k]
}

// ParseToolKind parses a tool name such as "brush-paint".
func ParseToolKind(s string) (ToolKind, error) {
	for i, n := range toolNames {
		if strings.EqualFold(s, n) {
			return ToolKind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown tool %q", s)
}

// ToolArgs are the inputs of one tool invocation. Fields a tool does not
// use are ignored.
type ToolArgs struct {
	Anchor mgl32.Vec3
	// End is the second corner for box, line and rectangle tools.
	End    mgl32.Vec3
	Filled bool
	// Radius of the sphere tool. Zero uses the brush size.
	Radius float32
	// Color overrides the session colour when its alpha is non-zero.
	Color          color.RGBA
	WithBones      bool
	WithAnimations bool
}

func (s *Session) colorFor(a ToolArgs) color.RGBA {
	if a.Color.A != 0 {
		return a.Color
	}
	return s.Color
}

// Apply runs one tool. Mutating tools are recorded as one undo step named
// after the tool.
func (s *Session) Apply(kind ToolKind, a ToolArgs) error {
	switch kind {
	case ToolPlace:
		return s.edit("Place voxel", func() error {
			s.placeOrbit(s.snap(a.Anchor), s.colorFor(a))
			return nil
		})
	case ToolErase:
		return s.edit("Erase voxel", func() error {
			s.eraseOrbit(s.pick(a.Anchor))
			return nil
		})
	case ToolPaint:
		return s.edit("Paint voxel", func() error {
			s.Grid.SetColor(s.pick(a.Anchor), s.colorFor(a))
			return nil
		})

	case ToolSelect:
		s.selection(s.Grid.Select(s.pick(a.Anchor)))
	case ToolAddSelect:
		s.selection(s.Grid.AddToSelection(s.pick(a.Anchor)))
	case ToolRemoveSelect:
		s.selection(s.Grid.RemoveFromSelection(s.pick(a.Anchor)))
	case ToolInvertSelect:
		s.Grid.InvertSelection()
		s.selectionChanged()
	case ToolSelectAll:
		s.Grid.SelectAll()
		s.selectionChanged()
	case ToolSelectBox:
		s.Grid.ClearSelection()
		s.Grid.SelectInBox(a.Anchor, a.End)
		s.selectionChanged()

	case ToolBrushPaint:
		return s.edit("Brush paint", func() error {
			s.brush(a.Anchor, func(p mgl32.Vec3) { s.placeOrbit(p, s.colorFor(a)) })
			return nil
		})
	case ToolBrushErase:
		return s.edit("Brush erase", func() error {
			s.brush(a.Anchor, s.eraseOrbit)
			return nil
		})
	case ToolLine:
		return s.edit("Draw line", func() error {
			s.line(a.Anchor, a.End, s.colorFor(a))
			return nil
		})
	case ToolRectangle:
		return s.edit("Draw rectangle", func() error {
			s.rectangle(a.Anchor, a.End, a.Filled, s.colorFor(a))
			return nil
		})
	case ToolSphere:
		r := a.Radius
		if r <= 0 {
			r = s.Brush.Size
		}
		return s.edit("Draw sphere", func() error {
			s.sphere(a.Anchor, r, a.Filled, s.colorFor(a))
			return nil
		})
	case ToolFloodFill:
		return s.edit("Flood fill", func() error {
			s.Grid.FloodColor(s.pick(a.Anchor), s.VoxelSize, s.colorFor(a))
			return nil
		})

	case ToolCopy:
		if len(s.Grid.Selected()) > 0 {
			s.CopySelected()
		} else {
			s.CopyBox(a.Anchor, a.End)
		}
	case ToolPaste:
		return s.Paste(a.Anchor, a.WithBones, a.WithAnimations)

	default:
		return fmt.Errorf("unknown tool %v", kind)
	}
	return nil
}

func (s *Session) selection(changed bool) {
	if changed {
		s.selectionChanged()
	}
}

// snap converts a cursor position to a placement slot.
func (s *Session) snap(p mgl32.Vec3) mgl32.Vec3 {
	return s.Snapper.Snap(p, s.Grid)
}

// gridSnap rounds to the voxel grid unless placement is free.
func (s *Session) gridSnap(p mgl32.Vec3) mgl32.Vec3 {
	if s.Snapper.Mode == voxel.SnapFree {
		return p
	}
	return s.Snapper.SnapToGrid(p)
}

// pick returns the slot of an existing voxel under p: the voxel itself when
// p hits one, otherwise the nearest grid slot.
func (s *Session) pick(p mgl32.Vec3) mgl32.Vec3 {
	if i, ok := s.Grid.At(p); ok {
		v, _ := s.Grid.Voxel(i)
		return v.Position
	}
	return s.gridSnap(p)
}

func (s *Session) placeOrbit(p mgl32.Vec3, c color.RGBA) int {
	n := 0
	for _, q := range s.Symmetry.Orbit(p) {
		if s.Grid.Add(q, c, s.VoxelSize) {
			n++
		}
	}
	return n
}

func (s *Session) eraseOrbit(p mgl32.Vec3) {
	for _, q := range s.Symmetry.Orbit(p) {
		s.Grid.Remove(q)
	}
}

// brush calls fn for every brush candidate that survives random rejection.
func (s *Session) brush(anchor mgl32.Vec3, fn func(mgl32.Vec3)) {
	center := s.gridSnap(anchor)
	for _, p := range brushCandidates(center, s.Brush, s.VoxelSize) {
		if s.Brush.Randomize && s.rng.Float32() < s.Brush.RandomStrength {
			continue
		}
		fn(s.gridSnap(p))
	}
}

func (s *Session) line(from, to mgl32.Vec3, c color.RGBA) {
	d := to.Sub(from)
	length := d.Len()
	if length < 0.01 {
		s.placeOrbit(s.snap(from), c)
		return
	}
	dir := d.Mul(1 / length)
	step := s.VoxelSize / 2
	for t := float32(0); t <= length+1e-4; t += step {
		s.placeOrbit(s.gridSnap(from.Add(dir.Mul(t))), c)
	}
}

// cells returns the number of voxel steps from lo to hi.
func (s *Session) cells(lo, hi float32) int {
	return int(math.Floor(float64((hi-lo)/s.VoxelSize) + 1e-4))
}

func (s *Session) rectangle(a, b mgl32.Vec3, filled bool, c color.RGBA) {
	a, b = s.gridSnap(a), s.gridSnap(b)
	lo := mgl32.Vec3{min(a[0], b[0]), min(a[1], b[1]), min(a[2], b[2])}
	hi := mgl32.Vec3{max(a[0], b[0]), max(a[1], b[1]), max(a[2], b[2])}
	nx, ny, nz := s.cells(lo[0], hi[0]), s.cells(lo[1], hi[1]), s.cells(lo[2], hi[2])
	edge := func(i, n int) bool { return i == 0 || i == n }

	vs := s.VoxelSize
	for i := 0; i <= nx; i++ {
		for j := 0; j <= ny; j++ {
			for k := 0; k <= nz; k++ {
				if !filled && !edge(i, nx) && !edge(j, ny) && !edge(k, nz) {
					continue
				}
				p := lo.Add(mgl32.Vec3{float32(i) * vs, float32(j) * vs, float32(k) * vs})
				s.placeOrbit(p, c)
			}
		}
	}
}

func (s *Session) sphere(anchor mgl32.Vec3, r float32, filled bool, c color.RGBA) {
	center := s.gridSnap(anchor)
	inner := float32(0)
	if !filled {
		inner = max(r-s.VoxelSize, 0)
	}
	for _, p := range brushCandidates(center, BrushSettings{Size: r}, s.VoxelSize) {
		d2 := p.Sub(center).LenSqr()
		if d2 > r*r+1e-4 || d2 < inner*inner-1e-4 {
			continue
		}
		s.placeOrbit(s.gridSnap(p), c)
	}
}

// MoveSelection translates the selected voxels by delta as one undo step.
// Nothing moves when any target slot is occupied by an unselected voxel.
func (s *Session) MoveSelection(delta mgl32.Vec3) (bool, error) {
	var moved bool
	err := s.edit("Move selection", func() error {
		moved = s.Grid.MoveSelected(delta)
		return nil
	})
	return moved, err
}

// DeleteSelection removes the selected voxels as one undo step.
func (s *Session) DeleteSelection() (int, error) {
	var n int
	err := s.edit("Delete selection", func() error {
		n = s.Grid.DeleteSelected()
		return nil
	})
	if n > 0 {
		s.selectionChanged()
	}
	return n, err
}

// ColorSelection recolours the selected voxels as one undo step.
func (s *Session) ColorSelection(c color.RGBA) (int, error) {
	var n int
	err := s.edit("Color selection", func() error {
		n = s.Grid.SetSelectedColor(c)
		return nil
	})
	return n, err
}
