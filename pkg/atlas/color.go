package atlas

import (
	"image"
	"image/color"
	"io"
	"math"
	"slices"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/tileforge/internal/assets"
	"github.com/Faultbox/tileforge/pkg/geom"
)

// DefaultCellSize is the edge of one colour cell in pixels.
const DefaultCellSize = 64

// PackRGB packs the rgb channels of c into 0xRRGGBB, ignoring alpha.
func PackRGB(c color.RGBA) uint32 {
	return uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
}

// ColorAtlas is a square grid of solid colour cells.
type ColorAtlas struct {
	colors []uint32 // sorted packed rgb
	index  map[uint32]int
	side   int
	cell   int
}

// NewColorAtlas packs the distinct rgb values of colors. A cell size <= 2
// falls back to DefaultCellSize.
func NewColorAtlas(colors []color.RGBA, cell int) *ColorAtlas {
	if cell <= 2 {
		cell = DefaultCellSize
	}

	seen := make(map[uint32]struct{}, len(colors))
	packed := make([]uint32, 0, len(colors))
	for _, c := range colors {
		p := PackRGB(c)
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		packed = append(packed, p)
	}
	slices.Sort(packed)

	a := &ColorAtlas{
		colors: packed,
		index:  make(map[uint32]int, len(packed)),
		cell:   cell,
		side:   int(math.Ceil(math.Sqrt(float64(len(packed))))),
	}
	for i, p := range packed {
		a.index[p] = i
	}
	return a
}

// Len returns the number of cells.
func (a *ColorAtlas) Len() int { return len(a.colors) }

// Side returns the number of cells per row.
func (a *ColorAtlas) Side() int { return a.side }

// Size returns the image edge in pixels.
func (a *ColorAtlas) Size() int { return a.side * a.cell }

// Colors returns the packed colours in cell order.
func (a *ColorAtlas) Colors() []color.RGBA {
	out := make([]color.RGBA, len(a.colors))
	for i, p := range a.colors {
		out[i] = color.RGBA{uint8(p >> 16), uint8(p >> 8), uint8(p), 255}
	}
	return out
}

// pixelRect returns the full cell rectangle of cell i in image space.
func (a *ColorAtlas) pixelRect(i int) image.Rectangle {
	row, col := i/a.side, i%a.side
	return image.Rect(col*a.cell, row*a.cell, (col+1)*a.cell, (row+1)*a.cell)
}

// CellRect returns the whole cell of c in UV space (v flipped so v=1 is the
// top row of the image).
func (a *ColorAtlas) CellRect(c color.RGBA) (geom.Rect, bool) {
	i, ok := a.index[PackRGB(c)]
	if !ok {
		return geom.Rect{}, false
	}
	return a.uvRect(a.pixelRect(i)), true
}

// Cell returns the interior of c's cell in UV space, inset by one pixel on
// every side so bilinear filtering never samples a neighbour.
func (a *ColorAtlas) Cell(c color.RGBA) (geom.Rect, bool) {
	i, ok := a.index[PackRGB(c)]
	if !ok {
		return geom.Rect{}, false
	}
	return a.uvRect(a.pixelRect(i).Inset(1)), true
}

func (a *ColorAtlas) uvRect(r image.Rectangle) geom.Rect {
	total := float32(a.Size())
	return geom.Rect{
		UMin: float32(r.Min.X) / total,
		UMax: float32(r.Max.X) / total,
		VMin: 1 - float32(r.Max.Y)/total,
		VMax: 1 - float32(r.Min.Y)/total,
	}
}

// QuadUVs returns the four UV corners for a quad of colour c, in the order
// (min,min), (max,min), (max,max), (min,max). Unknown colours map to the
// first cell.
func (a *ColorAtlas) QuadUVs(c color.RGBA) [4]mgl32.Vec2 {
	r, ok := a.Cell(c)
	if !ok && len(a.colors) > 0 {
		r = a.uvRect(a.pixelRect(0).Inset(1))
	}
	return [4]mgl32.Vec2{
		{r.UMin, r.VMin},
		{r.UMax, r.VMin},
		{r.UMax, r.VMax},
		{r.UMin, r.VMax},
	}
}

// Image renders the atlas. Cells keep a one-pixel transparent border.
func (a *ColorAtlas) Image() *image.RGBA {
	size := a.Size()
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for i, c := range a.Colors() {
		fill(img, a.pixelRect(i).Inset(1), c)
	}
	return img
}

// EncodePNG writes the atlas image as PNG.
func (a *ColorAtlas) EncodePNG(w io.Writer) error {
	return imgio.PNGEncoder()(w, a.Image())
}

// WritePNG writes the atlas image to path atomically.
func (a *ColorAtlas) WritePNG(path string) error {
	return assets.WriteAtomic(path, a.EncodePNG)
}

// WriteImagePNG writes any image to path atomically.
func WriteImagePNG(path string, img image.Image) error {
	return assets.WriteAtomic(path, func(w io.Writer) error {
		return imgio.PNGEncoder()(w, img)
	})
}
