// Package atlas lays out texture atlases: paintable face templates for tile
// meshes and packed colour atlases for voxel exports.
package atlas

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/Faultbox/tileforge/pkg/geom"
)

// Template colours.
var (
	templateBackground = color.RGBA{240, 240, 240, 255}
	templateGrid       = color.RGBA{220, 220, 220, 255}
	templateOutline    = color.RGBA{100, 100, 100, 255}
	templateLabel      = color.RGBA{50, 50, 50, 255}

	faceBackground = color.RGBA{255, 255, 255, 255}
	faceGrid       = color.RGBA{200, 200, 200, 255}
	faceLabel      = color.RGBA{150, 150, 150, 255}
)

const (
	templateGridStep = 16
	faceGridStep     = 32
	bleed            = 1
)

// FaceRect converts a UV region to its pixel rectangle in a w×h image.
func FaceRect(r geom.Rect, w, h int) image.Rectangle {
	return image.Rect(
		int(math.Floor(float64(r.UMin)*float64(w)+0.5)),
		int(math.Floor(float64(r.VMin)*float64(h)+0.5)),
		int(math.Floor(float64(r.UMax)*float64(w)+0.5)),
		int(math.Floor(float64(r.VMax)*float64(h)+0.5)),
	)
}

// PaintableRect is the face rectangle shrunk by the bleed border.
func PaintableRect(r geom.Rect, w, h int) image.Rectangle {
	return FaceRect(r, w, h).Inset(bleed)
}

// FaceTemplate renders a blank template with each face's region outlined
// and labelled.
func FaceTemplate(mesh geom.Mesh, w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	fill(img, img.Bounds(), templateBackground)
	drawGrid(img, templateGridStep, templateGrid)

	for _, f := range mesh.Faces {
		region, ok := mesh.FaceRegions[f]
		if !ok {
			continue
		}
		r := PaintableRect(region, w, h)
		outline(img, r, 2, templateOutline)
		label(img, r, string(f), templateLabel)
	}
	return img
}

// SingleFaceTemplate renders a template for painting one face on its own.
func SingleFaceTemplate(face geom.FaceID, size int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	fill(img, img.Bounds(), faceBackground)
	drawGrid(img, faceGridStep, faceGrid)
	outline(img, img.Bounds(), 3, templateOutline)
	label(img, img.Bounds(), string(face), faceLabel)
	return img
}

func fill(img draw.Image, r image.Rectangle, c color.Color) {
	draw.Draw(img, r, image.NewUniform(c), image.Point{}, draw.Src)
}

func drawGrid(img *image.RGBA, step int, c color.Color) {
	b := img.Bounds()
	for x := b.Min.X; x < b.Max.X; x += step {
		fill(img, image.Rect(x, b.Min.Y, x+1, b.Max.Y), c)
	}
	for y := b.Min.Y; y < b.Max.Y; y += step {
		fill(img, image.Rect(b.Min.X, y, b.Max.X, y+1), c)
	}
}

// outline draws a border of the given thickness inside r.
func outline(img *image.RGBA, r image.Rectangle, thickness int, c color.Color) {
	if r.Empty() {
		return
	}
	t := min(thickness, r.Dx()/2, r.Dy()/2)
	if t < 1 {
		t = 1
	}
	fill(img, image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+t), c)
	fill(img, image.Rect(r.Min.X, r.Max.Y-t, r.Max.X, r.Max.Y), c)
	fill(img, image.Rect(r.Min.X, r.Min.Y, r.Min.X+t, r.Max.Y), c)
	fill(img, image.Rect(r.Max.X-t, r.Min.Y, r.Max.X, r.Max.Y), c)
}

// label centres text in r. Text wider than r is skipped.
func label(img *image.RGBA, r image.Rectangle, text string, c color.Color) {
	face := basicfont.Face7x13
	width := font.MeasureString(face, text).Ceil()
	height := face.Metrics().Ascent.Ceil()
	if width > r.Dx() || height > r.Dy() {
		return
	}

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(r.Min.X+(r.Dx()-width)/2, r.Min.Y+(r.Dy()+height)/2),
	}
	d.DrawString(text)
}
