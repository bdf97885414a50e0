package formats

import (
	"bufio"
	"fmt"
	"image/color"
	"io"
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/tileforge/internal/assets"
	"github.com/Faultbox/tileforge/pkg/geom"
)

// DefaultMaterial is the material name used by voxel exports.
const DefaultMaterial = "voxel_material"

// OBJ holds the document-level settings of an OBJ file.
type OBJ struct {
	Comments []string // written as "# ..." header lines
	MTLLib   string   // material library file name, if any
	Material string   // usemtl name, if any
}

// Quad is one planar four-corner face with optional per-corner UVs.
// Corners are counter-clockwise seen from the side Normal points to.
type Quad struct {
	Corners [4]mgl32.Vec3
	Normal  mgl32.Vec3
	UVs     [4]mgl32.Vec2
	Color   color.RGBA
}

// ColoredVertex is a position with an RGB colour and a normal.
type ColoredVertex struct {
	Position mgl32.Vec3
	Normal   mgl32.Vec3
	Color    color.RGBA
}

func (o OBJ) writeHeader(bw *bufio.Writer) {
	for _, c := range o.Comments {
		fmt.Fprintf(bw, "# %s\n", c)
	}
	if o.MTLLib != "" {
		fmt.Fprintf(bw, "mtllib %s\n", o.MTLLib)
	}
	bw.WriteString("\n")
}

func (o OBJ) writeUseMTL(bw *bufio.Writer) {
	if o.Material != "" {
		fmt.Fprintf(bw, "usemtl %s\n", o.Material)
	}
}

func writeV(bw *bufio.Writer, p mgl32.Vec3) {
	bw.WriteString("v " + ff(p[0]) + " " + ff(p[1]) + " " + ff(p[2]) + "\n")
}

func writeColoredV(bw *bufio.Writer, p mgl32.Vec3, c color.RGBA) {
	bw.WriteString("v " + ff(p[0]) + " " + ff(p[1]) + " " + ff(p[2]) + " " +
		ff(float32(c.R)/255) + " " + ff(float32(c.G)/255) + " " + ff(float32(c.B)/255) + "\n")
}

func writeVT(bw *bufio.Writer, uv mgl32.Vec2) {
	bw.WriteString("vt " + ff(uv[0]) + " " + ff(uv[1]) + "\n")
}

func writeVN(bw *bufio.Writer, n mgl32.Vec3) {
	bw.WriteString("vn " + ff(n[0]) + " " + ff(n[1]) + " " + ff(n[2]) + "\n")
}

// faceLine writes "f a/a/a b/b/b ..." for 1-based indices sharing one
// index across all three streams.
func faceLine(bw *bufio.Writer, idx ...int) {
	var sb strings.Builder
	sb.WriteString("f")
	for _, i := range idx {
		fmt.Fprintf(&sb, " %d/%d/%d", i, i, i)
	}
	sb.WriteString("\n")
	bw.WriteString(sb.String())
}

// faceLineNoUV writes "f a//a b//b ...".
func faceLineNoUV(bw *bufio.Writer, idx ...int) {
	var sb strings.Builder
	sb.WriteString("f")
	for _, i := range idx {
		fmt.Fprintf(&sb, " %d//%d", i, i)
	}
	sb.WriteString("\n")
	bw.WriteString(sb.String())
}

// WriteMesh writes a tile mesh as triangles with positions, UVs and normals.
func (o OBJ) WriteMesh(w io.Writer, m geom.Mesh) error {
	bw := bufio.NewWriter(w)
	o.writeHeader(bw)

	for _, v := range m.Vertices {
		writeV(bw, v.Position)
	}
	for _, v := range m.Vertices {
		writeVT(bw, v.UV)
	}
	for _, v := range m.Vertices {
		writeVN(bw, v.Normal)
	}

	bw.WriteString("\n")
	o.writeUseMTL(bw)
	for i := 0; i+2 < len(m.Indices); i += 3 {
		faceLine(bw, int(m.Indices[i])+1, int(m.Indices[i+1])+1, int(m.Indices[i+2])+1)
	}
	return bw.Flush()
}

// WriteTexturedQuads writes quads with per-corner UVs and one normal per
// vertex, so the v, vt and vn counts are equal.
func (o OBJ) WriteTexturedQuads(w io.Writer, quads []Quad) error {
	bw := bufio.NewWriter(w)
	o.writeHeader(bw)

	for _, q := range quads {
		for _, c := range q.Corners {
			writeV(bw, c)
		}
	}
	for _, q := range quads {
		for _, uv := range q.UVs {
			writeVT(bw, uv)
		}
	}
	for _, q := range quads {
		for _i := 0; _i < 4; _i++ {
			writeVN(bw, q.Normal)
		}
	}

	bw.WriteString("\n")
	o.writeUseMTL(bw)
	for i := range quads {
		base := 4*i + 1
		faceLine(bw, base, base+1, base+2, base+3)
	}
	return bw.Flush()
}

// WriteColoredQuads writes quads using the extended "v x y z r g b" form.
func (o OBJ) WriteColoredQuads(w io.Writer, quads []Quad) error {
	bw := bufio.NewWriter(w)
	o.writeHeader(bw)

	for _, q := range quads {
		for _, c := range q.Corners {
			writeColoredV(bw, c, q.Color)
		}
	}
	for _, q := range quads {
		for _i := 0; _i < 4; _i++ {
			writeVN(bw, q.Normal)
		}
	}

	bw.WriteString("\n")
	o.writeUseMTL(bw)
	for i := range quads {
		base := 4*i + 1
		faceLineNoUV(bw, base, base+1, base+2, base+3)
	}
	return bw.Flush()
}

// WriteColoredTriangles writes an indexed triangle list with vertex colours.
func (o OBJ) WriteColoredTriangles(w io.Writer, verts []ColoredVertex, indices []uint32) error {
	if len(indices)%3 != 0 {
		return fmt.Errorf("index count %d is not a multiple of 3", len(indices))
	}
	bw := bufio.NewWriter(w)
	o.writeHeader(bw)

	for _, v := range verts {
		writeColoredV(bw, v.Position, v.Color)
	}
	for _, v := range verts {
		writeVN(bw, v.Normal)
	}

	bw.WriteString("\n")
	o.writeUseMTL(bw)
	for i := 0; i < len(indices); i += 3 {
		faceLineNoUV(bw, int(indices[i])+1, int(indices[i+1])+1, int(indices[i+2])+1)
	}
	return bw.Flush()
}

// MTL is a single-material library.
type MTL struct {
	Comment string
	Name    string
	Ka      [3]float32
	Kd      [3]float32
	Ks      [3]float32
	MapKd   string
}

// NewMTL returns a white diffuse material optionally mapped to a texture.
func NewMTL(name, mapKd string) MTL {
	return MTL{
		Name:  name,
		Ka:    [3]float32{1, 1, 1},
		Kd:    [3]float32{1, 1, 1},
		Ks:    [3]float32{0, 0, 0},
		MapKd: mapKd,
	}
}

// Write serializes the material library.
func (m MTL) Write(w io.Writer) error {
	bw := bufio.NewWriter(w)
	if m.Comment != "" {
		fmt.Fprintf(bw, "# %s\n", m.Comment)
	}
	fmt.Fprintf(bw, "newmtl %s\n", m.Name)
	fmt.Fprintf(bw, "Ka %s %s %s\n", ff(m.Ka[0]), ff(m.Ka[1]), ff(m.Ka[2]))
	fmt.Fprintf(bw, "Kd %s %s %s\n", ff(m.Kd[0]), ff(m.Kd[1]), ff(m.Kd[2]))
	fmt.Fprintf(bw, "Ks %s %s %s\n", ff(m.Ks[0]), ff(m.Ks[1]), ff(m.Ks[2]))
	if m.MapKd != "" {
		fmt.Fprintf(bw, "map_Kd %s\n", m.MapKd)
	}
	return bw.Flush()
}

// Save writes the material library to path atomically.
func (m MTL) Save(path string) error {
	return assets.WriteAtomic(path, m.Write)
}

// SaveOBJ runs write against a temporary file and renames it to path once
// write succeeds.
func SaveOBJ(path string, write func(io.Writer) error) error {
	return assets.WriteAtomic(path, write)
}
