// Package geom generates primitive meshes with per-face UV regions for tile assets.
package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/tileforge/internal/logger"
)

type generatorFunc func(b *meshBuilder, p Params)

var generators = map[PrimitiveType]generatorFunc{
	Cube:              genBox,
	Rectangle:         genBox,
	TriangularPyramid: genTriangularPyramid,
	Pyramid:           genPyramid,
	Cone:              genCone,
	Sphere:            genSphere,
	CylinderOpen:      genCylinder,
	CylinderClosed:    genCylinder,
}

// Generate builds the mesh for p. Invalid parameters yield an empty mesh.
func Generate(p Params) Mesh {
	if p.Type == CylinderOpen && p.Closed {
		p.Type = CylinderClosed
	}
	if err := p.Validate(); err != nil {
		logger.Log.Debug("primitive not generated", zap.Stringer("type", p.Type), zap.Error(err))
		return Mesh{Type: p.Type}
	}

	b := newMeshBuilder(p, AvailableFaces(p.Type))
	generators[p.Type](b, p)
	return b.build()
}

func genBox(b *meshBuilder, p Params) {
	w, h, d := p.Dimensions[0]/2, p.Dimensions[1]/2, p.Dimensions[2]/2

	// Corners are listed counter-clockwise seen from outside, starting
	// at the face-local (0,0) corner.
	faces := []struct {
		id      FaceID
		normal  mgl32.Vec3
		corners [4]mgl32.Vec3
	}{
		{FaceFront, mgl32.Vec3{0, 0, 1}, [4]mgl32.Vec3{{-w, -h, d}, {w, -h, d}, {w, h, d}, {-w, h, d}}},
		{FaceBack, mgl32.Vec3{0, 0, -1}, [4]mgl32.Vec3{{w, -h, -d}, {-w, -h, -d}, {-w, h, -d}, {w, h, -d}}},
		{FaceLeft, mgl32.Vec3{-1, 0, 0}, [4]mgl32.Vec3{{-w, -h, -d}, {-w, -h, d}, {-w, h, d}, {-w, h, -d}}},
		{FaceRight, mgl32.Vec3{1, 0, 0}, [4]mgl32.Vec3{{w, -h, d}, {w, -h, -d}, {w, h, -d}, {w, h, d}}},
		{FaceTop, mgl32.Vec3{0, 1, 0}, [4]mgl32.Vec3{{-w, h, d}, {w, h, d}, {w, h, -d}, {-w, h, -d}}},
		{FaceBottom, mgl32.Vec3{0, -1, 0}, [4]mgl32.Vec3{{-w, -h, -d}, {w, -h, -d}, {w, -h, d}, {-w, -h, d}}},
	}
	local := [4]mgl32.Vec2{{0, 0}, {1, 0}, {1, 1}, {0, 1}}

	for _, f := range faces {
		b.face(f.id)
		var idx [4]uint32
		for i, c := range f.corners {
			idx[i] = b.vertex(c, f.normal, local[i][0], local[i][1])
		}
		b.quad(idx[0], idx[1], idx[2], idx[3])
	}
}

// flatFace emits a planar polygon (triangle or quad) whose normal faces away
// from interior.
func flatFace(b *meshBuilder, id FaceID, pts []mgl32.Vec3, uvs []mgl32.Vec2, interior mgl32.Vec3) {
	n := pts[1].Sub(pts[0]).Cross(pts[2].Sub(pts[0])).Normalize()
	if n.Dot(pts[0].Sub(interior)) < 0 {
		n = n.Mul(-1)
	}

	b.face(id)
	idx := make([]uint32, len(pts))
	for i, pt := range pts {
		idx[i] = b.vertex(pt, n, uvs[i][0], uvs[i][1])
	}
	if len(idx) == 4 {
		b.quad(idx[0], idx[1], idx[2], idx[3])
	} else {
		b.tri(idx[0], idx[1], idx[2])
	}
}

func genTriangularPyramid(b *meshBuilder, p Params) {
	w, h, d := p.Dimensions[0]/2, p.Dimensions[1], p.Dimensions[2]/2

	fl := mgl32.Vec3{-w, 0, d}
	fr := mgl32.Vec3{w, 0, d}
	back := mgl32.Vec3{0, 0, -d}
	apex := mgl32.Vec3{0, h, 0}
	interior := mgl32.Vec3{0, h / 4, d / 4}
	triUV := []mgl32.Vec2{{0, 0}, {1, 0}, {0.5, 1}}

	flatFace(b, FaceBase, []mgl32.Vec3{fl, fr, back}, triUV, interior)
	flatFace(b, FaceFront, []mgl32.Vec3{fl, fr, apex}, triUV, interior)
	flatFace(b, FaceLeft, []mgl32.Vec3{back, fl, apex}, triUV, interior)
	flatFace(b, FaceRight, []mgl32.Vec3{fr, back, apex}, triUV, interior)
}

func genPyramid(b *meshBuilder, p Params) {
	w, h, d := p.Dimensions[0]/2, p.Dimensions[1], p.Dimensions[2]/2

	bl := mgl32.Vec3{-w, 0, -d}
	br := mgl32.Vec3{w, 0, -d}
	fr := mgl32.Vec3{w, 0, d}
	fl := mgl32.Vec3{-w, 0, d}
	apex := mgl32.Vec3{0, h, 0}
	interior := mgl32.Vec3{0, h / 4, 0}
	triUV := []mgl32.Vec2{{0, 0}, {1, 0}, {0.5, 1}}

	flatFace(b, FaceBase, []mgl32.Vec3{bl, br, fr, fl}, []mgl32.Vec2{{0, 0}, {1, 0}, {1, 1}, {0, 1}}, interior)
	flatFace(b, FaceFront, []mgl32.Vec3{fl, fr, apex}, triUV, interior)
	flatFace(b, FaceBack, []mgl32.Vec3{br, bl, apex}, triUV, interior)
	flatFace(b, FaceLeft, []mgl32.Vec3{bl, fl, apex}, triUV, interior)
	flatFace(b, FaceRight, []mgl32.Vec3{fr, br, apex}, triUV, interior)
}

func ringPoint(radius float32, i, n int) (x, z float32, angle float64) {
	angle = 2 * math.Pi * float64(i) / float64(n)
	return radius * float32(math.Cos(angle)), radius * float32(math.Sin(angle)), angle
}

func polarUV(angle float64) (float32, float32) {
	return 0.5 + 0.5*float32(math.Cos(angle)), 0.5 + 0.5*float32(math.Sin(angle))
}

func genCone(b *meshBuilder, p Params) {
	n := p.Subdivisions
	r, h := p.Radius, p.Height

	b.face(FaceSide)
	ring := make([]uint32, n+1)
	for i := 0; i <= n; i++ {
		x, z, _ := ringPoint(r, i, n)
		normal := mgl32.Vec3{x, r, z}.Normalize()
		ring[i] = b.vertex(mgl32.Vec3{x, 0, z}, normal, float32(i)/float32(n), 0)
	}
	apex := b.vertex(mgl32.Vec3{0, h, 0}, mgl32.Vec3{0, 1, 0}, 0.5, 1)
	for i := 0; i < n; i++ {
		b.tri(ring[i], apex, ring[i+1])
	}

	down := mgl32.Vec3{0, -1, 0}
	b.face(FaceBase)
	base := make([]uint32, n)
	for i := 0; i < n; i++ {
		x, z, angle := ringPoint(r, i, n)
		u, v := polarUV(angle)
		base[i] = b.vertex(mgl32.Vec3{x, 0, z}, down, u, v)
	}
	center := b.vertex(mgl32.Vec3{}, down, 0.5, 0.5)
	for i := 0; i < n; i++ {
		b.tri(center, base[i], base[(i+1)%n])
	}
}

// genSphere splits the sphere into four longitudinal wedges so each face
// owns a disjoint vertex patch.
func genSphere(b *meshBuilder, p Params) {
	rings := max(3, p.Subdivisions/2)
	sectors := max(3, p.Subdivisions)
	cols := (sectors + 3) / 4
	r := p.Radius

	wedgeStart := map[FaceID]float64{
		FaceEast:  0,
		FaceNorth: math.Pi / 2,
		FaceWest:  math.Pi,
		FaceSouth: 3 * math.Pi / 2,
	}

	for _, f := range b.mesh.Faces {
		b.face(f)
		theta0 := wedgeStart[f]
		first := uint32(len(b.mesh.Vertices))

		for ri := 0; ri <= rings; ri++ {
			phi := math.Pi * float64(ri) / float64(rings)
			y := float32(math.Cos(phi))
			ringR := float32(math.Sin(phi))
			for s := 0; s <= cols; s++ {
				theta := theta0 + (math.Pi/2)*float64(s)/float64(cols)
				unit := mgl32.Vec3{ringR * float32(math.Cos(theta)), y, ringR * float32(math.Sin(theta))}
				b.vertex(unit.Mul(r), unit, float32(s)/float32(cols), float32(ri)/float32(rings))
			}
		}

		stride := uint32(cols + 1)
		for ri := 0; ri < rings; ri++ {
			for s := 0; s < cols; s++ {
				cur := first + uint32(ri)*stride + uint32(s)
				next := cur + stride
				b.tri(cur, next, cur+1)
				b.tri(cur+1, next, next+1)
			}
		}
	}
}

func genCylinder(b *meshBuilder, p Params) {
	n := p.Subdivisions
	r, half := p.Radius, p.Height/2

	b.face(FaceSide)
	first := uint32(len(b.mesh.Vertices))
	for i := 0; i <= n; i++ {
		x, z, _ := ringPoint(r, i, n)
		normal := mgl32.Vec3{x / r, 0, z / r}
		u := float32(i) / float32(n)
		b.vertex(mgl32.Vec3{x, -half, z}, normal, u, 0)
		b.vertex(mgl32.Vec3{x, half, z}, normal, u, 1)
	}
	for i := uint32(0); i < uint32(n); i++ {
		bottom1, top1 := first+2*i, first+2*i+1
		bottom2, top2 := bottom1+2, top1+2
		b.tri(bottom1, top1, bottom2)
		b.tri(bottom2, top1, top2)
	}

	if p.Type != CylinderClosed {
		return
	}

	caps := []struct {
		id     FaceID
		y      float32
		normal mgl32.Vec3
	}{
		{FaceTop, half, mgl32.Vec3{0, 1, 0}},
		{FaceBottom, -half, mgl32.Vec3{0, -1, 0}},
	}
	for _, c := range caps {
		b.face(c.id)
		center := b.vertex(mgl32.Vec3{0, c.y, 0}, c.normal, 0.5, 0.5)
		rim := make([]uint32, n)
		for i := 0; i < n; i++ {
			x, z, angle := ringPoint(r, i, n)
			u, v := polarUV(angle)
			rim[i] = b.vertex(mgl32.Vec3{x, c.y, z}, c.normal, u, v)
		}
		for i := 0; i < n; i++ {
			b.tri(center, rim[i], rim[(i+1)%n])
		}
	}
}
