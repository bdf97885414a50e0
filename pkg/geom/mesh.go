package geom

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Vertex is a single interleaved mesh vertex.
type Vertex struct {
	Position mgl32.Vec3
	Normal   mgl32.Vec3
	UV       mgl32.Vec2
}

// Bounds is an axis-aligned bounding box.
type Bounds struct {
	Min, Max mgl32.Vec3
}

// Size returns the box extent.
func (b Bounds) Size() mgl32.Vec3 { return b.Max.Sub(b.Min) }

// Center returns the box midpoint.
func (b Bounds) Center() mgl32.Vec3 { return b.Min.Add(b.Max).Mul(0.5) }

// Mesh is the output of a primitive generator. It is not modified after
// generation; transforms return copies.
type Mesh struct {
	Type         PrimitiveType
	Vertices     []Vertex
	Indices      []uint32
	Faces        []FaceID // canonical order
	FaceVertices map[FaceID][]uint32
	FaceRegions  map[FaceID]Rect
	Bounds       Bounds
}

// IsEmpty reports whether the mesh has nothing to render.
func (m Mesh) IsEmpty() bool {
	return len(m.Vertices) == 0 || len(m.Indices) == 0
}

// TriangleCount returns the number of triangles in the index stream.
func (m Mesh) TriangleCount() int { return len(m.Indices) / 3 }

// FaceOf returns the face a vertex belongs to.
func (m Mesh) FaceOf(vertex uint32) (FaceID, bool) {
	for _, f := range m.Faces {
		for _, v := range m.FaceVertices[f] {
			if v == vertex {
				return f, true
			}
		}
	}
	return "", false
}

// Clone returns a deep copy of the mesh.
func (m Mesh) Clone() Mesh {
	out := m
	out.Vertices = append([]Vertex(nil), m.Vertices...)
	out.Indices = append([]uint32(nil), m.Indices...)
	out.Faces = append([]FaceID(nil), m.Faces...)
	out.FaceVertices = make(map[FaceID][]uint32, len(m.FaceVertices))
	for f, vs := range m.FaceVertices {
		out.FaceVertices[f] = append([]uint32(nil), vs...)
	}
	out.FaceRegions = make(map[FaceID]Rect, len(m.FaceRegions))
	for f, r := range m.FaceRegions {
		out.FaceRegions[f] = r
	}
	return out
}

// meshBuilder accumulates vertices face by face.
type meshBuilder struct {
	mesh    Mesh
	params  Params
	current FaceID
	region  Rect
}

func newMeshBuilder(p Params, faces []FaceID) *meshBuilder {
	return &meshBuilder{
		params: p,
		mesh: Mesh{
			Type:         p.Type,
			Faces:        faces,
			FaceVertices: make(map[FaceID][]uint32, len(faces)),
			FaceRegions:  RegionLayout(faces),
		},
	}
}

// face switches the bucket that subsequent vertices are recorded in.
func (b *meshBuilder) face(f FaceID) {
	b.current = f
	b.region = b.mesh.FaceRegions[f]
}

// vertex appends a vertex with face-local uv (s, t) and returns its index.
// The scaled uv saturates at the face's region edge.
func (b *meshBuilder) vertex(pos, normal mgl32.Vec3, s, t float32) uint32 {
	var uv mgl32.Vec2
	if b.params.GenerateUVs {
		s = clamp01(s * b.params.UVScale)
		t = clamp01(t * b.params.UVScale)
		uv = mgl32.Vec2{
			b.region.UMin + s*b.region.Width(),
			b.region.VMin + t*b.region.Height(),
		}
	}
	idx := uint32(len(b.mesh.Vertices))
	b.mesh.Vertices = append(b.mesh.Vertices, Vertex{Position: pos, Normal: normal, UV: uv})
	b.mesh.FaceVertices[b.current] = append(b.mesh.FaceVertices[b.current], idx)
	return idx
}

func clamp01(v float32) float32 {
	return min(max(v, 0), 1)
}

func (b *meshBuilder) tri(a, c, d uint32) {
	b.mesh.Indices = append(b.mesh.Indices, a, c, d)
}

func (b *meshBuilder) quad(a, c, d, e uint32) {
	b.tri(a, c, d)
	b.tri(d, e, a)
}

func (b *meshBuilder) build() Mesh {
	fixWinding(&b.mesh)
	b.mesh.Bounds = computeBounds(b.mesh.Vertices)
	return b.mesh
}

// fixWinding flips any triangle whose geometric normal points away from
// the averaged vertex normals, so every triangle is CCW seen from outside.
func fixWinding(m *Mesh) {
	for i := 0; i+2 < len(m.Indices); i += 3 {
		a, b, c := m.Vertices[m.Indices[i]], m.Vertices[m.Indices[i+1]], m.Vertices[m.Indices[i+2]]
		n := b.Position.Sub(a.Position).Cross(c.Position.Sub(a.Position))
		if n.Len() < 1e-12 {
			continue
		}
		if n.Dot(a.Normal.Add(b.Normal).Add(c.Normal)) < 0 {
			m.Indices[i+1], m.Indices[i+2] = m.Indices[i+2], m.Indices[i+1]
		}
	}
}

// IsOutwardWound reports whether triangle i faces along its vertex normals.
// Degenerate triangles count as consistent.
func (m Mesh) IsOutwardWound(i int) bool {
	a, b, c := m.Vertices[m.Indices[3*i]], m.Vertices[m.Indices[3*i+1]], m.Vertices[m.Indices[3*i+2]]
	n := b.Position.Sub(a.Position).Cross(c.Position.Sub(a.Position))
	if n.Len() < 1e-12 {
		return true
	}
	return n.Dot(a.Normal.Add(b.Normal).Add(c.Normal)) >= 0
}

func computeBounds(vs []Vertex) Bounds {
	if len(vs) == 0 {
		return Bounds{}
	}
	b := Bounds{Min: vs[0].Position, Max: vs[0].Position}
	for _, v := range vs[1:] {
		for i := 0; i < 3; i++ {
			b.Min[i] = min(b.Min[i], v.Position[i])
			b.Max[i] = max(b.Max[i], v.Position[i])
		}
	}
	return b
}
