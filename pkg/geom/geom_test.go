package geom

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allTypes = []PrimitiveType{Cube, Rectangle, TriangularPyramid, Pyramid, Cone, Sphere, CylinderOpen, CylinderClosed}

func TestGenerateCube_Default(t *testing.T) {
	m := Generate(DefaultParams(Cube))

	if len(m.Vertices) != 24 {
		t.Fatalf("expected 24 vertices, got %d", len(m.Vertices))
	}
	if len(m.Indices) != 36 {
		t.Fatalf("expected 36 indices, got %d", len(m.Indices))
	}

	third := float32(1) / 3
	want := map[FaceID]Rect{
		FaceLeft:   {0, 0, third, 0.5},
		FaceFront:  {third, 0, 2 * third, 0.5},
		FaceRight:  {2 * third, 0, 1, 0.5},
		FaceBack:   {0, 0.5, third, 1},
		FaceBottom: {third, 0.5, 2 * third, 1},
		FaceTop:    {2 * third, 0.5, 1, 1},
	}
	assert.Equal(t, want, m.FaceRegions)

	// Each face's vertex UVs span exactly its region.
	for face, region := range want {
		vs := m.FaceVertices[face]
		require.Len(t, vs, 4, "face %s", face)
		var minU, minV, maxU, maxV float32 = 1, 1, 0, 0
		for _, vi := range vs {
			uv := m.Vertices[vi].UV
			minU, minV = min(minU, uv[0]), min(minV, uv[1])
			maxU, maxV = max(maxU, uv[0]), max(maxV, uv[1])
		}
		assert.InDelta(t, region.UMin, minU, 1e-6, "face %s", face)
		assert.InDelta(t, region.VMin, minV, 1e-6, "face %s", face)
		assert.InDelta(t, region.UMax, maxU, 1e-6, "face %s", face)
		assert.InDelta(t, region.VMax, maxV, 1e-6, "face %s", face)
	}

	assert.Equal(t, mgl32.Vec3{-0.5, -0.5, -0.5}, m.Bounds.Min)
	assert.Equal(t, mgl32.Vec3{0.5, 0.5, 0.5}, m.Bounds.Max)
}

func TestGenerate_FaceOrder(t *testing.T) {
	m := Generate(DefaultParams(Cube))
	// Vertices are emitted face-major in canonical order.
	expected := []FaceID{FaceFront, FaceBack, FaceLeft, FaceRight, FaceTop, FaceBottom}
	for i, f := range expected {
		assert.Equal(t, []uint32{uint32(4 * i), uint32(4*i + 1), uint32(4*i + 2), uint32(4*i + 3)}, m.FaceVertices[f])
	}
}

func TestGenerate_VertexCounts(t *testing.T) {
	tests := []struct {
		typ       PrimitiveType
		subdiv    int
		vertices  int
		triangles int
	}{
		{Cube, 16, 24, 12},
		{Rectangle, 16, 24, 12},
		{TriangularPyramid, 16, 12, 4},
		{Pyramid, 16, 16, 6},
		{Cone, 8, (8 + 1) + 1 + 8 + 1, 16},
		{CylinderOpen, 8, 2 * 9, 16},
		{CylinderClosed, 8, 2*9 + 2*(8+1), 16 + 16},
		// 8 sectors split into 4 wedges of 2 columns, 4 rings.
		{Sphere, 8, 4 * 5 * 3, 4 * 4 * 2 * 2},
	}

	for _, tt := range tests {
		t.Run(tt.typ.String(), func(t *testing.T) {
			p := DefaultParams(tt.typ)
			p.Subdivisions = tt.subdiv
			m := Generate(p)
			assert.Len(t, m.Vertices, tt.vertices)
			assert.Equal(t, tt.triangles, m.TriangleCount())
		})
	}
}

func TestGenerate_Invariants(t *testing.T) {
	for _, typ := range allTypes {
		for _, subdiv := range []int{3, 7, 16} {
			p := DefaultParams(typ)
			p.Subdivisions = subdiv
			m := Generate(p)
			require.False(t, m.IsEmpty(), "%s", typ)

			for _, idx := range m.Indices {
				if int(idx) >= len(m.Vertices) {
					t.Fatalf("%s: index %d out of range (%d vertices)", typ, idx, len(m.Vertices))
				}
			}

			for i := 0; i < m.TriangleCount(); i++ {
				if !m.IsOutwardWound(i) {
					t.Errorf("%s/%d: triangle %d wound inward", typ, subdiv, i)
				}
			}

			// Every vertex lives in exactly one face bucket.
			seen := make(map[uint32]FaceID)
			for _, f := range m.Faces {
				for _, v := range m.FaceVertices[f] {
					if prev, dup := seen[v]; dup {
						t.Errorf("%s: vertex %d in both %s and %s", typ, v, prev, f)
					}
					seen[v] = f
				}
			}
			assert.Len(t, seen, len(m.Vertices), "%s", typ)

			// Face regions lie in the unit square and are pairwise disjoint.
			faces := AvailableFaces(typ)
			assert.Equal(t, faces, m.Faces)
			for i, a := range faces {
				ra := m.FaceRegions[a]
				assert.True(t, ra.InUnitSquare(), "%s %s: %v", typ, a, ra)
				for _, b := range faces[i+1:] {
					assert.False(t, ra.Overlaps(m.FaceRegions[b]), "%s: %s overlaps %s", typ, a, b)
				}
			}
		}
	}
}

func TestGenerate_InvalidParams(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Params)
	}{
		{"zero radius", func(p *Params) { p.Type = Sphere; p.Radius = 0 }},
		{"negative radius", func(p *Params) { p.Type = Cone; p.Radius = -1 }},
		{"zero height", func(p *Params) { p.Type = CylinderOpen; p.Height = 0 }},
		{"too few subdivisions", func(p *Params) { p.Type = Cone; p.Subdivisions = 2 }},
		{"flat cube", func(p *Params) { p.Type = Cube; p.Dimensions = mgl32.Vec3{1, 0, 1} }},
		{"unknown type", func(p *Params) { p.Type = PrimitiveType(99) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams(Cube)
			tt.mutate(&p)
			assert.ErrorIs(t, p.Validate(), ErrInvalidParams)
			assert.True(t, Generate(p).IsEmpty())
		})
	}
}

func TestGenerate_ClosedFlagOnOpenCylinder(t *testing.T) {
	p := DefaultParams(CylinderOpen)
	p.Closed = true
	m := Generate(p)
	assert.Equal(t, []FaceID{FaceSide, FaceTop, FaceBottom}, m.Faces)
}

func TestGenerate_NoUVs(t *testing.T) {
	p := DefaultParams(Pyramid)
	p.GenerateUVs = false
	for _, v := range Generate(p).Vertices {
		assert.Equal(t, mgl32.Vec2{}, v.UV)
	}
}

func TestGenerate_UVScaleStaysInRegion(t *testing.T) {
	for _, typ := range allTypes {
		p := DefaultParams(typ)
		p.UVScale = 2
		m := Generate(p)
		for _, f := range m.Faces {
			r := m.FaceRegions[f]
			for _, v := range m.FaceVertices[f] {
				uv := m.Vertices[v].UV
				if uv[0] < r.UMin-1e-6 || uv[0] > r.UMax+1e-6 || uv[1] < r.VMin-1e-6 || uv[1] > r.VMax+1e-6 {
					t.Errorf("%s %s: uv %v outside region %v", typ, f, uv, r)
				}
			}
		}
	}

	half := DefaultParams(Cube)
	half.UVScale = 0.5
	m := Generate(half)
	r := m.FaceRegions[FaceFront]
	var maxU float32
	for _, v := range m.FaceVertices[FaceFront] {
		maxU = max(maxU, m.Vertices[v].UV[0])
	}
	assert.InDelta(t, r.UMin+0.5*r.Width(), maxU, 1e-5)
}

func TestGenerateSphere_Normals(t *testing.T) {
	p := DefaultParams(Sphere)
	p.Radius = 2
	for _, v := range Generate(p).Vertices {
		assert.InDelta(t, 2, v.Position.Len(), 1e-4)
		assert.True(t, v.Normal.ApproxEqualThreshold(v.Position.Mul(0.5), 1e-5))
	}
}

func TestRegionLayout_TwoAndThreeFaces(t *testing.T) {
	two := RegionLayout([]FaceID{FaceSide, FaceBase})
	assert.Equal(t, Rect{0, 0, 1, 0.5}, two[FaceSide])
	assert.Equal(t, Rect{0, 0.5, 1, 1}, two[FaceBase])

	three := RegionLayout(AvailableFaces(CylinderClosed))
	assert.InDelta(t, 2.0/3.0, three[FaceSide].UMax, 1e-6)
	assert.Equal(t, float32(0.5), three[FaceTop].VMax)
	assert.Equal(t, float32(0.5), three[FaceBottom].VMin)
}

func TestParsePrimitiveType(t *testing.T) {
	for _, typ := range allTypes {
		got, err := ParsePrimitiveType(typ.String())
		require.NoError(t, err)
		assert.Equal(t, typ, got)
	}

	got, err := ParsePrimitiveType("Triangular-Pyramid")
	require.NoError(t, err)
	assert.Equal(t, TriangularPyramid, got)

	_, err = ParsePrimitiveType("torus")
	assert.Error(t, err)
}

func TestFaceTransform_Apply(t *testing.T) {
	tests := []struct {
		name string
		ft   FaceTransform
		in   mgl32.Vec2
		want mgl32.Vec2
	}{
		{"identity", DefaultFaceTransform(), mgl32.Vec2{0.25, 0.75}, mgl32.Vec2{0.25, 0.75}},
		{"offset", FaceTransform{Scale: mgl32.Vec2{1, 1}, Offset: mgl32.Vec2{0.1, -0.1}}, mgl32.Vec2{0.5, 0.5}, mgl32.Vec2{0.6, 0.4}},
		{"scale about centre", FaceTransform{Scale: mgl32.Vec2{2, 2}, UseFullTexture: true}, mgl32.Vec2{1, 1}, mgl32.Vec2{1.5, 1.5}},
		{"scale clamped", FaceTransform{Scale: mgl32.Vec2{2, 2}}, mgl32.Vec2{1, 1}, mgl32.Vec2{1, 1}},
		{"rotate 90", FaceTransform{Scale: mgl32.Vec2{1, 1}, RotationDeg: 90}, mgl32.Vec2{1, 0.5}, mgl32.Vec2{0.5, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.ft.Apply(tt.in)
			assert.True(t, got.ApproxEqualThreshold(tt.want, 1e-5), "got %v, want %v", got, tt.want)
		})
	}
}

func TestWithFaceTransform_OnlyTouchesFace(t *testing.T) {
	m := Generate(DefaultParams(Cube))
	ft := FaceTransform{Scale: mgl32.Vec2{1, 1}, RotationDeg: 180}
	out := m.WithFaceTransform(FaceFront, ft)

	region := m.FaceRegions[FaceFront]
	for _, vi := range m.FaceVertices[FaceFront] {
		before := region.ToLocal(m.Vertices[vi].UV)
		after := region.ToLocal(out.Vertices[vi].UV)
		want := mgl32.Vec2{1 - before[0], 1 - before[1]}
		assert.True(t, after.ApproxEqualThreshold(want, 1e-5), "vertex %d: got %v want %v", vi, after, want)
	}

	for _, f := range []FaceID{FaceBack, FaceLeft, FaceRight, FaceTop, FaceBottom} {
		for _, vi := range m.FaceVertices[f] {
			assert.Equal(t, m.Vertices[vi].UV, out.Vertices[vi].UV)
		}
	}

	// Source mesh is left untouched.
	assert.NotEqual(t, m.Vertices[0].UV, out.Vertices[0].UV)
}
