package voxelmesh

import (
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tfmath "github.com/Faultbox/tileforge/pkg/math"
	"github.com/Faultbox/tileforge/pkg/rig"
	"github.com/Faultbox/tileforge/pkg/scene"
	"github.com/Faultbox/tileforge/pkg/voxel"
)

var (
	red  = color.RGBA{255, 0, 0, 255}
	blue = color.RGBA{0, 0, 255, 255}
)

func vox(x, y, z float32, c color.RGBA) voxel.Voxel {
	p := mgl32.Vec3{x, y, z}
	return voxel.Voxel{Position: p, RestPosition: p, Color: c, Size: 1, BoneID: voxel.NoBone}
}

func quadArea(q Quad) float32 {
	return q.Corners[1].Sub(q.Corners[0]).Len() * q.Corners[3].Sub(q.Corners[0]).Len()
}

func areaByNormal(qs []Quad) map[mgl32.Vec3]float32 {
	out := map[mgl32.Vec3]float32{}
	for _, q := range qs {
		out[q.Normal] += quadArea(q)
	}
	return out
}

func TestBuild_TwoRedVoxels(t *testing.T) {
	vs := []voxel.Voxel{vox(0, 0, 0, red), vox(1, 0, 0, red)}

	per := Build(vs, Options{Regime: PerVoxel})
	assert.Len(t, per.Quads, 12)
	assert.Nil(t, per.Atlas)

	ext := Build(vs, Options{Regime: External, UseAtlas: true})
	assert.Equal(t, 10, ext.ExternalCount)
	assert.Len(t, ext.Quads, 10)

	merged := Build(vs, Options{Regime: Merged, UseAtlas: true})
	require.NotNil(t, merged.Atlas)
	assert.Equal(t, 1, merged.Atlas.Len())
	assert.Equal(t, 10, merged.ExternalCount)
	// Top, bottom, front and back pairs join; the two end caps stay.
	assert.Len(t, merged.Quads, 6)
	assert.LessOrEqual(t, len(merged.Quads), merged.ExternalCount)

	extArea, mergedArea := areaByNormal(ext.Quads), areaByNormal(merged.Quads)
	for n, a := range extArea {
		assert.InDelta(t, a, mergedArea[n], 1e-4, "area along %v", n)
	}
}

func TestBuild_DifferentColoursDoNotMerge(t *testing.T) {
	vs := []voxel.Voxel{vox(0, 0, 0, red), vox(1, 0, 0, blue)}
	r := Build(vs, Options{Regime: Merged, UseAtlas: true})
	assert.Equal(t, 10, r.ExternalCount)
	assert.Len(t, r.Quads, 10)
	assert.Equal(t, 2, r.Atlas.Len())
}

func TestBuild_LayerMergesToBox(t *testing.T) {
	var vs []voxel.Voxel
	for x := 0; x < 3; x++ {
		for z := 0; z < 3; z++ {
			vs = append(vs, vox(float32(x), 0, float32(z), red))
		}
	}
	r := Build(vs, Options{Regime: Merged})
	assert.Equal(t, 30, r.ExternalCount)
	assert.Len(t, r.Quads, 6)
	for _, q := range r.Quads {
		if q.Normal[1] != 0 {
			assert.InDelta(t, 9, quadArea(q), 1e-4)
		} else {
			assert.InDelta(t, 3, quadArea(q), 1e-4)
		}
	}
}

func TestBuild_LShapeStaysRectangular(t *testing.T) {
	vs := []voxel.Voxel{vox(0, 0, 0, red), vox(1, 0, 0, red), vox(0, 0, 1, red)}
	r := Build(vs, Options{Regime: Merged})
	for _, q := range r.Quads {
		e1 := q.Corners[1].Sub(q.Corners[0])
		e2 := q.Corners[3].Sub(q.Corners[0])
		assert.InDelta(t, 0, e1.Dot(e2), 1e-5, "corner is not square")
		assert.True(t, q.Corners[2].ApproxEqual(q.Corners[0].Add(e1).Add(e2)), "quad is not a parallelogram")
	}
	// The top L cannot be one rectangle.
	tops := 0
	for _, q := range r.Quads {
		if q.Normal == (mgl32.Vec3{0, 1, 0}) {
			tops++
		}
	}
	assert.Equal(t, 2, tops)
}

func TestBuild_Winding(t *testing.T) {
	r := Build([]voxel.Voxel{vox(2, 3, 4, red)}, Options{Regime: PerVoxel})
	for _, q := range r.Quads {
		n := q.Corners[1].Sub(q.Corners[0]).Cross(q.Corners[2].Sub(q.Corners[0]))
		if n.Dot(q.Normal) <= 0 {
			t.Errorf("quad with normal %v is wound clockwise", q.Normal)
		}
		centre := q.Corners[0].Add(q.Corners[2]).Mul(0.5)
		assert.InDelta(t, 0.5, centre.Sub(mgl32.Vec3{2, 3, 4}).Dot(q.Normal), 1e-5)
	}
}

func TestMergeRects_EachJoinRemovesOne(t *testing.T) {
	a := faceRect(vox(0, 0, 0, red), voxel.FacePosY, 1)
	b := faceRect(vox(1, 0, 0, red), voxel.FacePosY, 1)
	c := faceRect(vox(5, 0, 0, red), voxel.FacePosY, 1)
	assert.Len(t, mergeRects([]rect{a, b}), 1)
	assert.Len(t, mergeRects([]rect{a, c}), 2)
	assert.Len(t, mergeRects([]rect{a, b, c}), 2)
}

func TestAtlasUVs_InsideCell(t *testing.T) {
	vs := []voxel.Voxel{vox(0, 0, 0, red), vox(2, 0, 0, blue), vox(4, 0, 0, color.RGBA{0, 255, 0, 255})}
	r := Build(vs, Options{Regime: External, UseAtlas: true, CellSize: 64})
	total := float32(r.Atlas.Size())
	for _, q := range r.Quads {
		full, ok := r.Atlas.CellRect(q.Color)
		require.True(t, ok)
		for _, uv := range r.UVs(q) {
			assert.GreaterOrEqual(t, uv[0]-full.UMin, 1/total-1e-6)
			assert.GreaterOrEqual(t, full.UMax-uv[0], 1/total-1e-6)
			assert.GreaterOrEqual(t, uv[1]-full.VMin, 1/total-1e-6)
			assert.GreaterOrEqual(t, full.VMax-uv[1], 1/total-1e-6)
		}
	}
}

func TestToMesh_PerVoxelCounts(t *testing.T) {
	vs := []voxel.Voxel{vox(0, 0, 0, red), vox(1, 0, 0, red)}
	m := ToMesh(Build(vs, Options{Regime: PerVoxel}))
	assert.Len(t, m.Positions, 48)
	assert.Len(t, m.Colors, 48)
	assert.Empty(t, m.UVs)
	assert.Len(t, m.Indices, 72)
	for _, i := range m.Indices {
		assert.Less(t, int(i), len(m.Positions))
	}

	withAtlas := ToMesh(Build(vs, Options{Regime: PerVoxel, UseAtlas: true}))
	assert.Len(t, withAtlas.UVs, 48)
	assert.Empty(t, withAtlas.Colors)
}

func countPrefix(text, prefix string) int {
	n := 0
	for _, l := range strings.Split(text, "\n") {
		if strings.HasPrefix(l, prefix) {
			n++
		}
	}
	return n
}

func TestWriteOBJ_Atlas(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "model.obj")
	r := Build([]voxel.Voxel{vox(0, 0, 0, red), vox(1, 0, 0, red)}, DefaultOptions())
	require.NoError(t, WriteOBJ(path, r))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.True(t, strings.HasPrefix(text, "# "+HeaderComment+"\n"))
	assert.Contains(t, text, "mtllib model.mtl\n")
	assert.Contains(t, text, "usemtl voxel_material\n")
	assert.Equal(t, 4*len(r.Quads), countPrefix(text, "v "))
	assert.Equal(t, 4*len(r.Quads), countPrefix(text, "vt "))
	assert.Equal(t, 4*len(r.Quads), countPrefix(text, "vn "))
	assert.Equal(t, len(r.Quads), countPrefix(text, "f "))

	mtl, err := os.ReadFile(filepath.Join(dir, "model.mtl"))
	require.NoError(t, err)
	assert.Contains(t, string(mtl), "newmtl voxel_material")
	assert.Contains(t, string(mtl), "map_Kd model_atlas.png")

	info, err := os.Stat(filepath.Join(dir, "model_atlas.png"))
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestWriteOBJ_VertexColours(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plain.obj")
	r := Build([]voxel.Voxel{vox(0, 0, 0, red)}, Options{Regime: External})
	require.NoError(t, WriteOBJ(path, r))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "mtllib")
	assert.Contains(t, string(data), "v -0.5 -0.5 -0.5 1 0 0\n")
	_, err = os.Stat(filepath.Join(dir, "plain.mtl"))
	assert.True(t, os.IsNotExist(err))
}

func TestWriteOBJ_EmptySceneWithAtlas(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.obj")
	r := Build(nil, DefaultOptions())
	require.NotNil(t, r.Atlas)
	require.NoError(t, WriteOBJ(path, r))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "mtllib")
	assert.Zero(t, countPrefix(string(data), "f "))
	for _, name := range []string{"empty.mtl", "empty_atlas.png"} {
		_, err = os.Stat(filepath.Join(dir, name))
		assert.True(t, os.IsNotExist(err), name)
	}

	doc, err := RiggedDocument("empty", nil, nil, nil, DefaultOptions())
	require.NoError(t, err)
	assert.Nil(t, doc.AtlasPNG)
}

func TestWriteOBJ_FailedCompanionRemovesObj(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "model.obj")
	// A non-empty directory where the material belongs cannot be replaced.
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "model.mtl", "keep"), 0o755))

	r := Build([]voxel.Voxel{vox(0, 0, 0, red)}, DefaultOptions())
	err := WriteOBJ(path, r)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "writing material")

	for _, name := range []string{"model.obj", "model_atlas.png"} {
		_, statErr := os.Stat(filepath.Join(dir, name))
		assert.True(t, os.IsNotExist(statErr), name)
	}
}

func TestWriteOBJ_FailedObjWritesNoCompanions(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "model.obj")
	require.NoError(t, os.MkdirAll(filepath.Join(path, "keep"), 0o755))

	err := WriteOBJ(path, Build([]voxel.Voxel{vox(0, 0, 0, red)}, DefaultOptions()))
	require.Error(t, err)
	for _, name := range []string{"model.mtl", "model_atlas.png"} {
		_, statErr := os.Stat(filepath.Join(dir, name))
		assert.True(t, os.IsNotExist(statErr), name)
	}
}

func riggedFixture(t *testing.T) ([]voxel.Voxel, *rig.Skeleton, *rig.Store) {
	t.Helper()
	sk := rig.NewSkeleton()
	root, err := sk.CreateBone("root", mgl32.Vec3{}, rig.NoParent)
	require.NoError(t, err)
	arm, err := sk.CreateBone("arm", mgl32.Vec3{0, 1, 0}, root)
	require.NoError(t, err)

	g := voxel.NewGrid()
	g.Add(mgl32.Vec3{0, 0, 0}, red, 1)
	g.Add(mgl32.Vec3{0, 2, 0}, blue, 1)
	i, _ := g.At(mgl32.Vec3{0, 2, 0})
	g.Bind(i, arm)

	store := rig.NewStore()
	a := store.Create("wave", 1)
	require.NoError(t, store.AddKeyframe(a, arm, rig.KeyframeFrom(0, tfmath.Translated(mgl32.Vec3{0, 1, 0}))))
	require.NoError(t, store.AddKeyframe(a, arm, rig.KeyframeFrom(0.5, tfmath.Transform{
		Translation: mgl32.Vec3{0, 1, 0},
		Rotation:    mgl32.QuatRotate(mgl32.DegToRad(90), mgl32.Vec3{0, 0, 1}),
		Scale:       mgl32.Vec3{1, 1, 1},
	})))
	return g.Voxels(), sk, store
}

func TestRiggedDocument(t *testing.T) {
	vs, sk, store := riggedFixture(t)
	doc, err := RiggedDocument("test", vs, sk, store, Options{Regime: PerVoxel})
	require.NoError(t, err)

	assert.Len(t, doc.Mesh.Positions, 48)
	assert.Len(t, doc.Bones, 2)
	require.Len(t, doc.Animations, 1)
	require.Len(t, doc.Animations[0].Channels, 1)
	assert.Equal(t, []float32{0, 15}, doc.Animations[0].Channels[0].Ticks)
	assert.InDelta(t, 30, doc.Animations[0].DurationTicks, 1e-4)

	bound := 0
	for _, j := range doc.Mesh.Joints {
		if j != voxel.NoBone {
			bound++
		}
	}
	assert.Equal(t, 24, bound)
}

func TestExportRigged_GLB(t *testing.T) {
	vs, sk, store := riggedFixture(t)
	path := filepath.Join(t.TempDir(), "rig.glb")
	require.NoError(t, ExportRigged(path, "", vs, sk, store, DefaultOptions()))

	doc, err := gltf.Open(path)
	require.NoError(t, err)
	assert.Len(t, doc.Meshes, 1)
	assert.Len(t, doc.Skins, 1)
	assert.Len(t, doc.Skins[0].Joints, 3)
	assert.Len(t, doc.Nodes, 4)
	require.Len(t, doc.Animations, 1)
	assert.Len(t, doc.Animations[0].Channels, 3)
	assert.Len(t, doc.Textures, 1)
}

func TestExportRigged_UnsupportedFormat(t *testing.T) {
	vs, sk, store := riggedFixture(t)
	path := filepath.Join(t.TempDir(), "rig.fbx")
	err := ExportRigged(path, "", vs, sk, store, DefaultOptions())
	if !errors.Is(err, scene.ErrFormatUnavailable) {
		t.Fatalf("ExportRigged() error = %v, want ErrFormatUnavailable", err)
	}
	assert.Contains(t, err.Error(), "glb, gltf")
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestParseRegime(t *testing.T) {
	for _, r := range []Regime{PerVoxel, External, Merged} {
		got, err := ParseRegime(r.String())
		require.NoError(t, err)
		assert.Equal(t, r, got)
	}
	_, err := ParseRegime("greedy")
	assert.Error(t, err)
}
