package rig

import (
	"errors"
	"image/color"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/tileforge/pkg/formats"
	tfmath "github.com/Faultbox/tileforge/pkg/math"
	"github.com/Faultbox/tileforge/pkg/voxel"
)

func vecNear(t *testing.T, want, got mgl32.Vec3) {
	t.Helper()
	assert.InDeltaSlice(t, want[:], got[:], 1e-4, "want %v got %v", want, got)
}

func chainSkeleton(t *testing.T) (*Skeleton, int, int) {
	t.Helper()
	sk := NewSkeleton()
	root, err := sk.CreateBone("root", mgl32.Vec3{}, NoParent)
	require.NoError(t, err)
	child, err := sk.CreateBone("child", mgl32.Vec3{0, 1, 0}, root)
	require.NoError(t, err)
	return sk, root, child
}

func TestSkeleton_CreateBone(t *testing.T) {
	sk, root, child := chainSkeleton(t)
	assert.Equal(t, []int{root}, sk.Roots())

	r, _ := sk.Bone(root)
	assert.Equal(t, []int{child}, r.ChildIDs)
	c, _ := sk.Bone(child)
	assert.Equal(t, root, c.ParentID)
	assert.Equal(t, c.Pose, c.Rest)
	vecNear(t, mgl32.Vec3{0, 1, 0}, c.World.Translation)

	_, err := sk.CreateBone("orphan", mgl32.Vec3{}, 42)
	assert.ErrorIs(t, err, ErrUnknownBone)
	require.NoError(t, sk.Validate())
}

func TestSkeleton_SetParentRejectsCycles(t *testing.T) {
	sk, root, child := chainSkeleton(t)
	grand, _ := sk.CreateBone("grand", mgl32.Vec3{0, 1, 0}, child)

	tests := []struct {
		child, parent int
	}{
		{root, child},
		{root, grand},
		{child, grand},
		{child, child},
	}
	for _, tt := range tests {
		err := sk.SetParent(tt.child, tt.parent)
		if !errors.Is(err, ErrCycle) {
			t.Errorf("SetParent(%d,%d) = %v, want ErrCycle", tt.child, tt.parent, err)
		}
	}
	require.NoError(t, sk.Validate())

	require.NoError(t, sk.SetParent(grand, root))
	g, _ := sk.Bone(grand)
	assert.Equal(t, root, g.ParentID)
	vecNear(t, mgl32.Vec3{0, 1, 0}, g.World.Translation)
	c, _ := sk.Bone(child)
	assert.Empty(t, c.ChildIDs)
	require.NoError(t, sk.Validate())

	require.NoError(t, sk.SetParent(grand, NoParent))
	assert.ElementsMatch(t, []int{root, grand}, sk.Roots())
}

func TestSkeleton_DeleteBoneReparents(t *testing.T) {
	sk, root, child := chainSkeleton(t)
	grand, _ := sk.CreateBone("grand", mgl32.Vec3{1, 0, 0}, child)

	require.NoError(t, sk.DeleteBone(child))
	assert.False(t, sk.Has(child))
	g, _ := sk.Bone(grand)
	assert.Equal(t, root, g.ParentID)
	r, _ := sk.Bone(root)
	assert.Equal(t, []int{grand}, r.ChildIDs)
	vecNear(t, mgl32.Vec3{1, 0, 0}, g.World.Translation)
	require.NoError(t, sk.Validate())

	assert.ErrorIs(t, sk.DeleteBone(child), ErrUnknownBone)
}

func TestSkeleton_IdsNotReused(t *testing.T) {
	sk, _, child := chainSkeleton(t)
	require.NoError(t, sk.DeleteBone(child))
	id, err := sk.CreateBone("again", mgl32.Vec3{}, NoParent)
	require.NoError(t, err)
	assert.NotEqual(t, child, id)
}

func TestSkeleton_WorldComposesRotation(t *testing.T) {
	sk, root, child := chainSkeleton(t)
	rot := mgl32.QuatRotate(mgl32.DegToRad(90), mgl32.Vec3{0, 0, 1})
	require.NoError(t, sk.SetPose(root, tfmath.Transform{Rotation: rot, Scale: mgl32.Vec3{2, 2, 2}}))

	c, _ := sk.Bone(child)
	vecNear(t, mgl32.Vec3{-2, 0, 0}, c.World.Translation)
	vecNear(t, mgl32.Vec3{2, 2, 2}, c.World.Scale)
	assert.True(t, c.World.Rotation.OrientationEqualThreshold(rot, 1e-4))
}

// Scenario: rotating a child bone 90° about Z swings a voxel bound one unit
// above its pivot to (-1,1,0); a voxel at the pivot stays put.
func TestSkin_ChildRotationScenario(t *testing.T) {
	sk, _, child := chainSkeleton(t)
	require.NoError(t, sk.SetRestFromPose(child))

	g := voxel.NewGrid()
	red := color.RGBA{R: 255, A: 255}
	g.Add(mgl32.Vec3{0, 1, 0}, red, 1)
	g.Add(mgl32.Vec3{0, 2, 0}, red, 1)
	g.Add(mgl32.Vec3{5, 5, 5}, red, 1)
	g.Bind(0, child)
	g.Bind(1, child)

	pose := tfmath.Transform{
		Translation: mgl32.Vec3{0, 1, 0},
		Rotation:    mgl32.QuatRotate(mgl32.DegToRad(90), mgl32.Vec3{0, 0, 1}),
		Scale:       mgl32.Vec3{1, 1, 1},
	}
	require.NoError(t, sk.SetPose(child, pose))
	sk.Skin(g)

	vs := g.Voxels()
	vecNear(t, mgl32.Vec3{0, 1, 0}, vs[0].Position)
	vecNear(t, mgl32.Vec3{-1, 1, 0}, vs[1].Position)
	vecNear(t, mgl32.Vec3{5, 5, 5}, vs[2].Position)
	vecNear(t, mgl32.Vec3{0, 2, 0}, vs[1].RestPosition)

	sk.ResetToRest()
	sk.Skin(g)
	vecNear(t, mgl32.Vec3{0, 2, 0}, g.Voxels()[1].Position)
}

func TestAnimation_KeyframesSortedAndReplaced(t *testing.T) {
	a := NewAnimation("walk", 2)
	for _, tm := range []float32{1, 0, 0.5, 1.0005} {
		a.SetKeyframe(3, Keyframe{Time: tm, Rotation: mgl32.QuatIdent(), Translation: mgl32.Vec3{tm, 0, 0}}, KeyTimeEpsilon)
	}
	tr, ok := a.Track(3)
	require.True(t, ok)
	require.Len(t, tr.Keyframes, 3)
	assert.Equal(t, []float32{0, 0.5, 1}, a.KeyframeTimes())
	assert.Equal(t, float32(1.0005), tr.Keyframes[2].Translation[0])
	require.NoError(t, a.Validate())

	assert.True(t, a.RemoveKeyframe(3, 0.5))
	assert.False(t, a.RemoveKeyframe(3, 0.5))
	a.RemoveKeyframe(3, 0)
	a.RemoveKeyframe(3, 1)
	tr, ok = a.Track(3)
	require.True(t, ok, "empty tracks are kept")
	assert.Empty(t, tr.Keyframes)
}

// Scenario: sampling halfway between two keyframes lerps T and S and
// slerps R.
func TestAnimation_SampleMidpoint(t *testing.T) {
	r0 := mgl32.QuatIdent()
	r1 := mgl32.QuatRotate(mgl32.DegToRad(90), mgl32.Vec3{0, 1, 0})
	k0 := Keyframe{Time: 0, Translation: mgl32.Vec3{0, 0, 0}, Rotation: r0, Scale: mgl32.Vec3{1, 1, 1}}
	k1 := Keyframe{Time: 1, Translation: mgl32.Vec3{2, 4, 6}, Rotation: r1, Scale: mgl32.Vec3{3, 3, 3}}

	s := NewStore()
	i := s.Create("a", 1)
	require.NoError(t, s.AddKeyframe(i, 7, k1))
	require.NoError(t, s.AddKeyframe(i, 7, k0))

	a, _ := s.Get(i)
	got := a.Sample(0.5)[7]
	vecNear(t, mgl32.Vec3{1, 2, 3}, got.Translation)
	vecNear(t, mgl32.Vec3{2, 2, 2}, got.Scale)
	assert.True(t, got.Rotation.OrientationEqualThreshold(mgl32.QuatSlerp(r0, r1, 0.5), 1e-4))

	assert.Equal(t, k0, a.Sample(-1)[7])
	assert.Equal(t, k1, a.Sample(5)[7])
}

func TestStore_DurationAndErrors(t *testing.T) {
	s := NewStore()
	i := s.Create("idle", DefaultDuration)
	a, _ := s.Get(i)
	assert.True(t, a.Looping)
	assert.Equal(t, float32(1), a.Duration)

	require.NoError(t, s.SetDuration(i, 0.01))
	assert.Equal(t, float32(MinDuration), a.Duration)

	assert.ErrorIs(t, s.SetDuration(9, 1), ErrUnknownAnimation)
	assert.ErrorIs(t, s.RemoveKeyframe(i, 1, 0), ErrNoKeyframe)
	require.NoError(t, s.Delete(i))
	assert.Equal(t, 0, s.Len())
}

func TestStore_MoveKeyframeAndDropBone(t *testing.T) {
	s := NewStore()
	i := s.Create("a", 2)
	require.NoError(t, s.AddKeyframe(i, 1, Keyframe{Time: 0, Rotation: mgl32.QuatIdent()}))
	require.NoError(t, s.AddKeyframe(i, 1, Keyframe{Time: 1, Rotation: mgl32.QuatIdent()}))
	require.NoError(t, s.AddKeyframe(i, 2, Keyframe{Time: 0.25, Rotation: mgl32.QuatIdent()}))

	require.NoError(t, s.MoveKeyframe(i, 1, 0, 1.5))
	assert.Equal(t, []float32{0.25, 1, 1.5}, s.KeyframeTimes(i))

	assert.Equal(t, 1, s.DropBone(2))
	a, _ := s.Get(i)
	_, ok := a.Track(2)
	assert.False(t, ok)
}

func TestPlayer_LoopsAndStops(t *testing.T) {
	sk, _, child := chainSkeleton(t)
	s := NewStore()
	i := s.Create("swing", 1)
	rest, _ := sk.Bone(child)
	require.NoError(t, s.AddKeyframe(i, child, KeyframeFrom(0, rest.Pose)))
	moved := rest.Pose
	moved.Translation = mgl32.Vec3{0, 3, 0}
	require.NoError(t, s.AddKeyframe(i, child, KeyframeFrom(1, moved)))

	p := NewPlayer(s, sk, nil)
	require.NoError(t, p.Play(i))
	require.NoError(t, p.Tick(500*time.Millisecond))
	c, _ := sk.Bone(child)
	vecNear(t, mgl32.Vec3{0, 2, 0}, c.World.Translation)

	require.NoError(t, p.Tick(750*time.Millisecond))
	assert.InDelta(t, 0.25, p.Time(), 1e-4)
	assert.True(t, p.Playing())

	require.NoError(t, s.SetLooping(i, false))
	require.NoError(t, p.Tick(time.Second))
	assert.False(t, p.Playing())
	c, _ = sk.Bone(child)
	vecNear(t, mgl32.Vec3{0, 1, 0}, c.World.Translation)
}

func TestPlayer_Speed(t *testing.T) {
	sk := NewSkeleton()
	s := NewStore()
	i := s.Create("a", 10)
	p := NewPlayer(s, sk, voxel.NewGrid())
	p.Speed = 2
	require.NoError(t, p.Play(i))
	require.NoError(t, p.Tick(FrameInterval))
	assert.InDelta(t, 0.032, p.Time(), 1e-5)
	assert.ErrorIs(t, p.Play(4), ErrUnknownAnimation)
}

func TestAnimationJSON_RoundTrip(t *testing.T) {
	s := NewStore()
	i := s.Create("wave", 1.5)
	require.NoError(t, s.SetLooping(i, false))
	require.NoError(t, s.AddKeyframe(i, 0, Keyframe{Time: 0, Translation: mgl32.Vec3{1, 2, 3}, Rotation: mgl32.QuatIdent(), Scale: mgl32.Vec3{1, 1, 1}}))
	require.NoError(t, s.AddKeyframe(i, 0, Keyframe{Time: 0.75, Rotation: mgl32.QuatRotate(1, mgl32.Vec3{1, 0, 0}), Scale: mgl32.Vec3{2, 1, 1}}))
	require.NoError(t, s.AddKeyframe(i, 4, Keyframe{Time: 1.5, Rotation: mgl32.QuatIdent(), Scale: mgl32.Vec3{1, 1, 1}}))

	path := filepath.Join(t.TempDir(), "anims.json")
	require.NoError(t, s.ExportBundle(path))

	back := NewStore()
	n, err := back.ImportBundle(path)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, s.All(), back.All())
}

func TestAnimationFromJSON_Rotation(t *testing.T) {
	a := Animation{Name: "x", Duration: 1}
	a.SetKeyframe(0, Keyframe{Rotation: mgl32.Quat{W: 0.5, V: mgl32.Vec3{0.5, 0.5, 0.5}}, Scale: mgl32.Vec3{1, 1, 1}}, KeyTimeEpsilon)
	j := a.ToJSON()
	assert.Equal(t, []float32{0.5, 0.5, 0.5, 0.5}, j.Tracks[0].Keyframes[0].Rotation)

	j.Tracks[0].Keyframes[0].Rotation = []float32{0, 0, 0}
	back, err := AnimationFromJSON(j)
	require.NoError(t, err)
	assert.Equal(t, mgl32.QuatIdent(), back.Tracks[0].Keyframes[0].Rotation)
}

func TestAnimationFromJSON_DuplicateTracksMerge(t *testing.T) {
	key := func(time, x float32) formats.KeyframeJSON {
		return formats.KeyframeJSON{Time: time, Position: [3]float32{x, 0, 0}, Rotation: []float32{0, 0, 0, 1}, Scale: [3]float32{1, 1, 1}}
	}
	j := formats.AnimationJSON{
		Name:     "walk",
		Duration: 1,
		Tracks: []formats.TrackJSON{
			{BoneID: 3, Keyframes: []formats.KeyframeJSON{key(0, 1), key(0.5, 2)}},
			{BoneID: 4, Keyframes: []formats.KeyframeJSON{key(0, 9)}},
			{BoneID: 3, Keyframes: []formats.KeyframeJSON{key(0.5, 5), key(1, 3)}},
		},
	}
	a, err := AnimationFromJSON(j)
	require.NoError(t, err)
	require.Len(t, a.Tracks, 2)

	tr, ok := a.Track(3)
	require.True(t, ok)
	require.Len(t, tr.Keyframes, 3)
	assert.Equal(t, []float32{0, 0.5, 1}, []float32{tr.Keyframes[0].Time, tr.Keyframes[1].Time, tr.Keyframes[2].Time})
	assert.Equal(t, mgl32.Vec3{5, 0, 0}, tr.Keyframes[1].Translation)
	assert.NoError(t, a.Validate())
}
