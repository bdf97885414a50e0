package editor

import (
	"slices"

	"github.com/go-gl/mathgl/mgl32"

	tfmath "github.com/Faultbox/tileforge/pkg/math"
	"github.com/Faultbox/tileforge/pkg/rig"
	"github.com/Faultbox/tileforge/pkg/voxel"
)

// quatEqual treats q and -q as the same rotation. Components must match
// exactly, so every edit that changes the scene becomes an undo step.
func quatEqual(a, b mgl32.Quat) bool {
	return a == b || a == b.Scale(-1)
}

func transformEqual(a, b tfmath.Transform) bool {
	return a.Translation == b.Translation && quatEqual(a.Rotation, b.Rotation) && a.Scale == b.Scale
}

// voxelEqual ignores selection, which is not part of the undoable state.
func voxelEqual(a, b voxel.Voxel) bool {
	return a.Position == b.Position &&
		a.RestPosition == b.RestPosition &&
		a.Color == b.Color &&
		a.Size == b.Size &&
		a.BoneID == b.BoneID
}

func boneEqual(a, b rig.Bone) bool {
	return a.ID == b.ID &&
		a.Name == b.Name &&
		a.ParentID == b.ParentID &&
		slices.Equal(a.ChildIDs, b.ChildIDs) &&
		transformEqual(a.Pose, b.Pose) &&
		transformEqual(a.Rest, b.Rest) &&
		a.DebugColor == b.DebugColor &&
		a.Visible == b.Visible
}

func keyframeEqual(a, b rig.Keyframe) bool {
	return a.Time == b.Time &&
		a.Translation == b.Translation &&
		quatEqual(a.Rotation, b.Rotation) &&
		a.Scale == b.Scale
}

func trackEqual(a, b rig.Track) bool {
	return a.BoneID == b.BoneID && slices.EqualFunc(a.Keyframes, b.Keyframes, keyframeEqual)
}

func animationEqual(a, b rig.Animation) bool {
	return a.Name == b.Name &&
		a.Duration == b.Duration &&
		a.Looping == b.Looping &&
		slices.EqualFunc(a.Tracks, b.Tracks, trackEqual)
}

// snapshotsEqual compares voxels, bones and animations structurally. Nil
// and empty slices are equal.
func snapshotsEqual(a, b Snapshot) bool {
	return slices.EqualFunc(a.Voxels, b.Voxels, voxelEqual) &&
		slices.EqualFunc(a.Bones, b.Bones, boneEqual) &&
		slices.EqualFunc(a.Animations, b.Animations, animationEqual)
}
