package editor

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	tfmath "github.com/Faultbox/tileforge/pkg/math"
	"github.com/Faultbox/tileforge/pkg/rig"
)

// KeyframeMatchEpsilon is how close SetKeyframe must land to an existing
// keyframe to replace it.
const KeyframeMatchEpsilon = 0.01

// CreateBone adds a bone at pos relative to parent.
func (s *Session) CreateBone(name string, pos mgl32.Vec3, parent int) (int, error) {
	id := -1
	err := s.edit("Create bone", func() error {
		var err error
		id, err = s.Skeleton.CreateBone(name, pos, parent)
		return err
	})
	return id, err
}

// DeleteBone removes a bone, unbinds its voxels and drops its tracks.
func (s *Session) DeleteBone(id int) error {
	return s.edit("Delete bone", func() error {
		if err := s.Skeleton.DeleteBone(id); err != nil {
			return err
		}
		s.Grid.UnbindBone(id)
		s.Animations.DropBone(id)
		s.Skeleton.Skin(s.Grid)
		return nil
	})
}

// RenameBone changes a bone's name.
func (s *Session) RenameBone(id int, name string) error {
	return s.edit("Rename bone", func() error {
		return s.Skeleton.Rename(id, name)
	})
}

// SetBoneParent reparents a bone. Cycles are refused and leave the scene
// unchanged.
func (s *Session) SetBoneParent(child, parent int) error {
	return s.edit("Set bone parent", func() error {
		if err := s.Skeleton.SetParent(child, parent); err != nil {
			return err
		}
		s.Skeleton.Skin(s.Grid)
		return nil
	})
}

// SetBonePose sets a bone's local pose and re-skins the voxels.
func (s *Session) SetBonePose(id int, pose tfmath.Transform) error {
	return s.edit("Pose bone", func() error {
		if err := s.Skeleton.SetPose(id, pose); err != nil {
			return err
		}
		s.Skeleton.Skin(s.Grid)
		return nil
	})
}

// SetBoneRest stores a bone's current pose as its rest pose.
func (s *Session) SetBoneRest(id int) error {
	return s.edit("Set bone rest", func() error {
		if err := s.Skeleton.SetRestFromPose(id); err != nil {
			return err
		}
		s.Skeleton.Skin(s.Grid)
		return nil
	})
}

// BindSelected binds the selected voxels to bone and returns the count.
func (s *Session) BindSelected(bone int) (int, error) {
	if !s.Skeleton.Has(bone) {
		return 0, fmt.Errorf("%w: %d", rig.ErrUnknownBone, bone)
	}
	var n int
	err := s.edit("Bind voxels", func() error {
		n = s.Grid.BindSelected(bone)
		return nil
	})
	return n, err
}

// UnbindSelected detaches the selected voxels from their bones.
func (s *Session) UnbindSelected() (int, error) {
	var n int
	err := s.edit("Unbind voxels", func() error {
		n = s.Grid.UnbindSelected()
		s.Skeleton.Skin(s.Grid)
		return nil
	})
	return n, err
}

// CreateAnimation adds an empty animation and returns its index.
func (s *Session) CreateAnimation(name string, duration float32) (int, error) {
	i := -1
	err := s.edit("Create animation", func() error {
		i = s.Animations.Create(name, duration)
		return nil
	})
	return i, err
}

// DeleteAnimation removes the animation at index i.
func (s *Session) DeleteAnimation(i int) error {
	return s.edit("Delete animation", func() error {
		return s.Animations.Delete(i)
	})
}

// SetKeyframe records bone's current pose at time t in animation anim,
// replacing a keyframe within KeyframeMatchEpsilon.
func (s *Session) SetKeyframe(anim, bone int, t float32) error {
	b, ok := s.Skeleton.Bone(bone)
	if !ok {
		return fmt.Errorf("%w: %d", rig.ErrUnknownBone, bone)
	}
	return s.edit("Set keyframe", func() error {
		return s.Animations.AddKeyframeWithin(anim, bone, rig.KeyframeFrom(t, b.Pose), KeyframeMatchEpsilon)
	})
}

// RemoveKeyframe deletes bone's keyframe at t.
func (s *Session) RemoveKeyframe(anim, bone int, t float32) error {
	return s.edit("Remove keyframe", func() error {
		return s.Animations.RemoveKeyframe(anim, bone, t)
	})
}

// Player returns a playback driver over the session's scene.
func (s *Session) Player() *rig.Player {
	return rig.NewPlayer(s.Animations, s.Skeleton, s.Grid)
}
