package rig

import (
	"fmt"
	"slices"

	tfmath "github.com/Faultbox/tileforge/pkg/math"
)

// Store is the list of animations of a scene.
type Store struct {
	anims []Animation
}

// NewStore returns an empty store.
func NewStore() *Store { return &Store{} }

// Len returns the number of animations.
func (s *Store) Len() int { return len(s.anims) }

// All returns deep copies of every animation.
func (s *Store) All() []Animation {
	out := make([]Animation, len(s.anims))
	for i, a := range s.anims {
		out[i] = a.Clone()
	}
	return out
}

// SetAll replaces the contents with copies of as.
func (s *Store) SetAll(as []Animation) {
	s.anims = make([]Animation, len(as))
	for i, a := range as {
		s.anims[i] = a.Clone()
	}
}

// Get returns the animation at index i. The pointer is invalidated by
// Create and Delete.
func (s *Store) Get(i int) (*Animation, bool) {
	if i < 0 || i >= len(s.anims) {
		return nil, false
	}
	return &s.anims[i], true
}

// Find returns the index of the first animation with the given name.
func (s *Store) Find(name string) (int, bool) {
	i := slices.IndexFunc(s.anims, func(a Animation) bool { return a.Name == name })
	return i, i >= 0
}

func (s *Store) get(i int) (*Animation, error) {
	a, ok := s.Get(i)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownAnimation, i)
	}
	return a, nil
}

// Create appends a looping animation and returns its index.
func (s *Store) Create(name string, duration float32) int {
	s.anims = append(s.anims, NewAnimation(name, duration))
	return len(s.anims) - 1
}

// Add appends a copy of a and returns its index.
func (s *Store) Add(a Animation) int {
	a = a.Clone()
	a.Duration = max(a.Duration, MinDuration)
	s.anims = append(s.anims, a)
	return len(s.anims) - 1
}

// Delete removes the animation at i.
func (s *Store) Delete(i int) error {
	if _, err := s.get(i); err != nil {
		return err
	}
	s.anims = slices.Delete(s.anims, i, i+1)
	return nil
}

// Rename changes an animation's name.
func (s *Store) Rename(i int, name string) error {
	a, err := s.get(i)
	if err != nil {
		return err
	}
	a.Name = name
	return nil
}

// SetDuration sets the length, clamped to MinDuration.
func (s *Store) SetDuration(i int, d float32) error {
	a, err := s.get(i)
	if err != nil {
		return err
	}
	a.Duration = max(d, MinDuration)
	return nil
}

// SetLooping sets the looping flag.
func (s *Store) SetLooping(i int, loop bool) error {
	a, err := s.get(i)
	if err != nil {
		return err
	}
	a.Looping = loop
	return nil
}

// AddKeyframe inserts k into bone's track, replacing a keyframe within
// KeyTimeEpsilon.
func (s *Store) AddKeyframe(anim, bone int, k Keyframe) error {
	return s.AddKeyframeWithin(anim, bone, k, KeyTimeEpsilon)
}

// AddKeyframeWithin is AddKeyframe with a caller-chosen match distance.
func (s *Store) AddKeyframeWithin(anim, bone int, k Keyframe, eps float32) error {
	a, err := s.get(anim)
	if err != nil {
		return err
	}
	a.SetKeyframe(bone, k, eps)
	return nil
}

// RemoveKeyframe deletes bone's keyframe at t.
func (s *Store) RemoveKeyframe(anim, bone int, t float32) error {
	a, err := s.get(anim)
	if err != nil {
		return err
	}
	if !a.RemoveKeyframe(bone, t) {
		return fmt.Errorf("%w: bone %d at %v", ErrNoKeyframe, bone, t)
	}
	return nil
}

// MoveKeyframe changes the time of bone's keyframe at from.
func (s *Store) MoveKeyframe(anim, bone int, from, to float32) error {
	a, err := s.get(anim)
	if err != nil {
		return err
	}
	tr, ok := a.Track(bone)
	if !ok {
		return fmt.Errorf("%w: bone %d at %v", ErrNoKeyframe, bone, from)
	}
	i := slices.IndexFunc(tr.Keyframes, func(k Keyframe) bool { return tfmath.FloatEqual(k.Time, from, KeyTimeEpsilon) })
	if i < 0 {
		return fmt.Errorf("%w: bone %d at %v", ErrNoKeyframe, bone, from)
	}
	k := tr.Keyframes[i]
	tr.Keyframes = slices.Delete(tr.Keyframes, i, i+1)
	k.Time = to
	a.SetKeyframe(bone, k, KeyTimeEpsilon)
	return nil
}

// KeyframeTimes returns the distinct keyframe times of an animation.
func (s *Store) KeyframeTimes(anim int) []float32 {
	a, ok := s.Get(anim)
	if !ok {
		return nil
	}
	return a.KeyframeTimes()
}

// DropBone removes bone's tracks from every animation.
func (s *Store) DropBone(bone int) int {
	n := 0
	for i := range s.anims {
		if s.anims[i].DropBone(bone) {
			n++
		}
	}
	return n
}

// Sample poses sk at time t of animation anim and refreshes world
// transforms. Bones without a track keep their pose.
func (s *Store) Sample(anim int, t float32, sk *Skeleton) error {
	a, err := s.get(anim)
	if err != nil {
		return err
	}
	for bone, k := range a.Sample(t) {
		if b, ok := sk.bones[bone]; ok {
			b.Pose = k.Transform()
		}
	}
	sk.UpdateAll()
	return nil
}
