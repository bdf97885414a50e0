package rig

import (
	"errors"
	"fmt"
	"slices"
	"sort"

	"github.com/go-gl/mathgl/mgl32"

	tfmath "github.com/Faultbox/tileforge/pkg/math"
)

const (
	// KeyTimeEpsilon is the distance under which two keyframe times match.
	KeyTimeEpsilon = 1e-3
	// MinDuration is the shortest allowed animation.
	MinDuration = 0.1
	// DefaultDuration is the length of a new animation.
	DefaultDuration = 1.0
)

// Animation errors.
var (
	ErrUnknownAnimation = errors.New("unknown animation")
	ErrNoKeyframe       = errors.New("no keyframe at time")
)

// Keyframe is a bone pose at a point in time.
type Keyframe struct {
	Time        float32
	Translation mgl32.Vec3
	Rotation    mgl32.Quat
	Scale       mgl32.Vec3
}

// KeyframeFrom builds a keyframe from a local transform.
func KeyframeFrom(t float32, tr tfmath.Transform) Keyframe {
	return Keyframe{Time: t, Translation: tr.Translation, Rotation: tr.Rotation.Normalize(), Scale: tr.Scale}
}

// Transform returns the keyframe pose.
func (k Keyframe) Transform() tfmath.Transform {
	return tfmath.Transform{Translation: k.Translation, Rotation: k.Rotation, Scale: k.Scale}
}

// Track holds one bone's keyframes sorted by strictly increasing time.
type Track struct {
	BoneID    int
	Keyframes []Keyframe
}

// Animation is a named set of bone tracks.
type Animation struct {
	Name     string
	Duration float32
	Looping  bool
	Tracks   []Track
}

// NewAnimation returns a looping animation with no tracks.
func NewAnimation(name string, duration float32) Animation {
	return Animation{Name: name, Duration: max(duration, MinDuration), Looping: true}
}

// Clone returns a deep copy.
func (a Animation) Clone() Animation {
	a.Tracks = slices.Clone(a.Tracks)
	for i := range a.Tracks {
		a.Tracks[i].Keyframes = slices.Clone(a.Tracks[i].Keyframes)
	}
	return a
}

// Track returns the track for bone.
func (a *Animation) Track(bone int) (*Track, bool) {
	for i := range a.Tracks {
		if a.Tracks[i].BoneID == bone {
			return &a.Tracks[i], true
		}
	}
	return nil, false
}

// SetKeyframe inserts k into bone's track in time order. A keyframe within
// eps of k.Time is overwritten in place and keeps its time.
func (a *Animation) SetKeyframe(bone int, k Keyframe, eps float32) {
	tr, ok := a.Track(bone)
	if !ok {
		a.Tracks = append(a.Tracks, Track{BoneID: bone})
		tr = &a.Tracks[len(a.Tracks)-1]
	}
	k.Rotation = k.Rotation.Normalize()
	for i := range tr.Keyframes {
		if tfmath.FloatEqual(tr.Keyframes[i].Time, k.Time, eps) {
			k.Time = tr.Keyframes[i].Time
			tr.Keyframes[i] = k
			return
		}
	}
	i := sort.Search(len(tr.Keyframes), func(i int) bool { return tr.Keyframes[i].Time > k.Time })
	tr.Keyframes = slices.Insert(tr.Keyframes, i, k)
}

// RemoveKeyframe deletes bone's keyframe at t. The track stays even when it
// becomes empty.
func (a *Animation) RemoveKeyframe(bone int, t float32) bool {
	tr, ok := a.Track(bone)
	if !ok {
		return false
	}
	for i := range tr.Keyframes {
		if tfmath.FloatEqual(tr.Keyframes[i].Time, t, KeyTimeEpsilon) {
			tr.Keyframes = slices.Delete(tr.Keyframes, i, i+1)
			return true
		}
	}
	return false
}

// KeyframeTimes returns every distinct keyframe time across all tracks.
func (a *Animation) KeyframeTimes() []float32 {
	var times []float32
	for _, tr := range a.Tracks {
		for _, k := range tr.Keyframes {
			if !slices.ContainsFunc(times, func(t float32) bool { return tfmath.FloatEqual(t, k.Time, KeyTimeEpsilon) }) {
				times = append(times, k.Time)
			}
		}
	}
	slices.Sort(times)
	return times
}

// DropBone removes bone's track.
func (a *Animation) DropBone(bone int) bool {
	n := len(a.Tracks)
	a.Tracks = slices.DeleteFunc(a.Tracks, func(tr Track) bool { return tr.BoneID == bone })
	return len(a.Tracks) != n
}

// Sample returns the interpolated pose of every track with keyframes.
func (a *Animation) Sample(t float32) map[int]Keyframe {
	out := make(map[int]Keyframe, len(a.Tracks))
	for _, tr := range a.Tracks {
		if k, ok := tr.Sample(t); ok {
			out[tr.BoneID] = k
		}
	}
	return out
}

// Sample interpolates the track at t. Times before the first or after the
// last keyframe clamp to that keyframe.
func (tr *Track) Sample(t float32) (Keyframe, bool) {
	ks := tr.Keyframes
	if len(ks) == 0 {
		return Keyframe{}, false
	}
	if t <= ks[0].Time {
		return ks[0], true
	}
	last := ks[len(ks)-1]
	if t >= last.Time {
		return last, true
	}
	i := sort.Search(len(ks), func(i int) bool { return ks[i].Time > t })
	a, b := ks[i-1], ks[i]
	f := (t - a.Time) / (b.Time - a.Time)
	return Keyframe{
		Time:        t,
		Translation: tfmath.LerpVec3(a.Translation, b.Translation, f),
		Rotation:    tfmath.Slerp(a.Rotation, b.Rotation, f),
		Scale:       tfmath.LerpVec3(a.Scale, b.Scale, f),
	}, true
}

// Validate checks that keyframe times strictly increase in every track.
func (a *Animation) Validate() error {
	for _, tr := range a.Tracks {
		for i := 1; i < len(tr.Keyframes); i++ {
			if tr.Keyframes[i].Time <= tr.Keyframes[i-1].Time {
				return fmt.Errorf("animation %q bone %d: keyframe %d at %v not after %v",
					a.Name, tr.BoneID, i, tr.Keyframes[i].Time, tr.Keyframes[i-1].Time)
			}
		}
	}
	return nil
}
