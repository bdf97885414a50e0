package rig

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/tileforge/pkg/formats"
)

// ToJSON converts an animation to its document form. Rotations are written
// as x, y, z, w.
func (a Animation) ToJSON() formats.AnimationJSON {
	out := formats.AnimationJSON{
		Name:     a.Name,
		Duration: a.Duration,
		Looping:  a.Looping,
		Tracks:   make([]formats.TrackJSON, 0, len(a.Tracks)),
	}
	for _, tr := range a.Tracks {
		tj := formats.TrackJSON{BoneID: tr.BoneID, Keyframes: make([]formats.KeyframeJSON, 0, len(tr.Keyframes))}
		for _, k := range tr.Keyframes {
			tj.Keyframes = append(tj.Keyframes, formats.KeyframeJSON{
				Time:     k.Time,
				Position: k.Translation,
				Rotation: []float32{k.Rotation.V[0], k.Rotation.V[1], k.Rotation.V[2], k.Rotation.W},
				Scale:    k.Scale,
			})
		}
		out.Tracks = append(out.Tracks, tj)
	}
	return out
}

// AnimationFromJSON converts a document into an animation. Keyframes are
// re-sorted so times strictly increase. Tracks sharing a bone id are merged
// into one, later keyframes winning on equal times.
func AnimationFromJSON(j formats.AnimationJSON) (Animation, error) {
	a := Animation{Name: j.Name, Duration: max(j.Duration, MinDuration), Looping: j.Looping}
	for _, tj := range j.Tracks {
		if _, ok := a.Track(tj.BoneID); !ok {
			a.Tracks = append(a.Tracks, Track{BoneID: tj.BoneID, Keyframes: []Keyframe{}})
		}
		for _, kj := range tj.Keyframes {
			r, err := kj.RotationXYZW()
			if err != nil {
				return Animation{}, err
			}
			scale := mgl32.Vec3(kj.Scale)
			if scale == (mgl32.Vec3{}) {
				scale = mgl32.Vec3{1, 1, 1}
			}
			a.SetKeyframe(tj.BoneID, Keyframe{
				Time:        kj.Time,
				Translation: kj.Position,
				Rotation:    mgl32.Quat{W: r[3], V: mgl32.Vec3{r[0], r[1], r[2]}},
				Scale:       scale,
			}, KeyTimeEpsilon)
		}
	}
	return a, nil
}

// ExportBundle writes every animation to a bundle file.
func (s *Store) ExportBundle(path string) error {
	b := formats.AnimationBundle{Version: formats.Version}
	for _, a := range s.anims {
		b.Animations = append(b.Animations, a.ToJSON())
	}
	return b.Save(path)
}

// ImportBundle appends the animations of a bundle or single-animation file
// and returns how many were added. Nothing is added on error.
func (s *Store) ImportBundle(path string) (int, error) {
	b, err := formats.LoadAnimationBundle(path)
	if err != nil {
		return 0, err
	}
	anims := make([]Animation, 0, len(b.Animations))
	for _, j := range b.Animations {
		a, err := AnimationFromJSON(j)
		if err != nil {
			return 0, err
		}
		anims = append(anims, a)
	}
	for _, a := range anims {
		s.Add(a)
	}
	return len(anims), nil
}
