package editor

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/Faultbox/tileforge/pkg/rig"
	"github.com/Faultbox/tileforge/pkg/voxel"
)

// copySuffix is appended to the names of pasted bones and animations.
const copySuffix = "_copy"

// ClipBone is a copied bone. Offset is its world position relative to the
// clipboard centroid.
type ClipBone struct {
	Bone   rig.Bone
	Offset mgl32.Vec3
}

// Clipboard holds copied voxels with positions relative to Centroid, and
// optionally the bones they are bound to and the animations of those bones.
type Clipboard struct {
	ID         uuid.UUID
	Voxels     []voxel.Voxel
	Bones      []ClipBone
	Animations []rig.Animation
	Centroid   mgl32.Vec3
	Min, Max   mgl32.Vec3
}

// Empty reports whether the clipboard has no voxels.
func (c *Clipboard) Empty() bool { return c == nil || len(c.Voxels) == 0 }

// Clipboard returns the last copy, or nil.
func (s *Session) Clipboard() *Clipboard { return s.clipboard }

func bounds(vs []voxel.Voxel) (minP, maxP mgl32.Vec3) {
	for i, v := range vs {
		if i == 0 {
			minP, maxP = v.Position, v.Position
			continue
		}
		for k := 0; k < 3; k++ {
			minP[k] = min(minP[k], v.Position[k])
			maxP[k] = max(maxP[k], v.Position[k])
		}
	}
	return minP, maxP
}

func centroid(vs []voxel.Voxel) mgl32.Vec3 {
	var c mgl32.Vec3
	for _, v := range vs {
		c = c.Add(v.Position)
	}
	return c.Mul(1 / float32(len(vs)))
}

// CopySelected copies the selected voxels about their centroid.
func (s *Session) CopySelected() *Clipboard {
	vs := s.Grid.SelectedVoxels()
	if len(vs) == 0 {
		return s.clipboard
	}
	return s.copyVoxels(vs, centroid(vs), false)
}

// CopyBox copies the voxels inside the box spanned by a and b about the
// box centre.
func (s *Session) CopyBox(a, b mgl32.Vec3) *Clipboard {
	minP := mgl32.Vec3{min(a[0], b[0]), min(a[1], b[1]), min(a[2], b[2])}
	maxP := mgl32.Vec3{max(a[0], b[0]), max(a[1], b[1]), max(a[2], b[2])}
	const eps = voxel.Epsilon
	vs := lo.Filter(s.Grid.Voxels(), func(v voxel.Voxel, _ int) bool {
		p := v.Position
		return p[0] >= minP[0]-eps && p[0] <= maxP[0]+eps &&
			p[1] >= minP[1]-eps && p[1] <= maxP[1]+eps &&
			p[2] >= minP[2]-eps && p[2] <= maxP[2]+eps
	})
	if len(vs) == 0 {
		return s.clipboard
	}
	return s.copyVoxels(vs, minP.Add(maxP).Mul(0.5), false)
}

// CopyAll copies every voxel, bone and animation about the centre of the
// voxel bounds.
func (s *Session) CopyAll() *Clipboard {
	vs := s.Grid.Voxels()
	if len(vs) == 0 {
		return s.clipboard
	}
	minP, maxP := bounds(vs)
	return s.copyVoxels(vs, minP.Add(maxP).Mul(0.5), true)
}

func (s *Session) copyVoxels(vs []voxel.Voxel, center mgl32.Vec3, allBones bool) *Clipboard {
	cb := &Clipboard{ID: uuid.New(), Centroid: center}
	cb.Min, cb.Max = bounds(vs)

	used := make(map[int]bool)
	for _, v := range vs {
		if v.BoneID != voxel.NoBone {
			used[v.BoneID] = true
		}
		v.Position = v.Position.Sub(center)
		v.RestPosition = v.Position
		v.Selected = false
		cb.Voxels = append(cb.Voxels, v)
	}

	for _, b := range s.Skeleton.Bones() {
		if !allBones && !used[b.ID] {
			continue
		}
		cb.Bones = append(cb.Bones, ClipBone{Bone: b, Offset: b.World.Translation.Sub(center)})
		used[b.ID] = true
	}

	if len(cb.Bones) > 0 {
		for _, a := range s.Animations.All() {
			a.Tracks = lo.Filter(a.Tracks, func(t rig.Track, _ int) bool { return used[t.BoneID] })
			if len(a.Tracks) > 0 {
				cb.Animations = append(cb.Animations, a)
			}
		}
	}

	s.clipboard = cb
	s.log.Debug("copied",
		zap.Int("voxels", len(cb.Voxels)),
		zap.Int("bones", len(cb.Bones)),
		zap.Int("animations", len(cb.Animations)))
	return cb
}

// Paste places the clipboard at anchor as one undo step. With bones the
// copied bones are recreated under new ids and the voxels bound to them;
// with animations, the copied animations are added with their tracks
// remapped to the new bones. Tracks of bones that were not pasted are
// dropped and animations left without tracks are skipped.
func (s *Session) Paste(anchor mgl32.Vec3, withBones, withAnims bool) error {
	cb := s.clipboard
	if cb.Empty() {
		return nil
	}
	return s.edit("Paste", func() error {
		var mapping map[int]int
		if withBones && len(cb.Bones) > 0 {
			var err error
			if mapping, err = s.pasteBones(cb, anchor); err != nil {
				return err
			}
		}

		for _, v := range cb.Voxels {
			p := s.gridSnap(anchor.Add(v.Position))
			if !s.Grid.Add(p, v.Color, v.Size) {
				continue
			}
			if nb, ok := mapping[v.BoneID]; ok {
				i, _ := s.Grid.At(p)
				s.Grid.Bind(i, nb)
			}
			for _, m := range s.Symmetry.Mirrors(p) {
				s.Grid.Add(m, v.Color, v.Size)
			}
		}

		if withAnims && len(mapping) > 0 {
			s.pasteAnimations(cb, mapping)
		}
		return nil
	})
}

// pasteBones recreates the clipboard bones, parents first. Bones whose
// parent was not copied become roots at anchor + offset with their world
// rotation and scale; the others keep their local pose.
func (s *Session) pasteBones(cb *Clipboard, anchor mgl32.Vec3) (map[int]int, error) {
	copied := make(map[int]bool, len(cb.Bones))
	for _, b := range cb.Bones {
		copied[b.Bone.ID] = true
	}

	mapping := make(map[int]int, len(cb.Bones))
	pending := cb.Bones
	for len(pending) > 0 {
		var next []ClipBone
		for _, cbb := range pending {
			b := cbb.Bone
			parent := rig.NoParent
			pose := b.World
			pose.Translation = anchor.Add(cbb.Offset)
			if copied[b.ParentID] {
				np, ok := mapping[b.ParentID]
				if !ok {
					next = append(next, cbb)
					continue
				}
				parent, pose = np, b.Pose
			}

			id, err := s.Skeleton.CreateBone(b.Name+copySuffix, pose.Translation, parent)
			if err != nil {
				return nil, err
			}
			if err := s.Skeleton.SetPose(id, pose); err != nil {
				return nil, err
			}
			if err := s.Skeleton.SetRestFromPose(id); err != nil {
				return nil, err
			}
			mapping[b.ID] = id
		}
		if len(next) == len(pending) {
			break
		}
		pending = next
	}

	byNew := make(map[int]rig.Bone, len(mapping))
	for _, cbb := range cb.Bones {
		if id, ok := mapping[cbb.Bone.ID]; ok {
			byNew[id] = cbb.Bone
		}
	}
	bones := s.Skeleton.Bones()
	for i := range bones {
		if src, ok := byNew[bones[i].ID]; ok {
			bones[i].DebugColor = src.DebugColor
			bones[i].Visible = src.Visible
		}
	}
	if err := s.Skeleton.SetBones(bones); err != nil {
		return nil, err
	}
	return mapping, nil
}

func (s *Session) pasteAnimations(cb *Clipboard, mapping map[int]int) {
	for _, a := range cb.Animations {
		a = a.Clone()
		a.Name += copySuffix
		var tracks []rig.Track
		for _, t := range a.Tracks {
			if nb, ok := mapping[t.BoneID]; ok {
				t.BoneID = nb
				tracks = append(tracks, t)
			}
		}
		if len(tracks) == 0 {
			continue
		}
		a.Tracks = tracks
		s.Animations.Add(a)
	}
}
