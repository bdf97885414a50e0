// Package rig implements bone hierarchies, keyframe animation and voxel
// skinning.
package rig

import (
	"errors"
	"fmt"
	"image/color"
	"slices"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/samber/lo"

	tfmath "github.com/Faultbox/tileforge/pkg/math"
)

// NoParent marks a root bone.
const NoParent = -1

// Skeleton errors.
var (
	ErrUnknownBone   = errors.New("unknown bone")
	ErrDuplicateBone = errors.New("duplicate bone id")
	ErrCycle         = errors.New("bone parent cycle")
	ErrBrokenLink    = errors.New("inconsistent parent/child link")
)

// Bone is one joint. Pose and Rest are local to the parent; World is the
// cached composition of the pose chain.
type Bone struct {
	ID         int
	Name       string
	ParentID   int
	ChildIDs   []int
	Pose       tfmath.Transform
	Rest       tfmath.Transform
	World      tfmath.Transform
	DebugColor color.RGBA
	Visible    bool
}

func (b Bone) clone() Bone {
	b.ChildIDs = slices.Clone(b.ChildIDs)
	return b
}

// Skeleton stores bones by stable id.
type Skeleton struct {
	bones  map[int]*Bone
	order  []int
	nextID int
}

// NewSkeleton returns an empty skeleton.
func NewSkeleton() *Skeleton {
	return &Skeleton{bones: make(map[int]*Bone)}
}

// Len returns the number of bones.
func (s *Skeleton) Len() int { return len(s.order) }

// Has reports whether id exists.
func (s *Skeleton) Has(id int) bool {
	_, ok := s.bones[id]
	return ok
}

// Bone returns a copy of a bone.
func (s *Skeleton) Bone(id int) (Bone, bool) {
	b, ok := s.bones[id]
	if !ok {
		return Bone{}, false
	}
	return b.clone(), true
}

// BoneByName returns the first bone with the given name.
func (s *Skeleton) BoneByName(name string) (Bone, bool) {
	for _, id := range s.order {
		if s.bones[id].Name == name {
			return s.bones[id].clone(), true
		}
	}
	return Bone{}, false
}

// Bones returns copies of all bones in creation order.
func (s *Skeleton) Bones() []Bone {
	out := make([]Bone, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.bones[id].clone())
	}
	return out
}

// SetBones replaces the skeleton. Ids are kept; the id counter never goes
// backwards so ids are not reused after an undo.
func (s *Skeleton) SetBones(bs []Bone) error {
	next := make(map[int]*Bone, len(bs))
	order := make([]int, 0, len(bs))
	for _, b := range bs {
		if _, dup := next[b.ID]; dup {
			return fmt.Errorf("%w: %d", ErrDuplicateBone, b.ID)
		}
		c := b.clone()
		next[b.ID] = &c
		order = append(order, b.ID)
	}
	s.bones, s.order = next, order
	for _, id := range order {
		s.nextID = max(s.nextID, id+1)
	}
	s.UpdateAll()
	return nil
}

// Roots returns the ids of bones without a parent.
func (s *Skeleton) Roots() []int {
	return lo.Filter(s.order, func(id int, _ int) bool { return s.bones[id].ParentID == NoParent })
}

// CreateBone adds a bone translated by pos relative to parent. Pass
// NoParent for a root. The rest pose equals the initial pose.
func (s *Skeleton) CreateBone(name string, pos mgl32.Vec3, parent int) (int, error) {
	if parent != NoParent && !s.Has(parent) {
		return -1, fmt.Errorf("%w: parent %d", ErrUnknownBone, parent)
	}
	id := s.nextID
	s.nextID++

	local := tfmath.Translated(pos)
	s.bones[id] = &Bone{
		ID:         id,
		Name:       name,
		ParentID:   parent,
		Pose:       local,
		Rest:       local,
		DebugColor: color.RGBA{R: 255, G: 255, A: 255},
		Visible:    true,
	}
	s.order = append(s.order, id)
	if parent != NoParent {
		s.bones[parent].ChildIDs = append(s.bones[parent].ChildIDs, id)
	}
	s.UpdateWorld(id)
	return id, nil
}

// IsAncestor reports whether a is a strict ancestor of b.
func (s *Skeleton) IsAncestor(a, b int) bool {
	bone, ok := s.bones[b]
	for steps := 0; ok && steps <= len(s.order); steps++ {
		if bone.ParentID == NoParent {
			return false
		}
		if bone.ParentID == a {
			return true
		}
		bone, ok = s.bones[bone.ParentID]
	}
	return false
}

// SetParent moves child under parent, or makes it a root with NoParent.
// The local pose is kept.
func (s *Skeleton) SetParent(child, parent int) error {
	c, ok := s.bones[child]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownBone, child)
	}
	if parent != NoParent {
		if !s.Has(parent) {
			return fmt.Errorf("%w: parent %d", ErrUnknownBone, parent)
		}
		if parent == child || s.IsAncestor(child, parent) {
			return fmt.Errorf("%w: %d under %d", ErrCycle, child, parent)
		}
	}
	if c.ParentID == parent {
		return nil
	}

	if c.ParentID != NoParent {
		old := s.bones[c.ParentID]
		old.ChildIDs = lo.Without(old.ChildIDs, child)
	}
	c.ParentID = parent
	if parent != NoParent {
		s.bones[parent].ChildIDs = append(s.bones[parent].ChildIDs, child)
	}
	s.UpdateWorld(child)
	return nil
}

// DeleteBone removes a bone. Its children move to its parent. Callers own
// the cleanup of voxel bindings and animation tracks.
func (s *Skeleton) DeleteBone(id int) error {
	b, ok := s.bones[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownBone, id)
	}
	for _, cid := range b.ChildIDs {
		s.bones[cid].ParentID = b.ParentID
		if b.ParentID != NoParent {
			s.bones[b.ParentID].ChildIDs = append(s.bones[b.ParentID].ChildIDs, cid)
		}
	}
	if b.ParentID != NoParent {
		p := s.bones[b.ParentID]
		p.ChildIDs = lo.Without(p.ChildIDs, id)
	}
	children := b.ChildIDs
	delete(s.bones, id)
	s.order = lo.Without(s.order, id)
	for _, cid := range children {
		s.UpdateWorld(cid)
	}
	return nil
}

// Rename changes a bone's name.
func (s *Skeleton) Rename(id int, name string) error {
	b, ok := s.bones[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownBone, id)
	}
	b.Name = name
	return nil
}

// SetPose sets a bone's local pose and refreshes its subtree.
func (s *Skeleton) SetPose(id int, pose tfmath.Transform) error {
	b, ok := s.bones[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownBone, id)
	}
	pose.Rotation = pose.Rotation.Normalize()
	b.Pose = pose
	s.UpdateWorld(id)
	return nil
}

// SetRestFromPose stores the current pose of a bone as its rest pose.
func (s *Skeleton) SetRestFromPose(id int) error {
	b, ok := s.bones[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownBone, id)
	}
	b.Rest = b.Pose
	return nil
}

// ResetToRest restores every bone's pose to its rest pose.
func (s *Skeleton) ResetToRest() {
	for _, b := range s.bones {
		b.Pose = b.Rest
	}
	s.UpdateAll()
}

// UpdateWorld recomputes World for id and its descendants.
func (s *Skeleton) UpdateWorld(id int) {
	b, ok := s.bones[id]
	if !ok {
		return
	}
	parent := mgl32.Ident4()
	if p, ok := s.bones[b.ParentID]; ok {
		parent = p.World.Mat4()
	}
	s.updateFrom(id, parent, len(s.order))
}

func (s *Skeleton) updateFrom(id int, parent mgl32.Mat4, budget int) {
	if budget < 0 {
		return
	}
	b := s.bones[id]
	world := parent.Mul4(b.Pose.Mat4())
	b.World = tfmath.Decompose(world)
	for _, cid := range b.ChildIDs {
		s.updateFrom(cid, world, budget-1)
	}
}

// UpdateAll recomputes World for every bone, walking from the roots.
func (s *Skeleton) UpdateAll() {
	for _, id := range s.Roots() {
		s.updateFrom(id, mgl32.Ident4(), len(s.order))
	}
}

// PoseWorld returns the world matrix of the posed chain ending at id.
func (s *Skeleton) PoseWorld(id int) mgl32.Mat4 {
	return s.chain(id, func(b *Bone) tfmath.Transform { return b.Pose })
}

// RestWorld returns the world matrix of the rest chain ending at id.
func (s *Skeleton) RestWorld(id int) mgl32.Mat4 {
	return s.chain(id, func(b *Bone) tfmath.Transform { return b.Rest })
}

func (s *Skeleton) chain(id int, local func(*Bone) tfmath.Transform) mgl32.Mat4 {
	m := mgl32.Ident4()
	b, ok := s.bones[id]
	for steps := 0; ok && steps <= len(s.order); steps++ {
		m = local(b).Mat4().Mul4(m)
		b, ok = s.bones[b.ParentID]
	}
	return m
}

// Validate checks that parent and child lists agree and the graph is
// acyclic.
func (s *Skeleton) Validate() error {
	for _, id := range s.order {
		b := s.bones[id]
		if b.ParentID != NoParent {
			p, ok := s.bones[b.ParentID]
			if !ok {
				return fmt.Errorf("%w: bone %d has missing parent %d", ErrBrokenLink, id, b.ParentID)
			}
			if !slices.Contains(p.ChildIDs, id) {
				return fmt.Errorf("%w: bone %d not listed by parent %d", ErrBrokenLink, id, b.ParentID)
			}
			if s.IsAncestor(id, id) {
				return fmt.Errorf("%w: at bone %d", ErrCycle, id)
			}
		}
		for _, cid := range b.ChildIDs {
			c, ok := s.bones[cid]
			if !ok || c.ParentID != id {
				return fmt.Errorf("%w: bone %d lists child %d", ErrBrokenLink, id, cid)
			}
		}
		if len(lo.Uniq(b.ChildIDs)) != len(b.ChildIDs) {
			return fmt.Errorf("%w: bone %d lists a child twice", ErrBrokenLink, id)
		}
	}
	return nil
}
