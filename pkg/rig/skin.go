package rig

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/tileforge/pkg/voxel"
)

// Skin moves every voxel to its skinned position:
// PoseWorld(b) · RestWorld(b)⁻¹ · rest for voxels bound to bone b, and the
// rest position for the others.
func (s *Skeleton) Skin(g *voxel.Grid) {
	deltas := make(map[int]mgl32.Mat4, len(s.order))
	for _, id := range s.order {
		deltas[id] = s.PoseWorld(id).Mul4(s.RestWorld(id).Inv())
	}
	g.ForEach(func(_ int, v *voxel.Voxel) {
		m, ok := deltas[v.BoneID]
		if !ok {
			v.Position = v.RestPosition
			return
		}
		v.Position = mgl32.TransformCoordinate(v.RestPosition, m)
	})
}

// SkinnedPosition returns where rest would move if bound to bone.
func (s *Skeleton) SkinnedPosition(bone int, rest mgl32.Vec3) mgl32.Vec3 {
	if !s.Has(bone) {
		return rest
	}
	m := s.PoseWorld(bone).Mul4(s.RestWorld(bone).Inv())
	return mgl32.TransformCoordinate(rest, m)
}
