package voxelmesh

import (
	"cmp"
	"image/color"
	"math"
	"slices"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/samber/lo"

	"github.com/Faultbox/tileforge/pkg/voxel"
)

// MergeEpsilon is the tolerance used when comparing face coordinates.
const MergeEpsilon = 1e-3

// faceAxes gives, per face, the axis the face is perpendicular to and the
// u and v axes spanning it with u × v equal to the face normal.
var faceAxes = [6][3]int{
	voxel.FacePosX: {0, 1, 2},
	voxel.FaceNegX: {0, 2, 1},
	voxel.FacePosY: {1, 2, 0},
	voxel.FaceNegY: {1, 0, 2},
	voxel.FacePosZ: {2, 0, 1},
	voxel.FaceNegZ: {2, 1, 0},
}

// rect is an axis-aligned face in its own plane coordinates.
type rect struct {
	face           voxel.Face
	plane          float32
	u0, u1, v0, v1 float32
	color          color.RGBA
	bone           int
}

func faceRect(v voxel.Voxel, f voxel.Face, size float32) rect {
	ax := faceAxes[f]
	h := size / 2
	p := v.Position
	n := f.Normal()
	return rect{
		face:  f,
		plane: p[ax[0]] + n[ax[0]]*h,
		u0:    p[ax[1]] - h,
		u1:    p[ax[1]] + h,
		v0:    p[ax[2]] - h,
		v1:    p[ax[2]] + h,
		color: v.Color,
		bone:  v.BoneID,
	}
}

func (r rect) point(u, v float32) mgl32.Vec3 {
	ax := faceAxes[r.face]
	var p mgl32.Vec3
	p[ax[0]] = r.plane
	p[ax[1]] = u
	p[ax[2]] = v
	return p
}

func (r rect) quad() Quad {
	return Quad{
		Corners: [4]mgl32.Vec3{
			r.point(r.u0, r.v0),
			r.point(r.u1, r.v0),
			r.point(r.u1, r.v1),
			r.point(r.u0, r.v1),
		},
		Normal: r.face.Normal(),
		Color:  r.color,
		BoneID: r.bone,
	}
}

func (r rect) transposed() rect {
	r.u0, r.u1, r.v0, r.v1 = r.v0, r.v1, r.u0, r.u1
	return r
}

func q(f float32) int64 { return int64(math.Round(float64(f) / MergeEpsilon)) }

func near(a, b float32) bool { return q(a) == q(b) }

// union joins r and o when they lie in the same plane with the same colour
// and bone and share one full edge, so the union is again a rectangle.
func (r rect) union(o rect) (rect, bool) {
	if r.face != o.face || !near(r.plane, o.plane) || r.color != o.color || r.bone != o.bone {
		return rect{}, false
	}
	switch {
	case near(r.v0, o.v0) && near(r.v1, o.v1) && (near(r.u1, o.u0) || near(o.u1, r.u0)):
		r.u0, r.u1 = min(r.u0, o.u0), max(r.u1, o.u1)
		return r, true
	case near(r.u0, o.u0) && near(r.u1, o.u1) && (near(r.v1, o.v0) || near(o.v1, r.v0)):
		r.v0, r.v1 = min(r.v0, o.v0), max(r.v1, o.v1)
		return r, true
	}
	return rect{}, false
}

type mergeKey struct {
	face  voxel.Face
	plane int64
	color color.RGBA
	bone  int
}

// mergeRects merges rects until no two can be joined. Each join removes
// exactly one rect. Output order is deterministic for a given input.
func mergeRects(rs []rect) []rect {
	var keys []mergeKey
	buckets := make(map[mergeKey][]rect)
	for _, r := range rs {
		k := mergeKey{r.face, q(r.plane), r.color, r.bone}
		if _, ok := buckets[k]; !ok {
			keys = append(keys, k)
		}
		buckets[k] = append(buckets[k], r)
	}

	out := make([]rect, 0, len(rs))
	for _, k := range keys {
		b := buckets[k]
		for {
			var mu, mv bool
			b, mu = mergeAlongU(b)
			b, mv = mergeAlongV(b)
			if !mu && !mv {
				break
			}
		}
		out = append(out, b...)
	}
	return out
}

// mergeAlongU joins runs of rects that share their v extent and touch
// along u. rs must share one plane.
func mergeAlongU(rs []rect) ([]rect, bool) {
	slices.SortFunc(rs, func(a, b rect) int {
		return lo.CoalesceOrEmpty(cmp.Compare(q(a.v0), q(b.v0)), cmp.Compare(q(a.v1), q(b.v1)), cmp.Compare(q(a.u0), q(b.u0)))
	})
	out := rs[:0]
	merged := false
	for _, r := range rs {
		if n := len(out); n > 0 {
			if m, ok := out[n-1].union(r); ok {
				out[n-1] = m
				merged = true
				continue
			}
		}
		out = append(out, r)
	}
	return out, merged
}

func mergeAlongV(rs []rect) ([]rect, bool) {
	transpose(rs)
	rs, merged := mergeAlongU(rs)
	transpose(rs)
	return rs, merged
}

func transpose(rs []rect) {
	for i := range rs {
		rs[i] = rs[i].transposed()
	}
}
