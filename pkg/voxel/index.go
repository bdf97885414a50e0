package voxel

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

type cellKey [3]int32

// Index answers position lookups over a fixed voxel slice in constant time.
// Keys are positions quantised to Epsilon; a lookup checks the 27 keys
// around the query so matches across a bucket edge are still found.
type Index struct {
	voxels  []Voxel
	buckets map[cellKey][]int
}

func keyOf(p mgl32.Vec3) cellKey {
	q := func(v float32) int32 { return int32(math.Round(float64(v / Epsilon))) }
	return cellKey{q(p[0]), q(p[1]), q(p[2])}
}

// NewIndex indexes vs by Position. vs must not change while the index is used.
func NewIndex(vs []Voxel) *Index {
	idx := &Index{voxels: vs, buckets: make(map[cellKey][]int, len(vs))}
	for i, v := range vs {
		k := keyOf(v.Position)
		idx.buckets[k] = append(idx.buckets[k], i)
	}
	return idx
}

// Find returns the index of a voxel within Epsilon of p.
func (idx *Index) Find(p mgl32.Vec3) (int, bool) {
	k := keyOf(p)
	for dz := int32(-1); dz <= 1; dz++ {
		for dy := int32(-1); dy <= 1; dy++ {
			for dx := int32(-1); dx <= 1; dx++ {
				for _, i := range idx.buckets[cellKey{k[0] + dx, k[1] + dy, k[2] + dz}] {
					if SamePosition(idx.voxels[i].Position, p) {
						return i, true
					}
				}
			}
		}
	}
	return -1, false
}

// Has reports whether a voxel sits within Epsilon of p.
func (idx *Index) Has(p mgl32.Vec3) bool {
	_, ok := idx.Find(p)
	return ok
}
