package editor

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// BrushSettings control the brush paint and erase tools.
type BrushSettings struct {
	Size           float32 // radius in world units
	Spherical      bool
	Randomize      bool
	RandomStrength float32 // probability that a candidate is skipped
}

// DefaultBrush is a spherical brush of radius 2 without randomness.
func DefaultBrush() BrushSettings {
	return BrushSettings{Size: 2, Spherical: true, RandomStrength: 0.1}
}

// gridSteps returns the offsets lo, lo+step, ... up to hi inclusive.
func gridSteps(lo, hi, step float32) []float32 {
	if step <= 0 || hi < lo {
		return nil
	}
	n := int(math.Floor(float64((hi-lo)/step) + 1e-4))
	out := make([]float32, n+1)
	for i := range out {
		out[i] = lo + float32(i)*step
	}
	return out
}

// brushCandidates returns the raw positions covered by a brush of the given
// settings centred on anchor, stepping by step on every axis.
func brushCandidates(anchor mgl32.Vec3, b BrushSettings, step float32) []mgl32.Vec3 {
	r := b.Size
	if r < 0 {
		r = 0
	}
	var out []mgl32.Vec3
	for _, x := range gridSteps(anchor[0]-r, anchor[0]+r, step) {
		for _, y := range gridSteps(anchor[1]-r, anchor[1]+r, step) {
			for _, z := range gridSteps(anchor[2]-r, anchor[2]+r, step) {
				p := mgl32.Vec3{x, y, z}
				if b.Spherical && p.Sub(anchor).Len() > r+1e-4 {
					continue
				}
				out = append(out, p)
			}
		}
	}
	return out
}
