// Package scene writes rigged voxel meshes as glTF 2.0 scenes.
package scene

import (
	"errors"
	"fmt"
	"image/color"
	"path/filepath"
	"slices"
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	tfmath "github.com/Faultbox/tileforge/pkg/math"
)

// TicksPerSecond converts animation ticks to seconds.
const TicksPerSecond = 30

// Scene errors.
var (
	ErrFormatUnavailable = errors.New("scene format unavailable")
	ErrEmptyMesh         = errors.New("scene has no geometry")
	ErrMismatchedStreams = errors.New("vertex streams differ in length")
)

var formats = []string{"glb", "gltf"}

// Formats lists the supported output formats.
func Formats() []string { return slices.Clone(formats) }

// CheckFormat normalises format and reports ErrFormatUnavailable, listing
// the supported formats, when it is not one of them.
func CheckFormat(format string) (string, error) {
	f := strings.ToLower(strings.TrimPrefix(format, "."))
	if !slices.Contains(formats, f) {
		return "", fmt.Errorf("%w: %q (supported: %s)", ErrFormatUnavailable, format, strings.Join(formats, ", "))
	}
	return f, nil
}

// FormatOf returns the format implied by path's extension.
func FormatOf(path string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
}

// MeshData is a triangle mesh with parallel per-vertex streams. UVs and
// Colors are optional; when both are set UVs win.
type MeshData struct {
	Positions []mgl32.Vec3
	Normals   []mgl32.Vec3
	UVs       []mgl32.Vec2
	Colors    []color.RGBA
	Joints    []int // bone id per vertex, -1 when unbound
	Indices   []uint32
}

func (m MeshData) validate() error {
	n := len(m.Positions)
	if n == 0 || len(m.Indices) == 0 {
		return ErrEmptyMesh
	}
	for _, l := range []int{len(m.Normals), len(m.UVs), len(m.Colors), len(m.Joints)} {
		if l != 0 && l != n {
			return fmt.Errorf("%w: %d positions, stream of %d", ErrMismatchedStreams, n, l)
		}
	}
	if len(m.Normals) == 0 {
		return fmt.Errorf("%w: missing normals", ErrMismatchedStreams)
	}
	for _, i := range m.Indices {
		if int(i) >= n {
			return fmt.Errorf("%w: index %d out of %d vertices", ErrMismatchedStreams, i, n)
		}
	}
	return nil
}

// BoneNode is one joint of the exported skeleton.
type BoneNode struct {
	ID        int
	Name      string
	Parent    int // -1 for roots
	Pose      tfmath.Transform
	RestWorld mgl32.Mat4
}

// Channel holds one bone's keys. Times are in ticks.
type Channel struct {
	BoneID       int
	Ticks        []float32
	Translations []mgl32.Vec3
	Rotations    []mgl32.Quat
	Scales       []mgl32.Vec3
}

// AnimationData is one exported animation.
type AnimationData struct {
	Name          string
	DurationTicks float32
	Looping       bool
	Channels      []Channel
}

// Document is everything written to one scene file.
type Document struct {
	Name           string
	Mesh           MeshData
	Bones          []BoneNode
	Animations     []AnimationData
	AtlasPNG       []byte
	TicksPerSecond float32
}

// NewDocument returns a document at the default tick rate.
func NewDocument(name string) *Document {
	return &Document{Name: name, TicksPerSecond: TicksPerSecond}
}

func (d *Document) tps() float32 {
	if d.TicksPerSecond <= 0 {
		return TicksPerSecond
	}
	return d.TicksPerSecond
}
