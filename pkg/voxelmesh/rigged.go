package voxelmesh

import (
	"bytes"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/tileforge/pkg/rig"
	"github.com/Faultbox/tileforge/pkg/scene"
	"github.com/Faultbox/tileforge/pkg/voxel"
)

// quadIndices triangulates a quad as (0,1,2) and (0,2,3).
var quadIndices = [6]uint32{0, 1, 2, 0, 2, 3}

// ToMesh triangulates r: four vertices and six indices per quad. UVs are
// filled when r has an atlas, colours otherwise.
func ToMesh(r Result) scene.MeshData {
	n := len(r.Quads) * 4
	m := scene.MeshData{
		Positions: make([]mgl32.Vec3, 0, n),
		Normals:   make([]mgl32.Vec3, 0, n),
		Joints:    make([]int, 0, n),
		Indices:   make([]uint32, 0, len(r.Quads)*6),
	}
	for _, q := range r.Quads {
		base := uint32(len(m.Positions))
		uvs := r.UVs(q)
		for c := 0; c < 4; c++ {
			m.Positions = append(m.Positions, q.Corners[c])
			m.Normals = append(m.Normals, q.Normal)
			m.Joints = append(m.Joints, q.BoneID)
			if r.textured() {
				m.UVs = append(m.UVs, uvs[c])
			} else {
				m.Colors = append(m.Colors, q.Color)
			}
		}
		for _, i := range quadIndices {
			m.Indices = append(m.Indices, base+i)
		}
	}
	return m
}

// bindPose returns voxels placed at their rest positions, which is the
// pose the skin's inverse bind matrices expect.
func bindPose(vs []voxel.Voxel) []voxel.Voxel {
	out := make([]voxel.Voxel, len(vs))
	for i, v := range vs {
		v.Position = v.RestPosition
		out[i] = v
	}
	return out
}

// RiggedDocument builds the scene for voxels skinned to sk with the
// animations of store. sk and store may be nil.
func RiggedDocument(name string, voxels []voxel.Voxel, sk *rig.Skeleton, store *rig.Store, opts Options) (*scene.Document, error) {
	res := Build(bindPose(voxels), opts)
	doc := scene.NewDocument(name)
	doc.Mesh = ToMesh(res)
	if opts.TicksPerSecond > 0 {
		doc.TicksPerSecond = opts.TicksPerSecond
	}

	if res.textured() {
		var buf bytes.Buffer
		if err := res.Atlas.EncodePNG(&buf); err != nil {
			return nil, fmt.Errorf("encoding atlas: %w", err)
		}
		doc.AtlasPNG = buf.Bytes()
	}

	if sk != nil {
		for _, b := range sk.Bones() {
			doc.Bones = append(doc.Bones, scene.BoneNode{
				ID:        b.ID,
				Name:      b.Name,
				Parent:    b.ParentID,
				Pose:      b.Pose,
				RestWorld: sk.RestWorld(b.ID),
			})
		}
	}

	if store != nil && sk != nil {
		tps := doc.TicksPerSecond
		for _, a := range store.All() {
			ad := scene.AnimationData{Name: a.Name, DurationTicks: a.Duration * tps, Looping: a.Looping}
			for _, tr := range a.Tracks {
				if !sk.Has(tr.BoneID) || len(tr.Keyframes) == 0 {
					continue
				}
				ch := scene.Channel{BoneID: tr.BoneID}
				for _, k := range tr.Keyframes {
					ch.Ticks = append(ch.Ticks, k.Time*tps)
					ch.Translations = append(ch.Translations, k.Translation)
					ch.Rotations = append(ch.Rotations, k.Rotation)
					ch.Scales = append(ch.Scales, k.Scale)
				}
				ad.Channels = append(ad.Channels, ch)
			}
			doc.Animations = append(doc.Animations, ad)
		}
	}
	return doc, nil
}

// ExportRigged writes voxels, skeleton and animations to path as a glTF
// scene. An empty format is taken from the extension; unsupported formats
// are refused before anything is written.
func ExportRigged(path, format string, voxels []voxel.Voxel, sk *rig.Skeleton, store *rig.Store, opts Options) error {
	if format == "" {
		format = scene.FormatOf(path)
	}
	if _, err := scene.CheckFormat(format); err != nil {
		return err
	}
	doc, err := RiggedDocument("voxels", voxels, sk, store, opts)
	if err != nil {
		return err
	}
	return doc.Save(path, format)
}
