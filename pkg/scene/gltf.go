package scene

import (
	"bytes"
	"fmt"
	"io"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"go.uber.org/zap"

	"github.com/Faultbox/tileforge/internal/assets"
	"github.com/Faultbox/tileforge/internal/logger"
)

// MaterialName is the name of the single material of every scene.
const MaterialName = "voxel_material"

// Node layout of a built scene.
const (
	meshNode     = 0
	rootJoint    = 1
	firstBoneIdx = 2
)

func vec3s(vs []mgl32.Vec3) [][3]float32 {
	out := make([][3]float32, len(vs))
	for i, v := range vs {
		out[i] = v
	}
	return out
}

func vec2s(vs []mgl32.Vec2) [][2]float32 {
	out := make([][2]float32, len(vs))
	for i, v := range vs {
		out[i] = v
	}
	return out
}

func quatXYZW(q mgl32.Quat) [4]float32 {
	q = q.Normalize()
	return [4]float32{q.V[0], q.V[1], q.V[2], q.W}
}

func mat4(m mgl32.Mat4) [4][4]float32 {
	var out [4][4]float32
	for c := 0; c < 4; c++ {
		for r := 0; r < 4; r++ {
			out[c][r] = m[c*4+r]
		}
	}
	return out
}

// Build converts d into a glTF document.
func (d *Document) Build() (*gltf.Document, error) {
	m := d.Mesh
	if err := m.validate(); err != nil {
		return nil, err
	}

	doc := gltf.NewDocument()
	doc.Asset.Generator = "tileforge"

	attrs := map[string]uint32{
		gltf.POSITION: uint32(modeler.WritePosition(doc, vec3s(m.Positions))),
		gltf.NORMAL:   uint32(modeler.WriteNormal(doc, vec3s(m.Normals))),
	}

	pbr := &gltf.PBRMetallicRoughness{
		BaseColorFactor: &[4]float32{1, 1, 1, 1},
		MetallicFactor:  gltf.Float(0),
		RoughnessFactor: gltf.Float(1),
	}
	switch {
	case len(m.UVs) > 0:
		attrs[gltf.TEXCOORD_0] = uint32(modeler.WriteTextureCoord(doc, vec2s(m.UVs)))
		if len(d.AtlasPNG) > 0 {
			img, err := modeler.WriteImage(doc, "atlas.png", "image/png", bytes.NewReader(d.AtlasPNG))
			if err != nil {
				return nil, fmt.Errorf("embedding atlas: %w", err)
			}
			doc.Textures = append(doc.Textures, &gltf.Texture{Source: gltf.Index(uint32(img))})
			pbr.BaseColorTexture = &gltf.TextureInfo{Index: uint32(len(doc.Textures) - 1)}
		}
	case len(m.Colors) > 0:
		cols := make([][4]float32, len(m.Colors))
		for i, c := range m.Colors {
			cols[i] = [4]float32{float32(c.R) / 255, float32(c.G) / 255, float32(c.B) / 255, 1}
		}
		attrs[gltf.COLOR_0] = uint32(modeler.WriteColor(doc, cols))
	}
	doc.Materials = []*gltf.Material{{Name: MaterialName, PBRMetallicRoughness: pbr, AlphaMode: gltf.AlphaOpaque}}

	skinned := len(d.Bones) > 0
	nodeOf := make(map[int]uint32, len(d.Bones))
	jointOf := make(map[int]uint16, len(d.Bones))
	for i, b := range d.Bones {
		nodeOf[b.ID] = uint32(firstBoneIdx + i)
		jointOf[b.ID] = uint16(i + 1)
	}

	if skinned {
		joints := make([][4]uint16, len(m.Positions))
		weights := make([][4]float32, len(m.Positions))
		for i := range m.Positions {
			weights[i] = [4]float32{1, 0, 0, 0}
			if i < len(m.Joints) {
				joints[i][0] = jointOf[m.Joints[i]] // unknown and unbound fall to the root joint
			}
		}
		attrs[gltf.JOINTS_0] = uint32(modeler.WriteJoints(doc, joints))
		attrs[gltf.WEIGHTS_0] = uint32(modeler.WriteWeights(doc, weights))
	}

	prim := &gltf.Primitive{
		Attributes: attrs,
		Indices:    gltf.Index(uint32(modeler.WriteIndices(doc, m.Indices))),
		Material:   gltf.Index(0),
	}
	name := d.Name
	if name == "" {
		name = "voxels"
	}
	doc.Meshes = []*gltf.Mesh{{Name: name, Primitives: []*gltf.Primitive{prim}}}
	doc.Nodes = []*gltf.Node{{Name: name, Mesh: gltf.Index(0)}}
	doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, meshNode)

	if skinned {
		d.buildSkeleton(doc, nodeOf)
		if err := d.buildAnimations(doc, nodeOf); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

func (d *Document) buildSkeleton(doc *gltf.Document, nodeOf map[int]uint32) {
	root := &gltf.Node{Name: "root", Rotation: [4]float32{0, 0, 0, 1}, Scale: [3]float32{1, 1, 1}}
	doc.Nodes = append(doc.Nodes, root)

	ibms := [][4][4]float32{mat4(mgl32.Ident4())}
	joints := []uint32{rootJoint}
	for _, b := range d.Bones {
		n := &gltf.Node{
			Name:        b.Name,
			Translation: b.Pose.Translation,
			Rotation:    quatXYZW(b.Pose.Rotation),
			Scale:       b.Pose.Scale,
			Extras:      map[string]any{"boneId": b.ID},
		}
		doc.Nodes = append(doc.Nodes, n)
		joints = append(joints, nodeOf[b.ID])

		inv := mgl32.Ident4()
		if b.RestWorld.Det() != 0 {
			inv = b.RestWorld.Inv()
		}
		ibms = append(ibms, mat4(inv))
	}
	for _, b := range d.Bones {
		parent, ok := nodeOf[b.Parent]
		if !ok {
			parent = rootJoint
		}
		doc.Nodes[parent].Children = append(doc.Nodes[parent].Children, nodeOf[b.ID])
	}

	ibm := modeler.WriteAccessor(doc, gltf.TargetNone, ibms)
	doc.Skins = []*gltf.Skin{{
		Name:                "skeleton",
		InverseBindMatrices: gltf.Index(uint32(ibm)),
		Joints:              joints,
		Skeleton:            gltf.Index(rootJoint),
	}}
	doc.Nodes[meshNode].Skin = gltf.Index(0)
	doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, rootJoint)
}

func (d *Document) buildAnimations(doc *gltf.Document, nodeOf map[int]uint32) error {
	log := logger.Named("scene")
	tps := d.tps()
	for _, a := range d.Animations {
		anim := &gltf.Animation{
			Name: a.Name,
			Extras: map[string]any{
				"ticksPerSecond": tps,
				"durationTicks":  a.DurationTicks,
				"looping":        a.Looping,
			},
		}
		for _, ch := range a.Channels {
			node, ok := nodeOf[ch.BoneID]
			if !ok || len(ch.Ticks) == 0 {
				log.Debug("skipping channel", zap.String("animation", a.Name), zap.Int("bone", ch.BoneID))
				continue
			}
			n := len(ch.Ticks)
			if len(ch.Translations) != n || len(ch.Rotations) != n || len(ch.Scales) != n {
				return fmt.Errorf("%w: animation %q bone %d", ErrMismatchedStreams, a.Name, ch.BoneID)
			}

			secs := make([]float32, n)
			for i, t := range ch.Ticks {
				secs[i] = t / tps
			}
			in := uint32(modeler.WriteAccessor(doc, gltf.TargetNone, secs))
			doc.Accessors[in].Min = []float32{secs[0]}
			doc.Accessors[in].Max = []float32{secs[n-1]}

			rots := make([][4]float32, n)
			for i, r := range ch.Rotations {
				rots[i] = quatXYZW(r)
			}
			outputs := []struct {
				path gltf.TRSProperty
				data any
			}{
				{gltf.TRSTranslation, vec3s(ch.Translations)},
				{gltf.TRSRotation, rots},
				{gltf.TRSScale, vec3s(ch.Scales)},
			}
			for _, o := range outputs {
				out := uint32(modeler.WriteAccessor(doc, gltf.TargetNone, o.data))
				anim.Samplers = append(anim.Samplers, &gltf.AnimationSampler{
					Input:         in,
					Output:        out,
					Interpolation: gltf.InterpolationLinear,
				})
				anim.Channels = append(anim.Channels, &gltf.Channel{
					Sampler: gltf.Index(uint32(len(anim.Samplers) - 1)),
					Target:  gltf.ChannelTarget{Node: gltf.Index(node), Path: o.path},
				})
			}
		}
		if len(anim.Channels) == 0 {
			log.Debug("skipping empty animation", zap.String("animation", a.Name))
			continue
		}
		doc.Animations = append(doc.Animations, anim)
	}
	return nil
}

// Encode writes d in format ("glb" or "gltf"). Text output embeds its
// buffers as data URIs.
func (d *Document) Encode(w io.Writer, format string) error {
	f, err := CheckFormat(format)
	if err != nil {
		return err
	}
	doc, err := d.Build()
	if err != nil {
		return err
	}
	enc := gltf.NewEncoder(w)
	enc.AsBinary = f == "glb"
	if !enc.AsBinary {
		for _, b := range doc.Buffers {
			if b.URI == "" {
				b.EmbeddedResource()
			}
		}
		enc.SetJSONIndent("", "  ")
	}
	return enc.Encode(doc)
}

// Save writes d to path. An empty format is taken from the extension. The
// format is checked before anything touches the disk, and a failed write
// leaves no file behind.
func (d *Document) Save(path, format string) error {
	if format == "" {
		format = FormatOf(path)
	}
	f, err := CheckFormat(format)
	if err != nil {
		return err
	}
	if err := assets.WriteAtomic(path, func(w io.Writer) error { return d.Encode(w, f) }); err != nil {
		return err
	}
	logger.Named("scene").Info("wrote scene",
		zap.String("path", path),
		zap.String("format", f),
		zap.Int("vertices", len(d.Mesh.Positions)),
		zap.Int("bones", len(d.Bones)),
		zap.Int("animations", len(d.Animations)))
	return nil
}
