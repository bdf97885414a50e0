package voxelmesh

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/tileforge/internal/logger"
	"github.com/Faultbox/tileforge/pkg/formats"
)

// HeaderComment is the first comment line of every exported OBJ.
const HeaderComment = "Voxel object exported from tileforge"

// Paths returns the companion file paths for an OBJ export to objPath.
func Paths(objPath string) (mtl, atlasPNG string) {
	base := strings.TrimSuffix(objPath, filepath.Ext(objPath))
	return base + ".mtl", base + "_atlas.png"
}

// textured reports whether r is written with a material and atlas. An empty
// atlas has nothing to texture and falls back to vertex colours.
func (r Result) textured() bool {
	return r.Atlas != nil && r.Atlas.Len() > 0
}

func (r Result) header() []string {
	lines := []string{
		HeaderComment,
		fmt.Sprintf("Regime: %s, %d voxels, %d external faces, %d quads", r.Options.Regime, r.VoxelCount, r.ExternalCount, len(r.Quads)),
	}
	if r.textured() {
		lines = append(lines, fmt.Sprintf("Texture atlas: %d colors", r.Atlas.Len()))
	} else {
		lines = append(lines, "Vertex colors are included using extended OBJ format")
	}
	return lines
}

func (r Result) objQuads() []formats.Quad {
	out := make([]formats.Quad, len(r.Quads))
	for i, q := range r.Quads {
		out[i] = formats.Quad{Corners: q.Corners, Normal: q.Normal, Color: q.Color, UVs: r.UVs(q)}
	}
	return out
}

// EncodeOBJ writes the OBJ text for r. mtlLib names the material library
// and is only used with an atlas.
func (r Result) EncodeOBJ(w io.Writer, mtlLib string) error {
	doc := formats.OBJ{Comments: r.header()}
	if !r.textured() {
		return doc.WriteColoredQuads(w, r.objQuads())
	}
	doc.MTLLib = mtlLib
	doc.Material = formats.DefaultMaterial
	return doc.WriteTexturedQuads(w, r.objQuads())
}

// WriteOBJ writes r to path. With a non-empty atlas it also writes
// <base>.mtl and <base>_atlas.png next to it. Each file is written
// atomically; the OBJ goes first and is removed again if a companion file
// fails, so a failed export never leaves a partial set behind.
func WriteOBJ(path string, r Result) (err error) {
	log := logger.Named("voxelmesh")
	mtlPath, atlasPath := Paths(path)

	err = formats.SaveOBJ(path, func(w io.Writer) error {
		return r.EncodeOBJ(w, filepath.Base(mtlPath))
	})
	if err != nil {
		return fmt.Errorf("writing obj: %w", err)
	}

	if r.textured() {
		written := []string{path}
		defer func() {
			if err != nil {
				for _, p := range written {
					if rerr := os.Remove(p); rerr != nil && !os.IsNotExist(rerr) {
						log.Warn("removing partial export", zap.String("path", p), zap.Error(rerr))
					}
				}
			}
		}()
		if err = r.Atlas.WritePNG(atlasPath); err != nil {
			return fmt.Errorf("writing atlas: %w", err)
		}
		written = append(written, atlasPath)
		mtl := formats.NewMTL(formats.DefaultMaterial, filepath.Base(atlasPath))
		mtl.Comment = HeaderComment
		if err = mtl.Save(mtlPath); err != nil {
			return fmt.Errorf("writing material: %w", err)
		}
	}

	log.Info("exported voxel mesh",
		zap.String("path", path),
		zap.Stringer("regime", r.Options.Regime),
		zap.Int("quads", len(r.Quads)),
		zap.Bool("atlas", r.textured()))
	return nil
}
