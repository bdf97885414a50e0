// Package tilebuilder implements the tile authoring workflow: generate a
// primitive, bind textures to its faces, export it and register it in a
// tile catalog.
package tilebuilder

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/anthonynsimon/bild/transform"
	"github.com/google/uuid"
	"github.com/h2non/filetype"
	"github.com/samber/lo"
	"go.uber.org/zap"

	// Texture decoders.
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
	_ "image/jpeg"
	_ "image/png"

	"github.com/Faultbox/tileforge/internal/assets"
	"github.com/Faultbox/tileforge/internal/config"
	"github.com/Faultbox/tileforge/internal/logger"
	"github.com/Faultbox/tileforge/pkg/atlas"
	"github.com/Faultbox/tileforge/pkg/catalog"
	"github.com/Faultbox/tileforge/pkg/formats"
	"github.com/Faultbox/tileforge/pkg/geom"
	"github.com/Faultbox/tileforge/pkg/tile"
)

// Builder errors.
var (
	ErrNoCatalog  = errors.New("no target catalog")
	ErrEmptyMesh  = errors.New("tile has no mesh data")
	ErrNotTexture = errors.New("not an image file")
)

// MaterialName is the material used by exported tiles without a name.
const MaterialName = "tile_material"

// previewGrey fills previews of untextured tiles.
var previewGrey = color.RGBA{R: 128, G: 128, B: 128, A: 255}

// Builder exports tiles and adds them to a catalog.
type Builder struct {
	Config  config.BuilderConfig
	Catalog *catalog.Catalog
	// Textures resolves the texture references of bindings.
	Textures *assets.Manager

	log *zap.Logger
}

// New returns a builder writing under cfg.AssetsDir. Texture references are
// resolved against the working directory and then roots.
func New(cfg config.BuilderConfig, cat *catalog.Catalog, roots ...string) *Builder {
	if cfg.AssetsDir == "" {
		cfg.AssetsDir = config.Default().Builder.AssetsDir
	}
	if cfg.PreviewSize <= 0 {
		cfg.PreviewSize = 128
	}
	return &Builder{
		Config:   cfg,
		Catalog:  cat,
		Textures: assets.NewManager(roots...),
		log:      logger.Named("tilebuilder"),
	}
}

// NewTile generates a tile for params. An empty name becomes tile_<id>.
func (b *Builder) NewTile(name string, params geom.Params) *tile.Asset {
	if name == "" {
		name = "tile_" + uuid.NewString()[:8]
	}
	return tile.New(name, params)
}

// ExportResult reports what an export wrote and which textures were absent.
type ExportResult struct {
	OBJPath          string
	MTLPath          string
	MissingResources []string
}

// ExportOBJ writes the tile mesh with its UV transforms applied, plus an MTL
// whose map_Kd names the first bound texture. Missing textures do not stop
// the export; they are logged and listed in the result.
func (b *Builder) ExportOBJ(a *tile.Asset, path string) (ExportResult, error) {
	res := ExportResult{OBJPath: path}
	mesh := a.ExportMesh()
	if mesh.IsEmpty() {
		return res, ErrEmptyMesh
	}

	textures := a.Textures()
	for _, t := range textures {
		if _, err := b.Textures.Resolve(t); err != nil {
			b.log.Warn("texture missing", zap.String("tile", a.Name), zap.String("path", t))
			res.MissingResources = append(res.MissingResources, t)
		}
	}

	base := strings.TrimSuffix(path, filepath.Ext(path))
	res.MTLPath = base + ".mtl"
	material := a.Name
	if material == "" {
		material = MaterialName
	}

	mapKd := ""
	if len(textures) > 0 {
		mapKd = filepath.Base(textures[0])
	}
	mtl := formats.NewMTL(material, mapKd)
	mtl.Comment = "Material for tile " + a.Name
	if err := mtl.Save(res.MTLPath); err != nil {
		return res, fmt.Errorf("writing %s: %w", res.MTLPath, err)
	}

	obj := formats.OBJ{
		Comments: []string{
			"Tile exported from tileforge",
			fmt.Sprintf("Primitive: %s, %d vertices, %d triangles", a.Params.Type, len(mesh.Vertices), mesh.TriangleCount()),
		},
		MTLLib:   filepath.Base(res.MTLPath),
		Material: material,
	}
	if err := formats.SaveOBJ(path, func(w io.Writer) error { return obj.WriteMesh(w, mesh) }); err != nil {
		return res, fmt.Errorf("writing %s: %w", path, err)
	}

	b.log.Info("exported tile",
		zap.String("tile", a.Name),
		zap.String("path", path),
		zap.Int("missing", len(res.MissingResources)))
	return res, nil
}

// AddToTileset exports the tile into <assets>/<name>/, copies its textures
// next to it, renders a preview and registers a new catalog entry with a
// box collision sized to the mesh bounds.
func (b *Builder) AddToTileset(a *tile.Asset) (*catalog.Entry, error) {
	if b.Catalog == nil {
		return nil, ErrNoCatalog
	}
	if a.Mesh.IsEmpty() {
		return nil, ErrEmptyMesh
	}

	dir := filepath.Join(b.Config.AssetsDir, a.Name)
	objPath := filepath.Join(dir, a.Name+".obj")
	res, err := b.ExportOBJ(a, objPath)
	if err != nil {
		return nil, err
	}

	var copied []string
	for _, t := range a.Textures() {
		if lo.Contains(res.MissingResources, t) {
			continue
		}
		dst, err := b.copyTexture(t, dir)
		if err != nil {
			b.log.Warn("skipping texture", zap.String("path", t), zap.Error(err))
			continue
		}
		copied = append(copied, dst)
	}

	previewPath := filepath.Join(dir, a.Name+"_preview.png")
	if err := b.writePreview(copied, previewPath); err != nil {
		return nil, err
	}

	root := filepath.Dir(filepath.Clean(b.Config.AssetsDir))
	e := catalog.NewEntry(b.Catalog.NextID(), a.Name)
	e.MeshPath = relPath(root, objPath)
	e.PreviewPath = relPath(root, previewPath)
	e.Collision = catalog.Collision{
		Kind:   catalog.CollisionBox,
		Offset: a.Mesh.Bounds.Center(),
		Size:   a.Mesh.Bounds.Size(),
		Margin: catalog.DefaultCollision().Margin,
	}
	if err := b.Catalog.AddTile(e); err != nil {
		return nil, err
	}

	b.log.Info("added tile to tileset",
		zap.Int("id", e.ID),
		zap.String("tile", a.Name),
		zap.String("dir", dir),
		zap.Int("textures", len(copied)))
	return e, nil
}

func relPath(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

// copyTexture copies an image texture into dir after sniffing its type.
func (b *Builder) copyTexture(ref, dir string) (string, error) {
	data, err := b.Textures.Load(ref)
	if err != nil {
		return "", err
	}
	if !filetype.IsImage(data) {
		return "", fmt.Errorf("%w: %s", ErrNotTexture, ref)
	}
	dst := filepath.Join(dir, filepath.Base(ref))
	err = assets.WriteAtomic(dst, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
	return dst, err
}

// writePreview scales the first decodable texture to fit the preview size,
// keeping its aspect ratio. Untextured tiles get a flat grey square.
func (b *Builder) writePreview(textures []string, path string) error {
	size := b.Config.PreviewSize
	var img image.Image
	for _, t := range textures {
		src, err := decodeImage(t)
		if err != nil {
			b.log.Warn("cannot decode texture for preview", zap.String("path", t), zap.Error(err))
			continue
		}
		img = fitSize(src, size)
		break
	}
	if img == nil {
		flat := image.NewRGBA(image.Rect(0, 0, size, size))
		for i := 0; i < len(flat.Pix); i += 4 {
			flat.Pix[i], flat.Pix[i+1], flat.Pix[i+2], flat.Pix[i+3] = previewGrey.R, previewGrey.G, previewGrey.B, previewGrey.A
		}
		img = flat
	}
	return atlas.WriteImagePNG(path, img)
}

func decodeImage(path string) (image.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return img, nil
}

// fitSize scales img so its longer side is size.
func fitSize(img image.Image, size int) image.Image {
	sz := img.Bounds().Size()
	if sz.X <= 0 || sz.Y <= 0 {
		return img
	}
	w, h := size, size
	if sz.X > sz.Y {
		h = max(1, sz.Y*size/sz.X)
	} else {
		w = max(1, sz.X*size/sz.Y)
	}
	if w == sz.X && h == sz.Y {
		return img
	}
	return transform.Resize(img, w, h, transform.Linear)
}

// TemplateFor writes the face-atlas painting template of a tile.
func (b *Builder) TemplateFor(a *tile.Asset, path string, size int) error {
	if size <= 0 {
		size = b.Config.TemplateSize
	}
	if a.Mesh.IsEmpty() {
		return ErrEmptyMesh
	}
	return atlas.WriteImagePNG(path, atlas.FaceTemplate(a.Mesh, size, size))
}

// FaceTemplate writes the painting template for one face.
func (b *Builder) FaceTemplate(face geom.FaceID, path string, size int) error {
	if size <= 0 {
		size = b.Config.FaceTemplateSize
	}
	return atlas.WriteImagePNG(path, atlas.SingleFaceTemplate(face, size))
}

// TextureChanged drops a cached texture so the next export reads it again.
func (b *Builder) TextureChanged(path string) {
	b.Textures.Invalidate(path)
}
