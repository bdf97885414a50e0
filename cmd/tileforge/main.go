// tileforge is a CLI utility for authoring tiles, voxel scenes and tilemaps.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/tileforge/internal/config"
	"github.com/Faultbox/tileforge/internal/editor"
	"github.com/Faultbox/tileforge/internal/logger"
	"github.com/Faultbox/tileforge/internal/tilebuilder"
	"github.com/Faultbox/tileforge/pkg/catalog"
	"github.com/Faultbox/tileforge/pkg/geom"
	"github.com/Faultbox/tileforge/pkg/tilemap"
	"github.com/Faultbox/tileforge/pkg/voxel"
	"github.com/Faultbox/tileforge/pkg/voxelmesh"
)

var cfg *config.Config

func main() {
	config.ParseFlags()

	var err error
	cfg, err = config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	args := flag.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}

	command, rest := args[0], args[1:]
	switch command {
	case "primitive", "prim":
		cmdPrimitive(rest)
	case "template":
		cmdTemplate(rest)
	case "catalog":
		cmdCatalog(rest)
	case "tilemap", "map":
		cmdTilemap(rest)
	case "voxels", "vox":
		cmdVoxels(rest)
	case "watch":
		cmdWatch(rest)
	case "config":
		cmdConfig(rest)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`tileforge - tile, voxel and tilemap authoring utility

Usage:
  tileforge [-config file] [-debug] <command> [options]

Commands:
  primitive <type> <out.obj>           Generate a primitive tile and export it
  template <type> <out.png>            Write a face-atlas painting template
  catalog info <file.json>             Show tile catalog contents
  tilemap info <file.3dtilemap>        Show tilemap occupancy and culling range
  voxels stats <file.voxels>           Show voxel scene statistics
  voxels export <file.voxels> <out>    Export a voxel scene as obj, glb or gltf
  watch <dir>                          Report texture changes under a directory
  config save [path]                   Write the effective config (default: user config file)

Examples:
  tileforge primitive -texture Top=grass.png -add tiles.json cube grass_block.obj
  tileforge template -face Top cube top.png
  tileforge voxels export -anims walk.json hero.voxels hero.glb
  tileforge tilemap info -camera 0,10,0 level.3dtilemap
  tileforge -debug config save ./tileforge.toml`)
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	logger.Sync()
	os.Exit(1)
}

// faceTextures collects repeated -texture Face=path flags.
type faceTextures map[geom.FaceID]string

func (f faceTextures) String() string {
	parts := make([]string, 0, len(f))
	for face, path := range f {
		parts = append(parts, string(face)+"="+path)
	}
	sort.Strings(parts)
	return strings.Join(parts, ",")
}

func (f faceTextures) Set(v string) error {
	name, path, ok := strings.Cut(v, "=")
	if !ok || path == "" {
		return fmt.Errorf("expected Face=path, got %q", v)
	}
	face, err := geom.ParseFaceID(name)
	if err != nil {
		return err
	}
	f[face] = path
	return nil
}

func primitiveParams(name string) geom.Params {
	t, err := geom.ParsePrimitiveType(name)
	if err != nil {
		fail("Error: %v", err)
	}
	p := geom.DefaultParams(t)
	if cfg.Geometry.Subdivisions > 0 {
		p.Subdivisions = cfg.Geometry.Subdivisions
	}
	if cfg.Geometry.UVScale > 0 {
		p.UVScale = cfg.Geometry.UVScale
	}
	p.GenerateUVs = cfg.Geometry.GenerateUVs
	return p
}

func cmdPrimitive(args []string) {
	fs := flag.NewFlagSet("primitive", flag.ExitOnError)
	name := fs.String("name", "", "Tile name (default: tile_<id>)")
	add := fs.String("add", "", "Also add the tile to this catalog file")
	textures := faceTextures{}
	fs.Var(textures, "texture", "Bind a texture to a face, Face=path (repeatable)")
	fs.Parse(args)

	if fs.NArg() < 2 {
		fail("Usage: tileforge primitive [-name n] [-texture Face=path] [-add catalog.json] <type> <out.obj>")
	}

	b := tilebuilder.New(cfg.Builder, nil, filepath.Dir(fs.Arg(1)))
	a := b.NewTile(*name, primitiveParams(fs.Arg(0)))
	for face, path := range textures {
		if !a.SetTexture(face, path) {
			fmt.Fprintf(os.Stderr, "Warning: %s has no %s face\n", a.Params.Type, face)
		}
	}

	res, err := b.ExportOBJ(a, fs.Arg(1))
	if err != nil {
		fail("Error: %v", err)
	}
	fmt.Printf("Exported: %s (%d vertices, %d triangles)\n", res.OBJPath, len(a.Mesh.Vertices), a.Mesh.TriangleCount())
	for _, m := range res.MissingResources {
		fmt.Fprintf(os.Stderr, "Missing texture: %s\n", m)
	}

	if *add == "" {
		return
	}
	cat, err := loadOrCreateCatalog(*add)
	if err != nil {
		fail("Error: %v", err)
	}
	b.Catalog = cat
	e, err := b.AddToTileset(a)
	if err != nil {
		fail("Error: %v", err)
	}
	if err := cat.Save(*add); err != nil {
		fail("Error saving catalog: %v", err)
	}
	fmt.Printf("Added: %s as tile %d in %s\n", e.Name, e.ID, *add)
}

func loadOrCreateCatalog(path string) (*catalog.Catalog, error) {
	cat, err := catalog.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		return catalog.New(name), nil
	}
	return cat, err
}

func cmdTemplate(args []string) {
	fs := flag.NewFlagSet("template", flag.ExitOnError)
	face := fs.String("face", "", "Write the template of a single face")
	size := fs.Int("size", 0, "Image edge in pixels (0 = configured size)")
	fs.Parse(args)

	if fs.NArg() < 2 {
		fail("Usage: tileforge template [-face Face] [-size N] <type> <out.png>")
	}

	b := tilebuilder.New(cfg.Builder, nil)
	out := fs.Arg(1)
	if *face != "" {
		f, err := geom.ParseFaceID(*face)
		if err != nil {
			fail("Error: %v", err)
		}
		if err := b.FaceTemplate(f, out, *size); err != nil {
			fail("Error: %v", err)
		}
	} else {
		a := b.NewTile("", primitiveParams(fs.Arg(0)))
		if err := b.TemplateFor(a, out, *size); err != nil {
			fail("Error: %v", err)
		}
	}
	fmt.Printf("Written: %s\n", out)
}

func cmdCatalog(args []string) {
	if len(args) < 2 || args[0] != "info" {
		fail("Usage: tileforge catalog info <file.json>")
	}
	cat, err := catalog.Load(args[1])
	if err != nil {
		fail("Error: %v", err)
	}

	fmt.Printf("Catalog: %s\n", args[1])
	fmt.Printf("Tiles:   %d\n", cat.Len())
	fmt.Println()
	for _, id := range cat.IDs() {
		e, _ := cat.Tile(id)
		fmt.Printf("  %4d  %-24s %-8s %s\n", e.ID, e.Name, e.Collision.Kind, e.MeshPath)
	}

	cats := cat.Categories()
	if len(cats) == 0 {
		return
	}
	fmt.Println()
	fmt.Println("Categories:")
	for _, c := range cats {
		fmt.Printf("  %-16s %d tiles\n", c.Name, len(c.TileIDs))
	}
}

func parseVec3(s string) (mgl32.Vec3, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return mgl32.Vec3{}, fmt.Errorf("expected x,y,z, got %q", s)
	}
	var v mgl32.Vec3
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return mgl32.Vec3{}, fmt.Errorf("bad coordinate %q: %w", p, err)
		}
		v[i] = float32(f)
	}
	return v, nil
}

func cmdTilemap(args []string) {
	if len(args) < 1 || args[0] != "info" {
		fail("Usage: tileforge tilemap info [-camera x,y,z] [-catalog file.json] <file.3dtilemap>")
	}
	fs := flag.NewFlagSet("tilemap info", flag.ExitOnError)
	camera := fs.String("camera", "", "Camera position for the culling range")
	catPath := fs.String("catalog", "", "Catalog used to name tiles")
	fs.Parse(args[1:])

	if fs.NArg() < 1 {
		fail("Usage: tileforge tilemap info [-camera x,y,z] [-catalog file.json] <file.3dtilemap>")
	}

	m, err := tilemap.LoadSparse(fs.Arg(0))
	if err != nil {
		fail("Error: %v", err)
	}
	m.Culling = tilemap.CullingConfig{MaxDistance: cfg.Tilemap.CullingDistance, Frustum: cfg.Tilemap.FrustumCulling}
	if *catPath != "" {
		if m.Catalog, err = catalog.Load(*catPath); err != nil {
			fail("Error: %v", err)
		}
	}

	fmt.Printf("Tilemap: %s\n", fs.Arg(0))
	fmt.Printf("Size:    %d x %d x %d\n", m.Size[0], m.Size[1], m.Size[2])
	fmt.Printf("Tiles:   %d\n", m.Count())
	if lo, hi, ok := m.OccupiedBounds(); ok {
		fmt.Printf("Bounds:  %v - %v\n", lo, hi)
	}

	counts := make(map[int]int)
	for _, t := range m.Tiles {
		if t != tilemap.Empty {
			counts[int(t)]++
		}
	}
	ids := make([]int, 0, len(counts))
	for id := range counts {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fmt.Println()
	fmt.Println("Tiles by id:")
	for _, id := range ids {
		name := ""
		if m.Catalog != nil {
			if e, ok := m.Catalog.Tile(id); ok {
				name = e.Name
			}
		}
		fmt.Printf("  %4d  %-24s %d\n", id, name, counts[id])
	}

	if *camera == "" {
		return
	}
	pos, err := parseVec3(*camera)
	if err != nil {
		fail("Error: %v", err)
	}
	lo, hi, ok := m.VisibleRange(pos)
	fmt.Println()
	if !ok {
		fmt.Println("Visible: nothing within culling distance")
		return
	}
	fmt.Printf("Visible: %v - %v\n", lo, hi)
}

func loadSession(path string) *editor.Session {
	opts, err := editor.OptionsFromConfig(cfg.Voxel)
	if err != nil {
		fail("Error: %v", err)
	}
	s := editor.New(opts)
	if err := s.Load(path); err != nil {
		fail("Error: %v", err)
	}
	return s
}

func cmdVoxels(args []string) {
	if len(args) < 1 {
		fail("Usage: tileforge voxels <stats|export> ...")
	}
	switch args[0] {
	case "stats":
		voxelStats(args[1:])
	case "export":
		voxelExport(args[1:])
	default:
		fail("Unknown voxels command: %s", args[0])
	}
}

func voxelStats(args []string) {
	if len(args) < 1 {
		fail("Usage: tileforge voxels stats <file.voxels>")
	}
	s := loadSession(args[0])
	vs := s.Grid.Voxels()

	fmt.Printf("Scene:   %s\n", args[0])
	fmt.Printf("Voxels:  %d\n", len(vs))
	fmt.Printf("Colors:  %d\n", len(voxel.UniqueColors(vs)))
	if lo, hi, ok := s.Grid.Bounds(); ok {
		fmt.Printf("Bounds:  %v - %v\n", lo, hi)
	}

	res := voxelmesh.BuildGrid(s.Grid, editor.ExportOptionsFromConfig(cfg.Export))
	fmt.Printf("Faces:   %d external, %d after %s\n", res.ExternalCount, len(res.Quads), res.Options.Regime)
}

func voxelExport(args []string) {
	fs := flag.NewFlagSet("voxels export", flag.ExitOnError)
	format := fs.String("format", "", "Export format (obj, glb, gltf; default from extension)")
	anims := fs.String("anims", "", "Animation bundle to include in rigged exports")
	fs.Parse(args)

	if fs.NArg() < 2 {
		fail("Usage: tileforge voxels export [-format f] [-anims bundle.json] <file.voxels> <out>")
	}
	s := loadSession(fs.Arg(0))
	if *anims != "" {
		n, err := s.ImportAnimations(*anims)
		if err != nil {
			fail("Error: %v", err)
		}
		fmt.Fprintf(os.Stderr, "Imported %d animations\n", n)
	}

	out := fs.Arg(1)
	f := *format
	if f == "" && filepath.Ext(out) == "" {
		f = cfg.Export.Format
	}
	if err := s.ExportMesh(out, f, editor.ExportOptionsFromConfig(cfg.Export)); err != nil {
		fail("Error: %v", err)
	}
	fmt.Printf("Exported: %s (%d voxels)\n", out, s.Grid.Len())
}

func cmdWatch(args []string) {
	if len(args) < 1 {
		fail("Usage: tileforge watch <dir>")
	}
	if !cfg.Builder.WatchTextures {
		fail("Texture watching is disabled in the configuration")
	}

	tw, err := tilebuilder.NewTextureWatcher()
	if err != nil {
		fail("Error: %v", err)
	}
	defer tw.Close()
	for _, dir := range args {
		if err := tw.Watch(dir); err != nil {
			fail("Error: %v", err)
		}
	}

	b := tilebuilder.New(cfg.Builder, nil, args...)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	done := make(chan error, 1)
	go func() { done <- tw.Run(ctx) }()

	logger.Info("watching textures", zap.Strings("dirs", args))
	for path := range tw.Events() {
		b.TextureChanged(path)
		fmt.Printf("Changed: %s\n", path)
	}
	if err := <-done; err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("watcher stopped", zap.Error(err))
	}
}

func cmdConfig(args []string) {
	if len(args) < 1 || args[0] != "save" || len(args) > 2 {
		fail("Usage: tileforge config save [path]")
	}
	var path string
	if len(args) == 2 {
		path = args[1]
	}
	written, err := saveConfig(cfg, path)
	if err != nil {
		fail("Saving config: %v", err)
	}
	logger.Info("saved config", zap.String("path", written))
	fmt.Printf("Saved config to %s\n", written)
}

// saveConfig writes c to path, or to the user config file when path is
// empty, and returns where it went.
func saveConfig(c *config.Config, path string) (string, error) {
	if path == "" {
		return config.UserConfigFile(), c.Save()
	}
	return path, c.SaveTo(path)
}
