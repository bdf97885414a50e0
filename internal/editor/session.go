// Package editor drives voxel sculpting: placement tools, clipboard,
// rigging operations and their undo history over one scene.
package editor

import (
	"fmt"
	"image/color"
	"math/rand"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/tileforge/internal/config"
	"github.com/Faultbox/tileforge/internal/logger"
	"github.com/Faultbox/tileforge/pkg/rig"
	"github.com/Faultbox/tileforge/pkg/undo"
	"github.com/Faultbox/tileforge/pkg/voxel"
	"github.com/Faultbox/tileforge/pkg/voxelmesh"
)

// Options configure a new session.
type Options struct {
	VoxelSize float32
	Snapper   voxel.Snapper
	Symmetry  Symmetry
	Brush     BrushSettings
	Color     color.RGBA
	MaxUndo   int
	Seed      int64
}

// DefaultOptions returns a unit grid, no symmetry and the default brush.
func DefaultOptions() Options {
	return Options{
		VoxelSize: 1,
		Snapper:   voxel.DefaultSnapper(),
		Brush:     DefaultBrush(),
		Color:     color.RGBA{R: 255, G: 255, B: 255, A: 255},
		MaxUndo:   undo.DefaultMaxDepth,
		Seed:      time.Now().UnixNano(),
	}
}

// OptionsFromConfig maps the voxel section of the tool configuration.
func OptionsFromConfig(c config.VoxelConfig) (Options, error) {
	o := DefaultOptions()
	if c.VoxelSize > 0 {
		o.VoxelSize = c.VoxelSize
	}
	o.Snapper.GridSize = o.VoxelSize
	o.Snapper.BaseY = c.GridBaseY
	if c.Placement != "" {
		mode, err := voxel.ParseSnapMode(c.Placement)
		if err != nil {
			return o, err
		}
		o.Snapper.Mode = mode
	}

	o.Symmetry.Center = mgl32.Vec3(c.SymmetryCenter)
	if c.Symmetry != "" {
		sym, err := ParseSymmetryMode(c.Symmetry)
		if err != nil {
			return o, err
		}
		o.Symmetry.Mode = sym
	}
	o.Brush = BrushSettings{
		Size:           c.Brush.Size,
		Spherical:      c.Brush.Spherical,
		Randomize:      c.Brush.Randomize,
		RandomStrength: c.Brush.RandomStrength,
	}
	if c.MaxUndo > 0 {
		o.MaxUndo = c.MaxUndo
	}
	return o, nil
}

// ExportOptionsFromConfig maps the export section of the tool configuration.
func ExportOptionsFromConfig(c config.ExportConfig) voxelmesh.Options {
	o := voxelmesh.DefaultOptions()
	switch {
	case !c.MergeFaces && !c.ExternalOnly:
		o.Regime = voxelmesh.PerVoxel
	case !c.MergeFaces:
		o.Regime = voxelmesh.External
	}
	o.UseAtlas = c.UseAtlas
	if c.AtlasCellPx > 0 {
		o.CellSize = c.AtlasCellPx
	}
	o.TicksPerSecond = c.TicksPerSecond
	return o
}

// Snapshot is the undoable state of a session.
type Snapshot struct {
	Voxels     []voxel.Voxel
	Bones      []rig.Bone
	Animations []rig.Animation
}

// Session owns one voxel scene and its editing state. It is not safe for
// concurrent use.
type Session struct {
	Grid       *voxel.Grid
	Skeleton   *rig.Skeleton
	Animations *rig.Store
	History    *undo.Log[Snapshot]

	Snapper   voxel.Snapper
	Symmetry  Symmetry
	Brush     BrushSettings
	Color     color.RGBA
	VoxelSize float32

	OnSceneModified    func()
	OnSelectionChanged func()

	clipboard *Clipboard
	rng       *rand.Rand
	modified  bool
	log       *zap.Logger
}

// New returns an empty session.
func New(opts Options) *Session {
	if opts.VoxelSize <= 0 {
		opts.VoxelSize = 1
	}
	if opts.Snapper.GridSize <= 0 {
		opts.Snapper.GridSize = opts.VoxelSize
	}
	s := &Session{
		Grid:       voxel.NewGrid(),
		Skeleton:   rig.NewSkeleton(),
		Animations: rig.NewStore(),
		Snapper:    opts.Snapper,
		Symmetry:   opts.Symmetry,
		Brush:      opts.Brush,
		Color:      opts.Color,
		VoxelSize:  opts.VoxelSize,
		rng:        rand.New(rand.NewSource(opts.Seed)),
		log:        logger.Named("editor"),
	}
	s.History = undo.New(opts.MaxUndo, s.capture, s.restore, snapshotsEqual)
	return s
}

func (s *Session) capture() Snapshot {
	return Snapshot{
		Voxels:     s.Grid.Voxels(),
		Bones:      s.Skeleton.Bones(),
		Animations: s.Animations.All(),
	}
}

func (s *Session) restore(snap Snapshot) {
	s.Grid.SetVoxels(snap.Voxels)
	if err := s.Skeleton.SetBones(snap.Bones); err != nil {
		s.log.Error("restoring bones", zap.Error(err))
	}
	s.Animations.SetAll(snap.Animations)
}

func (s *Session) sceneModified() {
	s.modified = true
	if s.OnSceneModified != nil {
		s.OnSceneModified()
	}
}

func (s *Session) selectionChanged() {
	if s.OnSelectionChanged != nil {
		s.OnSelectionChanged()
	}
}

// Begin opens a named transaction. Tool calls made before End are recorded
// as one undo step.
func (s *Session) Begin(desc string) error {
	return s.History.Begin(desc)
}

// End commits the open transaction and reports whether it changed the
// scene.
func (s *Session) End() (bool, error) {
	changed, err := s.History.End()
	if err != nil {
		return false, err
	}
	if changed {
		s.sceneModified()
	}
	return changed, nil
}

// Abort discards the open transaction and restores the scene as it was at
// Begin.
func (s *Session) Abort() error {
	if err := s.History.Abort(); err != nil {
		return err
	}
	s.selectionChanged()
	return nil
}

// edit runs fn as one recorded step. Inside a caller's transaction fn just
// runs; the caller's End records it.
func (s *Session) edit(desc string, fn func() error) error {
	if s.History.InTransaction() {
		return fn()
	}
	if err := s.History.Begin(desc); err != nil {
		return err
	}
	if err := fn(); err != nil {
		if aerr := s.History.Abort(); aerr != nil {
			s.log.Error("aborting transaction", zap.String("desc", desc), zap.Error(aerr))
		}
		return err
	}
	_, err := s.End()
	return err
}

// Undo reverts the last recorded step. Selection is cleared.
func (s *Session) Undo() (bool, error) {
	return s.step(s.History.Undo)
}

// Redo reapplies the next recorded step. Selection is cleared.
func (s *Session) Redo() (bool, error) {
	return s.step(s.History.Redo)
}

func (s *Session) step(fn func() (bool, error)) (bool, error) {
	ok, err := fn()
	if !ok || err != nil {
		return ok, err
	}
	s.Grid.ClearSelection()
	s.Skeleton.Skin(s.Grid)
	s.sceneModified()
	s.selectionChanged()
	return true, nil
}

// Modified reports whether the scene changed since the last save or load.
func (s *Session) Modified() bool { return s.modified }

// MarkSaved clears the modified flag.
func (s *Session) MarkSaved() { s.modified = false }

// Save writes the voxels to a .voxels file.
func (s *Session) Save(path string) error {
	if err := s.Grid.Save(path); err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}
	s.MarkSaved()
	s.log.Info("saved voxels", zap.String("path", path), zap.Int("voxels", s.Grid.Len()))
	return nil
}

// Load replaces the scene with a .voxels file. Bones, animations and the
// undo history are reset. On error the scene is unchanged.
func (s *Session) Load(path string) error {
	g, err := voxel.Load(path)
	if err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	s.Grid = g
	s.Skeleton = rig.NewSkeleton()
	s.Animations = rig.NewStore()
	s.History.Clear()
	s.modified = false
	s.log.Info("loaded voxels", zap.String("path", path), zap.Int("voxels", g.Len()))
	if s.OnSceneModified != nil {
		s.OnSceneModified()
	}
	s.selectionChanged()
	return nil
}

// ExportMesh writes the scene as a mesh. Format "obj" writes a static
// mesh; "glb" and "gltf" write the rigged scene. An empty format is taken
// from the extension.
func (s *Session) ExportMesh(path, format string, opts voxelmesh.Options) error {
	if format == "" {
		format = strings.TrimPrefix(filepath.Ext(path), ".")
	}
	switch strings.ToLower(format) {
	case "obj":
		return voxelmesh.WriteOBJ(path, voxelmesh.BuildGrid(s.Grid, opts))
	default:
		return voxelmesh.ExportRigged(path, format, s.Grid.Voxels(), s.Skeleton, s.Animations, opts)
	}
}

// ExportAnimations writes every animation to a bundle file.
func (s *Session) ExportAnimations(path string) error {
	return s.Animations.ExportBundle(path)
}

// ImportAnimations appends the animations of a bundle file as one undo step.
func (s *Session) ImportAnimations(path string) (int, error) {
	var n int
	err := s.edit("Import animations", func() error {
		var err error
		n, err = s.Animations.ImportBundle(path)
		return err
	})
	return n, err
}
