package catalog

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/tileforge/internal/assets"
	"github.com/Faultbox/tileforge/internal/logger"
	tfmath "github.com/Faultbox/tileforge/pkg/math"
)

// FileType is the "type" tag of a tileset document.
const FileType = "Tileset3D"

type catalogJSON struct {
	Type        string            `json:"type"`
	Version     string            `json:"version"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Tiles       []json.RawMessage `json:"tiles"`
	Categories  []categoryJSON    `json:"categories"`
}

type transformJSON struct {
	Position [3]float32 `json:"position"`
	Rotation [4]float32 `json:"rotation"` // w, x, y, z
	Scale    [3]float32 `json:"scale"`
}

type collisionJSON struct {
	Type              int        `json:"type"`
	Offset            [3]float32 `json:"offset"`
	Size              [3]float32 `json:"size"`
	CollisionMeshPath string     `json:"collision_mesh_path"`
	Margin            float32    `json:"margin"`
}

type entryJSON struct {
	ID               *int                       `json:"id"`
	Name             string                     `json:"name"`
	MeshPath         string                     `json:"mesh_path"`
	PreviewImagePath string                     `json:"preview_image_path"`
	DefaultTransform *transformJSON             `json:"default_transform,omitempty"`
	Collision        *collisionJSON             `json:"collision,omitempty"`
	CustomData       map[string]json.RawMessage `json:"custom_data"`
}

type categoryJSON struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	TileIDs     []int  `json:"tile_ids"`
}

func transformToJSON(t tfmath.Transform) *transformJSON {
	return &transformJSON{
		Position: t.Translation,
		Rotation: [4]float32{t.Rotation.W, t.Rotation.V[0], t.Rotation.V[1], t.Rotation.V[2]},
		Scale:    t.Scale,
	}
}

func (j *transformJSON) toTransform() tfmath.Transform {
	if j == nil {
		return tfmath.Identity()
	}
	t := tfmath.Transform{
		Translation: j.Position,
		Rotation:    mgl32.Quat{W: j.Rotation[0], V: mgl32.Vec3{j.Rotation[1], j.Rotation[2], j.Rotation[3]}},
		Scale:       j.Scale,
	}
	if t.Rotation.Len() == 0 {
		t.Rotation = mgl32.QuatIdent()
	}
	return t
}

// MarshalJSON writes the tileset document with tiles sorted by id.
func (c *Catalog) MarshalJSON() ([]byte, error) {
	doc := catalogJSON{
		Type:        FileType,
		Version:     c.Version,
		Name:        c.Name,
		Description: c.Description,
		Tiles:       make([]json.RawMessage, 0, len(c.tiles)),
		Categories:  make([]categoryJSON, 0, len(c.categories)),
	}

	for _, id := range c.IDs() {
		e := c.tiles[id]
		ej := entryJSON{
			ID:               &e.ID,
			Name:             e.Name,
			MeshPath:         e.MeshPath,
			PreviewImagePath: e.PreviewPath,
			DefaultTransform: transformToJSON(e.DefaultTransform),
			Collision: &collisionJSON{
				Type:              int(e.Collision.Kind),
				Offset:            e.Collision.Offset,
				Size:              e.Collision.Size,
				CollisionMeshPath: e.Collision.MeshPath,
				Margin:            e.Collision.Margin,
			},
			CustomData: make(map[string]json.RawMessage, len(e.CustomData)),
		}
		for k, v := range e.CustomData {
			raw, err := json.Marshal(v)
			if err != nil {
				return nil, fmt.Errorf("tile %d custom data %q: %w", e.ID, k, err)
			}
			ej.CustomData[k] = raw
		}
		raw, err := json.Marshal(ej)
		if err != nil {
			return nil, err
		}
		doc.Tiles = append(doc.Tiles, raw)
	}

	for _, cat := range c.Categories() {
		ids := slices.Clone(cat.TileIDs)
		if ids == nil {
			ids = []int{}
		}
		doc.Categories = append(doc.Categories, categoryJSON{Name: cat.Name, Description: cat.Description, TileIDs: ids})
	}

	return json.MarshalIndent(doc, "", "  ")
}

// UnmarshalJSON replaces the catalog with the decoded document. On a
// document-level error the catalog is left unchanged. Malformed entries,
// including entries with an unreadable custom value, are skipped with a warning.
func (c *Catalog) UnmarshalJSON(data []byte) error {
	log := logger.Named("catalog")

	var doc catalogJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrParse, err)
	}
	if doc.Type != FileType {
		return fmt.Errorf("%w: expected type %q, got %q", ErrParse, FileType, doc.Type)
	}

	next := New(doc.Name)
	next.Description = doc.Description
	if doc.Version != "" {
		next.Version = doc.Version
	}

	for i, raw := range doc.Tiles {
		e, err := decodeEntry(raw)
		if err != nil {
			log.Warn("skipping tile entry", zap.Int("index", i), zap.Error(err))
			continue
		}
		if _, dup := next.tiles[e.ID]; dup {
			log.Warn("skipping duplicate tile id", zap.Int("id", e.ID))
			continue
		}
		next.tiles[e.ID] = e
	}

	for _, cj := range doc.Categories {
		cat := &Category{Name: cj.Name, Description: cj.Description, TileIDs: make([]int, 0, len(cj.TileIDs))}
		for _, id := range cj.TileIDs {
			if _, ok := next.tiles[id]; !ok {
				log.Warn("dropping unknown tile from category", zap.String("category", cj.Name), zap.Int("id", id))
				continue
			}
			if !slices.Contains(cat.TileIDs, id) {
				cat.TileIDs = append(cat.TileIDs, id)
			}
		}
		next.categories[cat.Name] = cat
	}

	*c = *next
	return nil
}

func decodeEntry(raw json.RawMessage) (*Entry, error) {
	var ej entryJSON
	if err := json.Unmarshal(raw, &ej); err != nil {
		return nil, err
	}
	if ej.ID == nil {
		return nil, fmt.Errorf("%w: missing id", ErrInvalidEntry)
	}

	e := NewEntry(*ej.ID, ej.Name)
	e.MeshPath = ej.MeshPath
	e.PreviewPath = ej.PreviewImagePath
	e.DefaultTransform = ej.DefaultTransform.toTransform()
	if ej.Collision != nil {
		e.Collision = Collision{
			Kind:     CollisionKind(ej.Collision.Type),
			Offset:   ej.Collision.Offset,
			Size:     ej.Collision.Size,
			MeshPath: ej.Collision.CollisionMeshPath,
			Margin:   ej.Collision.Margin,
		}
	}

	for k, rv := range ej.CustomData {
		var v Value
		if err := json.Unmarshal(rv, &v); err != nil {
			return nil, fmt.Errorf("custom data %q: %w", k, err)
		}
		e.CustomData[k] = v
	}

	if err := e.Validate(); err != nil {
		return nil, err
	}
	return e, nil
}

// Marshal encodes the catalog.
func (c *Catalog) Marshal() ([]byte, error) { return c.MarshalJSON() }

// Unmarshal decodes data into the catalog.
func (c *Catalog) Unmarshal(data []byte) error { return c.UnmarshalJSON(data) }

// Load reads a tileset file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	c := New("")
	if err := c.Unmarshal(data); err != nil {
		return nil, err
	}
	return c, nil
}

// Save writes the catalog to path and clears the modified flag.
func (c *Catalog) Save(path string) error {
	data, err := c.Marshal()
	if err != nil {
		return err
	}
	if err := assets.WriteAtomic(path, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	}); err != nil {
		return err
	}
	c.modified = false
	return nil
}
