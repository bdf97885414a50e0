// Package catalog manages tile catalogs (*.tileset3d): ID-indexed tile
// descriptors with transforms, collision shapes, custom data and categories.
package catalog

import (
	"errors"
	"fmt"
	"slices"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/samber/lo"

	tfmath "github.com/Faultbox/tileforge/pkg/math"
)

// Catalog errors.
var (
	ErrParse           = errors.New("catalog parse error")
	ErrUnknownTile     = errors.New("unknown tile")
	ErrUnknownCategory = errors.New("unknown category")
	ErrDuplicateTile   = errors.New("duplicate tile id")
	ErrInvalidEntry    = errors.New("invalid tile entry")
)

// CollisionKind is the collision shape type.
type CollisionKind int

// Collision kinds.
const (
	CollisionNone CollisionKind = iota
	CollisionBox
	CollisionSphere
	CollisionMesh
	CollisionConvexHull
	CollisionCustom
)

// Valid reports whether k is one of the known kinds.
func (k CollisionKind) Valid() bool {
	return k >= CollisionNone && k <= CollisionCustom
}

// String returns the kind name.
func (k CollisionKind) String() string {
	switch k {
	case CollisionNone:
		return "None"
	case CollisionBox:
		return "Box"
	case CollisionSphere:
		return "Sphere"
	case CollisionMesh:
		return "Mesh"
	case CollisionConvexHull:
		return "ConvexHull"
	case CollisionCustom:
		return "Custom"
	default:
		return fmt.Sprintf("Unknown(%d)", int(k))
	}
}

// Collision describes a tile's physics shape. Only the descriptor is stored.
type Collision struct {
	Kind     CollisionKind
	Offset   mgl32.Vec3
	Size     mgl32.Vec3
	MeshPath string
	Margin   float32
}

// DefaultCollision is a unit box.
func DefaultCollision() Collision {
	return Collision{Kind: CollisionBox, Size: mgl32.Vec3{1, 1, 1}, Margin: 0.04}
}

// Entry is one tile descriptor.
type Entry struct {
	ID               int
	Name             string
	MeshPath         string
	PreviewPath      string
	DefaultTransform tfmath.Transform
	Collision        Collision
	CustomData       map[string]Value
}

// NewEntry returns an entry with identity transform and default collision.
func NewEntry(id int, name string) *Entry {
	return &Entry{
		ID:               id,
		Name:             name,
		DefaultTransform: tfmath.Identity(),
		Collision:        DefaultCollision(),
		CustomData:       make(map[string]Value),
	}
}

// Validate reports an entry that cannot be stored.
func (e *Entry) Validate() error {
	if e.ID < 0 {
		return fmt.Errorf("%w: negative id %d", ErrInvalidEntry, e.ID)
	}
	if e.Name == "" {
		return fmt.Errorf("%w: tile %d has no name", ErrInvalidEntry, e.ID)
	}
	if !e.Collision.Kind.Valid() {
		return fmt.Errorf("%w: tile %d has collision type %d", ErrInvalidEntry, e.ID, int(e.Collision.Kind))
	}
	return nil
}

// Category groups tile ids under a name.
type Category struct {
	Name        string
	Description string
	TileIDs     []int
}

// Catalog is a named collection of tiles.
type Catalog struct {
	Name        string
	Description string
	Version     string

	tiles      map[int]*Entry
	categories map[string]*Category
	modified   bool
}

// New creates an empty catalog.
func New(name string) *Catalog {
	return &Catalog{
		Name:       name,
		Version:    "1.0",
		tiles:      make(map[int]*Entry),
		categories: make(map[string]*Category),
	}
}

// Modified reports unsaved changes.
func (c *Catalog) Modified() bool { return c.modified }

// ClearModified marks the catalog as saved.
func (c *Catalog) ClearModified() { c.modified = false }

// AddTile inserts or replaces the tile with e.ID.
func (c *Catalog) AddTile(e *Entry) error {
	if err := e.Validate(); err != nil {
		return err
	}
	if e.CustomData == nil {
		e.CustomData = make(map[string]Value)
	}
	c.tiles[e.ID] = e
	c.modified = true
	return nil
}

// InsertTile adds e and fails if the id is taken.
func (c *Catalog) InsertTile(e *Entry) error {
	if _, ok := c.tiles[e.ID]; ok {
		return fmt.Errorf("%w: %d", ErrDuplicateTile, e.ID)
	}
	return c.AddTile(e)
}

// RemoveTile deletes a tile and every category reference to it.
func (c *Catalog) RemoveTile(id int) bool {
	if _, ok := c.tiles[id]; !ok {
		return false
	}
	for _, cat := range c.categories {
		cat.TileIDs = lo.Without(cat.TileIDs, id)
	}
	delete(c.tiles, id)
	c.modified = true
	return true
}

// Tile returns the tile with the given id.
func (c *Catalog) Tile(id int) (*Entry, bool) {
	e, ok := c.tiles[id]
	return e, ok
}

// TileByName returns the first tile (lowest id) with the given name.
func (c *Catalog) TileByName(name string) (*Entry, bool) {
	for _, id := range c.IDs() {
		if e := c.tiles[id]; e.Name == name {
			return e, true
		}
	}
	return nil, false
}

// Len returns the number of tiles.
func (c *Catalog) Len() int { return len(c.tiles) }

// NextID returns one past the highest id, or 0 for an empty catalog.
func (c *Catalog) NextID() int {
	if len(c.tiles) == 0 {
		return 0
	}
	return lo.Max(lo.Keys(c.tiles)) + 1
}

// IDs returns the tile ids in ascending order.
func (c *Catalog) IDs() []int {
	ids := lo.Keys(c.tiles)
	slices.Sort(ids)
	return ids
}

// Names returns tile names ordered by id.
func (c *Catalog) Names() []string {
	return lo.Map(c.IDs(), func(id int, _ int) string { return c.tiles[id].Name })
}

// AddCategory creates or replaces a category. Unknown ids are dropped.
func (c *Catalog) AddCategory(name, description string, ids ...int) {
	c.categories[name] = &Category{
		Name:        name,
		Description: description,
		TileIDs:     lo.Uniq(lo.Filter(ids, func(id int, _ int) bool { _, ok := c.tiles[id]; return ok })),
	}
	c.modified = true
}

// RemoveCategory deletes a category. Tiles are not affected.
func (c *Catalog) RemoveCategory(name string) bool {
	if _, ok := c.categories[name]; !ok {
		return false
	}
	delete(c.categories, name)
	c.modified = true
	return true
}

// Category returns a category by name.
func (c *Catalog) Category(name string) (*Category, bool) {
	cat, ok := c.categories[name]
	return cat, ok
}

// Categories returns the categories sorted by name.
func (c *Catalog) Categories() []*Category {
	names := lo.Keys(c.categories)
	slices.Sort(names)
	return lo.Map(names, func(n string, _ int) *Category { return c.categories[n] })
}

// AddToCategory assigns a tile to a category. Assigning twice is a no-op.
func (c *Catalog) AddToCategory(id int, category string) error {
	cat, ok := c.categories[category]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCategory, category)
	}
	if _, ok := c.tiles[id]; !ok {
		return fmt.Errorf("%w: %d", ErrUnknownTile, id)
	}
	if !lo.Contains(cat.TileIDs, id) {
		cat.TileIDs = append(cat.TileIDs, id)
		c.modified = true
	}
	return nil
}

// RemoveFromCategory unassigns a tile. Removing an absent id is a no-op.
func (c *Catalog) RemoveFromCategory(id int, category string) error {
	cat, ok := c.categories[category]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCategory, category)
	}
	if lo.Contains(cat.TileIDs, id) {
		cat.TileIDs = lo.Without(cat.TileIDs, id)
		c.modified = true
	}
	return nil
}

// TileCategories lists the categories a tile belongs to, sorted by name.
func (c *Catalog) TileCategories(id int) []string {
	var out []string
	for _, cat := range c.Categories() {
		if lo.Contains(cat.TileIDs, id) {
			out = append(out, cat.Name)
		}
	}
	return out
}
