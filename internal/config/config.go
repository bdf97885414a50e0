// Package config handles tool configuration loading and management.
package config

// Config holds all tool settings.
type Config struct {
	Geometry GeometryConfig `yaml:"geometry" toml:"geometry"`
	Voxel    VoxelConfig    `yaml:"voxel" toml:"voxel"`
	Export   ExportConfig   `yaml:"export" toml:"export"`
	Tilemap  TilemapConfig  `yaml:"tilemap" toml:"tilemap"`
	Builder  BuilderConfig  `yaml:"builder" toml:"builder"`
	Logging  LoggingConfig  `yaml:"logging" toml:"logging"`
}

// GeometryConfig holds primitive generation defaults.
type GeometryConfig struct {
	Subdivisions int     `yaml:"subdivisions" toml:"subdivisions"`
	UVScale      float32 `yaml:"uv_scale" toml:"uv_scale"`
	GenerateUVs  bool    `yaml:"generate_uvs" toml:"generate_uvs"`
}

// BrushConfig holds brush tool settings.
type BrushConfig struct {
	Size           float32 `yaml:"size" toml:"size"`
	Spherical      bool    `yaml:"spherical" toml:"spherical"`
	Randomize      bool    `yaml:"randomize" toml:"randomize"`
	RandomStrength float32 `yaml:"random_strength" toml:"random_strength"`
}

// VoxelConfig holds voxel editor settings.
type VoxelConfig struct {
	VoxelSize      float32     `yaml:"voxel_size" toml:"voxel_size"`
	GridBaseY      float32     `yaml:"grid_base_y" toml:"grid_base_y"`
	Placement      string      `yaml:"placement" toml:"placement"` // grid, face, free
	Symmetry       string      `yaml:"symmetry" toml:"symmetry"`   // none, x, y, z, xy, xz, yz, xyz
	SymmetryCenter [3]float32  `yaml:"symmetry_center" toml:"symmetry_center"`
	Brush          BrushConfig `yaml:"brush" toml:"brush"`
	MaxUndo        int         `yaml:"max_undo" toml:"max_undo"`
}

// ExportConfig holds mesh export settings.
type ExportConfig struct {
	Format         string  `yaml:"format" toml:"format"` // obj, glb, gltf
	MergeFaces     bool    `yaml:"merge_faces" toml:"merge_faces"`
	ExternalOnly   bool    `yaml:"external_only" toml:"external_only"`
	UseAtlas       bool    `yaml:"use_atlas" toml:"use_atlas"`
	AtlasCellPx    int     `yaml:"atlas_cell_px" toml:"atlas_cell_px"`
	TicksPerSecond float32 `yaml:"ticks_per_second" toml:"ticks_per_second"`
}

// TilemapConfig holds tilemap runtime defaults.
type TilemapConfig struct {
	CullingDistance float32 `yaml:"culling_distance" toml:"culling_distance"`
	FrustumCulling  bool    `yaml:"frustum_culling" toml:"frustum_culling"`
}

// BuilderConfig holds tile builder settings.
type BuilderConfig struct {
	AssetsDir        string `yaml:"assets_dir" toml:"assets_dir"`
	TemplateSize     int    `yaml:"template_size" toml:"template_size"`
	FaceTemplateSize int    `yaml:"face_template_size" toml:"face_template_size"`
	PreviewSize      int    `yaml:"preview_size" toml:"preview_size"`
	WatchTextures    bool   `yaml:"watch_textures" toml:"watch_textures"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level" toml:"level"`
	LogFile string `yaml:"log_file" toml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Geometry: GeometryConfig{
			Subdivisions: 16,
			UVScale:      1,
			GenerateUVs:  true,
		},
		Voxel: VoxelConfig{
			VoxelSize: 1,
			GridBaseY: 0,
			Placement: "grid",
			Symmetry:  "none",
			Brush: BrushConfig{
				Size:           2,
				Spherical:      true,
				Randomize:      false,
				RandomStrength: 0.1,
			},
			MaxUndo: 100,
		},
		Export: ExportConfig{
			Format:         "obj",
			MergeFaces:     true,
			ExternalOnly:   true,
			UseAtlas:       true,
			AtlasCellPx:    64,
			TicksPerSecond: 30,
		},
		Tilemap: TilemapConfig{
			CullingDistance: 100,
			FrustumCulling:  true,
		},
		Builder: BuilderConfig{
			AssetsDir:        "tile_assets",
			TemplateSize:     512,
			FaceTemplateSize: 256,
			PreviewSize:      128,
			WatchTextures:    true,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
