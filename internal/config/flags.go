package config

import (
	"flag"
	"strings"
)

var (
	flagConfig    = flag.String("config", "", "Path to config file")
	flagDebug     = flag.Bool("debug", false, "Enable debug logging")
	flagVoxelSize = flag.Float64("voxel-size", 0, "Voxel edge length")
	flagSymmetry  = flag.String("symmetry", "", "Symmetry mode (none, x, y, z, xy, xz, yz, xyz)")
	flagFormat    = flag.String("format", "", "Export format (obj, glb, gltf)")
	flagNoAtlas   = flag.Bool("no-atlas", false, "Export vertex colors instead of a color atlas")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagVoxelSize > 0 {
		cfg.Voxel.VoxelSize = float32(*flagVoxelSize)
	}
	if *flagSymmetry != "" {
		cfg.Voxel.Symmetry = strings.ToLower(*flagSymmetry)
	}
	if *flagFormat != "" {
		cfg.Export.Format = strings.ToLower(*flagFormat)
	}
	if *flagNoAtlas {
		cfg.Export.UseAtlas = false
	}
}
