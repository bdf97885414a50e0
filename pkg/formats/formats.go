// Package formats reads and writes the tile, voxel and animation file formats:
// wavefront OBJ/MTL, .voxels scenes, animation JSON and sparse .3dtilemap files.
package formats

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/Faultbox/tileforge/internal/assets"
)

// ErrParse is returned when a document is malformed.
var ErrParse = errors.New("parse error")

// Version is written into every versioned JSON document.
const Version = "1.0"

// decodeJSON unmarshals data into v, wrapping failures in ErrParse.
func decodeJSON(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", ErrParse, err)
	}
	return nil
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}

// readJSONFile reads path and decodes it into v.
func readJSONFile(path string, v any) error {
	data, err := readFile(path)
	if err != nil {
		return err
	}
	return decodeJSON(data, v)
}

// writeJSONFile encodes v with indentation and writes it atomically.
func writeJSONFile(path string, v any) error {
	return assets.WriteAtomic(path, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	})
}

// ff formats a float with the shortest exact representation.
func ff(f float32) string {
	return strconv.FormatFloat(float64(f), 'f', -1, 32)
}
