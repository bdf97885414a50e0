package formats

import (
	"encoding/json"
	"fmt"
	"math"
)

// KeyframeJSON is one keyframe. Rotation is a quaternion in x, y, z, w
// order; older files carry only x, y, z.
type KeyframeJSON struct {
	Time     float32    `json:"time"`
	Position [3]float32 `json:"position"`
	Rotation []float32  `json:"rotation"`
	Scale    [3]float32 `json:"scale"`
}

// TrackJSON is the keyframe list for one bone.
type TrackJSON struct {
	BoneID    int            `json:"boneId"`
	Keyframes []KeyframeJSON `json:"keyframes"`
}

// AnimationJSON is a single animation document.
type AnimationJSON struct {
	Name     string      `json:"name"`
	Duration float32     `json:"duration"`
	Looping  bool        `json:"looping"`
	Tracks   []TrackJSON `json:"tracks"`
}

// AnimationBundle holds several animations.
type AnimationBundle struct {
	Version    string          `json:"version"`
	Animations []AnimationJSON `json:"animations"`
}

// RotationXYZW returns the keyframe rotation as a full quaternion. A
// three-component rotation is completed with w = sqrt(max(0, 1-|v|²)).
func (k KeyframeJSON) RotationXYZW() ([4]float32, error) {
	switch len(k.Rotation) {
	case 4:
		return [4]float32{k.Rotation[0], k.Rotation[1], k.Rotation[2], k.Rotation[3]}, nil
	case 3:
		x, y, z := k.Rotation[0], k.Rotation[1], k.Rotation[2]
		w := float32(math.Sqrt(math.Max(0, float64(1-(x*x+y*y+z*z)))))
		return [4]float32{x, y, z, w}, nil
	case 0:
		return [4]float32{0, 0, 0, 1}, nil
	default:
		return [4]float32{}, fmt.Errorf("%w: rotation has %d components", ErrParse, len(k.Rotation))
	}
}

// ParseAnimation decodes a single animation document.
func ParseAnimation(data []byte) (*AnimationJSON, error) {
	var a AnimationJSON
	if err := decodeJSON(data, &a); err != nil {
		return nil, err
	}
	if err := a.validate(); err != nil {
		return nil, err
	}
	return &a, nil
}

// ParseAnimationBundle decodes a bundle. A bare animation object is
// accepted as a bundle of one.
func ParseAnimationBundle(data []byte) (*AnimationBundle, error) {
	var keys map[string]json.RawMessage
	if err := decodeJSON(data, &keys); err != nil {
		return nil, err
	}
	if _, ok := keys["animations"]; !ok {
		a, err := ParseAnimation(data)
		if err != nil {
			return nil, err
		}
		return &AnimationBundle{Version: Version, Animations: []AnimationJSON{*a}}, nil
	}

	var b AnimationBundle
	if err := decodeJSON(data, &b); err != nil {
		return nil, err
	}
	for i := range b.Animations {
		if err := b.Animations[i].validate(); err != nil {
			return nil, fmt.Errorf("animation %d: %w", i, err)
		}
	}
	return &b, nil
}

func (a *AnimationJSON) validate() error {
	for _, tr := range a.Tracks {
		for _, k := range tr.Keyframes {
			if _, err := k.RotationXYZW(); err != nil {
				return err
			}
		}
	}
	return nil
}

// LoadAnimationBundle reads a bundle or single-animation file.
func LoadAnimationBundle(path string) (*AnimationBundle, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	return ParseAnimationBundle(data)
}

// Save writes a single animation to path.
func (a *AnimationJSON) Save(path string) error {
	return writeJSONFile(path, a)
}

// Save writes the bundle to path.
func (b *AnimationBundle) Save(path string) error {
	if b.Version == "" {
		b.Version = Version
	}
	if b.Animations == nil {
		b.Animations = []AnimationJSON{}
	}
	return writeJSONFile(path, b)
}
