package formats

import "encoding/json"

// VoxelRecord is one voxel in a .voxels file.
type VoxelRecord struct {
	X    float32 `json:"x"`
	Y    float32 `json:"y"`
	Z    float32 `json:"z"`
	R    uint8   `json:"r"`
	G    uint8   `json:"g"`
	B    uint8   `json:"b"`
	Size float32 `json:"size"`
}

// VoxelScene is the .voxels document.
type VoxelScene struct {
	Voxels []VoxelRecord `json:"voxels"`
}

// UnmarshalJSON defaults a missing size to 1.
func (r *VoxelRecord) UnmarshalJSON(data []byte) error {
	type plain VoxelRecord
	p := plain{Size: 1}
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*r = VoxelRecord(p)
	return nil
}

// ParseVoxelScene decodes a .voxels document.
func ParseVoxelScene(data []byte) (*VoxelScene, error) {
	var s VoxelScene
	if err := decodeJSON(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadVoxelScene reads a .voxels file.
func LoadVoxelScene(path string) (*VoxelScene, error) {
	var s VoxelScene
	if err := readJSONFile(path, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Save writes the scene to path.
func (s *VoxelScene) Save(path string) error {
	if s.Voxels == nil {
		s.Voxels = []VoxelRecord{}
	}
	return writeJSONFile(path, s)
}
