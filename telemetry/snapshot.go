package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SnapshotVersion is incremented when the format changes.
const SnapshotVersion = 1

// Snapshot holds the environment state at an episode boundary.
type Snapshot struct {
	Version int    `json:"version"`
	RunID   string `json:"run_id"`
	Seed    int64  `json:"seed"`
	Episode int    `json:"episode"`
	Step    int    `json:"step"`

	Agent   AgentState    `json:"agent"`
	Flowers []FlowerState `json:"flowers"`

	Bookmark *Bookmark `json:"bookmark,omitempty"`
}

// AgentState holds the agent's pose and episode accumulators.
type AgentState struct {
	Position      [3]float64 `json:"position"`
	Rotation      [4]float64 `json:"rotation"` // x, y, z, w
	Velocity      [3]float64 `json:"velocity"`
	EpisodeNectar float64    `json:"episode_nectar"`
	SmoothPitch   float64    `json:"smooth_pitch"`
	SmoothYaw     float64    `json:"smooth_yaw"`
	Nearest       int        `json:"nearest"` // -1 when unset
}

// FlowerState holds one flower's pose and remaining nectar.
type FlowerState struct {
	Sensor   uint32     `json:"sensor"`
	Group    string     `json:"group,omitempty"`
	Amount   float64    `json:"amount"`
	Position [3]float64 `json:"position"`
	Up       [3]float64 `json:"up"`
}

// SaveSnapshot writes a snapshot to disk.
// Returns the filepath where it was saved.
func SaveSnapshot(snapshot *Snapshot, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	name := fmt.Sprintf("snapshot_%d", snapshot.Episode)
	if snapshot.Bookmark != nil {
		// Sanitize bookmark type for filename
		sanitized := strings.ReplaceAll(string(snapshot.Bookmark.Type), " ", "_")
		name = fmt.Sprintf("snapshot_%d_%s", snapshot.Episode, sanitized)
	}
	name += ".json"

	path := filepath.Join(dir, name)

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}

	return path, nil
}

// LoadSnapshot reads a snapshot from disk.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	if snapshot.Version != SnapshotVersion {
		return nil, fmt.Errorf("snapshot version %d, want %d", snapshot.Version, SnapshotVersion)
	}

	return &snapshot, nil
}
