// Package archive writes the summary file that closes a run directory.
package archive

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"brickworld.dev/internal/game"
)

const summaryFile = "summary.json"

// RunSummary records how a run ended. cmd/replay checks FinalDigest after
// re-simulating the tick log.
type RunSummary struct {
	RunID       string         `json:"run_id"`
	StartLevel  string         `json:"start_level"`
	Level       string         `json:"level"`
	Ticks       uint64         `json:"ticks"`
	FinalDigest string         `json:"final_digest"`
	Score       int            `json:"score"`
	Health      int            `json:"health"`
	GameOver    bool           `json:"game_over"`
	Milestones  map[string]int `json:"milestones,omitempty"`
	CreatedAt   string         `json:"created_at"`
}

// Summarize builds a summary from the run's final game state and milestone log.
func Summarize(runID, startLevel string, g *game.Game, milestones []game.Milestone) RunSummary {
	s := RunSummary{
		RunID:       runID,
		StartLevel:  startLevel,
		Level:       g.Level().ID,
		Ticks:       g.Tick(),
		FinalDigest: g.Digest(),
		Score:       g.Player().Score(),
		Health:      g.Player().Health(),
		GameOver:    g.Over(),
		CreatedAt:   time.Now().UTC().Format(time.RFC3339Nano),
	}
	if len(milestones) > 0 {
		s.Milestones = map[string]int{}
		for _, m := range milestones {
			s.Milestones[string(m.Kind)]++
		}
	}
	return s
}

// WriteRunSummary writes runDir/summary.json through a temp file and rename.
func WriteRunSummary(runDir string, s RunSummary) error {
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return err
	}
	tmp := filepath.Join(runDir, summaryFile+".tmp")
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, filepath.Join(runDir, summaryFile))
}

// ReadRunSummary returns os.ErrNotExist (wrapped) when the run never closed cleanly.
func ReadRunSummary(runDir string) (RunSummary, error) {
	var s RunSummary
	b, err := os.ReadFile(filepath.Join(runDir, summaryFile))
	if err != nil {
		return s, err
	}
	if err := json.Unmarshal(b, &s); err != nil {
		return s, fmt.Errorf("%s: %w", summaryFile, err)
	}
	return s, nil
}
