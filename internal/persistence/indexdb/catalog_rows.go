package indexdb

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"

	"brickworld.dev/internal/sim/catalogs"
	"brickworld.dev/internal/sim/level"
	"brickworld.dev/internal/sim/tuning"
)

type catalogRow struct {
	name   string
	digest string
	data   []byte
}

// catalogRows collects everything a run was configured with: the raw thing
// catalog, the tuning actually applied and every level document.
func catalogRows(configDir string, cats *catalogs.Catalogs, tune tuning.Tuning, levels *level.Set) []catalogRow {
	var rows []catalogRow
	if cats != nil {
		if b, err := os.ReadFile(filepath.Join(configDir, "things.json")); err == nil && configDir != "" {
			rows = append(rows, catalogRow{name: "things", digest: cats.Things.Digest, data: b})
		}
		if b, err := json.Marshal(cats.Things.Kinds); err == nil {
			rows = append(rows, catalogRow{name: "thing_kinds", digest: cats.Things.Digest, data: b})
		}
	}
	if b, err := json.Marshal(tune); err == nil {
		rows = append(rows, catalogRow{name: "tuning", digest: digestOf(b), data: b})
	}
	if levels != nil {
		for _, id := range levels.IDs() {
			l, _ := levels.Get(id)
			b, err := json.Marshal(l.Doc)
			if err != nil {
				continue
			}
			rows = append(rows, catalogRow{name: "level:" + id, digest: digestOf(b), data: b})
		}
	}
	return rows
}

func digestOf(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
