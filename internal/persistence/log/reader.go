package log

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/klauspost/compress/zstd"

	"brickworld.dev/internal/game"
)

// ErrStop ends a scan early without reporting an error.
var ErrStop = errors.New("stop scan")

// Segments lists a writer's files in dir, oldest first.
func Segments(dir, prefix string) ([]string, error) {
	paths, err := filepath.Glob(filepath.Join(dir, prefix+"-*.jsonl.zst"))
	if err != nil {
		return nil, err
	}
	// Hour stamps sort lexically.
	sort.Strings(paths)
	return paths, nil
}

// ScanJSONL decodes every line of the zstd segments in order. fn may return
// ErrStop to end the scan.
func ScanJSONL(paths []string, fn func(path string, line []byte) error) error {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return err
	}
	defer dec.Close()

	for _, p := range paths {
		if err := scanFile(dec, p, fn); err != nil {
			if errors.Is(err, ErrStop) {
				return nil
			}
			return err
		}
	}
	return nil
}

func scanFile(dec *zstd.Decoder, path string, fn func(string, []byte) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := dec.Reset(f); err != nil {
		return fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
	for sc.Scan() {
		if len(sc.Bytes()) == 0 {
			continue
		}
		if err := fn(path, sc.Bytes()); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return nil
}

// ReadTicks streams the tick log under runDir in tick order.
func ReadTicks(runDir string, fn func(game.TickLogEntry) error) error {
	paths, err := Segments(filepath.Join(runDir, "ticks"), "ticks")
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no tick log under %s", runDir)
	}
	return ScanJSONL(paths, func(path string, line []byte) error {
		var e game.TickLogEntry
		if err := json.Unmarshal(line, &e); err != nil {
			return fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
		return fn(e)
	})
}

// ReadMilestones returns every milestone logged under runDir.
func ReadMilestones(runDir string) ([]game.Milestone, error) {
	paths, err := Segments(filepath.Join(runDir, "milestones"), "milestones")
	if err != nil {
		return nil, err
	}
	var out []game.Milestone
	err = ScanJSONL(paths, func(path string, line []byte) error {
		var m game.Milestone
		if err := json.Unmarshal(line, &m); err != nil {
			return fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
		out = append(out, m)
		return nil
	})
	return out, err
}
