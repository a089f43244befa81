package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"brickworld.dev/internal/game"
	"brickworld.dev/internal/persistence/indexdb"
	"brickworld.dev/internal/sim/catalogs"
	"brickworld.dev/internal/sim/level"
	"brickworld.dev/internal/sim/tuning"
)

type runtimeIndex interface {
	game.Recorder
	Close() error
	UpsertCatalogs(configDir string, cats *catalogs.Catalogs, tune tuning.Tuning, levels *level.Set) error
}

func openRuntimeIndex(runDir, runID string, disableDB bool, logger *log.Logger) (runtimeIndex, error) {
	if disableDB {
		return nil, nil
	}

	backend := strings.ToLower(strings.TrimSpace(os.Getenv("BW_INDEX_BACKEND")))
	if backend == "" {
		backend = "sqlite"
	}

	switch backend {
	case "none", "off", "disabled":
		return nil, nil
	case "sqlite":
		dbPath := filepath.Join(runDir, "index", "run.sqlite")
		return indexdb.OpenSQLite(dbPath)
	case "d1":
		endpoint := strings.TrimSpace(os.Getenv("BW_INDEX_D1_INGEST_URL"))
		token := strings.TrimSpace(os.Getenv("BW_INDEX_D1_TOKEN"))
		if endpoint == "" {
			return nil, fmt.Errorf("BW_INDEX_BACKEND=d1 but BW_INDEX_D1_INGEST_URL is empty")
		}
		flushMS := envInt("BW_INDEX_D1_FLUSH_MS", 500)
		batchSize := envInt("BW_INDEX_D1_BATCH_SIZE", 128)
		return indexdb.OpenD1(indexdb.D1Config{
			Endpoint:      endpoint,
			Token:         token,
			RunID:         runID,
			BatchSize:     batchSize,
			FlushInterval: time.Duration(flushMS) * time.Millisecond,
			Logger:        logger,
		})
	default:
		return nil, fmt.Errorf("unsupported BW_INDEX_BACKEND: %s", backend)
	}
}

func envInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envBool(key string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return def
	}
}
