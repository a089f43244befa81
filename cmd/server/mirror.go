package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"brickworld.dev/internal/persistence/objstore"
)

// buildMirror returns nil unless BW_MIRROR is set.
func buildMirror(dataDir string, logger *log.Logger) (*objstore.Mirror, error) {
	if !envBool("BW_MIRROR", false) {
		return nil, nil
	}
	cfg := objstore.Config{
		Endpoint:        strings.TrimSpace(os.Getenv("BW_MIRROR_ENDPOINT")),
		Bucket:          strings.TrimSpace(os.Getenv("BW_MIRROR_BUCKET")),
		Region:          strings.TrimSpace(os.Getenv("BW_MIRROR_REGION")),
		AccessKeyID:     strings.TrimSpace(os.Getenv("BW_MIRROR_ACCESS_KEY_ID")),
		SecretAccessKey: strings.TrimSpace(os.Getenv("BW_MIRROR_SECRET_ACCESS_KEY")),
	}
	client, err := objstore.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("BW_MIRROR=true: %w", err)
	}
	prefix := strings.TrimSpace(os.Getenv("BW_MIRROR_PREFIX"))
	return objstore.NewMirror(client, dataDir, prefix, envInt("BW_MIRROR_WORKERS", 2), logger), nil
}

func writeMirrorMetrics(w io.Writer, runID string, m *objstore.Mirror) {
	if m == nil {
		return
	}
	st := m.Stats()
	fmt.Fprintf(w, "# HELP brickworld_mirror_queue_depth Segments waiting for upload.\n")
	fmt.Fprintf(w, "# TYPE brickworld_mirror_queue_depth gauge\n")
	fmt.Fprintf(w, "brickworld_mirror_queue_depth{run=%q} %d\n", runID, st.QueueDepth)
	fmt.Fprintf(w, "# HELP brickworld_mirror_segments_total Segment uploads by outcome.\n")
	fmt.Fprintf(w, "# TYPE brickworld_mirror_segments_total counter\n")
	fmt.Fprintf(w, "brickworld_mirror_segments_total{run=%q,result=%q} %d\n", runID, "uploaded", st.UploadedTotal)
	fmt.Fprintf(w, "brickworld_mirror_segments_total{run=%q,result=%q} %d\n", runID, "failed", st.FailedTotal)
	fmt.Fprintf(w, "brickworld_mirror_segments_total{run=%q,result=%q} %d\n", runID, "dropped", st.DroppedTotal)
}
