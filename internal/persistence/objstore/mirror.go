package objstore

import (
	"context"
	"fmt"
	"io"
	"log"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Uploader is the part of Client a Mirror needs.
type Uploader interface {
	PutFile(ctx context.Context, key, localPath string) error
}

type MirrorStats struct {
	QueueDepth    int
	UploadedTotal uint64
	FailedTotal   uint64
	DroppedTotal  uint64
}

// Mirror uploads finished segments in the background. Object keys are the
// file's path relative to baseDir under prefix, so a run directory keeps its
// layout in the bucket.
type Mirror struct {
	up      Uploader
	baseDir string
	prefix  string
	log     *log.Logger

	jobs        chan string
	enqueueWait time.Duration
	backoff     time.Duration
	wg          sync.WaitGroup
	closeOnce   sync.Once

	uploaded atomic.Uint64
	failed   atomic.Uint64
	dropped  atomic.Uint64
}

func NewMirror(up Uploader, baseDir, prefix string, workers int, logger *log.Logger) *Mirror {
	if workers <= 0 {
		workers = 1
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	m := &Mirror{
		up:          up,
		baseDir:     baseDir,
		prefix:      strings.Trim(strings.ReplaceAll(prefix, "\\", "/"), "/"),
		log:         logger,
		jobs:        make(chan string, 256),
		enqueueWait: 25 * time.Millisecond,
		backoff:     200 * time.Millisecond,
	}
	for i := 0; i < workers; i++ {
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			for p := range m.jobs {
				m.upload(p)
			}
		}()
	}
	return m
}

// Enqueue schedules localPath for upload. It waits briefly on a full queue,
// then drops the path.
func (m *Mirror) Enqueue(localPath string) {
	select {
	case m.jobs <- localPath:
		return
	default:
	}
	timer := time.NewTimer(m.enqueueWait)
	defer timer.Stop()
	select {
	case m.jobs <- localPath:
	case <-timer.C:
		n := m.dropped.Add(1)
		m.log.Printf("mirror drop %s (queue full, dropped_total=%d)", localPath, n)
	}
}

// Close waits for queued uploads to finish.
func (m *Mirror) Close() {
	m.closeOnce.Do(func() {
		close(m.jobs)
		m.wg.Wait()
	})
}

func (m *Mirror) Stats() MirrorStats {
	return MirrorStats{
		QueueDepth:    len(m.jobs),
		UploadedTotal: m.uploaded.Load(),
		FailedTotal:   m.failed.Load(),
		DroppedTotal:  m.dropped.Load(),
	}
}

func (m *Mirror) upload(localPath string) {
	key, err := m.objectKey(localPath)
	if err != nil {
		m.failed.Add(1)
		m.log.Printf("mirror skip %s: %v", localPath, err)
		return
	}
	const attempts = 4
	for i := 1; i <= attempts; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		err = m.up.PutFile(ctx, key, localPath)
		cancel()
		if err == nil {
			m.uploaded.Add(1)
			m.log.Printf("mirror uploaded %s", key)
			return
		}
		if i < attempts {
			time.Sleep(time.Duration(i*i) * m.backoff)
		}
	}
	m.failed.Add(1)
	m.log.Printf("mirror upload %s failed: %v", key, err)
}

func (m *Mirror) objectKey(localPath string) (string, error) {
	absBase, err := filepath.Abs(m.baseDir)
	if err != nil {
		return "", err
	}
	absLocal, err := filepath.Abs(localPath)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(absBase, absLocal)
	if err != nil {
		return "", err
	}
	rel = filepath.ToSlash(rel)
	if rel == "." || rel == ".." || strings.HasPrefix(rel, "../") {
		return "", fmt.Errorf("%s is outside %s", absLocal, absBase)
	}
	if m.prefix != "" {
		rel = path.Join(m.prefix, rel)
	}
	return rel, nil
}
