package log

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"brickworld.dev/internal/game"
)

// JSONLZstdWriter appends JSON lines to hourly zstd segments. The segment is
// chosen by the timestamp passed to WriteAt, so a replayed run lands in the
// same files as the live one.
type JSONLZstdWriter struct {
	baseDir string
	prefix  string

	mu      sync.Mutex
	curHour string
	f       *os.File
	enc     *zstd.Encoder
	w       *bufio.Writer

	onClosed func(path string)
}

func NewJSONLZstdWriter(baseDir, prefix string) *JSONLZstdWriter {
	return &JSONLZstdWriter{
		baseDir: baseDir,
		prefix:  prefix,
	}
}

func (w *JSONLZstdWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closeLocked()
}

// OnSegmentClosed registers fn to run with the path of every finished segment,
// on rotation and on Close. fn runs under the writer lock and must not block.
func (w *JSONLZstdWriter) OnSegmentClosed(fn func(path string)) {
	w.mu.Lock()
	w.onClosed = fn
	w.mu.Unlock()
}

func (w *JSONLZstdWriter) Write(v any) error { return w.WriteAt(time.Now(), v) }

func (w *JSONLZstdWriter) WriteAt(at time.Time, v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	hour := at.UTC().Format("2006-01-02-15")
	if hour != w.curHour {
		if err := w.rotateLocked(hour); err != nil {
			return err
		}
	}

	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return err
	}
	return w.w.Flush()
}

func (w *JSONLZstdWriter) rotateLocked(hour string) error {
	if err := w.closeLocked(); err != nil {
		return err
	}
	if err := os.MkdirAll(w.baseDir, 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(w.pathForHour(hour), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return err
	}
	w.f = f
	w.enc = enc
	w.w = bufio.NewWriterSize(enc, 128*1024)
	w.curHour = hour
	return nil
}

func (w *JSONLZstdWriter) closeLocked() error {
	var err1 error
	if w.w != nil {
		_ = w.w.Flush()
	}
	if w.enc != nil {
		err1 = w.enc.Close()
		w.enc = nil
	}
	var closed string
	if w.f != nil {
		closed = w.f.Name()
		_ = w.f.Close()
		w.f = nil
	}
	w.w = nil
	w.curHour = ""
	if closed != "" && w.onClosed != nil {
		w.onClosed(closed)
	}
	return err1
}

func (w *JSONLZstdWriter) pathForHour(hour string) string {
	return filepath.Join(w.baseDir, fmt.Sprintf("%s-%s.jsonl.zst", w.prefix, hour))
}

// TickLogger writes one JSONL entry per tick (compressed).
type TickLogger struct{ w *JSONLZstdWriter }

func NewTickLogger(runDir string) *TickLogger {
	return &TickLogger{w: NewJSONLZstdWriter(filepath.Join(runDir, "ticks"), "ticks")}
}

func (l *TickLogger) WriteTick(e game.TickLogEntry) error { return l.w.WriteAt(e.Now(), e) }
func (l *TickLogger) Close() error                        { return l.w.Close() }

func (l *TickLogger) OnSegmentClosed(fn func(path string)) { l.w.OnSegmentClosed(fn) }

// MilestoneLogger keeps level starts, clears, deaths and resets next to the tick log.
type MilestoneLogger struct {
	w *JSONLZstdWriter
	// Next receives every milestone after it is written, if set.
	Next game.Recorder
}

func NewMilestoneLogger(runDir string) *MilestoneLogger {
	return &MilestoneLogger{w: NewJSONLZstdWriter(filepath.Join(runDir, "milestones"), "milestones")}
}

func (l *MilestoneLogger) RecordTick(e game.TickLogEntry) {
	if l.Next != nil {
		l.Next.RecordTick(e)
	}
}

func (l *MilestoneLogger) RecordMilestone(m game.Milestone) {
	_ = l.w.WriteAt(m.At, m)
	if l.Next != nil {
		l.Next.RecordMilestone(m)
	}
}

func (l *MilestoneLogger) Close() error { return l.w.Close() }

func (l *MilestoneLogger) OnSegmentClosed(fn func(path string)) { l.w.OnSegmentClosed(fn) }
