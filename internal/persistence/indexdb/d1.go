package indexdb

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"brickworld.dev/internal/game"
	"brickworld.dev/internal/sim/catalogs"
	"brickworld.dev/internal/sim/level"
	"brickworld.dev/internal/sim/tuning"
	"brickworld.dev/internal/sim/world"
)

// D1Config points a D1Index at an HTTP ingest endpoint that accepts
// {"events":[...]} batches (a Cloudflare D1 worker in production).
type D1Config struct {
	Endpoint      string
	Token         string
	RunID         string
	BatchSize     int
	FlushInterval time.Duration
	HTTPTimeout   time.Duration
	// MaxRetained caps events kept across failed flushes.
	MaxRetained int
	Logger      *log.Logger
}

type D1Index struct {
	cfg        D1Config
	httpClient *http.Client

	ch   chan d1Event
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool

	flushFail    atomic.Uint64
	queueDropped atomic.Uint64
	retainDrop   atomic.Uint64

	msMu        sync.Mutex
	lastMsTick  uint64
	milestoneSq int
}

type D1Stats struct {
	QueueDepth         int
	FlushFailTotal     uint64
	QueueDroppedTotal  uint64
	RetainDroppedTotal uint64
}

type d1Event struct {
	Kind    string `json:"kind"`
	RunID   string `json:"run_id"`
	Payload any    `json:"payload"`
}

type d1TickPayload struct {
	Tick     uint64         `json:"tick"`
	Level    string         `json:"level"`
	NowMs    int64          `json:"now_ms"`
	Digest   string         `json:"digest"`
	Commands []game.Command `json:"commands,omitempty"`
	Events   []world.Event  `json:"events,omitempty"`
}

type d1MilestonePayload struct {
	Tick   uint64 `json:"tick"`
	Seq    int    `json:"seq"`
	Kind   string `json:"kind"`
	Level  string `json:"level"`
	Score  int    `json:"score"`
	Health int    `json:"health"`
	At     string `json:"at"`
}

type d1CatalogPayload struct {
	Name      string `json:"name"`
	Digest    string `json:"digest"`
	JSON      string `json:"json"`
	UpdatedAt string `json:"updated_at"`
}

func OpenD1(cfg D1Config) (*D1Index, error) {
	cfg.Endpoint = strings.TrimSpace(cfg.Endpoint)
	cfg.RunID = strings.TrimSpace(cfg.RunID)
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("empty d1 ingest endpoint")
	}
	if cfg.RunID == "" {
		return nil, fmt.Errorf("empty run id")
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 128
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 500 * time.Millisecond
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 10 * time.Second
	}
	if cfg.MaxRetained <= 0 {
		cfg.MaxRetained = 16 * cfg.BatchSize
	}

	d := &D1Index{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.HTTPTimeout,
		},
		ch: make(chan d1Event, 32768),
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.loop()
	}()

	return d, nil
}

func (d *D1Index) Close() error {
	if d == nil {
		return nil
	}
	d.once.Do(func() {
		d.closed.Store(true)
		close(d.ch)
		d.wg.Wait()
	})
	return nil
}

func (d *D1Index) Stats() D1Stats {
	if d == nil {
		return D1Stats{}
	}
	return D1Stats{
		QueueDepth:         len(d.ch),
		FlushFailTotal:     d.flushFail.Load(),
		QueueDroppedTotal:  d.queueDropped.Load(),
		RetainDroppedTotal: d.retainDrop.Load(),
	}
}

func (d *D1Index) RecordTick(entry game.TickLogEntry) {
	if d == nil || d.closed.Load() {
		return
	}
	d.enqueue(d1Event{Kind: "tick", RunID: d.cfg.RunID, Payload: d1TickPayload{
		Tick:     entry.Tick,
		Level:    entry.Level,
		NowMs:    entry.NowMs,
		Digest:   entry.Digest,
		Commands: entry.Commands,
		Events:   entry.Events,
	}})
}

func (d *D1Index) RecordMilestone(m game.Milestone) {
	if d == nil || d.closed.Load() {
		return
	}
	d.enqueue(d1Event{Kind: "milestone", RunID: d.cfg.RunID, Payload: d1MilestonePayload{
		Tick:   m.Tick,
		Seq:    d.nextMilestoneSeq(m.Tick),
		Kind:   string(m.Kind),
		Level:  m.Level,
		Score:  m.Score,
		Health: m.Health,
		At:     m.At.UTC().Format(time.RFC3339Nano),
	}})
}

func (d *D1Index) UpsertCatalogs(configDir string, cats *catalogs.Catalogs, tune tuning.Tuning, levels *level.Set) error {
	if d == nil || d.closed.Load() {
		return nil
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	for _, r := range catalogRows(configDir, cats, tune, levels) {
		if r.name == "" || r.digest == "" || len(r.data) == 0 {
			continue
		}
		d.enqueue(d1Event{Kind: "catalog", RunID: d.cfg.RunID, Payload: d1CatalogPayload{
			Name:      r.name,
			Digest:    r.digest,
			JSON:      string(r.data),
			UpdatedAt: now,
		}})
	}
	return nil
}

func (d *D1Index) nextMilestoneSeq(tick uint64) int {
	d.msMu.Lock()
	defer d.msMu.Unlock()
	if tick != d.lastMsTick {
		d.lastMsTick = tick
		d.milestoneSq = 0
	}
	seq := d.milestoneSq
	d.milestoneSq++
	return seq
}

func (d *D1Index) enqueue(ev d1Event) {
	if d == nil || d.closed.Load() {
		return
	}
	select {
	case d.ch <- ev:
	default:
		d.queueDropped.Add(1)
		d.printf("d1 index queue full; drop kind=%s run=%s", ev.Kind, ev.RunID)
	}
}

func (d *D1Index) loop() {
	ticker := time.NewTicker(d.cfg.FlushInterval)
	defer ticker.Stop()

	batch := make([]d1Event, 0, d.cfg.BatchSize)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := d.sendBatch(batch); err != nil {
			d.flushFail.Add(1)
			d.printf("d1 index flush failed batch=%d err=%v", len(batch), err)
			// Keep the batch for the next flush, dropping the oldest beyond the cap.
			if over := len(batch) - d.cfg.MaxRetained; over > 0 {
				d.retainDrop.Add(uint64(over))
				batch = append(batch[:0], batch[over:]...)
			}
			return
		}
		batch = batch[:0]
	}

	for {
		select {
		case ev, ok := <-d.ch:
			if !ok {
				flush()
				return
			}
			batch = append(batch, ev)
			if len(batch) >= d.cfg.BatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}

func (d *D1Index) sendBatch(events []d1Event) error {
	if len(events) == 0 {
		return nil
	}

	body := struct {
		Events []d1Event `json:"events"`
	}{Events: events}
	buf, err := json.Marshal(body)
	if err != nil {
		return err
	}

	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		req, err := http.NewRequest(http.MethodPost, d.cfg.Endpoint, bytes.NewReader(buf))
		if err != nil {
			return err
		}
		req.Header.Set("content-type", "application/json")
		if d.cfg.Token != "" {
			req.Header.Set("x-bw-index-token", d.cfg.Token)
		}

		resp, err := d.httpClient.Do(req)
		if err == nil {
			respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 16*1024))
			_ = resp.Body.Close()
			if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				return nil
			}
			err = fmt.Errorf("status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(respBody)))
		}
		lastErr = err
		time.Sleep(time.Duration(100*(1<<attempt)) * time.Millisecond)
	}
	return lastErr
}

func (d *D1Index) printf(format string, args ...any) {
	if d != nil && d.cfg.Logger != nil {
		d.cfg.Logger.Printf(format, args...)
	}
}
