package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"time"

	"brickworld.dev/internal/game"
	"brickworld.dev/internal/observerproto"
	"brickworld.dev/internal/persistence/archive"
	"brickworld.dev/internal/persistence/indexdb"
	persistlog "brickworld.dev/internal/persistence/log"
	"brickworld.dev/internal/sim/catalogs"
	"brickworld.dev/internal/sim/level"
	"brickworld.dev/internal/sim/tuning"
	"brickworld.dev/internal/transport/observer"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "http listen address")
		configDir  = flag.String("configs", "./configs", "config directory")
		levelDir   = flag.String("levels", "./levels", "level directory")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		runID      = flag.String("run", "", "run id (default: run_<unix seconds>)")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		startLevel = flag.String("level", "", "start level id (overrides tuning)")
		disableDB  = flag.Bool("disable_db", false, "disable indexing (ticks, events, milestones, catalogs)")
		loadFiles  = flag.Bool("allow_load_file", false, "let observers LOAD levels by file path")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	if *tuningPath == "" {
		*tuningPath = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(*tuningPath)
	if err != nil {
		logger.Fatalf("load tuning: %v", err)
	}
	if *startLevel != "" {
		tune.StartLevel = *startLevel
	}
	cats, err := catalogs.Load(*configDir)
	if err != nil {
		logger.Fatalf("load catalogs: %v", err)
	}
	levels, err := level.LoadDir(*levelDir)
	if err != nil {
		logger.Fatalf("load levels: %v", err)
	}

	if *runID == "" {
		*runID = fmt.Sprintf("run_%d", time.Now().Unix())
	}
	runDir := filepath.Join(*dataDir, "runs", *runID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		logger.Fatalf("mkdir run dir: %v", err)
	}

	idx, err := openRuntimeIndex(runDir, *runID, *disableDB, log.New(os.Stdout, "[index] ", log.LstdFlags))
	if err != nil {
		logger.Fatalf("open index: %v", err)
	}
	if idx != nil {
		defer idx.Close()
		if err := idx.UpsertCatalogs(*configDir, cats, tune, levels); err != nil {
			logger.Printf("upsert catalogs: %v", err)
		}
	}

	mirror, err := buildMirror(*dataDir, log.New(os.Stdout, "[mirror] ", log.LstdFlags))
	if err != nil {
		logger.Fatalf("mirror: %v", err)
	}
	if mirror != nil {
		// Closes after the loggers so their last segments still upload.
		defer mirror.Close()
	}

	tickLog := persistlog.NewTickLogger(runDir)
	defer tickLog.Close()
	milestones := persistlog.NewMilestoneLogger(runDir)
	defer milestones.Close()
	if mirror != nil {
		tickLog.OnSegmentClosed(mirror.Enqueue)
		milestones.OnSegmentClosed(mirror.Enqueue)
	}
	if idx != nil {
		milestones.Next = idx
	}

	var g *game.Game
	obsSrv := observer.NewServer(observer.Config{
		Params: observerproto.WorldParams{
			TickRateHz:      tune.TickRateHz,
			FrameEveryTicks: tune.FrameEveryTicks,
			BlockSize:       tune.BlockSize,
		},
		Kinds:         cats.Things.Kinds,
		Levels:        levels.IDs(),
		Submit:        func(c game.Command) bool { return g.Submit(c) },
		AllowLoadFile: *loadFiles,
		Logger:        log.New(os.Stdout, "[observer] ", log.LstdFlags),
	})
	status := &runStatus{}

	g, err = game.New(game.Config{
		Tuning:     tune,
		Catalogs:   cats,
		Levels:     levels,
		Logger:     log.New(os.Stdout, "[game] ", log.LstdFlags|log.Lmicroseconds),
		TickLogger: tickLog,
		Recorder:   milestones,
		Sinks:      []game.FrameSink{status, obsSrv},
	})
	if err != nil {
		logger.Fatalf("new game: %v", err)
	}
	logger.Printf("run=%s level=%s levels=%d kinds=%d tick_rate=%dHz", *runID, tune.StartLevel, len(levels.IDs()), len(cats.Things.Kinds), tune.TickRateHz)

	ctx, cancel := signalContext()
	defer cancel()

	gameDone := make(chan struct{})
	go func() {
		defer close(gameDone)
		err := g.Run(ctx)
		switch {
		case errors.Is(err, game.ErrGameOver):
			logger.Printf("run over at tick %d", status.tick.Load())
		case err != nil && !errors.Is(err, context.Canceled):
			logger.Printf("game loop: %v", err)
		}
		cancel()
	}()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")
		lvl, _ := status.level.Load().(string)

		// Minimal Prometheus exposition format.
		fmt.Fprintf(rw, "# HELP brickworld_tick Current run tick.\n")
		fmt.Fprintf(rw, "# TYPE brickworld_tick gauge\n")
		fmt.Fprintf(rw, "brickworld_tick{run=%q,level=%q} %d\n", *runID, lvl, status.tick.Load())

		fmt.Fprintf(rw, "# HELP brickworld_player Player health and score.\n")
		fmt.Fprintf(rw, "# TYPE brickworld_player gauge\n")
		fmt.Fprintf(rw, "brickworld_player{run=%q,metric=%q} %d\n", *runID, "health", status.health.Load())
		fmt.Fprintf(rw, "brickworld_player{run=%q,metric=%q} %d\n", *runID, "score", status.score.Load())

		fmt.Fprintf(rw, "# HELP brickworld_observers Connected observer sessions.\n")
		fmt.Fprintf(rw, "# TYPE brickworld_observers gauge\n")
		fmt.Fprintf(rw, "brickworld_observers{run=%q} %d\n", *runID, obsSrv.Sessions())

		writeIndexMetrics(rw, *runID, idx)
		writeMirrorMetrics(rw, *runID, mirror)
	})
	if envBool("BW_ENABLE_PPROF_HTTP", false) {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	} else {
		logger.Printf("pprof endpoints disabled (BW_ENABLE_PPROF_HTTP=false)")
	}
	mux.HandleFunc("/v1/observer/bootstrap", obsSrv.BootstrapHandler())
	mux.HandleFunc("/v1/observer/ws", obsSrv.WSHandler())
	mux.HandleFunc("/admin/v1/reset", func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			rw.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}
		if !g.Submit(game.Command{Kind: game.CmdReset}) {
			http.Error(rw, "inbox full", http.StatusServiceUnavailable)
			return
		}
		rw.WriteHeader(http.StatusAccepted)
	})

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s", *addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}
	<-gameDone

	_ = tickLog.Close()
	_ = milestones.Close()
	ms, err := persistlog.ReadMilestones(runDir)
	if err != nil {
		logger.Printf("read milestones: %v", err)
	}
	summary := archive.Summarize(*runID, tune.StartLevel, g, ms)
	if err := archive.WriteRunSummary(runDir, summary); err != nil {
		logger.Printf("write summary: %v", err)
		return
	}
	if mirror != nil {
		mirror.Enqueue(filepath.Join(runDir, "summary.json"))
	}
	logger.Printf("run %s closed: ticks=%d level=%s score=%d digest=%s", *runID, summary.Ticks, summary.Level, summary.Score, summary.FinalDigest)
}

// runStatus mirrors the last frame for the metrics handler, which runs off the
// game goroutine.
type runStatus struct {
	tick   atomic.Uint64
	health atomic.Int64
	score  atomic.Int64
	level  atomic.Value
}

func (s *runStatus) PublishFrame(f game.Frame) {
	s.tick.Store(f.Tick)
	s.health.Store(int64(f.Player.Health))
	s.score.Store(int64(f.Player.Score))
	s.level.Store(f.Level)
}

func writeIndexMetrics(rw http.ResponseWriter, runID string, idx runtimeIndex) {
	switch v := idx.(type) {
	case *indexdb.SQLiteIndex:
		st := v.Stats()
		fmt.Fprintf(rw, "# HELP brickworld_index_queue_depth Index write queue depth.\n")
		fmt.Fprintf(rw, "# TYPE brickworld_index_queue_depth gauge\n")
		fmt.Fprintf(rw, "brickworld_index_queue_depth{run=%q,backend=%q} %d\n", runID, "sqlite", st.QueueDepth)
		fmt.Fprintf(rw, "# HELP brickworld_index_dropped_total Index rows dropped on a full queue.\n")
		fmt.Fprintf(rw, "# TYPE brickworld_index_dropped_total counter\n")
		fmt.Fprintf(rw, "brickworld_index_dropped_total{run=%q,kind=%q} %d\n", runID, "tick", st.DropTickTotal)
		fmt.Fprintf(rw, "brickworld_index_dropped_total{run=%q,kind=%q} %d\n", runID, "milestone", st.DropMilestoneTotal)
	case *indexdb.D1Index:
		st := v.Stats()
		fmt.Fprintf(rw, "# HELP brickworld_index_queue_depth Index write queue depth.\n")
		fmt.Fprintf(rw, "# TYPE brickworld_index_queue_depth gauge\n")
		fmt.Fprintf(rw, "brickworld_index_queue_depth{run=%q,backend=%q} %d\n", runID, "d1", st.QueueDepth)
		fmt.Fprintf(rw, "# HELP brickworld_index_flush_fail_total Failed batch flushes.\n")
		fmt.Fprintf(rw, "# TYPE brickworld_index_flush_fail_total counter\n")
		fmt.Fprintf(rw, "brickworld_index_flush_fail_total{run=%q} %d\n", runID, st.FlushFailTotal)
		fmt.Fprintf(rw, "# HELP brickworld_index_dropped_total Index rows dropped.\n")
		fmt.Fprintf(rw, "# TYPE brickworld_index_dropped_total counter\n")
		fmt.Fprintf(rw, "brickworld_index_dropped_total{run=%q,kind=%q} %d\n", runID, "queue", st.QueueDroppedTotal)
		fmt.Fprintf(rw, "brickworld_index_dropped_total{run=%q,kind=%q} %d\n", runID, "retain", st.RetainDroppedTotal)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}

func isLoopbackRemote(remoteAddr string) bool {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
