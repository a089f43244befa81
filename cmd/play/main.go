package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"

	"brickworld.dev/internal/audio"
	"brickworld.dev/internal/game"
	persistlog "brickworld.dev/internal/persistence/log"
	"brickworld.dev/internal/sim/catalogs"
	"brickworld.dev/internal/sim/level"
	"brickworld.dev/internal/sim/tuning"
	"brickworld.dev/internal/term"
)

// play runs a single local game in the terminal.
func main() {
	var (
		configDir  = flag.String("configs", "./configs", "config directory")
		levelDir   = flag.String("levels", "./levels", "level directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		levelFile  = flag.String("file", "", "level file to play instead of the start level")
		recordDir  = flag.String("record", "", "write a replayable tick log under this run directory")
		logPath    = flag.String("log", "", "log file (default: discard)")
		volume     = flag.Float64("volume", 0.5, "cue volume (0 silences)")
		mute       = flag.Bool("mute", false, "disable sound")
	)
	flag.Parse()

	logOut := io.Discard
	if *logPath != "" {
		f, err := os.OpenFile(*logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintln(os.Stderr, "open log:", err)
			os.Exit(1)
		}
		defer f.Close()
		logOut = f
	}
	logger := log.New(logOut, "[play] ", log.LstdFlags|log.Lmicroseconds)

	if *tuningPath == "" {
		*tuningPath = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(*tuningPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load tuning:", err)
		os.Exit(1)
	}
	cats, err := catalogs.Load(*configDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load catalogs:", err)
		os.Exit(1)
	}
	levels, err := level.LoadDir(*levelDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load levels:", err)
		os.Exit(1)
	}
	if *levelFile != "" {
		l, err := level.ReadFile(*levelFile)
		if err != nil {
			fmt.Fprintln(os.Stderr, "load level file:", err)
			os.Exit(1)
		}
		levels.Add(l)
		tune.StartLevel = l.ID
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		fmt.Fprintln(os.Stderr, "screen:", err)
		os.Exit(1)
	}
	if err := screen.Init(); err != nil {
		fmt.Fprintln(os.Stderr, "screen init:", err)
		os.Exit(1)
	}
	defer screen.Fini()
	screen.HideCursor()

	renderer := term.NewRenderer(screen, tune.BlockSize)
	sinks := []game.FrameSink{game.FrameSinkFunc(renderer.Draw)}

	if !*mute {
		sound := audio.NewPlayer(*volume)
		if err := sound.Initialize(); err != nil {
			logger.Printf("audio disabled: %v", err)
		} else {
			defer sound.Close()
			sinks = append(sinks, sound)
		}
	}

	cfg := game.Config{
		Tuning:   tune,
		Catalogs: cats,
		Levels:   levels,
		Logger:   log.New(logOut, "[game] ", log.LstdFlags|log.Lmicroseconds),
		Sinks:    sinks,
	}
	if *recordDir != "" {
		tickLog := persistlog.NewTickLogger(*recordDir)
		defer tickLog.Close()
		milestones := persistlog.NewMilestoneLogger(*recordDir)
		defer milestones.Close()
		cfg.TickLogger = tickLog
		cfg.Recorder = milestones
	}
	g, err := game.New(cfg)
	if err != nil {
		screen.Fini()
		fmt.Fprintln(os.Stderr, "new game:", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	runErr := make(chan error, 1)
	go func() {
		runErr <- g.Run(ctx)
		_ = screen.PostEvent(tcell.NewEventInterrupt(nil))
	}()
	go func() {
		<-ctx.Done()
		_ = screen.PostEvent(tcell.NewEventInterrupt(nil))
	}()

	over := false
	for {
		ev := screen.PollEvent()
		if ev == nil {
			return
		}
		switch ev := ev.(type) {
		case *tcell.EventResize:
			screen.Sync()
		case *tcell.EventKey:
			if term.IsQuit(ev.Key(), ev.Rune()) {
				if over {
					return
				}
				cancel()
				continue
			}
			if over {
				continue
			}
			if c, ok := term.CommandForEvent(ev); ok && !g.Submit(c) {
				logger.Printf("inbox full; dropped %s", c.Kind)
			}
		case *tcell.EventInterrupt:
			if over {
				return
			}
			err := <-runErr
			if errors.Is(err, game.ErrGameOver) {
				// The last frame shows GAME OVER until a quit key.
				logger.Printf("game over at tick %d", g.Tick())
				over = true
				continue
			}
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Printf("game loop: %v", err)
			}
			// Let the speaker finish the last cue.
			time.Sleep(50 * time.Millisecond)
			return
		}
	}
}
