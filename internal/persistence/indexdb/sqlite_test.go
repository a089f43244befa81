package indexdb

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"brickworld.dev/internal/game"
	"brickworld.dev/internal/sim/catalogs"
	"brickworld.dev/internal/sim/level"
	"brickworld.dev/internal/sim/tuning"
	"brickworld.dev/internal/sim/world"
)

func openTestDB(t *testing.T, path string) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestSQLiteIndex_RecordsTicksEventsAndMilestones(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")
	idx, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	at := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	idx.RecordMilestone(game.Milestone{Tick: 0, Kind: game.MilestoneLevelStart, Level: "level1", Health: 5, At: at})
	idx.RecordTick(game.TickLogEntry{Tick: 0, Level: "level1", NowMs: at.UnixMilli(), Digest: "d0"})
	idx.RecordTick(game.TickLogEntry{
		Tick: 1, Level: "level1", NowMs: at.UnixMilli() + 16, Digest: "d1",
		Commands: []game.Command{{Kind: game.CmdJump}},
		Events: []world.Event{
			{Tick: 1, Kind: world.EventContact, A: "player", AID: 4, B: "mystery", BID: 2, Side: world.SideBelow},
			{Tick: 1, Kind: world.EventMystery, A: "mystery", AID: 2, Value: 3},
		},
	})
	idx.RecordMilestone(game.Milestone{Tick: 1, Kind: game.MilestoneDeath, Level: "level1", At: at})
	idx.RecordMilestone(game.Milestone{Tick: 1, Kind: game.MilestoneReset, Level: "level1", Health: 5, At: at})
	if err := idx.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	db := openTestDB(t, path)
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM ticks`).Scan(&n); err != nil || n != 2 {
		t.Fatalf("ticks=%d err=%v", n, err)
	}
	var digest string
	var cmds, evs int
	if err := db.QueryRow(`SELECT digest,commands,events FROM ticks WHERE tick=1`).Scan(&digest, &cmds, &evs); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if digest != "d1" || cmds != 1 || evs != 2 {
		t.Fatalf("tick row digest=%q commands=%d events=%d", digest, cmds, evs)
	}

	var side string
	var bid int64
	if err := db.QueryRow(`SELECT side,b_id FROM events WHERE tick=1 AND kind='CONTACT'`).Scan(&side, &bid); err != nil {
		t.Fatalf("Scan event: %v", err)
	}
	if side != "BELOW" || bid != 2 {
		t.Fatalf("event side=%q b_id=%d", side, bid)
	}

	rows, err := db.Query(`SELECT seq,kind FROM milestones WHERE tick=1 ORDER BY seq`)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	defer rows.Close()
	var kinds []string
	for rows.Next() {
		var seq int
		var kind string
		if err := rows.Scan(&seq, &kind); err != nil {
			t.Fatal(err)
		}
		kinds = append(kinds, kind)
	}
	if len(kinds) != 2 || kinds[0] != "DEATH" || kinds[1] != "RESET" {
		t.Fatalf("milestones at tick 1: %v", kinds)
	}
}

func TestSQLiteIndex_UpsertCatalogs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")
	idx, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	cats, err := catalogs.Load("../../../configs")
	if err != nil {
		t.Fatalf("catalogs: %v", err)
	}
	levels, err := level.LoadDir("../../../levels")
	if err != nil {
		t.Fatalf("levels: %v", err)
	}
	if err := idx.UpsertCatalogs("../../../configs", cats, tuning.Defaults(), levels); err != nil {
		t.Fatalf("UpsertCatalogs: %v", err)
	}
	_ = idx.Close()

	db := openTestDB(t, path)
	var digest string
	if err := db.QueryRow(`SELECT digest FROM catalogs WHERE name='things'`).Scan(&digest); err != nil {
		t.Fatalf("things row: %v", err)
	}
	if digest != cats.Things.Digest {
		t.Fatalf("digest=%q want %q", digest, cats.Things.Digest)
	}
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM catalogs WHERE name LIKE 'level:%'`).Scan(&n); err != nil || n != len(levels.IDs()) {
		t.Fatalf("level rows=%d err=%v", n, err)
	}
}

func TestSQLiteIndex_QueueDropStats(t *testing.T) {
	s := &SQLiteIndex{ch: make(chan req, 1)}
	s.ch <- req{kind: reqTick, tick: game.TickLogEntry{Tick: 1}}

	s.RecordTick(game.TickLogEntry{Tick: 2})
	s.RecordMilestone(game.Milestone{Tick: 2})

	st := s.Stats()
	if st.DropTickTotal != 1 {
		t.Fatalf("DropTickTotal=%d want=1", st.DropTickTotal)
	}
	if st.DropMilestoneTotal != 1 {
		t.Fatalf("DropMilestoneTotal=%d want=1", st.DropMilestoneTotal)
	}
	if st.QueueDepth != 1 || st.QueueCapacity != 1 {
		t.Fatalf("queue stats mismatch: depth=%d cap=%d", st.QueueDepth, st.QueueCapacity)
	}
}
