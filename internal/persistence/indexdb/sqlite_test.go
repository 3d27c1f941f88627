package indexdb

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"

	"agentgrid.ai/internal/sim/world"
)

func TestSQLiteIndex_RecordRun(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index.db")

	idx, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	if err := idx.StartRun("run-1", "demo", "maps/map01.txt"); err != nil {
		t.Fatalf("StartRun: %v", err)
	}
	for turn := uint64(0); turn < 3; turn++ {
		entry := world.TurnLogEntry{
			Turn:    turn,
			Outcome: world.Success,
			Digest:  "d",
			Actions: []world.RecordedAction{
				{AgentID: 1, Action: world.Move(1, 0), Outcome: world.Success},
			},
		}
		if err := idx.RecordTurn("run-1", entry); err != nil {
			t.Fatalf("RecordTurn: %v", err)
		}
	}
	idx.FinishRun("run-1", world.Won, 3)
	if err := idx.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	defer db.Close()

	var turns int
	if err := db.QueryRow(`SELECT COUNT(*) FROM turns WHERE run_id='run-1'`).Scan(&turns); err != nil {
		t.Fatalf("count turns: %v", err)
	}
	if turns != 3 {
		t.Fatalf("turns = %d, want 3", turns)
	}

	var actions int
	if err := db.QueryRow(`SELECT COUNT(*) FROM actions WHERE run_id='run-1' AND agent_id=1`).Scan(&actions); err != nil {
		t.Fatalf("count actions: %v", err)
	}
	if actions != 3 {
		t.Fatalf("actions = %d, want 3", actions)
	}

	var (
		outcome  string
		recorded int64
	)
	row := db.QueryRow(`SELECT outcome,turns FROM runs WHERE run_id='run-1'`)
	if err := row.Scan(&outcome, &recorded); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if outcome != "win" || recorded != 3 {
		t.Fatalf("run row mismatch: outcome=%q turns=%d", outcome, recorded)
	}
}

func TestOpenSQLiteRejectsEmptyPath(t *testing.T) {
	if _, err := OpenSQLite(""); err == nil {
		t.Fatal("expected error for empty path")
	}
}
