// Package indexdb maintains a queryable SQLite index of runs and turns.
// The index is secondary: the compressed journal remains the source of
// truth, and writes that cannot keep up are dropped rather than stalling
// the simulation.
package indexdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"agentgrid.ai/internal/sim/world"
)

type SQLiteIndex struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool
}

type reqKind int

const (
	reqTurn reqKind = iota + 1
	reqFinish
)

type req struct {
	kind reqKind

	runID string
	turn  world.TurnLogEntry

	finish finishRow
}

type finishRow struct {
	RunID      string
	Outcome    string
	Turns      uint64
	FinishedAt string
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db: db,
		ch: make(chan req, 8192),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	// WAL is much faster for append-style workloads.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			scenario TEXT NOT NULL,
			map TEXT NOT NULL,
			started_at TEXT NOT NULL,
			finished_at TEXT,
			outcome TEXT,
			turns INTEGER
		);`,
		`CREATE TABLE IF NOT EXISTS turns (
			run_id TEXT NOT NULL,
			turn INTEGER NOT NULL,
			outcome TEXT NOT NULL,
			digest TEXT NOT NULL,
			raw_json TEXT NOT NULL,
			PRIMARY KEY (run_id, turn)
		);`,
		`CREATE TABLE IF NOT EXISTS actions (
			run_id TEXT NOT NULL,
			turn INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			agent_id INTEGER NOT NULL,
			act_json TEXT NOT NULL,
			outcome TEXT NOT NULL,
			code TEXT,
			PRIMARY KEY (run_id, turn, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_actions_agent_turn ON actions(run_id, agent_id, turn);`,
		`CREATE INDEX IF NOT EXISTS idx_turns_outcome ON turns(run_id, outcome);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	if _, err := db.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1')`); err != nil {
		return err
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

// StartRun registers the run row synchronously before the first turn.
func (s *SQLiteIndex) StartRun(runID, scenarioName, mapPath string) error {
	if s == nil {
		return nil
	}
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO runs(run_id,scenario,map,started_at) VALUES(?,?,?,?)`,
		runID, scenarioName, mapPath, time.Now().UTC().Format(time.RFC3339Nano),
	)
	return err
}

// RecordTurn queues one turn row. Drops the row if the writer falls
// behind; the journal remains the source of truth.
func (s *SQLiteIndex) RecordTurn(runID string, entry world.TurnLogEntry) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	select {
	case s.ch <- req{kind: reqTurn, runID: runID, turn: entry}:
	default:
	}
	return nil
}

// FinishRun queues the run's final outcome. It is written after every
// buffered turn, so Close flushes it.
func (s *SQLiteIndex) FinishRun(runID string, outcome world.Outcome, turns uint64) {
	if s == nil || s.closed.Load() {
		return
	}
	r := finishRow{
		RunID:      runID,
		Outcome:    outcome.String(),
		Turns:      turns,
		FinishedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}
	select {
	case s.ch <- req{kind: reqFinish, finish: r}:
	default:
	}
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	insertTurn, _ := s.db.Prepare(`INSERT OR REPLACE INTO turns(run_id,turn,outcome,digest,raw_json) VALUES(?,?,?,?,?)`)
	insertAction, _ := s.db.Prepare(`INSERT OR REPLACE INTO actions(run_id,turn,seq,agent_id,act_json,outcome,code) VALUES(?,?,?,?,?,?,?)`)
	updateRun, _ := s.db.Prepare(`UPDATE runs SET finished_at=?, outcome=?, turns=? WHERE run_id=?`)
	defer func() {
		if insertTurn != nil {
			_ = insertTurn.Close()
		}
		if insertAction != nil {
			_ = insertAction.Close()
		}
		if updateRun != nil {
			_ = updateRun.Close()
		}
	}()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 256
		commitMaxWait = time.Second
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}

	for r := range s.ch {
		begin()
		if tx == nil {
			continue
		}
		switch r.kind {
		case reqTurn:
			raw, _ := json.Marshal(r.turn)
			if insertTurn != nil {
				if _, err := tx.Stmt(insertTurn).Exec(
					r.runID,
					int64(r.turn.Turn),
					r.turn.Outcome.String(),
					r.turn.Digest,
					string(raw),
				); err != nil {
					rollback()
					continue
				}
				opCount++
			}
			for i, a := range r.turn.Actions {
				if insertAction == nil {
					break
				}
				actJSON, _ := json.Marshal(a.Action)
				if _, err := tx.Stmt(insertAction).Exec(
					r.runID,
					int64(r.turn.Turn),
					i,
					int64(a.AgentID),
					string(actJSON),
					a.Outcome.String(),
					a.Code,
				); err != nil {
					rollback()
					break
				}
				opCount++
			}

		case reqFinish:
			f := r.finish
			if updateRun != nil {
				if _, err := tx.Stmt(updateRun).Exec(f.FinishedAt, f.Outcome, int64(f.Turns), f.RunID); err != nil {
					rollback()
					continue
				}
				opCount++
			}
			// A finish marks the end of useful batching for this run.
			commit()
			continue
		}

		if opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait {
			commit()
		}
	}
	commit()
}
