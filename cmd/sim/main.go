package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"agentgrid.ai/internal/observerproto"
	"agentgrid.ai/internal/persistence/indexdb"
	persistlog "agentgrid.ai/internal/persistence/log"
	"agentgrid.ai/internal/sim/scenario"
	"agentgrid.ai/internal/sim/world"
	"agentgrid.ai/internal/transport/observer"
)

func main() {
	var (
		scenarioPath = flag.String("scenario", "./configs/scenario.yaml", "scenario config path")
		mapPath      = flag.String("map", "", "map file (overrides the scenario's map)")
		maxTurns     = flag.Uint64("max_turns", 0, "turn budget (overrides the scenario)")
		runID        = flag.String("run", "", "run id (default: UTC timestamp)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[sim] ", log.LstdFlags|log.Lmicroseconds)

	cfg, err := scenario.Load(*scenarioPath)
	if err != nil {
		logger.Fatalf("load scenario: %v", err)
	}
	if *mapPath != "" {
		cfg.Map = *mapPath
	}
	if *maxTurns > 0 {
		cfg.MaxTurns = *maxTurns
	}
	id := strings.TrimSpace(*runID)
	if id == "" {
		id = time.Now().UTC().Format("20060102-150405")
	}

	env, err := scenario.Build(cfg)
	if err != nil {
		logger.Fatalf("%v", err)
	}
	env.SetLogger(log.New(os.Stdout, "[world] ", log.LstdFlags|log.Lmicroseconds))

	ctx, cancel := signalContext()
	defer cancel()

	var turnLog *persistlog.TurnLogger
	if cfg.Journal.Enabled {
		turnLog = persistlog.NewTurnLogger(cfg.Journal.Dir, id)
		defer turnLog.Close()
		logger.Printf("journal: %s", turnLog.Path())
	}

	var idx *indexdb.SQLiteIndex
	if cfg.Index.Enabled {
		idx, err = indexdb.OpenSQLite(cfg.Index.Path)
		if err != nil {
			logger.Fatalf("open index: %v", err)
		}
		defer idx.Close()
		if err := idx.StartRun(id, cfg.Name, cfg.Map); err != nil {
			logger.Fatalf("start run: %v", err)
		}
	}

	var obs *observer.Server
	if cfg.Observer.Listen != "" {
		params := observerproto.WorldParams{
			TurnRateHz: cfg.TurnRateHz,
			Width:      env.Width(),
			Height:     env.Height(),
			MaxTurns:   cfg.MaxTurns,
		}
		obs = observer.NewServer(env, cfg.Name, params, logger)

		mux := http.NewServeMux()
		mux.HandleFunc("/observer/v1/bootstrap", obs.BootstrapHandler())
		mux.HandleFunc("/observer/v1/ws", obs.WSHandler())
		srv := &http.Server{
			Addr:              cfg.Observer.Listen,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.Printf("observer listening on %s", cfg.Observer.Listen)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Printf("observer: %v", err)
			}
		}()
		go func() {
			<-ctx.Done()
			ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel2()
			_ = srv.Shutdown(ctx2)
		}()
	}

	logger.Printf("run %s: scenario=%s map=%s agents=%d max_turns=%d rate=%.1fHz",
		id, cfg.Name, cfg.Map, len(cfg.Agents), cfg.MaxTurns, cfg.TurnRateHz)

	outcome, interrupted := runLoop(ctx, env, cfg, logger, func(rec world.TurnRecord) {
		digest := env.StateDigest()
		entry := world.TurnLogEntry{
			Turn:    rec.Turn,
			Outcome: rec.Outcome,
			Digest:  digest,
			Actions: rec.Actions,
		}
		if turnLog != nil {
			if err := turnLog.WriteTurn(entry); err != nil {
				logger.Printf("journal write: %v", err)
			}
		}
		if idx != nil {
			_ = idx.RecordTurn(id, entry)
		}
		if obs != nil {
			obs.Broadcast(rec, digest)
		}
	})

	if interrupted {
		// Leave the run row unfinished: a NULL outcome marks an aborted
		// run, which must not read as a completed "success".
		logger.Printf("run %s interrupted: turns=%d", id, env.CurrentTurn())
		return
	}
	if idx != nil {
		idx.FinishRun(id, outcome, env.CurrentTurn())
	}
	logger.Printf("run %s finished: outcome=%s turns=%d", id, outcome, env.CurrentTurn())
}

// runLoop processes turns at the configured rate until a win, the turn
// budget, or a signal stops it. It returns the final outcome plus whether
// the run was interrupted before finishing.
func runLoop(ctx context.Context, env *world.Environment, cfg scenario.Config, logger *log.Logger, sink func(world.TurnRecord)) (world.Outcome, bool) {
	interval := time.Duration(float64(time.Second) / cfg.TurnRateHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Printf("interrupted at turn %d", env.CurrentTurn())
			return world.Success, true
		case <-ticker.C:
			rec := env.ProcessTurn()
			sink(rec)
			if rec.Outcome == world.Won {
				return world.Won, false
			}
			if env.CurrentTurn() >= cfg.MaxTurns {
				return world.Success, false
			}
		}
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
