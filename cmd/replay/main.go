package main

import (
	"flag"
	"fmt"
	"os"

	persistlog "agentgrid.ai/internal/persistence/log"
	"agentgrid.ai/internal/sim/scenario"
	"agentgrid.ai/internal/sim/world"
)

func main() {
	var (
		journalPath  = flag.String("journal", "", "path to turns-*.jsonl.zst")
		scenarioPath = flag.String("scenario", "", "scenario config; when set, the run is re-simulated and digests are verified")
		verbose      = flag.Bool("v", false, "print every agent action")
	)
	flag.Parse()

	if *journalPath == "" {
		fmt.Fprintln(os.Stderr, "missing -journal")
		os.Exit(2)
	}

	var recorded []world.TurnLogEntry
	err := persistlog.ReadTurns(*journalPath, func(e world.TurnLogEntry) error {
		recorded = append(recorded, e)
		return nil
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "read journal:", err)
		os.Exit(1)
	}

	for _, e := range recorded {
		fmt.Printf("turn %d outcome=%s digest=%s actions=%d\n", e.Turn, e.Outcome, e.Digest, len(e.Actions))
		if *verbose {
			for _, a := range e.Actions {
				line := fmt.Sprintf("  agent %d %s -> %s", a.AgentID, a.Action, a.Outcome)
				if a.Code != "" {
					line += fmt.Sprintf(" [%s] %s", a.Code, a.Message)
				}
				fmt.Println(line)
			}
		}
	}
	fmt.Printf("%d turns\n", len(recorded))

	if *scenarioPath == "" {
		return
	}
	if err := verify(*scenarioPath, recorded); err != nil {
		fmt.Fprintln(os.Stderr, "verify:", err)
		os.Exit(1)
	}
	fmt.Println("verified: re-simulation matches the journal")
}

// verify re-runs the scenario and checks each turn's digest against the
// journal.
func verify(scenarioPath string, recorded []world.TurnLogEntry) error {
	cfg, err := scenario.Load(scenarioPath)
	if err != nil {
		return err
	}
	env, err := scenario.Build(cfg)
	if err != nil {
		return err
	}

	for _, want := range recorded {
		rec := env.ProcessTurn()
		if rec.Turn != want.Turn {
			return fmt.Errorf("turn mismatch: simulated %d, journal %d", rec.Turn, want.Turn)
		}
		if got := env.StateDigest(); got != want.Digest {
			return fmt.Errorf("digest mismatch at turn %d: simulated %s, journal %s", want.Turn, got, want.Digest)
		}
	}
	return nil
}
