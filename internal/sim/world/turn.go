package world

// RecordedAction is one agent's decision and its result within a turn, in
// the order actions were applied. Journals, the index, and the observer
// stream all consume these records.
type RecordedAction struct {
	AgentID EntityID `json:"agent_id"`
	Action  Action   `json:"action"`
	Outcome Outcome  `json:"outcome"`
	Code    string   `json:"code,omitempty"`
	Message string   `json:"message,omitempty"`
}

// TurnRecord captures everything that happened during one ProcessTurn call.
type TurnRecord struct {
	Turn    uint64           `json:"turn"`
	Actions []RecordedAction `json:"actions"`
	Outcome Outcome          `json:"outcome"`
}

// TurnLogEntry is the journal/index row for one completed turn.
type TurnLogEntry struct {
	Turn    uint64           `json:"turn"`
	Outcome Outcome          `json:"outcome"`
	Digest  string           `json:"digest"`
	Actions []RecordedAction `json:"actions,omitempty"`
}

// ProcessTurn resolves one turn: agents are visited in ascending id order,
// each gets a fresh view, decides one action, and the action is applied
// before the next agent's view is built. Later-acting agents see the
// effects of earlier-acting agents in the same turn, so no two agents can
// contend for a cell within a turn.
//
// A Win aborts the remaining agents immediately and becomes the turn's
// outcome. Failures are logged and swallowed.
func (e *Environment) ProcessTurn() TurnRecord {
	rec := TurnRecord{Turn: e.turn, Outcome: Success}

	for _, id := range e.AgentIDs() {
		st := e.agents[id]
		b := e.behaviors[id]
		if st == nil || b == nil {
			continue
		}

		act := b.Decide(e.viewFor(st))
		res := e.ProcessAction(id, act)
		rec.Actions = append(rec.Actions, RecordedAction{
			AgentID: id,
			Action:  act,
			Outcome: res.Outcome,
			Code:    res.Code,
			Message: res.Message,
		})

		switch res.Outcome {
		case Won:
			rec.Outcome = Won
			e.turn++
			return rec
		case Failed:
			e.logger.Printf("turn %d: agent %d action %s failed: %s (%s)",
				e.turn, id, act, res.Message, res.Code)
		}
	}

	e.turn++
	return rec
}
