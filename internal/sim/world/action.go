package world

// ProcessAction validates and applies a single agent action. It is the sole
// mutator of environment state during play. Failures are non-fatal and leave
// the agent's position unchanged, with one exception: an item on the target
// cell is collected before terrain is resolved, so a move that subsequently
// fails does not give the item back. Valid maps never place an item where
// terrain can reject the move; the ordering still holds when one does.
func (e *Environment) ProcessAction(id EntityID, act Action) ActionResult {
	st, ok := e.agents[id]
	if !ok {
		return failure(CodeNoAgent, "agent %d not found", id)
	}

	if act.Kind == ActWait {
		return success()
	}

	cur := st.Position
	target := Position{X: cur.X + act.DX, Y: cur.Y + act.DY}
	if !e.terrain.IsValid(target.X, target.Y) {
		return failure(CodeOutOfBounds, "target position %v is out of bounds", target)
	}

	// Items first. The goal ends the run immediately; chips are always
	// collected; a key is collected only when no key of that color is held.
	switch it := e.items.At(target); it.Kind {
	case ItemGoal:
		e.occupancy.SetAt(cur, NoEntity)
		e.occupancy.SetAt(target, id)
		st.Position = target
		return ActionResult{Outcome: Won}
	case ItemChip:
		st.Inventory = append(st.Inventory, it)
		e.items.SetAt(target, Item{})
	case ItemKey:
		if !st.HasKey(it.Key) {
			st.Inventory = append(st.Inventory, it)
			e.items.SetAt(target, Item{})
		}
	}

	cell := e.terrain.At(target)
	switch {
	case cell.Kind == Wall:
		return failure(CodeBlocked, "cannot move into a wall at %v", target)

	case cell.Kind == Door && !cell.Open:
		if e.occupancy.At(target) != NoEntity {
			return failure(CodeOccupied, "target position %v is occupied by another agent", target)
		}
		if cell.Lock != KeyNone {
			// Opening a locked door consumes exactly one matching key.
			if !st.removeKey(cell.Lock) {
				return failure(CodeMissingKey, "agent lacks the required %s key for door at %v", cell.Lock, target)
			}
		}
		cell.Open = true // doors stay open permanently
		e.terrain.SetAt(target, cell)
		e.moveAgent(st, cur, target)
		return success()

	default: // Floor or open Door
		if e.occupancy.At(target) != NoEntity {
			return failure(CodeOccupied, "target position %v is occupied by another agent", target)
		}
		e.moveAgent(st, cur, target)
		return success()
	}
}

// moveAgent performs the occupancy swap. The two grid writes and the
// position update form one transaction: nothing may observe the environment
// between them (guaranteed by the single-threaded turn model).
func (e *Environment) moveAgent(st *AgentState, from, to Position) {
	e.occupancy.SetAt(from, NoEntity)
	e.occupancy.SetAt(to, st.ID)
	st.Position = to
}
