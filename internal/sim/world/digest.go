package world

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
)

// StateDigest returns a deterministic hash over the complete world state:
// grid dimensions, turn counter, all three grids in row-major order, and
// every agent (ascending id) with position and inventory. Two runs of the
// same scenario must produce identical digests turn by turn; replays verify
// against it.
func (e *Environment) StateDigest() string {
	h := sha256.New()
	var buf [8]byte
	writeU64 := func(v uint64) {
		binary.LittleEndian.PutUint64(buf[:], v)
		h.Write(buf[:])
	}

	writeU64(uint64(e.Width()))
	writeU64(uint64(e.Height()))
	writeU64(e.turn)

	e.terrain.Each(func(_ Position, c Cell) {
		open := byte(0)
		if c.Open {
			open = 1
		}
		h.Write([]byte{byte(c.Kind), open, byte(c.Lock)})
	})
	e.items.Each(func(_ Position, it Item) {
		h.Write([]byte{byte(it.Kind), byte(it.Key)})
	})
	e.occupancy.Each(func(_ Position, id EntityID) {
		writeU64(uint64(id))
	})

	for _, id := range e.AgentIDs() {
		st := e.agents[id]
		writeU64(uint64(id))
		writeU64(uint64(int64(st.Position.X)))
		writeU64(uint64(int64(st.Position.Y)))
		writeU64(uint64(len(st.Inventory)))
		for _, it := range st.Inventory {
			h.Write([]byte{byte(it.Kind), byte(it.Key)})
		}
	}

	return hex.EncodeToString(h.Sum(nil))
}
