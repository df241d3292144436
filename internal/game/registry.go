package game

import (
	"github.com/google/uuid"

	"github.com/groblegark/arena/internal/model"
)

// registry holds the per-session player records. It is owned exclusively by
// the session and guarded by the session's mutex; it is not safe for use
// outside that lock.
type registry struct {
	players map[uuid.UUID]*model.PlayerRecord
}

func newRegistry() *registry {
	return &registry{players: make(map[uuid.UUID]*model.PlayerRecord)}
}

func (r *registry) get(id uuid.UUID) *model.PlayerRecord {
	return r.players[id]
}

func (r *registry) has(id uuid.UUID) bool {
	_, ok := r.players[id]
	return ok
}

func (r *registry) put(rec *model.PlayerRecord) {
	r.players[rec.ID] = rec
}

func (r *registry) remove(id uuid.UUID) {
	delete(r.players, id)
}

// all returns a snapshot of every registered record, including disconnected
// players still inside their reconnect window.
func (r *registry) all() map[uuid.UUID]*model.PlayerRecord {
	out := make(map[uuid.UUID]*model.PlayerRecord, len(r.players))
	for id, rec := range r.players {
		out[id] = rec
	}
	return out
}

// inGame returns the records of players still competing (not spectating).
func (r *registry) inGame() map[uuid.UUID]*model.PlayerRecord {
	out := make(map[uuid.UUID]*model.PlayerRecord)
	for id, rec := range r.players {
		if !rec.IsSpectator() {
			out[id] = rec
		}
	}
	return out
}

// spectators returns the records of spectating players.
func (r *registry) spectators() map[uuid.UUID]*model.PlayerRecord {
	out := make(map[uuid.UUID]*model.PlayerRecord)
	for id, rec := range r.players {
		if rec.IsSpectator() {
			out[id] = rec
		}
	}
	return out
}

// visibleSpectators returns spectators excluding moderators, which are
// hidden from presence views.
func (r *registry) visibleSpectators(moderators map[uuid.UUID]struct{}) map[uuid.UUID]*model.PlayerRecord {
	out := make(map[uuid.UUID]*model.PlayerRecord)
	for id, rec := range r.players {
		if _, mod := moderators[id]; rec.IsSpectator() && !mod {
			out[id] = rec
		}
	}
	return out
}

// competingCount counts non-spectator records without allocating.
func (r *registry) competingCount() int {
	n := 0
	for _, rec := range r.players {
		if !rec.IsSpectator() {
			n++
		}
	}
	return n
}

// onlineIDs returns the ids of records currently online.
func (r *registry) onlineIDs() []uuid.UUID {
	out := make([]uuid.UUID, 0, len(r.players))
	for id, rec := range r.players {
		if rec.Online {
			out = append(out, id)
		}
	}
	return out
}
