package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/groblegark/arena/internal/game"
	"github.com/groblegark/arena/internal/lastgame"
	"github.com/groblegark/arena/internal/stats"
)

// NewHTTPHandler returns an http.Handler with all routes registered.
// When authToken is non-empty, requests (except GET /v1/health) must include
// a valid Authorization: Bearer <token> header.
func (s *ArenaServer) NewHTTPHandler(authToken string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/health", s.handleHealth)
	mux.HandleFunc("GET /v1/session", s.handleGetSession)
	mux.HandleFunc("GET /v1/session/players", s.handleListPlayers)
	mux.HandleFunc("POST /v1/session/start", s.handleStartSession)
	mux.HandleFunc("POST /v1/session/end", s.handleEndSession)
	mux.HandleFunc("POST /v1/session/reboot", s.handleRebootSession)
	mux.HandleFunc("POST /v1/players/{id}/join", s.handlePlayerJoin)
	mux.HandleFunc("POST /v1/players/{id}/leave", s.handlePlayerLeave)
	mux.HandleFunc("POST /v1/players/{id}/reconnect", s.handlePlayerReconnect)
	mux.HandleFunc("POST /v1/players/{id}/expire", s.handlePlayerExpire)
	mux.HandleFunc("POST /v1/players/{id}/win", s.handlePlayerWin)
	mux.HandleFunc("POST /v1/players/{id}/spectate", s.handlePlayerSpectate)
	mux.HandleFunc("POST /v1/players/{id}/coins", s.handlePlayerCoins)
	mux.HandleFunc("GET /v1/players/{id}/stats", s.handlePlayerStats)
	mux.HandleFunc("GET /v1/players/{id}/lastgame", s.handlePlayerLastGame)
	mux.HandleFunc("POST /v1/moderators/{id}", s.handleModeratorJoin)
	return AuthMiddleware(authToken, mux)
}

// handleHealth handles GET /v1/health.
func (s *ArenaServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// sessionView is the response body of GET /v1/session.
type sessionView struct {
	CodeName     string      `json:"code_name"`
	Name         string      `json:"name"`
	Description  string      `json:"description,omitempty"`
	Status       string      `json:"status"`
	StartedAt    *time.Time  `json:"started_at,omitempty"`
	Connected    int         `json:"connected"`
	Spectators   int         `json:"spectators"`
	Winners      []uuid.UUID `json:"winners"`
	VoiceChannel int64       `json:"voice_channel"`
}

func (s *ArenaServer) handleGetSession(w http.ResponseWriter, _ *http.Request) {
	view := sessionView{
		CodeName:     s.session.CodeName(),
		Name:         s.session.Name(),
		Description:  s.session.Description(),
		Status:       s.session.Status().String(),
		Connected:    s.session.ConnectedCount(),
		Spectators:   len(s.session.Spectators()),
		Winners:      s.session.Winners(),
		VoiceChannel: s.session.VoiceChannel(),
	}
	if started := s.session.StartedAt(); !started.IsZero() {
		view.StartedAt = &started
	}
	writeJSON(w, http.StatusOK, view)
}

// playerView is one row of GET /v1/session/players.
type playerView struct {
	ID                uuid.UUID  `json:"id"`
	Role              string     `json:"role"`
	Online            bool       `json:"online"`
	ReconnectDeadline *time.Time `json:"reconnect_deadline,omitempty"`
	PlayedSeconds     int64      `json:"played_seconds"`
	Coins             int        `json:"coins"`
}

func (s *ArenaServer) handleListPlayers(w http.ResponseWriter, _ *http.Request) {
	records := s.session.RegisteredPlayers()
	players := make([]playerView, 0, len(records))
	for _, rec := range records {
		view := playerView{
			ID:            rec.ID,
			Role:          string(rec.Role),
			Online:        rec.Online,
			PlayedSeconds: int64(rec.PlayedTime / time.Second),
			Coins:         rec.Coins,
		}
		if !rec.ReconnectDeadline.IsZero() {
			deadline := rec.ReconnectDeadline
			view.ReconnectDeadline = &deadline
		}
		players = append(players, view)
	}
	writeJSON(w, http.StatusOK, map[string]any{"players": players, "total": len(players)})
}

func (s *ArenaServer) handleStartSession(w http.ResponseWriter, _ *http.Request) {
	if err := s.session.Start(); err != nil {
		writeLifecycleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": s.session.Status().String()})
}

func (s *ArenaServer) handleEndSession(w http.ResponseWriter, _ *http.Request) {
	if err := s.session.End(); err != nil {
		writeLifecycleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": s.session.Status().String()})
}

func (s *ArenaServer) handleRebootSession(w http.ResponseWriter, _ *http.Request) {
	if err := s.session.SetRebooting(); err != nil {
		writeLifecycleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": s.session.Status().String()})
}

func (s *ArenaServer) handlePlayerJoin(w http.ResponseWriter, r *http.Request) {
	id, ok := pathPlayerID(w, r)
	if !ok {
		return
	}
	if allowed, reason := s.session.CanAdmit(id, false); !allowed {
		writeError(w, http.StatusForbidden, reason)
		return
	}
	s.session.AdmitPlayer(id)
	writeJSON(w, http.StatusOK, map[string]any{"admitted": true})
}

func (s *ArenaServer) handlePlayerLeave(w http.ResponseWriter, r *http.Request) {
	id, ok := pathPlayerID(w, r)
	if !ok {
		return
	}
	s.session.RemovePlayer(id)
	writeJSON(w, http.StatusOK, map[string]any{"removed": true})
}

func (s *ArenaServer) handlePlayerReconnect(w http.ResponseWriter, r *http.Request) {
	id, ok := pathPlayerID(w, r)
	if !ok {
		return
	}
	if err := s.session.Reconnect(id); err != nil {
		writeLifecycleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reconnected": s.session.HasPlayer(id)})
}

func (s *ArenaServer) handlePlayerExpire(w http.ResponseWriter, r *http.Request) {
	id, ok := pathPlayerID(w, r)
	if !ok {
		return
	}
	if err := s.session.ReconnectTimeout(id, false); err != nil {
		writeLifecycleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"expired": true})
}

func (s *ArenaServer) handlePlayerWin(w http.ResponseWriter, r *http.Request) {
	id, ok := pathPlayerID(w, r)
	if !ok {
		return
	}
	if err := s.session.RecordWinner(id); err != nil {
		writeLifecycleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"winners": s.session.Winners()})
}

func (s *ArenaServer) handlePlayerSpectate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathPlayerID(w, r)
	if !ok {
		return
	}
	if !s.session.HasPlayer(id) {
		writeError(w, http.StatusNotFound, "player not registered")
		return
	}
	s.session.SetSpectator(id)
	writeJSON(w, http.StatusOK, map[string]any{"spectator": true})
}

// coinsRequest is the body of POST /v1/players/{id}/coins.
type coinsRequest struct {
	Amount int `json:"amount"`
}

func (s *ArenaServer) handlePlayerCoins(w http.ResponseWriter, r *http.Request) {
	id, ok := pathPlayerID(w, r)
	if !ok {
		return
	}
	var req coinsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	total, ok := s.session.AddCoins(id, req.Amount)
	if !ok {
		writeError(w, http.StatusNotFound, "player not registered")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"coins": total})
}

func (s *ArenaServer) handlePlayerStats(w http.ResponseWriter, r *http.Request) {
	id, ok := pathPlayerID(w, r)
	if !ok {
		return
	}
	if s.stats == nil {
		writeError(w, http.StatusNotFound, "statistics not configured")
		return
	}
	ps, err := s.stats.PlayerStats(r.Context(), id)
	if err != nil {
		if errors.Is(err, stats.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no statistics for player")
			return
		}
		s.logger.Error("stats lookup failed", "player", id, "err", err)
		writeError(w, http.StatusInternalServerError, "stats lookup failed")
		return
	}
	writeJSON(w, http.StatusOK, ps)
}

func (s *ArenaServer) handlePlayerLastGame(w http.ResponseWriter, r *http.Request) {
	id, ok := pathPlayerID(w, r)
	if !ok {
		return
	}
	if s.lastGame == nil {
		writeError(w, http.StatusNotFound, "last-game store not configured")
		return
	}
	code, err := s.lastGame.Lookup(id)
	if err != nil {
		if errors.Is(err, lastgame.ErrNoRecord) {
			writeError(w, http.StatusNotFound, "no last-game record")
			return
		}
		s.logger.Error("last-game lookup failed", "player", id, "err", err)
		writeError(w, http.StatusInternalServerError, "last-game lookup failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"code_name": code})
}

func (s *ArenaServer) handleModeratorJoin(w http.ResponseWriter, r *http.Request) {
	id, ok := pathPlayerID(w, r)
	if !ok {
		return
	}
	s.session.AdmitModerator(id)
	writeJSON(w, http.StatusOK, map[string]any{"moderator": true})
}

// pathPlayerID parses the {id} path segment; on failure it writes a 400 and
// returns false.
func pathPlayerID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid player id")
		return uuid.Nil, false
	}
	return id, true
}

// writeLifecycleError maps session errors to HTTP statuses.
func writeLifecycleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, game.ErrFreeMode):
		writeError(w, http.StatusConflict, "session runs in free mode")
	case errors.Is(err, game.ErrTransition):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
