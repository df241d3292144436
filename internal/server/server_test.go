package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/groblegark/arena/internal/game"
	"github.com/groblegark/arena/internal/lastgame"
	"github.com/groblegark/arena/internal/stats"
)

type noopNotifier struct{}

func (noopNotifier) GameStarted(int)                             {}
func (noopNotifier) PlayerJoined(uuid.UUID, bool)                {}
func (noopNotifier) PlayerDisconnected(uuid.UUID, time.Duration) {}
func (noopNotifier) PlayerQuit(uuid.UUID)                        {}
func (noopNotifier) PlayerReconnected(uuid.UUID)                 {}
func (noopNotifier) ReconnectExpired(uuid.UUID)                  {}
func (noopNotifier) RoundEnded()                                 {}
func (noopNotifier) Custom(string, bool)                         {}

type noopManager struct{}

func (noopManager) ReconnectAllowed(uuid.UUID) bool { return true }
func (noopManager) RefreshArena()                   {}
func (noopManager) StartRoundTimer()                {}
func (noopManager) StopRoundTimer()                 {}
func (noopManager) Kick(uuid.UUID)                  {}
func (noopManager) SetSpectatorMode(uuid.UUID)      {}
func (noopManager) HidePlayer(uuid.UUID, uuid.UUID) {}

var (
	_ game.Notifier = noopNotifier{}
	_ game.Manager  = noopManager{}
)

type stubStats struct {
	stats map[uuid.UUID]*stats.PlayerStats
}

func (s *stubStats) PlayerStats(_ context.Context, id uuid.UUID) (*stats.PlayerStats, error) {
	ps, ok := s.stats[id]
	if !ok {
		return nil, fmt.Errorf("player %s: %w", id, stats.ErrNotFound)
	}
	return ps, nil
}

type stubLastGame struct {
	records map[uuid.UUID]string
}

func (s *stubLastGame) Lookup(id uuid.UUID) (string, error) {
	code, ok := s.records[id]
	if !ok {
		return "", lastgame.ErrNoRecord
	}
	return code, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type serverEnv struct {
	handler  http.Handler
	session  *game.Session
	stats    *stubStats
	lastGame *stubLastGame
}

func newTestServer(t *testing.T, mutate func(*game.Options)) *serverEnv {
	t.Helper()

	opts := game.Options{CodeName: "duel", Schedule: &game.Schedule{}}
	if mutate != nil {
		mutate(&opts)
	}
	session, err := game.NewSession(opts, game.Collaborators{
		Notifier: noopNotifier{},
		Manager:  noopManager{},
	}, testLogger())
	if err != nil {
		t.Fatalf("creating session: %v", err)
	}

	env := &serverEnv{
		session:  session,
		stats:    &stubStats{stats: make(map[uuid.UUID]*stats.PlayerStats)},
		lastGame: &stubLastGame{records: make(map[uuid.UUID]string)},
	}
	srv := NewArenaServer(session, env.stats, env.lastGame, testLogger())
	env.handler = srv.NewHTTPHandler("")
	return env
}

func doRequest(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	return body
}

func TestHealth(t *testing.T) {
	env := newTestServer(t, nil)
	rec := doRequest(t, env.handler, http.MethodGet, "/v1/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestGetSession(t *testing.T) {
	env := newTestServer(t, nil)
	env.session.AdmitPlayer(uuid.New())

	rec := doRequest(t, env.handler, http.MethodGet, "/v1/session", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["code_name"] != "duel" {
		t.Errorf("code_name = %v, want duel", body["code_name"])
	}
	if body["status"] != "waiting_for_players" {
		t.Errorf("status = %v, want waiting_for_players", body["status"])
	}
	if body["connected"] != float64(1) {
		t.Errorf("connected = %v, want 1", body["connected"])
	}
	if body["voice_channel"] != float64(-1) {
		t.Errorf("voice_channel = %v, want -1", body["voice_channel"])
	}
}

func TestPlayerLifecycleOverHTTP(t *testing.T) {
	env := newTestServer(t, nil)
	id := uuid.New()

	rec := doRequest(t, env.handler, http.MethodPost, "/v1/players/"+id.String()+"/join", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("join status = %d, want 200", rec.Code)
	}
	if !env.session.HasPlayer(id) {
		t.Fatal("player not admitted")
	}

	rec = doRequest(t, env.handler, http.MethodPost, "/v1/session/start", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("start status = %d, want 200", rec.Code)
	}

	rec = doRequest(t, env.handler, http.MethodPost, "/v1/players/"+id.String()+"/leave", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("leave status = %d, want 200", rec.Code)
	}

	rec = doRequest(t, env.handler, http.MethodPost, "/v1/players/"+id.String()+"/reconnect", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("reconnect status = %d, want 200", rec.Code)
	}
	player, ok := env.session.Player(id)
	if !ok || !player.Online {
		t.Error("player not restored by reconnect")
	}

	rec = doRequest(t, env.handler, http.MethodPost, "/v1/session/end", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("end status = %d, want 200", rec.Code)
	}
	<-env.session.SequencerDone()

	rec = doRequest(t, env.handler, http.MethodPost, "/v1/session/reboot", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("reboot status = %d, want 200", rec.Code)
	}
}

func TestLifecycleConflicts(t *testing.T) {
	env := newTestServer(t, nil)

	rec := doRequest(t, env.handler, http.MethodPost, "/v1/session/reboot", nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("reboot from waiting: status = %d, want 409", rec.Code)
	}

	if rec := doRequest(t, env.handler, http.MethodPost, "/v1/session/end", nil); rec.Code != http.StatusOK {
		t.Fatalf("end status = %d, want 200", rec.Code)
	}
	<-env.session.SequencerDone()

	rec = doRequest(t, env.handler, http.MethodPost, "/v1/session/end", nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("second end: status = %d, want 409", rec.Code)
	}
}

func TestFreeModeConflict(t *testing.T) {
	env := newTestServer(t, func(o *game.Options) { o.FreeMode = true })
	rec := doRequest(t, env.handler, http.MethodPost, "/v1/session/start", nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
}

func TestBadPlayerID(t *testing.T) {
	env := newTestServer(t, nil)
	rec := doRequest(t, env.handler, http.MethodPost, "/v1/players/not-a-uuid/join", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestSpectateAndCoins(t *testing.T) {
	env := newTestServer(t, nil)
	id := uuid.New()
	env.session.AdmitPlayer(id)

	rec := doRequest(t, env.handler, http.MethodPost, "/v1/players/"+id.String()+"/spectate", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("spectate status = %d, want 200", rec.Code)
	}
	if !env.session.IsSpectator(id) {
		t.Error("player not moved to spectator")
	}

	rec = doRequest(t, env.handler, http.MethodPost, "/v1/players/"+id.String()+"/coins", coinsRequest{Amount: 25})
	if rec.Code != http.StatusOK {
		t.Fatalf("coins status = %d, want 200", rec.Code)
	}
	if got := decodeBody(t, rec)["coins"]; got != float64(25) {
		t.Errorf("coins = %v, want 25", got)
	}

	unknown := uuid.New()
	rec = doRequest(t, env.handler, http.MethodPost, "/v1/players/"+unknown.String()+"/spectate", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("spectate unknown: status = %d, want 404", rec.Code)
	}
	rec = doRequest(t, env.handler, http.MethodPost, "/v1/players/"+unknown.String()+"/coins", coinsRequest{Amount: 5})
	if rec.Code != http.StatusNotFound {
		t.Errorf("coins unknown: status = %d, want 404", rec.Code)
	}
}

func TestWinnersEndpoint(t *testing.T) {
	env := newTestServer(t, nil)
	id := uuid.New()
	env.session.AdmitPlayer(id)

	rec := doRequest(t, env.handler, http.MethodPost, "/v1/players/"+id.String()+"/win", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("win status = %d, want 200", rec.Code)
	}
	winners := decodeBody(t, rec)["winners"].([]any)
	if len(winners) != 1 || winners[0] != id.String() {
		t.Errorf("winners = %v, want [%s]", winners, id)
	}
}

func TestPlayerStatsEndpoint(t *testing.T) {
	env := newTestServer(t, nil)
	id := uuid.New()
	env.stats.stats[id] = &stats.PlayerStats{PlayerID: id, PlayedGames: 7, Wins: 2, PlayedSeconds: 900}

	rec := doRequest(t, env.handler, http.MethodGet, "/v1/players/"+id.String()+"/stats", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["played_games"] != float64(7) || body["wins"] != float64(2) {
		t.Errorf("stats = %v", body)
	}

	rec = doRequest(t, env.handler, http.MethodGet, "/v1/players/"+uuid.New().String()+"/stats", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown player: status = %d, want 404", rec.Code)
	}
}

func TestLastGameEndpoint(t *testing.T) {
	env := newTestServer(t, nil)
	id := uuid.New()
	env.lastGame.records[id] = "skirmish"

	rec := doRequest(t, env.handler, http.MethodGet, "/v1/players/"+id.String()+"/lastgame", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := decodeBody(t, rec)["code_name"]; got != "skirmish" {
		t.Errorf("code_name = %v, want skirmish", got)
	}

	rec = doRequest(t, env.handler, http.MethodGet, "/v1/players/"+uuid.New().String()+"/lastgame", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown player: status = %d, want 404", rec.Code)
	}
}

func TestModeratorEndpoint(t *testing.T) {
	env := newTestServer(t, nil)
	id := uuid.New()

	rec := doRequest(t, env.handler, http.MethodPost, "/v1/moderators/"+id.String(), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !env.session.IsModerator(id) {
		t.Error("moderator not registered")
	}
}

func TestAuthMiddleware(t *testing.T) {
	env := newTestServer(t, nil)
	srv := NewArenaServer(env.session, env.stats, env.lastGame, testLogger())
	handler := srv.NewHTTPHandler("sekrit")

	// Health stays open.
	rec := doRequest(t, handler, http.MethodGet, "/v1/health", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("health status = %d, want 200", rec.Code)
	}

	rec = doRequest(t, handler, http.MethodGet, "/v1/session", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("missing token: status = %d, want 401", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/session", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("bad token: status = %d, want 401", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/v1/session", nil)
	req.Header.Set("Authorization", "Bearer sekrit")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("valid token: status = %d, want 200", w.Code)
	}
}
