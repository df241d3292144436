package game

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/groblegark/arena/internal/model"
)

// In-memory collaborator fakes. Every fake is safe for concurrent use since
// the session invokes collaborators from background goroutines.

type fakeNotifier struct {
	mu            sync.Mutex
	started       []int
	joined        []uuid.UUID
	disconnected  []uuid.UUID
	quit          []uuid.UUID
	reconnected   []uuid.UUID
	expired       []uuid.UUID
	roundEnded    int
	broadcasts    []string
	lastWindow    time.Duration
	lastCompetive bool
}

func (f *fakeNotifier) GameStarted(players int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = append(f.started, players)
}

func (f *fakeNotifier) PlayerJoined(id uuid.UUID, competitive bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.joined = append(f.joined, id)
	f.lastCompetive = competitive
}

func (f *fakeNotifier) PlayerDisconnected(id uuid.UUID, window time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disconnected = append(f.disconnected, id)
	f.lastWindow = window
}

func (f *fakeNotifier) PlayerQuit(id uuid.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.quit = append(f.quit, id)
}

func (f *fakeNotifier) PlayerReconnected(id uuid.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reconnected = append(f.reconnected, id)
}

func (f *fakeNotifier) ReconnectExpired(id uuid.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.expired = append(f.expired, id)
}

func (f *fakeNotifier) RoundEnded() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.roundEnded++
}

func (f *fakeNotifier) Custom(text string, urgent bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.broadcasts = append(f.broadcasts, text)
}

type fakeStats struct {
	mu         sync.Mutex
	games      map[uuid.UUID]int
	wins       map[uuid.UUID]int
	playedSecs map[uuid.UUID]int64
	finalized  int
	winsErr    error
}

func newFakeStats() *fakeStats {
	return &fakeStats{
		games:      make(map[uuid.UUID]int),
		wins:       make(map[uuid.UUID]int),
		playedSecs: make(map[uuid.UUID]int64),
	}
}

func (f *fakeStats) IncreasePlayedGames(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.games[id]++
	return nil
}

func (f *fakeStats) IncreaseWins(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.winsErr != nil {
		return f.winsErr
	}
	f.wins[id]++
	return nil
}

func (f *fakeStats) IncreasePlayedTime(_ context.Context, id uuid.UUID, seconds int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.playedSecs[id] += seconds
	return nil
}

func (f *fakeStats) Finalize(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.finalized++
	return nil
}

type grant struct {
	achievement int
	player      uuid.UUID
	amount      int
}

type fakeAchievements struct {
	mu         sync.Mutex
	unlocks    []grant
	increments []grant
}

func (f *fakeAchievements) Unlock(_ context.Context, achievementID int, player uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unlocks = append(f.unlocks, grant{achievement: achievementID, player: player})
	return nil
}

func (f *fakeAchievements) Increment(_ context.Context, player uuid.UUID, achievementID, amount int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.increments = append(f.increments, grant{achievement: achievementID, player: player, amount: amount})
	return nil
}

func (f *fakeAchievements) unlocked(achievementID int, player uuid.UUID) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, g := range f.unlocks {
		if g.achievement == achievementID && g.player == player {
			return true
		}
	}
	return false
}

type fakePerms struct {
	staff     map[uuid.UUID]bool
	groups    map[uuid.UUID]int
	nicknames map[uuid.UUID]bool
}

func newFakePerms() *fakePerms {
	return &fakePerms{
		staff:     make(map[uuid.UUID]bool),
		groups:    make(map[uuid.UUID]int),
		nicknames: make(map[uuid.UUID]bool),
	}
}

func (f *fakePerms) HasPermission(id uuid.UUID, capability string) bool {
	return capability == CapabilityStaff && f.staff[id]
}

func (f *fakePerms) GroupID(id uuid.UUID) int { return f.groups[id] }

func (f *fakePerms) HasNickname(id uuid.UUID) bool { return f.nicknames[id] }

type delivery struct {
	player uuid.UUID
	coins  int
	token  model.RewardToken
}

type fakeRewards struct {
	mu         sync.Mutex
	deliveries []delivery
}

func (f *fakeRewards) Compute(id uuid.UUID, elapsed time.Duration, winner bool) model.RewardToken {
	kind := "participation"
	if winner {
		kind = "victory"
	}
	return model.RewardToken{Kind: kind, Stars: int(elapsed / time.Minute)}
}

func (f *fakeRewards) Deliver(id uuid.UUID, coins int, token model.RewardToken) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deliveries = append(f.deliveries, delivery{player: id, coins: coins, token: token})
}

type fakeVoice struct {
	mu        sync.Mutex
	channel   int64
	created   []string
	deleted   []int64
	moved     [][]uuid.UUID
	connected map[uuid.UUID]bool
}

func newFakeVoice(channel int64) *fakeVoice {
	return &fakeVoice{channel: channel, connected: make(map[uuid.UUID]bool)}
}

func (f *fakeVoice) CreateChannel(name string) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, name)
	return f.channel
}

func (f *fakeVoice) DeleteChannel(channelID int64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, channelID)
	return true
}

func (f *fakeVoice) MovePlayers(ids []uuid.UUID, channelID int64) []uuid.UUID {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.moved = append(f.moved, ids)
	return nil
}

func (f *fakeVoice) IsConnected(id uuid.UUID) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected[id]
}

type fakeLastGame struct {
	mu      sync.Mutex
	records map[uuid.UUID]string
}

func newFakeLastGame() *fakeLastGame {
	return &fakeLastGame{records: make(map[uuid.UUID]string)}
}

func (f *fakeLastGame) Record(id uuid.UUID, codeName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[id] = codeName
	return nil
}

type fakeManager struct {
	mu               sync.Mutex
	reconnectAllowed bool
	refreshes        int
	timerStarts      int
	timerStops       int
	kicked           []uuid.UUID
	spectatorMode    []uuid.UUID
	hidden           map[uuid.UUID]uuid.UUID
}

func newFakeManager() *fakeManager {
	return &fakeManager{reconnectAllowed: true, hidden: make(map[uuid.UUID]uuid.UUID)}
}

func (f *fakeManager) ReconnectAllowed(id uuid.UUID) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reconnectAllowed
}

func (f *fakeManager) RefreshArena() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshes++
}

func (f *fakeManager) StartRoundTimer() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.timerStarts++
}

func (f *fakeManager) StopRoundTimer() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.timerStops++
}

func (f *fakeManager) Kick(id uuid.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.kicked = append(f.kicked, id)
}

func (f *fakeManager) SetSpectatorMode(id uuid.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.spectatorMode = append(f.spectatorMode, id)
}

func (f *fakeManager) HidePlayer(viewer, target uuid.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hidden[viewer] = target
}

type fakeAlerter struct {
	mu     sync.Mutex
	alerts []string
}

func (f *fakeAlerter) Alert(text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alerts = append(f.alerts, text)
}
