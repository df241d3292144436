// Package game implements the session lifecycle of one game round: player
// admission, the reconnect window, win tracking, and the staged end-of-game
// sequence. A Session is owned by the orchestrating process for the lifetime
// of one round and is safe for concurrent use; collaborator failures never
// roll back a lifecycle transition.
package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/groblegark/arena/internal/model"
)

// ErrFreeMode is returned when a lifecycle operation is invoked on a session
// running in externally-managed free mode. This is a programming error on
// the caller's side: never retry, never swallow.
var ErrFreeMode = errors.New("game: operation not available in free mode")

// ErrAlreadyInitialized is returned by a second Initialize call.
var ErrAlreadyInitialized = errors.New("game: session already initialized")

// ErrTransition is returned when a lifecycle operation would move the status
// backward. Status is monotonic: waiting → in game → finished → rebooting.
var ErrTransition = errors.New("game: invalid status transition")

// CapabilityStaff is the permission checked when computing end-of-game flags.
const CapabilityStaff = "network.staff"

// Achievement ids. The table is fixed by the achievements service; unknown
// ids fail with a not-found error at the call site.
const (
	AchievementFirstWin   = 25
	AchievementMetStaff   = 15
	AchievementMetCreator = 16
	AchievementMetPartner = 13
	AchievementMetAlly    = 14
	AchievementMetHidden  = 17
)

// winCounterAchievements are incremented by one on every recorded win.
var winCounterAchievements = []int{26, 27, 28, 29}

// coinCounterAchievements are incremented by the player's session coin delta
// during the end-of-game achievement stage.
var coinCounterAchievements = []int{30, 31, 32, 33, 34}

// Schedule holds the relative delays of the end-of-game stages. Delays are
// measured from the instant End is called.
type Schedule struct {
	Rewards  time.Duration
	Kick     time.Duration
	Teardown time.Duration
}

// DefaultSchedule matches the production pacing: rewards must follow the
// achievement tally, and teardown must follow the forced disconnect so late
// player state cannot race the shutdown broadcast.
func DefaultSchedule() Schedule {
	return Schedule{
		Rewards:  3 * time.Second,
		Kick:     10 * time.Second,
		Teardown: 15 * time.Second,
	}
}

// EndFlags is the immutable snapshot of role/group presence computed when
// the game ends, consumed by the achievement stage.
type EndFlags struct {
	Staff   bool
	Creator bool
	Partner bool
	Ally    bool
	Hidden  bool
}

// AdmitFunc decides whether a player may join. Returning false carries a
// reason displayed to the player.
type AdmitFunc func(id uuid.UUID, reconnect bool) (bool, string)

// AdmitPartyFunc decides whether a whole party may join.
type AdmitPartyFunc func(ids []uuid.UUID) (bool, string)

// Options configures a Session.
type Options struct {
	CodeName    string // lower-cased at construction; immutable
	Name        string
	Description string
	Creators    []uuid.UUID

	// FreeMode marks an externally-managed session; most lifecycle
	// operations return ErrFreeMode.
	FreeMode bool

	// Countdown is the pre-game countdown length. Zero uses one minute.
	Countdown time.Duration
	// ReconnectWindow bounds how long a disconnected player's record is
	// retained. Zero uses five minutes.
	ReconnectWindow time.Duration
	// Schedule overrides the end-of-game stage delays (zero value uses
	// DefaultSchedule).
	Schedule *Schedule

	// NewRecord produces the per-player record on admission. Defaults to
	// model.NewPlayerRecord.
	NewRecord func(id uuid.UUID) *model.PlayerRecord
	// VoiceLinked reports whether the player opted into voice integration.
	// Nil means nobody is linked.
	VoiceLinked func(id uuid.UUID) bool
	// CountdownTick observes the countdown (seconds remaining). Optional.
	CountdownTick func(remaining int)
	// CountdownComplete fires when the countdown reaches zero. Optional;
	// the surrounding framework usually starts the game from here.
	CountdownComplete func()
	// OnTeardown runs during the teardown stage, before the round-ended
	// broadcast. Optional; used for round archival.
	OnTeardown func()

	// CanAdmit and CanAdmitParty are admission extension points; the
	// defaults allow everyone.
	CanAdmit      AdmitFunc
	CanAdmitParty AdmitPartyFunc

	// PartnerGroupID and AllyGroupID are the community groups scanned for
	// end-of-game flags. Zero values use the production ids 4 and 5.
	PartnerGroupID int
	AllyGroupID    int
}

// Session tracks one running game round.
type Session struct {
	logger *slog.Logger
	deps   Collaborators
	opts   Options

	mu         sync.RWMutex
	status     model.Status
	players    *registry
	moderators map[uuid.UUID]struct{}
	winners    []uuid.UUID
	startedAt  time.Time

	voiceChannel int64 // -1 until acquired

	countdown   *Countdown
	sequencer   *Sequencer
	initialized bool

	now func() time.Time
}

// NewSession constructs a session in the waiting-for-players state. Notifier
// and Manager are required; Initialize must be called exactly once before
// any other operation.
func NewSession(opts Options, deps Collaborators, logger *slog.Logger) (*Session, error) {
	if opts.CodeName == "" {
		return nil, fmt.Errorf("game: code name is required")
	}
	if deps.Notifier == nil || deps.Manager == nil {
		return nil, fmt.Errorf("game: notifier and manager collaborators are required")
	}
	opts.CodeName = strings.ToLower(opts.CodeName)
	if opts.Name == "" {
		opts.Name = opts.CodeName
	}
	if opts.Countdown <= 0 {
		opts.Countdown = time.Minute
	}
	if opts.ReconnectWindow <= 0 {
		opts.ReconnectWindow = 5 * time.Minute
	}
	if opts.NewRecord == nil {
		opts.NewRecord = model.NewPlayerRecord
	}
	if opts.PartnerGroupID == 0 {
		opts.PartnerGroupID = 4
	}
	if opts.AllyGroupID == 0 {
		opts.AllyGroupID = 5
	}

	return &Session{
		logger:       logger,
		deps:         deps,
		opts:         opts,
		status:       model.StatusWaitingForPlayers,
		players:      newRegistry(),
		moderators:   make(map[uuid.UUID]struct{}),
		voiceChannel: -1,
		now:          time.Now,
	}, nil
}

// Initialize arms the begin countdown (outside free mode) and asynchronously
// attempts to acquire the external voice channel. Failure to acquire the
// channel is logged, not fatal. Valid exactly once.
func (s *Session) Initialize() error {
	s.mu.Lock()
	if s.initialized {
		s.mu.Unlock()
		return ErrAlreadyInitialized
	}
	s.initialized = true

	if !s.opts.FreeMode {
		s.countdown = NewCountdown(s.opts.CountdownTick, s.opts.CountdownComplete, s.logger)
		s.countdown.Start(s.opts.Countdown)
	}
	s.mu.Unlock()

	if s.deps.Stats == nil {
		s.logger.Error("no statistics collaborator registered, players will lose their statistics this session")
	}

	if s.deps.Voice != nil {
		go s.acquireVoiceChannel()
	}
	return nil
}

// acquireVoiceChannel creates the session's voice channel if none exists.
// Runs on a background goroutine: the bridge call blocks up to its timeout.
func (s *Session) acquireVoiceChannel() {
	s.mu.RLock()
	have := s.voiceChannel >= 0
	s.mu.RUnlock()
	if have {
		return
	}

	ch := s.deps.Voice.CreateChannel(s.opts.CodeName)
	if ch < 0 {
		s.logger.Warn("voice channel acquisition failed", "session", s.opts.CodeName)
		return
	}

	s.mu.Lock()
	if s.voiceChannel < 0 {
		s.voiceChannel = ch
	}
	s.mu.Unlock()
	s.logger.Info("voice channel acquired", "channel", ch)
}

// Start transitions the session into the in-game state: the countdown is
// cancelled, every active player's progression counters reset, statistics
// are notified once per player, and the start notification is emitted.
func (s *Session) Start() error {
	if s.opts.FreeMode {
		return ErrFreeMode
	}

	s.mu.Lock()
	if s.status != model.StatusWaitingForPlayers {
		s.mu.Unlock()
		return fmt.Errorf("%w: start from %s", ErrTransition, s.status)
	}

	now := s.now()
	s.startedAt = now
	if s.countdown != nil {
		s.countdown.Cancel()
	}
	s.setStatusLocked(model.StatusInGame)

	ids := make([]uuid.UUID, 0, len(s.players.players))
	for id, rec := range s.players.players {
		rec.ResetPlayedTime(now)
		ids = append(ids, id)
	}
	online := s.players.onlineIDs()
	s.mu.Unlock()

	// Network hook: the round timer is shared infrastructure.
	s.deps.Manager.StartRoundTimer()
	s.deps.Manager.RefreshArena()

	if s.deps.Stats != nil {
		for _, id := range ids {
			if err := s.deps.Stats.IncreasePlayedGames(context.Background(), id); err != nil {
				s.logger.Warn("played-games increment failed", "player", id, "err", err)
			}
		}
	}

	s.deps.Notifier.GameStarted(len(ids))

	if s.deps.Voice != nil {
		go func() {
			s.acquireVoiceChannel()
			s.mu.RLock()
			ch := s.voiceChannel
			s.mu.RUnlock()
			if ch >= 0 && len(online) > 0 {
				s.deps.Voice.MovePlayers(online, ch)
			}
		}()
	}
	return nil
}

// AdmitPlayer registers a fresh active record for the player and announces
// the join. If the session holds a voice channel and the player is linked to
// voice, the move is issued asynchronously, best-effort.
func (s *Session) AdmitPlayer(id uuid.UUID) {
	rec := s.opts.NewRecord(id)

	s.mu.Lock()
	s.players.put(rec)
	ch := s.voiceChannel
	s.mu.Unlock()

	s.deps.Notifier.PlayerJoined(id, !s.opts.FreeMode)

	if s.deps.Voice != nil && ch >= 0 && s.opts.VoiceLinked != nil && s.opts.VoiceLinked(id) {
		go func() {
			if s.deps.Voice.IsConnected(id) {
				s.deps.Voice.MovePlayers([]uuid.UUID{id}, ch)
			}
		}()
	}
}

// AdmitModerator adds the player to the moderator set without creating a
// gameplay record: moderators are forced into spectator mode and hidden from
// every admitted player's presence.
func (s *Session) AdmitModerator(id uuid.UUID) {
	s.mu.Lock()
	s.moderators[id] = struct{}{}
	viewers := s.players.onlineIDs()
	s.mu.Unlock()

	for _, viewer := range viewers {
		s.deps.Manager.HidePlayer(viewer, id)
	}
	s.deps.Manager.SetSpectatorMode(id)
}

// RemovePlayer handles a logout. After the session has finished this is a
// no-op (beyond the advisory last-game record). While the game is running
// and reconnection is permitted, the record is kept with a reconnect
// deadline; otherwise it is purged. Unknown ids are removed from the
// moderator set instead.
func (s *Session) RemovePlayer(id uuid.UUID) {
	if s.deps.LastGame != nil {
		if err := s.deps.LastGame.Record(id, s.opts.CodeName); err != nil {
			s.logger.Warn("last-game record failed", "player", id, "err", err)
		}
	}

	s.mu.Lock()
	if s.status == model.StatusFinished {
		s.mu.Unlock()
		return
	}

	rec := s.players.get(id)
	if rec == nil {
		delete(s.moderators, id)
		s.mu.Unlock()
		s.deps.Manager.RefreshArena()
		return
	}

	now := s.now()
	wasSpectator := rec.IsSpectator()
	reconnectable := s.status == model.StatusInGame && s.deps.Manager.ReconnectAllowed(id)

	rec.StepPlayedTime(now)
	rec.MarkDisconnected(now, s.opts.ReconnectWindow)
	if !reconnectable {
		s.players.remove(id)
	}
	s.mu.Unlock()

	if !wasSpectator {
		if reconnectable {
			s.deps.Notifier.PlayerDisconnected(id, s.opts.ReconnectWindow)
		} else {
			s.deps.Notifier.PlayerQuit(id)
		}
	}
	s.deps.Manager.RefreshArena()
}

// Reconnect restores a player whose record survived the disconnect. Without
// a surviving record the call degrades to a silent reconnect timeout. A
// returning spectator stays a spectator unless they are a moderator.
func (s *Session) Reconnect(id uuid.UUID) error {
	if s.opts.FreeMode {
		return ErrFreeMode
	}

	s.mu.Lock()
	rec := s.players.get(id)
	if rec == nil {
		s.mu.Unlock()
		return s.ReconnectTimeout(id, true)
	}

	now := s.now()
	rec.MarkReconnected()
	_, moderator := s.moderators[id]
	if rec.IsSpectator() && !moderator {
		rec.SetSpectator()
	} else {
		rec.SetActive()
		if s.status == model.StatusInGame {
			rec.ResumePlayedTime(now)
		}
	}
	s.mu.Unlock()

	s.deps.Notifier.PlayerReconnected(id)
	return nil
}

// ReconnectTimeout purges the player's record once the reconnect window can
// no longer be honored. Expiry is realized here, not by a timer: the
// deadline on the record is advisory state for the external trigger.
func (s *Session) ReconnectTimeout(id uuid.UUID, silent bool) error {
	if s.opts.FreeMode {
		return ErrFreeMode
	}

	s.mu.Lock()
	s.players.remove(id)
	s.mu.Unlock()

	s.deps.Manager.RefreshArena()
	if !silent {
		s.deps.Notifier.ReconnectExpired(id)
	}
	return nil
}

// RecordWinner appends the player to the winners sequence and grants the win
// achievements. The sequence is append-only and deliberately permits
// duplicates. Collaborator failures are logged and escalated, never fatal.
func (s *Session) RecordWinner(id uuid.UUID) error {
	if s.opts.FreeMode {
		return ErrFreeMode
	}

	s.mu.Lock()
	s.winners = append(s.winners, id)
	s.mu.Unlock()

	if s.deps.Stats != nil {
		if err := s.deps.Stats.IncreaseWins(context.Background(), id); err != nil {
			s.alert(fmt.Sprintf("failed to record win for %s: %v", id, err))
		}
	}
	if s.deps.Achievements != nil {
		ctx := context.Background()
		if err := s.deps.Achievements.Unlock(ctx, AchievementFirstWin, id); err != nil {
			s.logger.Warn("achievement unlock failed", "achievement", AchievementFirstWin, "player", id, "err", err)
		}
		for _, aid := range winCounterAchievements {
			if err := s.deps.Achievements.Increment(ctx, id, aid, 1); err != nil {
				s.logger.Warn("achievement increment failed", "achievement", aid, "player", id, "err", err)
			}
		}
	}
	return nil
}

// End transitions the session to finished, reports play time for every
// registered player, computes the end flags, and arms the end-of-game
// sequencer. The flags are captured at this instant and never re-evaluated.
func (s *Session) End() error {
	if s.opts.FreeMode {
		return ErrFreeMode
	}

	s.mu.Lock()
	if s.status >= model.StatusFinished {
		s.mu.Unlock()
		return fmt.Errorf("%w: end from %s", ErrTransition, s.status)
	}

	now := s.now()
	s.setStatusLocked(model.StatusFinished)

	for _, rec := range s.players.inGame() {
		rec.StepPlayedTime(now)
	}

	registered := s.players.all()
	flags := s.computeEndFlagsLocked()
	elapsed := time.Duration(0)
	if !s.startedAt.IsZero() {
		elapsed = now.Sub(s.startedAt)
	}
	winners := make([]uuid.UUID, len(s.winners))
	copy(winners, s.winners)
	s.mu.Unlock()

	s.deps.Manager.StopRoundTimer()
	s.deps.Manager.RefreshArena()

	if s.deps.Stats != nil {
		ctx := context.Background()
		for id, rec := range registered {
			// Individual failures are tolerated silently.
			_ = s.deps.Stats.IncreasePlayedTime(ctx, id, int64(rec.PlayedTime/time.Second))
		}
	}

	schedule := DefaultSchedule()
	if s.opts.Schedule != nil {
		schedule = *s.opts.Schedule
	}

	s.sequencer = NewSequencer([]Stage{
		{Name: "achievements", Delay: 0, Run: func() error {
			s.grantEndAchievements(flags)
			return nil
		}},
		{Name: "rewards", Delay: schedule.Rewards, Run: func() error {
			s.distributeRewards(elapsed, winners)
			return nil
		}},
		{Name: "kick", Delay: schedule.Kick, Run: func() error {
			s.kickRemaining()
			return nil
		}},
		{Name: "teardown", Delay: schedule.Teardown, Run: func() error {
			s.teardown()
			return nil
		}},
	}, s.logger)
	s.sequencer.Arm()
	return nil
}

// computeEndFlagsLocked scans the admitted records against the permission
// lookup. Caller must hold s.mu.
func (s *Session) computeEndFlagsLocked() EndFlags {
	var flags EndFlags
	if s.deps.Perms == nil {
		return flags
	}

	creators := make(map[uuid.UUID]struct{}, len(s.opts.Creators))
	for _, c := range s.opts.Creators {
		creators[c] = struct{}{}
	}

	for id := range s.players.players {
		switch {
		case s.deps.Perms.HasPermission(id, CapabilityStaff):
			flags.Staff = true
			if _, ok := creators[id]; ok {
				flags.Creator = true
			}
		case s.deps.Perms.GroupID(id) == s.opts.PartnerGroupID:
			flags.Partner = true
			if s.deps.Perms.HasNickname(id) {
				flags.Hidden = true
			}
		case s.deps.Perms.GroupID(id) == s.opts.AllyGroupID:
			flags.Ally = true
			if s.deps.Perms.HasNickname(id) {
				flags.Hidden = true
			}
		}
	}
	return flags
}

// grantEndAchievements runs the achievement stage for every player still
// connected, using the flag snapshot captured by End.
func (s *Session) grantEndAchievements(flags EndFlags) {
	if s.deps.Achievements == nil {
		return
	}

	s.mu.RLock()
	coins := make(map[uuid.UUID]int)
	for _, rec := range s.players.players {
		if rec.Online {
			coins[rec.ID] = rec.Coins
		}
	}
	s.mu.RUnlock()

	ctx := context.Background()
	unlocks := []struct {
		flag bool
		id   int
	}{
		{flags.Staff, AchievementMetStaff},
		{flags.Creator, AchievementMetCreator},
		{flags.Partner, AchievementMetPartner},
		{flags.Ally, AchievementMetAlly},
		{flags.Hidden, AchievementMetHidden},
	}

	for player, coinDelta := range coins {
		for _, u := range unlocks {
			if !u.flag {
				continue
			}
			if err := s.deps.Achievements.Unlock(ctx, u.id, player); err != nil {
				s.logger.Warn("achievement unlock failed", "achievement", u.id, "player", player, "err", err)
			}
		}
		for _, aid := range coinCounterAchievements {
			if err := s.deps.Achievements.Increment(ctx, player, aid, coinDelta); err != nil {
				s.logger.Warn("achievement increment failed", "achievement", aid, "player", player, "err", err)
			}
		}
	}
}

// distributeRewards computes and delivers an earning summary for every
// player still connected at this stage.
func (s *Session) distributeRewards(elapsed time.Duration, winners []uuid.UUID) {
	if s.deps.Rewards == nil {
		return
	}

	won := make(map[uuid.UUID]bool, len(winners))
	for _, w := range winners {
		won[w] = true
	}

	s.mu.RLock()
	type target struct {
		id    uuid.UUID
		coins int
	}
	var targets []target
	for _, rec := range s.players.players {
		if rec.Online {
			targets = append(targets, target{rec.ID, rec.Coins})
		}
	}
	s.mu.RUnlock()

	for _, tg := range targets {
		token := s.deps.Rewards.Compute(tg.id, elapsed, won[tg.id])
		s.deps.Rewards.Deliver(tg.id, tg.coins, token)
	}
}

// kickRemaining disconnects every remaining connected participant.
func (s *Session) kickRemaining() {
	s.mu.RLock()
	ids := s.players.onlineIDs()
	for mod := range s.moderators {
		ids = append(ids, mod)
	}
	s.mu.RUnlock()

	for _, id := range ids {
		s.deps.Manager.Kick(id)
	}
}

// teardown releases the voice channel, finalizes statistics aggregation,
// runs the archival hook, and publishes the round-ended broadcast.
func (s *Session) teardown() {
	s.mu.RLock()
	ch := s.voiceChannel
	s.mu.RUnlock()

	if s.deps.Voice != nil && ch >= 0 {
		if !s.deps.Voice.DeleteChannel(ch) {
			s.logger.Warn("voice channel release failed", "channel", ch)
		}
	}

	if s.deps.Stats != nil {
		if err := s.deps.Stats.Finalize(context.Background()); err != nil {
			s.logger.Warn("statistics finalize failed", "err", err)
		}
	}

	if s.opts.OnTeardown != nil {
		s.opts.OnTeardown()
	}

	s.deps.Notifier.RoundEnded()
}

// SetRebooting marks the session as rebooting. Driven by the surrounding
// framework, only reachable from the finished state.
func (s *Session) SetRebooting() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != model.StatusFinished {
		return fmt.Errorf("%w: reboot from %s", ErrTransition, s.status)
	}
	s.setStatusLocked(model.StatusRebooting)
	return nil
}

// setStatusLocked advances the status. Caller must hold s.mu; the arena
// refresh that accompanies every status change happens at the call sites,
// outside the lock.
func (s *Session) setStatusLocked(st model.Status) {
	s.status = st
}

// SetSpectator switches an admitted player into the spectator role.
func (s *Session) SetSpectator(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec := s.players.get(id); rec != nil {
		rec.SetSpectator()
	}
}

// AddCoins credits session coins to an admitted player and returns the new
// total. The ok result is false when the player holds no record.
func (s *Session) AddCoins(id uuid.UUID, amount int) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.players.get(id)
	if rec == nil {
		return 0, false
	}
	rec.AddCoins(amount)
	return rec.Coins, true
}

// CanAdmit reports whether the player may join. The default policy allows
// everyone.
func (s *Session) CanAdmit(id uuid.UUID, reconnect bool) (bool, string) {
	if s.opts.CanAdmit != nil {
		return s.opts.CanAdmit(id, reconnect)
	}
	return true, ""
}

// CanAdmitParty reports whether the whole party may join.
func (s *Session) CanAdmitParty(ids []uuid.UUID) (bool, string) {
	if s.opts.CanAdmitParty != nil {
		return s.opts.CanAdmitParty(ids)
	}
	return true, ""
}

func (s *Session) alert(text string) {
	s.logger.Error(text)
	if s.deps.Alerter != nil {
		s.deps.Alerter.Alert("[" + s.opts.CodeName + "] " + text)
	}
}

// CodeName returns the immutable lower-cased code name.
func (s *Session) CodeName() string { return s.opts.CodeName }

// Name returns the display name.
func (s *Session) Name() string { return s.opts.Name }

// Description returns the short description shown on join.
func (s *Session) Description() string { return s.opts.Description }

// Status returns the current lifecycle status.
func (s *Session) Status() model.Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// IsStarted reports whether the game has begun (in game or later).
func (s *Session) IsStarted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status >= model.StatusInGame
}

// StartedAt returns the start timestamp; zero until the game starts.
func (s *Session) StartedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.startedAt
}

// Player returns a copy of the record for id. The ok result is false when
// the player holds no record. Records never leave the session as live
// pointers; mutation goes through session operations only.
func (s *Session) Player(id uuid.UUID) (model.PlayerRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if rec := s.players.get(id); rec != nil {
		return *rec, true
	}
	return model.PlayerRecord{}, false
}

// HasPlayer reports whether the player holds a record.
func (s *Session) HasPlayer(id uuid.UUID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.players.has(id)
}

// InGamePlayers returns copies of the competing (non-spectator) records,
// including disconnected players still inside their reconnect window.
func (s *Session) InGamePlayers() map[uuid.UUID]model.PlayerRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotRecords(s.players.inGame())
}

// Spectators returns copies of the spectating records.
func (s *Session) Spectators() map[uuid.UUID]model.PlayerRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotRecords(s.players.spectators())
}

// VisibleSpectators returns copies of the spectators excluding moderators.
func (s *Session) VisibleSpectators() map[uuid.UUID]model.PlayerRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotRecords(s.players.visibleSpectators(s.moderators))
}

// RegisteredPlayers returns a snapshot copy of every record.
func (s *Session) RegisteredPlayers() map[uuid.UUID]model.PlayerRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotRecords(s.players.all())
}

// snapshotRecords copies registry records into values so readers never share
// the registry's mutable state.
func snapshotRecords(in map[uuid.UUID]*model.PlayerRecord) map[uuid.UUID]model.PlayerRecord {
	out := make(map[uuid.UUID]model.PlayerRecord, len(in))
	for id, rec := range in {
		out[id] = *rec
	}
	return out
}

// ConnectedCount returns the number of competing players.
func (s *Session) ConnectedCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.players.competingCount()
}

// IsSpectator reports whether the player spectates. Unregistered players
// count as spectators.
func (s *Session) IsSpectator(id uuid.UUID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if rec := s.players.get(id); rec != nil {
		return rec.IsSpectator()
	}
	return true
}

// IsModerator reports whether the player is in the moderator set.
func (s *Session) IsModerator(id uuid.UUID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.moderators[id]
	return ok
}

// Winners returns a copy of the append-only winners sequence. Duplicates
// are possible: recording the same winner twice appends twice.
func (s *Session) Winners() []uuid.UUID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]uuid.UUID, len(s.winners))
	copy(out, s.winners)
	return out
}

// HasVoiceChannel reports whether the external voice channel was acquired.
func (s *Session) HasVoiceChannel() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.voiceChannel >= 0
}

// VoiceChannel returns the channel handle, or -1.
func (s *Session) VoiceChannel() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.voiceChannel
}

// SequencerDone exposes completion of the end-of-game schedule; nil before
// End is called.
func (s *Session) SequencerDone() <-chan struct{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.sequencer == nil {
		return nil
	}
	return s.sequencer.Done()
}
