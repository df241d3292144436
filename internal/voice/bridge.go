// Package voice turns the asynchronous, broadcast pub/sub link to the voice
// bot service into blocking, typed, timeout-bounded remote calls.
//
// Every process on the bus sees every message, so requests carry the origin
// process id and a correlation id: "origin/corrID/verb:arg:arg...". Responses
// come back on a separate subject as "origin/corrID/payload"; responses whose
// origin is not ours are dropped. A call that gets no well-formed response
// before the timeout resolves to its shape default (-1, false, empty list) —
// callers cannot distinguish timeout from a remote error and must treat the
// default as "unknown", never as a legitimate zero value.
//
// Calls block the calling goroutine for up to the configured timeout; never
// issue them from the session tick loop.
package voice

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Default subjects and call timeout. The timeout is a local policy knob, not
// a protocol invariant.
const (
	DefaultRequestSubject  = "voicebot.request"
	DefaultResponseSubject = "voicebot.response"
	DefaultCallTimeout     = 15 * time.Second
)

// errorSentinel marks an explicit failure reported by the remote side.
const errorSentinel = "ERROR"

// Transport is the broadcast pub/sub link used by the bridge.
type Transport interface {
	// Publish sends raw bytes on the subject.
	Publish(subject string, data []byte) error
	// Subscribe delivers raw payloads on the returned channel. Call the
	// returned cancel function to unsubscribe and close the channel.
	Subscribe(subject string) (<-chan []byte, func(), error)
}

// Config configures a Bridge.
type Config struct {
	// Origin identifies this process on the shared bus. Required.
	Origin string
	// CallTimeout bounds each blocking call. Default 15s.
	CallTimeout time.Duration
	// RequestSubject and ResponseSubject override the well-known subjects.
	RequestSubject  string
	ResponseSubject string
}

// Bridge issues correlated request/response calls to the voice bot service.
// One instance is shared by the session and the end-of-game sequencer; all
// state is internal and concurrency-safe.
type Bridge struct {
	tr      Transport
	logger  *slog.Logger
	origin  string
	timeout time.Duration
	reqSubj string

	pending *pendingTable
	cancel  func()
}

// New subscribes to the response subject and starts the delivery goroutine.
// Call Close to release the subscription.
func New(tr Transport, cfg Config, logger *slog.Logger) (*Bridge, error) {
	if cfg.Origin == "" {
		return nil, fmt.Errorf("voice: origin is required")
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = DefaultCallTimeout
	}
	if cfg.RequestSubject == "" {
		cfg.RequestSubject = DefaultRequestSubject
	}
	if cfg.ResponseSubject == "" {
		cfg.ResponseSubject = DefaultResponseSubject
	}

	ch, cancel, err := tr.Subscribe(cfg.ResponseSubject)
	if err != nil {
		return nil, fmt.Errorf("voice: subscribing to %s: %w", cfg.ResponseSubject, err)
	}

	b := &Bridge{
		tr:      tr,
		logger:  logger,
		origin:  cfg.Origin,
		timeout: cfg.CallTimeout,
		reqSubj: cfg.RequestSubject,
		pending: newPendingTable(),
		cancel:  cancel,
	}

	go func() {
		for msg := range ch {
			b.dispatch(string(msg))
		}
	}()

	return b, nil
}

// Close unsubscribes from the response subject. In-flight calls resolve to
// their defaults when their timeouts elapse.
func (b *Bridge) Close() {
	b.cancel()
}

// CreateChannel asks the bot to create a voice channel and returns its id,
// or -1 if the call failed or timed out.
func (b *Bridge) CreateChannel(name string) int64 {
	pc := b.call(shapeLong, "createchannel:"+name)
	return pc.longVal
}

// DeleteChannel asks the bot to delete the channel. False means failure or
// timeout, not necessarily that the channel still exists.
func (b *Bridge) DeleteChannel(channelID int64) bool {
	pc := b.call(shapeBool, "deletechannel:"+strconv.FormatInt(channelID, 10))
	return pc.boolVal
}

// MovePlayers moves the given players into the channel and returns the ids
// the bot actually moved.
func (b *Bridge) MovePlayers(ids []uuid.UUID, channelID int64) []uuid.UUID {
	pc := b.call(shapeList, joinIDs("move:"+strconv.FormatInt(channelID, 10), ids))
	return pc.listVal
}

// MutePlayers mutes the given players and returns the ids the bot muted.
func (b *Bridge) MutePlayers(ids []uuid.UUID) []uuid.UUID {
	pc := b.call(shapeList, joinIDs("mute", ids))
	return pc.listVal
}

// UnmutePlayers unmutes the given players and returns the ids the bot unmuted.
func (b *Bridge) UnmutePlayers(ids []uuid.UUID) []uuid.UUID {
	pc := b.call(shapeList, joinIDs("unmute", ids))
	return pc.listVal
}

// IsConnected reports whether the player is connected to voice. False may
// also mean the call failed or timed out.
func (b *Bridge) IsConnected(id uuid.UUID) bool {
	pc := b.call(shapeBool, "isconnected:"+id.String())
	return pc.boolVal
}

// KickPlayers disconnects the given players from voice and returns the ids
// the bot kicked.
func (b *Bridge) KickPlayers(ids []uuid.UUID) []uuid.UUID {
	pc := b.call(shapeList, joinIDs("kick", ids))
	return pc.listVal
}

func joinIDs(prefix string, ids []uuid.UUID) string {
	var sb strings.Builder
	sb.WriteString(prefix)
	for _, id := range ids {
		sb.WriteByte(':')
		sb.WriteString(id.String())
	}
	return sb.String()
}

// call registers a pending entry, publishes the request, and parks the
// calling goroutine until the entry resolves or the timeout elapses.
func (b *Bridge) call(s shape, payload string) *pendingCall {
	id, pc := b.pending.add(s)

	msg := b.origin + "/" + strconv.FormatUint(id, 10) + "/" + payload
	b.logger.Debug("voice request", "corr_id", id, "payload", payload)

	if err := b.tr.Publish(b.reqSubj, []byte(msg)); err != nil {
		b.logger.Error("voice publish failed", "corr_id", id, "err", err)
		if taken, ok := b.pending.take(id); ok {
			return taken
		}
		<-pc.done
		return pc
	}

	timer := time.NewTimer(b.timeout)
	defer timer.Stop()

	select {
	case <-pc.done:
		return pc
	case <-timer.C:
		// Remove the entry so a late response has nothing to apply to. If
		// delivery took it first, the response is mid-decode; wait it out.
		if taken, ok := b.pending.take(id); ok {
			b.logger.Warn("voice call timed out", "corr_id", id)
			return taken
		}
		<-pc.done
		return pc
	}
}

// dispatch runs on the delivery goroutine and resolves one response message.
func (b *Bridge) dispatch(msg string) {
	parts := strings.SplitN(msg, "/", 3)
	if len(parts) != 3 {
		b.logger.Warn("voice response malformed", "msg", msg)
		return
	}
	if parts[0] != b.origin {
		return
	}

	id, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		b.logger.Warn("voice response has bad correlation id", "msg", msg)
		return
	}

	pc, ok := b.pending.take(id)
	if !ok {
		// Timed out and already resolved; late responses are dropped.
		b.logger.Debug("voice response for unknown call", "corr_id", id)
		return
	}
	defer close(pc.done)

	payload := parts[2]
	if payload == errorSentinel || strings.HasPrefix(payload, errorSentinel+":") {
		b.logger.Error("voice remote error", "corr_id", id, "payload", payload)
		return
	}

	fields := strings.Split(payload, ":")
	switch pc.shape {
	case shapeLong:
		v, err := strconv.ParseInt(fields[0], 10, 64)
		if err != nil {
			b.logger.Error("voice response bad integer", "corr_id", id, "field", fields[0])
			return
		}
		pc.longVal = v
	case shapeBool:
		pc.boolVal = strings.EqualFold(fields[0], "ok") || strings.EqualFold(fields[0], "true")
	case shapeList:
		// The first field echoes the verb; ids start at index 1. Malformed
		// entries are skipped, the rest of the list still applies.
		pc.listVal = make([]uuid.UUID, 0, len(fields)-1)
		for _, f := range fields[1:] {
			u, err := uuid.Parse(f)
			if err != nil {
				b.logger.Warn("voice response bad id, skipping", "corr_id", id, "field", f)
				continue
			}
			pc.listVal = append(pc.listVal, u)
		}
	}
}
