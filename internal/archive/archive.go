// Package archive exports a finished round's summary as JSONL to one or more
// destinations. The export runs once, from the teardown stage; a failed
// destination is logged and skipped, the round shuts down regardless.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
)

// header is the first JSONL record written by ExportJSONL.
type header struct {
	Version     string      `json:"version"`
	Type        string      `json:"type"`
	Timestamp   time.Time   `json:"timestamp"`
	CodeName    string      `json:"code_name"`
	Name        string      `json:"name"`
	StartedAt   time.Time   `json:"started_at,omitempty"`
	EndedAt     time.Time   `json:"ended_at"`
	PlayerCount int         `json:"player_count"`
	Winners     []uuid.UUID `json:"winners"`
}

// record wraps a single JSONL line with a type discriminator.
type record struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// PlayerSummary is the per-player line of a round export.
type PlayerSummary struct {
	PlayerID      uuid.UUID `json:"player_id"`
	Role          string    `json:"role"`
	PlayedSeconds int64     `json:"played_seconds"`
	Coins         int       `json:"coins"`
	Winner        bool      `json:"winner"`
}

// RoundSummary is everything the archive keeps about one finished round.
type RoundSummary struct {
	CodeName  string
	Name      string
	StartedAt time.Time
	EndedAt   time.Time
	Winners   []uuid.UUID
	Players   []PlayerSummary
}

// Destination is the interface for an archive target.
type Destination interface {
	// Write stores the JSONL payload under the given object key.
	Write(ctx context.Context, key string, data []byte) error
}

// ExportJSONL writes the round summary as JSONL to w. Players are sorted by
// id so repeated exports of the same round are byte-identical.
func ExportJSONL(summary *RoundSummary, w io.Writer) error {
	players := make([]PlayerSummary, len(summary.Players))
	copy(players, summary.Players)
	sort.Slice(players, func(i, j int) bool {
		return players[i].PlayerID.String() < players[j].PlayerID.String()
	})

	winners := summary.Winners
	if winners == nil {
		winners = []uuid.UUID{}
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(header{
		Version:     "1",
		Type:        "header",
		Timestamp:   time.Now().UTC(),
		CodeName:    summary.CodeName,
		Name:        summary.Name,
		StartedAt:   summary.StartedAt,
		EndedAt:     summary.EndedAt,
		PlayerCount: len(players),
		Winners:     winners,
	}); err != nil {
		return fmt.Errorf("encode header: %w", err)
	}

	for _, p := range players {
		if err := enc.Encode(record{Type: "player", Data: p}); err != nil {
			return fmt.Errorf("encode player %s: %w", p.PlayerID, err)
		}
	}
	return nil
}

// Archiver exports round summaries to its destinations.
type Archiver struct {
	destinations []Destination
	logger       *slog.Logger
}

// NewArchiver creates an archiver for the given destinations.
func NewArchiver(destinations []Destination, logger *slog.Logger) *Archiver {
	return &Archiver{destinations: destinations, logger: logger}
}

// Key derives the object key for a round export.
func Key(summary *RoundSummary) string {
	return fmt.Sprintf("%s/%s.jsonl", summary.CodeName, summary.EndedAt.UTC().Format("20060102T150405Z"))
}

// Archive exports the summary to every destination. Destination failures are
// logged individually; Archive only errors when the export itself cannot be
// built.
func (a *Archiver) Archive(ctx context.Context, summary *RoundSummary) error {
	var buf bytes.Buffer
	if err := ExportJSONL(summary, &buf); err != nil {
		return fmt.Errorf("export round %s: %w", summary.CodeName, err)
	}
	data := buf.Bytes()
	key := Key(summary)

	for i, dest := range a.destinations {
		if err := dest.Write(ctx, key, data); err != nil {
			a.logger.Error("archive destination write failed", "destination", fmt.Sprintf("%d", i), "key", key, "err", err)
		}
	}

	a.logger.Info("round archived", "key", key, "destinations", len(a.destinations), "bytes", len(data))
	return nil
}
