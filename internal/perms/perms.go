// Package perms provides a file-backed permission and group lookup. The
// lookup is loaded once at startup from a TOML file and is immutable after
// that; a session only reads it while computing end-of-game flags.
package perms

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/google/uuid"
)

type playerEntry struct {
	ID          string   `toml:"id"`
	Group       int      `toml:"group"`
	Nickname    bool     `toml:"nickname"`
	Permissions []string `toml:"permissions"`
}

type permsFile struct {
	Players []playerEntry `toml:"player"`
}

type record struct {
	group       int
	nickname    bool
	permissions map[string]struct{}
}

// Lookup answers permission, group, and nickname queries for known players.
// Unknown players have no permissions, group zero, and no nickname.
type Lookup struct {
	players map[uuid.UUID]record
}

// Load reads the permission file at path.
func Load(path string) (*Lookup, error) {
	var file permsFile
	if _, err := toml.DecodeFile(path, &file); err != nil {
		return nil, fmt.Errorf("decode permission file %s: %w", path, err)
	}
	return build(file)
}

// Parse reads a permission file from raw TOML. Used by tests and embedded
// defaults.
func Parse(data string) (*Lookup, error) {
	var file permsFile
	if _, err := toml.Decode(data, &file); err != nil {
		return nil, fmt.Errorf("decode permission data: %w", err)
	}
	return build(file)
}

func build(file permsFile) (*Lookup, error) {
	players := make(map[uuid.UUID]record, len(file.Players))
	for _, p := range file.Players {
		id, err := uuid.Parse(p.ID)
		if err != nil {
			return nil, fmt.Errorf("player entry %q: %w", p.ID, err)
		}
		perms := make(map[string]struct{}, len(p.Permissions))
		for _, perm := range p.Permissions {
			perms[perm] = struct{}{}
		}
		players[id] = record{group: p.Group, nickname: p.Nickname, permissions: perms}
	}
	return &Lookup{players: players}, nil
}

// Empty returns a lookup with no entries.
func Empty() *Lookup {
	return &Lookup{players: make(map[uuid.UUID]record)}
}

// HasPermission reports whether the player carries the capability.
func (l *Lookup) HasPermission(id uuid.UUID, capability string) bool {
	rec, ok := l.players[id]
	if !ok {
		return false
	}
	_, ok = rec.permissions[capability]
	return ok
}

// GroupID returns the player's community group, or zero for unknown players.
func (l *Lookup) GroupID(id uuid.UUID) int {
	return l.players[id].group
}

// HasNickname reports whether the player plays under a nickname.
func (l *Lookup) HasNickname(id uuid.UUID) bool {
	return l.players[id].nickname
}
