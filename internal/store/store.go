package store

import (
	"encoding/json"
	"fmt"

	"github.com/AdamBeresnev/op-tourney-bot/internal/bracket"
)

// ErrNotFound is returned when no tournament snapshot matches the lookup.
var ErrNotFound = fmt.Errorf("%w: tournament", bracket.ErrNotFound)

func encodeTournament(t *bracket.Tournament) (string, error) {
	data, err := json.Marshal(t)
	if err != nil {
		return "", fmt.Errorf("failed to marshal tournament %s: %w", t.ID, err)
	}
	return string(data), nil
}

func decodeTournament(data string) (*bracket.Tournament, error) {
	var t bracket.Tournament
	if err := json.Unmarshal([]byte(data), &t); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tournament: %w", err)
	}
	if t.Teams == nil {
		t.Teams = make(map[bracket.TeamID]*bracket.Team)
	}
	if t.Matches == nil {
		t.Matches = make(map[bracket.MatchID]*bracket.Match)
	}
	if t.Channels == nil {
		t.Channels = make(map[string]string)
	}
	return &t, nil
}
