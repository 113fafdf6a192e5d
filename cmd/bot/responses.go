package main

import (
	"maps"

	"github.com/AdamBeresnev/op-tourney-bot/internal/bracket"
	"github.com/AdamBeresnev/op-tourney-bot/internal/service"
)

// Responses go back to the adapter, which may echo them into shared channels. Team
// passwords and lobby credentials only ever leave through direct notifications.

func redactTournament(t *bracket.Tournament) *bracket.Tournament {
	out := *t
	out.Teams = make(map[bracket.TeamID]*bracket.Team, len(t.Teams))
	for id, team := range t.Teams {
		out.Teams[id] = redactTeam(team)
	}
	out.Matches = make(map[bracket.MatchID]*bracket.Match, len(t.Matches))
	for id, m := range t.Matches {
		out.Matches[id] = redactMatch(m)
	}
	out.Channels = maps.Clone(t.Channels)
	return &out
}

func redactTeam(team *bracket.Team) *bracket.Team {
	out := *team
	out.Password = nil
	return &out
}

func redactMatch(m *bracket.Match) *bracket.Match {
	out := *m
	out.LobbyPassword = ""
	return &out
}

func redactOutcome(o *service.VoteOutcome) *service.VoteOutcome {
	out := *o
	if o.Match != nil {
		out.Match = redactMatch(o.Match)
	}
	return &out
}
