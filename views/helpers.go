package views

import (
	"fmt"

	"github.com/AdamBeresnev/op-tourney-bot/internal/bracket"
	"github.com/gosimple/slug"
)

const tbd = "TBD"

func teamName(t *bracket.Tournament, id *bracket.TeamID) string {
	if id == nil {
		return tbd
	}
	if team, ok := t.Team(*id); ok {
		return team.Name
	}
	return tbd
}

// CategoryName is the suggested channel category for a tournament.
func CategoryName(t *bracket.Tournament) string {
	return slug.Make(t.Name)
}

// MatchChannelName is the suggested channel name for a ready match.
func MatchChannelName(t *bracket.Tournament, m *bracket.Match) string {
	return slug.Make(fmt.Sprintf("r%d-m%d %s vs %s", m.RoundNumber, m.MatchNumber, teamName(t, m.Team1ID), teamName(t, m.Team2ID)))
}
