package views

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/AdamBeresnev/op-tourney-bot/internal/bracket"
	"github.com/a-h/templ"
)

// BracketText renders the bracket as a code block, one section per round.
func BracketText(t *bracket.Tournament) string {
	data := PrepareBracketData(t)

	var b strings.Builder
	b.WriteString("```\n")
	fmt.Fprintf(&b, "Tournament: %s\n\n", t.Name)

	maxRound := 0
	if n := len(data.RoundNums); n > 0 {
		maxRound = data.RoundNums[n-1]
	}
	for round := 1; round <= maxRound; round++ {
		fmt.Fprintf(&b, "Round %d:\n", round)

		matches := data.Rounds[round]
		if len(matches) == 0 {
			b.WriteString("  No matches\n\n")
			continue
		}

		for _, m := range matches {
			b.WriteString("  " + matchLine(t, m) + "\n")
		}
		b.WriteString("\n")
	}

	b.WriteString("```")
	return b.String()
}

func matchLine(t *bracket.Tournament, m *bracket.Match) string {
	name1 := teamName(t, m.Team1ID)
	name2 := teamName(t, m.Team2ID)
	if m.IsBye() {
		name2 = "BYE"
	}

	if m.WinnerID != nil {
		switch {
		case m.Team1ID != nil && *m.WinnerID == *m.Team1ID:
			name1 += " ✓"
		case m.Team2ID != nil && *m.WinnerID == *m.Team2ID:
			name2 += " ✓"
		}
	}

	line := fmt.Sprintf("%s vs %s", name1, name2)
	if m.Status == bracket.MatchForfeit {
		line += " (forfeit)"
	}
	return line
}

// TeamList lists approved teams by seed with their players.
func TeamList(t *bracket.Tournament) string {
	var b strings.Builder
	b.WriteString("# Registered Teams\n\n")

	for _, team := range PrepareBracketData(t).Teams {
		names := make([]string, 0, len(team.Players))
		for _, p := range team.Players {
			names = append(names, p.DisplayName)
		}

		seed := ""
		if team.Seeding > 0 {
			seed = fmt.Sprintf("Seed #%d: ", team.Seeding)
		}
		fmt.Fprintf(&b, "**%s%s** - %s\n", seed, team.Name, strings.Join(names, ", "))
	}
	return b.String()
}

// BracketPage is the full bracket post: team list followed by the bracket block.
func BracketPage(t *bracket.Tournament) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, TeamList(t)); err != nil {
			return err
		}
		_, err := io.WriteString(w, "\n# Tournament Bracket\n"+BracketText(t)+"\n")
		return err
	})
}
