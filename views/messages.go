package views

import (
	"fmt"
	"strings"
	"time"

	"github.com/AdamBeresnev/op-tourney-bot/internal/bracket"
	"github.com/AdamBeresnev/op-tourney-bot/internal/notify"
	"github.com/AdamBeresnev/op-tourney-bot/internal/utils"
)

func TournamentCreated(t *bracket.Tournament) notify.Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Format: %s\n", t.Format)
	fmt.Fprintf(&b, "Team size: %d\n", t.TeamSize)
	if t.MaxTeams != nil {
		fmt.Fprintf(&b, "Max teams: %d\n", *t.MaxTeams)
	}
	fmt.Fprintf(&b, "Registration closes: %s\n", t.RegistrationDeadline.UTC().Format(time.RFC1123))
	if prize := utils.OrZero(t.PrizeInfo); prize != "" {
		fmt.Fprintf(&b, "Prize: %s\n", prize)
	}

	return notify.Message{
		Title:       fmt.Sprintf("Tournament created: %s", t.Name),
		Text:        b.String(),
		ChannelName: CategoryName(t),
		Actions: []notify.Action{
			{Kind: notify.ActionStart, Label: "Start tournament", TargetID: t.ID},
		},
	}
}

// TeamRegistered goes to the host channel so admins can review the team.
func TeamRegistered(t *bracket.Tournament, team *bracket.Team) notify.Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Average MMR: %.0f\n", team.AverageMMR())
	for _, p := range team.Players {
		fmt.Fprintf(&b, "- %s (%s) current %d, peak %d\n", p.DisplayName, p.GameHandle, p.CurrentMMR, p.PeakMMR)
	}

	return notify.Message{
		Title: fmt.Sprintf("New team registration: %s", team.Name),
		Text:  b.String(),
		Actions: []notify.Action{
			{Kind: notify.ActionApproveTeam, Label: "Approve", TargetID: string(team.ID)},
			{Kind: notify.ActionDenyTeam, Label: "Deny", TargetID: string(team.ID)},
		},
	}
}

func TeamApproved(t *bracket.Tournament, team *bracket.Team) notify.Message {
	return notify.Message{
		Title: "Team approved",
		Text:  fmt.Sprintf("Your team %s has been approved for %s.", team.Name, t.Name),
	}
}

func TeamDenied(t *bracket.Tournament, team *bracket.Team) notify.Message {
	text := fmt.Sprintf("Your team %s was not approved for %s.", team.Name, t.Name)
	if team.DenialReason != nil && *team.DenialReason != "" {
		text += "\nReason: " + *team.DenialReason
	}
	return notify.Message{Title: "Team denied", Text: text}
}

func TeamJoined(team *bracket.Team, p bracket.Player) notify.Message {
	return notify.Message{
		Title: "New teammate",
		Text:  fmt.Sprintf("%s joined %s.", p.DisplayName, team.Name),
	}
}

func TeamLeft(team *bracket.Team, p bracket.Player) notify.Message {
	return notify.Message{
		Title: "Teammate left",
		Text:  fmt.Sprintf("%s left %s.", p.DisplayName, team.Name),
	}
}

func TournamentStarted(t *bracket.Tournament) notify.Message {
	return notify.Message{
		Title: fmt.Sprintf("%s has started", t.Name),
		Text:  BracketText(t),
		Actions: []notify.Action{
			{Kind: notify.ActionViewBracket, Label: "View bracket", TargetID: t.ID},
		},
	}
}

// MatchReady asks both teams to check in before the timeout.
func MatchReady(t *bracket.Tournament, m *bracket.Match) notify.Message {
	deadline := m.CreatedAt.Add(bracket.CheckInTimeout)
	return notify.Message{
		Title: fmt.Sprintf("Round %d: %s vs %s", m.RoundNumber, teamName(t, m.Team1ID), teamName(t, m.Team2ID)),
		Text: fmt.Sprintf("Your match is ready. Check in before %s or your team forfeits.",
			deadline.UTC().Format(time.Kitchen+" MST")),
		ChannelName: MatchChannelName(t, m),
		Actions: []notify.Action{
			{Kind: notify.ActionCheckIn, Label: "Check in", TargetID: string(m.ID)},
		},
	}
}

func CheckedIn(t *bracket.Tournament, teamID bracket.TeamID) notify.Message {
	return notify.Message{
		Title: "Check-in",
		Text:  fmt.Sprintf("%s checked in.", teamName(t, &teamID)),
	}
}

// MatchLive carries the lobby credentials and the result buttons.
func MatchLive(t *bracket.Tournament, m *bracket.Match) notify.Message {
	name1, name2 := teamName(t, m.Team1ID), teamName(t, m.Team2ID)

	var b strings.Builder
	b.WriteString("Both teams are checked in.\n")
	if m.LobbyName != "" {
		fmt.Fprintf(&b, "Lobby: %s\nPassword: %s\n", m.LobbyName, m.LobbyPassword)
	}
	b.WriteString("Report the winner when the game is over.")

	return notify.Message{
		Title: fmt.Sprintf("%s vs %s is live", name1, name2),
		Text:  b.String(),
		Actions: []notify.Action{
			{Kind: notify.ActionReportWinner, Label: name1, TargetID: string(*m.Team1ID)},
			{Kind: notify.ActionReportWinner, Label: name2, TargetID: string(*m.Team2ID)},
		},
	}
}

func VoteRecorded(t *bracket.Tournament, m *bracket.Match) notify.Message {
	votes1, votes2 := t.VoteTally(m)
	return notify.Message{
		Title: "Result vote",
		Text: fmt.Sprintf("%s: %d, %s: %d (%d needed)",
			teamName(t, m.Team1ID), votes1, teamName(t, m.Team2ID), votes2, t.Majority(m)),
	}
}

func MatchResult(t *bracket.Tournament, m *bracket.Match) notify.Message {
	winner := teamName(t, m.WinnerID)
	return notify.Message{
		Title: "Match result",
		Text:  fmt.Sprintf("%s defeats %s.", winner, teamName(t, m.LoserID)),
	}
}

func Forfeit(t *bracket.Tournament, d bracket.ForfeitDecision) notify.Message {
	switch d.Kind {
	case bracket.DoubleForfeit:
		return notify.Message{
			Title: "Match forfeited",
			Text: fmt.Sprintf("Neither %s nor %s checked in. Both teams are eliminated.",
				teamName(t, &d.Absent[0]), teamName(t, &d.Absent[1])),
		}
	case bracket.Walkover:
		return notify.Message{
			Title: "Match forfeited",
			Text: fmt.Sprintf("%s did not check in. %s advances.",
				teamName(t, &d.Absent[0]), teamName(t, d.Advancer)),
		}
	}
	return notify.Message{}
}

func TournamentCompleted(t *bracket.Tournament) notify.Message {
	return notify.Message{
		Title: fmt.Sprintf("%s is over", t.Name),
		Text:  fmt.Sprintf("Congratulations to %s!\n\n%s", teamName(t, t.WinnerID), BracketText(t)),
	}
}

func Reminder(t *bracket.Tournament, r bracket.Reminder) notify.Message {
	return notify.Message{
		Title: fmt.Sprintf("Reminder: %s", t.Name),
		Text:  r.Message,
	}
}
