package bracket

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"unicode"
)

var lobbyWords = []string{
	"Vex", "Drift", "Flux", "Nova", "Blitz", "Zyn", "Wisp", "Rune",
	"Axe", "Glint", "Crux", "Jynx", "Nyx", "Fang", "Hex", "Void",
	"Echo", "Pyre", "Grim", "Keen", "Raze", "Obel", "Shiv", "Zeph",
	"Talon", "Nox",
}

const lobbyAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// randIntN is swapped in tests for deterministic lobbies.
var randIntN = rand.IntN

// assignLobby generates the in-game lobby credentials once both teams are known.
func (t *Tournament) assignLobby(m *Match) {
	if !m.IsReady() {
		return
	}

	var name1, name2 string
	if team, ok := t.Teams[*m.Team1ID]; ok {
		name1 = team.Name
	}
	if team, ok := t.Teams[*m.Team2ID]; ok {
		name2 = team.Name
	}

	m.LobbyName = LobbyName(name1, name2)
	m.LobbyPassword = LobbyPassword()
}

// LobbyName builds "<AAA>v<BBB>-<nnn>" from three random letters of each team name.
func LobbyName(team1, team2 string) string {
	return fmt.Sprintf("%sv%s-%d", teamCode(team1), teamCode(team2), 100+randIntN(900))
}

func LobbyPassword() string {
	return lobbyWords[randIntN(len(lobbyWords))]
}

func teamCode(name string) string {
	var letters []rune
	for _, r := range strings.ToUpper(name) {
		if unicode.IsLetter(r) && r < unicode.MaxASCII {
			letters = append(letters, r)
		}
	}

	code := make([]rune, 3)
	for i := range code {
		if len(letters) == 0 {
			code[i] = rune(lobbyAlphabet[randIntN(len(lobbyAlphabet))])
			continue
		}
		code[i] = letters[randIntN(len(letters))]
	}
	return string(code)
}
