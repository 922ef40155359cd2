package game

import "strings"

// TeamConfig is one team block of the pushed match configuration. Empty
// attributes are omitted rather than sent as empty values.
type TeamConfig struct {
	Name      string   `json:"name,omitempty"`
	Tag       string   `json:"tag,omitempty"`
	Flag      string   `json:"flag,omitempty"`
	Logo      string   `json:"logo,omitempty"`
	MatchText string   `json:"matchtext,omitempty"`
	Players   []string `json:"players"`
}

// MatchConfig is the document the game server fetches through the
// pushed config URL.
type MatchConfig struct {
	MatchID    string            `json:"matchid"`
	MatchTitle string            `json:"match_title,omitempty"`
	SkipVeto   bool              `json:"skip_veto"`
	Bo2Series  bool              `json:"bo2_series,omitempty"`
	MapsToWin  int               `json:"maps_to_win,omitempty"`
	Team1      *TeamConfig       `json:"team1,omitempty"`
	Team2      *TeamConfig       `json:"team2,omitempty"`
	Cvars      map[string]string `json:"cvars"`
	MapList    []string          `json:"maplist"`
}

// BuildMatchConfig produces the configuration document for a match.
// Pure and deterministic: the same match and teams always yield the
// same document.
func BuildMatchConfig(m *Match, team1, team2 *Team, baseURL string) MatchConfig {
	cfg := MatchConfig{
		MatchID:    m.ID.String(),
		MatchTitle: m.Title,
		SkipVeto:   m.SkipVeto,
		Cvars: map[string]string{
			"get5_web_api_url": baseURL,
		},
		MapList: m.FinalMappool(),
	}

	// A bo2 cannot be decided by a win threshold.
	if m.MaxMaps == 2 {
		cfg.Bo2Series = true
	} else {
		cfg.MapsToWin = m.MaxMaps/2 + 1
	}

	cfg.Team1 = buildTeamConfig(team1, m.Team1String)
	cfg.Team2 = buildTeamConfig(team2, m.Team2String)

	return cfg
}

func buildTeamConfig(team *Team, matchText string) *TeamConfig {
	if team == nil {
		return nil
	}
	return &TeamConfig{
		Name:      team.Name,
		Tag:       team.Tag,
		Flag:      strings.ToUpper(team.Flag),
		Logo:      team.Logo,
		MatchText: matchText,
		Players:   team.Players(),
	}
}
