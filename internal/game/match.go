package game

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/Monzyy/get5-web/internal/veto"
	"github.com/google/uuid"
)

// Match is a series between two teams. Its pending/live/finished/
// cancelled state is always derived from start_time, end_time and
// cancelled; there is no stored status column.
type Match struct {
	ID            uuid.UUID  `db:"id"`
	UserID        uuid.UUID  `db:"user_id"`
	ServerID      *uuid.UUID `db:"server_id"`
	TournamentID  *uuid.UUID `db:"tournament_id"`
	Team1ID       uuid.UUID  `db:"team1_id"`
	Team2ID       uuid.UUID  `db:"team2_id"`
	Team1String   string     `db:"team1_string"`
	Team2String   string     `db:"team2_string"`
	WinnerID      *uuid.UUID `db:"winner_id"`
	PluginVersion string     `db:"plugin_version"`
	Forfeit       bool       `db:"forfeit"`
	Cancelled     bool       `db:"cancelled"`
	StartTime     *time.Time `db:"start_time"`
	EndTime       *time.Time `db:"end_time"`
	MaxMaps       int        `db:"max_maps"`
	Title         string     `db:"title"`
	SkipVeto      bool       `db:"skip_veto"`
	APIKey        string     `db:"api_key"`
	Team1Score    int        `db:"team1_score"`
	Team2Score    int        `db:"team2_score"`
	CreatedAt     time.Time  `db:"created_at"`

	// Loaded from the match_pool_maps, veto_process and veto_progress
	// rows.
	VetoMappool  []string             `db:"-"`
	VetoProcess  []veto.Step          `db:"-"`
	VetoProgress []veto.ProgressEntry `db:"-"`
}

func (m *Match) Pending() bool {
	return m.StartTime == nil && !m.Cancelled
}

func (m *Match) Live() bool {
	return m.StartTime != nil && m.EndTime == nil && !m.Cancelled
}

func (m *Match) Finished() bool {
	return m.EndTime != nil && !m.Cancelled
}

// Finalized matches accept no further transitions.
func (m *Match) Finalized() bool {
	return m.Cancelled || m.Finished()
}

func (m *Match) StatusString() string {
	switch {
	case m.Pending():
		return "Pending"
	case m.Live():
		return fmt.Sprintf("Live, %d:%d", m.Team1Score, m.Team2Score)
	case m.Finished():
		return "Finished"
	default:
		return "Cancelled"
	}
}

func (m *Match) SeriesFormat() string {
	return fmt.Sprintf("Bo%d", m.MaxMaps)
}

// VetoState assembles the engine state from the persisted rows.
func (m *Match) VetoState() *veto.State {
	return &veto.State{
		Pool:     m.VetoMappool,
		Process:  m.VetoProcess,
		Progress: m.VetoProgress,
	}
}

// FinalMappool is the list of maps actually played: the veto picks in
// pick order once a veto ran, otherwise the configured pool.
func (m *Match) FinalMappool() []string {
	if m.SkipVeto {
		return m.VetoMappool
	}
	return m.VetoState().FinalPool()
}

const apiKeyLength = 24

const apiKeyAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// NewAPIKey generates the opaque per-match token the game server
// presents on callbacks.
func NewAPIKey() string {
	key := make([]byte, apiKeyLength)
	for i := range key {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(apiKeyAlphabet))))
		if err != nil {
			panic(err)
		}
		key[i] = apiKeyAlphabet[n.Int64()]
	}
	return string(key)
}
