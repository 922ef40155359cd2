package service

import (
	"context"
	"fmt"

	"github.com/Monzyy/get5-web/internal/store"
	users "github.com/Monzyy/get5-web/internal/user"
	"github.com/Monzyy/get5-web/internal/veto"
	"github.com/google/uuid"
)

// VetoService applies veto actions on behalf of team members and serves
// the polling snapshot the veto page refreshes from.
type VetoService struct {
	matches *store.MatchStore
	teams   *store.TeamStore
}

func NewVetoService(matches *store.MatchStore, teams *store.TeamStore) *VetoService {
	return &VetoService{matches: matches, teams: teams}
}

// ProgressDTO is one veto log entry as shown to clients.
type ProgressDTO struct {
	TeamNo  int    `json:"team_no"`
	Action  string `json:"action"`
	MapName string `json:"map"`
}

// NextActionDTO names whose turn it is and what they do; nil once the
// explicit sequence is consumed.
type NextActionDTO struct {
	TeamNo int    `json:"team_no"`
	Action string `json:"action"`
}

// Snapshot is the refresh payload. Progress holds only the entries past
// the client's sinceCount so an idle poll stays small.
type Snapshot struct {
	Progress      []ProgressDTO  `json:"progress"`
	ProgressCount int            `json:"progress_count"`
	NextAction    *NextActionDTO `json:"next_action,omitempty"`
	Done          bool           `json:"done"`
}

// Act executes the next veto step with mapName. Only a member of the
// team whose turn it is may act; admins may act for either side. A
// concurrent submission for the same step surfaces as
// store.ErrVetoConflict.
func (s *VetoService) Act(ctx context.Context, user *users.User, matchID uuid.UUID, mapName string) error {
	match, err := s.matches.GetMatch(ctx, matchID)
	if err != nil {
		return fmt.Errorf("failed to get match: %w", err)
	}
	if match.Finalized() {
		return ErrMatchFinalized
	}

	state := match.VetoState()
	if len(state.Process) == 0 {
		return veto.ErrNoProcess
	}
	step, ok := state.Next()
	if !ok {
		return veto.ErrComplete
	}
	if !user.Admin {
		teamID := match.Team1ID
		if step.TeamNo == veto.Team2 {
			teamID = match.Team2ID
		}
		team, err := s.teams.GetTeam(ctx, teamID)
		if err != nil {
			return fmt.Errorf("failed to get team: %w", err)
		}
		if !team.HasPlayer(user.SteamID) {
			return ErrNotYourTurn
		}
	}

	startIdx := len(state.Progress)
	added, err := state.Apply(mapName)
	if err != nil {
		return err
	}
	return s.matches.AppendVetoProgress(ctx, matchID, startIdx, added)
}

// Refresh returns the veto log past sinceCount plus the turn indicator.
func (s *VetoService) Refresh(ctx context.Context, matchID uuid.UUID, sinceCount int) (*Snapshot, error) {
	match, err := s.matches.GetMatch(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to get match: %w", err)
	}

	state := match.VetoState()
	if sinceCount < 0 || sinceCount > len(state.Progress) {
		sinceCount = 0
	}

	snap := &Snapshot{
		Progress:      make([]ProgressDTO, 0, len(state.Progress)-sinceCount),
		ProgressCount: len(state.Progress),
		Done:          state.Done(),
	}
	for _, e := range state.Progress[sinceCount:] {
		snap.Progress = append(snap.Progress, ProgressDTO{
			TeamNo:  e.TeamNo,
			Action:  string(e.Action),
			MapName: e.MapName,
		})
	}
	if step, ok := state.Next(); ok {
		snap.NextAction = &NextActionDTO{TeamNo: step.TeamNo, Action: string(step.Action)}
	}
	return snap, nil
}
