package veto

import (
	"errors"
	"fmt"
	"slices"
)

type Action string

const (
	ActionBan  Action = "ban"
	ActionPick Action = "pick"
)

// Team numbers used in process steps and progress entries. TeamNone marks
// picks appended by auto-completion; it is never a real team.
const (
	TeamNone = 0
	Team1    = 1
	Team2    = 2
)

var (
	ErrNoProcess    = errors.New("match has no veto process")
	ErrComplete     = errors.New("veto is already complete")
	ErrUnknownMap   = errors.New("map is not in the veto pool")
	ErrMapTaken     = errors.New("map has already been banned or picked")
	ErrBadFormat    = errors.New("unsupported series format")
	ErrPoolTooSmall = errors.New("map pool is smaller than the series")
)

// Step is one entry of the fixed per-format action sequence.
type Step struct {
	TeamNo int
	Action Action
}

// ProgressEntry is one executed action in the append-only veto log.
type ProgressEntry struct {
	TeamNo  int
	Action  Action
	MapName string
}

// SeriesProcess returns the fixed action sequence for a series of maxMaps
// maps drawn from a pool of poolSize maps. The sequence always has
// poolSize-1 explicit steps; the last remaining map is auto-picked, so a
// completed veto accounts for every map in the pool.
func SeriesProcess(maxMaps, poolSize int) ([]Step, error) {
	if poolSize < maxMaps {
		return nil, fmt.Errorf("pool of %d maps cannot produce a Bo%d: %w", poolSize, maxMaps, ErrPoolTooSmall)
	}

	bans := poolSize - maxMaps
	var openBans, picks, lateBans int
	lateStart := Team1

	switch maxMaps {
	case 1:
		openBans = bans
	case 2:
		openBans = bans
		picks = 1
	case 3:
		openBans = min(bans, 2)
		picks = 2
		lateBans = bans - openBans
		lateStart = Team2
	case 5:
		openBans = min(bans, 2)
		picks = 4
		lateBans = bans - openBans
	case 7:
		picks = 6
		lateBans = bans
	default:
		return nil, fmt.Errorf("Bo%d: %w", maxMaps, ErrBadFormat)
	}

	steps := make([]Step, 0, poolSize-1)
	alternate := func(n, start int, action Action) {
		for i := 0; i < n; i++ {
			team := start
			if i%2 == 1 {
				team = other(start)
			}
			steps = append(steps, Step{TeamNo: team, Action: action})
		}
	}
	alternate(openBans, Team1, ActionBan)
	alternate(picks, Team1, ActionPick)
	alternate(lateBans, lateStart, ActionBan)

	return steps, nil
}

func other(teamNo int) int {
	if teamNo == Team1 {
		return Team2
	}
	return Team1
}

// State is the in-memory veto state machine for one match. Pool and
// Process are fixed at match creation; Progress grows one entry per
// accepted action plus any auto-completed picks.
type State struct {
	Pool     []string
	Process  []Step
	Progress []ProgressEntry
}

// Next returns the next unconsumed process step. ok is false once every
// explicit step has been executed.
func (s *State) Next() (Step, bool) {
	if len(s.Progress) >= len(s.Process) {
		return Step{}, false
	}
	return s.Process[len(s.Progress)], true
}

// Done reports whether every map in the pool has been accounted for.
func (s *State) Done() bool {
	return len(s.Progress) == len(s.Pool)
}

func (s *State) taken(mapName string) bool {
	for _, e := range s.Progress {
		if e.MapName == mapName {
			return true
		}
	}
	return false
}

// Apply executes the next process step with mapName and returns the newly
// appended progress entries, including any auto-completed picks. State is
// unchanged when an error is returned.
func (s *State) Apply(mapName string) ([]ProgressEntry, error) {
	if len(s.Process) == 0 {
		return nil, ErrNoProcess
	}
	idx := len(s.Progress)
	if idx >= len(s.Process) {
		return nil, ErrComplete
	}
	if !slices.Contains(s.Pool, mapName) {
		return nil, ErrUnknownMap
	}
	if s.taken(mapName) {
		return nil, ErrMapTaken
	}

	step := s.Process[idx]
	added := []ProgressEntry{{TeamNo: step.TeamNo, Action: step.Action, MapName: mapName}}
	s.Progress = append(s.Progress, added[0])

	// Once the explicit sequence is consumed, every unmentioned pool map
	// becomes an implicit pick.
	if len(s.Progress) == len(s.Process) {
		for _, m := range s.Pool {
			if !s.taken(m) {
				e := ProgressEntry{TeamNo: TeamNone, Action: ActionPick, MapName: m}
				s.Progress = append(s.Progress, e)
				added = append(added, e)
			}
		}
	}

	return added, nil
}

// FinalPool returns the maps to be played, in the order they were picked.
func (s *State) FinalPool() []string {
	var final []string
	for _, e := range s.Progress {
		if e.Action == ActionPick {
			final = append(final, e.MapName)
		}
	}
	return final
}
