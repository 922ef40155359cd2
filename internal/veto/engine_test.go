package veto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeriesProcessLength(t *testing.T) {
	cases := []struct {
		name     string
		maxMaps  int
		poolSize int
		wantLen  int
		wantErr  bool
	}{
		{name: "bo1 over 7", maxMaps: 1, poolSize: 7, wantLen: 6},
		{name: "bo2 over 7", maxMaps: 2, poolSize: 7, wantLen: 6},
		{name: "bo3 over 7", maxMaps: 3, poolSize: 7, wantLen: 6},
		{name: "bo5 over 7", maxMaps: 5, poolSize: 7, wantLen: 6},
		{name: "bo7 over 7", maxMaps: 7, poolSize: 7, wantLen: 6},
		{name: "bo3 over 3", maxMaps: 3, poolSize: 3, wantLen: 2},
		{name: "bo3 over 5", maxMaps: 3, poolSize: 5, wantLen: 4},
		{name: "pool too small", maxMaps: 5, poolSize: 3, wantErr: true},
		{name: "even format other than bo2", maxMaps: 4, poolSize: 7, wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			steps, err := SeriesProcess(tc.maxMaps, tc.poolSize)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, steps, tc.wantLen)
		})
	}
}

func TestSeriesProcessDeterministic(t *testing.T) {
	first, err := SeriesProcess(3, 7)
	require.NoError(t, err)
	second, err := SeriesProcess(3, 7)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// Classic bo3 order: two bans, two picks, closing bans, decider left over.
	want := []Step{
		{TeamNo: Team1, Action: ActionBan},
		{TeamNo: Team2, Action: ActionBan},
		{TeamNo: Team1, Action: ActionPick},
		{TeamNo: Team2, Action: ActionPick},
		{TeamNo: Team2, Action: ActionBan},
		{TeamNo: Team1, Action: ActionBan},
	}
	assert.Equal(t, want, first)
}

func newState(t *testing.T, maxMaps int, pool []string) *State {
	t.Helper()
	process, err := SeriesProcess(maxMaps, len(pool))
	require.NoError(t, err)
	return &State{Pool: pool, Process: process}
}

func TestApplyValidation(t *testing.T) {
	pool := []string{"de_dust2", "de_mirage", "de_inferno"}

	cases := []struct {
		name    string
		state   *State
		mapName string
		wantErr error
	}{
		{
			name:    "no process",
			state:   &State{Pool: pool},
			mapName: "de_dust2",
			wantErr: ErrNoProcess,
		},
		{
			name:    "map not in pool",
			state:   newState(t, 1, pool),
			mapName: "de_nuke",
			wantErr: ErrUnknownMap,
		},
		{
			name: "map already used",
			state: &State{
				Pool:    pool,
				Process: []Step{{Team1, ActionBan}, {Team2, ActionBan}},
				Progress: []ProgressEntry{
					{Team1, ActionBan, "de_dust2"},
				},
			},
			mapName: "de_dust2",
			wantErr: ErrMapTaken,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			before := len(tc.state.Progress)
			_, err := tc.state.Apply(tc.mapName)
			assert.ErrorIs(t, err, tc.wantErr)
			assert.Len(t, tc.state.Progress, before, "state must be unchanged on rejection")
		})
	}
}

func TestApplyPastEndRejected(t *testing.T) {
	s := newState(t, 1, []string{"de_dust2", "de_mirage"})
	_, err := s.Apply("de_dust2")
	require.NoError(t, err)
	require.True(t, s.Done())

	_, err = s.Apply("de_mirage")
	assert.ErrorIs(t, err, ErrComplete)
}

func TestAutoCompletion(t *testing.T) {
	// Pool {A,B,C}, explicit sequence bans A then picks B; C must be
	// auto-appended as the final pick.
	s := &State{
		Pool:    []string{"A", "B", "C"},
		Process: []Step{{Team1, ActionBan}, {Team2, ActionPick}},
	}

	added, err := s.Apply("A")
	require.NoError(t, err)
	require.Len(t, added, 1)
	assert.False(t, s.Done())

	added, err = s.Apply("B")
	require.NoError(t, err)
	require.Len(t, added, 2)
	assert.Equal(t, ProgressEntry{TeamNone, ActionPick, "C"}, added[1])

	assert.True(t, s.Done())
	assert.Equal(t, []string{"B", "C"}, s.FinalPool())
}

func TestBo3WalkToCompletion(t *testing.T) {
	pool := []string{"de_dust2", "de_mirage", "de_inferno", "de_nuke", "de_train", "de_overpass", "de_vertigo"}
	s := newState(t, 3, pool)

	order := []string{"de_vertigo", "de_train", "de_mirage", "de_nuke", "de_overpass", "de_dust2"}
	for i, m := range order {
		step, ok := s.Next()
		require.True(t, ok)
		assert.Equal(t, s.Process[i], step)

		_, err := s.Apply(m)
		require.NoError(t, err)
	}

	require.True(t, s.Done())
	assert.Len(t, s.Progress, len(pool))
	assert.Equal(t, []string{"de_mirage", "de_nuke", "de_inferno"}, s.FinalPool())

	_, ok := s.Next()
	assert.False(t, ok)
}

func TestReplayYieldsSameFinalPool(t *testing.T) {
	pool := []string{"A", "B", "C", "D", "E"}
	order := []string{"E", "D", "A", "B"}

	run := func() []string {
		s := newState(t, 3, pool)
		for _, m := range order {
			_, err := s.Apply(m)
			require.NoError(t, err)
		}
		require.True(t, s.Done())
		return s.FinalPool()
	}

	assert.Equal(t, run(), run())
}
