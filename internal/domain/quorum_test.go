package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rosterOf(t *testing.T, ids ...string) *Roster {
	t.Helper()
	r := NewRoster(8)
	for _, id := range ids {
		admit(t, r, id)
	}
	return r
}

func TestReadyQuorumNeedsEveryLiveParticipant(t *testing.T) {
	r := rosterOf(t, "a", "b", "c")
	q := NewQuorum()

	assert.False(t, q.MarkReady("c", r))
	assert.False(t, q.MarkReady("a", r))
	assert.False(t, q.MarkReady("a", r))
	assert.True(t, q.MarkReady("b", r))
}

func TestReadyQuorumIgnoresLeavers(t *testing.T) {
	r := rosterOf(t, "a", "b", "c")
	q := NewQuorum()

	q.MarkReady("a", r)
	q.MarkReady("b", r)
	r.Remove("c")
	assert.True(t, q.AllReady(r), "leaver must not block the rest")

	// A ready flag left behind by a leaver is never consulted.
	r2 := rosterOf(t, "x")
	q.MarkReady("ghost", r2)
	assert.False(t, q.AllReady(r2))
}

func TestReadyQuorumEmptyRoster(t *testing.T) {
	assert.False(t, NewQuorum().AllReady(NewRoster(4)))
}

func TestPauseQuorum(t *testing.T) {
	r := rosterOf(t, "a", "b")
	q := NewQuorum()

	paused, changed := q.SetPaused("a", true, r)
	assert.True(t, paused)
	assert.True(t, changed)

	paused, changed = q.SetPaused("b", true, r)
	assert.True(t, paused)
	assert.False(t, changed)

	paused, _ = q.SetPaused("a", false, r)
	assert.True(t, paused, "b still pauses")

	paused, changed = q.SetPaused("b", false, r)
	assert.False(t, paused)
	assert.True(t, changed)
}

func TestPausedLeaverIsReevaluated(t *testing.T) {
	r := rosterOf(t, "a", "b")
	q := NewQuorum()
	q.SetPaused("b", true, r)
	require.True(t, q.Paused())

	r.Remove("b")
	paused, changed := q.ReevaluatePause(r)
	assert.False(t, paused)
	assert.True(t, changed)
	assert.False(t, q.Paused())
}

func TestClockTransitions(t *testing.T) {
	c := NewClock(3*time.Second, 90*time.Second)
	assert.Equal(t, ClockWaiting, c.State())
	assert.Empty(t, c.Tick(time.Hour), "nothing runs while waiting")

	require.True(t, c.BeginCountdown())
	assert.False(t, c.BeginCountdown())
	assert.Equal(t, 3*time.Second, c.Remaining())

	assert.Empty(t, c.Tick(2*time.Second))
	assert.Equal(t, time.Second, c.Remaining())

	assert.Equal(t, []ClockState{ClockActive}, c.Tick(1500*time.Millisecond))
	assert.True(t, c.Active())
	assert.Equal(t, 90*time.Second, c.Remaining(), "entering active resets the match timer")
	assert.Zero(t, c.Progress())

	c.Tick(45 * time.Second)
	assert.InDelta(t, 0.5, c.Progress(), 1e-9)

	assert.Equal(t, []ClockState{ClockEnded}, c.Tick(45*time.Second))
	assert.Equal(t, time.Duration(0), c.Remaining())
	assert.Equal(t, 1.0, c.Progress())

	assert.Empty(t, c.Tick(time.Hour))
	assert.False(t, c.BeginCountdown())
	assert.Equal(t, ClockEnded, c.State())
	assert.Equal(t, "ended", c.State().String())
}

func TestQuorumForgetPurgesFlags(t *testing.T) {
	r := rosterOf(t, "a", "b")
	q := NewQuorum()

	q.MarkReady("b", r)
	q.SetPaused("b", true, r)
	require.True(t, q.Paused())

	r.Remove("b")
	q.Forget("b")
	assert.False(t, q.IsReady("b"))
	assert.False(t, q.IsPaused("b"))

	global, changed := q.ReevaluatePause(r)
	assert.False(t, global)
	assert.True(t, changed)

	// Rejoining under the same id starts clean.
	admit(t, r, "b")
	q.MarkReady("a", r)
	assert.False(t, q.AllReady(r))
}
