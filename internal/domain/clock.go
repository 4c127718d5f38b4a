package domain

import "time"

// ClockState is the match phase.
type ClockState int

const (
	ClockWaiting ClockState = iota
	ClockCountdown
	ClockActive
	ClockEnded
)

func (s ClockState) String() string {
	switch s {
	case ClockWaiting:
		return "waiting"
	case ClockCountdown:
		return "countdown"
	case ClockActive:
		return "active"
	case ClockEnded:
		return "ended"
	}
	return "unknown"
}

// Clock is the monotonic match clock: Waiting, Countdown, Active, Ended. Timers only run in
// their own state and nothing leaves Ended.
type Clock struct {
	state     ClockState
	countdown time.Duration
	match     time.Duration

	countdownLeft time.Duration
	matchLeft     time.Duration
}

// NewClock creates a clock in Waiting.
func NewClock(countdown, match time.Duration) *Clock {
	return &Clock{
		countdown:     countdown,
		match:         match,
		countdownLeft: countdown,
		matchLeft:     match,
	}
}

// State returns the current phase.
func (c *Clock) State() ClockState { return c.state }

// Started reports whether the clock has left Waiting.
func (c *Clock) Started() bool { return c.state != ClockWaiting }

// Active reports whether the match is being played.
func (c *Clock) Active() bool { return c.state == ClockActive }

// BeginCountdown moves Waiting to Countdown. It reports false in any other state.
func (c *Clock) BeginCountdown() bool {
	if c.state != ClockWaiting {
		return false
	}
	c.state = ClockCountdown
	c.countdownLeft = c.countdown
	return true
}

// Tick advances the timer of the current state and returns the states entered, in order.
// A large dt may cross Countdown into Active but never spends the leftover in the match.
func (c *Clock) Tick(dt time.Duration) []ClockState {
	var entered []ClockState
	switch c.state {
	case ClockCountdown:
		c.countdownLeft -= dt
		if c.countdownLeft <= 0 {
			c.countdownLeft = 0
			c.state = ClockActive
			c.matchLeft = c.match
			entered = append(entered, ClockActive)
		}
	case ClockActive:
		c.matchLeft -= dt
		if c.matchLeft <= 0 {
			c.matchLeft = 0
			c.state = ClockEnded
			entered = append(entered, ClockEnded)
		}
	}
	return entered
}

// Remaining returns the time left in the current timed state, zero otherwise.
func (c *Clock) Remaining() time.Duration {
	switch c.state {
	case ClockCountdown:
		return c.countdownLeft
	case ClockActive:
		return c.matchLeft
	}
	return 0
}

// Progress returns the elapsed fraction of the match, 0 before it starts and 1 after it ends.
func (c *Clock) Progress() float64 {
	switch c.state {
	case ClockActive:
		if c.match <= 0 {
			return 1
		}
		return 1 - float64(c.matchLeft)/float64(c.match)
	case ClockEnded:
		return 1
	}
	return 0
}
