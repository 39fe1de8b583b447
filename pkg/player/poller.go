package player

import "time"

// DefaultPollInterval is the spacing between position ticks.
const DefaultPollInterval = 500 * time.Millisecond

// Scheduler runs fn once after d. fn must be executed on the owning
// control loop.
type Scheduler func(d time.Duration, fn func())

// PositionPoller reports the playback position while playback is active.
//
// Each tick re-evaluates whether playback is still active and schedules at
// most one successor; there is never more than one outstanding tick. A
// chain is identified by a token: Stop and every isPlaying transition
// invalidate the current token, so a tick that was already scheduled for an
// older chain does nothing when it fires.
//
// PositionPoller is not safe for concurrent use; all methods and ticks run
// on the player's control loop.
type PositionPoller struct {
	interval  time.Duration
	schedule  Scheduler
	isPlaying func() bool
	position  func() int64
	emit      func(positionMs int64)

	token   uint64
	pending bool
	stopped bool
}

// NewPositionPoller creates an idle poller.
func NewPositionPoller(interval time.Duration, schedule Scheduler, isPlaying func() bool, position func() int64, emit func(int64)) *PositionPoller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &PositionPoller{
		interval:  interval,
		schedule:  schedule,
		isPlaying: isPlaying,
		position:  position,
		emit:      emit,
	}
}

// IsPlayingChanged drives the poller from the engine's isPlaying transitions.
func (p *PositionPoller) IsPlayingChanged(isPlaying bool) {
	if p.stopped {
		return
	}
	p.token++
	p.pending = false
	if isPlaying {
		p.arm(p.token)
	}
}

// Polling reports whether a tick is outstanding.
func (p *PositionPoller) Polling() bool {
	return p.pending
}

// Stop cancels any outstanding tick permanently.
func (p *PositionPoller) Stop() {
	p.stopped = true
	p.pending = false
	p.token++
}

func (p *PositionPoller) arm(token uint64) {
	p.pending = true
	p.schedule(p.interval, func() { p.tick(token) })
}

func (p *PositionPoller) tick(token uint64) {
	if p.stopped || token != p.token {
		return
	}
	p.pending = false
	// The engine may have stopped before its isPlaying callback reached
	// the loop.
	if !p.isPlaying() {
		return
	}
	p.emit(p.position())
	if p.isPlaying() {
		p.arm(token)
	}
}
