package playersync

import (
	"sync"
	"time"
)

// DefaultThreshold is the drift, in seconds, below which a server
// correction is ignored during playback. Applying every small
// correction would cause visible stutter.
const DefaultThreshold = 1.0

// Player is the local media player the reconciler drives.
type Player interface {
	Position() float64
	IsPlaying() bool
	SeekTo(seconds float64)
	Play()
	Pause()
}

// SyncUpdate is the server-pushed room playback snapshot.
type SyncUpdate struct {
	RoomId             string  `json:"roomId"`
	CurrentVideoId     *string `json:"currentVideoId"`
	VideoUrl           *string `json:"videoUrl"`
	Title              *string `json:"title"`
	IsPlaying          bool    `json:"isPlaying"`
	Progress           float64 `json:"progress"`
	LastEventTimestamp int64   `json:"lastEventTimestamp"`
	UpdatedAt          int64   `json:"updatedAt"`
}

type guardState int

const (
	stateIdle guardState = iota
	stateApplyingRemoteUpdate
)

// Reconciler merges server-pushed state into the local player. A guard
// flag is raised around every programmatic seek and cleared on the
// player's own seek-settled signal; while raised, locally observed
// seeks must not be emitted to the server, or the applied correction
// would echo back as a spurious control event.
type Reconciler struct {
	player    Player
	threshold float64
	state     guardState
	now       func() time.Time
	mu        sync.Mutex
}

type ReconcilerOption func(*Reconciler)

func WithThreshold(seconds float64) ReconcilerOption {
	return func(r *Reconciler) {
		r.threshold = seconds
	}
}

func WithClock(now func() time.Time) ReconcilerOption {
	return func(r *Reconciler) {
		r.now = now
	}
}

func NewReconciler(player Player, opts ...ReconcilerOption) *Reconciler {
	r := Reconciler{
		player:    player,
		threshold: DefaultThreshold,
		state:     stateIdle,
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(&r)
	}

	return &r
}

// targetPosition extrapolates the server progress by the wall-clock
// time elapsed since the server stamped it, but only while playing.
func (r *Reconciler) targetPosition(update *SyncUpdate) float64 {
	target := update.Progress
	if update.IsPlaying && update.UpdatedAt > 0 {
		elapsed := r.now().Sub(time.UnixMilli(update.UpdatedAt)).Seconds()
		if elapsed > 0 {
			target += elapsed
		}
	}

	return target
}

// Apply reconciles the local player with a server update. The position
// is corrected only when the drift exceeds the threshold, or when
// paused: with no playback running there is no jitter risk and
// precision matters more.
func (r *Reconciler) Apply(update *SyncUpdate) {
	r.mu.Lock()
	defer r.mu.Unlock()

	target := r.targetPosition(update)
	drift := r.player.Position() - target
	if drift < 0 {
		drift = -drift
	}

	if drift > r.threshold || !update.IsPlaying {
		r.state = stateApplyingRemoteUpdate
		r.player.SeekTo(target)
	}

	if update.IsPlaying != r.player.IsPlaying() {
		if update.IsPlaying {
			r.player.Play()
		} else {
			r.player.Pause()
		}
	}
}

// OnSeekSettled is the player's "seek completed" signal; it returns the
// reconciler to Idle so user seeks are emitted again.
func (r *Reconciler) OnSeekSettled() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.state = stateIdle
}

// ShouldEmitSeek reports whether a locally observed seek originates
// from the user rather than from an applied remote update.
func (r *Reconciler) ShouldEmitSeek() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.state == stateIdle
}
