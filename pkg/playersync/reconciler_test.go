package playersync

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakePlayer struct {
	position float64
	playing  bool
	seeks    []float64
}

func (p *fakePlayer) Position() float64 { return p.position }
func (p *fakePlayer) IsPlaying() bool   { return p.playing }
func (p *fakePlayer) Play()             { p.playing = true }
func (p *fakePlayer) Pause()            { p.playing = false }

func (p *fakePlayer) SeekTo(seconds float64) {
	p.position = seconds
	p.seeks = append(p.seeks, seconds)
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func TestApplySmallDriftIgnoredWhilePlaying(t *testing.T) {
	now := time.Now()
	player := &fakePlayer{position: 10.5, playing: true}
	r := NewReconciler(player, WithClock(fixedClock(now)))

	r.Apply(&SyncUpdate{
		IsPlaying: true,
		Progress:  10.0,
		UpdatedAt: now.UnixMilli(),
	})

	assert.Empty(t, player.seeks, "drift below threshold must not cause a seek")
	assert.True(t, player.playing)
}

func TestApplyLargeDriftCorrected(t *testing.T) {
	now := time.Now()
	player := &fakePlayer{position: 30, playing: true}
	r := NewReconciler(player, WithClock(fixedClock(now)))

	r.Apply(&SyncUpdate{
		IsPlaying: true,
		Progress:  10,
		UpdatedAt: now.UnixMilli(),
	})

	assert.Equal(t, []float64{10}, player.seeks)
}

func TestApplyPausedSeeksPrecisely(t *testing.T) {
	player := &fakePlayer{position: 10.2, playing: true}
	r := NewReconciler(player)

	r.Apply(&SyncUpdate{
		IsPlaying: false,
		Progress:  10.0,
	})

	// paused state is applied exactly, even below the threshold
	assert.Equal(t, []float64{10.0}, player.seeks)
	assert.False(t, player.playing)
}

func TestApplyExtrapolatesWhilePlaying(t *testing.T) {
	stamped := time.Now()
	now := stamped.Add(5 * time.Second)
	player := &fakePlayer{position: 0, playing: true}
	r := NewReconciler(player, WithClock(fixedClock(now)))

	r.Apply(&SyncUpdate{
		IsPlaying: true,
		Progress:  10,
		UpdatedAt: stamped.UnixMilli(),
	})

	// 10s of progress plus 5s of wall clock since the server stamped it
	assert.InDelta(t, 15.0, player.position, 0.01)
}

func TestApplyNoExtrapolationWhenPaused(t *testing.T) {
	stamped := time.Now()
	now := stamped.Add(5 * time.Second)
	player := &fakePlayer{position: 50, playing: false}
	r := NewReconciler(player, WithClock(fixedClock(now)))

	r.Apply(&SyncUpdate{
		IsPlaying: false,
		Progress:  10,
		UpdatedAt: stamped.UnixMilli(),
	})

	assert.Equal(t, []float64{10.0}, player.seeks)
}

func TestApplyAlignsPlaybackState(t *testing.T) {
	now := time.Now()
	player := &fakePlayer{position: 10, playing: false}
	r := NewReconciler(player, WithClock(fixedClock(now)))

	r.Apply(&SyncUpdate{
		IsPlaying: true,
		Progress:  10,
		UpdatedAt: now.UnixMilli(),
	})

	assert.True(t, player.playing)
}

func TestGuardSuppressesSeekEcho(t *testing.T) {
	player := &fakePlayer{position: 30, playing: false}
	r := NewReconciler(player)

	assert.True(t, r.ShouldEmitSeek())

	r.Apply(&SyncUpdate{IsPlaying: false, Progress: 10})
	assert.False(t, r.ShouldEmitSeek(), "programmatic seek must not echo back")

	r.OnSeekSettled()
	assert.True(t, r.ShouldEmitSeek())
}

func TestGuardNotRaisedWithoutSeek(t *testing.T) {
	now := time.Now()
	player := &fakePlayer{position: 10.2, playing: true}
	r := NewReconciler(player, WithClock(fixedClock(now)))

	r.Apply(&SyncUpdate{
		IsPlaying: true,
		Progress:  10,
		UpdatedAt: now.UnixMilli(),
	})

	assert.True(t, r.ShouldEmitSeek(), "no correction applied, user seeks pass through")
}

func TestWithThreshold(t *testing.T) {
	now := time.Now()
	player := &fakePlayer{position: 12, playing: true}
	r := NewReconciler(player, WithThreshold(5), WithClock(fixedClock(now)))

	r.Apply(&SyncUpdate{
		IsPlaying: true,
		Progress:  10,
		UpdatedAt: now.UnixMilli(),
	})
	assert.Empty(t, player.seeks)

	r.Apply(&SyncUpdate{
		IsPlaying: true,
		Progress:  2,
		UpdatedAt: now.UnixMilli(),
	})
	assert.Equal(t, []float64{2}, player.seeks)
}

func TestSeekDebouncer(t *testing.T) {
	emitted := make(chan float64, 1)
	d := NewSeekDebouncer(20*time.Millisecond, func(seconds float64) {
		emitted <- seconds
	})
	defer d.Stop()

	d.Seek(10)
	d.Seek(20)
	d.Seek(42)

	select {
	case got := <-emitted:
		assert.Equal(t, 42.0, got, "only the final position of the burst is emitted")
	case <-time.After(time.Second):
		t.Fatal("debouncer never emitted")
	}

	select {
	case got := <-emitted:
		t.Fatalf("unexpected second emission: %v", got)
	case <-time.After(50 * time.Millisecond):
	}
}
