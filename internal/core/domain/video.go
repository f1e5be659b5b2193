package domain

import "time"

type VideoStatus string

const (
	VideoPlaying VideoStatus = "playing"
	VideoPaused  VideoStatus = "paused"
	VideoStopped VideoStatus = "stopped"
)

const (
	MinPlaybackRate = 0.0 // exclusive
	MaxPlaybackRate = 4.0 // inclusive
)

// VideoState holds the checkpointed playback state of a room. The live playback
// position is never stored; CurrentProgress derives it from the checkpoint and
// wall-clock time on every read so repeated reads cannot accumulate drift.
type VideoState struct {
	Source           string
	Status           VideoStatus
	ProgressSeconds  float64
	PlaybackRate     float64
	SubtitleRef      string
	LastCheckpointAt time.Time
}

func NewVideoState(now time.Time) *VideoState {
	return &VideoState{
		Status:           VideoStopped,
		PlaybackRate:     1.0,
		LastCheckpointAt: now,
	}
}

// CurrentProgress extrapolates the playback position at the given instant.
// While paused or stopped the checkpointed position is returned unchanged.
func (v *VideoState) CurrentProgress(now time.Time) float64 {
	if v.Status != VideoPlaying {
		return v.ProgressSeconds
	}
	elapsed := now.Sub(v.LastCheckpointAt).Seconds()
	if elapsed < 0 {
		// Host clock stepped backward; see the open question on monotonicity.
		elapsed = 0
	}
	return v.ProgressSeconds + elapsed*v.PlaybackRate
}

// SetSource switches the media reference, resetting progress and pausing.
func (v *VideoState) SetSource(source string, now time.Time) {
	v.Source = source
	v.ProgressSeconds = 0
	v.Status = VideoPaused
	v.LastCheckpointAt = now
}

// SetStatus transitions playback status. The derived progress is checkpointed
// before the status switches: pausing without checkpointing first would lose
// the time elapsed since the last write.
func (v *VideoState) SetStatus(status VideoStatus, now time.Time) bool {
	switch status {
	case VideoPlaying, VideoPaused, VideoStopped:
	default:
		return false
	}
	v.ProgressSeconds = v.CurrentProgress(now)
	v.Status = status
	v.LastCheckpointAt = now
	return true
}

// SetProgress checkpoints an explicit playback position, clamped at zero.
func (v *VideoState) SetProgress(progress float64, now time.Time) {
	if progress < 0 {
		progress = 0
	}
	v.ProgressSeconds = progress
	v.LastCheckpointAt = now
}

// SetPlaybackRate applies a new rate when it falls in (0,4]. Out-of-range
// values are dropped without error; the caller's remaining updates still apply.
func (v *VideoState) SetPlaybackRate(rate float64, now time.Time) bool {
	if rate <= MinPlaybackRate || rate > MaxPlaybackRate {
		return false
	}
	v.ProgressSeconds = v.CurrentProgress(now)
	v.PlaybackRate = rate
	v.LastCheckpointAt = now
	return true
}

func (v *VideoState) Clone() *VideoState {
	clone := *v
	return &clone
}

// VideoUpdate carries a partial video-state mutation. Nil fields are left
// untouched. Source is applied first since it resets progress and status.
type VideoUpdate struct {
	Source       *string
	Status       *VideoStatus
	Progress     *float64
	PlaybackRate *float64
	SubtitleRef  *string
}

// Apply runs the update against the state in transition order and reports
// whether anything changed.
func (v *VideoState) Apply(update VideoUpdate, now time.Time) bool {
	changed := false
	if update.Source != nil {
		v.SetSource(*update.Source, now)
		changed = true
	}
	if update.Status != nil {
		if v.SetStatus(*update.Status, now) {
			changed = true
		}
	}
	if update.Progress != nil {
		v.SetProgress(*update.Progress, now)
		changed = true
	}
	if update.PlaybackRate != nil {
		if v.SetPlaybackRate(*update.PlaybackRate, now) {
			changed = true
		}
	}
	if update.SubtitleRef != nil {
		v.SubtitleRef = *update.SubtitleRef
		changed = true
	}
	return changed
}
