package rig

import (
	"math"
	"time"

	"github.com/Faultbox/tileforge/pkg/voxel"
)

// FrameInterval is the nominal playback tick.
const FrameInterval = 16 * time.Millisecond

// Player advances an animation and re-skins the grid on each tick.
type Player struct {
	Store    *Store
	Skeleton *Skeleton
	Grid     *voxel.Grid
	Speed    float32

	current int
	time    float32
	playing bool
}

// NewPlayer returns a stopped player at speed 1.
func NewPlayer(store *Store, sk *Skeleton, g *voxel.Grid) *Player {
	return &Player{Store: store, Skeleton: sk, Grid: g, Speed: 1, current: -1}
}

// Playing reports whether Tick advances time.
func (p *Player) Playing() bool { return p.playing }

// Time returns the playhead in seconds.
func (p *Player) Time() float32 { return p.time }

// Current returns the index of the animation being played, or -1.
func (p *Player) Current() int { return p.current }

// Play starts animation i from the beginning.
func (p *Player) Play(i int) error {
	if _, err := p.Store.get(i); err != nil {
		return err
	}
	p.current, p.time, p.playing = i, 0, true
	return p.apply()
}

// Pause stops advancing but keeps the pose.
func (p *Player) Pause() { p.playing = false }

// Resume continues after Pause.
func (p *Player) Resume() {
	if p.current >= 0 {
		p.playing = true
	}
}

// Stop ends playback and restores the rest pose.
func (p *Player) Stop() {
	p.playing = false
	p.time = 0
	p.Skeleton.ResetToRest()
	if p.Grid != nil {
		p.Skeleton.Skin(p.Grid)
	}
}

// Seek moves the playhead and applies the pose.
func (p *Player) Seek(t float32) error {
	p.time = t
	return p.apply()
}

// Tick advances the playhead by dt·Speed. At the end it wraps when the
// animation loops and stops otherwise.
func (p *Player) Tick(dt time.Duration) error {
	if !p.playing {
		return nil
	}
	a, err := p.Store.get(p.current)
	if err != nil {
		p.playing = false
		return err
	}
	p.time += float32(dt.Seconds()) * p.Speed
	if p.time >= a.Duration {
		if !a.Looping {
			p.Stop()
			return nil
		}
		p.time = float32(math.Mod(float64(p.time), float64(a.Duration)))
	}
	return p.apply()
}

func (p *Player) apply() error {
	if err := p.Store.Sample(p.current, p.time, p.Skeleton); err != nil {
		return err
	}
	if p.Grid != nil {
		p.Skeleton.Skin(p.Grid)
	}
	return nil
}
