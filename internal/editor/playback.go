package editor

import (
	"context"
	"time"

	"github.com/Faultbox/tileforge/pkg/rig"
)

// RunPlayer ticks p every rig.FrameInterval until ctx is done or playback
// stops, calling onFrame after each applied frame. The caller must not
// touch the scene from another goroutine while it runs.
func RunPlayer(ctx context.Context, p *rig.Player, onFrame func()) error {
	ticker := time.NewTicker(rig.FrameInterval)
	defer ticker.Stop()

	last := time.Now()
	for p.Playing() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			dt := now.Sub(last)
			last = now
			if err := p.Tick(dt); err != nil {
				return err
			}
			if onFrame != nil {
				onFrame()
			}
		}
	}
	return nil
}
