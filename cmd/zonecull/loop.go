package main

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/aukilabs/zonecull/models"
	"github.com/aukilabs/zonecull/scene"
	"github.com/aukilabs/zonecull/scenefile"
)

// frameLoop renders the scene at a fixed rate while moving the camera along
// the scene path.
type frameLoop struct {
	runID           string
	scene           *scenefile.Scene
	manager         *scene.Manager
	frames          int
	frameDuration   time.Duration
	segmentDuration time.Duration
	passes          []models.PassType
	mask            models.TypeMask

	started  atomic.Bool
	rendered int
	elapsed  time.Duration
}

func (l *frameLoop) Started() bool {
	return l.started.Load()
}

// Run renders frames until the frame count is reached or ctx is done.
func (l *frameLoop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.frameDuration)
	defer ticker.Stop()

	l.started.Store(true)
	defer l.started.Store(false)

	for l.frames == 0 || l.rendered < l.frames {
		select {
		case <-ctx.Done():
			l.logSummary()
			return ctx.Err()

		case <-ticker.C:
			l.Step()
		}
	}

	l.logSummary()
	return nil
}

// Step advances the scene by one frame and renders it.
func (l *frameLoop) Step() []scene.FrameStats {
	l.elapsed += l.frameDuration
	l.scene.MoveObjects(float32(l.frameDuration.Seconds()))

	if l.segmentDuration > 0 {
		t := float32(l.elapsed.Seconds() / l.segmentDuration.Seconds())
		if position, target, ok := l.scene.Path.Pose(t); ok {
			l.scene.Camera.LookAt(position, target)
		}
	}

	stats := make([]scene.FrameStats, 0, len(l.passes))
	for _, p := range l.passes {
		stats = append(stats, l.manager.RenderScene(p, l.mask, scene.DebugOverrides{}))
	}
	l.rendered++

	if len(stats) != 0 {
		logs.WithTag("frame", stats[0].Frame).
			WithTag("rendered", stats[0].Rendered()).
			WithTag("duration", stats[0].Duration).
			Debug("frame rendered")
	}
	return stats
}

func (l *frameLoop) logSummary() {
	logs.WithTag("run_id", l.runID).
		WithTag("frames", l.rendered).
		WithTag("elapsed", l.elapsed).
		Info("frame loop stopped")
}
