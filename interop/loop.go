package interop

import (
	"time"

	"github.com/cockroachdb/errors"
)

// Presenter is the presenting side of the frame handshake.
type Presenter interface {
	// WaitForNextFrame blocks until the swap-chain can accept another frame
	// and the previous present's queue work has completed.
	WaitForNextFrame() error
	Present() error
	// SignalPresented enqueues a fence signal after the present and arms the
	// event WaitForNextFrame waits on.
	SignalPresented() error
	CurrentBackBufferIndex() int
	WaitPresented() error
}

// Renderer is the rendering side of the frame handshake.
type Renderer interface {
	FrameFinished() (bool, error)
	WaitFrameFinished(timeout time.Duration) (bool, error)
	AdvanceTimer(seconds float64) error
	ResetFrameFence() error
	Submit(index int) error
	WaitIdle() error
}

// MessagePump drains pending window messages and reports whether the
// application was asked to quit.
type MessagePump interface {
	Pump() bool
}

// Clock returns the time since its previous Lap.
type Clock interface {
	Lap() time.Duration
}

type Stats struct {
	Iterations uint64
	Skipped    uint64
	Frames     uint64
	Elapsed    time.Duration
}

// FrameLoop runs the present/render handshake until the pump reports quit.
//
// With FenceWait zero the render fence is polled and a busy fence simply
// returns to the pump. A positive FenceWait blocks on the fence for at most
// that long instead.
type FrameLoop struct {
	Presenter Presenter
	Renderer  Renderer
	Pump      MessagePump
	Clock     Clock
	FenceWait time.Duration

	stats Stats
}

func (l *FrameLoop) Run() error {
	for !l.Pump.Pump() {
		l.stats.Iterations++

		ready, err := l.frameReady()
		if err != nil {
			return errors.Wrap(err, "query render fence")
		}
		if !ready {
			l.stats.Skipped++
			continue
		}

		err = l.frame()
		if err != nil {
			return err
		}
	}

	return l.drain()
}

func (l *FrameLoop) Stats() Stats {
	return l.stats
}

func (l *FrameLoop) frameReady() (bool, error) {
	if l.FenceWait > 0 {
		return l.Renderer.WaitFrameFinished(l.FenceWait)
	}
	return l.Renderer.FrameFinished()
}

func (l *FrameLoop) frame() error {
	delta := l.Clock.Lap()

	err := l.Presenter.WaitForNextFrame()
	if err != nil {
		return errors.Wrap(err, "wait for next frame")
	}

	err = l.Presenter.Present()
	if err != nil {
		return errors.Wrap(err, "present")
	}

	err = l.Presenter.SignalPresented()
	if err != nil {
		return errors.Wrap(err, "signal presented")
	}

	err = l.Renderer.AdvanceTimer(delta.Seconds())
	if err != nil {
		return errors.Wrap(err, "advance timer")
	}
	l.stats.Elapsed += delta

	err = l.Renderer.ResetFrameFence()
	if err != nil {
		return errors.Wrap(err, "reset render fence")
	}

	index := l.Presenter.CurrentBackBufferIndex()
	err = l.Renderer.Submit(index)
	if err != nil {
		return errors.Wrapf(err, "submit back-buffer %d", index)
	}

	l.stats.Frames++
	return nil
}

// drain waits for the renderer to go idle and then for the last present.
func (l *FrameLoop) drain() error {
	err := l.Renderer.WaitIdle()
	if err != nil {
		return errors.Wrap(err, "wait for renderer idle")
	}

	err = l.Presenter.WaitPresented()
	if err != nil {
		return errors.Wrap(err, "wait for last present")
	}

	return nil
}
