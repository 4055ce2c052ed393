// Package timectrl drives the fixed-step simulation frames that per-frame
// geodesy consumers hang off.
package timectrl

import (
	"context"
	"sync"
	"time"
)

// Mode describes how the FrameController advances simulation time.
type Mode int

const (
	// RealTime paces frames against the wall clock, one frame per Step.
	RealTime Mode = iota
	// Accelerated runs frames back to back, still advancing by Step.
	Accelerated
)

func (m Mode) String() string {
	if m == Accelerated {
		return "accelerated"
	}
	return "real-time"
}

// Frame identifies one fixed physics step.
type Frame struct {
	Index   uint64
	SimTime time.Time
	Step    time.Duration
}

// Listener is invoked once per frame, in registration order.
type Listener func(ctx context.Context, f Frame)

// FrameController advances simulation time in fixed steps and notifies
// registered listeners on every frame.
type FrameController struct {
	mu        sync.RWMutex
	StartTime time.Time
	Step      time.Duration
	Mode      Mode

	currentTime time.Time
	frames      uint64

	listeners []Listener
}

// NewFrameController constructs a controller starting at start.
func NewFrameController(start time.Time, step time.Duration, mode Mode) *FrameController {
	return &FrameController{
		StartTime:   start,
		Step:        step,
		Mode:        mode,
		currentTime: start,
	}
}

// Now returns the current simulation time.
func (fc *FrameController) Now() time.Time {
	fc.mu.RLock()
	defer fc.mu.RUnlock()
	return fc.currentTime
}

// SetTime jumps simulation time without running listeners.
func (fc *FrameController) SetTime(t time.Time) {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	fc.currentTime = t
}

// Frames returns the number of frames advanced so far.
func (fc *FrameController) Frames() uint64 {
	fc.mu.RLock()
	defer fc.mu.RUnlock()
	return fc.frames
}

// AddListener registers a callback invoked on every frame.
func (fc *FrameController) AddListener(fn Listener) {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	fc.listeners = append(fc.listeners, fn)
}

// Advance steps one frame and runs the listeners synchronously.
func (fc *FrameController) Advance(ctx context.Context) Frame {
	fc.mu.Lock()
	fc.currentTime = fc.currentTime.Add(fc.Step)
	fc.frames++
	f := Frame{Index: fc.frames, SimTime: fc.currentTime, Step: fc.Step}
	listeners := append([]Listener(nil), fc.listeners...)
	fc.mu.Unlock()

	for _, fn := range listeners {
		fn(ctx, f)
	}
	return f
}

// Run advances frames in a separate goroutine until duration of simulation
// time has elapsed (forever when duration <= 0) or ctx is cancelled. The
// returned channel is closed when the loop exits.
func (fc *FrameController) Run(ctx context.Context, duration time.Duration) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)

		var tick <-chan time.Time
		if fc.Mode == RealTime {
			ticker := time.NewTicker(fc.Step)
			defer ticker.Stop()
			tick = ticker.C
		}

		elapsed := time.Duration(0)
		for {
			if duration > 0 && elapsed >= duration {
				return
			}
			if tick != nil {
				select {
				case <-ctx.Done():
					return
				case <-tick:
				}
			} else if ctx.Err() != nil {
				return
			}

			fc.Advance(ctx)
			elapsed += fc.Step
		}
	}()
	return done
}
