// Package engine provides the tick-based simulation loop. All core
// mutations run as discrete, non-preemptible steps driven from here; the
// presentation layer only adjusts speed and reads snapshots.
package engine

import (
	"log/slog"
	"math"
	"sync/atomic"
	"time"

	"github.com/mkessler/gridtown/internal/tuning"
)

// Engine drives the simulation forward. Tick, speed, and running state
// are adjusted from HTTP and signal goroutines while Run loops, so they
// live behind atomics.
type Engine struct {
	tick    atomic.Uint64
	speed   atomic.Uint64 // float64 bits
	running atomic.Bool

	Interval time.Duration // Base tick interval (default 1 second)

	// Callbacks per tick layer — populated during setup.
	OnTick  func(tick uint64)  // Every tick
	OnCycle func(cycle uint64) // Every tuning.TicksPerCycle ticks
}

// NewEngine creates a simulation engine with default settings.
func NewEngine() *Engine {
	e := &Engine{Interval: time.Second}
	e.SetSpeed(1.0)
	return e
}

// Tick returns the current tick counter (monotonic, never resets).
func (e *Engine) Tick() uint64 { return e.tick.Load() }

// SetTick positions the tick counter, typically when resuming a save.
func (e *Engine) SetTick(tick uint64) { e.tick.Store(tick) }

// Speed returns the current speed multiplier: 1.0 = real-time, 0 = paused.
func (e *Engine) Speed() float64 { return math.Float64frombits(e.speed.Load()) }

// SetSpeed adjusts the speed multiplier.
func (e *Engine) SetSpeed(speed float64) { e.speed.Store(math.Float64bits(speed)) }

// Running reports whether the loop is active.
func (e *Engine) Running() bool { return e.running.Load() }

// Run starts the simulation loop. Blocks until Stop is called.
func (e *Engine) Run() {
	e.running.Store(true)
	slog.Info("simulation engine started", "tick", e.Tick(), "speed", e.Speed())

	for e.running.Load() {
		speed := e.Speed()
		if speed <= 0 {
			// Paused — sleep briefly and check again.
			time.Sleep(100 * time.Millisecond)
			continue
		}

		start := time.Now()

		e.Step()

		// Sleep for the remainder of the tick interval, adjusted for speed.
		elapsed := time.Since(start)
		target := time.Duration(float64(e.Interval) / speed)
		if elapsed < target {
			time.Sleep(target - elapsed)
		}
	}

	slog.Info("simulation engine stopped", "tick", e.Tick())
}

// Stop halts the simulation loop.
func (e *Engine) Stop() {
	e.running.Store(false)
}

// Step advances the simulation by one tick. Exported so tests and replay
// tooling can drive the engine without the wall-clock loop.
func (e *Engine) Step() {
	tick := e.tick.Add(1)

	if e.OnTick != nil {
		e.OnTick(tick)
	}

	if tick%tuning.TicksPerCycle == 0 && e.OnCycle != nil {
		e.OnCycle(CycleOf(tick))
	}
}

// CycleOf returns the settlement cycle number a tick belongs to.
func CycleOf(tick uint64) uint64 {
	return tick / tuning.TicksPerCycle
}
