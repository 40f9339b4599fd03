package testkit

import (
	"sync"

	"learnspeed/ports"
)

// ZeroNoise returns the requested mean on every draw, which makes the
// simulator add exactly i*drift on attempt i
type ZeroNoise struct{}

func (ZeroNoise) Normal(mean, _ float64) float64 { return mean }

// ScriptedNoise adds a fixed sequence of offsets to the requested mean,
// cycling when exhausted. It records every (mean, stdDev) it was asked for.
type ScriptedNoise struct {
	mu      sync.Mutex
	offsets []float64
	next    int
	Calls   []Draw
}

// Draw is one recorded request to a noise source
type Draw struct {
	Mean   float64
	StdDev float64
}

// NewScriptedNoise creates a scripted source. With no offsets it behaves like ZeroNoise.
func NewScriptedNoise(offsets ...float64) *ScriptedNoise {
	return &ScriptedNoise{offsets: offsets}
}

func (s *ScriptedNoise) Normal(mean, stdDev float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls = append(s.Calls, Draw{Mean: mean, StdDev: stdDev})
	if len(s.offsets) == 0 {
		return mean
	}
	v := mean + s.offsets[s.next%len(s.offsets)]
	s.next++
	return v
}

// CallCount reports how many draws were made
func (s *ScriptedNoise) CallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Calls)
}

var (
	_ ports.NoiseSource = ZeroNoise{}
	_ ports.NoiseSource = (*ScriptedNoise)(nil)
)
