package async

import "sync/atomic"

// ReactorState represents the lifecycle state of a [Reactor].
//
// State machine:
//
//	Awake (0) → Running (3)        [Run()]
//	Running (3) → Sleeping (2)     [poll wait, via CAS]
//	Running (3) → Terminating (4)  [Shutdown()/Close()]
//	Sleeping (2) → Running (3)     [poll wake, via CAS]
//	Sleeping (2) → Terminating (4) [Shutdown()/Close()]
//	Terminating (4) → Terminated (1)
//	Terminated (1) → (terminal)
//
// Use [fastState.TryTransition] (CAS) for the reversible states (Running,
// Sleeping); use [fastState.Store] only for the irreversible Terminated
// state.
type ReactorState uint64

const (
	// StateAwake indicates the reactor has been created but Run has not been called.
	StateAwake ReactorState = 0
	// StateTerminated indicates the reactor has fully stopped.
	StateTerminated ReactorState = 1
	// StateSleeping indicates the reactor is blocked waiting for work or a timer.
	StateSleeping ReactorState = 2
	// StateRunning indicates the reactor is actively draining queues.
	StateRunning ReactorState = 3
	// StateTerminating indicates shutdown has been requested but not completed.
	StateTerminating ReactorState = 4
)

// String returns a human-readable representation of the state.
func (s ReactorState) String() string {
	switch s {
	case StateAwake:
		return "Awake"
	case StateRunning:
		return "Running"
	case StateSleeping:
		return "Sleeping"
	case StateTerminating:
		return "Terminating"
	case StateTerminated:
		return "Terminated"
	default:
		return "Unknown"
	}
}

// fastState is a lock-free state machine built on a single atomic word.
type fastState struct {
	v atomic.Uint64
}

// newFastState creates a new state machine in the Awake state.
func newFastState() *fastState {
	s := &fastState{}
	s.v.Store(uint64(StateAwake))
	return s
}

// Load returns the current state atomically.
func (s *fastState) Load() ReactorState {
	return ReactorState(s.v.Load())
}

// Store atomically stores a new state, bypassing transition validation.
// Only safe for the irreversible Terminated state.
func (s *fastState) Store(state ReactorState) {
	s.v.Store(uint64(state))
}

// TryTransition attempts to atomically transition from one state to another.
func (s *fastState) TryTransition(from, to ReactorState) bool {
	return s.v.CompareAndSwap(uint64(from), uint64(to))
}

// CanAcceptWork returns true if the reactor can accept new submissions.
func (s *fastState) CanAcceptWork() bool {
	switch s.Load() {
	case StateAwake, StateRunning, StateSleeping, StateTerminating:
		return true
	default:
		return false
	}
}
