package proc

import (
	"errors"
	"sync/atomic"

	"github.com/GriffinCanCode/AgentOS/schedctl/internal/domain/tickets"
)

var (
	ErrNotFound     = errors.New("process not found")
	ErrNoChildren   = errors.New("no children")
	ErrKilled       = errors.New("process killed")
	ErrTableFull    = errors.New("process table full")
	ErrInitExit     = errors.New("init exiting")
	ErrOutOfMemory  = errors.New("out of memory")
	ErrInvalidGrow  = errors.New("invalid memory size")
	ErrInvalidSpawn = errors.New("invalid tickets")
)

// State represents the lifecycle state of a process
type State int

const (
	StateRunnable State = iota
	StateSleeping
	StateZombie
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case StateRunnable:
		return "runnable"
	case StateSleeping:
		return "sleeping"
	case StateZombie:
		return "zombie"
	default:
		return "unknown"
	}
}

// Process is a process record. The embedded account and every other mutable
// field except killed are guarded by the owning table's lock.
type Process struct {
	tickets.Account

	ParentPID int
	Name      string
	State     State
	Size      int

	// orphan is set once the parent exits; init reaps it on exit.
	orphan bool
	killed atomic.Bool
}

// Killed reports whether the process has been killed.
func (p *Process) Killed() bool {
	return p.killed.Load()
}

// Info is a point-in-time copy of a process record.
type Info struct {
	PID        int    `json:"pid"`
	ParentPID  int    `json:"parent"`
	Name       string `json:"name"`
	State      string `json:"state"`
	Tickets    int    `json:"tickets"`
	Stride     int    `json:"stride"`
	ForkPolicy string `json:"fork_policy"`
	Size       int    `json:"size"`
	Killed     bool   `json:"killed"`
}

func (p *Process) info() Info {
	return Info{
		PID:        p.PID,
		ParentPID:  p.ParentPID,
		Name:       p.Name,
		State:      p.State.String(),
		Tickets:    p.Tickets,
		Stride:     p.Stride,
		ForkPolicy: p.ForkPolicy.String(),
		Size:       p.Size,
		Killed:     p.Killed(),
	}
}
