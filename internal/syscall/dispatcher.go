package syscall

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/schedctl/internal/domain/proc"
	"github.com/GriffinCanCode/AgentOS/schedctl/internal/domain/sched"
	"github.com/GriffinCanCode/AgentOS/schedctl/internal/domain/tickets"
)

// Legacy result sentinels. Callers treat any negative result as failure.
const (
	SentinelInvalid         = -1
	SentinelInsufficient    = -2
	SentinelUnknownReceiver = -3
)

// ErrUnknownSyscall is returned for names and numbers outside the syscall table.
var ErrUnknownSyscall = errors.New("unknown syscall")

// Recorder receives one observation per dispatched call.
type Recorder interface {
	RecordSyscall(name, status string, duration time.Duration)
}

// Call is a decoded invocation bound to its calling process.
type Call struct {
	Caller *proc.Process
	Args   Args
}

type handler func(ctx context.Context, call *Call) (int, error)

// Dispatcher decodes calls and routes them to the process subsystem.
type Dispatcher struct {
	table    *proc.Table
	acct     *tickets.Accountant
	sched    *sched.State
	halt     func()
	recorder Recorder
	logger   *zap.Logger
	handlers map[string]handler
}

// New creates a dispatcher over the given subsystems
func New(table *proc.Table, acct *tickets.Accountant, state *sched.State, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &Dispatcher{
		table:  table,
		acct:   acct,
		sched:  state,
		halt:   func() {},
		logger: logger,
	}
	d.handlers = map[string]handler{
		Fork:             d.sysFork,
		Exit:             d.sysExit,
		Wait:             d.sysWait,
		Kill:             d.sysKill,
		Getpid:           d.sysGetpid,
		Sbrk:             d.sysSbrk,
		Sleep:            d.sysSleep,
		Uptime:           d.sysUptime,
		Shutdown:         d.sysShutdown,
		EnableSchedTrace: d.sysEnableSchedTrace,
		ForkWinner:       d.sysForkWinner,
		SetSched:         d.sysSetSched,
		TransferTickets:  d.sysTransferTickets,
		TicketsOwned:     d.sysTicketsOwned,
	}
	return d
}

// WithHalt sets the hook run by the shutdown syscall
func (d *Dispatcher) WithHalt(fn func()) *Dispatcher {
	d.halt = fn
	return d
}

// WithRecorder adds metrics tracking to the dispatcher
func (d *Dispatcher) WithRecorder(r Recorder) *Dispatcher {
	d.recorder = r
	return d
}

// Names lists the supported syscalls in sorted order
func (d *Dispatcher) Names() []string {
	out := make([]string, 0, len(d.handlers))
	for name := range d.handlers {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Invoke runs syscall name on behalf of pid. The integer result already
// carries the legacy sentinel on failure; err holds the underlying cause.
func (d *Dispatcher) Invoke(ctx context.Context, pid int, name string, args Args) (int, error) {
	start := time.Now()

	result, err := d.invoke(ctx, pid, name, args)
	if err != nil {
		result = Sentinel(name, err)
		d.logger.Debug("Syscall failed",
			zap.String("syscall", name),
			zap.Int("pid", pid),
			zap.Int("result", result),
			zap.Error(err),
		)
	}

	if d.recorder != nil {
		d.recorder.RecordSyscall(name, Status(err), time.Since(start))
	}
	return result, err
}

// InvokeNumber is Invoke addressed by syscall number
func (d *Dispatcher) InvokeNumber(ctx context.Context, pid int, num Number, args Args) (int, error) {
	name := num.String()
	if name == "" {
		return SentinelInvalid, fmt.Errorf("syscall %d: %w", num, ErrUnknownSyscall)
	}
	return d.Invoke(ctx, pid, name, args)
}

func (d *Dispatcher) invoke(ctx context.Context, pid int, name string, args Args) (int, error) {
	h, ok := d.handlers[name]
	if !ok {
		return 0, fmt.Errorf("%q: %w", name, ErrUnknownSyscall)
	}

	caller, err := d.table.Lookup(pid)
	if err != nil {
		return 0, fmt.Errorf("caller: %w", err)
	}

	return h(ctx, &Call{Caller: caller, Args: args})
}

// Sentinel maps an error to the legacy negative result for syscall name.
// An unknown process is -3 only when it is the receiver of a transfer; a
// caller that vanished mid-call is -1 like any other invalid call.
func Sentinel(name string, err error) int {
	switch {
	case tickets.KindOf(err) == tickets.InsufficientTickets:
		return SentinelInsufficient
	case name == TransferTickets && tickets.UnknownReceiver(err):
		return SentinelUnknownReceiver
	}
	return SentinelInvalid
}

// Status labels err for metrics.
func Status(err error) string {
	switch {
	case err == nil:
		return "ok"
	case tickets.KindOf(err) != 0:
		return tickets.KindOf(err).String()
	case errors.Is(err, proc.ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrUnknownSyscall):
		return "unknown_syscall"
	case errors.Is(err, proc.ErrKilled):
		return "killed"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "error"
	}
}
