package syscall

import (
	"context"

	"go.uber.org/zap"
)

func (d *Dispatcher) sysFork(ctx context.Context, call *Call) (int, error) {
	return d.table.Fork(call.Caller)
}

func (d *Dispatcher) sysExit(ctx context.Context, call *Call) (int, error) {
	if err := d.table.Exit(call.Caller); err != nil {
		return 0, err
	}
	return 0, nil
}

func (d *Dispatcher) sysWait(ctx context.Context, call *Call) (int, error) {
	return d.table.Wait(ctx, call.Caller)
}

func (d *Dispatcher) sysKill(ctx context.Context, call *Call) (int, error) {
	pid, err := call.Args.Int(0)
	if err != nil {
		return 0, err
	}
	if err := d.table.Kill(pid); err != nil {
		return 0, err
	}
	return 0, nil
}

func (d *Dispatcher) sysGetpid(ctx context.Context, call *Call) (int, error) {
	return call.Caller.PID, nil
}

func (d *Dispatcher) sysSbrk(ctx context.Context, call *Call) (int, error) {
	n, err := call.Args.Int(0)
	if err != nil {
		return 0, err
	}
	return d.table.Grow(call.Caller, n)
}

func (d *Dispatcher) sysSleep(ctx context.Context, call *Call) (int, error) {
	n, err := call.Args.Int(0)
	if err != nil {
		return 0, err
	}
	if err := d.table.Sleep(ctx, call.Caller, n); err != nil {
		return 0, err
	}
	return 0, nil
}

func (d *Dispatcher) sysUptime(ctx context.Context, call *Call) (int, error) {
	return int(d.table.Clock().Uptime()), nil
}

func (d *Dispatcher) sysShutdown(ctx context.Context, call *Call) (int, error) {
	d.logger.Warn("Shutdown requested", zap.Int("pid", call.Caller.PID))
	d.halt()
	return 0, nil
}

// sysEnableSchedTrace resets the trace counter even when the flag cannot be
// decoded; the decode failure is only logged.
func (d *Dispatcher) sysEnableSchedTrace(ctx context.Context, call *Call) (int, error) {
	flag, err := call.Args.Int(0)
	if err != nil {
		d.logger.Warn("enable_sched_trace() failed", zap.Int("pid", call.Caller.PID), zap.Error(err))
	} else {
		d.sched.EnableTrace(flag)
	}

	d.sched.ResetTraceCounter()
	return 0, nil
}

func (d *Dispatcher) sysForkWinner(ctx context.Context, call *Call) (int, error) {
	policy, err := call.Args.Int(0)
	if err != nil {
		return 0, err
	}
	if err := d.acct.SetForkPolicy(call.Caller.PID, policy); err != nil {
		return 0, err
	}
	return 0, nil
}

func (d *Dispatcher) sysSetSched(ctx context.Context, call *Call) (int, error) {
	policy, err := call.Args.Int(0)
	if err != nil {
		return 0, err
	}
	d.sched.SetPolicy(policy)
	return 0, nil
}

func (d *Dispatcher) sysTransferTickets(ctx context.Context, call *Call) (int, error) {
	pid, err := call.Args.Int(0)
	if err != nil {
		return 0, err
	}
	amount, err := call.Args.Int(1)
	if err != nil {
		return 0, err
	}
	return d.acct.Transfer(call.Caller.PID, pid, amount)
}

func (d *Dispatcher) sysTicketsOwned(ctx context.Context, call *Call) (int, error) {
	pid, err := call.Args.Int(0)
	if err != nil {
		return 0, err
	}
	return d.acct.Owned(pid)
}
