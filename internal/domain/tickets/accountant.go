package tickets

import (
	"sync"

	"go.uber.org/zap"
)

// DefaultPool is the STRIDE_TOTAL_TICKETS constant used when none is configured.
const DefaultPool = 100

// strideScale is the fixed-point factor applied to the pool before dividing
// by the ticket count. Scheduling order depends on it.
const strideScale = 10

// ForkPolicy selects how fork splits the parent's tickets.
type ForkPolicy int

const (
	// ForkLoser keeps the larger share in the parent.
	ForkLoser ForkPolicy = 0
	// ForkWinner hands the larger share to the child.
	ForkWinner ForkPolicy = 1
)

// String returns the string representation of the policy
func (p ForkPolicy) String() string {
	switch p {
	case ForkLoser:
		return "loser"
	case ForkWinner:
		return "winner"
	default:
		return "unknown"
	}
}

// Account is the slice of a process record owned by the accounting core.
// Tickets, Stride and ForkPolicy are guarded by the process table lock.
type Account struct {
	PID        int
	Tickets    int
	Stride     int
	ForkPolicy ForkPolicy
}

// Assign sets the ticket count and rederives the stride. Caller holds the table lock.
func (a *Account) Assign(pool, tickets int) {
	a.Tickets = tickets
	a.Stride = Stride(pool, tickets)
}

// Stride derives the stride for a ticket count with truncating division.
func Stride(pool, tickets int) int {
	if tickets <= 0 {
		return 0
	}
	return (pool * strideScale) / tickets
}

// Table is the process table as seen by the accounting core.
type Table interface {
	sync.Locker
	// FindLocked resolves a live process. The caller must hold the lock.
	FindLocked(pid int) (*Account, bool)
}

// Accountant moves tickets between processes and keeps strides current.
type Accountant struct {
	table  Table
	pool   int
	logger *zap.Logger
}

// New creates an accountant over table. pool is fixed for the accountant's lifetime.
func New(table Table, pool int, logger *zap.Logger) *Accountant {
	if pool <= 0 {
		pool = DefaultPool
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Accountant{
		table:  table,
		pool:   pool,
		logger: logger,
	}
}

// Pool returns the ticket pool constant used for stride derivation.
func (a *Accountant) Pool() int {
	return a.pool
}

// Transfer moves amount tickets from caller to receiver and returns the
// caller's remaining tickets. Both processes are resolved under the table
// lock, so a caller that exits concurrently fails instead of handing out
// tickets it no longer owns. A failed transfer mutates nothing.
func (a *Accountant) Transfer(caller, receiver, amount int) (int, error) {
	if amount <= 0 {
		return 0, newError(InvalidAmount, "transfer", caller)
	}

	a.table.Lock()
	defer a.table.Unlock()

	from, ok := a.table.FindLocked(caller)
	if !ok {
		return 0, newError(UnknownProcess, "transfer", caller)
	}
	if amount >= from.Tickets {
		return 0, newError(InsufficientTickets, "transfer", caller)
	}

	to, ok := a.table.FindLocked(receiver)
	if !ok {
		err := newError(UnknownProcess, "transfer", receiver)
		err.Receiver = true
		return 0, err
	}

	from.Tickets -= amount
	to.Tickets += amount

	to.Stride = Stride(a.pool, to.Tickets)
	from.Stride = Stride(a.pool, from.Tickets)

	a.logger.Debug("Tickets transferred",
		zap.Int("from", from.PID),
		zap.Int("to", to.PID),
		zap.Int("amount", amount),
		zap.Int("remaining", from.Tickets),
	)

	return from.Tickets, nil
}

// Owned returns the tickets held by pid.
func (a *Accountant) Owned(pid int) (int, error) {
	a.table.Lock()
	defer a.table.Unlock()

	acct, ok := a.table.FindLocked(pid)
	if !ok {
		return 0, newError(UnknownProcess, "tickets_owned", pid)
	}
	return acct.Tickets, nil
}

// SetForkPolicy records the caller's fork-time split selector.
func (a *Accountant) SetForkPolicy(caller, policy int) error {
	if policy != int(ForkLoser) && policy != int(ForkWinner) {
		return newError(InvalidPolicy, "fork_policy", caller)
	}

	a.table.Lock()
	defer a.table.Unlock()

	acct, ok := a.table.FindLocked(caller)
	if !ok {
		return newError(UnknownProcess, "fork_policy", caller)
	}
	acct.ForkPolicy = ForkPolicy(policy)
	return nil
}

// Split carves the child's tickets out of parent according to the parent's
// fork policy and returns the child's share. A parent holding a single ticket
// cannot give any away, so the child is funded with fallback instead.
// Caller holds the table lock.
func Split(parent *Account, pool, fallback int) int {
	if parent.Tickets < 2 {
		return fallback
	}

	larger := (parent.Tickets + 1) / 2
	smaller := parent.Tickets / 2

	if parent.ForkPolicy == ForkWinner {
		parent.Assign(pool, smaller)
		return larger
	}
	parent.Assign(pool, larger)
	return smaller
}
