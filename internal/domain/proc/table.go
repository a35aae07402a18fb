package proc

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/schedctl/internal/domain/tickets"
)

// InitPID is the pid of the first process. Orphans are reparented to it.
const InitPID = 1

// Config sizes the process table.
type Config struct {
	Pool           int // STRIDE_TOTAL_TICKETS
	DefaultTickets int // tickets for init and for children of single-ticket parents
	MaxProcs       int
	MaxMemory      int
}

// DefaultConfig returns the stock table limits.
func DefaultConfig() Config {
	return Config{
		Pool:           tickets.DefaultPool,
		DefaultTickets: tickets.DefaultPool,
		MaxProcs:       64,
		MaxMemory:      64 << 20,
	}
}

// Table is the process table. A single mutex guards every record.
type Table struct {
	mu      sync.Mutex
	cond    *sync.Cond // signalled on exit and kill
	procs   map[int]*Process
	nextPID int

	cfg    Config
	clock  *Clock
	logger *zap.Logger
}

// NewTable creates a table holding only init.
func NewTable(cfg Config, clock *Clock, logger *zap.Logger) *Table {
	def := DefaultConfig()
	if cfg.Pool <= 0 {
		cfg.Pool = def.Pool
	}
	if cfg.DefaultTickets <= 0 {
		cfg.DefaultTickets = def.DefaultTickets
	}
	if cfg.MaxProcs <= 0 {
		cfg.MaxProcs = def.MaxProcs
	}
	if cfg.MaxMemory <= 0 {
		cfg.MaxMemory = def.MaxMemory
	}
	if clock == nil {
		clock = NewClock()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	t := &Table{
		procs:   make(map[int]*Process),
		nextPID: InitPID,
		cfg:     cfg,
		clock:   clock,
		logger:  logger,
	}
	t.cond = sync.NewCond(&t.mu)

	t.mu.Lock()
	t.allocLocked(0, "init", cfg.DefaultTickets, tickets.ForkLoser)
	t.mu.Unlock()

	return t
}

// Lock acquires the table lock
func (t *Table) Lock() { t.mu.Lock() }

// Unlock releases the table lock
func (t *Table) Unlock() { t.mu.Unlock() }

// FindLocked resolves a live process account. Caller holds the lock.
func (t *Table) FindLocked(pid int) (*tickets.Account, bool) {
	p, ok := t.findLocked(pid)
	if !ok {
		return nil, false
	}
	return &p.Account, true
}

func (t *Table) findLocked(pid int) (*Process, bool) {
	p, ok := t.procs[pid]
	if !ok || p.State == StateZombie {
		return nil, false
	}
	return p, true
}

// liveLocked reports whether p is still the live record for its pid. A
// handle resolved before the lock was taken may have exited or been reaped
// since. Caller holds the lock.
func (t *Table) liveLocked(p *Process) bool {
	q, ok := t.procs[p.PID]
	return ok && q == p && p.State != StateZombie
}

// Lookup returns the live process with the given pid.
func (t *Table) Lookup(pid int) (*Process, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	p, ok := t.findLocked(pid)
	if !ok {
		return nil, fmt.Errorf("pid %d: %w", pid, ErrNotFound)
	}
	return p, nil
}

func (t *Table) allocLocked(parent int, name string, n int, policy tickets.ForkPolicy) *Process {
	p := &Process{
		ParentPID: parent,
		Name:      name,
		State:     StateRunnable,
	}
	p.PID = t.nextPID
	p.ForkPolicy = policy
	p.Assign(t.cfg.Pool, n)

	t.procs[p.PID] = p
	t.nextPID++
	return p
}

// Spawn creates a process with an explicit ticket grant, outside fork's split rules.
func (t *Table) Spawn(parent int, name string, n int, policy tickets.ForkPolicy) (*Process, error) {
	if n <= 0 {
		return nil, ErrInvalidSpawn
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.findLocked(parent); !ok {
		return nil, fmt.Errorf("parent %d: %w", parent, ErrNotFound)
	}
	if len(t.procs) >= t.cfg.MaxProcs {
		return nil, ErrTableFull
	}

	p := t.allocLocked(parent, name, n, policy)
	t.logger.Info("Process spawned",
		zap.Int("pid", p.PID),
		zap.Int("parent", parent),
		zap.String("name", name),
		zap.Int("tickets", n),
	)
	return p, nil
}

// Fork creates a child of parent and splits the parent's tickets according
// to its fork policy.
func (t *Table) Fork(parent *Process) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.liveLocked(parent) {
		return 0, fmt.Errorf("pid %d: %w", parent.PID, ErrNotFound)
	}
	if len(t.procs) >= t.cfg.MaxProcs {
		return 0, ErrTableFull
	}

	share := tickets.Split(&parent.Account, t.cfg.Pool, t.cfg.DefaultTickets)
	child := t.allocLocked(parent.PID, parent.Name, share, parent.ForkPolicy)
	child.Size = parent.Size

	t.logger.Debug("Process forked",
		zap.Int("parent", parent.PID),
		zap.Int("child", child.PID),
		zap.Int("parent_tickets", parent.Tickets),
		zap.Int("child_tickets", child.Tickets),
		zap.String("policy", parent.ForkPolicy.String()),
	)
	return child.PID, nil
}

// Exit turns p into a zombie and hands its children to init. Its tickets
// leave the live pool. Init reaps orphans as soon as they are zombies, so
// an orphan that has already exited, or exits later, frees its slot here.
func (t *Table) Exit(p *Process) error {
	if p.PID == InitPID {
		return ErrInitExit
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.liveLocked(p) {
		return fmt.Errorf("pid %d: %w", p.PID, ErrNotFound)
	}

	reaped := 0
	for pid, c := range t.procs {
		if c.ParentPID != p.PID {
			continue
		}
		c.ParentPID = InitPID
		c.orphan = true
		if c.State == StateZombie {
			delete(t.procs, pid)
			reaped++
		}
	}

	p.State = StateZombie
	if p.orphan {
		delete(t.procs, p.PID)
		reaped++
	}
	t.cond.Broadcast()

	t.logger.Debug("Process exited",
		zap.Int("pid", p.PID),
		zap.Int("tickets", p.Tickets),
		zap.Int("reaped_by_init", reaped),
	)
	return nil
}

// Wait blocks until a child of p exits, reaps it and returns its pid.
func (t *Table) Wait(ctx context.Context, p *Process) (int, error) {
	stop := context.AfterFunc(ctx, func() {
		t.mu.Lock()
		t.cond.Broadcast()
		t.mu.Unlock()
	})
	defer stop()

	t.mu.Lock()
	defer t.mu.Unlock()

	for {
		if !t.liveLocked(p) {
			return 0, fmt.Errorf("pid %d: %w", p.PID, ErrNotFound)
		}

		haveKids := false
		for pid, c := range t.procs {
			if c.ParentPID != p.PID {
				continue
			}
			haveKids = true
			if c.State == StateZombie {
				delete(t.procs, pid)
				return pid, nil
			}
		}

		if !haveKids {
			return 0, ErrNoChildren
		}
		if p.Killed() {
			return 0, ErrKilled
		}
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		t.cond.Wait()
	}
}

// Kill marks pid killed and wakes it if it is sleeping or waiting. Zombies
// not yet reaped can still be killed, which changes nothing for them.
func (t *Table) Kill(pid int) error {
	t.mu.Lock()
	p, ok := t.procs[pid]
	if !ok {
		t.mu.Unlock()
		return fmt.Errorf("pid %d: %w", pid, ErrNotFound)
	}
	p.killed.Store(true)
	if p.State == StateSleeping {
		p.State = StateRunnable
	}
	t.cond.Broadcast()
	t.mu.Unlock()

	t.clock.wake()
	return nil
}

// Grow changes p's memory size by n bytes and returns the old size.
func (t *Table) Grow(p *Process, n int) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.liveLocked(p) {
		return 0, fmt.Errorf("pid %d: %w", p.PID, ErrNotFound)
	}

	old := p.Size
	size := old + n
	if size < 0 {
		return 0, ErrInvalidGrow
	}
	if size > t.cfg.MaxMemory {
		return 0, ErrOutOfMemory
	}
	p.Size = size
	return old, nil
}

// Sleep blocks p for n ticks of the clock.
func (t *Table) Sleep(ctx context.Context, p *Process, n int) error {
	if n <= 0 {
		return nil
	}

	t.setState(p, StateSleeping)
	defer t.setState(p, StateRunnable)

	return t.clock.sleep(ctx, uint64(n), p.Killed)
}

func (t *Table) setState(p *Process, s State) {
	t.mu.Lock()
	if p.State != StateZombie {
		p.State = s
	}
	t.mu.Unlock()
}

// Snapshot copies every record, zombies included, ordered by pid.
func (t *Table) Snapshot() []Info {
	t.mu.Lock()
	infos := make([]Info, 0, len(t.procs))
	for _, p := range t.procs {
		infos = append(infos, p.info())
	}
	t.mu.Unlock()

	sort.Slice(infos, func(i, j int) bool { return infos[i].PID < infos[j].PID })
	return infos
}

// Live counts processes that are not zombies.
func (t *Table) Live() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := 0
	for _, p := range t.procs {
		if p.State != StateZombie {
			n++
		}
	}
	return n
}

// TotalTickets sums tickets over live processes.
func (t *Table) TotalTickets() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	total := 0
	for _, p := range t.procs {
		if p.State != StateZombie {
			total += p.Tickets
		}
	}
	return total
}

// Clock returns the tick clock backing Sleep.
func (t *Table) Clock() *Clock {
	return t.clock
}
