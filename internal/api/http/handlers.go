package http

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/schedctl/internal/domain/proc"
	"github.com/GriffinCanCode/AgentOS/schedctl/internal/domain/sched"
	"github.com/GriffinCanCode/AgentOS/schedctl/internal/syscall"
)

// Handlers exposes the syscall surface over HTTP
type Handlers struct {
	dispatcher *syscall.Dispatcher
	table      *proc.Table
	sched      *sched.State
	logger     *zap.Logger
}

// NewHandlers creates a new handler set
func NewHandlers(dispatcher *syscall.Dispatcher, table *proc.Table, state *sched.State, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		dispatcher: dispatcher,
		table:      table,
		sched:      state,
		logger:     logger,
	}
}

// Register mounts every handler on r
func (h *Handlers) Register(r gin.IRoutes) {
	r.GET("/health", h.Health)
	r.GET("/uptime", h.Uptime)

	r.GET("/syscalls", h.ListSyscalls)
	r.POST("/syscalls/:name", h.Syscall)

	r.GET("/processes", h.ListProcesses)
	r.POST("/processes/:pid/fork", h.Fork)
	r.POST("/processes/:pid/exit", h.Exit)
	r.POST("/processes/:pid/wait", h.Wait)
	r.POST("/processes/:pid/kill", h.Kill)
	r.GET("/processes/:pid/tickets", h.TicketsOwned)
	r.POST("/processes/:pid/tickets/transfer", h.TransferTickets)
	r.PUT("/processes/:pid/fork-policy", h.SetForkPolicy)

	r.GET("/scheduler/policy", h.GetPolicy)
	r.PUT("/scheduler/policy", h.SetPolicy)
	r.GET("/scheduler/trace", h.GetTrace)
	r.PUT("/scheduler/trace", h.SetTrace)
}

// Health handles liveness checks
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":        "healthy",
		"processes":     h.table.Live(),
		"total_tickets": h.table.TotalTickets(),
		"uptime":        h.table.Clock().Uptime(),
		"policy":        h.sched.Policy().String(),
	})
}

// SyscallEntry is one row of the syscall table
type SyscallEntry struct {
	Name   string `json:"name"`
	Number int    `json:"number"`
}

// ListSyscalls lists the names and numbers accepted by POST /syscalls/:name
func (h *Handlers) ListSyscalls(c *gin.Context) {
	names := h.dispatcher.Names()
	table := make([]SyscallEntry, 0, len(names))
	for _, name := range names {
		num, _ := syscall.Lookup(name)
		table = append(table, SyscallEntry{Name: name, Number: int(num)})
	}
	c.JSON(http.StatusOK, gin.H{
		"syscalls": names,
		"table":    table,
	})
}

// Syscall dispatches a raw call: {"pid": 3, "args": [5, 10]}. The path
// names the syscall or gives its number.
func (h *Handlers) Syscall(c *gin.Context) {
	var req struct {
		PID  int   `json:"pid" binding:"required"`
		Args []int `json:"args"`
	}
	if !bind(c, &req) {
		return
	}

	name := c.Param("name")
	if num, err := strconv.Atoi(name); err == nil {
		result, err := h.dispatcher.InvokeNumber(c.Request.Context(), req.PID, syscall.Number(num), req.Args)
		respond(c, result, err)
		return
	}
	h.invoke(c, req.PID, name, req.Args...)
}

// ListProcesses returns a snapshot of the process table
func (h *Handlers) ListProcesses(c *gin.Context) {
	procs := h.table.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"processes":     procs,
		"count":         len(procs),
		"total_tickets": h.table.TotalTickets(),
	})
}

// Fork forks the process named in the path
func (h *Handlers) Fork(c *gin.Context) {
	h.invokeAs(c, syscall.Fork)
}

// Exit terminates the process named in the path
func (h *Handlers) Exit(c *gin.Context) {
	h.invokeAs(c, syscall.Exit)
}

// Wait blocks until a child of the path process exits or the request ends
func (h *Handlers) Wait(c *gin.Context) {
	h.invokeAs(c, syscall.Wait)
}

// Kill marks {"target": pid} killed on behalf of the path process
func (h *Handlers) Kill(c *gin.Context) {
	var req struct {
		Target int `json:"target" binding:"required"`
	}
	if !bind(c, &req) {
		return
	}
	h.invokeAs(c, syscall.Kill, req.Target)
}

// TicketsOwned reports the tickets held by the path process. The query
// runs on behalf of init so an unknown pid yields -1 like any other caller.
func (h *Handlers) TicketsOwned(c *gin.Context) {
	pid, ok := pidParam(c)
	if !ok {
		return
	}
	h.invoke(c, proc.InitPID, syscall.TicketsOwned, pid)
}

// TransferTickets moves {"amount": n} tickets from the path process to {"to": pid}
func (h *Handlers) TransferTickets(c *gin.Context) {
	var req struct {
		To     int `json:"to"`
		Amount int `json:"amount"`
	}
	if !bind(c, &req) {
		return
	}
	h.invokeAs(c, syscall.TransferTickets, req.To, req.Amount)
}

// SetForkPolicy sets {"policy": 0|1} for future forks of the path process
func (h *Handlers) SetForkPolicy(c *gin.Context) {
	var req struct {
		Policy int `json:"policy"`
	}
	if !bind(c, &req) {
		return
	}
	h.invokeAs(c, syscall.ForkWinner, req.Policy)
}

// GetPolicy returns the global scheduling policy
func (h *Handlers) GetPolicy(c *gin.Context) {
	p := h.sched.Policy()
	c.JSON(http.StatusOK, gin.H{
		"policy": int(p),
		"name":   p.String(),
	})
}

// SetPolicy switches the global scheduling policy. Any integer is accepted.
func (h *Handlers) SetPolicy(c *gin.Context) {
	var req struct {
		PID    int `json:"pid"`
		Policy int `json:"policy"`
	}
	if !bind(c, &req) {
		return
	}
	h.invoke(c, callerOrInit(req.PID), syscall.SetSched, req.Policy)
}

// GetTrace reports the trace toggle and counter
func (h *Handlers) GetTrace(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"enabled":     h.sched.TraceEnabled(),
		"counter":     h.sched.TraceCounter(),
		"subscribers": h.sched.Events().Subscribers(),
		"dropped":     h.sched.Events().Dropped(),
	})
}

// SetTrace toggles scheduler tracing with {"enabled": true|false|int}. A
// value that cannot be read as a flag still resets the counter.
func (h *Handlers) SetTrace(c *gin.Context) {
	var req struct {
		PID     int `json:"pid"`
		Enabled any `json:"enabled"`
	}
	if !bind(c, &req) {
		return
	}

	var args []int
	if flag, ok := traceFlag(req.Enabled); ok {
		args = append(args, flag)
	}
	h.invoke(c, callerOrInit(req.PID), syscall.EnableSchedTrace, args...)
}

// Uptime returns the tick count
func (h *Handlers) Uptime(c *gin.Context) {
	h.invoke(c, proc.InitPID, syscall.Uptime)
}

func (h *Handlers) invokeAs(c *gin.Context, name string, args ...int) {
	pid, ok := pidParam(c)
	if !ok {
		return
	}
	h.invoke(c, pid, name, args...)
}

func (h *Handlers) invoke(c *gin.Context, pid int, name string, args ...int) {
	result, err := h.dispatcher.Invoke(c.Request.Context(), pid, name, args)
	respond(c, result, err)
}

func respond(c *gin.Context, result int, err error) {
	if err == nil {
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"result":  result,
		})
		return
	}

	status := http.StatusOK
	if errors.Is(err, syscall.ErrUnknownSyscall) {
		status = http.StatusNotFound
	}
	c.JSON(status, gin.H{
		"success": false,
		"result":  result,
		"status":  syscall.Status(err),
		"error":   err.Error(),
	})
}

func bind(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid request: " + err.Error(),
		})
		return false
	}
	return true
}

func pidParam(c *gin.Context) (int, bool) {
	pid, err := strconv.Atoi(c.Param("pid"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid pid: " + c.Param("pid"),
		})
		return 0, false
	}
	return pid, true
}

func callerOrInit(pid int) int {
	if pid == 0 {
		return proc.InitPID
	}
	return pid
}

// traceFlag reads a JSON bool or integral number as the trace flag
func traceFlag(v any) (int, bool) {
	switch f := v.(type) {
	case bool:
		if f {
			return 1, true
		}
		return 0, true
	case float64:
		if f != math.Trunc(f) || f < math.MinInt32 || f > math.MaxInt32 {
			return 0, false
		}
		return int(f), true
	default:
		return 0, false
	}
}
