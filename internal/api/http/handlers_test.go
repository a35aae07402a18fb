package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/schedctl/internal/domain/proc"
	"github.com/GriffinCanCode/AgentOS/schedctl/internal/domain/sched"
	"github.com/GriffinCanCode/AgentOS/schedctl/internal/domain/tickets"
	"github.com/GriffinCanCode/AgentOS/schedctl/internal/syscall"
)

type testEnv struct {
	router *gin.Engine
	table  *proc.Table
	state  *sched.State
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := zap.NewNop()
	table := proc.NewTable(proc.DefaultConfig(), proc.NewClock(), logger)
	acct := tickets.New(table, tickets.DefaultPool, logger)
	state := sched.New(sched.PolicyRoundRobin, sched.NewBroadcaster(0), logger)
	dispatcher := syscall.New(table, acct, state, logger)

	router := gin.New()
	NewHandlers(dispatcher, table, state, logger).Register(router)

	return &testEnv{router: router, table: table, state: state}
}

func (e *testEnv) spawn(t *testing.T, n int) int {
	t.Helper()
	p, err := e.table.Spawn(proc.InitPID, "worker", n, tickets.ForkLoser)
	require.NoError(t, err)
	return p.PID
}

type response struct {
	Success bool   `json:"success"`
	Result  int    `json:"result"`
	Status  string `json:"status"`
	Error   string `json:"error"`
}

func (e *testEnv) do(t *testing.T, method, path string, body any) (*httptest.ResponseRecorder, response) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var resp response
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

func TestHealth(t *testing.T) {
	env := setupTestEnv(t)

	w, _ := env.do(t, "GET", "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, float64(1), body["processes"])
	assert.Equal(t, "round_robin", body["policy"])
}

func TestTransferTickets(t *testing.T) {
	tests := []struct {
		name        string
		amount      int
		toUnknown   bool
		wantResult  int
		wantStatus  string
		wantSuccess bool
	}{
		{name: "valid transfer", amount: 4, wantResult: 6, wantSuccess: true},
		{name: "zero amount", amount: 0, wantResult: -1, wantStatus: "invalid_amount"},
		{name: "negative amount", amount: -3, wantResult: -1, wantStatus: "invalid_amount"},
		{name: "entire balance", amount: 10, wantResult: -2, wantStatus: "insufficient_tickets"},
		{name: "unknown receiver", amount: 1, toUnknown: true, wantResult: -3, wantStatus: "unknown_process"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupTestEnv(t)
			from := env.spawn(t, 10)
			to := env.spawn(t, 5)
			if tt.toUnknown {
				to = 999
			}

			w, resp := env.do(t, "POST", "/processes/"+strconv.Itoa(from)+"/tickets/transfer",
				gin.H{"to": to, "amount": tt.amount})

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.wantSuccess, resp.Success)
			assert.Equal(t, tt.wantResult, resp.Result)
			assert.Equal(t, tt.wantStatus, resp.Status)
		})
	}
}

func TestTicketsOwned(t *testing.T) {
	env := setupTestEnv(t)
	pid := env.spawn(t, 7)

	_, resp := env.do(t, "GET", "/processes/"+strconv.Itoa(pid)+"/tickets", nil)
	assert.True(t, resp.Success)
	assert.Equal(t, 7, resp.Result)

	_, resp = env.do(t, "GET", "/processes/999/tickets", nil)
	assert.False(t, resp.Success)
	assert.Equal(t, -1, resp.Result)

	w, _ := env.do(t, "GET", "/processes/abc/tickets", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestForkPolicyAndFork(t *testing.T) {
	env := setupTestEnv(t)
	pid := env.spawn(t, 11)

	_, resp := env.do(t, "PUT", "/processes/"+strconv.Itoa(pid)+"/fork-policy", gin.H{"policy": 1})
	require.True(t, resp.Success)

	_, resp = env.do(t, "POST", "/processes/"+strconv.Itoa(pid)+"/fork", nil)
	require.True(t, resp.Success)
	child := resp.Result

	p, err := env.table.Lookup(pid)
	require.NoError(t, err)
	c, err := env.table.Lookup(child)
	require.NoError(t, err)
	assert.Equal(t, 5, p.Tickets)
	assert.Equal(t, 6, c.Tickets)

	_, resp = env.do(t, "PUT", "/processes/"+strconv.Itoa(pid)+"/fork-policy", gin.H{"policy": 7})
	assert.False(t, resp.Success)
	assert.Equal(t, -1, resp.Result)
}

func TestExitWaitKill(t *testing.T) {
	env := setupTestEnv(t)
	pid := env.spawn(t, 3)

	_, resp := env.do(t, "POST", "/processes/"+strconv.Itoa(pid)+"/fork", nil)
	require.True(t, resp.Success)
	child := resp.Result

	_, resp = env.do(t, "POST", "/processes/"+strconv.Itoa(child)+"/exit", nil)
	require.True(t, resp.Success)

	_, resp = env.do(t, "POST", "/processes/"+strconv.Itoa(pid)+"/wait", nil)
	assert.True(t, resp.Success)
	assert.Equal(t, child, resp.Result)

	_, resp = env.do(t, "POST", "/processes/"+strconv.Itoa(pid)+"/wait", nil)
	assert.False(t, resp.Success)
	assert.Equal(t, -1, resp.Result)

	_, resp = env.do(t, "POST", "/processes/1/kill", gin.H{"target": pid})
	assert.True(t, resp.Success)
	p, err := env.table.Lookup(pid)
	require.NoError(t, err)
	assert.True(t, p.Killed())

	w, _ := env.do(t, "POST", "/processes/1/kill", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSchedulerPolicy(t *testing.T) {
	env := setupTestEnv(t)

	_, resp := env.do(t, "PUT", "/scheduler/policy", gin.H{"policy": 2})
	require.True(t, resp.Success)

	w, _ := env.do(t, "GET", "/scheduler/policy", nil)
	assert.JSONEq(t, `{"policy":2,"name":"stride"}`, w.Body.String())

	// Unrecognised ids are stored as-is
	_, resp = env.do(t, "PUT", "/scheduler/policy", gin.H{"policy": 42})
	require.True(t, resp.Success)
	assert.Equal(t, sched.Policy(42), env.state.Policy())
}

func TestSchedulerTrace(t *testing.T) {
	tests := []struct {
		name        string
		enabled     any
		wantEnabled bool
	}{
		{name: "bool true", enabled: true, wantEnabled: true},
		{name: "integer flag", enabled: 1, wantEnabled: true},
		{name: "bool false", enabled: false, wantEnabled: false},
		{name: "undecodable flag keeps previous setting", enabled: "yes", wantEnabled: true},
	}

	env := setupTestEnv(t)
	env.state.EnableTrace(1)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env.state.Observe(1, 1)
			env.state.EnableTrace(1)
			env.state.Observe(2, 1)
			require.NotZero(t, env.state.TraceCounter())

			_, resp := env.do(t, "PUT", "/scheduler/trace", gin.H{"enabled": tt.enabled})
			assert.True(t, resp.Success)
			assert.Equal(t, 0, resp.Result)

			assert.Equal(t, tt.wantEnabled, env.state.TraceEnabled())
			assert.Zero(t, env.state.TraceCounter())
		})
	}

	w, _ := env.do(t, "GET", "/scheduler/trace", nil)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, true, body["enabled"])
	assert.Equal(t, float64(0), body["counter"])
}

func TestRawSyscall(t *testing.T) {
	env := setupTestEnv(t)
	from := env.spawn(t, 10)
	to := env.spawn(t, 5)

	_, resp := env.do(t, "POST", "/syscalls/transfer_tickets", gin.H{"pid": from, "args": []int{to, 3}})
	assert.True(t, resp.Success)
	assert.Equal(t, 7, resp.Result)

	_, resp = env.do(t, "POST", "/syscalls/getpid", gin.H{"pid": to})
	assert.Equal(t, to, resp.Result)

	_, resp = env.do(t, "POST", "/syscalls/tickets_owned", gin.H{"pid": from})
	assert.False(t, resp.Success)
	assert.Equal(t, -1, resp.Result)
	assert.Equal(t, "argument_decode_failure", resp.Status)

	w, resp := env.do(t, "POST", "/syscalls/reboot", gin.H{"pid": from})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "unknown_syscall", resp.Status)

	w, _ = env.do(t, "POST", "/syscalls/getpid", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListProcessesAndSyscalls(t *testing.T) {
	env := setupTestEnv(t)
	env.spawn(t, 4)

	w, _ := env.do(t, "GET", "/processes", nil)
	var body struct {
		Processes    []proc.Info `json:"processes"`
		Count        int         `json:"count"`
		TotalTickets int         `json:"total_tickets"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Count)
	assert.Equal(t, 104, body.TotalTickets)
	assert.Equal(t, 250, body.Processes[1].Stride)

	w, _ = env.do(t, "GET", "/syscalls", nil)
	var names struct {
		Syscalls []string `json:"syscalls"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &names))
	assert.Len(t, names.Syscalls, 14)
	assert.Contains(t, names.Syscalls, syscall.TransferTickets)

	var table struct {
		Table []SyscallEntry `json:"table"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &table))
	require.Len(t, table.Table, 14)
	assert.Contains(t, table.Table, SyscallEntry{Name: syscall.TransferTickets, Number: int(syscall.SysTransferTickets)})
}

func TestSyscallByNumber(t *testing.T) {
	env := setupTestEnv(t)
	pid := env.spawn(t, 10)

	path := "/syscalls/" + strconv.Itoa(int(syscall.SysTransferTickets))
	w, resp := env.do(t, "POST", path, map[string]any{"pid": pid, "args": []int{1, 4}})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)
	assert.Equal(t, 6, resp.Result)

	w, resp = env.do(t, "POST", "/syscalls/99", map[string]any{"pid": 1})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.False(t, resp.Success)
	assert.Equal(t, -1, resp.Result)
}

func TestUptime(t *testing.T) {
	env := setupTestEnv(t)
	env.table.Clock().Tick()
	env.table.Clock().Tick()

	_, resp := env.do(t, "GET", "/uptime", nil)
	assert.True(t, resp.Success)
	assert.Equal(t, 2, resp.Result)
}

func TestTraceFlag(t *testing.T) {
	tests := []struct {
		in     any
		want   int
		wantOK bool
	}{
		{in: true, want: 1, wantOK: true},
		{in: false, want: 0, wantOK: true},
		{in: float64(3), want: 3, wantOK: true},
		{in: 1.5, wantOK: false},
		{in: float64(1 << 40), wantOK: false},
		{in: "1", wantOK: false},
		{in: nil, wantOK: false},
	}

	for _, tt := range tests {
		got, ok := traceFlag(tt.in)
		assert.Equal(t, tt.wantOK, ok, "%v", tt.in)
		if ok {
			assert.Equal(t, tt.want, got)
		}
	}
}
