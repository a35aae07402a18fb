package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"

	"github.com/GriffinCanCode/AgentOS/schedctl/internal/domain/proc"
	"github.com/GriffinCanCode/AgentOS/schedctl/internal/infrastructure/resilience"
)

// Config tunes the client
type Config struct {
	BaseURL      string
	Timeout      time.Duration
	MaxRetries   int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	// RateLimit caps outgoing requests per second. Zero means unlimited.
	RateLimit float64
	// TripAfter opens the breaker after this many consecutive failures
	TripAfter uint32
	// BreakerTimeout is how long an open breaker rejects calls
	BreakerTimeout time.Duration
}

// DefaultConfig returns client defaults for a server at baseURL
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:        baseURL,
		Timeout:        30 * time.Second,
		MaxRetries:     3,
		RetryWaitMin:   100 * time.Millisecond,
		RetryWaitMax:   2 * time.Second,
		TripAfter:      5,
		BreakerTimeout: 30 * time.Second,
	}
}

// Result is the body of every syscall endpoint. A failed syscall is not a
// Go error: Success is false and Result holds the negative code.
type Result struct {
	Success bool   `json:"success"`
	Result  int    `json:"result"`
	Status  string `json:"status,omitempty"`
	Error   string `json:"error,omitempty"`
}

// StatusError is returned when the server answers outside 2xx
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.Code)
	}
	return fmt.Sprintf("server returned %d: %s", e.Code, e.Message)
}

// Client talks to a schedctl server with retries, rate limiting and a
// circuit breaker
type Client struct {
	resty   *resty.Client
	limiter *rate.Limiter
	breaker *resilience.Breaker
}

// New creates a client
func New(cfg Config) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = cfg.MaxRetries
	retryClient.RetryWaitMin = cfg.RetryWaitMin
	retryClient.RetryWaitMax = cfg.RetryWaitMax
	retryClient.CheckRetry = checkRetry
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	retryClient.Logger = nil

	r := resty.NewWithClient(retryClient.StandardClient()).
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("User-Agent", "schedctl-client/1.0").
		SetHeader("Accept", "application/json")
	r.JSONMarshal = sonic.Marshal
	r.JSONUnmarshal = sonic.Unmarshal

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), max(1, int(cfg.RateLimit)))
	}

	tripAfter := cfg.TripAfter
	if tripAfter == 0 {
		tripAfter = 5
	}
	breaker := resilience.New("schedctl-api", resilience.Settings{
		Timeout: cfg.BreakerTimeout,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= tripAfter
		},
		IsSuccessful: func(err error) bool {
			var se *StatusError
			if errors.As(err, &se) {
				return se.Code < http.StatusInternalServerError
			}
			return err == nil
		},
	})

	return &Client{
		resty:   r,
		limiter: limiter,
		breaker: breaker,
	}
}

// checkRetry retries only when the request cannot have been applied: the
// connection was never made, or the server refused it outright.
func checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if err != nil {
		var opErr *net.OpError
		return errors.As(err, &opErr) && opErr.Op == "dial", nil
	}
	switch resp.StatusCode {
	case http.StatusTooManyRequests, http.StatusServiceUnavailable:
		return true, nil
	}
	return false, nil
}

// BreakerState reports the circuit breaker state
func (c *Client) BreakerState() resilience.State {
	return c.breaker.State()
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit error: %w", err)
	}

	_, err := resilience.Execute(c.breaker, func() (*resty.Response, error) {
		var failure struct {
			Error string `json:"error"`
		}
		req := c.resty.R().
			SetContext(ctx).
			SetError(&failure)
		if out != nil {
			req.SetResult(out)
		}
		if body != nil {
			req.SetBody(body)
		}

		resp, err := req.Execute(method, path)
		if err != nil {
			return nil, err
		}
		if resp.IsError() {
			return resp, &StatusError{Code: resp.StatusCode(), Message: failure.Error}
		}
		return resp, nil
	})
	if errors.Is(err, resilience.ErrCircuitOpen) {
		return fmt.Errorf("schedctl unavailable: %w", err)
	}
	return err
}

func (c *Client) syscall(ctx context.Context, method, path string, body any) (*Result, error) {
	var res Result
	if err := c.do(ctx, method, path, body, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Health is the /health body
type Health struct {
	Status       string `json:"status"`
	Processes    int    `json:"processes"`
	TotalTickets int    `json:"total_tickets"`
	Uptime       uint64 `json:"uptime"`
	Policy       string `json:"policy"`
}

// Health checks the server
func (c *Client) Health(ctx context.Context) (*Health, error) {
	var h Health
	if err := c.do(ctx, http.MethodGet, "/health", nil, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

// Processes lists the process table
func (c *Client) Processes(ctx context.Context) ([]proc.Info, error) {
	var out struct {
		Processes []proc.Info `json:"processes"`
	}
	if err := c.do(ctx, http.MethodGet, "/processes", nil, &out); err != nil {
		return nil, err
	}
	return out.Processes, nil
}

// Syscall invokes name on behalf of pid
func (c *Client) Syscall(ctx context.Context, pid int, name string, args ...int) (*Result, error) {
	body := map[string]any{"pid": pid, "args": args}
	return c.syscall(ctx, http.MethodPost, "/syscalls/"+name, body)
}

// Fork forks pid
func (c *Client) Fork(ctx context.Context, pid int) (*Result, error) {
	return c.syscall(ctx, http.MethodPost, procPath(pid, "fork"), nil)
}

// TicketsOwned reports the tickets held by pid
func (c *Client) TicketsOwned(ctx context.Context, pid int) (*Result, error) {
	return c.syscall(ctx, http.MethodGet, procPath(pid, "tickets"), nil)
}

// Transfer moves amount tickets from one process to another
func (c *Client) Transfer(ctx context.Context, from, to, amount int) (*Result, error) {
	body := map[string]int{"to": to, "amount": amount}
	return c.syscall(ctx, http.MethodPost, procPath(from, "tickets/transfer"), body)
}

// SetForkPolicy sets pid's fork policy
func (c *Client) SetForkPolicy(ctx context.Context, pid, policy int) (*Result, error) {
	return c.syscall(ctx, http.MethodPut, procPath(pid, "fork-policy"), map[string]int{"policy": policy})
}

// SetPolicy switches the global scheduling policy
func (c *Client) SetPolicy(ctx context.Context, policy int) (*Result, error) {
	return c.syscall(ctx, http.MethodPut, "/scheduler/policy", map[string]int{"policy": policy})
}

// SetTrace toggles scheduler tracing
func (c *Client) SetTrace(ctx context.Context, enabled bool) (*Result, error) {
	return c.syscall(ctx, http.MethodPut, "/scheduler/trace", map[string]bool{"enabled": enabled})
}

func procPath(pid int, op string) string {
	return "/processes/" + strconv.Itoa(pid) + "/" + op
}
