// Package client is a Go client for the schedctl HTTP API.
//
// Requests go through a rate limiter and a circuit breaker. Transport
// retries are limited to requests the server cannot have applied (dial
// failures, 429 and 503), since ticket transfers are not idempotent.
// Only transport errors and 5xx responses count against the breaker; a
// syscall that returns a negative result is a normal response.
//
//	c := client.New(client.DefaultConfig("http://localhost:8000"))
//	res, err := c.Transfer(ctx, 3, 4, 10)
//	if err == nil && !res.Success {
//	    // res.Result is -1, -2 or -3
//	}
package client
