/*
Package resilience provides a circuit breaker for outbound calls.

The breaker is Closed while calls succeed. When ReadyToTrip approves after a
failure it opens and rejects every call with ErrCircuitOpen for Timeout. It
then goes Half-Open and admits MaxRequests trial calls: that many successes
close it again, and any failure reopens it.

IsSuccessful decides what counts as a failure, so callers can keep
application-level errors from tripping the breaker.

# Usage

	breaker := resilience.New("schedctl-api", resilience.Settings{
		ReadyToTrip: func(c resilience.Counts) bool { return c.ConsecutiveFailures >= 5 },
	})

	resp, err := resilience.Execute(breaker, func() (*resty.Response, error) {
		return req.Get(url)
	})
*/
package resilience
