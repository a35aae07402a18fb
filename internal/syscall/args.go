package syscall

import (
	"fmt"
	"math"

	"github.com/GriffinCanCode/AgentOS/schedctl/internal/domain/tickets"
)

// Args holds the positional integer arguments of a call.
type Args []int

// Int decodes argument n. Missing arguments and values that do not fit a
// 32-bit register fail with ArgumentDecodeFailure.
func (a Args) Int(n int) (int, error) {
	if n < 0 || n >= len(a) {
		return 0, fmt.Errorf("arg %d missing: %w", n, tickets.ErrArgumentDecodeFailure)
	}
	v := a[n]
	if v < math.MinInt32 || v > math.MaxInt32 {
		return 0, fmt.Errorf("arg %d out of range: %w", n, tickets.ErrArgumentDecodeFailure)
	}
	return v, nil
}
