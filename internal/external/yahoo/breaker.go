package yahoo

import (
	"errors"
	"time"

	"github.com/sony/gobreaker"

	"github.com/wonny/leapscreener/internal/telemetry"
	"github.com/wonny/leapscreener/pkg/logger"
)

const (
	breakerMaxRequests         = 1
	breakerInterval            = time.Minute
	breakerTimeout             = 30 * time.Second
	breakerConsecutiveFailures = 5
)

// newBreaker trips after consecutive provider failures.
// Unknown symbols are a valid answer and do not count against the provider.
func newBreaker(name string, metrics *telemetry.Metrics, log *logger.Logger) *gobreaker.CircuitBreaker {
	metrics.SetBreakerState(name, int(gobreaker.StateClosed))

	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: breakerMaxRequests,
		Interval:    breakerInterval,
		Timeout:     breakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerConsecutiveFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNotFound)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.SetBreakerState(name, int(to))
			log.WithFields(map[string]interface{}{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Circuit breaker state changed")
		},
	})
}
