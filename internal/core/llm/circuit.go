package llm

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	coreerrors "github.com/lueurxax/scholarfeed/internal/core/errors"
	"github.com/lueurxax/scholarfeed/internal/platform/observability"
)

const (
	defaultCircuitThreshold = 5
	defaultCircuitTimeout   = time.Minute
)

// circuitBreaker blocks calls for resetAfter once threshold consecutive
// transport failures have been recorded.
type circuitBreaker struct {
	threshold           int
	resetAfter          time.Duration
	consecutiveFailures int
	openUntil           time.Time
	mu                  sync.Mutex
	logger              *zerolog.Logger
	now                 func() time.Time
}

func newCircuitBreaker(threshold int, resetAfter time.Duration, logger *zerolog.Logger) *circuitBreaker {
	if threshold <= 0 {
		threshold = defaultCircuitThreshold
	}

	if resetAfter <= 0 {
		resetAfter = defaultCircuitTimeout
	}

	return &circuitBreaker{
		threshold:  threshold,
		resetAfter: resetAfter,
		logger:     logger,
		now:        time.Now,
	}
}

func (cb *circuitBreaker) check() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.now().Before(cb.openUntil) {
		return fmt.Errorf("%w until %v", coreerrors.ErrCircuitBreakerOpen, cb.openUntil)
	}

	return nil
}

func (cb *circuitBreaker) recordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.consecutiveFailures = 0
}

func (cb *circuitBreaker) recordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.consecutiveFailures++
	if cb.consecutiveFailures < cb.threshold {
		return
	}

	cb.openUntil = cb.now().Add(cb.resetAfter)
	cb.consecutiveFailures = 0

	observability.LLMCircuitBreakerOpens.Inc()

	if cb.logger != nil {
		cb.logger.Warn().
			Int("threshold", cb.threshold).
			Time("open_until", cb.openUntil).
			Msg("Circuit breaker opened")
	}
}
