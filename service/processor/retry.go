package processor

import (
	"math"
	"time"

	"github.com/viant/homeservice/runtime/execution"
	"github.com/viant/homeservice/runtime/workflow"
)

// shouldRetry returns (retry?, delay) after attempts failed with err.
func (s *Service) shouldRetry(cfg *workflow.Retry, attempts int, err error) (bool, time.Duration) {
	if cfg == nil || err == nil {
		return false, 0
	}
	if _, ok := execution.AsSuspension(err); ok {
		return false, 0
	}
	if cfg.Retryable != nil && !cfg.Retryable(err) {
		return false, 0
	}
	max := cfg.MaxRetries
	if max == 0 {
		max = s.config.MaxStepRetries
	}
	if attempts > max {
		return false, 0
	}

	baseDelay := cfg.Delay
	if baseDelay == 0 {
		baseDelay = s.config.RetryDelay
	}
	if cfg.Multiplier <= 1 {
		return true, baseDelay
	}
	delay := time.Duration(float64(baseDelay) * math.Pow(cfg.Multiplier, float64(attempts-1)))
	if cfg.MaxDelay > 0 && delay > cfg.MaxDelay {
		delay = cfg.MaxDelay
	}
	return true, delay
}
