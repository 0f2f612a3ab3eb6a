package nlu

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/capitalize-ai/support-chat/pkg/logger"
	"github.com/capitalize-ai/support-chat/pkg/metrics"
)

// Resilient bounds every call to the wrapped classifier and replaces any
// failure with the fallback classification. Its Parse never returns an error.
type Resilient struct {
	next     Classifier
	provider string
	timeout  time.Duration
	logger   *logger.Logger
}

// NewResilient wraps next. provider labels logs and metrics.
func NewResilient(next Classifier, provider string, timeout time.Duration, log *logger.Logger) *Resilient {
	return &Resilient{
		next:     next,
		provider: provider,
		timeout:  timeout,
		logger:   log,
	}
}

// Parse classifies text within the configured timeout.
func (r *Resilient) Parse(ctx context.Context, text string) (Classification, error) {
	start := time.Now()

	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cls, err := r.next.Parse(callCtx, text)
	if err != nil {
		outcome := "error"
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			outcome = "timeout"
		}
		metrics.RecordNLU(r.provider, outcome, time.Since(start).Seconds())
		r.logger.Warn("nlu classification failed, using fallback",
			zap.String("provider", r.provider),
			zap.String("outcome", outcome),
			zap.Error(err),
		)
		return Fallback(), nil
	}

	if cls.Intent == "" {
		cls.Intent = FallbackIntent
	}
	if cls.Entities == nil {
		cls.Entities = map[string]string{}
	}
	metrics.RecordNLU(r.provider, "ok", time.Since(start).Seconds())
	return cls, nil
}
