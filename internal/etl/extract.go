package etl

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// Source supplies one batch of raw records. Any error it returns is treated
// as retryable; an empty batch with a nil error is a valid result and is
// never retried.
type Source interface {
	Extract(ctx context.Context) ([]RawRecord, error)
}

// RetryingExtractor wraps a Source with a bounded retry policy and a fixed
// delay between attempts.
type RetryingExtractor struct {
	source     Source
	maxRetries int
	retryDelay time.Duration
	log        *zap.SugaredLogger
}

func NewRetryingExtractor(source Source, maxRetries int, retryDelay time.Duration, log *zap.SugaredLogger) *RetryingExtractor {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &RetryingExtractor{
		source:     source,
		maxRetries: maxRetries,
		retryDelay: retryDelay,
		log:        log,
	}
}

// Extract attempts extraction up to maxRetries times, recording every attempt
// on the run. Once retries are exhausted the last underlying cause is
// returned marked ErrExtraction.
func (e *RetryingExtractor) Extract(ctx context.Context, run *PipelineRun) ([]RawRecord, error) {
	var lastErr error
	for attempt := 1; attempt <= e.maxRetries; attempt++ {
		run.Attempts = attempt
		e.log.Infow("extraction attempt", "attempt", attempt)

		batch, err := e.source.Extract(ctx)
		if err == nil {
			e.log.Infow("extraction succeeded", "attempt", attempt, "records", len(batch))
			return batch, nil
		}

		lastErr = err
		run.ErrorCount++
		e.log.Warnw("extraction attempt failed", "attempt", attempt, "error", err)

		if attempt == e.maxRetries {
			break
		}

		select {
		case <-ctx.Done():
			return nil, errors.Mark(ctx.Err(), ErrExtraction)
		case <-time.After(e.retryDelay):
		}
	}

	e.log.Errorw("extraction retries exhausted", "attempts", e.maxRetries, "error", lastErr)
	return nil, errors.Mark(errors.Wrapf(lastErr, "after %d attempts", e.maxRetries), ErrExtraction)
}
