package etl

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubSource fails its first N calls and then returns its batch.
type stubSource struct {
	failures int
	calls    int
	batch    []RawRecord
}

func (s *stubSource) Extract(ctx context.Context) ([]RawRecord, error) {
	s.calls++
	if s.calls <= s.failures {
		return nil, errors.Newf("source down (call %d)", s.calls)
	}
	return s.batch, nil
}

func TestExtractFirstAttemptSucceeds(t *testing.T) {
	src := &stubSource{batch: []RawRecord{{ID: 1, Valor: fptr(1), Categoria: sptr("a")}}}
	ex := NewRetryingExtractor(src, 3, time.Millisecond, testLogger())
	run := &PipelineRun{}

	batch, err := ex.Extract(context.Background(), run)
	require.NoError(t, err)
	assert.Len(t, batch, 1)
	assert.Equal(t, 1, run.Attempts)
	assert.Zero(t, run.Retries())
	assert.Zero(t, run.ErrorCount)
}

func TestExtractSucceedsAfterRetries(t *testing.T) {
	src := &stubSource{failures: 2, batch: []RawRecord{{ID: 1, Valor: fptr(1), Categoria: sptr("a")}}}
	ex := NewRetryingExtractor(src, 3, time.Millisecond, testLogger())
	run := &PipelineRun{}

	batch, err := ex.Extract(context.Background(), run)
	require.NoError(t, err)
	assert.Len(t, batch, 1)
	assert.Equal(t, 3, src.calls)
	assert.Equal(t, 3, run.Attempts)
	assert.Equal(t, 2, run.Retries())
	assert.Equal(t, 2, run.ErrorCount)
}

func TestExtractExhaustsRetries(t *testing.T) {
	src := &stubSource{failures: 10}
	ex := NewRetryingExtractor(src, 3, time.Millisecond, testLogger())
	run := &PipelineRun{}

	_, err := ex.Extract(context.Background(), run)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrExtraction))
	assert.Equal(t, 3, src.calls)
	assert.Equal(t, 3, run.Attempts)
	assert.Contains(t, err.Error(), "after 3 attempts")
}

func TestExtractEmptyBatchIsNotRetried(t *testing.T) {
	src := &stubSource{}
	ex := NewRetryingExtractor(src, 3, time.Millisecond, testLogger())
	run := &PipelineRun{}

	batch, err := ex.Extract(context.Background(), run)
	require.NoError(t, err)
	assert.Empty(t, batch)
	assert.Equal(t, 1, src.calls)
}

func TestExtractStopsWhenContextCancelled(t *testing.T) {
	src := &stubSource{failures: 10}
	ex := NewRetryingExtractor(src, 3, time.Hour, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ex.Extract(ctx, &PipelineRun{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrExtraction))
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 1, src.calls)
}
