package etl

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// referenceSource reproduces the demonstration batch: ids 1..100,
// valor = id * 1.1, categoria cycling A, B, C. failures makes the first N
// calls fail.
type referenceSource struct {
	failures int
	calls    int
}

func (s *referenceSource) Extract(ctx context.Context) ([]RawRecord, error) {
	s.calls++
	if s.calls <= s.failures {
		return nil, errors.Newf("upstream unavailable (call %d)", s.calls)
	}
	categorias := []string{"A", "B", "C"}
	batch := make([]RawRecord, 0, 100)
	for i := 1; i <= 100; i++ {
		valor := float64(i) * 1.1
		categoria := categorias[(i-1)%3]
		batch = append(batch, RawRecord{ID: int64(i), Valor: &valor, Categoria: &categoria})
	}
	return batch, nil
}

func newTestPipeline(t *testing.T, src Source, allowEmpty bool) (*Pipeline, *sql.DB) {
	t.Helper()
	db := newTestSink(t)
	log := testLogger()

	loader := NewLoader(db, testTable, log)
	require.NoError(t, loader.EnsureSchema(context.Background()))

	p := New(
		NewRetryingExtractor(src, 3, time.Millisecond, log),
		NewTransformer(allowEmpty, nil, log),
		loader,
		NewVerifier(db, testTable, 5, log),
		log,
	)
	return p, db
}

func TestPipelineEndToEnd(t *testing.T) {
	p, db := newTestPipeline(t, &referenceSource{}, false)

	report, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "success", report.Status)
	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, 1, report.ExtractionAttempts)
	assert.Equal(t, 100, report.RecordsExtracted)
	assert.Equal(t, 100, report.RecordsTransformed)
	assert.Equal(t, 100, report.RecordsLoaded)
	assert.NotEmpty(t, report.Duration)
	assert.Empty(t, report.Stage)

	require.NotNil(t, report.Verification)
	assert.Equal(t, 100, report.Verification.Total)
	require.Len(t, report.Verification.Sample, 5)
	assert.Equal(t, int64(1), report.Verification.Sample[0].ID)

	require.Len(t, report.Verification.ByCategory, 3)
	byName := map[string]CategorySummary{}
	for _, s := range report.Verification.ByCategory {
		byName[s.Categoria] = s
	}

	// Category A holds ids 1, 4, ..., 100: 34 rows with mean id 50.5.
	a := byName["A"]
	assert.Equal(t, 34, a.Count)
	assert.InDelta(t, 50.5*1.1, a.MeanValor, 1e-9)
	assert.Equal(t, 33, byName["B"].Count)
	assert.Equal(t, 33, byName["C"].Count)

	var stored int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM "+testTable).Scan(&stored))
	assert.Equal(t, 100, stored)
}

func TestPipelineRecoversFromTransientExtractionFailures(t *testing.T) {
	src := &referenceSource{failures: 2}
	p, _ := newTestPipeline(t, src, false)

	report, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "success", report.Status)
	assert.Equal(t, 3, report.ExtractionAttempts)
	assert.Equal(t, 3, src.calls)
}

func TestPipelineFailsWhenExtractionExhaustsRetries(t *testing.T) {
	// Pre-seed the sink so we can show the failed run never touched it.
	seedLoader, db := newTestLoader(t)
	seeded := []CleanRecord{
		{ID: 42, Valor: 1, Categoria: "a", ValorCuadrado: 1, CategoriaNormalizada: "A"},
	}
	_, err := seedLoader.Load(context.Background(), seeded)
	require.NoError(t, err)

	src := &referenceSource{failures: 100}
	log := testLogger()
	p := New(
		NewRetryingExtractor(src, 3, time.Millisecond, log),
		NewTransformer(false, nil, log),
		NewLoader(db, testTable, log),
		NewVerifier(db, testTable, 5, log),
		log,
	)

	report, err := p.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrExtraction))

	assert.Equal(t, "failure", report.Status)
	assert.Equal(t, string(StageExtracting), report.Stage)
	assert.Equal(t, "ExtractionError", report.ErrorKind)
	assert.Equal(t, 3, report.ExtractionAttempts)
	assert.NotEmpty(t, report.Message)
	assert.NotEmpty(t, report.DurationSoFar)
	assert.Equal(t, 3, src.calls)

	// Sink unchanged from before the run.
	var id int64
	require.NoError(t, db.QueryRow("SELECT id FROM "+testTable).Scan(&id))
	assert.Equal(t, int64(42), id)
}

func TestPipelineFailsOnUnusableBatch(t *testing.T) {
	src := &stubSource{batch: []RawRecord{
		{ID: 1, Valor: nil, Categoria: sptr("a")},
		{ID: 2, Valor: fptr(1), Categoria: nil},
	}}
	p, db := newTestPipeline(t, src, false)

	report, err := p.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))

	assert.Equal(t, "failure", report.Status)
	assert.Equal(t, string(StageTransforming), report.Stage)
	assert.Equal(t, "ValidationError", report.ErrorKind)
	assert.Equal(t, 2, report.RecordsExtracted)
	assert.Equal(t, 2, report.RowsDropped)

	assert.Zero(t, countRows(t, db))
}

func TestPipelineEmptyBatchProceedsWhenAllowed(t *testing.T) {
	p, db := newTestPipeline(t, &stubSource{}, true)

	report, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "success", report.Status)
	assert.Zero(t, report.RecordsExtracted)
	assert.Zero(t, report.RecordsLoaded)
	require.NotNil(t, report.Verification)
	assert.Zero(t, report.Verification.Total)
	assert.Zero(t, countRows(t, db))
}
