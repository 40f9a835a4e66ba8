// Package source holds the concrete extraction adapters. Each adapter
// implements etl.Source and only produces raw records; validation and
// derivation stay in the pipeline core.
package source

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/jperezg/etl-pipeline/internal/etl"
)

// Synthetic generates the reference demonstration batch: ids 1..Count,
// valor = id * 1.1, categoria cycling A, B, C. It backs demo runs when no
// external source is configured.
type Synthetic struct {
	Count int

	// FailFirst makes the first n Extract calls fail, exercising the
	// retry path of the extractor.
	FailFirst int

	calls int
}

func (s *Synthetic) Extract(ctx context.Context) ([]etl.RawRecord, error) {
	s.calls++
	if s.calls <= s.FailFirst {
		return nil, errors.Newf("synthetic source failure %d", s.calls)
	}

	count := s.Count
	if count <= 0 {
		count = 100
	}

	categorias := []string{"A", "B", "C"}
	batch := make([]etl.RawRecord, 0, count)
	for i := 1; i <= count; i++ {
		valor := float64(i) * 1.1
		categoria := categorias[(i-1)%len(categorias)]
		batch = append(batch, etl.RawRecord{
			ID:        int64(i),
			Valor:     &valor,
			Categoria: &categoria,
		})
	}
	return batch, nil
}
