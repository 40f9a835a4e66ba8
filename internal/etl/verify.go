package etl

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// VerificationReport summarizes the sink state observed after a load.
type VerificationReport struct {
	Total      int               `json:"total"`
	Sample     []CleanRecord     `json:"sample"`
	ByCategory []CategorySummary `json:"by_category"`
}

// CategorySummary is one row of the per-category aggregate.
type CategorySummary struct {
	Categoria         string  `json:"categoria"`
	Count             int     `json:"count"`
	MeanValor         float64 `json:"mean_valor"`
	MeanValorCuadrado float64 `json:"mean_valor_cuadrado"`
}

// Verifier re-reads the sink after a load and checks the stored row count
// against the count the loader reported. It never mutates the sink.
type Verifier struct {
	db     *sql.DB
	table  string
	sample int
	log    *zap.SugaredLogger
}

func NewVerifier(db *sql.DB, table string, sampleSize int, log *zap.SugaredLogger) *Verifier {
	if sampleSize <= 0 {
		sampleSize = 5
	}
	return &Verifier{db: db, table: table, sample: sampleSize, log: log}
}

// Verify reads back the row count, a small sample and the per-category
// aggregates. A read failure is marked ErrVerification; a count that
// disagrees with expected is marked ErrVerificationMismatch, so callers can
// tell "couldn't check" from "checked and it's wrong".
func (v *Verifier) Verify(ctx context.Context, expected int) (*VerificationReport, error) {
	var total int
	err := v.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT COUNT(*) FROM %s", v.table)).Scan(&total)
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "count stored rows"), ErrVerification)
	}

	if total != expected {
		v.log.Errorw("stored row count diverges", "stored", total, "expected", expected)
		return nil, errors.Mark(
			errors.Newf("sink holds %d rows, expected %d", total, expected), ErrVerificationMismatch)
	}

	report := &VerificationReport{Total: total}

	if err := v.readSample(ctx, report); err != nil {
		return nil, errors.Mark(err, ErrVerification)
	}
	if err := v.readAggregates(ctx, report); err != nil {
		return nil, errors.Mark(err, ErrVerification)
	}

	v.log.Infow("verification complete",
		"total", report.Total, "sample", len(report.Sample), "categories", len(report.ByCategory))
	return report, nil
}

func (v *Verifier) readSample(ctx context.Context, report *VerificationReport) error {
	rows, err := v.db.QueryContext(ctx, fmt.Sprintf(
		"SELECT id, valor, categoria, valor_cuadrado, categoria_normalizada FROM %s ORDER BY id LIMIT ?",
		v.table), v.sample)
	if err != nil {
		return errors.Wrap(err, "read sample rows")
	}
	defer rows.Close()

	for rows.Next() {
		var rec CleanRecord
		if err := rows.Scan(&rec.ID, &rec.Valor, &rec.Categoria, &rec.ValorCuadrado, &rec.CategoriaNormalizada); err != nil {
			return errors.Wrap(err, "scan sample row")
		}
		report.Sample = append(report.Sample, rec)
	}
	return errors.Wrap(rows.Err(), "iterate sample rows")
}

func (v *Verifier) readAggregates(ctx context.Context, report *VerificationReport) error {
	rows, err := v.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT categoria_normalizada, COUNT(*), AVG(valor), AVG(valor_cuadrado)
		FROM %s
		GROUP BY categoria_normalizada
		ORDER BY categoria_normalizada`, v.table))
	if err != nil {
		return errors.Wrap(err, "read category aggregates")
	}
	defer rows.Close()

	for rows.Next() {
		var s CategorySummary
		if err := rows.Scan(&s.Categoria, &s.Count, &s.MeanValor, &s.MeanValorCuadrado); err != nil {
			return errors.Wrap(err, "scan category aggregate")
		}
		report.ByCategory = append(report.ByCategory, s)
	}
	return errors.Wrap(rows.Err(), "iterate category aggregates")
}
