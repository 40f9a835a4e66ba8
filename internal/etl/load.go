package etl

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// Loader replaces the contents of the sink table with a clean batch as a
// single all-or-nothing transaction. Re-running Load with the same batch
// after a rolled-back attempt yields the same end state as one successful
// call.
type Loader struct {
	db    *sql.DB
	table string
	log   *zap.SugaredLogger
}

func NewLoader(db *sql.DB, table string, log *zap.SugaredLogger) *Loader {
	return &Loader{db: db, table: table, log: log}
}

// EnsureSchema creates the target table when it is missing. It runs outside
// the load transaction so a failed load never touches the schema.
func (l *Loader) EnsureSchema(ctx context.Context) error {
	_, err := l.db.ExecContext(ctx, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id INTEGER PRIMARY KEY,
		valor REAL,
		categoria TEXT,
		valor_cuadrado REAL,
		categoria_normalizada TEXT
	)`, l.table))
	if err != nil {
		return fmt.Errorf("error creating sink table %s: %w", l.table, err)
	}
	return nil
}

// Load clears the table and inserts every row of batch inside one
// transaction, committing only if every insert succeeds. On any failure the
// transaction is rolled back, the sink is left exactly as it was before the
// call, and the error is marked ErrLoad carrying the partial-progress count.
func (l *Loader) Load(ctx context.Context, batch []CleanRecord) (int, error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, errors.Mark(errors.Wrap(err, "begin load transaction"), ErrLoad)
	}

	if _, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s", l.table)); err != nil {
		_ = tx.Rollback()
		return 0, errors.Mark(errors.Wrap(err, "clear target table"), ErrLoad)
	}
	l.log.Infow("target table cleared for load", "table", l.table)

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
		"INSERT INTO %s (id, valor, categoria, valor_cuadrado, categoria_normalizada) VALUES (?, ?, ?, ?, ?)",
		l.table))
	if err != nil {
		_ = tx.Rollback()
		return 0, errors.Mark(errors.Wrap(err, "prepare insert"), ErrLoad)
	}
	defer stmt.Close()

	inserted := 0
	for _, rec := range batch {
		if _, err := stmt.ExecContext(ctx,
			rec.ID, rec.Valor, rec.Categoria, rec.ValorCuadrado, rec.CategoriaNormalizada); err != nil {
			_ = tx.Rollback()
			l.log.Errorw("load rolled back", "failed_id", rec.ID, "inserted_before_failure", inserted, "error", err)
			return 0, errors.Mark(
				errors.Wrapf(err, "insert id=%d after %d rows", rec.ID, inserted), ErrLoad)
		}
		inserted++
	}

	if err := tx.Commit(); err != nil {
		return 0, errors.Mark(errors.Wrap(err, "commit load transaction"), ErrLoad)
	}

	l.log.Infow("load committed", "table", l.table, "records", inserted)
	return inserted, nil
}
