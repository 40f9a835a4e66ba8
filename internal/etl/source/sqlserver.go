package source

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/cockroachdb/errors"

	"github.com/jperezg/etl-pipeline/internal/etl"
)

// SQLServer extracts the batch from a SQL Server source table holding
// id, valor and categoria columns. Rows come back ordered by id so repeated
// extractions of the same table yield the same batch.
type SQLServer struct {
	DB    *sql.DB
	Table string
}

func (s *SQLServer) Extract(ctx context.Context) ([]etl.RawRecord, error) {
	query := fmt.Sprintf("SELECT id, valor, categoria FROM %s ORDER BY id", s.Table)
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.Wrapf(err, "query source table %s", s.Table)
	}
	defer rows.Close()

	var batch []etl.RawRecord
	for rows.Next() {
		var (
			id        int64
			valor     sql.NullFloat64
			categoria sql.NullString
		)
		if err := rows.Scan(&id, &valor, &categoria); err != nil {
			return nil, errors.Wrap(err, "scan source row")
		}

		rec := etl.RawRecord{ID: id}
		if valor.Valid {
			v := valor.Float64
			rec.Valor = &v
		}
		if categoria.Valid {
			c := categoria.String
			rec.Categoria = &c
		}
		batch = append(batch, rec)
	}
	return batch, errors.Wrap(rows.Err(), "iterate source rows")
}
