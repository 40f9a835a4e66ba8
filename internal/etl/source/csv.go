package source

import (
	"context"
	"encoding/csv"
	"io"
	"math"
	"os"

	"github.com/cockroachdb/errors"

	"github.com/jperezg/etl-pipeline/internal/etl"
	"github.com/jperezg/etl-pipeline/pkg/utils"
)

// CSV extracts the batch from a local CSV file with an id,valor,categoria
// header. Empty cells become NULLs; a non-numeric valor cell becomes NaN so
// the transformer drops the row under its normal policy instead of the whole
// extraction failing.
type CSV struct {
	Path string
}

func (c *CSV) Extract(ctx context.Context) ([]etl.RawRecord, error) {
	f, err := os.Open(c.Path)
	if err != nil {
		return nil, errors.Wrapf(err, "open CSV source %s", c.Path)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return nil, errors.Wrap(err, "read CSV header")
	}
	idx, err := columnIndexes(header)
	if err != nil {
		return nil, err
	}

	var batch []etl.RawRecord
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		row, err := reader.Read()
		if err == io.EOF {
			return batch, nil
		}
		if err != nil {
			return nil, errors.Wrap(err, "read CSV row")
		}

		id, err := utils.ToInt64(row[idx.id])
		if err != nil {
			return nil, errors.Wrapf(err, "CSV row %d: bad id", len(batch)+1)
		}

		rec := etl.RawRecord{ID: id}
		if cell := row[idx.valor]; cell != "" {
			v, err := utils.ToFloat(cell)
			if err != nil {
				v = math.NaN()
			}
			rec.Valor = &v
		}
		if cell := row[idx.categoria]; cell != "" {
			rec.Categoria = &cell
		}
		batch = append(batch, rec)
	}
}

type csvColumns struct {
	id, valor, categoria int
}

func columnIndexes(header []string) (csvColumns, error) {
	idx := csvColumns{id: -1, valor: -1, categoria: -1}
	for i, name := range header {
		switch name {
		case "id":
			idx.id = i
		case "valor":
			idx.valor = i
		case "categoria":
			idx.categoria = i
		}
	}
	if idx.id < 0 || idx.valor < 0 || idx.categoria < 0 {
		return idx, errors.Newf("CSV header %v missing one of id, valor, categoria", header)
	}
	return idx, nil
}
