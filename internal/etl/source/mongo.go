package source

import (
	"context"
	"math"

	"github.com/cockroachdb/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/jperezg/etl-pipeline/internal/etl"
	"github.com/jperezg/etl-pipeline/pkg/utils"
)

// Mongo extracts the batch from a MongoDB source collection whose documents
// carry id, valor and categoria fields. Documents are sorted by id for a
// deterministic batch order.
type Mongo struct {
	Client     *mongo.Client
	Database   string
	Collection string
}

func (m *Mongo) Extract(ctx context.Context) ([]etl.RawRecord, error) {
	coll := m.Client.Database(m.Database).Collection(m.Collection)

	findOpts := options.Find().SetSort(bson.M{"id": 1})
	cursor, err := coll.Find(ctx, bson.M{}, findOpts)
	if err != nil {
		return nil, errors.Wrapf(err, "query source collection %s", m.Collection)
	}
	defer cursor.Close(ctx)

	var batch []etl.RawRecord
	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			return nil, errors.Wrap(err, "decode source document")
		}
		rec, err := recordFromDocument(doc)
		if err != nil {
			return nil, err
		}
		batch = append(batch, rec)
	}
	return batch, errors.Wrap(cursor.Err(), "iterate source cursor")
}

// recordFromDocument coerces the loosely typed document values into a raw
// record. Missing or null fields become NULLs; a non-numeric valor becomes
// NaN so the transformer drops the row under its normal policy.
func recordFromDocument(doc bson.M) (etl.RawRecord, error) {
	id, err := utils.ToInt64(doc["id"])
	if err != nil {
		return etl.RawRecord{}, errors.Wrap(err, "source document missing usable id")
	}

	rec := etl.RawRecord{ID: id}
	if raw, ok := doc["valor"]; ok && raw != nil {
		v, err := utils.ToFloat(raw)
		if err != nil {
			v = math.NaN()
		}
		rec.Valor = &v
	}
	if raw, ok := doc["categoria"]; ok && raw != nil {
		c := utils.ToString(raw)
		rec.Categoria = &c
	}
	return rec, nil
}
