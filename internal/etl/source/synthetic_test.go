package source

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyntheticGeneratesReferenceBatch(t *testing.T) {
	src := &Synthetic{}

	batch, err := src.Extract(context.Background())
	require.NoError(t, err)
	require.Len(t, batch, 100)

	first := batch[0]
	assert.Equal(t, int64(1), first.ID)
	require.NotNil(t, first.Valor)
	assert.InDelta(t, 1.1, *first.Valor, 1e-9)
	require.NotNil(t, first.Categoria)
	assert.Equal(t, "A", *first.Categoria)

	// Categoria cycles A, B, C.
	assert.Equal(t, "B", *batch[1].Categoria)
	assert.Equal(t, "C", *batch[2].Categoria)
	assert.Equal(t, "A", *batch[3].Categoria)

	last := batch[99]
	assert.Equal(t, int64(100), last.ID)
	assert.InDelta(t, 110.0, *last.Valor, 1e-9)
}

func TestSyntheticFailsFirstCalls(t *testing.T) {
	src := &Synthetic{Count: 10, FailFirst: 2}
	ctx := context.Background()

	_, err := src.Extract(ctx)
	require.Error(t, err)
	_, err = src.Extract(ctx)
	require.Error(t, err)

	batch, err := src.Extract(ctx)
	require.NoError(t, err)
	assert.Len(t, batch, 10)
}
