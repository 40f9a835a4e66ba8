// Package etl implements the pipeline core: a retrying extractor, a
// validating transformer, a transactional loader, a post-load verifier and
// the orchestrator that sequences them over a single batch.
package etl

// RawRecord is one extracted row before cleaning. Nil pointers model NULLs
// coming from the source; the transformer decides what to do with them.
type RawRecord struct {
	ID        int64
	Valor     *float64
	Categoria *string
}

// CleanRecord is a validated row with its derived fields, ready for loading.
type CleanRecord struct {
	ID                   int64   `json:"id"`
	Valor                float64 `json:"valor"`
	Categoria            string  `json:"categoria"`
	ValorCuadrado        float64 `json:"valor_cuadrado"`
	CategoriaNormalizada string  `json:"categoria_normalizada"`
}
