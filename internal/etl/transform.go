package etl

import (
	"math"
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// ValuePolicy inspects a surviving record and reports whether it deserves an
// advisory warning. Advisories are logged and counted but never abort the
// run. A nil policy disables the check.
type ValuePolicy func(rec CleanRecord) bool

// ThresholdPolicy warns when the absolute value of valor exceeds limit.
// A limit of zero or less disables the check.
func ThresholdPolicy(limit float64) ValuePolicy {
	if limit <= 0 {
		return nil
	}
	return func(rec CleanRecord) bool {
		return math.Abs(rec.Valor) > limit
	}
}

// maxDropNotices caps the per-row dropped notices logged for one batch so a
// pathological batch does not flood the log. The batch-level summary always
// carries the full count.
const maxDropNotices = 10

// Transformer applies structural validation and the deterministic field
// derivations to a raw batch.
type Transformer struct {
	allowEmpty bool
	policy     ValuePolicy
	log        *zap.SugaredLogger
}

func NewTransformer(allowEmpty bool, policy ValuePolicy, log *zap.SugaredLogger) *Transformer {
	return &Transformer{
		allowEmpty: allowEmpty,
		policy:     policy,
		log:        log,
	}
}

// Transform validates every row and derives valor_cuadrado and
// categoria_normalizada for the survivors. Rows with a null valor, a null
// categoria or a non-finite valor are dropped and counted. The filter is
// stable: surviving rows keep their relative order. The input slice is never
// mutated and the output is always a fresh slice, so the same raw batch
// always yields the same clean batch.
func (t *Transformer) Transform(raw []RawRecord, run *PipelineRun) ([]CleanRecord, error) {
	if len(raw) == 0 {
		if t.allowEmpty {
			t.log.Infow("empty batch accepted", "reason", "allow_empty_batch enabled")
			return []CleanRecord{}, nil
		}
		return nil, errors.Mark(errors.New("extracted batch is empty"), ErrValidation)
	}

	clean := make([]CleanRecord, 0, len(raw))
	dropped := 0

	for _, r := range raw {
		if reason := invalidReason(r); reason != "" {
			dropped++
			if dropped <= maxDropNotices {
				t.log.Warnw("row dropped", "id", r.ID, "reason", reason)
			}
			continue
		}

		v := *r.Valor
		rec := CleanRecord{
			ID:                   r.ID,
			Valor:                v,
			Categoria:            *r.Categoria,
			ValorCuadrado:        v * v,
			CategoriaNormalizada: strings.ToUpper(strings.TrimSpace(*r.Categoria)),
		}

		if t.policy != nil && t.policy(rec) {
			run.Advisories++
			t.log.Warnw("value exceeds advisory threshold", "id", rec.ID, "valor", rec.Valor)
		}

		clean = append(clean, rec)
	}

	if dropped > 0 {
		run.Dropped += dropped
		run.ErrorCount += dropped
		t.log.Warnw("rows dropped during cleaning", "dropped", dropped, "input", len(raw))
	}

	if len(clean) == 0 {
		return nil, errors.Mark(
			errors.Newf("all %d rows dropped during cleaning", len(raw)), ErrValidation)
	}

	t.log.Infow("transformation complete", "input", len(raw), "output", len(clean))
	return clean, nil
}

// invalidReason reports why a raw row must be dropped, or "" if it is valid.
func invalidReason(r RawRecord) string {
	switch {
	case r.Valor == nil:
		return "null valor"
	case r.Categoria == nil:
		return "null categoria"
	case math.IsNaN(*r.Valor) || math.IsInf(*r.Valor, 0):
		return "non-finite valor"
	default:
		return ""
	}
}
