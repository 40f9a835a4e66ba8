package etl

import "github.com/cockroachdb/errors"

// Fatal error kinds. Each one aborts the run. Stage boundaries attach the
// kind with errors.Mark so the orchestrator, the sole catcher, can map any
// cause chain back to a report entry with errors.Is.
var (
	// ErrExtraction means every extraction attempt failed.
	ErrExtraction = errors.New("extraction failed")

	// ErrValidation means the batch was unusable after cleaning.
	ErrValidation = errors.New("batch unusable after cleaning")

	// ErrLoad means the transactional write failed. The sink has been rolled
	// back to its pre-call state before this kind propagates.
	ErrLoad = errors.New("transactional load failed")

	// ErrVerification means the post-load check could not execute. The load
	// has already committed; the data may be correct but is unverified.
	ErrVerification = errors.New("post-load verification could not execute")

	// ErrVerificationMismatch means the post-load check ran and the stored
	// count disagrees with the expected count.
	ErrVerificationMismatch = errors.New("post-load verification mismatch")
)

// ErrorKind names the fatal kind of err for the failure report.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, ErrExtraction):
		return "ExtractionError"
	case errors.Is(err, ErrValidation):
		return "ValidationError"
	case errors.Is(err, ErrLoad):
		return "LoadError"
	case errors.Is(err, ErrVerificationMismatch):
		return "VerificationMismatch"
	case errors.Is(err, ErrVerification):
		return "VerificationError"
	default:
		return "UnknownError"
	}
}
