package etl

// Report is the terminal result of a run, shaped for machine consumption on
// stdout. Success runs populate duration, the per-stage record counts and
// the verification summary; failed runs populate stage, error_kind, message
// and duration_so_far instead, alongside whatever partial metrics the run
// gathered before it failed.
type Report struct {
	Status             string `json:"status"`
	RunID              string `json:"run_id"`
	ExtractionAttempts int    `json:"extraction_attempts"`
	RowsDropped        int    `json:"rows_dropped,omitempty"`
	Advisories         int    `json:"advisories,omitempty"`

	// Success fields.
	Duration           string              `json:"duration,omitempty"`
	RecordsExtracted   int                 `json:"records_extracted"`
	RecordsTransformed int                 `json:"records_transformed"`
	RecordsLoaded      int                 `json:"records_loaded"`
	Verification       *VerificationReport `json:"verification,omitempty"`

	// Failure fields.
	Stage         string `json:"stage,omitempty"`
	ErrorKind     string `json:"error_kind,omitempty"`
	Message       string `json:"message,omitempty"`
	DurationSoFar string `json:"duration_so_far,omitempty"`
}

func newSuccessReport(run *PipelineRun, verification *VerificationReport) *Report {
	return &Report{
		Status:             "success",
		RunID:              run.ID,
		ExtractionAttempts: run.Attempts,
		RowsDropped:        run.Dropped,
		Advisories:         run.Advisories,
		Duration:           run.Duration.String(),
		RecordsExtracted:   run.Extracted,
		RecordsTransformed: run.Transformed,
		RecordsLoaded:      run.Loaded,
		Verification:       verification,
	}
}

func newFailureReport(run *PipelineRun, failedAt Stage, err error) *Report {
	return &Report{
		Status:             "failure",
		RunID:              run.ID,
		ExtractionAttempts: run.Attempts,
		RowsDropped:        run.Dropped,
		Advisories:         run.Advisories,
		RecordsExtracted:   run.Extracted,
		RecordsTransformed: run.Transformed,
		RecordsLoaded:      run.Loaded,
		Stage:              string(failedAt),
		ErrorKind:          ErrorKind(err),
		Message:            err.Error(),
		DurationSoFar:      run.Duration.String(),
	}
}
