package domain

// ReconcileResult summarises one historical reconciliation run.
// A non-empty Errors list is a partial failure: the run completed and a re-run retries exactly
// the records that still lack a linked movement.
type ReconcileResult struct {
	Created    int                    `json:"created"`
	Skipped    int                    `json:"skipped"`
	Errors     []string               `json:"errors"`
	Passes     []PassResult           `json:"passes"`
	Recomputed []BalanceRecomputation `json:"recomputed"`
}

// PassResult is the outcome of one backfill pass.
type PassResult struct {
	Pass    string `json:"pass"`
	Scanned int    `json:"scanned"`
	Created int    `json:"created"`
	Skipped int    `json:"skipped"`
	Failed  int    `json:"failed"`
}

// PartialFailure reports whether at least one record could not be reconciled.
func (r ReconcileResult) PartialFailure() bool {
	return len(r.Errors) > 0
}
