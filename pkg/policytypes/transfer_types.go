// Package policytypes defines the shared data types for PolicyLens.
// This file contains the result types reported by bulk file operations.
package policytypes

// TransferItemResult records the outcome of one item in a bulk download.
type TransferItemResult struct {
	Path string `json:"path"`
	Err  error  `json:"-"`
}

// TransferReport aggregates a bulk operation: per-item outcomes for
// downloads, counts, and the user-facing message (server-provided summary or
// a generic fallback).
type TransferReport struct {
	Succeeded int                  `json:"succeeded"`
	Failed    int                  `json:"failed"`
	Message   string               `json:"message"`
	Items     []TransferItemResult `json:"items,omitempty"`
}

// AllSucceeded reports whether every item of the operation completed.
func (r TransferReport) AllSucceeded() bool {
	return r.Failed == 0
}

// BatchAnalysisReport is the aggregate returned by triggering a batch
// analysis run on the backend.
type BatchAnalysisReport struct {
	Success      bool   `json:"success"`
	SuccessCount int    `json:"successCount"`
	FailedCount  int    `json:"failedCount"`
	Message      string `json:"message"`
}

// AnalysisStatus is the backend's last-run analysis status.
type AnalysisStatus string

// Analysis run states reported by the backend status endpoint.
const (
	AnalysisSucceeded     AnalysisStatus = "success"
	AnalysisSessionFailed AnalysisStatus = "session_failed"
	AnalysisPending       AnalysisStatus = "pending"
)
