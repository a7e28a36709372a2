// Package policytypes defines core interfaces for PolicyLens.
// This file contains the boundary contracts the engine consumes: the chat
// transport, the file operation client, and the client-side file saver. The
// HTTP backend, the upstream AI agent, and file storage all live behind
// these interfaces.
package policytypes

import "context"

// Transport is the single logical request/response boundary to the upstream
// analysis agent. Implementations must observe ctx: user cancellation and
// deadline expiry must abort the in-flight call, and the returned error must
// remain distinguishable via context.Canceled / context.DeadlineExceeded.
type Transport interface {
	SubmitChatQuery(ctx context.Context, message string) (string, error)
}

// FileClient is the boundary for file listing and bulk file operations.
type FileClient interface {
	// ListFiles returns the ordered folder groups of the named listing,
	// with bare file names per group as the backend serves them.
	ListFiles(ctx context.Context, kind FileKind) ([]DocumentGroup, error)
	// FetchFileContent fetches a single file for download.
	FetchFileContent(ctx context.Context, kind FileKind, path string) (fileName, content string, err error)
	// DeleteFiles deletes the given paths in one batched request. The actor
	// is the requesting user; the backend enforces its own permission check.
	DeleteFiles(ctx context.Context, kind FileKind, paths []string, actor string) (message string, err error)
}

// AnalysisClient is the boundary for the backend's analysis pipeline.
type AnalysisClient interface {
	TriggerBatchAnalysis(ctx context.Context) (BatchAnalysisReport, error)
	GetAnalysisStatus(ctx context.Context) (AnalysisStatus, error)
	// SaveAnalysis persists a recognized analysis report server-side. Called
	// fire-and-forget from the chat flow; failures must not affect chat.
	SaveAnalysis(ctx context.Context, docName, reportText string) (path string, err error)
}

// FileSaver accepts a fetched file and triggers a client-side save.
// No return value is consumed by callers.
type FileSaver interface {
	Save(fileName, content string)
}

// TestModeProvider reports whether deterministic test mode is active.
// The deterministic generators in internal/testutils key off this flag.
type TestModeProvider interface {
	IsTestMode() bool
}
