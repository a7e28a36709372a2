// Package policytypes defines the shared data types for PolicyLens.
// This file contains the typed intents the UI layer emits and the events the
// engine emits back. Components stay free of rendering concerns; the UI
// translates DOM/terminal input into intents and renders events.
package policytypes

// Intent is a typed user action consumed by the assistant orchestrator.
type Intent interface{ intent() }

// UserSentMessage asks the assistant to submit a chat query.
type UserSentMessage struct {
	Text string
}

// StopRequested cancels the outstanding chat request, if any.
type StopRequested struct{}

// NewChatRequested starts a fresh session and makes it current.
type NewChatRequested struct{}

// SessionSelected loads an existing session and makes it current.
type SessionSelected struct {
	SessionID string
}

// SessionDeleted removes a session from history.
type SessionDeleted struct {
	SessionID string
}

// FileToggled flips one file's membership in a listing's selection.
type FileToggled struct {
	Kind FileKind
	Path string
}

// FolderToggled drives every listed file of a folder to the target state.
type FolderToggled struct {
	Kind    FileKind
	Folder  string
	Paths   []string
	Checked bool
}

// ToggleAllRequested applies the target state to the full rendered path set.
type ToggleAllRequested struct {
	Kind    FileKind
	Paths   []string
	Checked bool
}

// BulkDownloadRequested downloads the current selection, sequentially.
type BulkDownloadRequested struct {
	Kind FileKind
}

// BulkDeleteRequested deletes the current selection in one batched request.
type BulkDeleteRequested struct {
	Kind FileKind
}

// BatchAnalysisRequested triggers a server-side batch analysis run.
type BatchAnalysisRequested struct{}

func (UserSentMessage) intent()        {}
func (StopRequested) intent()          {}
func (NewChatRequested) intent()       {}
func (SessionSelected) intent()        {}
func (SessionDeleted) intent()         {}
func (FileToggled) intent()            {}
func (FolderToggled) intent()          {}
func (ToggleAllRequested) intent()     {}
func (BulkDownloadRequested) intent()  {}
func (BulkDeleteRequested) intent()    {}
func (BatchAnalysisRequested) intent() {}

// Event is a state-change notification emitted by the engine for the UI.
type Event interface{ event() }

// MessageAppended reports a new chat message in the current session.
type MessageAppended struct {
	SessionID string
	Message   Message
}

// RequestStateChanged reports a chat request lifecycle transition.
type RequestStateChanged struct {
	Outcome RequestOutcome
}

// AnalysisExtracted reports a typed analysis record recognized in an
// assistant reply.
type AnalysisExtracted struct {
	SessionID string
	Result    AnalysisResult
}

// SelectionChanged reports a selection mutation on a listing surface.
type SelectionChanged struct {
	Kind     FileKind
	Selected int
}

// ListingReloaded reports a fresh file listing (selection was cleared).
type ListingReloaded struct {
	Kind   FileKind
	Groups []DocumentGroup
}

// TransferCompleted reports the aggregate outcome of a bulk operation.
type TransferCompleted struct {
	Kind   FileKind
	Report TransferReport
}

// ConnectivityChanged reports a probe transition.
type ConnectivityChanged struct {
	Connected bool
}

// NotificationRaised carries a user-facing informational message.
type NotificationRaised struct {
	Level   string // "info", "success", "warning", "error"
	Message string
}

func (MessageAppended) event()     {}
func (RequestStateChanged) event() {}
func (AnalysisExtracted) event()   {}
func (SelectionChanged) event()    {}
func (ListingReloaded) event()     {}
func (TransferCompleted) event()   {}
func (ConnectivityChanged) event() {}
func (NotificationRaised) event()  {}
