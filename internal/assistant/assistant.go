// Package assistant wires the chat, session, selection, and transfer
// components into one orchestrator. The UI layer hands it typed intents;
// it mutates component state and emits typed events back through a sink.
// Rendering never happens here.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"policylens/internal/extract"
	"policylens/internal/logger"
	"policylens/internal/request"
	"policylens/internal/selection"
	"policylens/internal/session"
	"policylens/internal/testutils"
	"policylens/internal/transfer"
	"policylens/pkg/policytypes"
)

// Notices appended to the chat transcript for non-success outcomes.
const (
	CancelNotice  = "已停止生成。"
	TimeoutNotice = "请求超时（60秒）。请检查后端服务是否正常运行，或稍后重试。"
	failurePrefix = "抱歉，连接失败。请检查后端服务是否运行。错误: "
)

// saveAnalysisTimeout bounds the fire-and-forget report save.
const saveAnalysisTimeout = 15 * time.Second

// ErrEmptyMessage rejects blank chat input.
var ErrEmptyMessage = errors.New("message is empty")

// ErrEmptySelection rejects bulk operations with nothing selected.
var ErrEmptySelection = errors.New("no files selected")

// Sink receives the events the assistant emits. Called from the intent
// handler's goroutine or from the request completion goroutine.
type Sink func(event policytypes.Event)

// Assistant is the orchestrator owning one session store, one chat request
// controller, one selection per listing surface, and the bulk transfer
// coordinator.
type Assistant struct {
	mu sync.Mutex

	sessions   *session.Store
	controller *request.Controller
	selections map[policytypes.FileKind]*selection.Set
	listings   map[policytypes.FileKind][]policytypes.DocumentGroup
	transfers  *transfer.Coordinator
	files      policytypes.FileClient
	analysis   policytypes.AnalysisClient

	actor string
	mode  policytypes.TestModeProvider
	sink  Sink

	lastResult  *policytypes.AnalysisResult
	requestDone sync.WaitGroup
}

// Options carries the assistant's collaborators.
type Options struct {
	Sessions   *session.Store
	Controller *request.Controller
	Transfers  *transfer.Coordinator
	Files      policytypes.FileClient
	Analysis   policytypes.AnalysisClient
	Actor      string
	Mode       policytypes.TestModeProvider
	Sink       Sink
}

// New creates an assistant. Sink may be nil; events are then dropped.
func New(opts Options) *Assistant {
	sink := opts.Sink
	if sink == nil {
		sink = func(policytypes.Event) {}
	}
	return &Assistant{
		sessions:   opts.Sessions,
		controller: opts.Controller,
		selections: map[policytypes.FileKind]*selection.Set{
			policytypes.KindDocuments: selection.NewSet(),
			policytypes.KindAnalysis:  selection.NewSet(),
		},
		listings:  map[policytypes.FileKind][]policytypes.DocumentGroup{},
		transfers: opts.Transfers,
		files:     opts.Files,
		analysis:  opts.Analysis,
		actor:     opts.Actor,
		mode:      opts.Mode,
		sink:      sink,
	}
}

// Handle dispatches one intent. Chat submission returns immediately; its
// terminal outcome arrives later as events. Everything else completes
// before Handle returns.
func (a *Assistant) Handle(ctx context.Context, intent policytypes.Intent) error {
	switch in := intent.(type) {
	case policytypes.UserSentMessage:
		return a.sendMessage(in.Text)
	case policytypes.StopRequested:
		a.controller.Cancel()
		return nil
	case policytypes.NewChatRequested:
		a.newChat()
		return nil
	case policytypes.SessionSelected:
		return a.selectSession(in.SessionID)
	case policytypes.SessionDeleted:
		a.sessions.DeleteSession(in.SessionID)
		return nil
	case policytypes.FileToggled:
		a.toggleFile(in.Kind, in.Path)
		return nil
	case policytypes.FolderToggled:
		a.toggleFolder(in.Kind, in.Paths, in.Checked)
		return nil
	case policytypes.ToggleAllRequested:
		a.toggleAll(in.Kind, in.Paths, in.Checked)
		return nil
	case policytypes.BulkDownloadRequested:
		return a.bulkDownload(ctx, in.Kind)
	case policytypes.BulkDeleteRequested:
		return a.bulkDelete(ctx, in.Kind)
	case policytypes.BatchAnalysisRequested:
		return a.batchAnalysis(ctx)
	default:
		return fmt.Errorf("unhandled intent %T", intent)
	}
}

// Wait blocks until all in-flight chat completions have been processed.
// Used by tests and by shutdown.
func (a *Assistant) Wait() {
	a.requestDone.Wait()
}

// LastAnalysis returns the most recently extracted analysis record, if any.
func (a *Assistant) LastAnalysis() (policytypes.AnalysisResult, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.lastResult == nil {
		return policytypes.AnalysisResult{}, false
	}
	return *a.lastResult, true
}

// Sessions exposes the session history, newest first.
func (a *Assistant) Sessions() []*policytypes.ChatSession {
	return a.sessions.Sessions()
}

// CurrentSessionID returns the current session pointer, empty when none.
func (a *Assistant) CurrentSessionID() string {
	return a.sessions.CurrentID()
}

// Pending reports whether a chat request is outstanding.
func (a *Assistant) Pending() bool {
	return a.controller.Pending()
}

// Listing returns the last loaded folder groups of a surface.
func (a *Assistant) Listing(kind policytypes.FileKind) []policytypes.DocumentGroup {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.listings[kind]
}

// Selection returns the selected paths of a surface in listing order.
func (a *Assistant) Selection(kind policytypes.FileKind) []string {
	a.mu.Lock()
	order := a.listingOrder(kind)
	a.mu.Unlock()
	return a.selections[kind].Selected(order)
}

// FolderState derives the tri-state checkbox value for a folder.
func (a *Assistant) FolderState(kind policytypes.FileKind, paths []string) policytypes.FolderState {
	return a.selections[kind].FolderState(paths)
}

func (a *Assistant) sendMessage(text string) error {
	if text == "" {
		return ErrEmptyMessage
	}

	sessionID := a.sessions.CurrentID()
	if sessionID == "" {
		// Seed the preview from the first message right away instead of
		// leaving the default placeholder until the reply arrives.
		sessionID = a.sessions.CreateSession(text)
	}

	results, err := a.controller.Start(text)
	if err != nil {
		return err
	}

	a.sink(policytypes.MessageAppended{
		SessionID: sessionID,
		Message: policytypes.Message{
			Role:      "user",
			Content:   text,
			Timestamp: testutils.GetCurrentTime(a.mode),
		},
	})
	a.sink(policytypes.RequestStateChanged{Outcome: policytypes.OutcomePending})

	a.requestDone.Add(1)
	go func() {
		defer a.requestDone.Done()
		a.finishRequest(sessionID, text, <-results)
	}()
	return nil
}

func (a *Assistant) finishRequest(sessionID, userMessage string, result request.Result) {
	switch result.Outcome {
	case policytypes.OutcomeSucceeded:
		a.sessions.RecordExchange(sessionID, userMessage, result.Response)
		a.appendEvent(sessionID, result.Response)
		a.maybeExtract(sessionID, result.Response)
	case policytypes.OutcomeCancelled:
		a.sessions.RecordInterruption(sessionID, userMessage, CancelNotice)
		a.appendEvent(sessionID, CancelNotice)
	case policytypes.OutcomeTimedOut:
		a.sessions.RecordInterruption(sessionID, userMessage, TimeoutNotice)
		a.appendEvent(sessionID, TimeoutNotice)
	case policytypes.OutcomeFailed:
		notice := failurePrefix + result.Err.Error()
		a.sessions.RecordInterruption(sessionID, userMessage, notice)
		a.appendEvent(sessionID, notice)
	}

	a.sink(policytypes.RequestStateChanged{Outcome: result.Outcome})
}

func (a *Assistant) appendEvent(sessionID, content string) {
	a.sink(policytypes.MessageAppended{
		SessionID: sessionID,
		Message: policytypes.Message{
			Role:      "assistant",
			Content:   content,
			Timestamp: testutils.GetCurrentTime(a.mode),
		},
	})
}

// maybeExtract recognizes an analysis report in the reply, records the
// typed result, and persists it server-side. Save failures never touch the
// chat flow.
func (a *Assistant) maybeExtract(sessionID, reply string) {
	if !extract.IsReport(reply) {
		return
	}

	result := extract.Extract(reply)

	a.mu.Lock()
	a.lastResult = &result
	a.mu.Unlock()

	a.sink(policytypes.AnalysisExtracted{SessionID: sessionID, Result: result})

	docName := result.BasicInfo["文件名"]
	if docName == "" {
		docName = result.BasicInfo["标题"]
	}
	if docName == "" || a.analysis == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), saveAnalysisTimeout)
	defer cancel()
	if _, err := a.analysis.SaveAnalysis(ctx, docName, extract.Render(result)); err != nil {
		logger.Warn("Failed to save analysis result", "doc", docName, "error", err)
	}
}

func (a *Assistant) newChat() {
	id := a.sessions.CreateSession("")
	a.sink(policytypes.NotificationRaised{Level: "info", Message: "已创建新对话"})
	logger.Debug("New chat session", "session", id)
}

func (a *Assistant) selectSession(sessionID string) error {
	if _, err := a.sessions.LoadSession(sessionID); err != nil {
		return err
	}
	return nil
}

// ReloadListing fetches a surface's listing and clears its selection.
func (a *Assistant) ReloadListing(ctx context.Context, kind policytypes.FileKind) error {
	groups, err := a.files.ListFiles(ctx, kind)
	if err != nil {
		return fmt.Errorf("failed to load listing: %w", err)
	}

	a.mu.Lock()
	a.listings[kind] = groups
	a.mu.Unlock()
	a.selections[kind].Clear()

	a.sink(policytypes.ListingReloaded{Kind: kind, Groups: groups})
	a.sink(policytypes.SelectionChanged{Kind: kind, Selected: 0})
	return nil
}

func (a *Assistant) toggleFile(kind policytypes.FileKind, path string) {
	a.selections[kind].ToggleFile(path)
	a.emitSelection(kind)
}

func (a *Assistant) toggleFolder(kind policytypes.FileKind, paths []string, checked bool) {
	a.selections[kind].ToggleFolder(paths, checked)
	a.emitSelection(kind)
}

func (a *Assistant) toggleAll(kind policytypes.FileKind, paths []string, checked bool) {
	a.selections[kind].ToggleAll(paths, checked)
	a.emitSelection(kind)
}

func (a *Assistant) emitSelection(kind policytypes.FileKind) {
	a.sink(policytypes.SelectionChanged{Kind: kind, Selected: a.selections[kind].Len()})
}

func (a *Assistant) bulkDownload(ctx context.Context, kind policytypes.FileKind) error {
	paths := a.Selection(kind)
	if len(paths) == 0 {
		return ErrEmptySelection
	}

	report := a.transfers.Download(ctx, kind, paths)
	a.sink(policytypes.TransferCompleted{Kind: kind, Report: report})
	return nil
}

func (a *Assistant) bulkDelete(ctx context.Context, kind policytypes.FileKind) error {
	paths := a.Selection(kind)
	if len(paths) == 0 {
		return ErrEmptySelection
	}

	report := a.transfers.Delete(ctx, kind, paths, a.actor)
	a.sink(policytypes.TransferCompleted{Kind: kind, Report: report})
	if !report.AllSucceeded() {
		// Selection stays so the user can retry.
		return nil
	}

	if err := a.ReloadListing(ctx, kind); err != nil {
		return err
	}
	return nil
}

func (a *Assistant) batchAnalysis(ctx context.Context) error {
	report, err := a.analysis.TriggerBatchAnalysis(ctx)
	if err != nil {
		a.sink(policytypes.NotificationRaised{Level: "error", Message: "批量分析失败: " + err.Error()})
		return err
	}

	level := "success"
	if report.FailedCount > 0 {
		level = "warning"
	}
	message := report.Message
	if message == "" {
		message = fmt.Sprintf("分析完成: 成功 %d 个，失败 %d 个", report.SuccessCount, report.FailedCount)
	}
	a.sink(policytypes.NotificationRaised{Level: level, Message: message})
	return nil
}

// AnalysisStatusText maps the backend's run status to display text.
func AnalysisStatusText(status policytypes.AnalysisStatus) string {
	switch status {
	case policytypes.AnalysisSucceeded:
		return "分析已完成"
	case policytypes.AnalysisSessionFailed:
		return "分析会话失败，请重试"
	default:
		return "分析进行中"
	}
}

// listingOrder flattens the listing into full paths. The backend lists
// bare file names per folder group; operations address files by composed
// path, so the groups cannot be flattened raw.
func (a *Assistant) listingOrder(kind policytypes.FileKind) []string {
	var order []string
	for _, group := range a.listings[kind] {
		order = append(order, group.Paths()...)
	}
	return order
}
