// Package client implements the REST boundary to the review assistant
// backend: the /ask chat endpoint, the file listings, bulk file operations,
// and the analysis pipeline endpoints. All calls observe their context, so
// user cancellation and deadlines propagate into the underlying HTTP
// request and surface as context errors.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"policylens/internal/logger"
	"policylens/pkg/policytypes"
)

// Client talks to the PolicyLens backend over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client for the backend at baseURL. The underlying HTTP
// client carries no timeout of its own; deadlines come from the caller's
// context so the request controller stays in charge of them.
func New(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
	}
}

// NewWithHTTPClient creates a client with a caller-supplied HTTP client.
func NewWithHTTPClient(baseURL string, httpClient *http.Client) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

var (
	_ policytypes.Transport      = (*Client)(nil)
	_ policytypes.FileClient     = (*Client)(nil)
	_ policytypes.AnalysisClient = (*Client)(nil)
)

type askRequest struct {
	Message string `json:"message"`
}

type askResponse struct {
	Response string `json:"response"`
}

// SubmitChatQuery posts one chat message to /ask and returns the agent's
// reply. Cancellation and deadline of ctx abort the call; the returned
// error then satisfies errors.Is against the corresponding context error.
func (c *Client) SubmitChatQuery(ctx context.Context, message string) (string, error) {
	var out askResponse
	if err := c.postJSON(ctx, "/ask", askRequest{Message: message}, &out); err != nil {
		return "", err
	}
	return out.Response, nil
}

type listingResponse struct {
	Documents []policytypes.DocumentGroup `json:"documents"`
	Results   []policytypes.DocumentGroup `json:"results"`
	Count     int                         `json:"count"`
	Total     int                         `json:"total"`
}

// ListFiles returns the ordered folder groups of the named listing surface.
func (c *Client) ListFiles(ctx context.Context, kind policytypes.FileKind) ([]policytypes.DocumentGroup, error) {
	endpoint := "/api/documents"
	if kind == policytypes.KindAnalysis {
		endpoint = "/api/analysis-results"
	}

	var out listingResponse
	if err := c.getJSON(ctx, endpoint, &out); err != nil {
		return nil, err
	}
	if kind == policytypes.KindAnalysis {
		return out.Results, nil
	}
	return out.Documents, nil
}

type fileOpRequest struct {
	Files    []string `json:"files"`
	Username string   `json:"username,omitempty"`
}

type downloadResponse struct {
	Success  bool   `json:"success"`
	FileName string `json:"fileName"`
	Content  string `json:"content"`
	Message  string `json:"message"`
}

// FetchFileContent fetches one file from the download endpoint of the given
// listing. The backend combines multiple paths into one payload; the
// coordinator downloads strictly one path per call.
func (c *Client) FetchFileContent(ctx context.Context, kind policytypes.FileKind, path string) (string, string, error) {
	endpoint := "/api/download-documents"
	if kind == policytypes.KindAnalysis {
		endpoint = "/api/download-analysis"
	}

	var out downloadResponse
	if err := c.postJSON(ctx, endpoint, fileOpRequest{Files: []string{path}}, &out); err != nil {
		return "", "", err
	}
	if !out.Success {
		return "", "", fmt.Errorf("download rejected: %s", fallbackMessage(out.Message, "没有找到有效文件"))
	}
	return out.FileName, out.Content, nil
}

type deleteResponse struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	DeletedCount int    `json:"deletedCount"`
}

// DeleteFiles deletes the given paths in one batched request. The actor is
// forwarded as the requesting username; the backend enforces its own
// permission check and replies with a summary message.
func (c *Client) DeleteFiles(ctx context.Context, kind policytypes.FileKind, paths []string, actor string) (string, error) {
	endpoint := "/api/delete-documents"
	if kind == policytypes.KindAnalysis {
		endpoint = "/api/delete-analysis"
	}

	var out deleteResponse
	if err := c.postJSON(ctx, endpoint, fileOpRequest{Files: paths, Username: actor}, &out); err != nil {
		return "", err
	}
	if !out.Success {
		return out.Message, fmt.Errorf("delete rejected: %s", fallbackMessage(out.Message, "删除失败"))
	}
	return fallbackMessage(out.Message, fmt.Sprintf("已删除 %d 个文件", out.DeletedCount)), nil
}

// TriggerBatchAnalysis starts a server-side batch analysis run and returns
// its aggregate report.
func (c *Client) TriggerBatchAnalysis(ctx context.Context) (policytypes.BatchAnalysisReport, error) {
	var out policytypes.BatchAnalysisReport
	if err := c.postJSON(ctx, "/api/trigger-analyze", struct{}{}, &out); err != nil {
		return policytypes.BatchAnalysisReport{}, err
	}
	return out, nil
}

type statusResponse struct {
	Success bool   `json:"success"`
	Status  string `json:"status"`
	Text    string `json:"text"`
}

// GetAnalysisStatus reports the backend's last analysis run state. Unknown
// status strings read as pending.
func (c *Client) GetAnalysisStatus(ctx context.Context) (policytypes.AnalysisStatus, error) {
	var out statusResponse
	if err := c.getJSON(ctx, "/api/analyze-status", &out); err != nil {
		return policytypes.AnalysisPending, err
	}
	switch policytypes.AnalysisStatus(out.Status) {
	case policytypes.AnalysisSucceeded:
		return policytypes.AnalysisSucceeded, nil
	case policytypes.AnalysisSessionFailed:
		return policytypes.AnalysisSessionFailed, nil
	default:
		return policytypes.AnalysisPending, nil
	}
}

type saveAnalysisRequest struct {
	DocName string `json:"docName"`
	Result  string `json:"result"`
}

type saveAnalysisResponse struct {
	Success bool   `json:"success"`
	Path    string `json:"path"`
	Message string `json:"message"`
}

// SaveAnalysis persists a recognized analysis report server-side and
// returns the stored path.
func (c *Client) SaveAnalysis(ctx context.Context, docName, reportText string) (string, error) {
	var out saveAnalysisResponse
	if err := c.postJSON(ctx, "/api/save-analysis", saveAnalysisRequest{DocName: docName, Result: reportText}, &out); err != nil {
		return "", err
	}
	if !out.Success {
		return "", fmt.Errorf("save rejected: %s", fallbackMessage(out.Message, "保存失败"))
	}
	return out.Path, nil
}

func (c *Client) postJSON(ctx context.Context, endpoint string, in, out interface{}) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, out)
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Unwrap url.Error so context errors stay recognizable upstream.
		var urlErr *url.Error
		if errors.As(err, &urlErr) && urlErr.Err != nil {
			err = urlErr.Err
		}
		logger.Debug("Request failed", "endpoint", req.URL.Path, "error", err)
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	logger.Debug("Request done",
		"endpoint", req.URL.Path,
		"status", resp.StatusCode,
		"elapsed", time.Since(start).String())

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("server error: %s: %s", resp.Status, strings.TrimSpace(string(data)))
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func fallbackMessage(message, fallback string) string {
	if strings.TrimSpace(message) == "" {
		return fallback
	}
	return message
}
