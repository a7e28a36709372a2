package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"policylens/pkg/policytypes"
)

func TestSubmitChatQuery(t *testing.T) {
	var gotMessage string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/ask", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body askRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		gotMessage = body.Message

		_ = json.NewEncoder(w).Encode(askResponse{Response: "这份文件与数据安全条例高度相关。"})
	}))
	defer server.Close()

	c := New(server.URL)
	reply, err := c.SubmitChatQuery(context.Background(), "请分析这份文件")

	require.NoError(t, err)
	assert.Equal(t, "请分析这份文件", gotMessage)
	assert.Equal(t, "这份文件与数据安全条例高度相关。", reply)
}

func TestSubmitChatQueryCancellation(t *testing.T) {
	started := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Drain the body before blocking; the server only notices the
		// client disconnect once the request body has been consumed.
		_, _ = io.Copy(io.Discard, r.Body)
		close(started)
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	c := New(server.URL)
	_, err := c.SubmitChatQuery(ctx, "慢查询")

	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled), "cancellation must stay recognizable, got: %v", err)
}

func TestSubmitChatQueryDeadline(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	c := New(server.URL)
	_, err := c.SubmitChatQuery(ctx, "慢查询")

	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestListFilesDocuments(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/api/documents", r.URL.Path)
		// Groups carry bare file names; path composition is the engine's job.
		_ = json.NewEncoder(w).Encode(listingResponse{
			Documents: []policytypes.DocumentGroup{
				{Name: "2025年第一批", Files: []string{"通知.md", "附件.md"}},
				{Name: "历史归档", Files: []string{"旧文件.md"}},
				{Name: "根目录", Files: []string{"说明.md"}},
			},
			Count: 3,
			Total: 4,
		})
	}))
	defer server.Close()

	groups, err := New(server.URL).ListFiles(context.Background(), policytypes.KindDocuments)

	require.NoError(t, err)
	require.Len(t, groups, 3)
	assert.Equal(t, "2025年第一批", groups[0].Name)
	assert.Equal(t, []string{"旧文件.md"}, groups[1].Files)
	assert.Equal(t, []string{"历史归档/旧文件.md"}, groups[1].Paths())
	assert.Equal(t, []string{"说明.md"}, groups[2].Paths())
}

func TestListFilesAnalysis(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/analysis-results", r.URL.Path)
		_ = json.NewEncoder(w).Encode(listingResponse{
			Results: []policytypes.DocumentGroup{
				{Name: "分析结果", Files: []string{"通知_85.md"}},
			},
		})
	}))
	defer server.Close()

	groups, err := New(server.URL).ListFiles(context.Background(), policytypes.KindAnalysis)

	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "分析结果", groups[0].Name)
}

func TestFetchFileContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/download-documents", r.URL.Path)

		var body fileOpRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, []string{"2025年第一批/通知.md"}, body.Files)

		_ = json.NewEncoder(w).Encode(downloadResponse{
			Success:  true,
			FileName: "通知.md",
			Content:  "# 通知\n正文",
		})
	}))
	defer server.Close()

	name, content, err := New(server.URL).FetchFileContent(
		context.Background(), policytypes.KindDocuments, "2025年第一批/通知.md")

	require.NoError(t, err)
	assert.Equal(t, "通知.md", name)
	assert.Equal(t, "# 通知\n正文", content)
}

func TestFetchFileContentRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/download-analysis", r.URL.Path)
		_ = json.NewEncoder(w).Encode(downloadResponse{Success: false, Message: "文件不存在"})
	}))
	defer server.Close()

	_, _, err := New(server.URL).FetchFileContent(
		context.Background(), policytypes.KindAnalysis, "分析结果/缺失.md")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "文件不存在")
}

func TestDeleteFiles(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/delete-documents", r.URL.Path)

		var body fileOpRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, []string{"a.md", "b.md"}, body.Files)
		require.Equal(t, "reviewer", body.Username)

		_ = json.NewEncoder(w).Encode(deleteResponse{Success: true, Message: "已删除 2 个文件", DeletedCount: 2})
	}))
	defer server.Close()

	msg, err := New(server.URL).DeleteFiles(
		context.Background(), policytypes.KindDocuments, []string{"a.md", "b.md"}, "reviewer")

	require.NoError(t, err)
	assert.Equal(t, "已删除 2 个文件", msg)
}

func TestDeleteFilesRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/delete-analysis", r.URL.Path)
		_ = json.NewEncoder(w).Encode(deleteResponse{Success: false, Message: "没有删除权限"})
	}))
	defer server.Close()

	msg, err := New(server.URL).DeleteFiles(
		context.Background(), policytypes.KindAnalysis, []string{"x.md"}, "guest")

	require.Error(t, err)
	assert.Equal(t, "没有删除权限", msg)
	assert.Contains(t, err.Error(), "没有删除权限")
}

func TestTriggerBatchAnalysis(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/trigger-analyze", r.URL.Path)
		_ = json.NewEncoder(w).Encode(policytypes.BatchAnalysisReport{
			Success:      true,
			SuccessCount: 4,
			FailedCount:  1,
			Message:      "分析完成",
		})
	}))
	defer server.Close()

	report, err := New(server.URL).TriggerBatchAnalysis(context.Background())

	require.NoError(t, err)
	assert.True(t, report.Success)
	assert.Equal(t, 4, report.SuccessCount)
	assert.Equal(t, 1, report.FailedCount)
}

func TestGetAnalysisStatus(t *testing.T) {
	tests := []struct {
		name   string
		status string
		want   policytypes.AnalysisStatus
	}{
		{"succeeded", "success", policytypes.AnalysisSucceeded},
		{"session failed", "session_failed", policytypes.AnalysisSessionFailed},
		{"pending", "pending", policytypes.AnalysisPending},
		{"unknown reads as pending", "whatever", policytypes.AnalysisPending},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				require.Equal(t, "/api/analyze-status", r.URL.Path)
				_ = json.NewEncoder(w).Encode(statusResponse{Success: true, Status: tt.status})
			}))
			defer server.Close()

			got, err := New(server.URL).GetAnalysisStatus(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSaveAnalysis(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/save-analysis", r.URL.Path)

		var body saveAnalysisRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "通知.md", body.DocName)
		require.Contains(t, body.Result, "【基本信息】")

		_ = json.NewEncoder(w).Encode(saveAnalysisResponse{Success: true, Path: "分析结果/通知_85.md"})
	}))
	defer server.Close()

	path, err := New(server.URL).SaveAnalysis(context.Background(), "通知.md", "【基本信息】\n标题: 通知")

	require.NoError(t, err)
	assert.Equal(t, "分析结果/通知_85.md", path)
}

func TestServerErrorSurfaced(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal failure", http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := New(server.URL).SubmitChatQuery(context.Background(), "hi")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "server error")
	assert.Contains(t, err.Error(), "internal failure")
}

func TestBaseURLTrailingSlashTrimmed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/ask", r.URL.Path)
		_ = json.NewEncoder(w).Encode(askResponse{Response: "ok"})
	}))
	defer server.Close()

	reply, err := New(server.URL + "/").SubmitChatQuery(context.Background(), "hi")

	require.NoError(t, err)
	assert.Equal(t, "ok", reply)
}
