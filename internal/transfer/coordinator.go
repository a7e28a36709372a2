// Package transfer implements bulk file operations against the backend:
// sequential multi-file download with a fixed inter-item delay, and batched
// delete. Downloads tolerate per-item failures and keep going; deletes go
// out as a single request so the backend can report one aggregate result.
package transfer

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"policylens/internal/logger"
	"policylens/pkg/policytypes"
)

// DefaultDownloadInterval is the pause between consecutive downloads. The
// delay keeps the save prompts from piling up on the client side.
const DefaultDownloadInterval = 300 * time.Millisecond

// Sleeper pauses between download items. Tests inject a no-op recorder.
type Sleeper func(ctx context.Context, d time.Duration)

// Coordinator runs bulk downloads and deletes over a FileClient.
type Coordinator struct {
	client   policytypes.FileClient
	saver    policytypes.FileSaver
	interval time.Duration
	sleep    Sleeper
	log      *log.Logger
}

// NewCoordinator creates a coordinator with the default inter-item delay.
func NewCoordinator(client policytypes.FileClient, saver policytypes.FileSaver) *Coordinator {
	return &Coordinator{
		client:   client,
		saver:    saver,
		interval: DefaultDownloadInterval,
		sleep:    sleepWithContext,
		log:      logger.NewStyledLogger("Transfer"),
	}
}

// WithInterval overrides the inter-item delay.
func (c *Coordinator) WithInterval(d time.Duration) *Coordinator {
	c.interval = d
	return c
}

// WithSleeper overrides the pause implementation.
func (c *Coordinator) WithSleeper(s Sleeper) *Coordinator {
	c.sleep = s
	return c
}

// Download fetches each path in order and hands it to the saver. Items are
// processed strictly sequentially with the configured delay between them.
// A failed item is recorded and the batch continues; ctx cancellation stops
// the remaining items, which are recorded as failed.
func (c *Coordinator) Download(ctx context.Context, kind policytypes.FileKind, paths []string) policytypes.TransferReport {
	report := policytypes.TransferReport{}

	for i, path := range paths {
		if err := ctx.Err(); err != nil {
			for _, rest := range paths[i:] {
				report.Failed++
				report.Items = append(report.Items, policytypes.TransferItemResult{Path: rest, Err: err})
			}
			break
		}

		fileName, content, err := c.client.FetchFileContent(ctx, kind, path)
		logger.TransferItem("download", path, err)
		if err != nil {
			report.Failed++
			report.Items = append(report.Items, policytypes.TransferItemResult{Path: path, Err: err})
		} else {
			c.saver.Save(fileName, content)
			report.Succeeded++
			report.Items = append(report.Items, policytypes.TransferItemResult{Path: path})
		}

		if i < len(paths)-1 {
			c.sleep(ctx, c.interval)
		}
	}

	report.Message = downloadMessage(report)
	c.log.Info("Bulk download done", "kind", kind, "succeeded", report.Succeeded, "failed", report.Failed)
	return report
}

// Delete removes all paths in one batched request on behalf of actor. On
// failure nothing is reported as deleted; the caller decides whether to
// keep its selection.
func (c *Coordinator) Delete(ctx context.Context, kind policytypes.FileKind, paths []string, actor string) policytypes.TransferReport {
	message, err := c.client.DeleteFiles(ctx, kind, paths, actor)
	if err != nil {
		c.log.Error("Bulk delete failed", "kind", kind, "count", len(paths), "error", err)
		return policytypes.TransferReport{
			Failed:  len(paths),
			Message: fallback(message, "删除失败"),
		}
	}

	c.log.Info("Bulk delete done", "kind", kind, "count", len(paths))
	return policytypes.TransferReport{
		Succeeded: len(paths),
		Message:   fallback(message, fmt.Sprintf("已删除 %d 个文件", len(paths))),
	}
}

func downloadMessage(report policytypes.TransferReport) string {
	switch {
	case report.Failed == 0:
		return fmt.Sprintf("已下载 %d 个文件", report.Succeeded)
	case report.Succeeded == 0:
		return "下载失败"
	default:
		return fmt.Sprintf("已下载 %d 个文件，%d 个失败", report.Succeeded, report.Failed)
	}
}

func fallback(message, alt string) string {
	if message == "" {
		return alt
	}
	return message
}

func sleepWithContext(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
