package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"policylens/internal/assistant"
	"policylens/internal/client"
	"policylens/internal/extract"
	"policylens/internal/logger"
	"policylens/pkg/policytypes"
)

// docsCmd groups operations on the policy document listing
var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "Manage the policy document listing",
}

// analysisCmd groups operations on the analysis result listing
var analysisCmd = &cobra.Command{
	Use:   "analysis",
	Short: "Manage the analysis result listing",
}

// analyzeCmd triggers a server-side batch analysis run
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Trigger a batch analysis of all documents",
	Long:  `Trigger a server-side batch analysis run and report its aggregate result.`,
	Run: func(_ *cobra.Command, _ []string) {
		cfg := loadConfig()
		a, _ := buildAssistant(cfg, printEvent)
		ctx := context.Background()
		if err := a.Handle(ctx, policytypes.BatchAnalysisRequested{}); err != nil {
			logger.Error("Batch analysis failed", "error", err)
			os.Exit(1)
		}

		status, err := client.New(cfg.BaseURL).GetAnalysisStatus(ctx)
		if err != nil {
			logger.Warn("Failed to read analysis status", "error", err)
			return
		}
		fmt.Println(assistant.AnalysisStatusText(status))
	},
}

func init() {
	docsCmd.AddCommand(
		listCmd(policytypes.KindDocuments),
		downloadCmd(policytypes.KindDocuments),
		deleteCmd(policytypes.KindDocuments),
	)
	analysisCmd.AddCommand(
		listCmd(policytypes.KindAnalysis),
		downloadCmd(policytypes.KindAnalysis),
		deleteCmd(policytypes.KindAnalysis),
	)
}

func listCmd(kind policytypes.FileKind) *cobra.Command {
	var minScore float64
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List folders and files",
		Run: func(_ *cobra.Command, _ []string) {
			a, _ := buildAssistant(loadConfig(), nil)
			if err := a.ReloadListing(context.Background(), kind); err != nil {
				logger.Error("Failed to load listing", "kind", kind, "error", err)
				os.Exit(1)
			}
			groups := a.Listing(kind)
			if kind == policytypes.KindAnalysis {
				groups = extract.FilterByScore(groups, minScore)
			}
			printListing(groups)
		},
	}
	if kind == policytypes.KindAnalysis {
		cmd.Flags().Float64Var(&minScore, "min-score", 0,
			"Only list results whose file name carries at least this relevance score")
	}
	return cmd
}

func downloadCmd(kind policytypes.FileKind) *cobra.Command {
	return &cobra.Command{
		Use:   "download <path>...",
		Short: "Download the given files, in listing order",
		Args:  cobra.MinimumNArgs(1),
		Run: func(_ *cobra.Command, args []string) {
			runBulk(kind, args, policytypes.BulkDownloadRequested{Kind: kind})
		},
	}
}

func deleteCmd(kind policytypes.FileKind) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <path>...",
		Short: "Delete the given files in one batched request",
		Args:  cobra.MinimumNArgs(1),
		Run: func(_ *cobra.Command, args []string) {
			runBulk(kind, args, policytypes.BulkDeleteRequested{Kind: kind})
		},
	}
}

// runBulk loads the listing, selects the requested paths, and runs the bulk
// intent over the selection.
func runBulk(kind policytypes.FileKind, paths []string, intent policytypes.Intent) {
	a, _ := buildAssistant(loadConfig(), printEvent)
	ctx := context.Background()

	if err := a.ReloadListing(ctx, kind); err != nil {
		logger.Error("Failed to load listing", "kind", kind, "error", err)
		os.Exit(1)
	}
	for _, path := range paths {
		if err := a.Handle(ctx, policytypes.FileToggled{Kind: kind, Path: path}); err != nil {
			logger.Error("Failed to select file", "path", path, "error", err)
			os.Exit(1)
		}
	}

	if err := a.Handle(ctx, intent); err != nil {
		if errors.Is(err, assistant.ErrEmptySelection) {
			fmt.Println("没有选中任何文件。")
		} else {
			logger.Error("Bulk operation failed", "kind", kind, "error", err)
		}
		os.Exit(1)
	}
}

func printListing(groups []policytypes.DocumentGroup) {
	if len(groups) == 0 {
		fmt.Println("（空）")
		return
	}
	for _, group := range groups {
		fmt.Printf("%s/\n", group.Name)
		for _, path := range group.Paths() {
			fmt.Printf("  %s\n", path)
		}
	}
}

func printEvent(event policytypes.Event) {
	switch e := event.(type) {
	case policytypes.TransferCompleted:
		fmt.Println(e.Report.Message)
		for _, item := range e.Report.Items {
			if item.Err != nil {
				fmt.Printf("  失败: %s (%v)\n", item.Path, item.Err)
			}
		}
	case policytypes.NotificationRaised:
		fmt.Printf("[%s] %s\n", e.Level, e.Message)
	}
}
