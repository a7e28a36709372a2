package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.design/x/clipboard"

	"policylens/internal/assistant"
	"policylens/internal/extract"
	"policylens/internal/logger"
	"policylens/internal/render"
	"policylens/internal/request"
	"policylens/internal/version"
	"policylens/pkg/policytypes"
)

// chatCmd represents the chat command (explicit version of default behavior)
var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start the interactive chat loop",
	Long:  `Start the interactive PolicyLens chat loop against the analysis agent.`,
	Run:   runChat,
}

func runChat(_ *cobra.Command, _ []string) {
	cfg := loadConfig()
	logger.Info("Starting PolicyLens", "version", version.GetVersion(), "backend", cfg.BaseURL)

	events := make(chan policytypes.Event, 16)
	a, prober := buildAssistant(cfg, func(event policytypes.Event) {
		events <- event
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go prober.Run(ctx)
	go renderEvents(events)

	fmt.Printf("PolicyLens v%s - 政策文件审阅助手\n", version.GetVersion())
	fmt.Println("输入问题开始对话；/help 查看命令，/exit 退出。")

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for {
		fmt.Print("policylens> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "/exit" || line == "/quit" {
			break
		}
		if strings.HasPrefix(line, "/") {
			runLocalCommand(a, line)
			continue
		}

		err := a.Handle(context.Background(), policytypes.UserSentMessage{Text: line})
		switch {
		case errors.Is(err, request.ErrAlreadyPending):
			fmt.Println("上一条回复尚未完成，输入 /stop 可停止生成。")
		case err != nil:
			fmt.Printf("发送失败: %v\n", err)
		}
	}

	_ = a.Handle(context.Background(), policytypes.StopRequested{})
	a.Wait()
	logger.Info("PolicyLens exiting")
}

func runLocalCommand(a *assistant.Assistant, line string) {
	fields := strings.Fields(line)
	switch fields[0] {
	case "/help":
		fmt.Println(`/stop        停止当前生成
/new         新建对话
/sessions    列出历史对话
/load N      载入第 N 个对话
/delete N    删除第 N 个对话
/copy        复制最近的分析结果
/export      导出最近的分析结果 (markdown；/export yaml 导出 YAML)
/transcript  导出当前对话记录 (HTML)
/exit        退出`)
	case "/stop":
		_ = a.Handle(context.Background(), policytypes.StopRequested{})
	case "/new":
		_ = a.Handle(context.Background(), policytypes.NewChatRequested{})
	case "/sessions":
		printSessions(a)
	case "/load":
		withSessionArg(a, fields, func(id string) {
			if err := a.Handle(context.Background(), policytypes.SessionSelected{SessionID: id}); err != nil {
				fmt.Printf("载入失败: %v\n", err)
				return
			}
			printTranscript(a)
		})
	case "/delete":
		withSessionArg(a, fields, func(id string) {
			_ = a.Handle(context.Background(), policytypes.SessionDeleted{SessionID: id})
			fmt.Println("已删除对话。")
		})
	case "/copy":
		copyLastAnalysis(a)
	case "/export":
		format := ""
		if len(fields) > 1 {
			format = fields[1]
		}
		exportLastAnalysis(a, format)
	case "/transcript":
		exportTranscript(a)
	default:
		fmt.Printf("未知命令 %s，输入 /help 查看命令。\n", fields[0])
	}
}

func printSessions(a *assistant.Assistant) {
	sessions := a.Sessions()
	if len(sessions) == 0 {
		fmt.Println("暂无历史对话。")
		return
	}
	current := a.CurrentSessionID()
	for i, sess := range sessions {
		marker := " "
		if sess.ID == current {
			marker = "*"
		}
		fmt.Printf("%s %2d. %s (%d 条消息)\n", marker, i+1, sess.Preview, len(sess.Messages))
	}
}

func printTranscript(a *assistant.Assistant) {
	current := a.CurrentSessionID()
	for _, sess := range a.Sessions() {
		if sess.ID != current {
			continue
		}
		for _, msg := range sess.Messages {
			printMessage(msg)
		}
		return
	}
}

func withSessionArg(a *assistant.Assistant, fields []string, apply func(sessionID string)) {
	if len(fields) < 2 {
		fmt.Println("缺少对话编号。")
		return
	}
	n, err := strconv.Atoi(fields[1])
	sessions := a.Sessions()
	if err != nil || n < 1 || n > len(sessions) {
		fmt.Printf("无效的对话编号: %s\n", fields[1])
		return
	}
	apply(sessions[n-1].ID)
}

func copyLastAnalysis(a *assistant.Assistant) {
	result, ok := a.LastAnalysis()
	if !ok {
		fmt.Println("暂无可复制的分析结果。")
		return
	}
	if err := clipboard.Init(); err != nil {
		fmt.Printf("剪贴板不可用: %v\n", err)
		return
	}
	clipboard.Write(clipboard.FmtText, []byte(extract.Render(result)))
	fmt.Println("已复制分析结果。")
}

// exportLastAnalysis writes the most recent analysis result to the
// downloads directory as markdown, or YAML when requested.
func exportLastAnalysis(a *assistant.Assistant, format string) {
	result, ok := a.LastAnalysis()
	if !ok {
		fmt.Println("暂无可导出的分析结果。")
		return
	}

	docName := result.BasicInfo["文件名"]
	if docName == "" {
		docName = result.BasicInfo["标题"]
	}
	if docName == "" {
		docName = "分析结果"
	}
	base := strings.TrimSuffix(docName, ".md")

	saver := newDiskSaver("downloads")
	switch format {
	case "yaml":
		out, err := extract.ExportYAML(result)
		if err != nil {
			fmt.Printf("导出失败: %v\n", err)
			return
		}
		saver.Save(base+"_分析结果.yaml", string(out))
	default:
		saver.Save(base+"_分析结果.md", extract.ExportMarkdown(docName, result, time.Now()))
	}
	fmt.Println("已导出分析结果。")
}

// exportTranscript writes the current session's transcript as HTML.
func exportTranscript(a *assistant.Assistant) {
	current := a.CurrentSessionID()
	if current == "" {
		fmt.Println("暂无当前对话。")
		return
	}
	for _, sess := range a.Sessions() {
		if sess.ID != current {
			continue
		}
		newDiskSaver("downloads").Save("对话_"+sess.ID+".html",
			render.TranscriptHTML(sess.Preview, sess.Messages))
		fmt.Println("已导出对话记录。")
		return
	}
}

func renderEvents(events <-chan policytypes.Event) {
	for event := range events {
		switch e := event.(type) {
		case policytypes.MessageAppended:
			if e.Message.Role == "assistant" {
				printMessage(e.Message)
			}
		case policytypes.AnalysisExtracted:
			fmt.Printf("\n[已识别分析报告] 评分 %d/100 (%s)\n", e.Result.Score, extract.ScoreBand(e.Result.Score))
		case policytypes.ConnectivityChanged:
			if e.Connected {
				fmt.Println("\n[后端连接正常]")
			} else {
				fmt.Println("\n[后端连接断开]")
			}
		case policytypes.NotificationRaised:
			fmt.Printf("\n[%s] %s\n", e.Level, e.Message)
		}
	}
}

func printMessage(msg policytypes.Message) {
	out, err := render.Terminal(msg.Content)
	if err != nil {
		fmt.Println(msg.Content)
		return
	}
	fmt.Print(out)
}
