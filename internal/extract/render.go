package extract

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"policylens/pkg/policytypes"
)

// fileScoreRe matches the score suffix of analysis result file names,
// e.g. "某政策_分析结果_85.0.md".
var fileScoreRe = regexp.MustCompile(`.*[_-](\d+\.?\d*)\.md$`)

// Render writes a result back into the canonical four-section report text.
// Feeding the output to Extract reproduces the original basic info, summary,
// score, and paragraph content/note pairs. Info labels are emitted sorted so
// output is deterministic.
func Render(result policytypes.AnalysisResult) string {
	var b strings.Builder

	b.WriteString(MarkerBasicInfo + "\n")
	labels := make([]string, 0, len(result.BasicInfo))
	for label := range result.BasicInfo {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	for _, label := range labels {
		fmt.Fprintf(&b, "%s: %s\n", label, result.BasicInfo[label])
	}

	b.WriteString("\n" + MarkerSummary + "\n")
	b.WriteString(result.Summary + "\n")

	b.WriteString("\n" + MarkerScore + "\n")
	fmt.Fprintf(&b, "评分: %d/100\n", result.Score)
	fmt.Fprintf(&b, "理由: %s\n", result.ScoreReason)

	b.WriteString("\n" + MarkerParagraphs + "\n")
	for _, p := range result.Paragraphs {
		if p.Note != "" {
			fmt.Fprintf(&b, "段落%d: %s（关联说明：%s）\n", p.Index, p.Content, p.Note)
		} else {
			fmt.Fprintf(&b, "段落%d: %s\n", p.Index, p.Content)
		}
	}

	return b.String()
}

// ExportMarkdown formats a result as the downloadable markdown document the
// review UI offers, headed by the document name.
func ExportMarkdown(docName string, result policytypes.AnalysisResult, now time.Time) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s 分析结果\n\n", docName)

	b.WriteString("## 基本信息\n")
	labels := make([]string, 0, len(result.BasicInfo))
	for label := range result.BasicInfo {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	for _, label := range labels {
		fmt.Fprintf(&b, "- %s: %s\n", label, result.BasicInfo[label])
	}

	b.WriteString("\n## 全文概要\n")
	b.WriteString(result.Summary + "\n")

	b.WriteString("\n## 相关度评估\n")
	fmt.Fprintf(&b, "- **评分**: %d/100\n", result.Score)
	fmt.Fprintf(&b, "- **理由**: %s\n", result.ScoreReason)

	b.WriteString("\n## 相关段落摘取\n")
	for i, p := range result.Paragraphs {
		if i > 0 {
			b.WriteString("\n")
		}
		note := p.Note
		if note == "" {
			note = "无"
		}
		fmt.Fprintf(&b, "### 段落%d\n%s\n> 关联说明: %s\n", p.Index, p.Content, note)
	}

	fmt.Fprintf(&b, "\n---\n*导出时间: %s*\n", now.Format("2006-01-02 15:04:05"))
	return b.String()
}

// ExportYAML marshals a result for structured export.
func ExportYAML(result policytypes.AnalysisResult) ([]byte, error) {
	out, err := yaml.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal analysis result: %w", err)
	}
	return out, nil
}

// ScoreBand maps a relevance score to its display band.
func ScoreBand(score int) string {
	switch {
	case score >= 80:
		return "高度相关"
	case score >= 60:
		return "中度相关"
	case score >= 40:
		return "低度相关"
	default:
		return "不相关"
	}
}

// ScoreFromFileName extracts the trailing score from an analysis result file
// name, used by the listing's minimum-score filter. The second return value
// is false when the name carries no score suffix.
func ScoreFromFileName(name string) (float64, bool) {
	m := fileScoreRe.FindStringSubmatch(name)
	if m == nil {
		return 0, false
	}
	score, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return score, true
}

// FilterByScore keeps only the files whose name carries a score suffix of at
// least min. A min of zero or less keeps everything; otherwise files without
// a score suffix are dropped, as are groups left empty.
func FilterByScore(groups []policytypes.DocumentGroup, min float64) []policytypes.DocumentGroup {
	if min <= 0 {
		return groups
	}
	var out []policytypes.DocumentGroup
	for _, group := range groups {
		var kept []string
		for _, name := range group.Files {
			if score, ok := ScoreFromFileName(name); ok && score >= min {
				kept = append(kept, name)
			}
		}
		if len(kept) > 0 {
			out = append(out, policytypes.DocumentGroup{Name: group.Name, Files: kept})
		}
	}
	return out
}
