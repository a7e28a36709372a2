// Package extract turns a loosely formatted analysis report produced by the
// upstream agent into a typed AnalysisResult. Extraction never fails:
// every field has a safe default and malformed sections degrade to empty
// values. The package also renders results back into the canonical report
// text and the export formats the review UI offers.
package extract

import (
	"regexp"
	"strconv"
	"strings"

	"policylens/pkg/policytypes"
)

// Section markers of the canonical four-section report format.
const (
	MarkerBasicInfo  = "【基本信息】"
	MarkerSummary    = "【全文概要】"
	MarkerScore      = "【相关度评估】"
	MarkerParagraphs = "【相关段落摘取】"
)

var (
	scoreRe     = regexp.MustCompile(`评分[:：]\s*(\d+)/100`)
	reasonRe    = regexp.MustCompile(`理由[:：]\s*(.+)`)
	paragraphRe = regexp.MustCompile(`段落?\d+\s*[:：]`)
)

// noteMarker separates an excerpt from its relevance note inside one
// paragraph chunk.
const noteMarker = "（关联说明："

// stage is one pure step of the extraction pipeline. Stages are independent:
// each reads the full source text and fills in its own fields of the result,
// leaving everything else untouched.
type stage func(text string, result *policytypes.AnalysisResult)

// pipeline is the ordered extraction pipeline. Order only matters for
// readability; no stage depends on another's output.
var pipeline = []stage{
	extractBasicInfo,
	extractSummary,
	extractScore,
	extractParagraphs,
}

// Extract parses a raw analysis report into a typed result. It never returns
// an error; missing or malformed sections leave their fields at the defaults
// of policytypes.EmptyAnalysisResult.
func Extract(text string) policytypes.AnalysisResult {
	result := policytypes.EmptyAnalysisResult()
	for _, apply := range pipeline {
		apply(text, &result)
	}
	return result
}

// IsReport recognizes an assistant reply as an analysis report: the basic
// info and score evaluation markers must both be present. This gates the
// fire-and-forget server-side save of chat-produced analyses.
func IsReport(text string) bool {
	return strings.Contains(text, MarkerBasicInfo) && strings.Contains(text, MarkerScore)
}

// extractBasicInfo fills BasicInfo from the block between the basic info and
// summary markers. Each line splits at its first colon (ASCII or fullwidth)
// into a trimmed label and value; lines without a colon or with an empty
// label or value are skipped; duplicate labels overwrite earlier ones.
func extractBasicInfo(text string, result *policytypes.AnalysisResult) {
	block, ok := section(text, MarkerBasicInfo, MarkerSummary)
	if !ok {
		return
	}
	for _, line := range strings.Split(block, "\n") {
		label, value, ok := splitLabelValue(line)
		if !ok {
			continue
		}
		result.BasicInfo[label] = value
	}
}

// extractSummary fills Summary with the trimmed block between the summary
// and score evaluation markers.
func extractSummary(text string, result *policytypes.AnalysisResult) {
	block, ok := section(text, MarkerSummary, MarkerScore)
	if !ok {
		return
	}
	result.Summary = strings.TrimSpace(block)
}

// extractScore fills Score from the first NN/100 token and ScoreReason from
// the first reason line. A token whose value falls outside [0,100] is
// treated as unmatched and leaves Score at 0.
func extractScore(text string, result *policytypes.AnalysisResult) {
	if m := scoreRe.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n <= 100 {
			result.Score = n
		}
	}
	if m := reasonRe.FindStringSubmatch(text); m != nil {
		result.ScoreReason = strings.TrimSpace(m[1])
	}
}

// extractParagraphs fills Paragraphs from everything after the paragraphs
// marker. The block splits at each 段落N: (or short-form 段N:) marker; a
// chunk splits again at
// the note sub-marker into content and note (trailing closing bracket
// stripped). Chunks with empty trimmed content are dropped, and Index is the
// 1-based position among the kept chunks, not the numeral written in the
// source.
func extractParagraphs(text string, result *policytypes.AnalysisResult) {
	block, ok := section(text, MarkerParagraphs, "")
	if !ok {
		return
	}
	markers := paragraphRe.FindAllStringIndex(block, -1)
	for _, loc := range markers {
		// Chunk runs from the end of this marker to the start of the next.
		start := loc[1]
		end := len(block)
		for _, next := range markers {
			if next[0] > loc[0] {
				end = next[0]
				break
			}
		}
		content, note := splitNote(block[start:end])
		if content == "" {
			continue
		}
		result.Paragraphs = append(result.Paragraphs, policytypes.Paragraph{
			Content: content,
			Note:    note,
			Index:   len(result.Paragraphs) + 1,
		})
	}
}

// section returns the text between the first occurrence of open and the
// first following occurrence of close. An empty close means to end of text.
// The second return value is false when either marker is absent.
func section(text, open, close string) (string, bool) {
	i := strings.Index(text, open)
	if i < 0 {
		return "", false
	}
	rest := text[i+len(open):]
	if close == "" {
		return rest, true
	}
	j := strings.Index(rest, close)
	if j < 0 {
		return "", false
	}
	return rest[:j], true
}

// splitLabelValue splits one info line at its first colon. Both the ASCII
// and the fullwidth colon count; whichever appears first wins.
func splitLabelValue(line string) (label, value string, ok bool) {
	i := strings.Index(line, ":")
	j := strings.Index(line, "：")
	sep, width := i, 1
	if i < 0 || (j >= 0 && j < i) {
		sep, width = j, len("：")
	}
	if sep < 0 {
		return "", "", false
	}
	label = strings.TrimSpace(line[:sep])
	value = strings.TrimSpace(line[sep+width:])
	if label == "" || value == "" {
		return "", "", false
	}
	return label, value, true
}

// splitNote splits one paragraph chunk into excerpt content and relevance
// note. The note's trailing closing bracket is stripped when present.
func splitNote(chunk string) (content, note string) {
	before, after, found := strings.Cut(chunk, noteMarker)
	content = strings.TrimSpace(before)
	if !found {
		return content, ""
	}
	note = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(after), "）"))
	return content, note
}
