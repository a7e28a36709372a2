// Package policytypes defines the shared data types for PolicyLens.
// This file contains the typed record produced by extracting a
// semi-structured analysis report from the upstream agent.
package policytypes

// Paragraph is one excerpted passage from an analysis report together with
// its relevance note. Index is the 1-based position among the non-empty
// excerpts in the source text, compacted when entries are missing.
type Paragraph struct {
	Content string `json:"content" yaml:"content"`
	Note    string `json:"note" yaml:"note"`
	Index   int    `json:"index" yaml:"index"`
}

// AnalysisResult is the typed form of one analysis report. Every field has a
// safe default; malformed or missing sections degrade to empty values rather
// than errors.
type AnalysisResult struct {
	BasicInfo   map[string]string `json:"basic_info" yaml:"basic_info"`
	Summary     string            `json:"summary" yaml:"summary"`
	Score       int               `json:"score" yaml:"score"` // 0-100, 0 when absent or unparseable
	ScoreReason string            `json:"score_reason" yaml:"score_reason"`
	Paragraphs  []Paragraph       `json:"paragraphs" yaml:"paragraphs"`
}

// EmptyAnalysisResult returns the all-defaults result: empty (non-nil) info
// map, empty summary and reason, score 0, empty paragraph list.
func EmptyAnalysisResult() AnalysisResult {
	return AnalysisResult{
		BasicInfo:  make(map[string]string),
		Paragraphs: make([]Paragraph, 0),
	}
}
