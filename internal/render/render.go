// Package render transforms chat message text for display. The HTML path
// is an ordered pipeline of pure stages applied to the raw message text;
// the terminal path renders markdown through glamour.
package render

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/charmbracelet/glamour"

	"policylens/pkg/policytypes"
)

// Stage is one pure transform of the display pipeline.
type Stage struct {
	Name  string
	Apply func(text string) string
}

var (
	codeSpanRe = regexp.MustCompile("`([^`]+)`")
	boldRe     = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	linkRe     = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)
)

// Pipeline is the stage order for the HTML surface. Escaping runs first so
// later stages can emit markup without it being re-escaped.
var Pipeline = []Stage{
	{Name: "escape", Apply: escapeHTML},
	{Name: "code-spans", Apply: func(text string) string {
		return codeSpanRe.ReplaceAllString(text, "<code>$1</code>")
	}},
	{Name: "bold", Apply: func(text string) string {
		return boldRe.ReplaceAllString(text, "<strong>$1</strong>")
	}},
	{Name: "links", Apply: func(text string) string {
		return linkRe.ReplaceAllString(text, `<a href="$2" target="_blank">$1</a>`)
	}},
	{Name: "line-breaks", Apply: func(text string) string {
		return strings.ReplaceAll(text, "\n", "<br>")
	}},
}

// RenderHTML runs the full pipeline over text.
func RenderHTML(text string) string {
	for _, stage := range Pipeline {
		text = stage.Apply(text)
	}
	return text
}

func escapeHTML(text string) string {
	replacer := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
	)
	return replacer.Replace(text)
}

// TranscriptHTML renders a chat transcript as a standalone HTML document,
// one bubble per message, with the content run through the display
// pipeline.
func TranscriptHTML(title string, messages []policytypes.Message) string {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html lang=\"zh\">\n<head><meta charset=\"utf-8\"><title>")
	b.WriteString(escapeHTML(title))
	b.WriteString("</title></head>\n<body>\n")
	fmt.Fprintf(&b, "<h1>%s</h1>\n", escapeHTML(title))
	for _, msg := range messages {
		label := "AI"
		if msg.Role == "user" {
			label = "你"
		}
		fmt.Fprintf(&b, "<div class=\"message %s\"><p class=\"role\">%s</p><p>%s</p></div>\n",
			msg.Role, label, RenderHTML(msg.Content))
	}
	b.WriteString("</body>\n</html>\n")
	return b.String()
}

// Terminal renders markdown text for terminal display with word wrap.
func Terminal(text string) (string, error) {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create renderer: %w", err)
	}

	out, err := renderer.Render(text)
	if err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return out, nil
}
