package traces

import (
	"fmt"
	"strings"
	"time"

	"github.com/xeonx/timeago"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Age renders how long ago t was written relative to now, e.g. "2 hours ago".
func Age(t Trace, now time.Time) string {
	cfg := timeago.English
	cfg.Max = 100 * 365 * 24 * time.Hour
	return cfg.FormatReference(t.ModTime, now)
}

// Markdown renders traces as a GFM table.
func Markdown(traces []Trace, now time.Time) string {
	var b strings.Builder
	b.WriteString("| Modified | Package | Class | Method | Trace |\n")
	b.WriteString("|---|---|---|---|---|\n")
	for _, t := range traces {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | [%s](%s) |\n",
			Age(t, now), cell(t.Package), cell(t.Class), cell(t.Method), cell(t.Path), t.Path)
	}
	return b.String()
}

func cell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// HTML renders the Markdown table as an HTML fragment, for CI artifact pages.
func HTML(traces []Trace, now time.Time) (string, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	var buf strings.Builder
	if err := md.Convert([]byte(Markdown(traces, now)), &buf); err != nil {
		return "", fmt.Errorf("render trace report: %w", err)
	}
	return buf.String(), nil
}
