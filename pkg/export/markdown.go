package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/vanderheijden86/wellradar/pkg/layout"
	"github.com/vanderheijden86/wellradar/pkg/model"
)

// nowFunc is swapped in tests for a stable timestamp.
var nowFunc = time.Now

// GenerateMarkdown creates a markdown report of the radar: the aggregate
// score and one table row per sector with a bar strip.
func GenerateMarkdown(radar model.Radar, frame layout.Frame) string {
	var sb strings.Builder

	title := radar.Title
	if strings.TrimSpace(title) == "" {
		title = model.DefaultTitle
	}
	sb.WriteString(fmt.Sprintf("# %s\n\n", title))
	sb.WriteString(fmt.Sprintf("*Generated: %s*\n\n", nowFunc().Format(time.RFC1123)))

	max := radar.Max()
	if frame.Aggregate != nil {
		sb.WriteString("## Summary\n\n")
		sb.WriteString("| Metric | Value |\n|--------|-------|\n")
		sb.WriteString(fmt.Sprintf("| **Overall** | %d%% |\n", frame.Aggregate.Percent))
		sb.WriteString(fmt.Sprintf("| Mean strength | %.2f / %d |\n", frame.Aggregate.Mean, max))
		sb.WriteString(fmt.Sprintf("| Sectors | %d |\n\n", len(radar.Sectors)))
	}

	if len(radar.Sectors) == 0 {
		sb.WriteString("*No sectors.*\n")
		return sb.String()
	}

	sb.WriteString("## Sectors\n\n")
	sb.WriteString("| # | Sector | Strength | | % | Color |\n")
	sb.WriteString("|---|--------|----------|---|---|-------|\n")
	for i, s := range radar.Sectors {
		strength := radar.StrengthAt(i)
		color := ""
		if i < len(frame.Sectors) {
			color = "`" + css(frame.Sectors[i].Color) + "`"
		}
		sb.WriteString(fmt.Sprintf("| %d | %s | %d / %d | %s | %d%% | %s |\n",
			i+1, escapeCell(truncateString(s.Name, 40)), strength, max,
			barChart(strength, max), layout.StrengthPercent(strength, max), color))
	}
	sb.WriteString("\n")
	return sb.String()
}

// SaveMarkdownToFile writes the report to filename.
func SaveMarkdownToFile(radar model.Radar, frame layout.Frame, filename string) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return fmt.Errorf("create parent dir: %w", err)
	}
	return os.WriteFile(filename, []byte(GenerateMarkdown(radar, frame)), 0o644)
}

// barChart draws one block per strength level.
func barChart(strength, max int) string {
	strength = model.ClampStrength(strength, max)
	return strings.Repeat("█", strength) + strings.Repeat("░", max-strength)
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "|", "\\|")
}

// truncateString truncates a string to maxLen runes with ellipsis.
func truncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen < 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-1]) + "…"
}
