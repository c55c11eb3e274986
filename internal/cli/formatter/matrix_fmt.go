package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/sitetrack/internal/contract"
	"github.com/alexanderramin/sitetrack/internal/domain"
)

// stageAbbrevLen keeps matrix columns narrow enough for a terminal.
const stageAbbrevLen = 6

// FormatMatrix renders the plot by stage status grid with a legend.
func FormatMatrix(resp *contract.MatrixResponse) string {
	headers := []string{"PLOT"}
	for _, s := range resp.Stages {
		headers = append(headers, abbreviate(s))
	}

	rows := make([][]string, 0, len(resp.Rows))
	for _, r := range resp.Rows {
		row := []string{Bold(r.Summary.Name)}
		for _, c := range r.Cells {
			row = append(row, matrixCell(c))
		}
		rows = append(rows, row)
	}

	var b strings.Builder
	b.WriteString(RenderTable(headers, rows))
	b.WriteString("\n")
	parts := make([]string, 0, len(domain.AllStageStatuses))
	for _, s := range domain.AllStageStatuses {
		parts = append(parts, StageStatusStyle(s).Render(fmt.Sprintf("%d %s", resp.Counts[s], s)))
	}
	b.WriteString(strings.Join(parts, ", ") + "\n")
	return b.String()
}

func matrixCell(c contract.MatrixCell) string {
	if c.Missing {
		return Dim("·")
	}
	switch c.Status {
	case domain.StageCompleted:
		return StageStatusStyle(c.Status).Render("✔")
	case domain.StageNotStarted:
		return StageStatusStyle(c.Status).Render("○")
	default:
		return StageStatusStyle(c.Status).Render(fmt.Sprintf("%d%%", c.Percentage))
	}
}

func abbreviate(name string) string {
	r := []rune(name)
	if len(r) <= stageAbbrevLen {
		return name
	}
	return string(r[:stageAbbrevLen-1]) + "…"
}
