package formatter

import (
	"fmt"
	"strings"
)

const (
	filledBlock = "█"
	emptyBlock  = "░"
)

// RenderProgress renders a completion bar like [████░░░░]  45%.
func RenderProgress(pct int, width int) string {
	return fmt.Sprintf("[%s] %3d%%", RenderCompactBar(pct, width), clampPct(pct))
}

// RenderCompactBar renders only the blocks, for table cells.
func RenderCompactBar(pct int, width int) string {
	pct = clampPct(pct)
	if width < 2 {
		width = 2
	}
	filled := pct * width / 100
	bar := strings.Repeat(filledBlock, filled) + strings.Repeat(emptyBlock, width-filled)

	style := StyleGreen
	switch {
	case pct == 100:
		style = StyleBlue
	case pct < 33:
		style = StyleDim
	case pct < 66:
		style = StyleYellow
	}
	return style.Render(bar)
}

func clampPct(pct int) int {
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}
