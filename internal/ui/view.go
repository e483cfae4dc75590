package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/common-nighthawk/go-figure"

	"github.com/slowverb/slowverb/internal/align"
	"github.com/slowverb/slowverb/internal/artwork"
	"github.com/slowverb/slowverb/internal/colors"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	width, height := m.width, m.height
	if width == 0 {
		width = 80
	}
	if height == 0 {
		height = 24
	}

	if m.update.Status == align.StatusNoTrack {
		return m.renderIdleScreen(width, height)
	}
	return m.renderMainScreen(width, height)
}

// renderIdleScreen shows the banner while no media session is around.
func (m Model) renderIdleScreen(width, height int) string {
	banner := figure.NewFigure("slowverb", "", true).Slicify()
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.palette.Dim))

	lines := make([]string, 0, height)
	startY := height/2 - len(banner)/2 - 1
	for y := 0; y < height; y++ {
		switch {
		case y >= startY && y-startY < len(banner):
			text := banner[y-startY]
			lines = append(lines, centerText(dimStyle.Render(text), len(text), width))
		case y == startY+len(banner)+1:
			text := "awaiting music"
			style := lipgloss.NewStyle().Foreground(lipgloss.Color(m.palette.Secondary)).Italic(true)
			lines = append(lines, centerText(style.Render(text), len(text), width))
		case y == startY+len(banner)+2:
			pulse := []string{"·", "•", "●", "•"}
			dot := pulse[(m.tickCount/4)%len(pulse)]
			lines = append(lines, centerText(dimStyle.Render(dot), 1, width))
		default:
			lines = append(lines, "")
		}
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderMainScreen(width, height int) string {
	var lines []string

	if !m.hideHeader {
		lines = append(lines, m.renderHeader(width)...)
	}

	bodyHeight := height - len(lines)
	switch m.update.Status {
	case align.StatusResolving:
		lines = append(lines, m.renderCenteredStatus(bodyHeight, width, m.spinnerLine())...)
	case align.StatusNotFound:
		dim := lipgloss.NewStyle().Foreground(lipgloss.Color(m.palette.Dim))
		lines = append(lines, m.renderCenteredStatus(bodyHeight, width, dim.Render("♪"))...)
	case align.StatusReady:
		lines = append(lines, m.renderSlidingLyrics(bodyHeight, width)...)
	}

	for len(lines) < height {
		lines = append(lines, "")
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	return strings.Join(lines, "\n")
}

func (m Model) spinnerLine() string {
	frame := spinnerFrames[m.tickCount%len(spinnerFrames)]
	spinnerStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.palette.Secondary))
	textStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.palette.Dim))
	return spinnerStyle.Render(frame) + textStyle.Render(" matching lyrics")
}

func (m Model) renderCenteredStatus(height, width int, text string) []string {
	lines := make([]string, 0, height)
	for i := 0; i < height/2-1; i++ {
		lines = append(lines, "")
	}
	lines = append(lines, centerText(text, lipgloss.Width(text), width))
	return lines
}

func (m Model) renderHeader(width int) []string {
	snap := m.lastSnapshot
	if snap == nil {
		return nil
	}

	lines := []string{""}

	artWidth, artHeight := 12, 6
	if width < 80 {
		artWidth, artHeight = 8, 4
	}
	if width < 50 || m.height < 25 {
		artWidth, artHeight = 0, 0
	}

	artLines := []string(nil)
	if artWidth > 0 {
		artLines = m.renderArt(artWidth, artHeight)
	}
	infoLines := m.renderTrackInfo(width)

	rows := len(infoLines)
	if len(artLines) > rows {
		rows = len(artLines)
	}
	for i := 0; i < rows; i++ {
		var row strings.Builder
		if artWidth > 0 {
			if i < len(artLines) {
				row.WriteString("  " + artLines[i] + "  ")
			} else {
				row.WriteString(strings.Repeat(" ", artWidth+4))
			}
		}
		if i < len(infoLines) {
			row.WriteString(infoLines[i])
		}
		lines = append(lines, row.String())
	}

	lines = append(lines, "")
	if snap.DurationSeconds > 0 {
		lines = append(lines, m.renderProgress(width))
	}
	lines = append(lines, "")
	return lines
}

func (m Model) renderArt(artWidth, artHeight int) []string {
	return artwork.RenderHalfBlockArt(m.image, artWidth, artHeight)
}

func (m Model) renderTrackInfo(width int) []string {
	snap := m.lastSnapshot

	maxWidth := width - 20
	if maxWidth < 20 {
		maxWidth = 20
	}
	truncate := func(s string) string {
		if len(s) > maxWidth {
			return s[:maxWidth-1] + "…"
		}
		return s
	}

	titleStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.palette.Primary)).Bold(true)
	artistStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.palette.Secondary))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.palette.Dim))

	lines := []string{
		titleStyle.Render(truncate(snap.RawTitle)),
		artistStyle.Render(truncate(snap.RawArtist)),
	}
	if snap.RawAlbum != "" {
		lines = append(lines, dimStyle.Render(truncate(snap.RawAlbum)))
	}
	if badge := m.renderScaleBadge(); badge != "" {
		lines = append(lines, badge)
	}
	return lines
}

// renderScaleBadge shows how the lyric timeline was stretched for this
// edit, and flags dubious matches.
func (m Model) renderScaleBadge() string {
	if m.update.Status != align.StatusReady || m.update.ScaleFactor == 0 {
		return ""
	}

	accentStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.palette.Accent))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.palette.Dim))

	badge := accentStyle.Render(fmt.Sprintf("×%.2f", m.update.ScaleFactor))
	if m.update.LowConfidence {
		warnStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
		badge += warnStyle.Render(" ?")
	}
	if m.update.FromCache {
		badge += dimStyle.Render(" · cached")
	}
	if offset := m.loop.SyncOffset(); offset != 0 {
		badge += dimStyle.Render(fmt.Sprintf(" · %+.1fs", offset))
	}
	return badge
}

func (m Model) renderProgress(width int) string {
	snap := m.lastSnapshot

	barWidth := width - 20
	if barWidth < 20 {
		barWidth = 20
	}

	progress := snap.PositionSeconds / snap.DurationSeconds
	if progress > 1 {
		progress = 1
	}
	if progress < 0 {
		progress = 0
	}
	filled := int(float64(barWidth) * progress)

	filledStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.palette.Primary))
	emptyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.palette.Dim)).Faint(true)

	var bar strings.Builder
	for i := 0; i < barWidth; i++ {
		switch {
		case i < filled:
			bar.WriteString(filledStyle.Render("━"))
		case i == filled:
			bar.WriteString(filledStyle.Render("●"))
		default:
			bar.WriteString(emptyStyle.Render("─"))
		}
	}

	timeStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.palette.Dim))
	return fmt.Sprintf("  %s  %s  %s",
		timeStyle.Render(colors.FormatTime(snap.PositionSeconds)),
		bar.String(),
		timeStyle.Render(colors.FormatTime(snap.DurationSeconds)))
}

func (m Model) renderSlidingLyrics(height, width int) []string {
	lyrics := m.loop.Lyrics()
	if lyrics == nil {
		return nil
	}
	all := lyrics.Lines
	current := m.update.LineIndex

	output := make([]string, height)

	contextCount := 2
	if height < 14 {
		contextCount = 1
	}

	type placed struct {
		lines   []string
		isFocus bool
	}

	var block []placed
	focusAt := -1
	for offset := -contextCount; offset <= contextCount; offset++ {
		idx := current + offset
		if idx < 0 || idx >= len(all) {
			continue
		}
		text := all[idx].Text
		if text == "" {
			text = "···"
		}

		if offset == 0 {
			focusAt = len(block)
			block = append(block, placed{lines: m.renderFocusLine(text, width), isFocus: true})
		} else {
			dist := offset
			if dist < 0 {
				dist = -dist
			}
			brightness := 0.6 - float64(dist-1)*0.15
			block = append(block, placed{lines: m.renderContextLine(text, width, brightness)})
		}
	}
	if focusAt < 0 {
		// before the first line: show what's coming, dimmed
		if m.update.Next != "" {
			block = append(block, placed{lines: m.renderContextLine(m.update.Next, width, 0.5)})
			focusAt = 0
		} else {
			return output
		}
	}

	const spacing = 1
	focusHeight := len(block[focusAt].lines)
	centerY := (height - focusHeight) / 2
	if centerY < 0 {
		centerY = 0
	}

	positions := make([]int, len(block))
	positions[focusAt] = centerY
	y := centerY
	for i := focusAt - 1; i >= 0; i-- {
		y -= len(block[i].lines) + spacing
		positions[i] = y
	}
	y = centerY + focusHeight + spacing
	for i := focusAt + 1; i < len(block); i++ {
		positions[i] = y
		y += len(block[i].lines) + spacing
	}

	// the block starts a slot lower right after a line change and eases
	// up into place; context first, focus last so it wins overlaps
	slide := int((1 - m.animState.SlideOffset()) * float64(focusHeight+spacing))
	for pass := 0; pass < 2; pass++ {
		for i, b := range block {
			if b.isFocus != (pass == 1) {
				continue
			}
			for j, line := range b.lines {
				row := positions[i] + j + slide
				if row >= 0 && row < height && (output[row] == "" || b.isFocus) {
					output[row] = line
				}
			}
		}
	}
	return output
}

func (m Model) renderFocusLine(text string, width int) []string {
	wrapped := wrapText(text, width-8)
	out := make([]string, 0, len(wrapped))
	for _, line := range wrapped {
		var rendered string
		if m.rgbCapable() {
			rendered = colors.RenderGradientText(line, m.palette.Gradient, true)
		} else {
			rendered = lipgloss.NewStyle().
				Foreground(lipgloss.Color(m.palette.Primary)).
				Bold(true).
				Render(line)
		}
		out = append(out, centerText(rendered, len([]rune(line)), width))
	}
	return out
}

func (m Model) renderContextLine(text string, width int, brightness float64) []string {
	color := colors.AdjustBrightness(m.palette.Dim, brightness+0.4)
	style := lipgloss.NewStyle().Foreground(lipgloss.Color(color))

	wrapped := wrapText(text, width-8)
	out := make([]string, 0, len(wrapped))
	for _, line := range wrapped {
		out = append(out, centerText(style.Render(line), len([]rune(line)), width))
	}
	return out
}

func wrapText(text string, maxWidth int) []string {
	if maxWidth < 10 {
		maxWidth = 10
	}
	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{text}
	}

	var lines []string
	var current strings.Builder
	for _, word := range words {
		if current.Len() > 0 && current.Len()+1+len([]rune(word)) > maxWidth {
			lines = append(lines, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(word)
	}
	if current.Len() > 0 {
		lines = append(lines, current.String())
	}
	return lines
}

func centerText(text string, visualWidth, screenWidth int) string {
	padding := (screenWidth - visualWidth) / 2
	if padding < 0 {
		padding = 0
	}
	return strings.Repeat(" ", padding) + text
}

