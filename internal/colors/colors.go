// Package colors has the small color math the renderer needs: hex
// parsing, gradients, and per-rune gradient text.
package colors

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func HexToRGB(hex string) (int, int, int) {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) != 6 {
		return 255, 255, 255
	}
	parse := func(s string) int {
		v, err := strconv.ParseInt(s, 16, 64)
		if err != nil {
			return 255
		}
		return int(v)
	}
	return parse(hex[0:2]), parse(hex[2:4]), parse(hex[4:6])
}

func RGBToHex(r, g, b int) string {
	return fmt.Sprintf("#%02X%02X%02X", clamp(r), clamp(g), clamp(b))
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}

// Blend mixes two colors, t in [0, 1] from the first to the second.
func Blend(hex1, hex2 string, t float64) string {
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	r1, g1, b1 := HexToRGB(hex1)
	r2, g2, b2 := HexToRGB(hex2)
	return RGBToHex(
		int(float64(r1)+t*float64(r2-r1)+0.5),
		int(float64(g1)+t*float64(g2-g1)+0.5),
		int(float64(b1)+t*float64(b2-b1)+0.5),
	)
}

// Gradient interpolates between two colors in the given number of steps.
func Gradient(startHex, endHex string, steps int) []string {
	if steps < 2 {
		steps = 2
	}
	out := make([]string, steps)
	for i := range out {
		out[i] = Blend(startHex, endHex, float64(i)/float64(steps-1))
	}
	return out
}

// AdjustBrightness scales a color toward black (factor < 1) or
// white-clipped brightness (factor > 1).
func AdjustBrightness(hex string, factor float64) string {
	r, g, b := HexToRGB(hex)
	return RGBToHex(
		int(float64(r)*factor),
		int(float64(g)*factor),
		int(float64(b)*factor),
	)
}

// Lightness returns perceived lightness on a 0-100 scale.
func Lightness(hex string) float64 {
	r, g, b := HexToRGB(hex)
	luma := 0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)
	return luma / 255 * 100
}

// RenderGradientText colors each rune of text along the gradient.
func RenderGradientText(text string, gradient []string, bold bool) string {
	if len(text) == 0 {
		return ""
	}
	if len(gradient) == 0 {
		return text
	}

	runes := []rune(text)
	var result strings.Builder
	for i, r := range runes {
		idx := 0
		if len(runes) > 1 {
			idx = i * (len(gradient) - 1) / (len(runes) - 1)
		}
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(gradient[idx]))
		if bold {
			style = style.Bold(true)
		}
		result.WriteString(style.Render(string(r)))
	}
	return result.String()
}

// FormatTime renders seconds as m:ss for the progress display.
func FormatTime(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		return "0:00"
	}
	whole := int(seconds)
	return fmt.Sprintf("%d:%02d", whole/60, whole%60)
}
