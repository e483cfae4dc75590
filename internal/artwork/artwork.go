// Package artwork fetches cover images and derives the UI color palette
// from them.
package artwork

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/EdlinOrg/prominentcolor"
	"github.com/charmbracelet/lipgloss"
	"github.com/nfnt/resize"

	"github.com/slowverb/slowverb/internal/colors"
)

const gradientSteps = 20

type Palette struct {
	Primary   string
	Secondary string
	Accent    string
	Dim       string
	Gradient  []string
}

// Fetch loads the cover image from a file:// or http(s) URL, as delivered
// in MPRIS metadata.
func Fetch(artworkURL string) (image.Image, error) {
	if artworkURL == "" {
		return nil, errors.New("empty artwork url")
	}

	if path, ok := strings.CutPrefix(artworkURL, "file://"); ok {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening artwork file: %w", err)
		}
		defer f.Close()
		img, _, err := image.Decode(f)
		if err != nil {
			return nil, fmt.Errorf("decoding artwork: %w", err)
		}
		return img, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, artworkURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching artwork: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("artwork fetch returned status %d", resp.StatusCode)
	}
	img, _, err := image.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("decoding artwork: %w", err)
	}
	return img, nil
}

// ExtractPalette derives display colors from the cover via k-means. Any
// failure falls back to the default palette, never to an error.
func ExtractPalette(img image.Image) *Palette {
	if img == nil {
		return DefaultPalette()
	}

	prominent, err := prominentcolor.KmeansWithAll(5, img, prominentcolor.ArgumentDefault, prominentcolor.DefaultSize, nil)
	if err != nil || len(prominent) < 3 {
		return DefaultPalette()
	}

	type scored struct {
		hex   string
		score float64
	}

	// favor saturated colors of medium brightness: those survive both as
	// text foreground and as gradient stops
	ranked := make([]scored, 0, len(prominent))
	for _, c := range prominent {
		r := float64(c.Color.R) / 255
		g := float64(c.Color.G) / 255
		b := float64(c.Color.B) / 255

		brightness := math.Max(math.Max(r, g), b)
		var sat float64
		if brightness > 0 {
			sat = (brightness - math.Min(math.Min(r, g), b)) / brightness
		}

		hex := colors.RGBToHex(int(c.Color.R), int(c.Color.G), int(c.Color.B))
		if brightness < 0.4 {
			hex = colors.AdjustBrightness(hex, math.Min(0.4/brightness, 2.5))
		}
		ranked = append(ranked, scored{hex: hex, score: sat * (1 - math.Abs(brightness-0.6))})
	}
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	primary, secondary, accent := ranked[0].hex, ranked[1].hex, ranked[2].hex
	if colors.Lightness(secondary) > colors.Lightness(primary) {
		primary, secondary = secondary, primary
	}

	return &Palette{
		Primary:   primary,
		Secondary: secondary,
		Accent:    accent,
		Dim:       "#6272A4",
		Gradient:  colors.Gradient(primary, secondary, gradientSteps),
	}
}

func DefaultPalette() *Palette {
	return &Palette{
		Primary:   "#8BA4E8",
		Secondary: "#E8A4C8",
		Accent:    "#B8A8E8",
		Dim:       "#6272A4",
		Gradient:  colors.Gradient("#8BA4E8", "#E8A4C8", gradientSteps),
	}
}

// RenderHalfBlockArt draws the cover as colored half-block cells, two
// image rows per terminal row.
func RenderHalfBlockArt(img image.Image, targetWidth, targetHeight int) []string {
	if img == nil || targetWidth < 4 || targetHeight < 2 {
		return nil
	}

	resized := resize.Resize(uint(targetWidth), uint(targetHeight*2), img, resize.Lanczos3)
	bounds := resized.Bounds()

	lines := make([]string, targetHeight)
	for y := range lines {
		var line strings.Builder
		topY := y * 2

		for x := 0; x < bounds.Dx(); x++ {
			top := cellColor(resized, bounds, x, topY)
			bottom := top
			if topY+1 < bounds.Dy() {
				bottom = cellColor(resized, bounds, x, topY+1)
			}
			if top == "" && bottom == "" {
				line.WriteString(" ")
				continue
			}

			style := lipgloss.NewStyle().
				Foreground(lipgloss.Color(top)).
				Background(lipgloss.Color(bottom))
			line.WriteString(style.Render("▀"))
		}
		lines[y] = line.String()
	}
	return lines
}

// cellColor returns the pixel as a hex color, empty for transparent.
func cellColor(img image.Image, bounds image.Rectangle, x, y int) string {
	r, g, b, a := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
	if a>>8 < 128 {
		return ""
	}
	return colors.RGBToHex(int(r>>8), int(g>>8), int(b>>8))
}
