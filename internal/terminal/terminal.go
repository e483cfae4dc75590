// Package terminal holds the few raw-terminal concerns bubbletea does
// not cover.
package terminal

import "os"

type Capabilities struct {
	SupportsRGB bool
}

func DetectCapabilities() *Capabilities {
	caps := &Capabilities{SupportsRGB: true}
	// COLORTERM is the de facto truecolor signal; absent it, lipgloss
	// degrades to 256 colors on its own, so RGB stays the default.
	// TERM=dumb and Terminal.app genuinely cannot do truecolor.
	if os.Getenv("TERM") == "dumb" || os.Getenv("TERM_PROGRAM") == "Apple_Terminal" {
		caps.SupportsRGB = false
	}
	return caps
}

// Reset restores cursor, attributes, alt screen, and mouse reporting.
// Called on the way out in case the TUI died mid-frame.
func Reset() {
	os.Stdout.WriteString("\033[?25h")
	os.Stdout.WriteString("\033[0m")
	os.Stdout.WriteString("\033[?1049l")
	os.Stdout.WriteString("\033[?1000l")
	os.Stdout.WriteString("\033[?1002l")
	os.Stdout.WriteString("\033[?1003l")
	os.Stdout.WriteString("\033[?1006l")
	os.Stdout.Sync()
}
