package ui

import "fmt"

// ANSI256 color codes.
const (
	colorAccent   = 74  // blue
	colorMuted    = 245 // medium gray
	colorWaiting  = 222 // amber
	colorInGame   = 114 // green
	colorFinished = 250 // light gray
	colorReboot   = 203 // red
)

var noColor bool

func render(color int, s string) string {
	if noColor {
		return s
	}
	return fmt.Sprintf("\x1b[38;5;%dm%s\x1b[0m", color, s)
}

// RenderAccent returns s in the accent (blue) color.
func RenderAccent(s string) string {
	return render(colorAccent, s)
}

// RenderMuted returns s in the muted (gray) color.
func RenderMuted(s string) string {
	return render(colorMuted, s)
}

// RenderStatus colors a session lifecycle status by its phase.
func RenderStatus(status string) string {
	switch status {
	case "waiting_for_players":
		return render(colorWaiting, status)
	case "in_game":
		return render(colorInGame, status)
	case "finished":
		return render(colorFinished, status)
	case "rebooting":
		return render(colorReboot, status)
	default:
		return status
	}
}

// ForceNoColor disables color output globally.
func ForceNoColor() {
	noColor = true
}
