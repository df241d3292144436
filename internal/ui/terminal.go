package ui

import (
	"os"
	"strings"

	"golang.org/x/term"
)

// ShouldUseColor reports whether status output should use ANSI color.
// Precedence: NO_COLOR disables, then CLICOLOR_FORCE=1 forces, then
// CLICOLOR=0 disables, then stdout TTY detection decides.
func ShouldUseColor() bool {
	if os.Getenv("NO_COLOR") != "" { // https://no-color.org
		return false
	}
	switch {
	case envSetting("CLICOLOR_FORCE") == "1":
		return true
	case envSetting("CLICOLOR") == "0":
		return false
	}
	return term.IsTerminal(int(os.Stdout.Fd()))
}

func envSetting(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}
