package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the bookflow banner and version to w.
func PrintBanner(w io.Writer, version string) {
	p := termenv.ColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{" _                 _     __ _", "#34d399"},
		{"| |__   ___   ___ | | __/ _| | _____      __", "#2dd4bf"},
		{"| '_ \\ / _ \\ / _ \\| |/ / |_| |/ _ \\ \\ /\\ / /", "#22d3ee"},
		{"| |_) | (_) | (_) |   <|  _| | (_) \\ V  V /", "#38bdf8"},
		{"|_.__/ \\___/ \\___/|_|\\_\\_| |_|\\___/ \\_/\\_/", "#60a5fa"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w, termenv.String("  version "+version).Faint())
	fmt.Fprintln(w)
}
