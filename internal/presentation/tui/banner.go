package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

var bannerLines = []string{
	"             _ _      _           _   ",
	"  _ __ __ _ (_) | ___| |__   __ _| |_ ",
	" | '__/ _` || | |/ __| '_ \\ / _` | __|",
	" | | | (_| || | | (__| | | | (_| | |_ ",
	" |_|  \\__,_||_|_|\\___|_| |_|\\__,_|\\__|",
}

var bannerColors = []string{"#22c55e", "#10b981", "#14b8a6", "#06b6d4", "#0ea5e9"}

// PrintBanner writes the railchat banner and version to w, coloured for the terminal.
func PrintBanner(w io.Writer, version string) {
	p := termenv.ColorProfile()
	fmt.Fprintln(w)
	for i, line := range bannerLines {
		fmt.Fprintln(w, termenv.String(line).Foreground(p.Color(bannerColors[i])))
	}
	fmt.Fprintln(w, termenv.String("  railchat "+version+" - type quit to leave").Faint())
	fmt.Fprintln(w)
}
