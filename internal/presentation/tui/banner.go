package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/pipeforge/pkg/navigation"
	"github.com/muesli/termenv"
)

// PrintBanner writes the pipeforge ASCII banner to w.
func PrintBanner(w io.Writer) {
	o := termenv.NewOutput(w)
	lines := []struct{ text, color string }{
		{"        _            ___                    ", "#818cf8"},
		{"  _ __ (_)_ __   ___|  _|__  _ __ __ _  ___ ", "#a78bfa"},
		{" | '_ \\| | '_ \\ / _ \\ |_/ _ \\| '__/ _` |/ _ \\", "#c084fc"},
		{" | |_) | | |_) |  __/  _| (_) | | | (_| |  __/", "#e879f9"},
		{" | .__/|_| .__/ \\___|_|  \\___/|_|  \\__, |\\___|", "#f472b6"},
		{" |_|     |_|                       |___/     ", "#fb7185"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, o.String(l.text).Foreground(o.Color(l.color)))
	}
	fmt.Fprintln(w)
}

// Breadcrumbs renders the navigation trail root first. The current frame is
// highlighted.
func Breadcrumbs(o *termenv.Output, crumbs []navigation.Crumb) string {
	parts := make([]string, 0, len(crumbs))
	for i, c := range crumbs {
		label := c.Label
		if c.Icon != "" {
			label = c.Icon + " " + label
		}
		style := o.String(label)
		if i == len(crumbs)-1 {
			style = style.Bold().Foreground(o.Color("#c084fc"))
		} else {
			style = style.Faint()
		}
		parts = append(parts, style.String())
	}
	return strings.Join(parts, " > ")
}
