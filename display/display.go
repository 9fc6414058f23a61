// Package display renders run results for a terminal.
package display

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"

	"sniprun/errors"
)

// Mode selects a renderer
type Mode string

const (
	// Classic prints output verbatim and errors as one styled line
	Classic Mode = "classic"
	// Terminal draws a bordered box around the result
	Terminal Mode = "terminal"
)

var (
	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("42")).
			Padding(0, 1)

	errorBoxStyle = boxStyle.
			BorderForeground(lipgloss.Color("196"))
)

// Options tune the rendering of one result
type Options struct {
	Mode  Mode
	Width int
	Title string
}

// ParseMode maps a configured mode name to a Mode, defaulting to Classic
func ParseMode(s string) Mode {
	if Mode(strings.ToLower(strings.TrimSpace(s))) == Terminal {
		return Terminal
	}
	return Classic
}

// Format renders the output of a run, or its failure
func Format(output string, err error, opts Options) string {
	if opts.Mode == Terminal {
		return formatTerminal(output, err, opts)
	}
	return formatClassic(output, err, opts)
}

// Summary is the line a user sees for a failed run
func Summary(err error) string {
	if err == nil {
		return ""
	}
	if execErr, ok := errors.AsExecutionError(err); ok {
		return execErr.Summary()
	}
	return err.Error()
}

func formatClassic(output string, err error, opts Options) string {
	if err != nil {
		return errorStyle.Render(wrap(Summary(err), opts.Width)) + "\n"
	}
	return output
}

func formatTerminal(output string, err error, opts Options) string {
	title := opts.Title
	if title == "" {
		title = "Result"
	}

	style := boxStyle
	body := strings.TrimRight(output, "\n")
	if err != nil {
		style = errorBoxStyle
		body = errorStyle.Render(Summary(err))
	}
	if body == "" {
		body = dimStyle.Render("(no output)")
	}

	// border and padding take four columns
	inner := opts.Width - 4
	content := dimStyle.Render(title) + "\n" + indent.String(wrap(body, inner-2), 2)
	return style.Render(content) + "\n"
}

func wrap(s string, width int) string {
	if width <= 0 {
		return s
	}
	return wordwrap.String(s, width)
}
