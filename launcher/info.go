package launcher

import (
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"sniprun/factory"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1)

	cellStyle = lipgloss.NewStyle().
			Padding(0, 1)

	missingStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Foreground(lipgloss.Color("196"))
)

var infoColumns = []string{
	"name", "language", "highest support level", "default for filetype",
	"repl capability", "repl by default", "static analysis", "toolchain",
}

// Info renders the current selection and a table of every interpreter,
// sorted by name.
func (l *Launcher) Info() string {
	var b strings.Builder
	b.WriteString(l.Selection())
	b.WriteString("\n\n")
	b.WriteString(InfoTable(l.registry))
	b.WriteString("\n")
	return b.String()
}

// InfoTable renders the capability table of a registry
func InfoTable(registry *factory.Registry) string {
	descs := registry.Descriptors()
	sort.Slice(descs, func(i, j int) bool { return descs[i].Name < descs[j].Name })

	title := cases.Title(language.Und)
	headers := make([]string, len(infoColumns))
	for i, c := range infoColumns {
		headers[i] = title.String(c)
	}

	missing := make(map[int]bool)
	rows := make([][]string, 0, len(descs))
	for i, d := range descs {
		toolchain := "built-in"
		if d.Toolchain != "" {
			toolchain = d.Toolchain
			if err := factory.ValidateEnvironment(d); err != nil {
				toolchain += " (missing)"
				missing[i] = true
			}
		}
		rows = append(rows, []string{
			d.Name,
			d.PrimaryFiletype(),
			d.MaxLevel.String(),
			yesNo(d.DefaultForFiletype),
			yesNo(d.HasRepl),
			yesNo(d.ReplByDefault),
			yesNo(d.HasStaticAnalysis),
			toolchain,
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == len(infoColumns)-1 && missing[row]:
				return missingStyle
			default:
				return cellStyle
			}
		})
	return t.String()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
