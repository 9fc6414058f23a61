package interpreter

import (
	"fmt"
	"strings"
)

// SupportLevel describes how much source context an interpreter consumes.
// Levels form a total order; Selected outranks every automatic level.
type SupportLevel int

const (
	Unsupported SupportLevel = iota
	Line
	Bloc
	File
	Import
	Selected
)

var levelNames = [...]string{
	Unsupported: "Unsupported",
	Line:        "Line",
	Bloc:        "Bloc",
	File:        "File",
	Import:      "Import",
	Selected:    "Selected",
}

// Levels lists every level in ascending order
func Levels() []SupportLevel {
	return []SupportLevel{Unsupported, Line, Bloc, File, Import, Selected}
}

func (l SupportLevel) String() string {
	if l < Unsupported || l > Selected {
		return fmt.Sprintf("SupportLevel(%d)", int(l))
	}
	return levelNames[l]
}

// AtLeast reports whether l is l2 or richer
func (l SupportLevel) AtLeast(l2 SupportLevel) bool {
	return l >= l2
}

// ParseSupportLevel reads a level name, case-insensitively
func ParseSupportLevel(s string) (SupportLevel, error) {
	for i, name := range levelNames {
		if strings.EqualFold(strings.TrimSpace(s), name) {
			return SupportLevel(i), nil
		}
	}
	return Unsupported, fmt.Errorf("unknown support level %q", s)
}
