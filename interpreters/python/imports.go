package python

import (
	"os"
	"strings"
)

// FetchImports returns the import lines of the file at path that fragment
// uses. The file is advisory: on a read error the error is returned with
// no imports and the caller carries on.
func FetchImports(path, fragment string) ([]string, error) {
	if path == "" {
		return nil, nil
	}
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var imports []string
	for _, line := range strings.Split(string(contents), "\n") {
		line = strings.TrimRight(line, "\r")
		if !strings.Contains(line, "import ") {
			continue
		}
		if strings.HasPrefix(strings.TrimSpace(line), "#") {
			continue
		}
		if ModuleUsed(line, fragment) {
			imports = append(imports, line)
		}
	}
	return imports, nil
}

// ModuleUsed reports whether an import line is referenced by code. Matching
// is substring containment on names, with no scoping:
//   - a wildcard import is always used
//   - "import x as y" is used when the alias y appears in code
//   - otherwise any imported or source name appearing in code counts
func ModuleUsed(line, code string) bool {
	if strings.Contains(line, "*") {
		return true
	}
	if strings.Contains(line, " as ") {
		fields := strings.Split(line, " ")
		return strings.Contains(code, fields[len(fields)-1])
	}

	replacer := strings.NewReplacer(",", " ", "from", " ", "import ", " ")
	for _, name := range strings.Fields(replacer.Replace(line)) {
		if strings.Contains(code, name) {
			return true
		}
	}
	return false
}
