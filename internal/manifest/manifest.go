// Package manifest parses dependency manifests (npm, pip, go) into a flat
// dependency list for classification. Parsing is content-based: the collector
// already read the file, so nothing here touches the filesystem.
package manifest

import (
	"bufio"
	"encoding/json"
	"fmt"
	"path"
	"strings"
)

// Dependency is a single declared dependency from a manifest
type Dependency struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	Ecosystem string `json:"ecosystem"` // npm, pip, go
}

// PackageJSON represents the structure of package.json
type PackageJSON struct {
	Name            string            `json:"name"`
	Version         string            `json:"version"`
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
}

// Parse dispatches on the manifest file name and returns its dependencies.
// An unrecognized manifest name yields no dependencies and no error: absence
// of a parser is not a defect in the repository being scanned.
func Parse(relPath string, content []byte) ([]Dependency, error) {
	switch strings.ToLower(path.Base(relPath)) {
	case "package.json":
		return parsePackageJSON(content)
	case "requirements.txt":
		return parseRequirementsTxt(content), nil
	case "pyproject.toml":
		return parsePyprojectToml(content), nil
	case "go.mod":
		return parseGoMod(content), nil
	case "pipfile":
		return parsePipfile(content), nil
	case "environment.yml", "environment.yaml":
		return parseCondaEnv(content), nil
	}
	return nil, nil
}

func parsePackageJSON(content []byte) ([]Dependency, error) {
	var pkg PackageJSON
	if err := json.Unmarshal(content, &pkg); err != nil {
		return nil, fmt.Errorf("failed to parse package.json: %w", err)
	}

	var deps []Dependency
	for name, version := range pkg.Dependencies {
		deps = append(deps, Dependency{Name: name, Version: version, Ecosystem: "npm"})
	}
	for name, version := range pkg.DevDependencies {
		deps = append(deps, Dependency{Name: name, Version: version, Ecosystem: "npm"})
	}
	return deps, nil
}

// parseRequirementsTxt handles the common requirement line forms:
// "name", "name==1.0", "name>=1.0", "name[extra]==1.0". Comment and option
// lines are skipped.
func parseRequirementsTxt(content []byte) []Dependency {
	var deps []Dependency
	scanner := bufio.NewScanner(strings.NewReader(string(content)))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "-") {
			continue
		}
		name, version := splitRequirement(line)
		if name == "" {
			continue
		}
		deps = append(deps, Dependency{Name: name, Version: version, Ecosystem: "pip"})
	}
	return deps
}

// splitRequirement separates "name[extras]==version ; markers" into name and version
func splitRequirement(line string) (string, string) {
	if idx := strings.Index(line, ";"); idx != -1 {
		line = strings.TrimSpace(line[:idx])
	}

	version := ""
	for _, op := range []string{"==", ">=", "<=", "~=", "!=", ">", "<"} {
		if idx := strings.Index(line, op); idx != -1 {
			version = strings.TrimSpace(line[idx+len(op):])
			line = strings.TrimSpace(line[:idx])
			break
		}
	}

	if idx := strings.Index(line, "["); idx != -1 {
		line = line[:idx]
	}
	return strings.ToLower(strings.TrimSpace(line)), version
}

// parsePyprojectToml extracts dependencies from [project] dependencies arrays
// and [tool.poetry.dependencies] tables. A full TOML parser is deliberately
// avoided: only the dependency sections matter and both are line-regular.
func parsePyprojectToml(content []byte) []Dependency {
	var deps []Dependency
	var inDepsArray, inPoetryTable bool

	scanner := bufio.NewScanner(strings.NewReader(string(content)))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		switch {
		case strings.HasPrefix(line, "dependencies") && strings.Contains(line, "["):
			inDepsArray = !strings.Contains(line, "]")
			// Inline array on one line
			if strings.Contains(line, "]") {
				for _, entry := range extractQuoted(line) {
					name, version := splitRequirement(entry)
					if name != "" {
						deps = append(deps, Dependency{Name: name, Version: version, Ecosystem: "pip"})
					}
				}
			}
			continue
		case strings.HasPrefix(line, "[tool.poetry.dependencies]"):
			inPoetryTable = true
			inDepsArray = false
			continue
		case strings.HasPrefix(line, "["):
			inPoetryTable = false
			inDepsArray = false
			continue
		}

		if inDepsArray {
			if strings.Contains(line, "]") {
				inDepsArray = false
			}
			for _, entry := range extractQuoted(line) {
				name, version := splitRequirement(entry)
				if name != "" {
					deps = append(deps, Dependency{Name: name, Version: version, Ecosystem: "pip"})
				}
			}
		}

		if inPoetryTable {
			parts := strings.SplitN(line, "=", 2)
			if len(parts) != 2 {
				continue
			}
			name := strings.ToLower(strings.TrimSpace(parts[0]))
			if name == "" || name == "python" {
				continue
			}
			deps = append(deps, Dependency{
				Name:      name,
				Version:   strings.Trim(strings.TrimSpace(parts[1]), `"'`),
				Ecosystem: "pip",
			})
		}
	}
	return deps
}

// extractQuoted returns all double- or single-quoted substrings in a line
func extractQuoted(line string) []string {
	var out []string
	for _, quote := range []byte{'"', '\''} {
		rest := line
		for {
			start := strings.IndexByte(rest, quote)
			if start == -1 {
				break
			}
			end := strings.IndexByte(rest[start+1:], quote)
			if end == -1 {
				break
			}
			out = append(out, rest[start+1:start+1+end])
			rest = rest[start+1+end+1:]
		}
		if len(out) > 0 {
			break
		}
	}
	return out
}

// parseGoMod extracts require directives, both single-line and block form
func parseGoMod(content []byte) []Dependency {
	var deps []Dependency
	inBlock := false

	scanner := bufio.NewScanner(strings.NewReader(string(content)))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if inBlock {
			if line == ")" {
				inBlock = false
				continue
			}
			if d, ok := parseGoModLine(line); ok {
				deps = append(deps, d)
			}
			continue
		}

		if line == "require (" {
			inBlock = true
			continue
		}
		if rest, ok := strings.CutPrefix(line, "require "); ok {
			if d, ok := parseGoModLine(rest); ok {
				deps = append(deps, d)
			}
		}
	}
	return deps
}

func parseGoModLine(line string) (Dependency, bool) {
	if idx := strings.Index(line, "//"); idx != -1 {
		line = strings.TrimSpace(line[:idx])
	}
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return Dependency{}, false
	}
	return Dependency{Name: fields[0], Version: fields[1], Ecosystem: "go"}, true
}

// parsePipfile extracts entries from [packages] and [dev-packages] tables
func parsePipfile(content []byte) []Dependency {
	var deps []Dependency
	inPackages := false

	scanner := bufio.NewScanner(strings.NewReader(string(content)))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if strings.HasPrefix(line, "[") {
			inPackages = line == "[packages]" || line == "[dev-packages]"
			continue
		}
		if !inPackages {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		name := strings.ToLower(strings.TrimSpace(parts[0]))
		if name == "" {
			continue
		}
		deps = append(deps, Dependency{
			Name:      strings.Trim(name, `"'`),
			Version:   strings.Trim(strings.TrimSpace(parts[1]), `"'`),
			Ecosystem: "pip",
		})
	}
	return deps
}

// parseCondaEnv extracts the dependencies list from a conda environment file.
// Entries are "  - name=version" or "  - name"; nested keys like "- pip:" are
// skipped, their package entries parse like any other list item.
func parseCondaEnv(content []byte) []Dependency {
	var deps []Dependency
	inDeps := false

	scanner := bufio.NewScanner(strings.NewReader(string(content)))
	for scanner.Scan() {
		raw := scanner.Text()
		line := strings.TrimSpace(raw)

		if strings.HasPrefix(line, "dependencies:") {
			inDeps = true
			continue
		}
		if inDeps && !strings.HasPrefix(raw, " ") && !strings.HasPrefix(raw, "-") {
			inDeps = false
		}
		if !inDeps || !strings.HasPrefix(line, "- ") {
			continue
		}

		entry := strings.TrimSpace(strings.TrimPrefix(line, "- "))
		if entry == "" || strings.HasSuffix(entry, ":") {
			continue
		}
		name, version := entry, ""
		if idx := strings.IndexAny(entry, "=<>"); idx != -1 {
			name = entry[:idx]
			version = strings.TrimLeft(entry[idx:], "=<>")
		}
		deps = append(deps, Dependency{
			Name:      strings.ToLower(name),
			Version:   version,
			Ecosystem: "pip",
		})
	}
	return deps
}
