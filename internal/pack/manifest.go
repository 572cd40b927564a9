package pack

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/slok/packrun/internal/model"
)

var (
	commentRegexp = regexp.MustCompile(`(^|\s)#.*$`)

	requirementRegexp = func() *regexp.Regexp {
		const (
			name    = `[A-Za-z0-9](?:[A-Za-z0-9._-]*[A-Za-z0-9])?`
			extras  = `(?:\[\s*` + name + `(?:\s*,\s*` + name + `)*\s*\])?`
			clause  = `(?:===|==|!=|<=|>=|~=|<|>)\s*[A-Za-z0-9.*+!_-]+`
			clauses = `(?:` + clause + `(?:\s*,\s*` + clause + `)*)?`
			marker  = `(?:;\s*\S.*)?`
		)
		return regexp.MustCompile(`^(` + name + `)\s*` + extras + `\s*` + clauses + `\s*` + marker + `$`)
	}()

	nameNormalizer = strings.NewReplacer("_", "-", ".", "-")
)

// ParseManifest parses a dependency manifest with one requirement specifier per line.
// Blank lines and comments are ignored. Installer options, URLs and duplicated
// requirements make the manifest malformed.
func ParseManifest(r io.Reader) ([]string, error) {
	var reqs []string
	seen := map[string]int{}

	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(commentRegexp.ReplaceAllString(scanner.Text(), ""))
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "-") {
			return nil, fmt.Errorf("line %d: installer options are not allowed (%q): %w", lineNum, line, model.ErrNotValid)
		}

		match := requirementRegexp.FindStringSubmatch(line)
		if match == nil {
			return nil, fmt.Errorf("line %d: invalid requirement %q: %w", lineNum, line, model.ErrNotValid)
		}

		key := nameNormalizer.Replace(strings.ToLower(match[1]))
		if prev, ok := seen[key]; ok {
			return nil, fmt.Errorf("line %d: requirement %q already declared on line %d: %w", lineNum, match[1], prev, model.ErrNotValid)
		}
		seen[key] = lineNum

		reqs = append(reqs, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("could not read manifest: %w", err)
	}

	return reqs, nil
}
