package env

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"
)

var envKeyRegexp = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ParseSpecs parses `KEY=VALUE` environment specs. A bare `KEY` takes its
// value from the current process environment.
func ParseSpecs(specs []string) (map[string]string, error) {
	env := make(map[string]string, len(specs))

	for _, spec := range specs {
		if spec == "" {
			return nil, fmt.Errorf("environment variable spec cannot be empty")
		}

		if key, value, ok := strings.Cut(spec, "="); ok {
			if !isValidKey(key) {
				return nil, fmt.Errorf("invalid environment variable key %q", key)
			}

			env[key] = value
			continue
		}

		if !isValidKey(spec) {
			return nil, fmt.Errorf("invalid environment variable key %q", spec)
		}

		value, ok := os.LookupEnv(spec)
		if !ok {
			return nil, fmt.Errorf("environment variable %q is not set", spec)
		}

		env[spec] = value
	}

	return env, nil
}

// ParseParams builds action parameters from a JSON object and `key=value` specs,
// specs override keys of the JSON object. Spec values that are valid JSON are
// decoded (`count=3`, `force=true`, `tags=["a"]`), anything else is kept as a string.
func ParseParams(jsonParams string, specs []string) (map[string]any, error) {
	params := map[string]any{}

	if strings.TrimSpace(jsonParams) != "" {
		if err := json.Unmarshal([]byte(jsonParams), &params); err != nil {
			return nil, fmt.Errorf("params JSON must be an object: %w", err)
		}
		// `null` decodes into a nil map.
		if params == nil {
			params = map[string]any{}
		}
	}

	for _, spec := range specs {
		key, value, ok := strings.Cut(spec, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid param %q, must be key=value", spec)
		}

		var decoded any
		if err := json.Unmarshal([]byte(value), &decoded); err != nil {
			decoded = value
		}
		params[key] = decoded
	}

	return params, nil
}

func isValidKey(k string) bool {
	return envKeyRegexp.MatchString(k)
}
