package model

import (
	"fmt"
	"regexp"
	"time"
)

// PackNameMaxLength is the maximum length of a pack name.
const PackNameMaxLength = 64

var packNameRegexp = regexp.MustCompile(`^[a-z0-9_-]+$`)

// Pack is a named bundle of actions and their declared dependencies.
type Pack struct {
	Name string
	// Path is the pack root directory.
	Path string
	// ActionsPath is the directory that holds the action scripts.
	ActionsPath string
	// ManifestPath is the dependency manifest, it may not exist on disk.
	ManifestPath string
	// Metadata is loaded from the pack metadata file, nil when the pack has none.
	Metadata *PackMetadata
}

// PackMetadata is the optional descriptive information of a pack.
type PackMetadata struct {
	Name        string
	Ref         string
	Description string
	Version     string
	Author      string
}

// ValidatePackName checks a pack name against the pack naming rule.
func ValidatePackName(name string) error {
	if name == "" {
		return fmt.Errorf("pack name is required: %w", ErrNotValid)
	}
	if len(name) > PackNameMaxLength {
		return fmt.Errorf("pack name %q exceeds %d characters: %w", name, PackNameMaxLength, ErrNotValid)
	}
	if !packNameRegexp.MatchString(name) {
		return fmt.Errorf("pack name %q must match %s: %w", name, packNameRegexp, ErrNotValid)
	}
	return nil
}

// Environment is the isolated dependency environment owned by a single pack.
type Environment struct {
	Pack string
	// Path is the environment root, <base>/virtualenvs/<pack>.
	Path string
	// LibraryPath is the installed dependency library directory.
	LibraryPath string
	// Requirements are the dependency specifiers installed in the environment.
	Requirements []string
	// ManifestDigest is the sha256 of the normalized requirements.
	ManifestDigest string
	CreatedAt      time.Time
}
