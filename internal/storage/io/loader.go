package io

import (
	"context"
	"fmt"
	"io/fs"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"

	"github.com/slok/packrun/internal/model"
)

// PackMetadataYAMLRepository loads pack metadata from YAML files.
type PackMetadataYAMLRepository struct {
	fs fs.FS
}

// NewPackMetadataYAMLRepository creates a new YAML pack metadata repository.
func NewPackMetadataYAMLRepository(filesystem fs.FS) *PackMetadataYAMLRepository {
	return &PackMetadataYAMLRepository{fs: filesystem}
}

// GetPackMetadata loads the pack metadata from a YAML file and returns a validated domain model.
func (r *PackMetadataYAMLRepository) GetPackMetadata(ctx context.Context, path string) (*model.PackMetadata, error) {
	data, err := fs.ReadFile(r.fs, path)
	if err != nil {
		return nil, fmt.Errorf("reading pack metadata file: %w", err)
	}

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var md PackMetadata
	if err := yaml.Unmarshal(data, &md); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w: %w", err, model.ErrNotValid)
	}

	if err := md.validate(); err != nil {
		return nil, fmt.Errorf("invalid pack metadata: %w: %w", err, model.ErrNotValid)
	}

	return md.toModel(), nil
}

// PackMetadata represents the YAML structure of the pack metadata file.
type PackMetadata struct {
	Name        string `yaml:"name"`
	Ref         string `yaml:"ref"`
	Description string `yaml:"description"`
	Version     string `yaml:"version"`
	Author      string `yaml:"author"`
}

func (m PackMetadata) validate() error {
	if m.Name == "" && m.Ref == "" {
		return fmt.Errorf("name or ref is required")
	}

	if m.Ref != "" {
		if err := model.ValidatePackName(m.Ref); err != nil {
			return fmt.Errorf("ref: %w", err)
		}
	}

	if m.Version != "" {
		if _, err := semver.NewVersion(m.Version); err != nil {
			return fmt.Errorf("version %q is not semver: %w", m.Version, err)
		}
	}

	return nil
}

func (m PackMetadata) toModel() *model.PackMetadata {
	return &model.PackMetadata{
		Name:        m.Name,
		Ref:         m.Ref,
		Description: m.Description,
		Version:     m.Version,
		Author:      m.Author,
	}
}
