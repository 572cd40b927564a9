package pack

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/slok/packrun/internal/conventions"
	"github.com/slok/packrun/internal/log"
	"github.com/slok/packrun/internal/model"
	storageio "github.com/slok/packrun/internal/storage/io"
)

// Registry resolves pack names into packs.
type Registry interface {
	GetPack(ctx context.Context, name string) (*model.Pack, error)
}

// MetadataRepository loads pack metadata files.
type MetadataRepository interface {
	GetPackMetadata(ctx context.Context, path string) (*model.PackMetadata, error)
}

// FSRegistryConfig is the configuration for the filesystem pack registry.
type FSRegistryConfig struct {
	// PacksPath is the directory where every pack lives in its own subdirectory. Required.
	PacksPath string
	// MetadataRepository defaults to a YAML repository rooted at PacksPath.
	MetadataRepository MetadataRepository
	Logger             log.Logger
}

func (c *FSRegistryConfig) defaults() error {
	if c.PacksPath == "" {
		return fmt.Errorf("packs path is required")
	}
	if c.MetadataRepository == nil {
		c.MetadataRepository = storageio.NewPackMetadataYAMLRepository(os.DirFS(c.PacksPath))
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "pack.FSRegistry"})
	return nil
}

// FSRegistry resolves packs from a directory on disk:
//
//	<packs_path>/<pack>/pack.yaml          (optional)
//	<packs_path>/<pack>/requirements.txt   (optional)
//	<packs_path>/<pack>/actions/
type FSRegistry struct {
	packsPath string
	mdRepo    MetadataRepository
	logger    log.Logger
}

// NewFSRegistry returns a new filesystem pack registry.
func NewFSRegistry(cfg FSRegistryConfig) (*FSRegistry, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &FSRegistry{
		packsPath: cfg.PacksPath,
		mdRepo:    cfg.MetadataRepository,
		logger:    cfg.Logger,
	}, nil
}

// GetPack returns the pack with the given name.
func (r *FSRegistry) GetPack(ctx context.Context, name string) (*model.Pack, error) {
	if err := model.ValidatePackName(name); err != nil {
		return nil, err
	}

	packPath := conventions.PackPath(r.packsPath, name)
	st, err := os.Stat(packPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("pack %s: %w", name, model.ErrNotFound)
		}
		return nil, fmt.Errorf("could not stat pack %s: %w", name, err)
	}
	if !st.IsDir() {
		return nil, fmt.Errorf("pack %s is not a directory: %w", name, model.ErrNotValid)
	}

	p := &model.Pack{
		Name:         name,
		Path:         packPath,
		ActionsPath:  filepath.Join(packPath, conventions.ActionsDir),
		ManifestPath: filepath.Join(packPath, conventions.ManifestFile),
	}

	// Metadata is optional.
	md, err := r.mdRepo.GetPackMetadata(ctx, filepath.ToSlash(filepath.Join(name, conventions.MetadataFile)))
	switch {
	case err == nil:
		if md.Ref != "" && md.Ref != name {
			return nil, fmt.Errorf("pack %s metadata ref %q does not match the pack directory: %w", name, md.Ref, model.ErrNotValid)
		}
		p.Metadata = md
	case errors.Is(err, fs.ErrNotExist):
		r.logger.Debugf("Pack %s has no metadata file", name)
	default:
		return nil, fmt.Errorf("could not load pack %s metadata: %w", name, err)
	}

	return p, nil
}

// ReadManifest reads and parses the pack dependency manifest.
// A pack without manifest has no requirements.
func ReadManifest(p model.Pack) ([]string, error) {
	f, err := os.Open(p.ManifestPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("could not open manifest: %w", err)
	}
	defer f.Close()

	reqs, err := ParseManifest(f)
	if err != nil {
		return nil, fmt.Errorf("malformed manifest %s: %w", p.ManifestPath, err)
	}

	return reqs, nil
}
