package resource

import (
	"context"
	"fmt"
	"time"

	"github.com/slok/packrun/internal/model"
	"github.com/slok/packrun/internal/storage"
)

// EnvironmentAPI is the API representation of a pack environment.
type EnvironmentAPI struct {
	Pack           string    `json:"pack"`
	Path           string    `json:"path"`
	LibraryPath    string    `json:"library_path"`
	Requirements   []string  `json:"requirements"`
	ManifestDigest string    `json:"manifest_digest"`
	CreatedAt      time.Time `json:"created_at"`
}

// EnvironmentFromModel returns the API representation of an environment.
func EnvironmentFromModel(e model.Environment) EnvironmentAPI {
	reqs := e.Requirements
	if reqs == nil {
		reqs = []string{}
	}

	return EnvironmentAPI{
		Pack:           e.Pack,
		Path:           e.Path,
		LibraryPath:    e.LibraryPath,
		Requirements:   reqs,
		ManifestDigest: e.ManifestDigest,
		CreatedAt:      e.CreatedAt,
	}
}

type environments struct {
	access environmentsAccess
}

// NewEnvironments returns the environments resource, identified by pack name.
func NewEnvironments(repo storage.Repository) Resource[model.Environment] {
	return environments{access: environmentsAccess{repo: repo}}
}

func (e environments) Access() Access[model.Environment] { return e.access }

func (environments) FromModel(m model.Environment) any { return EnvironmentFromModel(m) }

func (environments) SupportedFilters() map[string]string {
	return map[string]string{
		"pack":       "pack",
		"created_at": "created_at",
	}
}

type environmentsAccess struct {
	repo storage.Repository
}

func (a environmentsAccess) Query(ctx context.Context, q model.Query) ([]model.Environment, error) {
	return a.repo.ListEnvironments(ctx, q)
}

func (a environmentsAccess) Get(ctx context.Context, id string) (*model.Environment, error) {
	if err := model.ValidatePackName(id); err != nil {
		return nil, fmt.Errorf("malformed environment id %q: %w", id, model.ErrNotFound)
	}
	return a.repo.GetEnvironment(ctx, id)
}
