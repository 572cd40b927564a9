package envremove

import (
	"context"
	"errors"
	"fmt"

	"github.com/slok/packrun/internal/log"
	"github.com/slok/packrun/internal/model"
	"github.com/slok/packrun/internal/storage"
	"github.com/slok/packrun/internal/virtualenv"
)

// ServiceConfig is the configuration for the environment removal service.
type ServiceConfig struct {
	Environments virtualenv.Manager
	Repository   storage.Repository
	Logger       log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Environments == nil {
		return fmt.Errorf("environment manager is required")
	}
	if c.Repository == nil {
		return fmt.Errorf("repository is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.EnvRemove"})
	return nil
}

// Service removes pack environments.
type Service struct {
	envs   virtualenv.Manager
	repo   storage.Repository
	logger log.Logger
}

// NewService creates a new environment removal service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		envs:   cfg.Environments,
		repo:   cfg.Repository,
		logger: cfg.Logger,
	}, nil
}

// Request contains the parameters for removing an environment.
type Request struct {
	Pack string
}

// Remove deletes the pack environment from disk and its record. It fails with
// model.ErrNotFound only when neither of them exist.
func (s *Service) Remove(ctx context.Context, req Request) error {
	if err := model.ValidatePackName(req.Pack); err != nil {
		return err
	}

	diskErr := s.envs.Remove(ctx, req.Pack)
	if diskErr != nil && !errors.Is(diskErr, model.ErrNotFound) {
		return fmt.Errorf("could not remove environment: %w", diskErr)
	}

	repoErr := s.repo.DeleteEnvironment(ctx, req.Pack)
	if repoErr != nil && !errors.Is(repoErr, model.ErrNotFound) {
		return fmt.Errorf("could not delete environment record: %w", repoErr)
	}

	if diskErr != nil && repoErr != nil {
		return fmt.Errorf("environment %s: %w", req.Pack, model.ErrNotFound)
	}

	s.logger.Infof("Environment of pack %s removed", req.Pack)
	return nil
}
