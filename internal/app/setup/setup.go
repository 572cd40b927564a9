package setup

import (
	"context"
	"fmt"

	"github.com/slok/packrun/internal/log"
	"github.com/slok/packrun/internal/model"
	"github.com/slok/packrun/internal/pack"
	"github.com/slok/packrun/internal/storage"
	"github.com/slok/packrun/internal/virtualenv"
)

// ServiceConfig is the configuration for the setup service.
type ServiceConfig struct {
	Packs        pack.Registry
	Environments virtualenv.Manager
	Repository   storage.Repository
	Logger       log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Packs == nil {
		return fmt.Errorf("pack registry is required")
	}
	if c.Environments == nil {
		return fmt.Errorf("environment manager is required")
	}
	if c.Repository == nil {
		return fmt.Errorf("repository is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.Setup"})
	return nil
}

// Service provisions pack environments ahead of their executions.
type Service struct {
	packs  pack.Registry
	envs   virtualenv.Manager
	repo   storage.Repository
	logger log.Logger
}

// NewService creates a new setup service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		packs:  cfg.Packs,
		envs:   cfg.Environments,
		repo:   cfg.Repository,
		logger: cfg.Logger,
	}, nil
}

// Request contains the parameters for setting up a pack.
type Request struct {
	Pack string
}

// Setup ensures the environment of the pack exists and records it.
func (s *Service) Setup(ctx context.Context, req Request) (*model.Environment, error) {
	pk, err := s.packs.GetPack(ctx, req.Pack)
	if err != nil {
		return nil, fmt.Errorf("could not get pack: %w", err)
	}

	env, err := s.envs.Ensure(ctx, *pk)
	if err != nil {
		return nil, err
	}

	if err := s.repo.SaveEnvironment(ctx, *env); err != nil {
		return nil, fmt.Errorf("could not save environment: %w", err)
	}

	s.logger.Infof("Pack %s environment ready at %s", env.Pack, env.Path)

	return env, nil
}
