package virtualenv

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/slok/packrun/internal/conventions"
	"github.com/slok/packrun/internal/installer"
	"github.com/slok/packrun/internal/log"
	"github.com/slok/packrun/internal/metrics"
	"github.com/slok/packrun/internal/model"
	"github.com/slok/packrun/internal/pack"
	"github.com/slok/packrun/internal/provision"
)

// Manager manages the pack environments.
type Manager interface {
	Ensure(ctx context.Context, pk model.Pack) (*model.Environment, error)
	Get(ctx context.Context, packName string) (*model.Environment, error)
	Remove(ctx context.Context, packName string) error
	List(ctx context.Context) ([]model.Environment, error)
}

// ProvisionerConfig is the configuration for the environment provisioner.
type ProvisionerConfig struct {
	// BasePath is the packrun data directory, environments live in <base>/virtualenvs. Required.
	BasePath  string
	Installer installer.Installer
	Metrics   metrics.Recorder
	Logger    log.Logger
}

func (c *ProvisionerConfig) defaults() error {
	if c.BasePath == "" {
		return fmt.Errorf("base path is required")
	}
	if c.Installer == nil {
		return fmt.Errorf("installer is required")
	}
	if c.Metrics == nil {
		c.Metrics = metrics.Noop
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "virtualenv.Provisioner"})
	return nil
}

// Provisioner creates and manages the isolated dependency environments of the packs.
// It is the only component that writes into the environments directory.
type Provisioner struct {
	basePath  string
	installer installer.Installer
	metrics   metrics.Recorder
	logger    log.Logger
	locks     *packLocks
}

var _ Manager = &Provisioner{}

// NewProvisioner returns a new environment provisioner.
func NewProvisioner(cfg ProvisionerConfig) (*Provisioner, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Provisioner{
		basePath:  cfg.BasePath,
		installer: cfg.Installer,
		metrics:   cfg.Metrics,
		logger:    cfg.Logger,
		locks:     newPackLocks(),
	}, nil
}

// Ensure returns the environment of the pack, creating it from the pack manifest when
// it doesn't exist. Calling Ensure on an existing environment is a no-op.
//
// The environment is built in a temporary directory and renamed into place once
// complete, so a failed build never leaves a partial environment visible.
// Concurrent calls for the same pack are serialized, inside the process and across
// processes sharing the base path.
func (p *Provisioner) Ensure(ctx context.Context, pk model.Pack) (*model.Environment, error) {
	if err := model.ValidatePackName(pk.Name); err != nil {
		return nil, &model.ProvisioningError{Pack: pk.Name, Err: err}
	}
	logger := p.logger.WithValues(log.Kv{"pack": pk.Name})

	env, err := p.get(pk.Name)
	if err == nil {
		logger.Debugf("Environment already provisioned at %s", env.Path)
		return env, nil
	}
	if !errors.Is(err, model.ErrNotFound) {
		return nil, &model.ProvisioningError{Pack: pk.Name, Err: err}
	}

	if err := os.MkdirAll(conventions.VirtualenvsPath(p.basePath), 0o755); err != nil {
		return nil, &model.ProvisioningError{Pack: pk.Name, Err: fmt.Errorf("could not create environments directory: %w", err)}
	}

	release, err := p.locks.acquire(ctx, pk.Name, conventions.EnvLockPath(p.basePath, pk.Name))
	if err != nil {
		return nil, &model.ProvisioningError{Pack: pk.Name, Err: err}
	}
	defer release()

	// Someone could have built it while we were waiting for the lock.
	env, err = p.get(pk.Name)
	if err == nil {
		logger.Debugf("Environment provisioned concurrently at %s", env.Path)
		return env, nil
	}
	if !errors.Is(err, model.ErrNotFound) {
		return nil, &model.ProvisioningError{Pack: pk.Name, Err: err}
	}

	if crossProcessLock {
		p.removeStaleBuilds(logger, pk.Name)
	}

	start := time.Now()
	err = p.build(ctx, logger, pk)
	p.metrics.ObserveProvision(ctx, pk.Name, err == nil, time.Since(start))
	if err != nil {
		return nil, &model.ProvisioningError{Pack: pk.Name, Err: err}
	}

	env, err = p.get(pk.Name)
	if err != nil {
		return nil, &model.ProvisioningError{Pack: pk.Name, Err: err}
	}

	logger.Infof("Environment provisioned at %s with %d requirements", env.Path, len(env.Requirements))
	return env, nil
}

// removeStaleBuilds removes build directories left by a process that died while
// provisioning. Must be called holding the pack lock.
func (p *Provisioner) removeStaleBuilds(logger log.Logger, packName string) {
	stale, err := filepath.Glob(conventions.EnvTmpPattern(p.basePath, packName))
	if err != nil {
		logger.Warningf("Could not list stale build directories: %s", err)
		return
	}
	for _, dir := range stale {
		if err := os.RemoveAll(dir); err != nil {
			logger.Warningf("Could not remove stale build directory %s: %s", dir, err)
			continue
		}
		logger.Infof("Removed stale build directory %s", dir)
	}
}

func (p *Provisioner) build(ctx context.Context, logger log.Logger, pk model.Pack) error {
	reqs, err := pack.ReadManifest(pk)
	if err != nil {
		return err
	}

	tmpPath := conventions.EnvTmpPath(p.basePath, pk.Name, ulid.Make().String())
	defer func() {
		if rmErr := os.RemoveAll(tmpPath); rmErr != nil {
			logger.Warningf("Could not remove environment build directory %s: %s", tmpPath, rmErr)
		}
	}()

	libPath := filepath.Join(tmpPath, conventions.LibDir)
	manifestPath := filepath.Join(tmpPath, conventions.EnvManifestFile)

	steps := []provision.Step{
		{Name: "library directory", Provisioner: provision.NewMkdir(libPath)},
		{Name: "requirements", Provisioner: provision.NewWriteFile(manifestPath, encodeRequirements(reqs))},
	}
	if len(reqs) > 0 {
		steps = append(steps, provision.Step{Name: "dependencies", Provisioner: provision.ProvisionerFunc(func(ctx context.Context) error {
			return p.installer.Install(ctx, manifestPath, libPath)
		})})
	}

	if err := provision.NewChain(logger, steps...).Provision(ctx); err != nil {
		return err
	}

	// A root without library directory is a leftover of an interrupted legacy build.
	envPath := conventions.EnvPath(p.basePath, pk.Name)
	if err := os.RemoveAll(envPath); err != nil {
		return fmt.Errorf("could not remove stale environment %s: %w", envPath, err)
	}

	if err := os.Rename(tmpPath, envPath); err != nil {
		return fmt.Errorf("could not move environment into place: %w", err)
	}

	return nil
}

// Get returns the environment of the pack if it's provisioned.
func (p *Provisioner) Get(_ context.Context, packName string) (*model.Environment, error) {
	if err := model.ValidatePackName(packName); err != nil {
		return nil, err
	}
	return p.get(packName)
}

// Remove deletes the environment of the pack.
func (p *Provisioner) Remove(ctx context.Context, packName string) error {
	if err := model.ValidatePackName(packName); err != nil {
		return err
	}

	envPath := conventions.EnvPath(p.basePath, packName)
	if _, err := os.Stat(envPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("environment %s: %w", packName, model.ErrNotFound)
		}
		return fmt.Errorf("could not stat environment: %w", err)
	}

	release, err := p.locks.acquire(ctx, packName, conventions.EnvLockPath(p.basePath, packName))
	if err != nil {
		return err
	}
	defer release()

	if err := os.RemoveAll(envPath); err != nil {
		return fmt.Errorf("could not remove environment: %w", err)
	}

	p.logger.WithValues(log.Kv{"pack": packName}).Infof("Environment removed")
	return nil
}

// List returns all the provisioned environments.
func (p *Provisioner) List(_ context.Context) ([]model.Environment, error) {
	entries, err := os.ReadDir(conventions.VirtualenvsPath(p.basePath))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []model.Environment{}, nil
		}
		return nil, fmt.Errorf("could not read environments directory: %w", err)
	}

	envs := []model.Environment{}
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		env, err := p.get(e.Name())
		if err != nil {
			if errors.Is(err, model.ErrNotFound) {
				continue
			}
			return nil, err
		}
		envs = append(envs, *env)
	}

	return envs, nil
}

func (p *Provisioner) get(packName string) (*model.Environment, error) {
	libPath := conventions.EnvLibPath(p.basePath, packName)
	st, err := os.Stat(libPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("environment %s: %w", packName, model.ErrNotFound)
		}
		return nil, fmt.Errorf("could not stat environment: %w", err)
	}
	if !st.IsDir() {
		return nil, fmt.Errorf("environment %s library is not a directory: %w", packName, model.ErrNotValid)
	}

	envPath := conventions.EnvPath(p.basePath, packName)
	data, err := os.ReadFile(filepath.Join(envPath, conventions.EnvManifestFile))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("could not read environment requirements: %w", err)
	}
	reqs := decodeRequirements(data)

	return &model.Environment{
		Pack:           packName,
		Path:           envPath,
		LibraryPath:    libPath,
		Requirements:   reqs,
		ManifestDigest: digest(encodeRequirements(reqs)),
		CreatedAt:      st.ModTime().UTC(),
	}, nil
}

func encodeRequirements(reqs []string) []byte {
	if len(reqs) == 0 {
		return []byte{}
	}
	return []byte(strings.Join(reqs, "\n") + "\n")
}

func decodeRequirements(data []byte) []string {
	reqs := []string{}
	for _, l := range strings.Split(string(data), "\n") {
		if l = strings.TrimSpace(l); l != "" {
			reqs = append(reqs, l)
		}
	}
	return reqs
}

func digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
