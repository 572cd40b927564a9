package virtualenv_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/slok/packrun/internal/installer/installermock"
	"github.com/slok/packrun/internal/log"
	"github.com/slok/packrun/internal/model"
	"github.com/slok/packrun/internal/virtualenv"
)

func newPack(t *testing.T, name, manifest string) model.Pack {
	t.Helper()
	dir := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "actions"), 0o755))
	p := model.Pack{
		Name:         name,
		Path:         dir,
		ActionsPath:  filepath.Join(dir, "actions"),
		ManifestPath: filepath.Join(dir, "requirements.txt"),
	}
	if manifest != "" {
		require.NoError(t, os.WriteFile(p.ManifestPath, []byte(manifest), 0o644))
	}
	return p
}

// installModule simulates an installer that installs a python module in the target dir.
func installModule(module string) func(args mock.Arguments) {
	return func(args mock.Arguments) {
		target := args.String(2)
		_ = os.MkdirAll(filepath.Join(target, module), 0o755)
		_ = os.WriteFile(filepath.Join(target, module, "__init__.py"), []byte(""), 0o644)
	}
}

func newProvisioner(t *testing.T, basePath string, inst *installermock.MockInstaller) *virtualenv.Provisioner {
	t.Helper()
	p, err := virtualenv.NewProvisioner(virtualenv.ProvisionerConfig{
		BasePath:  basePath,
		Installer: inst,
		Logger:    log.Noop,
	})
	require.NoError(t, err)
	return p
}

func assertNoBuildLeftovers(t *testing.T, basePath string) {
	t.Helper()
	entries, err := os.ReadDir(filepath.Join(basePath, "virtualenvs"))
	if errors.Is(err, os.ErrNotExist) {
		return
	}
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.Contains(e.Name(), ".tmp-"), "build directory %s left behind", e.Name())
	}
}

func TestNewProvisioner(t *testing.T) {
	tests := map[string]struct {
		cfg    virtualenv.ProvisionerConfig
		expErr bool
	}{
		"Valid configuration should create the provisioner.": {
			cfg: virtualenv.ProvisionerConfig{BasePath: "/tmp/x", Installer: &installermock.MockInstaller{}},
		},

		"Missing base path should fail.": {
			cfg:    virtualenv.ProvisionerConfig{Installer: &installermock.MockInstaller{}},
			expErr: true,
		},

		"Missing installer should fail.": {
			cfg:    virtualenv.ProvisionerConfig{BasePath: "/tmp/x"},
			expErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			p, err := virtualenv.NewProvisioner(test.cfg)
			if test.expErr {
				assert.Error(t, err)
				assert.Nil(t, p)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, p)
			}
		})
	}
}

func TestProvisionerEnsure(t *testing.T) {
	tests := map[string]struct {
		manifest string
		prepare  func(t *testing.T, basePath string)
		mock     func(m *installermock.MockInstaller)
		expEnv   func(basePath string) *model.Environment
		expErr   bool
	}{
		"A pack with requirements should have them installed in its environment.": {
			manifest: "# deps\nsix\n",
			mock: func(m *installermock.MockInstaller) {
				m.On("Install", mock.Anything, mock.Anything, mock.Anything).Once().Run(installModule("six")).Return(nil)
			},
			expEnv: func(basePath string) *model.Environment {
				return &model.Environment{
					Pack:           "test_library_dependencies",
					Path:           filepath.Join(basePath, "virtualenvs", "test_library_dependencies"),
					LibraryPath:    filepath.Join(basePath, "virtualenvs", "test_library_dependencies", "lib"),
					Requirements:   []string{"six"},
					ManifestDigest: "fe2547fe2604b445e70fc9d819062960552f9145bdb043b51986e478a4806a2b",
				}
			},
		},

		"A pack without manifest should get an empty environment without installing.": {
			mock: func(m *installermock.MockInstaller) {},
			expEnv: func(basePath string) *model.Environment {
				return &model.Environment{
					Pack:           "test_library_dependencies",
					Path:           filepath.Join(basePath, "virtualenvs", "test_library_dependencies"),
					LibraryPath:    filepath.Join(basePath, "virtualenvs", "test_library_dependencies", "lib"),
					Requirements:   []string{},
					ManifestDigest: "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
				}
			},
		},

		"A malformed manifest should fail without leaving an environment.": {
			manifest: "--index-url http://evil\n",
			mock:     func(m *installermock.MockInstaller) {},
			expErr:   true,
		},

		"A failing install should fail without leaving an environment.": {
			manifest: "six\n",
			mock: func(m *installermock.MockInstaller) {
				m.On("Install", mock.Anything, mock.Anything, mock.Anything).Once().Run(installModule("six")).Return(errors.New("network down"))
			},
			expErr: true,
		},

		"A stale environment without library directory should be rebuilt.": {
			manifest: "six\n",
			prepare: func(t *testing.T, basePath string) {
				stale := filepath.Join(basePath, "virtualenvs", "test_library_dependencies")
				require.NoError(t, os.MkdirAll(stale, 0o755))
				require.NoError(t, os.WriteFile(filepath.Join(stale, "garbage"), []byte("x"), 0o644))
			},
			mock: func(m *installermock.MockInstaller) {
				m.On("Install", mock.Anything, mock.Anything, mock.Anything).Once().Run(installModule("six")).Return(nil)
			},
			expEnv: func(basePath string) *model.Environment {
				return &model.Environment{
					Pack:           "test_library_dependencies",
					Path:           filepath.Join(basePath, "virtualenvs", "test_library_dependencies"),
					LibraryPath:    filepath.Join(basePath, "virtualenvs", "test_library_dependencies", "lib"),
					Requirements:   []string{"six"},
					ManifestDigest: "fe2547fe2604b445e70fc9d819062960552f9145bdb043b51986e478a4806a2b",
				}
			},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			basePath := t.TempDir()
			if test.prepare != nil {
				test.prepare(t, basePath)
			}
			pk := newPack(t, "test_library_dependencies", test.manifest)

			mInst := installermock.NewMockInstaller(t)
			test.mock(mInst)

			p := newProvisioner(t, basePath, mInst)
			env, err := p.Ensure(context.Background(), pk)

			assertNoBuildLeftovers(t, basePath)

			if test.expErr {
				var provErr *model.ProvisioningError
				require.ErrorAs(err, &provErr)
				assert.Equal("test_library_dependencies", provErr.Pack)
				_, statErr := os.Stat(filepath.Join(basePath, "virtualenvs", "test_library_dependencies", "lib"))
				assert.True(errors.Is(statErr, os.ErrNotExist))
				return
			}

			require.NoError(err)
			exp := test.expEnv(basePath)
			assert.Equal(exp.Pack, env.Pack)
			assert.Equal(exp.Path, env.Path)
			assert.Equal(exp.LibraryPath, env.LibraryPath)
			assert.Equal(exp.Requirements, env.Requirements)
			assert.Equal(exp.ManifestDigest, env.ManifestDigest)
			assert.False(env.CreatedAt.IsZero())
			assert.NoFileExists(filepath.Join(env.Path, "garbage"))

			for _, req := range exp.Requirements {
				assert.DirExists(filepath.Join(env.LibraryPath, req))
			}
		})
	}
}

func TestProvisionerEnsureIsIdempotent(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	basePath := t.TempDir()
	pk := newPack(t, "core", "six\n")

	mInst := installermock.NewMockInstaller(t)
	mInst.On("Install", mock.Anything, mock.Anything, mock.Anything).Once().Run(installModule("six")).Return(nil)

	p := newProvisioner(t, basePath, mInst)

	env1, err := p.Ensure(context.Background(), pk)
	require.NoError(err)
	env2, err := p.Ensure(context.Background(), pk)
	require.NoError(err)

	assert.Equal(env1, env2)
}

func TestProvisionerEnsureRemovesStaleBuilds(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("stale builds are only removed with a cross-process lock")
	}
	require := require.New(t)
	assert := assert.New(t)

	basePath := t.TempDir()
	pk := newPack(t, "core", "six\n")

	// Leftovers of a crashed build, the other pack ones must be kept.
	stale := filepath.Join(basePath, "virtualenvs", ".core.tmp-01HZY3ZQ8V0000000000000000")
	require.NoError(os.MkdirAll(filepath.Join(stale, "lib", "six"), 0o755))
	other := filepath.Join(basePath, "virtualenvs", ".core-extra.tmp-01HZY3ZQ8V0000000000000000")
	require.NoError(os.MkdirAll(other, 0o755))

	mInst := installermock.NewMockInstaller(t)
	mInst.On("Install", mock.Anything, mock.Anything, mock.Anything).Once().Run(installModule("six")).Return(nil)

	p := newProvisioner(t, basePath, mInst)
	_, err := p.Ensure(context.Background(), pk)
	require.NoError(err)

	assert.NoDirExists(stale)
	assert.DirExists(other)
}

func TestProvisionerEnsureConcurrent(t *testing.T) {
	require := require.New(t)

	basePath := t.TempDir()
	pk := newPack(t, "core", "six\n")

	mInst := installermock.NewMockInstaller(t)
	mInst.On("Install", mock.Anything, mock.Anything, mock.Anything).Once().Run(func(args mock.Arguments) {
		time.Sleep(50 * time.Millisecond)
		installModule("six")(args)
	}).Return(nil)

	p := newProvisioner(t, basePath, mInst)

	const workers = 10
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := p.Ensure(context.Background(), pk)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(err)
	}
	assertNoBuildLeftovers(t, basePath)
	require.DirExists(filepath.Join(basePath, "virtualenvs", "core", "lib", "six"))
}

func TestProvisionerEnsureCancelledWhileWaitingLock(t *testing.T) {
	basePath := t.TempDir()
	pk := newPack(t, "core", "six\n")

	started := make(chan struct{})
	unblock := make(chan struct{})
	mInst := installermock.NewMockInstaller(t)
	mInst.On("Install", mock.Anything, mock.Anything, mock.Anything).Once().Run(func(args mock.Arguments) {
		close(started)
		<-unblock
		installModule("six")(args)
	}).Return(nil)

	p := newProvisioner(t, basePath, mInst)

	done := make(chan error)
	go func() {
		_, err := p.Ensure(context.Background(), pk)
		done <- err
	}()
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := p.Ensure(ctx, pk)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(unblock)
	require.NoError(t, <-done)
}

func TestProvisionerGetListRemove(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)
	ctx := context.Background()

	basePath := t.TempDir()
	mInst := installermock.NewMockInstaller(t)
	p := newProvisioner(t, basePath, mInst)

	// Nothing provisioned.
	envs, err := p.List(ctx)
	require.NoError(err)
	assert.Empty(envs)
	_, err = p.Get(ctx, "core")
	assert.ErrorIs(err, model.ErrNotFound)
	assert.ErrorIs(p.Remove(ctx, "core"), model.ErrNotFound)

	// Provision two packs.
	_, err = p.Ensure(ctx, newPack(t, "core", ""))
	require.NoError(err)
	_, err = p.Ensure(ctx, newPack(t, "linux", ""))
	require.NoError(err)

	envs, err = p.List(ctx)
	require.NoError(err)
	require.Len(envs, 2)
	assert.Equal("core", envs[0].Pack)
	assert.Equal("linux", envs[1].Pack)

	got, err := p.Get(ctx, "linux")
	require.NoError(err)
	assert.Equal(filepath.Join(basePath, "virtualenvs", "linux"), got.Path)

	// Remove one.
	require.NoError(p.Remove(ctx, "core"))
	envs, err = p.List(ctx)
	require.NoError(err)
	require.Len(envs, 1)
	assert.Equal("linux", envs[0].Pack)

	// Invalid names.
	_, err = p.Get(ctx, "../x")
	assert.ErrorIs(err, model.ErrNotValid)
}

func TestProvisionerCheck(t *testing.T) {
	basePath := t.TempDir()
	p := newProvisioner(t, basePath, installermock.NewMockInstaller(t))

	results := p.Check(context.Background())
	require.Len(t, results, 1)
	assert.Equal(t, model.CheckStatusOK, results[0].Status)

	entries, err := os.ReadDir(filepath.Join(basePath, "virtualenvs"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}
