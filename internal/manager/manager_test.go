package manager

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"svcman/internal/logger"
	"svcman/internal/registry"
	"svcman/internal/services"
)

type fakeRunner struct {
	mu       sync.Mutex
	commands []services.Command
	fail     map[string]error
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{fail: make(map[string]error)}
}

func (r *fakeRunner) Run(ctx context.Context, cmd services.Command) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands = append(r.commands, cmd)
	return r.fail[cmd.String()]
}

func (r *fakeRunner) ran() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.commands))
	for _, c := range r.commands {
		out = append(out, c.String())
	}
	return out
}

type fixture struct {
	mgr    *Manager
	repo   *registry.Repository
	runner *fakeRunner
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	runner := newFakeRunner()
	repo := registry.NewRepository(filepath.Join(t.TempDir(), "services.json"), logger.Nop())
	factory := services.NewFactory(services.DefaultToolchain(), runner, logger.Nop())
	return &fixture{
		mgr:    New(repo, factory, logger.Nop(), opts...),
		repo:   repo,
		runner: runner,
	}
}

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("systemctl is not available on windows")
	}
}

func TestRegister_ComposeMissingPathNeverPersists(t *testing.T) {
	f := newFixture(t)

	_, err := f.mgr.Register("docker", "gitea", filepath.Join(t.TempDir(), "missing"))
	assert.ErrorIs(t, err, services.ErrValidation)
	assert.IsType(t, services.PathNotFoundError{}, err)

	_, statErr := os.Stat(f.repo.Path())
	assert.True(t, os.IsNotExist(statErr), "registry file should not be created")
}

func TestRegister_InvalidTag(t *testing.T) {
	f := newFixture(t)

	_, err := f.mgr.Register("invalid", "invalid_service", "")
	assert.IsType(t, services.InvalidKindError{}, err)

	records, err := f.mgr.List()
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestRegisterAndList_Order(t *testing.T) {
	f := newFixture(t)
	dir := t.TempDir()

	names := []string{"nginx", "homepage", "status", "gitea"}
	for i, n := range names {
		tag, path := "sys", ""
		if i > 0 {
			tag, path = "docker", dir
		}
		rec, err := f.mgr.Register(tag, n, path)
		require.NoError(t, err)
		assert.Equal(t, n, rec.Name)
	}

	records, err := f.mgr.List()
	require.NoError(t, err)
	require.Len(t, records, len(names))
	for i, n := range names {
		assert.Equal(t, n, records[i].Name)
	}
	assert.Equal(t, services.KindSystem, records[0].Kind)
	assert.Equal(t, dir, records[3].Location)
}

func TestList_SkipsInvalidEntries(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	path := filepath.Join(t.TempDir(), "services.json")
	content := `[
  {"tag": "sys", "name": "nginx", "path": null},
  {"tag": "lxc", "name": "container", "path": null},
  {"tag": "docker", "name": "nopath", "path": null},
  {"tag": "sys", "name": "  ", "path": null},
  {"tag": "docker", "name": "postgres", "path": "/path/to/docker"}
]`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	log := logger.FromZap(zap.New(core))
	repo := registry.NewRepository(path, log)
	mgr := New(repo, services.NewFactory(services.DefaultToolchain(), newFakeRunner(), log), log)

	records, err := mgr.List()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "nginx", records[0].Name)
	assert.Equal(t, "postgres", records[1].Name)
	assert.Equal(t, 3, logs.FilterMessage("skipping invalid registry entry").Len())
}

func TestList_CorruptedFile(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.WriteFile(f.repo.Path(), []byte("invalid json"), 0644))

	records, err := f.mgr.List()
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestRemoveAt(t *testing.T) {
	f := newFixture(t)
	for _, n := range []string{"nginx", "redis", "caddy"} {
		_, err := f.mgr.Register("sys", n, "")
		require.NoError(t, err)
	}

	rec, err := f.mgr.RemoveAt(1)
	require.NoError(t, err)
	assert.Equal(t, "redis", rec.Name)

	records, err := f.mgr.List()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "nginx", records[0].Name)
	assert.Equal(t, "caddy", records[1].Name)
}

func TestRemoveAt_OutOfRange(t *testing.T) {
	f := newFixture(t)
	_, err := f.mgr.Register("sys", "nginx", "")
	require.NoError(t, err)

	before, err := os.ReadFile(f.repo.Path())
	require.NoError(t, err)

	for _, idx := range []int{1, 5, -1} {
		_, err := f.mgr.RemoveAt(idx)
		var oor services.IndexOutOfRangeError
		require.ErrorAs(t, err, &oor)
		assert.ErrorIs(t, err, services.ErrNotFound)
		assert.Equal(t, 1, oor.Length)
	}

	after, err := os.ReadFile(f.repo.Path())
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestRemoveByName(t *testing.T) {
	f := newFixture(t)
	_, err := f.mgr.Register("sys", "  nginx ", "")
	require.NoError(t, err)
	_, err = f.mgr.Register("sys", "redis", "")
	require.NoError(t, err)

	require.NoError(t, f.mgr.RemoveByName("NGINX"))

	records, err := f.mgr.List()
	require.NoError(t, err)
	require.Len(t, records, 1)

	err = f.mgr.RemoveByName("nginx")
	assert.ErrorIs(t, err, services.ErrNotFound)

	records, err = f.mgr.List()
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestExecuteOperationAt_System(t *testing.T) {
	skipOnWindows(t)
	f := newFixture(t)
	_, err := f.mgr.Register("sys", "nginx", "")
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, f.mgr.ExecuteOperationAt(ctx, 0, services.OpStop))
	require.NoError(t, f.mgr.ExecuteOperationAt(ctx, 0, services.OpRestart))

	assert.Equal(t, []string{
		"sudo systemctl stop nginx",
		"sudo systemctl restart nginx",
	}, f.runner.ran())
}

func TestExecuteOperationAt_Compose(t *testing.T) {
	f := newFixture(t)
	dir := t.TempDir()
	_, err := f.mgr.Register("docker", "homepage", dir)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, f.mgr.ExecuteOperationAt(ctx, 0, services.OpStop))
	require.NoError(t, f.mgr.ExecuteOperationAt(ctx, 0, services.OpRestart))

	assert.Equal(t, []string{"docker compose down", "docker compose up -d"}, f.runner.ran())
	for _, c := range f.runner.commands {
		assert.Equal(t, dir, c.Dir)
	}
}

func TestExecuteOperationAt_Errors(t *testing.T) {
	skipOnWindows(t)
	f := newFixture(t)
	_, err := f.mgr.Register("sys", "nginx", "")
	require.NoError(t, err)

	err = f.mgr.ExecuteOperationAt(context.Background(), 3, services.OpStop)
	assert.IsType(t, services.IndexOutOfRangeError{}, err)

	err = f.mgr.ExecuteOperationAt(context.Background(), 0, services.Operation(4))
	assert.IsType(t, services.InvalidOperationError{}, err)

	f.runner.fail["sudo systemctl stop nginx"] = errors.New("exit status 5")
	err = f.mgr.ExecuteOperationAt(context.Background(), 0, services.OpStop)
	assert.ErrorIs(t, err, services.ErrProcess)

	// the manager stays usable after a process failure
	require.NoError(t, f.mgr.ExecuteOperationAt(context.Background(), 0, services.OpRestart))
}

func TestExecuteOperationAt_ComposeDirectoryRemoved(t *testing.T) {
	f := newFixture(t)
	dir := filepath.Join(t.TempDir(), "stack")
	require.NoError(t, os.Mkdir(dir, 0755))
	_, err := f.mgr.Register("docker", "stack", dir)
	require.NoError(t, err)
	require.NoError(t, os.Remove(dir))

	err = f.mgr.ExecuteOperationAt(context.Background(), 0, services.OpStop)
	assert.IsType(t, services.PathNotFoundError{}, err)
	assert.Empty(t, f.runner.ran())
}

func TestCommandAt(t *testing.T) {
	skipOnWindows(t)
	f := newFixture(t)
	_, err := f.mgr.Register("sys", "nginx", "")
	require.NoError(t, err)

	cmd, err := f.mgr.CommandAt(0, services.OpRestart)
	require.NoError(t, err)
	assert.Equal(t, "sudo systemctl restart nginx", cmd.String())
	assert.Empty(t, f.runner.ran())
}

func TestExecuteAll_ContinuesPastFailures(t *testing.T) {
	skipOnWindows(t)

	for _, parallel := range []int{1, 4} {
		t.Run("parallel", func(t *testing.T) {
			f := newFixture(t, WithParallel(parallel))
			for _, n := range []string{"nginx", "redis", "caddy"} {
				_, err := f.mgr.Register("sys", n, "")
				require.NoError(t, err)
			}
			f.runner.fail["sudo systemctl stop redis"] = errors.New("unit redis.service not loaded")

			results, err := f.mgr.ExecuteAll(context.Background(), services.OpStop)
			require.Error(t, err)
			assert.ErrorIs(t, err, services.ErrProcess)
			assert.True(t, strings.Contains(err.Error(), "redis"))

			require.Len(t, results, 3)
			assert.NoError(t, results[0].Err)
			assert.Error(t, results[1].Err)
			assert.NoError(t, results[2].Err)
			assert.Len(t, f.runner.ran(), 3)
		})
	}
}

func TestExecuteAll_Empty(t *testing.T) {
	f := newFixture(t)

	results, err := f.mgr.ExecuteAll(context.Background(), services.OpRestart)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestFind(t *testing.T) {
	f := newFixture(t)
	for _, n := range []string{"nginx", "gitea", "homepage", "postgres"} {
		_, err := f.mgr.Register("sys", n, "")
		require.NoError(t, err)
	}

	matches, err := f.mgr.Find("ngx")
	require.NoError(t, err)
	require.NotEmpty(t, matches)
	assert.Equal(t, "nginx", matches[0].Record.Name)
	assert.Equal(t, 0, matches[0].Index)

	matches, err = f.mgr.Find("zzz")
	require.NoError(t, err)
	assert.Empty(t, matches)

	matches, err = f.mgr.Find("  ")
	require.NoError(t, err)
	assert.Empty(t, matches)
}

type failingStore struct{ err error }

func (s failingStore) Load() ([]registry.Entry, error)  { return nil, s.err }
func (s failingStore) Save(registry.Entry) error        { return s.err }
func (s failingStore) RemoveByName(string) (int, error) { return 0, s.err }

func TestStoreErrorsPropagate(t *testing.T) {
	boom := errors.New("disk full")
	mgr := New(failingStore{err: boom}, services.NewFactory(services.DefaultToolchain(), newFakeRunner(), nil), nil)

	_, err := mgr.Register("sys", "nginx", "")
	assert.ErrorIs(t, err, boom)

	_, err = mgr.List()
	assert.ErrorIs(t, err, boom)

	_, err = mgr.RemoveAt(0)
	assert.ErrorIs(t, err, boom)
}
