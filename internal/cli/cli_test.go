package cli

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/boardcamp-api/internal/config"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "boardcamp", cmd.Use)
	assert.NotNil(t, cmd.RunE)
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	for _, path := range [][]string{{"serve"}, {"migrate"}, {"migrate", "up"}, {"migrate", "down"}, {"migrate", "version"}} {
		sub, _, err := cmd.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], sub.Name())
	}
}

func TestFlags(t *testing.T) {
	cmd := NewRootCommand()
	lvl := cmd.PersistentFlags().Lookup("log-level")
	require.NotNil(t, lvl)
	assert.Equal(t, "", lvl.DefValue)

	serve, _, _ := cmd.Find([]string{"serve"})
	require.NotNil(t, serve.Flags().Lookup("migrate"))

	down, _, _ := cmd.Find([]string{"migrate", "down"})
	steps := down.Flags().Lookup("steps")
	require.NotNil(t, steps)
	assert.Equal(t, "n", steps.Shorthand)
	assert.Equal(t, "1", steps.DefValue)
}

func TestLevelOverride(t *testing.T) {
	assert.Equal(t, "info", (&RootOptions{}).level("info"))
	assert.Equal(t, "debug", (&RootOptions{LogLevel: "debug"}).level("info"))
}

type fakeMigrator struct {
	upErr   error
	steps   int
	version uint
	applied bool
	closed  bool
}

func (f *fakeMigrator) Up() error {
	if f.upErr != nil {
		return f.upErr
	}
	f.version, f.applied = 4, true
	return nil
}

func (f *fakeMigrator) Down(steps int) error {
	f.steps = steps
	f.version -= uint(steps)
	return nil
}

func (f *fakeMigrator) Version() (uint, bool, bool, error) { return f.version, false, f.applied, nil }

func (f *fakeMigrator) Close() error {
	f.closed = true
	return nil
}

func setDBEnv(t *testing.T) {
	t.Setenv("APP_PORT", "5000")
	t.Setenv("DB_USER", "root")
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_PORT", "3306")
	t.Setenv("DB_NAME", "boardcamp")
}

func useMigrator(t *testing.T, fm *fakeMigrator) {
	t.Helper()
	prev := openMigrator
	openMigrator = func(*config.Config) (schemaMigrator, error) { return fm, nil }
	t.Cleanup(func() { openMigrator = prev })
}

func run(args ...string) (string, error) {
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestMigrateUpAndDown(t *testing.T) {
	setDBEnv(t)
	fm := &fakeMigrator{}
	useMigrator(t, fm)

	out, err := run("migrate", "up")
	require.NoError(t, err)
	assert.Contains(t, out, "schema version: 4 (dirty=false)")
	assert.True(t, fm.closed)

	out, err = run("migrate", "down", "-n", "2")
	require.NoError(t, err)
	assert.Equal(t, 2, fm.steps)
	assert.Contains(t, out, "schema version: 2")
}

func TestMigrateVersionFresh(t *testing.T) {
	setDBEnv(t)
	useMigrator(t, &fakeMigrator{})

	out, err := run("migrate", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "schema version: none")
}

func TestMigrateUpFailure(t *testing.T) {
	setDBEnv(t)
	fm := &fakeMigrator{upErr: errors.New("dirty database version 3")}
	useMigrator(t, fm)

	_, err := run("migrate", "up")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "migrate up")
	assert.True(t, fm.closed)
}
