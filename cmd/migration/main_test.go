package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseCommand(t *testing.T) {
	t.Run("down defaults to one step", func(t *testing.T) {
		cmd, err := parseCommand([]string{"DOWN"})
		require.NoError(t, err)
		require.Equal(t, "down", cmd.name)
		require.Equal(t, 1, cmd.steps)
	})

	t.Run("migrate is an alias for goto", func(t *testing.T) {
		cmd, err := parseCommand([]string{"migrate", "1"})
		require.NoError(t, err)
		require.Equal(t, "goto", cmd.name)
		require.Equal(t, uint(1), cmd.target)
	})

	t.Run("force needs a version", func(t *testing.T) {
		_, err := parseCommand([]string{"force"})
		require.ErrorContains(t, err, "force 1")
	})

	t.Run("rejects bad arguments", func(t *testing.T) {
		for _, args := range [][]string{{"down", "0"}, {"down", "x"}, {"force", "-1"}, {"goto", "-3"}} {
			_, err := parseCommand(args)
			require.Error(t, err, "args %v", args)
			require.False(t, errors.Is(err, errUsage), "args %v", args)
		}
	})

	t.Run("unknown or missing command is a usage error", func(t *testing.T) {
		_, err := parseCommand(nil)
		require.ErrorIs(t, err, errUsage)
		_, err = parseCommand([]string{"seed"})
		require.ErrorIs(t, err, errUsage)
	})
}

func TestResolveMigrationsDir(t *testing.T) {
	t.Run("configured dir wins", func(t *testing.T) {
		dir := t.TempDir()
		got, err := resolveMigrationsDir(dir)
		require.NoError(t, err)
		require.Equal(t, dir, got)
	})

	t.Run("finds repo migrations", func(t *testing.T) {
		t.Chdir(filepath.Join("..", ".."))
		got, err := resolveMigrationsDir("")
		require.NoError(t, err)
		_, err = os.Stat(filepath.Join(got, "000001_tournament_operations.up.sql"))
		require.NoError(t, err)
	})

	t.Run("missing dir lists what was checked", func(t *testing.T) {
		t.Chdir(t.TempDir())
		_, err := resolveMigrationsDir(filepath.Join(t.TempDir(), "nope"))
		require.ErrorContains(t, err, "MIGRATIONS_DIR")
	})
}

func TestPrintUsage_PointsAtSchema(t *testing.T) {
	var buf bytes.Buffer
	printUsage(&buf)
	out := buf.String()
	require.True(t, strings.Contains(out, "db/migrations/000001_tournament_operations"), out)
	require.Contains(t, out, "force 1")
}
