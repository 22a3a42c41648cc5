package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vytor/dailyalbum/internal/config"
)

func run(t *testing.T, cfg config.Config, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd(cfg, &out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func testConfig(t *testing.T) config.Config {
	return config.Config{
		DBPath:             filepath.Join(t.TempDir(), "schedule.db"),
		LogLevel:           "ERROR",
		ChallengeTZ:        "UTC",
		DefaultMaxAttempts: 6,
	}
}

func TestAddThenShow(t *testing.T) {
	cfg := testConfig(t)

	out, err := run(t, cfg, "add", "--date", "2026-10-20", "--target", "album-1", "--max-attempts", "4")
	require.NoError(t, err)
	assert.Contains(t, out, "scheduled 2026-10-20")
	assert.Contains(t, out, "max_attempts=4")

	out, err = run(t, cfg, "show", "--date", "2026-10-20")
	require.NoError(t, err)
	assert.Contains(t, out, "target=album-1")
	assert.Contains(t, out, "plays=0 wins=0 avg_attempts=-")
}

func TestAdd_DefaultMaxAttempts(t *testing.T) {
	cfg := testConfig(t)

	out, err := run(t, cfg, "add", "--date", "2026-10-21", "--target", "album-2")
	require.NoError(t, err)
	assert.Contains(t, out, "max_attempts=6")
}

func TestAdd_Rejections(t *testing.T) {
	cfg := testConfig(t)

	_, err := run(t, cfg, "add", "--date", "2026-10-20", "--target", "album-1")
	require.NoError(t, err)

	_, err = run(t, cfg, "add", "--date", "2026-10-20", "--target", "album-2")
	assert.ErrorContains(t, err, "already scheduled")

	_, err = run(t, cfg, "add", "--date", "2026-10-22", "--target", "album-1", "--max-attempts", "21")
	assert.ErrorContains(t, err, "between 1 and 20")

	_, err = run(t, cfg, "add", "--date", "2026-10-22")
	assert.Error(t, err)

	_, err = run(t, cfg, "add", "--date", "22/10/2026", "--target", "album-1")
	assert.ErrorContains(t, err, "YYYY-MM-DD")
}

func TestShow_Missing(t *testing.T) {
	_, err := run(t, testConfig(t), "show", "--date", "1999-01-01")
	assert.ErrorContains(t, err, "no challenge scheduled for 1999-01-01")
}
