package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	defer func() {
		strategyFile = ""
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()
	return out.String(), err
}

func TestCommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"scan", "universe", "serve", "strategy"} {
		assert.True(t, names[want], want)
	}
}

func TestScanFlags(t *testing.T) {
	for _, name := range []string{"tickers", "top", "require-volume-spike", "workers", "json", "output"} {
		assert.NotNil(t, scanCmd.Flags().Lookup(name), name)
	}
}

func TestStrategyShow_Default(t *testing.T) {
	out, err := execute(t, "strategy", "show")
	require.NoError(t, err)

	assert.Contains(t, out, "# hash: ")
	assert.Contains(t, out, "leap_call_default")
}

func TestStrategyValidate(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "good.yaml")
	require.NoError(t, os.WriteFile(good, []byte("technical:\n  rsi_max: 55\n"), 0o644))
	out, err := execute(t, "strategy", "validate", good)
	require.NoError(t, err)
	assert.Contains(t, out, "is valid")

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("technical:\n  rsi_maximum: 55\n"), 0o644))
	_, err = execute(t, "strategy", "validate", bad)
	assert.Error(t, err)
}

func TestWriteOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.md")
	require.NoError(t, writeOutput(scanCmd, path, []byte("# report")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "# report", string(data))
}
