package cgconfig_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/codegraph/codegraph/pkg/cgconfig"
)

func TestLoadFromEnvDefaults(t *testing.T) {
	cfg := cgconfig.LoadFromEnv()
	require.NoError(t, cfg.Validate())
	require.Equal(t, "", cfg.DataDir)
	require.Equal(t, 1, cfg.SchemaVersion)
	require.True(t, cfg.IncludePrivate)
	require.True(t, cfg.IncludeTests)
}

func TestLoadFromEnvOverrides(t *testing.T) {
	t.Setenv("CODEGRAPH_DATA_DIR", "/tmp/codegraph-data")
	t.Setenv("CODEGRAPH_MAX_TRAVERSAL_DEPTH", "12")
	t.Setenv("CODEGRAPH_INCLUDE_TESTS", "false")

	cfg := cgconfig.LoadFromEnv()
	require.Equal(t, "/tmp/codegraph-data", cfg.DataDir)
	require.Equal(t, 12, cfg.MaxTraversalDepth)
	require.False(t, cfg.IncludeTests)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := cgconfig.LoadFromEnv()
	cfg.SchemaVersion = 0
	require.Error(t, cfg.Validate())

	cfg = cgconfig.LoadFromEnv()
	cfg.ExportSizeWarn = 100
	cfg.ExportSizeFail = 50
	require.Error(t, cfg.Validate())
}

func TestLoadWithYAMLOverlayFillsUnsetEnvFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "codegraph.yaml")
	writeFile(t, path, "data_dir: /var/lib/codegraph\nmax_traversal_depth: 32\n")

	cfg, err := cgconfig.LoadWithYAMLOverlay(path)
	require.NoError(t, err)
	require.Equal(t, "/var/lib/codegraph", cfg.DataDir)
	require.Equal(t, 32, cfg.MaxTraversalDepth)
}

func TestLoadWithYAMLOverlayEnvWins(t *testing.T) {
	t.Setenv("CODEGRAPH_DATA_DIR", "/env/wins")

	dir := t.TempDir()
	path := filepath.Join(dir, "codegraph.yaml")
	writeFile(t, path, "data_dir: /yaml/loses\n")

	cfg, err := cgconfig.LoadWithYAMLOverlay(path)
	require.NoError(t, err)
	require.Equal(t, "/env/wins", cfg.DataDir)
}

func TestLoadWithYAMLOverlayMissingFileIsNotAnError(t *testing.T) {
	cfg, err := cgconfig.LoadWithYAMLOverlay(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.NotNil(t, cfg)
}

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
}
