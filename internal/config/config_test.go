package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points HOME and the working directory at a fresh temp dir so no
// developer config leaks into the test.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, name := range []string{
		"HOFMERGE_LOG_LEVEL", "HOFMERGE_LOG_FORMAT", "HOFMERGE_CONTINUE_ON_ERROR",
		"HOFMERGE_OVERWRITE", "HOFMERGE_REPORT", "HOFMERGE_REPORT_FILE",
	} {
		t.Setenv(name, "")
	}

	oldCwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(home))
	t.Cleanup(func() { os.Chdir(oldCwd) })
	return home
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "console", cfg.LogFormat)
	assert.False(t, cfg.ContinueOnError)
	assert.False(t, cfg.Overwrite)
	assert.Empty(t, cfg.ReportPath)
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	home := isolate(t)

	dir := filepath.Join(home, ".config", "hofmerge")
	require.NoError(t, os.MkdirAll(dir, 0755))
	yamlConfig := "log_level: warn\nlog_format: json\ncontinue_on_error: true\nreport_path: /tmp/from-yaml.json\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yamlConfig), 0644))

	t.Setenv("HOFMERGE_LOG_LEVEL", "debug")
	t.Setenv("HOFMERGE_OVERWRITE", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel, "env overrides yaml")
	assert.Equal(t, "json", cfg.LogFormat)
	assert.True(t, cfg.ContinueOnError)
	assert.True(t, cfg.Overwrite)
	assert.Equal(t, "/tmp/from-yaml.json", cfg.ReportPath)
}

func TestLoad_EnvLocal(t *testing.T) {
	home := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(home, ".env.local"), []byte("HOFMERGE_LOG_FORMAT=json\n"), 0644))
	// godotenv never overrides a variable that is already set, even to "".
	require.NoError(t, os.Unsetenv("HOFMERGE_LOG_FORMAT"))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoad_ReportPathFromFile(t *testing.T) {
	home := isolate(t)
	secret := filepath.Join(home, "report-path")
	require.NoError(t, os.WriteFile(secret, []byte("/var/run/report.yaml\n"), 0644))
	t.Setenv("HOFMERGE_REPORT_FILE", secret)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/var/run/report.yaml", cfg.ReportPath)
}

func TestEnvBool(t *testing.T) {
	t.Setenv("HOFMERGE_TEST_BOOL", "")
	_, ok := envBool("HOFMERGE_TEST_BOOL")
	assert.False(t, ok)

	t.Setenv("HOFMERGE_TEST_BOOL", "nope")
	_, ok = envBool("HOFMERGE_TEST_BOOL")
	assert.False(t, ok)

	t.Setenv("HOFMERGE_TEST_BOOL", "1")
	v, ok := envBool("HOFMERGE_TEST_BOOL")
	assert.True(t, ok)
	assert.True(t, v)

	t.Setenv("HOFMERGE_TEST_BOOL", "false")
	v, ok = envBool("HOFMERGE_TEST_BOOL")
	assert.True(t, ok)
	assert.False(t, v)
}

func TestFindEnvLocal_InParentDir(t *testing.T) {
	tmpDir := t.TempDir()
	childDir := filepath.Join(tmpDir, "child")
	require.NoError(t, os.Mkdir(childDir, 0755))
	envPath := filepath.Join(tmpDir, ".env.local")
	require.NoError(t, os.WriteFile(envPath, []byte("TEST=parent"), 0644))

	oldCwd, _ := os.Getwd()
	defer os.Chdir(oldCwd)
	require.NoError(t, os.Chdir(childDir))

	result := findEnvLocal()
	require.NotEmpty(t, result)

	// macOS /var -> /private/var
	expected, _ := filepath.EvalSymlinks(envPath)
	actual, _ := filepath.EvalSymlinks(result)
	assert.Equal(t, expected, actual)
}

func TestFindEnvLocal_ClosestWins(t *testing.T) {
	tmpDir := t.TempDir()
	parentDir := filepath.Join(tmpDir, "parent")
	childDir := filepath.Join(parentDir, "child")
	require.NoError(t, os.MkdirAll(childDir, 0755))

	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ".env.local"), []byte("TEST=grandparent"), 0644))
	parentEnvPath := filepath.Join(parentDir, ".env.local")
	require.NoError(t, os.WriteFile(parentEnvPath, []byte("TEST=parent"), 0644))

	oldCwd, _ := os.Getwd()
	defer os.Chdir(oldCwd)
	require.NoError(t, os.Chdir(childDir))

	expected, _ := filepath.EvalSymlinks(parentEnvPath)
	actual, _ := filepath.EvalSymlinks(findEnvLocal())
	assert.Equal(t, expected, actual)
}

func TestFindEnvLocal_StopsAtHome(t *testing.T) {
	home := isolate(t)
	// A .env.local above HOME must not be picked up.
	child := filepath.Join(home, "work")
	require.NoError(t, os.Mkdir(child, 0755))
	require.NoError(t, os.Chdir(child))

	assert.Empty(t, findEnvLocal())
}
