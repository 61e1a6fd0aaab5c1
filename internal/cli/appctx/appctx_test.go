package appctx

import (
	"errors"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func newTestCommand() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Flags().String("log-level", "", "Log level")
	cmd.Flags().String("log-format", "", "Log format")
	cmd.Flags().BoolP("verbose", "v", false, "Verbose")
	return cmd
}

func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("HOFMERGE_LOG_LEVEL", "")
	t.Setenv("HOFMERGE_LOG_FORMAT", "")
}

func TestBootstrap_Defaults(t *testing.T) {
	isolate(t)

	app, err := Bootstrap(newTestCommand())
	require.NoError(t, err)
	defer app.Close()

	require.NotNil(t, app.Config)
	require.NotNil(t, app.Log)
	assert.Equal(t, "info", app.Config.LogLevel)
	assert.False(t, app.Log.Core().Enabled(zapcore.DebugLevel))
}

func TestBootstrap_FlagsOverrideConfig(t *testing.T) {
	isolate(t)
	t.Setenv("HOFMERGE_LOG_LEVEL", "error")

	cmd := newTestCommand()
	require.NoError(t, cmd.Flags().Set("log-level", "warn"))
	require.NoError(t, cmd.Flags().Set("log-format", "json"))

	app, err := Bootstrap(cmd)
	require.NoError(t, err)
	defer app.Close()
	assert.Equal(t, "warn", app.Config.LogLevel)
	assert.Equal(t, "json", app.Config.LogFormat)

	require.NoError(t, cmd.Flags().Set("verbose", "true"))
	app, err = Bootstrap(cmd)
	require.NoError(t, err)
	defer app.Close()
	assert.True(t, app.Log.Core().Enabled(zapcore.DebugLevel))
}

func TestBootstrap_InvalidLevel(t *testing.T) {
	isolate(t)
	cmd := newTestCommand()
	require.NoError(t, cmd.Flags().Set("log-level", "loud"))

	_, err := Bootstrap(cmd)
	assert.Error(t, err)
}

func TestWithApp(t *testing.T) {
	isolate(t)
	boom := errors.New("boom")

	var got *App
	run := WithApp(func(app *App, cmd *cobra.Command, args []string) error {
		got = app
		assert.NotNil(t, app.Log)
		return boom
	})

	err := run(newTestCommand(), nil)
	assert.ErrorIs(t, err, boom)
	require.NotNil(t, got)
	assert.Nil(t, got.Log, "logger is released after the command returns")
}
