package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rbright/glimpse/internal/ipc"
)

type runnerPaths struct {
	configPath string
	runtimeDir string
}

func setupRunnerEnv(t *testing.T) runnerPaths {
	t.Helper()

	stateDir := t.TempDir()
	t.Setenv("XDG_STATE_HOME", stateDir)

	runtimeDir, err := os.MkdirTemp("/tmp", "glimpse-run")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(runtimeDir) })
	t.Setenv("XDG_RUNTIME_DIR", runtimeDir)

	configPath := filepath.Join(t.TempDir(), "config.conf")
	content := `{
  // test fixture
  "provider": { "api_key": "test-key" },
}
`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o600))

	return runnerPaths{configPath: configPath, runtimeDir: runtimeDir}
}

func TestExecuteHelp(t *testing.T) {
	var stdout bytes.Buffer
	var stderr bytes.Buffer

	exitCode := Execute(context.Background(), []string{"--help"}, &stdout, &stderr)
	require.Equal(t, 0, exitCode)
	require.Contains(t, stdout.String(), "Usage:")
	require.Empty(t, stderr.String())
}

func TestExecuteVersion(t *testing.T) {
	var stdout bytes.Buffer
	var stderr bytes.Buffer

	exitCode := Execute(context.Background(), []string{"version"}, &stdout, &stderr)
	require.Equal(t, 0, exitCode)
	require.Contains(t, stdout.String(), "glimpse")
	require.Empty(t, stderr.String())
}

func TestExecuteUnknownCommand(t *testing.T) {
	var stdout bytes.Buffer
	var stderr bytes.Buffer

	exitCode := Execute(context.Background(), []string{"definitely-not-a-command"}, &stdout, &stderr)
	require.Equal(t, 2, exitCode)
	require.Contains(t, stderr.String(), "unknown command")
	require.Contains(t, stderr.String(), "Usage:")
}

func TestRunnerStatusIdleWhenSocketUnavailable(t *testing.T) {
	paths := setupRunnerEnv(t)

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	runner := Runner{Stdout: &stdout, Stderr: &stderr}

	exitCode := runner.Execute(context.Background(), []string{"--config", paths.configPath, "status"})
	require.Equal(t, 0, exitCode)
	require.Equal(t, "idle\n", stdout.String())
	require.Empty(t, stderr.String())
}

func TestRunnerStopWithoutDaemonFails(t *testing.T) {
	paths := setupRunnerEnv(t)

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	runner := Runner{Stdout: &stdout, Stderr: &stderr}

	exitCode := runner.Execute(context.Background(), []string{"--config", paths.configPath, "stop"})
	require.Equal(t, 1, exitCode)
	require.Contains(t, stderr.String(), "no running glimpse daemon")
}

func TestRunnerForwardsCommandsToDaemon(t *testing.T) {
	paths := setupRunnerEnv(t)
	commands := make(chan ipc.Request, 8)

	socketPath := filepath.Join(paths.runtimeDir, "glimpse.sock")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	listener, err := ipc.Acquire(ctx, socketPath, 100*time.Millisecond, 0)
	require.NoError(t, err)

	serveDone := make(chan error, 1)
	go func() {
		serveDone <- ipc.Serve(ctx, listener, ipc.HandlerFunc(func(_ context.Context, req ipc.Request) ipc.Response {
			commands <- req
			return ipc.Response{OK: true, Message: "ok: " + req.Command}
		}))
	}()

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	runner := Runner{Stdout: &stdout, Stderr: &stderr}

	exitCode := runner.Execute(ctx, []string{"--config", paths.configPath, "snap", "what", "is", "this"})
	require.Equal(t, 0, exitCode)
	require.Contains(t, stdout.String(), "ok: snap")

	forwarded := <-commands
	require.Equal(t, "snap", forwarded.Command)
	require.Equal(t, "what is this", forwarded.Prompt)

	cancel()
	require.NoError(t, <-serveDone)
}

func TestRunnerPromptRequiresText(t *testing.T) {
	paths := setupRunnerEnv(t)

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	runner := Runner{Stdout: &stdout, Stderr: &stderr}

	exitCode := runner.Execute(context.Background(), []string{"--config", paths.configPath, "prompt"})
	require.Equal(t, 2, exitCode)
	require.Contains(t, stderr.String(), "prompt requires text")
}
