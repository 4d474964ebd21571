package ipc

import (
	"context"
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func socketPath(t *testing.T) string {
	t.Helper()
	// Keep unix socket paths short; TempDir paths can exceed sun_path.
	dir, err := os.MkdirTemp("/tmp", "glimpse-ipc")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	return filepath.Join(dir, "glimpse.sock")
}

func TestServeSendRoundTrip(t *testing.T) {
	path := socketPath(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	listener, err := Acquire(ctx, path, 100*time.Millisecond, 0)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		done <- Serve(ctx, listener, HandlerFunc(func(_ context.Context, req Request) Response {
			require.Equal(t, "prompt", req.Command)
			require.Equal(t, "describe this", req.Prompt)
			data, _ := json.Marshal(map[string]string{"content_type": "code"})
			return Response{OK: true, State: "idle", Data: data}
		}))
	}()

	resp, err := Send(ctx, path, Request{Command: "prompt", Prompt: "describe this"}, time.Second)
	require.NoError(t, err)
	require.True(t, resp.OK)
	require.Equal(t, "idle", resp.State)
	require.Contains(t, string(resp.Data), "content_type")

	cancel()
	require.NoError(t, <-done)
}

func TestProbeWithoutListener(t *testing.T) {
	path := socketPath(t)

	alive, err := Probe(context.Background(), path, 100*time.Millisecond)
	require.NoError(t, err)
	require.False(t, alive)
}

func TestAcquireReclaimsStaleSocket(t *testing.T) {
	path := socketPath(t)
	ctx := context.Background()

	// A dead listener leaves its socket file behind.
	listener, err := net.Listen("unix", path)
	require.NoError(t, err)
	listener.(*net.UnixListener).SetUnlinkOnClose(false)
	require.NoError(t, listener.Close())
	_, statErr := os.Stat(path)
	require.NoError(t, statErr)

	reclaimed, err := Acquire(ctx, path, 100*time.Millisecond, 1)
	require.NoError(t, err)
	defer reclaimed.Close()
}

func TestAcquireDetectsLiveOwner(t *testing.T) {
	path := socketPath(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	listener, err := Acquire(ctx, path, 100*time.Millisecond, 0)
	require.NoError(t, err)

	go func() {
		_ = Serve(ctx, listener, HandlerFunc(func(context.Context, Request) Response {
			return Response{OK: true, State: "idle"}
		}))
	}()

	// Give Serve a beat to start accepting.
	require.Eventually(t, func() bool {
		alive, _ := Probe(ctx, path, 100*time.Millisecond)
		return alive
	}, time.Second, 10*time.Millisecond)

	_, err = Acquire(ctx, path, 200*time.Millisecond, 0)
	require.ErrorIs(t, err, ErrAlreadyRunning)
}
