package artifact

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStageAndRead(t *testing.T) {
	store := NewStore(t.TempDir())

	a, err := store.Stage([]byte("payload"), "clip.webm", "video/webm")
	require.NoError(t, err)
	require.NotEmpty(t, a.ID)
	require.Equal(t, int64(7), a.ByteLength)
	require.Equal(t, "video/webm", a.MimeType)

	data, err := store.Read(a)
	require.NoError(t, err)
	require.Equal(t, "payload", string(data))
}

func TestStageBase64StripsDataURLPrefix(t *testing.T) {
	store := NewStore(t.TempDir())

	a, err := store.StageBase64("data:image/png;base64,AAAA", "x.png", "image/png")
	require.NoError(t, err)

	want, _ := base64.StdEncoding.DecodeString("AAAA")
	data, err := store.Read(a)
	require.NoError(t, err)
	require.Equal(t, want, data)
}

func TestStageBase64WithoutPrefix(t *testing.T) {
	store := NewStore(t.TempDir())

	encoded := base64.StdEncoding.EncodeToString([]byte("hello"))
	a, err := store.StageBase64(encoded, "note.txt", "text/plain")
	require.NoError(t, err)

	data, err := store.Read(a)
	require.NoError(t, err)
	require.Equal(t, "hello", string(data))
}

func TestStageBase64RejectsGarbage(t *testing.T) {
	store := NewStore(t.TempDir())

	_, err := store.StageBase64("not base64 at all!!", "x.bin", "application/octet-stream")
	require.Error(t, err)
}

func TestReadMissingArtifact(t *testing.T) {
	store := NewStore(t.TempDir())

	a, err := store.Stage([]byte("x"), "gone.txt", "text/plain")
	require.NoError(t, err)
	require.NoError(t, os.Remove(a.SourcePath))

	_, err = store.Read(a)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteTwiceSucceeds(t *testing.T) {
	store := NewStore(t.TempDir())

	a, err := store.Stage([]byte("x"), "twice.txt", "text/plain")
	require.NoError(t, err)

	require.NoError(t, store.Delete(a))
	require.NoError(t, store.Delete(a))
}

func TestPurgeAllRemovesStagedFiles(t *testing.T) {
	store := NewStore(t.TempDir())

	a, err := store.Stage([]byte("1"), "a.txt", "text/plain")
	require.NoError(t, err)
	b, err := store.Stage([]byte("2"), "b.txt", "text/plain")
	require.NoError(t, err)

	// Simulate a concurrent delete racing purge.
	require.NoError(t, os.Remove(b.SourcePath))

	require.NoError(t, store.PurgeAll())

	_, err = store.Read(a)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestPurgeAllBeforeFirstStageIsNoop(t *testing.T) {
	store := NewStore(t.TempDir())
	require.NoError(t, store.PurgeAll())
}

func TestUniqueNamesAvoidCollisions(t *testing.T) {
	store := NewStore(t.TempDir())

	a, err := store.Stage([]byte("1"), "same.png", "image/png")
	require.NoError(t, err)
	b, err := store.Stage([]byte("2"), "same.png", "image/png")
	require.NoError(t, err)

	require.NotEqual(t, a.SourcePath, b.SourcePath)
	require.True(t, strings.HasSuffix(a.SourcePath, "same.png"))
	require.Equal(t, filepath.Dir(a.SourcePath), filepath.Dir(b.SourcePath))
}

func TestMimeTypeForName(t *testing.T) {
	require.Equal(t, "image/png", MimeTypeForName("shot.PNG"))
	require.Equal(t, "video/webm", MimeTypeForName("rec.webm"))
	require.Equal(t, "application/octet-stream", MimeTypeForName("blob.xyz"))
}
