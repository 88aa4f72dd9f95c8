package assets

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	files  map[string][]byte
	putErr error
}

func (s *fakeStore) Put(_ context.Context, name string, r io.Reader) error {
	if s.putErr != nil {
		return s.putErr
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.files[name] = b
	return nil
}

func (s *fakeStore) Delete(_ context.Context, name string) error {
	if _, ok := s.files[name]; !ok {
		return errors.New("550 file not found")
	}
	delete(s.files, name)
	return nil
}

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestSynchronizer_Upload(t *testing.T) {
	store := &fakeStore{files: map[string][]byte{}}
	sync := NewSynchronizer(store, zerolog.Nop())
	ctx := context.Background()

	t.Run("stores under the remote name", func(t *testing.T) {
		path := writeTemp(t, "scan-0001.tmp", "jpeg bytes")

		require.NoError(t, sync.Upload(ctx, path, "mozart-front.jpg"))
		assert.Equal(t, []byte("jpeg bytes"), store.files["mozart-front.jpg"])
		assert.NotContains(t, store.files, "scan-0001.tmp")
	})

	t.Run("missing local file", func(t *testing.T) {
		err := sync.Upload(ctx, filepath.Join(t.TempDir(), "absent.jpg"), "absent.jpg")
		var terr *TransferError
		require.True(t, errors.As(err, &terr))
		assert.Equal(t, "absent.jpg", terr.FileName)
		assert.True(t, errors.Is(err, os.ErrNotExist))
	})

	t.Run("remote name with path", func(t *testing.T) {
		path := writeTemp(t, "a.jpg", "x")
		err := sync.Upload(ctx, path, "../a.jpg")
		assert.True(t, errors.Is(err, ErrInvalidName))
	})

	t.Run("store failure", func(t *testing.T) {
		failing := NewSynchronizer(&fakeStore{files: map[string][]byte{}, putErr: errors.New("connection reset")}, zerolog.Nop())
		path := writeTemp(t, "b.jpg", "x")

		err := failing.Upload(ctx, path, "b.jpg")
		var terr *TransferError
		require.True(t, errors.As(err, &terr))
		assert.Equal(t, "upload", terr.Op)
		assert.Contains(t, err.Error(), "connection reset")
	})
}

func TestSynchronizer_Delete(t *testing.T) {
	store := &fakeStore{files: map[string][]byte{"old.jpg": []byte("x")}}
	sync := NewSynchronizer(store, zerolog.Nop())

	require.NoError(t, sync.Delete(context.Background(), "old.jpg"))
	assert.Empty(t, store.files)

	err := sync.Delete(context.Background(), "old.jpg")
	var terr *TransferError
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, "delete", terr.Op)
}
