package storage

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pairchat/pairchat/internal/config"
)

func newLocalStorage(t *testing.T) *LocalStorage {
	t.Helper()
	s, err := NewLocalStorage(config.LocalConfig{BasePath: t.TempDir()})
	require.NoError(t, err)
	return s
}

func TestLocalStorage_WriteReadRoundTrip(t *testing.T) {
	req := require.New(t)
	s := newLocalStorage(t)
	ctx := context.Background()

	content := "fake image bytes"
	req.NoError(s.Write(ctx, "messages/a.png", strings.NewReader(content), int64(len(content)), "image/png"))

	exists, err := s.Exists(ctx, "messages/a.png")
	req.NoError(err)
	req.True(exists)

	rc, err := s.Read(ctx, "messages/a.png")
	req.NoError(err)
	defer rc.Close()

	got, err := io.ReadAll(rc)
	req.NoError(err)
	req.Equal(content, string(got))
}

func TestLocalStorage_GetURL(t *testing.T) {
	req := require.New(t)
	s := newLocalStorage(t)
	ctx := context.Background()

	req.NoError(s.Write(ctx, "avatars/a.png", strings.NewReader("x"), 1, "image/png"))

	url, err := s.GetURL(ctx, "avatars/a.png", time.Hour)
	req.NoError(err)
	req.Equal("/uploads/avatars/a.png", url)

	_, err = s.GetURL(ctx, "avatars/missing.png", time.Hour)
	req.Error(err)
}

func TestLocalStorage_DeleteIsIdempotent(t *testing.T) {
	req := require.New(t)
	s := newLocalStorage(t)
	ctx := context.Background()

	req.NoError(s.Write(ctx, "a.png", strings.NewReader("x"), 1, "image/png"))
	req.NoError(s.Delete(ctx, "a.png"))
	req.NoError(s.Delete(ctx, "a.png"))

	exists, err := s.Exists(ctx, "a.png")
	req.NoError(err)
	req.False(exists)
}

func TestLocalStorage_PathTraversalContained(t *testing.T) {
	req := require.New(t)
	s := newLocalStorage(t)

	// A key trying to escape the base path resolves inside it.
	path := s.fullPath("../../etc/passwd")
	req.True(strings.HasPrefix(path, s.BasePath()))
}
