package fsstore_test

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i2y/camelconv/internal/adapter/outbound/fsstore"
	"github.com/i2y/camelconv/internal/domain"
)

func newStore(dir string) *fsstore.Store {
	return fsstore.NewStore(dir, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestStore_Save(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out", "nested")
	store := newStore(dir)
	assert.Equal(t, dir, store.Dir())

	err := store.Save(context.Background(), []domain.Artifact{
		{Name: "CamelRoutes.java", Content: []byte("class A {}\n")},
		{Name: "routes.json", Content: []byte("[]\n")},
	})
	require.NoError(t, err)

	got, err := os.ReadFile(filepath.Join(dir, "CamelRoutes.java"))
	require.NoError(t, err)
	assert.Equal(t, "class A {}\n", string(got))

	got, err = os.ReadFile(filepath.Join(dir, "routes.json"))
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(got))
}

func TestStore_Save_Overwrites(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "routes.json"), []byte("a much longer previous content"), 0o644))

	require.NoError(t, newStore(dir).Save(context.Background(), []domain.Artifact{{Name: "routes.json", Content: []byte("[]")}}))

	got, err := os.ReadFile(filepath.Join(dir, "routes.json"))
	require.NoError(t, err)
	assert.Equal(t, "[]", string(got))
}

func TestStore_Save_RejectsEscapingNames(t *testing.T) {
	for _, name := range []string{"", "../evil.java", "/etc/passwd"} {
		t.Run(name, func(t *testing.T) {
			err := newStore(t.TempDir()).Save(context.Background(), []domain.Artifact{{Name: name}})
			assert.Error(t, err)
		})
	}
}

func TestStore_Save_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	dir := t.TempDir()
	err := newStore(dir).Save(ctx, []domain.Artifact{{Name: "a.txt", Content: []byte("x")}})
	assert.ErrorIs(t, err, context.Canceled)
	_, statErr := os.Stat(filepath.Join(dir, "a.txt"))
	assert.True(t, os.IsNotExist(statErr))
}
