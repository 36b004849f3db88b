package auth

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaders(t *testing.T) {
	h, err := Headers(" abc ")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"Authorization": "abc"}, h)

	_, err = Headers("  ")
	assert.ErrorIs(t, err, ErrEmptyToken)
}

// exercise both implementations against the same contract
func testTokenStore(t *testing.T, s TokenStore) {
	t.Helper()
	ctx := context.Background()

	token, ok, err := s.Token(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "fresh store must report no token")
	assert.Empty(t, token)

	require.NoError(t, s.Save(ctx, "tok-1"))
	token, ok, err = s.Token(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "tok-1", token)

	require.NoError(t, s.Save(ctx, "tok-2"))
	token, _, _ = s.Token(ctx)
	assert.Equal(t, "tok-2", token)

	assert.ErrorIs(t, s.Save(ctx, ""), ErrEmptyToken)

	require.NoError(t, s.Delete(ctx))
	_, ok, err = s.Token(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	// deleting again is fine
	require.NoError(t, s.Delete(ctx))
}

func TestMemoryStore(t *testing.T) {
	testTokenStore(t, NewMemoryStore(""))

	s := NewMemoryStore("seed")
	token, ok, err := s.Token(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "seed", token)
}

func TestBoltStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.db")

	s, err := OpenBolt(path)
	require.NoError(t, err)
	testTokenStore(t, s)
	require.NoError(t, s.Close())
}

func TestBoltStore_PersistsAcrossOpen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.db")

	s, err := OpenBolt(path)
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, "persisted"))
	require.NoError(t, s.Close())

	s, err = OpenBolt(path)
	require.NoError(t, err)
	defer s.Close()

	token, ok, err := s.Token(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "persisted", token)
}

func TestOpenBolt_RequiresPath(t *testing.T) {
	_, err := OpenBolt("")
	assert.Error(t, err)
}

func TestSessionFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.db")
	testTokenStore(t, SessionFile{Path: path})

	// the file is not held open between calls
	s, err := OpenBolt(path)
	require.NoError(t, err)
	require.NoError(t, s.Save(context.Background(), "from-other-process"))
	require.NoError(t, s.Close())

	token, ok, err := SessionFile{Path: path}.Token(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "from-other-process", token)
}
