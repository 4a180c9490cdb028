package tokenstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, exp time.Time) string {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	s, err := tok.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return s
}

func TestExpiry(t *testing.T) {
	assert := assert.New(t)

	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	got, ok := Expiry(signedToken(t, exp))
	assert.True(ok)
	assert.True(exp.Equal(got))

	_, ok = Expiry("opaque-session-token")
	assert.False(ok)
}

func TestSubject(t *testing.T) {
	assert := assert.New(t)

	sub, ok := Subject(signedToken(t, time.Now().Add(time.Hour)))
	assert.True(ok)
	assert.Equal("user-1", sub)

	_, ok = Subject("opaque-session-token")
	assert.False(ok)
}

func testStore(t *testing.T, s Store) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	_, err := s.Load(ctx)
	assert.ErrorIs(err, ErrNoToken)

	require.NoError(s.Save(ctx, "opaque-token"))
	tok, err := s.Load(ctx)
	require.NoError(err)
	assert.Equal("opaque-token", tok)

	require.NoError(s.Clear(ctx))
	_, err = s.Load(ctx)
	assert.ErrorIs(err, ErrNoToken)

	// clearing twice is fine
	require.NoError(s.Clear(ctx))

	fresh := signedToken(t, time.Now().Add(time.Hour))
	require.NoError(s.Save(ctx, fresh))
	tok, err = s.Load(ctx)
	require.NoError(err)
	assert.Equal(fresh, tok)

	require.NoError(s.Save(ctx, signedToken(t, time.Now().Add(-time.Minute))))
	_, err = s.Load(ctx)
	assert.ErrorIs(err, ErrNoToken)

	assert.Error(s.Save(ctx, ""))
}

func TestMemoryStore(t *testing.T) {
	testStore(t, NewMemoryStore())
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	s := &FileStore{Path: path}
	testStore(t, s)

	require.NoError(t, s.Save(context.Background(), "opaque-token"))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}
