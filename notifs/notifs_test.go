package notifs

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/leandroruel/unrot.app-front/api/unrot"
	"github.com/leandroruel/unrot.app-front/client"
	"github.com/leandroruel/unrot.app-front/util/cliutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func notifServer(t *testing.T) *client.APIClient {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/notifications" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(unrot.Page[*unrot.Notification]{
			Content: []*unrot.Notification{
				{ID: "n1", Type: unrot.NotificationLike, Message: "liked", PostID: strPtr("p1"), CreatedAt: "2024-05-01T10:00:00Z"},
				{ID: "n3", Type: unrot.NotificationFollow, Message: "followed", CreatedAt: "2024-05-03T10:00:00Z"},
				{ID: "n2", Type: unrot.NotificationComment, Message: "commented", CreatedAt: "2024-05-02T10:00:00Z", IsRead: true},
				{ID: "", Message: "dropped"},
			},
			Last: true,
		})
	}))
	t.Cleanup(srv.Close)
	return client.NewAPIClient(srv.URL)
}

func ids(ns []Notification) []string {
	out := make([]string, len(ns))
	for i, n := range ns {
		out[i] = n.ID
	}
	return out
}

func TestInbox(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	in := NewInbox(notifServer(t), nil, Config{Account: "u1"})
	require.NoError(in.Load(ctx))

	ns := in.Notifications()
	assert.Equal([]string{"n3", "n2", "n1"}, ids(ns))
	assert.Equal("p1", ns[2].PostID)
	assert.True(ns[1].IsRead)
	assert.Equal(2, in.UnreadCount())

	require.NoError(in.MarkRead(ctx, "n1"))
	assert.Equal(1, in.UnreadCount())

	// read state is applied again on reload
	require.NoError(in.Load(ctx))
	assert.Equal(1, in.UnreadCount())

	require.NoError(in.MarkAllRead(ctx))
	assert.Equal(0, in.UnreadCount())
	require.NoError(in.Load(ctx))
	assert.Equal(0, in.UnreadCount())
}

func TestDBSeen(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	dburl := "sqlite://" + filepath.Join(t.TempDir(), "notifs.sqlite")
	db, err := cliutil.SetupDatabase(dburl, cliutil.DatabaseOptions{})
	require.NoError(err)
	seen, err := NewDBSeen(db)
	require.NoError(err)

	last, err := seen.LastSeen(ctx, "u1")
	require.NoError(err)
	assert.True(last.IsZero())

	ts := time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC)
	require.NoError(seen.UpdateSeen(ctx, "u1", ts))
	require.NoError(seen.UpdateSeen(ctx, "u1", ts.Add(24*time.Hour)))
	last, err = seen.LastSeen(ctx, "u1")
	require.NoError(err)
	assert.True(last.Equal(ts.Add(24*time.Hour)))

	require.NoError(seen.MarkRead(ctx, "u1", "n1", "n2"))
	require.NoError(seen.MarkRead(ctx, "u1", "n1"))
	require.NoError(seen.MarkRead(ctx, "u2", "n9"))
	read, err := seen.ReadIDs(ctx, "u1")
	require.NoError(err)
	assert.Equal(map[string]bool{"n1": true, "n2": true}, read)

	// a second process sees the same state
	in := NewInbox(notifServer(t), seen, Config{Account: "u1"})
	require.NoError(in.Load(ctx))
	assert.Equal(0, in.UnreadCount())

	other := NewInbox(notifServer(t), seen, Config{Account: "u2"})
	require.NoError(other.Load(ctx))
	assert.Equal(2, other.UnreadCount())
}
