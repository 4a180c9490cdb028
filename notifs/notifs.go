// Package notifs is the notification inbox of the current account.
//
// The backend only lists notifications; read state is tracked on the client. A notification counts as read if the server says so, if it was marked read individually, or if it is no newer than the account's "last seen" time (set by [Inbox.MarkAllRead]).
package notifs

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/leandroruel/unrot.app-front/api/unrot"
	"github.com/leandroruel/unrot.app-front/util"
)

const DefaultPageSize = 50

type Notification struct {
	ID        string
	Type      string
	FromUser  unrot.NotificationActor
	PostID    string
	Message   string
	CreatedAt time.Time
	IsRead    bool
}

type Inbox struct {
	client   unrot.RestClient
	seen     SeenStore
	account  string
	pageSize int
	logger   *slog.Logger

	mu     sync.Mutex
	notifs []*Notification
}

type Config struct {
	// Scopes persisted read state. Usually the account id.
	Account  string
	PageSize int
	Logger   *slog.Logger
}

// A nil SeenStore keeps read state in memory only.
func NewInbox(c unrot.RestClient, seen SeenStore, config Config) *Inbox {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if seen == nil {
		seen = NewMemorySeen()
	}
	size := config.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}
	return &Inbox{
		client:   c,
		seen:     seen,
		account:  config.Account,
		pageSize: size,
		logger:   logger.With("system", "notifs"),
	}
}

// Load fetches the most recent page of notifications, newest first, and applies the local read state.
func (in *Inbox) Load(ctx context.Context) error {
	page, err := unrot.NotificationsList(ctx, in.client, 0, in.pageSize)
	if err != nil {
		return fmt.Errorf("listing notifications: %w", err)
	}

	lastSeen, err := in.seen.LastSeen(ctx, in.account)
	if err != nil {
		return err
	}
	readIDs, err := in.seen.ReadIDs(ctx, in.account)
	if err != nil {
		return err
	}

	out := make([]*Notification, 0, len(page.Content))
	for _, rec := range page.Content {
		if rec == nil || rec.ID == "" {
			continue
		}
		createdAt, err := util.ParseTimestamp(rec.CreatedAt)
		if err != nil {
			in.logger.Warn("notification with unparseable timestamp", "notification", rec.ID, "err", err)
		}
		n := &Notification{
			ID:        rec.ID,
			Type:      rec.Type,
			FromUser:  rec.FromUser,
			Message:   rec.Message,
			CreatedAt: createdAt,
		}
		if rec.PostID != nil {
			n.PostID = *rec.PostID
		}
		n.IsRead = rec.IsRead || readIDs[n.ID] || (!createdAt.IsZero() && !createdAt.After(lastSeen))
		out = append(out, n)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	in.mu.Lock()
	in.notifs = out
	in.mu.Unlock()
	return nil
}

// Notifications returns copies of the loaded notifications.
func (in *Inbox) Notifications() []Notification {
	in.mu.Lock()
	defer in.mu.Unlock()
	out := make([]Notification, len(in.notifs))
	for i, n := range in.notifs {
		out[i] = *n
	}
	return out
}

func (in *Inbox) UnreadCount() int {
	in.mu.Lock()
	defer in.mu.Unlock()
	c := 0
	for _, n := range in.notifs {
		if !n.IsRead {
			c++
		}
	}
	return c
}

func (in *Inbox) MarkRead(ctx context.Context, id string) error {
	if err := in.seen.MarkRead(ctx, in.account, id); err != nil {
		return err
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	for _, n := range in.notifs {
		if n.ID == id {
			n.IsRead = true
		}
	}
	return nil
}

// MarkAllRead marks every loaded notification read, and moves the last-seen time forward to the newest of them.
func (in *Inbox) MarkAllRead(ctx context.Context) error {
	in.mu.Lock()
	var newest time.Time
	for _, n := range in.notifs {
		if n.CreatedAt.After(newest) {
			newest = n.CreatedAt
		}
	}
	in.mu.Unlock()

	if !newest.IsZero() {
		if err := in.seen.UpdateSeen(ctx, in.account, newest); err != nil {
			return err
		}
	}

	in.mu.Lock()
	defer in.mu.Unlock()
	for _, n := range in.notifs {
		n.IsRead = true
	}
	return nil
}
