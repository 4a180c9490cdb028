// Package mutation applies likes and bookmarks optimistically.
//
// A toggle updates the interaction store immediately, then syncs with the server. Network sync is serialized per post and per kind: each sync compares the membership the user wants (the store) against the last membership the server confirmed, and sends requests until they agree. If a request fails and the post was not toggled again meanwhile, the store is set back to the last confirmed membership, and every toggle folded into that request reports the failure. If it was toggled again, nothing is rolled back and the latest membership is sent instead, so a slow earlier request never overwrites the outcome of a later toggle. A 401 is never rolled back: the session teardown has already dropped interaction state.
//
// Settling a like (success or failure) invalidates the cached lists showing like counts. Bookmarks invalidate nothing.
package mutation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/leandroruel/unrot.app-front/api/unrot"
	"github.com/leandroruel/unrot.app-front/client"
	"github.com/leandroruel/unrot.app-front/feed"
	"github.com/leandroruel/unrot.app-front/interaction"

	"github.com/puzpuzpuz/xsync/v3"
)

type Kind string

const (
	KindLike     Kind = "like"
	KindBookmark Kind = "bookmark"
	KindShare    Kind = "share"
)

// Error is a failed mutation. It is meant to be shown as a transient notice: the local state has already been repaired when RolledBack is set.
type Error struct {
	PostID     string
	Kind       Kind
	RolledBack bool
	Err        error
}

func (e *Error) Error() string {
	if e.RolledBack {
		return fmt.Sprintf("%s of post %s failed (reverted): %v", e.Kind, e.PostID, e.Err)
	}
	return fmt.Sprintf("%s of post %s failed: %v", e.Kind, e.PostID, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

type Config struct {
	// Optional. Lists to invalidate when a like or share settles.
	Registry *feed.Registry

	// Optional. Called for every failed mutation, in addition to the error being returned.
	OnError func(*Error)

	Logger *slog.Logger
}

type Protocol struct {
	client   unrot.RestClient
	store    *interaction.Store
	registry *feed.Registry
	onError  func(*Error)
	logger   *slog.Logger

	states *xsync.MapOf[string, *syncState]
	// bumped by Reset; syncs from an older epoch stop writing
	epoch atomic.Uint64
}

// per post and kind
type syncState struct {
	epoch uint64

	// held for the whole network phase
	send sync.Mutex

	mu        sync.Mutex
	confirmed bool
	// store version of the membership the server last confirmed
	confirmedAt uint64
	// toggles applied locally but not yet settled
	pending int
	// toggles undone by failed requests
	discarded []discard
}

// toggles with store versions in (after, upTo] were rolled back
type discard struct {
	after, upTo uint64
	err         error
}

func (st *syncState) discardedBy(version uint64) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	for _, d := range st.discarded {
		if version > d.after && version <= d.upTo {
			return d.err
		}
	}
	return nil
}

func NewProtocol(c unrot.RestClient, store *interaction.Store, config Config) *Protocol {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Protocol{
		client:   c,
		store:    store,
		registry: config.Registry,
		onError:  config.OnError,
		logger:   logger.With("system", "mutation"),
		states:   xsync.NewMapOf[string, *syncState](),
	}
}

func stateKey(kind Kind, postID string) string {
	return string(kind) + ":" + postID
}

// ToggleLike flips the like state of a post and syncs it with the server. The interaction store changes before any request is sent; the call returns once this post's likes have settled.
//
// Returns an [*Error] if the server rejected the change, after the store was repaired. A toggle superseded by a later one is not rolled back when its request fails; the later intent is sent instead.
func (p *Protocol) ToggleLike(ctx context.Context, postID string) error {
	return p.toggle(ctx, KindLike, postID)
}

// ToggleBookmark is the bookmark counterpart of [Protocol.ToggleLike].
func (p *Protocol) ToggleBookmark(ctx context.Context, postID string) error {
	return p.toggle(ctx, KindBookmark, postID)
}

// Reset forgets all sync state. Requests already in flight no longer touch the interaction store. Called when the session is torn down.
func (p *Protocol) Reset() {
	p.epoch.Add(1)
	p.states.Clear()
}

func (p *Protocol) toggle(ctx context.Context, kind Kind, postID string) error {
	key := stateKey(kind, postID)
	ikind := interaction.Kind(kind)

	// pins the state until settled
	st, _ := p.states.Compute(key, func(st *syncState, loaded bool) (*syncState, bool) {
		if !loaded {
			// nothing in flight: the store matches the server
			member, version := p.store.State(ikind, postID)
			st = &syncState{epoch: p.epoch.Load(), confirmed: member, confirmedAt: version}
		}
		st.mu.Lock()
		st.pending++
		st.mu.Unlock()
		return st, false
	})

	// subscribers run on this goroutine, outside the map lock
	change := p.store.Toggle(ikind, postID)

	err := p.sync(ctx, ikind, postID, st, change.Version)
	p.settle(kind, postID, key, st)

	if err != nil {
		merr := &Error{PostID: postID, Kind: kind, RolledBack: !errors.Is(err, client.ErrUnauthorized), Err: err}
		mutations.WithLabelValues(string(kind), "error").Inc()
		if p.onError != nil {
			p.onError(merr)
		}
		return merr
	}
	mutations.WithLabelValues(string(kind), "ok").Inc()
	return nil
}

// sends requests until the server agrees with the store, or one fails. own is the store version of the caller's toggle.
func (p *Protocol) sync(ctx context.Context, kind interaction.Kind, postID string, st *syncState, own uint64) error {
	st.send.Lock()
	defer st.send.Unlock()

	for {
		if st.epoch != p.epoch.Load() {
			return nil
		}
		desired, version := p.store.State(kind, postID)
		st.mu.Lock()
		confirmed, confirmedAt := st.confirmed, st.confirmedAt
		if desired == confirmed {
			st.confirmedAt = version
		}
		st.mu.Unlock()
		if desired == confirmed {
			return st.discardedBy(own)
		}

		err := p.send(ctx, kind, postID, desired)
		if err == nil {
			st.mu.Lock()
			st.confirmed = desired
			st.confirmedAt = version
			st.mu.Unlock()
			continue
		}

		if errors.Is(err, client.ErrUnauthorized) {
			// the session teardown already dropped interaction state
			p.logger.Warn("mutation unauthorized", "kind", kind, "post", postID)
			return err
		}
		if st.epoch != p.epoch.Load() {
			return err
		}
		if !p.store.SetIf(kind, postID, version, confirmed) {
			p.logger.Info("mutation failed, resending latest toggle", "kind", kind, "post", postID, "err", err)
			continue
		}
		p.logger.Warn("mutation failed, rolled back", "kind", kind, "post", postID, "err", err)
		rollbacks.WithLabelValues(string(kind)).Inc()
		st.mu.Lock()
		st.discarded = append(st.discarded, discard{after: confirmedAt, upTo: version, err: err})
		st.mu.Unlock()
		return err
	}
}

func (p *Protocol) send(ctx context.Context, kind interaction.Kind, postID string, add bool) error {
	switch {
	case kind == interaction.KindLike && add:
		return unrot.LikeCreate(ctx, p.client, postID)
	case kind == interaction.KindLike:
		return unrot.LikeDelete(ctx, p.client, postID)
	case add:
		return unrot.BookmarkCreate(ctx, p.client, postID)
	default:
		return unrot.BookmarkDelete(ctx, p.client, postID)
	}
}

func (p *Protocol) settle(kind Kind, postID, key string, st *syncState) {
	// drop idle state, atomically with respect to new toggles of the same key
	p.states.Compute(key, func(cur *syncState, loaded bool) (*syncState, bool) {
		if !loaded || cur != st {
			return cur, !loaded
		}
		st.mu.Lock()
		defer st.mu.Unlock()
		st.pending--
		return st, st.pending == 0
	})

	if kind == KindLike {
		p.invalidate(postID)
	}
}

// like and share counts are shown by every post list and by the post view
func (p *Protocol) invalidate(postID string) {
	if p.registry == nil {
		return
	}
	p.registry.Invalidate(feed.KeyHome, feed.KeyPosts, feed.PostKey(postID))
}

// Share records a share of the post. Shares are not tracked locally, so there is nothing to roll back.
func (p *Protocol) Share(ctx context.Context, postID string) error {
	err := unrot.ShareCreate(ctx, p.client, postID)
	if err != nil {
		merr := &Error{PostID: postID, Kind: KindShare, Err: err}
		mutations.WithLabelValues(string(KindShare), "error").Inc()
		if p.onError != nil {
			p.onError(merr)
		}
		return merr
	}
	mutations.WithLabelValues(string(KindShare), "ok").Inc()
	p.invalidate(postID)
	return nil
}

// Pending returns the number of posts with toggles not yet settled.
func (p *Protocol) Pending() int {
	return p.states.Size()
}
