// Package interaction tracks which posts the current user has liked or bookmarked.
//
// Membership in the [Store] is the single source of truth for like and bookmark state, independent of any fetched post list. Fetched posts are overlaid with this state by [Enrich] before being shown. The store is process-lifetime only, and is reset on logout.
package interaction

import (
	"sync"
)

type Kind string

const (
	KindLike     Kind = "like"
	KindBookmark Kind = "bookmark"
	// every membership was dropped
	KindReset Kind = "reset"
)

// Change is delivered to subscribers after every membership update.
type Change struct {
	Kind    Kind
	PostID  string
	Member  bool
	Version uint64
}

// Membership answers interaction queries. Implemented by both [Store] and [Snapshot].
type Membership interface {
	IsLiked(postID string) bool
	IsBookmarked(postID string) bool
}

type Store struct {
	mu         sync.RWMutex
	liked      map[string]struct{}
	bookmarked map[string]struct{}
	version    uint64
	// store version of the last change to each kind:post pair
	changed map[string]uint64

	subMu   sync.Mutex
	nextSub int
	subs    map[int]func(Change)
}

var _ Membership = (*Store)(nil)

func NewStore() *Store {
	return &Store{
		liked:      make(map[string]struct{}),
		bookmarked: make(map[string]struct{}),
		changed:    make(map[string]uint64),
		subs:       make(map[int]func(Change)),
	}
}

func changeKey(kind Kind, postID string) string {
	return string(kind) + ":" + postID
}

func (s *Store) set(kind Kind) map[string]struct{} {
	if kind == KindLike {
		return s.liked
	}
	return s.bookmarked
}

// Toggle flips membership for a post and returns the resulting change. Purely local; it never touches the network.
func (s *Store) Toggle(kind Kind, postID string) Change {
	s.mu.Lock()
	m := s.set(kind)
	_, member := m[postID]
	if member {
		delete(m, postID)
	} else {
		m[postID] = struct{}{}
	}
	s.version++
	s.changed[changeKey(kind, postID)] = s.version
	c := Change{Kind: kind, PostID: postID, Member: !member, Version: s.version}
	s.mu.Unlock()

	s.notify(c)
	return c
}

// assign sets membership and reports whether anything changed. If check is set, nothing happens unless the pair was last changed at version.
func (s *Store) assign(kind Kind, postID string, member bool, check bool, version uint64) bool {
	s.mu.Lock()
	key := changeKey(kind, postID)
	if check && s.changed[key] != version {
		s.mu.Unlock()
		return false
	}
	m := s.set(kind)
	_, was := m[postID]
	if was == member {
		s.mu.Unlock()
		return false
	}
	if member {
		m[postID] = struct{}{}
	} else {
		delete(m, postID)
	}
	s.version++
	s.changed[key] = s.version
	c := Change{Kind: kind, PostID: postID, Member: member, Version: s.version}
	s.mu.Unlock()

	s.notify(c)
	return true
}

// ToggleLike flips like membership for a post and returns the new membership. Purely local; it never touches the network.
func (s *Store) ToggleLike(postID string) bool {
	return s.Toggle(KindLike, postID).Member
}

func (s *Store) ToggleBookmark(postID string) bool {
	return s.Toggle(KindBookmark, postID).Member
}

// SetLiked sets like membership explicitly. Returns false if membership was already equal to 'liked'.
func (s *Store) SetLiked(postID string, liked bool) bool {
	return s.assign(KindLike, postID, liked, false, 0)
}

func (s *Store) SetBookmarked(postID string, bookmarked bool) bool {
	return s.assign(KindBookmark, postID, bookmarked, false, 0)
}

// State returns the membership of a post along with the store version at which it last changed. The version is zero if it never changed since the last reset.
func (s *Store) State(kind Kind, postID string) (member bool, version uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, member = s.set(kind)[postID]
	return member, s.changed[changeKey(kind, postID)]
}

// SetIf sets membership only if the post has not changed since version, as returned by [Store.State]. Returns true if membership changed.
func (s *Store) SetIf(kind Kind, postID string, version uint64, member bool) bool {
	return s.assign(kind, postID, member, true, version)
}

func (s *Store) IsLiked(postID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.liked[postID]
	return ok
}

func (s *Store) IsBookmarked(postID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.bookmarked[postID]
	return ok
}

// Reset drops all membership. Called on logout.
func (s *Store) Reset() {
	s.mu.Lock()
	s.liked = make(map[string]struct{})
	s.bookmarked = make(map[string]struct{})
	s.changed = make(map[string]uint64)
	s.version++
	c := Change{Kind: KindReset, Version: s.version}
	s.mu.Unlock()

	s.notify(c)
}

// Version increases on every membership change.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Snapshot returns a consistent, immutable copy of the current membership.
func (s *Store) Snapshot() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := &Snapshot{
		Version:    s.version,
		liked:      make(map[string]struct{}, len(s.liked)),
		bookmarked: make(map[string]struct{}, len(s.bookmarked)),
	}
	for id := range s.liked {
		snap.liked[id] = struct{}{}
	}
	for id := range s.bookmarked {
		snap.bookmarked[id] = struct{}{}
	}
	return snap
}

// Subscribe registers fn to be called after every change, on the goroutine which made the change. The returned function cancels the subscription.
func (s *Store) Subscribe(fn func(Change)) (cancel func()) {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Store) notify(c Change) {
	s.subMu.Lock()
	fns := make([]func(Change), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(c)
	}
}

type Snapshot struct {
	Version    uint64
	liked      map[string]struct{}
	bookmarked map[string]struct{}
}

var _ Membership = (*Snapshot)(nil)

func (s *Snapshot) IsLiked(postID string) bool {
	_, ok := s.liked[postID]
	return ok
}

func (s *Snapshot) IsBookmarked(postID string) bool {
	_, ok := s.bookmarked[postID]
	return ok
}

func (s *Snapshot) LikedCount() int {
	return len(s.liked)
}

func (s *Snapshot) BookmarkedCount() int {
	return len(s.bookmarked)
}
