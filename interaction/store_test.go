package interaction

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToggleSelfInverse(t *testing.T) {
	assert := assert.New(t)
	s := NewStore()

	for i := 0; i < 20; i++ {
		id := fmt.Sprintf("p%d", i)
		if i%3 == 0 {
			s.SetLiked(id, true)
		}
		before := s.IsLiked(id)
		s.ToggleLike(id)
		assert.Equal(!before, s.IsLiked(id))
		s.ToggleLike(id)
		assert.Equal(before, s.IsLiked(id))
	}
}

func TestToggleIndependent(t *testing.T) {
	assert := assert.New(t)
	s := NewStore()

	assert.True(s.ToggleLike("p1"))
	assert.True(s.IsLiked("p1"))
	assert.False(s.IsBookmarked("p1"))

	assert.True(s.ToggleBookmark("p1"))
	assert.False(s.ToggleLike("p1"))
	assert.False(s.IsLiked("p1"))
	assert.True(s.IsBookmarked("p1"))
	assert.False(s.IsLiked("p2"))
}

func TestSetAndVersion(t *testing.T) {
	assert := assert.New(t)
	s := NewStore()

	assert.Equal(uint64(0), s.Version())
	assert.True(s.SetLiked("p1", true))
	assert.Equal(uint64(1), s.Version())

	// no-op does not bump the version
	assert.False(s.SetLiked("p1", true))
	assert.Equal(uint64(1), s.Version())

	assert.True(s.SetBookmarked("p1", true))
	assert.True(s.SetLiked("p1", false))
	assert.Equal(uint64(3), s.Version())
}

func TestSnapshotAndReset(t *testing.T) {
	assert := assert.New(t)
	s := NewStore()

	s.ToggleLike("p1")
	s.ToggleBookmark("p2")
	snap := s.Snapshot()

	s.ToggleLike("p3")
	s.Reset()

	assert.True(snap.IsLiked("p1"))
	assert.True(snap.IsBookmarked("p2"))
	assert.False(snap.IsLiked("p3"))
	assert.Equal(1, snap.LikedCount())
	assert.Equal(1, snap.BookmarkedCount())
	assert.Equal(uint64(2), snap.Version)

	assert.False(s.IsLiked("p1"))
	assert.False(s.IsBookmarked("p2"))
	assert.Greater(s.Version(), snap.Version)
}

func TestSubscribe(t *testing.T) {
	assert := assert.New(t)
	s := NewStore()

	var changes []Change
	cancel := s.Subscribe(func(c Change) {
		changes = append(changes, c)
	})

	s.ToggleLike("p1")
	s.SetBookmarked("p1", true)
	s.SetBookmarked("p1", true)
	s.Reset()
	cancel()
	s.ToggleLike("p2")

	if assert.Len(changes, 3) {
		assert.Equal(Change{Kind: KindLike, PostID: "p1", Member: true, Version: 1}, changes[0])
		assert.Equal(Change{Kind: KindBookmark, PostID: "p1", Member: true, Version: 2}, changes[1])
		assert.Equal(KindReset, changes[2].Kind)
	}
}

func TestConcurrentToggles(t *testing.T) {
	assert := assert.New(t)
	s := NewStore()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.ToggleLike("p1")
		}()
	}
	wg.Wait()

	// even number of toggles
	assert.False(s.IsLiked("p1"))
	assert.Equal(uint64(100), s.Version())
}

func TestSetIf(t *testing.T) {
	assert := assert.New(t)
	s := NewStore()

	member, version := s.State(KindLike, "p1")
	assert.False(member)
	assert.Zero(version)

	c := s.Toggle(KindLike, "p1")
	member, version = s.State(KindLike, "p1")
	assert.True(member)
	assert.Equal(c.Version, version)

	// other posts and kinds do not move the version of p1
	s.ToggleLike("p2")
	s.ToggleBookmark("p1")
	_, again := s.State(KindLike, "p1")
	assert.Equal(version, again)

	assert.True(s.SetIf(KindLike, "p1", version, false))
	assert.False(s.IsLiked("p1"))

	// stale version
	assert.False(s.SetIf(KindLike, "p1", version, true))
	assert.False(s.IsLiked("p1"))

	// versions do not survive a reset
	s.ToggleLike("p1")
	_, version = s.State(KindLike, "p1")
	s.Reset()
	assert.False(s.SetIf(KindLike, "p1", version, true))
	assert.False(s.IsLiked("p1"))
}
