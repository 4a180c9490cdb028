package feed

import (
	"context"
	"sync"

	"github.com/leandroruel/unrot.app-front/api/unrot"
	"github.com/leandroruel/unrot.app-front/interaction"
	"github.com/leandroruel/unrot.app-front/mapper"
	"github.com/leandroruel/unrot.app-front/post"

	"golang.org/x/sync/singleflight"
)

// PostKey returns the registry key of a single-post view.
func PostKey(id string) string {
	return "post/" + id
}

// PostView is a single post, fetched on demand. Concurrent loads of the same post share one request.
type PostView struct {
	id     string
	client unrot.RestClient
	mapper *mapper.Mapper
	store  *interaction.Store
	group  *singleflight.Group

	mu    sync.Mutex
	post  *post.Post
	stale bool
	// bumped by every Invalidate
	invalidations uint64
	err           error
}

var _ Entry = (*PostView)(nil)

// The singleflight group may be shared between views; calls are keyed by post id.
func NewPostView(c unrot.RestClient, id string, m *mapper.Mapper, store *interaction.Store, group *singleflight.Group) *PostView {
	if group == nil {
		group = &singleflight.Group{}
	}
	return &PostView{
		id:     id,
		client: c,
		mapper: m,
		store:  store,
		group:  group,
	}
}

func (v *PostView) Key() string {
	return PostKey(v.id)
}

// Load fetches the post if it has not been fetched yet, or has been invalidated.
func (v *PostView) Load(ctx context.Context) (*post.Post, error) {
	v.mu.Lock()
	p, stale := v.post, v.stale
	v.mu.Unlock()
	if p != nil && !stale {
		return interaction.Enrich(p, v.store), nil
	}
	if err := v.Refresh(ctx); err != nil {
		return nil, err
	}
	return v.Post(), nil
}

// Refresh always fetches. On failure the previously loaded post, if any, stays available.
func (v *PostView) Refresh(ctx context.Context) error {
	v.mu.Lock()
	inv := v.invalidations
	v.mu.Unlock()

	res, err, _ := v.group.Do(v.id, func() (any, error) {
		rec, err := unrot.PostGet(ctx, v.client, v.id)
		if err != nil {
			return nil, err
		}
		return v.mapper.Map(rec)
	})

	v.mu.Lock()
	defer v.mu.Unlock()
	if err != nil {
		v.err = err
		return err
	}
	v.post = res.(*post.Post)
	// an invalidation during the fetch may not be reflected in it
	v.stale = v.invalidations != inv
	v.err = nil
	return nil
}

// Post returns the loaded post enriched with current interaction state, or nil before the first successful load.
func (v *PostView) Post() *post.Post {
	v.mu.Lock()
	p := v.post
	v.mu.Unlock()
	if p == nil {
		return nil
	}
	return interaction.Enrich(p, v.store)
}

func (v *PostView) Err() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.err
}

func (v *PostView) Loaded() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.post != nil
}

func (v *PostView) Invalidate() {
	v.mu.Lock()
	v.stale = true
	v.invalidations++
	v.mu.Unlock()
}

func (v *PostView) Stale() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.stale
}
