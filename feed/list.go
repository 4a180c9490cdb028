// Package feed builds enriched, paginated post lists on top of the pagination merger.
//
// Every read goes through the interaction enricher, so two lists showing the same post always agree on like and bookmark state, without refetching.
package feed

import (
	"context"
	"log/slog"

	"github.com/leandroruel/unrot.app-front/api/unrot"
	"github.com/leandroruel/unrot.app-front/interaction"
	"github.com/leandroruel/unrot.app-front/mapper"
	"github.com/leandroruel/unrot.app-front/paginate"
	"github.com/leandroruel/unrot.app-front/post"
)

const (
	KeyHome  = "feed"
	KeyPosts = "posts"
)

// CategoryKey returns the registry key of the post list for a category.
func CategoryKey(slug string) string {
	return KeyPosts + "/" + slug
}

func postKey(p *post.Post) string {
	return p.ID
}

type List struct {
	key    string
	merger *paginate.Merger[*post.Post]
	store  *interaction.Store
}

var _ Entry = (*List)(nil)

type ListConfig struct {
	PageSize int
	Mapper   *mapper.Mapper
	Store    *interaction.Store
	OnUpdate func()
	Logger   *slog.Logger
}

func newList(key string, fetch paginate.FetchFunc[*post.Post], config ListConfig) *List {
	return &List{
		key:   key,
		store: config.Store,
		merger: paginate.NewMerger(fetch, paginate.Config[*post.Post]{
			Name:     key,
			PageSize: config.PageSize,
			Key:      postKey,
			OnUpdate: config.OnUpdate,
			Logger:   config.Logger,
		}),
	}
}

func mapPage(m *mapper.Mapper) func([]*unrot.Post) []*post.Post {
	return func(recs []*unrot.Post) []*post.Post {
		posts, _ := m.MapAll(recs)
		return posts
	}
}

// NewHomeFeed is the personalized feed. The endpoint returns flat arrays.
func NewHomeFeed(c unrot.RestClient, config ListConfig) *List {
	fetch := func(ctx context.Context, page, size int) (paginate.Page[*post.Post], error) {
		recs, err := unrot.FeedGet(ctx, c, page, size)
		if err != nil {
			return paginate.Page[*post.Post]{}, err
		}
		return paginate.Convert(paginate.FlatPage(recs), mapPage(config.Mapper)), nil
	}
	return newList(KeyHome, fetch, config)
}

// NewPostList lists all posts, or the posts of one category if slug is not empty. The endpoints return page envelopes.
func NewPostList(c unrot.RestClient, slug string, config ListConfig) *List {
	key := KeyPosts
	if slug != "" {
		key = CategoryKey(slug)
	}
	fetch := func(ctx context.Context, page, size int) (paginate.Page[*post.Post], error) {
		var env *unrot.Page[*unrot.Post]
		var err error
		if slug == "" {
			env, err = unrot.PostsList(ctx, c, page, size)
		} else {
			env, err = unrot.PostsByCategory(ctx, c, slug, page, size)
		}
		if err != nil {
			return paginate.Page[*post.Post]{}, err
		}
		return paginate.Convert(paginate.EnvelopePage(env), mapPage(config.Mapper)), nil
	}
	return newList(key, fetch, config)
}

func (l *List) Key() string {
	return l.key
}

// Posts returns the merged posts, enriched with the current interaction state.
func (l *List) Posts() []*post.Post {
	return interaction.EnrichAll(l.merger.Items(), l.store.Snapshot())
}

func (l *List) FetchNext(ctx context.Context) error {
	return l.merger.FetchNext(ctx)
}

func (l *List) Refresh(ctx context.Context) error {
	return l.merger.Refresh(ctx)
}

func (l *List) HasMore() bool {
	return l.merger.HasMore()
}

func (l *List) Loaded() bool {
	return l.merger.Loaded()
}

func (l *List) Fetching() bool {
	return l.merger.Fetching()
}

func (l *List) Err() error {
	return l.merger.Err()
}

func (l *List) Invalidate() {
	l.merger.Invalidate()
}

func (l *List) Stale() bool {
	return l.merger.Stale()
}

func (l *List) Reset() {
	l.merger.Reset()
}
