// Package comments manages the paginated comment thread of a post.
package comments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/leandroruel/unrot.app-front/api/unrot"
	"github.com/leandroruel/unrot.app-front/feed"
	"github.com/leandroruel/unrot.app-front/paginate"
	"github.com/leandroruel/unrot.app-front/util"
)

const DefaultPageSize = 20

var ErrEmptyComment = errors.New("comment is empty")

// Key returns the registry key of the comment thread for a post.
func Key(postID string) string {
	return "comments/" + postID
}

type Comment struct {
	ID        string
	PostID    string
	UserID    string
	Content   string
	CreatedAt string
}

// Thread is one post's comments, newest-first as served.
type Thread struct {
	postID   string
	client   unrot.RestClient
	registry *feed.Registry
	merger   *paginate.Merger[*Comment]
	logger   *slog.Logger
}

var _ feed.Entry = (*Thread)(nil)

type Config struct {
	PageSize int
	// Optional. Lists to invalidate after adding or deleting comments.
	Registry *feed.Registry
	OnUpdate func()
	Logger   *slog.Logger
}

func NewThread(c unrot.RestClient, postID string, config Config) *Thread {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	size := config.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}
	t := &Thread{
		postID:   postID,
		client:   c,
		registry: config.Registry,
		logger:   logger.With("system", "comments", "post", postID),
	}
	fetch := func(ctx context.Context, page, size int) (paginate.Page[*Comment], error) {
		env, err := unrot.CommentsList(ctx, c, postID, page, size)
		if err != nil {
			return paginate.Page[*Comment]{}, err
		}
		return paginate.Convert(paginate.EnvelopePage(env), t.convert), nil
	}
	t.merger = paginate.NewMerger(fetch, paginate.Config[*Comment]{
		Name:     Key(postID),
		PageSize: size,
		Key:      func(c *Comment) string { return c.ID },
		OnUpdate: config.OnUpdate,
		Logger:   logger,
	})
	return t
}

// drops records without an id; normalizes timestamps where possible
func (t *Thread) convert(recs []*unrot.Comment) []*Comment {
	out := make([]*Comment, 0, len(recs))
	for _, r := range recs {
		if r == nil || r.ID == "" {
			t.logger.Warn("skipping malformed comment record")
			continue
		}
		out = append(out, fromRecord(r))
	}
	return out
}

func fromRecord(r *unrot.Comment) *Comment {
	createdAt := r.CreatedAt
	if norm, err := util.NormalizeTimestamp(r.CreatedAt); err == nil {
		createdAt = norm
	}
	return &Comment{
		ID:        r.ID,
		PostID:    r.PostID,
		UserID:    r.UserID,
		Content:   r.Content,
		CreatedAt: createdAt,
	}
}

func (t *Thread) Key() string {
	return Key(t.postID)
}

func (t *Thread) PostID() string {
	return t.postID
}

func (t *Thread) Comments() []*Comment {
	return t.merger.Items()
}

func (t *Thread) FetchNext(ctx context.Context) error {
	return t.merger.FetchNext(ctx)
}

func (t *Thread) Refresh(ctx context.Context) error {
	return t.merger.Refresh(ctx)
}

func (t *Thread) HasMore() bool {
	return t.merger.HasMore()
}

func (t *Thread) Loaded() bool {
	return t.merger.Loaded()
}

func (t *Thread) Err() error {
	return t.merger.Err()
}

func (t *Thread) Invalidate() {
	t.merger.Invalidate()
}

func (t *Thread) Stale() bool {
	return t.merger.Stale()
}

// Add posts a comment. The thread and every post list (comment counts) are invalidated.
func (t *Thread) Add(ctx context.Context, content string) (*Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyComment
	}
	rec, err := unrot.CommentCreate(ctx, t.client, t.postID, &unrot.CommentCreate_Input{Content: content})
	if err != nil {
		return nil, fmt.Errorf("adding comment: %w", err)
	}
	t.merger.Invalidate()
	if t.registry != nil {
		t.registry.Invalidate(t.Key(), feed.KeyHome, feed.KeyPosts, feed.PostKey(t.postID))
	}
	return fromRecord(rec), nil
}

// Delete removes a comment. Only the thread itself is invalidated.
func (t *Thread) Delete(ctx context.Context, commentID string) error {
	if err := unrot.CommentDelete(ctx, t.client, t.postID, commentID); err != nil {
		return fmt.Errorf("deleting comment: %w", err)
	}
	t.merger.Invalidate()
	if t.registry != nil {
		t.registry.Invalidate(t.Key())
	}
	return nil
}
