package unrot

import (
	"context"
	"net/url"
)

// endpoint: POST /api/posts/{id}/likes
// endpoint: DELETE /api/posts/{id}/likes
// endpoint: POST /api/posts/{id}/bookmarks
// endpoint: DELETE /api/posts/{id}/bookmarks
// endpoint: POST /api/posts/{id}/shares
//
// None of these return a meaningful response body.

func postPath(id, suffix string) string {
	return "/api/posts/" + url.PathEscape(id) + "/" + suffix
}

func LikeCreate(ctx context.Context, c RestClient, postID string) error {
	return c.RestDo(ctx, Procedure, postPath(postID, "likes"), nil, nil, nil)
}

func LikeDelete(ctx context.Context, c RestClient, postID string) error {
	return c.RestDo(ctx, Remove, postPath(postID, "likes"), nil, nil, nil)
}

func BookmarkCreate(ctx context.Context, c RestClient, postID string) error {
	return c.RestDo(ctx, Procedure, postPath(postID, "bookmarks"), nil, nil, nil)
}

func BookmarkDelete(ctx context.Context, c RestClient, postID string) error {
	return c.RestDo(ctx, Remove, postPath(postID, "bookmarks"), nil, nil, nil)
}

func ShareCreate(ctx context.Context, c RestClient, postID string) error {
	return c.RestDo(ctx, Procedure, postPath(postID, "shares"), nil, nil, nil)
}
