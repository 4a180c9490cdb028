package unrot

import (
	"context"
	"net/url"
)

// endpoint: GET /api/posts/{id}/comments
// endpoint: POST /api/posts/{id}/comments
// endpoint: DELETE /api/posts/{id}/comments/{commentId}

type Comment struct {
	ID        string `json:"id"`
	PostID    string `json:"postId"`
	UserID    string `json:"userId"`
	Content   string `json:"content"`
	CreatedAt string `json:"createdAt"`
}

type CommentCreate_Input struct {
	Content string `json:"content"`
}

func CommentsList(ctx context.Context, c RestClient, postID string, page, size int) (*Page[*Comment], error) {
	var out Page[*Comment]

	params := PageParams{Page: page, Size: size}.Values()
	if err := c.RestDo(ctx, Query, postPath(postID, "comments"), params, nil, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

func CommentCreate(ctx context.Context, c RestClient, postID string, input *CommentCreate_Input) (*Comment, error) {
	var out Comment
	if err := c.RestDo(ctx, Procedure, postPath(postID, "comments"), nil, input, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

func CommentDelete(ctx context.Context, c RestClient, postID, commentID string) error {
	return c.RestDo(ctx, Remove, postPath(postID, "comments/"+url.PathEscape(commentID)), nil, nil, nil)
}
