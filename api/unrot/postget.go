package unrot

import (
	"context"
	"net/url"
)

// endpoint: GET /api/posts/{id}

func PostGet(ctx context.Context, c RestClient, id string) (*Post, error) {
	var out Post
	if err := c.RestDo(ctx, Query, "/api/posts/"+url.PathEscape(id), nil, nil, &out); err != nil {
		return nil, err
	}

	return &out, nil
}
