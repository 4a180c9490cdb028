package unrot

import (
	"context"
)

// endpoint: GET /api/feed

// FeedGet returns one page of the personalized home feed, as a flat array.
func FeedGet(ctx context.Context, c RestClient, page, size int) ([]*Post, error) {
	var out []*Post

	params := PageParams{Page: page, Size: size}.Values()
	if err := c.RestDo(ctx, Query, "/api/feed", params, nil, &out); err != nil {
		return nil, err
	}

	return out, nil
}
