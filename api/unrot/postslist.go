package unrot

import (
	"context"
	"net/url"
)

// endpoint: GET /api/posts
// endpoint: GET /api/posts/category/{slug}

func PostsList(ctx context.Context, c RestClient, page, size int) (*Page[*Post], error) {
	var out Page[*Post]

	params := PageParams{Page: page, Size: size}.Values()
	if err := c.RestDo(ctx, Query, "/api/posts", params, nil, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

func PostsByCategory(ctx context.Context, c RestClient, slug string, page, size int) (*Page[*Post], error) {
	var out Page[*Post]

	params := PageParams{Page: page, Size: size}.Values()
	if err := c.RestDo(ctx, Query, "/api/posts/category/"+url.PathEscape(slug), params, nil, &out); err != nil {
		return nil, err
	}

	return &out, nil
}
