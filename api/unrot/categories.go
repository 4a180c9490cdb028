package unrot

import (
	"context"
)

// endpoint: GET /api/categories

func CategoriesList(ctx context.Context, c RestClient) ([]Category, error) {
	var out []Category
	if err := c.RestDo(ctx, Query, "/api/categories", nil, nil, &out); err != nil {
		return nil, err
	}

	return out, nil
}
