// Package category resolves the set of post categories.
//
// The category list changes rarely, so [CacheDirectory] and [RedisDirectory] cache it for a long time (thirty minutes by default) in front of the API-backed [APIDirectory].
package category

import (
	"context"
	"errors"
	"fmt"

	"github.com/leandroruel/unrot.app-front/api/unrot"
	"github.com/leandroruel/unrot.app-front/client"
)

var ErrNotFound = errors.New("category not found")

type Directory interface {
	List(ctx context.Context) ([]unrot.Category, error)
	Lookup(ctx context.Context, slug string) (*unrot.Category, error)
	// Drops any cached state; the next call fetches.
	Purge(ctx context.Context) error
}

// Fetches categories from the API on every call.
type APIDirectory struct {
	Client unrot.RestClient
}

var _ Directory = (*APIDirectory)(nil)

func (d *APIDirectory) List(ctx context.Context) ([]unrot.Category, error) {
	cats, err := unrot.CategoriesList(ctx, d.Client)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	return cats, nil
}

func (d *APIDirectory) Lookup(ctx context.Context, slug string) (*unrot.Category, error) {
	cats, err := d.List(ctx)
	if err != nil {
		return nil, err
	}
	return find(cats, slug)
}

// Nothing is cached.
func (d *APIDirectory) Purge(ctx context.Context) error {
	return nil
}

// only failures the server would repeat are cached: not cancellations, network errors, throttling, 5xx or 401
func cacheableErr(err error) bool {
	var apierr *client.APIError
	return errors.As(err, &apierr) && !apierr.Temporary() && !errors.Is(err, client.ErrUnauthorized)
}

func find(cats []unrot.Category, slug string) (*unrot.Category, error) {
	for i := range cats {
		if cats[i].Slug == slug {
			c := cats[i]
			return &c, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, slug)
}
