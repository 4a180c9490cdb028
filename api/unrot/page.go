package unrot

import (
	"net/url"

	"github.com/google/go-querystring/query"
)

// PageParams are the query parameters shared by every paginated endpoint. Pages are 0-indexed.
type PageParams struct {
	Page int `url:"page"`
	Size int `url:"size"`
}

func (p PageParams) Values() url.Values {
	v, err := query.Values(p)
	if err != nil {
		// only struct fields of basic types; encoding can not fail
		panic(err)
	}
	return v
}

// Page is the explicit pagination envelope (Spring Data "Page" shape).
type Page[T any] struct {
	Content       []T  `json:"content"`
	TotalPages    int  `json:"totalPages"`
	TotalElements int  `json:"totalElements"`
	Number        int  `json:"number"`
	Size          int  `json:"size"`
	Last          bool `json:"last"`
	First         bool `json:"first"`
}

// NextPage returns the page number to request next, or -1 if this is the last page.
func (p *Page[T]) NextPage() int {
	if p.Last {
		return -1
	}
	return p.Number + 1
}
