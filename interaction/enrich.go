package interaction

import (
	"github.com/leandroruel/unrot.app-front/post"
)

// Enrich overwrites IsLiked and IsBookmarked from the given membership. Whatever the post carried before (eg, flags from a stale fetch) is ignored.
//
// If the post is already consistent it is returned as-is, so callers can compare pointers to detect changes.
func Enrich(p *post.Post, m Membership) *post.Post {
	liked := m.IsLiked(p.ID)
	bookmarked := m.IsBookmarked(p.ID)
	if p.Interactions.IsLiked == liked && p.Interactions.IsBookmarked == bookmarked {
		return p
	}
	i := p.Interactions
	i.IsLiked = liked
	i.IsBookmarked = bookmarked
	return p.WithInteractions(i)
}

// EnrichAll applies [Enrich] to every post. The input slice is not modified.
func EnrichAll(posts []*post.Post, m Membership) []*post.Post {
	out := make([]*post.Post, len(posts))
	for i, p := range posts {
		out[i] = Enrich(p, m)
	}
	return out
}
