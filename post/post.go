// Package post defines the closed set of post shapes rendered by the client.
//
// A [Post] carries the shared fields (id, author, interactions, creation time) and exactly one variant pointer. Consumers switch on [Post.Kind] and must handle every value returned by [Kinds].
package post

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindQuote     Kind = "quote"
	KindArticle   Kind = "article"
	KindVideo     Kind = "video"
	KindGame      Kind = "game"
	KindImage     Kind = "image"
	KindSponsored Kind = "sponsored"
)

// Kinds lists every variant tag, in declaration order.
func Kinds() []Kind {
	return []Kind{KindQuote, KindArticle, KindVideo, KindGame, KindImage, KindSponsored}
}

func (k Kind) String() string {
	return string(k)
}

// Denormalized snapshot of the author at fetch time.
type Author struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatarUrl"`
}

// Counts are server-authoritative as of the fetch. IsLiked and IsBookmarked are client-derived; see the interaction package.
type Interactions struct {
	LikesCount    int64 `json:"likesCount"`
	CommentsCount int64 `json:"commentsCount"`
	SharesCount   int64 `json:"sharesCount"`
	IsLiked       bool  `json:"isLiked"`
	IsBookmarked  bool  `json:"isBookmarked"`
}

type Quote struct {
	Label string `json:"label"`
	Body  string `json:"body"`
}

type Article struct {
	Label       string `json:"label"`
	Title       string `json:"title"`
	Body        string `json:"body"`
	CurrentPage int    `json:"currentPage"`
	TotalPages  int    `json:"totalPages"`
}

type Video struct {
	ThumbnailURL       string `json:"thumbnailUrl"`
	VideoURL           string `json:"videoUrl"`
	DurationSeconds    int    `json:"durationSeconds"`
	CurrentTimeSeconds int    `json:"currentTimeSeconds"`
}

type Game struct {
	Label        string `json:"label"`
	PreviewImage string `json:"previewImage"`
	GameURL      string `json:"gameUrl"`
}

type Image struct {
	ImageURL string `json:"imageUrl"`
	Caption  string `json:"caption"`
}

type Sponsored struct {
	IconURL     string `json:"iconUrl"`
	Title       string `json:"title"`
	Description string `json:"description"`
	ActionLabel string `json:"actionLabel"`
	ActionURL   string `json:"actionUrl"`
}

// Post values are treated as immutable once built: derive modified copies with methods like [Post.WithInteractions] instead of writing fields of a shared value.
type Post struct {
	ID           string
	Author       Author
	Interactions Interactions
	// ISO-8601, normalized to UTC by the mapper
	CreatedAt string

	Quote     *Quote
	Article   *Article
	Video     *Video
	Game      *Game
	Image     *Image
	Sponsored *Sponsored
}

var ErrNoVariant = errors.New("post has no variant set")

// Kind returns the variant tag. Returns empty string if zero or more than one variant is set; use [Post.Validate] to get a descriptive error.
func (p *Post) Kind() Kind {
	if p.variantCount() != 1 {
		return ""
	}
	switch {
	case p.Quote != nil:
		return KindQuote
	case p.Article != nil:
		return KindArticle
	case p.Video != nil:
		return KindVideo
	case p.Game != nil:
		return KindGame
	case p.Image != nil:
		return KindImage
	default:
		return KindSponsored
	}
}

func (p *Post) variantCount() int {
	n := 0
	for _, set := range []bool{p.Quote != nil, p.Article != nil, p.Video != nil, p.Game != nil, p.Image != nil, p.Sponsored != nil} {
		if set {
			n++
		}
	}
	return n
}

// Validate checks the structural invariants of a post: an id, and exactly one variant.
func (p *Post) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("post missing id")
	}
	switch n := p.variantCount(); n {
	case 0:
		return fmt.Errorf("post %s: %w", p.ID, ErrNoVariant)
	case 1:
		return nil
	default:
		return fmt.Errorf("post %s: %d variants set, expected exactly one", p.ID, n)
	}
}

// WithInteractions returns a shallow copy of the post with the interactions replaced. Variant structs are shared with the original.
func (p *Post) WithInteractions(i Interactions) *Post {
	cp := *p
	cp.Interactions = i
	return &cp
}
