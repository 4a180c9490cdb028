// Package mapper converts server post records into client post variants.
//
// Several server types collapse into fewer client variants:
//
//	NOTE       -> quote
//	VIDEO      -> video
//	IMAGE      -> image
//	GAME       -> game
//	SPONSORED  -> sponsored
//	ARTICLE    -> article
//	LINK       -> article
//	(unknown)  -> article, logged at WARN
//
// Mapping is deterministic: the same record always produces the same post, including synthesized author fields and placeholder media URLs. Interaction flags are always false on output; only the interaction enricher sets them.
package mapper

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/leandroruel/unrot.app-front/api/unrot"
	"github.com/leandroruel/unrot.app-front/post"
	"github.com/leandroruel/unrot.app-front/util"

	"github.com/rivo/uniseg"
)

const (
	// title snippet length, in grapheme clusters
	titleLength = 80

	shortIDLength = 8

	defaultLabel       = "Post"
	defaultActionLabel = "Learn more"
)

// MappingError describes a server record which was rejected at the mapper boundary.
type MappingError struct {
	PostID string
	Field  string
	Reason string
}

func (e *MappingError) Error() string {
	if e.PostID == "" {
		return fmt.Sprintf("malformed post record: %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("malformed post record %s: %s: %s", e.PostID, e.Field, e.Reason)
}

type Mapper struct {
	Logger *slog.Logger
}

func NewMapper(logger *slog.Logger) *Mapper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Mapper{
		Logger: logger.With("system", "mapper"),
	}
}

// Map converts a single server record. Returns a [*MappingError] for malformed records.
func (m *Mapper) Map(rec *unrot.Post) (*post.Post, error) {
	if rec == nil {
		return nil, &MappingError{Field: "record", Reason: "null"}
	}
	createdAt, err := validate(rec)
	if err != nil {
		mappedRecords.WithLabelValues("", "invalid").Inc()
		return nil, err
	}

	p := &post.Post{
		ID:     rec.ID,
		Author: SynthesizeAuthor(rec.AuthorID),
		Interactions: post.Interactions{
			LikesCount:    rec.LikeCount,
			CommentsCount: rec.CommentCount,
			SharesCount:   rec.ShareCount,
		},
		CreatedAt: createdAt,
	}

	label := defaultLabel
	if rec.Category != nil && rec.Category.Name != "" {
		label = rec.Category.Name
	}
	mediaURL := util.NormalizeMediaURL(rec.FirstMediaURL())

	switch strings.ToUpper(strings.TrimSpace(rec.Type)) {
	case unrot.PostTypeNote:
		p.Quote = &post.Quote{
			Label: label,
			Body:  rec.Content,
		}
	case unrot.PostTypeVideo:
		p.Video = &post.Video{
			ThumbnailURL: orPlaceholder(mediaURL, "v", rec.ID),
			VideoURL:     mediaURL,
		}
	case unrot.PostTypeImage:
		p.Image = &post.Image{
			ImageURL: orPlaceholder(mediaURL, "i", rec.ID),
			Caption:  rec.Content,
		}
	case unrot.PostTypeGame:
		p.Game = &post.Game{
			Label:        label,
			PreviewImage: orPlaceholder(mediaURL, "g", rec.ID),
			GameURL:      firstLink(rec.Content),
		}
	case unrot.PostTypeSponsored:
		p.Sponsored = &post.Sponsored{
			IconURL:     orPlaceholder(mediaURL, "s", rec.ID),
			Title:       Snippet(rec.Content, titleLength),
			Description: rec.Content,
			ActionLabel: defaultActionLabel,
			ActionURL:   firstLink(rec.Content),
		}
	case unrot.PostTypeArticle, unrot.PostTypeLink:
		p.Article = article(label, rec.Content)
	default:
		m.Logger.Warn("unrecognized post type, rendering as article", "post", rec.ID, "type", rec.Type)
		p.Article = article(label, rec.Content)
		mappedRecords.WithLabelValues(string(post.KindArticle), "fallback").Inc()
		return p, nil
	}

	mappedRecords.WithLabelValues(string(p.Kind()), "ok").Inc()
	return p, nil
}

// MapAll converts a page of records. Malformed records are skipped and reported in the returned error slice; the remaining posts keep their relative order.
func (m *Mapper) MapAll(recs []*unrot.Post) ([]*post.Post, []error) {
	out := make([]*post.Post, 0, len(recs))
	var errs []error
	for _, rec := range recs {
		p, err := m.Map(rec)
		if err != nil {
			m.Logger.Warn("skipping malformed post record", "err", err)
			errs = append(errs, err)
			continue
		}
		out = append(out, p)
	}
	return out, errs
}

func article(label, content string) *post.Article {
	return &post.Article{
		Label:       label,
		Title:       Snippet(content, titleLength),
		Body:        content,
		CurrentPage: 1,
		TotalPages:  1,
	}
}

// returns the normalized createdAt
func validate(rec *unrot.Post) (string, error) {
	if rec.ID == "" {
		return "", &MappingError{Field: "id", Reason: "empty"}
	}
	if rec.AuthorID == "" {
		return "", &MappingError{PostID: rec.ID, Field: "authorId", Reason: "empty"}
	}
	counts := []struct {
		field string
		val   int64
	}{
		{"likeCount", rec.LikeCount},
		{"commentCount", rec.CommentCount},
		{"bookmarkCount", rec.BookmarkCount},
		{"shareCount", rec.ShareCount},
	}
	for _, c := range counts {
		if c.val < 0 {
			return "", &MappingError{PostID: rec.ID, Field: c.field, Reason: fmt.Sprintf("negative count %d", c.val)}
		}
	}
	createdAt, err := util.NormalizeTimestamp(rec.CreatedAt)
	if err != nil {
		return "", &MappingError{PostID: rec.ID, Field: "createdAt", Reason: err.Error()}
	}
	return createdAt, nil
}

// SynthesizeAuthor derives display fields from an opaque author id. The backend exposes no author profiles.
func SynthesizeAuthor(authorID string) post.Author {
	short := ShortID(authorID)
	return post.Author{
		ID:        authorID,
		Name:      short,
		Username:  short,
		AvatarURL: "https://ui-avatars.com/api/?name=" + url.QueryEscape(short) + "&background=random",
	}
}

// PlaceholderURL returns a stable stand-in image for a post without attached media.
func PlaceholderURL(prefix, postID string) string {
	return fmt.Sprintf("https://picsum.photos/seed/%s-%s/800/450", prefix, url.PathEscape(ShortID(postID)))
}

func orPlaceholder(mediaURL, prefix, postID string) string {
	if mediaURL != "" {
		return mediaURL
	}
	return PlaceholderURL(prefix, postID)
}

// ShortID returns the first eight characters of an id.
func ShortID(id string) string {
	r := []rune(id)
	if len(r) <= shortIDLength {
		return id
	}
	return string(r[:shortIDLength])
}

// Snippet truncates s to at most n grapheme clusters.
func Snippet(s string, n int) string {
	g := uniseg.NewGraphemes(s)
	count := 0
	for g.Next() {
		if count == n {
			start, _ := g.Positions()
			return s[:start]
		}
		count++
	}
	return s
}

// first absolute http(s) URL appearing in free text
func firstLink(content string) string {
	for _, field := range strings.Fields(content) {
		if !strings.HasPrefix(field, "http://") && !strings.HasPrefix(field, "https://") {
			continue
		}
		if u := util.NormalizeMediaURL(strings.TrimRight(field, ".,;:!?)")); u != "" {
			return u
		}
	}
	return ""
}
