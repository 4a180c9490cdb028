package mapper

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/leandroruel/unrot.app-front/api/unrot"
	"github.com/leandroruel/unrot.app-front/post"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(typ, content string) *unrot.Post {
	return &unrot.Post{
		ID:        "9f1c2d3e-aaaa-bbbb-cccc-1234567890ab",
		AuthorID:  "abc12345678",
		Type:      typ,
		Content:   content,
		LikeCount: 4,
		CreatedAt: "2024-05-01T10:00:00Z",
	}
}

func TestMapNote(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	m := NewMapper(nil)

	p, err := m.Map(record("NOTE", "hello"))
	require.NoError(err)
	require.Equal(post.KindQuote, p.Kind())
	assert.Equal("hello", p.Quote.Body)
	assert.Equal("Post", p.Quote.Label)
	assert.Equal("abc12345", p.Author.Username)
	assert.Equal("abc12345", p.Author.Name)
	assert.Equal("abc12345678", p.Author.ID)
	assert.Equal("https://ui-avatars.com/api/?name=abc12345&background=random", p.Author.AvatarURL)
	assert.Equal(int64(4), p.Interactions.LikesCount)
	assert.False(p.Interactions.IsLiked)
	assert.False(p.Interactions.IsBookmarked)
}

func TestMapVariants(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	m := NewMapper(nil)

	testCases := []struct {
		typ  string
		kind post.Kind
	}{
		{"NOTE", post.KindQuote},
		{"ARTICLE", post.KindArticle},
		{"LINK", post.KindArticle},
		{"IMAGE", post.KindImage},
		{"VIDEO", post.KindVideo},
		{"GAME", post.KindGame},
		{"SPONSORED", post.KindSponsored},
		{"note", post.KindQuote},
		{"POLL", post.KindArticle},
		{"", post.KindArticle},
	}

	for _, tc := range testCases {
		p, err := m.Map(record(tc.typ, "content"))
		require.NoError(err, tc.typ)
		assert.Equal(tc.kind, p.Kind(), tc.typ)
		assert.NoError(p.Validate())
	}
}

func TestMapMedia(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	m := NewMapper(nil)

	rec := record("VIDEO", "clip")
	p, err := m.Map(rec)
	require.NoError(err)
	assert.Equal("https://picsum.photos/seed/v-9f1c2d3e/800/450", p.Video.ThumbnailURL)
	assert.Equal("", p.Video.VideoURL)

	rec.Media = []unrot.Media{{ID: "m1", URL: "HTTPS://CDN.Example.com:443/clips//a.mp4"}}
	p, err = m.Map(rec)
	require.NoError(err)
	assert.Equal("https://cdn.example.com/clips/a.mp4", p.Video.ThumbnailURL)
	assert.Equal("https://cdn.example.com/clips/a.mp4", p.Video.VideoURL)

	img := record("IMAGE", "sunset over the bay")
	img.Category = &unrot.Category{ID: "c1", Name: "Photos", Slug: "photos"}
	p, err = m.Map(img)
	require.NoError(err)
	assert.Equal("https://picsum.photos/seed/i-9f1c2d3e/800/450", p.Image.ImageURL)
	assert.Equal("sunset over the bay", p.Image.Caption)

	// unusable media URLs fall back to the placeholder
	img.Media = []unrot.Media{{ID: "m2", URL: "ftp://files.example.com/x.png"}}
	p, err = m.Map(img)
	require.NoError(err)
	assert.Equal("https://picsum.photos/seed/i-9f1c2d3e/800/450", p.Image.ImageURL)

	game := record("GAME", "play now at https://games.example.com/snake.")
	game.Category = &unrot.Category{Name: "Games"}
	p, err = m.Map(game)
	require.NoError(err)
	assert.Equal("Games", p.Game.Label)
	assert.Equal("https://picsum.photos/seed/g-9f1c2d3e/800/450", p.Game.PreviewImage)
	assert.Equal("https://games.example.com/snake", p.Game.GameURL)
}

func TestMapArticleTitle(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	m := NewMapper(nil)

	// combining accent: two code points, one grapheme cluster
	long := strings.Repeat("e\u0301", 100)
	p, err := m.Map(record("ARTICLE", long))
	require.NoError(err)
	assert.Equal(strings.Repeat("e\u0301", 80), p.Article.Title)
	assert.Equal(long, p.Article.Body)
	assert.Equal(1, p.Article.CurrentPage)
	assert.Equal(1, p.Article.TotalPages)

	p, err = m.Map(record("LINK", "short"))
	require.NoError(err)
	assert.Equal("short", p.Article.Title)
}

func TestMapCreatedAt(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	m := NewMapper(nil)

	rec := record("NOTE", "hi")
	rec.CreatedAt = "2023-09-13T11:23:33+09:00"
	p, err := m.Map(rec)
	require.NoError(err)
	assert.Equal("2023-09-13T02:23:33Z", p.CreatedAt)
}

func TestMapValidation(t *testing.T) {
	assert := assert.New(t)
	m := NewMapper(nil)
	var merr *MappingError

	noID := record("NOTE", "x")
	noID.ID = ""
	noAuthor := record("NOTE", "x")
	noAuthor.AuthorID = ""
	badTime := record("NOTE", "x")
	badTime.CreatedAt = "yesterday-ish"
	negative := record("NOTE", "x")
	negative.ShareCount = -1

	testCases := []struct {
		rec   *unrot.Post
		field string
	}{
		{noID, "id"},
		{noAuthor, "authorId"},
		{badTime, "createdAt"},
		{negative, "shareCount"},
		{nil, "record"},
	}
	for _, tc := range testCases {
		_, err := m.Map(tc.rec)
		if assert.True(errors.As(err, &merr), tc.field) {
			assert.Equal(tc.field, merr.Field)
		}
	}
}

func TestMapAll(t *testing.T) {
	assert := assert.New(t)
	m := NewMapper(nil)

	bad := record("NOTE", "bad")
	bad.AuthorID = ""
	a := record("NOTE", "a")
	a.ID = "a"
	b := record("VIDEO", "b")
	b.ID = "b"

	posts, errs := m.MapAll([]*unrot.Post{a, bad, b})
	assert.Len(errs, 1)
	if assert.Len(posts, 2) {
		assert.Equal("a", posts[0].ID)
		assert.Equal("b", posts[1].ID)
	}
}

func TestMapDeterministic(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	m := NewMapper(nil)
	faker := gofakeit.New(1234)
	types := []string{"NOTE", "ARTICLE", "IMAGE", "VIDEO", "LINK", "GAME", "SPONSORED", "QUIZ"}

	for i := 0; i < 50; i++ {
		rec := &unrot.Post{
			ID:           faker.UUID(),
			AuthorID:     faker.UUID(),
			Type:         types[faker.Number(0, len(types)-1)],
			Content:      faker.Sentence(faker.Number(1, 40)),
			LikeCount:    int64(faker.Number(0, 500)),
			CommentCount: int64(faker.Number(0, 50)),
			CreatedAt:    faker.Date().UTC().Format(time.RFC3339),
		}
		first, err := m.Map(rec)
		require.NoError(err)
		second, err := m.Map(rec)
		require.NoError(err)
		assert.Equal(first, second)
		assert.False(first.Interactions.IsLiked)
	}
}

func TestSnippet(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("", Snippet("", 5))
	assert.Equal("abc", Snippet("abc", 5))
	assert.Equal("ab", Snippet("abc", 2))
	assert.Equal("e\u0301", Snippet("e\u0301e\u0301", 1))
}
