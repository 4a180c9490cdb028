package unrot

// endpoint definitions: post records

// Server-side post type vocabulary. The backend may add new values at any time.
const (
	PostTypeNote    = "NOTE"
	PostTypeArticle = "ARTICLE"
	PostTypeImage   = "IMAGE"
	PostTypeVideo   = "VIDEO"
	PostTypeLink    = "LINK"

	// not emitted by the current backend, but reserved for game embeds and promoted posts
	PostTypeGame      = "GAME"
	PostTypeSponsored = "SPONSORED"
)

type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type Media struct {
	ID               string `json:"id"`
	URL              string `json:"url"`
	OriginalFilename string `json:"originalFilename,omitempty"`
	MimeType         string `json:"mimeType,omitempty"`
	FileSizeBytes    int64  `json:"fileSizeBytes,omitempty"`
}

type Post struct {
	ID            string    `json:"id"`
	AuthorID      string    `json:"authorId"`
	Type          string    `json:"type"`
	Content       string    `json:"content"`
	Category      *Category `json:"category,omitempty"`
	Media         []Media   `json:"media"`
	LikeCount     int64     `json:"likeCount"`
	CommentCount  int64     `json:"commentCount"`
	BookmarkCount int64     `json:"bookmarkCount"`
	ShareCount    int64     `json:"shareCount"`
	CreatedAt     string    `json:"createdAt"`
}

// FirstMediaURL returns the URL of the first attached media item, or empty string.
func (p *Post) FirstMediaURL() string {
	for _, m := range p.Media {
		if m.URL != "" {
			return m.URL
		}
	}
	return ""
}
