package post

import (
	"encoding/json"
	"fmt"
)

// shared fields; variant fields are flattened next to these
type header struct {
	Type         Kind         `json:"type"`
	ID           string       `json:"id"`
	Author       Author       `json:"author"`
	Interactions Interactions `json:"interactions"`
	CreatedAt    string       `json:"createdAt"`
}

func (p *Post) MarshalJSON() ([]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("can not marshal post as JSON: %w", err)
	}
	h := header{
		Type:         p.Kind(),
		ID:           p.ID,
		Author:       p.Author,
		Interactions: p.Interactions,
		CreatedAt:    p.CreatedAt,
	}
	switch h.Type {
	case KindQuote:
		return json.Marshal(struct {
			header
			*Quote
		}{h, p.Quote})
	case KindArticle:
		return json.Marshal(struct {
			header
			*Article
		}{h, p.Article})
	case KindVideo:
		return json.Marshal(struct {
			header
			*Video
		}{h, p.Video})
	case KindGame:
		return json.Marshal(struct {
			header
			*Game
		}{h, p.Game})
	case KindImage:
		return json.Marshal(struct {
			header
			*Image
		}{h, p.Image})
	case KindSponsored:
		return json.Marshal(struct {
			header
			*Sponsored
		}{h, p.Sponsored})
	default:
		return nil, fmt.Errorf("unhandled post kind: %q", h.Type)
	}
}

func (p *Post) UnmarshalJSON(b []byte) error {
	var h header
	if err := json.Unmarshal(b, &h); err != nil {
		return err
	}
	*p = Post{
		ID:           h.ID,
		Author:       h.Author,
		Interactions: h.Interactions,
		CreatedAt:    h.CreatedAt,
	}

	switch h.Type {
	case KindQuote:
		p.Quote = new(Quote)
		return json.Unmarshal(b, p.Quote)
	case KindArticle:
		p.Article = new(Article)
		return json.Unmarshal(b, p.Article)
	case KindVideo:
		p.Video = new(Video)
		return json.Unmarshal(b, p.Video)
	case KindGame:
		p.Game = new(Game)
		return json.Unmarshal(b, p.Game)
	case KindImage:
		p.Image = new(Image)
		return json.Unmarshal(b, p.Image)
	case KindSponsored:
		p.Sponsored = new(Sponsored)
		return json.Unmarshal(b, p.Sponsored)
	default:
		return fmt.Errorf("unknown post type: %q", h.Type)
	}
}
