package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/leandroruel/unrot.app-front/comments"
	"github.com/leandroruel/unrot.app-front/mapper"
	"github.com/leandroruel/unrot.app-front/notifs"
	"github.com/leandroruel/unrot.app-front/post"
	"github.com/leandroruel/unrot.app-front/util"
)

const snippetLen = 140

func shortTime(ts string) string {
	t, err := util.ParseTimestamp(ts)
	if err != nil {
		return ts
	}
	return t.Local().Format("2006-01-02 15:04")
}

func marks(i post.Interactions) string {
	like, bookmark := "♡", " "
	if i.IsLiked {
		like = "♥"
	}
	if i.IsBookmarked {
		bookmark = "★"
	}
	return like + bookmark
}

func body(s string, full bool) string {
	if full {
		return s
	}
	return mapper.Snippet(strings.Join(strings.Fields(s), " "), snippetLen)
}

// renderPost writes one post. With full set, long bodies are not truncated.
func renderPost(w io.Writer, idx int, p *post.Post, full bool) {
	prefix := ""
	if idx >= 0 {
		prefix = fmt.Sprintf("[%d] ", idx)
	}
	fmt.Fprintf(w, "%s%s  %-9s @%s  %s\n", prefix, marks(p.Interactions), p.Kind(), p.Author.Username, shortTime(p.CreatedAt))

	switch p.Kind() {
	case post.KindQuote:
		fmt.Fprintf(w, "    %s\n", body(p.Quote.Body, full))
	case post.KindArticle:
		fmt.Fprintf(w, "    %s: %s\n", p.Article.Label, p.Article.Title)
		if full {
			fmt.Fprintf(w, "\n%s\n\n", p.Article.Body)
		}
		fmt.Fprintf(w, "    page %d of %d\n", p.Article.CurrentPage, p.Article.TotalPages)
	case post.KindVideo:
		v := p.Video
		fmt.Fprintf(w, "    video %d:%02d  %s\n", v.DurationSeconds/60, v.DurationSeconds%60, v.ThumbnailURL)
		if v.VideoURL != "" {
			fmt.Fprintf(w, "    %s\n", v.VideoURL)
		}
	case post.KindGame:
		fmt.Fprintf(w, "    %s  %s\n", p.Game.Label, p.Game.PreviewImage)
		if p.Game.GameURL != "" {
			fmt.Fprintf(w, "    play: %s\n", p.Game.GameURL)
		}
	case post.KindImage:
		fmt.Fprintf(w, "    %s\n", p.Image.ImageURL)
		if p.Image.Caption != "" {
			fmt.Fprintf(w, "    %s\n", body(p.Image.Caption, full))
		}
	case post.KindSponsored:
		s := p.Sponsored
		fmt.Fprintf(w, "    sponsored: %s\n", s.Title)
		fmt.Fprintf(w, "    %s\n", body(s.Description, full))
		fmt.Fprintf(w, "    [%s] %s\n", s.ActionLabel, s.ActionURL)
	default:
		fmt.Fprintf(w, "    (unrenderable post: %v)\n", p.Validate())
	}

	i := p.Interactions
	fmt.Fprintf(w, "    %d likes  %d comments  %d shares  id:%s\n", i.LikesCount, i.CommentsCount, i.SharesCount, p.ID)
}

func renderPosts(w io.Writer, posts []*post.Post, offset int) {
	for i, p := range posts {
		renderPost(w, offset+i, p, false)
		fmt.Fprintln(w)
	}
}

func renderJSON(w io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

func renderComment(w io.Writer, c *comments.Comment) {
	fmt.Fprintf(w, "@%s  %s  id:%s\n    %s\n", mapper.ShortID(c.UserID), shortTime(c.CreatedAt), c.ID, c.Content)
}

func renderNotification(w io.Writer, n notifs.Notification) {
	dot := " "
	if !n.IsRead {
		dot = "•"
	}
	who := n.FromUser.Name
	if who == "" {
		who = mapper.ShortID(n.FromUser.ID)
	}
	fmt.Fprintf(w, "%s %s  %-8s %s %s", dot, n.CreatedAt.Local().Format("2006-01-02 15:04"), n.Type, who, n.Message)
	if n.PostID != "" {
		fmt.Fprintf(w, "  post:%s", n.PostID)
	}
	fmt.Fprintln(w)
}
