package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/leandroruel/unrot.app-front/feed"
	"github.com/leandroruel/unrot.app-front/post"
	"github.com/leandroruel/unrot.app-front/session"

	"github.com/urfave/cli/v2"
)

var cmdBrowse = &cli.Command{
	Name:  "browse",
	Usage: "interactively page through a feed",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "category",
			Aliases: []string{"c"},
			Usage:   "browse one category instead of the home feed",
		},
	},
	Action: runBrowse,
}

const browseHelp = `commands:
  n            next page
  r            refresh from the top
  l <n>        toggle like on post n
  b <n>        toggle bookmark on post n
  s <n>        show post n in full
  sh <n>       share post n
  c <n>        show comments on post n
  q            quit`

type browser struct {
	sess *session.Session
	list *feed.List
	out  io.Writer

	// background mutations; quit waits for them
	wg sync.WaitGroup
	// last rendered count, so "next" only prints new posts
	shown int
}

func runBrowse(cctx *cli.Context) error {
	ctx := cctx.Context
	sess, err := loadSession(cctx)
	if err != nil {
		return err
	}

	var list *feed.List
	if slug := cctx.String("category"); slug != "" {
		list = sess.Posts(slug)
	} else if sess.Authenticated() {
		list = sess.HomeFeed()
	} else {
		fmt.Println("not logged in; browsing all posts")
		list = sess.Posts("")
	}

	b := &browser{sess: sess, list: list, out: os.Stdout}
	if err := b.next(ctx); err != nil {
		return err
	}
	fmt.Fprintln(b.out, browseHelp)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Fprint(b.out, "> ")
		if !scanner.Scan() {
			break
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if fields[0] == "q" || fields[0] == "quit" {
			break
		}
		if err := b.exec(ctx, fields); err != nil {
			fmt.Fprintf(b.out, "error: %v\n", err)
		}
	}
	b.wg.Wait()
	snap := sess.Interactions.Snapshot()
	fmt.Fprintf(b.out, "this session: %d liked, %d bookmarked\n", snap.LikedCount(), snap.BookmarkedCount())
	return scanner.Err()
}

func (b *browser) exec(ctx context.Context, fields []string) error {
	switch fields[0] {
	case "n", "next":
		return b.next(ctx)
	case "r", "refresh":
		if err := b.list.Refresh(ctx); err != nil {
			return err
		}
		b.shown = 0
		b.render()
		return nil
	case "h", "help", "?":
		fmt.Fprintln(b.out, browseHelp)
		return nil
	}

	if len(fields) != 2 {
		return fmt.Errorf("unknown command %q (try 'help')", strings.Join(fields, " "))
	}
	p, err := b.pick(fields[1])
	if err != nil {
		return err
	}
	switch fields[0] {
	case "l", "like":
		fmt.Fprintf(b.out, "liked: %v\n", !b.sess.Interactions.IsLiked(p.ID))
		b.mutate(ctx, "like", func(ctx context.Context) error {
			return b.sess.Mutations.ToggleLike(ctx, p.ID)
		})
	case "b", "bookmark":
		fmt.Fprintf(b.out, "bookmarked: %v\n", !b.sess.Interactions.IsBookmarked(p.ID))
		b.mutate(ctx, "bookmark", func(ctx context.Context) error {
			return b.sess.Mutations.ToggleBookmark(ctx, p.ID)
		})
	case "sh", "share":
		b.mutate(ctx, "share", func(ctx context.Context) error {
			return b.sess.Mutations.Share(ctx, p.ID)
		})
	case "s", "show":
		full, err := b.sess.Post(p.ID).Load(ctx)
		if err != nil {
			return err
		}
		renderPost(b.out, -1, full, true)
	case "c", "comments":
		thread := b.sess.Comments(p.ID)
		if !thread.Loaded() || thread.Stale() {
			if err := thread.Refresh(ctx); err != nil {
				return err
			}
		}
		for _, c := range thread.Comments() {
			renderComment(b.out, c)
		}
		if len(thread.Comments()) == 0 {
			fmt.Fprintln(b.out, "no comments yet")
		}
	default:
		return fmt.Errorf("unknown command %q (try 'help')", fields[0])
	}
	return nil
}

// runs a mutation in the background. Failures were already rolled back in the store; they are only reported.
func (b *browser) mutate(ctx context.Context, what string, fn func(context.Context) error) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		if err := fn(ctx); err != nil {
			fmt.Fprintf(b.out, "\ncouldn't save %s: %v\n> ", what, err)
		}
	}()
}

func (b *browser) pick(arg string) (*post.Post, error) {
	idx, err := strconv.Atoi(arg)
	if err != nil {
		return nil, fmt.Errorf("not a post number: %q", arg)
	}
	posts := b.list.Posts()
	if idx < 0 || idx >= len(posts) {
		return nil, fmt.Errorf("no post number %d (have %d)", idx, len(posts))
	}
	return posts[idx], nil
}

func (b *browser) next(ctx context.Context) error {
	if !b.list.HasMore() {
		fmt.Fprintln(b.out, "(end of feed)")
		return nil
	}
	if err := b.list.FetchNext(ctx); err != nil {
		return err
	}
	b.render()
	return nil
}

func (b *browser) render() {
	posts := b.list.Posts()
	if b.shown < len(posts) {
		renderPosts(b.out, posts[b.shown:], b.shown)
		b.shown = len(posts)
	}
	if b.list.Stale() {
		fmt.Fprintln(b.out, "(feed changed: 'r' to refresh)")
	}
}
