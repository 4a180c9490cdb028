package main

import (
	"fmt"
	"os"

	"github.com/leandroruel/unrot.app-front/feed"

	"github.com/urfave/cli/v2"
)

var pageFlags = []cli.Flag{
	&cli.IntFlag{
		Name:  "pages",
		Usage: "number of pages to fetch",
		Value: 1,
	},
	&cli.BoolFlag{
		Name:  "json",
		Usage: "print posts as JSON",
	},
}

var cmdFeed = &cli.Command{
	Name:   "feed",
	Usage:  "show the personalized home feed",
	Flags:  pageFlags,
	Action: runFeed,
}

var cmdPosts = &cli.Command{
	Name:  "posts",
	Usage: "list recent posts, optionally from one category",
	Flags: append([]cli.Flag{
		&cli.StringFlag{
			Name:    "category",
			Aliases: []string{"c"},
			Usage:   "category slug",
		},
	}, pageFlags...),
	Action: runPosts,
}

var cmdPost = &cli.Command{
	Name:      "post",
	Usage:     "show a single post",
	ArgsUsage: `<post-id>`,
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "print post as JSON",
		},
	},
	Action: runPost,
}

var cmdCategories = &cli.Command{
	Name:   "categories",
	Usage:  "list post categories",
	Action: runCategories,
}

func fetchPages(cctx *cli.Context, list *feed.List) error {
	for i := 0; i < cctx.Int("pages") && list.HasMore(); i++ {
		if err := list.FetchNext(cctx.Context); err != nil {
			return err
		}
	}
	if cctx.Bool("json") {
		return renderJSON(os.Stdout, list.Posts())
	}
	renderPosts(os.Stdout, list.Posts(), 0)
	if list.HasMore() {
		fmt.Println("(more available: use --pages)")
	}
	return nil
}

func runFeed(cctx *cli.Context) error {
	sess, err := loadAuthSession(cctx)
	if err != nil {
		return err
	}
	return fetchPages(cctx, sess.HomeFeed())
}

func runPosts(cctx *cli.Context) error {
	sess, err := loadSession(cctx)
	if err != nil {
		return err
	}
	slug := cctx.String("category")
	if slug != "" {
		// fail early, with a helpful error, on unknown slugs
		if _, err := sess.Categories.Lookup(cctx.Context, slug); err != nil {
			return fmt.Errorf("category %q: %w", slug, err)
		}
	}
	return fetchPages(cctx, sess.Posts(slug))
}

func runPost(cctx *cli.Context) error {
	id := cctx.Args().First()
	if id == "" {
		return fmt.Errorf("need to provide post id as argument")
	}
	sess, err := loadSession(cctx)
	if err != nil {
		return err
	}
	p, err := sess.Post(id).Load(cctx.Context)
	if err != nil {
		return err
	}
	if cctx.Bool("json") {
		return renderJSON(os.Stdout, p)
	}
	renderPost(os.Stdout, -1, p, true)
	return nil
}

func runCategories(cctx *cli.Context) error {
	sess, err := loadSession(cctx)
	if err != nil {
		return err
	}
	cats, err := sess.Categories.List(cctx.Context)
	if err != nil {
		return err
	}
	for _, c := range cats {
		fmt.Printf("%-16s %s\n", c.Slug, c.Name)
	}
	return nil
}
