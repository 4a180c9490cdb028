package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v2"
)

var cmdComments = &cli.Command{
	Name:      "comments",
	Usage:     "list the comments on a post",
	ArgsUsage: `<post-id>`,
	Flags: []cli.Flag{
		&cli.IntFlag{
			Name:  "pages",
			Usage: "number of pages to fetch",
			Value: 1,
		},
	},
	Action: runComments,
	Subcommands: []*cli.Command{
		&cli.Command{
			Name:      "add",
			Usage:     "comment on a post",
			ArgsUsage: `<post-id> <text>`,
			Action:    runCommentsAdd,
		},
		&cli.Command{
			Name:      "delete",
			Usage:     "delete one of your comments",
			ArgsUsage: `<post-id> <comment-id>`,
			Action:    runCommentsDelete,
		},
	},
}

func runComments(cctx *cli.Context) error {
	postID := cctx.Args().First()
	if postID == "" {
		return fmt.Errorf("need to provide post id as argument")
	}
	sess, err := loadSession(cctx)
	if err != nil {
		return err
	}
	thread := sess.Comments(postID)
	for i := 0; i < cctx.Int("pages") && thread.HasMore(); i++ {
		if err := thread.FetchNext(cctx.Context); err != nil {
			return err
		}
	}
	list := thread.Comments()
	if len(list) == 0 {
		fmt.Println("no comments yet")
		return nil
	}
	for _, c := range list {
		renderComment(os.Stdout, c)
	}
	if thread.HasMore() {
		fmt.Println("(more available: use --pages)")
	}
	return nil
}

func runCommentsAdd(cctx *cli.Context) error {
	args := cctx.Args().Slice()
	if len(args) < 2 {
		return fmt.Errorf("need to provide post id and comment text as arguments")
	}
	sess, err := loadAuthSession(cctx)
	if err != nil {
		return err
	}
	c, err := sess.Comments(args[0]).Add(cctx.Context, strings.Join(args[1:], " "))
	if err != nil {
		return err
	}
	renderComment(os.Stdout, c)
	return nil
}

func runCommentsDelete(cctx *cli.Context) error {
	if cctx.Args().Len() != 2 {
		return fmt.Errorf("need to provide post id and comment id as arguments")
	}
	sess, err := loadAuthSession(cctx)
	if err != nil {
		return err
	}
	return sess.Comments(cctx.Args().Get(0)).Delete(cctx.Context, cctx.Args().Get(1))
}
