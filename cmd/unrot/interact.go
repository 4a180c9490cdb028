package main

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

var undoFlag = &cli.BoolFlag{
	Name:  "undo",
	Usage: "remove instead of add",
}

var cmdLike = &cli.Command{
	Name:      "like",
	Usage:     "like a post",
	ArgsUsage: `<post-id>`,
	Flags:     []cli.Flag{undoFlag},
	Action:    runLike,
}

var cmdBookmark = &cli.Command{
	Name:      "bookmark",
	Usage:     "bookmark a post",
	ArgsUsage: `<post-id>`,
	Flags:     []cli.Flag{undoFlag},
	Action:    runBookmark,
}

var cmdShare = &cli.Command{
	Name:      "share",
	Usage:     "share a post",
	ArgsUsage: `<post-id>`,
	Action:    runShare,
}

// Interaction state is not persisted between runs, so each command starts from "not liked". --undo seeds the opposite state before toggling.
func runLike(cctx *cli.Context) error {
	id := cctx.Args().First()
	if id == "" {
		return fmt.Errorf("need to provide post id as argument")
	}
	sess, err := loadAuthSession(cctx)
	if err != nil {
		return err
	}
	if cctx.Bool("undo") {
		sess.Interactions.SetLiked(id, true)
	}
	if err := sess.Mutations.ToggleLike(cctx.Context, id); err != nil {
		return err
	}
	fmt.Printf("liked: %v\n", sess.Interactions.IsLiked(id))
	return nil
}

func runBookmark(cctx *cli.Context) error {
	id := cctx.Args().First()
	if id == "" {
		return fmt.Errorf("need to provide post id as argument")
	}
	sess, err := loadAuthSession(cctx)
	if err != nil {
		return err
	}
	if cctx.Bool("undo") {
		sess.Interactions.SetBookmarked(id, true)
	}
	if err := sess.Mutations.ToggleBookmark(cctx.Context, id); err != nil {
		return err
	}
	fmt.Printf("bookmarked: %v\n", sess.Interactions.IsBookmarked(id))
	return nil
}

func runShare(cctx *cli.Context) error {
	id := cctx.Args().First()
	if id == "" {
		return fmt.Errorf("need to provide post id as argument")
	}
	sess, err := loadAuthSession(cctx)
	if err != nil {
		return err
	}
	if err := sess.Mutations.Share(cctx.Context, id); err != nil {
		return err
	}
	fmt.Println("shared")
	return nil
}
