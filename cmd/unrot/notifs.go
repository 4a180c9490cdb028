package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

var cmdNotifs = &cli.Command{
	Name:  "notifs",
	Usage: "show recent notifications",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "mark-read",
			Usage: "mark all shown notifications as read",
		},
	},
	Action: runNotifs,
}

func runNotifs(cctx *cli.Context) error {
	ctx := cctx.Context
	sess, err := loadAuthSession(cctx)
	if err != nil {
		return err
	}
	inbox := sess.Inbox(ctx)
	if err := inbox.Load(ctx); err != nil {
		return err
	}
	list := inbox.Notifications()
	if len(list) == 0 {
		fmt.Println("no notifications")
		return nil
	}
	fmt.Printf("%d unread\n", inbox.UnreadCount())
	for _, n := range list {
		renderNotification(os.Stdout, n)
	}
	if cctx.Bool("mark-read") {
		return inbox.MarkAllRead(ctx)
	}
	return nil
}
