package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v2"
)

var cmdLogin = &cli.Command{
	Name:  "login",
	Usage: "log in and persist the session token",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "email",
			Aliases:  []string{"e"},
			Required: true,
			EnvVars:  []string{"UNROT_EMAIL"},
		},
		&cli.StringFlag{
			Name:    "password",
			Aliases: []string{"p"},
			Usage:   "prompted for if not set",
			EnvVars: []string{"UNROT_PASSWORD"},
		},
	},
	Action: runLogin,
}

var cmdRegister = &cli.Command{
	Name:  "register",
	Usage: "create an account and log in",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "email",
			Aliases:  []string{"e"},
			Required: true,
		},
		&cli.StringFlag{
			Name:    "password",
			Aliases: []string{"p"},
			Usage:   "prompted for if not set",
		},
		&cli.StringFlag{
			Name:     "name",
			Usage:    "display name",
			Required: true,
		},
	},
	Action: runRegister,
}

var cmdLogout = &cli.Command{
	Name:   "logout",
	Usage:  "delete the persisted session token",
	Action: runLogout,
}

func password(cctx *cli.Context) (string, error) {
	if pw := cctx.String("password"); pw != "" {
		return pw, nil
	}
	fmt.Fprint(os.Stderr, "password: ")
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func runLogin(cctx *cli.Context) error {
	ctx := cctx.Context
	sess, err := loadSession(cctx)
	if err != nil {
		return err
	}
	pw, err := password(cctx)
	if err != nil {
		return err
	}
	if err := sess.Login(ctx, cctx.String("email"), pw); err != nil {
		return err
	}
	fmt.Println("logged in")
	return nil
}

func runRegister(cctx *cli.Context) error {
	ctx := cctx.Context
	sess, err := loadSession(cctx)
	if err != nil {
		return err
	}
	pw, err := password(cctx)
	if err != nil {
		return err
	}
	if err := sess.Register(ctx, cctx.String("email"), pw, cctx.String("name")); err != nil {
		return err
	}
	fmt.Println("account created, logged in")
	return nil
}

func runLogout(cctx *cli.Context) error {
	sess, err := loadSession(cctx)
	if err != nil {
		return err
	}
	return sess.Logout(cctx.Context)
}
