package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/nhle/greenspace-sync/internal/model"
	"github.com/nhle/greenspace-sync/internal/notification"
	gssync "github.com/nhle/greenspace-sync/internal/sync"
)

type NotificationsCmd struct {
	env *Env
	out io.Writer

	// flags
	unseenOnly bool
	markRead   []string
	markAll    bool
}

// NewNotificationsCmd creates a new notifications command
func NewNotificationsCmd(env *Env) *NotificationsCmd {
	return &NotificationsCmd{env: env, out: os.Stdout}
}

// Register adds the notifications command to the application
func (cmd *NotificationsCmd) Register(root *cli.Command) *cli.Command {
	root.Commands = append(root.Commands, &cli.Command{
		Name:      "notifications",
		Aliases:   []string{"inbox"},
		Usage:     "List notifications and mark them as read",
		UsageText: "greenspace notifications [--unseen] [--mark-read ID]... [--mark-all-read]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "unseen",
				Usage:       "only list unread notifications",
				Destination: &cmd.unseenOnly,
			},
			&cli.StringSliceFlag{
				Name:        "mark-read",
				Usage:       "mark the notification with this id as read (repeatable)",
				Destination: &cmd.markRead,
			},
			&cli.BoolFlag{
				Name:        "mark-all-read",
				Usage:       "mark every unread notification as read",
				Destination: &cmd.markAll,
			},
		},
		Action: cmd.run,
	})
	return root
}

func (cmd *NotificationsCmd) run(ctx context.Context, _ *cli.Command) error {
	userID, err := cmd.env.requireUser()
	if err != nil {
		return err
	}
	remote, err := cmd.env.Adapter()
	if err != nil {
		return err
	}

	in := notification.NewInbox(userID, remote, cmd.env.Store, logger())
	defer in.Dispose()

	if err := in.Refresh(ctx, gssync.ModeVisible); err != nil {
		return err
	}

	ids := cmd.markRead
	if cmd.markAll {
		for _, n := range in.Unseen() {
			ids = append(ids, n.ID)
		}
	}
	var errs []error
	for _, id := range ids {
		if err := in.MarkSeen(ctx, id); err != nil {
			errs = append(errs, err)
		}
	}
	if len(ids) > 0 && len(errs) == 0 {
		fmt.Fprintf(cmd.out, "Marked %d notification(s) as read\n", len(ids))
	}

	notes := in.Items()
	if cmd.unseenOnly {
		notes = in.Unseen()
	}
	if err := cmd.print(notes); err != nil {
		return err
	}
	return errors.Join(errs...)
}

func (cmd *NotificationsCmd) print(notes []model.Notification) error {
	if len(notes) == 0 {
		fmt.Fprintln(os.Stderr, "No notifications")
		return nil
	}

	w := tabwriter.NewWriter(cmd.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSEEN\tCREATED\tORDER\tTITLE")
	for _, n := range notes {
		seen := "no"
		if n.IsSeen {
			seen = "yes"
		}
		order, ok := notification.ExtractOrderID(n.Content)
		if !ok {
			order = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			n.ID, seen, n.CreatedAt.Local().Format("2006-01-02 15:04"), order, n.Title)
	}
	return w.Flush()
}
