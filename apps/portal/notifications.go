package main

import (
	"context"
	"fmt"
)

func (cli *commandLine) notifications(ctx context.Context, args []string) error {
	fs := cli.flagSet("notifications")
	unread := fs.Bool("unread", false, "Only list unread notifications.")
	if err := fs.Parse(args); err != nil {
		return err
	}

	notifs, err := cli.client.Notifications(ctx, *unread)
	if err != nil {
		return err
	}
	if len(notifs) == 0 {
		fmt.Fprintln(cli.out, "No notifications.")
		return nil
	}
	tw := newTable(cli.out, "ID", "", "WHEN", "MESSAGE", "LINK")
	for _, n := range notifs {
		mark := "*"
		if n.IsRead {
			mark = ""
		}
		row(tw, n.ID, mark, formatTime(n.CreatedAt), n.Message, n.Link)
	}
	return tw.Flush()
}

func (cli *commandLine) read(ctx context.Context, args []string) error {
	fs := cli.flagSet("read")
	id := fs.String("id", "", "The notification to mark read.")
	all := fs.Bool("all", false, "Mark every notification read.")
	if err := fs.Parse(args); err != nil {
		return err
	}

	switch {
	case *all:
		marked, err := cli.client.MarkAllNotificationsRead(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cli.out, "%d notification(s) marked read.\n", marked)
	case *id != "":
		if _, err := cli.client.MarkNotificationRead(ctx, *id); err != nil {
			return err
		}
		fmt.Fprintln(cli.out, "Notification marked read.")
	default:
		fs.Usage()
		return errHelp
	}
	return nil
}
