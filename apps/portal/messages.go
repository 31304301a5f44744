package main

import (
	"context"
	"fmt"

	"github.com/trezcool/masomo-lms/core/message"
)

func (cli *commandLine) contacts(ctx context.Context, _ []string) error {
	contacts, err := cli.client.Contacts(ctx)
	if err != nil {
		return err
	}
	if len(contacts) == 0 {
		fmt.Fprintln(cli.out, "No contacts: enroll in a course first.")
		return nil
	}
	tw := newTable(cli.out, "USER ID", "NAME", "ROLE", "COURSE ID", "COURSE")
	for _, c := range contacts {
		row(tw, c.UserID, c.Name, c.Type, c.CourseID, c.CourseName)
	}
	return tw.Flush()
}

func (cli *commandLine) send(ctx context.Context, args []string) error {
	fs := cli.flagSet("send")
	courseID := fs.String("course", "", "The course the conversation belongs to.")
	to := fs.String("to", "", "The recipient's user ID (see `contacts`).")
	body := fs.String("body", "", "The message.")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *courseID == "" || *to == "" || *body == "" {
		fs.Usage()
		return errHelp
	}

	msg, err := cli.client.SendMessage(ctx, message.NewMessage{CourseID: *courseID, RecipientID: *to, Body: *body})
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "Sent at %s.\n", formatTime(msg.SentAt))
	return nil
}
