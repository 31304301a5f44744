package main

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/labstack/gommon/color"
	"github.com/robfig/cron/v3"

	"github.com/trezcool/masomo-lms/core"
	"github.com/trezcool/masomo-lms/core/message"
)

type (
	badgeSource interface {
		UnreadCount(ctx context.Context) (int, error)
	}

	chatSource interface {
		Conversation(ctx context.Context, contactID, courseID string, after time.Time) ([]message.Message, error)
	}

	// badgeJob reports the unread notification count whenever it changes.
	badgeJob struct {
		src  badgeSource
		out  io.Writer
		last int
	}

	// chatJob prints the messages of one conversation as they arrive.
	chatJob struct {
		src       chatSource
		out       io.Writer
		selfID    string
		contactID string
		courseID  string
		after     time.Time            // newest SentAt printed
		seen      map[string]time.Time // ids printed inside the overlap window
	}
)

// cursorOverlap is how far back the chat cursor reaches; Postgres keeps microseconds.
const cursorOverlap = time.Microsecond

func (j *badgeJob) poll(ctx context.Context) error {
	count, err := j.src.UnreadCount(ctx)
	if err != nil {
		return err
	}
	if count != j.last {
		fmt.Fprintln(j.out, color.Cyan(fmt.Sprintf("(%d) unread notification(s)", count)))
		j.last = count
	}
	return nil
}

// poll asks for the messages sent since slightly before the cursor: several messages may share a
// SentAt, so the ones already printed are skipped by id.
func (j *chatJob) poll(ctx context.Context) error {
	since := j.after
	if !since.IsZero() {
		since = since.Add(-cursorOverlap)
	}
	msgs, err := j.src.Conversation(ctx, j.contactID, j.courseID, since)
	if err != nil {
		return err
	}
	for _, msg := range msgs {
		if _, ok := j.seen[msg.ID]; ok {
			continue
		}
		who := msg.SenderName
		if msg.SenderID == j.selfID {
			who = "you"
		}
		fmt.Fprintf(j.out, "[%s] %s: %s\n", formatTime(msg.SentAt), color.Bold(who), msg.Body)
		if j.seen == nil {
			j.seen = make(map[string]time.Time)
		}
		j.seen[msg.ID] = msg.SentAt
		if msg.SentAt.After(j.after) {
			j.after = msg.SentAt
		}
	}

	for id, sentAt := range j.seen {
		if !sentAt.After(j.after.Add(-cursorOverlap)) {
			delete(j.seen, id)
		}
	}
	return nil
}

// poller runs periodic jobs until stopped. Failed polls are logged and simply wait for the next tick.
type poller struct {
	cron   *cron.Cron
	logger core.Logger
	mu     sync.Mutex
}

func newPoller(logger core.Logger) *poller {
	return &poller{
		cron:   cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		logger: logger,
	}
}

// every schedules `poll` every `interval`, and runs it once right away.
func (p *poller) every(ctx context.Context, name string, interval time.Duration, poll func(context.Context) error) error {
	job := func() {
		// jobs share the terminal
		p.mu.Lock()
		defer p.mu.Unlock()
		if err := poll(ctx); err != nil && ctx.Err() == nil {
			p.logger.Warn(fmt.Sprintf("polling %s failed", name), err)
		}
	}
	if _, err := p.cron.AddFunc(fmt.Sprintf("@every %s", interval), job); err != nil {
		return err
	}
	job()
	return nil
}

func (p *poller) start() { p.cron.Start() }

// stop waits for the running jobs.
func (p *poller) stop() {
	<-p.cron.Stop().Done()
}

func (cli *commandLine) watch(ctx context.Context, args []string) error {
	fs := cli.flagSet("watch")
	courseID := fs.String("course", "", "The course of the conversation to follow.")
	contactID := fs.String("contact", "", "The user ID of the contact to follow.")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if (*courseID == "") != (*contactID == "") {
		fs.Usage()
		return errHelp
	}

	p := newPoller(cli.logger)
	badge := &badgeJob{src: cli.client, out: cli.out, last: -1}
	if err := p.every(ctx, "notifications", cli.conf.NotificationPollInterval, badge.poll); err != nil {
		return err
	}
	if *contactID != "" {
		chat := &chatJob{
			src:       cli.client,
			out:       cli.out,
			selfID:    cli.currentUser().ID,
			contactID: *contactID,
			courseID:  *courseID,
		}
		if err := p.every(ctx, "conversation", cli.conf.ChatPollInterval, chat.poll); err != nil {
			return err
		}
	}

	fmt.Fprintln(cli.out, "Watching... press Ctrl+C to stop.")
	p.start()
	<-ctx.Done()
	p.stop()
	return nil
}
