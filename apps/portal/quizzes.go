package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/trezcool/masomo-lms/core/quiz"
	"github.com/trezcool/masomo-lms/core/user"
)

func (cli *commandLine) loadQuizzes(ctx context.Context) (*quiz.Loader, error) {
	loader := quiz.NewLoader(cli.client, cli.currentUser().Type, cli.logger)
	if _, err := loader.Load(ctx); err != nil {
		return nil, err
	}
	return loader, nil
}

func (cli *commandLine) quizzes(ctx context.Context, _ []string) error {
	loader, err := cli.loadQuizzes(ctx)
	if err != nil {
		return err
	}
	views := loader.Views()
	if len(views) == 0 {
		fmt.Fprintln(cli.out, "No quizzes yet.")
		return nil
	}

	if cli.currentUser().IsStudent() {
		tw := newTable(cli.out, "ID", "TITLE", "COURSE", "DURATION", "DUE", "STATUS")
		for _, v := range views {
			row(tw, v.Quiz.ID, v.Quiz.Title, v.Quiz.CourseName, fmt.Sprintf("%d min", v.Quiz.Duration), formatTime(v.Quiz.DueDate), studentStatus(v))
		}
		return tw.Flush()
	}

	tw := newTable(cli.out, "ID", "TITLE", "COURSE", "DUE", "SUBMISSIONS", "GRADED")
	for _, v := range views {
		graded := 0
		for _, sub := range v.Submissions {
			if sub.IsGraded() {
				graded++
			}
		}
		row(tw, v.Quiz.ID, v.Quiz.Title, v.Quiz.CourseName, formatTime(v.Quiz.DueDate), len(v.Submissions), graded)
	}
	return tw.Flush()
}

func studentStatus(v quiz.QuizView) string {
	if v.Submission == nil {
		return "not taken"
	}
	return fmt.Sprintf("%s %d/%d", v.Submission.Status, v.Submission.Score, v.Quiz.MaxScore)
}

var errNotSubmitted = errors.New("quiz was not submitted")

// scanLines feeds the lines read from `in` until EOF or until `done` is closed.
func scanLines(in io.Reader, done <-chan struct{}) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-done:
				return
			}
		}
	}()
	return lines
}

func (cli *commandLine) take(ctx context.Context, args []string) error {
	fs := cli.flagSet("take")
	quizID := fs.String("quiz", "", "The quiz to take.")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *quizID == "" {
		fs.Usage()
		return errHelp
	}
	if err := cli.requireRole(user.TypeStudent); err != nil {
		return err
	}

	loader, err := cli.loadQuizzes(ctx)
	if err != nil {
		return err
	}
	view, ok := loader.View(*quizID)
	if !ok {
		return quiz.ErrNotFound
	}

	// the countdown toasts from its own goroutine
	cli.out = &lockedWriter{w: cli.out}

	usr := cli.currentUser()
	sess := quiz.NewSession(quiz.Student{ID: usr.ID, Name: usr.Name}, cli.client, terminalToaster{out: cli.out}, cli.logger)
	submitted := make(chan struct{})
	var once sync.Once
	sess.OnSubmitted = func(sub quiz.Submission) {
		loader.Merge(sub)
		once.Do(func() { close(submitted) })
	}

	sess.Open(view.Quiz, view.Submission)
	defer sess.Close()
	if sess.State() == quiz.StateSubmitted {
		fmt.Fprintln(cli.out, "You already submitted this quiz.")
		res, _ := sess.Result()
		printResult(cli.out, res)
		return nil
	}
	if err = sess.Start(ctx); err != nil {
		return err
	}

	qz := view.Quiz
	fmt.Fprintf(cli.out, "%s (%s): %d questions, %d minutes.\n", qz.Title, qz.CourseName, len(qz.Questions), qz.Duration)
	fmt.Fprintln(cli.out, "Answer with A-D, press Enter to skip a question, q to quit without submitting.")

	done := make(chan struct{})
	defer close(done)
	lines := scanLines(cli.in, done)

	confirm := false // the timeout submit failed: ask before retrying
answering:
	for i := 0; i < len(qz.Questions); i++ {
		printQuestion(cli.out, i, qz.Questions[i])
		fmt.Fprintf(cli.out, "[%s left] > ", formatRemaining(sess.Remaining()))

		select {
		case <-submitted:
			fmt.Fprintln(cli.out)
			res, _ := sess.Result()
			printResult(cli.out, res)
			return nil
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				break answering
			}
			choice := strings.ToUpper(strings.TrimSpace(line))
			switch {
			case choice == "":
			case choice == "Q":
				fmt.Fprintln(cli.out, "Quiz closed without submitting.")
				return nil
			case len(choice) == 1 && choice[0] >= 'A' && choice[0] < 'A'+quiz.NumOptions:
				switch err = sess.Answer(i, int(choice[0]-'A')); err {
				case nil:
				case quiz.ErrNotRunning, quiz.ErrTimeUp:
					fmt.Fprintln(cli.out, "Time is up.")
					if err = sess.Wait(ctx); err != nil {
						return err
					}
					if res, ok := sess.Result(); ok {
						printResult(cli.out, res)
						return nil
					}
					confirm = true
					break answering
				default:
					return err
				}
			default:
				cli.toast("Answer with A, B, C or D.")
				i--
			}
		}
	}

	for {
		if confirm {
			fmt.Fprint(cli.out, "Retry? [Y/n] ")
			line, ok := <-lines
			if !ok || strings.EqualFold(strings.TrimSpace(line), "n") {
				return errNotSubmitted
			}
		}

		res, err := sess.Submit(ctx, quiz.TriggerManual)
		switch {
		case err == nil, errors.Is(err, quiz.ErrAlreadySubmitted):
			printResult(cli.out, res)
			return nil
		case err == quiz.ErrSubmitInProgress:
			// the countdown is submitting
			if err = sess.Wait(ctx); err != nil {
				return err
			}
			if res, ok := sess.Result(); ok {
				printResult(cli.out, res)
				return nil
			}
			confirm = true
			continue
		case err == quiz.ErrNotRunning:
			return err
		case ctx.Err() != nil:
			return ctx.Err()
		}
		confirm = true
	}
}

func (cli *commandLine) submissions(ctx context.Context, args []string) error {
	fs := cli.flagSet("submissions")
	quizID := fs.String("quiz", "", "The quiz whose submissions to list (teachers).")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if cli.currentUser().IsStudent() {
		loader, err := cli.loadQuizzes(ctx)
		if err != nil {
			return err
		}
		tw := newTable(cli.out, "ID", "QUIZ", "SCORE", "STATUS", "SUBMITTED", "FEEDBACK")
		for _, v := range loader.Views() {
			if sub := v.Submission; sub != nil {
				row(tw, sub.ID, v.Quiz.Title, fmt.Sprintf("%d/%d", sub.Score, v.Quiz.MaxScore), sub.Status, formatTime(sub.SubmittedAt), sub.Feedback)
			}
		}
		return tw.Flush()
	}

	if *quizID == "" {
		fs.Usage()
		return errHelp
	}
	subs, err := cli.client.QuizSubmissions(ctx, *quizID)
	if err != nil {
		return err
	}
	if len(subs) == 0 {
		fmt.Fprintln(cli.out, "No submissions yet.")
		return nil
	}
	tw := newTable(cli.out, "ID", "STUDENT", "SCORE", "STATUS", "SUBMITTED")
	for _, sub := range subs {
		row(tw, sub.ID, sub.StudentName, sub.Score, sub.Status, formatTime(sub.SubmittedAt))
	}
	return tw.Flush()
}

func (cli *commandLine) review(ctx context.Context, args []string) error {
	fs := cli.flagSet("review")
	subID := fs.String("submission", "", "The submission to grade.")
	score := fs.Int("score", 0, "The new score.")
	feedback := fs.String("feedback", "", "Feedback for the student.")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *subID == "" {
		fs.Usage()
		return errHelp
	}
	if err := cli.requireRole(user.TypeTeacher, user.TypeAdmin); err != nil {
		return err
	}

	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	reviewer := quiz.NewReviewer(cli.client)
	form, err := reviewer.Load(ctx, *subID)
	if err != nil {
		return err
	}
	printGradeForm(cli.out, form)
	if !set["score"] && !set["feedback"] {
		return nil
	}

	var newScore *int
	if set["score"] {
		newScore = score
	}
	if form, err = reviewer.Save(ctx, newScore, *feedback); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "Saved: %d (%s)\n", form.Score, form.Status)
	return nil
}

func printGradeForm(out io.Writer, form quiz.GradeForm) {
	answers := make([]string, len(form.Answers))
	for i, a := range form.Answers {
		answers[i] = optionLabel(a)
	}
	fmt.Fprintf(out, "Submission %s by %s\n", form.SubmissionID, form.StudentName)
	fmt.Fprintf(out, "Answers:  %s\n", strings.Join(answers, " "))
	fmt.Fprintf(out, "Score:    %d (%s)\n", form.Score, form.Status)
	if form.Feedback != "" {
		fmt.Fprintf(out, "Feedback: %s\n", form.Feedback)
	}
}
