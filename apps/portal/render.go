package main

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/labstack/gommon/color"

	"github.com/trezcool/masomo-lms/core/quiz"
)

const timeLayout = "2006-01-02 15:04"

// terminalToaster prints transient messages on the terminal.
type terminalToaster struct {
	out io.Writer
}

func (t terminalToaster) Toast(msg string) {
	fmt.Fprintln(t.out, color.Yellow("[!] "+msg))
}

// lockedWriter serializes writes shared between goroutines.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (lw *lockedWriter) Write(p []byte) (int, error) {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	return lw.w.Write(p)
}

func (cli *commandLine) toast(msg string) {
	terminalToaster{out: cli.out}.Toast(msg)
}

func newTable(out io.Writer, headers ...string) *tabwriter.Writer {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(headers, "\t"))
	return tw
}

func row(tw *tabwriter.Writer, cols ...interface{}) {
	strs := make([]string, len(cols))
	for i, col := range cols {
		strs[i] = fmt.Sprint(col)
	}
	fmt.Fprintln(tw, strings.Join(strs, "\t"))
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(timeLayout)
}

func formatRemaining(d time.Duration) string {
	d = d.Round(time.Second)
	return fmt.Sprintf("%02d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}

func optionLabel(i int) string {
	if i == quiz.Unanswered {
		return "-"
	}
	return string(rune('A' + i))
}

func printQuestion(out io.Writer, i int, qn quiz.Question) {
	fmt.Fprintf(out, "\n%s %s\n", color.Bold(fmt.Sprintf("Q%d.", i+1)), qn.Prompt)
	for j, opt := range qn.Options {
		fmt.Fprintf(out, "   %s) %s\n", optionLabel(j), opt)
	}
}

func printResult(out io.Writer, res quiz.Result) {
	fmt.Fprintf(out, "\nScore: %s (%s)\n", color.Bold(fmt.Sprintf("%d/%d", res.Score, res.MaxScore)), res.Status)
	if res.Feedback != "" {
		fmt.Fprintf(out, "Feedback: %s\n", res.Feedback)
	}
	for i, qr := range res.Questions {
		mark := color.Green("correct")
		if !qr.IsCorrect {
			mark = color.Red("wrong")
		}
		fmt.Fprintf(out, "Q%d. %s: you answered %s, the answer is %s (%s)\n",
			i+1, qr.Prompt, optionLabel(qr.Selected), optionLabel(qr.Correct), mark)
	}
}
