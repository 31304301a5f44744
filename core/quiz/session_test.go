package quiz

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

type toasts struct {
	mu   sync.Mutex
	msgs []string
}

func (t *toasts) Toast(msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.msgs = append(t.msgs, msg)
}

func (t *toasts) last() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.msgs) == 0 {
		return ""
	}
	return t.msgs[len(t.msgs)-1]
}

type fakeSubmitter struct {
	mu    sync.Mutex
	calls []Submission
	err   error
	block chan struct{}
}

func (f *fakeSubmitter) SubmitQuiz(ctx context.Context, sub Submission) (Submission, error) {
	var ctxErr error
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			ctxErr = ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, sub)
	if ctxErr != nil {
		return Submission{}, ctxErr
	}
	if f.err != nil {
		return Submission{}, f.err
	}
	sub.ID = "sub1"
	return sub, nil
}

func (f *fakeSubmitter) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func newTestSession(submitter Submitter, toaster Toaster) *Session {
	s := NewSession(Student{ID: "s1", Name: "Stu"}, submitter, toaster, nopLogger{})
	s.tickEvery = 0
	return s
}

func TestSession_manualSubmit(t *testing.T) {
	submitter := &fakeSubmitter{}
	toaster := &toasts{}
	s := newTestSession(submitter, toaster)

	var notified Submission
	s.OnSubmitted = func(sub Submission) { notified = sub }

	s.Open(sampleQuiz(), nil)
	assert.Equal(t, StateOpen, s.State())
	assert.Equal(t, []int{Unanswered, Unanswered, Unanswered}, s.Answers())
	assert.Equal(t, ErrNotRunning, s.Answer(0, 0), "answering before start")

	require.NoError(t, s.Start(context.Background()))
	assert.Equal(t, time.Minute, s.Remaining())

	require.NoError(t, s.Answer(0, 0))
	require.NoError(t, s.Answer(1, 2))
	require.NoError(t, s.Answer(2, 1))
	require.NoError(t, s.Answer(2, 3)) // single selection: replaces the previous one
	assert.Equal(t, ErrNoSuchQuestion, s.Answer(3, 0))
	assert.Equal(t, ErrNoSuchOption, s.Answer(0, 4))

	res, err := s.Submit(context.Background(), TriggerManual)
	require.NoError(t, err)
	assert.Equal(t, 20, res.Score)
	assert.Equal(t, StateSubmitted, s.State())
	assert.Equal(t, "sub1", notified.ID)
	assert.Equal(t, "", toaster.last(), "no toast on a manual submit")

	if assert.Equal(t, 1, submitter.count()) {
		sent := submitter.calls[0]
		assert.Equal(t, []int{0, 2, 3}, sent.Answers)
		assert.Equal(t, 20, sent.Score)
		assert.Equal(t, "s1", sent.StudentID)
		assert.Equal(t, StatusSubmitted, sent.Status)
	}

	// a second submit is refused and posts nothing
	res2, err := s.Submit(context.Background(), TriggerManual)
	assert.Equal(t, ErrAlreadySubmitted, err)
	assert.Equal(t, res, res2)
	assert.Equal(t, 1, submitter.count())
	assert.Equal(t, ErrNotRunning, s.Answer(0, 1))
}

func TestSession_timeout(t *testing.T) {
	submitter := &fakeSubmitter{}
	toaster := &toasts{}
	s := newTestSession(submitter, toaster)

	s.Open(sampleQuiz(), nil)
	require.NoError(t, s.Start(context.Background()))

	for i := 0; i < 59; i++ {
		s.Tick(context.Background())
	}
	assert.Equal(t, time.Second, s.Remaining())
	assert.Equal(t, 0, submitter.count())

	s.Tick(context.Background())
	assert.Equal(t, time.Duration(0), s.Remaining())
	assert.Equal(t, StateSubmitted, s.State())
	assert.Equal(t, "Time is up! Your answers were submitted.", toaster.last())
	if assert.Equal(t, 1, submitter.count()) {
		assert.Equal(t, 0, submitter.calls[0].Score)
		assert.Equal(t, []int{Unanswered, Unanswered, Unanswered}, submitter.calls[0].Answers)
	}

	// further ticks never resubmit
	s.Tick(context.Background())
	assert.Equal(t, 1, submitter.count())
}

func TestSession_failedSubmit(t *testing.T) {
	submitter := &fakeSubmitter{err: errors.New("boom")}
	toaster := &toasts{}
	s := newTestSession(submitter, toaster)

	s.Open(sampleQuiz(), nil)
	require.NoError(t, s.Start(context.Background()))

	_, err := s.Submit(context.Background(), TriggerManual)
	assert.EqualError(t, err, "boom")
	assert.Equal(t, StateRunning, s.State(), "the student may retry")
	assert.Equal(t, "Could not submit quiz: boom", toaster.last())
	_, ok := s.Result()
	assert.False(t, ok)

	submitter.err = nil
	res, err := s.Submit(context.Background(), TriggerManual)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Score)
	assert.Equal(t, 2, submitter.count())
}

func TestSession_failedTimeoutSubmitIsNotRetried(t *testing.T) {
	submitter := &fakeSubmitter{err: errors.New("offline")}
	s := newTestSession(submitter, &toasts{})

	qz := sampleQuiz()
	qz.Duration = 0
	s.Open(qz, nil)
	require.NoError(t, s.Start(context.Background()))
	require.NoError(t, s.Answer(0, 0))

	s.Tick(context.Background())
	s.Tick(context.Background())
	assert.Equal(t, 1, submitter.count())
	assert.Equal(t, StateRunning, s.State())

	// the answers are frozen once the time ran out
	assert.Equal(t, ErrTimeUp, s.Answer(1, 2))
	assert.Equal(t, ErrTimeUp, s.Answer(0, Unanswered))
	assert.Equal(t, []int{0, Unanswered, Unanswered}, s.Answers())

	// a manual retry resends them
	submitter.err = nil
	res, err := s.Submit(context.Background(), TriggerManual)
	require.NoError(t, err)
	assert.Equal(t, 10, res.Score)
	if assert.Equal(t, 2, submitter.count()) {
		assert.Equal(t, []int{0, Unanswered, Unanswered}, submitter.calls[1].Answers)
	}
}

func TestSession_closeDuringTimeoutSubmit(t *testing.T) {
	submitter := &fakeSubmitter{block: make(chan struct{})}
	s := NewSession(Student{ID: "s1"}, submitter, &toasts{}, nopLogger{})
	s.tickEvery = time.Millisecond

	var notified Submission
	s.OnSubmitted = func(sub Submission) { notified = sub }

	qz := sampleQuiz()
	qz.Duration = 0
	s.Open(qz, nil)
	require.NoError(t, s.Start(context.Background()))

	deadline := time.Now().Add(2 * time.Second)
	for s.State() != StateSubmitting && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	require.Equal(t, StateSubmitting, s.State())
	assert.Equal(t, ErrNotRunning, s.Answer(0, 1))

	s.Close()
	assert.Equal(t, StateSubmitting, s.State(), "close leaves the submit in flight alone")

	close(submitter.block)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.Wait(ctx))

	assert.Equal(t, StateSubmitted, s.State())
	sub, ok := s.Submission()
	require.True(t, ok)
	assert.Equal(t, "sub1", sub.ID)
	assert.Equal(t, "sub1", notified.ID)
	assert.Equal(t, 1, submitter.count())
}

func TestSession_closeDuringFailedSubmit(t *testing.T) {
	submitter := &fakeSubmitter{block: make(chan struct{}), err: errors.New("offline")}
	s := newTestSession(submitter, &toasts{})

	s.Open(sampleQuiz(), nil)
	require.NoError(t, s.Start(context.Background()))

	done := make(chan error)
	go func() {
		_, err := s.Submit(context.Background(), TriggerManual)
		done <- err
	}()
	for s.State() != StateSubmitting {
		time.Sleep(time.Millisecond)
	}

	s.Close()
	close(submitter.block)
	assert.EqualError(t, <-done, "offline")
	assert.NoError(t, s.Wait(context.Background()))
	assert.Equal(t, StateClosed, s.State())
}

func TestSession_wait(t *testing.T) {
	submitter := &fakeSubmitter{block: make(chan struct{})}
	s := newTestSession(submitter, &toasts{})

	assert.NoError(t, s.Wait(context.Background()), "nothing in flight")

	s.Open(sampleQuiz(), nil)
	require.NoError(t, s.Start(context.Background()))
	go func() { _, _ = s.Submit(context.Background(), TriggerManual) }()
	for s.State() != StateSubmitting {
		time.Sleep(time.Millisecond)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Equal(t, context.Canceled, s.Wait(ctx))

	close(submitter.block)
	require.NoError(t, s.Wait(context.Background()))
	assert.Equal(t, StateSubmitted, s.State())
}

func TestSession_alreadySubmittedOnBackend(t *testing.T) {
	submitter := &fakeSubmitter{err: wrapped{ErrAlreadySubmitted}}
	toaster := &toasts{}
	s := newTestSession(submitter, toaster)

	called := false
	s.OnSubmitted = func(Submission) { called = true }

	s.Open(sampleQuiz(), nil)
	require.NoError(t, s.Start(context.Background()))

	_, err := s.Submit(context.Background(), TriggerManual)
	assert.True(t, errors.Is(err, ErrAlreadySubmitted))
	assert.Equal(t, StateSubmitted, s.State())
	assert.Equal(t, "You have already submitted this quiz.", toaster.last())
	assert.False(t, called)
}

type wrapped struct{ err error }

func (w wrapped) Error() string { return "backend: " + w.err.Error() }
func (w wrapped) Unwrap() error { return w.err }

func TestSession_concurrentSubmit(t *testing.T) {
	submitter := &fakeSubmitter{block: make(chan struct{})}
	s := newTestSession(submitter, &toasts{})

	s.Open(sampleQuiz(), nil)
	require.NoError(t, s.Start(context.Background()))

	done := make(chan error)
	go func() {
		_, err := s.Submit(context.Background(), TriggerManual)
		done <- err
	}()

	// wait for the first submit to be in flight
	for s.State() != StateSubmitting {
		time.Sleep(time.Millisecond)
	}
	_, err := s.Submit(context.Background(), TriggerTimeout)
	assert.Equal(t, ErrSubmitInProgress, err)

	close(submitter.block)
	assert.NoError(t, <-done)
	assert.Equal(t, 1, submitter.count())
}

func TestSession_openSubmitted(t *testing.T) {
	submitter := &fakeSubmitter{}
	s := newTestSession(submitter, &toasts{})

	prior := &Submission{ID: "old", QuizID: "q1", Answers: []int{0, 2, 1}, Score: 30, Status: StatusGraded, Feedback: "great"}
	s.Open(sampleQuiz(), prior)
	assert.Equal(t, StateSubmitted, s.State())
	assert.Equal(t, []int{0, 2, 1}, s.Answers())

	require.NoError(t, s.Start(context.Background()), "start is a no-op")
	assert.Equal(t, StateSubmitted, s.State())

	res, ok := s.Result()
	require.True(t, ok)
	assert.Equal(t, 30, res.Score)
	assert.Equal(t, "great", res.Feedback)

	sub, ok := s.Submission()
	require.True(t, ok)
	assert.Equal(t, "old", sub.ID)

	_, err := s.Submit(context.Background(), TriggerManual)
	assert.Equal(t, ErrAlreadySubmitted, err)
	assert.Equal(t, 0, submitter.count())
}

func TestSession_close(t *testing.T) {
	submitter := &fakeSubmitter{}
	s := newTestSession(submitter, &toasts{})

	s.Open(sampleQuiz(), nil)
	require.NoError(t, s.Start(context.Background()))
	s.Close()
	assert.Equal(t, StateClosed, s.State())

	_, err := s.Submit(context.Background(), TriggerManual)
	assert.Equal(t, ErrNotRunning, err)
	assert.Equal(t, ErrNotRunning, s.Start(context.Background()))
	assert.Equal(t, 0, submitter.count())
}

func TestSession_countdown(t *testing.T) {
	submitter := &fakeSubmitter{}
	toaster := &toasts{}
	s := NewSession(Student{ID: "s1"}, submitter, toaster, nopLogger{})
	s.tickEvery = time.Millisecond

	qz := sampleQuiz()
	qz.Duration = 0 // expires on the first tick
	s.Open(qz, nil)
	require.NoError(t, s.Start(context.Background()))

	deadline := time.Now().Add(2 * time.Second)
	for s.State() != StateSubmitted && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	assert.Equal(t, StateSubmitted, s.State())
	assert.Equal(t, 1, submitter.count())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "running", StateRunning.String())
	assert.Equal(t, "State(42)", State(42).String())
}
