package quiz

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/trezcool/masomo-lms/core"
)

// Submit triggers
const (
	TriggerManual  Trigger = "manual"
	TriggerTimeout Trigger = "timeout"
)

// Session states
const (
	StateIdle State = iota
	StateOpen
	StateRunning
	StateSubmitting
	StateSubmitted
	StateClosed
)

var (
	// errors
	ErrSubmitInProgress = errors.New("a submission is already in progress")
	ErrNotRunning       = errors.New("quiz is not running")
	ErrTimeUp           = errors.New("time is up")
	ErrNoSuchQuestion   = errors.New("no such question")
	ErrNoSuchOption     = errors.New("no such option")
)

type (
	Trigger string
	State   int

	// Submitter posts a scored submission and returns what the backend stored.
	Submitter interface {
		SubmitQuiz(ctx context.Context, sub Submission) (Submission, error)
	}

	// Toaster shows transient messages to the user.
	Toaster interface {
		Toast(msg string)
	}

	Student struct {
		ID   string
		Name string
	}

	// Session presents one quiz, enforces its time budget and produces exactly one Submission.
	Session struct {
		submitter Submitter
		toaster   Toaster
		logger    core.Logger
		student   Student
		tickEvery time.Duration // 0 disables the countdown goroutine

		// OnSubmitted is called with the stored submission once a submit succeeds.
		OnSubmitted func(Submission)

		mu        sync.Mutex
		quiz      Quiz
		answers   []int
		remaining time.Duration
		expired   bool // answers are frozen once set
		closing   bool
		state     State
		stored    *Submission
		result    *Result
		submitCtx context.Context
		inflight  chan struct{} // closed when the running submit settles
		cancel    context.CancelFunc
	}
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateOpen:
		return "open"
	case StateRunning:
		return "running"
	case StateSubmitting:
		return "submitting"
	case StateSubmitted:
		return "submitted"
	case StateClosed:
		return "closed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

func NewSession(student Student, submitter Submitter, toaster Toaster, logger core.Logger) *Session {
	return &Session{
		submitter: submitter,
		toaster:   toaster,
		logger:    logger,
		student:   student,
		tickEvery: time.Second,
	}
}

// Open presents `qz`. When `prior` is the student's stored submission for it, the session opens
// straight in the submitted state with the stored result: there is no retake.
func (s *Session) Open(qz Quiz, prior *Submission) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stop()
	s.quiz = qz
	s.answers = make([]int, len(qz.Questions))
	for i := range s.answers {
		s.answers[i] = Unanswered
	}
	s.remaining = qz.TimeBudget()
	s.expired = false
	s.closing = false
	s.submitCtx = nil
	s.stored = nil
	s.result = nil
	s.state = StateOpen

	if prior != nil {
		sub := *prior
		res := ResultOf(qz, sub)
		copy(s.answers, sub.Answers)
		s.stored = &sub
		s.result = &res
		s.state = StateSubmitted
	}
}

// Start begins the countdown. It is a no-op on a quiz that was already submitted.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateSubmitted:
		return nil
	case StateOpen:
	default:
		return ErrNotRunning
	}
	s.remaining = s.quiz.TimeBudget()
	s.state = StateRunning
	s.submitCtx = ctx
	if s.tickEvery > 0 {
		tickCtx, cancel := context.WithCancel(ctx)
		s.cancel = cancel
		go s.countdown(tickCtx, ctx, s.tickEvery)
	}
	return nil
}

// countdown stops with `tickCtx`; the timeout submit runs under `submitCtx` so stopping the
// countdown never aborts it.
func (s *Session) countdown(tickCtx, submitCtx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-tickCtx.Done():
			return
		case <-ticker.C:
			s.Tick(submitCtx)
		}
	}
}

// Tick takes one second off the remaining time and force-submits when it runs out.
func (s *Session) Tick(ctx context.Context) {
	s.mu.Lock()
	if s.state != StateRunning || s.expired {
		s.mu.Unlock()
		return
	}
	s.remaining -= time.Second
	if s.remaining > 0 {
		s.mu.Unlock()
		return
	}
	s.remaining = 0
	s.expired = true
	s.mu.Unlock()

	if _, err := s.Submit(ctx, TriggerTimeout); err != nil {
		s.logger.Warn(fmt.Sprintf("timeout submit of quiz %s failed: %v", s.quiz.ID, err))
	}
}

// Answer selects `option` for `question`; a question holds a single selection.
func (s *Session) Answer(question, option int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateRunning {
		return ErrNotRunning
	}
	if s.expired {
		return ErrTimeUp
	}
	if question < 0 || question >= len(s.answers) {
		return ErrNoSuchQuestion
	}
	if option != Unanswered && (option < 0 || option >= NumOptions) {
		return ErrNoSuchOption
	}
	s.answers[question] = option
	return nil
}

// Submit scores the current answers and posts them.
// On failure the user is told through the Toaster and the session stays running so they may retry;
// after the time ran out a retry resends the answers frozen at that moment.
func (s *Session) Submit(ctx context.Context, trigger Trigger) (Result, error) {
	s.mu.Lock()
	switch s.state {
	case StateSubmitting:
		s.mu.Unlock()
		return Result{}, ErrSubmitInProgress
	case StateSubmitted:
		res := *s.result
		s.mu.Unlock()
		return res, ErrAlreadySubmitted
	case StateRunning:
	default:
		s.mu.Unlock()
		return Result{}, ErrNotRunning
	}
	s.state = StateSubmitting
	inflight := make(chan struct{})
	s.inflight = inflight
	qz := s.quiz
	answers := make([]int, len(s.answers))
	copy(answers, s.answers)
	s.mu.Unlock()

	sub := Submission{
		QuizID:      qz.ID,
		StudentID:   s.student.ID,
		StudentName: s.student.Name,
		Answers:     answers,
		Score:       Score(qz, answers),
		Status:      StatusSubmitted,
		SubmittedAt: time.Now().UTC(),
	}
	stored, err := s.submitter.SubmitQuiz(ctx, sub)

	s.mu.Lock()
	defer s.settle(inflight)
	switch {
	case err == nil:
	case errors.Is(err, ErrAlreadySubmitted):
		stored = sub
	default:
		if s.closing {
			s.state = StateClosed
		} else {
			s.state = StateRunning
		}
		s.mu.Unlock()
		s.toaster.Toast(fmt.Sprintf("Could not submit quiz: %v", err))
		return Result{}, err
	}

	res := ResultOf(qz, stored)
	s.stored = &stored
	s.result = &res
	s.state = StateSubmitted
	s.stop()
	s.mu.Unlock()

	switch {
	case err != nil:
		s.toaster.Toast("You have already submitted this quiz.")
	case trigger == TriggerTimeout:
		s.toaster.Toast("Time is up! Your answers were submitted.")
	}
	if err == nil && s.OnSubmitted != nil {
		s.OnSubmitted(stored)
	}
	return res, err
}

// settle wakes up the Wait callers of the submit that just finished.
func (s *Session) settle(inflight chan struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	close(inflight)
	if s.inflight == inflight {
		s.inflight = nil
	}
}

// Wait blocks until the submit in flight, if any, has settled.
func (s *Session) Wait(ctx context.Context) error {
	s.mu.Lock()
	inflight := s.inflight
	s.mu.Unlock()
	if inflight == nil {
		return nil
	}
	select {
	case <-inflight:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close cancels the countdown. A quiz closed before submitting is not recorded; a submit already
// in flight still completes.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stop()
	switch s.state {
	case StateSubmitted:
	case StateSubmitting:
		s.closing = true
	default:
		s.state = StateClosed
	}
}

func (s *Session) stop() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Remaining() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remaining
}

func (s *Session) Answers() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	answers := make([]int, len(s.answers))
	copy(answers, s.answers)
	return answers
}

func (s *Session) Quiz() Quiz {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.quiz
}

// Result returns the result once the quiz is submitted.
func (s *Session) Result() (Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result == nil {
		return Result{}, false
	}
	return *s.result, true
}

// Submission returns the stored submission once the quiz is submitted.
func (s *Session) Submission() (Submission, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stored == nil {
		return Submission{}, false
	}
	return *s.stored, true
}
