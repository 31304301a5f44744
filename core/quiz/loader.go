package quiz

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/trezcool/masomo-lms/core"
	"github.com/trezcool/masomo-lms/core/user"
)

type (
	// Source reads quizzes and submissions for the logged-in user.
	Source interface {
		MyCourseQuizzes(ctx context.Context) ([]Quiz, error)
		MySubmissions(ctx context.Context) ([]Submission, error)
		QuizSubmissions(ctx context.Context, quizID string) ([]Submission, error)
	}

	// QuizView is a quiz along with the submissions its viewer may see:
	// the student's own one, or every submission for the teacher who wrote it.
	QuizView struct {
		Quiz        Quiz
		Submission  *Submission
		Submissions []Submission
	}

	// Loader keeps the quizzes of the current user and their submissions.
	Loader struct {
		src    Source
		role   string
		logger core.Logger

		mu    sync.RWMutex
		views []QuizView
	}
)

func NewLoader(src Source, role string, logger core.Logger) *Loader {
	return &Loader{src: src, role: role, logger: logger}
}

// Load refreshes the state from the backend. On failure the last loaded state is kept and returned
// along with the error.
func (l *Loader) Load(ctx context.Context) ([]QuizView, error) {
	views, err := l.fetch(ctx)
	if err != nil {
		l.logger.Error(err.Error(), err)
		return l.Views(), err
	}

	l.mu.Lock()
	l.views = views
	l.mu.Unlock()
	return l.Views(), nil
}

func (l *Loader) fetch(ctx context.Context) ([]QuizView, error) {
	quizzes, err := l.src.MyCourseQuizzes(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "loading quizzes")
	}
	views := make([]QuizView, len(quizzes))
	for i, qz := range quizzes {
		views[i] = QuizView{Quiz: qz}
	}

	switch l.role {
	case user.TypeStudent:
		subs, err := l.src.MySubmissions(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "loading submissions")
		}
		byQuiz := make(map[string]Submission, len(subs))
		for _, sub := range subs {
			byQuiz[sub.QuizID] = sub
		}
		for i := range views {
			if sub, ok := byQuiz[views[i].Quiz.ID]; ok {
				sub := sub
				views[i].Submission = &sub
			}
		}
	case user.TypeTeacher, user.TypeAdmin:
		for i := range views {
			subs, err := l.src.QuizSubmissions(ctx, views[i].Quiz.ID)
			if err != nil {
				return nil, errors.Wrapf(err, "loading submissions of quiz %s", views[i].Quiz.ID)
			}
			views[i].Submissions = subs
		}
	}
	return views, nil
}

func (l *Loader) Views() []QuizView {
	l.mu.RLock()
	defer l.mu.RUnlock()
	views := make([]QuizView, len(l.views))
	copy(views, l.views)
	return views
}

func (l *Loader) View(quizID string) (QuizView, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, v := range l.views {
		if v.Quiz.ID == quizID {
			return v, true
		}
	}
	return QuizView{}, false
}

// Merge folds a freshly submitted or graded submission back into the loaded state.
func (l *Loader) Merge(sub Submission) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.views {
		v := &l.views[i]
		if v.Quiz.ID != sub.QuizID {
			continue
		}
		if l.role == user.TypeStudent {
			s := sub
			v.Submission = &s
			return
		}
		subs := make([]Submission, 0, len(v.Submissions)+1)
		replaced := false
		for _, s := range v.Submissions {
			if s.ID == sub.ID {
				s = sub
				replaced = true
			}
			subs = append(subs, s)
		}
		if !replaced {
			subs = append(subs, sub)
		}
		v.Submissions = subs
		return
	}
}
