package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/masomo-lms/core/quiz"
)

type quizRepository struct {
	db *quizTable
}

var _ quiz.Repository = (*quizRepository)(nil) // interface compliance check

func NewQuizRepository(db *DB) *quizRepository {
	return &quizRepository{db: db.quiz}
}

func copyQuiz(qz quiz.Quiz) quiz.Quiz {
	questions := make([]quiz.Question, len(qz.Questions))
	for i, qn := range qz.Questions {
		opts := make([]string, len(qn.Options))
		copy(opts, qn.Options)
		qn.Options = opts
		questions[i] = qn
	}
	qz.Questions = questions
	return qz
}

func copySubmission(sub quiz.Submission) quiz.Submission {
	answers := make([]int, len(sub.Answers))
	copy(answers, sub.Answers)
	sub.Answers = answers
	if sub.GradedAt != nil {
		t := *sub.GradedAt
		sub.GradedAt = &t
	}
	return sub
}

func (repo *quizRepository) CreateQuiz(_ context.Context, qz quiz.Quiz) (quiz.Quiz, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if qz.ID == "" {
		qz.ID = newID()
	}
	stored := copyQuiz(qz)
	repo.db.table[qz.ID] = &stored
	return copyQuiz(stored), nil
}

func (repo *quizRepository) GetQuiz(_ context.Context, id string) (quiz.Quiz, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if qz, ok := repo.db.table[id]; ok {
		return copyQuiz(*qz), nil
	}
	return quiz.Quiz{}, quiz.ErrNotFound
}

func (repo *quizRepository) QueryQuizzes(_ context.Context, filter quiz.QueryFilter) ([]quiz.Quiz, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	quizzes := make([]quiz.Quiz, 0)
	for _, qz := range repo.db.table {
		if filter.CourseIDs != nil && !containsStr(filter.CourseIDs, qz.CourseID) {
			continue
		}
		if filter.CreatedBy != "" && qz.CreatedBy != filter.CreatedBy {
			continue
		}
		quizzes = append(quizzes, copyQuiz(*qz))
	}
	sort.Slice(quizzes, func(i, j int) bool {
		if c := compareTime(quizzes[i].CreatedAt, quizzes[j].CreatedAt); c != 0 {
			return c > 0
		}
		return quizzes[i].ID < quizzes[j].ID
	})
	return quizzes, nil
}

func (repo *quizRepository) CreateSubmission(_ context.Context, sub quiz.Submission) (quiz.Submission, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, s := range repo.db.submissions {
		if s.QuizID == sub.QuizID && s.StudentID == sub.StudentID {
			return quiz.Submission{}, quiz.ErrAlreadySubmitted
		}
	}
	if sub.ID == "" {
		sub.ID = newID()
	}
	stored := copySubmission(sub)
	repo.db.submissions[sub.ID] = &stored
	return copySubmission(stored), nil
}

func (repo *quizRepository) GetSubmission(_ context.Context, id string) (quiz.Submission, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if sub, ok := repo.db.submissions[id]; ok {
		return copySubmission(*sub), nil
	}
	return quiz.Submission{}, quiz.ErrSubmissionNotFound
}

func (repo *quizRepository) QuerySubmissions(_ context.Context, filter quiz.SubmissionFilter) ([]quiz.Submission, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	subs := make([]quiz.Submission, 0)
	for _, sub := range repo.db.submissions {
		if filter.QuizID != "" && sub.QuizID != filter.QuizID {
			continue
		}
		if filter.StudentID != "" && sub.StudentID != filter.StudentID {
			continue
		}
		subs = append(subs, copySubmission(*sub))
	}
	sort.Slice(subs, func(i, j int) bool {
		if c := compareTime(subs[i].SubmittedAt, subs[j].SubmittedAt); c != 0 {
			return c < 0
		}
		return subs[i].ID < subs[j].ID
	})
	return subs, nil
}

func (repo *quizRepository) UpdateSubmission(_ context.Context, sub quiz.Submission) (quiz.Submission, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.submissions[sub.ID]; !ok {
		return quiz.Submission{}, quiz.ErrSubmissionNotFound
	}
	stored := copySubmission(sub)
	repo.db.submissions[sub.ID] = &stored
	return copySubmission(stored), nil
}
