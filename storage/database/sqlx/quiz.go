package sqlxrepos

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/masomo-lms/core/quiz"
)

const (
	quizColumns       = `id, title, course_id, course_name, questions, duration, due_date, max_score, created_by, created_at`
	submissionColumns = `id, quiz_id, student_id, student_name, answers, score, status, feedback, submitted_at, graded_at`
)

type quizRepository struct {
	db *sqlx.DB
}

var _ quiz.Repository = (*quizRepository)(nil) // interface compliance check

func NewQuizRepository(db *sqlx.DB) *quizRepository {
	return &quizRepository{db: db}
}

type quizRow struct {
	ID         string    `db:"id"`
	Title      string    `db:"title"`
	CourseID   string    `db:"course_id"`
	CourseName string    `db:"course_name"`
	Questions  []byte    `db:"questions"` // JSONB
	Duration   int       `db:"duration"`
	DueDate    null.Time `db:"due_date"`
	MaxScore   int       `db:"max_score"`
	CreatedBy  string    `db:"created_by"`
	CreatedAt  time.Time `db:"created_at"`
}

func toQuizRow(qz quiz.Quiz) (quizRow, error) {
	questions, err := json.Marshal(qz.Questions)
	if err != nil {
		return quizRow{}, wrapErr(err, "encoding questions")
	}
	return quizRow{
		ID:         qz.ID,
		Title:      qz.Title,
		CourseID:   qz.CourseID,
		CourseName: qz.CourseName,
		Questions:  questions,
		Duration:   qz.Duration,
		DueDate:    null.NewTime(qz.DueDate.UTC(), !qz.DueDate.IsZero()),
		MaxScore:   qz.MaxScore,
		CreatedBy:  qz.CreatedBy,
		CreatedAt:  qz.CreatedAt.UTC(),
	}, nil
}

func (r quizRow) toQuiz() (quiz.Quiz, error) {
	var questions []quiz.Question
	if err := json.Unmarshal(r.Questions, &questions); err != nil {
		return quiz.Quiz{}, wrapErr(err, "decoding questions")
	}
	qz := quiz.Quiz{
		ID:         r.ID,
		Title:      r.Title,
		CourseID:   r.CourseID,
		CourseName: r.CourseName,
		Questions:  questions,
		Duration:   r.Duration,
		MaxScore:   r.MaxScore,
		CreatedBy:  r.CreatedBy,
		CreatedAt:  r.CreatedAt.UTC(),
	}
	if r.DueDate.Valid {
		qz.DueDate = r.DueDate.Time.UTC()
	}
	return qz, nil
}

type submissionRow struct {
	ID          string        `db:"id"`
	QuizID      string        `db:"quiz_id"`
	StudentID   string        `db:"student_id"`
	StudentName string        `db:"student_name"`
	Answers     pq.Int64Array `db:"answers"`
	Score       int           `db:"score"`
	Status      string        `db:"status"`
	Feedback    null.String   `db:"feedback"`
	SubmittedAt time.Time     `db:"submitted_at"`
	GradedAt    null.Time     `db:"graded_at"`
}

func toSubmissionRow(sub quiz.Submission) submissionRow {
	answers := make(pq.Int64Array, len(sub.Answers))
	for i, a := range sub.Answers {
		answers[i] = int64(a)
	}
	return submissionRow{
		ID:          sub.ID,
		QuizID:      sub.QuizID,
		StudentID:   sub.StudentID,
		StudentName: sub.StudentName,
		Answers:     answers,
		Score:       sub.Score,
		Status:      sub.Status,
		Feedback:    null.NewString(sub.Feedback, sub.Feedback != ""),
		SubmittedAt: sub.SubmittedAt.UTC(),
		GradedAt:    null.TimeFromPtr(sub.GradedAt),
	}
}

func (r submissionRow) toSubmission() quiz.Submission {
	answers := make([]int, len(r.Answers))
	for i, a := range r.Answers {
		answers[i] = int(a)
	}
	sub := quiz.Submission{
		ID:          r.ID,
		QuizID:      r.QuizID,
		StudentID:   r.StudentID,
		StudentName: r.StudentName,
		Answers:     answers,
		Score:       r.Score,
		Status:      r.Status,
		Feedback:    r.Feedback.String,
		SubmittedAt: r.SubmittedAt.UTC(),
	}
	if r.GradedAt.Valid {
		t := r.GradedAt.Time.UTC()
		sub.GradedAt = &t
	}
	return sub
}

func (repo *quizRepository) CreateQuiz(ctx context.Context, qz quiz.Quiz) (quiz.Quiz, error) {
	if qz.ID == "" {
		qz.ID = uuid.New().String()
	}
	row, err := toQuizRow(qz)
	if err != nil {
		return quiz.Quiz{}, err
	}
	_, err = repo.db.NamedExecContext(ctx,
		`INSERT INTO quiz (`+quizColumns+`)
		VALUES (:id, :title, :course_id, :course_name, :questions, :duration, :due_date, :max_score, :created_by, :created_at)`,
		row,
	)
	if err != nil {
		return quiz.Quiz{}, wrapErr(err, "inserting quiz")
	}
	return qz, nil
}

func (repo *quizRepository) GetQuiz(ctx context.Context, id string) (quiz.Quiz, error) {
	if _, err := uuid.Parse(id); err != nil {
		return quiz.Quiz{}, quiz.ErrNotFound
	}
	var row quizRow
	if err := repo.db.GetContext(ctx, &row, `SELECT `+quizColumns+` FROM quiz WHERE id = $1`, id); err != nil {
		return quiz.Quiz{}, trapNoRowsErr(err, quiz.ErrNotFound, "finding quiz")
	}
	return row.toQuiz()
}

func (repo *quizRepository) QueryQuizzes(ctx context.Context, filter quiz.QueryFilter) ([]quiz.Quiz, error) {
	var (
		where []string
		args  []interface{}
	)
	if filter.CourseIDs != nil {
		where = append(where, "course_id::text = ANY(?)")
		args = append(args, pq.StringArray(filter.CourseIDs))
	}
	if filter.CreatedBy != "" {
		where = append(where, "created_by::text = ?")
		args = append(args, filter.CreatedBy)
	}
	q := `SELECT ` + quizColumns + ` FROM quiz`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY created_at DESC, id ASC"

	var rows []quizRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), args...); err != nil {
		return nil, wrapErr(err, "querying quizzes")
	}
	quizzes := make([]quiz.Quiz, 0, len(rows))
	for _, r := range rows {
		qz, err := r.toQuiz()
		if err != nil {
			return nil, err
		}
		quizzes = append(quizzes, qz)
	}
	return quizzes, nil
}

func (repo *quizRepository) CreateSubmission(ctx context.Context, sub quiz.Submission) (quiz.Submission, error) {
	if sub.ID == "" {
		sub.ID = uuid.New().String()
	}
	_, err := repo.db.NamedExecContext(ctx,
		`INSERT INTO quiz_submission (`+submissionColumns+`)
		VALUES (:id, :quiz_id, :student_id, :student_name, :answers, :score, :status, :feedback, :submitted_at, :graded_at)`,
		toSubmissionRow(sub),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return quiz.Submission{}, quiz.ErrAlreadySubmitted
		}
		return quiz.Submission{}, wrapErr(err, "inserting submission")
	}
	return sub, nil
}

func (repo *quizRepository) GetSubmission(ctx context.Context, id string) (quiz.Submission, error) {
	if _, err := uuid.Parse(id); err != nil {
		return quiz.Submission{}, quiz.ErrSubmissionNotFound
	}
	var row submissionRow
	if err := repo.db.GetContext(ctx, &row, `SELECT `+submissionColumns+` FROM quiz_submission WHERE id = $1`, id); err != nil {
		return quiz.Submission{}, trapNoRowsErr(err, quiz.ErrSubmissionNotFound, "finding submission")
	}
	return row.toSubmission(), nil
}

func (repo *quizRepository) QuerySubmissions(ctx context.Context, filter quiz.SubmissionFilter) ([]quiz.Submission, error) {
	var (
		where []string
		args  []interface{}
	)
	if filter.QuizID != "" {
		where = append(where, "quiz_id::text = ?")
		args = append(args, filter.QuizID)
	}
	if filter.StudentID != "" {
		where = append(where, "student_id::text = ?")
		args = append(args, filter.StudentID)
	}
	q := `SELECT ` + submissionColumns + ` FROM quiz_submission`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY submitted_at ASC, id ASC"

	var rows []submissionRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), args...); err != nil {
		return nil, wrapErr(err, "querying submissions")
	}
	subs := make([]quiz.Submission, 0, len(rows))
	for _, r := range rows {
		subs = append(subs, r.toSubmission())
	}
	return subs, nil
}

func (repo *quizRepository) UpdateSubmission(ctx context.Context, sub quiz.Submission) (quiz.Submission, error) {
	res, err := repo.db.NamedExecContext(ctx,
		`UPDATE quiz_submission SET score = :score, status = :status, feedback = :feedback, graded_at = :graded_at
		WHERE id = :id`,
		toSubmissionRow(sub),
	)
	if err != nil {
		return quiz.Submission{}, wrapErr(err, "updating submission")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return quiz.Submission{}, quiz.ErrSubmissionNotFound
	}
	return sub, nil
}
