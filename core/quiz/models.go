package quiz

import (
	"time"
)

// Submission statuses
const (
	StatusSubmitted = "submitted"
	StatusGraded    = "graded"
)

const (
	// NumOptions is the number of options every Question offers.
	NumOptions = 4
	// Unanswered marks a question the student left blank.
	Unanswered = -1
)

type Question struct {
	Prompt       string   `json:"prompt" validate:"required,notblank"`
	Options      []string `json:"options" validate:"options4"`
	CorrectIndex int      `json:"correct_index" validate:"min=0,max=3"`
}

type Quiz struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	CourseID   string     `json:"course_id"`
	CourseName string     `json:"course_name"`
	Questions  []Question `json:"questions"`
	Duration   int        `json:"duration"` // minutes
	DueDate    time.Time  `json:"due_date"`
	MaxScore   int        `json:"max_score"`
	CreatedBy  string     `json:"created_by"`
	CreatedAt  time.Time  `json:"created_at"`
}

// TimeBudget is how long a student has to answer the quiz.
func (q Quiz) TimeBudget() time.Duration {
	return time.Duration(q.Duration) * time.Minute
}

// PossibleScore is the best score a submission can get under the scoring rule.
func (q Quiz) PossibleScore() int {
	return len(q.Questions) * PointsPerCorrect
}

type Submission struct {
	ID          string     `json:"id"`
	QuizID      string     `json:"quiz_id"`
	StudentID   string     `json:"student_id"`
	StudentName string     `json:"student_name"`
	Answers     []int      `json:"answers"`
	Score       int        `json:"score"`
	Status      string     `json:"status"`
	Feedback    string     `json:"feedback,omitempty"`
	SubmittedAt time.Time  `json:"submitted_at"`
	GradedAt    *time.Time `json:"graded_at,omitempty"`
}

func (s Submission) IsGraded() bool { return s.Status == StatusGraded }

// NewQuiz contains information needed to create a Quiz.
type NewQuiz struct {
	Title     string     `json:"title" validate:"required,notblank"`
	CourseID  string     `json:"course_id" validate:"required"`
	Questions []Question `json:"questions" validate:"required,min=1,dive"`
	Duration  int        `json:"duration" validate:"required,min=1"`
	DueDate   time.Time  `json:"due_date"`
	MaxScore  int        `json:"max_score" validate:"min=0"`
}

// NewSubmission is what a student posts when submitting a quiz.
// Any client-side score is ignored: the backend scores the answers itself.
type NewSubmission struct {
	QuizID  string `json:"quiz_id" validate:"required"`
	Answers []int  `json:"answers" validate:"dive,min=-1,max=3"`
}

// GradeUpdate is a teacher's override of a submission's score and feedback.
type GradeUpdate struct {
	Score    *int   `json:"score" validate:"required"`
	Feedback string `json:"feedback"`
}

type QueryFilter struct {
	CourseIDs []string
	CreatedBy string
}

type SubmissionFilter struct {
	QuizID    string
	StudentID string
}
