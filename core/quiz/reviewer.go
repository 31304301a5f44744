package quiz

import (
	"context"
	"errors"
)

var (
	ErrScoreRequired = errors.New("score is required")
	ErrNothingLoaded = errors.New("no submission loaded")
)

type (
	// Grader reads and grades submissions on behalf of a teacher.
	Grader interface {
		GetSubmission(ctx context.Context, id string) (Submission, error)
		GradeSubmission(ctx context.Context, id string, gu GradeUpdate) (Submission, error)
	}

	// GradeForm holds the current grade of a submission.
	GradeForm struct {
		SubmissionID string
		StudentName  string
		Answers      []int
		Score        int
		Feedback     string
		Status       string
	}

	// Reviewer lets a teacher override the score and feedback of one submission at a time.
	Reviewer struct {
		grader Grader
		loaded *Submission

		// OnSaved is called with the graded submission after a successful save.
		OnSaved func(Submission)
	}
)

func NewReviewer(grader Grader) *Reviewer {
	return &Reviewer{grader: grader}
}

func (r *Reviewer) Load(ctx context.Context, id string) (GradeForm, error) {
	sub, err := r.grader.GetSubmission(ctx, id)
	if err != nil {
		return GradeForm{}, err
	}
	r.loaded = &sub
	return formOf(sub), nil
}

// Save sends the new grade. The score must be present but is not bounded by the quiz max score.
func (r *Reviewer) Save(ctx context.Context, score *int, feedback string) (GradeForm, error) {
	if r.loaded == nil {
		return GradeForm{}, ErrNothingLoaded
	}
	if score == nil {
		return GradeForm{}, ErrScoreRequired
	}
	sub, err := r.grader.GradeSubmission(ctx, r.loaded.ID, GradeUpdate{Score: score, Feedback: feedback})
	if err != nil {
		return GradeForm{}, err
	}
	r.loaded = &sub
	if r.OnSaved != nil {
		r.OnSaved(sub)
	}
	return formOf(sub), nil
}

func formOf(sub Submission) GradeForm {
	return GradeForm{
		SubmissionID: sub.ID,
		StudentName:  sub.StudentName,
		Answers:      sub.Answers,
		Score:        sub.Score,
		Feedback:     sub.Feedback,
		Status:       sub.Status,
	}
}
