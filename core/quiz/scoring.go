package quiz

import (
	"errors"
	"fmt"
)

// PointsPerCorrect is what each correctly answered question is worth.
const PointsPerCorrect = 10

var ErrAnswerCount = errors.New("answers do not match the quiz questions")

// Score counts the answers matching their question's correct index, times PointsPerCorrect.
// Unanswered questions never match, whatever the correct index is.
func Score(qz Quiz, answers []int) int {
	correct := 0
	for i, qn := range qz.Questions {
		if i >= len(answers) {
			break
		}
		if isCorrect(qn, answers[i]) {
			correct++
		}
	}
	return correct * PointsPerCorrect
}

// Grade is Score with the length invariant enforced.
func Grade(qz Quiz, answers []int) (int, error) {
	if len(answers) != len(qz.Questions) {
		return 0, fmt.Errorf("%w: got %d answers for %d questions", ErrAnswerCount, len(answers), len(qz.Questions))
	}
	return Score(qz, answers), nil
}

func isCorrect(qn Question, answer int) bool {
	return answer != Unanswered && answer == qn.CorrectIndex
}

type QuestionResult struct {
	Prompt    string   `json:"prompt"`
	Options   []string `json:"options"`
	Selected  int      `json:"selected"`
	Correct   int      `json:"correct"`
	IsCorrect bool     `json:"is_correct"`
}

// Result compares what a student selected with the correct options.
type Result struct {
	QuizID    string           `json:"quiz_id"`
	Score     int              `json:"score"`
	MaxScore  int              `json:"max_score"`
	Status    string           `json:"status"`
	Feedback  string           `json:"feedback,omitempty"`
	Questions []QuestionResult `json:"questions"`
}

// Evaluate scores `answers` question by question. Missing answers count as unanswered.
func Evaluate(qz Quiz, answers []int) Result {
	res := Result{
		QuizID:    qz.ID,
		MaxScore:  qz.MaxScore,
		Status:    StatusSubmitted,
		Questions: make([]QuestionResult, len(qz.Questions)),
	}
	if res.MaxScore == 0 {
		res.MaxScore = qz.PossibleScore()
	}
	for i, qn := range qz.Questions {
		selected := Unanswered
		if i < len(answers) {
			selected = answers[i]
		}
		res.Questions[i] = QuestionResult{
			Prompt:    qn.Prompt,
			Options:   qn.Options,
			Selected:  selected,
			Correct:   qn.CorrectIndex,
			IsCorrect: isCorrect(qn, selected),
		}
	}
	res.Score = Score(qz, answers)
	return res
}

// ResultOf is the Result of a stored submission: its score, status and feedback win over the
// local evaluation since a teacher may have overridden them.
func ResultOf(qz Quiz, sub Submission) Result {
	res := Evaluate(qz, sub.Answers)
	res.Score = sub.Score
	res.Status = sub.Status
	res.Feedback = sub.Feedback
	return res
}
