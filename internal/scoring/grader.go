package scoring

import (
	"errors"
	"fmt"

	"github.com/shrimpsizemoose/gradebook/internal/models"
)

const (
	FeedbackCorrect    = "Correct answer"
	FeedbackIncorrect  = "Incorrect answer"
	FeedbackNoAnswer   = "No answer provided"
	FeedbackManual     = "Awaiting manual grading"
	FeedbackGradeError = "Answer could not be graded"
)

var (
	ErrMissingOption   = errors.New("answer has no option selected")
	ErrNoCorrectOption = errors.New("question has no option marked correct")
	ErrForeignOption   = errors.New("selected option does not belong to the question")
)

// Result is the outcome of grading one question of an attempt.
type Result struct {
	QuestionID  int64   `json:"question_id"`
	OptionID    *int64  `json:"option_id,omitempty"`
	IsCorrect   bool    `json:"is_correct"`
	MarkAwarded float64 `json:"mark_awarded"`
	Feedback    string  `json:"feedback"`
	Error       string  `json:"error,omitempty"`
}

// Grader scores a submitted answer for one question type.
// answer is never nil; missing answers are handled by the Registry.
type Grader interface {
	Grade(q models.SheetQuestion, answer models.SubmittedAnswer) (Result, error)
}

type GraderFunc func(q models.SheetQuestion, answer models.SubmittedAnswer) (Result, error)

func (f GraderFunc) Grade(q models.SheetQuestion, answer models.SubmittedAnswer) (Result, error) {
	return f(q, answer)
}

// MCQGrader awards the question's per-exam mark when the selected option is the correct one.
type MCQGrader struct{}

func (MCQGrader) Grade(q models.SheetQuestion, answer models.SubmittedAnswer) (Result, error) {
	res := Result{QuestionID: q.QuestionID, OptionID: answer.OptionID}
	if answer.OptionID == nil {
		return res, ErrMissingOption
	}

	correct := q.CorrectOption()
	if correct == nil {
		return res, ErrNoCorrectOption
	}
	if !q.HasOption(*answer.OptionID) {
		res.Feedback = FeedbackIncorrect
		return res, ErrForeignOption
	}

	if *answer.OptionID == correct.ID {
		res.IsCorrect = true
		res.MarkAwarded = q.Mark
		res.Feedback = FeedbackCorrect
		return res, nil
	}

	res.Feedback = FeedbackIncorrect
	return res, nil
}

// ManualGrader parks answers of types that need a teacher to score them.
type ManualGrader struct{}

func (ManualGrader) Grade(q models.SheetQuestion, answer models.SubmittedAnswer) (Result, error) {
	return Result{
		QuestionID: q.QuestionID,
		OptionID:   answer.OptionID,
		Feedback:   FeedbackManual,
	}, nil
}

// Registry routes questions to graders by question type.
type Registry struct {
	graders map[string]Grader
}

// NewRegistry installs the MCQ grader; other types are unsupported until registered.
func NewRegistry() *Registry {
	return &Registry{
		graders: map[string]Grader{
			models.QuestionTypeMCQ: MCQGrader{},
		},
	}
}

func (r *Registry) Register(questionType string, g Grader) {
	r.graders[questionType] = g
}

// Grade scores one question. A nil answer is a zero-mark result, not an error.
// Errors come from the type's grader and always travel with a usable zero-mark result.
func (r *Registry) Grade(q models.SheetQuestion, answer *models.SubmittedAnswer) (Result, error) {
	if answer == nil {
		return Result{QuestionID: q.QuestionID, Feedback: FeedbackNoAnswer}, nil
	}

	g, ok := r.graders[q.Type]
	if !ok {
		return Result{
			QuestionID: q.QuestionID,
			OptionID:   answer.OptionID,
			Feedback:   fmt.Sprintf("Question type %q cannot be auto-graded", q.Type),
		}, nil
	}

	res, err := g.Grade(q, *answer)
	res.QuestionID = q.QuestionID
	if err != nil {
		res.IsCorrect = false
		res.MarkAwarded = 0
		res.Error = err.Error()
		if res.Feedback == "" {
			res.Feedback = FeedbackGradeError
		}
		return res, err
	}
	return res, nil
}
