package models

import (
	"time"
)

const (
	ExamTypeExam = "exam"
	ExamTypeQuiz = "quiz"

	QuestionTypeMCQ = "mcq"
)

type Exam struct {
	ID          int64      `db:"id" json:"id"`
	UUID        string     `db:"uuid" json:"uuid"`
	SubjectID   int64      `db:"subject_id" json:"subject_id"`
	SemesterID  *int64     `db:"semester_id" json:"semester_id,omitempty"`
	Title       string     `db:"title" json:"title"`
	TotalMark   float64    `db:"total_mark" json:"total_mark"`
	PassingMark float64    `db:"passing_mark" json:"passing_mark"`
	TimeLimit   int        `db:"time_limit" json:"time_limit"`
	StartAt     *time.Time `db:"start_at" json:"start_at,omitempty"`
	EndAt       *time.Time `db:"end_at" json:"end_at,omitempty"`
	Announced   bool       `db:"announced" json:"announced"`
	ExamType    string     `db:"exam_type" json:"type"`
}

type Question struct {
	ID           int64  `db:"id" json:"id"`
	SubjectID    int64  `db:"subject_id" json:"subject_id"`
	Text         string `db:"text" json:"text"`
	QuestionType string `db:"question_type" json:"type"`
}

type Option struct {
	ID         int64  `db:"id" json:"option_id"`
	QuestionID int64  `db:"question_id" json:"-"`
	Text       string `db:"text" json:"text"`
	IsCorrect  bool   `db:"is_correct" json:"is_correct"`
}

// ExamQuestion weights a reusable question inside one exam.
type ExamQuestion struct {
	ExamID     int64   `db:"exam_id" json:"exam_id"`
	QuestionID int64   `db:"question_id" json:"question_id"`
	Mark       float64 `db:"mark" json:"mark"`
}

// ExamQuestionRow is a question joined with its per-exam mark.
type ExamQuestionRow struct {
	QuestionID   int64   `db:"question_id"`
	Text         string  `db:"text"`
	QuestionType string  `db:"question_type"`
	Mark         float64 `db:"mark"`
}

type SheetQuestion struct {
	QuestionID int64    `json:"question_id"`
	Text       string   `json:"text"`
	Type       string   `json:"type"`
	Mark       float64  `json:"mark"`
	Options    []Option `json:"options"`
}

// ExamSheet is an exam with everything needed to grade an attempt against it.
type ExamSheet struct {
	Exam
	Questions []SheetQuestion `json:"questions"`
}

// CorrectOption returns the first option flagged correct, or nil.
func (q SheetQuestion) CorrectOption() *Option {
	for i := range q.Options {
		if q.Options[i].IsCorrect {
			return &q.Options[i]
		}
	}
	return nil
}

func (q SheetQuestion) HasOption(id int64) bool {
	for _, o := range q.Options {
		if o.ID == id {
			return true
		}
	}
	return false
}
