package models

import "time"

type ExamAttempt struct {
	ID        int64     `db:"id" json:"id"`
	StudentID int64     `db:"student_id" json:"student_id"`
	ExamID    int64     `db:"exam_id" json:"exam_id"`
	Score     float64   `db:"score" json:"score"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type Answer struct {
	ID            int64   `db:"id" json:"id"`
	QuestionID    int64   `db:"question_id" json:"question_id"`
	ExamAttemptID int64   `db:"exam_attempt_id" json:"exam_attempt_id"`
	OptionID      *int64  `db:"option_id" json:"option_id,omitempty"`
	MarkAwarded   float64 `db:"mark_awarded" json:"mark_awarded"`
}

// SubmittedAnswer is one entry of a student's answer sheet.
// OptionID is left nil by malformed payloads; that is graded, not rejected.
type SubmittedAnswer struct {
	QuestionID int64  `json:"question_id" validate:"required"`
	OptionID   *int64 `json:"option_id"`
}

type AttemptSummary struct {
	AttemptID int64     `db:"attempt_id" json:"attempt_id"`
	StudentID int64     `db:"student_id" json:"student_id"`
	Email     string    `db:"email" json:"email"`
	Score     float64   `db:"score" json:"score"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
