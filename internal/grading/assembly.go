package grading

import (
	"context"
	"fmt"

	"github.com/shrimpsizemoose/gradebook/internal/models"
	"github.com/shrimpsizemoose/gradebook/internal/store"
)

// ExamAssembler loads everything needed to grade an attempt against an exam.
type ExamAssembler interface {
	LoadExam(ctx context.Context, q store.Querier, examID int64) (*models.ExamSheet, error)
}

type ExamAssembly struct {
	store store.GradeStore
}

func NewExamAssembly(st store.GradeStore) *ExamAssembly {
	return &ExamAssembly{store: st}
}

// LoadExam returns the exam with every attached question, its options and its per-exam mark.
func (a *ExamAssembly) LoadExam(ctx context.Context, q store.Querier, examID int64) (*models.ExamSheet, error) {
	exam, err := a.store.GetExam(ctx, q, examID)
	if err != nil {
		return nil, err
	}
	if exam == nil {
		return nil, fmt.Errorf("%w: id %d", ErrExamNotFound, examID)
	}

	rows, err := a.store.ListExamQuestions(ctx, q, examID)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.QuestionID)
	}

	options, err := a.store.ListOptions(ctx, q, ids)
	if err != nil {
		return nil, err
	}
	byQuestion := make(map[int64][]models.Option, len(rows))
	for _, o := range options {
		byQuestion[o.QuestionID] = append(byQuestion[o.QuestionID], o)
	}

	sheet := &models.ExamSheet{
		Exam:      *exam,
		Questions: make([]models.SheetQuestion, 0, len(rows)),
	}
	for _, r := range rows {
		sheet.Questions = append(sheet.Questions, models.SheetQuestion{
			QuestionID: r.QuestionID,
			Text:       r.Text,
			Type:       r.QuestionType,
			Mark:       r.Mark,
			Options:    byQuestion[r.QuestionID],
		})
	}

	return sheet, nil
}
