package grading

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shrimpsizemoose/gradebook/internal/models"
)

func newYear(t *testing.T, f *fixture) *models.AcademicYear {
	t.Helper()
	year := &models.AcademicYear{Name: "2024/2025", StartDate: day(2024, 9, 1), EndDate: day(2025, 6, 30)}
	require.NoError(t, f.st.CreateAcademicYear(f.ctx, f.st.Conn(), year))
	return year
}

func TestExamAssembly_LoadExam(t *testing.T) {
	f := newFixture(t, true)

	sheet, err := NewExamAssembly(f.st).LoadExam(f.ctx, f.st.Conn(), f.exam.ID)
	require.NoError(t, err)

	assert.Equal(t, f.exam.ID, sheet.ID)
	assert.Equal(t, f.exam.UUID, sheet.UUID)
	assert.Equal(t, 15.0, sheet.TotalMark)
	require.Len(t, sheet.Questions, 2)

	q1 := sheet.Questions[0]
	assert.Equal(t, f.q1.ID, q1.QuestionID)
	assert.Equal(t, 5.0, q1.Mark)
	require.Len(t, q1.Options, 2)
	require.NotNil(t, q1.CorrectOption())
	assert.Equal(t, f.o1a.ID, q1.CorrectOption().ID)
	assert.True(t, q1.HasOption(f.o1b.ID))
	assert.False(t, q1.HasOption(f.o2a.ID))
}

func TestExamAssembly_MarkIsPerExam(t *testing.T) {
	f := newFixture(t, true)

	retake := f.addExam(t, models.ExamTypeExam, nil)
	require.NoError(t, f.st.AddExamQuestion(f.ctx, f.st.Conn(), models.ExamQuestion{ExamID: retake.ID, QuestionID: f.q1.ID, Mark: 50}))

	sheet, err := NewExamAssembly(f.st).LoadExam(f.ctx, f.st.Conn(), retake.ID)
	require.NoError(t, err)
	require.Len(t, sheet.Questions, 1)
	assert.Equal(t, 50.0, sheet.Questions[0].Mark)
}

func TestExamAssembly_NotFound(t *testing.T) {
	f := newFixture(t, true)

	sheet, err := NewExamAssembly(f.st).LoadExam(f.ctx, f.st.Conn(), 404)
	assert.Nil(t, sheet)
	assert.ErrorIs(t, err, ErrExamNotFound)
}

func TestExamAssembly_EmptyExam(t *testing.T) {
	f := newFixture(t, true)
	empty := f.addExam(t, models.ExamTypeQuiz, nil)

	sheet, err := NewExamAssembly(f.st).LoadExam(f.ctx, f.st.Conn(), empty.ID)
	require.NoError(t, err)
	assert.Empty(t, sheet.Questions)
}
