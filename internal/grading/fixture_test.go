package grading

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/shrimpsizemoose/gradebook/internal/models"
	"github.com/shrimpsizemoose/gradebook/internal/scoring"
	"github.com/shrimpsizemoose/gradebook/internal/store/sqlite"
)

var fixedNow = time.Date(2024, 10, 15, 12, 0, 0, 0, time.UTC)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type fixture struct {
	ctx     context.Context
	st      *sqlite.SQLiteStore
	svc     *Service
	student *models.Student
	subject *models.Subject
	year    *models.AcademicYear
	fall    *models.Semester
	spring  *models.Semester
	exam    *models.Exam
	q1, q2  *models.Question
	o1a     *models.Option
	o1b     *models.Option
	o2a     *models.Option
	o2b     *models.Option
}

func newStore(t *testing.T) *sqlite.SQLiteStore {
	t.Helper()
	st, err := sqlite.NewSQLiteStore(":memory:", "../../migrations")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

// newFixture seeds one student, one subject and a two-question exam:
// Q1 is worth 5 with correct option o1a, Q2 is worth 10 with correct option o2a.
func newFixture(t *testing.T, withYear bool) *fixture {
	t.Helper()
	f := &fixture{ctx: context.Background(), st: newStore(t)}
	conn := f.st.Conn()

	f.student = &models.Student{Email: "ada@school.test", FirstName: "Ada", LastName: "Lovelace"}
	require.NoError(t, f.st.CreateStudent(f.ctx, conn, f.student))

	f.subject = &models.Subject{Name: "Mathematics"}
	require.NoError(t, f.st.CreateSubject(f.ctx, conn, f.subject))

	if withYear {
		f.year = &models.AcademicYear{
			Name:        "2024/2025",
			StartDate:   day(2024, 9, 1),
			EndDate:     day(2025, 6, 30),
			FullTuition: 1200,
		}
		require.NoError(t, f.st.CreateAcademicYear(f.ctx, conn, f.year))

		f.fall = &models.Semester{AcademicYearID: f.year.ID, Name: "Fall", StartDate: day(2024, 9, 1), EndDate: day(2024, 12, 31)}
		require.NoError(t, f.st.CreateSemester(f.ctx, conn, f.fall))
		f.spring = &models.Semester{AcademicYearID: f.year.ID, Name: "Spring", StartDate: day(2025, 1, 1), EndDate: day(2025, 6, 30)}
		require.NoError(t, f.st.CreateSemester(f.ctx, conn, f.spring))
	}

	f.exam = f.addExam(t, models.ExamTypeExam, nil)

	f.q1, f.o1a, f.o1b = f.addMCQ(t, f.exam.ID, "2 + 2", 5)
	f.q2, f.o2a, f.o2b = f.addMCQ(t, f.exam.ID, "3 * 3", 10)

	f.svc = NewService(f.st, scoring.NewRegistry(), NewExamAssembly(f.st), NewArchiveLedger(f.st)).
		WithClock(func() time.Time { return fixedNow })
	return f
}

func (f *fixture) addExam(t *testing.T, examType string, semesterID *int64) *models.Exam {
	t.Helper()
	exam := &models.Exam{
		SubjectID:   f.subject.ID,
		SemesterID:  semesterID,
		Title:       "Midterm",
		TotalMark:   15,
		PassingMark: 5,
		ExamType:    examType,
	}
	require.NoError(t, f.st.CreateExam(f.ctx, f.st.Conn(), exam))
	return exam
}

// addMCQ attaches a question with a correct first option and a wrong second one.
func (f *fixture) addMCQ(t *testing.T, examID int64, text string, mark float64) (*models.Question, *models.Option, *models.Option) {
	t.Helper()
	conn := f.st.Conn()

	q := &models.Question{SubjectID: f.subject.ID, Text: text}
	require.NoError(t, f.st.CreateQuestion(f.ctx, conn, q))

	right := &models.Option{QuestionID: q.ID, Text: "right", IsCorrect: true}
	require.NoError(t, f.st.CreateOption(f.ctx, conn, right))
	wrong := &models.Option{QuestionID: q.ID, Text: "wrong"}
	require.NoError(t, f.st.CreateOption(f.ctx, conn, wrong))

	require.NoError(t, f.st.AddExamQuestion(f.ctx, conn, models.ExamQuestion{ExamID: examID, QuestionID: q.ID, Mark: mark}))
	return q, right, wrong
}

func (f *fixture) count(t *testing.T, table string) int {
	t.Helper()
	var n int
	require.NoError(t, f.st.DB.Get(&n, "SELECT COUNT(*) FROM "+table))
	return n
}

func (f *fixture) submission(answers ...models.SubmittedAnswer) Submission {
	if answers == nil {
		answers = []models.SubmittedAnswer{}
	}
	return Submission{ExamID: f.exam.ID, Email: f.student.Email, Answers: answers}
}

func answer(questionID int64, optionID *int64) models.SubmittedAnswer {
	return models.SubmittedAnswer{QuestionID: questionID, OptionID: optionID}
}
