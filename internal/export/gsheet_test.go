package export

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/shrimpsizemoose/gradebook/internal/app"
	"github.com/shrimpsizemoose/gradebook/internal/grading"
	"github.com/shrimpsizemoose/gradebook/internal/models"
	"github.com/shrimpsizemoose/gradebook/internal/scoring"
	"github.com/shrimpsizemoose/gradebook/internal/store/sqlite"
)

type MockWriter struct {
	mock.Mock
}

func (m *MockWriter) Write(ctx context.Context, sheet app.SheetConfig, rows [][]interface{}) error {
	args := m.Called(ctx, sheet, rows)
	return args.Error(0)
}

var now = time.Date(2024, 11, 5, 10, 0, 0, 0, time.UTC)

func setupExporter(t *testing.T, writer SheetWriter) *GSheetExporter {
	t.Helper()
	ctx := context.Background()

	st, err := sqlite.NewSQLiteStore(":memory:", "../../migrations")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	conn := st.Conn()

	year := &models.AcademicYear{Name: "2024/2025", StartDate: time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC), EndDate: time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)}
	require.NoError(t, st.CreateAcademicYear(ctx, conn, year))
	require.NoError(t, st.CreateSemester(ctx, conn, &models.Semester{AcademicYearID: year.ID, Name: "Fall", StartDate: year.StartDate, EndDate: time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)}))

	math := &models.Subject{Name: "Mathematics"}
	require.NoError(t, st.CreateSubject(ctx, conn, math))
	for _, email := range []string{"ada@school.test", "bob@school.test"} {
		require.NoError(t, st.CreateStudent(ctx, conn, &models.Student{Email: email}))
	}

	cfg, err := app.ParseConfig([]byte("[server]\nport = \":0\"\n"))
	require.NoError(t, err)
	cfg.Export.Schedule = "0 * * * *"
	cfg.Export.Sheets = []app.SheetConfig{{SheetID: "sheet-1", SheetName: "Scores", Range: "A1:F"}}

	svc := grading.NewService(st, scoring.NewRegistry(), grading.NewExamAssembly(st), grading.NewArchiveLedger(st)).
		WithClock(func() time.Time { return now })
	for _, g := range []grading.ManualGrade{
		{Email: "ada@school.test", SubjectID: math.ID, Type: "worksheet", Grade: 6, MaxScore: 10},
		{Email: "ada@school.test", SubjectID: math.ID, Type: "exam", Grade: 10, MaxScore: 20},
		{Email: "bob@school.test", SubjectID: math.ID, Type: "worksheet", Grade: 9, MaxScore: 10},
	} {
		_, err := svc.RecordGrade(ctx, g)
		require.NoError(t, err)
	}

	e := newExporter(cfg, st, svc, writer)
	e.now = func() time.Time { return now }
	return e
}

func TestRows(t *testing.T) {
	e := setupExporter(t, &MockWriter{})

	rows, err := e.Rows(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, headerRow, rows[0])
	assert.Equal(t, []interface{}{"ada@school.test", "Fall", "Mathematics", 8.0, 2, 16.0}, rows[1])
	assert.Equal(t, []interface{}{"bob@school.test", "Fall", "Mathematics", 9.0, 1, 9.0}, rows[2])
}

func TestExport_WritesEverySheet(t *testing.T) {
	writer := &MockWriter{}
	e := setupExporter(t, writer)
	e.config.Export.Sheets = append(e.config.Export.Sheets, app.SheetConfig{SheetID: "sheet-2", SheetName: "Archive", Range: "B2:G"})

	writer.On("Write", mock.Anything, mock.Anything, mock.MatchedBy(func(rows [][]interface{}) bool {
		return len(rows) == 3
	})).Return(nil).Twice()

	require.NoError(t, e.Export(context.Background()))
	writer.AssertExpectations(t)
}

func TestRows_NoGrades(t *testing.T) {
	e := setupExporter(t, &MockWriter{})

	_, err := e.store.Conn().ExecContext(context.Background(), "DELETE FROM grades")
	require.NoError(t, err)

	rows, err := e.Rows(context.Background())
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestSchedule(t *testing.T) {
	e := setupExporter(t, &MockWriter{})
	require.NoError(t, e.schedule())
	assert.Len(t, e.scheduler.Jobs(), 1)

	e.config.Export.Sheets = nil
	assert.Error(t, e.schedule())
}
