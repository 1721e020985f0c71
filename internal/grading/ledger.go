package grading

import (
	"context"
	"fmt"
	"time"

	"github.com/shrimpsizemoose/gradebook/internal/metrics"
	"github.com/shrimpsizemoose/gradebook/internal/models"
	"github.com/shrimpsizemoose/gradebook/internal/store"
)

// Ledger resolves where a grade is filed and appends it.
type Ledger interface {
	CurrentAcademicYear(ctx context.Context, q store.Querier, now time.Time) (*models.AcademicYear, error)
	ResolveSemester(ctx context.Context, q store.Querier, year *models.AcademicYear, preferred *int64, now time.Time) (*models.Semester, error)
	ResolveArchive(ctx context.Context, q store.Querier, studentID int64, year *models.AcademicYear) (*models.Archive, error)
	AppendGrade(ctx context.Context, q store.Querier, grade *models.Grade) error
}

type ArchiveLedger struct {
	store store.GradeStore
}

func NewArchiveLedger(st store.GradeStore) *ArchiveLedger {
	return &ArchiveLedger{store: st}
}

func (l *ArchiveLedger) CurrentAcademicYear(ctx context.Context, q store.Querier, now time.Time) (*models.AcademicYear, error) {
	years, err := l.store.ListAcademicYears(ctx, q)
	if err != nil {
		return nil, err
	}
	year := models.CurrentAcademicYear(years, now)
	if year == nil {
		return nil, ErrNoAcademicYear
	}
	return year, nil
}

func (l *ArchiveLedger) ResolveSemester(ctx context.Context, q store.Querier, year *models.AcademicYear, preferred *int64, now time.Time) (*models.Semester, error) {
	semesters, err := l.store.ListSemesters(ctx, q, year.ID)
	if err != nil {
		return nil, err
	}
	semester := models.PickSemester(semesters, preferred, now)
	if semester == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoSemester, year.Name)
	}
	return semester, nil
}

// ResolveArchive returns the student's archive for the year, creating it with
// the year's full tuition outstanding when absent.
func (l *ArchiveLedger) ResolveArchive(ctx context.Context, q store.Querier, studentID int64, year *models.AcademicYear) (*models.Archive, error) {
	archive, err := l.store.GetArchive(ctx, q, studentID, year.ID)
	if err != nil {
		return nil, err
	}
	if archive != nil {
		return archive, nil
	}

	archive = &models.Archive{
		StudentID:        studentID,
		AcademicYearID:   year.ID,
		RemainingTuition: year.FullTuition,
	}
	if err := l.store.CreateArchiveIfAbsent(ctx, q, archive); err != nil {
		return nil, err
	}
	return archive, nil
}

// AppendGrade always inserts; earlier grades of the same subject and type stay in place.
func (l *ArchiveLedger) AppendGrade(ctx context.Context, q store.Querier, grade *models.Grade) error {
	if err := l.store.CreateGrade(ctx, q, grade); err != nil {
		return err
	}
	metrics.LedgerEntriesTotal.WithLabelValues(grade.Type).Inc()
	return nil
}
