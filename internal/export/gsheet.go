package export

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/shrimpsizemoose/trekker/logger"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/shrimpsizemoose/gradebook/internal/app"
	"github.com/shrimpsizemoose/gradebook/internal/models"
	"github.com/shrimpsizemoose/gradebook/internal/scoring"
	"github.com/shrimpsizemoose/gradebook/internal/store"
)

var headerRow = []interface{}{"email", "semester", "subject", "subjectAverage", "totalAssignments", "totalScore"}

type ScorecardSource interface {
	ScorecardForArchive(ctx context.Context, archiveID int64) ([]scoring.SemesterCard, error)
}

// SheetWriter replaces the values of one configured sheet range.
type SheetWriter interface {
	Write(ctx context.Context, sheet app.SheetConfig, rows [][]interface{}) error
}

type sheetsWriter struct {
	svc *sheets.Service
}

func (w *sheetsWriter) Write(ctx context.Context, sheet app.SheetConfig, rows [][]interface{}) error {
	updateRange := fmt.Sprintf("%s!%s", sheet.SheetName, sheet.Range)
	if _, err := w.svc.Spreadsheets.Values.Clear(sheet.SheetID, updateRange, &sheets.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to clear %s: %w", updateRange, err)
	}
	_, err := w.svc.Spreadsheets.Values.Update(sheet.SheetID, updateRange,
		&sheets.ValueRange{Values: rows}).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", updateRange, err)
	}
	return nil
}

type GSheetExporter struct {
	config     *app.Config
	store      store.GradeStore
	scorecards ScorecardSource
	writer     SheetWriter
	scheduler  *gocron.Scheduler
	now        func() time.Time
}

func NewGSheetExporter(config *app.Config, store store.GradeStore, scorecards ScorecardSource) (*GSheetExporter, error) {
	svc, err := sheets.NewService(context.Background(), option.WithCredentialsFile(config.Export.CredentialsPath))
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	exporter := newExporter(config, store, scorecards, &sheetsWriter{svc: svc})
	if err := exporter.schedule(); err != nil {
		return nil, err
	}
	return exporter, nil
}

func newExporter(config *app.Config, store store.GradeStore, scorecards ScorecardSource, writer SheetWriter) *GSheetExporter {
	return &GSheetExporter{
		config:     config,
		store:      store,
		scorecards: scorecards,
		writer:     writer,
		scheduler:  gocron.NewScheduler(time.UTC),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (e *GSheetExporter) schedule() error {
	if len(e.config.Export.Sheets) == 0 {
		return fmt.Errorf("no export sheets configured")
	}

	e.scheduler.SingletonModeAll()
	_, err := e.scheduler.Cron(e.config.Export.Schedule).Do(func() {
		if err := e.Export(context.Background()); err != nil {
			logger.Error.Printf("Export failed: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule export: %w", err)
	}
	return nil
}

func (e *GSheetExporter) Start() {
	e.scheduler.StartAsync()
}

func (e *GSheetExporter) Stop() {
	e.scheduler.Stop()
}

// Rows flattens every current-year archive into one row per (semester, subject).
func (e *GSheetExporter) Rows(ctx context.Context) ([][]interface{}, error) {
	conn := e.store.Conn()

	years, err := e.store.ListAcademicYears(ctx, conn)
	if err != nil {
		return nil, err
	}
	year := models.CurrentAcademicYear(years, e.now())
	if year == nil {
		return nil, fmt.Errorf("no academic year configured")
	}

	archives, err := e.store.ListArchives(ctx, conn, year.ID)
	if err != nil {
		return nil, err
	}

	rows := [][]interface{}{headerRow}
	for _, archive := range archives {
		cards, err := e.scorecards.ScorecardForArchive(ctx, archive.ArchiveID)
		if err != nil {
			return nil, fmt.Errorf("scorecard for %s: %w", archive.Email, err)
		}
		for _, sem := range cards {
			for _, sub := range sem.Subjects {
				rows = append(rows, []interface{}{
					archive.Email,
					sem.SemesterName,
					sub.SubjectName,
					sub.SubjectAverage,
					sub.TotalAssignments,
					sub.TotalScore,
				})
			}
		}
	}
	return rows, nil
}

func (e *GSheetExporter) Export(ctx context.Context) error {
	rows, err := e.Rows(ctx)
	if err != nil {
		return err
	}

	for _, sheet := range e.config.Export.Sheets {
		if err := e.writer.Write(ctx, sheet, rows); err != nil {
			return err
		}
		logger.Info.Printf("Exported %d scorecard rows to %s/%s", len(rows)-1, sheet.SheetID, sheet.SheetName)
	}
	return nil
}
