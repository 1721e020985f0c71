package grading

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/gradebook/internal/metrics"
	"github.com/shrimpsizemoose/gradebook/internal/models"
	"github.com/shrimpsizemoose/gradebook/internal/scoring"
	"github.com/shrimpsizemoose/gradebook/internal/store"
)

// Submission is one student's answer sheet for an exam, addressed either by
// exam id or by the exam's public quiz uuid.
type Submission struct {
	ExamID   int64                    `json:"exam_id" validate:"required_without=QuizUUID"`
	QuizUUID string                   `json:"quiz" validate:"required_without=ExamID"`
	Email    string                   `json:"email" validate:"required"`
	Answers  []models.SubmittedAnswer `json:"answers" validate:"required,dive"`
}

type Outcome struct {
	AttemptID    int64            `json:"attempt_id"`
	ExamID       int64            `json:"exam_id"`
	ExamType     string           `json:"type"`
	TotalMark    float64          `json:"total_mark"`
	TotalScore   float64          `json:"totalScore"`
	PassingScore float64          `json:"passingScore"`
	Passed       bool             `json:"passed"`
	Results      []scoring.Result `json:"results"`
}

func (o *Outcome) CorrectAnswers() int {
	n := 0
	for _, r := range o.Results {
		if r.IsCorrect {
			n++
		}
	}
	return n
}

// ManualGrade is a teacher-entered ledger entry such as a worksheet or assignment score.
type ManualGrade struct {
	Email      string  `json:"email" validate:"required"`
	SubjectID  int64   `json:"subject_id" validate:"required"`
	SemesterID *int64  `json:"semester_id"`
	Type       string  `json:"type" validate:"required"`
	Grade      float64 `json:"grade" validate:"gte=0"`
	MinScore   float64 `json:"min_score" validate:"gte=0"`
	MaxScore   float64 `json:"max_score" validate:"gt=0"`
}

type Service struct {
	store   store.GradeStore
	graders *scoring.Registry
	exams   ExamAssembler
	ledger  Ledger
	now     func() time.Time
}

func NewService(st store.GradeStore, graders *scoring.Registry, exams ExamAssembler, ledger Ledger) *Service {
	return &Service{
		store:   st,
		graders: graders,
		exams:   exams,
		ledger:  ledger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the time source used for attempt timestamps and academic year resolution.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func missingFields(err error) error {
	fields := models.InvalidFields(err)
	if len(fields) == 0 {
		return fmt.Errorf("%w: %v", ErrMissingFields, err)
	}
	return fmt.Errorf("%w: %s", ErrMissingFields, strings.Join(fields, ", "))
}

// Grade scores a submission exactly once per student and exam. The attempt,
// its answers, the final score and the ledger entry commit together or not at all.
func (s *Service) Grade(ctx context.Context, sub Submission) (*Outcome, error) {
	if err := models.Validate(sub); err != nil {
		return nil, missingFields(err)
	}

	now := s.now()
	examType := "unknown"
	var (
		outcome  *Outcome
		conflict *models.ExamAttempt
	)

	err := s.store.InTx(ctx, func(tx store.Querier) error {
		student, err := s.store.GetStudentByEmail(ctx, tx, sub.Email)
		if err != nil {
			return err
		}
		if student == nil {
			return fmt.Errorf("%w: %s", ErrStudentNotFound, sub.Email)
		}

		sheet, err := s.loadSheet(ctx, tx, sub)
		if err != nil {
			return err
		}
		examType = sheet.ExamType

		prev, err := s.store.GetAttempt(ctx, tx, student.ID, sheet.ID)
		if err != nil {
			return err
		}
		if prev != nil {
			return &AlreadyTakenError{AttemptID: prev.ID, PreviousScore: prev.Score}
		}

		attempt := &models.ExamAttempt{
			StudentID: student.ID,
			ExamID:    sheet.ID,
			CreatedAt: now,
		}
		if err := s.store.CreateAttempt(ctx, tx, attempt); err != nil {
			if errors.Is(err, store.ErrConflict) {
				conflict = attempt
			}
			return err
		}
		logger.Debug.Printf("Created attempt %d for exam %d, student %s", attempt.ID, sheet.ID, sub.Email)

		outcome = &Outcome{
			AttemptID:    attempt.ID,
			ExamID:       sheet.ID,
			ExamType:     sheet.ExamType,
			TotalMark:    sheet.TotalMark,
			PassingScore: sheet.PassingMark,
			Results:      make([]scoring.Result, 0, len(sheet.Questions)),
		}

		submitted := make(map[int64]*models.SubmittedAnswer, len(sub.Answers))
		for i := range sub.Answers {
			submitted[sub.Answers[i].QuestionID] = &sub.Answers[i]
		}

		for _, q := range sheet.Questions {
			answer := submitted[q.QuestionID]
			res := s.gradeQuestion(q, answer, sheet.ID, sub.Email)
			outcome.Results = append(outcome.Results, res)
			outcome.TotalScore += res.MarkAwarded

			row := &models.Answer{
				QuestionID:    q.QuestionID,
				ExamAttemptID: attempt.ID,
				MarkAwarded:   res.MarkAwarded,
			}
			if answer != nil && answer.OptionID != nil && q.HasOption(*answer.OptionID) {
				row.OptionID = answer.OptionID
			}
			if err := s.store.CreateAnswer(ctx, tx, row); err != nil {
				return err
			}
		}

		if err := s.store.UpdateAttemptScore(ctx, tx, attempt.ID, outcome.TotalScore); err != nil {
			return err
		}
		outcome.Passed = outcome.TotalScore >= sheet.PassingMark

		year, err := s.ledger.CurrentAcademicYear(ctx, tx, now)
		if err != nil {
			return err
		}
		semester, err := s.ledger.ResolveSemester(ctx, tx, year, sheet.SemesterID, now)
		if err != nil {
			return err
		}
		archive, err := s.ledger.ResolveArchive(ctx, tx, student.ID, year)
		if err != nil {
			return err
		}
		logger.Debug.Printf("Filing exam %d under archive %d, semester %s", sheet.ID, archive.ID, semester.Name)

		return s.ledger.AppendGrade(ctx, tx, &models.Grade{
			ArchiveID:  archive.ID,
			SemesterID: semester.ID,
			SubjectID:  sheet.SubjectID,
			Type:       sheet.ExamType,
			Grade:      outcome.TotalScore,
			MinScore:   sheet.PassingMark,
			MaxScore:   sheet.TotalMark,
			CreatedAt:  now,
		})
	})

	if err != nil && conflict != nil {
		// lost the race to a concurrent submission; report the attempt that won
		prev, getErr := s.store.GetAttempt(ctx, s.store.Conn(), conflict.StudentID, conflict.ExamID)
		if getErr == nil && prev != nil {
			err = &AlreadyTakenError{AttemptID: prev.ID, PreviousScore: prev.Score}
		}
	}

	if err != nil {
		code := Code(err)
		metrics.GradingsTotal.WithLabelValues(examType, strings.ToLower(code)).Inc()
		if code == CodeInternal {
			logger.Error.Printf("Grading rolled back for exam %s, student %s: %v", submissionRef(sub), sub.Email, err)
		} else {
			logger.Info.Printf("Grading rejected for exam %s, student %s: %v", submissionRef(sub), sub.Email, err)
		}
		return nil, err
	}

	metrics.GradingsTotal.WithLabelValues(outcome.ExamType, "graded").Inc()
	metrics.ExamScoreHistogram.WithLabelValues(outcome.ExamType).Observe(scoring.Percentage(outcome.TotalScore, outcome.TotalMark))
	logger.Info.Printf("Graded attempt %d: exam %d, student %s, score %g/%g",
		outcome.AttemptID, outcome.ExamID, sub.Email, outcome.TotalScore, outcome.TotalMark)

	return outcome, nil
}

func submissionRef(sub Submission) string {
	if sub.ExamID != 0 {
		return fmt.Sprint(sub.ExamID)
	}
	return sub.QuizUUID
}

func (s *Service) loadSheet(ctx context.Context, tx store.Querier, sub Submission) (*models.ExamSheet, error) {
	examID := sub.ExamID
	if examID == 0 {
		exam, err := s.store.GetExamByUUID(ctx, tx, sub.QuizUUID)
		if err != nil {
			return nil, err
		}
		if exam == nil {
			return nil, fmt.Errorf("%w: quiz %s", ErrExamNotFound, sub.QuizUUID)
		}
		examID = exam.ID
	}
	return s.exams.LoadExam(ctx, tx, examID)
}

// gradeQuestion never fails: grader errors and panics become zero-mark results.
func (s *Service) gradeQuestion(q models.SheetQuestion, answer *models.SubmittedAnswer, examID int64, email string) (res scoring.Result) {
	defer func() {
		if p := recover(); p != nil {
			logger.Error.Printf("Grader panicked on exam %d, question %d, student %s: %v", examID, q.QuestionID, email, p)
			metrics.QuestionGradeErrors.WithLabelValues(q.Type).Inc()
			res = scoring.Result{
				QuestionID: q.QuestionID,
				Feedback:   scoring.FeedbackGradeError,
				Error:      fmt.Sprint(p),
			}
		}
	}()

	var err error
	res, err = s.graders.Grade(q, answer)
	if err != nil {
		logger.Error.Printf("Failed to grade exam %d, question %d, student %s: %v", examID, q.QuestionID, email, err)
		metrics.QuestionGradeErrors.WithLabelValues(q.Type).Inc()
	}
	return res
}

// ScorecardForStudent folds the student's current-year archive. A student
// without an archive yet gets an empty scorecard.
func (s *Service) ScorecardForStudent(ctx context.Context, email string) ([]scoring.SemesterCard, error) {
	if email == "" {
		return nil, fmt.Errorf("%w: email", ErrMissingFields)
	}
	conn := s.store.Conn()

	student, err := s.store.GetStudentByEmail(ctx, conn, email)
	if err != nil {
		return nil, err
	}
	if student == nil {
		return nil, fmt.Errorf("%w: %s", ErrStudentNotFound, email)
	}

	year, err := s.ledger.CurrentAcademicYear(ctx, conn, s.now())
	if err != nil {
		return nil, err
	}

	archive, err := s.store.GetArchive(ctx, conn, student.ID, year.ID)
	if err != nil {
		return nil, err
	}
	if archive == nil {
		return scoring.BuildScorecard(nil), nil
	}
	return s.scorecard(ctx, conn, archive.ID)
}

func (s *Service) ScorecardForArchive(ctx context.Context, archiveID int64) ([]scoring.SemesterCard, error) {
	conn := s.store.Conn()
	archive, err := s.store.GetArchiveByID(ctx, conn, archiveID)
	if err != nil {
		return nil, err
	}
	if archive == nil {
		return nil, fmt.Errorf("%w: id %d", ErrArchiveNotFound, archiveID)
	}
	return s.scorecard(ctx, conn, archive.ID)
}

func (s *Service) scorecard(ctx context.Context, q store.Querier, archiveID int64) ([]scoring.SemesterCard, error) {
	rows, err := s.store.ListArchiveGrades(ctx, q, archiveID)
	if err != nil {
		return nil, err
	}
	return scoring.BuildScorecard(rows), nil
}

// RecordGrade appends a manually entered grade to the student's current-year archive.
func (s *Service) RecordGrade(ctx context.Context, mg ManualGrade) (*models.Grade, error) {
	if err := models.Validate(mg); err != nil {
		return nil, missingFields(err)
	}

	now := s.now()
	var grade *models.Grade
	err := s.store.InTx(ctx, func(tx store.Querier) error {
		student, err := s.store.GetStudentByEmail(ctx, tx, mg.Email)
		if err != nil {
			return err
		}
		if student == nil {
			return fmt.Errorf("%w: %s", ErrStudentNotFound, mg.Email)
		}

		year, err := s.ledger.CurrentAcademicYear(ctx, tx, now)
		if err != nil {
			return err
		}
		semester, err := s.ledger.ResolveSemester(ctx, tx, year, mg.SemesterID, now)
		if err != nil {
			return err
		}
		archive, err := s.ledger.ResolveArchive(ctx, tx, student.ID, year)
		if err != nil {
			return err
		}

		grade = &models.Grade{
			ArchiveID:  archive.ID,
			SemesterID: semester.ID,
			SubjectID:  mg.SubjectID,
			Type:       mg.Type,
			Grade:      mg.Grade,
			MinScore:   mg.MinScore,
			MaxScore:   mg.MaxScore,
			CreatedAt:  now,
		}
		return s.ledger.AppendGrade(ctx, tx, grade)
	})
	if err != nil {
		if Code(err) == CodeInternal {
			logger.Error.Printf("Failed to record %s grade for %s: %v", mg.Type, mg.Email, err)
		}
		return nil, err
	}
	return grade, nil
}

func (s *Service) ListAttempts(ctx context.Context, examID int64) ([]models.AttemptSummary, error) {
	conn := s.store.Conn()
	exam, err := s.store.GetExam(ctx, conn, examID)
	if err != nil {
		return nil, err
	}
	if exam == nil {
		return nil, fmt.Errorf("%w: id %d", ErrExamNotFound, examID)
	}

	attempts, err := s.store.ListAttempts(ctx, conn, examID)
	if err != nil {
		return nil, err
	}
	if attempts == nil {
		attempts = []models.AttemptSummary{}
	}
	return attempts, nil
}
