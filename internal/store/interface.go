package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/gradebook/internal/models"
)

type GradeStore interface {
	Close() error
	ApplyMigrations(dir string) error

	Conn() Querier
	InTx(ctx context.Context, fn func(tx Querier) error) error

	CreateStudent(ctx context.Context, q Querier, student *models.Student) error
	GetStudentByEmail(ctx context.Context, q Querier, email string) (*models.Student, error)
	CreateSubject(ctx context.Context, q Querier, subject *models.Subject) error

	CreateExam(ctx context.Context, q Querier, exam *models.Exam) error
	GetExam(ctx context.Context, q Querier, id int64) (*models.Exam, error)
	GetExamByUUID(ctx context.Context, q Querier, examUUID string) (*models.Exam, error)
	CreateQuestion(ctx context.Context, q Querier, question *models.Question) error
	CreateOption(ctx context.Context, q Querier, option *models.Option) error
	AddExamQuestion(ctx context.Context, q Querier, eq models.ExamQuestion) error
	ListExamQuestions(ctx context.Context, q Querier, examID int64) ([]models.ExamQuestionRow, error)
	ListOptions(ctx context.Context, q Querier, questionIDs []int64) ([]models.Option, error)

	GetAttempt(ctx context.Context, q Querier, studentID, examID int64) (*models.ExamAttempt, error)
	CreateAttempt(ctx context.Context, q Querier, attempt *models.ExamAttempt) error
	UpdateAttemptScore(ctx context.Context, q Querier, attemptID int64, score float64) error
	CreateAnswer(ctx context.Context, q Querier, answer *models.Answer) error
	ListAttempts(ctx context.Context, q Querier, examID int64) ([]models.AttemptSummary, error)

	CreateAcademicYear(ctx context.Context, q Querier, year *models.AcademicYear) error
	ListAcademicYears(ctx context.Context, q Querier) ([]models.AcademicYear, error)
	CreateSemester(ctx context.Context, q Querier, semester *models.Semester) error
	ListSemesters(ctx context.Context, q Querier, academicYearID int64) ([]models.Semester, error)

	GetArchive(ctx context.Context, q Querier, studentID, academicYearID int64) (*models.Archive, error)
	GetArchiveByID(ctx context.Context, q Querier, id int64) (*models.Archive, error)
	CreateArchiveIfAbsent(ctx context.Context, q Querier, archive *models.Archive) error
	ListArchives(ctx context.Context, q Querier, academicYearID int64) ([]models.ArchiveSummary, error)
	CreateGrade(ctx context.Context, q Querier, grade *models.Grade) error
	ListArchiveGrades(ctx context.Context, q Querier, archiveID int64) ([]models.GradeRow, error)
}

// BaseStore provides common functionality for different DB implementations
type BaseStore struct {
	DB                *sqlx.DB
	Converter         func(string) string
	IsUniqueViolation func(error) bool
}

func (s *BaseStore) Close() error {
	if s.DB != nil {
		return s.DB.Close()
	}
	return nil
}

// ApplyMigrations applies SQL migrations from a directory, translating dialect if needed
func (s *BaseStore) ApplyMigrations(dir string, translateSQL func(string) string) error {
	files, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	for _, file := range files {
		if !strings.HasSuffix(file.Name(), ".sql") {
			continue
		}

		content, err := os.ReadFile(fmt.Sprintf("%s/%s", dir, file.Name()))
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", file.Name(), err)
		}

		sql := string(content)
		if translateSQL != nil {
			sql = translateSQL(sql)
		}

		logger.Debug.Printf("Applying migration: %s", file.Name())
		if _, err := s.DB.Exec(sql); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", file.Name(), err)
		}
	}

	return nil
}

func (s *BaseStore) Conn() Querier {
	return s.DB
}

// InTx runs fn inside one transaction. Any error from fn rolls everything back.
func (s *BaseStore) InTx(ctx context.Context, fn func(tx Querier) error) error {
	tx, err := s.DB.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error.Printf("Failed to roll back transaction: %v", rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *BaseStore) wrap(err error, action string) error {
	if s.IsUniqueViolation != nil && s.IsUniqueViolation(err) {
		return fmt.Errorf("failed to %s: %w", action, ErrConflict)
	}
	return fmt.Errorf("failed to %s: %w", action, err)
}

func (s *BaseStore) insertReturningID(ctx context.Context, q Querier, action, query string, args ...interface{}) (int64, error) {
	var id int64
	if err := q.QueryRowxContext(ctx, s.Converter(query), args...).Scan(&id); err != nil {
		return 0, s.wrap(err, action)
	}
	return id, nil
}

func (s *BaseStore) CreateStudent(ctx context.Context, q Querier, student *models.Student) error {
	id, err := s.insertReturningID(ctx, q, "create student", `
		INSERT INTO students (email, first_name, last_name)
		VALUES (?, ?, ?)
		RETURNING id
	`, student.Email, student.FirstName, student.LastName)
	if err != nil {
		return err
	}
	student.ID = id
	return nil
}

func (s *BaseStore) GetStudentByEmail(ctx context.Context, q Querier, email string) (*models.Student, error) {
	var student models.Student
	query := s.Converter(`
		SELECT id, email, first_name, last_name
		FROM students
		WHERE email = ?
	`)

	err := sqlx.GetContext(ctx, q, &student, query, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get student: %w", err)
	}
	return &student, nil
}

func (s *BaseStore) CreateSubject(ctx context.Context, q Querier, subject *models.Subject) error {
	id, err := s.insertReturningID(ctx, q, "create subject",
		`INSERT INTO subjects (name) VALUES (?) RETURNING id`, subject.Name)
	if err != nil {
		return err
	}
	subject.ID = id
	return nil
}

// CreateExam stores an exam, assigning a public uuid when none is set.
func (s *BaseStore) CreateExam(ctx context.Context, q Querier, exam *models.Exam) error {
	if exam.UUID == "" {
		exam.UUID = uuid.NewString()
	}
	if exam.ExamType == "" {
		exam.ExamType = models.ExamTypeExam
	}

	id, err := s.insertReturningID(ctx, q, "create exam", `
		INSERT INTO exams (
			uuid, subject_id, semester_id, title, total_mark, passing_mark,
			time_limit, start_at, end_at, announced, exam_type
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`,
		exam.UUID, exam.SubjectID, exam.SemesterID, exam.Title, exam.TotalMark, exam.PassingMark,
		exam.TimeLimit, exam.StartAt, exam.EndAt, exam.Announced, exam.ExamType,
	)
	if err != nil {
		return err
	}
	exam.ID = id
	return nil
}

const examColumns = `
	id, uuid, subject_id, semester_id, title, total_mark, passing_mark,
	time_limit, start_at, end_at, announced, exam_type
`

func (s *BaseStore) getExam(ctx context.Context, q Querier, where string, arg interface{}) (*models.Exam, error) {
	var exam models.Exam
	query := s.Converter(`SELECT ` + examColumns + ` FROM exams WHERE ` + where)

	err := sqlx.GetContext(ctx, q, &exam, query, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get exam: %w", err)
	}
	return &exam, nil
}

func (s *BaseStore) GetExam(ctx context.Context, q Querier, id int64) (*models.Exam, error) {
	return s.getExam(ctx, q, "id = ?", id)
}

func (s *BaseStore) GetExamByUUID(ctx context.Context, q Querier, examUUID string) (*models.Exam, error) {
	return s.getExam(ctx, q, "uuid = ?", examUUID)
}

func (s *BaseStore) CreateQuestion(ctx context.Context, q Querier, question *models.Question) error {
	if question.QuestionType == "" {
		question.QuestionType = models.QuestionTypeMCQ
	}
	id, err := s.insertReturningID(ctx, q, "create question", `
		INSERT INTO questions (subject_id, text, question_type)
		VALUES (?, ?, ?)
		RETURNING id
	`, question.SubjectID, question.Text, question.QuestionType)
	if err != nil {
		return err
	}
	question.ID = id
	return nil
}

func (s *BaseStore) CreateOption(ctx context.Context, q Querier, option *models.Option) error {
	id, err := s.insertReturningID(ctx, q, "create option", `
		INSERT INTO options (question_id, text, is_correct)
		VALUES (?, ?, ?)
		RETURNING id
	`, option.QuestionID, option.Text, option.IsCorrect)
	if err != nil {
		return err
	}
	option.ID = id
	return nil
}

func (s *BaseStore) AddExamQuestion(ctx context.Context, q Querier, eq models.ExamQuestion) error {
	_, err := q.ExecContext(ctx, s.Converter(`
		INSERT INTO exam_questions (exam_id, question_id, mark)
		VALUES (?, ?, ?)
	`), eq.ExamID, eq.QuestionID, eq.Mark)
	if err != nil {
		return s.wrap(err, "add exam question")
	}
	return nil
}

// ListExamQuestions returns the exam's questions with their per-exam mark.
func (s *BaseStore) ListExamQuestions(ctx context.Context, q Querier, examID int64) ([]models.ExamQuestionRow, error) {
	var rows []models.ExamQuestionRow
	query := s.Converter(`
		SELECT
			qs.id AS question_id,
			qs.text,
			qs.question_type,
			eq.mark
		FROM exam_questions eq
		JOIN questions qs ON qs.id = eq.question_id
		WHERE eq.exam_id = ?
		ORDER BY qs.id
	`)

	if err := sqlx.SelectContext(ctx, q, &rows, query, examID); err != nil {
		return nil, fmt.Errorf("failed to list exam questions: %w", err)
	}
	return rows, nil
}

func (s *BaseStore) ListOptions(ctx context.Context, q Querier, questionIDs []int64) ([]models.Option, error) {
	if len(questionIDs) == 0 {
		return nil, nil
	}

	query, args, err := sqlx.In(`
		SELECT id, question_id, text, is_correct
		FROM options
		WHERE question_id IN (?)
		ORDER BY question_id, id
	`, questionIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to build options query: %w", err)
	}

	var options []models.Option
	if err := sqlx.SelectContext(ctx, q, &options, s.Converter(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list options: %w", err)
	}
	return options, nil
}

func (s *BaseStore) GetAttempt(ctx context.Context, q Querier, studentID, examID int64) (*models.ExamAttempt, error) {
	var attempt models.ExamAttempt
	query := s.Converter(`
		SELECT id, student_id, exam_id, score, created_at
		FROM exam_attempts
		WHERE student_id = ?
		AND exam_id = ?
	`)

	err := sqlx.GetContext(ctx, q, &attempt, query, studentID, examID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get attempt: %w", err)
	}
	return &attempt, nil
}

// CreateAttempt returns ErrConflict when the student already has an attempt for the exam.
func (s *BaseStore) CreateAttempt(ctx context.Context, q Querier, attempt *models.ExamAttempt) error {
	if attempt.CreatedAt.IsZero() {
		attempt.CreatedAt = time.Now().UTC()
	}
	id, err := s.insertReturningID(ctx, q, "create attempt", `
		INSERT INTO exam_attempts (student_id, exam_id, score, created_at)
		VALUES (?, ?, ?, ?)
		RETURNING id
	`, attempt.StudentID, attempt.ExamID, attempt.Score, attempt.CreatedAt)
	if err != nil {
		return err
	}
	attempt.ID = id
	return nil
}

func (s *BaseStore) UpdateAttemptScore(ctx context.Context, q Querier, attemptID int64, score float64) error {
	res, err := q.ExecContext(ctx, s.Converter(`
		UPDATE exam_attempts SET score = ? WHERE id = ?
	`), score, attemptID)
	if err != nil {
		return fmt.Errorf("failed to update attempt score: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n != 1 {
		return fmt.Errorf("attempt %d not found for score update", attemptID)
	}
	return nil
}

func (s *BaseStore) CreateAnswer(ctx context.Context, q Querier, answer *models.Answer) error {
	id, err := s.insertReturningID(ctx, q, "create answer", `
		INSERT INTO answers (question_id, exam_attempt_id, option_id, mark_awarded)
		VALUES (?, ?, ?, ?)
		RETURNING id
	`, answer.QuestionID, answer.ExamAttemptID, answer.OptionID, answer.MarkAwarded)
	if err != nil {
		return err
	}
	answer.ID = id
	return nil
}

func (s *BaseStore) ListAttempts(ctx context.Context, q Querier, examID int64) ([]models.AttemptSummary, error) {
	var attempts []models.AttemptSummary
	query := s.Converter(`
		SELECT
			a.id AS attempt_id,
			a.student_id,
			st.email,
			a.score,
			a.created_at
		FROM exam_attempts a
		JOIN students st ON st.id = a.student_id
		WHERE a.exam_id = ?
		ORDER BY a.created_at, a.id
	`)

	if err := sqlx.SelectContext(ctx, q, &attempts, query, examID); err != nil {
		return nil, fmt.Errorf("failed to list attempts: %w", err)
	}
	return attempts, nil
}

func (s *BaseStore) CreateAcademicYear(ctx context.Context, q Querier, year *models.AcademicYear) error {
	id, err := s.insertReturningID(ctx, q, "create academic year", `
		INSERT INTO academic_years (name, start_date, end_date, full_tuition)
		VALUES (?, ?, ?, ?)
		RETURNING id
	`, year.Name, year.StartDate, year.EndDate, year.FullTuition)
	if err != nil {
		return err
	}
	year.ID = id
	return nil
}

func (s *BaseStore) ListAcademicYears(ctx context.Context, q Querier) ([]models.AcademicYear, error) {
	var years []models.AcademicYear
	query := `
		SELECT id, name, start_date, end_date, full_tuition
		FROM academic_years
		ORDER BY start_date DESC, id DESC
	`
	if err := sqlx.SelectContext(ctx, q, &years, query); err != nil {
		return nil, fmt.Errorf("failed to list academic years: %w", err)
	}
	return years, nil
}

func (s *BaseStore) CreateSemester(ctx context.Context, q Querier, semester *models.Semester) error {
	id, err := s.insertReturningID(ctx, q, "create semester", `
		INSERT INTO semesters (academic_year_id, name, start_date, end_date)
		VALUES (?, ?, ?, ?)
		RETURNING id
	`, semester.AcademicYearID, semester.Name, semester.StartDate, semester.EndDate)
	if err != nil {
		return err
	}
	semester.ID = id
	return nil
}

func (s *BaseStore) ListSemesters(ctx context.Context, q Querier, academicYearID int64) ([]models.Semester, error) {
	var semesters []models.Semester
	query := s.Converter(`
		SELECT id, academic_year_id, name, start_date, end_date
		FROM semesters
		WHERE academic_year_id = ?
		ORDER BY start_date, id
	`)
	if err := sqlx.SelectContext(ctx, q, &semesters, query, academicYearID); err != nil {
		return nil, fmt.Errorf("failed to list semesters: %w", err)
	}
	return semesters, nil
}

const archiveColumns = `id, student_id, academic_year_id, remaining_tuition`

func (s *BaseStore) GetArchive(ctx context.Context, q Querier, studentID, academicYearID int64) (*models.Archive, error) {
	var archive models.Archive
	query := s.Converter(`
		SELECT ` + archiveColumns + `
		FROM archives
		WHERE student_id = ?
		AND academic_year_id = ?
	`)

	err := sqlx.GetContext(ctx, q, &archive, query, studentID, academicYearID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get archive: %w", err)
	}
	return &archive, nil
}

func (s *BaseStore) GetArchiveByID(ctx context.Context, q Querier, id int64) (*models.Archive, error) {
	var archive models.Archive
	query := s.Converter(`SELECT ` + archiveColumns + ` FROM archives WHERE id = ?`)

	err := sqlx.GetContext(ctx, q, &archive, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get archive: %w", err)
	}
	return &archive, nil
}

// CreateArchiveIfAbsent inserts the archive unless one already exists for the
// (student, academic year) pair; either way archive ends up holding the stored row.
func (s *BaseStore) CreateArchiveIfAbsent(ctx context.Context, q Querier, archive *models.Archive) error {
	_, err := q.ExecContext(ctx, s.Converter(`
		INSERT INTO archives (student_id, academic_year_id, remaining_tuition)
		VALUES (?, ?, ?)
		ON CONFLICT (student_id, academic_year_id) DO NOTHING
	`), archive.StudentID, archive.AcademicYearID, archive.RemainingTuition)
	if err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}

	stored, err := s.GetArchive(ctx, q, archive.StudentID, archive.AcademicYearID)
	if err != nil {
		return err
	}
	if stored == nil {
		return fmt.Errorf("archive for student %d vanished after insert", archive.StudentID)
	}
	*archive = *stored
	return nil
}

func (s *BaseStore) ListArchives(ctx context.Context, q Querier, academicYearID int64) ([]models.ArchiveSummary, error) {
	var archives []models.ArchiveSummary
	query := s.Converter(`
		SELECT
			ar.id AS archive_id,
			ar.student_id,
			st.email
		FROM archives ar
		JOIN students st ON st.id = ar.student_id
		WHERE ar.academic_year_id = ?
		ORDER BY st.email
	`)
	if err := sqlx.SelectContext(ctx, q, &archives, query, academicYearID); err != nil {
		return nil, fmt.Errorf("failed to list archives: %w", err)
	}
	return archives, nil
}

func (s *BaseStore) CreateGrade(ctx context.Context, q Querier, grade *models.Grade) error {
	if grade.CreatedAt.IsZero() {
		grade.CreatedAt = time.Now().UTC()
	}
	id, err := s.insertReturningID(ctx, q, "create grade", `
		INSERT INTO grades (archive_id, subject_id, semester_id, type, grade, min_score, max_score, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`,
		grade.ArchiveID, grade.SubjectID, grade.SemesterID, grade.Type,
		grade.Grade, grade.MinScore, grade.MaxScore, grade.CreatedAt,
	)
	if err != nil {
		return err
	}
	grade.ID = id
	return nil
}

// ListArchiveGrades returns ledger rows ordered semester → subject → type → insertion.
func (s *BaseStore) ListArchiveGrades(ctx context.Context, q Querier, archiveID int64) ([]models.GradeRow, error) {
	var rows []models.GradeRow
	query := s.Converter(`
		SELECT
			g.id,
			g.archive_id,
			g.subject_id,
			g.semester_id,
			g.type,
			g.grade,
			g.min_score,
			g.max_score,
			g.created_at,
			sub.name AS subject_name,
			sem.name AS semester_name
		FROM grades g
		JOIN subjects sub ON sub.id = g.subject_id
		JOIN semesters sem ON sem.id = g.semester_id
		WHERE g.archive_id = ?
		ORDER BY sem.start_date, sem.id, sub.name, sub.id, g.type, g.id
	`)

	if err := sqlx.SelectContext(ctx, q, &rows, query, archiveID); err != nil {
		return nil, fmt.Errorf("failed to list archive grades: %w", err)
	}
	return rows, nil
}
