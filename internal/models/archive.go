package models

import "time"

type AcademicYear struct {
	ID          int64     `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	StartDate   time.Time `db:"start_date" json:"start_date"`
	EndDate     time.Time `db:"end_date" json:"end_date"`
	FullTuition float64   `db:"full_tuition" json:"full_tuition"`
}

type Semester struct {
	ID             int64     `db:"id" json:"id"`
	AcademicYearID int64     `db:"academic_year_id" json:"academic_year_id"`
	Name           string    `db:"name" json:"name"`
	StartDate      time.Time `db:"start_date" json:"start_date"`
	EndDate        time.Time `db:"end_date" json:"end_date"`
}

// Archive anchors a student's grades and tuition for one academic year.
type Archive struct {
	ID               int64   `db:"id" json:"id"`
	StudentID        int64   `db:"student_id" json:"student_id"`
	AcademicYearID   int64   `db:"academic_year_id" json:"academic_year_id"`
	RemainingTuition float64 `db:"remaining_tuition" json:"remaining_tuition"`
}

// Grade is an append-only ledger entry. Rows are never updated.
type Grade struct {
	ID         int64     `db:"id" json:"id"`
	ArchiveID  int64     `db:"archive_id" json:"archive_id"`
	SubjectID  int64     `db:"subject_id" json:"subject_id"`
	SemesterID int64     `db:"semester_id" json:"semester_id"`
	Type       string    `db:"type" json:"type"`
	Grade      float64   `db:"grade" json:"grade"`
	MinScore   float64   `db:"min_score" json:"min_score"`
	MaxScore   float64   `db:"max_score" json:"max_score"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// GradeRow is a ledger entry joined with subject and semester names.
type GradeRow struct {
	ID           int64     `db:"id"`
	ArchiveID    int64     `db:"archive_id"`
	SubjectID    int64     `db:"subject_id"`
	SemesterID   int64     `db:"semester_id"`
	Type         string    `db:"type"`
	Grade        float64   `db:"grade"`
	MinScore     float64   `db:"min_score"`
	MaxScore     float64   `db:"max_score"`
	CreatedAt    time.Time `db:"created_at"`
	SubjectName  string    `db:"subject_name"`
	SemesterName string    `db:"semester_name"`
}

type ArchiveSummary struct {
	ArchiveID int64  `db:"archive_id" json:"archive_id"`
	StudentID int64  `db:"student_id" json:"student_id"`
	Email     string `db:"email" json:"email"`
}
