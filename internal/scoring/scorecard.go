package scoring

import (
	"github.com/shrimpsizemoose/gradebook/internal/models"
)

type Assignment struct {
	Score      float64 `json:"score"`
	MinScore   float64 `json:"min_score"`
	MaxScore   float64 `json:"max_score"`
	Percentage float64 `json:"percentage"`
}

type GradeTypeCard struct {
	Type            string       `json:"type"`
	Assignments     []Assignment `json:"assignments"`
	TypeAverage     float64      `json:"typeAverage"`
	AssignmentCount int          `json:"assignment_count"`
	TypeTotal       float64      `json:"typeTotal"`
}

type SubjectCard struct {
	SubjectID        int64           `json:"subject_id"`
	SubjectName      string          `json:"subject_name"`
	GradeTypes       []GradeTypeCard `json:"grade_types"`
	SubjectAverage   float64         `json:"subjectAverage"`
	TotalAssignments int             `json:"totalAssignments"`
	TotalScore       float64         `json:"totalScore"`
}

type SemesterCard struct {
	SemesterID               int64         `json:"semester_id"`
	SemesterName             string        `json:"semester_name"`
	Subjects                 []SubjectCard `json:"subjects"`
	SemesterAverage          float64       `json:"semesterAverage"`
	TotalSemesterAssignments int           `json:"totalSemesterAssignments"`
	TotalSemesterScore       float64       `json:"totalSemesterScore"`
}

// Percentage is grade/max*100; a non-positive max yields 0.
func Percentage(grade, maxScore float64) float64 {
	if maxScore <= 0 {
		return 0
	}
	return grade * 100 / maxScore
}

func average(total float64, count int) float64 {
	if count == 0 {
		return 0
	}
	return total / float64(count)
}

// BuildScorecard folds ledger rows into semester → subject → grade type.
// Groups keep the order in which they first appear in rows.
func BuildScorecard(rows []models.GradeRow) []SemesterCard {
	cards := []SemesterCard{}
	semesterIdx := map[int64]int{}
	subjectIdx := map[[2]int64]int{}
	typeIdx := map[[2]int64]map[string]int{}

	for _, r := range rows {
		si, ok := semesterIdx[r.SemesterID]
		if !ok {
			si = len(cards)
			semesterIdx[r.SemesterID] = si
			cards = append(cards, SemesterCard{
				SemesterID:   r.SemesterID,
				SemesterName: r.SemesterName,
				Subjects:     []SubjectCard{},
			})
		}
		sem := &cards[si]

		subjKey := [2]int64{r.SemesterID, r.SubjectID}
		ji, ok := subjectIdx[subjKey]
		if !ok {
			ji = len(sem.Subjects)
			subjectIdx[subjKey] = ji
			typeIdx[subjKey] = map[string]int{}
			sem.Subjects = append(sem.Subjects, SubjectCard{
				SubjectID:   r.SubjectID,
				SubjectName: r.SubjectName,
				GradeTypes:  []GradeTypeCard{},
			})
		}
		subj := &sem.Subjects[ji]

		ti, ok := typeIdx[subjKey][r.Type]
		if !ok {
			ti = len(subj.GradeTypes)
			typeIdx[subjKey][r.Type] = ti
			subj.GradeTypes = append(subj.GradeTypes, GradeTypeCard{
				Type:        r.Type,
				Assignments: []Assignment{},
			})
		}
		gt := &subj.GradeTypes[ti]

		gt.Assignments = append(gt.Assignments, Assignment{
			Score:      r.Grade,
			MinScore:   r.MinScore,
			MaxScore:   r.MaxScore,
			Percentage: Percentage(r.Grade, r.MaxScore),
		})
		gt.AssignmentCount++
		gt.TypeTotal += r.Grade

		subj.TotalAssignments++
		subj.TotalScore += r.Grade

		sem.TotalSemesterAssignments++
		sem.TotalSemesterScore += r.Grade
	}

	for i := range cards {
		sem := &cards[i]
		sem.SemesterAverage = average(sem.TotalSemesterScore, sem.TotalSemesterAssignments)
		for j := range sem.Subjects {
			subj := &sem.Subjects[j]
			subj.SubjectAverage = average(subj.TotalScore, subj.TotalAssignments)
			for k := range subj.GradeTypes {
				gt := &subj.GradeTypes[k]
				gt.TypeAverage = average(gt.TypeTotal, gt.AssignmentCount)
			}
		}
	}

	return cards
}
