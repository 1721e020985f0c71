package models

import "time"

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func covers(start, end, now time.Time) bool {
	day := dateOf(now)
	return !day.Before(dateOf(start)) && !day.After(dateOf(end))
}

// Covers reports whether now falls on a date within [StartDate, EndDate].
func (y AcademicYear) Covers(now time.Time) bool {
	return covers(y.StartDate, y.EndDate, now)
}

func (s Semester) Covers(now time.Time) bool {
	return covers(s.StartDate, s.EndDate, now)
}

// CurrentAcademicYear picks the year covering now, falling back to the most
// recently started one. Returns nil only for an empty list.
func CurrentAcademicYear(years []AcademicYear, now time.Time) *AcademicYear {
	var latest *AcademicYear
	for i := range years {
		if years[i].Covers(now) {
			return &years[i]
		}
		if latest == nil || years[i].StartDate.After(latest.StartDate) {
			latest = &years[i]
		}
	}
	return latest
}

// PickSemester resolves the semester a grade is filed under: the preferred
// one if it belongs to the list, then the one covering now, then the latest
// that has started, then the earliest.
func PickSemester(semesters []Semester, preferred *int64, now time.Time) *Semester {
	if len(semesters) == 0 {
		return nil
	}
	if preferred != nil {
		for i := range semesters {
			if semesters[i].ID == *preferred {
				return &semesters[i]
			}
		}
	}

	var started, earliest *Semester
	for i := range semesters {
		s := &semesters[i]
		if s.Covers(now) {
			return s
		}
		if !dateOf(s.StartDate).After(dateOf(now)) && (started == nil || s.StartDate.After(started.StartDate)) {
			started = s
		}
		if earliest == nil || s.StartDate.Before(earliest.StartDate) {
			earliest = s
		}
	}
	if started != nil {
		return started
	}
	return earliest
}
