package handlers

import (
	"net/http"

	"github.com/shrimpsizemoose/gradebook/internal/app"
)

// Register mounts the grading and archive API on mux.
func Register(mux *http.ServeMux, service *app.Service) {
	gradingHandler := NewGradingHandler(service)
	archiveHandler := NewArchiveHandler(service)

	mux.HandleFunc("POST /exam-attempts/check", Instrument(service, gradingHandler.HandleExamCheck))
	mux.HandleFunc("POST /exams/quiz/{quiz}/submit", Instrument(service, gradingHandler.HandleQuizSubmit))
	mux.HandleFunc("GET /exams/{exam}/attempts", Instrument(service, gradingHandler.HandleExamAttempts))

	mux.HandleFunc("GET /archive/scorecard", Instrument(service, archiveHandler.HandleScorecard))
	mux.HandleFunc("GET /archive/{archive}/scorecard", Instrument(service, archiveHandler.HandleArchiveScorecard))
	mux.HandleFunc("POST /archive/grades", Instrument(service, archiveHandler.HandleRecordGrade))
}
