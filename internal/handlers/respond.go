package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/gradebook/internal/app"
	"github.com/shrimpsizemoose/gradebook/internal/grading"
	"github.com/shrimpsizemoose/gradebook/internal/metrics"
)

type errorResponse struct {
	Error             string   `json:"error"`
	Code              string   `json:"code"`
	PreviousScore     *float64 `json:"previous_score,omitempty"`
	PreviousAttemptID *int64   `json:"previous_attempt_id,omitempty"`
}

func statusFor(code string) int {
	switch code {
	case grading.CodeMissingFields, grading.CodeAlreadyTaken, grading.CodeNoAcademicYear, grading.CodeNoSemester:
		return http.StatusBadRequest
	case grading.CodeInvalidCredentials:
		return http.StatusUnauthorized
	case grading.CodeStudentNotFound, grading.CodeExamNotFound, grading.CodeArchiveNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error.Printf("Failed to encode response: %v", err)
	}
}

// writeError renders err as the {error, code} envelope. Internal errors are
// logged by the caller's layer and reach the client only as a generic message.
func writeError(w http.ResponseWriter, err error) {
	code := grading.Code(err)
	resp := errorResponse{Error: err.Error(), Code: code}

	var taken *grading.AlreadyTakenError
	if errors.As(err, &taken) {
		resp.Error = "Exam already taken"
		resp.PreviousScore = &taken.PreviousScore
		resp.PreviousAttemptID = &taken.AttemptID
	}
	if code == grading.CodeInternal {
		resp.Error = "Internal server error"
	}

	writeJSON(w, statusFor(code), resp)
}

func writeBadBody(w http.ResponseWriter) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid request body", Code: grading.CodeMissingFields})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Instrument records request duration by route pattern and rejects requests
// missing the configured required headers.
func Instrument(service *app.Service, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		defer func() {
			metrics.APIRequestDuration.WithLabelValues(
				r.Pattern,
				r.Method,
				strconv.Itoa(rec.status),
			).Observe(time.Since(start).Seconds())
		}()

		if !service.ValidateHeaders(r.Header) {
			http.Error(rec, "these are not the droids you are looking for", http.StatusForbidden)
			return
		}

		next(rec, r)
	}
}
