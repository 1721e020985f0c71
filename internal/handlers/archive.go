package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/gradebook/internal/app"
	"github.com/shrimpsizemoose/gradebook/internal/grading"
)

type ArchiveHandler struct {
	service *app.Service
}

func NewArchiveHandler(service *app.Service) *ArchiveHandler {
	return &ArchiveHandler{
		service: service,
	}
}

// HandleScorecard returns the current-year scorecard of the student named by
// the configured email header, or by the email query parameter.
func (h *ArchiveHandler) HandleScorecard(w http.ResponseWriter, r *http.Request) {
	email := h.service.StudentEmail(r)
	if email == "" {
		email = r.URL.Query().Get("email")
	}

	cards, err := h.service.Grading.ScorecardForStudent(r.Context(), email)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"scorecard": cards,
	})
}

func (h *ArchiveHandler) HandleArchiveScorecard(w http.ResponseWriter, r *http.Request) {
	archiveID, err := strconv.ParseInt(r.PathValue("archive"), 10, 64)
	if err != nil {
		writeError(w, grading.ErrArchiveNotFound)
		return
	}

	cards, err := h.service.Grading.ScorecardForArchive(r.Context(), archiveID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"archive_id": archiveID,
		"scorecard":  cards,
	})
}

// HandleRecordGrade appends a manually entered grade to the student's ledger.
func (h *ArchiveHandler) HandleRecordGrade(w http.ResponseWriter, r *http.Request) {
	var req grading.ManualGrade
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Debug.Printf("Failed to decode grade body: %v", err)
		writeBadBody(w)
		return
	}

	grade, err := h.service.Grading.RecordGrade(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, grade)
}
