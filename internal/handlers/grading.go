package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/gradebook/internal/app"
	"github.com/shrimpsizemoose/gradebook/internal/grading"
	"github.com/shrimpsizemoose/gradebook/internal/models"
	"github.com/shrimpsizemoose/gradebook/internal/scoring"
)

type GradingHandler struct {
	service *app.Service
}

func NewGradingHandler(service *app.Service) *GradingHandler {
	return &GradingHandler{
		service: service,
	}
}

type examCheckRequest struct {
	ExamID  int64                    `json:"exam_id"`
	Email   string                   `json:"email"`
	Answers []models.SubmittedAnswer `json:"answers"`
}

type quizAnswer struct {
	QuestionID int64  `json:"questionId"`
	OptionID   *int64 `json:"optionId"`
}

type quizSubmitRequest struct {
	Email   string       `json:"email"`
	Answers []quizAnswer `json:"answers"`
}

type quizSubmitResponse struct {
	Success        bool             `json:"success"`
	TotalScore     float64          `json:"totalScore"`
	TotalQuestions int              `json:"totalQuestions"`
	CorrectAnswers int              `json:"correctAnswers"`
	Passed         bool             `json:"passed"`
	PassingScore   float64          `json:"passingScore"`
	Results        []scoring.Result `json:"results"`
}

// HandleExamCheck grades an exam attempt submitted by id.
func (h *GradingHandler) HandleExamCheck(w http.ResponseWriter, r *http.Request) {
	var req examCheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Debug.Printf("Failed to decode exam check body: %v", err)
		writeBadBody(w)
		return
	}

	outcome, err := h.service.Grading.Grade(r.Context(), grading.Submission{
		ExamID:  req.ExamID,
		Email:   req.Email,
		Answers: req.Answers,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, outcome)
}

// HandleQuizSubmit grades a quiz addressed by its public uuid. When auth is
// enabled the caller must present the quiz token issued for the email.
func (h *GradingHandler) HandleQuizSubmit(w http.ResponseWriter, r *http.Request) {
	quiz := r.PathValue("quiz")

	var req quizSubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Debug.Printf("Failed to decode quiz body: %v", err)
		writeBadBody(w)
		return
	}

	if req.Email != "" {
		if err := h.service.ValidateQuizToken(r, quiz, req.Email); err != nil {
			logger.Info.Printf("Quiz auth failed for %s on %s: %v", req.Email, quiz, err)
			writeError(w, err)
			return
		}
	}

	var answers []models.SubmittedAnswer
	if req.Answers != nil {
		answers = make([]models.SubmittedAnswer, 0, len(req.Answers))
		for _, a := range req.Answers {
			answers = append(answers, models.SubmittedAnswer{QuestionID: a.QuestionID, OptionID: a.OptionID})
		}
	}

	outcome, err := h.service.Grading.Grade(r.Context(), grading.Submission{
		QuizUUID: quiz,
		Email:    req.Email,
		Answers:  answers,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, quizSubmitResponse{
		Success:        true,
		TotalScore:     outcome.TotalScore,
		TotalQuestions: len(outcome.Results),
		CorrectAnswers: outcome.CorrectAnswers(),
		Passed:         outcome.Passed,
		PassingScore:   outcome.PassingScore,
		Results:        outcome.Results,
	})
}

func (h *GradingHandler) HandleExamAttempts(w http.ResponseWriter, r *http.Request) {
	examID, err := strconv.ParseInt(r.PathValue("exam"), 10, 64)
	if err != nil {
		writeError(w, grading.ErrExamNotFound)
		return
	}

	attempts, err := h.service.Grading.ListAttempts(r.Context(), examID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"attempts": attempts,
	})
}
