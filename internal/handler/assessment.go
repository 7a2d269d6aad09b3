package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"edupro/internal/model"
	"edupro/internal/quiz"
)

type AssessmentHandler struct {
	s AssessmentService
}

func NewAssessmentHandler(s AssessmentService) *AssessmentHandler {
	return &AssessmentHandler{s: s}
}

type createAssessmentRequest struct {
	CourseId    uuid.UUID       `json:"course_id" validate:"required"`
	Title       string          `json:"title" validate:"required,max=200"`
	Description *string         `json:"description" validate:"omitempty,max=2000"`
	Questions   json.RawMessage `json:"questions" validate:"required"`
	MaxScore    *int            `json:"max_score" validate:"omitempty,gt=0"`
}

type submitAnswersRequest struct {
	Answers map[int]int `json:"answers" validate:"required"`
}

type beginAttemptRequest struct {
	Mode string `json:"mode" validate:"required,oneof=start resume fresh"`
}

type recordAnswerRequest struct {
	Option *int `json:"option" validate:"required,gte=0"`
}

type moveRequest struct {
	Index *int `json:"index" validate:"required,gte=0"`
}

func (h *AssessmentHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.With(authMiddleware).Group(func(r chi.Router) {
		r.Post("/assessments", h.CreateAssessment)
		r.Get("/courses/{courseID}/assessments", h.ListCourseAssessments)

		r.Route("/assessments/{id}", func(r chi.Router) {
			r.Get("/", h.GetAssessment)
			r.Get("/overview", h.GetOverview)
			r.Post("/submissions", h.SubmitAnswers)
			r.Get("/submissions", h.ListSubmissions)
			r.Get("/results", h.GetResults)

			r.Post("/attempt", h.BeginAttempt)
			r.Get("/attempt", h.GetAttempt)
			r.Put("/attempt/answers/{index}", h.RecordAnswer)
			r.Put("/attempt/position", h.MoveTo)
			r.Post("/attempt/submit", h.SubmitAttempt)
		})
	})
}

func (h *AssessmentHandler) CreateAssessment(w http.ResponseWriter, r *http.Request) {
	var req createAssessmentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	view, err := h.s.CreateAssessment(r.Context(), &model.CreateAssessmentInput{
		CourseId:    req.CourseId,
		Title:       req.Title,
		Description: req.Description,
		Questions:   req.Questions,
		MaxScore:    req.MaxScore,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

func (h *AssessmentHandler) ListCourseAssessments(w http.ResponseWriter, r *http.Request) {
	courseID, err := parseUUIDParam(r, "courseID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	views, err := h.s.ListCourseAssessments(r.Context(), courseID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if views == nil {
		views = []*model.AssessmentView{}
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *AssessmentHandler) GetAssessment(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	view, err := h.s.GetAssessment(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *AssessmentHandler) GetOverview(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	overview, err := h.s.GetOverview(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, overview)
}

func (h *AssessmentHandler) SubmitAnswers(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req submitAnswersRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	result, err := h.s.SubmitAnswers(r.Context(), id, quiz.Answers(req.Answers))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *AssessmentHandler) ListSubmissions(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	subs, err := h.s.ListSubmissions(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if subs == nil {
		subs = []*model.Submission{}
	}
	writeJSON(w, http.StatusOK, subs)
}

func (h *AssessmentHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	result, err := h.s.GetResults(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *AssessmentHandler) BeginAttempt(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req beginAttemptRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	view, err := h.s.BeginAttempt(r.Context(), id, model.AttemptMode(req.Mode))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

func (h *AssessmentHandler) GetAttempt(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	view, err := h.s.GetAttempt(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *AssessmentHandler) RecordAnswer(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	index, err := parseIntParam(r, "index")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req recordAnswerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	view, err := h.s.RecordAnswer(r.Context(), id, index, *req.Option)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *AssessmentHandler) MoveTo(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req moveRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	view, err := h.s.MoveTo(r.Context(), id, *req.Index)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *AssessmentHandler) SubmitAttempt(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	result, err := h.s.SubmitAttempt(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
