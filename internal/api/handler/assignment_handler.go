package handler

import (
	"encoding/json"
	"net/http"

	"classtrack/internal/api/middleware"
	"classtrack/internal/app/service"
	"classtrack/internal/common"

	"github.com/go-chi/chi/v5"
)

type AssignmentHandler struct {
	assignmentService *service.AssignmentService
	submissionService *service.SubmissionService
}

func NewAssignmentHandler(as *service.AssignmentService, ss *service.SubmissionService) *AssignmentHandler {
	return &AssignmentHandler{assignmentService: as, submissionService: ss}
}

func (h *AssignmentHandler) RegisterRoutes(r chi.Router) {
	r.Use(middleware.Authenticator)
	r.Get("/", h.listAll)
	r.Get("/my", h.listMine)

	r.Group(func(teacher chi.Router) {
		teacher.Use(middleware.TeacherOnly)
		teacher.Post("/", h.create)
		teacher.Get("/{assignmentID}/submissions", h.listSubmissions)
	})

	r.Group(func(student chi.Router) {
		student.Use(middleware.StudentOnly)
		student.Post("/{assignmentID}/complete", h.complete)
	})
}

func (h *AssignmentHandler) create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	var req service.CreateAssignmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		// Rejects malformed deadlines too: timestamps must be RFC 3339.
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	assignment, err := h.assignmentService.Create(r.Context(), userID, req)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, assignment)
}

func (h *AssignmentHandler) listAll(w http.ResponseWriter, r *http.Request) {
	assignments, err := h.assignmentService.ListAll(r.Context())
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, assignments)
}

func (h *AssignmentHandler) listMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	assignments, err := h.assignmentService.ListMine(r.Context(), userID)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, assignments)
}

func (h *AssignmentHandler) complete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}
	assignmentID := chi.URLParam(r, "assignmentID")

	if _, err := h.submissionService.Complete(r.Context(), userID, assignmentID); err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]string{
		"message": "Assignment marked as completed successfully",
	})
}

func (h *AssignmentHandler) listSubmissions(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}
	assignmentID := chi.URLParam(r, "assignmentID")

	submissions, err := h.submissionService.ListForAssignment(r.Context(), userID, assignmentID)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, submissions)
}
