package handler

import (
	"net/http"

	"classtrack/internal/api/middleware"
	"classtrack/internal/app/service"
	"classtrack/internal/common"

	"github.com/go-chi/chi/v5"
)

type SubmissionHandler struct {
	submissionService *service.SubmissionService
}

func NewSubmissionHandler(ss *service.SubmissionService) *SubmissionHandler {
	return &SubmissionHandler{submissionService: ss}
}

func (h *SubmissionHandler) RegisterRoutes(r chi.Router) {
	r.Use(middleware.Authenticator)
	r.Group(func(student chi.Router) {
		student.Use(middleware.StudentOnly)
		student.Get("/my", h.listMine)
	})
}

func (h *SubmissionHandler) listMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	ids, err := h.submissionService.ListCompletedAssignmentIDs(r.Context(), userID)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string][]string{
		"completed_assignments": ids,
	})
}
