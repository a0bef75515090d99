package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"surveyforge/internal/model"
	"surveyforge/internal/service"
	"surveyforge/internal/transport/rest/middleware"
)

// RespondentHandler serves the respondent side: taking a survey and viewing its result
type RespondentHandler struct {
	surveySvc   *service.SurveyService
	responseSvc *service.ResponseService
	resultSvc   *service.ResultService
}

// NewRespondentHandler creates a new respondent handler
func NewRespondentHandler(surveySvc *service.SurveyService, responseSvc *service.ResponseService, resultSvc *service.ResultService) *RespondentHandler {
	return &RespondentHandler{
		surveySvc:   surveySvc,
		responseSvc: responseSvc,
		resultSvc:   resultSvc,
	}
}

// GetSurvey handles GET /v1/surveys/{surveyId}/public
func (h *RespondentHandler) GetSurvey(w http.ResponseWriter, r *http.Request) {
	survey, err := h.surveySvc.GetPublic(r.Context(), mux.Vars(r)["surveyId"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, survey)
}

// Submit handles POST /v1/surveys/{surveyId}/responses
func (h *RespondentHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req model.SubmitResponseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	out, err := h.responseSvc.Submit(r.Context(), mux.Vars(r)["surveyId"], &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

// GetResult handles GET /v1/results/{sessionId}
func (h *RespondentHandler) GetResult(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.ownSession(w, r)
	if !ok {
		return
	}

	snap, err := h.resultSvc.Snapshot(r.Context(), sessionID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// CloseResult handles DELETE /v1/results/{sessionId}
func (h *RespondentHandler) CloseResult(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.ownSession(w, r)
	if !ok {
		return
	}

	if err := h.resultSvc.Close(r.Context(), sessionID); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *RespondentHandler) ownSession(w http.ResponseWriter, r *http.Request) (string, bool) {
	sessionID := mux.Vars(r)["sessionId"]
	if middleware.GetSessionID(r.Context()) != sessionID {
		writeError(w, http.StatusForbidden, "token not valid for this session")
		return "", false
	}
	return sessionID, true
}
