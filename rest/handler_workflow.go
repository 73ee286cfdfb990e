package rest

import (
	"encoding/json"
	"net/http"

	"github.com/mohitkumar/funnel/logger"
	"github.com/mohitkumar/funnel/model"
	"go.uber.org/zap"
)

func (s *Server) HandleSaveWorkflow(w http.ResponseWriter, r *http.Request) {
	var wf model.WorkflowDef
	if err := json.NewDecoder(r.Body).Decode(&wf); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	defer r.Body.Close()
	if err := s.workflowService.Save(r.Context(), wf); err != nil {
		logger.Error("error saving workflow definition", zap.String("workflowId", wf.Id), zap.Error(err))
		respondWithServiceError(w, "save workflow", err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"message": "created"})
}

func (s *Server) HandleListWorkflows(w http.ResponseWriter, r *http.Request) {
	defs, err := s.workflowService.List(r.Context())
	if err != nil {
		logger.Error("error listing workflow definitions", zap.Error(err))
		respondWithServiceError(w, "list workflows", err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{"workflows": defs})
}
