package rest

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/mohitkumar/funnel/logger"
	"github.com/mohitkumar/funnel/model"
	"go.uber.org/zap"
)

func (s *Server) HandleCreateFunnel(w http.ResponseWriter, r *http.Request) {
	var req model.CreateFunnelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	defer r.Body.Close()
	result, err := s.funnelService.CreateFunnel(r.Context(), req)
	if err != nil {
		logger.Error("error creating funnel", zap.String("name", req.Name), zap.Error(err))
		respondWithServiceError(w, "create funnel", err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

func (s *Server) HandleGetFunnel(w http.ResponseWriter, r *http.Request) {
	funnelId := mux.Vars(r)["id"]
	view, err := s.funnelService.GetFunnel(r.Context(), funnelId)
	if err != nil {
		logger.Error("error loading funnel", zap.String("funnelId", funnelId), zap.Error(err))
		respondWithServiceError(w, "load funnel", err)
		return
	}
	respondWithJSON(w, http.StatusOK, view)
}

func (s *Server) HandleDeleteFunnel(w http.ResponseWriter, r *http.Request) {
	funnelId := mux.Vars(r)["id"]
	if err := s.funnelService.DeleteFunnel(r.Context(), funnelId); err != nil {
		logger.Error("error deleting funnel", zap.String("funnelId", funnelId), zap.Error(err))
		respondWithServiceError(w, "delete funnel", err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) HandleCreateStep(w http.ResponseWriter, r *http.Request) {
	funnelId := mux.Vars(r)["id"]
	var req model.CreateStepRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	defer r.Body.Close()
	result, err := s.funnelService.CreateStep(r.Context(), funnelId, req)
	if err != nil {
		logger.Error("error creating step", zap.String("funnelId", funnelId), zap.Error(err))
		respondWithServiceError(w, "create step", err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

func (s *Server) HandleSelectImages(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	funnelId := vars["id"]
	stepId := vars["stepId"]
	var req model.SelectImagesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	defer r.Body.Close()
	result, err := s.funnelService.SelectImages(r.Context(), funnelId, stepId, req.ImageIds)
	if err != nil {
		logger.Error("error selecting images", zap.String("funnelId", funnelId),
			zap.String("stepId", stepId), zap.Error(err))
		respondWithServiceError(w, "select images", err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

func (s *Server) HandleListFunnels(w http.ResponseWriter, r *http.Request) {
	funnels, err := s.funnelService.ListFunnels(r.Context())
	if err != nil {
		logger.Error("error listing funnels", zap.Error(err))
		respondWithServiceError(w, "list funnels", err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{"funnels": funnels})
}
