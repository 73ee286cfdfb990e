package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	api "github.com/mohitkumar/funnel/api/v1"
	"github.com/mohitkumar/funnel/logger"
	"github.com/mohitkumar/funnel/metadata"
	"github.com/mohitkumar/funnel/persistence"
	"github.com/mohitkumar/funnel/service"
	"go.uber.org/zap"
)

type Server struct {
	http.Server
	Port            int
	funnelService   *service.FunnelService
	workflowService metadata.WorkflowService
}

func NewServer(httpPort int, funnelService *service.FunnelService, workflowService metadata.WorkflowService) (*Server, error) {
	s := &Server{
		Server: http.Server{
			Addr: fmt.Sprintf(":%d", httpPort),
		},
		funnelService:   funnelService,
		workflowService: workflowService,
		Port:            httpPort,
	}

	router := mux.NewRouter()
	router.HandleFunc("/funnel/create", s.HandleCreateFunnel).Methods(http.MethodPost)
	router.HandleFunc("/funnel/list", s.HandleListFunnels).Methods(http.MethodGet)
	router.HandleFunc("/funnel/{id}", s.HandleGetFunnel).Methods(http.MethodGet)
	router.HandleFunc("/funnel/{id}", s.HandleDeleteFunnel).Methods(http.MethodDelete)
	router.HandleFunc("/funnel/{id}/step/create", s.HandleCreateStep).Methods(http.MethodPost)
	router.HandleFunc("/funnel/{id}/step/{stepId}/select", s.HandleSelectImages).Methods(http.MethodPost)
	router.HandleFunc("/workflow", s.HandleSaveWorkflow).Methods(http.MethodPost)
	router.HandleFunc("/workflow/list", s.HandleListWorkflows).Methods(http.MethodGet)
	router.Use(loggingMiddleware)
	s.Handler = router
	return s, nil
}

func (s *Server) Start() error {
	logger.Info("starting http server on", zap.Int("port", s.Port))
	if err := s.ListenAndServe(); err != nil {
		return err
	}
	return nil
}

func (s *Server) Stop() error {
	logger.Info("stopping http server")
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	err := s.Shutdown(ctx)
	if err != nil {
		logger.Error("error shutting down http server")
	}
	return nil
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Info(r.RequestURI)
		next.ServeHTTP(w, r)
	})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, _ := json.Marshal(payload)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

// respondWithServiceError maps the error taxonomy to a status code and
// wraps the original message in a "failed to <action>" envelope.
func respondWithServiceError(w http.ResponseWriter, action string, err error) {
	message := fmt.Sprintf("failed to %s: %s", action, err.Error())
	switch err.(type) {
	case api.ValidationError:
		respondWithError(w, http.StatusBadRequest, message)
	case api.NotFoundError:
		respondWithError(w, http.StatusNotFound, message)
	case persistence.VersionConflictError:
		respondWithError(w, http.StatusConflict, message)
	default:
		respondWithError(w, http.StatusInternalServerError, message)
	}
}
