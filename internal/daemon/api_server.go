package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"roastreel/internal/api"
	"roastreel/internal/config"
	"roastreel/internal/logging"
	"roastreel/internal/services"
)

type apiServer struct {
	bind     string
	logger   *slog.Logger
	daemon   *Daemon
	maxBytes int64

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) (*apiServer, error) {
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil, nil
	}

	srv := &apiServer{
		bind:     bind,
		logger:   logger,
		daemon:   d,
		maxBytes: cfg.Gemini.MaxDocumentBytes,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/status", srv.handleStatus)
	mux.HandleFunc("POST /api/sessions", srv.handleCreateSession)
	mux.HandleFunc("GET /api/sessions", srv.handleListSessions)
	mux.HandleFunc("GET /api/sessions/{id}", srv.handleGetSession)
	mux.HandleFunc("GET /api/sessions/{id}/history", srv.handleSessionHistory)
	mux.HandleFunc("POST /api/sessions/{id}/script", srv.handleScript)
	mux.HandleFunc("POST /api/sessions/{id}/videos", srv.handleVideos)
	mux.HandleFunc("POST /api/sessions/{id}/select", srv.handleSelect)
	mux.HandleFunc("POST /api/sessions/{id}/export", srv.handleExport)
	mux.HandleFunc("POST /api/sessions/{id}/reset", srv.handleReset)
	mux.HandleFunc("GET /api/video/{id}", srv.handleVideo)
	mux.HandleFunc("POST /api/notify/test", srv.handleNotifyTest)

	// Script synthesis and video generation block on upstream jobs, so the
	// write timeout has to cover the whole video stage.
	srv.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      time.Duration(cfg.Workflow.VideoStageTimeout+30) * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return srv, nil
}

func (s *apiServer) start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log().Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.log().Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s == nil {
		return
	}
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *apiServer) handler() http.Handler {
	return s.server.Handler
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := s.daemon.Status()
	s.writeJSON(w, http.StatusOK, api.DaemonStatus{
		Running:      status.Running,
		PID:          status.PID,
		StoreDir:     status.StoreDir,
		LockFilePath: status.LockFilePath,
		Sessions:     status.Sessions,
	})
}

func (s *apiServer) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess := s.daemon.Orchestrator().CreateSession(r.Context())
	s.writeJSON(w, http.StatusCreated, api.SessionResponse{Session: api.FromSession(sess)})
}

func (s *apiServer) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions := s.daemon.Orchestrator().Sessions()
	views := make([]api.SessionView, 0, len(sessions))
	for _, sess := range sessions {
		views = append(views, api.FromSession(sess))
	}
	s.writeJSON(w, http.StatusOK, api.SessionListResponse{Sessions: views})
}

func (s *apiServer) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.daemon.Orchestrator().Session(r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.SessionResponse{Session: api.FromSession(sess)})
}

func (s *apiServer) handleSessionHistory(w http.ResponseWriter, r *http.Request) {
	if s.daemon.ledger == nil {
		s.writeError(w, http.StatusNotFound, "history is not enabled")
		return
	}
	id := r.PathValue("id")
	events, err := s.daemon.ledger.Events(r.Context(), id)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "could not read session history")
		return
	}
	if len(events) == 0 {
		// Distinguish a quiet session from one that never existed.
		if _, sessErr := s.daemon.Orchestrator().Session(id); sessErr != nil {
			s.writeServiceError(w, sessErr)
			return
		}
	}
	views := make([]api.SessionEventView, 0, len(events))
	for _, event := range events {
		views = append(views, api.SessionEventView{
			SessionID: event.SessionID,
			Stage:     event.Stage,
			Detail:    event.Detail,
			CreatedAt: event.CreatedAt,
		})
	}
	s.writeJSON(w, http.StatusOK, api.SessionHistoryResponse{Events: views})
}

func (s *apiServer) handleScript(w http.ResponseWriter, r *http.Request) {
	limit := s.maxBytes
	if limit <= 0 {
		limit = 10 << 20
	}
	// Leave headroom for the multipart framing around the document.
	r.Body = http.MaxBytesReader(w, r.Body, limit+(1<<20))

	file, _, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "multipart field \"file\" is required")
		return
	}
	defer file.Close()

	document, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "could not read uploaded file")
		return
	}

	ctx := services.WithSessionID(r.Context(), r.PathValue("id"))
	sess, err := s.daemon.Orchestrator().SubmitDocument(ctx, r.PathValue("id"), document)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.SessionResponse{Session: api.FromSession(sess)})
}

func (s *apiServer) handleVideos(w http.ResponseWriter, r *http.Request) {
	ctx := services.WithSessionID(r.Context(), r.PathValue("id"))
	sess, err := s.daemon.Orchestrator().StartVideoGeneration(ctx, r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.SessionResponse{Session: api.FromSession(sess)})
}

func (s *apiServer) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req api.SelectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	sess, err := s.daemon.Orchestrator().ToggleSelection(r.Context(), r.PathValue("id"), req.SceneIndex)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.SessionResponse{Session: api.FromSession(sess)})
}

func (s *apiServer) handleExport(w http.ResponseWriter, r *http.Request) {
	ctx := services.WithSessionID(r.Context(), r.PathValue("id"))
	sess, err := s.daemon.Orchestrator().Export(ctx, r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.SessionResponse{Session: api.FromSession(sess)})
}

func (s *apiServer) handleReset(w http.ResponseWriter, r *http.Request) {
	sess, err := s.daemon.Orchestrator().Reset(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.SessionResponse{Session: api.FromSession(sess)})
}

func (s *apiServer) handleVideo(w http.ResponseWriter, r *http.Request) {
	rc, err := s.daemon.store.Open(r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", "video/mp4")
	w.Header().Set("Cache-Control", "no-store")
	if _, err := io.Copy(w, rc); err != nil {
		s.log().Warn("video stream interrupted", logging.Error(err))
	}
}

func (s *apiServer) handleNotifyTest(w http.ResponseWriter, r *http.Request) {
	sent, message, err := s.daemon.TestNotification(r.Context())
	if err != nil {
		s.log().Warn("notification test failed", logging.Error(err))
	}
	s.writeJSON(w, http.StatusOK, api.NotifyTestResponse{Sent: sent, Message: message})
}

func (s *apiServer) writeServiceError(w http.ResponseWriter, err error) {
	s.writeError(w, api.StatusFromError(err), services.Message(err))
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log().Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

func (s *apiServer) log() *slog.Logger {
	if s.logger != nil {
		return s.logger.With(logging.String(logging.FieldComponent, "api-server"))
	}
	return logging.NewNop()
}
