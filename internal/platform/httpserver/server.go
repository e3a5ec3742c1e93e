package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	approvalworkflow "creativehub/contexts/creative-review/approval-workflow"
	httpadapter "creativehub/contexts/creative-review/approval-workflow/adapters/http"
	"creativehub/contexts/creative-review/approval-workflow/domain/entities"
	domainerrors "creativehub/contexts/creative-review/approval-workflow/domain/errors"
	httptransport "creativehub/contexts/creative-review/approval-workflow/transport/http"
	"creativehub/internal/platform/observability"

	"github.com/moogar0880/problems"
	httpSwagger "github.com/swaggo/http-swagger"
	"github.com/ulule/limiter/v3"

	_ "creativehub/internal/platform/httpserver/docs"
)

const (
	problemContentType  = "application/problem+json"
	maxBodyBytes        = 64 << 10
	transientRetryAfter = "1"
)

type Server struct {
	mux      *http.ServeMux
	logger   *slog.Logger
	addr     string
	workflow approvalworkflow.Module
	metrics  *observability.Metrics
	limiter  *limiter.Limiter
	srv      *http.Server
}

type Options struct {
	Addr    string
	Metrics *observability.Metrics
	// Limiter throttles command routes per caller. Nil disables throttling.
	Limiter *limiter.Limiter
}

func New(workflow approvalworkflow.Module, logger *slog.Logger, opts Options) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	addr := opts.Addr
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:      http.NewServeMux(),
		logger:   logger,
		addr:     addr,
		workflow: workflow,
		metrics:  opts.Metrics,
		limiter:  opts.Limiter,
	}
	s.registerRoutes()
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	if s.metrics != nil {
		s.mux.Handle("GET /metrics", s.metrics.Handler())
	}

	s.route("POST /v1/creative-requests", s.throttled(s.handleSubmitRequest))
	s.route("GET /v1/creative-requests", s.handleListRequests)
	s.route("GET /v1/creative-requests/{request_id}", s.handleGetRequest)
	s.route("GET /v1/creative-requests/{request_id}/history", s.handleGetHistory)
	for _, op := range []entities.Operation{
		entities.OperationApprove,
		entities.OperationReject,
		entities.OperationForward,
		entities.OperationReturn,
	} {
		s.route("POST /v1/creative-requests/{request_id}/"+string(op), s.throttled(s.transitionHandler(op)))
	}
}

// route registers fn and counts responses by pattern.
func (s *Server) route(pattern string, fn http.HandlerFunc) {
	s.mux.Handle(pattern, s.instrument(pattern, fn))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSubmitRequest(w http.ResponseWriter, r *http.Request) {
	var req httptransport.SubmitRequestRequest
	if !decodeBody(w, r, &req, false) {
		return
	}
	resp, err := s.workflow.Handler.SubmitRequestHandler(r.Context(), req)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListRequests(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	req := httptransport.ListRequestsRequest{
		Status:        query.Get("status"),
		ApprovalStage: query.Get("approval_stage"),
		Search:        query.Get("search"),
		AdvertiserID:  query.Get("advertiser_id"),
		PublisherID:   query.Get("publisher_id"),
		ReviewedBy:    query.Get("reviewed_by"),
		SortBy:        query.Get("sort_by"),
		Order:         query.Get("order"),
	}
	for name, target := range map[string]*int{"page": &req.Page, "limit": &req.Limit} {
		raw := query.Get(name)
		if raw == "" {
			continue
		}
		value, err := strconv.Atoi(raw)
		if err != nil {
			writeProblem(w, r, http.StatusBadRequest, "invalid_"+name, name+" must be an integer")
			return
		}
		*target = value
	}

	resp, err := s.workflow.Handler.ListRequestsHandler(r.Context(), req)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	resp, err := s.workflow.Handler.GetRequestHandler(r.Context(), actorFrom(r), r.PathValue("request_id"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	resp, err := s.workflow.Handler.GetHistoryHandler(r.Context(), r.PathValue("request_id"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) transitionHandler(op entities.Operation) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor := actorFrom(r)
		if actor.UserID == "" {
			writeProblem(w, r, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
			return
		}
		if actor.Role == "" {
			writeProblem(w, r, http.StatusUnauthorized, "missing_role", "X-User-Role header is required")
			return
		}

		var req httptransport.TransitionRequest
		if !decodeBody(w, r, &req, true) {
			return
		}
		resp, err := s.workflow.Handler.TransitionHandler(r.Context(), actor, r.PathValue("request_id"), string(op), req)
		if err != nil {
			s.writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func actorFrom(r *http.Request) httpadapter.Actor {
	return httpadapter.Actor{
		UserID: strings.TrimSpace(r.Header.Get("X-User-Id")),
		Role:   strings.TrimSpace(r.Header.Get("X-User-Role")),
	}
}

// decodeBody writes a 400 and reports false when the body is not valid JSON.
// An empty body is accepted only when optional is set.
func decodeBody(w http.ResponseWriter, r *http.Request, target any, optional bool) bool {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		if optional && errors.Is(err, io.EOF) {
			return true
		}
		writeProblem(w, r, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return false
	}
	return true
}

func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domainerrors.ErrRequestNotFound):
		writeProblem(w, r, http.StatusNotFound, "request_not_found", err.Error())
	case errors.Is(err, domainerrors.ErrInvalidStateTransition):
		writeProblem(w, r, http.StatusConflict, "invalid_state_transition", err.Error())
	case errors.Is(err, domainerrors.ErrDuplicateRequest):
		writeProblem(w, r, http.StatusConflict, "duplicate_request", err.Error())
	case errors.Is(err, domainerrors.ErrValidation):
		writeProblem(w, r, http.StatusBadRequest, "validation_error", err.Error())
	case domainerrors.IsRetryable(err):
		w.Header().Set("Retry-After", transientRetryAfter)
		writeProblem(w, r, http.StatusServiceUnavailable, "transient_store_error", "the request is busy or the store is unavailable, retry shortly")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeProblem(w, r, http.StatusServiceUnavailable, "request_cancelled", err.Error())
	default:
		s.logger.Error("unhandled request error",
			"event", "http_request_failed",
			"module", "internal/platform/httpserver",
			"layer", "platform",
			"path", r.URL.Path,
			"error", err.Error(),
		)
		writeProblem(w, r, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeProblem(w http.ResponseWriter, r *http.Request, status int, problemType string, detail string) {
	problem := problems.NewStatusProblem(status).
		WithInstance(r.URL.Path).
		WithType(problemType).
		WithDetail(detail)
	w.Header().Set("Content-Type", problemContentType)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(problem)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
