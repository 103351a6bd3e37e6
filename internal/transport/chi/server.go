// Package chi is the HTTP transport: route wiring, request decoding, error
// to status mapping and the JSON response shapes.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/dealspot-cloud/dealdex/internal/domain"
	dealuc "github.com/dealspot-cloud/dealdex/internal/usecase/deal"
	searchuc "github.com/dealspot-cloud/dealdex/internal/usecase/search"
)

// Error response codes.
const (
	codeBadRequest       = "bad_request"
	codeUnauthorized     = "unauthorized"
	codeValidationFailed = "validation_failed"
	codeDealNotFound     = "deal_not_found"
	codeForbidden        = "forbidden"
	codeIndexWriteFailed = "index_write_failed"
	codeSearchBackend    = "search_backend_error"
	codeInternalError    = "internal_error"
)

// errorResponse is the JSON error body.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// HealthChecker is a named backend connectivity probe.
type HealthChecker struct {
	Name  string
	Check func(r *http.Request) error
}

// Server holds the use case services and the error mapping chain.
type Server struct {
	deals         *dealuc.Service
	search        *searchuc.Service
	logger        *zap.Logger
	checks        []HealthChecker
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(deals *dealuc.Service, search *searchuc.Service, logger *zap.Logger, checks ...HealthChecker) *Server {
	s := &Server{
		deals:  deals,
		search: search,
		logger: logger,
		checks: checks,
	}
	s.errorHandlers = []errorHandler{
		notModifiedHandler,
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, codeDealNotFound),
		sentinelHandler(domain.ErrCategoryNotFound, http.StatusNotFound, codeDealNotFound),
		sentinelHandler(domain.ErrForbidden, http.StatusForbidden, codeForbidden),
		sentinelHandler(domain.ErrValidation, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrIndexWrite, http.StatusBadGateway, codeIndexWriteFailed),
		sentinelHandler(domain.ErrSearchBackend, http.StatusInternalServerError, codeSearchBackend),
	}
	return s
}

// Routes mounts all API routes on the router.
func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Route("/api/v1/deals", func(r chi.Router) {
		r.Post("/", s.CreateDeal)
		r.Get("/", s.ListDeals)
		r.Get("/search", s.SearchDeals)
		r.Get("/suggestions", s.SuggestDeals)
		r.Get("/latest", s.LatestDeals)
		r.Get("/most-liked", s.MostLikedDeals)
		r.Get("/count", s.CountDeals)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.GetDeal)
			r.Put("/", s.UpdateDeal)
			r.Delete("/", s.DeleteDeal)
			r.Patch("/", s.PatchDeal)
			r.Post("/votes", s.VoteDeal)
		})
	})
}

// CreateDeal handles POST /api/v1/deals.
func (s *Server) CreateDeal(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}

	var req dealRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	created, err := s.deals.Create(r.Context(), actor, req.toDomain())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	w.Header().Set("Location", "/api/v1/deals/"+created.ID)
	writeJSON(w, http.StatusCreated, dealToResponse(created))
}

// GetDeal handles GET /api/v1/deals/{id}. Every read counts as a view.
func (s *Server) GetDeal(w http.ResponseWriter, r *http.Request) {
	d, err := s.deals.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dealToResponse(d))
}

// UpdateDeal handles PUT /api/v1/deals/{id}.
func (s *Server) UpdateDeal(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}

	var req dealRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	d := req.toDomain()
	d.ID = chi.URLParam(r, "id")
	updated, err := s.deals.Update(r.Context(), actor, d)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dealToResponse(updated))
}

// DeleteDeal handles DELETE /api/v1/deals/{id}.
func (s *Server) DeleteDeal(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}

	if err := s.deals.Delete(r.Context(), actor, chi.URLParam(r, "id")); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PatchDeal handles PATCH /api/v1/deals/{id} with an RFC 6902 body.
func (s *Server) PatchDeal(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}

	body, err := readBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	patched, err := s.deals.Patch(r.Context(), actor, chi.URLParam(r, "id"), body)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dealToResponse(patched))
}

// VoteDeal handles POST /api/v1/deals/{id}/votes.
func (s *Server) VoteDeal(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}

	var req voteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	d, err := s.deals.Vote(r.Context(), actor, chi.URLParam(r, "id"), domain.VoteType(req.Vote))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dealToResponse(d))
}

// ListDeals handles GET /api/v1/deals filtered by category prefix or store.
func (s *Server) ListDeals(w http.ResponseWriter, r *http.Request) {
	page := parsePage(r)

	var (
		deals []*domain.Deal
		err   error
	)
	switch {
	case r.URL.Query().Get("category") != "":
		deals, err = s.deals.ByCategory(r.Context(), r.URL.Query().Get("category"), page)
	case r.URL.Query().Get("storeId") != "":
		deals, err = s.deals.ByStore(r.Context(), r.URL.Query().Get("storeId"), page)
	default:
		deals, err = s.deals.Latest(r.Context(), page)
	}
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dealListResponse(deals))
}

// LatestDeals handles GET /api/v1/deals/latest.
func (s *Server) LatestDeals(w http.ResponseWriter, r *http.Request) {
	deals, err := s.deals.Latest(r.Context(), parsePage(r))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dealListResponse(deals))
}

// MostLikedDeals handles GET /api/v1/deals/most-liked.
func (s *Server) MostLikedDeals(w http.ResponseWriter, r *http.Request) {
	deals, err := s.deals.MostLiked(r.Context(), parsePage(r))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dealListResponse(deals))
}

// CountDeals handles GET /api/v1/deals/count?postedBy=|storeId=.
func (s *Server) CountDeals(w http.ResponseWriter, r *http.Request) {
	var (
		count int64
		err   error
	)
	switch {
	case r.URL.Query().Get("postedBy") != "":
		count, err = s.deals.CountByPoster(r.Context(), r.URL.Query().Get("postedBy"))
	case r.URL.Query().Get("storeId") != "":
		count, err = s.deals.CountByStore(r.Context(), r.URL.Query().Get("storeId"))
	default:
		writeError(w, http.StatusBadRequest, codeBadRequest, "postedBy or storeId query parameter is required")
		return
	}
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"count": count})
}

// SearchDeals handles GET /api/v1/deals/search.
func (s *Server) SearchDeals(w http.ResponseWriter, r *http.Request) {
	params, err := parseSearchParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, err.Error())
		return
	}

	res, err := s.search.Search(r.Context(), params, parsePage(r))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, searchToResponse(res))
}

// SuggestDeals handles GET /api/v1/deals/suggestions.
func (s *Server) SuggestDeals(w http.ResponseWriter, r *http.Request) {
	titles, err := s.search.Suggest(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	if titles == nil {
		titles = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"suggestions": titles})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	httpStatus := http.StatusOK
	checks := make(map[string]string, len(s.checks))
	for _, c := range s.checks {
		if err := c.Check(r); err != nil {
			checks[c.Name] = "unhealthy"
			status = "unhealthy"
			httpStatus = http.StatusServiceUnavailable
			continue
		}
		checks[c.Name] = "healthy"
	}
	writeJSON(w, httpStatus, map[string]any{
		"status": status,
		"checks": checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func (s *Server) requireActor(w http.ResponseWriter, r *http.Request) (string, bool) {
	actor, ok := ActorFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, codeUnauthorized, "authentication required")
		return "", false
	}
	return actor, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

// safeDomainMessage returns a sentinel error message for the client without
// exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrNotFound,
		domain.ErrCategoryNotFound,
		domain.ErrForbidden,
		domain.ErrAlreadyVoted,
		domain.ErrValidation,
		domain.ErrIndexWrite,
		domain.ErrSearchBackend,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// notModifiedHandler maps a repeated vote to 304: the state already holds, so
// there is nothing to change and no body to send.
func notModifiedHandler(w http.ResponseWriter, err error, _ string) bool {
	if !errors.Is(err, domain.ErrAlreadyVoted) {
		return false
	}
	w.WriteHeader(http.StatusNotModified)
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
