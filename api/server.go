// Package api serves the registration wizard and the merchant review
// dashboard over HTTP.
package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"warranty-registration/models"
	"warranty-registration/review"
	"warranty-registration/wizard"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	lru "github.com/hashicorp/golang-lru"
	"go.uber.org/zap"
)

// ErrSessionNotFound is returned for an unknown or evicted dashboard session
var ErrSessionNotFound = errors.New("dashboard session not found")

// Options configures a Server
type Options struct {
	Registrations Registrations
	Store         review.Store
	Decider       Decider
	Branding      models.Branding
	// SessionCache bounds how many dashboard sessions are kept; the least
	// recently used is dropped first
	SessionCache int
	Logger       *zap.Logger
}

// Server is the HTTP front end
type Server struct {
	router        *mux.Router
	registrations Registrations
	store         review.Store
	decider       Decider
	branding      models.Branding
	sessions      *lru.Cache
	logger        *zap.Logger
}

// NewServer wires the routes
func NewServer(opts Options) (*Server, error) {
	sessions, err := lru.New(opts.SessionCache)
	if err != nil {
		return nil, fmt.Errorf("failed to create session cache: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		router:        mux.NewRouter(),
		registrations: opts.Registrations,
		store:         opts.Store,
		decider:       opts.Decider,
		branding:      opts.Branding,
		sessions:      sessions,
		logger:        logger,
	}
	s.routes()
	return s, nil
}

// Handler returns the root handler
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	r := s.router
	r.Use(s.logRequests)

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)
	r.HandleFunc("/api/branding", s.getBranding).Methods(http.MethodGet)

	r.HandleFunc("/api/registrations", s.startRegistration).Methods(http.MethodPost)
	r.HandleFunc("/api/registrations/{id}", s.getRegistration).Methods(http.MethodGet)
	r.HandleFunc("/api/registrations/{id}/fields/{field}", s.editField).Methods(http.MethodPut)
	r.HandleFunc("/api/registrations/{id}/language", s.setLanguage).Methods(http.MethodPut)
	r.HandleFunc("/api/registrations/{id}/submit", s.submit).Methods(http.MethodPost)
	r.HandleFunc("/api/registrations/{id}/close", s.closeRegistration).Methods(http.MethodPost)
	r.HandleFunc("/verify/{id}/{token}", s.verify).Methods(http.MethodGet)

	r.HandleFunc("/api/requests", s.listRequests).Methods(http.MethodGet)
	r.HandleFunc("/api/dashboard", s.openDashboard).Methods(http.MethodPost)
	r.HandleFunc("/api/dashboard/{sid}", s.getDashboard).Methods(http.MethodGet)
	r.HandleFunc("/api/dashboard/{sid}/filter", s.setDashboardFilter).Methods(http.MethodPut)
	r.HandleFunc("/api/dashboard/{sid}/select-all", s.selectAll).Methods(http.MethodPost)
	r.HandleFunc("/api/dashboard/{sid}/toggle/{rid}", s.toggle).Methods(http.MethodPost)
	r.HandleFunc("/api/dashboard/{sid}/approve", s.bulk(models.RequestStatusApproved)).Methods(http.MethodPost)
	r.HandleFunc("/api/dashboard/{sid}/reject", s.bulk(models.RequestStatusRejected)).Methods(http.MethodPost)
}

func (s *Server) getBranding(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.branding)
}

// RegistrationResponse is the body returned by every registration route
type RegistrationResponse struct {
	ID    string             `json:"id"`
	Stage models.WizardStage `json:"stage,omitempty"`
	View  wizard.View        `json:"view"`
}

func registrationResponse(id string, state models.WizardState) RegistrationResponse {
	return RegistrationResponse{ID: id, Stage: state.Stage, View: wizard.Render(state)}
}

type startRequest struct {
	Language models.Language `json:"language"`
}

func (s *Server) startRegistration(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	if req.Language == "" {
		req.Language = s.branding.DefaultLanguage
	}
	if !req.Language.Valid() {
		s.writeError(w, r, fmt.Errorf("%w: unsupported language %q", ErrInvalidInput, req.Language))
		return
	}

	id, err := s.registrations.Start(r.Context(), req.Language)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, registrationResponse(id, wizard.NewState(req.Language)))
}

func (s *Server) getRegistration(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	state, err := s.registrations.State(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, registrationResponse(id, state))
}

type fieldRequest struct {
	Value string `json:"value"`
}

func (s *Server) editField(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	var req fieldRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	state, err := s.registrations.EditField(r.Context(), vars["id"], models.FieldEdit{
		Field: models.Field(vars["field"]),
		Value: req.Value,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, registrationResponse(vars["id"], state))
}

type languageRequest struct {
	Language models.Language `json:"language"`
}

func (s *Server) setLanguage(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req languageRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	state, err := s.registrations.SetLanguage(r.Context(), id, req.Language)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, registrationResponse(id, state))
}

func (s *Server) submit(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	state, err := s.registrations.Submit(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	// validation errors are part of the rendered view, not a failed request
	writeJSON(w, http.StatusOK, registrationResponse(id, state))
}

func (s *Server) closeRegistration(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.registrations.Close(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, registrationResponse(id, models.WizardState{Closed: true}))
}

func (s *Server) verify(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := s.registrations.ConfirmVerification(r.Context(), vars["id"], vars["token"]); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "verification received"})
}

func (s *Server) listRequests(w http.ResponseWriter, r *http.Request) {
	filter, ok := models.ParseStatusFilter(r.URL.Query().Get("status"))
	if !ok {
		s.writeError(w, r, fmt.Errorf("%w: %q", review.ErrInvalidStatus, r.URL.Query().Get("status")))
		return
	}

	requests, err := s.store.List(r.Context(), review.Query{Status: filter, Search: r.URL.Query().Get("q")})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if requests == nil {
		requests = []models.WarrantyRequest{}
	}
	writeJSON(w, http.StatusOK, requests)
}

// DashboardResponse is the body returned by every dashboard route
type DashboardResponse struct {
	SessionID string `json:"sessionId"`
	review.DashboardView
	Updated *int `json:"updated,omitempty"`
}

func (s *Server) openDashboard(w http.ResponseWriter, r *http.Request) {
	sid := uuid.NewString()
	dashboard := review.NewDashboard(decisionStore{
		Store:     s.store,
		decider:   s.decider,
		decidedBy: sid,
	})
	s.sessions.Add(sid, dashboard)

	s.writeDashboard(w, r, http.StatusCreated, sid, dashboard, nil)
}

func (s *Server) getDashboard(w http.ResponseWriter, r *http.Request) {
	sid, dashboard, err := s.dashboard(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeDashboard(w, r, http.StatusOK, sid, dashboard, nil)
}

type filterRequest struct {
	Status *string `json:"status"`
	Search *string `json:"search"`
}

func (s *Server) setDashboardFilter(w http.ResponseWriter, r *http.Request) {
	sid, dashboard, err := s.dashboard(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var req filterRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Status != nil {
		filter, ok := models.ParseStatusFilter(*req.Status)
		if !ok {
			s.writeError(w, r, fmt.Errorf("%w: %q", review.ErrInvalidStatus, *req.Status))
			return
		}
		dashboard.SetFilter(filter)
	}
	if req.Search != nil {
		dashboard.SetSearch(*req.Search)
	}
	s.writeDashboard(w, r, http.StatusOK, sid, dashboard, nil)
}

func (s *Server) selectAll(w http.ResponseWriter, r *http.Request) {
	sid, dashboard, err := s.dashboard(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if _, err := dashboard.SelectAll(r.Context()); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeDashboard(w, r, http.StatusOK, sid, dashboard, nil)
}

func (s *Server) toggle(w http.ResponseWriter, r *http.Request) {
	sid, dashboard, err := s.dashboard(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	rid := mux.Vars(r)["rid"]
	if _, err := s.store.Get(r.Context(), rid); err != nil {
		s.writeError(w, r, err)
		return
	}
	dashboard.ToggleSelect(rid)
	s.writeDashboard(w, r, http.StatusOK, sid, dashboard, nil)
}

func (s *Server) bulk(status models.RequestStatus) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sid, dashboard, err := s.dashboard(r)
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		apply := dashboard.BulkApprove
		if status == models.RequestStatusRejected {
			apply = dashboard.BulkReject
		}
		updated, err := apply(r.Context())
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		s.logger.Info("bulk review decision applied",
			zap.String("session", sid),
			zap.String("status", string(status)),
			zap.Int("updated", updated),
		)
		s.writeDashboard(w, r, http.StatusOK, sid, dashboard, &updated)
	}
}

func (s *Server) dashboard(r *http.Request) (string, *review.Dashboard, error) {
	sid := mux.Vars(r)["sid"]
	v, ok := s.sessions.Get(sid)
	if !ok {
		return sid, nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sid)
	}
	return sid, v.(*review.Dashboard), nil
}

func (s *Server) writeDashboard(w http.ResponseWriter, r *http.Request, status int, sid string, dashboard *review.Dashboard, updated *int) {
	view, err := dashboard.View(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if view.Requests == nil {
		view.Requests = []models.WarrantyRequest{}
	}
	writeJSON(w, status, DashboardResponse{SessionID: sid, DashboardView: view, Updated: updated})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		s.logger.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
