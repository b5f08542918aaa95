package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/tissuesalts/internal/common"
	"github.com/dmitrijs2005/tissuesalts/internal/server/services"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenRequest struct {
	Token string `json:"token"`
}

type saveAssessmentRequest struct {
	Token       string          `json:"token"`
	ServiceType string          `json:"service_type"`
	AgeGroup    string          `json:"age_group"`
	Answers     json.RawMessage `json:"answers"`
	Results     json.RawMessage `json:"results"`
	OrderNumber string          `json:"order_number"`
}

type identityResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token,omitempty"`
	Email   string `json:"email"`
	UserID  int64  `json:"user_id"`
}

type saveAssessmentResponse struct {
	Success      bool  `json:"success"`
	AssessmentID int64 `json:"assessment_id"`
}

type assessmentView struct {
	ID          int64           `json:"id"`
	ServiceType string          `json:"service_type"`
	AgeGroup    string          `json:"age_group"`
	Answers     json.RawMessage `json:"answers"`
	Results     json.RawMessage `json:"results"`
	OrderNumber string          `json:"order_number"`
	CreatedAt   string          `json:"created_at"`
}

type assessmentsResponse struct {
	Success     bool             `json:"success"`
	Assessments []assessmentView `json:"assessments"`
}

type successResponse struct {
	Success bool `json:"success"`
}

type healthResponse struct {
	Status string `json:"status"`
}

// decodeBody reads a JSON object into v. An empty body decodes as {}.
func decodeBody(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// requestToken prefers the body field and falls back to a bearer header.
func requestToken(r *http.Request, bodyToken string) string {
	if bodyToken != "" {
		return bodyToken
	}
	h := r.Header.Get(common.AuthorizationHeaderName)
	if strings.HasPrefix(h, common.BearerPrefix) {
		return strings.TrimSpace(h[len(common.BearerPrefix):])
	}
	return ""
}

// internalError logs err and answers with a generic 500.
func (s *Server) internalError(w http.ResponseWriter, r *http.Request, err error) {
	s.requestLogger(r).Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	writeError(w, http.StatusInternalServerError, internalErrorMessage)
}

func (s *Server) unauthorized(w http.ResponseWriter, r *http.Request, msg string) {
	s.metrics.AuthFailures.WithLabelValues(routeLabel(r.URL.Path)).Inc()
	writeError(w, http.StatusUnauthorized, msg)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != routeIndex {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	http.ServeFile(w, r, s.indexPage)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Email and password required")
		return
	}

	id, err := s.credentials.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrorValidation):
			writeError(w, http.StatusBadRequest, "Email and password required")
		case errors.Is(err, common.ErrorAlreadyExists):
			writeError(w, http.StatusBadRequest, "Email already registered")
		default:
			s.internalError(w, r, err)
		}
		return
	}

	s.requestLogger(r).Info(r.Context(), "Registered", "user_id", id.UserID)
	writeJSON(w, http.StatusOK, identityResponse{Success: true, Token: id.Token, Email: id.Email, UserID: id.UserID})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Email and password required")
		return
	}

	id, err := s.credentials.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrorValidation):
			writeError(w, http.StatusBadRequest, "Email and password required")
		case errors.Is(err, common.ErrorUnauthorized):
			s.unauthorized(w, r, "Invalid credentials")
		default:
			s.internalError(w, r, err)
		}
		return
	}

	writeJSON(w, http.StatusOK, identityResponse{Success: true, Token: id.Token, Email: id.Email, UserID: id.UserID})
}

func (s *Server) handleVerifySession(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	token := requestToken(r, req.Token)
	if token == "" {
		writeError(w, http.StatusBadRequest, "Token required")
		return
	}

	id, err := s.sessions.Verify(r.Context(), token)
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			s.unauthorized(w, r, "Invalid session")
			return
		}
		s.internalError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, identityResponse{Success: true, Email: id.Email, UserID: id.UserID})
}

func (s *Server) handleSaveAssessment(w http.ResponseWriter, r *http.Request) {
	var req saveAssessmentRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	token := requestToken(r, req.Token)
	if token == "" {
		s.unauthorized(w, r, "Authentication required")
		return
	}

	assessmentID, err := s.assessments.Save(r.Context(), token, services.AssessmentInput{
		ServiceType: req.ServiceType,
		AgeGroup:    req.AgeGroup,
		Answers:     req.Answers,
		Results:     req.Results,
		OrderNumber: req.OrderNumber,
	})
	if err != nil {
		switch {
		case errors.Is(err, common.ErrorUnauthorized):
			s.unauthorized(w, r, "Invalid session")
		case errors.Is(err, common.ErrorValidation):
			writeError(w, http.StatusBadRequest, "Invalid JSON")
		default:
			s.internalError(w, r, err)
		}
		return
	}

	writeJSON(w, http.StatusOK, saveAssessmentResponse{Success: true, AssessmentID: assessmentID})
}

func (s *Server) handleGetAssessments(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	token := requestToken(r, req.Token)
	if token == "" {
		s.unauthorized(w, r, "Authentication required")
		return
	}

	list, err := s.assessments.ListForToken(r.Context(), token)
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			s.unauthorized(w, r, "Invalid session")
			return
		}
		s.internalError(w, r, err)
		return
	}

	views := make([]assessmentView, 0, len(list))
	for _, a := range list {
		views = append(views, assessmentView{
			ID:          a.ID,
			ServiceType: a.ServiceType,
			AgeGroup:    a.AgeGroup,
			Answers:     a.Answers,
			Results:     a.Results,
			OrderNumber: a.OrderNumber,
			CreatedAt:   a.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	writeJSON(w, http.StatusOK, assessmentsResponse{Success: true, Assessments: views})
}

// handleLogout always succeeds; the body is optional and may be malformed.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	_ = decodeBody(r, &req)

	if token := requestToken(r, req.Token); token != "" {
		if err := s.sessions.Destroy(r.Context(), token); err != nil {
			s.requestLogger(r).Warn(r.Context(), "logout failed", "error", err)
		}
	}

	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.PingContext(r.Context()); err != nil {
		s.requestLogger(r).Error(r.Context(), "store ping failed", "error", err)
		writeError(w, http.StatusServiceUnavailable, "store unavailable")
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}
