package auth

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
)

const minPasswordLen = 8

var errBadRequest = errors.New("bad request")

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type registerRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
}

func (r *registerRequest) validate() string {
	r.Email = strings.TrimSpace(r.Email)
	r.DisplayName = strings.TrimSpace(r.DisplayName)
	switch {
	case r.Email == "" || r.Password == "" || r.DisplayName == "":
		return "email, password, and displayName are required"
	case len(r.Password) < minPasswordLen:
		return "password must be at least 8 characters"
	}
	return ""
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *loginRequest) validate() string {
	r.Email = strings.TrimSpace(r.Email)
	if r.Email == "" || r.Password == "" {
		return "email and password are required"
	}
	return ""
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decode(w, r, &req) {
		return
	}

	result, err := h.service.Register(r.Context(), req.Email, req.Password, req.DisplayName)
	if err != nil {
		handleServiceError(w, err, "register", "email", req.Email)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decode(w, r, &req) {
		return
	}

	result, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		handleServiceError(w, err, "login")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Me returns the authenticated user.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.GetUser(r.Context(), UserIDFromContext(r.Context()))
	if err != nil {
		handleServiceError(w, err, "get user")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// decode reads a JSON body into req and validates it, answering 400 itself
// when either fails.
func decode[T interface{ validate() string }](w http.ResponseWriter, r *http.Request, req T) bool {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		writeError(w, errBadRequest, "invalid request body")
		return false
	}
	if msg := req.validate(); msg != "" {
		writeError(w, errBadRequest, msg)
		return false
	}
	return true
}

var statusFor = []struct {
	err    error
	status int
}{
	{errBadRequest, http.StatusBadRequest},
	{ErrEmailTaken, http.StatusConflict},
	{ErrInvalidCredentials, http.StatusUnauthorized},
	{ErrUserNotFound, http.StatusNotFound},
}

func handleServiceError(w http.ResponseWriter, err error, action string, attrs ...any) {
	if status, sentinel := statusOf(err); sentinel != nil {
		writeJSON(w, status, map[string]string{"error": sentinel.Error()})
		return
	}
	slog.Error(action+" failed", append([]any{"error", err}, attrs...)...)
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
}

// statusOf maps err to its HTTP status and the sentinel it wraps, or nil.
func statusOf(err error) (int, error) {
	for _, s := range statusFor {
		if errors.Is(err, s.err) {
			return s.status, s.err
		}
	}
	return http.StatusInternalServerError, nil
}

func writeError(w http.ResponseWriter, err error, msg string) {
	status, _ := statusOf(err)
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
