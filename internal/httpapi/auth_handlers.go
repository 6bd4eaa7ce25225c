package httpapi

import (
	"net/http"
	"strings"
	"time"

	"fundra.org/internal/audit"
	"fundra.org/internal/auth"
	"fundra.org/internal/portal"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Intern    portal.Intern `json:"intern"`
	Token     string        `json:"token,omitempty"`
	ExpiresAt *time.Time    `json:"expiresAt,omitempty"`
}

const sessionTTL = 24 * time.Hour

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid request data")
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || !strings.Contains(req.Email, "@") || req.Password == "" {
		writeError(w, r, http.StatusBadRequest, "Invalid request data")
		return
	}

	intern, err := a.portal.ValidateIntern(r.Context(), req.Email, req.Password)
	if err != nil {
		handlePortalError(w, r, err)
		return
	}

	resp := sessionResponse{Intern: intern}
	if auth.TokensConfigured() {
		token, err := auth.GenerateToken(intern.ID, sessionTTL)
		if err != nil {
			writeError(w, r, http.StatusInternalServerError, "Internal server error")
			return
		}
		expiresAt := time.Now().UTC().Add(sessionTTL)
		resp.Token = token
		resp.ExpiresAt = &expiresAt
	}

	ctx := auth.ContextWithIntern(r.Context(), intern.ID)
	_ = audit.LogEvent(ctx, "auth.intern.login", map[string]any{
		"email": intern.Email,
	})

	writeJSON(w, http.StatusOK, resp)
}

func (a *API) handleSignup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var req portal.NewIntern
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid request data")
		return
	}
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.Email = strings.TrimSpace(req.Email)
	if req.FirstName == "" || req.LastName == "" || req.Password == "" ||
		req.Email == "" || !strings.Contains(req.Email, "@") {
		writeError(w, r, http.StatusBadRequest, "Invalid request data")
		return
	}

	intern, err := a.portal.CreateIntern(r.Context(), req)
	if err != nil {
		handlePortalError(w, r, err)
		return
	}

	ctx := auth.ContextWithIntern(r.Context(), intern.ID)
	_ = audit.LogEvent(ctx, "auth.intern.signup", map[string]any{
		"email":         intern.Email,
		"referral_code": intern.ReferralCode,
	})

	writeJSON(w, http.StatusCreated, sessionResponse{Intern: intern})
}
