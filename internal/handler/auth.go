package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/rs/xid"

	"github.com/macromates/nutribuddy/internal/apperror"
	"github.com/macromates/nutribuddy/internal/auth"
	"github.com/macromates/nutribuddy/internal/model"
	"github.com/macromates/nutribuddy/internal/service"
)

const stateCookieName = "oauth_state"

// AuthHandler manages sign-in, sign-out and the current session.
//
// HANDLER RESPONSIBILITIES:
//   - HandleLogin          → check email + password, issue the session token
//   - HandleGitHubLogin    → redirect the browser to GitHub's authorization page
//   - HandleGitHubCallback → exchange the code, find the linked account, issue the token
//   - HandleLogout         → clear the session cookie
//   - HandleMe             → return the signed-in account
//
// The token goes both into an HttpOnly cookie (browsers) and into the
// response body (scripts that send "Authorization: Bearer").
type AuthHandler struct {
	auth   *service.AuthService
	github *auth.GitHubProvider // nil when GitHub sign-in is not configured
	tokens *auth.TokenService
	logger *slog.Logger
}

func NewAuthHandler(
	authService *service.AuthService,
	github *auth.GitHubProvider,
	tokens *auth.TokenService,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		auth:   authService,
		github: github,
		tokens: tokens,
		logger: logger,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string         `json:"token"`
	ExpiresIn int            `json:"expires_in"` // seconds
	Account   *model.Account `json:"account"`
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.tokens.TTL().Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// HandleLogin signs in with email and password.
//
// HTTP: POST /auth/login
// REQUEST BODY: {"email": "nina@example.com", "password": "..."}
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	res, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	h.setSessionCookie(w, res.Token)
	writeJSON(w, http.StatusOK, loginResponse{
		Token:     res.Token,
		ExpiresIn: int(h.tokens.TTL().Seconds()),
		Account:   res.Account,
	})
}

// HandleGitHubLogin redirects the user to GitHub's authorization page.
//
// HTTP: GET /auth/github/login
//
// CSRF PROTECTION VIA STATE:
// A random state value goes into a short-lived cookie and into the GitHub
// URL. The callback only proceeds when both match.
func (h *AuthHandler) HandleGitHubLogin(w http.ResponseWriter, r *http.Request) {
	state := xid.New().String()

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.github.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleGitHubCallback completes the GitHub flow.
//
// HTTP: GET /auth/github/callback?code=xxx&state=yyy
//
// FLOW:
//  1. Validate the state parameter (CSRF check)
//  2. Exchange the code for a GitHub profile
//  3. Find the account linked to it (or link one by email)
//  4. Issue the session cookie and redirect to the app
//
// A GitHub user without a provisioned account is sent back with
// ?auth=unknown; sign-in never creates accounts.
func (h *AuthHandler) HandleGitHubCallback(w http.ResponseWriter, r *http.Request) {
	stateCookie, err := r.Cookie(stateCookieName)
	if err != nil || stateCookie.Value == "" || r.URL.Query().Get("state") != stateCookie.Value {
		h.logger.Warn("auth callback: missing or mismatched state")
		writeError(w, r, h.logger, apperror.ValidationFailed("state", "invalid OAuth state"))
		return
	}

	// The state is single-use.
	http.SetCookie(w, &http.Cookie{Name: stateCookieName, Value: "", Path: "/", MaxAge: -1})

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Info("auth callback: user denied authorization", slog.String("error", errParam))
		http.Redirect(w, r, "/?auth=denied", http.StatusSeeOther)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		writeError(w, r, h.logger, apperror.ValidationFailed("code", "missing OAuth code"))
		return
	}

	ghUser, err := h.github.Exchange(r.Context(), code)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	res, err := h.auth.LoginGitHub(r.Context(), ghUser)
	if err != nil {
		if errors.Is(err, apperror.ErrUnauthorized) {
			h.logger.Info("auth callback: no account for GitHub user", slog.String("login", ghUser.Login))
			http.Redirect(w, r, "/?auth=unknown", http.StatusSeeOther)
			return
		}
		writeError(w, r, h.logger, err)
		return
	}

	h.setSessionCookie(w, res.Token)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleLogout clears the session cookie. The token itself stays valid
// until it expires; without the cookie the browser no longer sends it.
//
// HTTP: POST /auth/logout
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, messageResponse{Message: "logged out"})
}

// HandleMe returns the signed-in account.
//
// HTTP: GET /auth/me
// Auth: Required (RequireAuth has already checked the principal)
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	var accountID string
	if p, ok := auth.PrincipalFromContext(r.Context()); ok {
		accountID = p.AccountID
	}

	account, err := h.auth.Me(r.Context(), accountID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

// AccountHandler lets a system administrator provision logins.
type AccountHandler struct {
	auth   *service.AuthService
	logger *slog.Logger
}

func NewAccountHandler(authService *service.AuthService, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{auth: authService, logger: logger}
}

// HTTP: GET /api/accounts
func (h *AccountHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.auth.ListAccounts(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, accounts)
}

type createAccountRequest struct {
	Email       string     `json:"email"`
	DisplayName string     `json:"display_name"`
	Role        model.Role `json:"role"`
	Password    string     `json:"password"`
	ClientID    *int64     `json:"client_id"`
}

// HTTP: POST /api/accounts
func (h *AccountHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	account, err := h.auth.CreateAccount(r.Context(), service.AccountInput{
		Email:       req.Email,
		DisplayName: req.DisplayName,
		Role:        req.Role,
		Password:    req.Password,
		ClientID:    req.ClientID,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, account)
}
