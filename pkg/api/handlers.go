package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/meridianhq/gatehouse/pkg/auth"
	"github.com/meridianhq/gatehouse/pkg/contextkeys"
	"github.com/meridianhq/gatehouse/pkg/httputil"
	"github.com/meridianhq/gatehouse/pkg/middleware"
	"github.com/meridianhq/gatehouse/pkg/observability"
	"github.com/meridianhq/gatehouse/pkg/policy"
	"github.com/meridianhq/gatehouse/pkg/store"
)

// CredentialStore is the persistence surface the auth endpoints need.
type CredentialStore interface {
	Authenticate(ctx context.Context, account, password string) (*auth.Principal, error)
	Get(ctx context.Context, id int64) (*auth.Principal, error)
	Create(ctx context.Context, account, name, password string) (int64, error)
}

// TokenIssuer mints bearer tokens for authenticated principals.
type TokenIssuer interface {
	Issue(p auth.Principal) (string, error)
}

// SessionManager tracks which principals hold a live session.
type SessionManager interface {
	Create(ctx context.Context, p *auth.Principal) error
	Invalidate(ctx context.Context, principalID int64) error
}

// Handlers serves the login, logout, register and profile endpoints.
type Handlers struct {
	principals CredentialStore
	tokens     TokenIssuer
	sessions   SessionManager
	logger     *observability.Logger
}

// NewHandlers creates the auth endpoint handlers.
func NewHandlers(principals CredentialStore, tokens TokenIssuer, sessions SessionManager, logger *observability.Logger) *Handlers {
	return &Handlers{
		principals: principals,
		tokens:     tokens,
		sessions:   sessions,
		logger:     logger,
	}
}

// DescribeFailure is the response served when a handler panics.
func (h *Handlers) DescribeFailure() httputil.Envelope {
	return httputil.FailCode(uint(http.StatusInternalServerError), "internal server error")
}

// RegisterRoutes mounts the auth endpoints. Guarded routes are wrapped by
// guard, which receives the route's access requirement.
func (h *Handlers) RegisterRoutes(router *mux.Router, guard func(policy.Requirement) middleware.Middleware) {
	router.HandleFunc("/auth/login", h.Login).Methods("POST")
	router.HandleFunc("/auth/register", h.Register).Methods("POST")
	router.Handle("/auth/logout",
		guard(policy.Requirement{})(http.HandlerFunc(h.Logout))).Methods("POST")
	router.Handle("/auth/me",
		guard(policy.Requirement{})(http.HandlerFunc(h.Me))).Methods("GET")
}

type loginRequest struct {
	Account  string `json:"account"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string          `json:"token"`
	Principal *auth.Principal `json:"principal"`
}

// Login verifies credentials, opens a session and returns a bearer token.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !httputil.ParseJSONOrFail(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, req.Account, "account") ||
		!httputil.RequireNonEmpty(w, req.Password, "password") {
		return
	}

	p, err := h.principals.Authenticate(r.Context(), req.Account, req.Password)
	if errors.Is(err, store.ErrBadCredentials) {
		httputil.WriteFail(w, "invalid account or password")
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("login lookup failed")
		httputil.WriteFailCode(w, uint(http.StatusInternalServerError), "internal server error")
		return
	}

	token, err := h.tokens.Issue(*p)
	if err != nil {
		h.logger.WithError(err).Error("token issue failed")
		httputil.WriteFailCode(w, uint(http.StatusInternalServerError), "internal server error")
		return
	}
	if err := h.sessions.Create(r.Context(), p); err != nil {
		h.logger.WithError(err).Error("session create failed")
		httputil.WriteFailCode(w, uint(http.StatusServiceUnavailable), "session store unavailable")
		return
	}

	p.Token = token
	httputil.WriteOK(w, loginResponse{Token: token, Principal: p})
}

type registerRequest struct {
	Account  string `json:"account"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// Register creates a new account.
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !httputil.ParseJSONOrFail(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, req.Account, "account") ||
		!httputil.RequireNonEmpty(w, req.Password, "password") {
		return
	}

	id, err := h.principals.Create(r.Context(), req.Account, req.Name, req.Password)
	if err != nil {
		h.logger.WithError(err).Error("register failed")
		httputil.WriteFailCode(w, uint(http.StatusInternalServerError), "internal server error")
		return
	}
	httputil.WriteOK(w, map[string]int64{"id": id})
}

// Logout closes the caller's session. The guard chain guarantees an
// authenticated principal is present.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	p := contextkeys.PrincipalFrom(r.Context())
	if err := h.sessions.Invalidate(r.Context(), p.ID); err != nil {
		h.logger.WithError(err).Error("session invalidate failed")
		httputil.WriteFailCode(w, uint(http.StatusServiceUnavailable), "session store unavailable")
		return
	}
	httputil.WriteOK(w, nil)
}

// Me returns the authenticated principal's fresh profile.
func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	p := contextkeys.PrincipalFrom(r.Context())
	fresh, err := h.principals.Get(r.Context(), p.ID)
	if errors.Is(err, store.ErrNotFound) {
		httputil.WriteFailCode(w, uint(http.StatusNotFound), "principal not found")
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("profile lookup failed")
		httputil.WriteFailCode(w, uint(http.StatusInternalServerError), "internal server error")
		return
	}
	httputil.WriteOK(w, fresh)
}
