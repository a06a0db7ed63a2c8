// ABOUTME: Operator HTTP facade: JSON endpoints over the conversation store
// ABOUTME: Every request re-verifies a bearer JWT, no sessions and no cookies

package webadmin

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/2389/synapse-relay/internal/auth"
	"github.com/2389/synapse-relay/internal/store"
)

// historyPageLimit caps the turns returned per history request.
const historyPageLimit = 100

// AdminStore defines what the facade needs from the conversation store.
type AdminStore interface {
	ListProfiles() []store.ProfileSummary
	HistoryFor(userID int64, limit int) ([]store.Turn, error)
	DevMode() bool
	ToggleDevMode() bool
}

// Config holds web admin configuration
type Config struct {
	Verifier auth.TokenVerifier
	// Operator is the expected token subject. Empty accepts any subject
	// the verifier signs off on.
	Operator string
	Logger   *slog.Logger
}

// Admin serves the operator endpoints.
type Admin struct {
	store    AdminStore
	verifier auth.TokenVerifier
	operator string
	logger   *slog.Logger
}

// New creates the admin facade.
func New(st AdminStore, cfg Config) *Admin {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Admin{
		store:    st,
		verifier: cfg.Verifier,
		operator: cfg.Operator,
		logger:   logger.With("component", "webadmin"),
	}
}

// Routes returns the handler for all admin endpoints.
func (a *Admin) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /admin/users", a.requireAuth(a.handleUsersList))
	mux.HandleFunc("GET /admin/users/{id}/history", a.requireAuth(a.handleUserHistory))
	mux.HandleFunc("GET /admin/devmode", a.requireAuth(a.handleDevModeGet))
	mux.HandleFunc("POST /admin/devmode", a.requireAuth(a.handleDevModeToggle))

	return mux
}

// requireAuth wraps a handler with bearer token verification. The token is
// verified on every request.
func (a *Admin) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		operator, err := a.verifier.Verify(token)
		if err != nil {
			a.logger.Warn("rejected admin request",
				"path", r.URL.Path,
				"error", err)
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		if a.operator != "" && operator != a.operator {
			a.logger.Warn("rejected admin request",
				"path", r.URL.Path,
				"subject", operator)
			writeError(w, http.StatusForbidden, "unknown operator")
			return
		}

		a.logger.Debug("admin request",
			"operator", operator,
			"method", r.Method,
			"path", r.URL.Path)
		next(w, r)
	}
}

// handleUsersList returns all known user profiles.
func (a *Admin) handleUsersList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"users": a.store.ListProfiles(),
	})
}

// handleUserHistory returns the most recent turns for one user.
func (a *Admin) handleUserHistory(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	turns, err := a.store.HistoryFor(userID, historyPageLimit)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "unknown user")
			return
		}
		a.logger.Error("reading history failed", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user_id": userID,
		"turns":   turns,
	})
}

// handleDevModeGet reports the current dev mode flag.
func (a *Admin) handleDevModeGet(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"dev_mode": a.store.DevMode()})
}

// handleDevModeToggle flips the dev mode flag and reports the new state.
func (a *Admin) handleDevModeToggle(w http.ResponseWriter, r *http.Request) {
	enabled := a.store.ToggleDevMode()
	a.logger.Info("dev mode toggled", "enabled", enabled)
	writeJSON(w, http.StatusOK, map[string]any{"dev_mode": enabled})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
