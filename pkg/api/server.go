package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"market-cutover/pkg/auth"
	"market-cutover/pkg/freezer"
	"market-cutover/pkg/migration"
	"market-cutover/pkg/model"
	"market-cutover/pkg/store"
	"market-cutover/pkg/target"
	"market-cutover/pkg/version"
)

// Handler serves the cut-over API.
type Handler struct {
	Orchestrator *migration.Orchestrator
	Freezer      *freezer.Freezer
	Target       *target.Manager
	Store        store.Store
	Hub          *EventHub
	Token        string
	Issuer       *auth.Issuer
	Logger       *zap.Logger
}

// RegisterRoutes wires the HTTP handlers on the provided mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	if h.Logger == nil {
		h.Logger = zap.NewNop()
	}
	authn := authFunc(h.Token, h.Issuer)

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("market-cutover controller"))
	})

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if p, ok := h.Store.(interface{ Ping() error }); ok {
			if err := p.Ping(); err != nil {
				http.Error(w, "store unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("/api/v1/version", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"build": version.Build})
	})

	h.stepRoute(mux, authn, "/api/v1/migration/freeze", h.Orchestrator.FreezeLegacySystem)
	h.stepRoute(mux, authn, "/api/v1/migration/validate", h.Orchestrator.ValidateNewSystem)
	h.stepRoute(mux, authn, "/api/v1/migration/test-ui", h.Orchestrator.TestUserInterface)
	h.stepRoute(mux, authn, "/api/v1/migration/test-integrations", h.Orchestrator.TestIntegrations)
	h.stepRoute(mux, authn, "/api/v1/migration/activate", h.Orchestrator.ActivateNewSystem)

	mux.HandleFunc("/api/v1/migration/delete-legacy", func(w http.ResponseWriter, r *http.Request) {
		c, ok := authn(r)
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if !c.admin {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		var req DeleteLegacyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid payload", http.StatusBadRequest)
			return
		}
		h.audit(c, "delete-legacy.requested", migration.StepDeleteLegacy, "approved="+strconv.FormatBool(req.Approved))
		step, err := h.Orchestrator.DeleteLegacySystem(r.Context(), req.Approved)
		writeStep(w, step, err)
	})

	mux.HandleFunc("/api/v1/migration/steps", func(w http.ResponseWriter, r *http.Request) {
		if !h.readable(w, r, authn) {
			return
		}
		writeJSON(w, http.StatusOK, h.Orchestrator.Steps())
	})

	mux.HandleFunc("/api/v1/migration/report", func(w http.ResponseWriter, r *http.Request) {
		if !h.readable(w, r, authn) {
			return
		}
		writeJSON(w, http.StatusOK, h.Orchestrator.Report())
	})

	mux.HandleFunc("/api/v1/migration/report/detailed", func(w http.ResponseWriter, r *http.Request) {
		if !h.readable(w, r, authn) {
			return
		}
		writeJSON(w, http.StatusOK, h.Orchestrator.DetailedReport())
	})

	mux.HandleFunc("/api/v1/target/readiness", func(w http.ResponseWriter, r *http.Request) {
		if !h.readable(w, r, authn) {
			return
		}
		writeJSON(w, http.StatusOK, h.Target.ValidateSystemReadiness())
	})

	mux.HandleFunc("/api/v1/audit", func(w http.ResponseWriter, r *http.Request) {
		if !h.readable(w, r, authn) {
			return
		}
		limit := 100
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				http.Error(w, "invalid limit", http.StatusBadRequest)
				return
			}
			limit = n
		}
		entries, err := h.Store.ListAudit(limit)
		if err != nil {
			h.Logger.Error("list audit", zap.Error(err))
			http.Error(w, "failed to list audit", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, entries)
	})

	h.registerRuleRoutes(mux, authn)
	h.registerSnapshotRoutes(mux, authn)

	if h.Hub != nil {
		mux.HandleFunc("/ws/events", func(w http.ResponseWriter, r *http.Request) {
			if _, ok := authn(r); !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			h.Hub.HandleEvents(w, r)
		})
	}
}

type stepFunc func(ctx context.Context) (model.MigrationStep, error)

func (h *Handler) stepRoute(mux *http.ServeMux, authn func(*http.Request) (caller, bool), path string, run stepFunc) {
	mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		c, ok := authn(r)
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.Logger.Debug("step requested", zap.String("path", path), zap.String("caller", c.name))
		step, err := run(r.Context())
		writeStep(w, step, err)
	})
}

// readable checks auth and method for read-only GET routes.
func (h *Handler) readable(w http.ResponseWriter, r *http.Request, authn func(*http.Request) (caller, bool)) bool {
	if _, ok := authn(r); !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return false
	}
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

func (h *Handler) audit(c caller, action, target, detail string) {
	if err := h.Store.AppendAudit(model.AuditEntry{
		Actor:     c.name,
		Action:    action,
		Target:    target,
		Detail:    detail,
		Timestamp: time.Now(),
	}); err != nil {
		h.Logger.Error("append audit", zap.String("action", action), zap.Error(err))
	}
}

// writeStep maps an orchestrator outcome to a status: gated 409, failed 422.
func writeStep(w http.ResponseWriter, step model.MigrationStep, err error) {
	resp := StepResponse{Success: err == nil, Step: step}
	status := http.StatusOK
	if err != nil {
		resp.Error = err.Error()
		switch {
		case errors.Is(err, migration.ErrStepGated):
			status = http.StatusConflict
		case errors.Is(err, migration.ErrStepFailed):
			status = http.StatusUnprocessableEntity
		default:
			status = http.StatusInternalServerError
		}
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type caller struct {
	name  string
	admin bool
}

// authFunc accepts the static token (X-Auth-Token, Bearer or ?token=) or an
// operator JWT. With neither configured every caller is an admin.
func authFunc(token string, issuer *auth.Issuer) func(r *http.Request) (caller, bool) {
	if token == "" && !issuer.Enabled() {
		return func(_ *http.Request) (caller, bool) { return caller{name: "anonymous", admin: true}, true }
	}
	return func(r *http.Request) (caller, bool) {
		h := r.Header.Get("X-Auth-Token")
		if h == "" {
			authz := r.Header.Get("Authorization")
			if strings.HasPrefix(authz, "Bearer ") {
				h = strings.TrimPrefix(authz, "Bearer ")
			}
		}
		if h == "" {
			// browsers cannot set headers on websocket upgrades
			h = r.URL.Query().Get("token")
		}
		if h == "" {
			return caller{}, false
		}
		if token != "" && subtle.ConstantTimeCompare([]byte(h), []byte(token)) == 1 {
			return caller{name: "token", admin: true}, true
		}
		if claims, err := issuer.Parse(h); err == nil {
			return caller{name: claims.Username, admin: claims.Admin}, true
		}
		return caller{}, false
	}
}
