package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"market-cutover/pkg/model"
	"market-cutover/pkg/target"
)

const adminKeyHeader = "X-Admin-Key"

func (h *Handler) registerSnapshotRoutes(mux *http.ServeMux, authn func(*http.Request) (caller, bool)) {
	mux.HandleFunc("/api/v1/snapshots", func(w http.ResponseWriter, r *http.Request) {
		if !h.readable(w, r, authn) {
			return
		}
		writeJSON(w, http.StatusOK, h.Freezer.List())
	})

	// /api/v1/snapshots/{id} and /api/v1/snapshots/{id}/restore
	mux.HandleFunc("/api/v1/snapshots/", func(w http.ResponseWriter, r *http.Request) {
		c, ok := authn(r)
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		rest := strings.TrimPrefix(r.URL.Path, "/api/v1/snapshots/")
		id, action, _ := strings.Cut(rest, "/")
		if id == "" {
			http.Error(w, "snapshot id required", http.StatusBadRequest)
			return
		}
		switch {
		case action == "" && r.Method == http.MethodGet:
			snap, ok := h.Freezer.Get(id)
			if !ok {
				http.Error(w, "snapshot not found", http.StatusNotFound)
				return
			}
			writeJSON(w, http.StatusOK, snap)
		case action == "" && r.Method == http.MethodDelete:
			if !c.admin {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			if _, ok := h.Freezer.Get(id); !ok {
				http.Error(w, "snapshot not found", http.StatusNotFound)
				return
			}
			if !h.Freezer.DeleteSnapshot(id, r.Header.Get(adminKeyHeader)) {
				http.Error(w, "snapshot delete refused", http.StatusForbidden)
				return
			}
			h.audit(c, "snapshot.delete", id, "")
			w.WriteHeader(http.StatusNoContent)
		case action == "restore" && r.Method == http.MethodPost:
			if !c.admin {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			if _, ok := h.Freezer.Get(id); !ok {
				http.Error(w, "snapshot not found", http.StatusNotFound)
				return
			}
			restored, err := h.Freezer.Restore(r.Context(), id, r.Header.Get(adminKeyHeader))
			if err != nil {
				h.Logger.Error("restore snapshot", zap.String("snapshot", id), zap.Error(err))
				http.Error(w, "restore failed", http.StatusBadGateway)
				return
			}
			if !restored {
				http.Error(w, "restore refused", http.StatusForbidden)
				return
			}
			h.audit(c, "snapshot.restore", id, "")
			writeJSON(w, http.StatusOK, RestoreResponse{Restored: true, Snapshot: id})
		case action == "" || action == "restore":
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		default:
			http.NotFound(w, r)
		}
	})
}

func (h *Handler) registerRuleRoutes(mux *http.ServeMux, authn func(*http.Request) (caller, bool)) {
	mux.HandleFunc("/api/v1/rules", func(w http.ResponseWriter, r *http.Request) {
		if !h.readable(w, r, authn) {
			return
		}
		writeJSON(w, http.StatusOK, h.Target.Rules().All())
	})

	mux.HandleFunc("/api/v1/rules/", func(w http.ResponseWriter, r *http.Request) {
		c, ok := authn(r)
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		rule := strings.TrimPrefix(r.URL.Path, "/api/v1/rules/")
		if rule == "" || strings.Contains(rule, "/") {
			http.NotFound(w, r)
			return
		}
		switch r.Method {
		case http.MethodGet:
			st, ok := h.Target.Rules().Get(rule)
			if !ok {
				http.Error(w, "rule not found", http.StatusNotFound)
				return
			}
			writeJSON(w, http.StatusOK, st)
		case http.MethodPut:
			if !c.admin {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			var req RuleUpdateRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "invalid payload", http.StatusBadRequest)
				return
			}
			updated, err := h.Target.Rules().Update(rule, req.Implemented, req.Coverage, req.Notes)
			switch {
			case errors.Is(err, target.ErrUnknownRule):
				http.Error(w, "rule not found", http.StatusNotFound)
				return
			case errors.Is(err, target.ErrInvalidCoverage):
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			case err != nil:
				h.Logger.Error("update rule", zap.String("rule", rule), zap.Error(err))
				http.Error(w, "failed to update rule", http.StatusInternalServerError)
				return
			}
			h.audit(c, "rule.update", rule, ruleDetail(updated))
			writeJSON(w, http.StatusOK, updated)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})
}

func ruleDetail(r model.BusinessRuleStatus) string {
	b, _ := json.Marshal(r)
	return string(b)
}
