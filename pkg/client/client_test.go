package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"market-cutover/pkg/api"
	"market-cutover/pkg/model"
)

func TestStepDecodesOutcomes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "tok", r.Header.Get("X-Auth-Token"))
		assert.Equal(t, http.MethodPost, r.Method)
		switch r.URL.Path {
		case "/api/v1/migration/freeze":
			_ = json.NewEncoder(w).Encode(api.StepResponse{Success: true, Step: model.MigrationStep{ID: "freeze-legacy", Status: model.StepCompleted}})
		case "/api/v1/migration/validate":
			w.WriteHeader(http.StatusConflict)
			_ = json.NewEncoder(w).Encode(api.StepResponse{Error: "previous step not completed", Step: model.MigrationStep{ID: "validate-target", Status: model.StepPending}})
		case "/api/v1/migration/delete-legacy":
			var req api.DeleteLegacyRequest
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.True(t, req.Approved)
			w.WriteHeader(http.StatusForbidden)
		}
	}))
	defer srv.Close()
	c := New(srv.URL+"/", "tok", nil)
	ctx := context.Background()

	resp, err := c.Step(ctx, "freeze")
	require.NoError(t, err)
	assert.True(t, resp.Success)

	resp, err = c.Step(ctx, "validate")
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Equal(t, model.StepPending, resp.Step.Status)

	_, err = c.DeleteLegacy(ctx, true)
	assert.True(t, errors.Is(err, ErrHTTP))
}

func TestSnapshotCalls(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Admin-Key") != "admin" {
			http.Error(w, "restore refused", http.StatusForbidden)
			return
		}
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/api/v1/snapshots/s1/restore":
			_ = json.NewEncoder(w).Encode(api.RestoreResponse{Restored: true, Snapshot: "s1"})
		case r.Method == http.MethodDelete && r.URL.Path == "/api/v1/snapshots/s1":
			w.WriteHeader(http.StatusNoContent)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()
	c := New(srv.URL, "", nil)
	ctx := context.Background()

	require.NoError(t, c.RestoreSnapshot(ctx, "s1", "admin"))
	err := c.RestoreSnapshot(ctx, "s1", "wrong")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "restore refused")
	require.NoError(t, c.DeleteSnapshot(ctx, "s1", "admin"))
	assert.Error(t, c.DeleteSnapshot(ctx, "s2", "admin"))
}

func TestGetJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]model.MigrationStep{{ID: "freeze-legacy"}})
	}))
	defer srv.Close()
	var steps []model.MigrationStep
	require.NoError(t, New(srv.URL, "", nil).GetJSON(context.Background(), "/api/v1/migration/steps", &steps))
	require.Len(t, steps, 1)
	assert.Equal(t, "freeze-legacy", steps[0].ID)
}
