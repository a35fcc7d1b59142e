package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/packwise/go-pack-sync/internal/config"
	"github.com/packwise/go-pack-sync/models"
)

func newAdapter(t *testing.T, handler http.Handler) ServerAdapter {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewHTTPServerAdapter(config.ClientAdapter{
		BaseURL:        srv.URL,
		RequestTimeout: 2 * time.Second,
	})
}

func writeApplyResponse(t *testing.T, w http.ResponseWriter, httpStatus int, resp models.ApplyResponse) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	require.NoError(t, json.NewEncoder(w).Encode(resp))
}

func TestHTTPServerAdapter_LoginStoresToken(t *testing.T) {
	a := newAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/auth/login", r.URL.Path)
		w.Header().Set("Authorization", "Bearer issued-token")
		w.WriteHeader(http.StatusOK)
	}))

	token, err := a.Login(context.Background(), models.User{Login: "alice", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, "issued-token", token.SignedString)
	assert.Equal(t, "issued-token", a.Token())
}

func TestHTTPServerAdapter_Login_InvalidCredentials(t *testing.T) {
	a := newAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "invalid login/password", http.StatusUnauthorized)
	}))

	_, err := a.Login(context.Background(), models.User{Login: "alice", Password: "wrong"})
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestHTTPServerAdapter_Apply(t *testing.T) {
	a := newAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/lists/list-1/ops", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		var req models.ApplyRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "op-1", req.OpID)

		writeApplyResponse(t, w, http.StatusOK, models.ApplyResponse{
			Status:   models.StatusApplied,
			Snapshot: &models.Snapshot{EntityID: "list-1", Version: 5},
		})
	}))
	a.SetToken("tok")

	snapshot, err := a.Apply(context.Background(), models.Operation{
		OpID: "op-1", EntityID: "list-1", Kind: models.OpAddItem, Payload: []byte(`{}`),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(5), snapshot.Version)
}

func TestHTTPServerAdapter_Apply_Conflict(t *testing.T) {
	a := newAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeApplyResponse(t, w, http.StatusConflict, models.ApplyResponse{
			Status:   models.StatusConflict,
			Snapshot: &models.Snapshot{EntityID: "list-1", Version: 9},
			Error:    "target item is gone",
		})
	}))

	_, err := a.Apply(context.Background(), models.Operation{OpID: "op-1", EntityID: "list-1", Kind: models.OpUpdateItem})
	assert.ErrorIs(t, err, ErrConflict)

	var conflictErr *ConflictError
	require.ErrorAs(t, err, &conflictErr)
	assert.Equal(t, int64(9), conflictErr.Snapshot.Version, "conflict must carry the canonical snapshot")
}

func TestHTTPServerAdapter_Apply_TypedRejections(t *testing.T) {
	tests := []struct {
		name       string
		httpStatus int
		wireStatus string
		wantErr    error
	}{
		{name: "forbidden", httpStatus: http.StatusForbidden, wireStatus: models.StatusForbidden, wantErr: ErrForbidden},
		{name: "not found", httpStatus: http.StatusNotFound, wireStatus: models.StatusNotFound, wantErr: ErrNotFound},
		{name: "invalid", httpStatus: http.StatusBadRequest, wireStatus: models.StatusInvalid, wantErr: ErrInvalidOperation},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			a := newAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				writeApplyResponse(t, w, tc.httpStatus, models.ApplyResponse{Status: tc.wireStatus})
			}))

			_, err := a.Apply(context.Background(), models.Operation{OpID: "op-1", EntityID: "list-1", Kind: models.OpAddItem})
			assert.ErrorIs(t, err, tc.wantErr)
			assert.False(t, IsTransient(err), "typed rejections are permanent")
		})
	}
}

func TestHTTPServerAdapter_Apply_ServerErrorIsTransient(t *testing.T) {
	a := newAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))

	_, err := a.Apply(context.Background(), models.Operation{OpID: "op-1", EntityID: "list-1", Kind: models.OpAddItem})
	assert.ErrorIs(t, err, ErrServerUnavailable)
	assert.True(t, IsTransient(err))
}

func TestHTTPServerAdapter_Apply_NetworkErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	a := NewHTTPServerAdapter(config.ClientAdapter{BaseURL: url, RequestTimeout: time.Second})

	_, err := a.Apply(context.Background(), models.Operation{OpID: "op-1", EntityID: "list-1", Kind: models.OpAddItem})
	assert.True(t, IsTransient(err), "connection refused must be retryable")
}

func TestHTTPServerAdapter_GetSnapshot(t *testing.T) {
	a := newAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/lists/list-1", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(models.Snapshot{EntityID: "list-1", Version: 3}))
	}))

	snapshot, err := a.GetSnapshot(context.Background(), "list-1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), snapshot.Version)
}

func TestHTTPServerAdapter_ShareList(t *testing.T) {
	a := newAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/lists/list-1/editors", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "bob", body["login"])

		w.WriteHeader(http.StatusOK)
	}))

	require.NoError(t, a.ShareList(context.Background(), "list-1", "bob"))
}

func TestHTTPServerAdapter_ShareList_NotOwner(t *testing.T) {
	a := newAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "permission denied", http.StatusForbidden)
	}))

	err := a.ShareList(context.Background(), "list-1", "bob")
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestHTTPServerAdapter_Ping(t *testing.T) {
	a := newAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/ping", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))

	assert.NoError(t, a.Ping(context.Background()))
}

func TestHTTPServerAdapter_Ping_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	a := NewHTTPServerAdapter(config.ClientAdapter{BaseURL: url, RequestTimeout: time.Second})

	err := a.Ping(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrServerUnavailable))
}
