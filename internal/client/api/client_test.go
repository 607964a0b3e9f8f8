package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rampforge/rampforge/internal/client/models"
	"github.com/rampforge/rampforge/internal/common"
)

type staticTokens string

func (s staticTokens) Token(context.Context) (string, error) { return string(s), nil }

type countingNotifier struct{ n atomic.Int32 }

func (c *countingNotifier) Broadcast() { c.n.Add(1) }

func TestClient_Login(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/v1/auth/login", r.URL.Path)

		var req loginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.Password != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(loginResponse{
			AccessToken: "T1",
			TokenType:   "bearer",
			User:        models.User{ID: "u1", Email: req.Email, Role: models.RoleDeveloper},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, staticTokens(""))

	token, user, err := c.Login(context.Background(), "dev@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, "T1", token)
	require.NotNil(t, user)
	assert.Equal(t, "u1", user.ID)

	_, _, err = c.Login(context.Background(), "dev@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestClient_VerifyToken_OutcomeMapping(t *testing.T) {
	var status atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(int(status.Load()))
	}))
	defer srv.Close()

	c := New(srv.URL, staticTokens("T1"))
	ctx := context.Background()

	status.Store(http.StatusOK)
	ok, err := c.VerifyToken(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	// Explicit rejection is an answer, not an error.
	status.Store(http.StatusUnauthorized)
	ok, err = c.VerifyToken(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	status.Store(http.StatusForbidden)
	ok, err = c.VerifyToken(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	// A broken server is not an answer about the token.
	status.Store(http.StatusInternalServerError)
	_, err = c.VerifyToken(ctx)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestClient_VerifyToken_UnreachableServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // nothing listens any more

	c := New(srv.URL, staticTokens("T1"))
	_, err := c.VerifyToken(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestClient_CurrentUser_RejectedToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := New(srv.URL, staticTokens("T1"))
	_, err := c.CurrentUser(context.Background())
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestClient_SendsBearerToken(t *testing.T) {
	var gotAuth atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth.Store(r.Header.Get(common.AuthorizationHeader))
		_ = json.NewEncoder(w).Encode(models.User{ID: "u1"})
	}))
	defer srv.Close()

	c := New(srv.URL, staticTokens("T1"))
	_, err := c.CurrentUser(context.Background())
	require.NoError(t, err)
	assert.Equal(t, common.BearerPrefix+"T1", gotAuth.Load())
}

func TestClient_ResourceCall_BroadcastsExpiryOn401(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	notifier := &countingNotifier{}
	c := New(srv.URL, staticTokens("T1"), WithExpiryNotifier(notifier))

	_, err := c.ListServices(context.Background())
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, int32(1), notifier.n.Load(), "a dead token seen by any resource call is broadcast")
}

func TestClient_AuthCall_DoesNotBroadcastOn401(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	notifier := &countingNotifier{}
	c := New(srv.URL, staticTokens(""), WithExpiryNotifier(notifier))

	_, _, err := c.Login(context.Background(), "dev@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = c.VerifyToken(context.Background())
	assert.NoError(t, err)

	assert.Zero(t, notifier.n.Load(), "the auth flow handles its own 401s")
}

func TestClient_CreateService(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/v1/mcp/services", r.URL.Path)

		var cfg ServiceConfig
		require.NoError(t, json.NewDecoder(r.Body).Decode(&cfg))
		assert.Equal(t, "jira", cfg.ServiceType)

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(createdResponse{ID: "svc-1", Message: "created"})
	}))
	defer srv.Close()

	c := New(srv.URL, staticTokens("T1"))
	id, err := c.CreateService(context.Background(), ServiceConfig{
		ServiceType: "jira",
		Name:        "main jira",
		Endpoint:    "https://example.atlassian.net",
	})
	require.NoError(t, err)
	assert.Equal(t, "svc-1", id)
}

func TestClient_MalformedBody_IsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("{not json"))
	}))
	defer srv.Close()

	c := New(srv.URL, staticTokens("T1"))
	_, err := c.CurrentUser(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
}
