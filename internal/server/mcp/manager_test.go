package mcp_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rampforge/rampforge/internal/common"
	"github.com/rampforge/rampforge/internal/logging"
	"github.com/rampforge/rampforge/internal/server/db"
	"github.com/rampforge/rampforge/internal/server/mcp"
)

type fakeProber struct {
	err   error
	calls int
}

func (f *fakeProber) Probe(context.Context, *mcp.Service) error {
	f.calls++
	return f.err
}

func setupManager(t *testing.T, prober mcp.Prober) *mcp.Manager {
	t.Helper()
	handle, style, err := db.Open(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = handle.Close() })

	repo := mcp.NewSQLRepository(handle, style)
	return mcp.NewManager(repo, prober, 5*time.Second, logging.Nop())
}

func validParams() mcp.CreateParams {
	return mcp.CreateParams{
		Type:        mcp.TypeJira,
		Name:        "main jira",
		Endpoint:    "https://example.atlassian.net",
		Credentials: map[string]string{"token": "t", "email": "a@b.com"},
		Enabled:     true,
	}
}

func TestManager_Create_ProbeSucceeds(t *testing.T) {
	prober := &fakeProber{}
	m := setupManager(t, prober)
	ctx := context.Background()

	svc, err := m.Create(ctx, validParams())
	require.NoError(t, err)
	assert.Equal(t, mcp.StatusConnected, svc.Status)
	assert.NotNil(t, svc.LastConnected)
	assert.Equal(t, 1, prober.calls)
	assert.Equal(t, 30, svc.TimeoutSeconds, "defaults applied")

	got, err := m.Get(ctx, svc.ID)
	require.NoError(t, err)
	assert.Equal(t, svc.Name, got.Name)
	assert.Equal(t, svc.Credentials, got.Credentials)
}

func TestManager_Create_ProbeFails_StillPersists(t *testing.T) {
	prober := &fakeProber{err: errors.New("401 from upstream")}
	m := setupManager(t, prober)
	ctx := context.Background()

	svc, err := m.Create(ctx, validParams())
	require.NoError(t, err)
	assert.Equal(t, mcp.StatusError, svc.Status)
	assert.Contains(t, svc.LastError, "401")

	list, err := m.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestManager_Create_DisabledSkipsProbe(t *testing.T) {
	prober := &fakeProber{}
	m := setupManager(t, prober)

	p := validParams()
	p.Enabled = false
	svc, err := m.Create(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, mcp.StatusDisabled, svc.Status)
	assert.Zero(t, prober.calls)
}

func TestManager_Create_Validation(t *testing.T) {
	m := setupManager(t, &fakeProber{})
	ctx := context.Background()

	p := validParams()
	p.Type = "bugzilla"
	_, err := m.Create(ctx, p)
	assert.ErrorIs(t, err, common.ErrorValidation)

	p = validParams()
	p.Endpoint = ""
	_, err = m.Create(ctx, p)
	assert.ErrorIs(t, err, common.ErrorValidation)
}

func TestManager_Update(t *testing.T) {
	prober := &fakeProber{}
	m := setupManager(t, prober)
	ctx := context.Background()

	svc, err := m.Create(ctx, validParams())
	require.NoError(t, err)

	p := validParams()
	p.Name = "renamed jira"
	p.Credentials = map[string]string{"token": "t2", "email": "a@b.com"}
	updated, err := m.Update(ctx, svc.ID, p)
	require.NoError(t, err)
	assert.Equal(t, "renamed jira", updated.Name)
	assert.Equal(t, 2, prober.calls)

	got, err := m.Get(ctx, svc.ID)
	require.NoError(t, err)
	assert.Equal(t, "renamed jira", got.Name)
	assert.Equal(t, "t2", got.Credentials["token"])
}

func TestManager_Update_TypeIsImmutable(t *testing.T) {
	m := setupManager(t, &fakeProber{})
	ctx := context.Background()

	svc, err := m.Create(ctx, validParams())
	require.NoError(t, err)

	p := validParams()
	p.Type = mcp.TypeGitHub
	_, err = m.Update(ctx, svc.ID, p)
	assert.ErrorIs(t, err, common.ErrorValidation)
}

func TestManager_UpdateUnknown(t *testing.T) {
	m := setupManager(t, &fakeProber{})
	_, err := m.Update(context.Background(), "no-such-id", validParams())
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestManager_Test_RecordsOutcome(t *testing.T) {
	prober := &fakeProber{}
	m := setupManager(t, prober)
	ctx := context.Background()

	svc, err := m.Create(ctx, validParams())
	require.NoError(t, err)

	prober.err = errors.New("connection refused")
	health, err := m.Test(ctx, svc.ID)
	require.NoError(t, err)
	assert.Equal(t, mcp.StatusError, health.Status)
	assert.Contains(t, health.Error, "connection refused")

	got, err := m.Get(ctx, svc.ID)
	require.NoError(t, err)
	assert.Equal(t, mcp.StatusError, got.Status)
}

func TestManager_DeleteUnknown(t *testing.T) {
	m := setupManager(t, &fakeProber{})
	err := m.Delete(context.Background(), "no-such-id")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}
