package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/BerylCAtieno/knowledge-lens-api/internal/models"
	"github.com/BerylCAtieno/knowledge-lens-api/internal/repository"
	"github.com/BerylCAtieno/knowledge-lens-api/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedSimulator struct {
	testOK    bool
	syncOK    bool
	processed int
}

func (f fixedSimulator) TestSucceeds() bool       { return f.testOK }
func (f fixedSimulator) SyncOutcome() (bool, int) { return f.syncOK, f.processed }

func newConnectionService(t *testing.T, sim Simulator) ConnectionService {
	t.Helper()
	repo := repository.NewConnectionRepository(newTestDB(t))
	return NewConnectionService(repo, sim, 0, 0, utils.NewNopLogger())
}

func emailConnection() *models.Connection {
	return &models.Connection{
		Name: "Ops inbox",
		Type: models.ConnectionEmail,
		Config: &models.EmailConfig{
			Server:   "imap.example.com",
			Port:     993,
			Username: "ops@example.com",
			Password: "secret",
		},
	}
}

func TestConnectionService_CreateDefaults(t *testing.T) {
	s := newConnectionService(t, fixedSimulator{})

	conn, err := s.Create(context.Background(), emailConnection())
	require.NoError(t, err)

	assert.NotEmpty(t, conn.ID)
	assert.Equal(t, models.StatusPending, conn.Status)
	assert.Equal(t, models.SyncManual, conn.SyncFrequency)
	assert.Zero(t, conn.DocumentsCount)
	assert.Nil(t, conn.LastSync)
	_, err = time.Parse(time.RFC3339, conn.CreatedDate)
	assert.NoError(t, err)
}

func TestConnectionService_CreateRejectsInvalidConfig(t *testing.T) {
	s := newConnectionService(t, fixedSimulator{})

	conn := emailConnection()
	conn.Config = &models.EmailConfig{Server: "imap.example.com"}
	_, err := s.Create(context.Background(), conn)
	assert.Equal(t, utils.KindBadRequest, utils.KindOf(err))
}

func TestConnectionService_UpdateDecodesConfigForExistingType(t *testing.T) {
	s := newConnectionService(t, fixedSimulator{})
	ctx := context.Background()
	conn, err := s.Create(ctx, emailConnection())
	require.NoError(t, err)

	name := "Finance inbox"
	updated, err := s.Update(ctx, conn.ID, models.ConnectionPatch{
		Name:   &name,
		Config: json.RawMessage(`{"server":"mail.example.com","port":143,"username":"fin@example.com","password":"pw"}`),
	})
	require.NoError(t, err)
	assert.Equal(t, "Finance inbox", updated.Name)
	cfg, ok := updated.Config.(*models.EmailConfig)
	require.True(t, ok)
	assert.Equal(t, 143, cfg.Port)

	got, err := s.Get(ctx, conn.ID)
	require.NoError(t, err)
	assert.Equal(t, "mail.example.com", got.Config.(*models.EmailConfig).Server)

	_, err = s.Update(ctx, conn.ID, models.ConnectionPatch{Config: json.RawMessage(`{"port":0}`)})
	assert.Equal(t, utils.KindBadRequest, utils.KindOf(err))

	_, err = s.Update(ctx, "missing", models.ConnectionPatch{Name: &name})
	assert.Equal(t, utils.KindNotFound, utils.KindOf(err))
}

func TestConnectionService_TestSetsStatus(t *testing.T) {
	ctx := context.Background()

	ok := newConnectionService(t, fixedSimulator{testOK: true})
	conn, err := ok.Create(ctx, emailConnection())
	require.NoError(t, err)
	result, err := ok.Test(ctx, conn.ID)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "Successfully connected to Ops inbox", result.Message)
	got, err := ok.Get(ctx, conn.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConnected, got.Status)

	bad := newConnectionService(t, fixedSimulator{testOK: false})
	conn, err = bad.Create(ctx, emailConnection())
	require.NoError(t, err)
	result, err = bad.Test(ctx, conn.ID)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "Failed to connect to Ops inbox. Please check your configuration.", result.Message)
	got, err = bad.Get(ctx, conn.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusError, got.Status)
}

func TestConnectionService_SyncAccumulatesDocuments(t *testing.T) {
	s := newConnectionService(t, fixedSimulator{syncOK: true, processed: 7})
	ctx := context.Background()
	conn, err := s.Create(ctx, emailConnection())
	require.NoError(t, err)

	for range 2 {
		result, err := s.Sync(ctx, conn.ID)
		require.NoError(t, err)
		assert.True(t, result.Success)
		assert.Equal(t, 7, result.DocumentsProcessed)
		assert.Equal(t, "Successfully synchronized 7 documents from Ops inbox", result.Message)
	}

	got, err := s.Get(ctx, conn.ID)
	require.NoError(t, err)
	assert.Equal(t, 14, got.DocumentsCount)
	assert.Equal(t, models.StatusConnected, got.Status)
	require.NotNil(t, got.LastSync)

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.ConnectionStats{Total: 1, Connected: 1, TotalDocuments: 14}, *stats)
}

func TestConnectionService_SyncFailure(t *testing.T) {
	s := newConnectionService(t, fixedSimulator{syncOK: false, processed: 5})
	ctx := context.Background()
	conn, err := s.Create(ctx, emailConnection())
	require.NoError(t, err)

	result, err := s.Sync(ctx, conn.ID)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Zero(t, result.DocumentsProcessed)
	assert.Equal(t, "Synchronization failed for Ops inbox. Please try again.", result.Message)

	got, err := s.Get(ctx, conn.ID)
	require.NoError(t, err)
	assert.Zero(t, got.DocumentsCount)
	assert.Nil(t, got.LastSync)
}

func TestConnectionService_TestHonoursCancellation(t *testing.T) {
	repo := repository.NewConnectionRepository(newTestDB(t))
	s := NewConnectionService(repo, fixedSimulator{testOK: true}, time.Hour, time.Hour, utils.NewNopLogger())
	conn, err := s.Create(context.Background(), emailConnection())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = s.Test(ctx, conn.ID)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestConnectionService_DeleteAndTemplates(t *testing.T) {
	s := newConnectionService(t, fixedSimulator{})
	ctx := context.Background()
	conn, err := s.Create(ctx, emailConnection())
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, conn.ID))
	assert.Equal(t, utils.KindNotFound, utils.KindOf(s.Delete(ctx, conn.ID)))

	_, err = s.Test(ctx, conn.ID)
	assert.Equal(t, utils.KindNotFound, utils.KindOf(err))

	templates := s.Templates()
	require.Len(t, templates, 6)
	seen := map[models.ConnectionType]bool{}
	for _, tpl := range templates {
		seen[tpl.Type] = true
		assert.NotEmpty(t, tpl.ConfigFields)
		assert.NotEmpty(t, tpl.Features)
	}
	assert.Len(t, seen, 6)
}

func TestRandomSimulator_ProcessedRange(t *testing.T) {
	sim := NewRandomSimulator()
	for range 200 {
		_, n := sim.SyncOutcome()
		assert.GreaterOrEqual(t, n, 1)
		assert.LessOrEqual(t, n, 20)
	}
}
