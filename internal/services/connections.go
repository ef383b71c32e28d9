package services

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/BerylCAtieno/knowledge-lens-api/internal/models"
	"github.com/BerylCAtieno/knowledge-lens-api/internal/repository"
	"github.com/BerylCAtieno/knowledge-lens-api/internal/utils"
)

// Simulator decides the outcome of connection tests and syncs. No real
// external system is contacted.
type Simulator interface {
	TestSucceeds() bool
	// SyncOutcome reports whether a sync succeeds and how many documents
	// it processed.
	SyncOutcome() (bool, int)
}

type randomSimulator struct{}

// NewRandomSimulator succeeds 80% of tests and 90% of syncs, each sync
// processing 1 to 20 documents.
func NewRandomSimulator() Simulator {
	return randomSimulator{}
}

func (randomSimulator) TestSucceeds() bool {
	return rand.Float64() >= 0.2
}

func (randomSimulator) SyncOutcome() (bool, int) {
	return rand.Float64() >= 0.1, rand.IntN(20) + 1
}

type ConnectionService interface {
	Templates() []models.ConnectionTemplate
	Create(ctx context.Context, conn *models.Connection) (*models.Connection, error)
	Get(ctx context.Context, id string) (*models.Connection, error)
	List(ctx context.Context) ([]models.Connection, error)
	Update(ctx context.Context, id string, patch models.ConnectionPatch) (*models.Connection, error)
	Delete(ctx context.Context, id string) error
	Test(ctx context.Context, id string) (*models.ConnectionTestResult, error)
	Sync(ctx context.Context, id string) (*models.ConnectionSyncResult, error)
	Stats(ctx context.Context) (*models.ConnectionStats, error)
}

type connectionService struct {
	repo        repository.ConnectionRepository
	simulator   Simulator
	testLatency time.Duration
	syncLatency time.Duration
	locks       *utils.KeyedMutex
	logger      *utils.Logger
}

func NewConnectionService(repo repository.ConnectionRepository, simulator Simulator, testLatency, syncLatency time.Duration, logger *utils.Logger) ConnectionService {
	return &connectionService{
		repo:        repo,
		simulator:   simulator,
		testLatency: testLatency,
		syncLatency: syncLatency,
		locks:       utils.NewKeyedMutex(),
		logger:      logger,
	}
}

func (s *connectionService) Templates() []models.ConnectionTemplate {
	return connectionTemplates
}

func (s *connectionService) Create(ctx context.Context, conn *models.Connection) (*models.Connection, error) {
	if conn.Status == "" {
		conn.Status = models.StatusPending
	}
	if conn.SyncFrequency == "" {
		conn.SyncFrequency = models.SyncManual
	}
	conn.DocumentsCount = 0
	conn.LastSync = nil
	conn.CreatedDate = time.Now().UTC().Format(time.RFC3339)

	if err := conn.Validate(); err != nil {
		return nil, utils.NewBadRequestError(fmt.Sprintf("Invalid connection: %v", err))
	}

	if err := s.repo.Save(ctx, conn); err != nil {
		s.logger.Error("Failed to save connection", "error", err, "name", conn.Name)
		return nil, err
	}

	s.logger.Info("Connection created", "id", conn.ID, "type", conn.Type)
	return conn, nil
}

func (s *connectionService) Get(ctx context.Context, id string) (*models.Connection, error) {
	conn, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if conn == nil {
		return nil, utils.NewNotFoundError("Connection not found")
	}
	return conn, nil
}

func (s *connectionService) List(ctx context.Context) ([]models.Connection, error) {
	return s.repo.List(ctx)
}

func (s *connectionService) Update(ctx context.Context, id string, patch models.ConnectionPatch) (*models.Connection, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	conn, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		conn.Name = *patch.Name
	}
	if patch.Status != nil {
		conn.Status = *patch.Status
	}
	if patch.SyncFrequency != nil {
		conn.SyncFrequency = *patch.SyncFrequency
	}
	if patch.Description != nil {
		conn.Description = *patch.Description
	}
	if len(patch.Config) > 0 {
		cfg, err := models.DecodeConnectionConfig(conn.Type, patch.Config)
		if err != nil {
			return nil, utils.NewBadRequestError(err.Error())
		}
		conn.Config = cfg
	}

	if err := conn.Validate(); err != nil {
		return nil, utils.NewBadRequestError(fmt.Sprintf("Invalid connection: %v", err))
	}
	if err := s.repo.Update(ctx, conn); err != nil {
		return nil, err
	}
	return conn, nil
}

func (s *connectionService) Delete(ctx context.Context, id string) error {
	unlock := s.locks.Lock(id)
	defer unlock()

	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return utils.NewNotFoundError("Connection not found")
	}
	return nil
}

// Test simulates a connection check and records the resulting status.
func (s *connectionService) Test(ctx context.Context, id string) (*models.ConnectionTestResult, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	if err := wait(ctx, s.testLatency); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	conn, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	result := &models.ConnectionTestResult{Success: s.simulator.TestSucceeds()}
	if result.Success {
		conn.Status = models.StatusConnected
		result.Message = fmt.Sprintf("Successfully connected to %s", conn.Name)
	} else {
		conn.Status = models.StatusError
		result.Message = fmt.Sprintf("Failed to connect to %s. Please check your configuration.", conn.Name)
	}

	if err := s.repo.Update(ctx, conn); err != nil {
		return nil, err
	}
	s.logger.Info("Connection tested", "id", id, "success", result.Success)
	return result, nil
}

// Sync simulates a document synchronisation. A successful sync adds the
// processed documents to the connection's count.
func (s *connectionService) Sync(ctx context.Context, id string) (*models.ConnectionSyncResult, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	if err := wait(ctx, s.syncLatency); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	conn, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	success, processed := s.simulator.SyncOutcome()
	result := &models.ConnectionSyncResult{Success: success}
	if success {
		now := time.Now().UTC().Format(time.RFC3339)
		conn.LastSync = &now
		conn.DocumentsCount += processed
		conn.Status = models.StatusConnected
		result.DocumentsProcessed = processed
		result.Message = fmt.Sprintf("Successfully synchronized %d documents from %s", processed, conn.Name)
	} else {
		conn.Status = models.StatusError
		result.Message = fmt.Sprintf("Synchronization failed for %s. Please try again.", conn.Name)
	}

	if err := s.repo.Update(ctx, conn); err != nil {
		return nil, err
	}
	s.logger.Info("Connection synced", "id", id, "success", success, "documents", result.DocumentsProcessed)
	return result, nil
}

func (s *connectionService) Stats(ctx context.Context) (*models.ConnectionStats, error) {
	conns, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	stats := &models.ConnectionStats{Total: len(conns)}
	for _, c := range conns {
		switch c.Status {
		case models.StatusConnected:
			stats.Connected++
		case models.StatusDisconnected:
			stats.Disconnected++
		}
		stats.TotalDocuments += c.DocumentsCount
	}
	return stats, nil
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
