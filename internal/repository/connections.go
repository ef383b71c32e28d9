package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/BerylCAtieno/knowledge-lens-api/internal/models"
	"github.com/BerylCAtieno/knowledge-lens-api/internal/utils"
	"github.com/jmoiron/sqlx"
)

type ConnectionRepository interface {
	Save(ctx context.Context, conn *models.Connection) error
	GetByID(ctx context.Context, id string) (*models.Connection, error)
	List(ctx context.Context) ([]models.Connection, error)
	Update(ctx context.Context, conn *models.Connection) error
	Delete(ctx context.Context, id string) (bool, error)
}

type connectionRepository struct {
	db *sqlx.DB
}

func NewConnectionRepository(db *sqlx.DB) ConnectionRepository {
	return &connectionRepository{db: db}
}

type connectionRow struct {
	ID             string         `db:"id"`
	Name           string         `db:"name"`
	Type           string         `db:"type"`
	Status         string         `db:"status"`
	LastSync       sql.NullString `db:"last_sync"`
	Config         string         `db:"config"`
	SyncFrequency  string         `db:"sync_frequency"`
	DocumentsCount int            `db:"documents_count"`
	CreatedDate    string         `db:"created_date"`
	Description    string         `db:"description"`
}

const connectionColumns = `id, name, type, status, last_sync, config, sync_frequency,
	documents_count, created_date, description`

func connectionToRow(conn *models.Connection) (*connectionRow, error) {
	cfg, err := json.Marshal(conn.Config)
	if err != nil {
		return nil, err
	}

	row := &connectionRow{
		ID:             conn.ID,
		Name:           conn.Name,
		Type:           string(conn.Type),
		Status:         string(conn.Status),
		Config:         string(cfg),
		SyncFrequency:  string(conn.SyncFrequency),
		DocumentsCount: conn.DocumentsCount,
		CreatedDate:    conn.CreatedDate,
		Description:    conn.Description,
	}
	if conn.LastSync != nil {
		row.LastSync = sql.NullString{String: *conn.LastSync, Valid: true}
	}
	return row, nil
}

func (row *connectionRow) toConnection() (*models.Connection, error) {
	cfg, err := models.DecodeConnectionConfig(models.ConnectionType(row.Type), json.RawMessage(row.Config))
	if err != nil {
		return nil, err
	}

	conn := &models.Connection{
		ID:             row.ID,
		Name:           row.Name,
		Type:           models.ConnectionType(row.Type),
		Status:         models.ConnectionStatus(row.Status),
		Config:         cfg,
		SyncFrequency:  models.SyncFrequency(row.SyncFrequency),
		DocumentsCount: row.DocumentsCount,
		CreatedDate:    row.CreatedDate,
		Description:    row.Description,
	}
	if row.LastSync.Valid {
		lastSync := row.LastSync.String
		conn.LastSync = &lastSync
	}
	return conn, nil
}

// Save assigns a fresh id to conn and persists it.
func (r *connectionRepository) Save(ctx context.Context, conn *models.Connection) error {
	conn.ID = utils.GenerateID()

	row, err := connectionToRow(conn)
	if err != nil {
		return utils.NewStorageWriteError("failed to encode connection", err)
	}

	query := `
		INSERT INTO connections (` + connectionColumns + `)
		VALUES (:id, :name, :type, :status, :last_sync, :config, :sync_frequency,
		        :documents_count, :created_date, :description)
	`
	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return utils.NewStorageWriteError("failed to save connection", err)
	}
	return nil
}

func (r *connectionRepository) GetByID(ctx context.Context, id string) (*models.Connection, error) {
	var row connectionRow
	err := r.db.GetContext(ctx, &row, `SELECT `+connectionColumns+` FROM connections WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, utils.NewStorageReadError("failed to read connection", err)
	}

	conn, err := row.toConnection()
	if err != nil {
		return nil, utils.NewStorageReadError("failed to decode connection", err)
	}
	return conn, nil
}

func (r *connectionRepository) List(ctx context.Context) ([]models.Connection, error) {
	var rows []connectionRow
	if err := r.db.SelectContext(ctx, &rows, `SELECT `+connectionColumns+` FROM connections ORDER BY seq`); err != nil {
		return nil, utils.NewStorageReadError("failed to list connections", err)
	}

	conns := make([]models.Connection, 0, len(rows))
	for i := range rows {
		conn, err := rows[i].toConnection()
		if err != nil {
			return nil, utils.NewStorageReadError("failed to decode connection", err)
		}
		conns = append(conns, *conn)
	}
	return conns, nil
}

// Update overwrites every mutable column of conn. The type and creation
// date are fixed at save time.
func (r *connectionRepository) Update(ctx context.Context, conn *models.Connection) error {
	row, err := connectionToRow(conn)
	if err != nil {
		return utils.NewStorageWriteError("failed to encode connection", err)
	}

	query := `
		UPDATE connections
		SET name = :name, status = :status, last_sync = :last_sync, config = :config,
		    sync_frequency = :sync_frequency, documents_count = :documents_count, description = :description
		WHERE id = :id
	`
	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return utils.NewStorageWriteError("failed to update connection", err)
	}
	return nil
}

func (r *connectionRepository) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM connections WHERE id = ?`, id)
	if err != nil {
		return false, utils.NewStorageWriteError("failed to delete connection", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, utils.NewStorageWriteError("failed to delete connection", err)
	}
	return n > 0, nil
}
