package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/BerylCAtieno/knowledge-lens-api/internal/models"
	"github.com/BerylCAtieno/knowledge-lens-api/internal/utils"
	"github.com/jmoiron/sqlx"
)

type ProjectRepository interface {
	Save(ctx context.Context, p *models.Project) error
	GetByID(ctx context.Context, id string) (*models.Project, error)
	List(ctx context.Context, filter models.ProjectFilter) ([]models.Project, error)
	Update(ctx context.Context, p *models.Project) error
	Delete(ctx context.Context, id string) (bool, error)
}

type projectRepository struct {
	db *sqlx.DB
}

func NewProjectRepository(db *sqlx.DB) ProjectRepository {
	return &projectRepository{db: db}
}

type projectRow struct {
	ID             string `db:"id"`
	Name           string `db:"name"`
	Description    string `db:"description"`
	Status         string `db:"status"`
	Completion     int    `db:"completion"`
	Team           string `db:"team"`
	LastUpdate     string `db:"last_update"`
	KeyMilestones  string `db:"key_milestones"`
	DocumentsCount int    `db:"documents_count"`
	UpdatesCount   int    `db:"updates_count"`
	Priority       string `db:"priority"`
	StartDate      string `db:"start_date"`
	EndDate        string `db:"end_date"`
	AssignedTo     string `db:"assigned_to"`
	CreatedBy      string `db:"created_by"`
	CreatedDate    string `db:"created_date"`
}

const projectColumns = `id, name, description, status, completion, team, last_update, key_milestones,
	documents_count, updates_count, priority, start_date, end_date, assigned_to, created_by, created_date`

func projectToRow(p *models.Project) (*projectRow, error) {
	row := &projectRow{
		ID:             p.ID,
		Name:           p.Name,
		Description:    p.Description,
		Status:         string(p.Status),
		Completion:     p.Completion,
		LastUpdate:     p.LastUpdate,
		DocumentsCount: p.DocumentsCount,
		UpdatesCount:   p.UpdatesCount,
		Priority:       string(p.Priority),
		StartDate:      p.StartDate,
		EndDate:        p.EndDate,
		CreatedBy:      p.CreatedBy,
		CreatedDate:    p.CreatedDate,
	}

	var err error
	if row.Team, err = marshalList(p.Team); err != nil {
		return nil, err
	}
	if row.KeyMilestones, err = marshalList(p.KeyMilestones); err != nil {
		return nil, err
	}
	if row.AssignedTo, err = marshalList(p.AssignedTo); err != nil {
		return nil, err
	}
	return row, nil
}

func (row *projectRow) toProject() (*models.Project, error) {
	p := &models.Project{
		ID:             row.ID,
		Name:           row.Name,
		Description:    row.Description,
		Status:         models.ProjectStatus(row.Status),
		Completion:     row.Completion,
		LastUpdate:     row.LastUpdate,
		DocumentsCount: row.DocumentsCount,
		UpdatesCount:   row.UpdatesCount,
		Priority:       models.Priority(row.Priority),
		StartDate:      row.StartDate,
		EndDate:        row.EndDate,
		CreatedBy:      row.CreatedBy,
		CreatedDate:    row.CreatedDate,
	}

	for _, f := range []struct {
		raw  string
		dest *[]string
	}{
		{row.Team, &p.Team},
		{row.KeyMilestones, &p.KeyMilestones},
		{row.AssignedTo, &p.AssignedTo},
	} {
		if err := json.Unmarshal([]byte(f.raw), f.dest); err != nil {
			return nil, fmt.Errorf("decode project %s: %w", row.ID, err)
		}
	}
	return p, nil
}

// Save assigns a fresh id to p and persists it.
func (r *projectRepository) Save(ctx context.Context, p *models.Project) error {
	p.ID = utils.GenerateID()

	row, err := projectToRow(p)
	if err != nil {
		return utils.NewStorageWriteError("failed to encode project", err)
	}

	query := `
		INSERT INTO projects (` + projectColumns + `)
		VALUES (:id, :name, :description, :status, :completion, :team, :last_update, :key_milestones,
		        :documents_count, :updates_count, :priority, :start_date, :end_date, :assigned_to,
		        :created_by, :created_date)
	`
	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return utils.NewStorageWriteError("failed to save project", err)
	}
	return nil
}

func (r *projectRepository) GetByID(ctx context.Context, id string) (*models.Project, error) {
	var row projectRow
	err := r.db.GetContext(ctx, &row, `SELECT `+projectColumns+` FROM projects WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, utils.NewStorageReadError("failed to read project", err)
	}

	p, err := row.toProject()
	if err != nil {
		return nil, utils.NewStorageReadError("failed to decode project", err)
	}
	return p, nil
}

// List returns projects matching filter in insertion order. Status and
// priority are matched in SQL, the free-text query in Go.
func (r *projectRepository) List(ctx context.Context, filter models.ProjectFilter) ([]models.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE 1 = 1`
	var args []interface{}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.Priority != "" {
		query += ` AND priority = ?`
		args = append(args, string(filter.Priority))
	}
	query += ` ORDER BY seq`

	var rows []projectRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, utils.NewStorageReadError("failed to list projects", err)
	}

	projects := make([]models.Project, 0, len(rows))
	for i := range rows {
		p, err := rows[i].toProject()
		if err != nil {
			return nil, utils.NewStorageReadError("failed to decode project", err)
		}
		if filter.Query != "" && !p.Matches(filter.Query) {
			continue
		}
		projects = append(projects, *p)
	}
	return projects, nil
}

func (r *projectRepository) Update(ctx context.Context, p *models.Project) error {
	row, err := projectToRow(p)
	if err != nil {
		return utils.NewStorageWriteError("failed to encode project", err)
	}

	query := `
		UPDATE projects
		SET name = :name, description = :description, status = :status, completion = :completion,
		    team = :team, last_update = :last_update, key_milestones = :key_milestones,
		    documents_count = :documents_count, updates_count = :updates_count, priority = :priority,
		    start_date = :start_date, end_date = :end_date, assigned_to = :assigned_to
		WHERE id = :id
	`
	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return utils.NewStorageWriteError("failed to update project", err)
	}
	return nil
}

func (r *projectRepository) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return false, utils.NewStorageWriteError("failed to delete project", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, utils.NewStorageWriteError("failed to delete project", err)
	}
	return n > 0, nil
}
