package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/BerylCAtieno/knowledge-lens-api/internal/models"
	"github.com/BerylCAtieno/knowledge-lens-api/internal/utils"
	"github.com/jmoiron/sqlx"
)

type DocumentRepository interface {
	Save(ctx context.Context, doc *models.StoredDocument) error
	GetByID(ctx context.Context, id string) (*models.StoredDocument, error)
	List(ctx context.Context) ([]models.StoredDocument, error)
	Update(ctx context.Context, id string, patch models.DocumentPatch) (*models.StoredDocument, error)
	Delete(ctx context.Context, id string) (bool, error)
	Search(ctx context.Context, query string) ([]models.StoredDocument, error)
	ListByField(ctx context.Context, field models.DocumentField, value string) ([]models.StoredDocument, error)
	ReplaceAll(ctx context.Context, docs []models.StoredDocument) error
	Stats(ctx context.Context) (*models.StorageStats, error)
}

type documentRepository struct {
	db    *sqlx.DB
	locks *utils.KeyedMutex
}

func NewDocumentRepository(db *sqlx.DB) DocumentRepository {
	return &documentRepository{db: db, locks: utils.NewKeyedMutex()}
}

type documentRow struct {
	ID               string `db:"id"`
	Title            string `db:"title"`
	Type             string `db:"type"`
	Department       string `db:"department"`
	Date             string `db:"date"`
	Headline         string `db:"headline"`
	KeyPoints        string `db:"key_points"`
	Detailed         string `db:"detailed"`
	Priority         string `db:"priority"`
	Source           string `db:"source"`
	OriginalContent  string `db:"original_content"`
	FileName         string `db:"file_name"`
	FileSize         int64  `db:"file_size"`
	FileType         string `db:"file_type"`
	FileLastModified int64  `db:"file_last_modified"`
	Entities         string `db:"entities"`
	Confidence       int    `db:"confidence"`
	Language         string `db:"language"`
	AnalysisMethod   string `db:"analysis_method"`
	UpdatedAt        string `db:"updated_at"`
}

const documentColumns = `id, title, type, department, date, headline, key_points, detailed,
	priority, source, original_content, file_name, file_size, file_type, file_last_modified,
	entities, confidence, language, analysis_method, updated_at`

const insertDocument = `
	INSERT INTO documents (` + documentColumns + `)
	VALUES (:id, :title, :type, :department, :date, :headline, :key_points, :detailed,
	        :priority, :source, :original_content, :file_name, :file_size, :file_type, :file_last_modified,
	        :entities, :confidence, :language, :analysis_method, :updated_at)
`

func toRow(doc *models.StoredDocument) (*documentRow, error) {
	keyPoints, err := marshalList(doc.Summary.KeyPoints)
	if err != nil {
		return nil, err
	}
	entities, err := marshalList(doc.Analysis.Entities)
	if err != nil {
		return nil, err
	}

	return &documentRow{
		ID:               doc.ID,
		Title:            doc.Title,
		Type:             doc.Type,
		Department:       doc.Department,
		Date:             doc.Date,
		Headline:         doc.Summary.Headline,
		KeyPoints:        keyPoints,
		Detailed:         doc.Summary.Detailed,
		Priority:         string(doc.Priority),
		Source:           doc.Source,
		OriginalContent:  doc.OriginalContent,
		FileName:         doc.FileData.Name,
		FileSize:         doc.FileData.Size,
		FileType:         doc.FileData.Type,
		FileLastModified: doc.FileData.LastModified,
		Entities:         entities,
		Confidence:       doc.Analysis.Confidence,
		Language:         doc.Analysis.Language,
		AnalysisMethod:   string(doc.Analysis.Method),
		UpdatedAt:        time.Now().UTC().Format(time.RFC3339),
	}, nil
}

func (row *documentRow) toDocument() (*models.StoredDocument, error) {
	doc := &models.StoredDocument{
		ID:         row.ID,
		Title:      row.Title,
		Type:       row.Type,
		Department: row.Department,
		Date:       row.Date,
		Summary: models.Summary{
			Headline: row.Headline,
			Detailed: row.Detailed,
		},
		Priority:        models.Priority(row.Priority),
		Source:          row.Source,
		OriginalContent: row.OriginalContent,
		FileData: models.FileData{
			Name:         row.FileName,
			Size:         row.FileSize,
			Type:         row.FileType,
			LastModified: row.FileLastModified,
		},
		Analysis: models.DocumentAnalysis{
			Confidence: row.Confidence,
			Language:   row.Language,
			Method:     models.AnalysisMethod(row.AnalysisMethod),
		},
	}

	if err := json.Unmarshal([]byte(row.KeyPoints), &doc.Summary.KeyPoints); err != nil {
		return nil, fmt.Errorf("decode key points of %s: %w", row.ID, err)
	}
	if err := json.Unmarshal([]byte(row.Entities), &doc.Analysis.Entities); err != nil {
		return nil, fmt.Errorf("decode entities of %s: %w", row.ID, err)
	}
	return doc, nil
}

func marshalList(items []string) (string, error) {
	if items == nil {
		items = []string{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Save assigns a fresh id to doc and persists it.
func (r *documentRepository) Save(ctx context.Context, doc *models.StoredDocument) error {
	doc.ID = utils.GenerateID()

	row, err := toRow(doc)
	if err != nil {
		return utils.NewStorageWriteError("failed to encode document", err)
	}

	if _, err := r.db.NamedExecContext(ctx, insertDocument, row); err != nil {
		return utils.NewStorageWriteError("failed to save document", err)
	}
	return nil
}

func (r *documentRepository) GetByID(ctx context.Context, id string) (*models.StoredDocument, error) {
	var row documentRow
	query := `SELECT ` + documentColumns + ` FROM documents WHERE id = ?`

	err := r.db.GetContext(ctx, &row, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, utils.NewStorageReadError("failed to read document", err)
	}

	doc, err := row.toDocument()
	if err != nil {
		return nil, utils.NewStorageReadError("failed to decode document", err)
	}
	return doc, nil
}

func (r *documentRepository) List(ctx context.Context) ([]models.StoredDocument, error) {
	return r.selectDocuments(ctx, `SELECT `+documentColumns+` FROM documents ORDER BY seq`)
}

// Update merges patch into the stored document and returns the result.
// A missing document yields nil with no error.
func (r *documentRepository) Update(ctx context.Context, id string, patch models.DocumentPatch) (*models.StoredDocument, error) {
	unlock := r.locks.Lock(id)
	defer unlock()

	doc, err := r.GetByID(ctx, id)
	if err != nil || doc == nil {
		return nil, err
	}

	doc.Apply(patch)
	row, err := toRow(doc)
	if err != nil {
		return nil, utils.NewStorageWriteError("failed to encode document", err)
	}

	query := `
		UPDATE documents
		SET title = :title, type = :type, department = :department, headline = :headline,
		    key_points = :key_points, detailed = :detailed, priority = :priority,
		    entities = :entities, confidence = :confidence, language = :language, updated_at = :updated_at
		WHERE id = :id
	`
	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return nil, utils.NewStorageWriteError("failed to update document", err)
	}
	return doc, nil
}

func (r *documentRepository) Delete(ctx context.Context, id string) (bool, error) {
	unlock := r.locks.Lock(id)
	defer unlock()

	res, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return false, utils.NewStorageWriteError("failed to delete document", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, utils.NewStorageWriteError("failed to delete document", err)
	}
	return n > 0, nil
}

// Search returns documents whose title, type, department or summary
// contains query, in insertion order.
func (r *documentRepository) Search(ctx context.Context, query string) ([]models.StoredDocument, error) {
	docs, err := r.List(ctx)
	if err != nil {
		return nil, err
	}

	matched := make([]models.StoredDocument, 0, len(docs))
	for i := range docs {
		if docs[i].Matches(query) {
			matched = append(matched, docs[i])
		}
	}
	return matched, nil
}

var fieldColumns = map[models.DocumentField]string{
	models.FieldDepartment: "department",
	models.FieldPriority:   "priority",
	models.FieldType:       "type",
}

func (r *documentRepository) ListByField(ctx context.Context, field models.DocumentField, value string) ([]models.StoredDocument, error) {
	column, ok := fieldColumns[field]
	if !ok {
		return nil, utils.NewBadRequestError(fmt.Sprintf("cannot filter documents by %q", field))
	}

	query := `SELECT ` + documentColumns + ` FROM documents WHERE ` + column + ` = ? ORDER BY seq`
	return r.selectDocuments(ctx, query, value)
}

// ReplaceAll swaps the whole collection for docs in one transaction.
// Documents without an id are given one.
func (r *documentRepository) ReplaceAll(ctx context.Context, docs []models.StoredDocument) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return utils.NewStorageWriteError("failed to begin import", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM documents`); err != nil {
		return utils.NewStorageWriteError("failed to clear documents", err)
	}

	for i := range docs {
		if docs[i].ID == "" {
			docs[i].ID = utils.GenerateID()
		}
		row, err := toRow(&docs[i])
		if err != nil {
			return utils.NewStorageWriteError("failed to encode document", err)
		}
		if _, err := tx.NamedExecContext(ctx, insertDocument, row); err != nil {
			return utils.NewStorageWriteError(fmt.Sprintf("failed to import document %s", docs[i].ID), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return utils.NewStorageWriteError("failed to commit import", err)
	}
	return nil
}

func (r *documentRepository) Stats(ctx context.Context) (*models.StorageStats, error) {
	var stats struct {
		Count     int   `db:"count"`
		TotalSize int64 `db:"total_size"`
	}
	query := `SELECT COUNT(*) AS count, COALESCE(SUM(file_size), 0) AS total_size FROM documents`
	if err := r.db.GetContext(ctx, &stats, query); err != nil {
		return nil, utils.NewStorageReadError("failed to compute storage stats", err)
	}
	return &models.StorageStats{Count: stats.Count, TotalSize: stats.TotalSize}, nil
}

func (r *documentRepository) selectDocuments(ctx context.Context, query string, args ...interface{}) ([]models.StoredDocument, error) {
	var rows []documentRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, utils.NewStorageReadError("failed to list documents", err)
	}

	docs := make([]models.StoredDocument, 0, len(rows))
	for i := range rows {
		doc, err := rows[i].toDocument()
		if err != nil {
			return nil, utils.NewStorageReadError("failed to decode document", err)
		}
		docs = append(docs, *doc)
	}
	return docs, nil
}
