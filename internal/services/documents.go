package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BerylCAtieno/knowledge-lens-api/internal/analyzer"
	"github.com/BerylCAtieno/knowledge-lens-api/internal/extractor"
	"github.com/BerylCAtieno/knowledge-lens-api/internal/knowledge"
	"github.com/BerylCAtieno/knowledge-lens-api/internal/models"
	"github.com/BerylCAtieno/knowledge-lens-api/internal/qa"
	"github.com/BerylCAtieno/knowledge-lens-api/internal/repository"
	"github.com/BerylCAtieno/knowledge-lens-api/internal/storage"
	"github.com/BerylCAtieno/knowledge-lens-api/internal/utils"
	"golang.org/x/sync/errgroup"
)

const DefaultSimilarLimit = 5

type DocumentService interface {
	Upload(ctx context.Context, req *models.UploadRequest) (*models.StoredDocument, error)
	Get(ctx context.Context, id string) (*models.StoredDocument, error)
	List(ctx context.Context, field models.DocumentField, value string) ([]models.StoredDocument, error)
	Update(ctx context.Context, id string, patch models.DocumentPatch) (*models.StoredDocument, error)
	Delete(ctx context.Context, id string) error
	Search(ctx context.Context, query string) (*models.SearchResponse, error)
	Ask(ctx context.Context, req models.AskRequest) (*models.AskResponse, error)
	GetInsights(ctx context.Context, id string) (*models.DocumentInsights, error)
	GenerateSummary(ctx context.Context, id string, kind models.SummaryKind) (string, error)
	FindSimilar(ctx context.Context, id string, limit int) ([]models.StoredDocument, error)
	OpenOriginal(ctx context.Context, id string) ([]byte, *models.StoredDocument, error)
	RebuildKnowledgeIndex(ctx context.Context) (int, error)
	Stats(ctx context.Context) (*models.StorageStats, error)
	Export(ctx context.Context) ([]models.StoredDocument, error)
	Import(ctx context.Context, docs []models.StoredDocument) (int, error)
}

// DocumentDeps are the collaborators of the document service. Storage may
// be nil, in which case original files are not archived.
type DocumentDeps struct {
	Repo        repository.DocumentRepository
	Storage     storage.Storage
	Analyzer    analyzer.Analyzer
	QA          *qa.Service
	Index       *knowledge.Index
	MaxFileSize int64
	Logger      *utils.Logger
}

type documentService struct {
	repo        repository.DocumentRepository
	storage     storage.Storage
	analyzer    analyzer.Analyzer
	qa          *qa.Service
	index       *knowledge.Index
	maxFileSize int64
	logger      *utils.Logger
}

func NewDocumentService(deps DocumentDeps) DocumentService {
	return &documentService{
		repo:        deps.Repo,
		storage:     deps.Storage,
		analyzer:    deps.Analyzer,
		qa:          deps.QA,
		index:       deps.Index,
		maxFileSize: deps.MaxFileSize,
		logger:      deps.Logger,
	}
}

func (s *documentService) Upload(ctx context.Context, req *models.UploadRequest) (*models.StoredDocument, error) {
	if strings.TrimSpace(req.Filename) == "" {
		return nil, utils.NewBadRequestError("Filename is required")
	}
	if s.maxFileSize > 0 && int64(len(req.File)) > s.maxFileSize {
		return nil, utils.NewBadRequestError(fmt.Sprintf("File size exceeds %d byte limit", s.maxFileSize))
	}

	extracted, err := extractor.Extract(ctx, req.Filename, req.ContentType, bytes.NewReader(req.File))
	if errors.Is(err, extractor.ErrDecode) {
		s.logger.Warn("Failed to decode document", "filename", req.Filename, "content_type", req.ContentType)
		return nil, utils.NewDecodeError(fmt.Sprintf("File %s could not be decoded as text", req.Filename), err)
	}
	if err != nil {
		s.logger.Error("Failed to extract text", "error", err, "filename", req.Filename)
		return nil, utils.NewInternalError("Failed to read uploaded file")
	}
	if extracted.Degraded {
		s.logger.Warn("Extraction degraded", "filename", req.Filename, "kind", extracted.Kind)
	}

	analysis := s.analyzer.Analyze(ctx, extracted.Text, req.Filename)

	now := time.Now().UTC()
	lastModified := req.LastModified
	if lastModified == 0 {
		lastModified = now.UnixMilli()
	}

	doc := &models.StoredDocument{
		Title:           analysis.Title,
		Type:            analysis.Type,
		Department:      analysis.Department,
		Date:            now.Format(time.RFC3339),
		Summary:         analysis.Summary,
		Priority:        analysis.Priority,
		Source:          req.Filename,
		OriginalContent: extracted.Text,
		FileData: models.FileData{
			Name:         req.Filename,
			Size:         int64(len(req.File)),
			Type:         req.ContentType,
			LastModified: lastModified,
		},
		Analysis: models.DocumentAnalysis{
			Entities:   analysis.Entities,
			Confidence: analysis.Confidence,
			Language:   analysis.Language,
			Method:     analysis.Method,
		},
	}

	if err := s.repo.Save(ctx, doc); err != nil {
		s.logger.Error("Failed to save document", "error", err, "filename", req.Filename)
		return nil, err
	}

	if s.storage != nil {
		key := storage.ArchiveKey(doc.ID, req.Filename)
		if err := s.storage.Upload(ctx, key, req.File, req.ContentType); err != nil {
			s.logger.Error("Failed to archive original file", "error", err, "s3_key", key)
			if _, delErr := s.repo.Delete(ctx, doc.ID); delErr != nil {
				s.logger.Error("Failed to roll back document", "error", delErr, "id", doc.ID)
			}
			return nil, utils.NewStorageWriteError("Failed to archive original file", err)
		}
	}

	s.afterChange(ctx)

	s.logger.Info("Document uploaded successfully",
		"id", doc.ID,
		"filename", req.Filename,
		"type", doc.Type,
		"method", doc.Analysis.Method,
		"degraded", extracted.Degraded,
		"text_length", len(extracted.Text))

	return doc, nil
}

func (s *documentService) Get(ctx context.Context, id string) (*models.StoredDocument, error) {
	doc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to get document", "error", err, "id", id)
		return nil, err
	}
	if doc == nil {
		return nil, utils.NewNotFoundError("Document not found")
	}
	return doc, nil
}

// List returns every document, or those whose field equals value when a
// field is given.
func (s *documentService) List(ctx context.Context, field models.DocumentField, value string) ([]models.StoredDocument, error) {
	if field == "" {
		return s.repo.List(ctx)
	}
	return s.repo.ListByField(ctx, field, value)
}

func (s *documentService) Update(ctx context.Context, id string, patch models.DocumentPatch) (*models.StoredDocument, error) {
	if patch.IsEmpty() {
		return nil, utils.NewBadRequestError("Update contains no fields")
	}
	if patch.Priority != nil {
		p, ok := models.ParsePriority(string(*patch.Priority))
		if !ok {
			return nil, utils.NewBadRequestError("Priority must be high, medium or low")
		}
		patch.Priority = &p
	}
	if patch.Confidence != nil && (*patch.Confidence < 0 || *patch.Confidence > 100) {
		return nil, utils.NewBadRequestError("Confidence must be between 0 and 100")
	}

	doc, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		s.logger.Error("Failed to update document", "error", err, "id", id)
		return nil, err
	}
	if doc == nil {
		return nil, utils.NewNotFoundError("Document not found")
	}

	s.afterChange(ctx)
	return doc, nil
}

func (s *documentService) Delete(ctx context.Context, id string) error {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		s.logger.Error("Failed to delete document", "error", err, "id", id)
		return err
	}
	if !deleted {
		return utils.NewNotFoundError("Document not found")
	}

	if s.storage != nil {
		key := storage.ArchiveKey(id, doc.Source)
		if err := s.storage.Delete(ctx, key); err != nil {
			s.logger.Warn("Failed to delete archived file", "error", err, "s3_key", key)
		}
	}

	s.afterChange(ctx)
	return nil
}

// Search returns the matching documents together with an answer to the
// query drawn from the knowledge index. An empty query lists everything
// and skips the answer.
func (s *documentService) Search(ctx context.Context, query string) (*models.SearchResponse, error) {
	docs, err := s.repo.Search(ctx, query)
	if err != nil {
		return nil, err
	}

	resp := &models.SearchResponse{Documents: docs}
	if strings.TrimSpace(query) != "" {
		resp.Answer = s.qa.Ask(ctx, query, "")
	}
	return resp, nil
}

func (s *documentService) Ask(ctx context.Context, req models.AskRequest) (*models.AskResponse, error) {
	if strings.TrimSpace(req.Question) == "" {
		return nil, utils.NewBadRequestError("Question is required")
	}

	if req.DocumentID != "" {
		doc, err := s.Get(ctx, req.DocumentID)
		if err != nil {
			return nil, err
		}
		return &models.AskResponse{Answer: s.qa.AskDocument(ctx, req.Question, doc.OriginalContent)}, nil
	}

	return &models.AskResponse{Answer: s.qa.Ask(ctx, req.Question, "")}, nil
}

// GetInsights runs the summaries, entity extraction and similar-document
// lookup concurrently.
func (s *documentService) GetInsights(ctx context.Context, id string) (*models.DocumentInsights, error) {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	insights := &models.DocumentInsights{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		insights.ExecutiveSummary = s.qa.Summarize(gctx, doc.OriginalContent, models.SummaryExecutive)
		return nil
	})
	g.Go(func() error {
		insights.TechnicalSummary = s.qa.Summarize(gctx, doc.OriginalContent, models.SummaryTechnical)
		return nil
	})
	g.Go(func() error {
		insights.ActionItems = s.qa.Summarize(gctx, doc.OriginalContent, models.SummaryActionItems)
		return nil
	})
	g.Go(func() error {
		insights.Entities = s.qa.ExtractEntities(gctx, doc.OriginalContent)
		return nil
	})
	g.Go(func() error {
		similar, err := s.similarTo(gctx, doc, DefaultSimilarLimit)
		insights.SimilarDocuments = similar
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return insights, nil
}

func (s *documentService) GenerateSummary(ctx context.Context, id string, kind models.SummaryKind) (string, error) {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return s.qa.Summarize(ctx, doc.OriginalContent, kind), nil
}

func (s *documentService) FindSimilar(ctx context.Context, id string, limit int) ([]models.StoredDocument, error) {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.similarTo(ctx, doc, limit)
}

// similarTo returns other documents sharing the type, department or
// priority of doc, in insertion order.
func (s *documentService) similarTo(ctx context.Context, doc *models.StoredDocument, limit int) ([]models.StoredDocument, error) {
	if limit <= 0 {
		limit = DefaultSimilarLimit
	}

	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	similar := make([]models.StoredDocument, 0, limit)
	for _, other := range all {
		if other.ID == doc.ID {
			continue
		}
		if other.Type == doc.Type || other.Department == doc.Department || other.Priority == doc.Priority {
			similar = append(similar, other)
			if len(similar) == limit {
				break
			}
		}
	}
	return similar, nil
}

// OpenOriginal returns the archived bytes of the uploaded file.
func (s *documentService) OpenOriginal(ctx context.Context, id string) ([]byte, *models.StoredDocument, error) {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if s.storage == nil {
		return nil, nil, utils.NewNotFoundError("File archive is not enabled")
	}

	data, err := s.storage.Download(ctx, storage.ArchiveKey(doc.ID, doc.Source))
	if errors.Is(err, storage.ErrObjectNotFound) {
		return nil, nil, utils.NewNotFoundError("Original file not found")
	}
	if err != nil {
		s.logger.Error("Failed to download original file", "error", err, "id", id)
		return nil, nil, utils.NewStorageReadError("Failed to read original file", err)
	}
	return data, doc, nil
}

// RebuildKnowledgeIndex reloads the knowledge index from the store and
// returns the number of entries.
func (s *documentService) RebuildKnowledgeIndex(ctx context.Context) (int, error) {
	docs, err := s.repo.List(ctx)
	if err != nil {
		return 0, err
	}
	s.index.Rebuild(docs)
	return s.index.Len(), nil
}

func (s *documentService) Stats(ctx context.Context) (*models.StorageStats, error) {
	return s.repo.Stats(ctx)
}

func (s *documentService) Export(ctx context.Context) ([]models.StoredDocument, error) {
	return s.repo.List(ctx)
}

// Import replaces the whole collection with docs.
func (s *documentService) Import(ctx context.Context, docs []models.StoredDocument) (int, error) {
	seen := make(map[string]int, len(docs))
	for i := range docs {
		if first, dup := seen[docs[i].ID]; dup {
			return 0, utils.NewBadRequestError(fmt.Sprintf("Document %d repeats the id of document %d", i, first))
		}
		seen[docs[i].ID] = i
		p, ok := models.ParsePriority(string(docs[i].Priority))
		if !ok {
			return 0, utils.NewBadRequestError(fmt.Sprintf("Document %d has an invalid priority", i))
		}
		docs[i].Priority = p
		if c := docs[i].Analysis.Confidence; c < 0 || c > 100 {
			return 0, utils.NewBadRequestError(fmt.Sprintf("Document %d has confidence outside 0-100", i))
		}
	}

	if err := s.repo.ReplaceAll(ctx, docs); err != nil {
		s.logger.Error("Failed to import documents", "error", err, "count", len(docs))
		return 0, err
	}

	s.afterChange(ctx)
	return len(docs), nil
}

// afterChange keeps the knowledge index in step with the store.
func (s *documentService) afterChange(ctx context.Context) {
	if _, err := s.RebuildKnowledgeIndex(ctx); err != nil {
		s.logger.Error("Failed to rebuild knowledge index", "error", err)
	}
}
