package services

import (
	"context"
	"fmt"
	"time"

	"github.com/BerylCAtieno/knowledge-lens-api/internal/models"
	"github.com/BerylCAtieno/knowledge-lens-api/internal/repository"
	"github.com/BerylCAtieno/knowledge-lens-api/internal/utils"
)

const dateLayout = "2006-01-02"

type ProjectService interface {
	Create(ctx context.Context, p *models.Project) (*models.Project, error)
	Get(ctx context.Context, id string) (*models.Project, error)
	List(ctx context.Context, filter models.ProjectFilter) ([]models.Project, error)
	Update(ctx context.Context, id string, patch models.ProjectPatch) (*models.Project, error)
	Delete(ctx context.Context, id string) error
}

type projectService struct {
	repo   repository.ProjectRepository
	locks  *utils.KeyedMutex
	logger *utils.Logger
	now    func() time.Time
}

func NewProjectService(repo repository.ProjectRepository, logger *utils.Logger) ProjectService {
	return &projectService{
		repo:   repo,
		locks:  utils.NewKeyedMutex(),
		logger: logger,
		now:    time.Now,
	}
}

// Create starts a project with no progress and no recorded activity.
func (s *projectService) Create(ctx context.Context, p *models.Project) (*models.Project, error) {
	now := s.now().UTC()

	if p.Status == "" {
		p.Status = models.ProjectPlanning
	}
	if p.Priority == "" {
		p.Priority = models.PriorityMedium
	}
	p.Completion = 0
	p.DocumentsCount = 0
	p.UpdatesCount = 0
	p.LastUpdate = now.Format(dateLayout)
	p.CreatedDate = now.Format(time.RFC3339)
	if p.Team == nil {
		p.Team = []string{}
	}
	if p.KeyMilestones == nil {
		p.KeyMilestones = []string{}
	}
	if p.AssignedTo == nil {
		p.AssignedTo = []string{}
	}

	if err := p.Validate(); err != nil {
		return nil, utils.NewBadRequestError(fmt.Sprintf("Invalid project: %v", err))
	}
	if err := s.repo.Save(ctx, p); err != nil {
		s.logger.Error("Failed to save project", "error", err, "name", p.Name)
		return nil, err
	}

	s.logger.Info("Project created", "id", p.ID, "name", p.Name)
	return p, nil
}

func (s *projectService) Get(ctx context.Context, id string) (*models.Project, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, utils.NewNotFoundError("Project not found")
	}
	return p, nil
}

func (s *projectService) List(ctx context.Context, filter models.ProjectFilter) ([]models.Project, error) {
	if filter.Priority != "" {
		p, ok := models.ParsePriority(string(filter.Priority))
		if !ok {
			return nil, utils.NewBadRequestError("Invalid priority filter")
		}
		filter.Priority = p
	}
	return s.repo.List(ctx, filter)
}

func (s *projectService) Update(ctx context.Context, id string, patch models.ProjectPatch) (*models.Project, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	p.Apply(patch)
	p.LastUpdate = s.now().UTC().Format(dateLayout)

	if err := p.Validate(); err != nil {
		return nil, utils.NewBadRequestError(fmt.Sprintf("Invalid project: %v", err))
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *projectService) Delete(ctx context.Context, id string) error {
	unlock := s.locks.Lock(id)
	defer unlock()

	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return utils.NewNotFoundError("Project not found")
	}
	return nil
}
