package project

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"strategyWorkbench/domain"
	"strategyWorkbench/pkg/logger"
	"strategyWorkbench/pkg/task"

	"github.com/google/uuid"
	"github.com/pobyzaarif/goshortcute"
)

// ProjectRepository contract interface
type ProjectRepository interface {
	Create(ctx context.Context, project *domain.Project) error
	FindByID(ctx context.Context, id string) (domain.Project, error)
	FindAll(ctx context.Context, filter domain.ProjectFilter) ([]domain.Project, error)
	Update(ctx context.Context, project *domain.Project) error
	Delete(ctx context.Context, id string) error
	PruneOldest(ctx context.Context, keep int) (int64, error)
	UpdateBinning(ctx context.Context, id string, binning []byte, updatedAt time.Time) error
}

type TaskRunner interface {
	Submit(name string, fn task.Func) *task.Future
}

type projectService struct {
	projectRepo ProjectRepository
	tasks       TaskRunner
	now         func() time.Time
	keep        int
}

func NewProjectService(projectRepo ProjectRepository, tasks TaskRunner) *projectService {
	return &projectService{
		projectRepo: projectRepo,
		tasks:       tasks,
		now:         time.Now,
		keep:        domain.MaxStoredProjects,
	}
}

func (s *projectService) ListProjects(ctx context.Context, filter domain.ProjectFilter) ([]domain.Project, error) {
	if err := ctx.Err(); err != nil {
		logger.Error("context error when listing projects")
		return nil, fmt.Errorf("context error: %w", err)
	}

	if filter.Status != "" && !domain.ValidProjectStatus(filter.Status) {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidProject, filter.Status)
	}

	projects, err := s.projectRepo.FindAll(ctx, filter)
	if err != nil {
		logger.Error("failed to list projects", err)
		return nil, err
	}

	return projects, nil
}

func (s *projectService) GetProject(ctx context.Context, id string) (domain.Project, error) {
	if err := ctx.Err(); err != nil {
		logger.Error("context error when get project by id")
		return domain.Project{}, fmt.Errorf("context error: %w", err)
	}

	if strings.TrimSpace(id) == "" {
		return domain.Project{}, domain.ErrProjectNotFound
	}

	project, err := s.projectRepo.FindByID(ctx, id)
	if err != nil {
		logger.Error("failed to find project", "project_id", id, err)
		return domain.Project{}, err
	}

	return project, nil
}

// SaveProject stores a new record, then trims the store to the most recent ones.
func (s *projectService) SaveProject(ctx context.Context, project *domain.Project) (*domain.Project, error) {
	if err := ctx.Err(); err != nil {
		logger.Error("context error when saving project")
		return nil, fmt.Errorf("context error: %w", err)
	}

	if err := normalize(project); err != nil {
		logger.Error("invalid project data", err)
		return nil, err
	}

	now := s.now()
	project.ID = uuid.NewString()
	project.Seq = 0
	project.CreatedAt = now
	project.UpdatedAt = now

	if err := s.projectRepo.Create(ctx, project); err != nil {
		logger.Error("failed to create project", err)
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	if err := s.capProjects(ctx); err != nil {
		return nil, err
	}

	logger.Info("project saved", "project_id", project.ID, "status", project.Status)

	return project, nil
}

func (s *projectService) UpdateProject(ctx context.Context, project *domain.Project) (*domain.Project, error) {
	if err := ctx.Err(); err != nil {
		logger.Error("context error when updating project")
		return nil, fmt.Errorf("context error: %w", err)
	}

	existing, err := s.projectRepo.FindByID(ctx, project.ID)
	if err != nil {
		logger.Error("project not found", "project_id", project.ID, err)
		return nil, err
	}

	if err := normalize(project); err != nil {
		return nil, err
	}

	project.CreatedAt = existing.CreatedAt
	project.UpdatedAt = s.now()
	if project.Transcript == nil {
		project.Transcript = existing.Transcript
	}

	// a nil Binning leaves the stored column to AttachBinning
	if err := s.projectRepo.Update(ctx, project); err != nil {
		logger.Error("failed to update project", err)
		return nil, fmt.Errorf("failed to update project: %w", err)
	}
	if project.Binning == nil {
		project.Binning = existing.Binning
	}

	logger.Info("project updated", "project_id", project.ID)

	return project, nil
}

func (s *projectService) DeleteProject(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		logger.Error("context error when deleting project")
		return fmt.Errorf("context error: %w", err)
	}

	if err := s.projectRepo.Delete(ctx, id); err != nil {
		logger.Error("failed to delete project", "project_id", id, err)
		return err
	}

	logger.Info("project deleted", "project_id", id)

	return nil
}

// DuplicateProject saves a draft copy of an existing project.
func (s *projectService) DuplicateProject(ctx context.Context, id string) (*domain.Project, error) {
	source, err := s.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}

	copied := source
	copied.Name = source.Name + " (copy)"
	copied.Status = domain.ProjectStatusDraft
	copied.Tags = append([]string(nil), source.Tags...)

	return s.SaveProject(ctx, &copied)
}

func (s *projectService) ExportProject(ctx context.Context, id string) (domain.ProjectExport, error) {
	project, err := s.GetProject(ctx, id)
	if err != nil {
		return domain.ProjectExport{}, err
	}

	return s.export(project)
}

// ImportProject saves a new project from a share code produced by ExportProject.
func (s *projectService) ImportProject(ctx context.Context, shareCode string) (*domain.Project, error) {
	decoded := goshortcute.StringtoBase64Decode(strings.TrimSpace(shareCode))
	if decoded == "" {
		return nil, fmt.Errorf("%w: empty or malformed share code", domain.ErrInvalidProject)
	}

	var project domain.Project
	if err := json.Unmarshal([]byte(decoded), &project); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidProject, err)
	}

	return s.SaveProject(ctx, &project)
}

// ExportAllProjects exports every stored project in the background.
func (s *projectService) ExportAllProjects(ctx context.Context) (*task.Future, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}
	if s.tasks == nil {
		return nil, errors.New("background tasks are not configured")
	}

	f := s.tasks.Submit("export_projects", func(ctx context.Context) (any, error) {
		projects, err := s.projectRepo.FindAll(ctx, domain.ProjectFilter{})
		if err != nil {
			return nil, err
		}

		exports := make([]domain.ProjectExport, 0, len(projects))
		for _, p := range projects {
			exp, err := s.export(p)
			if err != nil {
				return nil, err
			}
			exports = append(exports, exp)
		}

		logger.Info("projects exported", "count", len(exports))
		return exports, nil
	})

	return f, nil
}

// AttachBinning stores an applied binning snapshot on the project. Only the
// binning columns are written, so it never undoes a concurrent UpdateProject.
func (s *projectService) AttachBinning(ctx context.Context, projectID string, binning []byte) (domain.Project, error) {
	if err := ctx.Err(); err != nil {
		return domain.Project{}, fmt.Errorf("context error: %w", err)
	}

	if err := s.projectRepo.UpdateBinning(ctx, projectID, binning, s.now()); err != nil {
		if errors.Is(err, domain.ErrProjectNotFound) {
			return domain.Project{}, err
		}
		logger.Error("failed to attach binning", "project_id", projectID, err)
		return domain.Project{}, fmt.Errorf("failed to update project: %w", err)
	}

	return s.GetProject(ctx, projectID)
}

func (s *projectService) export(project domain.Project) (domain.ProjectExport, error) {
	raw, err := json.Marshal(project)
	if err != nil {
		return domain.ProjectExport{}, fmt.Errorf("failed to encode project: %w", err)
	}

	return domain.ProjectExport{
		Project:    project,
		ExportedAt: s.now(),
		ShareCode:  goshortcute.StringtoBase64Encode(string(raw)),
	}, nil
}

// capProjects keeps only the most recent records.
func (s *projectService) capProjects(ctx context.Context) error {
	dropped, err := s.projectRepo.PruneOldest(ctx, s.keep)
	if err != nil {
		logger.Error("failed to prune projects", err)
		return fmt.Errorf("failed to prune projects: %w", err)
	}
	if dropped > 0 {
		logger.Debug("pruned old projects", "dropped", dropped, "keep", s.keep)
	}
	return nil
}

func normalize(project *domain.Project) error {
	project.Name = strings.TrimSpace(project.Name)
	if project.Name == "" {
		return fmt.Errorf("%w: name is required", domain.ErrInvalidProject)
	}

	if project.Status == "" {
		project.Status = domain.ProjectStatusDraft
	}
	if !domain.ValidProjectStatus(project.Status) {
		return fmt.Errorf("%w: unknown status %q", domain.ErrInvalidProject, project.Status)
	}

	tags := project.Tags[:0]
	for _, tag := range project.Tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	project.Tags = tags

	return nil
}
