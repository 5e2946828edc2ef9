package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"strategyWorkbench/domain"
)

// ProjectRepository keeps project records in process memory. It is the
// default store and the one used by tests.
type ProjectRepository struct {
	mu       sync.RWMutex
	projects map[string]domain.Project
	seq      int64
}

func NewProjectRepository() *ProjectRepository {
	return &ProjectRepository{
		projects: make(map[string]domain.Project),
	}
}

func (r *ProjectRepository) Create(ctx context.Context, project *domain.Project) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.projects[project.ID]; exists {
		return fmt.Errorf("failed to create project: duplicate id %s", project.ID)
	}
	r.seq++
	project.Seq = r.seq
	r.projects[project.ID] = cloneProject(*project)

	return nil
}

func (r *ProjectRepository) FindByID(ctx context.Context, id string) (domain.Project, error) {
	if err := ctx.Err(); err != nil {
		return domain.Project{}, fmt.Errorf("context error: %w", err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.projects[id]
	if !ok {
		return domain.Project{}, domain.ErrProjectNotFound
	}

	return cloneProject(p), nil
}

// FindAll returns matching projects, newest first.
func (r *ProjectRepository) FindAll(ctx context.Context, filter domain.ProjectFilter) ([]domain.Project, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	projects := make([]domain.Project, 0, len(r.projects))
	for _, p := range r.projects {
		if filter.Matches(p) {
			projects = append(projects, cloneProject(p))
		}
	}
	sortNewestFirst(projects)

	return projects, nil
}

// Update replaces the record. A nil Binning keeps the stored one.
func (r *ProjectRepository) Update(ctx context.Context, project *domain.Project) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.projects[project.ID]; !ok {
		return domain.ErrProjectNotFound
	}
	current := r.projects[project.ID]
	updated := cloneProject(*project)
	updated.Seq = current.Seq
	if updated.Binning == nil {
		updated.Binning = current.Binning
	}
	r.projects[project.ID] = updated

	return nil
}

// UpdateBinning writes only the binning columns, promoting a draft to in_progress.
func (r *ProjectRepository) UpdateBinning(ctx context.Context, id string, binning []byte, updatedAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.projects[id]
	if !ok {
		return domain.ErrProjectNotFound
	}
	p.Binning = append([]byte(nil), binning...)
	p.UpdatedAt = updatedAt
	if p.Status == domain.ProjectStatusDraft {
		p.Status = domain.ProjectStatusInProgress
	}
	r.projects[id] = p

	return nil
}

func (r *ProjectRepository) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.projects[id]; !ok {
		return domain.ErrProjectNotFound
	}
	delete(r.projects, id)

	return nil
}

// PruneOldest drops everything but the keep most recent projects.
func (r *ProjectRepository) PruneOldest(ctx context.Context, keep int) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("context error: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.projects) <= keep {
		return 0, nil
	}

	all := make([]domain.Project, 0, len(r.projects))
	for _, p := range r.projects {
		all = append(all, p)
	}
	sortNewestFirst(all)

	var dropped int64
	for _, p := range all[keep:] {
		delete(r.projects, p.ID)
		dropped++
	}

	return dropped, nil
}

func sortNewestFirst(projects []domain.Project) {
	sort.Slice(projects, func(i, j int) bool {
		if projects[i].CreatedAt.Equal(projects[j].CreatedAt) {
			return projects[i].Seq > projects[j].Seq
		}
		return projects[i].CreatedAt.After(projects[j].CreatedAt)
	})
}

func cloneProject(p domain.Project) domain.Project {
	out := p
	if p.Tags != nil {
		out.Tags = append([]string(nil), p.Tags...)
	}
	if p.Transcript != nil {
		out.Transcript = append([]byte(nil), p.Transcript...)
	}
	if p.Binning != nil {
		out.Binning = append([]byte(nil), p.Binning...)
	}
	return out
}
