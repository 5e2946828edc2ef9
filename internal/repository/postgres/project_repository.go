package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"strategyWorkbench/domain"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ProjectRepository struct {
	DB *gorm.DB
}

func NewProjectRepository(db *gorm.DB) *ProjectRepository {
	return &ProjectRepository{
		DB: db,
	}
}

func (r *ProjectRepository) Create(ctx context.Context, project *domain.Project) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	if err := r.DB.WithContext(ctx).Create(project).Error; err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}

	return nil
}

func (r *ProjectRepository) FindByID(ctx context.Context, id string) (domain.Project, error) {
	if err := ctx.Err(); err != nil {
		return domain.Project{}, fmt.Errorf("context error: %w", err)
	}

	var project domain.Project

	err := r.DB.WithContext(ctx).Where("id = ?", id).First(&project).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Project{}, domain.ErrProjectNotFound
		}
		return domain.Project{}, fmt.Errorf("failed to find project: %w", err)
	}

	return project, nil
}

func (r *ProjectRepository) FindAll(ctx context.Context, filter domain.ProjectFilter) ([]domain.Project, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	query := r.DB.WithContext(ctx).Model(&domain.Project{})

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if !filter.Since.IsZero() {
		query = query.Where("created_at >= ?", filter.Since)
	}
	if kw := strings.TrimSpace(filter.Keyword); kw != "" {
		like := "%" + escapeLike(kw) + "%"
		query = query.Where("name ILIKE ? OR description ILIKE ? OR tags::text ILIKE ?", like, like, like)
	}

	var projects []domain.Project
	err := query.Order("created_at DESC").Order("seq DESC").Find(&projects).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find projects: %w", err)
	}

	return projects, nil
}

func (r *ProjectRepository) Update(ctx context.Context, project *domain.Project) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	updateData := map[string]interface{}{
		"name":        project.Name,
		"description": project.Description,
		"tags":        project.Tags,
		"status":      project.Status,
		"author":      project.Author,
		"sql_code":    project.SQLCode,
		"transcript":  project.Transcript,
		"updated_at":  project.UpdatedAt,
	}
	if project.Binning != nil {
		updateData["binning"] = project.Binning
	}

	result := r.DB.WithContext(ctx).Model(&domain.Project{}).Where("id = ?", project.ID).Updates(updateData)
	if result.Error != nil {
		return fmt.Errorf("failed to update project: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrProjectNotFound
	}

	return nil
}

// UpdateBinning touches only binning, updated_at and a draft status, so a
// concurrent UpdateProject keeps its other columns.
func (r *ProjectRepository) UpdateBinning(ctx context.Context, id string, binning []byte, updatedAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	updateData := map[string]interface{}{
		"binning":    datatypes.JSON(binning),
		"updated_at": updatedAt,
		"status": gorm.Expr("CASE WHEN status = ? THEN ? ELSE status END",
			domain.ProjectStatusDraft, domain.ProjectStatusInProgress),
	}

	result := r.DB.WithContext(ctx).Model(&domain.Project{}).Where("id = ?", id).Updates(updateData)
	if result.Error != nil {
		return fmt.Errorf("failed to attach binning: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrProjectNotFound
	}

	return nil
}

func (r *ProjectRepository) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	result := r.DB.WithContext(ctx).Where("id = ?", id).Delete(&domain.Project{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete project: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrProjectNotFound
	}

	return nil
}

// PruneOldest deletes every project outside the keep most recent ones.
func (r *ProjectRepository) PruneOldest(ctx context.Context, keep int) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("context error: %w", err)
	}

	newest := r.DB.Model(&domain.Project{}).
		Select("id").
		Order("created_at DESC").
		Order("seq DESC").
		Limit(keep)

	result := r.DB.WithContext(ctx).Where("id NOT IN (?)", newest).Delete(&domain.Project{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to prune projects: %w", result.Error)
	}

	return result.RowsAffected, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
