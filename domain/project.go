package domain

import (
	"errors"
	"strings"
	"time"

	"gorm.io/datatypes"
)

var (
	ErrProjectNotFound = errors.New("project not found")
	ErrInvalidProject  = errors.New("invalid project")
)

const (
	ProjectStatusDraft      = "draft"
	ProjectStatusInProgress = "in_progress"
	ProjectStatusCompleted  = "completed"
)

// MaxStoredProjects is how many records the store keeps, newest first.
const MaxStoredProjects = 100

// CREATE TABLE public.projects (
//     id           TEXT PRIMARY KEY,
//     name         TEXT NOT NULL,
//     description  TEXT,
//     tags         JSONB,
//     status       TEXT NOT NULL,
//     author       TEXT,
//     sql_code     TEXT,
//     transcript   JSONB,
//     binning      JSONB,
//     seq          BIGSERIAL UNIQUE,
//     created_at   TIMESTAMPTZ DEFAULT NOW(),
//     updated_at   TIMESTAMPTZ DEFAULT NOW()
// );

type Project struct {
	ID          string                      `gorm:"primaryKey;column:id;type:text" json:"id"`
	Name        string                      `gorm:"column:name;type:text;not null" json:"name"`
	Description string                      `gorm:"column:description;type:text" json:"description"`
	Tags        datatypes.JSONSlice[string] `gorm:"column:tags;type:jsonb" json:"tags"`
	Status      string                      `gorm:"column:status;type:text;not null" json:"status"`
	Author      string                      `gorm:"column:author;type:text" json:"author"`
	SQLCode     string                      `gorm:"column:sql_code;type:text" json:"sql_code,omitempty"`
	Transcript  datatypes.JSON              `gorm:"column:transcript;type:jsonb" json:"transcript,omitempty"`
	Binning     datatypes.JSON              `gorm:"column:binning;type:jsonb" json:"binning,omitempty"`
	Seq         int64                       `gorm:"column:seq;autoIncrement;uniqueIndex" json:"-"`
	CreatedAt   time.Time                   `gorm:"column:created_at;index" json:"created_at"`
	UpdatedAt   time.Time                   `gorm:"column:updated_at" json:"updated_at"`
}

func (Project) TableName() string {
	return "projects"
}

type ProjectFilter struct {
	Status  string
	Keyword string
	Since   time.Time
}

// Matches applies the filter in memory. Keyword matching is case-insensitive
// over name, description and tags.
func (f ProjectFilter) Matches(p Project) bool {
	if f.Status != "" && p.Status != f.Status {
		return false
	}
	if !f.Since.IsZero() && p.CreatedAt.Before(f.Since) {
		return false
	}
	if f.Keyword == "" {
		return true
	}

	kw := strings.ToLower(f.Keyword)
	if strings.Contains(strings.ToLower(p.Name), kw) || strings.Contains(strings.ToLower(p.Description), kw) {
		return true
	}
	for _, tag := range p.Tags {
		if strings.Contains(strings.ToLower(tag), kw) {
			return true
		}
	}
	return false
}

func ValidProjectStatus(status string) bool {
	switch status {
	case ProjectStatusDraft, ProjectStatusInProgress, ProjectStatusCompleted:
		return true
	}
	return false
}

// ProjectExport is the portable form of a project.
type ProjectExport struct {
	Project    Project   `json:"project"`
	ExportedAt time.Time `json:"exported_at"`
	ShareCode  string    `json:"share_code"`
}

// BinningSnapshot is what gets attached to a project when a binning result is applied.
type BinningSnapshot struct {
	SessionID string        `json:"session_id"`
	Feature   string        `json:"feature"`
	CutPoints CutPointSet   `json:"cut_points"`
	Summary   BinSummary    `json:"summary"`
	Table     []BinTableRow `json:"table"`
	AppliedAt time.Time     `json:"applied_at"`
}
