package binning

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"strategyWorkbench/domain"
	"strategyWorkbench/pkg/logger"
	"strategyWorkbench/pkg/task"

	"github.com/google/uuid"
)

// SessionRepository persists workspace snapshots between requests.
type SessionRepository interface {
	Get(ctx context.Context, id string) (domain.BinningSession, error)
	Save(ctx context.Context, session domain.BinningSession) error
	Delete(ctx context.Context, id string) error
}

// ProjectBinder attaches an applied binning result to a project record.
type ProjectBinder interface {
	AttachBinning(ctx context.Context, projectID string, binning []byte) (domain.Project, error)
}

type TaskRunner interface {
	Submit(name string, fn task.Func) *task.Future
}

// View is what a client needs to paint the binning workspace.
type View struct {
	SessionID string               `json:"session_id,omitempty"`
	Feature   string               `json:"feature"`
	Label     string               `json:"label"`
	CutPoints domain.CutPointSet   `json:"cut_points"`
	Drag      domain.DragState     `json:"drag"`
	Revision  int                  `json:"revision"`
	Bins      []domain.Bin         `json:"bins"`
	Frame     domain.BarSet        `json:"chart"`
	Handles   []domain.Handle      `json:"handles"`
	Stats     domain.BinSummary    `json:"stats"`
	Table     []domain.BinTableRow `json:"table"`
	Accepted  *bool                `json:"accepted,omitempty"`
}

func (v *View) DrawBars(frame domain.BarSet) error {
	v.Frame = frame
	return nil
}

func (v *View) PlaceHandles(handles []domain.Handle) error {
	v.Handles = handles
	return nil
}

func (v *View) UpdateStats(summary domain.BinSummary) error {
	v.Stats = summary
	return nil
}

func (v *View) UpdateTable(rows []domain.BinTableRow) error {
	v.Table = rows
	return nil
}

type Service struct {
	engine   *Engine
	sessions SessionRepository
	binder   ProjectBinder
	tasks    TaskRunner
	now      func() time.Time

	locksMu sync.Mutex
	locks   map[string]*sessionLock
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

func NewService(engine *Engine, sessions SessionRepository, binder ProjectBinder, tasks TaskRunner) *Service {
	return &Service{
		engine:   engine,
		sessions: sessions,
		binder:   binder,
		tasks:    tasks,
		now:      time.Now,
		locks:    make(map[string]*sessionLock),
	}
}

func (s *Service) Features() []domain.FeatureProfile {
	return s.engine.Catalogue().List()
}

// Recompute is the stateless recompute(cutPoints) -> bins call.
func (s *Service) Recompute(ctx context.Context, feature string, cuts domain.CutPointSet) (View, error) {
	if err := ctx.Err(); err != nil {
		return View{}, fmt.Errorf("context error: %w", err)
	}

	ws, err := s.engine.NewWorkspace(feature, cuts)
	if err != nil {
		return View{}, err
	}
	return s.view("", ws)
}

func (s *Service) CreateSession(ctx context.Context, feature string, cuts domain.CutPointSet) (View, error) {
	if err := ctx.Err(); err != nil {
		return View{}, fmt.Errorf("context error: %w", err)
	}

	ws, err := s.engine.NewWorkspace(feature, cuts)
	if err != nil {
		logger.Error("failed to create binning workspace", "feature", feature, "error", err.Error())
		return View{}, err
	}

	now := s.now()
	session := domain.BinningSession{
		ID:        uuid.NewString(),
		Workspace: ws,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return View{}, fmt.Errorf("failed to save binning session: %w", err)
	}

	logger.Info("binning session created", "session_id", session.ID, "feature", ws.Feature, "bins", ws.Summary.BinCount)

	return s.view(session.ID, ws)
}

func (s *Service) GetSession(ctx context.Context, id string) (View, error) {
	if err := ctx.Err(); err != nil {
		return View{}, fmt.Errorf("context error: %w", err)
	}

	session, err := s.sessions.Get(ctx, id)
	if err != nil {
		return View{}, err
	}
	return s.view(session.ID, session.Workspace)
}

func (s *Service) DeleteSession(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	unlock := s.lock(id)
	defer unlock()

	return s.sessions.Delete(ctx, id)
}

func (s *Service) SelectFeature(ctx context.Context, id, feature string) (View, error) {
	return s.update(ctx, id, func(ws domain.Workspace) (domain.Workspace, bool, error) {
		next, err := s.engine.SelectFeature(ws, feature)
		return next, err == nil, err
	})
}

func (s *Service) SetCutPoints(ctx context.Context, id string, cuts domain.CutPointSet) (View, error) {
	return s.update(ctx, id, func(ws domain.Workspace) (domain.Workspace, bool, error) {
		next, err := s.engine.SetCutPoints(ws, cuts)
		return next, err == nil, err
	})
}

func (s *Service) BeginDrag(ctx context.Context, id string, handle int, pointerX float64) (View, error) {
	return s.update(ctx, id, func(ws domain.Workspace) (domain.Workspace, bool, error) {
		next, err := s.engine.BeginDrag(ws, handle, pointerX)
		return next, err == nil, err
	})
}

// MoveDrag applies one pointer move. View.Accepted reports whether a cut point changed.
func (s *Service) MoveDrag(ctx context.Context, id string, pointerX float64) (View, error) {
	var accepted bool
	v, err := s.update(ctx, id, func(ws domain.Workspace) (domain.Workspace, bool, error) {
		next, ok, err := s.engine.MoveDrag(ws, pointerX)
		if err != nil {
			return ws, false, err
		}
		accepted = ok
		observeDragMove(ok)
		return next, ok, nil
	})
	if err != nil {
		return View{}, err
	}
	v.Accepted = &accepted
	return v, nil
}

func (s *Service) EndDrag(ctx context.Context, id string) (View, error) {
	return s.update(ctx, id, func(ws domain.Workspace) (domain.Workspace, bool, error) {
		return s.engine.EndDrag(ws), true, nil
	})
}

// Render paints the session's current state onto an arbitrary target.
func (s *Service) Render(ctx context.Context, id string, target RenderTarget) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	session, err := s.sessions.Get(ctx, id)
	if err != nil {
		return err
	}
	return s.engine.Render(session.Workspace, target)
}

// ApplyToProject copies the current binning into a project in the background.
func (s *Service) ApplyToProject(ctx context.Context, id, projectID string) (*task.Future, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}
	if s.binder == nil || s.tasks == nil {
		return nil, errors.New("applying binning to projects is not configured")
	}

	session, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	ws := session.Workspace
	snapshot := domain.BinningSnapshot{
		SessionID: session.ID,
		Feature:   ws.Feature,
		CutPoints: ws.CutPoints.Clone(),
		Summary:   ws.Summary,
		Table:     ws.Table,
		AppliedAt: s.now(),
	}
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to encode binning snapshot: %w", err)
	}

	f := s.tasks.Submit("apply_binning", func(ctx context.Context) (any, error) {
		project, err := s.binder.AttachBinning(ctx, projectID, raw)
		if err != nil {
			return nil, err
		}
		logger.Info("binning applied to project", "session_id", session.ID, "project_id", project.ID)
		return project, nil
	})

	return f, nil
}

// update serialises transitions per session, so each session behaves like the
// single-threaded UI it models.
func (s *Service) update(ctx context.Context, id string, fn func(domain.Workspace) (domain.Workspace, bool, error)) (View, error) {
	if err := ctx.Err(); err != nil {
		return View{}, fmt.Errorf("context error: %w", err)
	}

	unlock := s.lock(id)
	defer unlock()

	session, err := s.sessions.Get(ctx, id)
	if err != nil {
		return View{}, err
	}

	next, changed, err := fn(session.Workspace)
	if err != nil {
		return View{}, err
	}

	if changed {
		session.Workspace = next
		session.UpdatedAt = s.now()
		if err := s.sessions.Save(ctx, session); err != nil {
			return View{}, fmt.Errorf("failed to save binning session: %w", err)
		}
	}

	return s.view(session.ID, session.Workspace)
}

func (s *Service) view(id string, ws domain.Workspace) (View, error) {
	v := View{
		SessionID: id,
		Feature:   ws.Feature,
		Label:     ws.Label,
		CutPoints: ws.CutPoints,
		Drag:      ws.Drag,
		Revision:  ws.Revision,
		Bins:      ws.Bins.Bins,
	}
	if err := s.engine.Render(ws, &v); err != nil {
		return View{}, err
	}
	return v, nil
}

// lock takes the session's mutex and returns its release func. Entries live
// only while a caller holds or waits on them, so unknown or expired ids never
// accumulate.
func (s *Service) lock(id string) func() {
	s.locksMu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &sessionLock{}
		s.locks[id] = l
	}
	l.refs++
	s.locksMu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()

		s.locksMu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, id)
		}
		s.locksMu.Unlock()
	}
}
