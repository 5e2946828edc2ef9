package binning

import (
	"fmt"

	"strategyWorkbench/domain"
)

// RenderTarget receives a full frame after every accepted change.
type RenderTarget interface {
	DrawBars(frame domain.BarSet) error
	PlaceHandles(handles []domain.Handle) error
	UpdateStats(summary domain.BinSummary) error
	UpdateTable(rows []domain.BinTableRow) error
}

// Engine applies workspace transitions. Every transition takes a workspace by
// value and returns a new one; derived state is always rebuilt in full.
type Engine struct {
	catalogue *Catalogue
	calc      *Calculator
	geometry  domain.ChartGeometry
}

func NewEngine(catalogue *Catalogue, calc *Calculator, geometry domain.ChartGeometry) *Engine {
	return &Engine{
		catalogue: catalogue,
		calc:      calc,
		geometry:  geometry,
	}
}

func (e *Engine) Catalogue() *Catalogue {
	return e.catalogue
}

// NewWorkspace starts a workspace. Without cut points the feature must be a
// known preset; with cut points any feature name is accepted.
func (e *Engine) NewWorkspace(feature string, cuts domain.CutPointSet) (domain.Workspace, error) {
	profile, known := e.catalogue.Lookup(feature)
	if len(cuts) == 0 {
		if !known {
			return domain.Workspace{}, fmt.Errorf("%w: %s", domain.ErrUnknownFeature, feature)
		}
		cuts = profile.DefaultCutPoints
	}
	if err := cuts.Validate(); err != nil {
		return domain.Workspace{}, err
	}

	label := feature
	if known {
		label = profile.Label
	}

	ws := domain.Workspace{
		Feature:   feature,
		Label:     label,
		CutPoints: cuts.Clone(),
		Drag:      domain.DragState{Phase: domain.DragIdle},
		Geometry:  e.geometry,
	}
	return e.recompute(ws), nil
}

// SelectFeature swaps in a preset, replacing every cut point and bin.
func (e *Engine) SelectFeature(ws domain.Workspace, feature string) (domain.Workspace, error) {
	profile, ok := e.catalogue.Lookup(feature)
	if !ok {
		return ws, fmt.Errorf("%w: %s", domain.ErrUnknownFeature, feature)
	}

	next := ws
	next.Feature = profile.Name
	next.Label = profile.Label
	next.CutPoints = profile.DefaultCutPoints
	next.Drag = domain.DragState{Phase: domain.DragIdle}
	return e.recompute(next), nil
}

func (e *Engine) SetCutPoints(ws domain.Workspace, cuts domain.CutPointSet) (domain.Workspace, error) {
	if err := cuts.Validate(); err != nil {
		return ws, err
	}
	next := ws
	next.CutPoints = cuts.Clone()
	next.Drag = domain.DragState{Phase: domain.DragIdle}
	return e.recompute(next), nil
}

func (e *Engine) BeginDrag(ws domain.Workspace, handle int, pointerX float64) (domain.Workspace, error) {
	drag, err := BeginDrag(ws.Drag, handle, pointerX, ws.Geometry, ws.CutPoints)
	if err != nil {
		return ws, err
	}
	next := ws
	next.Drag = drag
	return next, nil
}

// MoveDrag returns the new workspace and whether the move changed a cut point.
// Rejected moves leave the workspace untouched and skip the recompute.
func (e *Engine) MoveDrag(ws domain.Workspace, pointerX float64) (domain.Workspace, bool, error) {
	cuts, accepted, err := MoveDrag(ws.Drag, pointerX, ws.Geometry, ws.CutPoints)
	if err != nil || !accepted {
		return ws, false, err
	}
	next := ws
	next.CutPoints = cuts
	return e.recompute(next), true, nil
}

func (e *Engine) EndDrag(ws domain.Workspace) domain.Workspace {
	next := ws
	next.Drag = EndDrag(ws.Drag)
	return next
}

// Recompute rebuilds the derived state with fresh jitter.
func (e *Engine) Recompute(ws domain.Workspace) domain.Workspace {
	return e.recompute(ws)
}

func (e *Engine) recompute(ws domain.Workspace) domain.Workspace {
	start := timeNow()
	ws.Bins = e.calc.compute(ws.Feature, ws.CutPoints)
	ws.Summary = Summarize(ws.Bins)
	ws.Table = TableRows(ws.Bins)
	ws.Revision++
	observeRecompute(e.metricLabel(ws.Feature), start)
	return ws
}

// metricLabel keeps free-form feature names out of metric labels.
func (e *Engine) metricLabel(feature string) string {
	if _, ok := e.catalogue.profiles[feature]; ok {
		return feature
	}
	return "custom"
}

// Frame is the chart frame for the workspace's current bins.
func (e *Engine) Frame(ws domain.Workspace) domain.BarSet {
	return BuildBarSet(ws.Bins, ws.Geometry, ws.Label)
}

// Render pushes chart, handles, stats and table to the target in that order.
// A nil target is a no-op.
func (e *Engine) Render(ws domain.Workspace, target RenderTarget) error {
	if target == nil {
		return nil
	}
	if err := target.DrawBars(e.Frame(ws)); err != nil {
		return fmt.Errorf("draw bars: %w", err)
	}
	if err := target.PlaceHandles(Handles(ws.Geometry, ws.CutPoints)); err != nil {
		return fmt.Errorf("place handles: %w", err)
	}
	if err := target.UpdateStats(ws.Summary); err != nil {
		return fmt.Errorf("update stats: %w", err)
	}
	if err := target.UpdateTable(ws.Table); err != nil {
		return fmt.Errorf("update table: %w", err)
	}
	return nil
}
