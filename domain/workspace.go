package domain

import (
	"errors"
	"time"
)

var ErrSessionNotFound = errors.New("binning session not found")

type DragPhase string

const (
	DragIdle     DragPhase = "idle"
	DragDragging DragPhase = "dragging"
)

// DragState is the per-handle pointer state. Only one handle drags at a time.
type DragState struct {
	Phase         DragPhase `json:"phase"`
	Handle        int       `json:"handle"`
	StartPointerX float64   `json:"start_pointer_x"`
	StartOffset   float64   `json:"start_offset"`
}

// ChartGeometry describes the plotted area the pointer moves over.
type ChartGeometry struct {
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	LeftPadding float64 `json:"left_padding"`
	RightPad    float64 `json:"right_padding"`
	TopPadding  float64 `json:"top_padding"`
	BottomPad   float64 `json:"bottom_padding"`
	Permissive  bool    `json:"permissive"`
}

func (g ChartGeometry) PlotWidth() float64 {
	return g.Width - g.LeftPadding - g.RightPad
}

func (g ChartGeometry) PlotHeight() float64 {
	return g.Height - g.TopPadding - g.BottomPad
}

type Handle struct {
	Index int     `json:"index"`
	Value float64 `json:"value"`
	X     float64 `json:"x"`
}

type Bar struct {
	Label    string  `json:"label"`
	Percent  string  `json:"percent"`
	BadRate  float64 `json:"bad_rate"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Overflow bool    `json:"overflow"`
}

type GridLine struct {
	Value float64 `json:"value"`
	Label string  `json:"label"`
	Y     float64 `json:"y"`
}

// BarSet is one full chart frame.
type BarSet struct {
	Feature  string        `json:"feature"`
	Title    string        `json:"title"`
	Geometry ChartGeometry `json:"geometry"`
	AxisMax  float64       `json:"axis_max"`
	Bars     []Bar         `json:"bars"`
	Grid     []GridLine    `json:"grid"`
}

// Workspace is the whole binning view state of a session.
type Workspace struct {
	Feature   string        `json:"feature"`
	Label     string        `json:"label"`
	CutPoints CutPointSet   `json:"cut_points"`
	Bins      BinSet        `json:"bins"`
	Summary   BinSummary    `json:"summary"`
	Table     []BinTableRow `json:"table"`
	Drag      DragState     `json:"drag"`
	Geometry  ChartGeometry `json:"geometry"`
	Revision  int           `json:"revision"`
}

type BinningSession struct {
	ID        string    `json:"id"`
	Workspace Workspace `json:"workspace"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
