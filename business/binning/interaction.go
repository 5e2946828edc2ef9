package binning

import (
	"fmt"
	"math"

	"strategyWorkbench/domain"
)

// LinearScale maps feature values onto the plotted x range and back.
type LinearScale struct {
	Min   float64
	Max   float64
	Left  float64
	Width float64
}

func NewScale(g domain.ChartGeometry, cuts domain.CutPointSet) LinearScale {
	return LinearScale{
		Min:   cuts.Min(),
		Max:   cuts.Max(),
		Left:  g.LeftPadding,
		Width: g.PlotWidth(),
	}
}

func (s LinearScale) ValueToPixel(v float64) float64 {
	span := s.Max - s.Min
	if span == 0 {
		return s.Left
	}
	return s.Left + (v-s.Min)/span*s.Width
}

func (s LinearScale) PixelToValue(px float64) float64 {
	if s.Width == 0 {
		return s.Min
	}
	ratio := (px - s.Left) / s.Width
	return s.Min + ratio*(s.Max-s.Min)
}

func (s LinearScale) Contains(px float64) bool {
	return px >= s.Left && px <= s.Left+s.Width
}

// Handles places one draggable handle on every interior cut point. The two
// outer cut points pin the global range and are not draggable.
func Handles(g domain.ChartGeometry, cuts domain.CutPointSet) []domain.Handle {
	if len(cuts) < 3 {
		return []domain.Handle{}
	}
	scale := NewScale(g, cuts)
	out := make([]domain.Handle, 0, len(cuts)-2)
	for i := 1; i < len(cuts)-1; i++ {
		out = append(out, domain.Handle{
			Index: i,
			Value: cuts[i],
			X:     scale.ValueToPixel(cuts[i]),
		})
	}
	return out
}

// BeginDrag moves Idle -> Dragging, capturing the pointer and handle origin.
func BeginDrag(state domain.DragState, handle int, pointerX float64, g domain.ChartGeometry, cuts domain.CutPointSet) (domain.DragState, error) {
	if state.Phase == domain.DragDragging {
		return state, domain.ErrAlreadyDragging
	}
	if handle < 1 || handle > len(cuts)-2 {
		return state, fmt.Errorf("%w: %d", domain.ErrUnknownHandle, handle)
	}

	return domain.DragState{
		Phase:         domain.DragDragging,
		Handle:        handle,
		StartPointerX: pointerX,
		StartOffset:   NewScale(g, cuts).ValueToPixel(cuts[handle]),
	}, nil
}

// MoveDrag returns the cut points after a pointer move and whether the move
// was accepted. Rejected moves return the input unchanged.
func MoveDrag(state domain.DragState, pointerX float64, g domain.ChartGeometry, cuts domain.CutPointSet) (domain.CutPointSet, bool, error) {
	if state.Phase != domain.DragDragging {
		return cuts, false, domain.ErrNotDragging
	}
	h := state.Handle
	if h < 1 || h > len(cuts)-2 {
		return cuts, false, fmt.Errorf("%w: %d", domain.ErrUnknownHandle, h)
	}

	scale := NewScale(g, cuts)
	candidate := state.StartOffset + (pointerX - state.StartPointerX)
	if !scale.Contains(candidate) {
		return cuts, false, nil
	}

	v := math.Round(scale.PixelToValue(candidate))
	if !g.Permissive {
		lo, hi := neighbourBounds(cuts, h)
		if lo > hi {
			return cuts, false, nil
		}
		v = clamp(v, lo, hi)
	}

	if v == cuts[h] {
		return cuts, false, nil
	}

	out := cuts.Clone()
	out[h] = v
	return out, true, nil
}

// EndDrag releases the pointer. The live cut points are already the result.
func EndDrag(state domain.DragState) domain.DragState {
	return domain.DragState{Phase: domain.DragIdle}
}

// neighbourBounds keeps a handle at least one unit away from both neighbours.
func neighbourBounds(cuts domain.CutPointSet, h int) (float64, float64) {
	return cuts[h-1] + 1, cuts[h+1] - 1
}
