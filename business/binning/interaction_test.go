package binning

import (
	"testing"

	"strategyWorkbench/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ageCuts = domain.CutPointSet{18, 25, 30, 35, 40, 50, 70}

func TestLinearScale_RoundTrip(t *testing.T) {
	g := DefaultGeometry()
	scale := NewScale(g, ageCuts)

	assert.Equal(t, g.LeftPadding, scale.ValueToPixel(18))
	assert.Equal(t, g.LeftPadding+g.PlotWidth(), scale.ValueToPixel(70))

	for _, v := range []float64{18, 25, 33.5, 70} {
		assert.InDelta(t, v, scale.PixelToValue(scale.ValueToPixel(v)), 1e-9)
	}

	assert.True(t, scale.Contains(g.LeftPadding))
	assert.True(t, scale.Contains(g.LeftPadding+g.PlotWidth()))
	assert.False(t, scale.Contains(g.LeftPadding-0.5))
	assert.False(t, scale.Contains(g.LeftPadding+g.PlotWidth()+0.5))
}

func TestHandles_InteriorOnly(t *testing.T) {
	g := DefaultGeometry()
	handles := Handles(g, ageCuts)

	require.Len(t, handles, 5)
	for i, h := range handles {
		assert.Equal(t, i+1, h.Index)
		assert.Equal(t, ageCuts[i+1], h.Value)
	}
	assert.Empty(t, Handles(g, domain.CutPointSet{0, 1}))
}

func TestDrag_StateMachine(t *testing.T) {
	g := DefaultGeometry()
	idle := domain.DragState{Phase: domain.DragIdle}

	_, _, err := MoveDrag(idle, 100, g, ageCuts)
	assert.ErrorIs(t, err, domain.ErrNotDragging)

	_, err = BeginDrag(idle, 0, 100, g, ageCuts)
	assert.ErrorIs(t, err, domain.ErrUnknownHandle)

	_, err = BeginDrag(idle, len(ageCuts)-1, 100, g, ageCuts)
	assert.ErrorIs(t, err, domain.ErrUnknownHandle)

	dragging, err := BeginDrag(idle, 1, 150, g, ageCuts)
	require.NoError(t, err)
	assert.Equal(t, domain.DragDragging, dragging.Phase)
	assert.Equal(t, 1, dragging.Handle)
	assert.Equal(t, 150.0, dragging.StartPointerX)
	assert.InDelta(t, NewScale(g, ageCuts).ValueToPixel(25), dragging.StartOffset, 1e-9)

	_, err = BeginDrag(dragging, 2, 150, g, ageCuts)
	assert.ErrorIs(t, err, domain.ErrAlreadyDragging)

	assert.Equal(t, domain.DragIdle, EndDrag(dragging).Phase)
}

func TestMoveDrag_ConvertsPixelsToRoundedValues(t *testing.T) {
	g := DefaultGeometry()
	scale := NewScale(g, ageCuts)

	state, err := BeginDrag(domain.DragState{}, 1, 200, g, ageCuts)
	require.NoError(t, err)

	// move the handle to roughly 27.3, which rounds to 27
	delta := scale.ValueToPixel(27.3) - state.StartOffset
	cuts, accepted, err := MoveDrag(state, 200+delta, g, ageCuts)
	require.NoError(t, err)
	assert.True(t, accepted)
	assert.Equal(t, domain.CutPointSet{18, 27, 30, 35, 40, 50, 70}, cuts)

	// the input is never mutated
	assert.Equal(t, 25.0, ageCuts[1])
}

func TestMoveDrag_OutsidePlotLeavesCutPointUnchanged(t *testing.T) {
	g := DefaultGeometry()

	state, err := BeginDrag(domain.DragState{}, 3, 400, g, ageCuts)
	require.NoError(t, err)

	for _, pointer := range []float64{-1000, 400 - g.Width, 400 + g.Width, 5000} {
		cuts, accepted, err := MoveDrag(state, pointer, g, ageCuts)
		require.NoError(t, err)
		assert.False(t, accepted)
		assert.Equal(t, ageCuts, cuts)
	}
}

func TestMoveDrag_ClampsAgainstNeighbours(t *testing.T) {
	g := DefaultGeometry()
	scale := NewScale(g, ageCuts)

	state, err := BeginDrag(domain.DragState{}, 1, 0, g, ageCuts)
	require.NoError(t, err)

	// far right of the next cut point (30): stops at 29
	cuts, accepted, err := MoveDrag(state, scale.ValueToPixel(45)-state.StartOffset, g, ageCuts)
	require.NoError(t, err)
	assert.True(t, accepted)
	assert.Equal(t, 29.0, cuts[1])
	assert.NoError(t, cuts.Validate())

	// down to the left edge of the plot: stops at 19
	cuts, accepted, err = MoveDrag(state, g.LeftPadding-state.StartOffset, g, ageCuts)
	require.NoError(t, err)
	assert.True(t, accepted)
	assert.Equal(t, 19.0, cuts[1])
}

func TestMoveDrag_NoRoomBetweenNeighbours(t *testing.T) {
	g := DefaultGeometry()
	tight := domain.CutPointSet{0, 10, 10.5, 11, 100}

	state, err := BeginDrag(domain.DragState{}, 2, 0, g, tight)
	require.NoError(t, err)

	cuts, accepted, err := MoveDrag(state, 300, g, tight)
	require.NoError(t, err)
	assert.False(t, accepted)
	assert.Equal(t, tight, cuts)
}

func TestMoveDrag_PermissiveAllowsCrossing(t *testing.T) {
	g := DefaultGeometry()
	g.Permissive = true
	scale := NewScale(g, ageCuts)

	state, err := BeginDrag(domain.DragState{}, 1, 0, g, ageCuts)
	require.NoError(t, err)

	cuts, accepted, err := MoveDrag(state, scale.ValueToPixel(32)-state.StartOffset, g, ageCuts)
	require.NoError(t, err)
	assert.True(t, accepted)
	assert.Equal(t, 32.0, cuts[1])
	assert.ErrorIs(t, cuts.Validate(), domain.ErrInvalidCutPoints)
}

func TestMoveDrag_SamePositionIsNotAccepted(t *testing.T) {
	g := DefaultGeometry()

	state, err := BeginDrag(domain.DragState{}, 2, 300, g, ageCuts)
	require.NoError(t, err)

	cuts, accepted, err := MoveDrag(state, 300, g, ageCuts)
	require.NoError(t, err)
	assert.False(t, accepted)
	assert.Equal(t, ageCuts, cuts)
}
