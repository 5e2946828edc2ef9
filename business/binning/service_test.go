package binning

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"strategyWorkbench/domain"
	"strategyWorkbench/pkg/task"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]domain.BinningSession
	saves    int
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[string]domain.BinningSession)}
}

func (f *fakeSessionRepo) Get(_ context.Context, id string) (domain.BinningSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return domain.BinningSession{}, domain.ErrSessionNotFound
	}
	return s, nil
}

func (f *fakeSessionRepo) Save(_ context.Context, s domain.BinningSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[s.ID] = s
	f.saves++
	return nil
}

func (f *fakeSessionRepo) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.sessions[id]; !ok {
		return domain.ErrSessionNotFound
	}
	delete(f.sessions, id)
	return nil
}

type fakeBinder struct {
	mu       sync.Mutex
	attached map[string][]byte
}

func (f *fakeBinder) AttachBinning(_ context.Context, projectID string, binning []byte) (domain.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if projectID == "missing" {
		return domain.Project{}, domain.ErrProjectNotFound
	}
	if f.attached == nil {
		f.attached = make(map[string][]byte)
	}
	f.attached[projectID] = binning
	return domain.Project{ID: projectID, Binning: binning}, nil
}

func newTestService(t *testing.T) (*Service, *fakeSessionRepo, *fakeBinder) {
	t.Helper()
	repo := newFakeSessionRepo()
	binder := &fakeBinder{}
	runner := task.NewRunner()
	t.Cleanup(runner.Close)
	return NewService(newTestEngine(t, DefaultGeometry()), repo, binder, runner), repo, binder
}

func TestService_CreateAndGet(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	v, err := svc.CreateSession(ctx, "age", nil)
	require.NoError(t, err)
	require.NotEmpty(t, v.SessionID)
	assert.Len(t, v.Bins, 6)
	assert.Len(t, v.Frame.Bars, 6)
	assert.Len(t, v.Handles, 5)
	assert.Len(t, v.Table, 6)
	assert.Equal(t, 6, v.Stats.BinCount)
	assert.Equal(t, 1, repo.saves)

	got, err := svc.GetSession(ctx, v.SessionID)
	require.NoError(t, err)
	assert.Equal(t, v.CutPoints, got.CutPoints)
	assert.Equal(t, v.Revision, got.Revision)

	_, err = svc.GetSession(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	_, err = svc.CreateSession(ctx, "nope", nil)
	assert.ErrorIs(t, err, domain.ErrUnknownFeature)
}

func TestService_DragFlow(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	v, err := svc.CreateSession(ctx, "age", nil)
	require.NoError(t, err)
	id := v.SessionID

	v, err = svc.BeginDrag(ctx, id, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, domain.DragDragging, v.Drag.Phase)

	savesBefore := repo.saves
	v, err = svc.MoveDrag(ctx, id, -10000)
	require.NoError(t, err)
	require.NotNil(t, v.Accepted)
	assert.False(t, *v.Accepted)
	assert.Equal(t, 25.0, v.CutPoints[1])
	assert.Equal(t, savesBefore, repo.saves, "rejected moves are not persisted")

	scale := NewScale(DefaultGeometry(), v.CutPoints)
	pointer := 100 + scale.ValueToPixel(28) - v.Drag.StartOffset
	v, err = svc.MoveDrag(ctx, id, pointer)
	require.NoError(t, err)
	assert.True(t, *v.Accepted)
	assert.Equal(t, 28.0, v.CutPoints[1])
	assert.Equal(t, "18-28", v.Table[0].Range)
	assert.Equal(t, "18-28", v.Frame.Bars[0].Label)

	v, err = svc.EndDrag(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.DragIdle, v.Drag.Phase)

	stored, err := svc.GetSession(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 28.0, stored.CutPoints[1])

	_, err = svc.MoveDrag(ctx, id, 10)
	assert.ErrorIs(t, err, domain.ErrNotDragging)
}

func TestService_SelectFeatureAndCutPoints(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	v, err := svc.CreateSession(ctx, "age", nil)
	require.NoError(t, err)

	v, err = svc.SelectFeature(ctx, v.SessionID, "loan_amount")
	require.NoError(t, err)
	assert.Equal(t, domain.CutPointSet{0, 5000, 10000, 20000, 50000, 100000, 200000}, v.CutPoints)

	v, err = svc.SetCutPoints(ctx, v.SessionID, domain.CutPointSet{0, 10000, 200000})
	require.NoError(t, err)
	assert.Len(t, v.Bins, 2)
	assert.Len(t, v.Handles, 1)

	_, err = svc.SetCutPoints(ctx, v.SessionID, domain.CutPointSet{5})
	assert.ErrorIs(t, err, domain.ErrInvalidCutPoints)
}

func TestService_Recompute(t *testing.T) {
	svc, repo, _ := newTestService(t)

	v, err := svc.Recompute(context.Background(), "age", domain.CutPointSet{18, 25, 30, 35, 40, 50, 70})
	require.NoError(t, err)
	assert.Empty(t, v.SessionID)
	assert.Len(t, v.Bins, 6)
	assert.Equal(t, 0, repo.saves)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = svc.Recompute(ctx, "age", nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestService_DeleteSession(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	v, err := svc.CreateSession(ctx, "tenure", nil)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteSession(ctx, v.SessionID))
	_, err = svc.GetSession(ctx, v.SessionID)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	assert.ErrorIs(t, svc.DeleteSession(ctx, v.SessionID), domain.ErrSessionNotFound)
}

func TestService_ApplyToProject(t *testing.T) {
	svc, _, binder := newTestService(t)
	ctx := context.Background()

	v, err := svc.CreateSession(ctx, "income", nil)
	require.NoError(t, err)

	f, err := svc.ApplyToProject(ctx, v.SessionID, "proj-1")
	require.NoError(t, err)

	awaitCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	result, err := f.Await(awaitCtx)
	require.NoError(t, err)

	project, ok := result.(domain.Project)
	require.True(t, ok)
	assert.Equal(t, "proj-1", project.ID)

	var snap domain.BinningSnapshot
	require.NoError(t, json.Unmarshal(binder.attached["proj-1"], &snap))
	assert.Equal(t, v.SessionID, snap.SessionID)
	assert.Equal(t, "income", snap.Feature)
	assert.Equal(t, v.CutPoints, snap.CutPoints)
	assert.Len(t, snap.Table, 6)

	f, err = svc.ApplyToProject(ctx, v.SessionID, "missing")
	require.NoError(t, err)
	_, err = f.Await(awaitCtx)
	assert.True(t, errors.Is(err, domain.ErrProjectNotFound))
	assert.Equal(t, domain.TaskFailed, f.Status())

	_, err = svc.ApplyToProject(ctx, "no-session", "proj-1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestService_ConcurrentMovesStaySerialised(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	v, err := svc.CreateSession(ctx, "age", nil)
	require.NoError(t, err)
	_, err = svc.BeginDrag(ctx, v.SessionID, 3, 0)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _ = svc.MoveDrag(ctx, v.SessionID, float64(i*5-50))
		}(i)
	}
	wg.Wait()

	got, err := svc.GetSession(ctx, v.SessionID)
	require.NoError(t, err)
	assert.NoError(t, got.CutPoints.Validate())
	assert.Len(t, got.Bins, 6)
	assert.Equal(t, 0, svc.heldLocks())
}

func (s *Service) heldLocks() int {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	return len(s.locks)
}

func TestService_LocksReleasedForMissingSessions(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 1000; i++ {
		id := fmt.Sprintf("missing-%d", i)
		_, err := svc.MoveDrag(ctx, id, 10)
		require.ErrorIs(t, err, domain.ErrSessionNotFound)
		_, err = svc.BeginDrag(ctx, id, 1, 10)
		require.ErrorIs(t, err, domain.ErrSessionNotFound)
		require.ErrorIs(t, svc.DeleteSession(ctx, id), domain.ErrSessionNotFound)
	}
	assert.Equal(t, 0, svc.heldLocks())

	v, err := svc.CreateSession(ctx, "age", nil)
	require.NoError(t, err)
	_, err = svc.BeginDrag(ctx, v.SessionID, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, 0, svc.heldLocks(), "locks are dropped once a call returns")

	// expiry in the store leaves nothing behind either
	require.NoError(t, repo.Delete(ctx, v.SessionID))
	_, err = svc.EndDrag(ctx, v.SessionID)
	require.ErrorIs(t, err, domain.ErrSessionNotFound)
	assert.Equal(t, 0, svc.heldLocks())
}
