package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"deskcal/internal/model"
	"deskcal/internal/store"
	"deskcal/internal/validate"
)

var fixedNow = time.Date(2024, time.March, 5, 8, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *store.EventStore, *store.MemoryBlob) {
	t.Helper()
	blob := store.NewMemoryBlob(nil)
	st := store.New(blob)
	now := fixedNow
	svc := New(st, WithClock(func() time.Time {
		now = now.Add(time.Minute)
		return now
	}))
	return svc, st, blob
}

func input() model.Fields {
	return model.Fields{
		Title:       "  Dentist  ",
		Description: " checkup ",
		Date:        "2024-03-05",
		StartTime:   "10:00",
		EndTime:     "10:30",
	}
}

func TestCreate_Success(t *testing.T) {
	ctx := context.Background()
	svc, st, _ := newTestService(t)

	res := svc.Create(ctx, input())
	require.True(t, res.Success)
	require.NotNil(t, res.Event)
	assert.Empty(t, res.Errors)

	ev := *res.Event
	assert.True(t, strings.HasPrefix(ev.ID, "evt_"))
	assert.Equal(t, "Dentist", ev.Title)
	assert.Equal(t, "checkup", ev.Description)
	assert.Equal(t, DefaultColor, ev.Color)
	assert.Equal(t, ev.CreatedAt, ev.UpdatedAt)
	assert.Equal(t, fixedNow.Add(time.Minute).UnixMilli(), ev.CreatedAt)

	stored, err := st.ByID(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, ev, stored)
}

func TestCreate_LongTitleDoesNotPersist(t *testing.T) {
	ctx := context.Background()
	svc, _, blob := newTestService(t)

	in := input()
	in.Title = strings.Repeat("t", 101)
	res := svc.Create(ctx, in)

	assert.False(t, res.Success)
	assert.Nil(t, res.Event)
	assert.Contains(t, res.Errors, validate.FieldTitle)

	raw, err := blob.Read(ctx)
	require.NoError(t, err)
	assert.Nil(t, raw)
}

func TestCreate_KeepsExplicitColor(t *testing.T) {
	svc, _, _ := newTestService(t)
	in := input()
	in.Color = "#abc"
	res := svc.Create(context.Background(), in)
	require.True(t, res.Success)
	assert.Equal(t, "#abc", res.Event.Color)
}

func TestCreate_UniqueIDs(t *testing.T) {
	ctx := context.Background()
	blob := store.NewMemoryBlob(nil)
	svc := New(store.New(blob), WithClock(func() time.Time { return fixedNow }))

	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		res := svc.Create(ctx, input())
		require.True(t, res.Success)
		require.False(t, seen[res.Event.ID], "duplicate id %s", res.Event.ID)
		seen[res.Event.ID] = true
	}
}

func TestUpdate_Success(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)
	created := svc.Create(ctx, input()).Event

	in := input()
	in.Title = "Dentist (moved)"
	in.Date = "2024-03-07"
	in.Color = "#ff0000"
	res := svc.Update(ctx, created.ID, in)

	require.True(t, res.Success)
	assert.Equal(t, created.ID, res.Event.ID)
	assert.Equal(t, created.CreatedAt, res.Event.CreatedAt)
	assert.Greater(t, res.Event.UpdatedAt, created.UpdatedAt)
	assert.Equal(t, "Dentist (moved)", res.Event.Title)
	assert.Equal(t, "2024-03-07", res.Event.Date)
	assert.Equal(t, "#ff0000", res.Event.Color)
}

func TestUpdate_ValidationFailureLeavesRecord(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)
	created := svc.Create(ctx, input()).Event

	in := input()
	in.StartTime = "10:00"
	in.EndTime = "09:00"
	res := svc.Update(ctx, created.ID, in)
	assert.False(t, res.Success)
	assert.Contains(t, res.Errors, validate.FieldEndTime)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, *created, got)
}

func TestUpdate_NotFoundIsGeneralError(t *testing.T) {
	svc, _, _ := newTestService(t)
	res := svc.Update(context.Background(), "evt_missing", input())

	assert.False(t, res.Success)
	assert.Equal(t, "Event not found", res.Errors[FieldGeneral])
	assert.ErrorIs(t, res.Err, store.ErrNotFound)
}

func TestDelete_Idempotent(t *testing.T) {
	ctx := context.Background()
	svc, _, blob := newTestService(t)
	keep := svc.Create(ctx, input()).Event
	gone := svc.Create(ctx, input()).Event

	existed, err := svc.Delete(ctx, gone.ID)
	require.NoError(t, err)
	assert.True(t, existed)
	after, _ := blob.Read(ctx)

	existed, err = svc.Delete(ctx, gone.ID)
	require.NoError(t, err)
	assert.False(t, existed)
	again, _ := blob.Read(ctx)
	assert.Equal(t, after, again)

	all, err := svc.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, keep.ID, all[0].ID)
}

func TestQueries(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)
	in := input()
	svc.Create(ctx, in)
	in.Date = "2024-04-01"
	svc.Create(ctx, in)

	day, err := svc.ByDate(ctx, "2024-03-05")
	require.NoError(t, err)
	assert.Len(t, day, 1)

	month, err := svc.ByMonth(ctx, 2024, time.April)
	require.NoError(t, err)
	assert.Len(t, month, 1)
}

// mockRepository lets tests inject storage failures.
type mockRepository struct {
	mock.Mock
}

func (m *mockRepository) Add(ctx context.Context, ev model.Event) error {
	return m.Called(ctx, ev).Error(0)
}

func (m *mockRepository) Update(ctx context.Context, id string, patch model.Fields, at time.Time) (model.Event, error) {
	args := m.Called(ctx, id, patch, at)
	return args.Get(0).(model.Event), args.Error(1)
}

func (m *mockRepository) Remove(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockRepository) ByID(ctx context.Context, id string) (model.Event, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Event), args.Error(1)
}

func (m *mockRepository) ByDate(ctx context.Context, date string) ([]model.Event, error) {
	args := m.Called(ctx, date)
	return args.Get(0).([]model.Event), args.Error(1)
}

func (m *mockRepository) ByMonth(ctx context.Context, year int, month time.Month) ([]model.Event, error) {
	args := m.Called(ctx, year, month)
	return args.Get(0).([]model.Event), args.Error(1)
}

func (m *mockRepository) Load(ctx context.Context) ([]model.Event, error) {
	args := m.Called(ctx)
	return args.Get(0).([]model.Event), args.Error(1)
}

func TestCreate_StorageFailureSurfacesError(t *testing.T) {
	repo := new(mockRepository)
	repo.On("Add", mock.Anything, mock.AnythingOfType("model.Event")).Return(store.ErrQuotaExceeded)
	svc := New(repo)

	res := svc.Create(context.Background(), input())
	assert.False(t, res.Success)
	assert.Equal(t, "Failed to save event", res.Errors[FieldGeneral])
	assert.ErrorIs(t, res.Err, store.ErrQuotaExceeded)
	repo.AssertExpectations(t)
}

func TestDelete_StorageFailure(t *testing.T) {
	repo := new(mockRepository)
	repo.On("Remove", mock.Anything, "evt_1").Return(store.ErrStorageUnavailable)
	svc := New(repo)

	existed, err := svc.Delete(context.Background(), "evt_1")
	assert.False(t, existed)
	assert.True(t, errors.Is(err, store.ErrStorageUnavailable))
}

func TestCreate_InvalidInputNeverTouchesRepository(t *testing.T) {
	repo := new(mockRepository)
	svc := New(repo)

	res := svc.Create(context.Background(), model.Fields{})
	assert.False(t, res.Success)
	assert.Len(t, res.Errors, 4)
	repo.AssertNotCalled(t, "Add", mock.Anything, mock.Anything)
}

func TestNewID(t *testing.T) {
	id := NewID(fixedNow)
	assert.Regexp(t, `^evt_\d{13}_[0-9a-f]{9}$`, id)
}
