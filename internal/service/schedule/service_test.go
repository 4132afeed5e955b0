package schedule

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medconnect/booking-api/internal/model"
	apperrors "github.com/medconnect/booking-api/pkg/errors"
	"github.com/medconnect/booking-api/pkg/validator"
)

type fakeScheduleRepo struct {
	replaced map[int64][]*model.ScheduleWindow
}

func newFakeScheduleRepo() *fakeScheduleRepo {
	return &fakeScheduleRepo{replaced: make(map[int64][]*model.ScheduleWindow)}
}

func (f *fakeScheduleRepo) GetWindow(ctx context.Context, doctorID int64, dayOfWeek int) (*model.ScheduleWindow, error) {
	for _, w := range f.replaced[doctorID] {
		if w.DayOfWeek == dayOfWeek {
			return w, nil
		}
	}
	return nil, nil
}

func (f *fakeScheduleRepo) ListForDoctor(ctx context.Context, doctorID int64) ([]*model.ScheduleWindow, error) {
	return f.replaced[doctorID], nil
}

func (f *fakeScheduleRepo) Replace(ctx context.Context, doctorID int64, windows []*model.ScheduleWindow) error {
	f.replaced[doctorID] = windows
	return nil
}

func strPtr(s string) *string { return &s }

func validWindow(day int) model.ScheduleWindowRequest {
	return model.ScheduleWindowRequest{
		DayOfWeek:        day,
		StartTime:        "09:00:00",
		EndTime:          "17:00:00",
		SlotDurationMins: 30,
	}
}

func newTestService(repo *fakeScheduleRepo) *Service {
	return NewService(repo, validator.New())
}

func requireBadRequest(t *testing.T, err error) {
	t.Helper()
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrBadRequest, appErr.Code)
}

func TestSetWeeklyScheduleReplacesWholesale(t *testing.T) {
	repo := newFakeScheduleRepo()
	svc := newTestService(repo)

	first := &model.SetScheduleRequest{Windows: []model.ScheduleWindowRequest{validWindow(1), validWindow(2)}}
	_, err := svc.SetWeeklySchedule(context.Background(), 1, first)
	require.NoError(t, err)
	require.Len(t, repo.replaced[1], 2)

	// A later update replaces everything, it never merges.
	second := &model.SetScheduleRequest{Windows: []model.ScheduleWindowRequest{validWindow(5)}}
	windows, err := svc.SetWeeklySchedule(context.Background(), 1, second)
	require.NoError(t, err)
	require.Len(t, windows, 1)
	assert.Equal(t, 5, windows[0].DayOfWeek)
	require.Len(t, repo.replaced[1], 1)
	assert.True(t, repo.replaced[1][0].IsActive)
}

func TestSetWeeklyScheduleRejectsDuplicateWeekday(t *testing.T) {
	svc := newTestService(newFakeScheduleRepo())

	req := &model.SetScheduleRequest{Windows: []model.ScheduleWindowRequest{validWindow(1), validWindow(1)}}
	_, err := svc.SetWeeklySchedule(context.Background(), 1, req)
	requireBadRequest(t, err)
}

func TestSetWeeklyScheduleRejectsInvertedWindow(t *testing.T) {
	svc := newTestService(newFakeScheduleRepo())

	w := validWindow(1)
	w.StartTime = "17:00:00"
	w.EndTime = "09:00:00"
	_, err := svc.SetWeeklySchedule(context.Background(), 1, &model.SetScheduleRequest{Windows: []model.ScheduleWindowRequest{w}})
	requireBadRequest(t, err)
}

func TestSetWeeklyScheduleRejectsHalfSpecifiedBreak(t *testing.T) {
	svc := newTestService(newFakeScheduleRepo())

	w := validWindow(1)
	w.BreakStart = strPtr("12:00:00")
	_, err := svc.SetWeeklySchedule(context.Background(), 1, &model.SetScheduleRequest{Windows: []model.ScheduleWindowRequest{w}})
	requireBadRequest(t, err)
}

func TestSetWeeklyScheduleRejectsBreakOutsideWindow(t *testing.T) {
	svc := newTestService(newFakeScheduleRepo())

	w := validWindow(1)
	w.BreakStart = strPtr("08:00:00")
	w.BreakEnd = strPtr("10:00:00")
	_, err := svc.SetWeeklySchedule(context.Background(), 1, &model.SetScheduleRequest{Windows: []model.ScheduleWindowRequest{w}})
	requireBadRequest(t, err)
}

func TestSetWeeklyScheduleRejectsMalformedTime(t *testing.T) {
	svc := newTestService(newFakeScheduleRepo())

	w := validWindow(1)
	w.StartTime = "9am"
	_, err := svc.SetWeeklySchedule(context.Background(), 1, &model.SetScheduleRequest{Windows: []model.ScheduleWindowRequest{w}})
	requireBadRequest(t, err)
}

func TestSetWeeklyScheduleAcceptsBreakAtWindowEdges(t *testing.T) {
	svc := newTestService(newFakeScheduleRepo())

	w := validWindow(1)
	w.BreakStart = strPtr("09:00:00")
	w.BreakEnd = strPtr("17:00:00")
	_, err := svc.SetWeeklySchedule(context.Background(), 1, &model.SetScheduleRequest{Windows: []model.ScheduleWindowRequest{w}})
	require.NoError(t, err)
}
