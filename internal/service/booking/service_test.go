package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medconnect/booking-api/internal/model"
	"github.com/medconnect/booking-api/internal/repository"
	"github.com/medconnect/booking-api/internal/reservation"
	"github.com/medconnect/booking-api/internal/service/notification"
	apperrors "github.com/medconnect/booking-api/pkg/errors"
)

var slot = time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)

// fakeHoldStore mirrors the store's set-if-absent and compare-and-delete
// semantics with an in-process map.
type fakeHoldStore struct {
	mu    sync.Mutex
	holds map[string]int64
	err   error
}

func newFakeHoldStore() *fakeHoldStore {
	return &fakeHoldStore{holds: make(map[string]int64)}
}

func key(doctorID int64, slotTime time.Time) string {
	return reservation.HoldKey(doctorID, slotTime)
}

func (f *fakeHoldStore) Acquire(ctx context.Context, doctorID int64, slotTime time.Time, holderID int64) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	k := key(doctorID, slotTime)
	if _, held := f.holds[k]; held {
		return false, nil
	}
	f.holds[k] = holderID
	return true, nil
}

func (f *fakeHoldStore) PeekHolder(ctx context.Context, doctorID int64, slotTime time.Time) (int64, bool, error) {
	if f.err != nil {
		return 0, false, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	holder, held := f.holds[key(doctorID, slotTime)]
	return holder, held, nil
}

func (f *fakeHoldStore) VerifyAndRelease(ctx context.Context, doctorID int64, slotTime time.Time, holderID int64) (reservation.ReleaseStatus, error) {
	if f.err != nil {
		return reservation.NotFound, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	k := key(doctorID, slotTime)
	holder, held := f.holds[k]
	if !held {
		return reservation.NotFound, nil
	}
	if holder != holderID {
		return reservation.WrongHolder, nil
	}
	delete(f.holds, k)
	return reservation.Released, nil
}

func (f *fakeHoldStore) TTL() time.Duration { return 5 * time.Minute }

func (f *fakeHoldStore) holder(doctorID int64, slotTime time.Time) (int64, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	holder, held := f.holds[key(doctorID, slotTime)]
	return holder, held
}

type capturingPublisher struct {
	mu     sync.Mutex
	events []model.SlotEvent
}

func (p *capturingPublisher) Publish(ctx context.Context, event model.SlotEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *capturingPublisher) actions() []model.SlotAction {
	p.mu.Lock()
	defer p.mu.Unlock()
	actions := make([]model.SlotAction, 0, len(p.events))
	for _, e := range p.events {
		actions = append(actions, e.Action)
	}
	return actions
}

type recordingAppointmentRepo struct {
	mu        sync.Mutex
	created   []*model.Appointment
	createErr error
}

func (r *recordingAppointmentRepo) Create(ctx context.Context, a *model.Appointment) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	a.ID = int64(len(r.created) + 1)
	r.created = append(r.created, a)
	return nil
}
func (r *recordingAppointmentRepo) Get(ctx context.Context, id int64) (*model.Appointment, error) {
	return nil, repository.NewNotFound("appointment")
}
func (r *recordingAppointmentRepo) Update(ctx context.Context, a *model.Appointment) error { return nil }
func (r *recordingAppointmentRepo) ListForPatient(ctx context.Context, patientID int64) ([]*model.Appointment, error) {
	return nil, nil
}
func (r *recordingAppointmentRepo) ListDetailedForPatient(ctx context.Context, patientID int64) ([]*model.AppointmentDetail, error) {
	return nil, nil
}
func (r *recordingAppointmentRepo) ListForDoctor(ctx context.Context, doctorID int64) ([]*model.Appointment, error) {
	return nil, nil
}
func (r *recordingAppointmentRepo) BookedTimes(ctx context.Context, doctorID int64, date time.Time, statuses []model.AppointmentStatus) ([]string, error) {
	return nil, nil
}

type stubUserRepo struct{}

func (stubUserRepo) Create(ctx context.Context, user *model.User) error { return nil }
func (stubUserRepo) Get(ctx context.Context, id int64) (*model.User, error) {
	return &model.User{ID: id, Name: "Test User", Email: "user@example.com"}, nil
}
func (stubUserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return nil, repository.NewNotFound("user")
}
func (stubUserRepo) EmailExists(ctx context.Context, email string) (bool, error) { return false, nil }
func (stubUserRepo) ListByRole(ctx context.Context, role model.Role) ([]*model.User, error) {
	return nil, nil
}

func newTestService(store *fakeHoldStore, repo *recordingAppointmentRepo, pub *capturingPublisher) *Service {
	return NewService(store, repo, stubUserRepo{}, pub, notification.NoopService{}, zerolog.Nop())
}

func TestReserveAcquiresHoldAndBroadcasts(t *testing.T) {
	store := newFakeHoldStore()
	pub := &capturingPublisher{}
	svc := newTestService(store, &recordingAppointmentRepo{}, pub)

	expiresIn, err := svc.Reserve(context.Background(), 1, slot, 42)
	require.NoError(t, err)
	assert.Equal(t, 300, expiresIn)

	holder, held := store.holder(1, slot)
	require.True(t, held)
	assert.Equal(t, int64(42), holder)
	assert.Equal(t, []model.SlotAction{model.SlotActionReserved}, pub.actions())
}

func TestReserveContentionIsConflict(t *testing.T) {
	store := newFakeHoldStore()
	svc := newTestService(store, &recordingAppointmentRepo{}, &capturingPublisher{})

	_, err := svc.Reserve(context.Background(), 1, slot, 42)
	require.NoError(t, err)

	_, err = svc.Reserve(context.Background(), 1, slot, 43)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrConflict, appErr.Code)
}

func TestReserveIsNotReentrant(t *testing.T) {
	store := newFakeHoldStore()
	svc := newTestService(store, &recordingAppointmentRepo{}, &capturingPublisher{})

	_, err := svc.Reserve(context.Background(), 1, slot, 42)
	require.NoError(t, err)

	// The current holder cannot extend its own hold by re-reserving.
	_, err = svc.Reserve(context.Background(), 1, slot, 42)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrConflict, appErr.Code)
}

func TestConcurrentReserveGrantsExactlyOne(t *testing.T) {
	store := newFakeHoldStore()
	svc := newTestService(store, &recordingAppointmentRepo{}, &capturingPublisher{})

	const contenders = 50
	var wg sync.WaitGroup
	var successes int32
	var mu sync.Mutex
	var conflicts int

	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func(userID int64) {
			defer wg.Done()
			_, err := svc.Reserve(context.Background(), 1, slot, userID)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
			} else if appErr, ok := apperrors.AsAppError(err); ok && appErr.Code == apperrors.ErrConflict {
				conflicts++
			}
		}(int64(100 + i))
	}
	wg.Wait()

	assert.Equal(t, int32(1), successes)
	assert.Equal(t, contenders-1, conflicts)
}

func TestReserveFailsClosedOnStoreError(t *testing.T) {
	store := newFakeHoldStore()
	store.err = errors.New("connection refused")
	svc := newTestService(store, &recordingAppointmentRepo{}, &capturingPublisher{})

	_, err := svc.Reserve(context.Background(), 1, slot, 42)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrUnavailable, appErr.Code)
}

func TestConfirmPersistsThenReleasesWithoutFreedEvent(t *testing.T) {
	store := newFakeHoldStore()
	repo := &recordingAppointmentRepo{}
	pub := &capturingPublisher{}
	svc := newTestService(store, repo, pub)

	_, err := svc.Reserve(context.Background(), 1, slot, 42)
	require.NoError(t, err)

	appointment, err := svc.Confirm(context.Background(), 1, slot, 42)
	require.NoError(t, err)
	assert.Equal(t, int64(42), appointment.PatientID)
	assert.Equal(t, int64(1), appointment.DoctorID)
	assert.Equal(t, model.AppointmentStatusPending, appointment.Status)
	require.Len(t, repo.created, 1)

	_, held := store.holder(1, slot)
	assert.False(t, held, "hold must be released after the durable write")

	// Confirmed slots are consumed, not freed.
	assert.Equal(t, []model.SlotAction{model.SlotActionReserved}, pub.actions())
}

func TestConfirmWithoutHoldIsGone(t *testing.T) {
	svc := newTestService(newFakeHoldStore(), &recordingAppointmentRepo{}, &capturingPublisher{})

	_, err := svc.Confirm(context.Background(), 1, slot, 42)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrGone, appErr.Code)
}

func TestConfirmByNonHolderIsForbidden(t *testing.T) {
	store := newFakeHoldStore()
	repo := &recordingAppointmentRepo{}
	svc := newTestService(store, repo, &capturingPublisher{})

	_, err := svc.Reserve(context.Background(), 1, slot, 42)
	require.NoError(t, err)

	_, err = svc.Confirm(context.Background(), 1, slot, 43)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrForbidden, appErr.Code)

	assert.Empty(t, repo.created)
	holder, held := store.holder(1, slot)
	require.True(t, held, "a failed confirm must not disturb the hold")
	assert.Equal(t, int64(42), holder)
}

func TestConfirmKeepsHoldWhenWriteFails(t *testing.T) {
	store := newFakeHoldStore()
	repo := &recordingAppointmentRepo{createErr: errors.New("deadlock detected")}
	svc := newTestService(store, repo, &capturingPublisher{})

	_, err := svc.Reserve(context.Background(), 1, slot, 42)
	require.NoError(t, err)

	_, err = svc.Confirm(context.Background(), 1, slot, 42)
	require.Error(t, err)

	// Write-before-release: the failed write leaves the hold to lapse via
	// TTL instead of freeing a slot that might be half-booked.
	holder, held := store.holder(1, slot)
	require.True(t, held)
	assert.Equal(t, int64(42), holder)
}

func TestCancelReleasesAndBroadcastsFreed(t *testing.T) {
	store := newFakeHoldStore()
	pub := &capturingPublisher{}
	svc := newTestService(store, &recordingAppointmentRepo{}, pub)

	_, err := svc.Reserve(context.Background(), 1, slot, 42)
	require.NoError(t, err)

	require.NoError(t, svc.Cancel(context.Background(), 1, slot, 42))

	_, held := store.holder(1, slot)
	assert.False(t, held)
	assert.Equal(t, []model.SlotAction{model.SlotActionReserved, model.SlotActionFreed}, pub.actions())
}

func TestCancelWithoutHoldIsNotFound(t *testing.T) {
	svc := newTestService(newFakeHoldStore(), &recordingAppointmentRepo{}, &capturingPublisher{})

	err := svc.Cancel(context.Background(), 1, slot, 42)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrNotFound, appErr.Code)
}

func TestCancelByNonHolderIsForbidden(t *testing.T) {
	store := newFakeHoldStore()
	pub := &capturingPublisher{}
	svc := newTestService(store, &recordingAppointmentRepo{}, pub)

	_, err := svc.Reserve(context.Background(), 1, slot, 42)
	require.NoError(t, err)

	err = svc.Cancel(context.Background(), 1, slot, 43)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrForbidden, appErr.Code)

	holder, held := store.holder(1, slot)
	require.True(t, held)
	assert.Equal(t, int64(42), holder)
}

func TestBookOnBehalfWritesAppointmentForPatient(t *testing.T) {
	store := newFakeHoldStore()
	repo := &recordingAppointmentRepo{}
	pub := &capturingPublisher{}
	svc := newTestService(store, repo, pub)

	appointment, err := svc.BookOnBehalf(context.Background(), 7, 42, 1, slot)
	require.NoError(t, err)
	assert.Equal(t, int64(42), appointment.PatientID)
	assert.Equal(t, int64(1), appointment.DoctorID)

	_, held := store.holder(1, slot)
	assert.False(t, held, "transient hold must be released")
	assert.Equal(t, []model.SlotAction{model.SlotActionReserved}, pub.actions())
}

func TestBookOnBehalfHeldSlotIsConflict(t *testing.T) {
	store := newFakeHoldStore()
	svc := newTestService(store, &recordingAppointmentRepo{}, &capturingPublisher{})

	_, err := svc.Reserve(context.Background(), 1, slot, 99)
	require.NoError(t, err)

	_, err = svc.BookOnBehalf(context.Background(), 7, 42, 1, slot)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrConflict, appErr.Code)
}

func TestBookOnBehalfFreesSlotWhenWriteFails(t *testing.T) {
	store := newFakeHoldStore()
	repo := &recordingAppointmentRepo{createErr: errors.New("insert failed")}
	pub := &capturingPublisher{}
	svc := newTestService(store, repo, pub)

	_, err := svc.BookOnBehalf(context.Background(), 7, 42, 1, slot)
	require.Error(t, err)

	_, held := store.holder(1, slot)
	assert.False(t, held)
	assert.Equal(t, []model.SlotAction{model.SlotActionReserved, model.SlotActionFreed}, pub.actions())
}
