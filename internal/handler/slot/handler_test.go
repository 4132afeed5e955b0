package slot

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medconnect/booking-api/internal/hub"
	"github.com/medconnect/booking-api/internal/middleware"
	"github.com/medconnect/booking-api/internal/model"
	"github.com/medconnect/booking-api/internal/repository"
	"github.com/medconnect/booking-api/internal/reservation"
	"github.com/medconnect/booking-api/internal/service/availability"
	"github.com/medconnect/booking-api/internal/service/booking"
	"github.com/medconnect/booking-api/internal/service/notification"
	"github.com/medconnect/booking-api/pkg/metrics"
)

var testMetrics = metrics.New("slot_handler_test")

type fakeBroker struct {
	mu   sync.Mutex
	subs map[string][]chan []byte
}

func newFakeBroker() *fakeBroker {
	return &fakeBroker{subs: make(map[string][]chan []byte)}
}

func (b *fakeBroker) Publish(ctx context.Context, channel string, message interface{}) error {
	payload, err := json.Marshal(message)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs[channel] {
		ch <- payload
	}
	return nil
}

func (b *fakeBroker) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	ch := make(chan []byte, 100)
	b.mu.Lock()
	b.subs[channel] = append(b.subs[channel], ch)
	b.mu.Unlock()
	return ch, nil
}

func (b *fakeBroker) Close() error { return nil }

func (b *fakeBroker) subscriberCount(channel string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[channel])
}

type fakeHoldStore struct {
	mu    sync.Mutex
	holds map[string]int64
}

func newFakeHoldStore() *fakeHoldStore {
	return &fakeHoldStore{holds: make(map[string]int64)}
}

func (f *fakeHoldStore) Acquire(ctx context.Context, doctorID int64, slotTime time.Time, holderID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := reservation.HoldKey(doctorID, slotTime)
	if _, held := f.holds[k]; held {
		return false, nil
	}
	f.holds[k] = holderID
	return true, nil
}

func (f *fakeHoldStore) PeekHolder(ctx context.Context, doctorID int64, slotTime time.Time) (int64, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	holder, held := f.holds[reservation.HoldKey(doctorID, slotTime)]
	return holder, held, nil
}

func (f *fakeHoldStore) VerifyAndRelease(ctx context.Context, doctorID int64, slotTime time.Time, holderID int64) (reservation.ReleaseStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := reservation.HoldKey(doctorID, slotTime)
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

func (f *fakeHoldStore) HeldSlots(ctx context.Context, doctorID int64, date time.Time) (map[string]struct{}, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	held := make(map[string]struct{})
	for k := range f.holds {
		id, slotTime, ok := reservation.ParseHoldKey(k)
		if ok && id == doctorID && slotTime.Format("2006-01-02") == date.Format("2006-01-02") {
			held[slotTime.Format("15:04:05")] = struct{}{}
		}
	}
	return held, nil
}

type fakeUserRepo struct{}

func (fakeUserRepo) Create(ctx context.Context, user *model.User) error { return nil }
func (fakeUserRepo) Get(ctx context.Context, id int64) (*model.User, error) {
	if id == 1 {
		return &model.User{ID: 1, Name: "Dr. Chen", Email: "chen@example.com", Role: model.RoleDoctor}, nil
	}
	if id == 42 {
		return &model.User{ID: 42, Name: "Pat", Email: "pat@example.com", Role: model.RolePatient}, nil
	}
	return nil, repository.NewNotFound("user")
}
func (fakeUserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return nil, repository.NewNotFound("user")
}
func (fakeUserRepo) EmailExists(ctx context.Context, email string) (bool, error) { return false, nil }
func (fakeUserRepo) ListByRole(ctx context.Context, role model.Role) ([]*model.User, error) {
	return nil, nil
}

type fakeAppointmentRepo struct{}

func (fakeAppointmentRepo) Create(ctx context.Context, a *model.Appointment) error { return nil }
func (fakeAppointmentRepo) Get(ctx context.Context, id int64) (*model.Appointment, error) {
	return nil, repository.NewNotFound("appointment")
}
func (fakeAppointmentRepo) Update(ctx context.Context, a *model.Appointment) error { return nil }
func (fakeAppointmentRepo) ListForPatient(ctx context.Context, patientID int64) ([]*model.Appointment, error) {
	return nil, nil
}
func (fakeAppointmentRepo) ListDetailedForPatient(ctx context.Context, patientID int64) ([]*model.AppointmentDetail, error) {
	return nil, nil
}
func (fakeAppointmentRepo) ListForDoctor(ctx context.Context, doctorID int64) ([]*model.Appointment, error) {
	return nil, nil
}
func (fakeAppointmentRepo) BookedTimes(ctx context.Context, doctorID int64, date time.Time, statuses []model.AppointmentStatus) ([]string, error) {
	return nil, nil
}

type fakeScheduleRepo struct{}

func (fakeScheduleRepo) GetWindow(ctx context.Context, doctorID int64, dayOfWeek int) (*model.ScheduleWindow, error) {
	return &model.ScheduleWindow{
		DoctorID:         doctorID,
		DayOfWeek:        dayOfWeek,
		StartTime:        "09:00:00",
		EndTime:          "10:00:00",
		SlotDurationMins: 30,
	}, nil
}
func (fakeScheduleRepo) ListForDoctor(ctx context.Context, doctorID int64) ([]*model.ScheduleWindow, error) {
	return nil, nil
}
func (fakeScheduleRepo) Replace(ctx context.Context, doctorID int64, windows []*model.ScheduleWindow) error {
	return nil
}

type fixture struct {
	engine *gin.Engine
	hub    *hub.Hub
	broker *fakeBroker
	store  *fakeHoldStore
}

// asUser fakes the auth middleware: every request runs as the given user.
func asUser(userID int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextUserID, userID)
		c.Next()
	}
}

func newFixture(t *testing.T, userID int64) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := newFakeHoldStore()
	broker := newFakeBroker()
	slotHub := hub.New(broker, zerolog.Nop(), testMetrics)
	t.Cleanup(slotHub.Close)

	availabilitySvc := availability.NewService(fakeUserRepo{}, fakeAppointmentRepo{}, fakeScheduleRepo{}, store)
	bookingSvc := booking.NewService(store, fakeAppointmentRepo{}, fakeUserRepo{}, slotHub, notification.NoopService{}, zerolog.Nop())

	h := NewHandler(availabilitySvc, bookingSvc, slotHub, zerolog.Nop())

	engine := gin.New()
	group := engine.Group("/api/v1", asUser(userID))
	h.RegisterQueryRoutes(group)
	h.RegisterBookingRoutes(group)

	return &fixture{engine: engine, hub: slotHub, broker: broker, store: store}
}

func (f *fixture) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		payload, _ := json.Marshal(body)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.engine.ServeHTTP(rec, req)
	return rec
}

func reserveBody(doctorID int64, slotTime string) model.ReserveSlotRequest {
	return model.ReserveSlotRequest{DoctorID: doctorID, SlotTime: slotTime}
}

// monday 2025-03-10 is weekday 1; the fake schedule covers every day anyway.
const (
	testDate = "2025-03-10"
	testSlot = "2025-03-10T09:30:00"
)

func TestAvailableReturnsSlots(t *testing.T) {
	f := newFixture(t, 42)

	rec := f.do(http.MethodGet, "/api/v1/slots/available?doctor_id=1&date="+testDate, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Status string `json:"status"`
		Data   struct {
			Slots []string `json:"slots"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, []string{"09:00:00", "09:30:00"}, resp.Data.Slots)
}

func TestAvailableValidatesParams(t *testing.T) {
	f := newFixture(t, 42)

	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodGet, "/api/v1/slots/available?doctor_id=abc&date="+testDate, nil).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodGet, "/api/v1/slots/available?doctor_id=1&date=10-03-2025", nil).Code)
}

func TestAvailableUnknownDoctorIs404(t *testing.T) {
	f := newFixture(t, 42)

	rec := f.do(http.MethodGet, "/api/v1/slots/available?doctor_id=999&date="+testDate, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReserveReturnsExpiry(t *testing.T) {
	f := newFixture(t, 42)

	rec := f.do(http.MethodPost, "/api/v1/slots/reserve", reserveBody(1, testSlot))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data model.ReserveSlotResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 300, resp.Data.ExpiresIn)
}

func TestReserveHeldSlotIs409(t *testing.T) {
	f := newFixture(t, 42)
	_, err := f.store.Acquire(context.Background(), 1, mustParseSlot(t, testSlot), 99)
	require.NoError(t, err)

	rec := f.do(http.MethodPost, "/api/v1/slots/reserve", reserveBody(1, testSlot))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestReserveRejectsMalformedSlotTime(t *testing.T) {
	f := newFixture(t, 42)

	rec := f.do(http.MethodPost, "/api/v1/slots/reserve", reserveBody(1, "2025-03-10 09:30"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestConfirmWithoutHoldIs410(t *testing.T) {
	f := newFixture(t, 42)

	rec := f.do(http.MethodPost, "/api/v1/slots/confirm", reserveBody(1, testSlot))
	assert.Equal(t, http.StatusGone, rec.Code)
}

func TestConfirmByNonHolderIs403(t *testing.T) {
	f := newFixture(t, 42)
	_, err := f.store.Acquire(context.Background(), 1, mustParseSlot(t, testSlot), 99)
	require.NoError(t, err)

	rec := f.do(http.MethodPost, "/api/v1/slots/confirm", reserveBody(1, testSlot))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestReserveConfirmFlow(t *testing.T) {
	f := newFixture(t, 42)

	require.Equal(t, http.StatusOK, f.do(http.MethodPost, "/api/v1/slots/reserve", reserveBody(1, testSlot)).Code)

	rec := f.do(http.MethodPost, "/api/v1/slots/confirm", reserveBody(1, testSlot))
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Data model.Appointment `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(42), resp.Data.PatientID)
	assert.Equal(t, model.AppointmentStatusPending, resp.Data.Status)
}

func TestCancelWithoutHoldIs404(t *testing.T) {
	f := newFixture(t, 42)

	rec := f.do(http.MethodPost, "/api/v1/slots/cancel", reserveBody(1, testSlot))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEventsStreamDeliversSlotEvents(t *testing.T) {
	f := newFixture(t, 42)

	srv := httptest.NewServer(f.engine)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/v1/slots/events?doctor_id=7", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/event-stream")

	// Publish only once the handler's subscription is in place.
	require.Eventually(t, func() bool {
		return f.broker.subscriberCount("slots:doctor:7") > 0
	}, 2*time.Second, 10*time.Millisecond)

	event := model.SlotEvent{DoctorID: 7, SlotTime: testSlot, Action: model.SlotActionReserved}
	require.NoError(t, f.hub.Publish(context.Background(), event))

	scanner := bufio.NewScanner(resp.Body)
	var dataLine string
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "data:") {
			dataLine = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			break
		}
	}
	require.NotEmpty(t, dataLine, "no SSE data line received")

	var received model.SlotEvent
	require.NoError(t, json.Unmarshal([]byte(dataLine), &received))
	assert.Equal(t, event, received)
}

func mustParseSlot(t *testing.T, s string) time.Time {
	t.Helper()
	parsed, err := model.ParseSlotTime(s)
	require.NoError(t, err)
	return parsed
}
