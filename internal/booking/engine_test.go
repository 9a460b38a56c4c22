package booking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/service-marketplace-api/internal/model"
	"github.com/iliyamo/service-marketplace-api/internal/repository"
)

// fakeStore keeps appointments in a map and counts status writes so tests
// can assert that lazy expiry was persisted.
type fakeStore struct {
	appts        map[uint64]*model.Appointment
	nextID       uint64
	statusWrites int
}

func newFakeStore(appts ...*model.Appointment) *fakeStore {
	s := &fakeStore{appts: make(map[uint64]*model.Appointment), nextID: 1}
	for _, a := range appts {
		if a.ID >= s.nextID {
			s.nextID = a.ID + 1
		}
		s.appts[a.ID] = a
	}
	return s
}

func (s *fakeStore) Insert(_ context.Context, a *model.Appointment) error {
	a.ID = s.nextID
	s.nextID++
	cp := *a
	s.appts[a.ID] = &cp
	return nil
}

func (s *fakeStore) GetByID(_ context.Context, id uint64) (model.Appointment, error) {
	if a, ok := s.appts[id]; ok {
		return *a, nil
	}
	return model.Appointment{}, repository.ErrNotFound
}

func (s *fakeStore) GetByTriple(_ context.Context, consumerID, providerID, serviceID uint64) (model.Appointment, error) {
	for _, a := range s.appts {
		if a.ConsumerID == consumerID && a.ProviderID == providerID && a.ServiceID == serviceID {
			return *a, nil
		}
	}
	return model.Appointment{}, repository.ErrNotFound
}

func (s *fakeStore) ListByConsumer(_ context.Context, consumerID uint64) ([]model.Appointment, error) {
	out := []model.Appointment{}
	for _, a := range s.appts {
		if a.ConsumerID == consumerID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (s *fakeStore) ListByProvider(_ context.Context, providerID uint64) ([]model.Appointment, error) {
	out := []model.Appointment{}
	for _, a := range s.appts {
		if a.ProviderID == providerID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (s *fakeStore) ListByConsumerAndService(_ context.Context, consumerID, serviceID uint64) ([]model.Appointment, error) {
	out := []model.Appointment{}
	for _, a := range s.appts {
		if a.ConsumerID == consumerID && a.ServiceID == serviceID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (s *fakeStore) UpdateStatus(_ context.Context, id uint64, status string) error {
	a, ok := s.appts[id]
	if !ok {
		return repository.ErrNotFound
	}
	a.Status = status
	s.statusWrites++
	return nil
}

func (s *fakeStore) UpdateDate(_ context.Context, id uint64, date time.Time) error {
	a, ok := s.appts[id]
	if !ok {
		return repository.ErrNotFound
	}
	a.PreferredDate = date
	return nil
}

func (s *fakeStore) Delete(_ context.Context, id uint64) error {
	if _, ok := s.appts[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.appts, id)
	return nil
}

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func testEngine(store *fakeStore) *Engine {
	e := NewEngine(store)
	e.now = func() time.Time { return testNow }
	return e
}

func TestDeadline(t *testing.T) {
	preferred := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, preferred.Add(48*time.Hour), Deadline(preferred))
}

func TestCreate(t *testing.T) {
	store := newFakeStore()
	e := testEngine(store)

	preferred := testNow.Add(72 * time.Hour)
	appt, err := e.Create(context.Background(), 1, 2, 3, "leaky tap", preferred)
	require.NoError(t, err)

	assert.Equal(t, uint64(1), appt.ID)
	assert.Equal(t, model.StatusRequested, appt.Status)
	assert.Equal(t, preferred, appt.PreferredDate)
	assert.Equal(t, preferred.Add(48*time.Hour), appt.Deadline)
}

func TestCreate_DuplicateTriple(t *testing.T) {
	store := newFakeStore(&model.Appointment{
		ID: 1, ConsumerID: 1, ProviderID: 2, ServiceID: 3,
		Status: model.StatusCancelled, PreferredDate: testNow.Add(-time.Hour),
	})
	e := testEngine(store)

	// Any existing row for the triple blocks, even a cancelled one.
	_, err := e.Create(context.Background(), 1, 2, 3, "", testNow.Add(72*time.Hour))
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestCreate_ApprovedSameServiceOtherProvider(t *testing.T) {
	store := newFakeStore(&model.Appointment{
		ID: 1, ConsumerID: 1, ProviderID: 9, ServiceID: 3,
		Status: model.StatusApproved, PreferredDate: testNow.Add(24 * time.Hour),
	})
	e := testEngine(store)

	// An approved booking with a different provider for the same service
	// still blocks until its preferred date passes.
	_, err := e.Create(context.Background(), 1, 2, 3, "", testNow.Add(72*time.Hour))
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestCreate_PastApprovedDoesNotBlock(t *testing.T) {
	store := newFakeStore(&model.Appointment{
		ID: 1, ConsumerID: 1, ProviderID: 9, ServiceID: 3,
		Status: model.StatusApproved, PreferredDate: testNow.Add(-time.Hour),
	})
	e := testEngine(store)

	_, err := e.Create(context.Background(), 1, 2, 3, "", testNow.Add(72*time.Hour))
	assert.NoError(t, err)
}

func TestCreate_RequestedSameServiceDoesNotBlock(t *testing.T) {
	store := newFakeStore(&model.Appointment{
		ID: 1, ConsumerID: 1, ProviderID: 9, ServiceID: 3,
		Status: model.StatusRequested, PreferredDate: testNow.Add(24 * time.Hour),
	})
	e := testEngine(store)

	_, err := e.Create(context.Background(), 1, 2, 3, "", testNow.Add(72*time.Hour))
	assert.NoError(t, err)
}

func TestReconcile(t *testing.T) {
	tests := []struct {
		name        string
		status      string
		deadline    time.Time
		wantStatus  string
		wantChanged bool
	}{
		{"requested past deadline", model.StatusRequested, testNow.Add(-time.Minute), model.StatusCancelled, true},
		{"approved past deadline", model.StatusApproved, testNow.Add(-time.Minute), model.StatusCancelled, true},
		{"deadline exactly now", model.StatusRequested, testNow, model.StatusCancelled, true},
		{"deadline still ahead", model.StatusRequested, testNow.Add(time.Minute), model.StatusRequested, false},
		{"already cancelled", model.StatusCancelled, testNow.Add(-time.Hour), model.StatusCancelled, false},
		{"mixed-case status", "Approved", testNow.Add(-time.Minute), model.StatusCancelled, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, changed := Reconcile(model.Appointment{Status: tt.status, Deadline: tt.deadline}, testNow)
			assert.Equal(t, tt.wantStatus, got.Status)
			assert.Equal(t, tt.wantChanged, changed)
		})
	}
}

func TestListForConsumer_ExpiresStaleRows(t *testing.T) {
	store := newFakeStore(
		&model.Appointment{ID: 1, ConsumerID: 1, Status: model.StatusRequested, Deadline: testNow.Add(-time.Hour)},
		&model.Appointment{ID: 2, ConsumerID: 1, Status: model.StatusApproved, Deadline: testNow.Add(time.Hour)},
	)
	e := testEngine(store)

	appts, err := e.ListForConsumer(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, appts, 2)

	byID := map[uint64]model.Appointment{}
	for _, a := range appts {
		byID[a.ID] = a
	}
	assert.Equal(t, model.StatusCancelled, byID[1].Status)
	assert.Equal(t, model.StatusApproved, byID[2].Status)

	// The expiry was written back, not just reflected in the response.
	assert.Equal(t, 1, store.statusWrites)
	assert.Equal(t, model.StatusCancelled, store.appts[1].Status)
}

func TestGet_ExpiresStaleRow(t *testing.T) {
	store := newFakeStore(&model.Appointment{ID: 1, ConsumerID: 1, Status: model.StatusApproved, Deadline: testNow.Add(-time.Second)})
	e := testEngine(store)

	a, err := e.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, a.Status)
	assert.Equal(t, model.StatusCancelled, store.appts[1].Status)
}

func TestUpdateStatus_NotFound(t *testing.T) {
	e := testEngine(newFakeStore())
	_, err := e.UpdateStatus(context.Background(), 99, model.StatusApproved)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUpdateDate_KeepsDeadline(t *testing.T) {
	deadline := testNow.Add(48 * time.Hour)
	store := newFakeStore(&model.Appointment{
		ID: 1, ConsumerID: 1, Status: model.StatusRequested,
		PreferredDate: testNow, Deadline: deadline,
	})
	e := testEngine(store)

	moved := testNow.Add(96 * time.Hour)
	a, err := e.UpdateDate(context.Background(), 1, moved)
	require.NoError(t, err)

	assert.Equal(t, moved, a.PreferredDate)
	// The deadline stays where booking time put it.
	assert.Equal(t, deadline, a.Deadline)
	assert.Equal(t, deadline, store.appts[1].Deadline)
}

func TestDelete_ReturnsRow(t *testing.T) {
	store := newFakeStore(&model.Appointment{ID: 1, ConsumerID: 1, Description: "gone"})
	e := testEngine(store)

	a, err := e.Delete(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "gone", a.Description)
	assert.Empty(t, store.appts)

	_, err = e.Delete(context.Background(), 1)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
