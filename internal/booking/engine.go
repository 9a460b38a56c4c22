// Package booking implements the appointment engine: creation-time conflict
// detection, deadline-driven lazy expiry, and the explicit status/date
// mutations drivable by either party. No background timer exists anywhere;
// an appointment that outlives its deadline is cancelled by the next read
// that observes it.
package booking

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/service-marketplace-api/internal/model"
	"github.com/iliyamo/service-marketplace-api/internal/repository"
)

// ErrDuplicate rejects a booking when the exact (consumer, provider,
// service) triple already has an appointment, or when the consumer still
// has a current approved appointment for the same service with any
// provider.
var ErrDuplicate = errors.New("appointment already present for given service")

// Store is the slice of the appointment repository the engine needs.
type Store interface {
	Insert(ctx context.Context, a *model.Appointment) error
	GetByID(ctx context.Context, id uint64) (model.Appointment, error)
	GetByTriple(ctx context.Context, consumerID, providerID, serviceID uint64) (model.Appointment, error)
	ListByConsumer(ctx context.Context, consumerID uint64) ([]model.Appointment, error)
	ListByProvider(ctx context.Context, providerID uint64) ([]model.Appointment, error)
	ListByConsumerAndService(ctx context.Context, consumerID, serviceID uint64) ([]model.Appointment, error)
	UpdateStatus(ctx context.Context, id uint64, status string) error
	UpdateDate(ctx context.Context, id uint64, date time.Time) error
	Delete(ctx context.Context, id uint64) error
}

// Engine coordinates booking reads and writes against the store.
type Engine struct {
	store Store
	now   func() time.Time
}

func NewEngine(store Store) *Engine {
	return &Engine{store: store, now: func() time.Time { return time.Now().UTC() }}
}

// Deadline computes the fixed review/approval deadline for a preferred
// date. It is evaluated once at booking time and never again.
func Deadline(preferred time.Time) time.Time {
	return preferred.Add(model.DeadlineWindow)
}

// Reconcile applies the lazy-expiry rule to a single appointment: one whose
// deadline has passed while still requested or approved flips to cancelled.
// The second return value tells the caller to persist the change. Already
// cancelled rows are never touched.
func Reconcile(a model.Appointment, now time.Time) (model.Appointment, bool) {
	status := strings.ToLower(a.Status)
	if status != model.StatusRequested && status != model.StatusApproved {
		return a, false
	}
	if a.Deadline.After(now) {
		return a, false
	}
	a.Status = model.StatusCancelled
	return a, true
}

// Create validates and persists a new booking request. Two independent
// checks reject it as a duplicate: an appointment already exists for the
// exact triple, or the consumer has an approved appointment for the same
// service whose preferred date has not yet passed. The second check spans
// all providers, so an approved booking with one provider blocks requesting
// the same service from another until its date passes.
func (e *Engine) Create(ctx context.Context, consumerID, providerID, serviceID uint64, description string, preferred time.Time) (model.Appointment, error) {
	_, err := e.store.GetByTriple(ctx, consumerID, providerID, serviceID)
	if err == nil {
		return model.Appointment{}, ErrDuplicate
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return model.Appointment{}, err
	}

	sameService, err := e.store.ListByConsumerAndService(ctx, consumerID, serviceID)
	if err != nil {
		return model.Appointment{}, err
	}
	now := e.now()
	for _, a := range sameService {
		if strings.ToLower(a.Status) == model.StatusApproved && !now.After(a.PreferredDate) {
			return model.Appointment{}, ErrDuplicate
		}
	}

	appt := model.Appointment{
		ConsumerID:    consumerID,
		ProviderID:    providerID,
		ServiceID:     serviceID,
		Description:   description,
		PreferredDate: preferred,
		Deadline:      Deadline(preferred),
		Status:        model.StatusRequested,
	}
	if err := e.store.Insert(ctx, &appt); err != nil {
		return model.Appointment{}, err
	}
	return appt, nil
}

// reconcileAll expires every stale appointment in the slice, persisting
// each transition before the list is returned. Listing is therefore a
// read-time side effect on stored state.
func (e *Engine) reconcileAll(ctx context.Context, appts []model.Appointment) ([]model.Appointment, error) {
	now := e.now()
	for i, a := range appts {
		updated, changed := Reconcile(a, now)
		if changed {
			if err := e.store.UpdateStatus(ctx, a.ID, updated.Status); err != nil {
				return nil, err
			}
		}
		appts[i] = updated
	}
	return appts, nil
}

// ListForConsumer returns a consumer's appointments, expiring stale ones
// on the way out.
func (e *Engine) ListForConsumer(ctx context.Context, consumerID uint64) ([]model.Appointment, error) {
	appts, err := e.store.ListByConsumer(ctx, consumerID)
	if err != nil {
		return nil, err
	}
	return e.reconcileAll(ctx, appts)
}

// ListForProvider returns a provider's appointments, expiring stale ones
// on the way out.
func (e *Engine) ListForProvider(ctx context.Context, providerID uint64) ([]model.Appointment, error) {
	appts, err := e.store.ListByProvider(ctx, providerID)
	if err != nil {
		return nil, err
	}
	return e.reconcileAll(ctx, appts)
}

// Get fetches a single appointment, applying the same lazy expiry as the
// listing paths.
func (e *Engine) Get(ctx context.Context, id uint64) (model.Appointment, error) {
	a, err := e.store.GetByID(ctx, id)
	if err != nil {
		return model.Appointment{}, err
	}
	updated, changed := Reconcile(a, e.now())
	if changed {
		if err := e.store.UpdateStatus(ctx, a.ID, updated.Status); err != nil {
			return model.Appointment{}, err
		}
	}
	return updated, nil
}

// UpdateStatus sets an appointment's status directly, bypassing the
// deadline logic. Fetch-before-mutate so absence is reported as NotFound
// rather than a silent no-op.
func (e *Engine) UpdateStatus(ctx context.Context, id uint64, status string) (model.Appointment, error) {
	a, err := e.store.GetByID(ctx, id)
	if err != nil {
		return model.Appointment{}, err
	}
	if err := e.store.UpdateStatus(ctx, id, status); err != nil {
		return model.Appointment{}, err
	}
	a.Status = status
	return a, nil
}

// UpdateDate moves an appointment's preferred date. The deadline stays as
// computed at creation.
func (e *Engine) UpdateDate(ctx context.Context, id uint64, date time.Time) (model.Appointment, error) {
	a, err := e.store.GetByID(ctx, id)
	if err != nil {
		return model.Appointment{}, err
	}
	if err := e.store.UpdateDate(ctx, id, date); err != nil {
		return model.Appointment{}, err
	}
	a.PreferredDate = date
	return a, nil
}

// Delete removes an appointment, returning the row as it was so the caller
// can echo it back.
func (e *Engine) Delete(ctx context.Context, id uint64) (model.Appointment, error) {
	a, err := e.store.GetByID(ctx, id)
	if err != nil {
		return model.Appointment{}, err
	}
	if err := e.store.Delete(ctx, id); err != nil {
		return model.Appointment{}, err
	}
	return a, nil
}
