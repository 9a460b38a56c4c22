// Package review implements review gating and rating aggregation. A review
// is accepted only once per (consumer, provider, service) triple, only when
// an appointment exists for that exact triple, and only after that
// appointment's booking deadline has passed; the appointment's current
// status is irrelevant. Acceptance folds the rating into the
// provider-service aggregate before the review row is inserted.
package review

import (
	"context"
	"errors"
	"time"

	"github.com/iliyamo/service-marketplace-api/internal/model"
	"github.com/iliyamo/service-marketplace-api/internal/repository"
)

var (
	// ErrDuplicate rejects a second review for the same triple.
	ErrDuplicate = errors.New("review already present")
	// ErrNotAllowed rejects a review when no appointment for the triple
	// exists at all.
	ErrNotAllowed = errors.New("review not allowed")
	// ErrDeadlinePending rejects a review filed before the appointment's
	// deadline has passed.
	ErrDeadlinePending = errors.New("wait till deadline")
)

// Store is the slice of the review repository the gate needs.
type Store interface {
	Insert(ctx context.Context, v *model.Review) error
	GetByID(ctx context.Context, id uint64) (model.Review, error)
	GetByTriple(ctx context.Context, consumerID, providerID, serviceID uint64) (model.Review, error)
	ListByConsumer(ctx context.Context, consumerID uint64) ([]model.Review, error)
	ListByProvider(ctx context.Context, providerID uint64) ([]model.Review, error)
	Delete(ctx context.Context, id uint64) error
}

// AppointmentStore resolves whether a booking between the parties exists.
type AppointmentStore interface {
	GetByTriple(ctx context.Context, consumerID, providerID, serviceID uint64) (model.Appointment, error)
}

// RatingStore reads and writes the provider-service rating aggregate.
type RatingStore interface {
	GetProviderService(ctx context.Context, providerID, serviceID uint64) (model.ProviderService, error)
	UpdateRating(ctx context.Context, providerID, serviceID uint64, avg float64, count uint32) error
}

// Gate enforces eligibility and applies the rating fold.
type Gate struct {
	reviews      Store
	appointments AppointmentStore
	ratings      RatingStore
	now          func() time.Time
}

func NewGate(reviews Store, appointments AppointmentStore, ratings RatingStore) *Gate {
	return &Gate{
		reviews:      reviews,
		appointments: appointments,
		ratings:      ratings,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Fold merges a new rating into the running aggregate. A zero count is
// normalized to one before folding. When the current average is zero the
// new rating replaces it and the count is left as-is, so the first real
// review does not bump the counter; afterwards the new rating is averaged
// 50/50 against the running value. This is not a weighted running mean
// (recent reviews count far more than their share), but downstream
// consumers see these exact numbers today, so the formula is kept verbatim.
func Fold(avg float64, count uint32, rating float64) (float64, uint32) {
	if count == 0 {
		count = 1
	}
	if avg == 0 {
		return rating, count
	}
	return (avg + rating) / 2, count + 1
}

// Create runs the eligibility gates in order (duplicate, appointment
// existence, deadline) and on acceptance updates the provider-service
// aggregate and inserts the review.
func (g *Gate) Create(ctx context.Context, consumerID, providerID, serviceID uint64, rating float64, comment string) (model.Review, error) {
	_, err := g.reviews.GetByTriple(ctx, consumerID, providerID, serviceID)
	if err == nil {
		return model.Review{}, ErrDuplicate
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return model.Review{}, err
	}

	appt, err := g.appointments.GetByTriple(ctx, consumerID, providerID, serviceID)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Review{}, ErrNotAllowed
	}
	if err != nil {
		return model.Review{}, err
	}
	if appt.Deadline.After(g.now()) {
		return model.Review{}, ErrDeadlinePending
	}

	ps, err := g.ratings.GetProviderService(ctx, providerID, serviceID)
	if err != nil {
		return model.Review{}, err
	}
	avg, count := Fold(ps.AvgRating, ps.ReviewCount, rating)
	if err := g.ratings.UpdateRating(ctx, providerID, serviceID, avg, count); err != nil {
		return model.Review{}, err
	}

	rev := model.Review{
		ConsumerID: consumerID,
		ProviderID: providerID,
		ServiceID:  serviceID,
		Rating:     rating,
		Comment:    comment,
	}
	if err := g.reviews.Insert(ctx, &rev); err != nil {
		return model.Review{}, err
	}
	return rev, nil
}

// Get fetches a single review.
func (g *Gate) Get(ctx context.Context, id uint64) (model.Review, error) {
	return g.reviews.GetByID(ctx, id)
}

// ListForConsumer returns all reviews a consumer has written.
func (g *Gate) ListForConsumer(ctx context.Context, consumerID uint64) ([]model.Review, error) {
	return g.reviews.ListByConsumer(ctx, consumerID)
}

// ListForProvider returns all reviews a provider has received.
func (g *Gate) ListForProvider(ctx context.Context, providerID uint64) ([]model.Review, error) {
	return g.reviews.ListByProvider(ctx, providerID)
}

// Delete removes a review after fetching it so absence reports as
// NotFound. The rating aggregate is not rolled back.
func (g *Gate) Delete(ctx context.Context, id uint64) (model.Review, error) {
	rev, err := g.reviews.GetByID(ctx, id)
	if err != nil {
		return model.Review{}, err
	}
	if err := g.reviews.Delete(ctx, id); err != nil {
		return model.Review{}, err
	}
	return rev, nil
}
