package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/service-marketplace-api/internal/model"
)

// ServiceRepo provides access to the `services` catalog and the
// `map_provider_services` table linking providers to the services they
// offer. Rating columns on the map are written only through UpdateRating.
type ServiceRepo struct{ DB *sql.DB }

func NewServiceRepo(db *sql.DB) *ServiceRepo { return &ServiceRepo{DB: db} }

// ListServices returns the whole service catalog.
func (r *ServiceRepo) ListServices(ctx context.Context) ([]model.Service, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id,name,description,created_at FROM services ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Service, 0)
	for rows.Next() {
		var s model.Service
		if err := rows.Scan(&s.ID, &s.Name, &s.Description, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// AddServicesToProvider opts a provider into the given services. Each new
// row starts unverified with a zero rating. Returns how many rows were
// inserted.
func (r *ServiceRepo) AddServicesToProvider(ctx context.Context, providerID uint64, serviceIDs []uint64) (int, error) {
	count := 0
	for _, sid := range serviceIDs {
		_, err := r.DB.ExecContext(ctx,
			"INSERT INTO map_provider_services (provider_id, service_id, avg_rating, review_count, verified) VALUES (?,?,0,0,false)",
			providerID, sid)
		if err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

// SetVerified flips the verified flag on a provider-service mapping.
func (r *ServiceRepo) SetVerified(ctx context.Context, providerID, serviceID uint64, verified bool) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE map_provider_services SET verified=? WHERE provider_id=? AND service_id=?",
		verified, providerID, serviceID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetProviderService fetches one provider-service mapping.
func (r *ServiceRepo) GetProviderService(ctx context.Context, providerID, serviceID uint64) (model.ProviderService, error) {
	var ps model.ProviderService
	err := r.DB.QueryRowContext(ctx,
		"SELECT provider_id,service_id,avg_rating,review_count,verified,created_at FROM map_provider_services WHERE provider_id=? AND service_id=? LIMIT 1",
		providerID, serviceID).Scan(&ps.ProviderID, &ps.ServiceID, &ps.AvgRating, &ps.ReviewCount, &ps.Verified, &ps.CreatedAt)
	return ps, notFound(err)
}

// UpdateRating stores a freshly folded rating aggregate. Read-then-write
// with no compare-and-swap: concurrent reviews on the same pair can lose an
// update.
func (r *ServiceRepo) UpdateRating(ctx context.Context, providerID, serviceID uint64, avg float64, count uint32) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE map_provider_services SET avg_rating=?, review_count=? WHERE provider_id=? AND service_id=?",
		avg, count, providerID, serviceID)
	return err
}

// ListServicesOfProvider returns every mapping a provider has opted into,
// verified or not.
func (r *ServiceRepo) ListServicesOfProvider(ctx context.Context, providerID uint64) ([]model.ProviderService, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT provider_id,service_id,avg_rating,review_count,verified,created_at FROM map_provider_services WHERE provider_id=?",
		providerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.ProviderService, 0)
	for rows.Next() {
		var ps model.ProviderService
		if err := rows.Scan(&ps.ProviderID, &ps.ServiceID, &ps.AvgRating, &ps.ReviewCount, &ps.Verified, &ps.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, ps)
	}
	return out, rows.Err()
}

// ProviderOfService is the discovery join row: a verified provider-service
// mapping together with the provider's display name and stored coordinates
// and the service name. Coordinates stay strings here; the discovery
// package parses them.
type ProviderOfService struct {
	ProviderID   uint64  `json:"provider_id"`
	ServiceID    uint64  `json:"service_id"`
	AvgRating    float64 `json:"avg_rating"`
	ReviewCount  uint32  `json:"review_count"`
	ProviderName string  `json:"provider_name"`
	ServiceName  string  `json:"service_name"`
	Latitude     string  `json:"-"`
	Longitude    string  `json:"-"`
}

const providerOfServiceQuery = `SELECT mps.provider_id, mps.service_id, mps.avg_rating, mps.review_count,
	       p.name, s.name, p.latitude, p.longitude
	FROM map_provider_services mps
	JOIN services s ON s.id = mps.service_id
	JOIN user_profile p ON p.user_id = mps.provider_id
	WHERE mps.verified = true`

func (r *ServiceRepo) queryProvidersOfService(ctx context.Context, query string, args ...interface{}) ([]ProviderOfService, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]ProviderOfService, 0)
	for rows.Next() {
		var p ProviderOfService
		if err := rows.Scan(&p.ProviderID, &p.ServiceID, &p.AvgRating, &p.ReviewCount,
			&p.ProviderName, &p.ServiceName, &p.Latitude, &p.Longitude); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ListProvidersOfService returns the verified providers offering a service,
// best rated first.
func (r *ServiceRepo) ListProvidersOfService(ctx context.Context, serviceID uint64) ([]ProviderOfService, error) {
	return r.queryProvidersOfService(ctx,
		providerOfServiceQuery+" AND mps.service_id = ? ORDER BY mps.avg_rating DESC", serviceID)
}

// ListVerifiedProviders returns every verified provider-service row across
// all services. The discovery package deduplicates providers from this set.
func (r *ServiceRepo) ListVerifiedProviders(ctx context.Context) ([]ProviderOfService, error) {
	return r.queryProvidersOfService(ctx, providerOfServiceQuery)
}
