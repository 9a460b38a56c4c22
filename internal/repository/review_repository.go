package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/service-marketplace-api/internal/model"
)

// ReviewRepo provides CRUD operations for the `review` table.
type ReviewRepo struct{ DB *sql.DB }

func NewReviewRepo(db *sql.DB) *ReviewRepo { return &ReviewRepo{DB: db} }

const reviewCols = "id,consumer_id,provider_id,service_id,rating,comment,created_at"

func scanReview(row interface{ Scan(...interface{}) error }, v *model.Review) error {
	return row.Scan(&v.ID, &v.ConsumerID, &v.ProviderID, &v.ServiceID, &v.Rating, &v.Comment, &v.CreatedAt)
}

// Insert persists a new review and reads the full row back.
func (r *ReviewRepo) Insert(ctx context.Context, v *model.Review) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO review (consumer_id, provider_id, service_id, rating, comment) VALUES (?,?,?,?,?)",
		v.ConsumerID, v.ProviderID, v.ServiceID, v.Rating, v.Comment)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	v.ID = uint64(id)
	return scanReview(r.DB.QueryRowContext(ctx,
		"SELECT "+reviewCols+" FROM review WHERE id=?", v.ID), v)
}

// GetByID fetches a single review.
func (r *ReviewRepo) GetByID(ctx context.Context, id uint64) (model.Review, error) {
	var v model.Review
	err := scanReview(r.DB.QueryRowContext(ctx,
		"SELECT "+reviewCols+" FROM review WHERE id=? LIMIT 1", id), &v)
	return v, notFound(err)
}

// GetByTriple fetches the review for an exact (consumer, provider, service)
// combination. ErrNotFound means the consumer has not reviewed this pair yet.
func (r *ReviewRepo) GetByTriple(ctx context.Context, consumerID, providerID, serviceID uint64) (model.Review, error) {
	var v model.Review
	err := scanReview(r.DB.QueryRowContext(ctx,
		"SELECT "+reviewCols+" FROM review WHERE consumer_id=? AND provider_id=? AND service_id=? LIMIT 1",
		consumerID, providerID, serviceID), &v)
	return v, notFound(err)
}

func (r *ReviewRepo) list(ctx context.Context, where string, arg uint64) ([]model.Review, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+reviewCols+" FROM review WHERE "+where+"=? ORDER BY created_at DESC", arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Review, 0)
	for rows.Next() {
		var v model.Review
		if err := scanReview(rows, &v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// ListByConsumer returns all reviews written by a consumer.
func (r *ReviewRepo) ListByConsumer(ctx context.Context, consumerID uint64) ([]model.Review, error) {
	return r.list(ctx, "consumer_id", consumerID)
}

// ListByProvider returns all reviews received by a provider.
func (r *ReviewRepo) ListByProvider(ctx context.Context, providerID uint64) ([]model.Review, error) {
	return r.list(ctx, "provider_id", providerID)
}

// Delete removes a review row. Rating aggregates are not recomputed on
// delete.
func (r *ReviewRepo) Delete(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM review WHERE id=?", id)
	return err
}
