package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/service-marketplace-api/internal/model"
)

// AppointmentRepo provides CRUD operations for the `appointment` table.
// Timestamps are stored in UTC. The duplicate-booking check performed by
// the booking engine is read-then-insert with no transaction; two
// simultaneous creates for the same consumer and service can both pass it.
// A unique key over (consumer_id, provider_id, service_id) would close the
// race, but is deliberately not added to keep parity with the deployed
// schema.
type AppointmentRepo struct{ DB *sql.DB }

func NewAppointmentRepo(db *sql.DB) *AppointmentRepo { return &AppointmentRepo{DB: db} }

const appointmentCols = "id,consumer_id,provider_id,service_id,description,preferred_date,deadline,status,created_at,updated_at"

func scanAppointment(row interface{ Scan(...interface{}) error }, a *model.Appointment) error {
	return row.Scan(&a.ID, &a.ConsumerID, &a.ProviderID, &a.ServiceID, &a.Description,
		&a.PreferredDate, &a.Deadline, &a.Status, &a.CreatedAt, &a.UpdatedAt)
}

// Insert persists a new appointment and reads the full row back so defaults
// and timestamps are populated on the given record.
func (r *AppointmentRepo) Insert(ctx context.Context, a *model.Appointment) error {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO appointment (consumer_id, provider_id, service_id, description, preferred_date, deadline, status)
		 VALUES (?,?,?,?,?,?,?)`,
		a.ConsumerID, a.ProviderID, a.ServiceID, a.Description, a.PreferredDate, a.Deadline, a.Status)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	a.ID = uint64(id)
	return scanAppointment(r.DB.QueryRowContext(ctx,
		"SELECT "+appointmentCols+" FROM appointment WHERE id=?", a.ID), a)
}

// GetByID fetches a single appointment.
func (r *AppointmentRepo) GetByID(ctx context.Context, id uint64) (model.Appointment, error) {
	var a model.Appointment
	err := scanAppointment(r.DB.QueryRowContext(ctx,
		"SELECT "+appointmentCols+" FROM appointment WHERE id=? LIMIT 1", id), &a)
	return a, notFound(err)
}

// GetByTriple fetches the appointment for an exact (consumer, provider,
// service) combination. ErrNotFound means none exists.
func (r *AppointmentRepo) GetByTriple(ctx context.Context, consumerID, providerID, serviceID uint64) (model.Appointment, error) {
	var a model.Appointment
	err := scanAppointment(r.DB.QueryRowContext(ctx,
		"SELECT "+appointmentCols+" FROM appointment WHERE consumer_id=? AND provider_id=? AND service_id=? LIMIT 1",
		consumerID, providerID, serviceID), &a)
	return a, notFound(err)
}

func (r *AppointmentRepo) list(ctx context.Context, where string, arg uint64) ([]model.Appointment, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+appointmentCols+" FROM appointment WHERE "+where+"=? ORDER BY created_at DESC", arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Appointment, 0)
	for rows.Next() {
		var a model.Appointment
		if err := scanAppointment(rows, &a); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// ListByConsumer returns all appointments booked by a consumer.
func (r *AppointmentRepo) ListByConsumer(ctx context.Context, consumerID uint64) ([]model.Appointment, error) {
	return r.list(ctx, "consumer_id", consumerID)
}

// ListByProvider returns all appointments addressed to a provider.
func (r *AppointmentRepo) ListByProvider(ctx context.Context, providerID uint64) ([]model.Appointment, error) {
	return r.list(ctx, "provider_id", providerID)
}

// ListByConsumerAndService returns a consumer's appointments for one
// service across all providers. The booking engine uses this to block
// double-booking a service that already has a current approved appointment.
func (r *AppointmentRepo) ListByConsumerAndService(ctx context.Context, consumerID, serviceID uint64) ([]model.Appointment, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+appointmentCols+" FROM appointment WHERE consumer_id=? AND service_id=?",
		consumerID, serviceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Appointment, 0)
	for rows.Next() {
		var a model.Appointment
		if err := scanAppointment(rows, &a); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// UpdateStatus sets the status of an appointment.
func (r *AppointmentRepo) UpdateStatus(ctx context.Context, id uint64, status string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE appointment SET status=?, updated_at=NOW() WHERE id=?", status, id)
	return err
}

// UpdateDate sets the preferred date. The deadline column is left as it was
// fixed at creation.
func (r *AppointmentRepo) UpdateDate(ctx context.Context, id uint64, date time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE appointment SET preferred_date=?, updated_at=NOW() WHERE id=?", date, id)
	return err
}

// Delete removes an appointment row.
func (r *AppointmentRepo) Delete(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM appointment WHERE id=?", id)
	return err
}
