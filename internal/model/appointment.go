package model

import "time"

// Appointment statuses. Requested is the only status assigned at creation.
// Cancelled is terminal: once an appointment is cancelled, neither the
// deadline sweep nor a provider action moves it again.
const (
    StatusRequested = "requested"
    StatusApproved  = "approved"
    StatusCancelled = "cancelled"
)

// DeadlineWindow is how long after the preferred date an appointment stays
// actionable. The deadline is fixed at booking time and never recomputed,
// even when the preferred date is later changed.
const DeadlineWindow = 48 * time.Hour

// Appointment mirrors the `appointment` table. A consumer books a provider
// for a service on a preferred date; the provider approves or cancels, and
// anything still open past the deadline is cancelled lazily on the next read.
//
// Fields:
//  ID            – primary key identifier.
//  ConsumerID    – account id of the booking consumer.
//  ProviderID    – account id of the provider being booked.
//  ServiceID     – service being booked.
//  Description   – free-form note from the consumer.
//  PreferredDate – when the consumer wants the service performed.
//  Deadline      – PreferredDate + DeadlineWindow, set once at creation.
//  Status        – requested, approved or cancelled.
type Appointment struct {
    ID            uint64    `json:"id"`             // appointment.id
    ConsumerID    uint64    `json:"consumer_id"`    // appointment.consumer_id
    ProviderID    uint64    `json:"provider_id"`    // appointment.provider_id
    ServiceID     uint64    `json:"service_id"`     // appointment.service_id
    Description   string    `json:"description"`    // appointment.description
    PreferredDate time.Time `json:"preferred_date"` // appointment.preferred_date
    Deadline      time.Time `json:"deadline"`       // appointment.deadline
    Status        string    `json:"status"`         // appointment.status
    CreatedAt     time.Time `json:"created_at"`     // appointment.created_at
    UpdatedAt     time.Time `json:"updated_at"`     // appointment.updated_at
}
