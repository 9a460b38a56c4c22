// Package queue defines message payloads exchanged over the message broker.
package queue

// Event names carried in the envelope's "event" field.
const (
	EventAppointmentRequested     = "appointment_requested"
	EventAppointmentStatusChanged = "appointment_status_changed"
)

// AppointmentRequestedEvent is published when a consumer books a new
// appointment. It carries enough for downstream consumers to log or notify
// without querying the primary database.
type AppointmentRequestedEvent struct {
	Event         string `json:"event"`
	AppointmentID uint64 `json:"appointment_id"`
	ConsumerID    uint64 `json:"consumer_id"`
	ProviderID    uint64 `json:"provider_id"`
	ServiceID     uint64 `json:"service_id"`
	Description   string `json:"description"`
	PreferredDate string `json:"preferred_date"`
	Deadline      string `json:"deadline"`
	RequestedAt   string `json:"requested_at"`
}

// AppointmentStatusChangedEvent is published when an appointment's status
// moves, whether by an explicit approval/cancellation or by deadline expiry.
type AppointmentStatusChangedEvent struct {
	Event         string `json:"event"`
	AppointmentID uint64 `json:"appointment_id"`
	ConsumerID    uint64 `json:"consumer_id"`
	ProviderID    uint64 `json:"provider_id"`
	OldStatus     string `json:"old_status"`
	NewStatus     string `json:"new_status"`
	ChangedAt     string `json:"changed_at"`
}
