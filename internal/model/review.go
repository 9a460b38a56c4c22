package model

import "time"

// Review mirrors the `review` table. At most one review exists per
// (consumer, provider, service) triple, enforced by an existence check
// before insert. Reviews are immutable once created; deleting one does
// not roll the provider's rating aggregate back.
type Review struct {
    ID         uint64    `json:"id"`          // review.id
    ConsumerID uint64    `json:"consumer_id"` // review.consumer_id
    ProviderID uint64    `json:"provider_id"` // review.provider_id
    ServiceID  uint64    `json:"service_id"`  // review.service_id
    Rating     float64   `json:"rating"`      // review.rating
    Comment    string    `json:"comment"`     // review.comment
    CreatedAt  time.Time `json:"created_at"`  // review.created_at
}
