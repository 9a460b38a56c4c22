package model

import "time"

// Service is a row in the `services` catalog table.
type Service struct {
    ID          uint64    `json:"id"`          // services.id
    Name        string    `json:"name"`        // services.name
    Description string    `json:"description"` // services.description
    CreatedAt   time.Time `json:"created_at"`  // services.created_at
}

// ProviderService links a provider to a service they offer, together with
// the running rating aggregate. One row per (provider, service) pair,
// created when the provider opts into the service with a zero rating and
// verified=false. Only an admin flips Verified; only the review flow
// touches AvgRating/ReviewCount.
//
// Fields:
//  ProviderID  – account id of the provider.
//  ServiceID   – service being offered.
//  AvgRating   – running aggregate rating (see review.Fold for the formula).
//  ReviewCount – number of accepted reviews folded into the aggregate.
//  Verified    – whether an admin has verified the offering. Unverified
//                rows never appear in discovery results.
type ProviderService struct {
    ProviderID  uint64    `json:"provider_id"`  // map_provider_services.provider_id
    ServiceID   uint64    `json:"service_id"`   // map_provider_services.service_id
    AvgRating   float64   `json:"avg_rating"`   // map_provider_services.avg_rating
    ReviewCount uint32    `json:"review_count"` // map_provider_services.review_count
    Verified    bool      `json:"verified"`     // map_provider_services.verified
    CreatedAt   time.Time `json:"created_at"`   // map_provider_services.created_at
}
